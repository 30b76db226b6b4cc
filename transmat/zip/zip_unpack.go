package ziptrans

import (
	"context"
	"io"
	"io/ioutil"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/config"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/transmat/mixins/buffer"
	"github.com/polydawn/ustar/transmat/util"
)

var (
	_ util.UnpackFunc = UnpackStream
)

// Symlink targets longer than this are treated as corruption.
const maxLinkname = 4096

/*
	UnpackStream extracts a zip from a stream.

	Zips are read from the end, so the stream must be seekable; if it isn't
	(a pipe, say), it is first spooled to a temporary file in the scratch dir.
*/
func UnpackStream(
	ctx context.Context, // Long-running call.  Cancellable.
	reader io.Reader, // The archive stream.
	afs fs.FS, // Where to put things.
	cfg util.UnpackConfig, // Preserve flags, etc.  Compression is ignored.
	mon api.Monitor, // Optionally: a channel for progress and log events.
) (_ api.Manifest, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	var (
		readerAt io.ReaderAt
		size     int64
	)
	switch r := reader.(type) {
	case interface {
		io.ReaderAt
		io.Seeker
	}:
		size, err = r.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, Errorf(api.ErrIO, "error seeking archive: %s", err)
		}
		readerAt = r
	default:
		sr, closer, err := buffer.SectionReader(ctx, reader, config.GetScratchPath())
		if err != nil {
			return nil, err
		}
		defer closer.Close()
		readerAt, size = sr, sr.Size()
	}

	archive, err := NewArchive(readerAt, size)
	if err != nil {
		return nil, err
	}
	return Unpack(ctx, archive, afs, cfg, mon)
}

/*
	Unpack extracts every member of a zip archive into afs, sharing the
	placement logic (and thus the manifest, conjured parents, and dir
	repaving) with the tar path.
*/
func Unpack(
	ctx context.Context,
	archive Archive,
	afs fs.FS,
	cfg util.UnpackConfig,
	mon api.Monitor,
) (_ api.Manifest, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	placer := util.NewPlacer(afs, cfg, mon)

	// Iterate over each entry, mutating filesystem as we go.
	for _, m := range archive.Members() {
		if ctx.Err() != nil {
			return nil, Errorf(api.ErrCancelled, "cancelled")
		}

		// Reshuffle metainfo to our default format.
		fmeta, err := MemberToMetadata(m)
		if err != nil {
			return nil, util.AddDetail(err, "entry", m.Name())
		}

		// Place the file.
		switch fmeta.Type {
		case fs.Type_File:
			err = placeMember(placer, fmeta, m)
		case fs.Type_Symlink:
			fmeta.Linkname, err = readLinkname(m)
			if err == nil {
				err = placer.Place(fmeta, nil)
			}
		case fs.Type_Dir:
			err = placer.Place(fmeta, nil)
		default:
			placer.Skip(fmeta, "not supported by the extractor")
		}
		if err != nil {
			return nil, util.AddDetail(err, "entry", fmeta.Name.String())
		}
	}

	return placer.Finish()
}

func placeMember(placer *util.Placer, fmeta fs.Metadata, m Member) error {
	r, err := m.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	return placer.Place(fmeta, r)
}

func readLinkname(m Member) (string, error) {
	r, err := m.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	bs, err := ioutil.ReadAll(io.LimitReader(r, maxLinkname+1))
	if err != nil {
		return "", err
	}
	if len(bs) > maxLinkname {
		return "", Errorf(api.ErrArchiveCorrupt, "corrupt zip: symlink %s has a %d+ byte target", m.Name(), maxLinkname)
	}
	return string(bs), nil
}
