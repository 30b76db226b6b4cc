package tartrans

import (
	"context"
	"io"
	"strconv"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/transmat/util"
	"github.com/polydawn/ustar/ustar"
)

var (
	_ util.UnpackFunc = Unpack
)

/*
	Unpack extracts a tar stream into afs and returns the manifest of what
	it read.

	The stream may be compressed; see cfg.Compression.
	Extraction stops at the first error, which is categorized with the api
	error categories and names the entry it happened on.  Nothing already
	placed is removed.

	The monitor channel is not closed; ExtractFile does that.
*/
func Unpack(
	ctx context.Context, // Long-running call.  Cancellable.
	reader io.Reader, // The archive stream.
	afs fs.FS, // Where to put things.
	cfg util.UnpackConfig, // Preserve flags, decoder settings, etc.
	mon api.Monitor, // Optionally: a channel for progress and log events.
) (_ api.Manifest, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	// Wrap input stream with decompression as necessary.
	//  Which kind of decompression to use can be autodetected by magic bytes.
	reader2, err := util.Decompress(reader, cfg.Compression)
	if err != nil {
		return nil, err
	}
	defer reader2.Close()

	// Convert the raw byte reader to a tar stream.
	tr := ustar.NewReader(reader2, cfg.Reader)
	placer := util.NewPlacer(afs, cfg, mon)

	// Iterate over each tar entry, mutating filesystem as we go.
	for {
		if ctx.Err() != nil {
			return nil, Errorf(api.ErrCancelled, "cancelled")
		}
		entry, err := tr.Next()

		// Check for done.
		if err == io.EOF {
			break // sucess!  end of archive.
		}
		if err != nil {
			return nil, err
		}

		// Reshuffle metainfo to our default format.
		fmeta, err := EntryToMetadata(entry)
		if err != nil {
			return nil, util.AddDetail(err, "entry", entry.Name())
		}

		// Place the file.
		switch fmeta.Type {
		case fs.Type_File:
			err = placer.Place(fmeta, tr)
		case fs.Type_Dir, fs.Type_Symlink, fs.Type_Hardlink, fs.Type_NamedPipe, fs.Type_Device, fs.Type_CharDevice:
			err = placer.Place(fmeta, nil)
		case fs.Type_Invalid:
			placer.Skip(fmeta, "unsupported typeflag "+strconv.QuoteRune(rune(entry.Typeflag())))
		default:
			placer.Skip(fmeta, "not supported by the extractor")
		}
		if err != nil {
			return nil, err
		}
	}

	return placer.Finish()
}
