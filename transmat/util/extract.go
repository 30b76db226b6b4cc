package util

import (
	"context"
	"io"
	"os"
	"path/filepath"

	. "github.com/warpfork/go-errcat"
	"gopkg.in/src-d/go-billy.v4/memfs"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/fs/billyfs"
	"github.com/polydawn/ustar/fs/nilfs"
	"github.com/polydawn/ustar/fs/osfs"
)

// UnpackFunc extracts one archive stream into a filesystem.
// Both the tar and zip packages provide one.
type UnpackFunc func(
	ctx context.Context,
	reader io.Reader,
	afs fs.FS,
	cfg UnpackConfig,
	mon api.Monitor,
) (api.Manifest, error)

type ExtractFunc func(
	ctx context.Context, // Long-running call.  Cancellable.
	archivePath string, // Path of the archive file.
	destPath string, // Where to unpack (must exist).
	cfg UnpackConfig, // Preserve flags, decoder settings, etc.
	mon api.Monitor, // Optionally: a channel for progress and log events.
) (api.Manifest, error)

type ScanFunc func(
	ctx context.Context,
	archivePath string,
	cfg UnpackConfig,
	mon api.Monitor,
) (api.Manifest, error)

/*
	CreateExtractor wraps an UnpackFunc with the file handling shared by
	every archive format.

	The archive and destination are both checked before anything is opened
	(api.ErrArchiveMissing and api.ErrDestinationMissing respectively).
	The archive file is closed on every exit path, and the monitor channel,
	if any, is closed when the extraction returns.
*/
func CreateExtractor(unpacker UnpackFunc) ExtractFunc {
	return func(
		ctx context.Context,
		archivePath string,
		destPath string,
		cfg UnpackConfig,
		mon api.Monitor,
	) (_ api.Manifest, err error) {
		if mon.Chan != nil {
			defer close(mon.Chan)
		}
		defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

		if err := checkArchive(archivePath); err != nil {
			return nil, err
		}
		dest, err := checkDestination(destPath)
		if err != nil {
			return nil, err
		}
		archive, err := openArchive(archivePath)
		if err != nil {
			return nil, err
		}
		defer archive.Close()

		// Construct filesystem wrapper to use for all our ops.
		var afs fs.FS
		if cfg.DryRun {
			afs = billyfs.New(memfs.New(), dest)
		} else {
			afs = osfs.New(dest)
		}

		manifest, err := unpacker(ctx, archive, afs, cfg, mon)
		return manifest, AddDetail(err, "archive", archivePath)
	}
}

// CreateScanner is CreateExtractor, minus a destination: nothing is placed,
// but every entry is still read, bounds-checked, and digested.
func CreateScanner(unpacker UnpackFunc) ScanFunc {
	return func(
		ctx context.Context,
		archivePath string,
		cfg UnpackConfig,
		mon api.Monitor,
	) (_ api.Manifest, err error) {
		if mon.Chan != nil {
			defer close(mon.Chan)
		}
		defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

		archive, err := openArchive(archivePath)
		if err != nil {
			return nil, err
		}
		defer archive.Close()

		cfg.PreserveOwnership = false
		manifest, err := unpacker(ctx, archive, nilfs.New(), cfg, mon)
		return manifest, AddDetail(err, "archive", archivePath)
	}
}

func checkDestination(destPath string) (fs.AbsolutePath, error) {
	if destPath == "" {
		return fs.AbsolutePath{}, Errorf(api.ErrUsage, "destination path must be set")
	}
	abs, err := toAbsolute(destPath)
	if err != nil {
		return fs.AbsolutePath{}, err
	}
	fi, err := os.Stat(abs.String())
	switch {
	case os.IsNotExist(err):
		return abs, ErrorDetailed(api.ErrDestinationMissing, "destination "+destPath+" does not exist",
			map[string]string{"destination": destPath})
	case err != nil:
		return abs, Errorf(api.ErrIO, "cannot stat destination: %s", err)
	case !fi.IsDir():
		return abs, ErrorDetailed(api.ErrDestinationMissing, "destination "+destPath+" is not a directory",
			map[string]string{"destination": destPath})
	}
	return abs, nil
}

func checkArchive(archivePath string) error {
	if archivePath == "" {
		return Errorf(api.ErrUsage, "archive path must be set")
	}
	_, err := os.Stat(archivePath)
	return archiveError(archivePath, err)
}

func openArchive(archivePath string) (*os.File, error) {
	if err := checkArchive(archivePath); err != nil {
		return nil, err
	}
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, archiveError(archivePath, err)
	}
	return f, nil
}

func archiveError(archivePath string, err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return ErrorDetailed(api.ErrArchiveMissing, "archive "+archivePath+" does not exist",
			map[string]string{"archive": archivePath})
	default:
		return ErrorDetailed(api.ErrIO, "cannot open archive: "+err.Error(),
			map[string]string{"archive": archivePath})
	}
}

func toAbsolute(pth string) (fs.AbsolutePath, error) {
	abs, err := filepath.Abs(pth)
	if err != nil {
		return fs.AbsolutePath{}, Errorf(api.ErrUsage, "invalid path %q: %s", pth, err)
	}
	return fs.MustAbsolutePath(abs), nil
}
