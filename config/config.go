/*
	Helpers for loading contextual config.

	Config for ustar means "things that are the host machine operator's concerns".
	So, things like scratch paths and copy buffer sizes are considered "config",
	as opposed to parameters for function calls (which come from flags).
*/
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/polydawn/ustar/fs"
)

// DefaultBufferSize is the copy chunk size used when USTAR_BUFFER_SIZE is unset.
const DefaultBufferSize = 2048

/*
	Return the home-base path prefix that is the default root for all other ustar paths.

	The default value is `"/var/lib/ustar"`;
	this can be overriden by the `USTAR_BASE` environment variable.
*/
func GetBasePath() fs.AbsolutePath {
	pth := os.Getenv("USTAR_BASE")
	if pth == "" {
		pth = "/var/lib/ustar"
	}
	return mustAbs(pth)
}

/*
	Return the path where non-seekable input gets spooled (zip archives need
	random access).

	The default value is `"$USTAR_BASE/scratch"`, or the OS temp dir if that
	does not exist;
	this can be overriden by the `USTAR_SCRATCH` environment variable.
*/
func GetScratchPath() fs.AbsolutePath {
	pth := os.Getenv("USTAR_SCRATCH")
	if pth != "" {
		return mustAbs(pth)
	}
	scratch := GetBasePath().Join(fs.MustRelPath("scratch"))
	if fi, err := os.Stat(scratch.String()); err == nil && fi.IsDir() {
		return scratch
	}
	return mustAbs(os.TempDir())
}

/*
	Return the chunk size for copying entry content to disk.

	The default value is 2048 bytes;
	this can be overriden by the `USTAR_BUFFER_SIZE` environment variable.
	Values that don't parse as a positive integer are ignored.
*/
func GetBufferSize() int {
	n, err := strconv.Atoi(os.Getenv("USTAR_BUFFER_SIZE"))
	if err != nil || n <= 0 {
		return DefaultBufferSize
	}
	return n
}

func mustAbs(pth string) fs.AbsolutePath {
	pth, err := filepath.Abs(pth)
	if err != nil {
		panic(err)
	}
	return fs.MustAbsolutePath(pth)
}
