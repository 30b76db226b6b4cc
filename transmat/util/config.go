package util

import (
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/config"
	"github.com/polydawn/ustar/ustar"
)

// Compression names a decompression filter for the archive stream.
type Compression string

const (
	Compression_Auto  Compression = "auto" // sniff magic bytes; the zero value means this too
	Compression_None  Compression = "none"
	Compression_Gzip  Compression = "gzip"
	Compression_Bzip2 Compression = "bzip2"
	Compression_Xz    Compression = "xz"
	Compression_Zstd  Compression = "zstd"
	Compression_Lz4   Compression = "lz4"
)

// ParseCompression accepts the names used on the command line.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case "", Compression_Auto:
		return Compression_Auto, nil
	case Compression_None, Compression_Gzip, Compression_Bzip2, Compression_Xz, Compression_Zstd, Compression_Lz4:
		return c, nil
	default:
		return "", Errorf(api.ErrUsage, "unknown compression %q", s)
	}
}

/*
	Parameters for one extraction.

	Nothing here is host config; these all come from the caller (usually
	command line flags).  Use DefaultUnpackConfig for the usual settings.
*/
type UnpackConfig struct {
	// Chunk size for copying entry content.  Zero means config.GetBufferSize().
	BufferSize int

	// Whether to apply the mode bits recorded in the archive.
	// When false, files get 0644 (0755 if any exec bit was set) and dirs get 0755.
	PreservePerms bool

	// Whether to apply the mtimes recorded in the archive.
	PreserveMtime bool

	// Whether to apply the uid and gid recorded in the archive.
	// Only honored if the process can chown; see the caps package.
	PreserveOwnership bool

	// Which decompression to apply to tar streams.  Zip ignores this.
	Compression Compression

	// Passed through to the tar decoder.
	Reader ustar.ReaderConfig

	// Extract into memory instead of the destination.  The destination must
	// still exist.
	DryRun bool
}

func DefaultUnpackConfig() UnpackConfig {
	return UnpackConfig{
		BufferSize:    config.GetBufferSize(),
		PreservePerms: true,
		PreserveMtime: true,
		Compression:   Compression_Auto,
	}
}

func (cfg UnpackConfig) bufferSize() int {
	if cfg.BufferSize <= 0 {
		return config.GetBufferSize()
	}
	return cfg.BufferSize
}
