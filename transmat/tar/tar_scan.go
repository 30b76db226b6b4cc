package tartrans

import (
	"context"
	"io"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs/nilfs"
	"github.com/polydawn/ustar/transmat/util"
)

// A "scan" is roughly the same as an unpack to /dev/null:
// every entry is still decoded, bounds-checked, and digested, so a scan
// that succeeds means an extraction would have read the same stream fine.

/*
	Scan reads a whole tar stream and returns its manifest without placing
	anything.
*/
func Scan(
	ctx context.Context, // Long-running call.  Cancellable.
	reader io.Reader, // The archive stream.
	cfg util.UnpackConfig, // Decoder settings; preserve flags are ignored.
	mon api.Monitor, // Optionally: a channel for progress and log events.
) (api.Manifest, error) {
	cfg.PreserveOwnership = false
	return Unpack(ctx, reader, nilfs.New(), cfg, mon)
}
