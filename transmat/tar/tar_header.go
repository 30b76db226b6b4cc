package tartrans

import (
	"io"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/ustar"
)

/*
	WriteHeaderBlock builds the header for one file and writes the single
	512-byte block to w.

	entryName is the name recorded in the header; if empty, the path itself
	is used.  Only the header is written, never content or an archive
	trailer.
*/
func WriteHeaderBlock(afs fs.FS, path fs.RelPath, entryName string, w io.Writer) (_ *ustar.Entry, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	if entryName == "" {
		entryName = path.Bare()
	}
	entry, err := ustar.NewEntryFromFile(afs, path, entryName)
	if err != nil {
		if _, ok := Category(err).(api.ErrorCategory); ok {
			return nil, err
		}
		return nil, ErrorDetailed(api.ErrIO, err.Error(), map[string]string{"path": path.String()})
	}
	block := make([]byte, ustar.BlockSize)
	if err := entry.WriteHeader(block); err != nil {
		return nil, err
	}
	if _, err := w.Write(block); err != nil {
		return nil, Errorf(api.ErrIO, "error writing header: %s", err)
	}
	return entry, nil
}
