package buffer

import (
	"context"
	"io"
	"io/ioutil"
	"os"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
)

type tempRemover struct {
	file *os.File
}

func (t tempRemover) Close() error {
	t.file.Close()
	return os.Remove(t.file.Name())
}

// SectionReader buffers a stream to a locally seekable file in the scratch dir.
// Some archive formats (zip) need to know the length and seek through packed data.
// This buffer bridges the gap between that need and a plain `io.Reader`
// such as stdin or a pipe.
//
// The returned Closer removes the file.
func SectionReader(
	ctx context.Context,
	reader io.Reader,
	scratch fs.AbsolutePath,
) (*io.SectionReader, io.Closer, error) {
	bufferFile, err := ioutil.TempFile(scratch.String(), "ustar-*")
	if err != nil {
		return nil, nil, Errorf(api.ErrIO, "error buffering archive: %s", err)
	}
	remover := tempRemover{bufferFile}

	size, err := io.Copy(bufferFile, reader)
	if err != nil {
		remover.Close()
		if _, ok := Category(err).(api.ErrorCategory); ok {
			return nil, nil, err
		}
		return nil, nil, Errorf(api.ErrIO, "error buffering archive: %s", err)
	}
	if ctx.Err() != nil {
		remover.Close()
		return nil, nil, Errorf(api.ErrCancelled, "cancelled")
	}

	return io.NewSectionReader(bufferFile, 0, size), remover, nil
}
