package ziptrans

import (
	"archive/zip"
	"io"
	"os"
	"time"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
)

// Archive is the little the extractor needs from a zip: its members, in order.
type Archive interface {
	Members() []Member
}

// Member is one entry of an Archive.
type Member interface {
	Name() string
	IsDir() bool
	Mode() os.FileMode
	ModTime() time.Time
	Size() int64
	Open() (io.ReadCloser, error)
}

// NewArchive reads the central directory of a zip held in r.
func NewArchive(r io.ReaderAt, size int64) (Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, Errorf(api.ErrArchiveCorrupt, "corrupt zip: %s", err)
	}
	return zipArchive{zr}, nil
}

type zipArchive struct {
	zr *zip.Reader
}

func (a zipArchive) Members() []Member {
	members := make([]Member, len(a.zr.File))
	for i, zf := range a.zr.File {
		members[i] = zipMember{zf}
	}
	return members
}

type zipMember struct {
	zf *zip.File
}

func (m zipMember) Name() string       { return m.zf.Name }
func (m zipMember) IsDir() bool        { return m.zf.Mode().IsDir() }
func (m zipMember) Mode() os.FileMode  { return m.zf.Mode() }
func (m zipMember) ModTime() time.Time { return m.zf.Modified }
func (m zipMember) Size() int64        { return int64(m.zf.UncompressedSize64) }

func (m zipMember) Open() (io.ReadCloser, error) {
	r, err := m.zf.Open()
	if err != nil {
		return nil, Errorf(api.ErrArchiveCorrupt, "corrupt zip: %s: %s", m.zf.Name, err)
	}
	return corruptOnError{r}, nil
}

func (m zipMember) Ownership() (uid, gid uint32, ok bool) {
	return parseOwnership(m.zf.Extra)
}

// Errors reading a member mean bad compressed data or a checksum mismatch.
type corruptOnError struct {
	io.ReadCloser
}

func (r corruptOnError) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		return n, Errorf(api.ErrArchiveCorrupt, "corrupt zip: %s", err)
	}
	return n, err
}
