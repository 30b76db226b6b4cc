/*
	An fs.FS that discards everything.

	Every path looks like an existing, empty directory; writes succeed and go
	nowhere.  Running an extraction against it exercises the whole decode path
	(content is still read, digested, and bounds-checked) without placing
	anything, which is how listing works.
*/
package nilfs

import (
	"io"
	"time"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/fs"
)

func New() fs.FS {
	return &nilFS{fs.MustAbsolutePath("/-")}
}

type nilFS struct {
	basePath fs.AbsolutePath
}

func (afs *nilFS) BasePath() fs.AbsolutePath {
	return afs.basePath
}

func (afs *nilFS) OpenFile(path fs.RelPath, flag int, perms fs.Perms) (fs.File, error) {
	if err := afs.check(path); err != nil {
		return nil, err
	}
	return nilFile{}, nil
}

func (afs *nilFS) Mkdir(path fs.RelPath, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) Mklink(path fs.RelPath, target string) error {
	return afs.check(path)
}

func (afs *nilFS) Mkfifo(path fs.RelPath, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) MkdevBlock(path fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) MkdevChar(path fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) Link(path fs.RelPath, target fs.RelPath) error {
	if err := afs.check(target); err != nil {
		return err
	}
	return afs.check(path)
}

func (afs *nilFS) Lchown(path fs.RelPath, uid uint32, gid uint32) error {
	return afs.check(path)
}

func (afs *nilFS) Chmod(path fs.RelPath, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) SetTimesNano(path fs.RelPath, mtime time.Time, atime time.Time) error {
	return afs.check(path)
}

func (afs *nilFS) Stat(path fs.RelPath) (*fs.Metadata, error) {
	return afs.LStat(path)
}

func (afs *nilFS) LStat(path fs.RelPath) (*fs.Metadata, error) {
	if err := afs.check(path); err != nil {
		return nil, err
	}
	return &fs.Metadata{Name: path, Type: fs.Type_Dir, Perms: 0755, Mtime: fs.DefaultTime}, nil
}

func (afs *nilFS) Readlink(path fs.RelPath) (string, bool, error) {
	if err := afs.check(path); err != nil {
		return "", false, err
	}
	return "", false, nil
}

func (afs *nilFS) check(path fs.RelPath) error {
	if path.GoesUp() {
		return Errorf(fs.ErrBreakout, "fs: invalid path %q: must not depart basepath", path)
	}
	return nil
}

var _ fs.File = nilFile{}

type nilFile struct{}

func (nilFile) Close() error                 { return nil }
func (nilFile) Read(bs []byte) (int, error)  { return 0, io.EOF }
func (nilFile) Write(bs []byte) (int, error) { return len(bs), nil }
