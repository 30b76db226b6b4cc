/*
	An fs.FS backed by a go-billy filesystem.

	The main use is extracting into `memfs` -- for dry runs that validate an
	archive end to end without touching disk, and for tests.

	Billy filesystems are more forgiving than the os: for example, memfs will
	conjure parent dirs when creating a file.  This implementation checks
	parents itself so the behavior matches osfs, and the same compliance tests
	pass for both.
*/
package billyfs

import (
	"os"
	"path"
	"time"

	. "github.com/warpfork/go-errcat"
	"gopkg.in/src-d/go-billy.v4"

	"github.com/polydawn/ustar/fs"
)

// Optional billy extension for metadata changes.
//  Not every billy implementation has it (memfs doesn't); when absent, those
//  operations are no-ops.
type changer interface {
	Chmod(name string, mode os.FileMode) error
	Lchown(name string, uid, gid int) error
	Chtimes(name string, atime time.Time, mtime time.Time) error
}

// New wraps a billy filesystem.  The basePath is only used in messages.
func New(bfs billy.Filesystem, basePath fs.AbsolutePath) fs.FS {
	return &billyFS{bfs, basePath}
}

type billyFS struct {
	bfs      billy.Filesystem
	basePath fs.AbsolutePath
}

func (afs *billyFS) BasePath() fs.AbsolutePath {
	return afs.basePath
}

func (afs *billyFS) OpenFile(p fs.RelPath, flag int, perms fs.Perms) (fs.File, error) {
	name, err := afs.name(p)
	if err != nil {
		return nil, err
	}
	if flag&os.O_CREATE != 0 {
		if err := afs.requireParentDir(p); err != nil {
			return nil, err
		}
	}
	f, err := afs.bfs.OpenFile(name, flag, os.FileMode(perms&0777))
	if err != nil {
		return nil, fs.NormalizeIOError(err)
	}
	return f, nil
}

func (afs *billyFS) Mkdir(p fs.RelPath, perms fs.Perms) error {
	name, err := afs.name(p)
	if err != nil {
		return err
	}
	if _, err := afs.bfs.Lstat(name); err == nil {
		return Errorf(fs.ErrAlreadyExists, "mkdir %s: file exists", name)
	}
	if err := afs.requireParentDir(p); err != nil {
		return err
	}
	return fs.NormalizeIOError(afs.bfs.MkdirAll(name, os.FileMode(perms&0777)))
}

func (afs *billyFS) Mklink(p fs.RelPath, target string) error {
	name, err := afs.name(p)
	if err != nil {
		return err
	}
	if _, err := afs.bfs.Lstat(name); err == nil {
		return Errorf(fs.ErrAlreadyExists, "symlink %s: file exists", name)
	}
	if err := afs.requireParentDir(p); err != nil {
		return err
	}
	return fs.NormalizeIOError(afs.bfs.Symlink(target, name))
}

// Billy has no notion of fifos, device nodes, or hardlinks.

func (afs *billyFS) Mkfifo(p fs.RelPath, perms fs.Perms) error {
	return afs.unsupported(p, fs.Type_NamedPipe)
}

func (afs *billyFS) MkdevBlock(p fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	return afs.unsupported(p, fs.Type_Device)
}

func (afs *billyFS) MkdevChar(p fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	return afs.unsupported(p, fs.Type_CharDevice)
}

func (afs *billyFS) Link(p fs.RelPath, target fs.RelPath) error {
	return afs.unsupported(p, fs.Type_Hardlink)
}

func (afs *billyFS) unsupported(p fs.RelPath, t fs.Type) error {
	if _, err := afs.name(p); err != nil {
		return err
	}
	return Errorf(fs.ErrUnsupported, "%s: cannot make a %s in a billy filesystem", p, t)
}

func (afs *billyFS) Lchown(p fs.RelPath, uid uint32, gid uint32) error {
	name, err := afs.name(p)
	if err != nil {
		return err
	}
	if ch, ok := afs.bfs.(changer); ok {
		return fs.NormalizeIOError(ch.Lchown(name, int(uid), int(gid)))
	}
	return nil
}

func (afs *billyFS) Chmod(p fs.RelPath, perms fs.Perms) error {
	name, err := afs.name(p)
	if err != nil {
		return err
	}
	if ch, ok := afs.bfs.(changer); ok {
		return fs.NormalizeIOError(ch.Chmod(name, os.FileMode(perms&0777)))
	}
	return nil
}

func (afs *billyFS) SetTimesNano(p fs.RelPath, mtime time.Time, atime time.Time) error {
	name, err := afs.name(p)
	if err != nil {
		return err
	}
	if ch, ok := afs.bfs.(changer); ok {
		return fs.NormalizeIOError(ch.Chtimes(name, atime, mtime))
	}
	return nil
}

func (afs *billyFS) Stat(p fs.RelPath) (*fs.Metadata, error) {
	name, err := afs.name(p)
	if err != nil {
		return nil, err
	}
	if p == (fs.RelPath{}) {
		return afs.rootMetadata(), nil
	}
	fi, err := afs.bfs.Stat(name)
	if err != nil {
		return nil, fs.NormalizeIOError(err)
	}
	return fs.FileInfoToMetadata(p, fi), nil
}

func (afs *billyFS) LStat(p fs.RelPath) (*fs.Metadata, error) {
	name, err := afs.name(p)
	if err != nil {
		return nil, err
	}
	if p == (fs.RelPath{}) {
		return afs.rootMetadata(), nil
	}
	fi, err := afs.bfs.Lstat(name)
	if err != nil {
		return nil, fs.NormalizeIOError(err)
	}
	fmeta := fs.FileInfoToMetadata(p, fi)
	if fmeta.Type == fs.Type_Symlink {
		target, err := afs.bfs.Readlink(name)
		if err != nil {
			return nil, fs.NormalizeIOError(err)
		}
		fmeta.Linkname = target
	}
	return fmeta, nil
}

func (afs *billyFS) Readlink(p fs.RelPath) (string, bool, error) {
	name, err := afs.name(p)
	if err != nil {
		return "", false, err
	}
	fi, err := afs.bfs.Lstat(name)
	if err != nil {
		return "", false, fs.NormalizeIOError(err)
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		return "", false, nil
	}
	target, err := afs.bfs.Readlink(name)
	if err != nil {
		return "", false, fs.NormalizeIOError(err)
	}
	return target, true, nil
}

func (afs *billyFS) name(p fs.RelPath) (string, error) {
	if p.GoesUp() {
		return "", Errorf(fs.ErrBreakout, "fs: invalid path %q: must not depart basepath", p)
	}
	return path.Join("/", p.Bare()), nil
}

// Billy implementations vary in whether the root itself can be stat'd;
// the root of a billy filesystem always exists as far as we're concerned.
func (afs *billyFS) rootMetadata() *fs.Metadata {
	return &fs.Metadata{Type: fs.Type_Dir, Perms: 0755, Mtime: fs.DefaultTime}
}

func (afs *billyFS) requireParentDir(p fs.RelPath) error {
	parent := p.Dir()
	if parent == (fs.RelPath{}) {
		return nil
	}
	pname, _ := afs.name(parent)
	fi, err := afs.bfs.Stat(pname)
	if err != nil {
		return fs.NormalizeIOError(err)
	}
	if !fi.IsDir() {
		return Errorf(fs.ErrNotDir, "%s is not a directory", pname)
	}
	return nil
}
