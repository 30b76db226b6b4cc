package osfs

import (
	"os"
	"syscall"
	"time"

	. "github.com/warpfork/go-errcat"
	"golang.org/x/sys/unix"

	"github.com/polydawn/ustar/fs"
)

func init() {
	// Permissions in archives are absolute; don't let the process umask mangle them.
	unix.Umask(0)
}

func New(basePath fs.AbsolutePath) fs.FS {
	return &osFS{basePath}
}

type osFS struct {
	basePath fs.AbsolutePath
}

func (afs *osFS) BasePath() fs.AbsolutePath {
	return afs.basePath
}

func (afs *osFS) OpenFile(path fs.RelPath, flag int, perms fs.Perms) (fs.File, error) {
	rpath, err := afs.realpath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(rpath, flag, permsToOs(perms))
	if err != nil {
		return nil, fs.NormalizeIOError(err)
	}
	return f, nil
}

func (afs *osFS) Mkdir(path fs.RelPath, perms fs.Perms) error {
	rpath, err := afs.realpath(path)
	if err != nil {
		return err
	}
	err = os.Mkdir(rpath, permsToOs(perms))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Mklink(path fs.RelPath, target string) error {
	rpath, err := afs.realpath(path)
	if err != nil {
		return err
	}
	err = os.Symlink(target, rpath)
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Mkfifo(path fs.RelPath, perms fs.Perms) error {
	rpath, err := afs.realpath(path)
	if err != nil {
		return err
	}
	err = unix.Mkfifo(rpath, uint32(perms&07777))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) MkdevBlock(path fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	return afs.mknod(path, unix.S_IFBLK, major, minor, perms)
}

func (afs *osFS) MkdevChar(path fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	return afs.mknod(path, unix.S_IFCHR, major, minor, perms)
}

func (afs *osFS) mknod(path fs.RelPath, kind uint32, major int64, minor int64, perms fs.Perms) error {
	rpath, err := afs.realpath(path)
	if err != nil {
		return err
	}
	err = unix.Mknod(rpath, kind|uint32(perms&07777), int(unix.Mkdev(uint32(major), uint32(minor))))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Link(path fs.RelPath, target fs.RelPath) error {
	rpath, err := afs.realpath(path)
	if err != nil {
		return err
	}
	rtarget, err := afs.realpath(target)
	if err != nil {
		return err
	}
	err = os.Link(rtarget, rpath)
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Lchown(path fs.RelPath, uid uint32, gid uint32) error {
	rpath, err := afs.realpath(path)
	if err != nil {
		return err
	}
	err = unix.Lchown(rpath, int(uid), int(gid))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Chmod(path fs.RelPath, perms fs.Perms) error {
	rpath, err := afs.realpath(path)
	if err != nil {
		return err
	}
	err = os.Chmod(rpath, permsToOs(perms))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) SetTimesNano(path fs.RelPath, mtime time.Time, atime time.Time) error {
	rpath, err := afs.realpath(path)
	if err != nil {
		return err
	}
	utimes := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	// Never follow symlinks; there's no reason to touch the mtime of a link target.
	err = unix.UtimesNanoAt(unix.AT_FDCWD, rpath, utimes, unix.AT_SYMLINK_NOFOLLOW)
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Stat(path fs.RelPath) (*fs.Metadata, error) {
	rpath, err := afs.realpath(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(rpath)
	if err != nil {
		return nil, fs.NormalizeIOError(err)
	}
	return afs.convertFileinfo(path, fi)
}

func (afs *osFS) LStat(path fs.RelPath) (*fs.Metadata, error) {
	rpath, err := afs.realpath(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Lstat(rpath)
	if err != nil {
		return nil, fs.NormalizeIOError(err)
	}
	return afs.convertFileinfo(path, fi)
}

func (afs *osFS) convertFileinfo(path fs.RelPath, fi os.FileInfo) (*fs.Metadata, error) {
	fmeta := fs.FileInfoToMetadata(path, fi)

	// If it's a symlink, get that info.
	//  It's an extra syscall, but we almost always want it.
	if fmeta.Type == fs.Type_Symlink {
		target, _, err := afs.readlink(afs.basePath.Join(path).String())
		if err != nil {
			return nil, fs.NormalizeIOError(err)
		}
		fmeta.Linkname = target
	}

	// Munge UID and GID bits.  These are platform dependent.
	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		fmeta.Uid = sys.Uid
		fmeta.Gid = sys.Gid
	}
	return fmeta, nil
}

func (afs *osFS) Readlink(path fs.RelPath) (string, bool, error) {
	rpath, err := afs.realpath(path)
	if err != nil {
		return "", false, err
	}
	target, isLink, err := afs.readlink(rpath)
	err = fs.NormalizeIOError(err)
	return target, isLink, err
}
func (afs *osFS) readlink(path string) (string, bool, error) {
	target, err := os.Readlink(path)
	switch {
	case err == nil:
		return target, true, nil
	case err.(*os.PathError).Err == unix.EINVAL:
		// EINVAL means "not a symlink".
		// We return this as false and a nil error because it's frequently useful to use
		// the readlink syscall blindly with an lstat first in order to save a syscall.
		return "", false, nil
	default:
		return "", false, err
	}
}

// Resolves a path against the base path.
// Paths that go up are rejected outright; symlink traversal is the caller's
// concern (see fsOp.PlaceFile).
func (afs *osFS) realpath(path fs.RelPath) (string, error) {
	if path.GoesUp() {
		return "", Errorf(fs.ErrBreakout, "fs: invalid path %q: must not depart basepath", path)
	}
	return afs.basePath.Join(path).String(), nil
}

func permsToOs(perms fs.Perms) (mode os.FileMode) {
	mode = os.FileMode(perms & 0777)
	if perms&fs.Perms_Setuid != 0 {
		mode |= os.ModeSetuid
	}
	if perms&fs.Perms_Setgid != 0 {
		mode |= os.ModeSetgid
	}
	if perms&fs.Perms_Sticky != 0 {
		mode |= os.ModeSticky
	}
	return mode
}
