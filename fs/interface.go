package fs

import (
	"io"
	"time"
)

/*
	Interface for all primitive functions we expect to be able to perform
	on a filesystem.

	All paths accepted are RelPath types; typically the FS instance
	is constructed with an AbsolutePath, and all further operations are
	joined with that base path.

	Errors returned are categorized with this package's ErrorCategory values.
*/
type FS interface {
	// The AbsolutePath this filesystem is rooted at.  Used for messages.
	BasePath() AbsolutePath

	OpenFile(path RelPath, flag int, perms Perms) (File, error)
	Mkdir(path RelPath, perms Perms) error
	Mklink(path RelPath, target string) error
	Mkfifo(path RelPath, perms Perms) error
	MkdevBlock(path RelPath, major int64, minor int64, perms Perms) error
	MkdevChar(path RelPath, major int64, minor int64, perms Perms) error

	// Link makes a hardlink at path to the existing file at target.
	// Both are within the base path.
	Link(path RelPath, target RelPath) error

	Lchown(path RelPath, uid uint32, gid uint32) error
	Chmod(path RelPath, perms Perms) error
	SetTimesNano(path RelPath, mtime time.Time, atime time.Time) error

	Stat(path RelPath) (*Metadata, error)
	LStat(path RelPath) (*Metadata, error)

	// Readlink returns the target of a symlink, and a bool that is false
	// (with a nil error) if the path exists but is not a symlink.
	Readlink(path RelPath) (target string, isSymlink bool, err error)
}

// The subset of file handle operations the FS implementations must provide.
type File interface {
	io.Reader
	io.Writer
	io.Closer
}
