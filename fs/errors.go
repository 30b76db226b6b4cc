package fs

import (
	"os"
	"syscall"

	. "github.com/warpfork/go-errcat"
)

type ErrorCategory string

const (
	ErrMisc          ErrorCategory = "fs-misc"           // Catchall.  Anything we don't have a more specific category for.
	ErrNotExists     ErrorCategory = "fs-not-exists"     // Path does not exist.
	ErrAlreadyExists ErrorCategory = "fs-already-exists" // Path already exists (when we needed to create it).
	ErrNotDir        ErrorCategory = "fs-not-dir"        // A path segment that should have been a dir was not.
	ErrPermission    ErrorCategory = "fs-permission"     // Permission denied.
	ErrShortWrite    ErrorCategory = "fs-short-write"    // Writing a file came up short (e.g. disk full).
	ErrUnsupported   ErrorCategory = "fs-unsupported"    // The filesystem cannot hold this kind of file at all.

	/*
		Error returned when operating in a confined filesystem slice, but doing
		the requested operation would leave it, either by a ".." path or by
		traversing a symlink.

		Note that any function returning ErrBreakout is, by nature, doing so in a
		best-effort sense: if there are concurrent modifcations to the operational
		area of the filesystem by any other processes, it is *impossible* to
		avoid a TOCTOU violation.
	*/
	ErrBreakout ErrorCategory = "fs-breakout"
)

/*
	Normalize an error from the os package (or a syscall) into one of our
	categories.  A nil error stays nil.
*/
func NormalizeIOError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case os.IsNotExist(err):
		return Errorf(ErrNotExists, "%s", err)
	case os.IsExist(err):
		return Errorf(ErrAlreadyExists, "%s", err)
	case os.IsPermission(err):
		return Errorf(ErrPermission, "%s", err)
	}
	if pe, ok := err.(*os.PathError); ok {
		err = pe.Err
	}
	switch err {
	case syscall.ENOTDIR:
		return Errorf(ErrNotDir, "%s", err)
	case syscall.ENOSPC:
		return Errorf(ErrShortWrite, "%s", err)
	}
	return Errorf(ErrMisc, "%s", err)
}
