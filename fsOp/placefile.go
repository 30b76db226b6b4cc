package fsOp

import (
	"io"
	"os"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/fs"
)

/*
	Places a file on the filesystem.
	Replicates the attributes described in the metadata.

	The path within the filesystem is `fmeta.Name` (conventionally, this means
	the filesystem will join the `fmeta.Name` with the absolute base path
	it was constructed with).  The parent dir must already exist.

	No changes are allowed to occur outside of the filesystem's base path.
	Symlinks may *point* at paths outside of the base path, and dangling
	symlinks are acceptable -- however symlinks may *not* be traversed during
	any part of `fmeta.Name`; this is considered malformed input and will
	result in ErrBreakout.

	Files are truncated if they already exist.  Dirs that already exist are
	kept, and have their attributes reapplied.
	A zero Mtime leaves times as the filesystem set them.

	Content is copied through buf; if buf is nil, a default size is used.
	Errors from reading the body are returned as-is, so a corrupt archive
	stays a corrupt-archive error; errors writing are fs errors.

	Please note that like all filesystem operations within a lightyear of
	symlinks, all validations are best-effort, but are only capable of
	correctness in the absense of concurrent modifications inside the base path.

	Hardlinks name their target in `fmeta.Linkname`, relative to the base
	path; the target must already be placed, and is held to the same
	no-symlinks rule as the link's own path.  A hardlink shares its target's
	attributes, so none are applied to it.
	Sockets can't be placed.
*/
func PlaceFile(afs fs.FS, fmeta fs.Metadata, body io.Reader, buf []byte, skipChown bool) error {
	// First, no part of the path may be a symlink.
	if err := checkNoSymlinks(afs, fmeta.Name); err != nil {
		return err
	}

	// Fill in the content.  (Attribs come later.)
	switch fmeta.Type {
	case fs.Type_File:
		file, err := afs.OpenFile(fmeta.Name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fmeta.Perms)
		if err != nil {
			return err
		}
		if buf == nil {
			buf = make([]byte, 32*1024)
		}
		w := &errTrackingWriter{w: file}
		if _, err := io.CopyBuffer(w, body, buf); err != nil {
			file.Close()
			if w.err != nil {
				return fs.NormalizeIOError(w.err)
			}
			if err == io.ErrShortWrite {
				return Errorf(fs.ErrShortWrite, "short write placing %s", fmeta.Name)
			}
			return err
		}
		if err := file.Close(); err != nil {
			return fs.NormalizeIOError(err)
		}
	case fs.Type_Dir:
		// The dir may exist; we'll just chown+chmod+chtime it.
		//  There is no race-free path through this btw, unless you know of a way to lstat and mkdir in the same syscall.
		if existing, err := afs.LStat(fmeta.Name); err == nil && existing.Type == fs.Type_Dir {
			break
		}
		if err := afs.Mkdir(fmeta.Name, fmeta.Perms); err != nil {
			return err
		}
	case fs.Type_Symlink:
		// linkname can be anything you want.  It continues to be a string parameter rather than
		// any of our normalized `fs.*Path` types because it is perfectly valid (if odd)
		// to store the string ".///" as a symlink target.
		if err := afs.Mklink(fmeta.Name, fmeta.Linkname); err != nil {
			return err
		}
	case fs.Type_NamedPipe:
		if err := afs.Mkfifo(fmeta.Name, fmeta.Perms); err != nil {
			return err
		}
	case fs.Type_Device:
		if err := afs.MkdevBlock(fmeta.Name, fmeta.Devmajor, fmeta.Devminor, fmeta.Perms); err != nil {
			return err
		}
	case fs.Type_CharDevice:
		if err := afs.MkdevChar(fmeta.Name, fmeta.Devmajor, fmeta.Devminor, fmeta.Perms); err != nil {
			return err
		}
	case fs.Type_Hardlink:
		target, ok := fs.ParseRelPath(fmeta.Linkname)
		if !ok {
			return Errorf(fs.ErrBreakout, "invalid hardlink %s -> %q: target departs the base path", fmeta.Name, fmeta.Linkname)
		}
		if err := checkNoSymlinks(afs, target); err != nil {
			return err
		}
		return afs.Link(fmeta.Name, target)
	default:
		return Errorf(fs.ErrMisc, "placing %s: cannot place a %s", fmeta.Name, fmeta.Type)
	}

	if !skipChown {
		if err := afs.Lchown(fmeta.Name, fmeta.Uid, fmeta.Gid); err != nil {
			return err
		}
	}

	// There's no such thing as `lchmod` on linux, and symlink perms mean nothing anyway.
	if fmeta.Type != fs.Type_Symlink {
		if err := afs.Chmod(fmeta.Name, fmeta.Perms); err != nil {
			return err
		}
	}

	if !fmeta.Mtime.IsZero() {
		if err := afs.SetTimesNano(fmeta.Name, fmeta.Mtime, fs.DefaultAtime); err != nil {
			return err
		}
	}
	return nil
}

// Walk each path segment below the base, rejecting any that is a symlink.
func checkNoSymlinks(afs fs.FS, path fs.RelPath) error {
	if path.GoesUp() {
		return Errorf(fs.ErrBreakout, "%s departs the base path %s", path, afs.BasePath())
	}
	for _, p := range path.Split()[1:] {
		target, isSymlink, err := afs.Readlink(p)
		switch {
		case isSymlink:
			return ErrorDetailed(fs.ErrBreakout,
				"refusing to place "+path.String()+": "+p.String()+" is a symlink",
				map[string]string{
					"path":       path.String(),
					"linkPath":   p.String(),
					"linkTarget": target,
				})
		case err == nil:
			continue // regular paths are fine.
		case Category(err) == fs.ErrNotExists:
			return nil // nothing below a missing path can exist either.
		default:
			return err // any other unknown error means we lack perms or something: reject.
		}
	}
	return nil
}

// Remembers write errors, so they can be told apart from read errors
// after a copy.  Also hides any ReaderFrom on the file, so copies really
// go through the given buffer.
type errTrackingWriter struct {
	w   io.Writer
	err error
}

func (tw *errTrackingWriter) Write(p []byte) (int, error) {
	n, err := tw.w.Write(p)
	if err != nil {
		tw.err = err
	}
	return n, err
}
