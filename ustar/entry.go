package ustar

import (
	"strings"
	"time"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
)

/*
	Entry is one logical record of an archive: a header, and optionally the
	filesystem node it was built from.

	Entries yielded by a Reader are snapshots; they stay valid after the
	Reader advances, but their content can only be read before it does.
*/
type Entry struct {
	header Header
	file   *fs.Metadata // set only for entries built from a filesystem
}

func NewEntry(h Header) *Entry {
	return &Entry{header: h}
}

// ParseEntry decodes a header block into an Entry.
// An all-zero block is not an error here; see IsZeroBlock.
func ParseEntry(block []byte) (*Entry, error) {
	h, err := ParseHeader(block)
	if err != nil {
		return nil, err
	}
	return &Entry{header: h}, nil
}

/*
	NewEntryFromFile stats a path in the given filesystem and builds the
	entry that would describe it in an archive under entryName.
*/
func NewEntryFromFile(afs fs.FS, path fs.RelPath, entryName string) (*Entry, error) {
	fmeta, err := afs.Stat(path)
	if err != nil {
		return nil, err
	}
	isDir := fmeta.Type == fs.Type_Dir
	h, err := CreateHeader(entryName, fmeta.Size, fmeta.Mtime.Unix(), isDir)
	if err != nil {
		return nil, err
	}
	return &Entry{header: h, file: fmeta}, nil
}

// Header returns a copy of the entry's header.
func (e *Entry) Header() Header { return e.header }

// File returns the filesystem metadata the entry was built from, or nil.
func (e *Entry) File() *fs.Metadata { return e.file }

// Name is the effective path: prefix and name rejoined.
func (e *Entry) Name() string { return e.header.Path() }

/*
	SetName replaces the entry's path, splitting it across the prefix and
	name fields as needed.  Unlike CreateHeader, the name is used as given:
	no slashes are trimmed or added.
*/
func (e *Entry) SetName(name string) error {
	prefix, base, err := splitPath(name)
	if err != nil {
		return err
	}
	e.header.Prefix, e.header.Name = prefix, base
	return nil
}

func (e *Entry) Size() int64        { return e.header.Size }
func (e *Entry) SetSize(size int64) { e.header.Size = size }

// ModTime has second granularity; anything finer is dropped.
func (e *Entry) ModTime() time.Time     { return time.Unix(e.header.ModTime, 0) }
func (e *Entry) SetModTime(t time.Time) { e.header.ModTime = t.Unix() }

func (e *Entry) Uid() uint32 { return e.header.Uid }
func (e *Entry) Gid() uint32 { return e.header.Gid }
func (e *Entry) SetIds(uid, gid uint32) {
	e.header.Uid = uid
	e.header.Gid = gid
}

func (e *Entry) Uname() string { return e.header.Uname }
func (e *Entry) SetUname(name string) error {
	if len(name) > unameSize {
		return Errorf(api.ErrFieldOverflow, "user name %q is longer than %d bytes", name, unameSize)
	}
	e.header.Uname = name
	return nil
}

func (e *Entry) Gname() string { return e.header.Gname }
func (e *Entry) SetGname(name string) error {
	if len(name) > gnameSize {
		return Errorf(api.ErrFieldOverflow, "group name %q is longer than %d bytes", name, gnameSize)
	}
	e.header.Gname = name
	return nil
}

func (e *Entry) Typeflag() byte   { return e.header.Typeflag }
func (e *Entry) Linkname() string { return e.header.Linkname }
func (e *Entry) Mode() uint32     { return e.header.Mode }

/*
	IsDirectory is true when the entry was built from a directory, or when
	its header says so, by typeflag or by a name ending in a slash.
	Any one of these is enough.
*/
func (e *Entry) IsDirectory() bool {
	if e.file != nil && e.file.Type == fs.Type_Dir {
		return true
	}
	return e.header.Typeflag == TypeDir || strings.HasSuffix(e.header.Name, "/")
}

// IsRegular is true for the typeflags that carry file content to place.
func (e *Entry) IsRegular() bool {
	switch e.header.Typeflag {
	case TypeReg, TypeOldNormal, TypeCont:
		return !e.IsDirectory()
	default:
		return false
	}
}

// Equals compares entries by effective name only.
func (e *Entry) Equals(other *Entry) bool {
	return e.Name() == other.Name()
}

// IsDescendant reports whether other's name falls under this entry's name.
// This is a plain string prefix test.
func (e *Entry) IsDescendant(other *Entry) bool {
	return strings.HasPrefix(other.Name(), e.Name())
}

// WriteHeader serializes the entry's header into a 512-byte buffer.
func (e *Entry) WriteHeader(dst []byte) error {
	return e.header.Encode(dst)
}
