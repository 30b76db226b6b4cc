package fs

import (
	"time"
)

type Metadata struct {
	Name     RelPath   // filename
	Type     Type      // type enum
	Perms    Perms     // permission bits
	Uid      uint32    // user id of owner
	Gid      uint32    // group id of owner
	Size     int64     // length in bytes
	Linkname string    // if symlink or hardlink: target name of link
	Devmajor int64     // major number of character or block device
	Devminor int64     // minor number of character or block device
	Mtime    time.Time // modified time
}

/*
	Type enum for files.

	These are distinct from tar typeflags and from `os.FileMode`: the codec
	translates into this enum at the edge, and everything that touches a
	filesystem speaks only this.
*/
type Type string

const (
	Type_Invalid    Type = ""
	Type_File       Type = "F"
	Type_Dir        Type = "D"
	Type_Symlink    Type = "L"
	Type_NamedPipe  Type = "P"
	Type_Socket     Type = "S"
	Type_Device     Type = "B"
	Type_CharDevice Type = "C"
	Type_Hardlink   Type = "H" // Not a real "type", but used in describing tar.
)

func (t Type) String() string {
	switch t {
	case Type_File:
		return "file"
	case Type_Dir:
		return "dir"
	case Type_Symlink:
		return "symlink"
	case Type_NamedPipe:
		return "fifo"
	case Type_Socket:
		return "socket"
	case Type_Device:
		return "blockdev"
	case Type_CharDevice:
		return "chardev"
	case Type_Hardlink:
		return "hardlink"
	default:
		return "invalid"
	}
}

// Permission bits, including setuid/setgid/sticky, in their unix numeric positions.
type Perms uint16

const (
	Perms_Sticky Perms = 01000
	Perms_Setgid Perms = 02000
	Perms_Setuid Perms = 04000
)

// The mtime we use for conjured (implied but not described) directories.
var DefaultTime time.Time = time.Unix(1262304000, 0).UTC()

// Atime is never preserved; this is what we set it to when setting mtimes.
var DefaultAtime time.Time = DefaultTime
