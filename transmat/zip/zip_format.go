package ziptrans

import (
	"encoding/binary"
	"os"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
)

// MemberToMetadata converts a zip member to fs.Metadata.
// Symlink targets are stored as content in zips; the caller fills in Linkname.
func MemberToMetadata(m Member) (fs.Metadata, error) {
	name, ok := fs.ParseRelPath(m.Name())
	if !ok {
		return fs.Metadata{}, Errorf(api.ErrArchiveCorrupt, "corrupt zip: paths that use '../' to leave the base dir are invalid (%q)", m.Name())
	}
	mode := m.Mode()
	fmeta := fs.Metadata{
		Name:  name,
		Type:  modeToFsType(mode),
		Perms: modeToPerms(mode),
		Size:  m.Size(),
		Mtime: m.ModTime().UTC(),
	}
	if m.IsDir() {
		fmeta.Type = fs.Type_Dir
		fmeta.Size = 0
	}
	if owned, ok := m.(interface {
		Ownership() (uid, gid uint32, ok bool)
	}); ok {
		fmeta.Uid, fmeta.Gid, _ = owned.Ownership()
	}
	return fmeta, nil
}

func modeToFsType(mode os.FileMode) fs.Type {
	switch mode & (os.ModeType | os.ModeCharDevice) {
	case 0:
		return fs.Type_File
	case os.ModeDir:
		return fs.Type_Dir
	case os.ModeSymlink:
		return fs.Type_Symlink
	case os.ModeNamedPipe:
		return fs.Type_NamedPipe
	case os.ModeSocket:
		return fs.Type_Socket
	case os.ModeDevice:
		return fs.Type_Device
	case os.ModeDevice | os.ModeCharDevice:
		return fs.Type_CharDevice
	default:
		return fs.Type_Invalid
	}
}

func modeToPerms(mode os.FileMode) fs.Perms {
	perms := fs.Perms(mode.Perm())
	if mode&os.ModeSetuid != 0 {
		perms |= fs.Perms_Setuid
	}
	if mode&os.ModeSetgid != 0 {
		perms |= fs.Perms_Setgid
	}
	if mode&os.ModeSticky != 0 {
		perms |= fs.Perms_Sticky
	}
	return perms
}

// parseOwnership reads uid and gid from the unix extra fields of a zip header.
// The newer unix3 (0x7875) field wins over unix2 (0x7855) if both are present.
func parseOwnership(extra []byte) (uid, gid uint32, ok bool) {
	for len(extra) >= 4 {
		tag := binary.LittleEndian.Uint16(extra[0:2])
		size := int(binary.LittleEndian.Uint16(extra[2:4]))
		if len(extra) < 4+size {
			return uid, gid, ok
		}
		data := extra[4 : 4+size]
		extra = extra[4+size:]
		switch tag {
		case 0x7855:
			// The central directory copy of this field is empty.
			if size == 4 && !ok {
				uid = uint32(binary.LittleEndian.Uint16(data[0:2]))
				gid = uint32(binary.LittleEndian.Uint16(data[2:4]))
				ok = true
			}
		case 0x7875:
			if u, g, ok3 := parseUnix3(data); ok3 {
				return u, g, true
			}
		}
	}
	return uid, gid, ok
}

// version(1) uidSize(1) uid gidSize(1) gid, all little endian.
func parseUnix3(data []byte) (uid, gid uint32, ok bool) {
	if len(data) < 2 || data[0] != 1 {
		return 0, 0, false
	}
	uidSize := int(data[1])
	if len(data) < 2+uidSize+1 {
		return 0, 0, false
	}
	uid, ok = littleEndianUint(data[2 : 2+uidSize])
	if !ok {
		return 0, 0, false
	}
	gidSize := int(data[2+uidSize])
	rest := data[3+uidSize:]
	if len(rest) < gidSize {
		return 0, 0, false
	}
	gid, ok = littleEndianUint(rest[:gidSize])
	return uid, gid, ok
}

// Ids wider than 32 bits are refused.
func littleEndianUint(b []byte) (uint32, bool) {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	if v > 0xffffffff {
		return 0, false
	}
	return uint32(v), true
}
