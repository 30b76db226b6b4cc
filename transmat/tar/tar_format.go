package tartrans

import (
	"time"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/ustar"
)

// Convert a decoded entry to fs.Metadata.
// Names that would leave the base dir are rejected as corrupt.
// Typeflags we don't know (including extended header types) come back as
// fs.Type_Invalid; the caller decides what to do about those.
func EntryToMetadata(entry *ustar.Entry) (fs.Metadata, error) {
	name, ok := fs.ParseRelPath(entry.Name())
	if !ok {
		return fs.Metadata{}, Errorf(api.ErrArchiveCorrupt, "corrupt tar: paths that use '../' to leave the base dir are invalid (%q)", entry.Name())
	}
	fmeta := fs.Metadata{
		Name:     name,
		Type:     tarTypeToFsType(entry.Typeflag()),
		Perms:    fs.Perms(entry.Mode() & 07777),
		Uid:      entry.Uid(),
		Gid:      entry.Gid(),
		Size:     entry.Size(),
		Linkname: entry.Linkname(),
		Devmajor: int64(entry.Header().Devmajor),
		Devminor: int64(entry.Header().Devminor),
		Mtime:    time.Unix(entry.Header().ModTime, 0).UTC(),
	}
	// Old archives mark dirs only with a trailing slash.
	if entry.IsDirectory() {
		fmeta.Type = fs.Type_Dir
		fmeta.Size = 0
	}
	return fmeta, nil
}

func tarTypeToFsType(tarType byte) fs.Type {
	switch tarType {
	case ustar.TypeReg, ustar.TypeOldNormal, ustar.TypeCont:
		return fs.Type_File
	case ustar.TypeLink:
		return fs.Type_Hardlink
	case ustar.TypeSymlink:
		return fs.Type_Symlink
	case ustar.TypeChar:
		return fs.Type_CharDevice
	case ustar.TypeBlock:
		return fs.Type_Device
	case ustar.TypeDir:
		return fs.Type_Dir
	case ustar.TypeFifo:
		return fs.Type_NamedPipe
	// Notice that tar does not have a type for socket files
	default:
		return fs.Type_Invalid
	}
}
