package fs

import (
	"os"
)

/*
	Convert the portable parts of an os.FileInfo to Metadata.

	Ownership and link targets are not available from a FileInfo in a portable
	way; FS implementations fill those in themselves.
*/
func FileInfoToMetadata(path RelPath, fi os.FileInfo) *Metadata {
	fmeta := &Metadata{
		Name:  path,
		Mtime: fi.ModTime(),
	}

	// Munge perms and mode to our types.
	fm := fi.Mode()
	switch fm & (os.ModeType | os.ModeCharDevice) {
	case 0:
		fmeta.Type = Type_File
	case os.ModeDir:
		fmeta.Type = Type_Dir
	case os.ModeSymlink:
		fmeta.Type = Type_Symlink
	case os.ModeNamedPipe:
		fmeta.Type = Type_NamedPipe
	case os.ModeSocket:
		fmeta.Type = Type_Socket
	case os.ModeDevice:
		fmeta.Type = Type_Device
	case os.ModeDevice | os.ModeCharDevice:
		fmeta.Type = Type_CharDevice
	default:
		fmeta.Type = Type_Invalid
	}
	fmeta.Perms = Perms(fm.Perm())
	if fm&os.ModeSetuid != 0 {
		fmeta.Perms |= Perms_Setuid
	}
	if fm&os.ModeSetgid != 0 {
		fmeta.Perms |= Perms_Setgid
	}
	if fm&os.ModeSticky != 0 {
		fmeta.Perms |= Perms_Sticky
	}

	// Copy over the size info... but only for file types.
	//  This is "system dependent" for others.  Knowing how many blocks a dir takes
	//  up is very rarely what we want...
	if fmeta.Type == Type_File {
		fmeta.Size = fi.Size()
	}
	return fmeta
}
