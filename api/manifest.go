package api

// EntryType names the kind of filesystem node an archive entry describes.
type EntryType string

const (
	EntryType_File       EntryType = "file"
	EntryType_Dir        EntryType = "dir"
	EntryType_Symlink    EntryType = "symlink"
	EntryType_Hardlink   EntryType = "hardlink"
	EntryType_CharDevice EntryType = "chardev"
	EntryType_Device     EntryType = "blockdev"
	EntryType_NamedPipe  EntryType = "fifo"
)

/*
	One record of a Manifest: the metadata of a single archive entry as it was
	read (and, for extraction, placed).

	Digest is only set for entries with content; it is an OCI-style digest
	string such as "sha256:2cf24dba...".
	Skipped is set for entries that were listed but not placed on the
	filesystem (e.g. device nodes).
*/
type EntryInfo struct {
	Name     string    `refmt:"name"`
	Type     EntryType `refmt:"type"`
	Mode     int64     `refmt:"mode"`
	Size     int64     `refmt:"size"`
	Mtime    int64     `refmt:"mtime"`
	Linkname string    `refmt:"link,omitempty"`
	Digest   string    `refmt:"digest,omitempty"`
	Skipped  bool      `refmt:"skipped,omitempty"`
}

// Manifest lists entries in archive order.
type Manifest []EntryInfo

// Find returns the first entry with the given name, or nil.
func (m Manifest) Find(name string) *EntryInfo {
	for i := range m {
		if m[i].Name == name {
			return &m[i]
		}
	}
	return nil
}
