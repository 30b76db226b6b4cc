package ustar

import (
	"os/user"
	"strings"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
)

// BlockSize is the unit of everything in a tar stream: headers are exactly
// one block, and entry content is padded out to a whole number of them.
const BlockSize = 512

// Field widths.
const (
	nameSize     = 100
	modeSize     = 8
	uidSize      = 8
	gidSize      = 8
	sizeSize     = 12
	mtimeSize    = 12
	chksumSize   = 8
	linknameSize = 100
	magicSize    = 6
	versionSize  = 2
	unameSize    = 32
	gnameSize    = 32
	devSize      = 8
	prefixSize   = 155

	// MaxPathLen is the longest effective path a header can describe:
	// a full prefix, the joining slash, and a full name.
	MaxPathLen = prefixSize + 1 + nameSize
)

// Field offsets, in canonical order.
const (
	offName     = 0
	offMode     = offName + nameSize
	offUid      = offMode + modeSize
	offGid      = offUid + uidSize
	offSize     = offGid + gidSize
	offMtime    = offSize + sizeSize
	offChksum   = offMtime + mtimeSize
	offTypeflag = offChksum + chksumSize
	offLinkname = offTypeflag + 1
	offMagic    = offLinkname + linknameSize
	offVersion  = offMagic + magicSize
	offUname    = offVersion + versionSize
	offGname    = offUname + unameSize
	offDevmajor = offGname + gnameSize
	offDevminor = offDevmajor + devSize
	offPrefix   = offDevminor + devSize
	offEnd      = offPrefix + prefixSize
)

// Typeflag values.
const (
	TypeOldNormal byte = 0   // regular file, pre-POSIX
	TypeReg       byte = '0' // regular file
	TypeLink      byte = '1' // hard link
	TypeSymlink   byte = '2' // symbolic link
	TypeChar      byte = '3' // character device
	TypeBlock     byte = '4' // block device
	TypeDir       byte = '5' // directory
	TypeFifo      byte = '6' // FIFO
	TypeCont      byte = '7' // contiguous file
)

const (
	Magic   = "ustar"
	Version = "00"
)

/*
	Header is the decoded form of one 512-byte USTAR header block.

	String fields are plain Go strings.  Their byte widths are checked by
	Validate, which Encode calls: a header that does not fit is an error,
	never silently truncated.
*/
type Header struct {
	Name     string // up to 100 bytes; the tail of the effective path
	Mode     uint32 // permission bits (and, in some archives, type bits)
	Uid      uint32
	Gid      uint32
	Size     int64 // content length in bytes
	ModTime  int64 // unix seconds
	Checksum uint32 // as stored; ignored by Encode, which computes its own
	Typeflag byte
	Linkname string
	Magic    string
	Version  string
	Uname    string
	Gname    string
	Devmajor uint32
	Devminor uint32
	Prefix   string // up to 155 bytes; joined to Name with a slash when non-empty
}

// Path is the effective path: Prefix and Name joined by a slash.
func (h Header) Path() string {
	if h.Prefix == "" {
		return h.Name
	}
	return h.Prefix + "/" + h.Name
}

/*
	ParseHeader decodes a header block.

	The only error is a block of the wrong length.  Numeric fields that are
	junk decode as zero; the stored checksum is returned as-is in
	Header.Checksum and not checked here (see VerifyChecksum).
	An all-zero block decodes to a zero Header; callers are expected to have
	checked IsZeroBlock first.
*/
func ParseHeader(block []byte) (Header, error) {
	if len(block) != BlockSize {
		return Header{}, Errorf(api.ErrArchiveCorrupt, "tar header must be %d bytes, got %d", BlockSize, len(block))
	}
	return Header{
		Name:     parseString(block[offName:offMode]),
		Mode:     uint32(ParseOctal(block[offMode:offUid])),
		Uid:      uint32(ParseOctal(block[offUid:offGid])),
		Gid:      uint32(ParseOctal(block[offGid:offSize])),
		Size:     int64(ParseOctal(block[offSize:offMtime])),
		ModTime:  int64(ParseOctal(block[offMtime:offChksum])),
		Checksum: uint32(ParseOctal(block[offChksum:offTypeflag])),
		Typeflag: block[offTypeflag],
		Linkname: parseString(block[offLinkname:offMagic]),
		Magic:    parseString(block[offMagic:offVersion]),
		Version:  parseString(block[offVersion:offUname]),
		Uname:    parseString(block[offUname:offGname]),
		Gname:    parseString(block[offGname:offDevmajor]),
		Devmajor: uint32(ParseOctal(block[offDevmajor:offDevminor])),
		Devminor: uint32(ParseOctal(block[offDevminor:offPrefix])),
		Prefix:   parseString(block[offPrefix:offEnd]),
	}, nil
}

// Copy until the first NUL.
func parseString(field []byte) string {
	for i, c := range field {
		if c == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}

// Validate checks every string field fits its width.
func (h Header) Validate() error {
	for _, f := range []struct {
		name  string
		value string
		width int
	}{
		{"name", h.Name, nameSize},
		{"linkname", h.Linkname, linknameSize},
		{"magic", h.Magic, magicSize},
		{"version", h.Version, versionSize},
		{"uname", h.Uname, unameSize},
		{"gname", h.Gname, gnameSize},
		{"prefix", h.Prefix, prefixSize},
	} {
		if len(f.value) > f.width {
			return ErrorDetailed(api.ErrFieldOverflow,
				"tar header field "+f.name+" is too long",
				map[string]string{
					"field": f.name,
					"value": f.value,
				})
		}
	}
	if h.Size < 0 {
		return Errorf(api.ErrFieldOverflow, "tar header size must not be negative (got %d)", h.Size)
	}
	return nil
}

/*
	Encode serializes the header into dst, which must be exactly one block.

	This is a two-pass process because the checksum covers itself: the
	checksum region is blanked to spaces, every other field is written and
	the tail zeroed, the unsigned sum of the whole block is taken, and only
	then is the checksum written into its region.
	A blank Magic and Version are written as "ustar" and "00".
*/
func (h Header) Encode(dst []byte) error {
	if len(dst) != BlockSize {
		return Errorf(api.ErrUsage, "tar header buffer must be %d bytes, got %d", BlockSize, len(dst))
	}
	if err := h.Validate(); err != nil {
		return err
	}
	if h.Magic == "" {
		h.Magic = Magic
	}
	if h.Version == "" {
		h.Version = Version
	}
	modTime := h.ModTime
	if modTime < 0 {
		modTime = 0
	}

	putString(dst[offName:offMode], h.Name)
	putOctal(dst[offMode:offUid], uint64(h.Mode))
	putOctal(dst[offUid:offGid], uint64(h.Uid))
	putOctal(dst[offGid:offSize], uint64(h.Gid))
	putLongOctal(dst[offSize:offMtime], uint64(h.Size))
	putLongOctal(dst[offMtime:offChksum], uint64(modTime))
	copy(dst[offChksum:offTypeflag], "        ")
	dst[offTypeflag] = h.Typeflag
	putString(dst[offLinkname:offMagic], h.Linkname)
	putString(dst[offMagic:offVersion], h.Magic)
	putString(dst[offVersion:offUname], h.Version)
	putString(dst[offUname:offGname], h.Uname)
	putString(dst[offGname:offDevmajor], h.Gname)
	putOctal(dst[offDevmajor:offDevminor], uint64(h.Devmajor))
	putOctal(dst[offDevminor:offPrefix], uint64(h.Devminor))
	putString(dst[offPrefix:offEnd], h.Prefix)
	for i := offEnd; i < BlockSize; i++ {
		dst[i] = 0
	}

	putChecksumOctal(dst[offChksum:offTypeflag], uint64(Checksum(dst)))
	return nil
}

// Bytes is Encode into a freshly allocated block.
func (h Header) Bytes() ([]byte, error) {
	block := make([]byte, BlockSize)
	if err := h.Encode(block); err != nil {
		return nil, err
	}
	return block, nil
}

// NUL padded.  Callers have already checked the width.
func putString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// Checksum is the unsigned sum of every byte in buf.
func Checksum(buf []byte) uint32 {
	var sum uint32
	for _, c := range buf {
		sum += uint32(c)
	}
	return sum
}

// Some historic tars summed the header as signed bytes.
func signedChecksum(buf []byte) int64 {
	var sum int64
	for _, c := range buf {
		sum += int64(int8(c))
	}
	return sum
}

/*
	VerifyChecksum recomputes the checksum of a raw header block (with the
	checksum region taken as blank) and compares it to the stored value.
	Both the unsigned sum and the historic signed sum are accepted.
*/
func VerifyChecksum(block []byte) bool {
	if len(block) != BlockSize {
		return false
	}
	stored := ParseOctal(block[offChksum:offTypeflag])
	var blanked [BlockSize]byte
	copy(blanked[:], block)
	copy(blanked[offChksum:offTypeflag], "        ")
	return stored == uint64(Checksum(blanked[:])) || int64(stored) == signedChecksum(blanked[:])
}

// IsZeroBlock reports whether every byte of the block is zero:
// the end-of-archive marker.
func IsZeroBlock(block []byte) bool {
	for _, c := range block {
		if c != 0 {
			return false
		}
	}
	return true
}

/*
	CreateHeader builds the header for a file or directory being archived
	under the given path.

	Backslashes become slashes and leading and trailing slashes are trimmed.
	Paths longer than the name field are split at a slash into Prefix and
	Name.  Directories get mode 0755, TypeDir, a trailing slash on the name,
	and size zero; everything else is mode 0644 and TypeReg.
	A path that cannot be split to fit is an ErrFieldOverflow.
*/
func CreateHeader(path string, size int64, modTime int64, isDir bool) (Header, error) {
	path = strings.Trim(strings.Replace(path, "\\", "/", -1), "/")
	h := Header{
		ModTime: modTime,
		Magic:   Magic,
		Version: Version,
		Uname:   defaultUname(),
	}
	if isDir {
		path += "/"
		h.Mode = 0755
		h.Typeflag = TypeDir
	} else {
		h.Mode = 0644
		h.Typeflag = TypeReg
		h.Size = size
	}
	prefix, name, err := splitPath(path)
	if err != nil {
		return Header{}, err
	}
	h.Prefix, h.Name = prefix, name
	return h, nil
}

/*
	Split a normalized path into the prefix and name fields.

	The split is at the last slash that leaves the name within its width;
	a trailing slash (as on directories) stays with the name.
*/
func splitPath(path string) (prefix, name string, err error) {
	if len(path) <= nameSize {
		return "", path, nil
	}
	if len(path) > MaxPathLen {
		return "", "", ErrorDetailed(api.ErrFieldOverflow,
			"path is too long for a ustar header",
			map[string]string{"path": path})
	}
	// Search for a slash at or before the prefix width; the trailing slash
	// of a directory name is not a candidate.
	limit := len(path) - 2
	if limit > prefixSize {
		limit = prefixSize
	}
	for i := limit; i > 0; i-- {
		if path[i] != '/' {
			continue
		}
		if len(path)-i-1 > nameSize {
			break
		}
		return path[:i], path[i+1:], nil
	}
	return "", "", ErrorDetailed(api.ErrFieldOverflow,
		"path has no split point that fits a ustar header",
		map[string]string{"path": path})
}

// The current user's name, clipped to fit the uname field with a terminator.
func defaultUname() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	name := u.Username
	if len(name) > unameSize-1 {
		name = name[:unameSize-1]
	}
	return name
}
