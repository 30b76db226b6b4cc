package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"time"

	"github.com/polydawn/ustar/ustar"
)

// FixtureMtime is stamped on every fixture entry.
var FixtureMtime = time.Date(2017, 7, 14, 2, 40, 0, 0, time.UTC)

/*
	One entry for a fixture archive.

	A name ending in "/" is a dir.  A non-empty Linkname makes a symlink.
	Mode zero means 0644 for files and 0755 for dirs.
*/
type FixtureEntry struct {
	Name     string
	Body     string
	Mode     uint32
	Linkname string
	Typeflag byte // overrides the inferred typeflag if set
	Devmajor uint32
	Devminor uint32
}

func (ent FixtureEntry) header() ustar.Header {
	h := ustar.Header{
		Name:     ent.Name,
		Mode:     ent.Mode,
		ModTime:  FixtureMtime.Unix(),
		Typeflag: ustar.TypeReg,
		Size:     int64(len(ent.Body)),
		Linkname: ent.Linkname,
		Devmajor: ent.Devmajor,
		Devminor: ent.Devminor,
	}
	switch {
	case ent.Typeflag != 0:
		h.Typeflag = ent.Typeflag
	case ent.Linkname != "":
		h.Typeflag = ustar.TypeSymlink
	case len(ent.Name) > 0 && ent.Name[len(ent.Name)-1] == '/':
		h.Typeflag = ustar.TypeDir
	}
	if h.Mode == 0 {
		h.Mode = 0644
		if h.Typeflag == ustar.TypeDir {
			h.Mode = 0755
		}
	}
	return h
}

/*
	Lay out a complete tar stream: header blocks, padded content, and the
	two zero blocks at the end.

	Panics on entries that don't fit a header; fixtures are expected to be
	well-formed.
*/
func BuildTar(entries ...FixtureEntry) []byte {
	var buf bytes.Buffer
	for _, ent := range entries {
		block, err := ent.header().Bytes()
		if err != nil {
			panic(err)
		}
		buf.Write(block)
		buf.WriteString(ent.Body)
		if rem := len(ent.Body) % ustar.BlockSize; rem != 0 {
			buf.Write(make([]byte, ustar.BlockSize-rem))
		}
	}
	buf.Write(make([]byte, 2*ustar.BlockSize))
	return buf.Bytes()
}

// BuildZip lays out the same entries as a zip archive.
// Symlinks and typeflag overrides are ignored.
func BuildZip(entries ...FixtureEntry) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, ent := range entries {
		h := ent.header()
		zh := &zip.FileHeader{
			Name:     ent.Name,
			Method:   zip.Deflate,
			Modified: FixtureMtime,
		}
		if h.Typeflag == ustar.TypeDir {
			zh.Method = zip.Store
		}
		zh.SetMode(zipMode(h))
		w, err := zw.CreateHeader(zh)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(ent.Body)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func zipMode(h ustar.Header) os.FileMode {
	mode := os.FileMode(h.Mode & 0777)
	if h.Typeflag == ustar.TypeDir {
		mode |= os.ModeDir
	}
	return mode
}
