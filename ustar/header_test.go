package ustar

import (
	"archive/tar"
	"bytes"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
)

func TestHeaderCodec(t *testing.T) {
	Convey("Header codec:", t, func() {
		h := Header{
			Name:     "b.txt",
			Mode:     0640,
			Uid:      1000,
			Gid:      100,
			Size:     5,
			ModTime:  1500000000,
			Typeflag: TypeReg,
			Magic:    Magic,
			Version:  Version,
			Uname:    "alice",
			Gname:    "staff",
			Prefix:   "some/deep/dir",
		}

		Convey("encoding yields exactly one block", func() {
			block, err := h.Bytes()
			So(err, ShouldBeNil)
			So(block, ShouldHaveLength, BlockSize)
			So(IsZeroBlock(block[offEnd:]), ShouldBeTrue)
			So(VerifyChecksum(block), ShouldBeTrue)
		})

		Convey("parsing an encoded header reproduces every field", func() {
			block, err := h.Bytes()
			So(err, ShouldBeNil)
			h2, err := ParseHeader(block)
			So(err, ShouldBeNil)

			blanked := make([]byte, BlockSize)
			copy(blanked, block)
			copy(blanked[offChksum:offTypeflag], "        ")
			So(h2.Checksum, ShouldEqual, Checksum(blanked))

			h2.Checksum = 0
			So(h2, ShouldResemble, h)
			So(h2.Path(), ShouldEqual, "some/deep/dir/b.txt")
		})

		Convey("blank magic and version are filled in", func() {
			h.Magic, h.Version = "", ""
			block, err := h.Bytes()
			So(err, ShouldBeNil)
			So(string(block[offMagic:offUname]), ShouldEqual, "ustar\x0000")
		})

		Convey("fields that do not fit are rejected", func() {
			h.Name = strings.Repeat("n", nameSize+1)
			_, err := h.Bytes()
			So(err, errcat.ErrorShouldHaveCategory, api.ErrFieldOverflow)

			h.Name = "ok"
			h.Uname = strings.Repeat("u", unameSize+1)
			_, err = h.Bytes()
			So(err, errcat.ErrorShouldHaveCategory, api.ErrFieldOverflow)
		})

		Convey("blocks of the wrong size are rejected", func() {
			_, err := ParseHeader(make([]byte, 100))
			So(err, errcat.ErrorShouldHaveCategory, api.ErrArchiveCorrupt)
			So(h.Encode(make([]byte, 100)), errcat.ErrorShouldHaveCategory, api.ErrUsage)
		})

		Convey("a flipped byte fails the checksum", func() {
			block, err := h.Bytes()
			So(err, ShouldBeNil)
			block[3] ^= 0x01
			So(VerifyChecksum(block), ShouldBeFalse)
		})

		Convey("the historic signed checksum is also accepted", func() {
			h.Uname = "\xe9\xe9"
			block, err := h.Bytes()
			So(err, ShouldBeNil)
			copy(block[offChksum:offTypeflag], "        ")
			putChecksumOctal(block[offChksum:offTypeflag], uint64(signedChecksum(block)))
			So(VerifyChecksum(block), ShouldBeTrue)
		})

		Convey("archive/tar reads what we write", func() {
			block, err := h.Bytes()
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			buf.Write(block)
			buf.WriteString("hello")
			buf.Write(make([]byte, BlockSize-5+2*BlockSize))

			tr := tar.NewReader(&buf)
			thdr, err := tr.Next()
			So(err, ShouldBeNil)
			So(thdr.Name, ShouldEqual, "some/deep/dir/b.txt")
			So(thdr.Mode, ShouldEqual, 0640)
			So(thdr.Uid, ShouldEqual, 1000)
			So(thdr.Gid, ShouldEqual, 100)
			So(thdr.Size, ShouldEqual, 5)
			So(thdr.ModTime.Unix(), ShouldEqual, 1500000000)
			So(thdr.Typeflag, ShouldEqual, tar.TypeReg)
			So(thdr.Uname, ShouldEqual, "alice")
			So(thdr.Gname, ShouldEqual, "staff")
			body, err := ioutil.ReadAll(tr)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "hello")
			_, err = tr.Next()
			So(err, ShouldEqual, io.EOF)
		})
	})
}

func TestCreateHeader(t *testing.T) {
	Convey("CreateHeader:", t, func() {
		Convey("files get regular defaults", func() {
			h, err := CreateHeader("/a/b.txt", 5, 1500000000, false)
			So(err, ShouldBeNil)
			So(h.Name, ShouldEqual, "a/b.txt")
			So(h.Prefix, ShouldEqual, "")
			So(h.Mode, ShouldEqual, 0644)
			So(h.Typeflag, ShouldEqual, TypeReg)
			So(h.Size, ShouldEqual, 5)
			So(h.ModTime, ShouldEqual, 1500000000)
			So(h.Magic, ShouldEqual, Magic)
			So(len(h.Uname), ShouldBeLessThan, unameSize)
		})
		Convey("directories get a trailing slash and no size", func() {
			h, err := CreateHeader("a/dir/", 4096, 0, true)
			So(err, ShouldBeNil)
			So(h.Name, ShouldEqual, "a/dir/")
			So(h.Mode, ShouldEqual, 0755)
			So(h.Typeflag, ShouldEqual, TypeDir)
			So(h.Size, ShouldEqual, 0)
		})
		Convey("backslashes are normalized", func() {
			h, err := CreateHeader(`a\b\c.txt`, 0, 0, false)
			So(err, ShouldBeNil)
			So(h.Name, ShouldEqual, "a/b/c.txt")
		})
		Convey("long paths are split across prefix and name", func() {
			p := strings.Repeat("d", 60) + "/" + strings.Repeat("e", 60) + "/file.txt"
			h, err := CreateHeader(p, 1, 0, false)
			So(err, ShouldBeNil)
			So(h.Prefix+"/"+h.Name, ShouldEqual, p)
			So(len(h.Name), ShouldBeLessThanOrEqualTo, nameSize)
			So(len(h.Prefix), ShouldBeLessThanOrEqualTo, prefixSize)
			So(h.Path(), ShouldEqual, p)
		})
		Convey("long directory paths keep their trailing slash on the name", func() {
			p := strings.Repeat("d", 90) + "/" + strings.Repeat("e", 30)
			h, err := CreateHeader(p, 0, 0, true)
			So(err, ShouldBeNil)
			So(h.Prefix, ShouldEqual, strings.Repeat("d", 90))
			So(h.Name, ShouldEqual, strings.Repeat("e", 30)+"/")
		})
		Convey("paths past the combined budget are rejected", func() {
			p := strings.Repeat("d/", 150)
			_, err := CreateHeader(p, 0, 0, false)
			So(err, errcat.ErrorShouldHaveCategory, api.ErrFieldOverflow)
		})
		Convey("paths with no usable split point are rejected", func() {
			p := strings.Repeat("x", 150)
			_, err := CreateHeader(p, 0, 0, false)
			So(err, errcat.ErrorShouldHaveCategory, api.ErrFieldOverflow)
		})
		Convey("long headers survive archive/tar", func() {
			p := strings.Repeat("d", 60) + "/" + strings.Repeat("e", 60) + "/file.txt"
			h, err := CreateHeader(p, 0, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Unix(), false)
			So(err, ShouldBeNil)
			block, err := h.Bytes()
			So(err, ShouldBeNil)
			tr := tar.NewReader(io.MultiReader(bytes.NewReader(block), bytes.NewReader(make([]byte, 2*BlockSize))))
			thdr, err := tr.Next()
			So(err, ShouldBeNil)
			So(thdr.Name, ShouldEqual, p)
			So(thdr.ModTime.Year(), ShouldEqual, 2020)
		})
	})
}
