package ustar

import (
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"
	"gopkg.in/src-d/go-billy.v4/memfs"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/fs/billyfs"
)

func TestEntry(t *testing.T) {
	Convey("Entry:", t, func() {
		Convey("directory detection", func() {
			for _, tr := range []struct {
				title string
				h     Header
				isDir bool
			}{
				{"by typeflag",
					Header{Name: "a", Typeflag: TypeDir},
					true},
				{"by trailing slash",
					Header{Name: "a/", Typeflag: TypeOldNormal},
					true},
				{"plain file",
					Header{Name: "a", Typeflag: TypeReg},
					false},
				{"symlink",
					Header{Name: "a", Typeflag: TypeSymlink},
					false},
			} {
				Convey(tr.title, func() {
					So(NewEntry(tr.h).IsDirectory(), ShouldEqual, tr.isDir)
				})
			}
		})

		Convey("regular content detection", func() {
			So(NewEntry(Header{Name: "f", Typeflag: TypeReg}).IsRegular(), ShouldBeTrue)
			So(NewEntry(Header{Name: "f", Typeflag: TypeOldNormal}).IsRegular(), ShouldBeTrue)
			So(NewEntry(Header{Name: "f", Typeflag: TypeCont}).IsRegular(), ShouldBeTrue)
			So(NewEntry(Header{Name: "d/", Typeflag: TypeOldNormal}).IsRegular(), ShouldBeFalse)
			So(NewEntry(Header{Name: "l", Typeflag: TypeLink}).IsRegular(), ShouldBeFalse)
		})

		Convey("names are compared as strings", func() {
			dir := NewEntry(Header{Name: "a/", Typeflag: TypeDir})
			file := NewEntry(Header{Name: "b.txt", Prefix: "a"})
			So(dir.IsDescendant(file), ShouldBeTrue)
			So(file.IsDescendant(dir), ShouldBeFalse)
			So(file.Equals(NewEntry(Header{Name: "a/b.txt"})), ShouldBeTrue)
			So(file.Equals(dir), ShouldBeFalse)
		})

		Convey("setting a long name splits it", func() {
			e := NewEntry(Header{})
			long := strings.Repeat("p", 120) + "/" + strings.Repeat("n", 20)
			So(e.SetName(long), ShouldBeNil)
			So(e.Name(), ShouldEqual, long)
			So(e.Header().Prefix, ShouldEqual, strings.Repeat("p", 120))
			So(e.SetName(strings.Repeat("x", 300)), errcat.ErrorShouldHaveCategory, api.ErrFieldOverflow)
			So(e.Name(), ShouldEqual, long)
		})

		Convey("owner names are width checked", func() {
			e := NewEntry(Header{})
			So(e.SetUname("root"), ShouldBeNil)
			So(e.Uname(), ShouldEqual, "root")
			So(e.SetGname(strings.Repeat("g", 33)), errcat.ErrorShouldHaveCategory, api.ErrFieldOverflow)
			So(e.Gname(), ShouldEqual, "")
		})

		Convey("mtimes keep whole seconds", func() {
			e := NewEntry(Header{})
			e.SetModTime(time.Unix(1500000000, 999999999))
			So(e.ModTime().Unix(), ShouldEqual, 1500000000)
			So(e.ModTime().Nanosecond(), ShouldEqual, 0)
		})

		Convey("parsing and writing round trip", func() {
			e := NewEntry(Header{Name: "x", Mode: 0600, Size: 12, Typeflag: TypeReg})
			e.SetIds(7, 8)
			block := make([]byte, BlockSize)
			So(e.WriteHeader(block), ShouldBeNil)
			e2, err := ParseEntry(block)
			So(err, ShouldBeNil)
			So(e2.Name(), ShouldEqual, "x")
			So(e2.Uid(), ShouldEqual, 7)
			So(e2.Gid(), ShouldEqual, 8)
			So(e2.Size(), ShouldEqual, 12)
			So(e2.Mode(), ShouldEqual, 0600)
		})

		Convey("building from a filesystem", func() {
			afs := billyfs.New(memfs.New(), fs.MustAbsolutePath("/mem"))
			So(afs.Mkdir(fs.MustRelPath("dir"), 0755), ShouldBeNil)
			f, err := afs.OpenFile(fs.MustRelPath("dir/file"), os.O_CREATE|os.O_WRONLY, 0644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("twelve bytes"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			Convey("files", func() {
				e, err := NewEntryFromFile(afs, fs.MustRelPath("dir/file"), "dir/file")
				So(err, ShouldBeNil)
				So(e.Name(), ShouldEqual, "dir/file")
				So(e.Size(), ShouldEqual, 12)
				So(e.IsDirectory(), ShouldBeFalse)
				So(e.File(), ShouldNotBeNil)

				Convey("a trailing slash on the name still marks a directory", func() {
					So(e.SetName("dir/file/"), ShouldBeNil)
					So(e.IsDirectory(), ShouldBeTrue)
				})
			})
			Convey("directories", func() {
				e, err := NewEntryFromFile(afs, fs.MustRelPath("dir"), "dir")
				So(err, ShouldBeNil)
				So(e.Name(), ShouldEqual, "dir/")
				So(e.Size(), ShouldEqual, 0)
				So(e.IsDirectory(), ShouldBeTrue)
			})
			Convey("missing paths", func() {
				_, err := NewEntryFromFile(afs, fs.MustRelPath("nope"), "nope")
				So(err, errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
			})
		})
	})
}
