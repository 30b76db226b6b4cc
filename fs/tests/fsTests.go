/*
	Compliance checks every fs.FS implementation must pass.

	Each check takes a fresh, empty filesystem and runs inside a Convey block;
	call them from the implementation's own tests.
*/
package tests

import (
	"io/ioutil"
	"os"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/fs"
)

func CheckBaseLstat(afs fs.FS) {
	Convey("SPEC: lstat of the base path should report a dir", func() {
		stat, err := afs.LStat(fs.RelPath{})
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Dir)
	})
}

func CheckMkdirLstatRoundtrip(afs fs.FS) {
	Convey("SPEC: mkdir and lstat should roundtrip", func() {
		d1 := fs.MustRelPath("d1")
		So(afs.Mkdir(d1, 0755), ShouldBeNil)
		stat, err := afs.LStat(d1)
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Dir)
		So(stat.Name, ShouldResemble, d1)

		Convey("SPEC: mkdir again should report it exists", func() {
			So(afs.Mkdir(d1, 0755), errcat.ErrorShouldHaveCategory, fs.ErrAlreadyExists)
		})
	})
}

func CheckDeepMkdirError(afs fs.FS) {
	Convey("SPEC: deep mkdir should error", func() {
		d1d2 := fs.MustRelPath("d1/d2")
		So(afs.Mkdir(d1d2, 0755), errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
		_, err := afs.LStat(d1d2)
		So(err, errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
	})
}

func CheckFileRoundtrip(afs fs.FS) {
	Convey("SPEC: files should hold what was written", func() {
		f1 := fs.MustRelPath("f1")
		So(makeFile(afs, f1, "body"), ShouldBeNil)
		stat, err := afs.LStat(f1)
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_File)
		So(stat.Size, ShouldEqual, 4)
		So(readFile(afs, f1), ShouldEqual, "body")

		Convey("SPEC: truncating opens should replace content", func() {
			So(makeFile(afs, f1, "xy"), ShouldBeNil)
			So(readFile(afs, f1), ShouldEqual, "xy")
		})
		Convey("SPEC: files cannot be created under files", func() {
			err := makeFile(afs, fs.MustRelPath("f1/nope"), "body")
			So(err, ShouldNotBeNil)
		})
	})
	Convey("SPEC: files cannot be created in missing dirs", func() {
		err := makeFile(afs, fs.MustRelPath("nodir/f1"), "body")
		So(err, errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
	})
}

func CheckMklinkLstatRoundtrip(afs fs.FS) {
	Convey("SPEC: mklink and lstat should roundtrip", func() {
		l1 := fs.MustRelPath("l1")
		So(afs.Mklink(l1, "./target"), ShouldBeNil)
		stat, err := afs.LStat(l1)
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Symlink)
		So(stat.Linkname, ShouldEqual, "./target")

		Convey("SPEC: readlink should report the target", func() {
			target, isLink, err := afs.Readlink(l1)
			So(err, ShouldBeNil)
			So(isLink, ShouldBeTrue)
			So(target, ShouldEqual, "./target")
		})
	})
	Convey("SPEC: readlink on a non-link should say so without error", func() {
		d1 := fs.MustRelPath("d1")
		So(afs.Mkdir(d1, 0755), ShouldBeNil)
		_, isLink, err := afs.Readlink(d1)
		So(err, ShouldBeNil)
		So(isLink, ShouldBeFalse)
	})
	Convey("SPEC: readlink on a missing path should error", func() {
		_, isLink, err := afs.Readlink(fs.MustRelPath("nope"))
		So(err, errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
		So(isLink, ShouldBeFalse)
	})
}

func CheckBreakoutRejected(afs fs.FS) {
	Convey("SPEC: paths departing the base should be rejected", func() {
		up := fs.MustRelPath("../escape")
		So(afs.Mkdir(up, 0755), errcat.ErrorShouldHaveCategory, fs.ErrBreakout)
		_, err := afs.OpenFile(up, os.O_CREATE|os.O_WRONLY, 0644)
		So(err, errcat.ErrorShouldHaveCategory, fs.ErrBreakout)
		_, err = afs.LStat(up)
		So(err, errcat.ErrorShouldHaveCategory, fs.ErrBreakout)
	})
}

func makeFile(afs fs.FS, path fs.RelPath, body string) error {
	f, err := afs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(body))
	return err
}

func readFile(afs fs.FS, path fs.RelPath) string {
	f, err := afs.OpenFile(path, os.O_RDONLY, 0)
	So(err, ShouldBeNil)
	defer f.Close()
	bs, err := ioutil.ReadAll(f)
	So(err, ShouldBeNil)
	return string(bs)
}
