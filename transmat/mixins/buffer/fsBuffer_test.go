package buffer

import (
	"bytes"
	"context"
	"io/ioutil"
	"testing"
	"testing/iotest"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/testutil"
)

func TestSectionReader(t *testing.T) {
	Convey("Spooling to scratch", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			Convey("should give back the same bytes, seekably", func() {
				sr, closer, err := SectionReader(context.Background(), iotest.OneByteReader(bytes.NewBufferString("0123456789")), tmpDir)
				So(err, ShouldBeNil)
				So(sr.Size(), ShouldEqual, 10)
				buf := make([]byte, 3)
				_, err = sr.ReadAt(buf, 4)
				So(err, ShouldBeNil)
				So(string(buf), ShouldEqual, "456")

				files, _ := ioutil.ReadDir(tmpDir.String())
				So(files, ShouldHaveLength, 1)
				Convey("and the file should go away on close", func() {
					So(closer.Close(), ShouldBeNil)
					files, _ := ioutil.ReadDir(tmpDir.String())
					So(files, ShouldHaveLength, 0)
				})
			})
			Convey("a missing scratch dir is an io error", func() {
				_, _, err := SectionReader(context.Background(), bytes.NewBufferString("x"), tmpDir.Join(fs.MustRelPath("nope")))
				So(err, errcat.ErrorShouldHaveCategory, api.ErrIO)
			})
			Convey("read errors should clean up", func() {
				_, _, err := SectionReader(context.Background(), iotest.TimeoutReader(bytes.NewBufferString("0123456789")), tmpDir)
				So(err, errcat.ErrorShouldHaveCategory, api.ErrIO)
				files, _ := ioutil.ReadDir(tmpDir.String())
				So(files, ShouldHaveLength, 0)
			})
		})
	})
}
