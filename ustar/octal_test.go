package ustar

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOctalFields(t *testing.T) {
	Convey("Octal field codec:", t, func() {
		Convey("formatting then parsing is lossless within the field width", func() {
			for _, v := range []uint64{0, 1, 7, 8, 0644, 0755, 01750, 0777777} {
				So(ParseOctal(FormatOctal(v, 8)), ShouldEqual, v)
			}
			for _, v := range []uint64{0, 5, 0123456701, 07777777777} {
				So(ParseOctal(FormatOctal(v, 12)), ShouldEqual, v)
			}
		})
		Convey("size and mtime fields hold one more digit", func() {
			field := make([]byte, 12)
			putLongOctal(field, 1500000000)
			So(string(field), ShouldEqual, "13132027400 ")
			So(ParseOctal(field), ShouldEqual, 1500000000)
			putLongOctal(field, 077777777777)
			So(ParseOctal(field), ShouldEqual, 077777777777)
		})
		Convey("zero is written as a digit, not a blank field", func() {
			So(string(FormatOctal(0, 8)), ShouldEqual, "     0 \x00")
		})
		Convey("fields end in a space then a NUL", func() {
			So(string(FormatOctal(0644, 8)), ShouldEqual, "   644 \x00")
		})
		Convey("checksum fields end in a NUL then a space", func() {
			field := FormatChecksumOctal(01234, 8)
			So(string(field), ShouldEqual, "  1234\x00 ")
			So(ParseOctal(field), ShouldEqual, 01234)
		})
		Convey("oversized values lose their high digits", func() {
			So(ParseOctal(FormatOctal(01234567, 8)), ShouldEqual, 0234567)
		})
		Convey("parsing is tolerant of padding conventions", func() {
			for _, tr := range []struct {
				field string
				v     uint64
			}{
				{"0000644\x00", 0644},
				{"   644 \x00", 0644},
				{"644\x00\x00\x00\x00\x00", 0644},
				{"00000000005 ", 5},
				{"  1234\x00 ", 01234},
			} {
				So(ParseOctal([]byte(tr.field)), ShouldEqual, tr.v)
			}
		})
		Convey("junk and empty fields parse as zero", func() {
			for _, field := range []string{
				"",
				"\x00\x00\x00\x00",
				"        ",
				"12x4",
				"0009",
				"-1",
			} {
				So(ParseOctal([]byte(field)), ShouldEqual, 0)
			}
		})
		Convey("long fields take one more digit", func() {
			dst := make([]byte, 12)
			putLongOctal(dst, 077777777777)
			So(string(dst), ShouldEqual, "77777777777 ")
			So(ParseOctal(dst), ShouldEqual, 077777777777)
		})
	})
}
