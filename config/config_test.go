package config

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func withEnv(key, value string, fn func()) {
	prev, had := os.LookupEnv(key)
	os.Setenv(key, value)
	defer func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	}()
	fn()
}

func TestConfig(t *testing.T) {
	Convey("Config from the environment:", t, func() {
		Convey("the base path defaults, and can be overriden", func() {
			withEnv("USTAR_BASE", "", func() {
				So(GetBasePath().String(), ShouldEqual, "/var/lib/ustar")
			})
			withEnv("USTAR_BASE", "/srv/ustar/", func() {
				So(GetBasePath().String(), ShouldEqual, "/srv/ustar")
			})
		})
		Convey("the scratch path falls back to the temp dir", func() {
			withEnv("USTAR_SCRATCH", "", func() {
				withEnv("USTAR_BASE", "/nonexistent/ustar", func() {
					So(GetScratchPath().String(), ShouldEqual, mustAbs(os.TempDir()).String())
				})
			})
			withEnv("USTAR_SCRATCH", "/srv/spool", func() {
				So(GetScratchPath().String(), ShouldEqual, "/srv/spool")
			})
		})
		Convey("the buffer size defaults, and ignores junk", func() {
			withEnv("USTAR_BUFFER_SIZE", "", func() {
				So(GetBufferSize(), ShouldEqual, DefaultBufferSize)
			})
			withEnv("USTAR_BUFFER_SIZE", "65536", func() {
				So(GetBufferSize(), ShouldEqual, 65536)
			})
			withEnv("USTAR_BUFFER_SIZE", "-4", func() {
				So(GetBufferSize(), ShouldEqual, DefaultBufferSize)
			})
			withEnv("USTAR_BUFFER_SIZE", "lots", func() {
				So(GetBufferSize(), ShouldEqual, DefaultBufferSize)
			})
		})
	})
}
