package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/testutil"
	"github.com/polydawn/ustar/ustar"
)

var fixture = []testutil.FixtureEntry{
	{Name: "a/", Mode: 0750},
	{Name: "a/b.txt", Body: "hello", Mode: 0600},
}

func run(args ...string) (api.ExitCode, string, string) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	stdin := &bytes.Buffer{}
	exitCode := Main(context.Background(), append([]string{"ustar"}, args...), stdin, stdout, stderr)
	return exitCode, stdout.String(), stderr.String()
}

func TestWithoutArgs(t *testing.T) {
	Convey("ustar: usage printed to stderr", t, func() {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		exitCode := Main(context.Background(), []string{"ustar"}, &bytes.Buffer{}, stdout, stderr)
		So(stdout.String(), ShouldBeBlank)
		So(stderr.String(), ShouldNotBeBlank)
		firstLine, err := stderr.ReadString('\n')
		So(err, ShouldBeNil)
		So(firstLine, ShouldContainSubstring, "usage: ustar [<flags>] <command> [<args> ...]")
		So(stderr.String(), ShouldNotContainSubstring, "usage: ustar [<flags>] <command> [<args> ...]")
		So(exitCode, ShouldEqual, api.ExitUsage)
	})
}

func TestCommands(t *testing.T) {
	Convey("ustar: commands", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			tarPath := filepath.Join(tmpDir.String(), "fixture.tar")
			So(ioutil.WriteFile(tarPath, testutil.BuildTar(fixture...), 0644), ShouldBeNil)
			zipPath := filepath.Join(tmpDir.String(), "fixture.zip")
			So(ioutil.WriteFile(zipPath, testutil.BuildZip(fixture...), 0644), ShouldBeNil)
			dest := filepath.Join(tmpDir.String(), "dest")
			So(os.Mkdir(dest, 0755), ShouldBeNil)

			Convey("extract should place the tree and list what it placed", func() {
				exitCode, stdout, _ := run("extract", tarPath, dest)
				So(exitCode, ShouldEqual, api.ExitSuccess)
				So(stdout, ShouldEqual, "a/\na/b.txt\n")
				bs, err := ioutil.ReadFile(filepath.Join(dest, "a/b.txt"))
				So(err, ShouldBeNil)
				So(string(bs), ShouldEqual, "hello")
			})
			Convey("extract should log progress only when verbose", func() {
				exitCode, _, stderr := run("extract", tarPath, dest)
				So(exitCode, ShouldEqual, api.ExitSuccess)
				So(stderr, ShouldNotContainSubstring, "progress")
				So(os.RemoveAll(dest), ShouldBeNil)
				So(os.Mkdir(dest, 0755), ShouldBeNil)
				exitCode, _, stderr = run("--verbose", "extract", tarPath, dest)
				So(exitCode, ShouldEqual, api.ExitSuccess)
				So(stderr, ShouldContainSubstring, "msg=progress")
				So(stderr, ShouldContainSubstring, "entry=./a/b.txt")
			})
			Convey("unzip should place the same tree", func() {
				exitCode, stdout, _ := run("unzip", zipPath, dest)
				So(exitCode, ShouldEqual, api.ExitSuccess)
				So(stdout, ShouldEqual, "a/\na/b.txt\n")
				bs, err := ioutil.ReadFile(filepath.Join(dest, "a/b.txt"))
				So(err, ShouldBeNil)
				So(string(bs), ShouldEqual, "hello")
			})
			Convey("list should emit json when asked", func() {
				exitCode, stdout, _ := run("--format=json", "list", tarPath)
				So(exitCode, ShouldEqual, api.ExitSuccess)
				So(stdout, ShouldContainSubstring, `"result"`)
				So(stdout, ShouldContainSubstring, `"a/b.txt"`)
				So(stdout, ShouldContainSubstring, "sha256:")
				entries, err := ioutil.ReadDir(dest)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 0)
			})
			Convey("errors should map to exit codes", func() {
				exitCode, _, stderr := run("extract", filepath.Join(tmpDir.String(), "nope.tar"), dest)
				So(exitCode, ShouldEqual, api.ExitArchiveMissing)
				So(stderr, ShouldNotBeBlank)

				exitCode, _, _ = run("extract", tarPath, filepath.Join(tmpDir.String(), "nope"))
				So(exitCode, ShouldEqual, api.ExitDestinationMissing)

				So(ioutil.WriteFile(tarPath, []byte("garbage"), 0644), ShouldBeNil)
				exitCode, _, _ = run("extract", tarPath, dest)
				So(exitCode, ShouldEqual, api.ExitArchiveCorrupt)
			})
			Convey("json errors should carry the category", func() {
				exitCode, stdout, _ := run("--format=json", "list", filepath.Join(tmpDir.String(), "nope.tar"))
				So(exitCode, ShouldEqual, api.ExitArchiveMissing)
				So(stdout, ShouldContainSubstring, string(api.ErrArchiveMissing))
			})
			Convey("unknown compressions are a usage error", func() {
				exitCode, _, _ := run("--compression=rar", "extract", tarPath, dest)
				So(exitCode, ShouldEqual, api.ExitUsage)
			})
			Convey("header should write one block", func() {
				exitCode, stdout, _ := run("header", tarPath, "--name=renamed.tar")
				So(exitCode, ShouldEqual, api.ExitSuccess)
				So(stdout, ShouldHaveLength, ustar.BlockSize)
				h, err := ustar.ParseHeader([]byte(stdout))
				So(err, ShouldBeNil)
				So(h.Name, ShouldEqual, "renamed.tar")
			})
			Convey("batch should run every job and report the first failure", func() {
				dest2 := filepath.Join(tmpDir.String(), "dest2")
				So(os.Mkdir(dest2, 0755), ShouldBeNil)
				exitCode, _, _ := run("batch", "-j", "2",
					tarPath+"="+dest,
					zipPath+"="+dest2,
					filepath.Join(tmpDir.String(), "nope.tar")+"="+dest,
				)
				So(exitCode, ShouldEqual, api.ExitArchiveMissing)
				for _, d := range []string{dest, dest2} {
					bs, err := ioutil.ReadFile(filepath.Join(d, "a/b.txt"))
					So(err, ShouldBeNil)
					So(string(bs), ShouldEqual, "hello")
				}
			})
			Convey("batch pairs must have both halves", func() {
				exitCode, _, _ := run("batch", tarPath)
				So(exitCode, ShouldEqual, api.ExitUsage)
			})
		})
	})
}
