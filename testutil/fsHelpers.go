package testutil

import (
	"io/ioutil"
	"os"

	"github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/ustar/fs"
)

/*
	Run fn with a fresh temp dir, removing it afterwards.

	Removal first makes everything writable again, since tests routinely
	extract read-only dirs.
*/
func WithTmpdir(fn func(tmpDir fs.AbsolutePath)) {
	dir, err := ioutil.TempDir("", "ustar-test-")
	if err != nil {
		panic(err)
	}
	defer func() {
		chmodTree(dir)
		os.RemoveAll(dir)
	}()
	fn(fs.MustAbsolutePath(dir))
}

func chmodTree(dir string) {
	os.Chmod(dir, 0755)
	infos, _ := ioutil.ReadDir(dir)
	for _, fi := range infos {
		if fi.IsDir() {
			chmodTree(dir + "/" + fi.Name())
		}
	}
}

func ShouldStat(afs fs.FS, path fs.RelPath) fs.Metadata {
	stat, err := afs.LStat(path)
	convey.So(err, convey.ShouldBeNil)
	stat.Mtime = stat.Mtime.UTC()
	return *stat
}

// ShouldRead asserts the path is a file and returns its content.
func ShouldRead(afs fs.FS, path fs.RelPath) string {
	f, err := afs.OpenFile(path, os.O_RDONLY, 0)
	convey.So(err, convey.ShouldBeNil)
	defer f.Close()
	bs, err := ioutil.ReadAll(f)
	convey.So(err, convey.ShouldBeNil)
	return string(bs)
}
