package ustarexecclient

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
)

func TestCheckResult(t *testing.T) {
	Convey("Reconciling exit codes with results", t, func() {
		Convey("zero with a manifest is the happy path", func() {
			manifest := api.Manifest{{Name: "a/"}}
			got, err := checkResult(0, &api.Event_Result{Manifest: manifest}, "")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, manifest)
		})
		Convey("zero without a result is a breakdown", func() {
			_, err := checkResult(0, nil, "boom")
			So(err, errcat.ErrorShouldHaveCategory, api.ErrRPCBreakdown)
			So(errcat.Details(err)["stderr"], ShouldEqual, "boom")
		})
		Convey("zero with an error result is a breakdown", func() {
			_, err := checkResult(0, &api.Event_Result{Error: &api.ErrorInfo{Category: string(api.ErrArchiveCorrupt)}}, "")
			So(err, errcat.ErrorShouldHaveCategory, api.ErrRPCBreakdown)
		})
		Convey("a matching code and result passes the error through", func() {
			code := int(api.ExitArchiveCorrupt)
			_, err := checkResult(code, &api.Event_Result{Error: &api.ErrorInfo{
				Category: string(api.ErrArchiveCorrupt),
				Message:  "bad block",
				Details:  map[string]string{"offset": "512"},
			}}, "")
			So(err, errcat.ErrorShouldHaveCategory, api.ErrArchiveCorrupt)
			So(err.Error(), ShouldEqual, "bad block")
			So(errcat.Details(err)["offset"], ShouldEqual, "512")
		})
		Convey("a code with no result still yields its category", func() {
			_, err := checkResult(int(api.ExitArchiveMissing), nil, "no such file")
			So(err, errcat.ErrorShouldHaveCategory, api.ErrArchiveMissing)
			So(errcat.Details(err)["stderr"], ShouldEqual, "no such file")
		})
		Convey("a mismatched code and result is a breakdown", func() {
			_, err := checkResult(int(api.ExitArchiveMissing), &api.Event_Result{Error: &api.ErrorInfo{Category: string(api.ErrArchiveCorrupt)}}, "")
			So(err, errcat.ErrorShouldHaveCategory, api.ErrRPCBreakdown)
		})
	})
}

func TestWaitFor(t *testing.T) {
	Convey("Waiting on a child", t, func() {
		Convey("exit codes come back as is", func() {
			var stderr bytes.Buffer
			cmd := exec.Command("sh", "-c", "exit 3")
			cmd.Stderr = &stderr
			So(cmd.Start(), ShouldBeNil)
			code, err := waitFor(context.Background(), cmd, &stderr)
			So(err, ShouldBeNil)
			So(code, ShouldEqual, 3)
		})
		Convey("a signalled child is a breakdown, with its stderr", func() {
			var stderr bytes.Buffer
			cmd := exec.Command("sh", "-c", "echo dying >&2; kill -9 $$")
			cmd.Stderr = &stderr
			So(cmd.Start(), ShouldBeNil)
			code, err := waitFor(context.Background(), cmd, &stderr)
			So(err, errcat.ErrorShouldHaveCategory, api.ErrRPCBreakdown)
			So(code, ShouldEqual, 128+9)
			So(errcat.Details(err)["stderr"], ShouldEqual, "dying\n")
		})
		Convey("a signalled child after cancellation is cancelled", func() {
			var stderr bytes.Buffer
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			cmd := exec.Command("sh", "-c", "kill -9 $$")
			cmd.Stderr = &stderr
			So(cmd.Start(), ShouldBeNil)
			_, err := waitFor(ctx, cmd, &stderr)
			So(err, errcat.ErrorShouldHaveCategory, api.ErrCancelled)
		})
	})
}
