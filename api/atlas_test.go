package api

import (
	"testing"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAtlas(t *testing.T) {
	Convey("Wire events should round trip through the atlas", t, func() {
		Convey("a result with a manifest", func() {
			ev := Event{Result: &Event_Result{Manifest: Manifest{
				{Name: "a/", Type: EntryType_Dir, Mode: 0750, Mtime: 1500000000},
				{Name: "a/b.txt", Type: EntryType_File, Mode: 0600, Size: 5, Digest: "sha256:2cf2"},
				{Name: "pipe", Type: EntryType_NamedPipe, Mode: 0644, Skipped: true},
			}}}
			bs, err := refmt.MarshalAtlased(json.EncodeOptions{}, &ev, Atlas)
			So(err, ShouldBeNil)
			So(string(bs), ShouldContainSubstring, `"mode":488`)

			var ev2 Event
			So(refmt.UnmarshalAtlased(json.DecodeOptions{}, bs, &ev2, Atlas), ShouldBeNil)
			So(ev2.Result, ShouldNotBeNil)
			So(ev2.Result.Manifest, ShouldResemble, ev.Result.Manifest)
		})
		Convey("a result with an error", func() {
			ev := Event{Result: &Event_Result{Error: &ErrorInfo{
				Category: string(ErrArchiveCorrupt),
				Message:  "corrupt tar",
				Details:  map[string]string{"entry": "x"},
			}}}
			bs, err := refmt.MarshalAtlased(json.EncodeOptions{}, &ev, Atlas)
			So(err, ShouldBeNil)
			var ev2 Event
			So(refmt.UnmarshalAtlased(json.DecodeOptions{}, bs, &ev2, Atlas), ShouldBeNil)
			So(ev2.Result.Error, ShouldResemble, ev.Result.Error)
		})
		Convey("log and progress events", func() {
			ev := Event{Log: &Event_Log{Time: 1, Level: LogWarn, Msg: "skipping", Detail: [][2]string{{"entry", "./pipe"}}}}
			bs, err := refmt.MarshalAtlased(json.EncodeOptions{}, &ev, Atlas)
			So(err, ShouldBeNil)
			var ev2 Event
			So(refmt.UnmarshalAtlased(json.DecodeOptions{}, bs, &ev2, Atlas), ShouldBeNil)
			So(ev2.Log, ShouldResemble, ev.Log)

			ev = Event{Progress: &Event_Progress{Phase: "extract", Desc: "./a", TotalProg: 5}}
			bs, err = refmt.MarshalAtlased(json.EncodeOptions{}, &ev, Atlas)
			So(err, ShouldBeNil)
			ev2 = Event{}
			So(refmt.UnmarshalAtlased(json.DecodeOptions{}, bs, &ev2, Atlas), ShouldBeNil)
			So(ev2.Progress, ShouldResemble, ev.Progress)
		})
	})
}
