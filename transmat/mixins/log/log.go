/*
	Helper functions for emitting structured logs to the api.Monitor.

	These functions encompass most common lifecycle events in an extraction,
	and using them A) saves typing and B) keeps the common stuff formatted
	in a common way between the tar and zip paths.
	Callers can of course also write their own log events raw; it is freetext.
*/
package log

import (
	"fmt"
	"strconv"
	"time"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
)

func send(mon api.Monitor, ev api.Event) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- ev
}

func logEvent(mon api.Monitor, lvl api.LogLevel, msg string, detail ...[2]string) {
	send(mon, api.Event{
		Log: &api.Event_Log{
			Time:   time.Now().UnixNano(),
			Level:  lvl,
			Msg:    msg,
			Detail: detail,
		},
	})
}

// Emitted when an entry's parent dir was not itself in the archive.
func DirectoryInferred(mon api.Monitor, path fs.RelPath, child fs.RelPath) {
	logEvent(mon, api.LogDebug,
		fmt.Sprintf("inferring dir %s as parent of %s", path, child),
		[2]string{"path", path.String()},
		[2]string{"child", child.String()},
	)
}

// Emitted for entries that are listed in the manifest but not placed.
func EntrySkipped(mon api.Monitor, fmeta fs.Metadata, reason string) {
	logEvent(mon, api.LogWarn,
		fmt.Sprintf("skipping %s %s: %s", fmeta.Type, fmeta.Name, reason),
		[2]string{"entry", fmeta.Name.String()},
		[2]string{"type", fmeta.Type.String()},
	)
}

func EntryPlaced(mon api.Monitor, fmeta fs.Metadata) {
	logEvent(mon, api.LogDebug,
		fmt.Sprintf("placed %s %s", fmeta.Type, fmeta.Name),
		[2]string{"entry", fmeta.Name.String()},
		[2]string{"size", strconv.FormatInt(fmeta.Size, 10)},
	)
}

// Emitted once per extraction when ownership was requested but can't be applied.
func OwnershipUnavailable(mon api.Monitor) {
	logEvent(mon, api.LogWarn, "ownership will not be applied: missing CAP_CHOWN or CAP_FOWNER")
}

func Finished(mon api.Monitor, phase string, entries int, bytes int64) {
	logEvent(mon, api.LogInfo,
		fmt.Sprintf("%s done: %d entries, %d bytes", phase, entries, bytes),
		[2]string{"entries", strconv.Itoa(entries)},
		[2]string{"bytes", strconv.FormatInt(bytes, 10)},
	)
}

// Progress reports total content bytes consumed so far.
func Progress(mon api.Monitor, phase string, desc string, total int64) {
	send(mon, api.Event{
		Progress: &api.Event_Progress{
			Phase:     phase,
			Desc:      desc,
			TotalProg: total,
		},
	})
}
