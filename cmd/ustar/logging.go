package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	"github.com/sirupsen/logrus"

	"github.com/polydawn/ustar/api"
)

// An eventSink consumes monitor events.  Sinks may be shared by batch jobs.
type eventSink func(api.Event)

func newLogger(out io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.Out = out
	logger.Level = logrus.InfoLevel
	if verbose {
		logger.Level = logrus.DebugLevel
	}
	return logger
}

// For --format=dumb: events become log lines.
func logrusSink(logger *logrus.Entry) eventSink {
	return func(ev api.Event) {
		switch {
		case ev.Log != nil:
			fields := make(logrus.Fields, len(ev.Log.Detail))
			for _, kv := range ev.Log.Detail {
				fields[kv[0]] = kv[1]
			}
			logger.WithFields(fields).Log(logrusLevel(ev.Log.Level), ev.Log.Msg)
		case ev.Progress != nil:
			logger.WithFields(logrus.Fields{
				"phase": ev.Progress.Phase,
				"entry": ev.Progress.Desc,
				"bytes": ev.Progress.TotalProg,
			}).Debug("progress")
		}
	}
}

// For --format=json: events go on the wire ahead of the result, one per line.
// Debug logs are dropped unless verbose.
func jsonSink(out io.Writer, verbose bool) eventSink {
	var mu sync.Mutex
	return func(ev api.Event) {
		if ev.Log != nil && ev.Log.Level < api.LogInfo && !verbose {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if err := refmt.NewMarshallerAtlased(json.EncodeOptions{}, out, api.Atlas).Marshal(&ev); err != nil {
			panic(err)
		}
		fmt.Fprintln(out)
	}
}

/*
	Make a monitor whose events are handed to the sink.

	The returned channel is closed once the monitor channel has been closed
	and drained; the ExtractFile and ScanFile functions close it on return.
*/
func drainMonitor(sink eventSink) (api.Monitor, <-chan struct{}) {
	events := make(chan api.Event, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			sink(ev)
		}
	}()
	return api.Monitor{Chan: events}, done
}

func logrusLevel(lvl api.LogLevel) logrus.Level {
	switch lvl {
	case api.LogError:
		return logrus.ErrorLevel
	case api.LogWarn:
		return logrus.WarnLevel
	case api.LogInfo:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}
