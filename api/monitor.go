package api

/*
	Monitoring configuration structs, and message types used.
*/
type (
	/*
		Configuration for what intermediate progress reports a process should send,
		and slot for the channel the caller wishes them to be sent to.
	*/
	Monitor struct {
		// Channel to which events will be sent as the process proceeds.
		// The ExtractFile and ScanFile entry points close the channel when
		// they return; the lower level Unpack functions leave it open.
		// A nil channel will disable all intermediate progress reporting.
		Chan chan<- Event
	}

	/*
		A "union" type of all the kinds of event that may be generated in the
		course of an extraction.

		The "Result" message is never sent to Monitor.Chan --
		its values are converted into the function returns --
		but *is* seen in the serial form on the wire.
	*/
	Event struct {
		Log      *Event_Log      `refmt:"log,omitempty"`
		Progress *Event_Progress `refmt:"prog,omitempty"`
		Result   *Event_Result   `refmt:"result,omitempty"`
	}

	/*
		Freetext log lines, with a level and optional key-value details.

		Time is unix nanoseconds; details are ordered pairs so serial output
		is stable.
	*/
	Event_Log struct {
		Time   int64       `refmt:"t"`
		Level  LogLevel    `refmt:"lvl"`
		Msg    string      `refmt:"msg"`
		Detail [][2]string `refmt:"detail,omitempty"`
	}

	/*
		Notifications about progress updates.

		'Phase' remains the same for many events in a row (e.g. "extract"),
		while 'Desc' names the specific entry being worked on.
		'TotalProg' counts bytes of entry content consumed so far.
	*/
	Event_Progress struct {
		Phase, Desc string
		TotalProg   int64
	}

	Event_Result struct {
		Manifest Manifest   `refmt:"manifest,omitempty"`
		Error    *ErrorInfo `refmt:"error,omitempty"`
	}
)

type LogLevel int8

const (
	LogError LogLevel = 4
	LogWarn  LogLevel = 3
	LogInfo  LogLevel = 2
	LogDebug LogLevel = 1
)

func (lvl LogLevel) String() string {
	switch lvl {
	case LogError:
		return "error"
	case LogWarn:
		return "warn"
	case LogInfo:
		return "info"
	case LogDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// SetError fills the result's serializable error slot.
func (r *Event_Result) SetError(err error) {
	r.Error = ToErrorInfo(err)
}
