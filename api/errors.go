package api

import (
	"github.com/warpfork/go-errcat"
)

type ErrorCategory string
type ExitCode int

const (
	ExitSuccess                                       = ExitCode(0)
	ExitUsage, ErrUsage                               = ExitCode(1), ErrorCategory("ustar-usage-error")           // Indicates some piece of user input to a command was invalid and unrunnable.
	ExitPanic                                         = ExitCode(2)                                               // Placeholder.  We don't use this.  '2' happens when golang exits due to panic.
	ExitArchiveMissing, ErrArchiveMissing             = ExitCode(3), ErrorCategory("ustar-archive-missing")       // The source archive path does not exist.  Raised before any stream is opened.
	ExitDestinationMissing, ErrDestinationMissing     = ExitCode(4), ErrorCategory("ustar-destination-missing")   // The destination root does not exist.  Raised before any stream is opened.
	ExitArchiveCorrupt, ErrArchiveCorrupt             = ExitCode(5), ErrorCategory("ustar-archive-corrupt")       // The archive stream was found to be malformed part-way through reading it.
	ExitFieldOverflow, ErrFieldOverflow               = ExitCode(6), ErrorCategory("ustar-field-overflow")        // A value does not fit in its fixed-width header field.
	ExitIO, ErrIO                                     = ExitCode(7), ErrorCategory("ustar-io-error")              // Reading the source or writing the destination failed (disk full, permission denied, etc).
	ExitCancelled, ErrCancelled                       = ExitCode(8), ErrorCategory("ustar-cancelled")             // The operation was cancelled by its context.
	ExitTODO                                          = ExitCode(254)                                             // This exit code should be replaced with something more specific
	ErrRPCBreakdown                                   = ErrorCategory("ustar-rpc-breakdown")                      // The exec client could not make sense of the child process.  Never an exit code.
)

// CategoryForExitCode is the inverse of ExitCodeFor, for clients that exec the command line tool.
func CategoryForExitCode(code int) ErrorCategory {
	switch ExitCode(code) {
	case ExitUsage:
		return ErrUsage
	case ExitArchiveMissing:
		return ErrArchiveMissing
	case ExitDestinationMissing:
		return ErrDestinationMissing
	case ExitArchiveCorrupt:
		return ErrArchiveCorrupt
	case ExitFieldOverflow:
		return ErrFieldOverflow
	case ExitIO:
		return ErrIO
	case ExitCancelled:
		return ErrCancelled
	default:
		return ErrRPCBreakdown
	}
}

// ExitCodeFor maps an error to the exit code the command line tool should use.
// Errors without one of our categories map to ExitTODO.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	switch errcat.Category(err) {
	case ErrUsage:
		return ExitUsage
	case ErrArchiveMissing:
		return ExitArchiveMissing
	case ErrDestinationMissing:
		return ExitDestinationMissing
	case ErrArchiveCorrupt:
		return ExitArchiveCorrupt
	case ErrFieldOverflow:
		return ExitFieldOverflow
	case ErrIO:
		return ExitIO
	case ErrCancelled:
		return ExitCancelled
	default:
		return ExitTODO
	}
}

/*
	Serializable form of an error.

	Errors raised by this library are go-errcat errors; this struct captures
	their category, message, and details so they can be emitted on the wire.
*/
type ErrorInfo struct {
	Category string            `refmt:"category"`
	Message  string            `refmt:"message"`
	Details  map[string]string `refmt:"details,omitempty"`
}

// ToErrorInfo flattens an error into its serializable form.
// Returns nil for a nil error.
func ToErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{Message: err.Error()}
	if cat, ok := errcat.Category(err).(ErrorCategory); ok {
		info.Category = string(cat)
	}
	if detailed, ok := err.(interface{ Details() map[string]string }); ok {
		info.Details = detailed.Details()
	}
	return info
}
