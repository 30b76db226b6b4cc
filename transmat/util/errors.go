package util

import (
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
)

/*
	Recategorize an error for the transmat boundary and attach a detail.

	Errors that already carry an api category keep it.  Filesystem errors
	become api.ErrIO, except fs.ErrBreakout: an archive that makes us
	traverse a symlink is itself malformed, so that is api.ErrArchiveCorrupt.
	Anything else is api.ErrIO.  A detail already set under the same key
	wins; the innermost caller knows best.
*/
func AddDetail(err error, key, value string) error {
	if err == nil {
		return nil
	}
	cat := Category(err)
	switch c := cat.(type) {
	case api.ErrorCategory:
		// keep
	case fs.ErrorCategory:
		if c == fs.ErrBreakout {
			cat = api.ErrArchiveCorrupt
		} else {
			cat = api.ErrIO
		}
	default:
		cat = api.ErrIO
	}
	details := map[string]string{}
	if e, ok := err.(Error); ok {
		for k, v := range e.Details() {
			details[k] = v
		}
	}
	if _, exists := details[key]; !exists {
		details[key] = value
	}
	return ErrorDetailed(cat, err.Error(), details)
}
