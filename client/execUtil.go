package ustarexecclient

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
)

/*
	Wait for the child and reduce how it went to an exit code.

	Failures to wait are ErrRPCBreakdown, annotated with whatever the child
	said on stderr; a child that was killed because ctx was cancelled is
	ErrCancelled instead.
*/
func waitFor(ctx context.Context, cmd *exec.Cmd, stderr *bytes.Buffer) (int, error) {
	code, err := waitStatus(cmd)
	if err == nil {
		return code, nil
	}
	if ctx.Err() != nil {
		return code, Errorf(api.ErrCancelled, "cancelled")
	}
	return code, ErrorDetailed(api.ErrRPCBreakdown,
		"fork ustar: wait error: "+err.Error(),
		map[string]string{"stderr": stderr.String()})
}

func waitStatus(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return -1, Errorf(api.ErrRPCBreakdown, "unknown wait error: %s", err)
	}
	ws, ok := exitErr.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return -1, Errorf(api.ErrRPCBreakdown, "unknown process state implementation %T", exitErr.ProcessState.Sys())
	}
	if ws.Exited() {
		return ws.ExitStatus(), nil
	} else if ws.Signaled() {
		return int(ws.Signal()) + 128, Errorf(api.ErrRPCBreakdown, "process killed with signal %d", ws.Signal())
	} else {
		return -1, Errorf(api.ErrRPCBreakdown, "unknown process wait status (%#v)", ws)
	}
}

/*
	Reconcile the child's exit code with the result message it sent (which
	may be nil, if it died before sending one).

	The exit code should be redundant with the result's error category;
	a mismatch between them is ErrRPCBreakdown.
*/
func checkResult(code int, result *api.Event_Result, stderr string) (api.Manifest, error) {
	if code == 0 {
		if result == nil {
			return nil, ErrorDetailed(api.ErrRPCBreakdown,
				"fork ustar: exited zero, but no clear result",
				map[string]string{"stderr": stderr})
		}
		if result.Error != nil {
			return nil, Errorf(api.ErrRPCBreakdown, "fork ustar: exited zero, but result had error, category=%s: %s", result.Error.Category, result.Error.Message)
		}
		return result.Manifest, nil
	}
	exitCategory := api.CategoryForExitCode(code)
	if result == nil || result.Error == nil {
		return nil, ErrorDetailed(exitCategory,
			"no message available",
			map[string]string{"stderr": stderr})
	}
	if api.ErrorCategory(result.Error.Category) != exitCategory {
		return nil, Errorf(api.ErrRPCBreakdown, "fork ustar: exit code %d does not match result category %q", code, result.Error.Category)
	}
	return nil, ErrorDetailed(exitCategory, result.Error.Message, result.Error.Details)
}
