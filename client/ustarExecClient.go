/*
	Package ustarexecclient runs extractions in a child ustar process,
	speaking the --format=json wire protocol.  The functions here have the
	same signatures as the in-process ones in the transmat packages.
*/
package ustarexecclient

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/transmat/util"
)

var (
	_ util.ExtractFunc = ExtractFunc
	_ util.ExtractFunc = UnzipFunc
	_ util.ScanFunc    = ScanFunc
)

// Binary is the command the client runs; it is looked up on $PATH.
var Binary = "ustar"

func ExtractFunc(
	ctx context.Context,
	archivePath string,
	destPath string,
	cfg util.UnpackConfig,
	mon api.Monitor,
) (api.Manifest, error) {
	return run(ctx, ExtractArgs("extract", archivePath, destPath, cfg), mon)
}

func UnzipFunc(
	ctx context.Context,
	archivePath string,
	destPath string,
	cfg util.UnpackConfig,
	mon api.Monitor,
) (api.Manifest, error) {
	return run(ctx, ExtractArgs("unzip", archivePath, destPath, cfg), mon)
}

func ScanFunc(
	ctx context.Context,
	archivePath string,
	cfg util.UnpackConfig,
	mon api.Monitor,
) (api.Manifest, error) {
	return run(ctx, ScanArgs(archivePath, cfg), mon)
}

// internal implementation of message parsing, shared by all commands.
func run(
	ctx context.Context,
	args []string,
	mon api.Monitor,
) (_ api.Manifest, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	if mon.Chan != nil {
		defer close(mon.Chan)
	}

	// Spawn process.
	cmd := exec.Command(Binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, Errorf(api.ErrRPCBreakdown, "fork ustar: failed to start: %s", err)
	}
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	if err = cmd.Start(); err != nil {
		return nil, Errorf(api.ErrRPCBreakdown, "fork ustar: failed to start: %s", err)
	}

	// Set up reaction to ctx.done: send a sig to the child proc.
	//  The child is signalled to close its stdout pipe, which in turn releases
	//  the read loop below.
	exited := make(chan struct{})
	defer close(exited)
	go func() {
		select {
		case <-exited:
			return
		case <-ctx.Done():
		}
		cmd.Process.Signal(os.Interrupt)
		select {
		case <-exited:
		case <-time.After(100 * time.Millisecond):
			cmd.Process.Signal(os.Kill)
		}
	}()

	// Consume stdout, converting it to Monitor.Chan sends.
	//  When the child sends its 'result' message, msgSlot holds the final
	//  data (or error); we check the exit code for a match before returning it.
	unmarshaller := refmt.NewUnmarshallerAtlased(json.DecodeOptions{}, stdout, api.Atlas)
	var msgSlot api.Event
	for {
		msgSlot = api.Event{}
		if err := unmarshaller.Unmarshal(&msgSlot); err != nil {
			if err == io.EOF {
				// The child died before a result; the error from Wait,
				//  with the stderr capture, is more informative.
				break
			}
			cmd.Process.Kill()
			cmd.Wait()
			return nil, Errorf(api.ErrRPCBreakdown, "fork ustar: API parse error: %s", err)
		}

		if msgSlot.Result != nil {
			break
		}
		// For all other messages: forward to the monitor channel (if it exists!)
		if mon.Chan != nil {
			select {
			case <-ctx.Done():
			case mon.Chan <- msgSlot:
			}
		}
	}

	// Wait for process complete, then check the exit code agrees with the result.
	code, err := waitFor(ctx, cmd, &stderrBuf)
	if err != nil {
		return nil, err
	}
	return checkResult(code, msgSlot.Result, stderrBuf.String())
}
