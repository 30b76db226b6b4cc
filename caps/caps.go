/*
	Provides helper functions for checking if we have some functional sets of capabilities.
*/
package caps

import (
	"os"
	"runtime"

	"github.com/syndtr/gocapability/capability"
)

func Scan() *Fulcrum {
	f := &Fulcrum{}
	f.onLinux = runtime.GOOS == "linux"
	f.ourUID = os.Getuid()
	if f.onLinux {
		caps, err := capability.NewPid(0) // zero means self
		if err == nil {
			f.ourCaps = caps
		}
	}
	return f
}

type Fulcrum struct {
	onLinux bool
	ourUID  int
	ourCaps capability.Capabilities // valid on linux; nil on mac, or if they couldn't be read.
}

func (f Fulcrum) has(which ...capability.Cap) bool {
	if !f.onLinux || f.ourCaps == nil {
		return f.ourUID == 0
	}
	for _, c := range which {
		if !f.ourCaps.Get(capability.EFFECTIVE, c) {
			return false
		}
	}
	return true
}

// Whether we have enough caps to confidently extract files with the ownership
// recorded in the archive.
// This requires "have CAP_CHOWN", but also "have CAP_FOWNER" (because we need this cap
// in order to be able to set mtimes on files *after having chown'd them*);
// or, on mac, is uid==0.
func (f Fulcrum) CanManageOwnership() bool {
	return f.has(capability.CAP_CHOWN, capability.CAP_FOWNER)
}

// Whether we can make block and char device nodes.
func (f Fulcrum) CanMknod() bool {
	return f.has(capability.CAP_MKNOD)
}
