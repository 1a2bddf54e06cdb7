//go:build !windows

package task

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr starts the task process in its own process group so it
// survives the foreground CLI exiting.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
