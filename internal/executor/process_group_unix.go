//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the command in its own process group and
// kills the whole group when the command's context is cancelled.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // Create new process group
		Pgid:    0,    // Use process PID as process group ID
	}
	cmd.Cancel = func() error {
		return killProcessGroup(cmd.Process.Pid)
	}
}

// killProcessGroup sends SIGKILL to an entire process group
func killProcessGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
