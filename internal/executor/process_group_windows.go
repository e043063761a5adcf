//go:build windows

package executor

import (
	"fmt"
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the command in a new process group and kills
// the process tree when the command's context is cancelled.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
	cmd.Cancel = func() error {
		return killProcessGroup(cmd.Process.Pid)
	}
}

// killProcessGroup uses taskkill to force-kill the process tree
func killProcessGroup(pid int) error {
	return exec.Command("taskkill", "/F", "/T", "/PID", fmt.Sprintf("%d", pid)).Run()
}
