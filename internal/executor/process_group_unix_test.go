//go:build !windows

package executor

import (
	"os/exec"
	"testing"
)

func TestProcessGroupConfigurationUnix(t *testing.T) {
	cmd := &exec.Cmd{}

	configureProcessGroup(cmd)

	if cmd.SysProcAttr == nil {
		t.Fatal("SysProcAttr should be set after configureProcessGroup")
	}

	if !cmd.SysProcAttr.Setpgid {
		t.Error("Setpgid should be true on Unix systems")
	}

	if cmd.SysProcAttr.Pgid != 0 {
		t.Error("Pgid should be 0 to use process PID as group ID")
	}

	if cmd.Cancel == nil {
		t.Error("Cancel should kill the process group")
	}
}
