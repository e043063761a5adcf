package executor

import (
	"context"
	"time"

	"github.com/seqr-cli/txtx/internal/source"
)

// Executor is the capability the scanner needs from the host.
type Executor interface {
	// RunShell executes body with the system shell.
	RunShell(ctx context.Context, req ShellRequest) (ExecutionResult, error)

	// RunScript persists body to scratch storage and runs the interpreter on it.
	RunScript(ctx context.Context, req ScriptRequest) (ExecutionResult, error)
}

type ShellRequest struct {
	Body     string
	Location source.Position
}

type ScriptRequest struct {
	Interpreter string
	Body        string
	Location    source.Position
}

type ExecutionResult struct {
	Command    string        `json:"command"`
	ExitCode   int           `json:"exitCode"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	ScriptPath string        `json:"scriptPath,omitempty"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
	Duration   time.Duration `json:"duration"`
}

// Success reports whether the process exited with status 0.
func (r ExecutionResult) Success() bool {
	return r.ExitCode == 0
}
