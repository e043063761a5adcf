package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// DefaultShell returns the argv prefix used to run shell bodies.
func DefaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"/bin/sh", "-c"}
}

type Options struct {
	// Shell is the argv prefix; the body is appended as the last argument.
	Shell []string
	// Scratch is where script bodies are persisted.
	Scratch *ScratchStore
	// Builtins maps interpreter names to in-process implementations.
	Builtins map[string]Interpreter
	// Env is appended to the inherited environment of every child.
	Env []string
}

// Local runs directives as child processes of the current process.
type Local struct {
	shell    []string
	scratch  *ScratchStore
	builtins map[string]Interpreter
	env      []string
}

var _ Executor = (*Local)(nil)

func NewLocal(opts Options) *Local {
	shell := opts.Shell
	if len(shell) == 0 {
		shell = DefaultShell()
	}
	scratch := opts.Scratch
	if scratch == nil {
		scratch = NewScratchStore(DefaultScratchDir())
	}
	builtins := opts.Builtins
	if builtins == nil {
		builtins = make(map[string]Interpreter)
	}
	return &Local{
		shell:    shell,
		scratch:  scratch,
		builtins: builtins,
		env:      opts.Env,
	}
}

// RunShell executes req.Body with the configured shell.
func (l *Local) RunShell(ctx context.Context, req ShellRequest) (ExecutionResult, error) {
	result := ExecutionResult{
		Command:   req.Body,
		StartTime: time.Now(),
	}

	args := append(append([]string{}, l.shell[1:]...), req.Body)
	execCmd := l.prepareCommand(ctx, l.shell[0], args...)
	return l.executeOnce(execCmd, result), nil
}

// RunScript dedents req.Body, writes it to scratch storage and runs the
// interpreter with the script path as its only argument.
func (l *Local) RunScript(ctx context.Context, req ScriptRequest) (ExecutionResult, error) {
	if req.Interpreter == "" {
		return ExecutionResult{}, &InvalidRequestError{Reason: "interpreter name is empty"}
	}

	script := PrepareScript(req.Body)
	path := l.scratch.Path(req.Interpreter, req.Location)
	if err := l.scratch.Write(path, []byte(script)); err != nil {
		return ExecutionResult{}, &ScratchError{
			Interpreter:   req.Interpreter,
			Path:          path,
			OriginalError: err,
		}
	}

	result := ExecutionResult{
		Command:    req.Interpreter + " " + path,
		ScriptPath: path,
		StartTime:  time.Now(),
	}

	if builtin, ok := l.builtins[req.Interpreter]; ok {
		out := builtin.Run(ctx, path, []byte(script))
		result.Stdout = out.Stdout
		result.Stderr = out.Stderr
		result.ExitCode = out.ExitCode
		finish(&result)
		return result, nil
	}

	execCmd := l.prepareCommand(ctx, req.Interpreter, path)
	return l.executeOnce(execCmd, result), nil
}

// prepareCommand creates and configures an exec.Cmd
func (l *Local) prepareCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	execCmd := exec.CommandContext(ctx, name, args...)
	if len(l.env) > 0 {
		execCmd.Env = append(execCmd.Environ(), l.env...)
	}
	configureProcessGroup(execCmd)
	return execCmd
}

// executeOnce runs the command to completion and captures both streams.
// A command that cannot be started is recorded with exit code -1 and the
// start error as its stderr.
func (l *Local) executeOnce(execCmd *exec.Cmd, result ExecutionResult) ExecutionResult {
	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()
	finish(&result)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result
		}
		result.ExitCode = -1
		if result.Stderr != "" && !strings.HasSuffix(result.Stderr, "\n") {
			result.Stderr += "\n"
		}
		result.Stderr += err.Error()
	}
	return result
}

func finish(result *ExecutionResult) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
}
