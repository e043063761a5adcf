package executor

import (
	"bytes"
	"context"
	"errors"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Interpreter runs a persisted script in-process.
type Interpreter interface {
	Run(ctx context.Context, scriptPath string, src []byte) InterpreterOutput
}

type InterpreterOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// StarlarkInterpreter evaluates scripts with go.starlark.net. print writes a
// line to stdout; an evaluation error is written to stderr with its backtrace
// and exit code 1.
type StarlarkInterpreter struct{}

var _ Interpreter = StarlarkInterpreter{}

var starlarkFileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

func (StarlarkInterpreter) Run(ctx context.Context, scriptPath string, src []byte) InterpreterOutput {
	var stdout, stderr bytes.Buffer

	thread := &starlark.Thread{
		Name: scriptPath,
		Print: func(_ *starlark.Thread, msg string) {
			stdout.WriteString(msg)
			stdout.WriteByte('\n')
		},
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	_, err := starlark.ExecFileOptions(starlarkFileOptions, thread, scriptPath, src, nil)
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			stderr.WriteString(evalErr.Backtrace())
		} else {
			stderr.WriteString(err.Error())
		}
		stderr.WriteByte('\n')
		return InterpreterOutput{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: 1,
		}
	}

	return InterpreterOutput{Stdout: stdout.String()}
}

// Builtins returns the in-process interpreters named in names. Unknown names
// are reported by the config validator, so they are ignored here.
func Builtins(names []string) map[string]Interpreter {
	builtins := make(map[string]Interpreter)
	for _, name := range names {
		switch name {
		case "starlark":
			builtins[name] = StarlarkInterpreter{}
		}
	}
	return builtins
}
