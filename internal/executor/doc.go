// Package executor runs directive bodies as external processes.
//
// The executor offers two capabilities to the scanner:
//
//   - RunShell passes a body to the system shell (default "/bin/sh -c").
//   - RunScript dedents a body, persists it to the scratch directory and
//     invokes a named interpreter with the script path as its only argument.
//
// Both are synchronous. Stdout, stderr and the exit status are captured into
// an ExecutionResult; a process that exits non-zero is not an error at this
// level, it is recorded in the result and classified after the scan.
//
// # Process groups
//
// Each child is started in its own process group. When the context passed
// to RunShell or RunScript is cancelled the whole group is killed, so shell
// pipelines and background children do not outlive an interrupted run.
//
// # Builtin interpreters
//
// Interpreters can be served in-process instead of by an external program.
// The only builtin is "starlark", which evaluates the persisted script with
// go.starlark.net and captures print output as stdout.
//
// # Usage Example
//
//	exec := NewLocal(Options{
//		Shell:   DefaultShell(),
//		Scratch: NewScratchStore(DefaultScratchDir()),
//	})
//
//	result, err := exec.RunShell(ctx, ShellRequest{Body: "echo hello"})
//	if err != nil {
//		// scratch or setup failure
//	}
//	fmt.Println(result.ExitCode, result.Stdout)
package executor
