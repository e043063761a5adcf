package executor

import "fmt"

// ScratchError represents a failure to persist a script body before running it
type ScratchError struct {
	Interpreter   string
	Path          string
	OriginalError error
}

// Error implements the error interface
func (e *ScratchError) Error() string {
	return fmt.Sprintf("failed to write script for '%s': %v\n  Path: %s",
		e.Interpreter, e.OriginalError, e.Path)
}

// Unwrap returns the original error for error unwrapping
func (e *ScratchError) Unwrap() error {
	return e.OriginalError
}

// InvalidRequestError represents a request the executor refuses to run
type InvalidRequestError struct {
	Reason string
}

// Error implements the error interface
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid execution request: %s", e.Reason)
}
