package scan

import (
	"fmt"

	"github.com/seqr-cli/txtx/internal/source"
)

// ParseError is a fatal syntax error. Scanning stops at the first one.
type ParseError struct {
	Document string
	Pos      source.Position
	State    State
	Msg      string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Document, e.Pos.Line, e.Pos.Column, e.Msg)
}

// ReadError wraps a failure to read the document
type ReadError struct {
	Document      string
	Pos           source.Position
	OriginalError error
}

// Error implements the error interface
func (e *ReadError) Error() string {
	return fmt.Sprintf("%s:%d:%d: failed to read document: %v",
		e.Document, e.Pos.Line, e.Pos.Column, e.OriginalError)
}

// Unwrap returns the original error for error unwrapping
func (e *ReadError) Unwrap() error {
	return e.OriginalError
}
