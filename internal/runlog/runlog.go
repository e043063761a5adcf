// Package runlog records every directive execution performed while a
// document is scanned.
package runlog

import (
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/seqr-cli/txtx/internal/source"
)

// Run is the outcome of one directive execution. Runs are never modified
// after they are appended to a Log.
type Run struct {
	Command    string          `json:"command"`
	ExitCode   int             `json:"exitCode"`
	Stdout     string          `json:"stdout,omitempty"`
	Stderr     string          `json:"stderr,omitempty"`
	Location   source.Position `json:"location"`
	ScriptPath string          `json:"scriptPath,omitempty"`
	Duration   time.Duration   `json:"duration"`
}

// Succeeded reports whether the run exited with status 0.
func (r Run) Succeeded() bool {
	return r.ExitCode == 0
}

// TrimmedStderr returns stderr without trailing whitespace.
func (r Run) TrimmedStderr() string {
	return strings.TrimRight(r.Stderr, " \t\r\n\v\f")
}

// Log is an append-only list of runs in execution order.
type Log struct {
	runs []Run
}

// New returns an empty log.
func New() *Log {
	return &Log{runs: make([]Run, 0)}
}

// Append adds a run to the end of the log.
func (l *Log) Append(run Run) {
	l.runs = append(l.runs, run)
}

// Len returns the number of recorded runs.
func (l *Log) Len() int {
	return len(l.runs)
}

// Runs returns a copy of the recorded runs.
func (l *Log) Runs() []Run {
	return slices.Clone(l.runs)
}

// Warnings yields runs that exited 0 but wrote to stderr.
func (l *Log) Warnings() iter.Seq[Run] {
	return func(yield func(Run) bool) {
		for _, run := range l.runs {
			if run.Succeeded() && run.TrimmedStderr() != "" {
				if !yield(run) {
					return
				}
			}
		}
	}
}

// Failures yields runs that exited with a non-zero status.
func (l *Log) Failures() iter.Seq[Run] {
	return func(yield func(Run) bool) {
		for _, run := range l.runs {
			if !run.Succeeded() {
				if !yield(run) {
					return
				}
			}
		}
	}
}

// Failed reports whether any recorded run exited with a non-zero status.
func (l *Log) Failed() bool {
	for range l.Failures() {
		return true
	}
	return false
}
