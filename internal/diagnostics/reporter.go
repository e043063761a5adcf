// Package diagnostics reports the outcome of a scan once the whole document
// has been written: stderr from successful directives as warnings, non-zero
// exits as failures.
package diagnostics

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/seqr-cli/txtx/internal/runlog"
)

// Summary counts what a report found.
type Summary struct {
	Warnings int
	Failures int
}

// Failed reports whether any directive exited non-zero.
func (s Summary) Failed() bool {
	return s.Failures > 0
}

// Reporter writes diagnostics to a stream separate from the document output.
type Reporter struct {
	writer   io.Writer
	document string
	colored  bool
	verbose  bool
	printed  bool
}

// NewReporter creates a reporter for the named document
func NewReporter(writer io.Writer, document string, colored, verbose bool) *Reporter {
	return &Reporter{
		writer:   writer,
		document: document,
		colored:  colored,
		verbose:  verbose,
	}
}

// Report makes two passes over the log: warnings first, then failures.
func (r *Reporter) Report(log *runlog.Log) Summary {
	var summary Summary

	for run := range log.Warnings() {
		summary.Warnings++
		r.separate()
		r.println(color.Yellow, fmt.Sprintf("%s [%s] produced output on stderr:", r.location(run), describe(run.Command)))
		r.println(color.Yellow, run.TrimmedStderr())
	}

	for run := range log.Failures() {
		summary.Failures++
		r.separate()
		r.println(color.Red, fmt.Sprintf("%s [%s] failed with exit code %d:", r.location(run), describe(run.Command), run.ExitCode))
		if stderr := run.TrimmedStderr(); stderr != "" {
			r.println(color.Red, stderr)
		}
	}

	if r.verbose {
		r.reportSummary(log, summary)
	}

	return summary
}

// ReportError reports a fatal error that stopped the scan.
func (r *Reporter) ReportError(err error) {
	r.separate()
	r.println(color.Red, err.Error())
}

// reportSummary lists every run with its duration
func (r *Reporter) reportSummary(log *runlog.Log, summary Summary) {
	if log.Len() == 0 {
		return
	}

	r.separate()
	fmt.Fprintln(r.writer, "Execution Summary:")
	fmt.Fprintln(r.writer, strings.Repeat("-", 50))

	totalDuration := time.Duration(0)
	for i, run := range log.Runs() {
		statusIcon := "✓"
		if !run.Succeeded() {
			statusIcon = "✗"
		}
		totalDuration += run.Duration

		fmt.Fprintf(r.writer, "%s [%d] %-8s %-30s %8s\n",
			statusIcon, i+1, run.Location, truncate(describe(run.Command), 30), formatDuration(run.Duration))
	}

	fmt.Fprintln(r.writer, strings.Repeat("-", 50))
	fmt.Fprintf(r.writer, "Total: %d directives, %d failed, %d with stderr\n",
		log.Len(), summary.Failures, summary.Warnings)
	fmt.Fprintf(r.writer, "Total execution time: %s\n", formatDuration(totalDuration))
}

// separate writes a blank line before the first diagnostic
func (r *Reporter) separate() {
	if r.printed {
		return
	}
	fmt.Fprintln(r.writer)
	r.printed = true
}

func (r *Reporter) println(c color.Color, msg string) {
	if r.colored {
		msg = c.Sprint(msg)
	}
	fmt.Fprintln(r.writer, msg)
}

func (r *Reporter) location(run runlog.Run) string {
	return fmt.Sprintf("%s:%d:%d", r.document, run.Location.Line, run.Location.Column)
}

// describe collapses a command to a single trimmed line
func describe(command string) string {
	return strings.Join(strings.Fields(command), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// formatDuration formats a duration for human-readable output
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fμs", float64(d.Nanoseconds())/1000.0)
	} else if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1000000.0)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}
