package diagnostics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/seqr-cli/txtx/internal/runlog"
	"github.com/seqr-cli/txtx/internal/source"
)

func newLog(runs ...runlog.Run) *runlog.Log {
	log := runlog.New()
	for _, run := range runs {
		log.Append(run)
	}
	return log
}

func TestReporter_NoDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf, "doc.md", false, false)

	summary := reporter.Report(newLog(runlog.Run{Command: "echo hi", Stdout: "hi\n"}))

	if summary.Failed() {
		t.Error("Expected success")
	}
	if summary.Warnings != 0 {
		t.Errorf("Expected no warnings, got %d", summary.Warnings)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestReporter_Warning(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf, "doc.md", false, false)

	summary := reporter.Report(newLog(runlog.Run{
		Command:  " echo hi >&2 ",
		Stderr:   "hi\n\n",
		Location: source.Position{Line: 3, Column: 5},
	}))

	if summary.Failed() {
		t.Error("Expected stderr on success not to fail the run")
	}
	if summary.Warnings != 1 {
		t.Errorf("Expected 1 warning, got %d", summary.Warnings)
	}

	expected := "\ndoc.md:3:5 [echo hi >&2] produced output on stderr:\nhi\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestReporter_Failure(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf, "doc.md", false, false)

	summary := reporter.Report(newLog(
		runlog.Run{Command: "ok", Location: source.Position{Line: 1, Column: 1}},
		runlog.Run{Command: "exit 3", ExitCode: 3, Stderr: "bad thing\n", Location: source.Position{Line: 2, Column: 7}},
		runlog.Run{Command: "false", ExitCode: 1, Location: source.Position{Line: 4, Column: 1}},
	))

	if !summary.Failed() {
		t.Error("Expected failure")
	}
	if summary.Failures != 2 {
		t.Errorf("Expected 2 failures, got %d", summary.Failures)
	}

	expected := "\n" +
		"doc.md:2:7 [exit 3] failed with exit code 3:\nbad thing\n" +
		"doc.md:4:1 [false] failed with exit code 1:\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestReporter_WarningsBeforeFailures(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf, "doc.md", false, false)

	reporter.Report(newLog(
		runlog.Run{Command: "fail", ExitCode: 2, Stderr: "first in document", Location: source.Position{Line: 1, Column: 1}},
		runlog.Run{Command: "warn", Stderr: "second in document", Location: source.Position{Line: 2, Column: 1}},
	))

	output := buf.String()
	warnIdx := strings.Index(output, "second in document")
	failIdx := strings.Index(output, "first in document")
	if warnIdx < 0 || failIdx < 0 {
		t.Fatalf("Expected both diagnostics, got %q", output)
	}
	if warnIdx > failIdx {
		t.Error("Expected warnings to be reported before failures")
	}
	if !strings.HasPrefix(output, "\n") || strings.HasPrefix(output, "\n\n") {
		t.Errorf("Expected exactly one leading separator line, got %q", output)
	}
}

func TestReporter_ReportError(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf, "doc.md", false, false)

	reporter.ReportError(errors.New("doc.md:4:2: unexpected end of file"))

	if buf.String() != "\ndoc.md:4:2: unexpected end of file\n" {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func TestReporter_ColoredKeepsText(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf, "doc.md", true, false)

	reporter.Report(newLog(runlog.Run{Command: "exit 1", ExitCode: 1, Stderr: "nope"}))

	if !strings.Contains(buf.String(), "failed with exit code 1") || !strings.Contains(buf.String(), "nope") {
		t.Errorf("Expected diagnostic text in colored output, got %q", buf.String())
	}
}

func TestReporter_VerboseSummary(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf, "doc.md", false, true)

	reporter.Report(newLog(
		runlog.Run{Command: "echo a", Duration: 5 * time.Millisecond, Location: source.Position{Line: 1, Column: 1}},
		runlog.Run{Command: "exit 1", ExitCode: 1, Duration: 2 * time.Second, Location: source.Position{Line: 2, Column: 1}},
	))

	output := buf.String()
	for _, want := range []string{
		"Execution Summary:",
		"✓ [1]",
		"✗ [2]",
		"Total: 2 directives, 1 failed, 0 with stderr",
		"Total execution time: 2.00s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in summary, got:\n%s", want, output)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Microsecond, "500.00μs"},
		{150 * time.Millisecond, "150ms"},
		{2500 * time.Millisecond, "2.50s"},
		{90 * time.Second, "1.5m"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.expected {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected short string unchanged, got %q", got)
	}
	if got := truncate("abcdefghijkl", 8); got != "abcde..." {
		t.Errorf("Expected truncated string, got %q", got)
	}
}
