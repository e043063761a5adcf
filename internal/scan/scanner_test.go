package scan

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/seqr-cli/txtx/internal/executor"
	"github.com/seqr-cli/txtx/internal/runlog"
	"github.com/seqr-cli/txtx/internal/source"
)

// fakeExecutor records requests and answers from canned results.
type fakeExecutor struct {
	shell   []executor.ShellRequest
	scripts []executor.ScriptRequest
	results map[string]executor.ExecutionResult
	err     error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{results: make(map[string]executor.ExecutionResult)}
}

func (f *fakeExecutor) RunShell(ctx context.Context, req executor.ShellRequest) (executor.ExecutionResult, error) {
	f.shell = append(f.shell, req)
	if f.err != nil {
		return executor.ExecutionResult{}, f.err
	}
	if result, ok := f.results[req.Body]; ok {
		result.Command = req.Body
		return result, nil
	}
	return executor.ExecutionResult{Command: req.Body, Stdout: "<" + req.Body + ">\n"}, nil
}

func (f *fakeExecutor) RunScript(ctx context.Context, req executor.ScriptRequest) (executor.ExecutionResult, error) {
	f.scripts = append(f.scripts, req)
	if f.err != nil {
		return executor.ExecutionResult{}, f.err
	}
	command := req.Interpreter + " /scratch/script"
	if result, ok := f.results[req.Interpreter]; ok {
		result.Command = command
		return result, nil
	}
	return executor.ExecutionResult{
		Command:    command,
		ScriptPath: "/scratch/script",
		Stdout:     "[" + req.Interpreter + "]",
	}, nil
}

func scan(t *testing.T, exec executor.Executor, input string) (string, *runlog.Log, error) {
	t.Helper()
	log := runlog.New()
	var out bytes.Buffer
	err := New("doc.txt", DefaultDelimiters(), exec, log).Scan(context.Background(), strings.NewReader(input), &out)
	return out.String(), log, err
}

func TestScanner_Passthrough(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty document", "", ""},
		{"plain text", "hello world\n", "hello world\n"},
		{"braces without prefix", "func() { return }\n", "func() { return }\n"},
		{"unicode text", "héllo → wörld\n", "héllo → wörld\n"},
		{"escaped prefix", "wow!!", "wow!"},
		{"escaped prefix before brace", "!!{not a directive}", "!{not a directive}"},
		{"double escape", "!!!!", "!!"},
		{"unknown follower", "hello!x there", "hello!x there"},
		{"prefix before space", "Hi! How are you?", "Hi! How are you?"},
		{"prefix before newline", "Hi!\nBye", "Hi!\nBye"},
		{"prefix before closing delimiter", "!} !)", "!} !)"},
		{"invalid utf-8 preserved", "a\xffb", "a\xffb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor()
			out, log, err := scan(t, exec, tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out != tt.expected {
				t.Errorf("Expected output %q, got %q", tt.expected, out)
			}
			if log.Len() != 0 || len(exec.shell) != 0 || len(exec.scripts) != 0 {
				t.Errorf("Expected no executions, got %d", log.Len())
			}
		})
	}
}

func TestScanner_ShellDirective(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expected     string
		expectedBody []string
	}{
		{
			name:         "simple directive",
			input:        "a !{ echo hi } b",
			expected:     "a < echo hi > b",
			expectedBody: []string{" echo hi "},
		},
		{
			name:         "nested braces stay in body",
			input:        "!{ echo '{ }' }",
			expected:     "< echo '{ }' >",
			expectedBody: []string{" echo '{ }' "},
		},
		{
			name:         "deep nesting",
			input:        "!{a{b{c}d}e}",
			expected:     "<a{b{c}d}e>",
			expectedBody: []string{"a{b{c}d}e"},
		},
		{
			name:         "prefix inside body is opaque",
			input:        "!{ echo !{x} }",
			expected:     "< echo !{x} >",
			expectedBody: []string{" echo !{x} "},
		},
		{
			name:         "multiple directives in order",
			input:        "!{one}-!{two}\n!{three}",
			expected:     "<one>-<two>\n<three>",
			expectedBody: []string{"one", "two", "three"},
		},
		{
			name:         "empty body",
			input:        "x!{}y",
			expected:     "x<>y",
			expectedBody: []string{""},
		},
		{
			name:         "multiline body",
			input:        "!{\nls\n}",
			expected:     "<\nls\n>",
			expectedBody: []string{"\nls\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor()
			out, log, err := scan(t, exec, tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out != tt.expected {
				t.Errorf("Expected output %q, got %q", tt.expected, out)
			}

			var bodies []string
			for _, req := range exec.shell {
				bodies = append(bodies, req.Body)
			}
			if diff := cmp.Diff(tt.expectedBody, bodies); diff != "" {
				t.Errorf("Shell bodies mismatch (-want +got):\n%s", diff)
			}
			if log.Len() != len(tt.expectedBody) {
				t.Errorf("Expected %d runs, got %d", len(tt.expectedBody), log.Len())
			}
		})
	}
}

func TestScanner_TrimsTrailingWhitespaceOnly(t *testing.T) {
	exec := newFakeExecutor()
	exec.results["cmd"] = executor.ExecutionResult{Stdout: "  padded output \n\n\t"}

	out, _, err := scan(t, exec, "[!{cmd}]")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "[  padded output]" {
		t.Errorf("Expected trailing whitespace trimmed, got %q", out)
	}
}

func TestScanner_ScriptDirective(t *testing.T) {
	tests := []struct {
		name                string
		input               string
		expected            string
		expectedInterpreter string
		expectedBody        string
	}{
		{
			name:                "adjacent body",
			input:               "x !(python3){print(1)} y",
			expected:            "x [python3] y",
			expectedInterpreter: "python3",
			expectedBody:        "print(1)",
		},
		{
			name:                "whitespace before body",
			input:               "!(bash) \n\t{ echo hi }",
			expected:            "[bash]",
			expectedInterpreter: "bash",
			expectedBody:        " echo hi ",
		},
		{
			name:                "nested braces",
			input:               "!(node){ if (x) { y() } }",
			expected:            "[node]",
			expectedInterpreter: "node",
			expectedBody:        " if (x) { y() } ",
		},
		{
			name:                "interpreter path",
			input:               "!(/usr/bin/env){x}",
			expected:            "[/usr/bin/env]",
			expectedInterpreter: "/usr/bin/env",
			expectedBody:        "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor()
			out, log, err := scan(t, exec, tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out != tt.expected {
				t.Errorf("Expected output %q, got %q", tt.expected, out)
			}
			if len(exec.scripts) != 1 {
				t.Fatalf("Expected 1 script execution, got %d", len(exec.scripts))
			}
			req := exec.scripts[0]
			if req.Interpreter != tt.expectedInterpreter {
				t.Errorf("Expected interpreter %q, got %q", tt.expectedInterpreter, req.Interpreter)
			}
			if req.Body != tt.expectedBody {
				t.Errorf("Expected body %q, got %q", tt.expectedBody, req.Body)
			}
			if log.Runs()[0].ScriptPath != "/scratch/script" {
				t.Errorf("Expected script path recorded, got %q", log.Runs()[0].ScriptPath)
			}
		})
	}
}

func TestScanner_RunLocations(t *testing.T) {
	exec := newFakeExecutor()
	input := "line one !{a}\n  !(sh){b}\n!{c}"

	_, log, err := scan(t, exec, input)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var got []source.Position
	for _, run := range log.Runs() {
		got = append(got, run.Location)
	}
	expected := []source.Position{
		{Offset: 10, Line: 1, Column: 10},
		{Offset: 17, Line: 2, Column: 3},
		{Offset: 26, Line: 3, Column: 1},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Run locations mismatch (-want +got):\n%s", diff)
	}

	if exec.shell[0].Location != expected[0] || exec.scripts[0].Location != expected[1] {
		t.Error("Expected executor requests to carry directive start locations")
	}
}

func TestScanner_RecordsOutcome(t *testing.T) {
	exec := newFakeExecutor()
	exec.results["bad"] = executor.ExecutionResult{Stdout: "partial\n", Stderr: "boom\n", ExitCode: 3}
	exec.results["noisy"] = executor.ExecutionResult{Stdout: "ok", Stderr: "careful\n"}

	out, log, err := scan(t, exec, "!{bad} !{noisy} !{good}")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "partial ok <good>" {
		t.Errorf("Expected every directive substituted, got %q", out)
	}

	expected := []runlog.Run{
		{Command: "bad", ExitCode: 3, Stdout: "partial\n", Stderr: "boom\n", Location: source.Position{Offset: 1, Line: 1, Column: 1}},
		{Command: "noisy", Stdout: "ok", Stderr: "careful\n", Location: source.Position{Offset: 8, Line: 1, Column: 8}},
		{Command: "good", Stdout: "<good>\n", Location: source.Position{Offset: 17, Line: 1, Column: 17}},
	}
	if diff := cmp.Diff(expected, log.Runs(), cmpopts.IgnoreFields(runlog.Run{}, "Duration")); diff != "" {
		t.Errorf("Runs mismatch (-want +got):\n%s", diff)
	}
	if !log.Failed() {
		t.Error("Expected log to report failure")
	}
}

func TestScanner_ParseErrors(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		expectedOutput string
		expectedLine   int
		expectedColumn int
		msgContains    string
	}{
		{
			name:           "unterminated shell body",
			input:          "before\n!{ echo hi",
			expectedOutput: "before\n",
			expectedLine:   2,
			expectedColumn: 10,
			msgContains:    "unexpected end of file",
		},
		{
			name:           "unbalanced nested brace",
			input:          "!{ { }",
			expectedOutput: "",
			expectedLine:   1,
			expectedColumn: 6,
			msgContains:    "unexpected end of file",
		},
		{
			name:           "trailing prefix",
			input:          "text!",
			expectedOutput: "text",
			expectedLine:   1,
			expectedColumn: 5,
			msgContains:    "unexpected end of file",
		},
		{
			name:           "space in executable name",
			input:          "ok\n!(py thon){x}",
			expectedOutput: "ok\n",
			expectedLine:   2,
			expectedColumn: 5,
			msgContains:    "unexpected space in executable name",
		},
		{
			name:           "newline in executable name",
			input:          "!(py\n){x}",
			expectedLine:   2,
			expectedColumn: 0,
			msgContains:    "unexpected space in executable name",
		},
		{
			name:           "missing script open",
			input:          "!(python3) x",
			expectedLine:   1,
			expectedColumn: 12,
			msgContains:    "expected '{' after executable name",
		},
		{
			name:           "end of file after executable name",
			input:          "!(python3)  ",
			expectedLine:   1,
			expectedColumn: 12,
			msgContains:    "unexpected end of file",
		},
		{
			name:           "unterminated executable name",
			input:          "!(python3",
			expectedLine:   1,
			expectedColumn: 9,
			msgContains:    "unexpected end of file",
		},
		{
			name:           "unterminated script body",
			input:          "!(sh){ echo",
			expectedLine:   1,
			expectedColumn: 11,
			msgContains:    "unexpected end of file",
		},
		{
			name:           "empty executable name",
			input:          "!(){x}",
			expectedLine:   1,
			expectedColumn: 3,
			msgContains:    "empty executable name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor()
			out, log, err := scan(t, exec, tt.input)

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected ParseError, got %v", err)
			}
			if parseErr.Pos.Line != tt.expectedLine || parseErr.Pos.Column != tt.expectedColumn {
				t.Errorf("Expected error at %d:%d, got %s", tt.expectedLine, tt.expectedColumn, parseErr.Pos)
			}
			if !strings.Contains(parseErr.Msg, tt.msgContains) {
				t.Errorf("Expected message containing %q, got %q", tt.msgContains, parseErr.Msg)
			}
			if !strings.HasPrefix(err.Error(), "doc.txt:") {
				t.Errorf("Expected error prefixed with document name, got %q", err.Error())
			}
			if out != tt.expectedOutput {
				t.Errorf("Expected partial output %q, got %q", tt.expectedOutput, out)
			}
			if log.Len() != 0 {
				t.Errorf("Expected no runs, got %d", log.Len())
			}
		})
	}
}

func TestScanner_ParseErrorAfterExecution(t *testing.T) {
	exec := newFakeExecutor()
	out, log, err := scan(t, exec, "!{first} then !{second")

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if out != "<first> then " {
		t.Errorf("Expected output up to the broken directive, got %q", out)
	}
	if log.Len() != 1 {
		t.Errorf("Expected the first directive to be recorded, got %d runs", log.Len())
	}
}

func TestScanner_ExecutorError(t *testing.T) {
	exec := newFakeExecutor()
	exec.err = errors.New("scratch unavailable")

	out, _, err := scan(t, exec, "head !(sh){x} tail")
	if err == nil || !strings.Contains(err.Error(), "scratch unavailable") {
		t.Fatalf("Expected executor error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "doc.txt:1:6") {
		t.Errorf("Expected error located at the directive, got %q", err.Error())
	}
	if out != "head " {
		t.Errorf("Expected output flushed up to the directive, got %q", out)
	}
}

func TestScanner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := newFakeExecutor()
	var out bytes.Buffer
	err := New("doc.txt", DefaultDelimiters(), exec, runlog.New()).Scan(ctx, strings.NewReader("a !{b}"), &out)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(exec.shell) != 0 {
		t.Error("Expected no execution after cancellation")
	}
}

// flushRecorder records what the output had received at each execution.
type flushRecorder struct {
	out      *bytes.Buffer
	snapshot []string
	fakeExecutor
}

func (f *flushRecorder) RunShell(ctx context.Context, req executor.ShellRequest) (executor.ExecutionResult, error) {
	f.snapshot = append(f.snapshot, f.out.String())
	return f.fakeExecutor.RunShell(ctx, req)
}

func TestScanner_FlushesBeforeExecution(t *testing.T) {
	var out bytes.Buffer
	rec := &flushRecorder{out: &out, fakeExecutor: *newFakeExecutor()}

	err := New("doc.txt", DefaultDelimiters(), rec, runlog.New()).
		Scan(context.Background(), strings.NewReader("first !{a} second !{b}"), &out)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{"first ", "first <a> second "}
	if diff := cmp.Diff(expected, rec.snapshot); diff != "" {
		t.Errorf("Output at execution time mismatch (-want +got):\n%s", diff)
	}
}

func TestScanner_CustomDelimiters(t *testing.T) {
	delims := Delimiters{Prefix: '$', ScriptOpen: '[', ScriptClose: ']', ExeOpen: '<', ExeClose: '>'}
	exec := newFakeExecutor()
	log := runlog.New()
	var out bytes.Buffer

	input := "a $[ls [x]] b $<sh>[y] c !{z} $$"
	err := New("doc.txt", delims, exec, log).Scan(context.Background(), strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := "a <ls [x]> b [sh] c !{z} $"
	if out.String() != expected {
		t.Errorf("Expected %q, got %q", expected, out.String())
	}
}

func TestScanner_InvalidDelimiters(t *testing.T) {
	delims := DefaultDelimiters()
	delims.ScriptClose = delims.ScriptOpen

	err := New("doc.txt", delims, newFakeExecutor(), runlog.New()).
		Scan(context.Background(), strings.NewReader("x"), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "invalid delimiters") {
		t.Errorf("Expected invalid delimiters error, got %v", err)
	}
}

func TestScanner_StateAfterScan(t *testing.T) {
	exec := newFakeExecutor()
	s := New("doc.txt", DefaultDelimiters(), exec, runlog.New())
	if err := s.Scan(context.Background(), strings.NewReader("!{a}\nb"), &bytes.Buffer{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.State() != StateDefault {
		t.Errorf("Expected default state, got %s", s.State())
	}
	if s.Pos() != (source.Position{Offset: 6, Line: 2, Column: 1}) {
		t.Errorf("Unexpected final position %+v", s.Pos())
	}
}
