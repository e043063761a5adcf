// Package scan implements the directive scanner: a single-pass state
// machine that copies a document to an output stream, executing each
// directive it closes and substituting the directive's stdout in place.
package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/seqr-cli/txtx/internal/ctxlog"
	"github.com/seqr-cli/txtx/internal/executor"
	"github.com/seqr-cli/txtx/internal/runlog"
	"github.com/seqr-cli/txtx/internal/source"
)

// Scanner holds the state of one document scan. It is not reusable across
// documents and not safe for concurrent use.
type Scanner struct {
	document string
	delims   Delimiters
	exec     executor.Executor
	log      *runlog.Log

	in      *bufio.Reader
	out     *bufio.Writer
	tracker *source.Tracker

	// cur holds the bytes of the rune being processed, so invalid UTF-8 is
	// copied through unchanged.
	cur []byte

	state     State
	start     source.Position
	nameStart source.Position
	bodyStart source.Position
	nesting   int
	name      strings.Builder
	body      strings.Builder
}

// New returns a scanner for the named document. Runs are appended to log.
func New(document string, delims Delimiters, exec executor.Executor, log *runlog.Log) *Scanner {
	return &Scanner{
		document: document,
		delims:   delims,
		exec:     exec,
		log:      log,
		tracker:  source.NewTracker(),
		state:    StateDefault,
	}
}

// State returns the current control state.
func (s *Scanner) State() State {
	return s.state
}

// Pos returns the current position in the document.
func (s *Scanner) Pos() source.Position {
	return s.tracker.Pos()
}

// Scan reads the document from r and writes the substituted document to w.
// Output is written incrementally and flushed before every execution, so a
// failing scan leaves everything before the failing directive in w.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, w io.Writer) error {
	if err := s.delims.Validate(); err != nil {
		return fmt.Errorf("invalid delimiters: %w", err)
	}

	s.in = bufio.NewReader(r)
	s.out = bufio.NewWriter(w)

	err := s.run(ctx)
	if flushErr := s.out.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("failed to write output: %w", flushErr)
	}
	return err
}

func (s *Scanner) run(ctx context.Context) error {
	for {
		c, err := s.next()
		if errors.Is(err, io.EOF) {
			return s.finish()
		}
		if err != nil {
			return err
		}
		if err := s.step(ctx, c); err != nil {
			return err
		}
	}
}

// next consumes one rune and advances the position tracker.
func (s *Scanner) next() (rune, error) {
	c, size, err := s.in.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, &ReadError{Document: s.document, Pos: s.tracker.Pos(), OriginalError: err}
	}

	s.cur = s.cur[:0]
	if c == utf8.RuneError && size == 1 {
		if err := s.in.UnreadRune(); err != nil {
			return 0, &ReadError{Document: s.document, Pos: s.tracker.Pos(), OriginalError: err}
		}
		b, err := s.in.ReadByte()
		if err != nil {
			return 0, &ReadError{Document: s.document, Pos: s.tracker.Pos(), OriginalError: err}
		}
		s.cur = append(s.cur, b)
	} else {
		s.cur = utf8.AppendRune(s.cur, c)
	}

	s.tracker.Advance(c, size)
	return c, nil
}

func (s *Scanner) step(ctx context.Context, c rune) error {
	switch s.state {
	case StateDefault:
		return s.stepDefault(c)
	case StateFoundPrefix:
		return s.stepFoundPrefix(c)
	case StateInShellBody:
		return s.stepBody(ctx, c, s.runShell)
	case StateInExecutableName:
		return s.stepExecutableName(c)
	case StateInScriptBody:
		return s.stepBody(ctx, c, s.runScript)
	default:
		panic(fmt.Sprintf("scan: invalid state %d", s.state))
	}
}

func (s *Scanner) stepDefault(c rune) error {
	if c == s.delims.Prefix {
		s.start = s.tracker.Pos()
		s.state = StateFoundPrefix
		return nil
	}
	s.out.Write(s.cur)
	return nil
}

func (s *Scanner) stepFoundPrefix(c rune) error {
	switch c {
	case s.delims.ScriptOpen:
		s.openBody()
		s.state = StateInShellBody
	case s.delims.ExeOpen:
		s.nameStart = s.tracker.Pos()
		s.name.Reset()
		s.state = StateInExecutableName
	case s.delims.Prefix:
		// Escaped prefix
		s.out.WriteRune(s.delims.Prefix)
		s.state = StateDefault
	default:
		s.out.WriteRune(s.delims.Prefix)
		s.out.Write(s.cur)
		s.state = StateDefault
	}
	return nil
}

func (s *Scanner) stepExecutableName(c rune) error {
	switch {
	case c == s.delims.ExeClose:
		if s.name.Len() == 0 {
			return s.errorf("empty executable name")
		}
		return s.expectScriptOpen()
	case unicode.IsSpace(c):
		return s.errorf("unexpected space in executable name")
	default:
		s.name.Write(s.cur)
		return nil
	}
}

// expectScriptOpen skips whitespace after an executable name and requires
// the next rune to open the script body.
func (s *Scanner) expectScriptOpen() error {
	for {
		c, err := s.next()
		if errors.Is(err, io.EOF) {
			return s.errorf("unexpected end of file, expected '%c' after executable name", s.delims.ScriptOpen)
		}
		if err != nil {
			return err
		}
		if unicode.IsSpace(c) {
			continue
		}
		if c != s.delims.ScriptOpen {
			return s.errorf("expected '%c' after executable name, got '%c'", s.delims.ScriptOpen, c)
		}
		s.openBody()
		s.state = StateInScriptBody
		return nil
	}
}

// stepBody counts nested script delimiters and runs the body when the
// opening delimiter is matched.
func (s *Scanner) stepBody(ctx context.Context, c rune, run func(context.Context) error) error {
	switch c {
	case s.delims.ScriptOpen:
		s.nesting++
	case s.delims.ScriptClose:
		s.nesting--
		if s.nesting == 0 {
			s.state = StateDefault
			return run(ctx)
		}
	}
	s.body.Write(s.cur)
	return nil
}

func (s *Scanner) openBody() {
	s.bodyStart = s.tracker.Pos()
	s.nesting = 1
	s.body.Reset()
}

func (s *Scanner) runShell(ctx context.Context) error {
	if err := s.beforeExecute(ctx); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Debug("executing shell directive",
		"document", s.document, "location", s.start.String(), "body", s.body.String())

	result, err := s.exec.RunShell(ctx, executor.ShellRequest{
		Body:     s.body.String(),
		Location: s.start,
	})
	if err != nil {
		return fmt.Errorf("%s:%s: %w", s.document, s.start, err)
	}
	return s.substitute(ctx, result)
}

func (s *Scanner) runScript(ctx context.Context) error {
	if err := s.beforeExecute(ctx); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Debug("executing script directive",
		"document", s.document, "location", s.start.String(), "interpreter", s.name.String())

	result, err := s.exec.RunScript(ctx, executor.ScriptRequest{
		Interpreter: s.name.String(),
		Body:        s.body.String(),
		Location:    s.start,
	})
	if err != nil {
		return fmt.Errorf("%s:%s: %w", s.document, s.start, err)
	}
	return s.substitute(ctx, result)
}

// beforeExecute flushes pending output so child output that shares a
// terminal with ours stays in document order.
func (s *Scanner) beforeExecute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// substitute records the run and writes its stdout without trailing
// whitespace in place of the directive.
func (s *Scanner) substitute(ctx context.Context, result executor.ExecutionResult) error {
	s.log.Append(runlog.Run{
		Command:    result.Command,
		ExitCode:   result.ExitCode,
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
		Location:   s.start,
		ScriptPath: result.ScriptPath,
		Duration:   result.Duration,
	})

	ctxlog.FromContext(ctx).Debug("directive finished",
		"document", s.document, "location", s.start.String(),
		"exit_code", result.ExitCode, "duration", result.Duration)

	s.out.WriteString(strings.TrimRightFunc(result.Stdout, unicode.IsSpace))
	s.name.Reset()
	s.body.Reset()
	return nil
}

// finish checks that the document did not end inside a directive.
func (s *Scanner) finish() error {
	switch s.state {
	case StateDefault:
		return nil
	case StateFoundPrefix:
		return s.errorf("unexpected end of file after '%c'", s.delims.Prefix)
	default:
		return s.errorf("unexpected end of file, directive opened at %s is not closed", s.start)
	}
}

func (s *Scanner) errorf(format string, args ...any) error {
	return &ParseError{
		Document: s.document,
		Pos:      s.tracker.Pos(),
		State:    s.state,
		Msg:      fmt.Sprintf(format, args...),
	}
}
