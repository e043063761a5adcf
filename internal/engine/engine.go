// Package engine renders txtx documents: it builds the executor and scanner
// from a configuration and runs one scan per document.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/seqr-cli/txtx/internal/config"
	"github.com/seqr-cli/txtx/internal/ctxlog"
	"github.com/seqr-cli/txtx/internal/executor"
	"github.com/seqr-cli/txtx/internal/runlog"
	"github.com/seqr-cli/txtx/internal/scan"
)

// Engine renders documents with a fixed configuration. It may be used for
// several documents, one at a time.
type Engine struct {
	delims scan.Delimiters
	exec   executor.Executor
}

// Option customizes an Engine.
type Option func(*Engine)

// WithExecutor replaces the local executor, mainly for tests.
func WithExecutor(exec executor.Executor) Option {
	return func(e *Engine) {
		e.exec = exec
	}
}

// New builds an engine from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	delims, err := cfg.Delimiters()
	if err != nil {
		return nil, err
	}
	if err := delims.Validate(); err != nil {
		return nil, fmt.Errorf("invalid delimiters: %w", err)
	}

	scratchDir := cfg.ScratchDir
	if scratchDir == "" {
		scratchDir = executor.DefaultScratchDir()
	}

	e := &Engine{
		delims: delims,
		exec: executor.NewLocal(executor.Options{
			Shell:    cfg.Shell,
			Scratch:  executor.NewScratchStore(scratchDir),
			Builtins: executor.Builtins(cfg.Builtins),
			Env:      cfg.EnvList(),
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Render scans r as the document called name and writes the result to w.
// The returned log holds every directive that ran, also when err is a
// parse error and w holds only part of the document.
func (e *Engine) Render(ctx context.Context, name string, r io.Reader, w io.Writer) (*runlog.Log, error) {
	log := runlog.New()
	scanner := scan.New(name, e.delims, e.exec, log)

	logger := ctxlog.FromContext(ctx)
	logger.Debug("rendering document", "document", name)

	if err := scanner.Scan(ctx, r, w); err != nil {
		logger.Debug("rendering stopped", "document", name, "error", err, "directives", log.Len())
		return log, err
	}

	logger.Debug("rendered document", "document", name, "directives", log.Len())
	return log, nil
}

// RenderFile renders the regular file at path.
func (e *Engine) RenderFile(ctx context.Context, path string, w io.Writer) (*runlog.Log, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template file '%s' does not exist", path)
		}
		return nil, fmt.Errorf("cannot access template file '%s': %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("'%s' is not a regular file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file '%s': %w", path, err)
	}
	defer file.Close()

	return e.Render(ctx, path, file, w)
}
