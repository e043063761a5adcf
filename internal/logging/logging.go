// Package logging builds the process logger. Records go to a text or JSON
// handler on the given writer and are fanned out to an optional log file and
// the systemd journal.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

type Options struct {
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string
	// Format is text or json. Empty means text.
	Format string
	// Writer receives the primary handler output, usually os.Stderr.
	Writer io.Writer
	// File, when set, is opened for appending and receives JSON records
	// at the same level.
	File string
	// Journal also sends records to the systemd journal.
	Journal bool
}

// Logger is a configured slog.Logger plus the resources it holds open.
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	return firstErr
}

// ParseLevel maps a configured level name onto a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("unknown log level '%s'", name)
	}
}

func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var primary slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		primary = slog.NewTextHandler(writer, handlerOpts)
	case "json":
		primary = slog.NewJSONHandler(writer, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format '%s'", opts.Format)
	}

	logger := &Logger{}
	handlers := []slog.Handler{primary}

	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", opts.File, err)
		}
		logger.closers = append(logger.closers, file)
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
	}

	if opts.Journal {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
			record.Add("error", err)
			_ = primary.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	if len(handlers) == 1 {
		logger.Logger = slog.New(primary)
	} else {
		logger.Logger = slog.New(slogmulti.Fanout(handlers...))
	}
	return logger, nil
}

// toJournalKey upper-cases a key and replaces everything outside [A-Z0-9]
// with '_', the field name form journald accepts.
func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}
