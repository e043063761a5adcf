package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seqr-cli/txtx/internal/source"
)

// DefaultScratchDir returns the directory script bodies are written to when
// none is configured.
func DefaultScratchDir() string {
	return filepath.Join(os.TempDir(), "txtx")
}

// ScratchStore persists script bodies under Dir. Writes happen strictly
// sequentially, so no locking is done.
type ScratchStore struct {
	Dir string
}

func NewScratchStore(dir string) *ScratchStore {
	return &ScratchStore{Dir: dir}
}

// Path returns the file a script for interpreter at pos is written to.
// Directives in the same document never share a position, so they never
// share a path; rerunning the same document reuses the same paths.
func (s *ScratchStore) Path(interpreter string, pos source.Position) string {
	name := fmt.Sprintf("%s-%d-%d", sanitizeName(interpreter), pos.Line, pos.Column)
	return filepath.Join(s.Dir, name)
}

// Write stores content at path, creating the scratch directory if needed.
func (s *ScratchStore) Write(path string, content []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch directory '%s': %w", s.Dir, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func sanitizeName(interpreter string) string {
	base := filepath.Base(interpreter)
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' ||
			r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' ||
			r == '.' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, base)
}
