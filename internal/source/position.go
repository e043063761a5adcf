// Package source tracks where the scanner is inside a document.
package source

import "fmt"

// Position is a location inside a document.
//
// Offset is the byte offset of the next unread byte. Line is 1-based.
// Column counts runes on the current line and is 0 right after a newline,
// so a Position taken just after consuming a rune names that rune's 1-based
// column.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Start returns the position before any input has been consumed.
func Start() Position {
	return Position{Line: 1}
}

// String renders the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Tracker advances a Position as runes are consumed.
type Tracker struct {
	pos Position
}

// NewTracker returns a tracker positioned at the start of a document.
func NewTracker() *Tracker {
	return &Tracker{pos: Start()}
}

// Advance records that r, encoded in size bytes, has been consumed.
func (t *Tracker) Advance(r rune, size int) {
	t.pos.Offset += size
	t.pos.Column++
	if r == '\n' {
		t.pos.Line++
		t.pos.Column = 0
	}
}

// Pos returns a snapshot of the current position.
func (t *Tracker) Pos() Position {
	return t.pos
}
