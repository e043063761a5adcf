package scan

import (
	"fmt"
	"unicode"
)

// Delimiters are the characters that introduce and bound directives.
type Delimiters struct {
	Prefix      rune
	ScriptOpen  rune
	ScriptClose rune
	ExeOpen     rune
	ExeClose    rune
}

// DefaultDelimiters returns the "!", "{}", "()" delimiter set.
func DefaultDelimiters() Delimiters {
	return Delimiters{
		Prefix:      '!',
		ScriptOpen:  '{',
		ScriptClose: '}',
		ExeOpen:     '(',
		ExeClose:    ')',
	}
}

// Validate rejects delimiter sets that would make a directive form
// unreachable or a body impossible to close.
func (d Delimiters) Validate() error {
	named := []struct {
		name string
		r    rune
	}{
		{"prefix", d.Prefix},
		{"script open", d.ScriptOpen},
		{"script close", d.ScriptClose},
		{"executable open", d.ExeOpen},
		{"executable close", d.ExeClose},
	}

	for i, a := range named {
		if a.r == 0 {
			return fmt.Errorf("%s delimiter is not set", a.name)
		}
		if unicode.IsSpace(a.r) {
			return fmt.Errorf("%s delimiter cannot be whitespace", a.name)
		}
		for _, b := range named[i+1:] {
			if a.r == b.r {
				return fmt.Errorf("%s and %s delimiters are both '%c'", a.name, b.name, a.r)
			}
		}
	}
	return nil
}
