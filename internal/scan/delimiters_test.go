package scan

import (
	"strings"
	"testing"
)

func TestDelimiters_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Delimiters)
		errContains string
	}{
		{"defaults are valid", func(*Delimiters) {}, ""},
		{"unset prefix", func(d *Delimiters) { d.Prefix = 0 }, "prefix delimiter is not set"},
		{"whitespace prefix", func(d *Delimiters) { d.Prefix = ' ' }, "cannot be whitespace"},
		{"same script delimiters", func(d *Delimiters) { d.ScriptClose = '{' }, "both '{'"},
		{"prefix equals exe open", func(d *Delimiters) { d.ExeOpen = '!' }, "both '!'"},
		{"exe and script overlap", func(d *Delimiters) { d.ExeOpen = '{' }, "both '{'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DefaultDelimiters()
			tt.modify(&d)
			err := d.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Expected error containing %q, got %v", tt.errContains, err)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateDefault, "default"},
		{StateFoundPrefix, "found-prefix"},
		{StateInShellBody, "in-shell-body"},
		{StateInExecutableName, "in-executable-name"},
		{StateInScriptBody, "in-script-body"},
		{State(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("State.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}
