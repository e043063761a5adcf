package config

import (
	"fmt"
	"slices"

	"github.com/seqr-cli/txtx/internal/scan"
)

// Config is the full txtx configuration. Zero-valued fields mean "not set"
// so values from several sources can be layered with Merge.
type Config struct {
	Prefix       string            `json:"prefix,omitempty" hcl:"prefix,optional"`
	ExeParens    string            `json:"exe_parens,omitempty" hcl:"exe_parens,optional"`
	ScriptParens string            `json:"script_parens,omitempty" hcl:"script_parens,optional"`
	Shell        []string          `json:"shell,omitempty" hcl:"shell,optional"`
	ScratchDir   string            `json:"scratch_dir,omitempty" hcl:"scratch_dir,optional"`
	Builtins     []string          `json:"builtins,omitempty" hcl:"builtins,optional"`
	Env          map[string]string `json:"env,omitempty" hcl:"env,optional"`
	LogLevel     string            `json:"log_level,omitempty" hcl:"log_level,optional"`
	LogFormat    string            `json:"log_format,omitempty" hcl:"log_format,optional"`
	LogFile      string            `json:"log_file,omitempty" hcl:"log_file,optional"`
	LogJournal   bool              `json:"log_journal,omitempty" hcl:"log_journal,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Prefix:       "!",
		ExeParens:    "()",
		ScriptParens: "{}",
		LogLevel:     "warn",
		LogFormat:    "text",
	}
}

// Merge copies every field that is set in other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Prefix != "" {
		c.Prefix = other.Prefix
	}
	if other.ExeParens != "" {
		c.ExeParens = other.ExeParens
	}
	if other.ScriptParens != "" {
		c.ScriptParens = other.ScriptParens
	}
	if len(other.Shell) > 0 {
		c.Shell = slices.Clone(other.Shell)
	}
	if other.ScratchDir != "" {
		c.ScratchDir = other.ScratchDir
	}
	if len(other.Builtins) > 0 {
		c.Builtins = slices.Clone(other.Builtins)
	}
	if len(other.Env) > 0 {
		if c.Env == nil {
			c.Env = make(map[string]string, len(other.Env))
		}
		for key, value := range other.Env {
			c.Env[key] = value
		}
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.LogJournal {
		c.LogJournal = true
	}
}

func (c *Config) Validate() error {
	validator := NewValidator()
	return validator.ValidateConfig(c)
}

// Delimiters converts the textual delimiter settings. Call Validate first;
// malformed settings return an error.
func (c *Config) Delimiters() (scan.Delimiters, error) {
	prefix := []rune(c.Prefix)
	exe := []rune(c.ExeParens)
	script := []rune(c.ScriptParens)

	if len(prefix) != 1 {
		return scan.Delimiters{}, fmt.Errorf("expected one character for prefix, got '%s'", c.Prefix)
	}
	if len(exe) != 2 {
		return scan.Delimiters{}, fmt.Errorf("expected two characters for exe_parens, got '%s'", c.ExeParens)
	}
	if len(script) != 2 {
		return scan.Delimiters{}, fmt.Errorf("expected two characters for script_parens, got '%s'", c.ScriptParens)
	}

	return scan.Delimiters{
		Prefix:      prefix[0],
		ScriptOpen:  script[0],
		ScriptClose: script[1],
		ExeOpen:     exe[0],
		ExeClose:    exe[1],
	}, nil
}

// EnvList renders Env as KEY=VALUE pairs in key order.
func (c *Config) EnvList() []string {
	keys := make([]string, 0, len(c.Env))
	for key := range c.Env {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, c.Env[key]))
	}
	return env
}
