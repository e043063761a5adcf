package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

var (
	knownBuiltins   = []string{"starlark"}
	knownLogLevels  = []string{"debug", "info", "warn", "error"}
	knownLogFormats = []string{"text", "json"}
	envNameRegex    = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Validator checks a fully merged configuration
type Validator struct {
	// ValidateScratchDir requires an existing scratch_dir to be a directory
	ValidateScratchDir bool
}

func NewValidator() *Validator {
	return &Validator{
		ValidateScratchDir: false,
	}
}

func NewStrictValidator() *Validator {
	return &Validator{
		ValidateScratchDir: true,
	}
}

func (v *Validator) ValidateConfig(config *Config) error {
	if config == nil {
		return ValidationError{Message: "configuration cannot be nil"}
	}

	var errors ValidationErrors

	if n := utf8.RuneCountInString(config.Prefix); n != 1 {
		errors = append(errors, ValidationError{Field: "prefix", Value: config.Prefix,
			Message: fmt.Sprintf("expected one character, got %d", n)})
	}
	if n := utf8.RuneCountInString(config.ExeParens); n != 2 {
		errors = append(errors, ValidationError{Field: "exe_parens", Value: config.ExeParens,
			Message: fmt.Sprintf("expected two characters, got %d", n)})
	}
	if n := utf8.RuneCountInString(config.ScriptParens); n != 2 {
		errors = append(errors, ValidationError{Field: "script_parens", Value: config.ScriptParens,
			Message: fmt.Sprintf("expected two characters, got %d", n)})
	}

	// Only cross-check delimiters once each one is well formed
	if len(errors) == 0 {
		delims, err := config.Delimiters()
		if err == nil {
			err = delims.Validate()
		}
		if err != nil {
			errors = append(errors, ValidationError{Field: "delimiters", Message: err.Error()})
		}
	}

	if err := v.validateShell(config.Shell); err != nil {
		errors = append(errors, ValidationError{Field: "shell", Value: config.Shell, Message: err.Error()})
	}

	if config.ScratchDir != "" {
		if err := v.validateScratchDir(config.ScratchDir); err != nil {
			errors = append(errors, ValidationError{Field: "scratch_dir", Value: config.ScratchDir, Message: err.Error()})
		}
	}

	for i, name := range config.Builtins {
		if !slices.Contains(knownBuiltins, name) {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("builtins[%d]", i), Value: name,
				Message: fmt.Sprintf("unknown builtin interpreter '%s' (known: %s)", name, strings.Join(knownBuiltins, ", "))})
		}
	}

	if err := v.validateEnv(config.Env); err != nil {
		errors = append(errors, ValidationError{Field: "env", Message: err.Error()})
	}

	if !slices.Contains(knownLogLevels, config.LogLevel) {
		errors = append(errors, ValidationError{Field: "log_level", Value: config.LogLevel,
			Message: fmt.Sprintf("must be one of %s", strings.Join(knownLogLevels, ", "))})
	}
	if !slices.Contains(knownLogFormats, config.LogFormat) {
		errors = append(errors, ValidationError{Field: "log_format", Value: config.LogFormat,
			Message: fmt.Sprintf("must be one of %s", strings.Join(knownLogFormats, ", "))})
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (v *Validator) validateShell(shell []string) error {
	if len(shell) > 0 && strings.TrimSpace(shell[0]) == "" {
		return fmt.Errorf("shell program cannot be empty or whitespace only")
	}
	return nil
}

func (v *Validator) validateScratchDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("scratch_dir cannot be empty or whitespace only")
	}

	if v.ValidateScratchDir {
		cleanPath := filepath.Clean(dir)
		info, err := os.Stat(cleanPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("cannot access scratch_dir '%s': %v", cleanPath, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("scratch_dir '%s' is not a directory", cleanPath)
		}
	}

	return nil
}

func (v *Validator) validateEnv(env map[string]string) error {
	for name := range env {
		if !envNameRegex.MatchString(name) {
			return fmt.Errorf("invalid environment variable name '%s': must start with letter or underscore, contain only alphanumeric characters and underscores", name)
		}
	}
	return nil
}
