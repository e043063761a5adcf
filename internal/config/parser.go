package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// cueSchema closes the set of fields a CUE config may declare.
const cueSchema = `
	prefix?:        string
	exe_parens?:    string
	script_parens?: string
	shell?: [...string]
	scratch_dir?: string
	builtins?: [...string]
	env?: [string]: string
	log_level?:   "debug" | "info" | "warn" | "error"
	log_format?:  "text" | "json"
	log_file?:    string
	log_journal?: bool
`

// LoadFromFile loads and parses a configuration file. The result holds only
// the fields the file sets; merge it onto Default.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("config filename cannot be empty")
	}

	cleanPath := filepath.Clean(filename)

	format, err := DetectFormat(cleanPath)
	if err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file '%s' does not exist", cleanPath)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading config file '%s'", cleanPath)
		}
		return nil, fmt.Errorf("failed to access config file '%s': %w", cleanPath, err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("'%s' is a directory, not a file", cleanPath)
	}

	const maxFileSize = 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file '%s' is too large (%d bytes), maximum allowed is %d bytes",
			cleanPath, fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", cleanPath, err)
	}

	config, err := Parse(data, format, cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", cleanPath, err)
	}

	return config, nil
}

// Parse decodes data in the given format. filename is only used in
// diagnostics.
func Parse(data []byte, format FileFormat, filename string) (*Config, error) {
	switch format {
	case FormatHCL:
		return ParseHCL(data, filename)
	case FormatCUE:
		return ParseCUE(data, filename)
	case FormatJSON:
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}
}

// ParseHCL parses HCL attributes into a Config
func ParseHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL syntax error: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL decode error: %s", diags.Error())
	}

	return &config, nil
}

// ParseCUE compiles a CUE file, checks it against the closed schema and
// decodes it into a Config
func ParseCUE(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString("close({" + cueSchema + "})")
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("invalid built-in CUE schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("CUE syntax error: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE validation error: %w", err)
	}

	var config Config
	if err := unified.Decode(&config); err != nil {
		return nil, fmt.Errorf("CUE decode error: %w", err)
	}

	return &config, nil
}

// ParseJSON parses JSON data into a Config struct
func ParseJSON(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data is empty")
	}

	var config Config

	if err := json.Unmarshal(data, &config); err != nil {
		switch err := err.(type) {
		case *json.SyntaxError:
			return nil, fmt.Errorf("JSON syntax error at byte offset %d: %w", err.Offset, err)
		case *json.UnmarshalTypeError:
			return nil, fmt.Errorf("JSON type error: cannot unmarshal %s into field '%s' of type %s",
				err.Value, err.Field, err.Type)
		default:
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	}

	return &config, nil
}

// Load resolves the effective configuration: defaults, then the config file.
// When explicit is false a missing file is not an error.
func Load(filename string, explicit bool) (*Config, error) {
	config := Default()

	if !explicit {
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			return config, nil
		}
	}

	fileConfig, err := LoadFromFile(filename)
	if err != nil {
		return nil, err
	}
	config.Merge(fileConfig)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func DefaultConfigFile() string {
	return ".txtx.hcl"
}

func FileExists(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	cleanPath := filepath.Clean(filename)

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file '%s' does not exist", cleanPath)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied accessing file '%s'", cleanPath)
		}
		return fmt.Errorf("cannot access file '%s': %w", cleanPath, err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", cleanPath)
	}

	return nil
}
