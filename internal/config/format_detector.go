package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileFormat is the syntax of a configuration file
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatHCL                // .txtx.hcl
	FormatCUE                // txtx.cue
	FormatJSON               // txtx.json
)

// String returns the string representation of the file format
func (f FileFormat) String() string {
	switch f {
	case FormatHCL:
		return "hcl"
	case FormatCUE:
		return "cue"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// DetectFormat picks the configuration syntax from the file extension
func DetectFormat(filename string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		return FormatHCL, nil
	case ".cue":
		return FormatCUE, nil
	case ".json":
		return FormatJSON, nil
	default:
		return FormatUnknown, fmt.Errorf("unsupported config file extension for '%s' (expected .hcl, .cue or .json)", filename)
	}
}
