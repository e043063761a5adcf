package cli

import "context"

// Interface defines the contract for CLI implementations
type Interface interface {
	// Parse parses command-line arguments and validates options
	Parse() error

	// ShouldShowHelp returns true if help should be displayed
	ShouldShowHelp() bool

	// ShowHelp displays the help message
	ShowHelp()

	// ShouldShowVersion returns true if version should be displayed
	ShouldShowVersion() bool

	// ShowVersion displays version information
	ShowVersion(version string)

	// ShouldRunInit returns true if init should be executed
	ShouldRunInit() bool

	// RunInit generates example configuration files
	RunInit() error

	// Run renders the template file with the parsed options. A document
	// whose directives failed yields an *ExitError.
	Run(ctx context.Context) error

	// GetOptions returns the parsed CLI options
	GetOptions() CLIOptions
}

var _ Interface = (*CLI)(nil)
