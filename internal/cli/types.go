package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/gookit/color"
	"golang.org/x/term"

	"github.com/seqr-cli/txtx/internal/config"
	"github.com/seqr-cli/txtx/internal/ctxlog"
	"github.com/seqr-cli/txtx/internal/diagnostics"
	"github.com/seqr-cli/txtx/internal/engine"
	"github.com/seqr-cli/txtx/internal/logging"
	"github.com/seqr-cli/txtx/internal/scan"
)

// Colour modes accepted by -color
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// CLIOptions holds all command-line configuration options
type CLIOptions struct {
	ConfigFile   string // Path to configuration file
	Prefix       string // Directive prefix override
	ExeParens    string // Executable-name delimiter pair override
	ScriptParens string // Body delimiter pair override
	Color        string // auto, always or never
	Verbose      bool   // Enable debug logging and the execution summary
	Help         bool   // Show help message
	Version      bool   // Show version information
	Init         bool   // Generate example configuration files
	TemplateFile string // Document to render
}

// CLI represents the command-line interface
type CLI struct {
	options  CLIOptions
	flagSet  *flag.FlagSet
	args     []string
	explicit map[string]bool
	stdout   io.Writer
	stderr   io.Writer
}

// NewCLI creates a new CLI instance writing to the process streams
func NewCLI(args []string) *CLI {
	return NewCLIWithOutput(args, os.Stdout, os.Stderr)
}

// NewCLIWithOutput creates a CLI that writes the rendered document to stdout
// and diagnostics to stderr.
func NewCLIWithOutput(args []string, stdout, stderr io.Writer) *CLI {
	flagSet := flag.NewFlagSet("txtx", flag.ContinueOnError)
	flagSet.SetOutput(stderr)

	cli := &CLI{
		options: CLIOptions{
			ConfigFile: config.DefaultConfigFile(),
			Color:      ColorAuto,
		},
		flagSet:  flagSet,
		args:     args,
		explicit: make(map[string]bool),
		stdout:   stdout,
		stderr:   stderr,
	}

	cli.setupFlags()
	return cli
}

// setupFlags configures all command-line flags
func (c *CLI) setupFlags() {
	c.flagSet.StringVar(&c.options.ConfigFile, "c", c.options.ConfigFile,
		"Path to configuration file (.hcl, .cue or .json)")
	c.flagSet.StringVar(&c.options.Prefix, "prefix", c.options.Prefix,
		"Character that starts a directive (default \"!\")")
	c.flagSet.StringVar(&c.options.ExeParens, "exe-parens", c.options.ExeParens,
		"Two characters enclosing the executable name (default \"()\")")
	c.flagSet.StringVar(&c.options.ScriptParens, "script-parens", c.options.ScriptParens,
		"Two characters enclosing the directive body (default \"{}\")")
	c.flagSet.StringVar(&c.options.Color, "color", c.options.Color,
		"Colour diagnostics: auto, always or never")
	c.flagSet.BoolVar(&c.options.Verbose, "v", c.options.Verbose,
		"Enable debug logging and print an execution summary")
	c.flagSet.BoolVar(&c.options.Verbose, "verbose", c.options.Verbose,
		"Enable debug logging and print an execution summary")
	c.flagSet.BoolVar(&c.options.Help, "h", c.options.Help,
		"Show help message")
	c.flagSet.BoolVar(&c.options.Help, "help", c.options.Help,
		"Show help message")
	c.flagSet.BoolVar(&c.options.Version, "version", c.options.Version,
		"Show version information")
	c.flagSet.BoolVar(&c.options.Init, "init", c.options.Init,
		"Generate example configuration files")

	c.flagSet.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: txtx [options] <template-file>\n")
		fmt.Fprintf(c.stderr, "Run 'txtx -help' for details.\n")
	}
}

// Parse parses command-line arguments and validates options
func (c *CLI) Parse() error {
	if err := c.flagSet.Parse(c.args); err != nil {
		return &UsageError{Err: fmt.Errorf("failed to parse command-line arguments: %w", err)}
	}

	c.flagSet.Visit(func(f *flag.Flag) {
		c.explicit[f.Name] = true
	})

	if err := c.validateOptions(); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

// validateOptions validates the parsed command-line options
func (c *CLI) validateOptions() error {
	if !slices.Contains([]string{ColorAuto, ColorAlways, ColorNever}, c.options.Color) {
		return fmt.Errorf("invalid -color value '%s' (expected auto, always or never)", c.options.Color)
	}

	for name, value := range map[string]string{
		"prefix":        c.options.Prefix,
		"exe-parens":    c.options.ExeParens,
		"script-parens": c.options.ScriptParens,
	} {
		if c.explicit[name] && value == "" {
			return fmt.Errorf("-%s cannot be empty", name)
		}
	}

	// No template needed for help, version or init
	if c.options.Help || c.options.Version || c.options.Init {
		return nil
	}

	switch c.flagSet.NArg() {
	case 0:
		return fmt.Errorf("missing template file")
	case 1:
		c.options.TemplateFile = c.flagSet.Arg(0)
	default:
		return fmt.Errorf("expected one template file, got %d arguments", c.flagSet.NArg())
	}

	// Delimiter values are checked once merged with the config file, in Run
	return nil
}

// GetOptions returns the parsed CLI options
func (c *CLI) GetOptions() CLIOptions {
	return c.options
}

// ShouldShowHelp returns true if help should be displayed
func (c *CLI) ShouldShowHelp() bool {
	return c.options.Help
}

// ShouldShowVersion returns true if version should be displayed
func (c *CLI) ShouldShowVersion() bool {
	return c.options.Version
}

// ShouldRunInit returns true if init should be executed
func (c *CLI) ShouldRunInit() bool {
	return c.options.Init
}

// ShowVersion displays version information
func (c *CLI) ShowVersion(version string) {
	fmt.Fprintf(c.stdout, "txtx version %s\n", version)
}

// ShowHelp displays the help message
func (c *CLI) ShowHelp() {
	fmt.Fprintf(c.stdout, "txtx - Executable Text Template Renderer\n\n")
	fmt.Fprintf(c.stdout, "DESCRIPTION:\n")
	fmt.Fprintf(c.stdout, "  Copy a text document to stdout, replacing every embedded directive\n")
	fmt.Fprintf(c.stdout, "  with the standard output of the command or script it contains.\n\n")
	fmt.Fprintf(c.stdout, "USAGE:\n")
	fmt.Fprintf(c.stdout, "  txtx [options] <template-file>\n\n")
	fmt.Fprintf(c.stdout, "OPTIONS:\n")
	c.flagSet.SetOutput(c.stdout)
	c.flagSet.PrintDefaults()
	c.flagSet.SetOutput(c.stderr)
	fmt.Fprintf(c.stdout, "\nDIRECTIVES:\n")
	fmt.Fprintf(c.stdout, "  !{ body }                 # Run body with the shell (/bin/sh -c)\n")
	fmt.Fprintf(c.stdout, "  !(interpreter){ body }    # Save body to a scratch file, run interpreter on it\n")
	fmt.Fprintf(c.stdout, "  !!                        # A literal '!'\n")
	fmt.Fprintf(c.stdout, "  Trailing whitespace is trimmed from each directive's output.\n")
	fmt.Fprintf(c.stdout, "  Balanced delimiters may appear inside a body.\n\n")
	fmt.Fprintf(c.stdout, "EXAMPLES:\n")
	fmt.Fprintf(c.stdout, "  txtx README.md.txtx > README.md     # Render with .txtx.hcl or defaults\n")
	fmt.Fprintf(c.stdout, "  txtx -c txtx.cue page.txtx          # Use a CUE configuration\n")
	fmt.Fprintf(c.stdout, "  txtx -prefix @ page.txtx            # Directives start with '@'\n")
	fmt.Fprintf(c.stdout, "  txtx -v page.txtx                   # Debug logging and execution summary\n")
	fmt.Fprintf(c.stdout, "  txtx --init                         # Generate example configuration files\n\n")
	fmt.Fprintf(c.stdout, "CONFIGURATION:\n")
	fmt.Fprintf(c.stdout, "  Read from .txtx.hcl in the working directory when present, or from -c.\n")
	fmt.Fprintf(c.stdout, "  Command-line options override values from the file.\n\n")
	fmt.Fprintf(c.stdout, "EXIT CODES:\n")
	fmt.Fprintf(c.stdout, "  0 - Every directive exited with status 0\n")
	fmt.Fprintf(c.stdout, "  1 - A directive failed, the template is malformed or configuration error\n")
	fmt.Fprintf(c.stdout, "  2 - Invalid command-line arguments\n")
}

// Run renders the template and reports diagnostics
func (c *CLI) Run(ctx context.Context) error {
	if c.ShouldShowHelp() {
		c.ShowHelp()
		return nil
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Writer:  c.stderr,
		File:    cfg.LogFile,
		Journal: cfg.LogJournal,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logger.Close()
	ctx = ctxlog.WithLogger(ctx, logger.Logger)

	eng, err := engine.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	reporter := diagnostics.NewReporter(c.stderr, c.options.TemplateFile, c.useColor(), c.options.Verbose)

	runs, err := eng.RenderFile(ctx, c.options.TemplateFile, c.stdout)
	if runs != nil {
		summary := reporter.Report(runs)
		if err == nil && summary.Failed() {
			return &ExitError{Code: 1}
		}
	}
	if err != nil {
		var parseErr *scan.ParseError
		if errors.As(err, &parseErr) {
			reporter.ReportError(err)
			return &ExitError{Code: 1}
		}
		return err
	}

	return nil
}

// loadConfig layers defaults, the config file and command-line overrides
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.options.ConfigFile, c.explicit["c"])
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	overrides := &config.Config{}
	if c.explicit["prefix"] {
		overrides.Prefix = c.options.Prefix
	}
	if c.explicit["exe-parens"] {
		overrides.ExeParens = c.options.ExeParens
	}
	if c.explicit["script-parens"] {
		overrides.ScriptParens = c.options.ScriptParens
	}
	if c.options.Verbose {
		overrides.LogLevel = "debug"
	}
	cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// useColor resolves the -color mode against the diagnostics stream
func (c *CLI) useColor() bool {
	switch c.options.Color {
	case ColorAlways:
		color.ForceColor()
		return true
	case ColorNever:
		return false
	}

	file, ok := c.stderr.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// RunInit generates example configuration files
func (c *CLI) RunInit() error {
	generator := config.NewTemplateGenerator()
	generator.Out = c.stdout
	return generator.GenerateAllTemplates()
}
