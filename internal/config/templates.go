package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TemplateGenerator handles creation of example configuration files
type TemplateGenerator struct {
	OutputDir string
	Out       io.Writer
}

// NewTemplateGenerator creates a new template generator
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{
		OutputDir: ".",
		Out:       os.Stdout,
	}
}

// GenerateAllTemplates creates example files for all supported configuration formats
func (tg *TemplateGenerator) GenerateAllTemplates() error {
	templates := []struct {
		filename string
		content  string
		desc     string
	}{
		{
			filename: DefaultConfigFile(),
			content:  tg.getHCLTemplate(),
			desc:     "HCL format - picked up automatically from the working directory",
		},
		{
			filename: "example.txtx.cue",
			content:  tg.getCUETemplate(),
			desc:     "CUE format - checked against the built-in schema, use with -c",
		},
		{
			filename: "example.txtx.json",
			content:  tg.getJSONTemplate(),
			desc:     "JSON format - use with -c",
		},
	}

	fmt.Fprintf(tg.Out, "Generating example configuration files...\n\n")

	for _, template := range templates {
		if err := tg.writeTemplate(template.filename, template.content, template.desc); err != nil {
			return fmt.Errorf("failed to create %s: %w", template.filename, err)
		}
	}

	fmt.Fprintf(tg.Out, "\n✨ Example files generated successfully!\n\n")
	fmt.Fprintf(tg.Out, "🚀 Usage: txtx [-c <config>] <template-file>\n")
	fmt.Fprintf(tg.Out, "   Example: txtx -c example.txtx.cue README.md.txtx\n")

	return nil
}

// writeTemplate writes a template file with conflict handling
func (tg *TemplateGenerator) writeTemplate(filename, content, description string) error {
	fullPath := filepath.Join(tg.OutputDir, filename)

	// Check if file already exists
	if _, err := os.Stat(fullPath); err == nil {
		fmt.Fprintf(tg.Out, "⚠️  %s already exists, skipping...\n", filename)
		return nil
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(tg.Out, "✅ Created %s\n   %s\n", filename, description)
	return nil
}

// getHCLTemplate returns the default configuration as HCL
func (tg *TemplateGenerator) getHCLTemplate() string {
	return `# txtx configuration
#
# Directive syntax with the delimiters below:
#   !{ shell command }          run with the shell, output replaces the directive
#   !(interpreter){ script }    write script to scratch_dir and run the interpreter on it
#   !!                          a literal "!"

prefix        = "!"
exe_parens    = "()"
script_parens = "{}"

# Argument vector used for shell directives; the body is appended.
shell = ["/bin/sh", "-c"]

# Interpreters served in-process instead of by an external program.
builtins = []

# Extra environment for every directive.
env = {}

log_level  = "warn"
log_format = "text"
`
}

// getCUETemplate returns the default configuration as CUE
func (tg *TemplateGenerator) getCUETemplate() string {
	return `// txtx configuration

prefix:        "!"
exe_parens:    "()"
script_parens: "{}"

shell: ["/bin/sh", "-c"]

// "starlark" runs !(starlark){...} directives in-process.
builtins: ["starlark"]

log_level:  "warn"
log_format: "text"
`
}

// getJSONTemplate returns the default configuration as JSON
func (tg *TemplateGenerator) getJSONTemplate() string {
	config := Default()
	config.Shell = []string{"/bin/sh", "-c"}

	jsonBytes, _ := json.MarshalIndent(config, "", "  ")
	return string(jsonBytes) + "\n"
}
