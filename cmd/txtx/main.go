package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/seqr-cli/txtx/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Create CLI with command-line arguments (excluding program name)
	cliApp := cli.NewCLI(args)

	// Parse only fails on bad arguments, exit code 2 as for flag errors
	if err := cliApp.Parse(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 2
	}

	if cliApp.ShouldShowHelp() {
		cliApp.ShowHelp()
		return 0
	}

	if cliApp.ShouldShowVersion() {
		cliApp.ShowVersion(version)
		return 0
	}

	if cliApp.ShouldRunInit() {
		if err := cliApp.RunInit(); err != nil {
			os.Stderr.WriteString("Error: " + err.Error() + "\n")
			return 1
		}
		return 0
	}

	// Interrupts cancel the context, which kills the running directive's
	// process group and stops the scan
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cliApp.Run(ctx); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	return 0
}
