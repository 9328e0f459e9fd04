/*
PURPOSE:
  Entry point for the daily-bench application.
  Initializes the CLI root command and executes it.

REQUIREMENTS:
  User-specified:
  - Must serve as the single binary entry point.
  - 'run' exits with the harness exit status; an interrupt exits 130.

  Implementation-discovered:
  - Uses cobra for CLI command management.
  - SIGINT/SIGTERM cancel the command context so the harness and the
    dashboard server can stop cleanly.

ARCHITECTURE INTEGRATION:
  - Calls: internal/cli.Execute()
  - Depends on: internal/cli, internal/engine (ExitError)

ERROR HANDLING:
  - *engine.ExitError: exit with its code.
  - Any other error: "Error: ..." on stderr, exit code 1.

IMPLEMENTATION RULES:
  - Critical: Keep main() minimal. All logic belongs in internal/ packages.

USAGE:
  go build -o daily-bench ./cmd/daily-bench
  ./daily-bench [command] [flags]

RELATED FILES:
  - internal/cli/root.go - The actual root command definition.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daryltucker/daily-bench/internal/cli"
	"github.com/daryltucker/daily-bench/internal/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err == nil {
		return
	}

	var exitErr *engine.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == engine.InterruptExitCode {
			fmt.Fprintln(os.Stderr, "\nInterrupted by user")
		}
		os.Exit(exitErr.Code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
