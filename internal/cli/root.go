/*
PURPOSE:
  Defines the root Cobra command for the daily-bench CLI.
  Handles global flags, configuration loading and logger setup.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface with one subcommand per pipeline stage.
  - Support a global --config flag.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Configuration is loaded once in PersistentPreRunE so every subcommand
    sees the same file, .env and environment overrides.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/daily-bench/main.go
  - Calls: Child commands (run, extract, evaluate, report, list-runs, serve, dashboard)
  - Uses: internal/config, internal/output

ERROR HANDLING:
  - Returns error to main.go for exit code handling.
  - Usage and error printing are silenced; main prints "Error: ...".

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands.

USAGE:
  Called by main.go.

RELATED FILES:
  - cmd/daily-bench/main.go
*/

package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/daryltucker/daily-bench/internal/config"
	"github.com/daryltucker/daily-bench/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	// logLevel overrides log_level from the config when set
	logLevel string

	// cfg is the configuration loaded for the running command
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "daily-bench",
		Short: "Daily benchmarking for LLMs",
		Long: `Runs a HELM benchmark harness on a schedule, harvests its JSON output into a
tidy CSV summary and reports how models perform over time.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}
)

// Execute executes the root command. Cancelling ctx interrupts long running
// subcommands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./daily_bench.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	output.Configure(cmd.ErrOrStderr(), loaded.LogLevel)
	cfg = loaded
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// noColor reports whether styled output should be disabled for w.
func noColor(w io.Writer) bool {
	return os.Getenv("NO_COLOR") != "" || !isTerminal(w)
}
