/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes the external HELM benchmark harness script.

REQUIREMENTS:
  User-specified:
  - Invoke the shell-scripted benchmark and exit with its status.
  - An interrupted run exits 130.

  Implementation-discovered:
  - Flags override the harness directory and script from config.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.RunHarness()
  - Uses: internal/config

ERROR HANDLING:
  - *engine.ExitError is returned unchanged; main maps it to the exit code.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> RunHarness.

USAGE:
  daily-bench run --harness-dir ./helm_lite

RELATED FILES:
  - internal/engine/harness.go
  - scripts/run_bench.sh
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/daily-bench/internal/engine"
)

var (
	harnessDirOverride string
	scriptOverride     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the HELM benchmark harness",
	Long: `Runs the configured benchmark script with bash, from the harness directory.
The script's output is streamed through and its exit status becomes the exit
status of daily-bench. Results land under the harness output directory; run
'daily-bench extract' afterwards to fold them into the summary.`,
	Example: `  # Run with defaults (uses daily_bench.yaml)
  daily-bench run

  # Run a different script
  daily-bench run --harness-dir ./helm_lite --script run_bench.sh`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := cfg.Harness
		if harnessDirOverride != "" {
			h.Dir = harnessDirOverride
		}
		if scriptOverride != "" {
			h.Script = scriptOverride
		}
		return engine.RunHarness(cmd.Context(), h, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&harnessDirOverride, "harness-dir", "", "Working directory of the benchmark harness")
	runCmd.Flags().StringVar(&scriptOverride, "script", "", "Harness script, relative to the harness directory")
}
