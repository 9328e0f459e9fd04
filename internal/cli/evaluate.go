package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/daryltucker/daily-bench/internal/engine"
)

var (
	providerFlag string
	modelFlag    string
	tasksFlag    []string
	shotsFlag    int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one model and record its scores",
	Long: `Runs the configured evaluator command for one provider/model pair, writes a
raw JSON snapshot to the raw results directory and appends a row to the
metrics log.`,
	Example: `  daily-bench evaluate --provider-interface hf --model gpt2
  daily-bench evaluate --provider-interface openai --model gpt-4o-mini --tasks arc_easy`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("tasks") {
			cfg.Harness.Tasks = tasksFlag
		}
		if cmd.Flags().Changed("shots") {
			cfg.Harness.Shots = shotsFlag
		}

		e, err := engine.Run(cmd.Context(), cfg, providerFlag, modelFlag)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s) avg=%.4f std=%.4f\n", e.Model, e.Provider, e.Avg, e.Std)
		for _, task := range slices.Sorted(maps.Keys(e.Scores)) {
			fmt.Fprintf(out, "  %s: %.4f\n", task, e.Scores[task])
		}
		fmt.Fprintf(out, "Recorded to %s\n", cfg.MetricsFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&providerFlag, "provider-interface", "", "Provider interface passed to the evaluator (e.g. hf, openai)")
	evaluateCmd.Flags().StringVar(&modelFlag, "model", "", "Model name")
	evaluateCmd.Flags().StringSliceVar(&tasksFlag, "tasks", nil, "Comma-separated tasks (overrides config)")
	evaluateCmd.Flags().IntVar(&shotsFlag, "shots", 0, "Few-shot examples per task (overrides config)")
	_ = evaluateCmd.MarkFlagRequired("provider-interface")
	_ = evaluateCmd.MarkFlagRequired("model")
}
