package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/daily-bench/internal/extract"
	"github.com/daryltucker/daily-bench/internal/report"
)

var (
	reportModel    string
	reportScenario string
	reportRecent   int
	reportByDay    bool
	reportSummary  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the temporal report for the existing summary",
	Long: `Reads the summary CSV without extracting anything and prints the temporal
analysis: model/scenario combinations, a time series for one combination,
the recent-runs comparison and, with --by-day, per-day aggregates.`,
	Example: `  daily-bench report
  daily-bench report --model openai/gpt2 --scenario mmlu --recent 5 --by-day`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.SummaryPath
		if reportSummary != "" {
			path = reportSummary
		}
		summary := extract.LoadSummary(path)
		if summary.Empty() {
			return fmt.Errorf("no summary data at %s (run 'daily-bench extract' first)", path)
		}

		recent := cfg.Report.RecentRuns
		if cmd.Flags().Changed("recent") {
			recent = reportRecent
		}
		out := cmd.OutOrStdout()
		return report.Render(out, report.Data{
			Summary:    summary,
			OutputPath: path,
			NewRuns:    -1,
			Model:      reportModel,
			Dataset:    reportScenario,
		}, report.Options{
			NoColor: noColor(out),
			Recent:  recent,
			ByDay:   reportByDay,
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportModel, "model", "", "Model to track (default: first combination)")
	reportCmd.Flags().StringVar(&reportScenario, "scenario", "", "Scenario class to track")
	reportCmd.Flags().IntVar(&reportRecent, "recent", 0, "Number of recent runs to compare (default from config)")
	reportCmd.Flags().BoolVar(&reportByDay, "by-day", false, "Add per-day performance summary")
	reportCmd.Flags().StringVarP(&reportSummary, "summary", "s", "", "Summary CSV path")
}
