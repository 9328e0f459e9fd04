/*
PURPOSE:
  Defines the 'extract' subcommand.
  Harvests the benchmark output tree into the summary CSV and prints the
  temporal report.

REQUIREMENTS:
  User-specified:
  - Incremental by default; --full re-harvests everything.
  - The summary is copied into the dashboard directory when it exists.

  Implementation-discovered:
  - --details writes the merged run and instance level tables (full only).

ARCHITECTURE INTEGRATION:
  - Calls: internal/extract.Incremental() / Full(), internal/report.Render()
  - Uses: internal/config

ERROR HANDLING:
  - *harvest.NoDataError is wrapped with a hint to run the harness first.

USAGE:
  daily-bench extract
  daily-bench extract --full --details

RELATED FILES:
  - internal/extract/extract.go
  - internal/report/render.go
*/

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/daily-bench/internal/extract"
	"github.com/daryltucker/daily-bench/internal/harvest"
	"github.com/daryltucker/daily-bench/internal/report"
)

var (
	fullExtract    bool
	detailsExtract bool
	extractRoot    string
	extractOutput  string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract benchmark results into the summary CSV",
	Long: `Walks the benchmark output tree for stats.json files and writes one row per
statistic to the summary CSV. By default only runs missing from the summary
are harvested and appended; --full rebuilds the summary from every run.`,
	Example: `  # Append new runs only
  daily-bench extract

  # Rebuild everything and write run/instance level tables
  daily-bench extract --full --details`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := extractOptions()
		if detailsExtract && !fullExtract {
			return errors.New("--details requires --full")
		}

		var res *extract.Result
		var err error
		if fullExtract {
			res, err = extract.Full(cmd.Context(), opts)
		} else {
			res, err = extract.Incremental(cmd.Context(), opts)
		}
		if err != nil {
			var noData *harvest.NoDataError
			if errors.As(err, &noData) {
				return fmt.Errorf("%w (run 'daily-bench run' first)", err)
			}
			return err
		}

		out := cmd.OutOrStdout()
		data := report.Data{
			Summary:    res.Final,
			OutputPath: res.OutputPath,
			NewRuns:    -1,
		}
		if fullExtract {
			fmt.Fprintln(out, "Full extraction completed.")
			if res.Report != nil {
				data.Tables = res.Report.Tables()
			}
		} else {
			fmt.Fprintf(out, "Incremental extraction completed. Processed %d new runs.\n", len(res.NewRuns))
			data.NewRuns = len(res.NewRuns)
		}
		if err := report.Render(out, data, report.Options{NoColor: noColor(out), Recent: cfg.Report.RecentRuns}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Results extracted to %s\n", res.OutputPath)
		return nil
	},
}

func extractOptions() extract.Options {
	opts := extract.Options{
		Root:        cfg.ResultsRoot,
		OutputPath:  cfg.SummaryPath,
		KeepMetrics: cfg.KeepMetrics,
		DuckDBPath:  cfg.DuckDBPath,
		Details:     detailsExtract,
	}
	if extractRoot != "" {
		opts.Root = extractRoot
	}
	if extractOutput != "" {
		opts.OutputPath = extractOutput
	}
	if cfg.MirrorToDashboard {
		opts.DashboardDir = cfg.DashboardDir
	}
	return opts
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&fullExtract, "full", false, "Perform full extraction instead of incremental (slower but processes all runs)")
	extractCmd.Flags().BoolVar(&detailsExtract, "details", false, "Also write run_level.csv and instance_level.csv (requires --full)")
	extractCmd.Flags().StringVar(&extractRoot, "root", "", "Benchmark output runs directory")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Summary CSV path")
}
