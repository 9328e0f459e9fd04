/*
PURPOSE:
  Defines the 'list-runs' subcommand.
  Helps check what an incremental extraction would pick up.

REQUIREMENTS:
  User-specified:
  - List runs on disk and whether the summary already holds them.

ARCHITECTURE INTEGRATION:
  - Calls: internal/harvest.DiscoverRuns(), internal/extract.ExistingRunIDs()

ERROR HANDLING:
  - A missing results root lists nothing; a missing summary means every
    run is new.

USAGE:
  daily-bench list-runs --new
*/

package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/daryltucker/daily-bench/internal/extract"
	"github.com/daryltucker/daily-bench/internal/harvest"
)

var (
	newOnly      bool
	listRunsRoot string
)

var listRunsCmd = &cobra.Command{
	Use:   "list-runs",
	Short: "List benchmark runs on disk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cfg.ResultsRoot
		if listRunsRoot != "" {
			root = listRunsRoot
		}
		runs, err := harvest.DiscoverRuns(root)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", root, err)
		}
		known := extract.ExistingRunIDs(cfg.SummaryPath)

		out := cmd.OutOrStdout()
		t := ltable.New().Headers("RUN", "TIMESTAMP", "STATS FILES", "STATUS")
		if !noColor(out) {
			t = t.Border(lipgloss.RoundedBorder())
		} else {
			t = t.Border(lipgloss.HiddenBorder())
		}
		shown, pending := 0, 0
		for _, r := range runs {
			_, extracted := known[r.ID]
			if !extracted {
				pending++
			}
			if newOnly && extracted {
				continue
			}
			ts := "-"
			if when, ok := extract.ParseRunTimestamp(r.ID); ok {
				ts = when.Format(extract.TimestampLayout)
			}
			status := "new"
			if extracted {
				status = "extracted"
			}
			t = t.Row(r.ID, ts, strconv.Itoa(len(r.StatsFiles)), status)
			shown++
		}
		if shown > 0 {
			fmt.Fprintln(out, t.Render())
		}
		fmt.Fprintf(out, "%d runs found, %d not yet extracted\n", len(runs), pending)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listRunsCmd)

	listRunsCmd.Flags().BoolVar(&newOnly, "new", false, "Only list runs missing from the summary")
	listRunsCmd.Flags().StringVar(&listRunsRoot, "root", "", "Benchmark output runs directory")
}
