package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/daily-bench/internal/dashboard"
)

var (
	addrOverride      string
	serveDashboardDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard locally",
	Long: `Starts a local web server for the dashboard. / redirects to /dashboard/, the
results directory is served under /results/ and the DuckDB snapshot, when
configured, under /data/benchmark_summary.duckdb. Stop it with Ctrl+C.`,
	Example: `  daily-bench serve
  daily-bench serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := serveConfig()
		err := dashboard.Serve(cmd.Context(), sc, func(addr string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard URL: http://%s/dashboard/\nPress Ctrl+C to stop the server\n", addr)
		})
		var missing *dashboard.MissingFilesError
		switch {
		case errors.As(err, &missing):
			return fmt.Errorf("%w (run 'daily-bench dashboard install' to create them)", err)
		case errors.Is(err, dashboard.ErrPortInUse):
			return fmt.Errorf("%w; stop the other server or pass --addr", err)
		}
		return err
	},
}

func serveConfig() dashboard.Config {
	sc := dashboard.Config{
		Addr:         cfg.Serve.Addr,
		DashboardDir: cfg.DashboardDir,
		ResultsDir:   cfg.ResultsDir,
		SummaryPath:  cfg.SummaryPath,
		DBPath:       cfg.DuckDBPath,
	}
	if addrOverride != "" {
		sc.Addr = addrOverride
	}
	if serveDashboardDir != "" {
		sc.DashboardDir = serveDashboardDir
	}
	return sc
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&addrOverride, "addr", "", "Listen address (default from config, :8000)")
	serveCmd.Flags().StringVar(&serveDashboardDir, "dashboard-dir", "", "Directory holding index.html, style.css and script.js")
}
