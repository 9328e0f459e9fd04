package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/daily-bench/internal/dashboard"
	"github.com/daryltucker/daily-bench/internal/output"
)

var (
	forceInstall        bool
	installDashboardDir string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Manage the static dashboard files",
}

var dashboardInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Write the bundled dashboard into the dashboard directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.DashboardDir
		if installDashboardDir != "" {
			dir = installDashboardDir
		}
		output.Logger.Info("Installing dashboard", "target", dir)

		written, err := dashboard.Install(dir, forceInstall)
		if err != nil {
			return err
		}
		for _, path := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
		output.Logger.Info("Installation complete", "total_files", len(written))
		return nil
	},
}

func init() {
	dashboardCmd.AddCommand(dashboardInstallCmd)
	rootCmd.AddCommand(dashboardCmd)

	dashboardInstallCmd.Flags().BoolVarP(&forceInstall, "force", "f", false, "Overwrite existing dashboard files")
	dashboardInstallCmd.Flags().StringVar(&installDashboardDir, "dashboard-dir", "", "Target directory (default from config)")
}
