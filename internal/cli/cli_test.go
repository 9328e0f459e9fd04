package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/daily-bench/internal/engine"
	"github.com/daryltucker/daily-bench/internal/output"
)

const statsJSON = `[
  {"name": {"name": "exact_match", "split": "test"}, "count": 10, "sum": 7, "mean": 0.7},
  {"name": {"name": "num_tokens", "split": "test"}, "count": 10, "mean": 12.5}
]`

const configYAML = `results_root: runs
summary_path: results/benchmark_summary.csv
dashboard_dir: dashboard
results_dir: results
raw_dir: results/raw
metrics_file: results/metrics.csv
log_level: error
harness:
  dir: harness
  script: bench.sh
  eval_command: ["sh", "-c", "printf '{\"results\": {\"arc\": {\"acc\": 0.5}, \"hs\": {\"acc\": 0.25}}}'"]
  tasks: [arc, hs]
  primary_metrics: [acc]
`

// workspace chdirs into a fresh directory holding a config file.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("daily_bench.yaml", []byte(configYAML), 0o644))
	prev := output.Logger
	t.Cleanup(func() { output.SetLogger(prev) })
	return dir
}

func writeRun(t *testing.T, suite string) {
	t.Helper()
	dir := filepath.Join("runs", suite, "mmlu:subject=anatomy")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stats.json"), []byte(statsJSON), 0o644))
	spec := `{"name": "mmlu:subject=anatomy", "scenario_spec": {"class_name": "helm.MMLUScenario"}, "adapter_spec": {"model": "openai/gpt2"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run_spec.json"), []byte(spec), 0o644))
}

func resetFlags() {
	cfgFile, logLevel = "", ""
	harnessDirOverride, scriptOverride = "", ""
	fullExtract, detailsExtract = false, false
	extractRoot, extractOutput = "", ""
	providerFlag, modelFlag, tasksFlag, shotsFlag = "", "", nil, 0
	reportModel, reportScenario, reportRecent, reportByDay = "", "", 0, false
	reportSummary = ""
	newOnly, listRunsRoot = false, ""
	addrOverride, serveDashboardDir = "", ""
	forceInstall, installDashboardDir = false, ""
	resetChanged(rootCmd)
}

// resetChanged clears flag state left over from earlier executions of the
// shared command tree.
func resetChanged(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	for _, sub := range c.Commands() {
		resetChanged(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := Execute(context.Background())
	return out.String(), err
}

func TestExtractFullThenIncremental(t *testing.T) {
	workspace(t)
	writeRun(t, "results-20250608_112220")

	out, err := execute(t, "extract", "--full")
	require.NoError(t, err)
	assert.Contains(t, out, "Full extraction completed.")
	assert.Contains(t, out, "TEMPORAL ANALYSIS")
	assert.Contains(t, out, "Results extracted to results/benchmark_summary.csv")
	assert.FileExists(t, filepath.Join("results", "benchmark_summary.csv"))

	out, err = execute(t, "extract")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 0 new runs.")
	assert.Contains(t, out, "No new runs found - all data is up to date")

	writeRun(t, "results-20250609_080000")
	out, err = execute(t, "extract")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 1 new runs.")
}

func TestExtractMirrorsIntoDashboard(t *testing.T) {
	workspace(t)
	writeRun(t, "results-20250608_112220")
	require.NoError(t, os.Mkdir("dashboard", 0o755))

	_, err := execute(t, "extract")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("dashboard", "benchmark_summary.csv"))
}

func TestExtractNoData(t *testing.T) {
	workspace(t)

	_, err := execute(t, "extract", "--full")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily-bench run")
}

func TestExtractDetailsNeedsFull(t *testing.T) {
	workspace(t)

	_, err := execute(t, "extract", "--details")
	assert.EqualError(t, err, "--details requires --full")
}

func TestListRuns(t *testing.T) {
	workspace(t)
	writeRun(t, "results-20250608_112220")
	_, err := execute(t, "extract")
	require.NoError(t, err)
	writeRun(t, "results-20250609_080000")

	out, err := execute(t, "list-runs")
	require.NoError(t, err)
	assert.Contains(t, out, "results-20250608_112220")
	assert.Contains(t, out, "2025-06-09 08:00:00")
	assert.Contains(t, out, "extracted")
	assert.Contains(t, out, "2 runs found, 1 not yet extracted")

	out, err = execute(t, "list-runs", "--new")
	require.NoError(t, err)
	assert.NotContains(t, out, "results-20250608_112220")
	assert.Contains(t, out, "results-20250609_080000")
}

func TestReport(t *testing.T) {
	workspace(t)

	_, err := execute(t, "report")
	require.ErrorContains(t, err, "daily-bench extract")

	writeRun(t, "results-20250608_112220")
	_, err = execute(t, "extract")
	require.NoError(t, err)

	out, err := execute(t, "report", "--by-day")
	require.NoError(t, err)
	assert.Contains(t, out, "TRACKING: openai/gpt2 on helm.MMLUScenario")
	assert.Contains(t, out, "PERFORMANCE BY DAY")
	assert.NotContains(t, out, "INCREMENTAL EXTRACTION SUMMARY")
}

func TestCommandFlagsDoNotLeak(t *testing.T) {
	workspace(t)
	writeRun(t, "results-20250608_112220")

	_, err := execute(t, "extract", "-o", filepath.Join("elsewhere", "summary.csv"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("elsewhere", "summary.csv"))
	assert.NoFileExists(t, filepath.Join("results", "benchmark_summary.csv"))

	_, err = execute(t, "report", "-s", filepath.Join("elsewhere", "summary.csv"))
	require.NoError(t, err)
	assert.Empty(t, extractOutput)
	assert.Equal(t, filepath.Join("elsewhere", "summary.csv"), reportSummary)

	_, err = execute(t, "report")
	require.ErrorContains(t, err, filepath.Join("results", "benchmark_summary.csv"))

	_, err = execute(t, "dashboard", "install", "--dashboard-dir", "site")
	require.NoError(t, err)
	assert.Empty(t, serveDashboardDir)
	assert.FileExists(t, filepath.Join("site", "index.html"))
}

func TestRunPropagatesExitStatus(t *testing.T) {
	workspace(t)
	require.NoError(t, os.Mkdir("harness", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("harness", "bench.sh"), []byte("echo running\nexit 4\n"), 0o644))

	out, err := execute(t, "run")
	var exitErr *engine.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 4, exitErr.Code)
	assert.Equal(t, "running\n", out)
}

func TestRunMissingScript(t *testing.T) {
	workspace(t)

	_, err := execute(t, "run", "--harness-dir", ".", "--script", "missing.sh")
	require.ErrorContains(t, err, "not found")
}

func TestEvaluateRecords(t *testing.T) {
	workspace(t)
	require.NoError(t, os.Mkdir("harness", 0o755))

	out, err := execute(t, "evaluate", "--provider-interface", "hf", "--model", "gpt2")
	require.NoError(t, err)
	assert.Contains(t, out, "gpt2 (hf) avg=0.3750 std=0.1250")
	assert.Contains(t, out, "  arc: 0.5000\n  hs: 0.2500\n")
	assert.FileExists(t, filepath.Join("results", "metrics.csv"))

	snaps, err := filepath.Glob(filepath.Join("results", "raw", "*-gpt2.json"))
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestEvaluateRequiresModel(t *testing.T) {
	workspace(t)

	_, err := execute(t, "evaluate", "--provider-interface", "hf")
	require.ErrorContains(t, err, "model")
}

func TestDashboardInstall(t *testing.T) {
	workspace(t)

	out, err := execute(t, "dashboard", "install")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("dashboard", "index.html"))
	for _, name := range []string{"index.html", "style.css", "script.js"} {
		assert.FileExists(t, filepath.Join("dashboard", name))
	}
}

func TestServeMissingDashboard(t *testing.T) {
	workspace(t)

	_, err := execute(t, "serve", "--addr", "127.0.0.1:0")
	require.ErrorContains(t, err, "dashboard install")
}
