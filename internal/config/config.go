/*
PURPOSE:
  Defines the configuration structure and loading logic for daily-bench.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Configure where results are harvested from and where the summary goes.
  - Configure the harness script and the evaluator command.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support Environment variable overrides (DAILY_BENCH_...).
  - A .env file in the working directory is loaded before the overrides.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/extract, internal/dashboard
  - Dependencies: gopkg.in/yaml.v3, github.com/joho/godotenv

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - A missing default config file falls back to defaults.
  - A missing explicit config file is an error.

USAGE:
  cfg, err := config.Load("daily_bench.yaml")

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - Add new keys to Config, DefaultConfig and applyEnv together.
*/

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFiles are searched in order when no config path is given.
var DefaultFiles = []string{"daily_bench.yaml", "daily-bench.yaml", ".daily-bench.yaml"}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DAILY_BENCH_"

// Config represents the full configuration for daily-bench.
type Config struct {
	ResultsRoot       string   `yaml:"results_root"`
	SummaryPath       string   `yaml:"summary_path"`
	DashboardDir      string   `yaml:"dashboard_dir"`
	MirrorToDashboard bool     `yaml:"mirror_to_dashboard"`
	DuckDBPath        string   `yaml:"duckdb_path"`
	KeepMetrics       []string `yaml:"keep_metrics"`
	ResultsDir        string   `yaml:"results_dir"`
	RawDir            string   `yaml:"raw_dir"`
	MetricsFile       string   `yaml:"metrics_file"`
	LogLevel          string   `yaml:"log_level"`

	Harness HarnessConfig `yaml:"harness"`
	Serve   ServeConfig   `yaml:"serve"`
	Report  ReportConfig  `yaml:"report"`
}

// HarnessConfig describes the external benchmark collaborators.
type HarnessConfig struct {
	Dir    string `yaml:"dir"`
	Script string `yaml:"script"`
	// EvalCommand is an argv template; {provider}, {model}, {tasks} and
	// {shots} are substituted per argument.
	EvalCommand    []string `yaml:"eval_command"`
	Tasks          []string `yaml:"tasks"`
	Shots          int      `yaml:"shots"`
	PrimaryMetrics []string `yaml:"primary_metrics"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

type ReportConfig struct {
	RecentRuns int `yaml:"recent_runs"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ResultsRoot:       "benchmark_output/runs",
		SummaryPath:       "results/benchmark_summary.csv",
		DashboardDir:      "dashboard",
		MirrorToDashboard: true,
		KeepMetrics:       []string{"perplexity", "exact_match", "f1_score", "bleu_4", "rouge_l"},
		ResultsDir:        "results",
		RawDir:            "results/raw",
		MetricsFile:       "results/metrics.csv",
		LogLevel:          "info",
		Harness: HarnessConfig{
			Dir:    ".",
			Script: "scripts/run_bench.sh",
			EvalCommand: []string{
				"lm_eval", "--model", "{provider}", "--model_args", "model={model}",
				"--tasks", "{tasks}", "--num_fewshot", "{shots}", "--output_path", "-",
			},
			Tasks:          []string{"hellaswag", "arc_easy"},
			Shots:          0,
			PrimaryMetrics: []string{"acc,none", "acc", "exact_match,none", "exact_match"},
		},
		Serve:  ServeConfig{Addr: ":8000"},
		Report: ReportConfig{RecentRuns: 5},
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches DefaultFiles in order.
// Environment overrides are applied last in every case.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		for _, name := range DefaultFiles {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				break
			}
		}
	}

	if path != "" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.ResultsRoot = getEnv("RESULTS_ROOT", cfg.ResultsRoot)
	cfg.SummaryPath = getEnv("SUMMARY_PATH", cfg.SummaryPath)
	cfg.DashboardDir = getEnv("DASHBOARD_DIR", cfg.DashboardDir)
	cfg.DuckDBPath = getEnv("DUCKDB_PATH", cfg.DuckDBPath)
	cfg.ResultsDir = getEnv("RESULTS_DIR", cfg.ResultsDir)
	cfg.RawDir = getEnv("RAW_DIR", cfg.RawDir)
	cfg.MetricsFile = getEnv("METRICS_FILE", cfg.MetricsFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.KeepMetrics = getEnvList("KEEP_METRICS", cfg.KeepMetrics)
	cfg.Harness.Dir = getEnv("HARNESS_DIR", cfg.Harness.Dir)
	cfg.Harness.Script = getEnv("HARNESS_SCRIPT", cfg.Harness.Script)
	cfg.Harness.Tasks = getEnvList("TASKS", cfg.Harness.Tasks)
	cfg.Serve.Addr = getEnv("ADDR", cfg.Serve.Addr)

	var err error
	if cfg.MirrorToDashboard, err = getEnvBool("MIRROR_TO_DASHBOARD", cfg.MirrorToDashboard); err != nil {
		return err
	}
	if cfg.Harness.Shots, err = getEnvInt("SHOTS", cfg.Harness.Shots); err != nil {
		return err
	}
	if cfg.Report.RecentRuns, err = getEnvInt("RECENT_RUNS", cfg.Report.RecentRuns); err != nil {
		return err
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		return v
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	return b, nil
}

func getEnvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	return n, nil
}
