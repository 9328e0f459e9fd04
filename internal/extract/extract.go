/*
PURPOSE:
  Turns the results tree into the benchmark summary CSV, either from
  scratch (Full) or by appending only runs the summary does not hold yet
  (Incremental).

REQUIREMENTS:
  User-specified:
  - Only runs missing from the summary are harvested.
  - Appending never duplicates a run_id already present.
  - Rows are re-sorted after every update.
  - Running twice with no new runs leaves the CSV byte-identical.

  Implementation-discovered:
  - With no new runs the CSV is not rewritten at all.
  - Older summaries name the run column "run"; it is renamed on load.
  - Summaries missing run_timestamp/run_date get them on load, in memory.
  - A missing summary falls back to full extraction.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (extract, report)
  - Uses: internal/harvest, internal/table, internal/duckexport

ERROR HANDLING:
  - An unreadable existing summary is a warning and counts as empty.
  - *harvest.NoDataError from a full harvest is returned unchanged.

RELATED FILES:
  - internal/extract/columns.go
  - internal/extract/timestamp.go
*/

package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/daryltucker/daily-bench/internal/duckexport"
	"github.com/daryltucker/daily-bench/internal/harvest"
	"github.com/daryltucker/daily-bench/internal/output"
	"github.com/daryltucker/daily-bench/internal/table"
)

// MirrorName is the file name of the dashboard copy of the summary.
const MirrorName = "benchmark_summary.csv"

// Options configures one extraction.
type Options struct {
	Root        string
	OutputPath  string
	KeepMetrics []string
	// DashboardDir receives a copy of the summary when it exists. Empty
	// disables mirroring.
	DashboardDir string
	// DuckDBPath receives a typed snapshot of the summary. Empty disables it.
	DuckDBPath string
	// Details writes run_level.csv and instance_level.csv next to the
	// summary. Only honoured by Full.
	Details bool
}

// Result is what an extraction produced.
type Result struct {
	Final      *table.Table
	New        *table.Table
	NewRuns    []string
	OutputPath string
	// Written is false when the summary was left untouched.
	Written bool
	// Report holds the detail tables of a full extraction.
	Report *harvest.Report
}

// Incremental harvests only the runs that are not in the summary yet.
func Incremental(ctx context.Context, opts Options) (*Result, error) {
	if _, err := os.Stat(opts.OutputPath); errors.Is(err, fs.ErrNotExist) {
		output.Logger.Info("No existing summary, running full extraction", "path", opts.OutputPath)
		return Full(ctx, opts)
	}

	existing := LoadSummary(opts.OutputPath)
	known := make(map[string]struct{})
	for _, id := range existing.Unique(harvest.ColRunID) {
		known[id] = struct{}{}
	}
	output.Logger.Info("Loaded existing summary", "path", opts.OutputPath, "runs", len(known), "rows", existing.Len())

	runs, err := harvest.NewRuns(opts.Root, known)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", opts.Root, err)
	}
	res := &Result{Final: existing, New: table.New(), OutputPath: opts.OutputPath}
	if len(runs) == 0 {
		output.Logger.Info("No new runs found, summary is up to date")
		return res, finish(ctx, opts, res)
	}

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	output.Logger.Info("Found new runs", "count", len(runs), "runs", ids)

	fresh := FilterMetrics(harvest.StatsFromRuns(runs), keepList(opts))
	if fresh.Empty() {
		output.Logger.Warn("New runs produced no rows after filtering", "runs", ids)
		return res, finish(ctx, opts, res)
	}
	AddTemporalColumns(fresh)

	final := table.Concat(existing, fresh)
	AddTemporalColumns(final)
	Arrange(final)

	if err := final.WriteCSV(opts.OutputPath); err != nil {
		return nil, err
	}
	output.Logger.Info("Updated summary", "path", opts.OutputPath, "rows", final.Len(), "new_rows", fresh.Len())

	res.Final = final
	res.New = fresh
	res.NewRuns = ids
	res.Written = true
	return res, finish(ctx, opts, res)
}

// Full harvests the whole tree and rewrites the summary.
func Full(ctx context.Context, opts Options) (*Result, error) {
	report, err := harvest.Comprehensive(opts.Root)
	if err != nil {
		return nil, err
	}
	for name, t := range report.Tables() {
		output.Logger.Debug("Harvested", "table", name, "rows", t.Len(), "columns", len(t.Columns))
	}

	final := FilterMetrics(report.Stats.Clone(), keepList(opts))
	AddTemporalColumns(final)
	Arrange(final)

	if err := final.WriteCSV(opts.OutputPath); err != nil {
		return nil, err
	}
	output.Logger.Info("Wrote summary", "path", opts.OutputPath, "rows", final.Len())

	if opts.Details {
		if err := writeDetails(report, filepath.Dir(opts.OutputPath)); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Final:      final,
		New:        final,
		NewRuns:    final.Unique(harvest.ColRunID),
		OutputPath: opts.OutputPath,
		Written:    true,
		Report:     report,
	}
	return res, finish(ctx, opts, res)
}

// LoadSummary reads an existing summary. Read failures are logged and give
// an empty table. Summaries written without run_timestamp or run_date get
// them computed in memory; the file is not touched.
func LoadSummary(path string) *table.Table {
	t, err := table.ReadCSV(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			output.Logger.Warn("Could not read existing summary, treating it as empty", "path", path, "error", err)
		}
		return table.New()
	}
	normalizeRunColumn(t)
	if !t.Empty() && (!t.Has(ColRunTimestamp) || !t.Has(ColRunDate)) {
		AddTemporalColumns(t)
	}
	return t
}

// ExistingRunIDs returns the run identifiers recorded in the summary at path.
func ExistingRunIDs(path string) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, id := range LoadSummary(path).Unique(harvest.ColRunID) {
		ids[id] = struct{}{}
	}
	return ids
}

func keepList(opts Options) []string {
	if opts.KeepMetrics == nil {
		return DefaultKeepMetrics
	}
	return opts.KeepMetrics
}

// finish runs the side outputs that follow every extraction.
func finish(ctx context.Context, opts Options, res *Result) error {
	if opts.DashboardDir != "" {
		if err := Mirror(opts.OutputPath, opts.DashboardDir); err != nil {
			return err
		}
	}
	if opts.DuckDBPath != "" && (res.Written || !fileExists(opts.DuckDBPath)) && !res.Final.Empty() {
		if err := duckexport.Write(ctx, opts.DuckDBPath, res.Final, SnapshotSchema); err != nil {
			return err
		}
		output.Logger.Info("Wrote DuckDB snapshot", "path", opts.DuckDBPath)
	}
	return nil
}

// SnapshotSchema types the summary columns in the DuckDB snapshot.
var SnapshotSchema = duckexport.Schema{
	Double:    StatColumns,
	Timestamp: []string{ColRunTimestamp},
	Date:      []string{ColRunDate},
}

// Mirror copies the summary into dir when dir exists.
func Mirror(summaryPath, dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		output.Logger.Debug("Dashboard directory missing, skipping mirror", "dir", dir)
		return nil
	}
	dst := filepath.Join(dir, MirrorName)
	if filepath.Clean(dst) == filepath.Clean(summaryPath) {
		return nil
	}
	src, err := os.Open(summaryPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer src.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to mirror summary: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("failed to mirror summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	output.Logger.Info("Mirrored summary for the dashboard", "path", dst)
	return nil
}

func writeDetails(report *harvest.Report, dir string) error {
	for name, t := range map[string]*table.Table{
		"run_level.csv":      harvest.MergeRunLevel(report),
		"instance_level.csv": harvest.MergeInstanceLevel(report),
	} {
		if t.Empty() {
			continue
		}
		path := filepath.Join(dir, name)
		if err := t.WriteCSV(path); err != nil {
			return err
		}
		output.Logger.Info("Wrote detail table", "path", path, "rows", t.Len())
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
