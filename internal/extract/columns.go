package extract

import (
	"slices"

	"github.com/daryltucker/daily-bench/internal/harvest"
	"github.com/daryltucker/daily-bench/internal/table"
)

const (
	ColRunTimestamp = "run_timestamp"
	ColRunDate      = "run_date"
	// LegacyRunColumn is the run identifier column name of older summaries.
	LegacyRunColumn = "run"
)

// DefaultKeepMetrics is the metric allow-list used when none is configured.
var DefaultKeepMetrics = []string{"perplexity", "exact_match", "f1_score", "bleu_4", "rouge_l"}

// KeyColumns lead every summary row.
var KeyColumns = []string{
	harvest.ColModel,
	harvest.ColScenarioClass,
	ColRunTimestamp,
	ColRunDate,
	harvest.ColRunID,
	harvest.ColMetricName,
	harvest.ColSplit,
}

// StatColumns follow the key columns when present.
var StatColumns = []string{
	"count", "sum", "mean", "min", "max", "std", "variance",
	"p25", "p50", "p75", "p90", "p95", "p99",
}

// ExcludedColumns are derived columns that are never written.
var ExcludedColumns = []string{"run_hour", "run_weekday"}

// SortColumns is the row order of the summary.
var SortColumns = []string{
	harvest.ColModel,
	harvest.ColScenarioClass,
	ColRunTimestamp,
	harvest.ColMetricName,
}

// Arrange puts the summary columns in their canonical order and sorts the rows.
func Arrange(t *table.Table) {
	lead := slices.Concat(KeyColumns, StatColumns)
	t.Reorder(lead, ExcludedColumns...)
	t.SortBy(SortColumns...)
}

// FilterMetrics keeps the rows whose metric_name is in keep. An empty keep
// list keeps everything.
func FilterMetrics(t *table.Table, keep []string) *table.Table {
	if len(keep) == 0 || !t.Has(harvest.ColMetricName) {
		return t
	}
	return t.Filter(func(r table.Row) bool {
		return slices.Contains(keep, r[harvest.ColMetricName])
	})
}

// normalizeRunColumn renames the legacy run column of older summaries.
func normalizeRunColumn(t *table.Table) {
	if !t.Has(harvest.ColRunID) && t.Has(LegacyRunColumn) {
		t.Rename(LegacyRunColumn, harvest.ColRunID)
	}
}
