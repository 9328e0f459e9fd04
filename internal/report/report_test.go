package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/daily-bench/internal/table"
)

func summaryTable() *table.Table {
	t := table.New("model", "scenario_class", "run_timestamp", "run_date", "run_id", "metric_name", "split", "mean")
	add := func(model, runID, ts, metric, mean string) {
		date := ""
		if ts != "" {
			date = ts[:10]
		}
		t.Append(table.Row{
			"model": model, "scenario_class": "mmlu", "run_timestamp": ts, "run_date": date,
			"run_id": runID, "metric_name": metric, "split": "test", "mean": mean,
		})
	}
	add("m1", "results-20250101_000000", "2025-01-01 00:00:00", "exact_match", "0.5")
	add("m1", "results-20250101_000000", "2025-01-01 00:00:00", "f1_score", "0.9")
	add("m1", "results-20250105_000000", "2025-01-05 00:00:00", "exact_match", "0.6")
	add("m1", "results-20250105_000000", "2025-01-05 00:00:00", "f1_score", "0.8")
	add("m1", "results-20250110_120000", "2025-01-10 12:00:00", "exact_match", "0.7")
	add("m1", "results-20250110_120000", "2025-01-10 12:00:00", "f1_score", "0.8")
	add("m0", "adhoc", "", "exact_match", "0.1")
	return t
}

func TestTrend(t *testing.T) {
	assert.Equal(t, Improving, Trend([]float64{0.5, 0.6, 0.7}))
	assert.Equal(t, Declining, Trend([]float64{0.7, 0.6, 0.5}))
	assert.Equal(t, Stable, Trend([]float64{0.5, 0.5}))
	assert.Equal(t, Stable, Trend([]float64{0.5}))
	assert.Equal(t, Stable, Trend(nil))
	assert.Equal(t, Improving, Trend([]float64{0.5, 0.1, 0.6}), "only the endpoints count")
}

func TestCombos(t *testing.T) {
	combos := Combos(summaryTable())
	require.Len(t, combos, 2)

	assert.Equal(t, "m0", combos[0].Model)
	assert.Equal(t, 1, combos[0].UniqueRuns)
	assert.Equal(t, "", combos[0].FirstRun)
	assert.Equal(t, 0, combos[0].DaysSpan)

	m1 := combos[1]
	assert.Equal(t, 6, m1.TotalRows)
	assert.Equal(t, 3, m1.UniqueRuns)
	assert.Equal(t, "2025-01-01 00:00:00", m1.FirstRun)
	assert.Equal(t, "2025-01-10 12:00:00", m1.LastRun)
	assert.Equal(t, 3, m1.UniqueDays)
	assert.Equal(t, 9, m1.DaysSpan)
}

func TestTimeSeries(t *testing.T) {
	series := TimeSeries(summaryTable(), "m1", "mmlu")
	require.Len(t, series, 3)
	assert.Equal(t, 1, series[0].Sequence)
	assert.Equal(t, "results-20250101_000000", series[0].RunID)
	assert.Equal(t, 3, series[2].Sequence)
	assert.InDelta(t, 0.7, series[2].Metrics["exact_match"].Mean, 1e-9)
	assert.Equal(t, 1, series[2].Metrics["exact_match"].Count)

	assert.Empty(t, TimeSeries(summaryTable(), "nobody", "mmlu"))
}

func TestCompareRecent(t *testing.T) {
	cmp, err := CompareRecent(summaryTable(), "m1", "mmlu", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cmp.RunsCompared)
	assert.Equal(t, 9, cmp.Days)
	assert.Equal(t, []string{"exact_match", "f1_score"}, cmp.MetricNames())

	em := cmp.Metrics["exact_match"]
	assert.InDelta(t, 0.7, em.Latest, 1e-9)
	assert.InDelta(t, 0.6, em.Mean, 1e-9)
	assert.InDelta(t, 0.1, em.Std, 1e-9)
	assert.InDelta(t, 0.5, em.Min, 1e-9)
	assert.InDelta(t, 0.7, em.Max, 1e-9)
	assert.Equal(t, Improving, em.Trend)
	assert.Equal(t, Declining, cmp.Metrics["f1_score"].Trend)

	last2, err := CompareRecent(summaryTable(), "m1", "mmlu", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, last2.RunsCompared)
	assert.Equal(t, Stable, last2.Metrics["f1_score"].Trend)

	_, err = CompareRecent(summaryTable(), "m0", "mmlu", 3)
	assert.ErrorIs(t, err, ErrNotEnoughRuns)
}

func TestSummaryByTime(t *testing.T) {
	byDay := SummaryByTime(summaryTable(), true)
	require.Len(t, byDay, 7)
	assert.Equal(t, "2025-01-01", byDay[0].Period)
	assert.Equal(t, "", byDay[len(byDay)-1].Period, "rows without a date sort last")

	byRun := SummaryByTime(summaryTable(), false)
	require.Len(t, byRun, 7)
	assert.Equal(t, "results-20250101_000000", byRun[0].RunID)
	assert.Equal(t, 1, byRun[0].Count)
}

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Data{Summary: summaryTable(), OutputPath: "results/benchmark_summary.csv", NewRuns: 1, Model: "m1", Dataset: "mmlu"},
		Options{NoColor: true, ByDay: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Incremental processing: 1 new runs processed")
	assert.Contains(t, out, "TEMPORAL ANALYSIS")
	assert.Contains(t, out, "Date range: 2025-01-01 to 2025-01-10")
	assert.Contains(t, out, "TRACKING: m1 on mmlu")
	assert.Contains(t, out, "exact_match: 0.700 (trend: improving)")
	assert.Contains(t, out, "PERFORMANCE BY DAY")
	assert.Contains(t, out, "Successfully added 1 new run(s)")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderEmptySummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Data{NewRuns: -1}, Options{NoColor: true}))
	assert.Contains(t, buf.String(), "Date range: n/a to n/a")
	assert.NotContains(t, buf.String(), "INCREMENTAL EXTRACTION SUMMARY")
}
