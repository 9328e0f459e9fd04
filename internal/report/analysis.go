/*
PURPOSE:
  Read-only aggregation over the benchmark summary: which model/scenario
  pairs exist, how a pair moves across runs, and where recent runs trend.

REQUIREMENTS:
  User-specified:
  - Group by model and scenario with run counts and time ranges.
  - Trend is improving when last > first, declining when last < first,
    stable otherwise.

  Implementation-discovered:
  - Per-run aggregates are taken over the "mean" column of every metric.
  - Spread across runs uses the sample standard deviation; a single value
    has zero spread.
  - Timestamps are the "2006-01-02 15:04:05" text of the summary; empty
    timestamps sort last and are ignored for ranges.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (extract, report)
  - Consumes: the table written by internal/extract

ERROR HANDLING:
  - ErrNotEnoughRuns when a comparison has fewer than two runs.

RELATED FILES:
  - internal/report/render.go
*/

package report

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/daryltucker/daily-bench/internal/extract"
	"github.com/daryltucker/daily-bench/internal/harvest"
	"github.com/daryltucker/daily-bench/internal/table"
)

// Trend labels.
const (
	Improving = "improving"
	Declining = "declining"
	Stable    = "stable"
)

// ValueColumn is the stat column aggregated across runs.
const ValueColumn = "mean"

var ErrNotEnoughRuns = errors.New("not enough runs to compare")

// Combo summarises one model/scenario pair.
type Combo struct {
	Model         string
	ScenarioClass string
	TotalRows     int
	UniqueRuns    int
	FirstRun      string
	LastRun       string
	UniqueDays    int
	DaysSpan      int
}

// Combos groups the summary by model and scenario class, sorted by both.
func Combos(t *table.Table) []Combo {
	var out []Combo
	for _, g := range t.GroupBy(harvest.ColModel, harvest.ColScenarioClass) {
		sub := &table.Table{Columns: t.Columns, Rows: g.Rows}
		first, last := timeRange(sub.Values(extract.ColRunTimestamp))
		out = append(out, Combo{
			Model:         g.Key[0],
			ScenarioClass: g.Key[1],
			TotalRows:     len(g.Rows),
			UniqueRuns:    len(sub.Unique(harvest.ColRunID)),
			FirstRun:      first,
			LastRun:       last,
			UniqueDays:    len(sub.Unique(extract.ColRunDate)),
			DaysSpan:      daysBetween(first, last),
		})
	}
	slices.SortStableFunc(out, func(a, b Combo) int {
		if a.Model != b.Model {
			return compareText(a.Model, b.Model)
		}
		return compareText(a.ScenarioClass, b.ScenarioClass)
	})
	return out
}

// Agg is a mean, sample standard deviation and count of numeric cells.
type Agg struct {
	Mean  float64
	Std   float64
	Count int
}

// Point is one run of a model/scenario pair.
type Point struct {
	Sequence  int
	RunID     string
	Timestamp string
	Date      string
	Metrics   map[string]Agg
}

// TimeSeries returns one point per run of the pair, ordered by timestamp,
// with the value column aggregated per metric. Empty when the pair is absent.
func TimeSeries(t *table.Table, model, dataset string) []Point {
	rows := t.Filter(func(r table.Row) bool {
		return r[harvest.ColModel] == model && r[harvest.ColScenarioClass] == dataset
	})
	rows.SortBy(extract.ColRunTimestamp)

	var points []Point
	for _, g := range rows.GroupBy(harvest.ColRunID, extract.ColRunTimestamp, extract.ColRunDate) {
		byMetric := make(map[string][]float64)
		for _, r := range g.Rows {
			v, ok := number(r[ValueColumn])
			if !ok {
				continue
			}
			m := r[harvest.ColMetricName]
			byMetric[m] = append(byMetric[m], v)
		}
		metrics := make(map[string]Agg, len(byMetric))
		for m, vals := range byMetric {
			metrics[m] = aggregate(vals)
		}
		points = append(points, Point{
			Sequence:  len(points) + 1,
			RunID:     g.Key[0],
			Timestamp: g.Key[1],
			Date:      g.Key[2],
			Metrics:   metrics,
		})
	}
	return points
}

// MetricComparison describes one metric over the compared runs.
type MetricComparison struct {
	Latest float64
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Trend  string
}

// Comparison is the outcome of CompareRecent.
type Comparison struct {
	Model        string
	Dataset      string
	RunsCompared int
	FirstRun     string
	LastRun      string
	Days         int
	Metrics      map[string]MetricComparison
}

// MetricNames returns the compared metrics in sorted order.
func (c *Comparison) MetricNames() []string {
	names := make([]string, 0, len(c.Metrics))
	for m := range c.Metrics {
		names = append(names, m)
	}
	slices.Sort(names)
	return names
}

// CompareRecent compares the last n runs of a pair. It needs at least two
// runs of the pair in total.
func CompareRecent(t *table.Table, model, dataset string, n int) (*Comparison, error) {
	series := TimeSeries(t, model, dataset)
	if len(series) < 2 {
		return nil, ErrNotEnoughRuns
	}
	if n > 0 && n < len(series) {
		series = series[len(series)-n:]
	}

	first, last := timeRange(pointTimestamps(series))
	c := &Comparison{
		Model:        model,
		Dataset:      dataset,
		RunsCompared: len(series),
		FirstRun:     first,
		LastRun:      last,
		Days:         daysBetween(first, last),
		Metrics:      make(map[string]MetricComparison),
	}

	var names []string
	for _, p := range series {
		for m := range p.Metrics {
			if !slices.Contains(names, m) {
				names = append(names, m)
			}
		}
	}
	for _, m := range names {
		var vals []float64
		for _, p := range series {
			if a, ok := p.Metrics[m]; ok {
				vals = append(vals, a.Mean)
			}
		}
		agg := aggregate(vals)
		c.Metrics[m] = MetricComparison{
			Latest: vals[len(vals)-1],
			Mean:   agg.Mean,
			Std:    agg.Std,
			Min:    slices.Min(vals),
			Max:    slices.Max(vals),
			Trend:  Trend(vals),
		}
	}
	return c, nil
}

// Trend classifies a series by comparing its last value with its first.
func Trend(values []float64) string {
	if len(values) < 2 {
		return Stable
	}
	first, last := values[0], values[len(values)-1]
	switch {
	case last > first:
		return Improving
	case last < first:
		return Declining
	default:
		return Stable
	}
}

// Bucket is one row of SummaryByTime.
type Bucket struct {
	Model         string
	ScenarioClass string
	// Period is the run date when grouping by day, else the run timestamp.
	Period string
	RunID  string
	Metric string
	Mean   float64
	Count  int
}

// SummaryByTime aggregates the value column per model, scenario class,
// period and metric. Periods are days when byDay is set, else single runs.
// Buckets are ordered by period, model and scenario class.
func SummaryByTime(t *table.Table, byDay bool) []Bucket {
	cols := []string{harvest.ColModel, harvest.ColScenarioClass, extract.ColRunDate, "", harvest.ColMetricName}
	if !byDay {
		cols[2] = extract.ColRunTimestamp
		cols[3] = harvest.ColRunID
	}

	var out []Bucket
	for _, g := range t.GroupBy(cols...) {
		var vals []float64
		for _, r := range g.Rows {
			if v, ok := number(r[ValueColumn]); ok {
				vals = append(vals, v)
			}
		}
		agg := aggregate(vals)
		out = append(out, Bucket{
			Model:         g.Key[0],
			ScenarioClass: g.Key[1],
			Period:        g.Key[2],
			RunID:         g.Key[3],
			Metric:        g.Key[4],
			Mean:          agg.Mean,
			Count:         agg.Count,
		})
	}
	slices.SortStableFunc(out, func(a, b Bucket) int {
		if c := compareText(a.Period, b.Period); c != 0 {
			return c
		}
		if c := compareText(a.Model, b.Model); c != 0 {
			return c
		}
		return compareText(a.ScenarioClass, b.ScenarioClass)
	})
	return out
}

func aggregate(vals []float64) Agg {
	if len(vals) == 0 {
		return Agg{Mean: math.NaN(), Std: math.NaN()}
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	if len(vals) == 1 {
		return Agg{Mean: mean, Count: 1}
	}
	var sq float64
	for _, v := range vals {
		sq += (v - mean) * (v - mean)
	}
	return Agg{Mean: mean, Std: math.Sqrt(sq / float64(len(vals)-1)), Count: len(vals)}
}

func number(cell string) (float64, bool) {
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func pointTimestamps(points []Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Timestamp
	}
	return out
}

// timeRange returns the smallest and largest non-empty timestamps.
func timeRange(stamps []string) (first, last string) {
	for _, s := range stamps {
		if s == "" {
			continue
		}
		if first == "" || s < first {
			first = s
		}
		if s > last {
			last = s
		}
	}
	return first, last
}

func daysBetween(first, last string) int {
	a, errA := time.Parse(extract.TimestampLayout, first)
	b, errB := time.Parse(extract.TimestampLayout, last)
	if errA != nil || errB != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

// compareText orders text ascending with empty values last.
func compareText(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	case a < b:
		return -1
	default:
		return 1
	}
}
