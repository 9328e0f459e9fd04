package report

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/daryltucker/daily-bench/internal/extract"
	"github.com/daryltucker/daily-bench/internal/harvest"
	"github.com/daryltucker/daily-bench/internal/table"
)

// Data is everything one report prints.
type Data struct {
	Summary    *table.Table
	OutputPath string
	// Tables lists the detail tables of a full extraction by name.
	Tables map[string]*table.Table
	// NewRuns is the number of runs added by an incremental extraction, or
	// -1 when the report does not follow one.
	NewRuns int
	// Model and Dataset select the tracked pair. Empty picks the first combo.
	Model   string
	Dataset string
}

// Options controls rendering.
type Options struct {
	NoColor bool
	// Recent is the number of runs CompareRecent looks at.
	Recent int
	// ByDay adds the per-day performance summary.
	ByDay bool
	// PreviewRows is the number of summary rows shown at the end.
	PreviewRows int
}

const (
	colorTitle  = lipgloss.Color("63")
	colorMuted  = lipgloss.Color("244")
	colorUp     = lipgloss.Color("42")
	colorDown   = lipgloss.Color("196")
	colorHeader = lipgloss.Color("252")
)

// Render writes the report sections to w.
func Render(w io.Writer, d Data, opts Options) error {
	p := &printer{w: w, noColor: opts.NoColor}
	if opts.Recent <= 0 {
		opts.Recent = 3
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 5
	}
	summary := d.Summary
	if summary == nil {
		summary = table.New()
	}

	p.line(p.bold("Report summary:"))
	if len(d.Tables) > 0 {
		names := make([]string, 0, len(d.Tables))
		for name := range d.Tables {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			t := d.Tables[name]
			p.line(fmt.Sprintf("  %s: %d rows, %d columns", name, t.Len(), len(t.Columns)))
		}
	} else if d.NewRuns >= 0 {
		p.line(fmt.Sprintf("  Incremental processing: %d new runs processed", d.NewRuns))
	}

	p.section("TEMPORAL ANALYSIS")
	first, last := timeRange(summary.Values(extract.ColRunDate))
	p.line(fmt.Sprintf("Summary: %d rows, %d columns", summary.Len(), len(summary.Columns)))
	p.line(fmt.Sprintf("Date range: %s to %s", orNA(first), orNA(last)))
	p.line(fmt.Sprintf("Unique runs: %d", len(summary.Unique(harvest.ColRunID))))

	combos := Combos(summary)
	p.line("")
	p.line(p.bold("Model-Dataset Combinations:"))
	p.table(comboTable(combos))

	model, dataset := d.Model, d.Dataset
	if model == "" && dataset == "" && len(combos) > 0 {
		model, dataset = combos[0].Model, combos[0].ScenarioClass
	}
	if series := TimeSeries(summary, model, dataset); len(series) > 0 {
		p.subsection(fmt.Sprintf("TRACKING: %s on %s", model, dataset))
		p.line(fmt.Sprintf("Time series data (%d runs):", len(series)))
		p.table(seriesTable(series))

		p.line("")
		p.line(p.bold("Recent runs comparison:"))
		cmp, err := CompareRecent(summary, model, dataset, opts.Recent)
		if err != nil {
			p.line("  " + p.muted(err.Error()))
		} else {
			p.line(fmt.Sprintf("  Runs compared: %d", cmp.RunsCompared))
			p.line(fmt.Sprintf("  Time span: %d days", cmp.Days))
			for _, m := range cmp.MetricNames() {
				mc := cmp.Metrics[m]
				p.line(fmt.Sprintf("  %s: %.3f (trend: %s)", m, mc.Latest, p.trend(mc.Trend)))
			}
		}
	} else if model != "" || dataset != "" {
		p.line("")
		p.line(p.muted(fmt.Sprintf("No data found for model=%q and dataset=%q", model, dataset)))
	}

	if opts.ByDay {
		p.subsection("PERFORMANCE BY DAY")
		p.table(bucketTable(SummaryByTime(summary, true)))
	}

	p.section("FINAL SUMMARY")
	if d.OutputPath != "" {
		p.line("Final summary saved to: " + d.OutputPath)
	}
	p.line(fmt.Sprintf("Shape: (%d, %d)", summary.Len(), len(summary.Columns)))
	p.line("Columns: " + strings.Join(summary.Columns, ", "))
	if !summary.Empty() {
		p.line("")
		p.line(p.bold("First rows:"))
		p.table(previewTable(summary, opts.PreviewRows))
	}

	if d.NewRuns >= 0 {
		p.line("")
		p.line(p.bold("INCREMENTAL EXTRACTION SUMMARY:"))
		p.line(fmt.Sprintf("   New runs processed: %d", d.NewRuns))
		if d.NewRuns == 0 {
			p.line("   No new runs found - all data is up to date")
		} else {
			p.line(fmt.Sprintf("   Successfully added %d new run(s) to the dataset", d.NewRuns))
		}
	}
	return p.err
}

type printer struct {
	w       io.Writer
	noColor bool
	err     error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) section(title string) {
	rule := strings.Repeat("=", 50)
	p.line("")
	p.line(rule)
	p.line(p.stylize(title, colorTitle, true))
	p.line(rule)
}

func (p *printer) subsection(title string) {
	rule := strings.Repeat("-", 50)
	p.line("")
	p.line(rule)
	p.line(p.stylize(title, colorTitle, true))
	p.line(rule)
}

func (p *printer) table(t *ltable.Table) {
	if t == nil {
		p.line(p.muted("  (none)"))
		return
	}
	if p.noColor {
		t.StyleFunc(func(row, col int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) })
	} else {
		t.BorderStyle(lipgloss.NewStyle().Foreground(colorMuted))
		t.StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == ltable.HeaderRow {
				return s.Bold(true).Foreground(colorHeader)
			}
			return s
		})
	}
	p.line(t.Render())
}

func (p *printer) bold(s string) string {
	if p.noColor {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Render(s)
}

func (p *printer) muted(s string) string {
	return p.stylize(s, colorMuted, false)
}

func (p *printer) trend(label string) string {
	switch label {
	case Improving:
		return p.stylize(label, colorUp, false)
	case Declining:
		return p.stylize(label, colorDown, false)
	default:
		return p.muted(label)
	}
}

func (p *printer) stylize(text string, color lipgloss.Color, bold bool) string {
	if p.noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

func comboTable(combos []Combo) *ltable.Table {
	if len(combos) == 0 {
		return nil
	}
	t := ltable.New().Headers("model", "scenario_class", "total_rows", "unique_runs", "first_run", "last_run", "unique_days", "days_span")
	for _, c := range combos {
		t.Row(c.Model, c.ScenarioClass, strconv.Itoa(c.TotalRows), strconv.Itoa(c.UniqueRuns),
			orNA(c.FirstRun), orNA(c.LastRun), strconv.Itoa(c.UniqueDays), strconv.Itoa(c.DaysSpan))
	}
	return t
}

func seriesTable(points []Point) *ltable.Table {
	var metrics []string
	for _, pt := range points {
		for m := range pt.Metrics {
			if !slices.Contains(metrics, m) {
				metrics = append(metrics, m)
			}
		}
	}
	slices.Sort(metrics)

	headers := []string{"run_sequence", "run_id", "run_date"}
	for _, m := range metrics {
		headers = append(headers, m+"_mean")
	}
	t := ltable.New().Headers(headers...)
	for _, pt := range points {
		row := []string{strconv.Itoa(pt.Sequence), pt.RunID, orNA(pt.Date)}
		for _, m := range metrics {
			a, ok := pt.Metrics[m]
			if !ok {
				row = append(row, "n/a")
				continue
			}
			row = append(row, formatFloat(a.Mean))
		}
		t.Row(row...)
	}
	return t
}

func bucketTable(buckets []Bucket) *ltable.Table {
	if len(buckets) == 0 {
		return nil
	}
	t := ltable.New().Headers("run_date", "model", "scenario_class", "metric_name", "mean", "count")
	for _, b := range buckets {
		t.Row(orNA(b.Period), b.Model, b.ScenarioClass, b.Metric, formatFloat(b.Mean), strconv.Itoa(b.Count))
	}
	return t
}

func previewTable(t *table.Table, n int) *ltable.Table {
	cols := slices.DeleteFunc(slices.Clone(extract.KeyColumns), func(c string) bool { return !t.Has(c) })
	if t.Has(ValueColumn) {
		cols = append(cols, ValueColumn)
	}
	out := ltable.New().Headers(cols...)
	for i, r := range t.Rows {
		if i == n {
			break
		}
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = r[c]
		}
		out.Row(row...)
	}
	return out
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
