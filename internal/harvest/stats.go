/*
PURPOSE:
  Flattens stats.json files into one table row per stat record, joined with
  the sibling run_spec.json metadata.

REQUIREMENTS:
  User-specified:
  - One row per (run, metric) pair.
  - Missing run_spec.json: metadata defaults to "unknown".
  - Zero rows across the tree is a hard stop (NoDataError).

  Implementation-discovered:
  - The nested "name" mapping is merged into the row; its inner "name" key
    becomes metric_name so it cannot collide with anything else.
  - A malformed stats.json is skipped with a warning.

ARCHITECTURE INTEGRATION:
  - Called by: internal/extract
  - Uses: internal/table, internal/model

ERROR HANDLING:
  - Returns *NoDataError from Stats when nothing was harvested.
  - Sibling JSON problems are logged, never returned.

RELATED FILES:
  - internal/harvest/discover.go
*/

package harvest

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/daryltucker/daily-bench/internal/model"
	"github.com/daryltucker/daily-bench/internal/output"
	"github.com/daryltucker/daily-bench/internal/table"
)

// Column names produced by the stats harvester.
const (
	ColModel         = "model"
	ColRunID         = "run_id"
	ColRunName       = "run_name"
	ColScenarioClass = "scenario_class"
	ColMetricName    = "metric_name"
	ColSplit         = "split"
)

// statOrder lists the usual aggregate fields of a stat record so that the
// harvested column order does not depend on map iteration.
var statOrder = []string{
	"count", "sum", "sum_squared", "min", "max", "mean",
	"variance", "stddev", "std", "p25", "p50", "p75", "p90", "p95", "p99",
}

// NoDataError reports that a harvest produced no rows at all.
type NoDataError struct {
	Root string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no rows found in stats.json files under %s", e.Root)
}

// Stats harvests every stats.json under root. It fails with *NoDataError
// when the tree yields no rows.
func Stats(root string) (*table.Table, error) {
	runs, err := DiscoverRuns(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	t := StatsFromRuns(runs)
	if t.Empty() {
		return nil, &NoDataError{Root: root}
	}
	return t, nil
}

// StatsFromRuns harvests only the stats files of the given runs. The result
// may be empty.
func StatsFromRuns(runs []Run) *table.Table {
	t := table.New(ColModel, ColRunID, ColRunName, ColScenarioClass)
	for _, run := range runs {
		for _, path := range run.StatsFiles {
			appendStatRows(t, run.ID, path)
		}
	}
	t.SortBy(ColModel, ColRunID)
	return t
}

func appendStatRows(t *table.Table, runID, statsPath string) {
	var records []model.StatRecord
	if err := readJSON(statsPath, &records); err != nil {
		output.Logger.Warn("Skipping unreadable stats file", "path", statsPath, "error", err)
		return
	}

	scenarioDir := filepath.Dir(statsPath)
	spec := loadRunSpec(filepath.Join(scenarioDir, model.RunSpecFile))

	base := table.Row{
		ColModel:         orDefault(spec.AdapterSpec.Model, model.Unknown),
		ColRunID:         runID,
		ColRunName:       orDefault(spec.Name, filepath.Base(scenarioDir)),
		ColScenarioClass: orDefault(spec.ScenarioSpec.ClassName, model.Unknown),
	}
	argKeys := scenarioArgColumns(base, spec.ScenarioSpec.Args)

	for _, rec := range records {
		row := make(table.Row, len(base)+len(rec)+4)
		for k, v := range base {
			row[k] = v
		}
		keys := append([]string{ColModel, ColRunID, ColRunName, ColScenarioClass}, argKeys...)
		keys = append(keys, flattenName(row, rec["name"])...)
		keys = append(keys, flattenStats(row, rec)...)
		t.Append(row, keys...)
	}
}

// runSpecHeader is the part of run_spec.json that row keys come from. The
// remaining fields are not decoded and may hold any type.
type runSpecHeader struct {
	Name         string `json:"name"`
	ScenarioSpec struct {
		ClassName string         `json:"class_name"`
		Args      map[string]any `json:"args"`
	} `json:"scenario_spec"`
	AdapterSpec struct {
		Model string `json:"model"`
	} `json:"adapter_spec"`
}

// loadRunSpec reads the header fields of run_spec.json. Missing or
// malformed files give a zero header, so every field falls back to its own
// default.
func loadRunSpec(path string) runSpecHeader {
	var spec runSpecHeader
	if err := readJSON(path, &spec); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			output.Logger.Warn("Ignoring malformed run spec", "path", path, "error", err)
		}
		return runSpecHeader{}
	}
	return spec
}

// scenarioArgColumns writes scenario args as scenario_<arg> cells and
// returns their column names in sorted order.
func scenarioArgColumns(row table.Row, args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cols := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = "scenario_" + k
		row[cols[i]] = cell(args[k])
	}
	return cols
}

// flattenName merges the structured stat name into row.
func flattenName(row table.Row, name any) []string {
	switch n := name.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, func(a, b string) int {
			if c := cmp.Compare(nameKeyRank(a), nameKeyRank(b)); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
		cols := make([]string, 0, len(keys))
		for _, k := range keys {
			col := k
			if k == "name" {
				col = ColMetricName
			}
			row[col] = cell(n[k])
			cols = append(cols, col)
		}
		return cols
	case nil:
		return nil
	default:
		row[ColMetricName] = cell(n)
		return []string{ColMetricName}
	}
}

func nameKeyRank(k string) int {
	switch k {
	case "name":
		return 0
	case "split":
		return 1
	default:
		return 2
	}
}

// flattenStats copies every field but "name" into row, known aggregates
// first, then the rest alphabetically.
func flattenStats(row table.Row, rec model.StatRecord) []string {
	var cols []string
	for _, k := range statOrder {
		if v, ok := rec[k]; ok {
			row[k] = cell(v)
			cols = append(cols, k)
		}
	}
	var rest []string
	for k := range rec {
		if k == "name" || slices.Contains(statOrder, k) {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		row[k] = cell(rec[k])
	}
	return append(cols, rest...)
}
