package harvest

import (
	"fmt"

	"github.com/daryltucker/daily-bench/internal/output"
	"github.com/daryltucker/daily-bench/internal/table"
)

// Report holds every table harvested from one results tree.
type Report struct {
	Stats            *table.Table
	RunSpecs         *table.Table
	Instances        *table.Table
	PerInstanceStats *table.Table
	Scenarios        *table.Table
	ScenarioState    *table.Table
}

// Tables returns the non-empty tables keyed by name.
func (r *Report) Tables() map[string]*table.Table {
	all := map[string]*table.Table{
		"stats":              r.Stats,
		"run_specs":          r.RunSpecs,
		"instances":          r.Instances,
		"per_instance_stats": r.PerInstanceStats,
		"scenarios":          r.Scenarios,
		"scenario_state":     r.ScenarioState,
	}
	for name, t := range all {
		if t.Empty() {
			delete(all, name)
		}
	}
	return all
}

// Comprehensive harvests every known file type under root. Only the stats
// harvest is required to produce rows.
func Comprehensive(root string) (*Report, error) {
	stats, err := Stats(root)
	if err != nil {
		return nil, err
	}
	r := &Report{Stats: stats}

	steps := []struct {
		name string
		dst  **table.Table
		fn   func(string) (*table.Table, error)
	}{
		{"run specs", &r.RunSpecs, RunSpecs},
		{"instances", &r.Instances, Instances},
		{"per-instance stats", &r.PerInstanceStats, PerInstanceStats},
		{"scenarios", &r.Scenarios, ScenarioMetadata},
		{"scenario state", &r.ScenarioState, ScenarioState},
	}
	for _, s := range steps {
		t, err := s.fn(root)
		if err != nil {
			return nil, fmt.Errorf("failed to harvest %s: %w", s.name, err)
		}
		*s.dst = t
		output.Logger.Debug("Harvested table", "table", s.name, "rows", t.Len())
	}
	return r, nil
}

// MergeRunLevel attaches run specs and scenario metadata to every stat row.
// Stat rows carry the suite as run_id, so specs are matched on run_name and
// scenario metadata on the scenario directory the run spec came from
// (run_id_spec). The duplicated model_spec column is dropped.
func MergeRunLevel(r *Report) *table.Table {
	merged := r.Stats.Clone()
	if !r.RunSpecs.Empty() {
		merged = table.LeftJoin(merged, r.RunSpecs, []string{ColRunName}, "_spec")
		merged.Drop(ColModel + "_spec")
	}
	if !r.Scenarios.Empty() && merged.Has(ColRunID+"_spec") {
		scenarios := r.Scenarios.Clone()
		scenarios.Rename(ColRunID, ColRunID+"_spec")
		merged = table.LeftJoin(merged, scenarios, []string{ColRunID + "_spec"}, "_scenario")
	}
	return merged
}

// MergeInstanceLevel builds one row per request state. Instance references
// and run spec fields are joined on run_id, then scenario metadata.
// Where columns clash the scenario state values win.
func MergeInstanceLevel(r *Report) *table.Table {
	if r.ScenarioState.Empty() {
		return table.New()
	}
	merged := r.ScenarioState.Clone()
	on := []string{ColRunID}

	if !r.Instances.Empty() {
		inst := r.Instances.Project(ColRunID, "instance_id", ColScenarioClass, "reference_tags")
		merged = table.LeftJoin(merged, inst, []string{ColRunID, "instance_id"}, "_inst")
	}
	if !r.RunSpecs.Empty() {
		specs := r.RunSpecs.Project(ColRunID, ColRunName, ColScenarioClass, "num_trials", "max_eval_instances", "groups")
		merged = table.LeftJoin(merged, specs, on, "_spec")
	}
	if !r.Scenarios.Empty() {
		merged = table.LeftJoin(merged, r.Scenarios, on, "_scenario")
	}
	merged.Drop(ColScenarioClass+"_inst", ColScenarioClass+"_spec")
	return merged
}
