package harvest

import (
	"path/filepath"
	"strconv"

	"github.com/daryltucker/daily-bench/internal/model"
	"github.com/daryltucker/daily-bench/internal/output"
	"github.com/daryltucker/daily-bench/internal/table"
)

// Detail tables key rows by the scenario directory that holds the file.
func scenarioRunID(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// RunSpecs returns one row per run_spec.json with the run configuration.
func RunSpecs(root string) (*table.Table, error) {
	paths, err := findFiles(root, model.RunSpecFile)
	if err != nil {
		return nil, err
	}

	t := table.New()
	for _, p := range paths {
		var spec model.RunSpec
		if err := readJSON(p, &spec); err != nil {
			output.Logger.Warn("Skipping unreadable run spec", "path", p, "error", err)
			continue
		}
		a := spec.AdapterSpec
		row := table.Row{
			ColRunID:              scenarioRunID(p),
			ColRunName:            orDefault(spec.Name, model.Unknown),
			ColScenarioClass:      orDefault(spec.ScenarioSpec.ClassName, model.Unknown),
			ColModel:              orDefault(a.Model, model.Unknown),
			"model_deployment":    orDefault(a.ModelDeployment, model.Unknown),
			"method":              orDefault(a.Method, model.Unknown),
			"temperature":         a.Temperature.String(),
			"max_tokens":          a.MaxTokens.String(),
			"num_outputs":         a.NumOutputs.String(),
			"num_trials":          a.NumTrials.String(),
			"max_train_instances": a.MaxTrainInstances.String(),
			"max_eval_instances":  a.MaxEvalInstances.String(),
			"instructions":        a.Instructions,
			"input_prefix":        a.InputPrefix,
			"output_prefix":       a.OutputPrefix,
			"stop_sequences":      listCell(a.StopSequences),
			"groups":              listCell(spec.Groups),
		}
		keys := []string{
			ColRunID, ColRunName, ColScenarioClass, ColModel, "model_deployment",
			"method", "temperature", "max_tokens", "num_outputs", "num_trials",
			"max_train_instances", "max_eval_instances", "instructions",
			"input_prefix", "output_prefix", "stop_sequences", "groups",
		}
		keys = append(keys, scenarioArgColumns(row, spec.ScenarioSpec.Args)...)

		classes := make([]string, len(spec.MetricSpecs))
		for i, m := range spec.MetricSpecs {
			classes[i] = m.ClassName
		}
		row["metric_classes"] = listCell(classes)
		keys = append(keys, "metric_classes")

		t.Append(row, keys...)
	}
	t.SortBy(ColRunID)
	return t, nil
}

// Instances returns one row per evaluation instance.
func Instances(root string) (*table.Table, error) {
	paths, err := findFiles(root, model.InstancesFile)
	if err != nil {
		return nil, err
	}

	t := table.New(ColRunID, ColModel, ColScenarioClass, "instance_id", ColSplit,
		"input_text", "num_references", "reference_texts", "reference_tags")
	for _, p := range paths {
		var instances []model.Instance
		if err := readJSON(p, &instances); err != nil {
			output.Logger.Warn("Skipping unreadable instances file", "path", p, "error", err)
			continue
		}
		spec := loadRunSpec(filepath.Join(filepath.Dir(p), model.RunSpecFile))
		for _, inst := range instances {
			texts, tags := referenceCells(inst.References)
			t.Append(table.Row{
				ColRunID:          scenarioRunID(p),
				ColModel:          orDefault(spec.AdapterSpec.Model, model.Unknown),
				ColScenarioClass:  orDefault(spec.ScenarioSpec.ClassName, model.Unknown),
				"instance_id":     inst.ID,
				ColSplit:          inst.Split,
				"input_text":      inst.Input.Text,
				"num_references":  strconv.Itoa(len(inst.References)),
				"reference_texts": texts,
				"reference_tags":  tags,
			})
		}
	}
	t.SortBy(ColRunID, "instance_id")
	return t, nil
}

func referenceCells(refs []model.Reference) (texts, tags string) {
	textList := make([]string, len(refs))
	tagList := make([]string, len(refs))
	for i, r := range refs {
		textList[i] = r.Output.Text
		tagList[i] = listCell(r.Tags)
	}
	return listCell(textList), listCell(tagList)
}

// PerInstanceStats returns one row per stat of every instance.
func PerInstanceStats(root string) (*table.Table, error) {
	paths, err := findFiles(root, model.PerInstanceStatsFile)
	if err != nil {
		return nil, err
	}

	t := table.New(ColRunID, ColModel, "instance_id", "train_trial_index")
	for _, p := range paths {
		var entries []model.PerInstanceStats
		if err := readJSON(p, &entries); err != nil {
			output.Logger.Warn("Skipping unreadable per-instance stats", "path", p, "error", err)
			continue
		}
		spec := loadRunSpec(filepath.Join(filepath.Dir(p), model.RunSpecFile))
		for _, e := range entries {
			for _, stat := range e.Stats {
				row := table.Row{
					ColRunID:            scenarioRunID(p),
					ColModel:            orDefault(spec.AdapterSpec.Model, model.Unknown),
					"instance_id":       e.InstanceID,
					"train_trial_index": orDefault(e.TrainTrialIndex.String(), "0"),
				}
				keys := []string{ColRunID, ColModel, "instance_id", "train_trial_index"}
				keys = append(keys, flattenName(row, stat["name"])...)
				keys = append(keys, flattenStats(row, stat)...)
				t.Append(row, keys...)
			}
		}
	}
	t.SortBy(ColRunID, "instance_id", ColMetricName)
	return t, nil
}

// ScenarioMetadata returns one row per scenario.json.
func ScenarioMetadata(root string) (*table.Table, error) {
	paths, err := findFiles(root, model.ScenarioFile)
	if err != nil {
		return nil, err
	}

	t := table.New(ColRunID, "scenario_name", "scenario_description", "scenario_tags", "definition_path")
	for _, p := range paths {
		var sc model.Scenario
		if err := readJSON(p, &sc); err != nil {
			output.Logger.Warn("Skipping unreadable scenario file", "path", p, "error", err)
			continue
		}
		t.Append(table.Row{
			ColRunID:               scenarioRunID(p),
			"scenario_name":        sc.Name,
			"scenario_description": sc.Description,
			"scenario_tags":        listCell(sc.Tags),
			"definition_path":      sc.DefinitionPath,
		})
	}
	t.SortBy(ColRunID)
	return t, nil
}

var scenarioStateColumns = []string{
	ColRunID, "instance_id", ColSplit, "input_text", "train_trial_index",
	"num_train_instances", ColModel, "temperature", "max_tokens",
	"num_completions", "stop_sequences", "prompt", "success", "cached",
	"request_time", "request_datetime", "completion_text", "completion_logprob",
	"num_tokens", "method", "instructions", "input_prefix", "output_prefix",
	"prompt_truncated", "num_conditioning_tokens", "num_references",
	"reference_texts",
}

// ScenarioState returns one row per request state with the request and the
// first completion.
func ScenarioState(root string) (*table.Table, error) {
	paths, err := findFiles(root, model.ScenarioStateFile)
	if err != nil {
		return nil, err
	}

	t := table.New(scenarioStateColumns...)
	for _, p := range paths {
		var state model.ScenarioState
		if err := readJSON(p, &state); err != nil {
			output.Logger.Warn("Skipping unreadable scenario state", "path", p, "error", err)
			continue
		}
		a := state.AdapterSpec
		for _, rs := range state.RequestStates {
			result := model.RequestResult{}
			if rs.Result != nil {
				result = *rs.Result
			}
			var completion model.Completion
			if len(result.Completions) > 0 {
				completion = result.Completions[0]
			}
			texts, _ := referenceCells(rs.Instance.References)

			t.Append(table.Row{
				ColRunID:                  scenarioRunID(p),
				"instance_id":             rs.Instance.ID,
				ColSplit:                  rs.Instance.Split,
				"input_text":              rs.Instance.Input.Text,
				"train_trial_index":       orDefault(rs.TrainTrialIndex.String(), "0"),
				"num_train_instances":     orDefault(rs.NumTrainInstances.String(), "0"),
				ColModel:                  rs.Request.Model,
				"temperature":             rs.Request.Temperature.String(),
				"max_tokens":              rs.Request.MaxTokens.String(),
				"num_completions":         rs.Request.NumCompletions.String(),
				"stop_sequences":          listCell(rs.Request.StopSequences),
				"prompt":                  rs.Request.Prompt,
				"success":                 strconv.FormatBool(result.Success),
				"cached":                  strconv.FormatBool(result.Cached),
				"request_time":            result.RequestTime.String(),
				"request_datetime":        result.RequestDatetime.String(),
				"completion_text":         completion.Text,
				"completion_logprob":      completion.Logprob.String(),
				"num_tokens":              strconv.Itoa(len(completion.Tokens)),
				"method":                  a.Method,
				"instructions":            a.Instructions,
				"input_prefix":            a.InputPrefix,
				"output_prefix":           a.OutputPrefix,
				"prompt_truncated":        strconv.FormatBool(rs.PromptTruncated),
				"num_conditioning_tokens": orDefault(rs.NumConditioningTokens.String(), "0"),
				"num_references":          strconv.Itoa(len(rs.Instance.References)),
				"reference_texts":         texts,
			})
		}
	}
	t.SortBy(ColRunID, "instance_id")
	return t, nil
}
