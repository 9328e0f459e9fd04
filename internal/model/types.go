/*
PURPOSE:
  Defines the on-disk JSON shapes produced by the benchmark harness and the
  evaluation record written by the evaluate command.

REQUIREMENTS:
  User-specified:
  - Read run_spec.json, stats.json, instances.json, per_instance_stats.json,
    scenario.json and scenario_state.json.
  - Missing fields must default per field, never fail the whole file.

  Implementation-discovered:
  - Numeric fields use json.Number so the literal spelling survives into CSV.
  - Free-form maps (scenario args, stat records) are decoded with UseNumber.

ARCHITECTURE INTEGRATION:
  - Used by: internal/harvest, internal/engine, internal/output

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Only model fields that are turned into columns.

RELATED FILES:
  - internal/harvest/json.go

MAINTENANCE:
  - Update when the harness adds fields worth surfacing.
*/

package model

import (
	"encoding/json"
	"time"
)

// File names the harness writes into each scenario directory.
const (
	StatsFile            = "stats.json"
	RunSpecFile          = "run_spec.json"
	InstancesFile        = "instances.json"
	PerInstanceStatsFile = "per_instance_stats.json"
	ScenarioFile         = "scenario.json"
	ScenarioStateFile    = "scenario_state.json"
)

// Unknown is the placeholder for metadata that a run does not provide.
const Unknown = "unknown"

// StatRecord is one entry of stats.json. The "name" key holds a nested
// mapping (name, split, sub_split, perturbation); the rest are aggregates.
type StatRecord map[string]any

// RunSpec is the subset of run_spec.json used for metadata columns.
type RunSpec struct {
	Name         string       `json:"name"`
	ScenarioSpec ScenarioSpec `json:"scenario_spec"`
	AdapterSpec  AdapterSpec  `json:"adapter_spec"`
	MetricSpecs  []MetricSpec `json:"metric_specs"`
	Groups       []string     `json:"groups"`
}

// ScenarioSpec names the scenario class and its constructor arguments.
type ScenarioSpec struct {
	ClassName string         `json:"class_name"`
	Args      map[string]any `json:"args"`
}

// AdapterSpec carries model and prompting parameters.
type AdapterSpec struct {
	Model             string      `json:"model"`
	ModelDeployment   string      `json:"model_deployment"`
	Method            string      `json:"method"`
	Temperature       json.Number `json:"temperature"`
	MaxTokens         json.Number `json:"max_tokens"`
	NumOutputs        json.Number `json:"num_outputs"`
	NumTrials         json.Number `json:"num_trials"`
	MaxTrainInstances json.Number `json:"max_train_instances"`
	MaxEvalInstances  json.Number `json:"max_eval_instances"`
	Instructions      string      `json:"instructions"`
	InputPrefix       string      `json:"input_prefix"`
	OutputPrefix      string      `json:"output_prefix"`
	StopSequences     []string    `json:"stop_sequences"`
}

// MetricSpec names one metric implementation used by a run.
type MetricSpec struct {
	ClassName string `json:"class_name"`
}

// Instance is one evaluation input with its references.
type Instance struct {
	ID         string      `json:"id"`
	Split      string      `json:"split"`
	Input      TextBlock   `json:"input"`
	References []Reference `json:"references"`
}

// TextBlock wraps a text payload.
type TextBlock struct {
	Text string `json:"text"`
}

// Reference is one gold output for an instance.
type Reference struct {
	Output TextBlock `json:"output"`
	Tags   []string  `json:"tags"`
}

// PerInstanceStats groups stat records for a single instance.
type PerInstanceStats struct {
	InstanceID      string       `json:"instance_id"`
	TrainTrialIndex json.Number  `json:"train_trial_index"`
	Stats           []StatRecord `json:"stats"`
}

// Scenario is the scenario.json description.
type Scenario struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	DefinitionPath string   `json:"definition_path"`
}

// ScenarioState is the scenario_state.json request/response log.
type ScenarioState struct {
	AdapterSpec   AdapterSpec    `json:"adapter_spec"`
	RequestStates []RequestState `json:"request_states"`
}

// RequestState is one request sent to the model and its result.
type RequestState struct {
	Instance              Instance       `json:"instance"`
	TrainTrialIndex       json.Number    `json:"train_trial_index"`
	NumTrainInstances     json.Number    `json:"num_train_instances"`
	PromptTruncated       bool           `json:"prompt_truncated"`
	NumConditioningTokens json.Number    `json:"num_conditioning_tokens"`
	Request               Request        `json:"request"`
	Result                *RequestResult `json:"result"`
}

// Request is the prompt payload sent to the model.
type Request struct {
	Model          string      `json:"model"`
	Temperature    json.Number `json:"temperature"`
	MaxTokens      json.Number `json:"max_tokens"`
	NumCompletions json.Number `json:"num_completions"`
	StopSequences  []string    `json:"stop_sequences"`
	Prompt         string      `json:"prompt"`
}

// RequestResult is the model response.
type RequestResult struct {
	Success         bool         `json:"success"`
	Cached          bool         `json:"cached"`
	RequestTime     json.Number  `json:"request_time"`
	RequestDatetime json.Number  `json:"request_datetime"`
	Completions     []Completion `json:"completions"`
}

// Completion is one sampled output.
type Completion struct {
	Text    string            `json:"text"`
	Logprob json.Number       `json:"logprob"`
	Tokens  []json.RawMessage `json:"tokens"`
}

// Evaluation represents the outcome of a single evaluate invocation.
type Evaluation struct {
	InvocationID string             `json:"invocation_id"`
	Provider     string             `json:"provider_interface"`
	Model        string             `json:"model"`
	Timestamp    time.Time          `json:"timestamp"`
	Scores       map[string]float64 `json:"scores"`
	Avg          float64            `json:"avg"`
	Std          float64            `json:"std"`
}
