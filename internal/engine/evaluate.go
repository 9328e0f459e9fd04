package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/daryltucker/daily-bench/internal/config"
	"github.com/daryltucker/daily-bench/internal/output"
)

// ExpandCommand substitutes {provider}, {model}, {tasks} and {shots} in
// every argument of the evaluator command template.
func ExpandCommand(h config.HarnessConfig, provider, model string) ([]string, error) {
	if len(h.EvalCommand) == 0 {
		return nil, errors.New("no evaluator command configured")
	}
	r := strings.NewReplacer(
		"{provider}", provider,
		"{model}", model,
		"{tasks}", strings.Join(h.Tasks, ","),
		"{shots}", strconv.Itoa(h.Shots),
	)
	argv := make([]string, len(h.EvalCommand))
	for i, a := range h.EvalCommand {
		argv[i] = r.Replace(a)
	}
	return argv, nil
}

// Evaluate runs the evaluator for one provider/model pair and returns the
// score of every task it reported.
func Evaluate(ctx context.Context, h config.HarnessConfig, provider, model string) (map[string]float64, error) {
	argv, err := ExpandCommand(h, provider, model)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = h.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	output.Logger.Info("Running evaluator", "provider", provider, "model", model, "tasks", h.Tasks)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &ExitError{Code: InterruptExitCode, Err: ctx.Err()}
		}
		return nil, fmt.Errorf("evaluator failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	scores, err := ParseScores(stdout.Bytes(), h.PrimaryMetrics)
	if err != nil {
		return nil, err
	}
	for _, task := range h.Tasks {
		if _, ok := scores[task]; !ok {
			output.Logger.Warn("Evaluator reported no score for task", "task", task)
		}
	}
	return scores, nil
}

// ParseScores reads evaluator output. Accepted shapes are
// {"results": {task: number | {metric: number}}} and a flat {task: number}.
// For nested results the first key of primary present in the task object is
// the task score.
func ParseScores(data []byte, primary []string) (map[string]float64, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse evaluator output: %w", err)
	}
	if raw, ok := doc["results"]; ok {
		var results map[string]json.RawMessage
		if err := json.Unmarshal(raw, &results); err != nil {
			return nil, fmt.Errorf("failed to parse evaluator results: %w", err)
		}
		doc = results
	}

	tasks := make([]string, 0, len(doc))
	for k := range doc {
		tasks = append(tasks, k)
	}
	sort.Strings(tasks)

	scores := make(map[string]float64, len(doc))
	for _, task := range tasks {
		v, ok := taskScore(doc[task], primary)
		if !ok {
			output.Logger.Warn("Ignoring task without a usable score", "task", task)
			continue
		}
		scores[task] = v
	}
	if len(scores) == 0 {
		return nil, errors.New("evaluator output holds no scores")
	}
	return scores, nil
}

func taskScore(raw json.RawMessage, primary []string) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var metrics map[string]json.RawMessage
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return 0, false
	}
	for _, key := range primary {
		if v, ok := metrics[key]; ok {
			if err := json.Unmarshal(v, &f); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
