/*
PURPOSE:
  High-level runner for one evaluation: runs the evaluator for a
  provider/model pair and records the outcome.

REQUIREMENTS:
  User-specified:
  - Raw snapshot per evaluation under results/raw.
  - One metrics log row per evaluation.

  Implementation-discovered:
  - Output directories are created by the writers when first needed, never
    at startup.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (evaluate)
  - Uses: internal/engine (Evaluate, Recorder), internal/output

ERROR HANDLING:
  - Evaluator failures are returned; nothing is recorded for them.

USAGE:
  eval, err := engine.Run(ctx, cfg, "hf", "gpt2")

RELATED FILES:
  - internal/engine/evaluate.go
  - internal/engine/recorder.go
*/

package engine

import (
	"context"
	"fmt"

	"github.com/daryltucker/daily-bench/internal/config"
	"github.com/daryltucker/daily-bench/internal/model"
	"github.com/daryltucker/daily-bench/internal/output"
)

// Run evaluates one provider/model pair and records the scores.
func Run(ctx context.Context, cfg *config.Config, provider, modelName string) (*model.Evaluation, error) {
	return RunWith(ctx, cfg, provider, modelName, NewRecorder(cfg.RawDir, cfg.MetricsFile))
}

// RunWith is Run with an explicit recorder.
func RunWith(ctx context.Context, cfg *config.Config, provider, modelName string, rec *Recorder) (*model.Evaluation, error) {
	output.Logger.Info("Evaluating model", "provider", provider, "model", modelName)

	scores, err := Evaluate(ctx, cfg.Harness, provider, modelName)
	if err != nil {
		return nil, err
	}
	for task, v := range scores {
		output.Logger.Debug("Task score", "task", task, "score", v)
	}

	e, _, err := rec.Record(provider, modelName, scores)
	if err != nil {
		return nil, fmt.Errorf("failed to record evaluation: %w", err)
	}
	return e, nil
}
