package engine

import (
	"errors"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/daryltucker/daily-bench/internal/model"
	"github.com/daryltucker/daily-bench/internal/output"
)

// Recorder persists evaluations as raw snapshots plus a metrics log row.
type Recorder struct {
	RawDir string
	Log    *output.MetricsLog
	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() uuid.UUID
}

// NewRecorder returns a Recorder writing snapshots to rawDir and rows to the
// metrics log at metricsPath.
func NewRecorder(rawDir, metricsPath string) *Recorder {
	return &Recorder{
		RawDir: rawDir,
		Log:    output.NewMetricsLog(metricsPath),
		Now:    time.Now,
		NewID:  uuid.New,
	}
}

// Record writes the snapshot and appends the metrics row for one
// evaluation. It returns the recorded evaluation and the snapshot path.
func (r *Recorder) Record(provider, modelName string, scores map[string]float64) (*model.Evaluation, string, error) {
	if len(scores) == 0 {
		return nil, "", errors.New("no scores to record")
	}
	avg, std := MeanStd(scores)
	e := &model.Evaluation{
		InvocationID: r.NewID().String(),
		Provider:     provider,
		Model:        modelName,
		Timestamp:    r.Now().UTC().Truncate(time.Second),
		Scores:       scores,
		Avg:          avg,
		Std:          std,
	}

	path := output.SnapshotPath(r.RawDir, e.Timestamp, modelName)
	if err := output.WriteJSON(path, e); err != nil {
		return nil, "", err
	}
	if err := r.Log.Append(*e); err != nil {
		return nil, "", err
	}
	output.Logger.Info("Recorded evaluation",
		"model", modelName,
		"avg", avg,
		"snapshot", path,
		"invocation_id", e.InvocationID,
	)
	return e, path, nil
}

// MeanStd returns the population mean and standard deviation of the scores.
func MeanStd(scores map[string]float64) (float64, float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	// sum in key order so the result does not depend on map iteration
	keys := slices.Sorted(maps.Keys(scores))
	var sum float64
	for _, k := range keys {
		sum += scores[k]
	}
	mean := sum / float64(len(keys))
	var sq float64
	for _, k := range keys {
		d := scores[k] - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(keys)))
}
