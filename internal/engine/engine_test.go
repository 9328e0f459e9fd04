package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/daily-bench/internal/config"
	"github.com/daryltucker/daily-bench/internal/model"
	"github.com/daryltucker/daily-bench/internal/output"
)

func writeScript(t *testing.T, dir, body string) config.HarnessConfig {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bench.sh"), []byte(body), 0o644))
	return config.HarnessConfig{Dir: dir, Script: "bench.sh"}
}

func TestRunHarnessSuccess(t *testing.T) {
	dir := t.TempDir()
	h := writeScript(t, dir, "echo hello from $(basename \"$(pwd)\")\n")

	var stdout bytes.Buffer
	require.NoError(t, RunHarness(context.Background(), h, &stdout, &stdout))
	assert.Equal(t, "hello from "+filepath.Base(dir)+"\n", stdout.String())

	info, err := os.Stat(filepath.Join(dir, "bench.sh"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "script is made executable")
}

func TestRunHarnessExitStatus(t *testing.T) {
	h := writeScript(t, t.TempDir(), "exit 3\n")

	err := RunHarness(context.Background(), h, &bytes.Buffer{}, &bytes.Buffer{})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
}

func TestRunHarnessInterrupted(t *testing.T) {
	h := writeScript(t, t.TempDir(), "sleep 10\n")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := RunHarness(ctx, h, &bytes.Buffer{}, &bytes.Buffer{})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, InterruptExitCode, exitErr.Code)
}

func TestRunHarnessMissingScript(t *testing.T) {
	err := RunHarness(context.Background(), config.HarnessConfig{Dir: t.TempDir(), Script: "nope.sh"}, nil, nil)
	require.ErrorContains(t, err, "not found")
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestExpandCommand(t *testing.T) {
	h := config.HarnessConfig{
		EvalCommand: []string{"eval", "--model", "{provider}", "--args", "model={model}", "--tasks", "{tasks}", "-n", "{shots}"},
		Tasks:       []string{"a", "b"},
		Shots:       5,
	}
	argv, err := ExpandCommand(h, "hf", "gpt2")
	require.NoError(t, err)
	assert.Equal(t, []string{"eval", "--model", "hf", "--args", "model=gpt2", "--tasks", "a,b", "-n", "5"}, argv)

	_, err = ExpandCommand(config.HarnessConfig{}, "hf", "gpt2")
	assert.Error(t, err)
}

func TestParseScores(t *testing.T) {
	primary := []string{"acc,none", "acc"}

	nested := `{"results": {"arc": {"acc,none": 0.5, "acc_stderr,none": 0.01}, "hs": {"acc": 0.25}, "odd": {"x": 1}}, "configs": {}}`
	scores, err := ParseScores([]byte(nested), primary)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"arc": 0.5, "hs": 0.25}, scores)

	scores, err = ParseScores([]byte(`{"arc": 0.75}`), primary)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"arc": 0.75}, scores)

	_, err = ParseScores([]byte(`{"results": {}}`), primary)
	assert.Error(t, err)
	_, err = ParseScores([]byte(`not json`), primary)
	assert.Error(t, err)
}

func TestEvaluateRunsCommand(t *testing.T) {
	h := config.HarnessConfig{
		Dir:            t.TempDir(),
		EvalCommand:    []string{"sh", "-c", `printf '{"results": {"{tasks}": {"acc": 0.5}}}'`},
		Tasks:          []string{"arc"},
		PrimaryMetrics: []string{"acc"},
	}
	scores, err := Evaluate(context.Background(), h, "hf", "gpt2")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"arc": 0.5}, scores)

	h.EvalCommand = []string{"sh", "-c", "echo broken >&2; exit 2"}
	_, err = Evaluate(context.Background(), h, "hf", "gpt2")
	require.ErrorContains(t, err, "broken")
}

func TestMeanStdIsPopulation(t *testing.T) {
	avg, std := MeanStd(map[string]float64{"a": 0.2, "b": 0.4})
	assert.InDelta(t, 0.3, avg, 1e-12)
	assert.InDelta(t, 0.1, std, 1e-12)

	avg, std = MeanStd(nil)
	assert.Zero(t, avg)
	assert.Zero(t, std)
}

func fixedRecorder(t *testing.T) *Recorder {
	dir := t.TempDir()
	rec := NewRecorder(filepath.Join(dir, "raw"), filepath.Join(dir, "metrics.csv"))
	rec.Now = func() time.Time { return time.Date(2025, 6, 8, 11, 22, 20, 500, time.UTC) }
	rec.NewID = func() uuid.UUID { return uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8") }
	return rec
}

func TestRecorderRecord(t *testing.T) {
	rec := fixedRecorder(t)

	e, path, err := rec.Record("hf", "org/model", map[string]float64{"b": 0.4, "a": 0.2})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rec.RawDir, "2025-06-08T1122Z-org_model.json"), path)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", e.InvocationID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap model.Evaluation
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "hf", snap.Provider)
	assert.Equal(t, e.InvocationID, snap.InvocationID)
	assert.Equal(t, map[string]float64{"a": 0.2, "b": 0.4}, snap.Scores)

	logData, err := os.ReadFile(rec.Log.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(logData)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(output.BaseFields, ",")+",a,b", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2025-06-08T11:22:20Z,org/model,"))

	_, _, err = rec.Record("hf", "m", nil)
	assert.Error(t, err)
}

func TestRunWith(t *testing.T) {
	rec := fixedRecorder(t)
	cfg := config.DefaultConfig()
	cfg.Harness = config.HarnessConfig{
		Dir:            t.TempDir(),
		EvalCommand:    []string{"sh", "-c", `printf '{"arc": 1, "hs": 0}'`},
		PrimaryMetrics: []string{"acc"},
	}

	e, err := RunWith(context.Background(), cfg, "hf", "gpt2", rec)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, e.Avg, 1e-12)
	assert.InDelta(t, 0.5, e.Std, 1e-12)
}
