package output

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/daily-bench/internal/model"
)

var ts = time.Date(2025, 6, 8, 11, 22, 20, 0, time.UTC)

func TestHeaderBaseFirstTasksSorted(t *testing.T) {
	got := Header(map[string]float64{"zeta": 1, "arc_easy": 2, "hellaswag": 3})
	assert.Equal(t, []string{"date", "model", "avg", "std", "arc_easy", "hellaswag", "zeta"}, got)
}

func TestMetricsLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "metrics.csv")
	log := NewMetricsLog(path)

	require.NoError(t, log.Append(model.Evaluation{Model: "m1", Timestamp: ts, Avg: 0.5, Std: 0.1, Scores: map[string]float64{"b": 0.4, "a": 0.6}}))
	require.NoError(t, log.Append(model.Evaluation{Model: "m2", Timestamp: ts, Avg: 0.7, Scores: map[string]float64{"a": 0.7}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"date,model,avg,std,a,b\n"+
			"2025-06-08T11:22:20Z,m1,0.5,0.1,0.6,0.4\n"+
			"2025-06-08T11:22:20Z,m2,0.7,0,0.7,\n",
		string(data))
}

func TestMetricsLogWidensHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	log := NewMetricsLog(path)

	require.NoError(t, log.Append(model.Evaluation{Model: "m1", Timestamp: ts, Scores: map[string]float64{"b": 1}}))
	require.NoError(t, log.Append(model.Evaluation{Model: "m2", Timestamp: ts, Scores: map[string]float64{"a": 2, "c": 3}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,model,avg,std,a,b,c", lines[0])
	assert.Equal(t, "2025-06-08T11:22:20Z,m1,0,0,,1,", lines[1])
	assert.Equal(t, "2025-06-08T11:22:20Z,m2,0,0,2,,3", lines[2])
}

func TestSnapshotPath(t *testing.T) {
	got := SnapshotPath("raw", ts, "openai/gpt-4o:mini")
	assert.Equal(t, filepath.Join("raw", "2025-06-08T1122Z-openai_gpt-4o_mini.json"), got)
}

func TestWriteJSONPretty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "snap.json")
	require.NoError(t, WriteJSON(path, map[string]float64{"a": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))
	var back map[string]float64
	require.NoError(t, json.Unmarshal(data, &back))
}

func TestConfigureLevel(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	Configure(&buf, "warn")
	Logger.Info("hidden")
	Logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "k=v")

	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
