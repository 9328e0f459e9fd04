/*
PURPOSE:
  Appends one row per evaluation to the metrics log CSV.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Fixed base columns: date, model, avg, std.
  - Task columns follow, sorted alphabetically.

  Implementation-discovered:
  - A row may carry a task the header lacks. Appending it blindly would
    misalign columns, so the file is rewritten with the union header first.
  - Rows missing a task leave that cell empty.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Recorder)
  - Consumes: internal/model.Evaluation

ERROR HANDLING:
  - Returns error on file creation, read or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Mutex guards concurrent appends from one process.

USAGE:
  log := output.NewMetricsLog("results/metrics.csv")
  log.Append(eval)

RELATED FILES:
  - internal/model/types.go
  - internal/table/csv.go
*/

package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/daryltucker/daily-bench/internal/model"
	"github.com/daryltucker/daily-bench/internal/table"
)

// BaseFields lead every metrics log row.
var BaseFields = []string{"date", "model", "avg", "std"}

// MetricsLog handles appending evaluations to a CSV file.
type MetricsLog struct {
	path string
	mu   sync.Mutex
}

// NewMetricsLog returns a log writing to path. Nothing is touched on disk
// until the first Append.
func NewMetricsLog(path string) *MetricsLog {
	return &MetricsLog{path: path}
}

// Path returns the log file location.
func (l *MetricsLog) Path() string {
	return l.path
}

// Append writes one row for e, creating the file with a header when needed.
// It is thread-safe.
func (l *MetricsLog) Append(e model.Evaluation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := metricsRow(e)
	want := Header(e.Scores)

	header, err := l.readHeader()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		header = want
		if err := l.create(header); err != nil {
			return err
		}
	case err != nil:
		return err
	case !covers(header, want):
		header, err = l.widen(header, want)
		if err != nil {
			return err
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	record := make([]string, len(header))
	for i, col := range header {
		record[i] = row[col]
	}
	if err := w.Write(record); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Header returns the base fields followed by the sorted task names.
func Header(scores map[string]float64) []string {
	tasks := make([]string, 0, len(scores))
	for k := range scores {
		if !slices.Contains(BaseFields, k) {
			tasks = append(tasks, k)
		}
	}
	sort.Strings(tasks)
	return append(slices.Clone(BaseFields), tasks...)
}

func metricsRow(e model.Evaluation) table.Row {
	row := table.Row{
		"date":  e.Timestamp.UTC().Format(time.RFC3339),
		"model": e.Model,
		"avg":   formatScore(e.Avg),
		"std":   formatScore(e.Std),
	}
	for k, v := range e.Scores {
		if _, base := row[k]; !base {
			row[k] = formatScore(v)
		}
	}
	return row
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (l *MetricsLog) readHeader() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", l.path, err)
	}
	return header, nil
}

func (l *MetricsLog) create(header []string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", l.path, err)
	}
	return table.New(header...).WriteCSV(l.path)
}

// widen rewrites the log with every column of header plus the new task
// columns of want, keeping the base fields first and tasks sorted.
func (l *MetricsLog) widen(header, want []string) ([]string, error) {
	existing, err := table.ReadCSV(l.path)
	if err != nil {
		return nil, err
	}
	var tasks []string
	for _, c := range append(slices.Clone(header), want...) {
		if !slices.Contains(BaseFields, c) && !slices.Contains(tasks, c) {
			tasks = append(tasks, c)
		}
	}
	sort.Strings(tasks)
	existing.Columns = append(slices.Clone(BaseFields), tasks...)
	if err := existing.WriteCSV(l.path); err != nil {
		return nil, err
	}
	Logger.Info("Widened metrics log header", "path", l.path, "columns", len(existing.Columns))
	return existing.Columns, nil
}

func covers(header, want []string) bool {
	for _, c := range want {
		if !slices.Contains(header, c) {
			return false
		}
	}
	return true
}
