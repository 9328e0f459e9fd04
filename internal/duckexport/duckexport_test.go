package duckexport

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/daily-bench/internal/table"
)

func summary() *table.Table {
	t := table.New("model", "run_timestamp", "run_date", "mean", "note")
	t.Append(table.Row{"model": "m1", "run_timestamp": "2025-06-08 11:22:20", "run_date": "2025-06-08", "mean": "0.75", "note": "it's"})
	t.Append(table.Row{"model": "m2", "mean": "n/a"})
	return t
}

var schema = Schema{Double: []string{"mean"}, Timestamp: []string{"run_timestamp"}, Date: []string{"run_date"}}

func TestWriteTypedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "summary.duckdb")
	require.NoError(t, Write(context.Background(), path, summary(), schema))

	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM benchmark_summary").Scan(&count))
	assert.Equal(t, 2, count)

	var mean sql.NullFloat64
	var note sql.NullString
	var year int
	require.NoError(t, db.QueryRow(
		`SELECT mean, note, year(run_timestamp) FROM benchmark_summary WHERE model = 'm1'`,
	).Scan(&mean, &note, &year))
	assert.InDelta(t, 0.75, mean.Float64, 1e-9)
	assert.Equal(t, "it's", note.String)
	assert.Equal(t, 2025, year)

	require.NoError(t, db.QueryRow(`SELECT mean FROM benchmark_summary WHERE model = 'm2'`).Scan(&mean))
	assert.False(t, mean.Valid)
}

func TestWriteReplacesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.duckdb")
	require.NoError(t, Write(context.Background(), path, summary(), schema))

	small := table.New("model")
	small.Append(table.Row{"model": "only"})
	require.NoError(t, Write(context.Background(), path, small, Schema{}))

	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM benchmark_summary").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWriteRemovesStaleWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.duckdb")
	require.NoError(t, Write(context.Background(), path, summary(), schema))
	require.NoError(t, os.WriteFile(path+".wal", []byte("left over from a crashed reader"), 0o644))

	require.NoError(t, Write(context.Background(), path, summary(), schema))
	assert.NoFileExists(t, path+".wal")

	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM benchmark_summary").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestCreateStatementQuotesIdentifiers(t *testing.T) {
	got := createStatement([]string{"model", `we"ird`, "mean"}, schema)
	assert.Equal(t, `CREATE TABLE benchmark_summary ("model" VARCHAR, "we""ird" VARCHAR, "mean" DOUBLE)`, got)
}
