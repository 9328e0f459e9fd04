/*
PURPOSE:
  Writes the benchmark summary into a DuckDB database file so the dashboard
  can query it without parsing CSV.

REQUIREMENTS:
  Implementation-discovered:
  - The snapshot is rebuilt from scratch on every write.
  - Statistic columns are DOUBLE, run_timestamp is TIMESTAMP and run_date is
    DATE; everything else is VARCHAR. Empty cells become NULL.

ARCHITECTURE INTEGRATION:
  - Called by: internal/extract
  - Served by: internal/dashboard (/data/)

ERROR HANDLING:
  - Every database error is wrapped with the step that failed.
  - A failed write leaves the previous snapshot in place.

RELATED FILES:
  - internal/extract/columns.go (StatColumns)
*/

package duckexport

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/daryltucker/daily-bench/internal/table"
)

// TableName is the name of the summary table inside the database.
const TableName = "benchmark_summary"

// Schema types the columns of the exported table.
type Schema struct {
	Double    []string
	Timestamp []string
	Date      []string
}

func (s Schema) sqlType(column string) string {
	switch {
	case slices.Contains(s.Double, column):
		return "DOUBLE"
	case slices.Contains(s.Timestamp, column):
		return "TIMESTAMP"
	case slices.Contains(s.Date, column):
		return "DATE"
	default:
		return "VARCHAR"
	}
}

// Write replaces the database at path with a single table holding t.
func Write(ctx context.Context, path string, t *table.Table, schema Schema) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("duckdb: create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := removeDB(tmp); err != nil {
		return err
	}

	if err := writeDB(ctx, tmp, t, schema); err != nil {
		_ = removeDB(tmp)
		return err
	}
	// A WAL left by an earlier snapshot would be replayed onto the new file.
	if err := os.Remove(path + ".wal"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("duckdb: remove stale wal: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("duckdb: replace %s: %w", path, err)
	}
	return nil
}

func writeDB(ctx context.Context, path string, t *table.Table, schema Schema) error {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("duckdb: open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createStatement(t.Columns, schema)); err != nil {
		return fmt.Errorf("duckdb: create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("duckdb: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertStatement(t.Columns))
	if err != nil {
		return fmt.Errorf("duckdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for i, r := range t.Rows {
		for j, c := range t.Columns {
			args[j] = value(r[c], schema.sqlType(c))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("duckdb: insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("duckdb: commit: %w", err)
	}
	return db.Close()
}

func createStatement(columns []string, schema Schema) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " " + schema.sqlType(c)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(defs, ", "))
}

func insertStatement(columns []string) string {
	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(names, ", "), strings.Join(marks, ", "))
}

// value converts a cell to a driver argument for the column type. Cells that
// do not parse are stored as NULL.
func value(cell, sqlType string) any {
	if cell == "" {
		return nil
	}
	switch sqlType {
	case "DOUBLE":
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil
		}
		return f
	case "TIMESTAMP":
		ts, err := time.Parse("2006-01-02 15:04:05", cell)
		if err != nil {
			return nil
		}
		return ts
	case "DATE":
		d, err := time.Parse("2006-01-02", cell)
		if err != nil {
			return nil
		}
		return d
	default:
		return cell
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func removeDB(path string) error {
	for _, p := range []string{path, path + ".wal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("duckdb: remove %s: %w", p, err)
		}
	}
	return nil
}
