// Package table is the small row/column store behind every CSV the
// pipeline reads or writes. Cells are text; a missing cell reads as "".
package table

import (
	"maps"
	"slices"
	"sort"
)

// Row maps column names to cell text.
type Row map[string]string

// Table is an ordered set of columns and the rows that fill them.
type Table struct {
	Columns []string
	Rows    []Row
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = maps.Clone(r)
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Has reports whether the table has the named column.
func (t *Table) Has(column string) bool {
	return slices.Contains(t.Columns, column)
}

// Append adds a row, registering any columns it introduces in the order
// given by keys. Keys not listed in keys are appended sorted so the column
// order stays deterministic.
func (t *Table) Append(row Row, keys ...string) {
	for _, k := range keys {
		t.addColumn(k)
	}
	var extra []string
	for k := range row {
		if !t.Has(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		t.addColumn(k)
	}
	t.Rows = append(t.Rows, row)
}

// AddColumns registers columns without adding rows.
func (t *Table) AddColumns(columns ...string) {
	for _, c := range columns {
		t.addColumn(c)
	}
}

func (t *Table) addColumn(name string) {
	if !t.Has(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Values returns the column's cells in row order.
func (t *Table) Values(column string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[column]
	}
	return out
}

// Unique returns the distinct non-empty values of a column in first-seen order.
func (t *Table) Unique(column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Rows {
		v := r[column]
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Rename changes a column name in place. It is a no-op when from is absent
// or to already exists.
func (t *Table) Rename(from, to string) {
	i := slices.Index(t.Columns, from)
	if i < 0 || t.Has(to) {
		return
	}
	t.Columns[i] = to
	for _, r := range t.Rows {
		if v, ok := r[from]; ok {
			r[to] = v
			delete(r, from)
		}
	}
}

// Drop removes the named columns.
func (t *Table) Drop(columns ...string) {
	t.Columns = slices.DeleteFunc(t.Columns, func(c string) bool {
		return slices.Contains(columns, c)
	})
	for _, r := range t.Rows {
		for _, c := range columns {
			delete(r, c)
		}
	}
}

// Filter returns a new table holding the rows for which keep returns true.
// Rows are shared, not copied.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.Columns...)
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Concat appends other's rows after t's rows into a new table. Columns of t
// come first, then columns only other has, in other's order.
func Concat(t, other *Table) *Table {
	out := New(t.Columns...)
	for _, c := range other.Columns {
		out.addColumn(c)
	}
	out.Rows = make([]Row, 0, len(t.Rows)+len(other.Rows))
	out.Rows = append(out.Rows, t.Rows...)
	out.Rows = append(out.Rows, other.Rows...)
	return out
}

// Reorder puts the columns in order: first the present members of lead in
// lead's order, then the remaining columns in their current order. Columns
// named in exclude are dropped.
func (t *Table) Reorder(lead []string, exclude ...string) {
	ordered := make([]string, 0, len(t.Columns))
	for _, c := range lead {
		if t.Has(c) && !slices.Contains(ordered, c) {
			ordered = append(ordered, c)
		}
	}
	for _, c := range t.Columns {
		if !slices.Contains(ordered, c) {
			ordered = append(ordered, c)
		}
	}
	t.Columns = slices.DeleteFunc(ordered, func(c string) bool {
		return slices.Contains(exclude, c)
	})
	if len(exclude) > 0 {
		for _, r := range t.Rows {
			for _, c := range exclude {
				delete(r, c)
			}
		}
	}
}

// SortBy stably sorts rows by the given columns in ascending text order.
// Columns the table lacks are ignored. Empty cells sort after non-empty ones.
func (t *Table) SortBy(columns ...string) {
	keys := make([]string, 0, len(columns))
	for _, c := range columns {
		if t.Has(c) {
			keys = append(keys, c)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return compareRows(t.Rows[i], t.Rows[j], keys) < 0
	})
}

func compareRows(a, b Row, keys []string) int {
	for _, k := range keys {
		av, bv := a[k], b[k]
		switch {
		case av == bv:
			continue
		case av == "":
			return 1
		case bv == "":
			return -1
		case av < bv:
			return -1
		default:
			return 1
		}
	}
	return 0
}

// GroupBy partitions rows by the values of the given columns, returning the
// groups in first-seen order.
func (t *Table) GroupBy(columns ...string) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range t.Rows {
		key := make([]string, len(columns))
		for i, c := range columns {
			key[i] = r[c]
		}
		k := joinKey(key)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// Group is one partition produced by GroupBy.
type Group struct {
	Key  []string
	Rows []Row
}

func joinKey(parts []string) string {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	b := make([]byte, 0, n)
	for _, p := range parts {
		b = append(b, p...)
		b = append(b, 0)
	}
	return string(b)
}
