package table

import (
	"maps"
	"slices"
)

// LeftJoin keeps every row of left and attaches the matching rows of right on
// the key columns. A left row with several matches is repeated once per
// match. Right-hand columns whose names clash with left columns get suffix
// appended.
func LeftJoin(left, right *Table, on []string, suffix string) *Table {
	rename := make(map[string]string)
	out := New(left.Columns...)
	for _, c := range right.Columns {
		if slices.Contains(on, c) {
			continue
		}
		name := c
		if left.Has(c) {
			name = c + suffix
		}
		rename[c] = name
		out.addColumn(name)
	}

	index := make(map[string][]Row)
	for _, r := range right.Rows {
		k := keyOf(r, on)
		index[k] = append(index[k], r)
	}

	for _, l := range left.Rows {
		matches := index[keyOf(l, on)]
		if len(matches) == 0 {
			out.Rows = append(out.Rows, maps.Clone(l))
			continue
		}
		for _, m := range matches {
			row := maps.Clone(l)
			for from, to := range rename {
				if v, ok := m[from]; ok {
					row[to] = v
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Project returns a table with only the named columns that exist.
func (t *Table) Project(columns ...string) *Table {
	var keep []string
	for _, c := range columns {
		if t.Has(c) {
			keep = append(keep, c)
		}
	}
	out := New(keep...)
	for _, r := range t.Rows {
		row := make(Row, len(keep))
		for _, c := range keep {
			if v, ok := r[c]; ok {
				row[c] = v
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func keyOf(r Row, on []string) string {
	parts := make([]string, len(on))
	for i, c := range on {
		parts[i] = r[c]
	}
	return joinKey(parts)
}
