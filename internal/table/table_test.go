package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRegistersColumns(t *testing.T) {
	tbl := New("a")
	tbl.Append(Row{"a": "1", "z": "2", "b": "3", "c": "4"}, "c")
	assert.Equal(t, []string{"a", "c", "b", "z"}, tbl.Columns)
	assert.Equal(t, 1, tbl.Len())
}

func TestSortByEmptyLast(t *testing.T) {
	tbl := New("k", "v")
	tbl.Append(Row{"k": "", "v": "1"})
	tbl.Append(Row{"k": "b", "v": "2"})
	tbl.Append(Row{"k": "a", "v": "3"})
	tbl.Append(Row{"k": "a", "v": "4"})

	tbl.SortBy("k", "missing")
	assert.Equal(t, []string{"3", "4", "2", "1"}, tbl.Values("v"))
}

func TestRenameDropReorder(t *testing.T) {
	tbl := New("run", "x", "run_hour", "y")
	tbl.Append(Row{"run": "r1", "x": "1", "run_hour": "3", "y": "2"})

	tbl.Rename("run", "run_id")
	assert.Equal(t, "r1", tbl.Rows[0]["run_id"])
	_, stale := tbl.Rows[0]["run"]
	assert.False(t, stale)

	tbl.Reorder([]string{"y", "nope", "run_id"}, "run_hour")
	assert.Equal(t, []string{"y", "run_id", "x"}, tbl.Columns)
	assert.NotContains(t, tbl.Rows[0], "run_hour")

	tbl.Drop("x")
	assert.Equal(t, []string{"y", "run_id"}, tbl.Columns)
}

func TestGroupByFirstSeenOrder(t *testing.T) {
	tbl := New("m", "s")
	tbl.Append(Row{"m": "b", "s": "1"})
	tbl.Append(Row{"m": "a", "s": "1"})
	tbl.Append(Row{"m": "b", "s": "1"})

	groups := tbl.GroupBy("m", "s")
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"b", "1"}, groups[0].Key)
	assert.Len(t, groups[0].Rows, 2)
	assert.Equal(t, []string{"a", "1"}, groups[1].Key)
}

func TestConcatAndUnique(t *testing.T) {
	a := New("x")
	a.Append(Row{"x": "1"})
	b := New("y", "x")
	b.Append(Row{"x": "1", "y": "2"})
	b.Append(Row{"x": ""})

	c := Concat(a, b)
	assert.Equal(t, []string{"x", "y"}, c.Columns)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"1"}, c.Unique("x"))
}

func TestLeftJoin(t *testing.T) {
	left := New("id", "v")
	left.Append(Row{"id": "1", "v": "a"})
	left.Append(Row{"id": "2", "v": "b"})
	right := New("id", "v", "w")
	right.Append(Row{"id": "1", "v": "x", "w": "p"})
	right.Append(Row{"id": "1", "v": "y", "w": "q"})

	out := LeftJoin(left, right, []string{"id"}, "_r")
	assert.Equal(t, []string{"id", "v", "v_r", "w"}, out.Columns)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"x", "y", ""}, out.Values("v_r"))
	assert.Equal(t, []string{"a", "a", "b"}, out.Values("v"))

	// inputs are untouched
	assert.NotContains(t, left.Rows[0], "w")
}

func TestCSVRoundTripIsByteStable(t *testing.T) {
	src := "model,run_id,note\nm1,r1,\"has, comma\"\nm2,r2,\"line\nbreak\"\nm3,r3,\n"
	tbl, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	var buf bytes.Buffer
	require.NoError(t, tbl.Encode(&buf))
	assert.Equal(t, src, buf.String())
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.Error(t, err)
}

func TestWriteCSVCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	tbl := New("a")
	tbl.Append(Row{"a": "1"})
	require.NoError(t, tbl.WriteCSV(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))

	back, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows, back.Rows)
}
