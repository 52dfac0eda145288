package listsim

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONRecords(t *testing.T) {
	input := `[
		{"b": [2, 3, 4], "a": [1, 2, 3], "n": 1, "x": 0.5, "s": "hi", "ok": true},
		{"b": [4, 5], "a": [4, null], "n": null, "x": 2, "s": null, "ok": false},
		{"b": [], "a": null, "n": 3}
	]`

	df, err := ReadJSONFromReader(strings.NewReader(input))
	require.NoError(t, err)

	// columns come back sorted by name
	assert.Equal(t, []string{"a", "b", "n", "ok", "s", "x"}, df.ColumnNames())
	assert.Equal(t, 3, df.Height())

	a := df.ColumnByName("a")
	assert.Equal(t, "List[Int64]", a.TypeString())
	row, ok := a.ListInt64(0)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, row)
	assert.Equal(t, []interface{}{int64(4), nil}, a.Get(1))
	assert.True(t, a.IsNull(2))

	b := df.ColumnByName("b")
	assert.Equal(t, 0, b.ListLen(2))
	assert.False(t, b.IsNull(2))

	n := df.ColumnByName("n")
	assert.Equal(t, Int64, n.DType())
	assert.True(t, n.IsNull(1))

	x := df.ColumnByName("x")
	assert.Equal(t, Float64, x.DType(), "Int64 and Float64 unify to Float64")
	assert.Equal(t, 2.0, x.Get(1))
	assert.True(t, x.IsNull(2), "a missing key is null")

	assert.Equal(t, String, df.ColumnByName("s").DType())
	assert.Equal(t, Bool, df.ColumnByName("ok").DType())
}

func TestReadJSONTypeInference(t *testing.T) {
	df, err := ReadJSONFromReader(strings.NewReader(`{"big": [1, 18446744073709551615], "f": [[0.5, 1], null], "none": [null, null]}`),
		JSONReadOptions{Format: JSONColumns})
	require.NoError(t, err)

	assert.Equal(t, UInt64, df.ColumnByName("big").DType())
	assert.Equal(t, []uint64{1, math.MaxUint64}, df.ColumnByName("big").UInt64())
	assert.Equal(t, "List[Float64]", df.ColumnByName("f").TypeString())
	assert.Equal(t, Null, df.ColumnByName("none").DType())

	_, err = ReadJSONFromReader(strings.NewReader(`[{"a": 1}, {"a": "x"}]`))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ReadJSONFromReader(strings.NewReader(`[{"a": [1, "x"]}]`))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ReadJSONFromReader(strings.NewReader(`[{"a": {"nested": 1}}]`))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ReadJSONFromReader(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	df := ioFrame(t)

	for _, format := range []JSONFormat{JSONRecords, JSONColumns, JSONLines} {
		var buf bytes.Buffer
		require.NoError(t, df.WriteJSONToWriter(&buf, JSONWriteOptions{Format: format}))

		back, err := ReadJSONFromReader(&buf, JSONReadOptions{Format: format})
		require.NoError(t, err, "format %d", format)

		// JSON round trips reorder columns by name
		sorted, err := df.Select(back.ColumnNames()...)
		require.NoError(t, err)
		// count holds 1<<63, which only fits unsigned
		assert.Equal(t, UInt64, back.ColumnByName("count").DType())
		assert.True(t, back.Equal(sorted), "format %d changed the frame:\n%s", format, back)
	}
}

func TestWriteJSONNaN(t *testing.T) {
	df, err := NewDataFrame(
		NewSeriesFloat64("v", []float64{math.NaN(), math.Inf(1), 1.5}),
		NewSeriesListFloat64("l", [][]float64{{math.NaN()}, {}, {2.5}}, nil),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, df.WriteJSONToWriter(&buf, JSONWriteOptions{Format: JSONLines}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.JSONEq(t, `{"v": null, "l": [null]}`, lines[0])
	assert.JSONEq(t, `{"v": null, "l": []}`, lines[1])
	assert.JSONEq(t, `{"v": 1.5, "l": [2.5]}`, lines[2])
}

func TestJSONFileAndLazyScan(t *testing.T) {
	df := ioFrame(t)
	path := filepath.Join(t.TempDir(), "frame.ndjson")
	require.NoError(t, df.WriteJSON(path, JSONWriteOptions{Format: JSONLines}))

	opts := JSONReadOptions{Format: JSONLines}
	back, err := ReadJSON(path, opts)
	require.NoError(t, err)
	assert.Equal(t, df.Height(), back.Height())

	lf := ScanJSON(path, opts).ParallelJaccard("tags", "tags")
	assert.Contains(t, lf.Explain(), "columns=[tags]")

	out, err := lf.Collect()
	require.NoError(t, err)
	col := out.ColumnByName(JaccardColumn)
	assert.Equal(t, 1.0, col.Get(0))
	assert.True(t, col.IsNull(1))
	assert.Equal(t, 1.0, col.Get(2))
}
