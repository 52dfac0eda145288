package listsim

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ioFrame covers every column type the readers and writers support,
// including nulls at both levels of a list column
func ioFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		NewSeriesInt64WithNulls("id", []int64{1, 2, 3}, []bool{true, true, false}),
		NewSeriesListInt64WithNulls("tags",
			[][]int64{{1, 2, 3}, nil, {7, 0}},
			[]bool{true, false, true},
			[][]bool{nil, nil, {true, false}},
		),
		NewSeriesListInt64("empty", [][]int64{{}, {5}, {}}, nil),
		NewSeriesFloat64("score", []float64{0.5, 1, -2.25}),
		NewSeriesUInt64("count", []uint64{0, 1 << 63, 9}),
		NewSeriesString("name", []string{"a", "b", "c"}),
		NewSeriesBool("flag", []bool{true, false, true}),
	)
	require.NoError(t, err)
	return df
}

func TestArrowRecordRoundTrip(t *testing.T) {
	df := ioFrame(t)

	rec := df.ToArrow()
	defer rec.Release()
	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, int64(df.Width()), rec.NumCols())

	back, err := NewDataFrameFromArrow(rec)
	require.NoError(t, err)
	assert.True(t, back.Equal(df))

	_, err = NewDataFrameFromArrow(nil)
	assert.Error(t, err)
}

func TestIPCRoundTrip(t *testing.T) {
	df := ioFrame(t)

	var buf bytes.Buffer
	require.NoError(t, df.WriteIPCToWriter(&buf))

	back, err := ReadIPCFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, df.ColumnNames(), back.ColumnNames())
	assert.True(t, back.Equal(df), "round trip changed the frame:\n%s", back)
}

func TestIPCFile(t *testing.T) {
	df := ioFrame(t)
	path := filepath.Join(t.TempDir(), "frame.arrow")
	require.NoError(t, df.WriteIPC(path))

	schema, err := ReadIPCSchema(path)
	require.NoError(t, err)
	assert.Equal(t, df.ColumnNames(), schema.Names())
	f, _ := schema.Field("tags")
	assert.Equal(t, "List[Int64]", f.TypeString())

	back, err := ReadIPC(path)
	require.NoError(t, err)
	assert.True(t, back.Equal(df))

	// lazy scan with pushdown
	out, err := ScanIPC(path).ParallelJaccard("tags", "empty").Collect()
	require.NoError(t, err)
	col := out.ColumnByName(JaccardColumn)
	assert.Equal(t, 0.0, col.Get(0))
	assert.True(t, col.IsNull(1))
	assert.Equal(t, 0.0, col.Get(2))

	_, err = ReadIPC(filepath.Join(t.TempDir(), "missing.arrow"))
	assert.Error(t, err)
}

func TestIPCEmptyFrame(t *testing.T) {
	df := ioFrame(t).Head(0)

	var buf bytes.Buffer
	require.NoError(t, df.WriteIPCToWriter(&buf))

	back, err := ReadIPCFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, back.Height())
	assert.Equal(t, df.ColumnNames(), back.ColumnNames())
}
