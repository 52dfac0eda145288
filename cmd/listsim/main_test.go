package main

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NerdMeNot/listsim"
)

func writeListInput(t *testing.T, name string) string {
	t.Helper()
	df, err := listsim.NewDataFrame(
		listsim.NewSeriesListInt64("a", [][]int64{{1, 2, 3}, {4, 5}, {}}, nil),
		listsim.NewSeriesListInt64("b", [][]int64{{2, 3, 4}, {4, 5}, {}}, nil),
		listsim.NewSeriesInt64("x", []int64{3, 10, -1}),
		listsim.NewSeriesInt64("y", []int64{4, 20, 1}),
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, writeFrame(df, path))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestJaccardCommand(t *testing.T) {
	for _, ext := range []string{".parquet", ".arrow", ".json", ".ndjson"} {
		t.Run(ext, func(t *testing.T) {
			input := writeListInput(t, "in"+ext)
			output := filepath.Join(t.TempDir(), "out"+ext)

			code, _, stderr := runCLI(t, "jaccard", "--input", input, "--col-a", "a", "--col-b", "b", "--output", output, "--workers", "2")
			require.Equal(t, exitOK, code, stderr)

			out, err := readFrame(output)
			require.NoError(t, err)
			col, err := out.Column(listsim.JaccardColumn)
			require.NoError(t, err)
			require.Equal(t, 3, col.Len())

			assert.Equal(t, 0.5, col.Get(0))
			assert.Equal(t, 1.0, col.Get(1))
			if ext == ".json" || ext == ".ndjson" {
				// NaN is written as null
				assert.True(t, col.IsNull(2))
			} else {
				v, ok := col.AtF64(2)
				require.True(t, ok)
				assert.True(t, math.IsNaN(v))
			}
		})
	}
}

func TestJaccardCommandPrintsTable(t *testing.T) {
	input := writeListInput(t, "in.arrow")

	code, stdout, stderr := runCLI(t, "jaccard", "-i", input, "--col-a", "a", "--col-b", "b")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "jaccard")
	assert.Contains(t, stdout, "0.5000")
	assert.Contains(t, stdout, "NaN")
}

func TestSumCommand(t *testing.T) {
	input := writeListInput(t, "in.parquet")
	output := filepath.Join(t.TempDir(), "out.arrow")

	code, _, stderr := runCLI(t, "sum", "-i", input, "--col-a", "x", "--col-b", "y", "-o", output)
	require.Equal(t, exitOK, code, stderr)

	out, err := readFrame(output)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, out.ColumnNames())
	// -1 widens to MaxUint64 and wraps
	assert.Equal(t, []uint64{7, 30, 0}, out.ColumnByName("x").UInt64())
}

func TestSumCommandName(t *testing.T) {
	input := writeListInput(t, "in.arrow")
	output := filepath.Join(t.TempDir(), "out.arrow")

	code, _, stderr := runCLI(t, "sum", "-i", input, "--col-a", "x", "--col-b", "y", "--name", "total", "-o", output)
	require.Equal(t, exitOK, code, stderr)

	out, err := readFrame(output)
	require.NoError(t, err)
	assert.Equal(t, []string{"total"}, out.ColumnNames())
}

func TestExitCodes(t *testing.T) {
	input := writeListInput(t, "in.arrow")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing column", []string{"jaccard", "-i", input, "--col-a", "a", "--col-b", "nope"}, exitColumnNotFound},
		{"jaccard on integers", []string{"jaccard", "-i", input, "--col-a", "x", "--col-b", "y"}, exitTypeMismatch},
		{"sum default columns", []string{"sum", "-i", input}, exitColumnNotFound},
		{"sum on lists", []string{"sum", "-i", input, "--col-a", "a", "--col-b", "b"}, exitTypeMismatch},
		{"unknown extension", []string{"jaccard", "-i", "in.csv", "--col-a", "a", "--col-b", "b"}, exitError},
		{"missing flag", []string{"jaccard", "--col-a", "a", "--col-b", "b"}, exitError},
		{"bad log format", []string{"--log-format", "xml", "sum", "-i", input}, exitError},
		{"negative workers", []string{"jaccard", "-i", input, "--col-a", "a", "--col-b", "b", "--workers", "-1"}, exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, tt.want, code, stderr)
			assert.Contains(t, stderr, "error:")
		})
	}
}

func TestDebugLogging(t *testing.T) {
	input := writeListInput(t, "in.arrow")
	defer listsim.SetLogger(nil)

	code, _, stderr := runCLI(t, "--log-level", "debug", "--log-format", "json", "jaccard", "-i", input, "--col-a", "a", "--col-b", "b")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, `"partitions"`)
}
