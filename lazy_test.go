package listsim

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		NewSeriesUInt64WithNulls("list_a", []uint64{3, 10, 0, math.MaxUint64}, []bool{true, true, false, true}),
		NewSeriesInt64("list_b", []int64{4, 20, 5, 1}),
		NewSeriesInt32("small", []int32{1, 2, 3, 4}),
		NewSeriesString("label", []string{"w", "x", "y", "z"}),
		NewSeriesListInt64("tags", [][]int64{{1}, {1, 2}, {}, nil}, []bool{true, true, true, false}),
	)
	require.NoError(t, err)
	return df
}

// ============================================================================
// LazySum
// ============================================================================

func TestLazySum(t *testing.T) {
	out, err := LazySumDefault(sumFrame(t).Lazy()).Collect()
	require.NoError(t, err)

	require.Equal(t, []string{"list_a"}, out.ColumnNames())
	col := out.ColumnByName("list_a")
	require.Equal(t, UInt64, col.DType())

	v, ok := col.AtU64(0)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), v)
	v, _ = col.AtU64(1)
	assert.Equal(t, uint64(30), v)
	assert.True(t, col.IsNull(2), "a null input gives a null row")
	v, ok = col.AtU64(3)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), v, "MaxUint64 + 1 wraps")
}

func TestLazySumWidensIntegers(t *testing.T) {
	out, err := LazySum(sumFrame(t).Lazy(), "small", "list_b").Collect()
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 22, 8, 5}, out.ColumnByName("small").UInt64())

	neg, err := NewDataFrame(
		NewSeriesInt64("a", []int64{-1}),
		NewSeriesInt64("b", []int64{1}),
	)
	require.NoError(t, err)
	out, err = LazySum(neg.Lazy(), "a", "b").Collect()
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, out.ColumnByName("a").UInt64())
}

func TestLazySumAs(t *testing.T) {
	out, err := LazySumAs(sumFrame(t).Lazy(), "list_a", "list_b", "total").Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"total"}, out.ColumnNames())

	withTotal, err := sumFrame(t).Lazy().WithColumn("total", SumExpr("list_a", "list_b")).Collect()
	require.NoError(t, err)
	assert.Equal(t, 6, withTotal.Width())
	assert.Equal(t, "total", withTotal.ColumnAt(5).Name())
}

func TestLazySumSchema(t *testing.T) {
	schema, err := LazySumDefault(sumFrame(t).Lazy()).Schema()
	require.NoError(t, err)
	require.Equal(t, 1, schema.Len())
	f, _ := schema.Field("list_a")
	assert.Equal(t, UInt64, f.DType)

	_, err = LazySum(sumFrame(t).Lazy(), "list_a", "missing").Schema()
	assert.ErrorIs(t, err, ErrColumnNotFound)

	_, err = LazySum(sumFrame(t).Lazy(), "list_a", "label").Schema()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "label", colErr.Column)

	_, err = LazySum(sumFrame(t).Lazy(), "tags", "list_b").Collect()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestLazySumIsDeferred(t *testing.T) {
	calls := 0
	counting := func(df *DataFrame) (*DataFrame, error) {
		calls++
		return df, nil
	}

	lf := LazySumDefault(sumFrame(t).Lazy().Apply(counting, ApplyOptions{Name: "count"}))
	assert.Equal(t, 0, calls, "building the plan must not run it")

	_, err := lf.Collect()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

// ============================================================================
// Lazy Jaccard
// ============================================================================

func TestLazyParallelJaccard(t *testing.T) {
	df, err := NewDataFrame(
		NewSeriesListInt64("a", [][]int64{{1, 2, 3}, {4, 5}, {}}, nil),
		NewSeriesListInt64("b", [][]int64{{2, 3, 4}, {4, 5}, {}}, nil),
		NewSeriesString("other", []string{"x", "y", "z"}),
	)
	require.NoError(t, err)

	lf := df.Lazy().ParallelJaccard("a", "b")

	schema, err := lf.Schema()
	require.NoError(t, err)
	assert.Equal(t, []string{JaccardColumn}, schema.Names())

	assert.Contains(t, lf.Explain(), "columns=[a b]")

	out, err := lf.Collect()
	require.NoError(t, err)
	col := out.ColumnByName(JaccardColumn)
	require.NotNil(t, col)
	assert.Equal(t, 0.5, col.Get(0))
	assert.Equal(t, 1.0, col.Get(1))
	v, _ := col.AtF64(2)
	assert.True(t, math.IsNaN(v))

	_, err = df.Lazy().ParallelJaccard("a", "other").Collect()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = df.Lazy().ParallelJaccard("a", "zzz").Schema()
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

// ============================================================================
// Expressions
// ============================================================================

func TestLazySelectExpressions(t *testing.T) {
	df := sumFrame(t)

	out, err := df.Lazy().Select(
		Col("list_b").Add(Lit(1)).Alias("b1"),
		Col("small").Mul(Col("list_b")).Alias("prod"),
		Col("list_b").Sub(Lit(0.5)).Alias("half"),
		Col("list_a").IsNull().Alias("missing"),
		Col("tags").List().Len().Alias("n"),
		Lit("k").Alias("const"),
	).Collect()
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 21, 6, 2}, out.ColumnByName("b1").Int64())
	assert.Equal(t, []int64{4, 40, 15, 4}, out.ColumnByName("prod").Int64())
	assert.Equal(t, []float64{3.5, 19.5, 4.5, 0.5}, out.ColumnByName("half").Float64())
	assert.Equal(t, []bool{false, false, true, false}, out.ColumnByName("missing").Bool())
	n := out.ColumnByName("n")
	assert.Equal(t, int32(2), n.Get(1))
	assert.True(t, n.IsNull(3))
	assert.Equal(t, []string{"k", "k", "k", "k"}, out.ColumnByName("const").Strings())
}

func TestLazyStructExpressions(t *testing.T) {
	df := sumFrame(t)

	packed := df.Lazy().WithColumn("pair", StructOf(Col("list_b"), Col("small")))
	out, err := packed.Select(Col("pair").Field("small").Alias("s")).Collect()
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4}, out.ColumnByName("s").Int32())

	_, err = packed.Select(Col("pair").Field("nope")).Schema()
	assert.ErrorIs(t, err, ErrColumnNotFound)
	_, err = df.Lazy().Select(Col("label").Field("x")).Schema()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestLazyMapExpression(t *testing.T) {
	double := func(s *Series) (*Series, error) {
		vals := s.Int64()
		out := make([]int64, len(vals))
		for i, v := range vals {
			out[i] = 2 * v
		}
		return NewSeriesInt64("ignored", out), nil
	}

	out, err := sumFrame(t).Lazy().Select(Col("list_b").Map(double, Int64)).Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"list_b"}, out.ColumnNames(), "map keeps the input name")
	assert.Equal(t, []int64{8, 40, 10, 2}, out.ColumnByName("list_b").Int64())

	// the function must honor its declared type
	_, err = sumFrame(t).Lazy().Select(Col("list_b").Map(double, Float64)).Collect()
	assert.ErrorIs(t, err, ErrTypeMismatch)

	short := func(s *Series) (*Series, error) { return s.Head(1), nil }
	_, err = sumFrame(t).Lazy().Select(Col("list_b").Map(short, Int64)).Collect()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLazyArithmeticTypeErrors(t *testing.T) {
	_, err := sumFrame(t).Lazy().Select(Col("label").Add(Lit(1))).Schema()
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = sumFrame(t).Lazy().Select(Col("list_b").Add(Lit(struct{}{}))).Schema()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

// ============================================================================
// Plans
// ============================================================================

func TestLazyHead(t *testing.T) {
	out, err := sumFrame(t).Lazy().Head(2).Collect()
	require.NoError(t, err)
	assert.Equal(t, 2, out.Height())
	assert.Equal(t, 5, out.Width())
}

func TestLazyApplyUnknownSchema(t *testing.T) {
	lf := sumFrame(t).Lazy().Apply(func(df *DataFrame) (*DataFrame, error) {
		return df.Select("label")
	}, ApplyOptions{Name: "labels"})

	_, err := lf.Schema()
	assert.ErrorIs(t, err, errSchemaUnknown)

	out, err := lf.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"label"}, out.ColumnNames())

	failing := sumFrame(t).Lazy().Apply(func(df *DataFrame) (*DataFrame, error) {
		return nil, errors.New("boom")
	}, ApplyOptions{Name: "fail"})
	_, err = failing.Collect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply fail: boom")
}

func TestProjectionPushdown(t *testing.T) {
	lf := LazySumDefault(sumFrame(t).Lazy())

	explain := lf.Explain()
	assert.Contains(t, explain, "columns=[list_a list_b]")
	assert.NotContains(t, lf.Describe(), "columns=")

	lines := strings.Split(strings.TrimSpace(explain), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Project"))
	assert.True(t, strings.HasPrefix(lines[1], "  Scan"))

	// a WithColumn that feeds the projection keeps its inputs
	lf = sumFrame(t).Lazy().WithColumn("extra", Col("small").Add(Lit(1))).Select(Col("extra"))
	assert.Contains(t, lf.Explain(), "columns=[small]")
}

func TestUnusedWithColumnIsEliminated(t *testing.T) {
	lf := LazySumDefault(sumFrame(t).Lazy().WithColumn("extra", Col("small").Add(Lit(1))))

	assert.Contains(t, lf.Describe(), "WithColumn")
	explain := lf.Explain()
	assert.NotContains(t, explain, "WithColumn")
	assert.Contains(t, explain, "columns=[list_a list_b]")

	out, err := lf.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"list_a"}, out.ColumnNames())
}

func TestPlanOpString(t *testing.T) {
	ops := map[PlanOp]string{
		PlanScan:        "Scan",
		PlanScanParquet: "ScanParquet",
		PlanScanJSON:    "ScanJSON",
		PlanScanIPC:     "ScanIPC",
		PlanProject:     "Project",
		PlanWithColumn:  "WithColumn",
		PlanLimit:       "Limit",
		PlanApply:       "Apply",
		PlanOp(99):      "Unknown",
	}
	for op, want := range ops {
		assert.Equal(t, want, op.String())
	}
}
