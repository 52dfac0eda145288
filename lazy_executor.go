package listsim

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// ============================================================================
// Plan Executor
// ============================================================================

// executePlan executes a logical plan and returns the resulting DataFrame
func executePlan(plan *LogicalPlan) (*DataFrame, error) {
	if plan == nil {
		return NewDataFrame()
	}

	switch plan.Op {
	case PlanScan:
		return executeScan(plan)

	case PlanScanParquet:
		return executeScanParquet(plan)

	case PlanScanJSON:
		return executeScanJSON(plan)

	case PlanScanIPC:
		return executeScanIPC(plan)

	case PlanProject:
		return executeProject(plan)

	case PlanWithColumn:
		return executeWithColumn(plan)

	case PlanLimit:
		return executeLimit(plan)

	case PlanApply:
		return executeApply(plan)

	default:
		return nil, fmt.Errorf("unknown plan operation: %v", plan.Op)
	}
}

// ============================================================================
// Scan Operations
// ============================================================================

func executeScan(plan *LogicalPlan) (*DataFrame, error) {
	if plan.Data == nil {
		return NewDataFrame()
	}
	return selectScanColumns(plan.Data, plan.ScanColumns)
}

func executeScanParquet(plan *LogicalPlan) (*DataFrame, error) {
	opt := DefaultParquetReadOptions()
	if len(plan.ParquetOpts) > 0 {
		opt = plan.ParquetOpts[0]
	}
	if plan.ScanColumns != nil {
		schema, err := ReadParquetSchema(plan.SourcePath)
		if err != nil {
			return nil, err
		}
		opt.Columns = restrictSchema(schema, plan.ScanColumns).Names()
	}
	return ReadParquet(plan.SourcePath, opt)
}

func executeScanJSON(plan *LogicalPlan) (*DataFrame, error) {
	df, err := ReadJSON(plan.SourcePath, plan.JSONOpts...)
	if err != nil {
		return nil, err
	}
	return selectScanColumns(df, plan.ScanColumns)
}

func executeScanIPC(plan *LogicalPlan) (*DataFrame, error) {
	df, err := ReadIPC(plan.SourcePath)
	if err != nil {
		return nil, err
	}
	return selectScanColumns(df, plan.ScanColumns)
}

// selectScanColumns keeps the pushed-down columns in source order
func selectScanColumns(df *DataFrame, columns []string) (*DataFrame, error) {
	if columns == nil {
		return df, nil
	}
	return df.Select(restrictSchema(df.Schema(), columns).Names()...)
}

// ============================================================================
// Projection
// ============================================================================

func executeProject(plan *LogicalPlan) (*DataFrame, error) {
	// Execute input
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}

	// Evaluate projections
	columns := make([]*Series, 0, len(plan.Projections))
	for _, expr := range plan.Projections {
		col, err := evaluateExpr(expr, df)
		if err != nil {
			return nil, fmt.Errorf("projection error: %w", err)
		}
		columns = append(columns, col)
	}

	return NewDataFrame(columns...)
}

// ============================================================================
// WithColumn
// ============================================================================

func executeWithColumn(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}

	col, err := evaluateExpr(plan.NewColExpr, df)
	if err != nil {
		return nil, fmt.Errorf("with_column error: %w", err)
	}

	return df.WithColumn(col)
}

// ============================================================================
// Limit
// ============================================================================

func executeLimit(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}
	return df.Head(plan.Limit), nil
}

// ============================================================================
// Apply (UDF)
// ============================================================================

func executeApply(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}

	if plan.ApplyFunc == nil {
		return nil, fmt.Errorf("apply function is nil")
	}

	out, err := plan.ApplyFunc(df)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", plan.ApplyName, err)
	}
	return out, nil
}

// ============================================================================
// Expression Evaluation
// ============================================================================

// evaluateExpr evaluates an expression on a DataFrame and returns a Series
func evaluateExpr(expr Expr, df *DataFrame) (*Series, error) {
	switch e := expr.(type) {
	case *ColExpr:
		return df.Column(e.Name)

	case *LitExpr:
		// Create a series with the literal value repeated
		return createLiteralSeries("literal", e.Value, df.Height())

	case *AliasExpr:
		col, err := evaluateExpr(e.Inner, df)
		if err != nil {
			return nil, err
		}
		return col.Rename(e.AliasName), nil

	case *BinaryOpExpr:
		return evaluateBinaryOp(e, df)

	case *IsNullExpr:
		col, err := evaluateExpr(e.Input, df)
		if err != nil {
			return nil, err
		}
		mask := make([]bool, col.Len())
		for i := range mask {
			mask[i] = col.IsNull(i)
		}
		return NewSeriesBool(col.Name(), mask), nil

	case *MapExpr:
		return evaluateMap(e, df)

	case *StructCreateExpr:
		fields := make([]*Series, len(e.Fields))
		for i, fe := range e.Fields {
			col, err := evaluateExpr(fe, df)
			if err != nil {
				return nil, err
			}
			fields[i] = col
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("struct: no fields")
		}
		return NewStructSeries(fields[0].Name(), fields...)

	case *StructFieldExpr:
		col, err := evaluateExpr(e.Input, df)
		if err != nil {
			return nil, err
		}
		return col.StructField(e.FieldName)

	case *ListLenExpr:
		col, err := evaluateExpr(e.Input, df)
		if err != nil {
			return nil, err
		}
		return col.ListLengths()

	default:
		return nil, fmt.Errorf("cannot evaluate expression type: %T", expr)
	}
}

// evaluateMap runs a column UDF and checks it honored its declared type
func evaluateMap(e *MapExpr, df *DataFrame) (*Series, error) {
	input, err := evaluateExpr(e.Input, df)
	if err != nil {
		return nil, err
	}
	if e.Fn == nil {
		return nil, fmt.Errorf("map function is nil")
	}

	out, err := e.Fn(input)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", input.Name(), err)
	}
	if out.DType() != e.ReturnType {
		return nil, typeMismatch(input.Name(), e.ReturnType.String(), out.TypeString())
	}
	if out.Len() != input.Len() {
		return nil, shapeMismatch(input.Name(), input.Len(), out.Len())
	}
	return out.Rename(input.Name()), nil
}

// evaluateBinaryOp evaluates a binary operation
func evaluateBinaryOp(expr *BinaryOpExpr, df *DataFrame) (*Series, error) {
	left, err := evaluateExpr(expr.Left, df)
	if err != nil {
		return nil, err
	}
	right, err := evaluateExpr(expr.Right, df)
	if err != nil {
		return nil, err
	}

	dtype, err := arithmeticDType(left.Field(), right.Field())
	if err != nil {
		return nil, err
	}
	return evaluateVectorOp(left, expr.Op, right, dtype)
}

// evaluateVectorOp combines two equally long numeric series row by row
// after casting both to dtype. Nulls propagate.
func evaluateVectorOp(left *Series, op BinaryOp, right *Series, dtype DType) (*Series, error) {
	if left.Len() != right.Len() {
		return nil, shapeMismatch(right.Name(), left.Len(), right.Len())
	}
	l, err := castSeries(left, dtype)
	if err != nil {
		return nil, err
	}
	r, err := castSeries(right, dtype)
	if err != nil {
		return nil, err
	}
	mask := combinedValidity(l, r)
	defer mask.Release()
	var valid []bool
	if mask != nil {
		valid = mask.Data
	}

	// the builders copy valid, so the mask can go back to the pool
	switch dtype {
	case Float64:
		return NewSeriesFloat64WithNulls(left.Name(), applyOp(l.Float64(), r.Float64(), op), valid), nil
	case UInt64:
		return NewSeriesUInt64WithNulls(left.Name(), applyOp(l.UInt64(), r.UInt64(), op), valid), nil
	case Int64:
		return NewSeriesInt64WithNulls(left.Name(), applyOp(l.Int64(), r.Int64(), op), valid), nil
	default:
		return nil, typeMismatch(left.Name(), "numeric", dtype.String())
	}
}

type number interface {
	~int64 | ~uint64 | ~float64
}

// applyOp combines two slices elementwise. Integer overflow wraps.
func applyOp[T number](a, b []T, op BinaryOp) []T {
	out := make([]T, len(a))
	switch op {
	case OpAdd:
		for i := range out {
			out[i] = a[i] + b[i]
		}
	case OpSub:
		for i := range out {
			out[i] = a[i] - b[i]
		}
	case OpMul:
		for i := range out {
			out[i] = a[i] * b[i]
		}
	}
	return out
}

// combinedValidity is valid only where both inputs are valid; nil when
// neither input has nulls
func combinedValidity(a, b *Series) *BoolMask {
	if !a.HasNulls() && !b.HasNulls() {
		return nil
	}
	mask := getBoolMask(a.Len())
	for i := range mask.Data {
		mask.Data[i] = a.IsValid(i) && b.IsValid(i)
	}
	return mask
}

// ============================================================================
// Helpers
// ============================================================================

func createLiteralSeries(name string, value interface{}, length int) (*Series, error) {
	switch v := value.(type) {
	case nil:
		return NewSeriesNull(name, length), nil
	case int:
		return NewSeriesInt64(name, repeat(int64(v), length)), nil
	case int64:
		return NewSeriesInt64(name, repeat(v, length)), nil
	case int32:
		return NewSeriesInt32(name, repeat(v, length)), nil
	case uint64:
		return NewSeriesUInt64(name, repeat(v, length)), nil
	case float64:
		return NewSeriesFloat64(name, repeat(v, length)), nil
	case bool:
		return NewSeriesBool(name, repeat(v, length)), nil
	case string:
		return NewSeriesString(name, repeat(v, length)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported literal %T", ErrTypeMismatch, value)
	}
}

func repeat[T any](v T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// castSeries converts a numeric series to another numeric dtype. Nulls are
// kept; conversions follow Go's numeric conversion rules, so negative
// integers cast to UInt64 wrap.
func castSeries(s *Series, targetType DType) (*Series, error) {
	if s.DType() == targetType {
		return s, nil
	}

	var valid []bool
	if s.HasNulls() {
		valid = s.Validity()
	}

	switch targetType {
	case Float64:
		data, err := convertValues[float64](s)
		if err != nil {
			return nil, err
		}
		return NewSeriesFloat64WithNulls(s.Name(), data, valid), nil
	case Int64:
		data, err := convertValues[int64](s)
		if err != nil {
			return nil, err
		}
		return NewSeriesInt64WithNulls(s.Name(), data, valid), nil
	case UInt64:
		data, err := convertValues[uint64](s)
		if err != nil {
			return nil, err
		}
		return NewSeriesUInt64WithNulls(s.Name(), data, valid), nil
	default:
		return nil, typeMismatch(s.Name(), targetType.String(), s.TypeString())
	}
}

func convertValues[T number](s *Series) ([]T, error) {
	out := make([]T, s.Len())
	switch a := s.Arrow().(type) {
	case *array.Float64:
		for i, v := range a.Float64Values() {
			out[i] = T(v)
		}
	case *array.Int64:
		for i, v := range a.Int64Values() {
			out[i] = T(v)
		}
	case *array.Int32:
		for i, v := range a.Int32Values() {
			out[i] = T(v)
		}
	case *array.Uint64:
		for i, v := range a.Uint64Values() {
			out[i] = T(v)
		}
	case *array.Null:
		// every row is null; values stay zero
	default:
		return nil, typeMismatch(s.Name(), "numeric", s.TypeString())
	}
	return out, nil
}
