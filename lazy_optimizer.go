package listsim

import (
	"errors"
	"fmt"
	"sort"
)

// errSchemaUnknown is returned by LazyFrame.Schema when a step without a
// declared schema hides the output until execution
var errSchemaUnknown = errors.New("schema is only known after execution")

// ============================================================================
// Query Optimizer
// ============================================================================

// optimizePlan applies optimization passes to the logical plan
func optimizePlan(plan *LogicalPlan) *LogicalPlan {
	// Projection pushdown - only read needed columns
	return pushdownProjections(plan, nil)
}

// ============================================================================
// Projection Pushdown
// ============================================================================

// pushdownProjections restricts scans to the columns the plan above them
// reads. A nil neededCols means every column is needed.
func pushdownProjections(plan *LogicalPlan, neededCols map[string]bool) *LogicalPlan {
	if plan == nil {
		return nil
	}

	newPlan := &LogicalPlan{}
	*newPlan = *plan

	switch plan.Op {
	case PlanScan, PlanScanParquet, PlanScanJSON, PlanScanIPC:
		if neededCols != nil {
			newPlan.ScanColumns = sortedKeys(neededCols)
		}
		return newPlan

	case PlanProject:
		newPlan.Input = pushdownProjections(plan.Input, exprColumns(plan.Projections...))
		return newPlan

	case PlanWithColumn:
		if neededCols == nil {
			newPlan.Input = pushdownProjections(plan.Input, nil)
			return newPlan
		}
		if !neededCols[plan.NewColName] {
			// nothing above reads the new column
			return pushdownProjections(plan.Input, neededCols)
		}
		needed := make(map[string]bool, len(neededCols))
		for k := range neededCols {
			if k != plan.NewColName {
				needed[k] = true
			}
		}
		for k := range exprColumns(plan.NewColExpr) {
			needed[k] = true
		}
		newPlan.Input = pushdownProjections(plan.Input, needed)
		return newPlan

	case PlanApply:
		var needed map[string]bool
		if plan.ApplyInputs != nil {
			needed = make(map[string]bool, len(plan.ApplyInputs))
			for _, c := range plan.ApplyInputs {
				needed[c] = true
			}
		}
		newPlan.Input = pushdownProjections(plan.Input, needed)
		return newPlan

	default:
		newPlan.Input = pushdownProjections(plan.Input, neededCols)
		return newPlan
	}
}

func exprColumns(exprs ...Expr) map[string]bool {
	cols := make(map[string]bool)
	for _, e := range exprs {
		for _, c := range e.columns() {
			cols[c] = true
		}
	}
	return cols
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// Schema Resolution
// ============================================================================

// resolveSchema computes the output schema of a plan without executing it
// and reports the first unknown column or ill-typed expression. A nil
// schema with a nil error means an Apply without a declared schema hides
// the output.
func resolveSchema(plan *LogicalPlan) (*Schema, error) {
	if plan == nil {
		return &Schema{}, nil
	}

	switch plan.Op {
	case PlanScan:
		if plan.Data == nil {
			return &Schema{}, nil
		}
		return restrictSchema(plan.Data.Schema(), plan.ScanColumns), nil

	case PlanScanParquet:
		schema, err := ReadParquetSchema(plan.SourcePath)
		if err != nil {
			return nil, err
		}
		return restrictSchema(schema, plan.ScanColumns), nil

	case PlanScanIPC:
		schema, err := ReadIPCSchema(plan.SourcePath)
		if err != nil {
			return nil, err
		}
		return restrictSchema(schema, plan.ScanColumns), nil

	case PlanScanJSON:
		// JSON carries no schema; infer it from the data
		df, err := executeScanJSON(plan)
		if err != nil {
			return nil, err
		}
		return df.Schema(), nil
	}

	input, err := resolveSchema(plan.Input)
	if err != nil || input == nil {
		return nil, err
	}

	switch plan.Op {
	case PlanProject:
		fields := make([]Field, 0, len(plan.Projections))
		for _, expr := range plan.Projections {
			f, err := resolveExpr(expr, input)
			if err != nil {
				return nil, fmt.Errorf("projection %s: %w", expr, err)
			}
			fields = append(fields, f)
		}
		return NewSchema(fields...)

	case PlanWithColumn:
		f, err := resolveExpr(plan.NewColExpr, input)
		if err != nil {
			return nil, fmt.Errorf("with_column %s: %w", plan.NewColName, err)
		}
		fields := input.Fields()
		if idx, ok := input.GetIndex(f.Name); ok {
			fields[idx] = f
		} else {
			fields = append(fields, f)
		}
		return NewSchema(fields...)

	case PlanLimit:
		return input, nil

	case PlanApply:
		if plan.ApplySchema == nil {
			return nil, nil
		}
		out, err := plan.ApplySchema(input)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", plan.ApplyName, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown plan operation: %v", plan.Op)
	}
}

// restrictSchema keeps the named columns in source order. Names the source
// lacks are dropped; the expression that asked for them reports the error.
func restrictSchema(schema *Schema, columns []string) *Schema {
	if columns == nil {
		return schema
	}
	keep := make(map[string]bool, len(columns))
	for _, c := range columns {
		keep[c] = true
	}
	fields := make([]Field, 0, len(columns))
	for _, f := range schema.fields {
		if keep[f.Name] {
			fields = append(fields, f)
		}
	}
	return &Schema{fields: fields}
}

// resolveExpr computes the output field of an expression against a schema
func resolveExpr(expr Expr, schema *Schema) (Field, error) {
	switch e := expr.(type) {
	case *ColExpr:
		f, ok := schema.Field(e.Name)
		if !ok {
			return Field{}, columnNotFound(e.Name)
		}
		return f, nil

	case *LitExpr:
		dtype, err := literalDType(e.Value)
		if err != nil {
			return Field{}, err
		}
		return Field{Name: "literal", DType: dtype, Elem: Null}, nil

	case *AliasExpr:
		f, err := resolveExpr(e.Inner, schema)
		if err != nil {
			return Field{}, err
		}
		f.Name = e.AliasName
		return f, nil

	case *BinaryOpExpr:
		left, err := resolveExpr(e.Left, schema)
		if err != nil {
			return Field{}, err
		}
		right, err := resolveExpr(e.Right, schema)
		if err != nil {
			return Field{}, err
		}
		dtype, err := arithmeticDType(left, right)
		if err != nil {
			return Field{}, err
		}
		return Field{Name: left.Name, DType: dtype, Elem: Null}, nil

	case *IsNullExpr:
		f, err := resolveExpr(e.Input, schema)
		if err != nil {
			return Field{}, err
		}
		return Field{Name: f.Name, DType: Bool, Elem: Null}, nil

	case *MapExpr:
		f, err := resolveExpr(e.Input, schema)
		if err != nil {
			return Field{}, err
		}
		if e.Check != nil {
			if err := e.Check(f); err != nil {
				return Field{}, err
			}
		}
		return Field{Name: f.Name, DType: e.ReturnType, Elem: Null}, nil

	case *StructCreateExpr:
		if len(e.Fields) == 0 {
			return Field{}, fmt.Errorf("struct: no fields")
		}
		children := make([]Field, len(e.Fields))
		for i, fe := range e.Fields {
			f, err := resolveExpr(fe, schema)
			if err != nil {
				return Field{}, err
			}
			children[i] = f
		}
		return Field{Name: children[0].Name, DType: Struct, Elem: Null, Children: children}, nil

	case *StructFieldExpr:
		f, err := resolveExpr(e.Input, schema)
		if err != nil {
			return Field{}, err
		}
		if f.DType != Struct {
			return Field{}, typeMismatch(f.Name, "Struct", f.TypeString())
		}
		child, ok := f.Child(e.FieldName)
		if !ok {
			return Field{}, columnNotFound(e.FieldName)
		}
		return child, nil

	case *ListLenExpr:
		f, err := resolveExpr(e.Input, schema)
		if err != nil {
			return Field{}, err
		}
		if f.DType != List {
			return Field{}, typeMismatch(f.Name, "List", f.TypeString())
		}
		return Field{Name: f.Name, DType: Int32, Elem: Null}, nil

	default:
		return Field{}, fmt.Errorf("cannot resolve expression type: %T", expr)
	}
}

// arithmeticDType returns the result type of an arithmetic operation:
// Float64 if either side is Float64, else UInt64 if either side is UInt64,
// else Int64.
func arithmeticDType(left, right Field) (DType, error) {
	for _, f := range []Field{left, right} {
		if !f.DType.IsNumeric() {
			return Null, typeMismatch(f.Name, "numeric", f.TypeString())
		}
	}
	switch {
	case left.DType == Float64 || right.DType == Float64:
		return Float64, nil
	case left.DType == UInt64 || right.DType == UInt64:
		return UInt64, nil
	default:
		return Int64, nil
	}
}

// literalDType maps a Go literal onto the dtype of its broadcast column
func literalDType(v interface{}) (DType, error) {
	switch v.(type) {
	case nil:
		return Null, nil
	case int, int64:
		return Int64, nil
	case int32:
		return Int32, nil
	case uint64:
		return UInt64, nil
	case float64:
		return Float64, nil
	case bool:
		return Bool, nil
	case string:
		return String, nil
	default:
		return Null, fmt.Errorf("%w: unsupported literal %T", ErrTypeMismatch, v)
	}
}
