package listsim

import (
	"fmt"
	"strings"
)

// LazyFrame represents a lazy DataFrame that builds a query plan
// Operations on LazyFrame don't execute immediately - they build a plan
// that gets optimized, validated and executed when Collect() is called
type LazyFrame struct {
	plan *LogicalPlan
}

// ============================================================================
// LazyFrame Creation
// ============================================================================

// Lazy converts a DataFrame to a LazyFrame
func (df *DataFrame) Lazy() *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:   PlanScan,
			Data: df,
		},
	}
}

// ScanParquet creates a LazyFrame that will read a Parquet file when collected
func ScanParquet(path string, opts ...ParquetReadOptions) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:          PlanScanParquet,
			SourcePath:  path,
			ParquetOpts: opts,
		},
	}
}

// ScanJSON creates a LazyFrame that will read a JSON file when collected
func ScanJSON(path string, opts ...JSONReadOptions) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:         PlanScanJSON,
			SourcePath: path,
			JSONOpts:   opts,
		},
	}
}

// ScanIPC creates a LazyFrame that will read an Arrow IPC stream when collected
func ScanIPC(path string) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:         PlanScanIPC,
			SourcePath: path,
		},
	}
}

// ============================================================================
// LazyFrame Operations
// ============================================================================

// Select projects specific columns or expressions
func (lf *LazyFrame) Select(exprs ...Expr) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:          PlanProject,
			Input:       lf.plan,
			Projections: exprs,
		},
	}
}

// WithColumn adds or replaces a column
func (lf *LazyFrame) WithColumn(name string, expr Expr) *LazyFrame {
	aliased := &AliasExpr{Inner: expr, AliasName: name}
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:         PlanWithColumn,
			Input:      lf.plan,
			NewColName: name,
			NewColExpr: aliased,
		},
	}
}

// Head limits the result to the first n rows
func (lf *LazyFrame) Head(n int) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:    PlanLimit,
			Input: lf.plan,
			Limit: n,
		},
	}
}

// ============================================================================
// Apply (frame UDF) Operation
// ============================================================================

// FrameFunc transforms a whole materialized DataFrame
type FrameFunc func(*DataFrame) (*DataFrame, error)

// SchemaFunc derives the output schema of a FrameFunc from its input
// schema without running it
type SchemaFunc func(*Schema) (*Schema, error)

// ApplyOptions describes a frame-level step
type ApplyOptions struct {
	// Name is shown in plan descriptions
	Name string
	// Inputs lists the columns Fn reads; nil means every column
	Inputs []string
	// Schema derives the output schema; nil means "unknown until executed"
	// and stops validation of the steps above this one
	Schema SchemaFunc
}

// Apply appends a user-defined step that receives the whole input frame.
// Example:
//
//	lf.Apply(func(df *DataFrame) (*DataFrame, error) {
//	    return df.Head(10), nil
//	}, ApplyOptions{Name: "head10"})
func (lf *LazyFrame) Apply(fn FrameFunc, opts ApplyOptions) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:          PlanApply,
			Input:       lf.plan,
			ApplyFunc:   fn,
			ApplyName:   opts.Name,
			ApplyInputs: opts.Inputs,
			ApplySchema: opts.Schema,
		},
	}
}

// ParallelJaccard registers the parallel Jaccard engine as a deferred step.
// On Collect the input is materialized and replaced by the single Float64
// column "jaccard".
func (lf *LazyFrame) ParallelJaccard(colA, colB string) *LazyFrame {
	return lf.Apply(
		func(df *DataFrame) (*DataFrame, error) {
			return ParallelJaccard(df, colA, colB)
		},
		ApplyOptions{
			Name:   fmt.Sprintf("parallel_jaccard(%q, %q)", colA, colB),
			Inputs: []string{colA, colB},
			Schema: func(in *Schema) (*Schema, error) {
				if err := checkJaccardInputs(in, colA, colB); err != nil {
					return nil, err
				}
				return NewSchema(Field{Name: JaccardColumn, DType: Float64, Elem: Null})
			},
		},
	)
}

// ============================================================================
// Collect - Execute the plan
// ============================================================================

// Collect optimizes and validates the query plan, then executes it
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	optimized := optimizePlan(lf.plan)

	if _, err := resolveSchema(optimized); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	Logger().Debug("collect lazy plan", "plan", strings.TrimSpace(describePlan(optimized, 0)))
	return executePlan(optimized)
}

// Schema resolves the output schema of the plan without executing it.
// File scans read only metadata where the format allows it.
func (lf *LazyFrame) Schema() (*Schema, error) {
	schema, err := resolveSchema(optimizePlan(lf.plan))
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, errSchemaUnknown
	}
	return schema, nil
}

// Describe shows the query plan (for debugging)
func (lf *LazyFrame) Describe() string {
	return describePlan(lf.plan, 0)
}

// Explain shows the optimized query plan
func (lf *LazyFrame) Explain() string {
	optimized := optimizePlan(lf.plan)
	return describePlan(optimized, 0)
}

// ============================================================================
// Logical Plan
// ============================================================================

// PlanOp represents the type of logical plan operation
type PlanOp int

const (
	PlanScan PlanOp = iota
	PlanScanParquet
	PlanScanJSON
	PlanScanIPC
	PlanProject
	PlanWithColumn
	PlanLimit
	PlanApply
)

func (op PlanOp) String() string {
	switch op {
	case PlanScan:
		return "Scan"
	case PlanScanParquet:
		return "ScanParquet"
	case PlanScanJSON:
		return "ScanJSON"
	case PlanScanIPC:
		return "ScanIPC"
	case PlanProject:
		return "Project"
	case PlanWithColumn:
		return "WithColumn"
	case PlanLimit:
		return "Limit"
	case PlanApply:
		return "Apply"
	default:
		return "Unknown"
	}
}

// LogicalPlan represents a node in the query plan tree
type LogicalPlan struct {
	Op    PlanOp
	Input *LogicalPlan // Parent plan (for unary operations)

	// Scan source
	Data        *DataFrame
	SourcePath  string
	ParquetOpts []ParquetReadOptions
	JSONOpts    []JSONReadOptions

	// ScanColumns restricts a scan to these columns (nil = all).
	// Set by projection pushdown.
	ScanColumns []string

	// Projection
	Projections []Expr

	// WithColumn
	NewColName string
	NewColExpr Expr

	// Limit
	Limit int

	// Apply (UDF) configuration
	ApplyFunc   FrameFunc
	ApplyName   string
	ApplyInputs []string
	ApplySchema SchemaFunc
}

// describePlan returns a string representation of the plan
func describePlan(plan *LogicalPlan, indent int) string {
	prefix := strings.Repeat("  ", indent)

	var result string

	switch plan.Op {
	case PlanScan:
		h, w := 0, 0
		if plan.Data != nil {
			h, w = plan.Data.Height(), plan.Data.Width()
		}
		result = fmt.Sprintf("%s%s [%d rows × %d cols]", prefix, plan.Op, h, w)

	case PlanScanParquet, PlanScanJSON, PlanScanIPC:
		result = fmt.Sprintf("%s%s path=%q", prefix, plan.Op, plan.SourcePath)

	case PlanProject:
		result = fmt.Sprintf("%s%s %v", prefix, plan.Op, plan.Projections)

	case PlanWithColumn:
		result = fmt.Sprintf("%s%s %s = %s", prefix, plan.Op, plan.NewColName, plan.NewColExpr)

	case PlanLimit:
		result = fmt.Sprintf("%s%s n=%d", prefix, plan.Op, plan.Limit)

	case PlanApply:
		result = fmt.Sprintf("%s%s %s", prefix, plan.Op, plan.ApplyName)

	default:
		result = fmt.Sprintf("%s%s", prefix, plan.Op)
	}

	if plan.ScanColumns != nil {
		result += fmt.Sprintf(" columns=%v", plan.ScanColumns)
	}
	result += "\n"

	if plan.Input != nil {
		result += describePlan(plan.Input, indent+1)
	}

	return result
}
