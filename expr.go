package listsim

import (
	"fmt"
	"strings"
)

// Expr represents a lazy expression that can be evaluated on a DataFrame
type Expr interface {
	// String returns a string representation of the expression
	String() string

	// Clone creates a deep copy of the expression
	Clone() Expr

	// columns returns all column names referenced by this expression
	columns() []string

	// exprType returns the type of expression (for pattern matching)
	exprType() exprKind
}

type exprKind int

const (
	exprCol exprKind = iota
	exprLit
	exprAlias
	exprBinaryOp
	exprIsNull
	exprMap
	// Struct/List expression types
	exprStructField  // Access a field from a struct
	exprStructCreate // Create a struct from expressions
	exprListLen      // Get length of list
)

// ============================================================================
// Column Expression
// ============================================================================

// ColExpr represents a column reference
type ColExpr struct {
	Name string
}

// Col creates a column reference expression
func Col(name string) *ColExpr {
	return &ColExpr{Name: name}
}

func (e *ColExpr) String() string {
	return fmt.Sprintf("col(%q)", e.Name)
}

func (e *ColExpr) Clone() Expr {
	return &ColExpr{Name: e.Name}
}

func (e *ColExpr) columns() []string {
	return []string{e.Name}
}

func (e *ColExpr) exprType() exprKind {
	return exprCol
}

// Arithmetic operations
func (e *ColExpr) Add(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpAdd, Right: other}
}

func (e *ColExpr) Sub(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpSub, Right: other}
}

func (e *ColExpr) Mul(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpMul, Right: other}
}

// Alias renames the expression result
func (e *ColExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// Null checks
func (e *ColExpr) IsNull() *IsNullExpr {
	return &IsNullExpr{Input: e}
}

// Map applies fn to the column as a whole
func (e *ColExpr) Map(fn MapFunc, returnType DType) *MapExpr {
	return &MapExpr{Input: e, Fn: fn, ReturnType: returnType}
}

// ============================================================================
// Literal Expression
// ============================================================================

// LitExpr represents a literal value
type LitExpr struct {
	Value interface{}
}

// Lit creates a literal expression
func Lit(value interface{}) *LitExpr {
	return &LitExpr{Value: value}
}

func (e *LitExpr) String() string {
	return fmt.Sprintf("lit(%v)", e.Value)
}

func (e *LitExpr) Clone() Expr {
	return &LitExpr{Value: e.Value}
}

func (e *LitExpr) columns() []string {
	return nil
}

func (e *LitExpr) exprType() exprKind {
	return exprLit
}

// Alias renames the literal column
func (e *LitExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// ============================================================================
// Alias Expression
// ============================================================================

// AliasExpr renames an expression result
type AliasExpr struct {
	Inner     Expr
	AliasName string
}

func (e *AliasExpr) String() string {
	return fmt.Sprintf("%s.alias(%q)", e.Inner, e.AliasName)
}

func (e *AliasExpr) Clone() Expr {
	return &AliasExpr{Inner: e.Inner.Clone(), AliasName: e.AliasName}
}

func (e *AliasExpr) columns() []string {
	return e.Inner.columns()
}

func (e *AliasExpr) exprType() exprKind {
	return exprAlias
}

// ============================================================================
// Binary Operation Expression
// ============================================================================

// BinaryOp represents binary operation types
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	default:
		return "?"
	}
}

// BinaryOpExpr represents a binary operation between two expressions.
// Nulls propagate and integer results wrap on overflow.
type BinaryOpExpr struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (e *BinaryOpExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e *BinaryOpExpr) Clone() Expr {
	return &BinaryOpExpr{Left: e.Left.Clone(), Op: e.Op, Right: e.Right.Clone()}
}

func (e *BinaryOpExpr) columns() []string {
	cols := e.Left.columns()
	cols = append(cols, e.Right.columns()...)
	return cols
}

func (e *BinaryOpExpr) exprType() exprKind {
	return exprBinaryOp
}

// Chainable operations on BinaryOpExpr
func (e *BinaryOpExpr) Add(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpAdd, Right: other}
}

func (e *BinaryOpExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// Add returns left + right
func Add(left, right Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: left, Op: OpAdd, Right: right}
}

// ============================================================================
// Null Check Expression
// ============================================================================

// IsNullExpr yields a Bool column that is true where the input is null
type IsNullExpr struct {
	Input Expr
}

func (e *IsNullExpr) String() string {
	return fmt.Sprintf("%s.is_null()", e.Input)
}

func (e *IsNullExpr) Clone() Expr {
	return &IsNullExpr{Input: e.Input.Clone()}
}

func (e *IsNullExpr) columns() []string {
	return e.Input.columns()
}

func (e *IsNullExpr) exprType() exprKind {
	return exprIsNull
}

func (e *IsNullExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// ============================================================================
// Map Expression (column UDF)
// ============================================================================

// MapFunc transforms a whole evaluated column into a new column of the
// same length
type MapFunc func(*Series) (*Series, error)

// MapExpr applies a user function to the evaluated input. ReturnType is
// declared up front so plans can be type checked before execution; Check,
// when set, validates the input field during that check.
type MapExpr struct {
	Input      Expr
	Fn         MapFunc
	ReturnType DType
	Check      func(input Field) error
}

func (e *MapExpr) String() string {
	return fmt.Sprintf("%s.map(-> %s)", e.Input, e.ReturnType)
}

func (e *MapExpr) Clone() Expr {
	return &MapExpr{Input: e.Input.Clone(), Fn: e.Fn, ReturnType: e.ReturnType, Check: e.Check}
}

func (e *MapExpr) columns() []string {
	return e.Input.columns()
}

func (e *MapExpr) exprType() exprKind {
	return exprMap
}

func (e *MapExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// WithCheck returns a copy of the expression that validates its input
// field at plan time
func (e *MapExpr) WithCheck(check func(input Field) error) *MapExpr {
	out := e.Clone().(*MapExpr)
	out.Check = check
	return out
}

// ============================================================================
// Struct Expressions
// ============================================================================

// StructFieldExpr accesses a field from a struct column
type StructFieldExpr struct {
	Input     Expr
	FieldName string
}

func (e *StructFieldExpr) String() string {
	return fmt.Sprintf("%s.struct.field(%q)", e.Input, e.FieldName)
}

func (e *StructFieldExpr) Clone() Expr {
	return &StructFieldExpr{Input: e.Input.Clone(), FieldName: e.FieldName}
}

func (e *StructFieldExpr) columns() []string {
	return e.Input.columns()
}

func (e *StructFieldExpr) exprType() exprKind {
	return exprStructField
}

func (e *StructFieldExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// StructCreateExpr packs expressions into one struct column. The fields
// keep the order and output names of the inputs; the struct column itself
// takes the name of the first field.
type StructCreateExpr struct {
	Fields []Expr
}

func (e *StructCreateExpr) String() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("struct(%s)", strings.Join(parts, ", "))
}

func (e *StructCreateExpr) Clone() Expr {
	fields := make([]Expr, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = f.Clone()
	}
	return &StructCreateExpr{Fields: fields}
}

func (e *StructCreateExpr) columns() []string {
	var cols []string
	for _, f := range e.Fields {
		cols = append(cols, f.columns()...)
	}
	return cols
}

func (e *StructCreateExpr) exprType() exprKind {
	return exprStructCreate
}

func (e *StructCreateExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// Map applies fn to the evaluated struct column
func (e *StructCreateExpr) Map(fn MapFunc, returnType DType) *MapExpr {
	return &MapExpr{Input: e, Fn: fn, ReturnType: returnType}
}

// StructOf creates a struct expression from ordered field expressions
func StructOf(fields ...Expr) *StructCreateExpr {
	return &StructCreateExpr{Fields: fields}
}

// Field accesses a struct field
func (e *ColExpr) Field(name string) *StructFieldExpr {
	return &StructFieldExpr{Input: e, FieldName: name}
}

// ============================================================================
// List Expressions
// ============================================================================

// ListLenExpr returns the length of each list
type ListLenExpr struct {
	Input Expr
}

func (e *ListLenExpr) String() string {
	return fmt.Sprintf("%s.list.len()", e.Input)
}

func (e *ListLenExpr) Clone() Expr {
	return &ListLenExpr{Input: e.Input.Clone()}
}

func (e *ListLenExpr) columns() []string {
	return e.Input.columns()
}

func (e *ListLenExpr) exprType() exprKind {
	return exprListLen
}

func (e *ListLenExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// ListNamespace provides list operations on a column
type ListNamespace struct {
	col *ColExpr
}

// List returns the list namespace for list operations
func (e *ColExpr) List() *ListNamespace {
	return &ListNamespace{col: e}
}

// Len returns the length of each list
func (l *ListNamespace) Len() *ListLenExpr {
	return &ListLenExpr{Input: l.col}
}
