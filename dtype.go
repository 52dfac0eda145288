package listsim

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// DType represents the data type of a Series
type DType uint8

const (
	// Numeric types
	Float64 DType = iota
	Int64
	Int32
	UInt64

	// Other types
	Bool
	String

	// Null type
	Null

	// Nested types
	Struct // Struct with named fields
	List   // Variable-length list of elements
)

// String returns the string representation of the DType
func (d DType) String() string {
	switch d {
	case Float64:
		return "Float64"
	case Int64:
		return "Int64"
	case Int32:
		return "Int32"
	case UInt64:
		return "UInt64"
	case Bool:
		return "Bool"
	case String:
		return "String"
	case Null:
		return "Null"
	case Struct:
		return "Struct"
	case List:
		return "List"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// IsNumeric returns true if the dtype is a numeric type
func (d DType) IsNumeric() bool {
	switch d {
	case Float64, Int64, Int32, UInt64:
		return true
	default:
		return false
	}
}

// IsInteger returns true if the dtype is an integer type
func (d DType) IsInteger() bool {
	switch d {
	case Int64, Int32, UInt64:
		return true
	default:
		return false
	}
}

// IsNested returns true if the dtype is a nested type (Struct or List)
func (d DType) IsNested() bool {
	return d == Struct || d == List
}

// Size returns the size in bytes of the dtype
func (d DType) Size() int {
	switch d {
	case Float64, Int64, UInt64:
		return 8
	case Int32:
		return 4
	case Bool:
		return 1
	case String, List, Struct:
		return -1 // Variable size
	default:
		return 0
	}
}

// ============================================================================
// Arrow Type Mapping
// ============================================================================

// arrowType returns the Arrow type for a flat dtype. List and Struct need
// element information and are built by their own constructors.
func (d DType) arrowType() (arrow.DataType, error) {
	switch d {
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case UInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case String:
		return arrow.BinaryTypes.String, nil
	case Null:
		return arrow.Null, nil
	default:
		return nil, fmt.Errorf("%w: no flat arrow type for %s", ErrTypeMismatch, d)
	}
}

// dtypeFromArrow maps an Arrow type onto a DType.
func dtypeFromArrow(t arrow.DataType) (DType, error) {
	switch t.ID() {
	case arrow.FLOAT64:
		return Float64, nil
	case arrow.INT64:
		return Int64, nil
	case arrow.INT32:
		return Int32, nil
	case arrow.UINT64:
		return UInt64, nil
	case arrow.BOOL:
		return Bool, nil
	case arrow.STRING:
		return String, nil
	case arrow.NULL:
		return Null, nil
	case arrow.LIST:
		return List, nil
	case arrow.STRUCT:
		return Struct, nil
	default:
		return Null, fmt.Errorf("%w: unsupported arrow type %s", ErrTypeMismatch, t)
	}
}

// ============================================================================
// Schema
// ============================================================================

// Field describes one column of a Schema. Elem is the element type of a
// List column; Children are the fields of a Struct column.
type Field struct {
	Name     string
	DType    DType
	Elem     DType
	Children []Field
}

// Child returns the struct child with the given name
func (f Field) Child(name string) (Field, bool) {
	for _, c := range f.Children {
		if c.Name == name {
			return c, true
		}
	}
	return Field{}, false
}

// fieldFromArrow describes an Arrow-typed column as a Field
func fieldFromArrow(name string, t arrow.DataType) (Field, error) {
	dtype, err := dtypeFromArrow(t)
	if err != nil {
		return Field{}, err
	}
	f := Field{Name: name, DType: dtype, Elem: Null}

	switch tt := t.(type) {
	case *arrow.ListType:
		elem, err := dtypeFromArrow(tt.Elem())
		if err != nil {
			return Field{}, fmt.Errorf("list element: %w", err)
		}
		if elem.IsNested() {
			return Field{}, fmt.Errorf("%w: nested list element %s", ErrTypeMismatch, tt.Elem())
		}
		f.Elem = elem
	case *arrow.StructType:
		f.Children = make([]Field, tt.NumFields())
		for i := range f.Children {
			child := tt.Field(i)
			c, err := fieldFromArrow(child.Name, child.Type)
			if err != nil {
				return Field{}, fmt.Errorf("struct field %q: %w", child.Name, err)
			}
			f.Children[i] = c
		}
	}
	return f, nil
}

// String returns the field's type as shown in schemas and table headers
func (f Field) String() string {
	return f.TypeString()
}

// TypeString renders the type, including the element type of lists
func (f Field) TypeString() string {
	if f.DType == List {
		return fmt.Sprintf("List[%s]", f.Elem)
	}
	return f.DType.String()
}

// Schema represents the schema of a DataFrame
type Schema struct {
	fields []Field
}

// NewSchema creates a new schema from fields. Names must be unique.
func NewSchema(fields ...Field) (*Schema, error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate column name: %s", f.Name)
		}
		seen[f.Name] = true
	}

	return &Schema{fields: append([]Field{}, fields...)}, nil
}

// Len returns the number of columns in the schema
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the schema fields
func (s *Schema) Fields() []Field {
	return append([]Field{}, s.fields...)
}

// Names returns the column names
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// DTypes returns the column data types
func (s *Schema) DTypes() []DType {
	dtypes := make([]DType, len(s.fields))
	for i, f := range s.fields {
		dtypes[i] = f.DType
	}
	return dtypes
}

// Field returns the field for a column name
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// GetDType returns the dtype for a column name
func (s *Schema) GetDType(name string) (DType, bool) {
	f, ok := s.Field(name)
	if !ok {
		return Null, false
	}
	return f.DType, true
}

// GetIndex returns the index of a column name
func (s *Schema) GetIndex(name string) (int, bool) {
	for i, f := range s.fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

// String returns a string representation of the schema
func (s *Schema) String() string {
	var sb strings.Builder
	sb.WriteString("Schema{\n")
	for _, f := range s.fields {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", f.Name, f.TypeString()))
	}
	sb.WriteString("}")
	return sb.String()
}
