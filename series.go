package listsim

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Series is a named, typed column backed by an immutable Arrow array.
// Slicing and renaming never copy values; each Series holds its own
// reference to the underlying array.
type Series struct {
	name  string
	dtype DType
	arr   arrow.Array
}

// NewSeriesFromArrow wraps an Arrow array. The array is retained, so the
// caller keeps ownership of its own reference.
func NewSeriesFromArrow(name string, arr arrow.Array) (*Series, error) {
	if arr == nil {
		return nil, fmt.Errorf("series %q: nil arrow array", name)
	}
	f, err := fieldFromArrow(name, arr.DataType())
	if err != nil {
		return nil, fmt.Errorf("series %q: %w", name, err)
	}
	arr.Retain()
	return &Series{name: name, dtype: f.DType, arr: arr}, nil
}

// wrapArray takes ownership of a freshly built array of a known dtype
func wrapArray(name string, dtype DType, arr arrow.Array) *Series {
	return &Series{name: name, dtype: dtype, arr: arr}
}

// ============================================================================
// Constructors
// ============================================================================
//
// The WithNulls variants take a validity slice: valid[i] == false marks row i
// as null. A nil validity slice means every row is valid; otherwise it must
// have the same length as data.

// NewSeriesFloat64 creates a Float64 Series from a Go slice.
func NewSeriesFloat64(name string, data []float64) *Series {
	return NewSeriesFloat64WithNulls(name, data, nil)
}

// NewSeriesFloat64WithNulls creates a Float64 Series with null values.
func NewSeriesFloat64WithNulls(name string, data []float64, valid []bool) *Series {
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(data, valid)
	return wrapArray(name, Float64, b.NewArray())
}

// NewSeriesInt64 creates an Int64 Series from a Go slice.
func NewSeriesInt64(name string, data []int64) *Series {
	return NewSeriesInt64WithNulls(name, data, nil)
}

// NewSeriesInt64WithNulls creates an Int64 Series with null values.
func NewSeriesInt64WithNulls(name string, data []int64, valid []bool) *Series {
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(data, valid)
	return wrapArray(name, Int64, b.NewArray())
}

// NewSeriesInt32 creates an Int32 Series from a Go slice.
func NewSeriesInt32(name string, data []int32) *Series {
	return NewSeriesInt32WithNulls(name, data, nil)
}

// NewSeriesInt32WithNulls creates an Int32 Series with null values.
func NewSeriesInt32WithNulls(name string, data []int32, valid []bool) *Series {
	b := array.NewInt32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(data, valid)
	return wrapArray(name, Int32, b.NewArray())
}

// NewSeriesUInt64 creates a UInt64 Series from a Go slice.
func NewSeriesUInt64(name string, data []uint64) *Series {
	return NewSeriesUInt64WithNulls(name, data, nil)
}

// NewSeriesUInt64WithNulls creates a UInt64 Series with null values.
func NewSeriesUInt64WithNulls(name string, data []uint64, valid []bool) *Series {
	b := array.NewUint64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(data, valid)
	return wrapArray(name, UInt64, b.NewArray())
}

// NewSeriesBool creates a Bool Series from a Go slice.
func NewSeriesBool(name string, data []bool) *Series {
	return NewSeriesBoolWithNulls(name, data, nil)
}

// NewSeriesBoolWithNulls creates a Bool Series with null values.
func NewSeriesBoolWithNulls(name string, data []bool, valid []bool) *Series {
	b := array.NewBooleanBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(data, valid)
	return wrapArray(name, Bool, b.NewArray())
}

// NewSeriesString creates a String Series from a Go slice.
func NewSeriesString(name string, data []string) *Series {
	return NewSeriesStringWithNulls(name, data, nil)
}

// NewSeriesStringWithNulls creates a String Series with null values.
func NewSeriesStringWithNulls(name string, data []string, valid []bool) *Series {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(data, valid)
	return wrapArray(name, String, b.NewArray())
}

// NewSeriesNull creates a Series of the given length where every row is null.
func NewSeriesNull(name string, length int) *Series {
	return wrapArray(name, Null, array.NewNull(length))
}

// ============================================================================
// Basic Properties
// ============================================================================

// Name returns the series name
func (s *Series) Name() string {
	return s.name
}

// DType returns the data type
func (s *Series) DType() DType {
	return s.dtype
}

// Len returns the number of rows
func (s *Series) Len() int {
	return s.arr.Len()
}

// NullCount returns the number of null rows
func (s *Series) NullCount() int {
	return s.arr.NullN()
}

// HasNulls returns true if any row is null
func (s *Series) HasNulls() bool {
	return s.arr.NullN() > 0
}

// IsNull returns true if the row at index is null
func (s *Series) IsNull(index int) bool {
	return s.arr.IsNull(index)
}

// IsValid returns true if the row at index is not null
func (s *Series) IsValid(index int) bool {
	return s.arr.IsValid(index)
}

// ElementType returns the element dtype of a List series and Null otherwise
func (s *Series) ElementType() DType {
	if s.dtype != List {
		return Null
	}
	elem, err := dtypeFromArrow(s.arr.DataType().(*arrow.ListType).Elem())
	if err != nil {
		return Null
	}
	return elem
}

// Field returns the schema field describing this series
func (s *Series) Field() Field {
	f, err := fieldFromArrow(s.name, s.arr.DataType())
	if err != nil {
		return Field{Name: s.name, DType: s.dtype, Elem: Null}
	}
	return f
}

// TypeString renders the dtype including list element types
func (s *Series) TypeString() string {
	return s.Field().TypeString()
}

// Arrow returns the underlying Arrow array. The array is owned by the
// Series; call Retain on it to keep it beyond the Series' lifetime.
func (s *Series) Arrow() arrow.Array {
	return s.arr
}

// Release drops this Series' reference to its Arrow array
func (s *Series) Release() {
	if s != nil && s.arr != nil {
		s.arr.Release()
	}
}

// Rename returns a Series sharing the same data under a new name
func (s *Series) Rename(name string) *Series {
	s.arr.Retain()
	return &Series{name: name, dtype: s.dtype, arr: s.arr}
}

// ============================================================================
// Slicing
// ============================================================================

// Slice returns the rows [start, end) without copying. Bounds are clamped.
func (s *Series) Slice(start, end int) *Series {
	n := s.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return &Series{
		name:  s.name,
		dtype: s.dtype,
		arr:   array.NewSlice(s.arr, int64(start), int64(end)),
	}
}

// Head returns the first n rows
func (s *Series) Head(n int) *Series {
	return s.Slice(0, n)
}

// Tail returns the last n rows
func (s *Series) Tail(n int) *Series {
	return s.Slice(s.Len()-n, s.Len())
}

// ConcatSeries stacks series of the same type end to end, preserving row
// order. The result takes the name of the first part.
func ConcatSeries(parts ...*Series) (*Series, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("concat: no series given")
	}

	first := parts[0]
	arrs := make([]arrow.Array, len(parts))
	for i, p := range parts {
		if !arrow.TypeEqual(p.arr.DataType(), first.arr.DataType()) {
			return nil, typeMismatch(p.name, first.TypeString(), p.TypeString())
		}
		arrs[i] = p.arr
	}

	if len(arrs) == 1 {
		return first.Rename(first.name), nil
	}

	out, err := array.Concatenate(arrs, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("concat %q: %w", first.name, err)
	}
	return wrapArray(first.name, first.dtype, out), nil
}

// ============================================================================
// Element Access
// ============================================================================

// Get returns the value at index as a Go value, or nil for null rows.
// List rows are returned as []int64 when they hold no null elements and
// as []interface{} otherwise.
func (s *Series) Get(index int) interface{} {
	if index < 0 || index >= s.Len() || s.arr.IsNull(index) {
		return nil
	}

	switch a := s.arr.(type) {
	case *array.Float64:
		return a.Value(index)
	case *array.Int64:
		return a.Value(index)
	case *array.Int32:
		return a.Value(index)
	case *array.Uint64:
		return a.Value(index)
	case *array.Boolean:
		return a.Value(index)
	case *array.String:
		return a.Value(index)
	case *array.List:
		return listValue(a, index)
	case *array.Struct:
		st := a.DataType().(*arrow.StructType)
		row := make(map[string]interface{}, a.NumField())
		for i := 0; i < a.NumField(); i++ {
			row[st.Field(i).Name] = getRaw(a.Field(i), index)
		}
		return row
	}
	return nil
}

func getRaw(arr arrow.Array, index int) interface{} {
	dtype, err := dtypeFromArrow(arr.DataType())
	if err != nil {
		return nil
	}
	return (&Series{dtype: dtype, arr: arr}).Get(index)
}

// AtF64 returns the Float64 value at index and whether it is valid
func (s *Series) AtF64(index int) (float64, bool) {
	a, ok := s.arr.(*array.Float64)
	if !ok || index < 0 || index >= a.Len() || a.IsNull(index) {
		return 0, false
	}
	return a.Value(index), true
}

// AtI64 returns the Int64 value at index and whether it is valid
func (s *Series) AtI64(index int) (int64, bool) {
	a, ok := s.arr.(*array.Int64)
	if !ok || index < 0 || index >= a.Len() || a.IsNull(index) {
		return 0, false
	}
	return a.Value(index), true
}

// AtU64 returns the UInt64 value at index and whether it is valid
func (s *Series) AtU64(index int) (uint64, bool) {
	a, ok := s.arr.(*array.Uint64)
	if !ok || index < 0 || index >= a.Len() || a.IsNull(index) {
		return 0, false
	}
	return a.Value(index), true
}

// Float64 returns the raw values of a Float64 series (nil for other types).
// Values at null rows are unspecified.
func (s *Series) Float64() []float64 {
	if a, ok := s.arr.(*array.Float64); ok {
		return a.Float64Values()
	}
	return nil
}

// Int64 returns the raw values of an Int64 series (nil for other types)
func (s *Series) Int64() []int64 {
	if a, ok := s.arr.(*array.Int64); ok {
		return a.Int64Values()
	}
	return nil
}

// Int32 returns the raw values of an Int32 series (nil for other types)
func (s *Series) Int32() []int32 {
	if a, ok := s.arr.(*array.Int32); ok {
		return a.Int32Values()
	}
	return nil
}

// UInt64 returns the raw values of a UInt64 series (nil for other types)
func (s *Series) UInt64() []uint64 {
	if a, ok := s.arr.(*array.Uint64); ok {
		return a.Uint64Values()
	}
	return nil
}

// Strings returns the values of a String series (nil for other types)
func (s *Series) Strings() []string {
	a, ok := s.arr.(*array.String)
	if !ok {
		return nil
	}
	out := make([]string, a.Len())
	for i := range out {
		out[i] = a.Value(i)
	}
	return out
}

// Bool returns the values of a Bool series (nil for other types)
func (s *Series) Bool() []bool {
	a, ok := s.arr.(*array.Boolean)
	if !ok {
		return nil
	}
	out := make([]bool, a.Len())
	for i := range out {
		out[i] = a.Value(i)
	}
	return out
}

// Validity returns one bool per row, false for null rows
func (s *Series) Validity() []bool {
	out := make([]bool, s.Len())
	for i := range out {
		out[i] = s.arr.IsValid(i)
	}
	return out
}

// ============================================================================
// Comparison
// ============================================================================

// Equal reports whether both series have the same name, type and cells.
// Float64 cells are compared bit for bit, so NaN equals NaN.
func (s *Series) Equal(other *Series) bool {
	if other == nil || s.name != other.name || s.Len() != other.Len() {
		return false
	}
	if !arrow.TypeEqual(s.arr.DataType(), other.arr.DataType()) {
		return false
	}

	if s.dtype != Float64 {
		return array.Equal(s.arr, other.arr)
	}

	a, b := s.arr.(*array.Float64), other.arr.(*array.Float64)
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) != b.IsNull(i) {
			return false
		}
		if a.IsNull(i) {
			continue
		}
		if math.Float64bits(a.Value(i)) != math.Float64bits(b.Value(i)) {
			return false
		}
	}
	return true
}

// String returns a formatted table of the series values
func (s *Series) String() string {
	return SeriesStringWithConfig(s, GetDisplayConfig())
}
