package listsim

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// List Series - variable-length lists of integers
// ============================================================================

// NewSeriesListInt64 creates a List[Int64] Series from a slice of slices.
// valid[i] == false makes row i a null list; a nil valid slice means every
// row is a (possibly empty) list.
func NewSeriesListInt64(name string, data [][]int64, valid []bool) *Series {
	return buildList[int64, *array.Int64Builder](name, arrow.PrimitiveTypes.Int64, data, valid, nil)
}

// NewSeriesListInt64WithNulls is NewSeriesListInt64 with null elements:
// elemValid[i][j] == false makes element j of row i null. A nil elemValid,
// or a nil entry for a row, means every element is valid.
func NewSeriesListInt64WithNulls(name string, data [][]int64, valid []bool, elemValid [][]bool) *Series {
	return buildList[int64, *array.Int64Builder](name, arrow.PrimitiveTypes.Int64, data, valid, elemValid)
}

// NewSeriesListInt32 creates a List[Int32] Series from a slice of slices
func NewSeriesListInt32(name string, data [][]int32, valid []bool) *Series {
	return buildList[int32, *array.Int32Builder](name, arrow.PrimitiveTypes.Int32, data, valid, nil)
}

// NewSeriesListFloat64 creates a List[Float64] Series from a slice of slices
func NewSeriesListFloat64(name string, data [][]float64, valid []bool) *Series {
	return buildList[float64, *array.Float64Builder](name, arrow.PrimitiveTypes.Float64, data, valid, nil)
}

// NewSeriesListFloat64WithNulls is NewSeriesListFloat64 with null elements
func NewSeriesListFloat64WithNulls(name string, data [][]float64, valid []bool, elemValid [][]bool) *Series {
	return buildList[float64, *array.Float64Builder](name, arrow.PrimitiveTypes.Float64, data, valid, elemValid)
}

type valuesAppender[T any] interface {
	AppendValues(v []T, valid []bool)
}

func buildList[T any, B valuesAppender[T]](name string, elem arrow.DataType, data [][]T, valid []bool, elemValid [][]bool) *Series {
	lb := array.NewListBuilder(memory.DefaultAllocator, elem)
	defer lb.Release()
	vb := lb.ValueBuilder().(B)

	for i, row := range data {
		if valid != nil && !valid[i] {
			lb.AppendNull()
			continue
		}
		lb.Append(true)
		if len(row) == 0 {
			continue
		}
		var rowValid []bool
		if elemValid != nil {
			rowValid = elemValid[i]
		}
		vb.AppendValues(row, rowValid)
	}

	return wrapArray(name, List, lb.NewArray())
}

// listValue materializes one list row for Get
func listValue(a *array.List, index int) interface{} {
	start, end := a.ValueOffsets(index)
	values := a.ListValues()

	if ints := asIntElems(values); ints != nil && !hasNullIn(ints, int(start), int(end)) {
		out := make([]int64, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, ints.at(int(j)))
		}
		return out
	}

	out := make([]interface{}, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, getRaw(values, int(j)))
	}
	return out
}

// hasNullIn reports whether any element in [start, end) is null
func hasNullIn(elems intElems, start, end int) bool {
	for j := start; j < end; j++ {
		if elems.IsNull(j) {
			return true
		}
	}
	return false
}

// ListInt64 returns a copy of the integer list at index and false if the row
// is null or the series is not an integer list. Null elements become 0.
func (s *Series) ListInt64(index int) ([]int64, bool) {
	lv, err := s.intLists()
	if err != nil || index < 0 || index >= s.Len() || lv.list.IsNull(index) {
		return nil, false
	}
	start, end := lv.list.ValueOffsets(index)
	out := make([]int64, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, lv.elems.at(int(j)))
	}
	return out, true
}

// ListLen returns the number of elements in the list at index (0 for nulls)
func (s *Series) ListLen(index int) int {
	a, ok := s.arr.(*array.List)
	if !ok || index < 0 || index >= a.Len() || a.IsNull(index) {
		return 0
	}
	start, end := a.ValueOffsets(index)
	return int(end - start)
}

// ListLengths returns an Int32 Series with the length of each list.
// Null lists produce null lengths.
func (s *Series) ListLengths() (*Series, error) {
	a, ok := s.arr.(*array.List)
	if !ok {
		return nil, typeMismatch(s.name, "List", s.TypeString())
	}

	lengths := make([]int32, a.Len())
	for i := range lengths {
		if a.IsValid(i) {
			start, end := a.ValueOffsets(i)
			lengths[i] = int32(end - start)
		}
	}

	var valid []bool
	if a.NullN() > 0 {
		valid = s.Validity()
	}
	return NewSeriesInt32WithNulls(s.name, lengths, valid), nil
}

// ============================================================================
// Integer list views
// ============================================================================

// intElems reads list elements as int64 regardless of the stored width
type intElems interface {
	IsNull(i int) bool
	at(i int) int64
}

type int64Elems struct{ *array.Int64 }

func (e int64Elems) at(i int) int64 { return e.Value(i) }

type int32Elems struct{ *array.Int32 }

func (e int32Elems) at(i int) int64 { return int64(e.Value(i)) }

func asIntElems(values arrow.Array) intElems {
	switch v := values.(type) {
	case *array.Int64:
		return int64Elems{v}
	case *array.Int32:
		return int32Elems{v}
	}
	return nil
}

// intListView gives row-wise access to a List[Int64] or List[Int32] column
type intListView struct {
	list  *array.List
	elems intElems
}

// intLists validates that the series is a list of integers
func (s *Series) intLists() (*intListView, error) {
	a, ok := s.arr.(*array.List)
	if !ok {
		return nil, typeMismatch(s.name, "List[Int64]", s.TypeString())
	}
	elems := asIntElems(a.ListValues())
	if elems == nil {
		return nil, typeMismatch(s.name, "List[Int64]", s.TypeString())
	}
	return &intListView{list: a, elems: elems}, nil
}

// checkIntList reports whether a field can feed the integer list kernels
func checkIntList(f Field) error {
	if f.DType != List || (f.Elem != Int64 && f.Elem != Int32) {
		return typeMismatch(f.Name, "List[Int64]", f.TypeString())
	}
	return nil
}

// ============================================================================
// Struct Series - a column of rows with named fields
// ============================================================================

// NewStructSeries creates a Struct Series from ordered field series.
// All fields must have the same length.
func NewStructSeries(name string, fields ...*Series) (*Series, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("struct %q: no fields", name)
	}

	cols := make([]arrow.Array, len(fields))
	names := make([]string, len(fields))
	for i, f := range fields {
		if f.Len() != fields[0].Len() {
			return nil, shapeMismatch(f.name, fields[0].Len(), f.Len())
		}
		cols[i] = f.arr
		names[i] = f.name
	}

	st, err := array.NewStructArray(cols, names)
	if err != nil {
		return nil, fmt.Errorf("struct %q: %w", name, err)
	}
	return wrapArray(name, Struct, st), nil
}

// StructField returns a field of a Struct series as its own Series
func (s *Series) StructField(name string) (*Series, error) {
	a, ok := s.arr.(*array.Struct)
	if !ok {
		return nil, typeMismatch(s.name, "Struct", s.TypeString())
	}
	idx, ok := a.DataType().(*arrow.StructType).FieldIdx(name)
	if !ok {
		return nil, columnNotFound(name)
	}
	return NewSeriesFromArrow(name, a.Field(idx))
}

// StructFieldNames returns the field names of a Struct series
func (s *Series) StructFieldNames() []string {
	a, ok := s.arr.(*array.Struct)
	if !ok {
		return nil
	}
	st := a.DataType().(*arrow.StructType)
	names := make([]string, st.NumFields())
	for i := range names {
		names[i] = st.Field(i).Name
	}
	return names
}
