package listsim

import (
	"fmt"
)

// DataFrame is an ordered set of equally long, uniquely named Series.
// DataFrames are immutable: every operation returns a new DataFrame that
// shares column data with its input.
type DataFrame struct {
	columns []*Series
	index   map[string]int
	height  int
}

// ============================================================================
// Creation
// ============================================================================

// NewDataFrame creates a DataFrame from Series. Nil series are skipped.
// All series must have the same length and distinct names.
func NewDataFrame(series ...*Series) (*DataFrame, error) {
	df := &DataFrame{
		columns: make([]*Series, 0, len(series)),
		index:   make(map[string]int, len(series)),
	}

	for _, s := range series {
		if s == nil {
			continue
		}
		if _, exists := df.index[s.Name()]; exists {
			return nil, fmt.Errorf("duplicate column name: %s", s.Name())
		}
		if len(df.columns) == 0 {
			df.height = s.Len()
		} else if s.Len() != df.height {
			return nil, shapeMismatch(s.Name(), df.height, s.Len())
		}
		df.index[s.Name()] = len(df.columns)
		df.columns = append(df.columns, s)
	}

	return df, nil
}

// ============================================================================
// Access
// ============================================================================

// Column returns the Series with the given name. A missing name yields an
// error wrapping ErrColumnNotFound.
func (df *DataFrame) Column(name string) (*Series, error) {
	idx, ok := df.index[name]
	if !ok {
		return nil, columnNotFound(name)
	}
	return df.columns[idx], nil
}

// ColumnByName returns the Series with the given name, or nil if not found.
func (df *DataFrame) ColumnByName(name string) *Series {
	idx, ok := df.index[name]
	if !ok {
		return nil
	}
	return df.columns[idx]
}

// ColumnAt returns the column at position i
func (df *DataFrame) ColumnAt(i int) *Series {
	if i < 0 || i >= len(df.columns) {
		return nil
	}
	return df.columns[i]
}

// Columns returns the columns in order
func (df *DataFrame) Columns() []*Series {
	return append([]*Series{}, df.columns...)
}

// ColumnNames returns the names of all columns in order.
func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.columns))
	for i, c := range df.columns {
		names[i] = c.Name()
	}
	return names
}

// Schema returns the DataFrame schema
func (df *DataFrame) Schema() *Schema {
	fields := make([]Field, len(df.columns))
	for i, c := range df.columns {
		fields[i] = c.Field()
	}
	return &Schema{fields: fields}
}

// Height returns the number of rows in the DataFrame.
func (df *DataFrame) Height() int {
	return df.height
}

// Width returns the number of columns in the DataFrame.
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Shape returns (rows, columns)
func (df *DataFrame) Shape() (int, int) {
	return df.height, len(df.columns)
}

// ============================================================================
// Selection
// ============================================================================

// Select returns a new DataFrame with the named columns in the given order.
func (df *DataFrame) Select(columns ...string) (*DataFrame, error) {
	selected := make([]*Series, 0, len(columns))
	for _, name := range columns {
		col, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, col)
	}
	return NewDataFrame(selected...)
}

// Drop returns a new DataFrame without the specified columns.
func (df *DataFrame) Drop(columns ...string) *DataFrame {
	dropSet := make(map[string]bool, len(columns))
	for _, name := range columns {
		dropSet[name] = true
	}

	kept := make([]*Series, 0, len(df.columns))
	for _, c := range df.columns {
		if !dropSet[c.Name()] {
			kept = append(kept, c)
		}
	}

	out, _ := NewDataFrame(kept...)
	return out
}

// WithColumn returns a new DataFrame with the series added, or replacing the
// column of the same name in place.
func (df *DataFrame) WithColumn(series *Series) (*DataFrame, error) {
	if series == nil {
		return df, nil
	}
	if len(df.columns) > 0 && series.Len() != df.height {
		return nil, shapeMismatch(series.Name(), df.height, series.Len())
	}

	cols := df.Columns()
	if idx, exists := df.index[series.Name()]; exists {
		cols[idx] = series
	} else {
		cols = append(cols, series)
	}
	return NewDataFrame(cols...)
}

// ============================================================================
// Row Slicing
// ============================================================================

// Slice returns length rows starting at offset without copying column data.
// The range is clamped to the DataFrame.
func (df *DataFrame) Slice(offset, length int) *DataFrame {
	if offset < 0 {
		offset = 0
	}
	if offset > df.height {
		offset = df.height
	}
	end := offset + length
	if length < 0 || end > df.height {
		end = df.height
	}

	out := &DataFrame{
		columns: make([]*Series, len(df.columns)),
		index:   df.index,
		height:  end - offset,
	}
	for i, c := range df.columns {
		out.columns[i] = c.Slice(offset, end)
	}
	return out
}

// Head returns the first n rows
func (df *DataFrame) Head(n int) *DataFrame {
	return df.Slice(0, n)
}

// Tail returns the last n rows
func (df *DataFrame) Tail(n int) *DataFrame {
	if n > df.height {
		n = df.height
	}
	return df.Slice(df.height-n, n)
}

// ============================================================================
// Vertical Concatenation
// ============================================================================

// ConcatVertical stacks DataFrames with identical schemas end to end. Row
// order is preserved: all rows of frames[0], then frames[1], and so on.
func ConcatVertical(frames ...*DataFrame) (*DataFrame, error) {
	if len(frames) == 0 {
		return NewDataFrame()
	}

	first := frames[0]
	for i, f := range frames[1:] {
		if err := sameSchema(first, f); err != nil {
			return nil, fmt.Errorf("concat frame %d: %w", i+1, err)
		}
	}

	cols := make([]*Series, first.Width())
	for c := range cols {
		parts := make([]*Series, len(frames))
		for i, f := range frames {
			parts[i] = f.columns[c]
		}
		merged, err := ConcatSeries(parts...)
		if err != nil {
			return nil, err
		}
		cols[c] = merged
	}
	return NewDataFrame(cols...)
}

// VStack appends the rows of other below df
func (df *DataFrame) VStack(other *DataFrame) (*DataFrame, error) {
	return ConcatVertical(df, other)
}

func sameSchema(a, b *DataFrame) error {
	if a.Width() != b.Width() {
		return fmt.Errorf("%w: width %d != %d", ErrShapeMismatch, a.Width(), b.Width())
	}
	for i, c := range a.columns {
		o := b.columns[i]
		if c.Name() != o.Name() {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrShapeMismatch, i, o.Name(), c.Name())
		}
		if c.TypeString() != o.TypeString() {
			return typeMismatch(o.Name(), c.TypeString(), o.TypeString())
		}
	}
	return nil
}

// Equal reports whether both frames have the same columns and cells
func (df *DataFrame) Equal(other *DataFrame) bool {
	if other == nil || df.Width() != other.Width() || df.height != other.height {
		return false
	}
	for i, c := range df.columns {
		if !c.Equal(other.columns[i]) {
			return false
		}
	}
	return true
}

// String returns a formatted table
func (df *DataFrame) String() string {
	return df.StringWithConfig(GetDisplayConfig())
}
