package listsim

import (
	"errors"
	"reflect"
	"testing"
)

func sampleFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2, 3, 4}),
		NewSeriesListInt64("tags", [][]int64{{1}, {2}, {3}, {4}}, nil),
		NewSeriesString("name", []string{"a", "b", "c", "d"}),
	)
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func TestNewDataFrame(t *testing.T) {
	df := sampleFrame(t)

	if h, w := df.Shape(); h != 4 || w != 3 {
		t.Errorf("Shape() = (%d, %d), want (4, 3)", h, w)
	}
	if names := df.ColumnNames(); !reflect.DeepEqual(names, []string{"id", "tags", "name"}) {
		t.Errorf("ColumnNames() = %v", names)
	}

	_, err := NewDataFrame(NewSeriesInt64("a", []int64{1}), NewSeriesInt64("a", []int64{2}))
	if err == nil {
		t.Error("duplicate names should be rejected")
	}

	_, err = NewDataFrame(NewSeriesInt64("a", []int64{1}), NewSeriesInt64("b", []int64{1, 2}))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected a shape mismatch, got %v", err)
	}

	empty, err := NewDataFrame()
	if err != nil || empty.Height() != 0 || empty.Width() != 0 {
		t.Errorf("empty frame: %v %d %d", err, empty.Height(), empty.Width())
	}
}

func TestDataFrameColumn(t *testing.T) {
	df := sampleFrame(t)

	col, err := df.Column("tags")
	if err != nil || col.Name() != "tags" {
		t.Fatalf("Column(tags) = %v, %v", col, err)
	}

	_, err = df.Column("missing")
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected column not found, got %v", err)
	}
	var colErr *ColumnError
	if !errors.As(err, &colErr) || colErr.Column != "missing" {
		t.Errorf("expected a ColumnError for missing, got %v", err)
	}

	if df.ColumnByName("missing") != nil || df.ColumnAt(5) != nil {
		t.Error("missing lookups should return nil")
	}
	if df.ColumnAt(2).Name() != "name" {
		t.Error("ColumnAt(2) should be name")
	}

	schema := df.Schema()
	if f, ok := schema.Field("tags"); !ok || f.TypeString() != "List[Int64]" {
		t.Errorf("schema field tags = %+v", f)
	}
}

func TestDataFrameSelectDropWithColumn(t *testing.T) {
	df := sampleFrame(t)

	sel, err := df.Select("name", "id")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !reflect.DeepEqual(sel.ColumnNames(), []string{"name", "id"}) {
		t.Errorf("Select order = %v", sel.ColumnNames())
	}
	if _, err := df.Select("id", "nope"); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("expected column not found, got %v", err)
	}

	if got := df.Drop("tags", "nope").ColumnNames(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Errorf("Drop = %v", got)
	}

	replaced, err := df.WithColumn(NewSeriesInt64("id", []int64{9, 9, 9, 9}))
	if err != nil {
		t.Fatalf("WithColumn: %v", err)
	}
	if replaced.Width() != 3 || replaced.ColumnAt(0).Get(0) != int64(9) {
		t.Error("WithColumn should replace in place")
	}

	added, err := df.WithColumn(NewSeriesBool("flag", []bool{true, false, true, false}))
	if err != nil || added.Width() != 4 || added.ColumnAt(3).Name() != "flag" {
		t.Errorf("WithColumn should append: %v", err)
	}

	if _, err := df.WithColumn(NewSeriesBool("flag", []bool{true})); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected a shape mismatch, got %v", err)
	}
}

func TestDataFrameSlice(t *testing.T) {
	df := sampleFrame(t)

	sl := df.Slice(1, 2)
	if sl.Height() != 2 || sl.ColumnByName("id").Get(0) != int64(2) {
		t.Errorf("Slice(1, 2) = %v", sl.ColumnByName("id").Int64())
	}
	if got := df.Slice(3, 10).Height(); got != 1 {
		t.Errorf("clamped Slice height = %d, want 1", got)
	}
	if got := df.Slice(10, 1).Height(); got != 0 {
		t.Errorf("out of range Slice height = %d, want 0", got)
	}
	if got := df.Head(3).Height(); got != 3 {
		t.Errorf("Head(3) height = %d", got)
	}
	tail := df.Tail(2)
	if tail.Height() != 2 || tail.ColumnByName("name").Get(0) != "c" {
		t.Errorf("Tail(2) = %v", tail.ColumnByName("name").Strings())
	}
}

func TestConcatVertical(t *testing.T) {
	df := sampleFrame(t)

	out, err := ConcatVertical(df.Slice(0, 1), df.Slice(1, 0), df.Slice(1, 3))
	if err != nil {
		t.Fatalf("ConcatVertical: %v", err)
	}
	if !out.Equal(df) {
		t.Errorf("slices should concatenate back to the original:\n%s", out)
	}

	other, _ := NewDataFrame(NewSeriesInt64("id", []int64{1}))
	if _, err := df.VStack(other); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected a shape mismatch, got %v", err)
	}

	retyped, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1}),
		NewSeriesListInt32("tags", [][]int32{{1}}, nil),
		NewSeriesString("name", []string{"z"}),
	)
	if _, err := ConcatVertical(df, retyped); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected a type mismatch, got %v", err)
	}

	none, err := ConcatVertical()
	if err != nil || none.Width() != 0 {
		t.Errorf("empty concat: %v", err)
	}
}
