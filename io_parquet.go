package listsim

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// columnOrderKey is the footer metadata key that records the DataFrame's
// column order, since the parquet schema stores columns sorted by name
const columnOrderKey = "listsim.columns"

// ParquetReadOptions configures Parquet reading behavior
type ParquetReadOptions struct {
	Columns []string // Only read these columns (nil = all)
	MaxRows int      // Max rows to read (0 = unlimited)
}

// DefaultParquetReadOptions returns default Parquet reading options
func DefaultParquetReadOptions() ParquetReadOptions {
	return ParquetReadOptions{}
}

// ReadParquet reads a Parquet file into a DataFrame
func ReadParquet(path string, opts ...ParquetReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return ReadParquetFromReader(f, stat.Size(), opts...)
}

// ReadParquetSchema reads the schema from a Parquet file footer without
// reading any rows
func ReadParquetSchema(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	cols, err := fileColumns(pf)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, len(cols))
	for i, c := range cols {
		fields[i] = c.field
	}
	return NewSchema(fields...)
}

// ReadParquetFromReader reads Parquet data from an io.ReaderAt into a DataFrame
func ReadParquetFromReader(r io.ReaderAt, size int64, opts ...ParquetReadOptions) (*DataFrame, error) {
	opt := DefaultParquetReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	all, err := fileColumns(pf)
	if err != nil {
		return nil, err
	}

	// Determine columns to read
	cols := all
	if opt.Columns != nil {
		byName := make(map[string]parquetColumn, len(all))
		for _, c := range all {
			byName[c.field.Name] = c
		}
		cols = make([]parquetColumn, 0, len(opt.Columns))
		for _, name := range opt.Columns {
			c, ok := byName[name]
			if !ok {
				return nil, columnNotFound(name)
			}
			cols = append(cols, c)
		}
	}

	rowGroups := pf.RowGroups()
	Logger().Debug("read parquet",
		"rows", pf.NumRows(),
		"row_groups", len(rowGroups),
		"columns", len(cols),
	)

	// Row groups decode independently and are stacked in file order
	frames, err := parallelMap(len(rowGroups), func(i int) (*DataFrame, error) {
		df, err := readParquetRowGroup(rowGroups[i], cols, opt.MaxRows)
		if err != nil {
			return nil, fmt.Errorf("row group %d: %w", i, err)
		}
		return df, nil
	})
	if err != nil {
		return nil, err
	}

	if len(frames) == 0 {
		return readParquetRowGroup(nil, cols, 0)
	}
	df, err := ConcatVertical(frames...)
	if err != nil {
		return nil, err
	}
	if opt.MaxRows > 0 {
		df = df.Head(opt.MaxRows)
	}
	return df, nil
}

// ============================================================================
// Schema mapping
// ============================================================================

// parquetColumn maps a top-level parquet field onto one Series
type parquetColumn struct {
	field  Field
	index  int // leaf column index in the file
	maxDef int // definition level of a present value
	// listDef is the definition level of an empty list; lower levels mean a
	// null list. Unused for flat columns.
	listDef int
	// elemType is the arrow type of list elements or of the flat value
	elemType arrow.DataType
}

// fileColumns resolves the columns of a file, in the order recorded by the
// writer when present
func fileColumns(pf *parquet.File) ([]parquetColumn, error) {
	cols, err := parquetColumns(pf.Schema())
	if err != nil {
		return nil, err
	}

	raw, ok := pf.Lookup(columnOrderKey)
	if !ok {
		return cols, nil
	}
	var order []string
	if err := json.Unmarshal([]byte(raw), &order); err != nil || len(order) != len(cols) {
		return cols, nil
	}
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	for _, c := range cols {
		if _, ok := pos[c.field.Name]; !ok {
			return cols, nil
		}
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return pos[cols[i].field.Name] < pos[cols[j].field.Name]
	})
	return cols, nil
}

// parquetColumns resolves every top-level field of a parquet schema
func parquetColumns(schema *parquet.Schema) ([]parquetColumn, error) {
	leafIndex := make(map[string]int)
	for i, path := range schema.Columns() {
		if len(path) > 0 {
			if _, seen := leafIndex[path[0]]; !seen {
				leafIndex[path[0]] = i
			}
		}
	}

	fields := schema.Fields()
	cols := make([]parquetColumn, 0, len(fields))
	for _, f := range fields {
		c, err := parquetColumnFor(f)
		if err != nil {
			return nil, fmt.Errorf("parquet column %s: %w", f.Name(), err)
		}
		c.index = leafIndex[f.Name()]
		cols = append(cols, c)
	}
	return cols, nil
}

func parquetColumnFor(f parquet.Field) (parquetColumn, error) {
	outer := 0
	if f.Optional() {
		outer = 1
	}

	if f.Leaf() {
		dtype, at, err := parquetLeafType(f.Type())
		if err != nil {
			return parquetColumn{}, err
		}
		return parquetColumn{
			field:    Field{Name: f.Name(), DType: dtype, Elem: Null},
			maxDef:   outer,
			elemType: at,
		}, nil
	}

	// Three-level LIST: <optional> group name { repeated group list { <optional> element } }
	children := f.Fields()
	if len(children) != 1 || !children[0].Repeated() || children[0].Leaf() || len(children[0].Fields()) != 1 {
		return parquetColumn{}, fmt.Errorf("%w: unsupported nested parquet group", ErrTypeMismatch)
	}
	elem := children[0].Fields()[0]
	if !elem.Leaf() {
		return parquetColumn{}, fmt.Errorf("%w: nested list elements are not supported", ErrTypeMismatch)
	}
	dtype, at, err := parquetLeafType(elem.Type())
	if err != nil {
		return parquetColumn{}, err
	}
	maxDef := outer + 1
	if elem.Optional() {
		maxDef++
	}
	return parquetColumn{
		field:    Field{Name: f.Name(), DType: List, Elem: dtype},
		maxDef:   maxDef,
		listDef:  outer,
		elemType: at,
	}, nil
}

func parquetLeafType(t parquet.Type) (DType, arrow.DataType, error) {
	switch t.Kind() {
	case parquet.Boolean:
		return Bool, arrow.FixedWidthTypes.Boolean, nil
	case parquet.Int32:
		return Int32, arrow.PrimitiveTypes.Int32, nil
	case parquet.Int64:
		if lt := t.LogicalType(); lt != nil && lt.Integer != nil && !lt.Integer.IsSigned {
			return UInt64, arrow.PrimitiveTypes.Uint64, nil
		}
		return Int64, arrow.PrimitiveTypes.Int64, nil
	case parquet.Double:
		return Float64, arrow.PrimitiveTypes.Float64, nil
	case parquet.ByteArray:
		return String, arrow.BinaryTypes.String, nil
	default:
		return Null, nil, fmt.Errorf("%w: unsupported parquet type %s", ErrTypeMismatch, t)
	}
}

// ============================================================================
// Row decoding
// ============================================================================

// readParquetRowGroup decodes one row group (nil yields an empty frame)
func readParquetRowGroup(rg parquet.RowGroup, cols []parquetColumn, maxRows int) (*DataFrame, error) {
	decoders := make([]*columnDecoder, len(cols))
	byLeaf := make(map[int]*columnDecoder, len(cols))
	for i, c := range cols {
		decoders[i] = newColumnDecoder(c)
		byLeaf[c.index] = decoders[i]
	}
	defer func() {
		for _, d := range decoders {
			d.release()
		}
	}()

	if rg != nil {
		rows := rg.Rows()
		defer rows.Close()

		rowCount := 0
		rowBuf := make([]parquet.Row, 256)
		for maxRows <= 0 || rowCount < maxRows {
			n, err := rows.ReadRows(rowBuf)
			for _, row := range rowBuf[:n] {
				for _, d := range decoders {
					d.rowValues = d.rowValues[:0]
				}
				for _, v := range row {
					if d, ok := byLeaf[v.Column()]; ok {
						d.rowValues = append(d.rowValues, v)
					}
				}
				for _, d := range decoders {
					d.appendRow()
				}
				rowCount++
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read rows: %w", err)
			}
			if n == 0 {
				break
			}
		}
	}

	columns := make([]*Series, len(decoders))
	for i, d := range decoders {
		columns[i] = d.finish()
	}
	return NewDataFrame(columns...)
}

// columnDecoder rebuilds one Arrow column from leveled parquet values
type columnDecoder struct {
	col       parquetColumn
	flat      array.Builder
	list      *array.ListBuilder
	rowValues []parquet.Value
}

func newColumnDecoder(c parquetColumn) *columnDecoder {
	d := &columnDecoder{col: c}
	if c.field.DType == List {
		d.list = array.NewListBuilder(memory.DefaultAllocator, c.elemType)
	} else {
		d.flat = array.NewBuilder(memory.DefaultAllocator, c.elemType)
	}
	return d
}

func (d *columnDecoder) appendRow() {
	values := d.rowValues

	if d.list == nil {
		if len(values) == 0 || values[0].IsNull() || values[0].DefinitionLevel() < d.col.maxDef {
			d.flat.AppendNull()
			return
		}
		appendParquetValue(d.flat, values[0])
		return
	}

	if len(values) == 0 || values[0].DefinitionLevel() < d.col.listDef {
		d.list.AppendNull()
		return
	}
	d.list.Append(true)
	if values[0].DefinitionLevel() == d.col.listDef {
		return // empty list
	}
	vb := d.list.ValueBuilder()
	for _, v := range values {
		if v.DefinitionLevel() < d.col.maxDef {
			vb.AppendNull()
			continue
		}
		appendParquetValue(vb, v)
	}
}

func (d *columnDecoder) finish() *Series {
	if d.list != nil {
		return wrapArray(d.col.field.Name, List, d.list.NewArray())
	}
	return wrapArray(d.col.field.Name, d.col.field.DType, d.flat.NewArray())
}

func (d *columnDecoder) release() {
	if d.list != nil {
		d.list.Release()
	}
	if d.flat != nil {
		d.flat.Release()
	}
}

func appendParquetValue(b array.Builder, v parquet.Value) {
	switch bb := b.(type) {
	case *array.Int64Builder:
		bb.Append(v.Int64())
	case *array.Int32Builder:
		bb.Append(v.Int32())
	case *array.Uint64Builder:
		bb.Append(uint64(v.Int64()))
	case *array.Float64Builder:
		bb.Append(v.Double())
	case *array.BooleanBuilder:
		bb.Append(v.Boolean())
	case *array.StringBuilder:
		bb.Append(string(v.ByteArray()))
	default:
		b.AppendNull()
	}
}

// ============================================================================
// Writing
// ============================================================================

// ParquetWriteOptions configures Parquet writing behavior
type ParquetWriteOptions struct {
	Compression  string // "snappy", "gzip", "zstd", "none" (default "snappy")
	RowGroupSize int    // Rows per row group (default 1000000)
}

// DefaultParquetWriteOptions returns default Parquet writing options
func DefaultParquetWriteOptions() ParquetWriteOptions {
	return ParquetWriteOptions{
		Compression:  "snappy",
		RowGroupSize: 1000000,
	}
}

// WriteParquet writes a DataFrame to a Parquet file
func (df *DataFrame) WriteParquet(path string, opts ...ParquetWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := df.WriteParquetToWriter(f, opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteParquetToWriter writes a DataFrame to an io.Writer. Every column is
// optional; list columns use the standard three-level LIST layout with
// optional elements.
func (df *DataFrame) WriteParquetToWriter(w io.Writer, opts ...ParquetWriteOptions) error {
	opt := DefaultParquetWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	if df.Width() == 0 {
		return fmt.Errorf("cannot write a DataFrame with no columns to parquet")
	}

	// Build schema as a group of named columns
	group := make(parquet.Group)
	for _, col := range df.columns {
		node, err := parquetNodeFor(col)
		if err != nil {
			return err
		}
		group[col.Name()] = node
	}
	schema := parquet.NewSchema("dataframe", group)

	// Group fields are sorted by name, so look up each column's leaf index
	leafIndex := make(map[string]int, df.Width())
	for i, path := range schema.Columns() {
		leafIndex[path[0]] = i
	}
	encoders := make([]columnEncoder, df.Width())
	for i, col := range df.columns {
		encoders[i] = columnEncoder{series: col, index: leafIndex[col.Name()]}
	}
	sort.Slice(encoders, func(i, j int) bool { return encoders[i].index < encoders[j].index })

	order, err := json.Marshal(df.ColumnNames())
	if err != nil {
		return fmt.Errorf("failed to encode column order: %w", err)
	}
	writerOpts := []parquet.WriterOption{schema, parquet.KeyValueMetadata(columnOrderKey, string(order))}
	switch opt.Compression {
	case "snappy", "":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Snappy))
	case "gzip":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Gzip))
	case "zstd":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Zstd))
	case "none":
	default:
		return fmt.Errorf("unknown parquet compression %q", opt.Compression)
	}
	if opt.RowGroupSize > 0 {
		writerOpts = append(writerOpts, parquet.MaxRowsPerRowGroup(int64(opt.RowGroupSize)))
	}

	pw := parquet.NewWriter(w, writerOpts...)

	// Write in batches to bound memory
	const batchSize = 1000
	rows := make([]parquet.Row, 0, batchSize)
	for i := 0; i < df.Height(); i++ {
		var row parquet.Row
		for _, enc := range encoders {
			row = enc.appendRow(row, i)
		}
		rows = append(rows, row)

		if len(rows) >= batchSize {
			if _, err := pw.WriteRows(rows); err != nil {
				pw.Close()
				return fmt.Errorf("failed to write rows at %d: %w", i-len(rows)+1, err)
			}
			rows = rows[:0]
		}
	}

	if len(rows) > 0 {
		if _, err := pw.WriteRows(rows); err != nil {
			pw.Close()
			return fmt.Errorf("failed to write final rows: %w", err)
		}
	}

	return pw.Close()
}

func parquetNodeFor(s *Series) (parquet.Node, error) {
	if s.DType() == List {
		elem, err := parquetLeafNode(s.ElementType())
		if err != nil {
			return nil, typeMismatch(s.Name(), "List of a flat type", s.TypeString())
		}
		return parquet.Optional(parquet.List(parquet.Optional(elem))), nil
	}
	leaf, err := parquetLeafNode(s.DType())
	if err != nil {
		return nil, typeMismatch(s.Name(), "a parquet-compatible type", s.TypeString())
	}
	return parquet.Optional(leaf), nil
}

func parquetLeafNode(dtype DType) (parquet.Node, error) {
	switch dtype {
	case Float64:
		return parquet.Leaf(parquet.DoubleType), nil
	case Int64:
		return parquet.Int(64), nil
	case Int32:
		return parquet.Int(32), nil
	case UInt64:
		return parquet.Uint(64), nil
	case Bool:
		return parquet.Leaf(parquet.BooleanType), nil
	case String:
		return parquet.String(), nil
	default:
		return nil, fmt.Errorf("no parquet type for %s", dtype)
	}
}

// columnEncoder emits the leveled values of one column
type columnEncoder struct {
	series *Series
	index  int
}

// Definition levels of an optional list of optional elements
const (
	defNullList = iota
	defEmptyList
	defNullElem
	defElem
)

func (e columnEncoder) appendRow(row parquet.Row, i int) parquet.Row {
	s := e.series

	if s.DType() != List {
		if s.IsNull(i) {
			return append(row, parquet.NullValue().Level(0, 0, e.index))
		}
		return append(row, parquetValueAt(s.Arrow(), i).Level(0, 1, e.index))
	}

	list := s.Arrow().(*array.List)
	if list.IsNull(i) {
		return append(row, parquet.NullValue().Level(0, defNullList, e.index))
	}
	start, end := list.ValueOffsets(i)
	if start == end {
		return append(row, parquet.NullValue().Level(0, defEmptyList, e.index))
	}
	values := list.ListValues()
	for j := int(start); j < int(end); j++ {
		rep := 1
		if j == int(start) {
			rep = 0
		}
		if values.IsNull(j) {
			row = append(row, parquet.NullValue().Level(rep, defNullElem, e.index))
			continue
		}
		row = append(row, parquetValueAt(values, j).Level(rep, defElem, e.index))
	}
	return row
}

func parquetValueAt(arr arrow.Array, i int) parquet.Value {
	switch a := arr.(type) {
	case *array.Float64:
		return parquet.DoubleValue(a.Value(i))
	case *array.Int64:
		return parquet.Int64Value(a.Value(i))
	case *array.Int32:
		return parquet.Int32Value(a.Value(i))
	case *array.Uint64:
		return parquet.Int64Value(int64(a.Value(i)))
	case *array.Boolean:
		return parquet.BooleanValue(a.Value(i))
	case *array.String:
		return parquet.ByteArrayValue([]byte(a.Value(i)))
	default:
		return parquet.NullValue()
	}
}
