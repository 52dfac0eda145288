package listsim

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// Arrow Export
// ============================================================================

// arrowSchema returns the Arrow schema of the DataFrame's columns
func (df *DataFrame) arrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, df.Width())
	for i, col := range df.columns {
		fields[i] = arrow.Field{Name: col.Name(), Type: col.Arrow().DataType(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrow exports a DataFrame to an Arrow Record without copying column
// data. The caller is responsible for calling Release() on the returned
// Record.
func (df *DataFrame) ToArrow() arrow.Record {
	arrays := make([]arrow.Array, df.Width())
	for i, col := range df.columns {
		arrays[i] = col.Arrow()
	}
	// NewRecord retains the arrays
	return array.NewRecord(df.arrowSchema(), arrays, int64(df.Height()))
}

// ============================================================================
// Arrow Import
// ============================================================================

// NewDataFrameFromArrow creates a DataFrame from an Arrow Record. Columns
// share the record's buffers; the record may be released afterwards.
func NewDataFrameFromArrow(record arrow.Record) (*DataFrame, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}

	schema := record.Schema()
	series := make([]*Series, record.NumCols())
	for i := range series {
		name := schema.Field(i).Name
		s, err := NewSeriesFromArrow(name, record.Column(i))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		series[i] = s
	}

	return NewDataFrame(series...)
}

// emptyFrameFromArrowSchema builds a zero-row DataFrame with the given columns
func emptyFrameFromArrowSchema(schema *arrow.Schema) (*DataFrame, error) {
	series := make([]*Series, schema.NumFields())
	for i, f := range schema.Fields() {
		arr := array.MakeArrayOfNull(memory.DefaultAllocator, f.Type, 0)
		s, err := NewSeriesFromArrow(f.Name, arr)
		arr.Release()
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		series[i] = s
	}
	return NewDataFrame(series...)
}

// schemaFromArrow converts an Arrow schema to a Schema
func schemaFromArrow(schema *arrow.Schema) (*Schema, error) {
	fields := make([]Field, schema.NumFields())
	for i, f := range schema.Fields() {
		field, err := fieldFromArrow(f.Name, f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		fields[i] = field
	}
	return NewSchema(fields...)
}

// ============================================================================
// Arrow IPC (stream format)
// ============================================================================

// ReadIPC reads an Arrow IPC stream file into a DataFrame
func ReadIPC(path string) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadIPCFromReader(f)
}

// ReadIPCFromReader reads an Arrow IPC stream. All record batches are
// concatenated in stream order.
func ReadIPCFromReader(r io.Reader) (*DataFrame, error) {
	rdr, err := ipc.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open ipc stream: %w", err)
	}
	defer rdr.Release()

	var frames []*DataFrame
	for rdr.Next() {
		df, err := NewDataFrameFromArrow(rdr.Record())
		if err != nil {
			return nil, err
		}
		frames = append(frames, df)
	}
	if err := rdr.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read ipc stream: %w", err)
	}

	if len(frames) == 0 {
		return emptyFrameFromArrowSchema(rdr.Schema())
	}
	return ConcatVertical(frames...)
}

// ReadIPCSchema reads only the schema message of an Arrow IPC stream file
func ReadIPCSchema(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	rdr, err := ipc.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open ipc stream: %w", err)
	}
	defer rdr.Release()

	return schemaFromArrow(rdr.Schema())
}

// WriteIPC writes the DataFrame to a file as an Arrow IPC stream
func (df *DataFrame) WriteIPC(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := df.WriteIPCToWriter(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteIPCToWriter writes the DataFrame as a single-batch Arrow IPC stream
func (df *DataFrame) WriteIPCToWriter(w io.Writer) error {
	record := df.ToArrow()
	defer record.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(record.Schema()))
	if err := iw.Write(record); err != nil {
		iw.Close()
		return fmt.Errorf("failed to write ipc record: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("failed to close ipc stream: %w", err)
	}
	return nil
}
