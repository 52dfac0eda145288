package listsim

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// JSONFormat specifies the JSON layout
type JSONFormat int

const (
	// JSONRecords is an array of row objects: [{"a":1,"b":2}, {"a":3,"b":4}]
	JSONRecords JSONFormat = iota
	// JSONColumns is an object of column arrays: {"a":[1,3],"b":[2,4]}
	JSONColumns
	// JSONLines is one row object per line (NDJSON)
	JSONLines
)

// JSONReadOptions configures JSON reading behavior
type JSONReadOptions struct {
	Format JSONFormat // Expected format
}

// DefaultJSONReadOptions returns default JSON reading options
func DefaultJSONReadOptions() JSONReadOptions {
	return JSONReadOptions{
		Format: JSONRecords,
	}
}

// ReadJSON reads a JSON file into a DataFrame
func ReadJSON(path string, opts ...JSONReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadJSONFromReader(f, opts...)
}

// ReadJSONFromReader reads JSON data from an io.Reader into a DataFrame.
//
// Columns are ordered by name. Integers become Int64 (UInt64 when they
// only fit unsigned), other numbers Float64, and arrays of integers
// List[Int64]. A column whose values are all null has type Null.
func ReadJSONFromReader(r io.Reader, opts ...JSONReadOptions) (*DataFrame, error) {
	opt := DefaultJSONReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	switch opt.Format {
	case JSONRecords:
		var records []map[string]interface{}
		if err := decodeJSON(data, &records); err != nil {
			return nil, err
		}
		return framesFromRecords(records)

	case JSONLines:
		records, err := decodeJSONLines(data)
		if err != nil {
			return nil, err
		}
		return framesFromRecords(records)

	case JSONColumns:
		var cols map[string][]interface{}
		if err := decodeJSON(data, &cols); err != nil {
			return nil, err
		}
		return frameFromColumns(cols)

	default:
		return nil, fmt.Errorf("unknown JSON format: %d", opt.Format)
	}
}

func decodeJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func decodeJSONLines(data []byte) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	for lineNo, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec map[string]interface{}
		if err := decodeJSON(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// framesFromRecords pivots row objects into columns. Keys missing from a
// record are null in that row.
func framesFromRecords(records []map[string]interface{}) (*DataFrame, error) {
	colSet := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			colSet[key] = true
		}
	}

	cols := make(map[string][]interface{}, len(colSet))
	for name := range colSet {
		values := make([]interface{}, len(records))
		for i, record := range records {
			values[i] = record[name]
		}
		cols[name] = values
	}
	return frameFromColumns(cols)
}

func frameFromColumns(cols map[string][]interface{}) (*DataFrame, error) {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	series, err := parallelMap(len(names), func(i int) (*Series, error) {
		s, err := buildJSONColumn(names[i], cols[names[i]])
		if err != nil {
			return nil, fmt.Errorf("failed to build column '%s': %w", names[i], err)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return NewDataFrame(series...)
}

// ============================================================================
// Type inference
// ============================================================================

// jsonKind classifies one decoded JSON value
func jsonKind(v interface{}) (DType, error) {
	switch x := v.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool, nil
	case string:
		return String, nil
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return Int64, nil
		}
		if _, err := strconv.ParseUint(x.String(), 10, 64); err == nil {
			return UInt64, nil
		}
		return Float64, nil
	case []interface{}:
		return List, nil
	default:
		return Null, fmt.Errorf("%w: unsupported JSON value %T", ErrTypeMismatch, v)
	}
}

// unifyKinds widens Int64 with UInt64 or Float64 and rejects other mixes
func unifyKinds(name string, a, b DType) (DType, error) {
	switch {
	case a == Null:
		return b, nil
	case b == Null || a == b:
		return a, nil
	case a.IsNumeric() && b.IsNumeric():
		if a == Float64 || b == Float64 {
			return Float64, nil
		}
		return UInt64, nil
	default:
		return Null, typeMismatch(name, a.String(), b.String())
	}
}

func inferJSONType(name string, values []interface{}) (DType, error) {
	dtype := Null
	for _, v := range values {
		k, err := jsonKind(v)
		if err != nil {
			return Null, err
		}
		if dtype, err = unifyKinds(name, dtype, k); err != nil {
			return Null, err
		}
	}
	return dtype, nil
}

func buildJSONColumn(name string, values []interface{}) (*Series, error) {
	dtype, err := inferJSONType(name, values)
	if err != nil {
		return nil, err
	}

	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = v != nil
	}

	switch dtype {
	case Null:
		return NewSeriesNull(name, len(values)), nil

	case Bool:
		data := make([]bool, len(values))
		for i, v := range values {
			if b, ok := v.(bool); ok {
				data[i] = b
			}
		}
		return NewSeriesBoolWithNulls(name, data, valid), nil

	case String:
		data := make([]string, len(values))
		for i, v := range values {
			if str, ok := v.(string); ok {
				data[i] = str
			}
		}
		return NewSeriesStringWithNulls(name, data, valid), nil

	case Int64:
		data := make([]int64, len(values))
		for i, v := range values {
			if n, ok := v.(json.Number); ok {
				data[i], _ = n.Int64()
			}
		}
		return NewSeriesInt64WithNulls(name, data, valid), nil

	case UInt64:
		data := make([]uint64, len(values))
		for i, v := range values {
			if n, ok := v.(json.Number); ok {
				data[i], err = parseJSONUint(n)
				if err != nil {
					return nil, typeMismatch(name, "UInt64", n.String())
				}
			}
		}
		return NewSeriesUInt64WithNulls(name, data, valid), nil

	case Float64:
		data := make([]float64, len(values))
		for i, v := range values {
			if n, ok := v.(json.Number); ok {
				data[i], _ = n.Float64()
			}
		}
		return NewSeriesFloat64WithNulls(name, data, valid), nil

	case List:
		return buildJSONListColumn(name, values, valid)
	}
	return nil, typeMismatch(name, "a JSON scalar or array", dtype.String())
}

func parseJSONUint(n json.Number) (uint64, error) {
	if i, err := n.Int64(); err == nil {
		return uint64(i), nil
	}
	return strconv.ParseUint(n.String(), 10, 64)
}

// buildJSONListColumn builds List[Int64] from arrays of integers, or
// List[Float64] when any element has a fraction
func buildJSONListColumn(name string, values []interface{}, valid []bool) (*Series, error) {
	elem := Null
	for _, v := range values {
		arr, _ := v.([]interface{})
		for _, e := range arr {
			k, err := jsonKind(e)
			if err != nil {
				return nil, err
			}
			if k != Null && k != Int64 && k != Float64 {
				return nil, typeMismatch(name, "array of numbers", "array of "+k.String())
			}
			if elem, err = unifyKinds(name, elem, k); err != nil {
				return nil, err
			}
		}
	}

	if elem == Float64 {
		data := make([][]float64, len(values))
		elemValid := make([][]bool, len(values))
		for i, v := range values {
			arr, _ := v.([]interface{})
			for _, e := range arr {
				n, ok := e.(json.Number)
				f, _ := n.Float64()
				data[i] = append(data[i], f)
				elemValid[i] = append(elemValid[i], ok)
			}
		}
		return NewSeriesListFloat64WithNulls(name, data, valid, elemValid), nil
	}

	return newListInt64FromJSON(name, values, valid), nil
}

// newListInt64FromJSON keeps null elements as nulls inside the lists
func newListInt64FromJSON(name string, values []interface{}, valid []bool) *Series {
	data := make([][]int64, len(values))
	elemValid := make([][]bool, len(values))
	for i, v := range values {
		arr, _ := v.([]interface{})
		for _, e := range arr {
			n, ok := e.(json.Number)
			if !ok {
				data[i] = append(data[i], 0)
				elemValid[i] = append(elemValid[i], false)
				continue
			}
			x, _ := n.Int64()
			data[i] = append(data[i], x)
			elemValid[i] = append(elemValid[i], true)
		}
	}
	return NewSeriesListInt64WithNulls(name, data, valid, elemValid)
}

// ============================================================================
// Writing
// ============================================================================

// JSONWriteOptions configures JSON writing behavior
type JSONWriteOptions struct {
	Format JSONFormat // Output format
	Indent string     // Indent string (default "", no indent)
}

// DefaultJSONWriteOptions returns default JSON writing options
func DefaultJSONWriteOptions() JSONWriteOptions {
	return JSONWriteOptions{
		Format: JSONRecords,
		Indent: "",
	}
}

// WriteJSON writes a DataFrame to a JSON file
func (df *DataFrame) WriteJSON(path string, opts ...JSONWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := df.WriteJSONToWriter(f, opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteJSONToWriter writes a DataFrame to an io.Writer. Object keys are
// sorted by column name; NaN and infinite floats are written as null.
func (df *DataFrame) WriteJSONToWriter(w io.Writer, opts ...JSONWriteOptions) error {
	opt := DefaultJSONWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	encoder := json.NewEncoder(w)
	if opt.Indent != "" {
		encoder.SetIndent("", opt.Indent)
	}

	switch opt.Format {
	case JSONRecords:
		records, err := df.jsonRecords()
		if err != nil {
			return err
		}
		return encoder.Encode(records)

	case JSONLines:
		records, err := df.jsonRecords()
		if err != nil {
			return err
		}
		encoder.SetIndent("", "")
		for _, rec := range records {
			if err := encoder.Encode(rec); err != nil {
				return err
			}
		}
		return nil

	case JSONColumns:
		colData := make(map[string]interface{}, df.Width())
		for _, col := range df.columns {
			vals := make([]interface{}, col.Len())
			for i := range vals {
				vals[i] = jsonValue(col.Get(i))
			}
			colData[col.Name()] = vals
		}
		return encoder.Encode(colData)

	default:
		return fmt.Errorf("unknown JSON format: %d", opt.Format)
	}
}

// jsonRecords builds one object per row, partitioned like the parallel
// engine for large frames
func (df *DataFrame) jsonRecords() ([]map[string]interface{}, error) {
	cfg := GetParallelConfig()
	workers := cfg.partitionsFor(df.Height())
	parts := SplitOffsets(df.Height(), workers)

	chunks, err := forEachPartition(parts, workers, func(_ int, p Partition) ([]map[string]interface{}, error) {
		out := make([]map[string]interface{}, 0, p.Length)
		for i := p.Offset; i < p.End(); i++ {
			record := make(map[string]interface{}, df.Width())
			for _, col := range df.columns {
				record[col.Name()] = jsonValue(col.Get(i))
			}
			out = append(out, record)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, 0, df.Height())
	for _, c := range chunks {
		records = append(records, c...)
	}
	return records, nil
}

// jsonValue replaces floats JSON cannot represent with null
func jsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = jsonValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = jsonValue(e)
		}
		return out
	}
	return v
}
