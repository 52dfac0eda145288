package listsim

// Default input columns of LazySumDefault
const (
	DefaultSumColumnA = "list_a"
	DefaultSumColumnB = "list_b"
)

// LazySum appends a projection that sums colA and colB row by row in
// uint64 arithmetic. A null on either side gives a null row and overflow
// wraps. The result is a single UInt64 column named colA. Nothing runs
// until Collect; the projection declares its UInt64 output so the plan can
// be validated first.
func LazySum(lf *LazyFrame, colA, colB string) *LazyFrame {
	return lf.Select(SumExpr(colA, colB))
}

// LazySumAs is LazySum with an explicit output column name
func LazySumAs(lf *LazyFrame, colA, colB, name string) *LazyFrame {
	return lf.Select(SumExpr(colA, colB).Alias(name))
}

// LazySumDefault is LazySum over the "list_a" and "list_b" columns
func LazySumDefault(lf *LazyFrame) *LazyFrame {
	return LazySum(lf, DefaultSumColumnA, DefaultSumColumnB)
}

// SumExpr packs colA and colB into a struct and maps it to their uint64
// sum, for use in Select or WithColumn
func SumExpr(colA, colB string) *MapExpr {
	return StructOf(Col(colA), Col(colB)).
		Map(sumStructFields, UInt64).
		WithCheck(checkIntegerFields)
}

// sumStructFields adds the first two fields of a struct column
func sumStructFields(s *Series) (*Series, error) {
	names := s.StructFieldNames()
	if len(names) != 2 {
		return nil, shapeMismatch(s.Name(), 2, len(names))
	}

	fields := make([]*Series, 2)
	for i, name := range names {
		f, err := s.StructField(name)
		if err != nil {
			return nil, err
		}
		if !f.DType().IsInteger() {
			return nil, typeMismatch(name, "integer", f.TypeString())
		}
		fields[i] = f
	}

	return evaluateVectorOp(fields[0], OpAdd, fields[1], UInt64)
}

// checkIntegerFields verifies every struct child is an integer column
func checkIntegerFields(f Field) error {
	for _, c := range f.Children {
		if !c.DType.IsInteger() {
			return typeMismatch(c.Name, "integer", c.TypeString())
		}
	}
	return nil
}
