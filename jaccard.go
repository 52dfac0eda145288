package listsim

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// JaccardColumn is the name of the column produced by the similarity kernels
const JaccardColumn = "jaccard"

// ============================================================================
// Row-pair similarity
// ============================================================================

// setKey is one member of a row set. A null list element is kept as its
// own member so it can never collide with a real value.
type setKey struct {
	v    int64
	null bool
}

// rowSet collects the distinct members of list row i into set, which is
// cleared first.
func (lv *intListView) rowSet(i int, set map[setKey]struct{}) {
	clear(set)
	start, end := lv.list.ValueOffsets(i)
	for j := int(start); j < int(end); j++ {
		if lv.elems.IsNull(j) {
			set[setKey{null: true}] = struct{}{}
			continue
		}
		set[setKey{v: lv.elems.at(j)}] = struct{}{}
	}
}

// jaccardSets returns |A∩B| / (|A| + |B| - |A∩B|). Two empty sets give NaN.
func jaccardSets(a, b map[setKey]struct{}) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// JaccardSimilarity computes the row-wise Jaccard index of two list columns.
//
// Both columns must be List[Int64] or List[Int32] and have the same length.
// The result is a Float64 Series named "jaccard": a null cell on either side
// gives a null row, and two empty lists give NaN.
func JaccardSimilarity(a, b *Series) (*Series, error) {
	if a.Len() != b.Len() {
		return nil, shapeMismatch(b.Name(), a.Len(), b.Len())
	}
	la, err := a.intLists()
	if err != nil {
		return nil, err
	}
	lb, err := b.intLists()
	if err != nil {
		return nil, err
	}

	n := a.Len()
	builder := array.NewFloat64Builder(memory.DefaultAllocator)
	defer builder.Release()
	builder.Reserve(n)

	sets := getRowSets()
	defer sets.Release()
	for i := 0; i < n; i++ {
		if la.list.IsNull(i) || lb.list.IsNull(i) {
			builder.AppendNull()
			continue
		}
		la.rowSet(i, sets.a)
		lb.rowSet(i, sets.b)
		builder.Append(jaccardSets(sets.a, sets.b))
	}

	return wrapArray(JaccardColumn, Float64, builder.NewArray()), nil
}

// JaccardIndex returns the Jaccard index of two integer slices treated as
// sets. Two empty slices give NaN.
func JaccardIndex(a, b []int64) float64 {
	setA := make(map[setKey]struct{}, len(a))
	for _, v := range a {
		setA[setKey{v: v}] = struct{}{}
	}
	setB := make(map[setKey]struct{}, len(b))
	for _, v := range b {
		setB[setKey{v: v}] = struct{}{}
	}
	return jaccardSets(setA, setB)
}

// ============================================================================
// Parallel reduction
// ============================================================================

// ParallelJaccard computes the Jaccard index of colA and colB for every row
// of df using the global ParallelConfig. The result is a single-column
// DataFrame named "jaccard" with the same height and row order as df.
func ParallelJaccard(df *DataFrame, colA, colB string) (*DataFrame, error) {
	return ParallelJaccardWithConfig(df, colA, colB, GetParallelConfig())
}

// ParallelJaccardWithConfig is ParallelJaccard with an explicit configuration.
//
// The frame is split into contiguous partitions, each evaluated on a
// zero-copy slice by its own goroutine. Fragments are joined in partition
// order. A failing partition fails the whole call and no frame is returned.
func ParallelJaccardWithConfig(df *DataFrame, colA, colB string, cfg *ParallelConfig) (*DataFrame, error) {
	if cfg == nil {
		cfg = GetParallelConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("parallel jaccard: %w", err)
	}
	if err := checkJaccardInputs(df.Schema(), colA, colB); err != nil {
		return nil, err
	}

	workers := cfg.partitionsFor(df.Height())
	parts := SplitOffsets(df.Height(), workers)
	Logger().Debug("parallel jaccard dispatch",
		"rows", df.Height(),
		"partitions", len(parts),
		"workers", workers,
	)

	fragments, err := forEachPartition(parts, workers, func(i int, p Partition) (*DataFrame, error) {
		slice := df.Slice(p.Offset, p.Length)
		a, err := slice.Column(colA)
		if err != nil {
			return nil, err
		}
		b, err := slice.Column(colB)
		if err != nil {
			return nil, err
		}
		out, err := JaccardSimilarity(a, b)
		if err != nil {
			Logger().Debug("jaccard partition failed", "partition", i, "offset", p.Offset, "error", err)
			return nil, fmt.Errorf("partition %d: %w", i, err)
		}
		return NewDataFrame(out)
	})
	if err != nil {
		return nil, err
	}

	return ConcatVertical(fragments...)
}

// checkJaccardInputs verifies both columns exist and hold integer lists
func checkJaccardInputs(schema *Schema, colA, colB string) error {
	for _, name := range []string{colA, colB} {
		f, ok := schema.Field(name)
		if !ok {
			return columnNotFound(name)
		}
		if err := checkIntList(f); err != nil {
			return err
		}
	}
	return nil
}
