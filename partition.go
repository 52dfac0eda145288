package listsim

// Partition is a contiguous row range [Offset, Offset+Length) processed by
// one worker.
type Partition struct {
	Offset int
	Length int
}

// End returns the exclusive end row of the partition
func (p Partition) End() int {
	return p.Offset + p.Length
}

// SplitOffsets splits length rows into n contiguous partitions that cover
// [0, length) without gaps or overlaps. Every partition but the last holds
// length/n rows; the last absorbs the remainder. When n exceeds length the
// leading partitions are empty.
func SplitOffsets(length, n int) []Partition {
	if length < 0 {
		length = 0
	}
	if n <= 1 {
		return []Partition{{Offset: 0, Length: length}}
	}

	chunk := length / n
	parts := make([]Partition, n)
	for i := range parts {
		parts[i] = Partition{Offset: i * chunk, Length: chunk}
	}
	parts[n-1].Length = length - (n-1)*chunk
	return parts
}
