package listsim

import (
	"testing"
)

func TestGetBucket(t *testing.T) {
	tests := []struct {
		size, want int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {1024, 10}, {1025, 11},
	}
	for _, tt := range tests {
		if got := getBucket(tt.size); got != tt.want {
			t.Errorf("getBucket(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestBoolMaskReuseIsZeroed(t *testing.T) {
	m := getBoolMask(100)
	if len(m.Data) != 100 {
		t.Fatalf("expected 100 elements, got %d", len(m.Data))
	}
	for i := range m.Data {
		m.Data[i] = true
	}
	m.Release()

	for i := 0; i < 10; i++ {
		m = getBoolMask(70)
		if len(m.Data) != 70 {
			t.Fatalf("expected 70 elements, got %d", len(m.Data))
		}
		for j, v := range m.Data {
			if v {
				t.Fatalf("pooled mask not cleared at %d", j)
			}
		}
		m.Release()
	}

	// nil masks are a no-op
	var none *BoolMask
	none.Release()
}

func TestRowSetsReleaseClears(t *testing.T) {
	sets := getRowSets()
	sets.a[setKey{v: 1}] = struct{}{}
	sets.b[setKey{null: true}] = struct{}{}
	sets.Release()

	for i := 0; i < 10; i++ {
		sets = getRowSets()
		if len(sets.a) != 0 || len(sets.b) != 0 {
			t.Fatalf("pooled sets not cleared: %v %v", sets.a, sets.b)
		}
		sets.Release()
	}
}
