package listsim

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ============================================================================
// ParallelConfig Tests
// ============================================================================

func TestDefaultParallelConfig(t *testing.T) {
	cfg := DefaultParallelConfig()

	if cfg == nil {
		t.Fatal("DefaultParallelConfig returned nil")
	}
	if cfg.MinRowsForParallel != 0 {
		t.Errorf("MinRowsForParallel should default to 0, got %d", cfg.MinRowsForParallel)
	}
	if cfg.MaxWorkers != 0 {
		t.Errorf("MaxWorkers should default to 0, got %d", cfg.MaxWorkers)
	}
	if !cfg.Enabled {
		t.Error("Enabled should be true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestSetGetParallelConfig(t *testing.T) {
	// Save original config
	original := GetParallelConfig()
	defer SetParallelConfig(original)

	custom := &ParallelConfig{
		MinRowsForParallel: 1000,
		MaxWorkers:         2,
		Enabled:            false,
	}
	SetParallelConfig(custom)

	got := GetParallelConfig()
	if got.MinRowsForParallel != 1000 {
		t.Errorf("MinRowsForParallel = %d, want 1000", got.MinRowsForParallel)
	}
	if got.MaxWorkers != 2 {
		t.Errorf("MaxWorkers = %d, want 2", got.MaxWorkers)
	}
	if got.Enabled {
		t.Error("Enabled should be false")
	}

	// Setting nil should not change config
	SetParallelConfig(nil)
	if GetParallelConfig() != custom {
		t.Error("SetParallelConfig(nil) should not change config")
	}
}

func TestParallelConfigValidate(t *testing.T) {
	cfg := &ParallelConfig{MinRowsForParallel: -1, MaxWorkers: -2, Enabled: true}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error for negative fields")
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected a *multierror.Error, got %T", err)
	}
	if len(merr.Errors) != 2 {
		t.Errorf("expected both fields reported, got %d errors: %v", len(merr.Errors), err)
	}
}

func TestPartitionsFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  ParallelConfig
		rows int
		want int
	}{
		{"fixed workers", ParallelConfig{MaxWorkers: 4, Enabled: true}, 100, 4},
		{"disabled", ParallelConfig{MaxWorkers: 4, Enabled: false}, 100, 1},
		{"below threshold", ParallelConfig{MinRowsForParallel: 1000, MaxWorkers: 4, Enabled: true}, 999, 1},
		{"at threshold", ParallelConfig{MinRowsForParallel: 1000, MaxWorkers: 4, Enabled: true}, 1000, 4},
		{"auto workers", ParallelConfig{Enabled: true}, 10, runtime.GOMAXPROCS(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.partitionsFor(tt.rows); got != tt.want {
				t.Errorf("partitionsFor(%d) = %d, want %d", tt.rows, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Fork-Join Tests
// ============================================================================

func TestForEachPartitionOrder(t *testing.T) {
	parts := SplitOffsets(100, 10)

	results, err := forEachPartition(parts, 4, func(i int, p Partition) (int, error) {
		// later partitions finish first
		time.Sleep(time.Duration(len(parts)-i) * time.Millisecond)
		return p.Offset, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r != parts[i].Offset {
			t.Errorf("result %d: expected %d, got %d", i, parts[i].Offset, r)
		}
	}
}

func TestForEachPartitionLimit(t *testing.T) {
	var running, peak atomic.Int32

	_, err := forEachPartition(SplitOffsets(64, 16), 3, func(i int, p Partition) (struct{}, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 3 {
		t.Errorf("expected at most 3 concurrent partitions, saw %d", peak.Load())
	}
}

func TestForEachPartitionError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32

	results, err := forEachPartition(SplitOffsets(80, 8), 8, func(i int, p Partition) (int, error) {
		calls.Add(1)
		if i == 5 {
			return 0, boom
		}
		return i, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if results != nil {
		t.Errorf("partial results must be discarded, got %v", results)
	}
	if calls.Load() != 8 {
		t.Errorf("expected every partition to run, got %d calls", calls.Load())
	}
}

func TestParallelMap(t *testing.T) {
	original := GetParallelConfig()
	defer SetParallelConfig(original)

	for _, enabled := range []bool{true, false} {
		SetParallelConfig(&ParallelConfig{MaxWorkers: 4, Enabled: enabled})

		results, err := parallelMap(20, func(i int) (int, error) {
			return i * i, nil
		})
		if err != nil {
			t.Fatalf("enabled=%v: unexpected error: %v", enabled, err)
		}
		if len(results) != 20 {
			t.Fatalf("enabled=%v: expected 20 results, got %d", enabled, len(results))
		}
		for i, r := range results {
			if r != i*i {
				t.Errorf("enabled=%v: result %d = %d, want %d", enabled, i, r, i*i)
			}
		}
	}
}
