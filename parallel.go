package listsim

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Parallel Execution Configuration
// ============================================================================

// ParallelConfig controls parallelization behavior
type ParallelConfig struct {
	// MinRowsForParallel is the minimum rows to split a frame at all.
	// Smaller frames run as a single partition.
	MinRowsForParallel int

	// MaxWorkers is the number of partitions and worker goroutines (0 = GOMAXPROCS)
	MaxWorkers int

	// Enabled controls whether parallelism is used at all
	Enabled bool
}

// DefaultParallelConfig returns the defaults: one partition per available
// CPU regardless of frame size.
func DefaultParallelConfig() *ParallelConfig {
	return &ParallelConfig{
		MinRowsForParallel: 0,
		MaxWorkers:         0, // Use all CPUs
		Enabled:            true,
	}
}

var (
	globalConfig   = DefaultParallelConfig()
	globalConfigMu sync.RWMutex
)

// SetParallelConfig sets the global parallelization configuration.
// A nil config is ignored.
func SetParallelConfig(cfg *ParallelConfig) {
	if cfg == nil {
		return
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// GetParallelConfig returns the current configuration
func GetParallelConfig() *ParallelConfig {
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// Validate reports every invalid field at once
func (cfg *ParallelConfig) Validate() error {
	var result *multierror.Error
	if cfg.MaxWorkers < 0 {
		result = multierror.Append(result, fmt.Errorf("MaxWorkers must be >= 0, got %d", cfg.MaxWorkers))
	}
	if cfg.MinRowsForParallel < 0 {
		result = multierror.Append(result, fmt.Errorf("MinRowsForParallel must be >= 0, got %d", cfg.MinRowsForParallel))
	}
	return result.ErrorOrNil()
}

// numWorkers returns the number of workers to use
func (cfg *ParallelConfig) numWorkers() int {
	if cfg.MaxWorkers > 0 {
		return cfg.MaxWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// shouldParallelize determines if an operation should be parallelized
func (cfg *ParallelConfig) shouldParallelize(rows int) bool {
	return cfg.Enabled && rows >= cfg.MinRowsForParallel
}

// partitionsFor returns the partition count for a frame of the given height
func (cfg *ParallelConfig) partitionsFor(rows int) int {
	if !cfg.shouldParallelize(rows) {
		return 1
	}
	return cfg.numWorkers()
}

// ============================================================================
// Fork-Join Execution
// ============================================================================

// forEachPartition runs fn once per partition on at most limit goroutines
// and returns the results indexed by partition, never by completion order.
// If any call fails the first error is returned once every started call
// has finished, and the results are discarded.
func forEachPartition[T any](parts []Partition, limit int, fn func(i int, p Partition) (T, error)) ([]T, error) {
	results := make([]T, len(parts))

	if len(parts) == 1 {
		r, err := fn(0, parts[0])
		if err != nil {
			return nil, err
		}
		results[0] = r
		return results, nil
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range parts {
		g.Go(func() error {
			r, err := fn(i, p)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// parallelMap applies fn to each index in [0, n) concurrently and keeps
// results in index order
func parallelMap[T any](n int, fn func(i int) (T, error)) ([]T, error) {
	cfg := GetParallelConfig()
	if !cfg.Enabled || n <= 1 {
		results := make([]T, n)
		for i := 0; i < n; i++ {
			r, err := fn(i)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	parts := make([]Partition, n)
	for i := range parts {
		parts[i] = Partition{Offset: i, Length: 1}
	}
	return forEachPartition(parts, cfg.numWorkers(), func(i int, _ Partition) (T, error) {
		return fn(i)
	})
}
