package listsim

import (
	"sync"
)

// ============================================================================
// Row-set pool
// ============================================================================

// maxPooledSetLen bounds the sets returned to the pool. Go maps never
// shrink, so one very long row would otherwise pin its buckets forever.
const maxPooledSetLen = 1 << 12

// rowSets is a pair of scratch sets for one similarity kernel call
// Call Release() when done to return it to the pool
type rowSets struct {
	a, b map[setKey]struct{}
}

var rowSetPool = sync.Pool{
	New: func() interface{} {
		return &rowSets{
			a: make(map[setKey]struct{}),
			b: make(map[setKey]struct{}),
		}
	},
}

// getRowSets gets an empty pair of sets from the pool
func getRowSets() *rowSets {
	return rowSetPool.Get().(*rowSets)
}

// Release clears both sets and returns the pair to the pool
func (r *rowSets) Release() {
	if len(r.a) > maxPooledSetLen || len(r.b) > maxPooledSetLen {
		return
	}
	clear(r.a)
	clear(r.b)
	rowSetPool.Put(r)
}

// ============================================================================
// Validity mask pool
// ============================================================================

// BoolMask is a pooled boolean slice used for validity bitmaps before they
// are copied into an Arrow builder
// Call Release() when done to return it to the pool
type BoolMask struct {
	Data []bool
	pool *sync.Pool
}

// Release returns the mask to the pool for reuse
func (m *BoolMask) Release() {
	if m == nil || m.pool == nil || m.Data == nil {
		return
	}
	m.Data = m.Data[:cap(m.Data)]
	clear(m.Data)
	m.pool.Put(m)
}

// Pool sizes - power-of-2 buckets
var (
	boolPools [32]*sync.Pool // pools for sizes 2^0 to 2^31
	poolInit  sync.Once
)

func initPools() {
	poolInit.Do(func() {
		for i := range boolPools {
			size := 1 << i
			boolPools[i] = &sync.Pool{
				New: func() interface{} {
					return &BoolMask{Data: make([]bool, size)}
				},
			}
		}
	})
}

// getBucket returns the pool bucket index for a given size
func getBucket(size int) int {
	if size <= 0 {
		return 0
	}
	// Find the smallest power of 2 >= size
	bucket := 0
	n := size - 1
	for n > 0 {
		n >>= 1
		bucket++
	}
	if bucket >= 32 {
		bucket = 31
	}
	return bucket
}

// getBoolMask gets a zeroed bool mask of exactly size elements
func getBoolMask(size int) *BoolMask {
	initPools()
	bucket := getBucket(size)
	pool := boolPools[bucket]
	mask := pool.Get().(*BoolMask)
	mask.pool = pool

	if size > cap(mask.Data) {
		mask.Data = make([]bool, size)
	}
	mask.Data = mask.Data[:size]
	return mask
}
