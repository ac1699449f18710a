package primesource

// Arena is a freelist-backed pool of fixed-capacity prime buffers. It
// replaces the upstream segmented-sieve producer's linked list of "stock"
// buckets (original_source/sieve/primesieve/MemoryPool.hpp) with a
// slice-backed arena addressed by freelist indices rather than a pointer
// chain, for a simpler lifetime story under the garbage collector.
type Arena struct {
	bufSize int
	buffers [][]uint64
	free    []int // indices into buffers available for reuse
}

// NewArena creates an arena whose buffers each hold bufSize primes.
func NewArena(bufSize int) *Arena {
	if bufSize <= 0 {
		bufSize = 1024
	}
	return &Arena{bufSize: bufSize}
}

// Get hands out a buffer from the freelist (growing the arena if empty) and
// the index identifying it, to be returned to Put once drained. The
// returned slice has length 0 and capacity bufSize.
func (a *Arena) Get() (int, []uint64) {
	if len(a.free) == 0 {
		a.buffers = append(a.buffers, make([]uint64, 0, a.bufSize))
		idx := len(a.buffers) - 1
		return idx, a.buffers[idx]
	}
	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	return idx, a.buffers[idx][:0]
}

// Put returns the buffer at idx to the freelist for reuse.
func (a *Arena) Put(idx int) {
	a.free = append(a.free, idx)
}

// Cap returns the number of buffers the arena has allocated so far.
func (a *Arena) Cap() int { return len(a.buffers) }
