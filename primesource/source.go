// Package primesource produces an ascending, deduplicated, chunked stream
// of odd primes for the Supervisor to partition across workers.
package primesource

import (
	"errors"
	"sync"
)

// ErrExhausted is returned once the source has produced every prime up to
// maxPrime. It is a normal termination condition, not a failure.
var ErrExhausted = errors.New("primesource: exhausted")

// Chunk is an ordered, contiguous slice of primes: chunk[i] < chunk[i+1].
type Chunk struct {
	Primes []uint64
}

// Back returns the last (largest) prime in the chunk.
func (c *Chunk) Back() uint64 {
	return c.Primes[len(c.Primes)-1]
}

// Source is a single-producer, multi-consumer-safe ascending prime stream.
// Internally backed by a segmented sieve and an Arena of reusable buffers.
type Source struct {
	mu        sync.Mutex
	sieve     *segmentedSieve
	arena     *Arena
	chunkSize int
	// outstanding maps a chunk's underlying buffer back to its arena index
	// so Release can return it to the freelist.
	outstanding map[*Chunk]int
}

// Config configures a Source.
type Config struct {
	Start     uint64 // first prime to consider, inclusive
	MaxPrime  uint64 // stop once primes exceed this bound
	ChunkSize int    // primes per chunk handed to a consumer
	SegSize   uint64 // internal segmented-sieve window size (0 = default)
}

// New creates a Source over [cfg.Start, cfg.MaxPrime].
func New(cfg Config) *Source {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	return &Source{
		sieve:       newSegmentedSieve(cfg.Start, cfg.MaxPrime, cfg.SegSize),
		arena:       NewArena(chunkSize),
		chunkSize:   chunkSize,
		outstanding: make(map[*Chunk]int),
	}
}

// NextChunk returns the next ascending chunk of primes, or ErrExhausted once
// the stream has passed maxPrime. Safe for a single producer goroutine; the
// returned Chunk may be handed to any number of consumers but must be
// returned via Release exactly once.
func (s *Source) NextChunk() (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sieve.done() {
		return nil, ErrExhausted
	}

	idx, buf := s.arena.Get()
	buf, produced := s.sieve.next(buf[:0])
	if !produced {
		s.arena.Put(idx)
		return nil, ErrExhausted
	}

	c := &Chunk{Primes: buf}
	s.outstanding[c] = idx
	return c, nil
}

// Release returns a chunk's buffer to the arena for reuse. Call once a
// worker has fully processed and acknowledged the chunk.
func (s *Source) Release(c *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.outstanding[c]; ok {
		s.arena.Put(idx)
		delete(s.outstanding, c)
	}
}
