package primesource

import "math"

// segmentedSieve is the internal odd-prime enumerator backing PrimeSource.
// Sieve of Eratosthenes itself is a well-known algorithm explicitly out of
// scope for this design (spec.md §1); this is the minimal concrete producer
// needed to drive PrimeSource's chunking, dedup, and bound contract, not a
// performance-tuned implementation.
type segmentedSieve struct {
	maxPrime uint64
	segSize  uint64
	basis    []uint64 // small primes up to sqrt(maxPrime)

	segLo  uint64 // inclusive lower bound of the current segment
	segHi  uint64 // inclusive upper bound of the current segment
	marks  []bool // composite marks for the current segment, indexed by n-segLo
	cursor uint64 // next candidate to examine, in [segLo, segHi]
	ready  bool   // whether segLo/segHi/marks/cursor describe a live segment
}

func newSegmentedSieve(start, maxPrime, segSize uint64) *segmentedSieve {
	if segSize == 0 {
		segSize = 1 << 16
	}
	if start < 3 {
		start = 3
	}
	return &segmentedSieve{
		maxPrime: maxPrime,
		segSize:  segSize,
		basis:    smallPrimes(isqrt(maxPrime) + 1),
		segLo:    start,
	}
}

// smallPrimes returns all primes <= limit via plain trial-division sieve.
func smallPrimes(limit uint64) []uint64 {
	if limit < 2 {
		return nil
	}
	sieve := make([]bool, limit+1)
	var primes []uint64
	for p := uint64(2); p <= limit; p++ {
		if sieve[p] {
			continue
		}
		primes = append(primes, p)
		for m := p * p; m <= limit; m += p {
			sieve[m] = true
		}
	}
	return primes
}

func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	r := uint64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// loadSegment (re)computes marks for the next unprocessed segment.
func (s *segmentedSieve) loadSegment() {
	hi := s.segLo + s.segSize - 1
	if hi > s.maxPrime {
		hi = s.maxPrime
	}
	marks := make([]bool, hi-s.segLo+1)
	for _, p := range s.basis {
		if p*p > hi {
			break
		}
		start := ((s.segLo + p - 1) / p) * p
		if start < p*p {
			start = p * p
		}
		for m := start; m <= hi; m += p {
			marks[m-s.segLo] = true
		}
	}
	s.segHi = hi
	s.marks = marks
	s.cursor = s.segLo
	s.ready = true
}

// next fills buf (expected length 0) with the next batch of odd primes in
// ascending order, up to cap(buf) entries, and reports whether any prime
// was produced by this call.
func (s *segmentedSieve) next(buf []uint64) ([]uint64, bool) {
	produced := false
	for len(buf) < cap(buf) {
		if !s.ready {
			if s.segLo > s.maxPrime {
				break
			}
			s.loadSegment()
		}
		for s.cursor <= s.segHi && len(buf) < cap(buf) {
			n := s.cursor
			s.cursor++
			if n < 3 || s.marks[n-s.segLo] {
				continue
			}
			if n%2 == 0 {
				continue
			}
			buf = append(buf, n)
			produced = true
		}
		if s.cursor > s.segHi {
			s.segLo = s.segHi + 1
			s.ready = false
		}
	}
	return buf, produced
}

func (s *segmentedSieve) done() bool {
	return !s.ready && s.segLo > s.maxPrime
}
