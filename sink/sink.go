// Package sink implements FactorSink: the single choke point every worker
// reports (prime, term) factor hits through. It deduplicates, persists, and
// notifies the owning TermTable.
package sink

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/luxfi/sievemt/term"
)

// Record is one proven factor: prime divides the expression for Term, with
// SignOrC carrying the family-specific sign or constant (c for n!_m ± c,
// the solved c for FixedKBN, etc).
type Record struct {
	Prime   uint64
	Term    term.Key
	SignOrC int32
}

func dedupKey(prime uint64, key term.Key) [32]byte {
	var buf [28]byte
	binary.BigEndian.PutUint64(buf[0:8], prime)
	binary.BigEndian.PutUint64(buf[8:16], key.K)
	binary.BigEndian.PutUint64(buf[16:24], key.N)
	binary.BigEndian.PutUint32(buf[24:28], uint32(key.C))
	return blake3.Sum256(buf[:])
}

// Table is the subset of term.Table the sink needs to notify on a new
// factor; satisfied by *term.RangeBitset and *term.IndexedList.
type Table interface {
	Remove(key term.Key)
}

// Sink deduplicates and persists factor reports from any number of
// concurrent workers, single mutex around append-and-notify (spec.md §5).
type Sink struct {
	mu      sync.Mutex
	seen    map[[32]byte]struct{}
	records []Record
	table   Table
}

// New creates a Sink that forwards newly-accepted factors to table.Remove.
func New(table Table) *Sink {
	return &Sink{
		seen:  make(map[[32]byte]struct{}),
		table: table,
	}
}

// Report records a factor hit. Returns true if this is the first time the
// (prime, term) pair has been seen; a false return means a duplicate was
// silently dropped, satisfying the at-most-once invariant even under
// concurrent rediscovery by multiple workers.
func (s *Sink) Report(rec Record) bool {
	key := dedupKey(rec.Prime, rec.Term)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.records = append(s.records, rec)
	if s.table != nil {
		s.table.Remove(rec.Term)
	}
	return true
}

// Count returns the number of distinct factor records accepted so far.
func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Flush returns every accepted record sorted by (prime asc, term asc), the
// order in which spec.md §5 requires the sink to present them — factor
// records are not globally ordered as they arrive, only at flush time.
func (s *Sink) Flush() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Prime != out[j].Prime {
			return out[i].Prime < out[j].Prime
		}
		return termLess(out[i].Term, out[j].Term)
	})
	return out
}

func termLess(a, b term.Key) bool {
	if a.N != b.N {
		return a.N < b.N
	}
	if a.K != b.K {
		return a.K < b.K
	}
	return a.C < b.C
}
