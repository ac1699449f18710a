// Package worker implements CpuWorker: the persistent-pool consumer that
// pulls prime chunks from a primesource.Source, groups them for the
// 4-wide kernel shape, and reports hits to a sink.Sink.
package worker

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"

	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/kernel"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/primesource"
	"github.com/luxfi/sievemt/sink"
)

// groupSize is the lane width every kernel family is walked in, mirroring
// montgomery.LaneWidth: a 4-prime group is the unit the persistent pool
// parallelizes over.
const groupSize = 4

// CpuWorker pulls chunks, splits each into groups of groupSize primes
// (padding the tail with the chunk's last prime when it doesn't divide
// evenly), and runs each group's primes through the family kernel.
type CpuWorker struct {
	pool      *workerpool.Pool
	sink      *sink.Sink
	params    *family.Parameters
	interrupt *atomic.Bool
	width     int // montgomery.LaneWidth when this host can drive the vector path, else 1

	acked atomic.Uint64
}

// New creates a CpuWorker with a persistent pool of poolSize goroutines
// (0 means runtime.GOMAXPROCS, per workerpool.New's own default). The host's
// preferred lane width is probed once here and reused for every chunk.
func New(params *family.Parameters, snk *sink.Sink, poolSize int, interrupt *atomic.Bool) *CpuWorker {
	return &CpuWorker{
		pool:      workerpool.New(poolSize),
		sink:      snk,
		params:    params,
		interrupt: interrupt,
		width:     montgomery.PreferredWidth(),
	}
}

// Close shuts down the worker's persistent pool. Safe to call once the
// worker's Run has returned.
func (w *CpuWorker) Close() { w.pool.Close() }

// Acknowledged returns the largest prime this worker has fully processed
// and reported, the worker's contribution to the Supervisor's watermark.
func (w *CpuWorker) Acknowledged() uint64 { return w.acked.Load() }

// ErrInterrupted is returned by Run when the interrupt flag was observed
// at a group boundary before the source was exhausted.
var ErrInterrupted = errors.New("worker: interrupted")

// Run drains source until exhaustion or interruption, returning nil on
// clean exhaustion and ErrInterrupted if it stopped early. It never
// returns a kernel or DomainError: family.Parameters is validated before
// any worker starts.
func (w *CpuWorker) Run(ctx context.Context, source *primesource.Source) error {
	for {
		if w.interrupt != nil && w.interrupt.Load() {
			return ErrInterrupted
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk, err := source.NextChunk()
		if errors.Is(err, primesource.ErrExhausted) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := w.processChunk(chunk); err != nil {
			source.Release(chunk)
			return err
		}
		w.acked.Store(chunk.Back())
		source.Release(chunk)
	}
}

// group is one padded-to-groupSize slice of primes to run together.
type group struct {
	primes  [groupSize]uint64
	realLen int // number of primes in this group before tail padding
}

func buildGroups(primes []uint64) []group {
	n := len(primes)
	count := (n + groupSize - 1) / groupSize
	groups := make([]group, count)
	for i := 0; i < count; i++ {
		start := i * groupSize
		end := start + groupSize
		if end > n {
			end = n
		}
		g := &groups[i]
		g.realLen = end - start
		copy(g.primes[:], primes[start:end])
		// Pad the tail with the last real prime in this group: duplicate
		// primes are harmless to re-run through a kernel (same hit set
		// reported twice, deduplicated by the sink), and the watermark is
		// advanced from the chunk's real last prime, not a group index, so
		// the duplicate count never inflates the acknowledged value.
		last := g.primes[g.realLen-1]
		for j := g.realLen; j < groupSize; j++ {
			g.primes[j] = last
		}
	}
	return groups
}

func (w *CpuWorker) processChunk(chunk *primesource.Chunk) error {
	groups := buildGroups(chunk.Primes)

	var firstErr atomic.Value // error
	var interrupted atomic.Bool
	w.pool.ParallelForAtomic(len(groups), func(i int) {
		if w.interrupt != nil && w.interrupt.Load() {
			interrupted.Store(true)
			return
		}
		g := groups[i]
		if w.width == montgomery.LaneWidth {
			w.runGroupVector(g, &firstErr)
			return
		}
		w.runGroupScalar(g, &firstErr)
	})

	if v := firstErr.Load(); v != nil {
		return v.(error)
	}
	if interrupted.Load() {
		return ErrInterrupted
	}
	return nil
}

// runGroupScalar derives one MontgomeryContext per prime, for hosts
// PreferredWidth deems unfit for the vector path.
func (w *CpuWorker) runGroupScalar(g group, firstErr *atomic.Value) {
	for j := 0; j < g.realLen; j++ {
		hits, err := kernel.Run(g.primes[j], w.params)
		if err != nil {
			firstErr.Store(err)
			return
		}
		w.report(g.primes[j], hits)
	}
}

// runGroupVector derives one 4-wide VecContext for the whole group, then
// runs the kernel lane by lane against it: the batched-derivation shape the
// groupSize/LaneWidth pairing exists for, even though each family kernel
// still executes its per-lane walk through the scalar Context interface.
func (w *CpuWorker) runGroupVector(g group, firstErr *atomic.Value) {
	vctx, err := montgomery.NewVecContext(g.primes)
	if err != nil {
		firstErr.Store(err)
		return
	}
	for j := 0; j < g.realLen; j++ {
		hits, err := kernel.RunWithContext(vctx.Lane(j), w.params)
		if err != nil {
			firstErr.Store(err)
			return
		}
		w.report(g.primes[j], hits)
	}
}

func (w *CpuWorker) report(p uint64, hits []kernel.Hit) {
	for _, h := range hits {
		w.sink.Report(sink.Record{Prime: p, Term: h.Term, SignOrC: h.SignOrC})
	}
}
