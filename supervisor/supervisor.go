// Package supervisor owns the TermTable, FactorSink, and PrimeSource for a
// sieve run and drives the worker set to completion, checkpointing
// progress and advancing the watermark as primes are acknowledged.
package supervisor

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/sievemt/primesource"
	"github.com/luxfi/sievemt/sink"
	"github.com/luxfi/sievemt/term"
)

// ErrExhausted is returned by the monitor goroutine when the TermTable
// emptied before the prime stream did: every candidate term has a proven
// factor, so the run has nothing left to do. Run treats it as a clean
// finish and returns nil.
var ErrExhausted = errors.New("supervisor: term table exhausted")

// checkpointFloor is the minimum wall-clock interval between checkpoints
// absent a factor burst (spec.md §4.7: "every >=60s or on factor burst").
const checkpointFloor = 60 * time.Second

// Worker is anything the Supervisor can run against the shared PrimeSource
// and poll for its acknowledged watermark contribution; CpuWorker and
// GpuWorker satisfy this.
type Worker interface {
	Run(ctx context.Context, source *primesource.Source) error
	Acknowledged() uint64
}

// Checkpointer persists a Supervisor's progress; ioformat.FileCheckpointer
// satisfies this.
type Checkpointer interface {
	WriteCheckpoint(watermark uint64, alive []term.Key) error
}

// Supervisor owns the shared TermTable/FactorSink/PrimeSource and drives a
// worker set, advancing watermark = min(workers' Acknowledged()) and
// checkpointing on the floor-or-burst schedule.
type Supervisor struct {
	Table     term.Table
	Sink      *sink.Sink
	Source    *primesource.Source
	Workers   []Worker
	Telemetry *Telemetry
	Check     Checkpointer
	MaxPrime  uint64

	// Interrupt is shared with every worker: the Supervisor and its workers
	// must observe the exact same flag, so callers construct it once and
	// pass the same pointer into both New and each worker's constructor.
	Interrupt *atomic.Bool

	watermark      atomic.Uint64
	lastCheckpoint time.Time
	lastFactorLen  int
}

// New creates a Supervisor over the given shared components and worker set.
func New(table term.Table, snk *sink.Sink, source *primesource.Source, workers []Worker, check Checkpointer, maxPrime uint64, interrupt *atomic.Bool) *Supervisor {
	return &Supervisor{
		Table:     table,
		Sink:      snk,
		Source:    source,
		Workers:   workers,
		Telemetry: NewTelemetry(),
		Check:     check,
		MaxPrime:  maxPrime,
		Interrupt: interrupt,
	}
}

// Run drives every worker to completion via errgroup (first error wins,
// context cancellation propagates to every worker), alongside a monitor
// goroutine that advances the watermark, checkpoints, and stops the run
// once the TermTable is exhausted.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range s.Workers {
		w := w
		g.Go(func() error { return w.Run(gctx, s.Source) })
	}
	g.Go(func() error { return s.monitor(gctx) })

	err := g.Wait()
	if errors.Is(err, ErrExhausted) {
		return nil
	}
	return err
}

// monitor polls worker watermarks and the TermTable, checkpointing on the
// floor-or-burst schedule, until the table empties or ctx is cancelled.
func (s *Supervisor) monitor(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	s.lastCheckpoint = time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		wm := s.minAcknowledged()
		s.watermark.Store(wm)

		if s.Table.Size() == 0 {
			s.watermark.Store(s.MaxPrime)
			s.checkpoint()
			if s.Interrupt != nil {
				s.Interrupt.Store(true)
			}
			return ErrExhausted
		}

		if s.Interrupt != nil && s.Interrupt.Load() {
			s.checkpoint()
			return nil
		}

		if s.shouldCheckpoint() {
			s.checkpoint()
		}
	}
}

// Watermark returns the minimum acknowledged prime across every worker,
// the global lower bound below which no term can still be waiting on an
// unreported factor.
func (s *Supervisor) Watermark() uint64 { return s.watermark.Load() }

func (s *Supervisor) minAcknowledged() uint64 {
	if len(s.Workers) == 0 {
		return 0
	}
	min := s.Workers[0].Acknowledged()
	for _, w := range s.Workers[1:] {
		if a := w.Acknowledged(); a < min {
			min = a
		}
	}
	return min
}

// shouldCheckpoint applies the floor-or-burst schedule: always checkpoint
// once checkpointFloor has elapsed; checkpoint sooner if a burst of new
// factor reports landed while conservative throughput is low, since a
// quiet-but-bursty period means pausing to checkpoint is cheap right now.
func (s *Supervisor) shouldCheckpoint() bool {
	elapsed := time.Since(s.lastCheckpoint)
	if elapsed >= checkpointFloor {
		return true
	}

	n := s.Sink.Count()
	burst := n-s.lastFactorLen >= 16
	s.lastFactorLen = n
	if !burst {
		return false
	}
	return s.Telemetry.ConservativeThroughput() < 1
}

func (s *Supervisor) checkpoint() {
	if s.Check == nil {
		return
	}
	if err := s.Check.WriteCheckpoint(s.watermark.Load(), s.Table.Snapshot()); err != nil {
		log.Printf("supervisor: checkpoint write failed: %v", err)
		return
	}
	s.lastCheckpoint = time.Now()
}
