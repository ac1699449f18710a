package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luxfi/sievemt/primesource"
	"github.com/luxfi/sievemt/sink"
	"github.com/luxfi/sievemt/term"
)

func TestTelemetryEmptyIsZero(t *testing.T) {
	tel := NewTelemetry()
	mean, stddev := tel.MeanStdDev()
	if mean != 0 || stddev != 0 {
		t.Errorf("expected zero mean/stddev on empty telemetry, got %v/%v", mean, stddev)
	}
	if tel.ConservativeThroughput() != 0 {
		t.Errorf("expected zero conservative throughput on empty telemetry")
	}
}

func TestTelemetryRefinesWithSamples(t *testing.T) {
	tel := NewTelemetry()
	tel.Record(TelemetrySample{WorkerID: "w1", PrimesPerSecond: 100})
	mean, _ := tel.MeanStdDev()
	if mean != 100 {
		t.Errorf("expected mean 100 after one sample, got %v", mean)
	}
	tel.Record(TelemetrySample{WorkerID: "w1", PrimesPerSecond: 200})
	mean, stddev := tel.MeanStdDev()
	if mean != 150 {
		t.Errorf("expected mean 150 after two samples, got %v", mean)
	}
	if stddev <= 0 {
		t.Errorf("expected positive stddev after divergent samples, got %v", stddev)
	}
}

type fakeWorker struct {
	acked uint64
}

func (f *fakeWorker) Acknowledged() uint64 { return f.acked }
func (f *fakeWorker) Run(ctx context.Context, source *primesource.Source) error {
	for {
		_, err := source.NextChunk()
		if err == primesource.ErrExhausted {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func TestMinAcknowledgedTakesMinimumAcrossWorkers(t *testing.T) {
	s := &Supervisor{
		Workers: []Worker{&fakeWorker{acked: 97}, &fakeWorker{acked: 13}, &fakeWorker{acked: 50}},
	}
	if got := s.minAcknowledged(); got != 13 {
		t.Errorf("expected min 13, got %d", got)
	}
}

type fakeCheckpointer struct {
	calls int
}

func (f *fakeCheckpointer) WriteCheckpoint(watermark uint64, alive []term.Key) error {
	f.calls++
	return nil
}

func TestRunStopsWhenTableExhausted(t *testing.T) {
	table := term.NewRangeBitset(1, 1)
	table.Remove(term.Key{K: 1}) // already empty

	src := primesource.New(primesource.Config{Start: 2, MaxPrime: 100, ChunkSize: 8})
	check := &fakeCheckpointer{}
	var interrupt atomic.Bool
	s := New(table, sink.New(nil), src, []Worker{&fakeWorker{}}, check, 100, &interrupt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("expected clean exit on exhausted table, got %v", err)
	}
	if check.calls == 0 {
		t.Error("expected at least one checkpoint write on exhaustion")
	}
	if s.Watermark() != 100 {
		t.Errorf("expected watermark advanced to MaxPrime 100, got %d", s.Watermark())
	}
}
