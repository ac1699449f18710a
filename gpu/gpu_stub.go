//go:build !cgo

package gpu

import (
	"context"
	"sync/atomic"

	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/primesource"
	"github.com/luxfi/sievemt/sink"
)

// GpuWorker is the pure-Go stand-in used when cgo is disabled: it reports
// ErrDeviceUnavailable rather than silently falling back to the CPU path,
// so a caller that explicitly requested GPU acceleration finds out.
type GpuWorker struct {
	params *family.Parameters
	cfg    Config
	acked  atomic.Uint64
}

// New constructs a GpuWorker. snk is accepted to keep the constructor's
// shape identical to the cgo build's, even though the stub never reports a
// factor.
func New(params *family.Parameters, _ *sink.Sink, cfg Config) (*GpuWorker, error) {
	return &GpuWorker{params: params, cfg: cfg}, nil
}

// Close is a no-op; there is no device context to release.
func (w *GpuWorker) Close() {}

// Acknowledged always reads zero: the stub never processes a chunk.
func (w *GpuWorker) Acknowledged() uint64 { return w.acked.Load() }

// Run returns a DeviceError wrapping ErrDeviceUnavailable immediately,
// without touching source, so the Supervisor's errgroup observes a fast,
// unambiguous failure instead of a worker that silently does nothing.
func (w *GpuWorker) Run(ctx context.Context, source *primesource.Source) error {
	return &DeviceError{Op: "dispatch", Err: ErrDeviceUnavailable}
}
