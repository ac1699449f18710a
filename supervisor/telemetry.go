package supervisor

import (
	"sync"

	"github.com/montanaflynn/stats"
)

// TelemetrySample is one worker's throughput reading, fed into the rolling
// mean/stddev used to pace checkpoint timing.
type TelemetrySample struct {
	WorkerID         string
	PrimesPerSecond  float64
	TimestampOrdinal uint64
}

// Telemetry accumulates TelemetrySamples and exposes a rolling mean/stddev
// via montanaflynn/stats. It never affects correctness, only checkpoint
// pacing (§4.7): a conservative throughput estimate of mean-stddev decides
// whether a quiet stretch should wait out the 60s checkpoint floor or a
// burst of activity warrants checkpointing immediately.
type Telemetry struct {
	mu      sync.Mutex
	samples []float64
}

// NewTelemetry returns an empty Telemetry.
func NewTelemetry() *Telemetry {
	return &Telemetry{}
}

// Record appends a sample's throughput reading.
func (t *Telemetry) Record(sample TelemetrySample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, sample.PrimesPerSecond)
}

// MeanStdDev returns the rolling mean and standard deviation of recorded
// throughput samples. Both are zero when no samples have been recorded;
// it never panics or returns an error on an empty or single-sample set.
func (t *Telemetry) MeanStdDev() (mean, stddev float64) {
	t.mu.Lock()
	data := make(stats.Float64Data, len(t.samples))
	copy(data, t.samples)
	t.mu.Unlock()

	if len(data) == 0 {
		return 0, 0
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return 0, 0
	}
	if len(data) < 2 {
		return mean, 0
	}
	stddev, err = stats.StandardDeviation(data)
	if err != nil {
		return mean, 0
	}
	return mean, stddev
}

// ConservativeThroughput returns mean-stddev, floored at zero: a pessimistic
// estimate of primes/second used only to pace checkpoint frequency.
func (t *Telemetry) ConservativeThroughput() float64 {
	mean, stddev := t.MeanStdDev()
	v := mean - stddev
	if v < 0 {
		return 0
	}
	return v
}
