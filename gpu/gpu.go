// Package gpu implements GpuWorker: an OpenCL-accelerated alternative to
// worker.CpuWorker for the families whose kernel text is embedded under
// gpu/kernels. A //go:build cgo / !cgo dichotomy splits the real device
// path from a pure-Go stub with an identical exported surface, so
// supervisor.Supervisor never branches on build tags: both sides implement
// Worker.
package gpu

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"golang.org/x/sys/cpu"

	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/primesource"
)

//go:embed kernels/*.cl
var kernelSources embed.FS

// ErrDeviceUnavailable is returned by the !cgo stub's Run for every kernel:
// no OpenCL device can be opened without a cgo-enabled build.
var ErrDeviceUnavailable = errors.New("gpu: no OpenCL device available (built without cgo)")

// ErrFactorOverflow is returned when a launch's factor buffer filled before
// the kernel finished its step budget; the fix is to raise -M.
var ErrFactorOverflow = errors.New("gpu: factor buffer overflow, raise -M (maxGpuFactors)")

// ErrUnsupportedFamily is returned when params.Kind names a family with no
// embedded kernel source (§4.6: only the families under gpu/kernels have an
// accelerated path; every family still runs on worker.CpuWorker).
var ErrUnsupportedFamily = errors.New("gpu: no kernel source embedded for this family")

// DeviceError wraps a failure from the OpenCL device path (build, enqueue,
// or readback) with the launch that triggered it.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("gpu: %s: %v", e.Op, e.Err) }
func (e *DeviceError) Unwrap() error { return e.Err }

// Config configures a GpuWorker launch: how many primes it pulls per
// device dispatch, how large its factor and step budgets are, and how many
// chunks it accumulates before dispatching (a GPU worker processes
// multi-chunk batches, unlike a CpuWorker's one-chunk-at-a-time granularity,
// per spec.md §4.7's "GPU workers larger multi-chunk batches").
type Config struct {
	PrimesPerLaunch int
	MaxFactors      int
	MaxSteps        int
	ChunksPerBatch  int
}

// DefaultConfig mirrors mtsieve's typical GPU worker defaults.
func DefaultConfig() Config {
	return Config{
		PrimesPerLaunch: 1 << 16,
		MaxFactors:      1 << 12,
		MaxSteps:        1 << 14,
		ChunksPerBatch:  1,
	}
}

// Worker is the interface both the cgo and stub GpuWorker implementations
// satisfy; it is exactly supervisor.Worker's shape, named locally so this
// package does not need to import supervisor.
type Worker interface {
	Run(ctx context.Context, source *primesource.Source) error
	Acknowledged() uint64
}

// kernelFamilyFile maps a family.Kind to its embedded OpenCL source, for the
// families that have one.
func kernelFamilyFile(kind family.Kind) (string, bool) {
	switch kind {
	case family.KindMultiFactorial:
		return "kernels/multifactorial.cl", true
	case family.KindAlternatingFactorial:
		return "kernels/alternatingfactorial.cl", true
	default:
		return "", false
	}
}

// loadKernelSource reads the embedded text asset for kind and prepends a
// #define prelude generated from params, reproducing mf_kernel.h's
// prelude-plus-body shape without compiling the source into the binary as
// a Go string literal.
func loadKernelSource(kind family.Kind, params *family.Parameters, cfg Config) (string, error) {
	path, ok := kernelFamilyFile(kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFamily, kind)
	}
	body, err := kernelSources.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("gpu: read embedded kernel %s: %w", path, err)
	}
	return kernelPrelude(kind, params, cfg) + string(body), nil
}

// kernelPrelude generates the #define lines a kernel body expects, mirroring
// MultiFactorialGpuWorker.cpp's sprintf(defines[...], "#define D_...") loop.
func kernelPrelude(kind family.Kind, params *family.Parameters, cfg Config) string {
	prelude := fmt.Sprintf("#define D_MAX_FACTORS %d\n#define D_MAX_STEPS %d\n", cfg.MaxFactors, cfg.MaxSteps)
	switch kind {
	case family.KindMultiFactorial:
		p := params.MultiFactorial
		prelude += fmt.Sprintf("#define D_MIN_N %d\n#define D_MAX_N %d\n#define D_MULTIFACTORIAL %d\n",
			p.MinN, p.MaxN, p.Multi)
	case family.KindAlternatingFactorial:
		p := params.AlternatingFactorial
		prelude += fmt.Sprintf("#define D_MAX_N %d\n", p.MaxN)
	}
	return prelude
}

// PreferredBackend reports whether this host's SIMD tier makes a GPU
// launch worthwhile at all versus the vector CPU path (montgomery.
// PreferredWidth): a host without at least AVX2/ASIMD-class integer SIMD
// is also unlikely to have a capable OpenCL ICD, so this is logged as a
// hint, never used to block a GPU launch outright.
func PreferredBackend() string {
	switch {
	case cpu.X86.HasAVX2:
		return "gpu (host: x86_64 AVX2)"
	case cpu.ARM64.HasASIMD:
		return "gpu (host: arm64 ASIMD)"
	default:
		return "cpu (host lacks AVX2/ASIMD; GPU launch still attempted if requested)"
	}
}
