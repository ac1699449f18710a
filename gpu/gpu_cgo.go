//go:build cgo

package gpu

/*
#cgo LDFLAGS: -lOpenCL
#include <CL/cl.h>
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/primesource"
	"github.com/luxfi/sievemt/sink"
	"github.com/luxfi/sievemt/term"
)

// ErrNoPlatform is returned when the host has no OpenCL platform at all
// (no ICD installed, or no GPU/CPU device exposed by one).
var ErrNoPlatform = errors.New("gpu: no OpenCL platform found")

// GpuWorker dispatches a family kernel to an OpenCL device, mirroring
// MultiFactorialGpuWorker.cpp's buffer lifecycle: a primes input buffer, one
// per-prime residual buffer (the kernel's "residuals" argument; no second
// residualsB buffer is allocated), a small params buffer, and a factorCount +
// factors output pair sized by cfg.MaxFactors.
type GpuWorker struct {
	mu sync.Mutex

	params *family.Parameters
	sink   *sink.Sink
	cfg    Config

	platform C.cl_platform_id
	device   C.cl_device_id
	clCtx    C.cl_context
	queue    C.cl_command_queue
	program  C.cl_program
	kernel   C.cl_kernel

	primesBuf C.cl_mem
	resABuf   C.cl_mem
	paramsBuf C.cl_mem
	countBuf  C.cl_mem
	factorBuf C.cl_mem

	acked atomic.Uint64
}

// New builds an OpenCL context for the first available device and
// compiles the kernel source for params.Kind, applying cfg's #define
// prelude (§4.6). The device buffers are sized once, up front, and reused
// across every launch — no per-chunk allocation.
func New(params *family.Parameters, snk *sink.Sink, cfg Config) (*GpuWorker, error) {
	src, err := loadKernelSource(params.Kind, params, cfg)
	if err != nil {
		return nil, err
	}

	w := &GpuWorker{params: params, sink: snk, cfg: cfg}
	if err := w.initDevice(); err != nil {
		return nil, err
	}
	if err := w.buildProgram(src, params.Kind); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.allocBuffers(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *GpuWorker) initDevice() error {
	var numPlatforms C.cl_uint
	if C.clGetPlatformIDs(0, nil, &numPlatforms) != C.CL_SUCCESS || numPlatforms == 0 {
		return &DeviceError{Op: "clGetPlatformIDs", Err: ErrNoPlatform}
	}
	platforms := make([]C.cl_platform_id, numPlatforms)
	C.clGetPlatformIDs(numPlatforms, &platforms[0], nil)
	w.platform = platforms[0]

	var numDevices C.cl_uint
	if C.clGetDeviceIDs(w.platform, C.CL_DEVICE_TYPE_GPU, 0, nil, &numDevices) != C.CL_SUCCESS || numDevices == 0 {
		// Fall back to any device type (CPU ICD, e.g. pocl) rather than
		// failing outright when no discrete GPU is present.
		if C.clGetDeviceIDs(w.platform, C.CL_DEVICE_TYPE_ALL, 0, nil, &numDevices) != C.CL_SUCCESS || numDevices == 0 {
			return &DeviceError{Op: "clGetDeviceIDs", Err: errors.New("no OpenCL device of any type")}
		}
	}
	devices := make([]C.cl_device_id, numDevices)
	C.clGetDeviceIDs(w.platform, C.CL_DEVICE_TYPE_ALL, numDevices, &devices[0], nil)
	w.device = devices[0]

	var ret C.cl_int
	w.clCtx = C.clCreateContext(nil, 1, &w.device, nil, nil, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateContext", Err: fmt.Errorf("code %d", ret)}
	}
	w.queue = C.clCreateCommandQueue(w.clCtx, w.device, 0, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateCommandQueue", Err: fmt.Errorf("code %d", ret)}
	}
	return nil
}

func (w *GpuWorker) buildProgram(src string, kind family.Kind) error {
	csrc := C.CString(src)
	defer C.free(unsafe.Pointer(csrc))
	length := C.size_t(len(src))

	var ret C.cl_int
	w.program = C.clCreateProgramWithSource(w.clCtx, 1, &csrc, &length, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateProgramWithSource", Err: fmt.Errorf("code %d", ret)}
	}
	if C.clBuildProgram(w.program, 1, &w.device, nil, nil, nil) != C.CL_SUCCESS {
		return &DeviceError{Op: "clBuildProgram", Err: fmt.Errorf("build failed for family %s", kind)}
	}

	entry, _ := kernelFamilyFile(kind)
	entryName := entryPointName(kind, entry)
	cname := C.CString(entryName)
	defer C.free(unsafe.Pointer(cname))
	w.kernel = C.clCreateKernel(w.program, cname, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateKernel", Err: fmt.Errorf("code %d for entry %s", ret, entryName)}
	}
	return nil
}

func entryPointName(kind family.Kind, _ string) string {
	switch kind {
	case family.KindMultiFactorial:
		return "multifactorial_kernel"
	case family.KindAlternatingFactorial:
		return "alternatingfactorial_kernel"
	default:
		return ""
	}
}

func (w *GpuWorker) allocBuffers() error {
	var ret C.cl_int
	n := C.size_t(w.cfg.PrimesPerLaunch)

	w.primesBuf = C.clCreateBuffer(w.clCtx, C.CL_MEM_READ_ONLY, n*8, nil, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateBuffer(primes)", Err: fmt.Errorf("code %d", ret)}
	}
	w.resABuf = C.clCreateBuffer(w.clCtx, C.CL_MEM_READ_WRITE, n*32, nil, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateBuffer(residuals)", Err: fmt.Errorf("code %d", ret)}
	}
	w.paramsBuf = C.clCreateBuffer(w.clCtx, C.CL_MEM_READ_ONLY, 16, nil, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateBuffer(params)", Err: fmt.Errorf("code %d", ret)}
	}
	w.countBuf = C.clCreateBuffer(w.clCtx, C.CL_MEM_READ_WRITE, 4, nil, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateBuffer(factorCount)", Err: fmt.Errorf("code %d", ret)}
	}
	w.factorBuf = C.clCreateBuffer(w.clCtx, C.CL_MEM_WRITE_ONLY, C.size_t(w.cfg.MaxFactors)*32, nil, &ret)
	if ret != C.CL_SUCCESS {
		return &DeviceError{Op: "clCreateBuffer(factors)", Err: fmt.Errorf("code %d", ret)}
	}
	return nil
}

// Close releases every OpenCL object this worker holds. Safe to call more
// than once; subsequent calls are no-ops against already-zeroed handles.
func (w *GpuWorker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	releaseMem(&w.primesBuf)
	releaseMem(&w.resABuf)
	releaseMem(&w.paramsBuf)
	releaseMem(&w.countBuf)
	releaseMem(&w.factorBuf)
	if w.kernel != nil {
		C.clReleaseKernel(w.kernel)
		w.kernel = nil
	}
	if w.program != nil {
		C.clReleaseProgram(w.program)
		w.program = nil
	}
	if w.queue != nil {
		C.clReleaseCommandQueue(w.queue)
		w.queue = nil
	}
	if w.clCtx != nil {
		C.clReleaseContext(w.clCtx)
		w.clCtx = nil
	}
}

func releaseMem(m *C.cl_mem) {
	if *m != nil {
		C.clReleaseMemObject(*m)
		*m = nil
	}
}

// Acknowledged returns the largest prime this worker has confirmed a
// kernel launch completed for.
func (w *GpuWorker) Acknowledged() uint64 { return w.acked.Load() }

// Run pulls cfg.ChunksPerBatch-sized multi-chunk batches from source,
// dispatches them to the device, and reports any hits to the sink, until
// the source is exhausted, ctx is cancelled, or a launch returns
// ErrFactorOverflow (fatal: the caller should raise -M and restart from
// the last checkpoint).
func (w *GpuWorker) Run(ctx context.Context, source *primesource.Source) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, back, err := w.nextBatch(source)
		if errors.Is(err, primesource.ErrExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := w.dispatch(batch); err != nil {
			return err
		}
		w.acked.Store(back)
	}
}

func (w *GpuWorker) nextBatch(source *primesource.Source) ([]uint64, uint64, error) {
	var batch []uint64
	var back uint64
	for i := 0; i < w.cfg.ChunksPerBatch; i++ {
		chunk, err := source.NextChunk()
		if err != nil {
			if len(batch) > 0 {
				return batch, back, nil
			}
			return nil, 0, err
		}
		batch = append(batch, chunk.Primes...)
		back = chunk.Back()
		source.Release(chunk)
	}
	return batch, back, nil
}

// dispatch writes one batch's primes to the device, launches the kernel,
// and reads back any reported factors. The residual buffer is never
// rewritten between launches of the same family kernel, realizing the
// original's "resume this prime's in-flight walk" persistence.
func (w *GpuWorker) dispatch(primes []uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := C.size_t(len(primes))
	if n > C.size_t(w.cfg.PrimesPerLaunch) {
		n = C.size_t(w.cfg.PrimesPerLaunch)
	}
	ptr := unsafe.Pointer(&primes[0])
	if C.clEnqueueWriteBuffer(w.queue, w.primesBuf, C.CL_TRUE, 0, n*8, ptr, 0, nil, nil) != C.CL_SUCCESS {
		return &DeviceError{Op: "clEnqueueWriteBuffer(primes)", Err: errors.New("write failed")}
	}

	var zero C.cl_int
	if C.clEnqueueWriteBuffer(w.queue, w.countBuf, C.CL_TRUE, 0, 4, unsafe.Pointer(&zero), 0, nil, nil) != C.CL_SUCCESS {
		return &DeviceError{Op: "clEnqueueWriteBuffer(factorCount)", Err: errors.New("write failed")}
	}

	C.clSetKernelArg(w.kernel, 0, C.size_t(unsafe.Sizeof(w.primesBuf)), unsafe.Pointer(&w.primesBuf))
	C.clSetKernelArg(w.kernel, 1, C.size_t(unsafe.Sizeof(w.resABuf)), unsafe.Pointer(&w.resABuf))
	C.clSetKernelArg(w.kernel, 2, C.size_t(unsafe.Sizeof(w.paramsBuf)), unsafe.Pointer(&w.paramsBuf))
	C.clSetKernelArg(w.kernel, 3, C.size_t(unsafe.Sizeof(w.countBuf)), unsafe.Pointer(&w.countBuf))
	C.clSetKernelArg(w.kernel, 4, C.size_t(unsafe.Sizeof(w.factorBuf)), unsafe.Pointer(&w.factorBuf))

	globalSize := n
	if C.clEnqueueNDRangeKernel(w.queue, w.kernel, 1, nil, &globalSize, nil, 0, nil, nil) != C.CL_SUCCESS {
		return &DeviceError{Op: "clEnqueueNDRangeKernel", Err: errors.New("launch failed")}
	}
	if C.clFinish(w.queue) != C.CL_SUCCESS {
		return &DeviceError{Op: "clFinish", Err: errors.New("device did not complete")}
	}

	var count C.cl_int
	if C.clEnqueueReadBuffer(w.queue, w.countBuf, C.CL_TRUE, 0, 4, unsafe.Pointer(&count), 0, nil, nil) != C.CL_SUCCESS {
		return &DeviceError{Op: "clEnqueueReadBuffer(factorCount)", Err: errors.New("read failed")}
	}
	if int(count) >= w.cfg.MaxFactors {
		return &DeviceError{Op: "dispatch", Err: ErrFactorOverflow}
	}
	if count == 0 {
		return nil
	}
	return w.readFactors(int(count))
}

// readFactors reads count long4 records {prime, n, c, 0} back from the
// device's factor buffer and reports each to the sink. The prime travels
// with the record rather than being looked up by gid, since a batch spans
// more than one primesource chunk.
func (w *GpuWorker) readFactors(count int) error {
	raw := make([]int64, count*4)
	size := C.size_t(count) * 32
	if C.clEnqueueReadBuffer(w.queue, w.factorBuf, C.CL_TRUE, 0, size, unsafe.Pointer(&raw[0]), 0, nil, nil) != C.CL_SUCCESS {
		return &DeviceError{Op: "clEnqueueReadBuffer(factors)", Err: errors.New("read failed")}
	}
	for i := 0; i < count; i++ {
		prime := uint64(raw[i*4])
		n := uint64(raw[i*4+1])
		c := int32(raw[i*4+2])
		w.sink.Report(sink.Record{Prime: prime, Term: term.Key{N: n}, SignOrC: c})
	}
	return nil
}
