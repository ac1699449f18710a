// Command sievemt drives one sieve run: load a term list, sieve ascending
// primes against it, and checkpoint progress. Flag parsing only; every
// other concern is delegated to the ioformat/family/supervisor packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/gpu"
	"github.com/luxfi/sievemt/ioformat"
	"github.com/luxfi/sievemt/primesource"
	"github.com/luxfi/sievemt/sink"
	"github.com/luxfi/sievemt/supervisor"
	"github.com/luxfi/sievemt/term"
	"github.com/luxfi/sievemt/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		maxPrime  = flag.Uint64("P", 1_000_000, "stop sieving once primes exceed this bound")
		minPrime  = flag.Uint64("p", 3, "first odd prime to consider")
		cpuCount  = flag.Int("W", 0, "number of CPU worker goroutine pool slots (0 = GOMAXPROCS)")
		gpuPrimes = flag.Int("g", 0, "GPU primes per launch (0 disables the GPU worker)")
		gpuMaxFac = flag.Int("M", 1<<12, "max GPU factors per launch")
		gpuSteps  = flag.Int("S", 1<<14, "max GPU steps per launch")
		_         = flag.Int("Q", 0, "user-supplied best-Q hint (accepted and ignored)")
		gpuChunks = flag.Int("s", 1, "chunks per GPU worker batch")
		termsPath = flag.String("terms", "", "path to the term-list file")
		checkPath = flag.String("checkpoint", "checkpoint.txt", "checkpoint file path")
	)
	flag.Parse()

	if *termsPath == "" {
		fmt.Fprintln(os.Stderr, "sievemt: -terms is required")
		return 1
	}

	f, err := os.Open(*termsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sievemt:", err)
		return 1
	}
	tl, err := ioformat.ReadTermList(f)
	f.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sievemt:", err)
		return 1
	}

	params, table, err := buildMultiFactorial(tl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sievemt:", err)
		return 1
	}
	if err := params.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "sievemt:", err)
		return 1
	}

	snk := sink.New(table)
	source := primesource.New(primesource.Config{Start: *minPrime, MaxPrime: *maxPrime})

	var interrupt atomic.Bool
	w := worker.New(params, snk, *cpuCount, &interrupt)
	defer w.Close()

	workers := []supervisor.Worker{w}
	if *gpuPrimes > 0 {
		log.Printf("sievemt: GPU worker requested, preferred backend: %s", gpu.PreferredBackend())
		gcfg := gpu.Config{
			PrimesPerLaunch: *gpuPrimes,
			MaxFactors:      *gpuMaxFac,
			MaxSteps:        *gpuSteps,
			ChunksPerBatch:  *gpuChunks,
		}
		gw, err := gpu.New(params, snk, gcfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "sievemt:", err)
			return 1
		}
		defer gw.Close()
		workers = append(workers, gw)
	}

	sup := supervisor.New(table, snk, source, workers, ioformat.FileCheckpointer{Path: *checkPath}, *maxPrime, &interrupt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		sup.Interrupt.Store(true)
	}()

	if err := sup.Run(ctx); err != nil {
		log.Printf("sievemt: sieve run ended with error: %v", err)
		if sup.Interrupt.Load() {
			return 2
		}
		return 1
	}
	if sup.Interrupt.Load() {
		return 2
	}
	return 0
}

// buildMultiFactorial interprets a term-list file in the "ABC $a!$b+$c"
// shape (rows "n m c") as a MultiFactorialParams plus the n-indexed
// TermTable of candidates it names.
func buildMultiFactorial(tl *ioformat.TermList) (*family.Parameters, term.Table, error) {
	var ns []uint64
	var multi uint32
	minN, maxN := ^uint64(0), uint64(0)

	for _, row := range tl.Rows {
		n, err := ioformat.RowUint64(row, 0)
		if err != nil {
			return nil, nil, err
		}
		m, err := ioformat.RowUint64(row, 1)
		if err != nil {
			return nil, nil, err
		}
		multi = uint32(m)
		ns = append(ns, n)
		if n < minN {
			minN = n
		}
		if n > maxN {
			maxN = n
		}
	}
	if len(ns) == 0 {
		return nil, nil, fmt.Errorf("sievemt: term list has no rows")
	}

	mf := &family.MultiFactorialParams{Multi: multi, MinN: minN, MaxN: maxN}
	params := &family.Parameters{Kind: family.KindMultiFactorial, MultiFactorial: mf}
	table := term.NewIndexedList(ns)
	return params, table, nil
}
