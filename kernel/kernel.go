// Package kernel implements the SieveKernel family: given a single prime's
// MontgomeryContext and a family's FamilyParameters, compute the
// family-specific modular walk and report (prime, term) hits.
package kernel

import (
	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/term"
)

// Hit is one factor discovered while walking a single prime.
type Hit struct {
	Term    term.Key
	SignOrC int32
}

// Scratch describes the per-prime residual state a resumable kernel walk
// carries between invocations. No code path uses it: the CPU kernels run
// each prime to completion in one call, and the GPU worker (§4.6) keeps its
// residuals in a device buffer rather than in a Scratch.
type Scratch struct {
	// Ri, Rf are MultiFactorial's running index/factorial residues.
	Ri, Rf uint64
	// ResN, ResFn, ResAfn are AlternatingFactorial's residues.
	ResN, ResFn, ResAfn uint64
	// N is the last n value processed, for resumption.
	N uint64
	// started marks whether Ri/Rf (or ResN/...) have been initialized.
	started bool
}

// Kernel computes every hit for a single prime against the given family
// parameters. Implementations never return an error: invalid parameters
// are caught by family.Parameters.Validate before any kernel runs, and
// arithmetic kernels signal results only through the returned hits
// (spec.md §7: "arithmetic kernels never throw").
type Kernel interface {
	RunOne(ctx *montgomery.Context, params *family.Parameters) []Hit
}

// dispatch is the tagged-variant-to-kernel table replacing the source's
// virtual-inheritance Worker hierarchy (Design Note §9): each family kind
// maps to one pure function over (MontgomeryContext, FamilyParameters).
var dispatch = map[family.Kind]Kernel{
	family.KindMultiFactorial:       multiFactorialKernel{},
	family.KindAlternatingFactorial: alternatingFactorialKernel{},
	family.KindFixedKBN:             fixedKBNKernel{},
	family.KindFixedBNC:             fixedBNCKernel{},
	family.KindDMDivisor:            dmDivisorKernel{},
	family.KindSierpinskiRiesel:     sierpinskiRieselKernel{},
	family.KindSmarandache:          smarandacheKernel{},
}

// For dispatches on a kind with no family.Kind 99-style match, return nil.
func For(kind family.Kind) (Kernel, bool) {
	k, ok := dispatch[kind]
	return k, ok
}

// Run looks up the kernel for params.Kind and runs it against prime p,
// constructing the MontgomeryContext internally. Returns an error only for
// a montgomery.DomainError (invalid p) from montgomery.NewContext, or a
// family.DomainError when no kernel is registered for params.Kind.
func Run(p uint64, params *family.Parameters) ([]Hit, error) {
	ctx, err := montgomery.NewContext(p)
	if err != nil {
		return nil, err
	}
	return RunWithContext(ctx, params)
}

// RunWithContext looks up the kernel for params.Kind and runs it against an
// already-derived MontgomeryContext, for callers (the vector-width worker
// path) that derive contexts in a batch via montgomery.VecContext rather
// than one at a time.
func RunWithContext(ctx *montgomery.Context, params *family.Parameters) ([]Hit, error) {
	k, ok := For(params.Kind)
	if !ok {
		return nil, &family.DomainError{Field: "Kind", Reason: "no kernel registered"}
	}
	return k.RunOne(ctx, params), nil
}
