package kernel

import (
	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/term"
)

// dmDivisorKernel finds k such that 2*k*(2^n-1)+1 == 0 (mod p). Writing
// b=2^n-1, the congruence is 2k*b == -1 (mod p), so raw = p - invmod(b, p)
// solves raw == 2k (mod p). raw is lifted to the even residue (adding p,
// itself odd, flips its parity) before halving to recover a concrete k0;
// every further solution in range is k0 spaced by p.
type dmDivisorKernel struct{}

func (dmDivisorKernel) RunOne(ctx *montgomery.Context, params *family.Parameters) []Hit {
	p := params.DMDivisor

	bRes := ctx.Sub(ctx.Pow(ctx.N(2), p.N), ctx.One)
	b := ctx.FromRes(bRes)
	if b == 0 {
		// p divides 2^n-1 itself, a Mersenne factor, not a divisor of the
		// double-Mersenne cofactor this family targets.
		return nil
	}
	invB := ctx.Invmod(b)
	raw := ctx.P - invB
	var half uint64
	if raw%2 == 0 {
		half = raw / 2
	} else {
		// raw+p would overflow uint64 for raw, p both near 2^64; raw and p
		// are both odd here, so raw/2 + p/2 + 1 == (raw+p)/2 without ever
		// forming the sum.
		half = raw/2 + ctx.P/2 + 1
	}
	k0 := int64(half)

	pmod := int64(ctx.P)
	minK, maxK := int64(p.MinK), int64(p.MaxK)
	k := normalizeRangeStart(k0, minK, pmod)

	var hits []Hit
	for k <= maxK {
		hits = append(hits, Hit{Term: term.Key{K: uint64(k)}})
		k += pmod
	}
	return hits
}
