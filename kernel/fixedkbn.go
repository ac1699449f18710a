package kernel

import (
	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/term"
)

// fixedKBNKernel solves c such that k*base^n + c == 0 (mod p) for a fixed
// (k, base, n): compute kbn = k*base^n mod p once, then every c congruent
// to -kbn mod p in [MinC, MaxC] is a candidate, spaced exactly p apart.
type fixedKBNKernel struct{}

func (fixedKBNKernel) RunOne(ctx *montgomery.Context, params *family.Parameters) []Hit {
	p := params.FixedKBN

	kRes := ctx.N(p.K)
	baseRes := ctx.N(p.Base)
	pw := ctx.Pow(baseRes, p.N)
	kbn := ctx.FromRes(ctx.Mulmod(kRes, pw))

	pmod := int64(ctx.P)
	c := normalizeRangeStart(-int64(kbn), p.MinC, pmod)

	var hits []Hit
	for c <= p.MaxC {
		hits = append(hits, Hit{Term: term.Key{N: p.N, C: int32(c)}, SignOrC: int32(c)})
		c += pmod
	}
	return hits
}
