package kernel

import (
	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/term"
)

// smallBaseThreshold is the base bound of the original's precomputed
// small-base inverse path. No code in this module references it:
// fixedBNCKernel uses a direct invmod for every base, and there is no
// FixedBNC GPU kernel.
const smallBaseThreshold = 255256

// fixedBNCKernel solves k such that k*base^n + c == 0 (mod p) for a fixed
// c in {-1,+1}: k = -c * (base^n)^-1 (mod p). When base is odd, base^n is
// odd, so k*base^n has k's parity; since c is odd, only even k can produce
// an odd k*base^n+c, so the walk is lifted onto the even-k residue class
// and steps by 2p instead of p.
type fixedBNCKernel struct{}

func (fixedBNCKernel) RunOne(ctx *montgomery.Context, params *family.Parameters) []Hit {
	p := params.FixedBNC

	// Every base takes the direct invmod route; the small-base inverse-table
	// path is not implemented (see smallBaseThreshold).
	baseRes := ctx.N(uint64(p.Base))
	bn := ctx.Pow(baseRes, p.N)
	invBn := ctx.Invmod(ctx.FromRes(bn))

	pmod := int64(ctx.P)
	k0 := (-int64(p.C) * int64(invBn)) % pmod
	if k0 < 0 {
		k0 += pmod
	}

	step := pmod
	if p.Base%2 != 0 {
		step = 2 * pmod
		if k0%2 != 0 {
			k0 += pmod
		}
	}

	minK, maxK := int64(p.MinK), int64(p.MaxK)
	k := normalizeRangeStart(k0, minK, step)

	var hits []Hit
	for k <= maxK {
		hits = append(hits, Hit{Term: term.Key{K: uint64(k)}, SignOrC: p.C})
		k += step
	}
	return hits
}
