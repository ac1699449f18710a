package kernel

import (
	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/term"
)

// multiFactorialKernel computes n!_m = n*(n-m)*(n-2m)*... residues,
// grounded on original_source/multi_factorial/mf_kernel.h: ri tracks the
// current n in Montgomery form (stepping by m), rf tracks the running
// product. A hit at rf==one proves n!_m - 1 ≡ 0 (mod p); rf==negOne proves
// n!_m + 1 ≡ 0 (mod p). The walk checks n = 2m, 3m, ... while n <= MaxN;
// values of n that are not multiples of m are not visited.
type multiFactorialKernel struct{}

func (multiFactorialKernel) RunOne(ctx *montgomery.Context, params *family.Parameters) []Hit {
	p := params.MultiFactorial
	m := uint64(p.Multi)
	mfrs := ctx.N(m)

	n := m
	ri := ctx.N(n)
	rf := ri

	var hits []Hit
	for n+m <= p.MaxN {
		n += m
		ri = ctx.Add(ri, mfrs)
		rf = ctx.Mulmod(rf, ri)

		if n < p.MinN {
			continue
		}
		switch rf {
		case ctx.One:
			hits = append(hits, Hit{Term: term.Key{N: n}, SignOrC: -1})
		case ctx.NegOne:
			hits = append(hits, Hit{Term: term.Key{N: n}, SignOrC: 1})
		}
	}
	return hits
}
