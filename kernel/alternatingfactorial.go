package kernel

import (
	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/term"
)

// alternatingFactorialKernel walks af(n) = sum_{k=1..n} (-1)^(n-k) k! via the
// recurrence af(n) = n! - af(n-1). resN tracks n, resFn tracks n!, resAfn
// tracks af(n-1) at the point of the check (it is updated to af(n) only
// after). A hit proves af(n) == resFn - resAfn == 0 (mod p).
type alternatingFactorialKernel struct{}

func (alternatingFactorialKernel) RunOne(ctx *montgomery.Context, params *family.Parameters) []Hit {
	p := params.AlternatingFactorial

	var resN, resFn, resAfn uint64
	resFn = ctx.One // 0! = 1

	var hits []Hit
	var n, steps uint64
	for n < p.MaxN && steps < p.MaxSteps {
		n++
		steps++
		resN = ctx.Add(resN, ctx.One)
		resFn = ctx.Mulmod(resFn, resN)
		if resFn == resAfn {
			hits = append(hits, Hit{Term: term.Key{N: n}})
		}
		resAfn = ctx.Sub(resFn, resAfn)
	}
	return hits
}
