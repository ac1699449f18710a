package kernel

import (
	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/term"
)

// smarandacheKernel tests divisibility of concatenated-decimal terms (the
// Smarandache–Wellin family: concatenate 1, 2, 3, ... in decimal) by
// building the running residue with Horner's method: res = res*10^digits(i)
// + i, checked against zero at each requested term boundary.
type smarandacheKernel struct{}

func digitCount(n uint64) int {
	d := 1
	for n >= 10 {
		n /= 10
		d++
	}
	return d
}

func (smarandacheKernel) RunOne(ctx *montgomery.Context, params *family.Parameters) []Hit {
	p := params.Smarandache

	wanted := make(map[uint64]struct{}, len(p.Terms))
	var maxTerm uint64
	for _, t := range p.Terms {
		wanted[t] = struct{}{}
		if t > maxTerm {
			maxTerm = t
		}
	}

	var hits []Hit
	var res uint64
	ten := ctx.N(10)
	for i := uint64(1); i <= maxTerm; i++ {
		pow10 := ctx.Pow(ten, uint64(digitCount(i)))
		res = ctx.Mulmod(res, pow10)
		res = ctx.Add(res, ctx.N(i))

		if _, ok := wanted[i]; ok && res == 0 {
			hits = append(hits, Hit{Term: term.Key{N: i}})
		}
	}
	return hits
}
