package kernel

import (
	"github.com/luxfi/sievemt/family"
	"github.com/luxfi/sievemt/montgomery"
	"github.com/luxfi/sievemt/term"
)

// babyStepTable is an open-addressed residue->exponent map sized for a
// fixed baby-step count, linear-probed on collision.
type babyStepTable struct {
	keys []uint64
	vals []int
	used []bool
	mask uint64
}

func newBabyStepTable(elements int) *babyStepTable {
	size := nextPow2(int(float64(elements) / 0.65))
	if size < 1<<11 {
		size = 1 << 11
	}
	return &babyStepTable{
		keys: make([]uint64, size),
		vals: make([]int, size),
		used: make([]bool, size),
		mask: uint64(size - 1),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (t *babyStepTable) insert(key uint64, val int) {
	i := key & t.mask
	for t.used[i] {
		i = (i + 1) & t.mask
	}
	t.keys[i] = key
	t.vals[i] = val
	t.used[i] = true
}

func (t *babyStepTable) lookup(key uint64) (int, bool) {
	i := key & t.mask
	for t.used[i] {
		if t.keys[i] == key {
			return t.vals[i], true
		}
		i = (i + 1) & t.mask
	}
	return 0, false
}

// sierpinskiRieselKernel solves, for every k*base^n+c sequence sharing a
// base, the n in [MinN, MaxN] with base^n == -c/k (mod p) via baby-step
// giant-step discrete log (Design Note: this scalar path exercises
// Sequences/Base/MinN/MaxN/BabySteps only; Subsequences/ResiduePowers/
// LegendreMap/Q/SieveLow drive an optimized subsequence-lifted search
// reserved for the GPU path and are not consulted here).
type sierpinskiRieselKernel struct{}

func (sierpinskiRieselKernel) RunOne(ctx *montgomery.Context, params *family.Parameters) []Hit {
	p := params.SierpinskiRiesel
	m := p.BabySteps
	if m <= 0 {
		m = 1
	}

	baseRes := ctx.N(p.Base)
	table := newBabyStepTable(m)
	cur := ctx.One
	for j := 0; j < m; j++ {
		table.insert(cur, j)
		cur = ctx.Mulmod(cur, baseRes)
	}

	invBaseOrd := ctx.Invmod(ctx.FromRes(baseRes))
	giantStep := ctx.Pow(ctx.N(invBaseOrd), uint64(m))

	var hits []Hit
	for _, seq := range p.Sequences {
		kOrd := reduceSigned(seq.K, ctx.P)
		if kOrd == 0 {
			continue
		}
		invK := ctx.Invmod(kOrd)
		negC := reduceSigned(int64(-seq.C), ctx.P)
		target := ctx.Mulmod(ctx.N(negC), ctx.N(invK))

		cur := target
		for i := uint64(0); i*uint64(m) <= p.MaxN; i++ {
			if j, ok := table.lookup(cur); ok {
				n := i*uint64(m) + uint64(j)
				if n >= p.MinN && n <= p.MaxN {
					hits = append(hits, Hit{Term: term.Key{K: uint64(seq.K), N: n}, SignOrC: seq.C})
				}
			}
			cur = ctx.Mulmod(cur, giantStep)
		}
	}
	return hits
}

// reduceSigned reduces a signed value into [0, p).
func reduceSigned(v int64, p uint64) uint64 {
	m := v % int64(p)
	if m < 0 {
		m += int64(p)
	}
	return uint64(m)
}
