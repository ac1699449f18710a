package montgomery

// LaneWidth is the vector variant's fixed lane count. The algorithms below
// are lane-agnostic: every lane executes the same instruction sequence
// against its own modulus, so widening this to 8 is a one-line change plus
// a new VecContext literal shape.
const LaneWidth = 4

// VecContext holds four independent per-prime Montgomery contexts packed
// into parallel lane arrays, mirroring the structure-of-arrays shape a real
// SIMD backend would use. No lane branches on another lane's modulus; every
// method below walks all four lanes with identical control flow.
type VecContext struct {
	P      [LaneWidth]uint64
	Q      [LaneWidth]uint64
	One    [LaneWidth]uint64
	NegOne [LaneWidth]uint64
	R2     [LaneWidth]uint64
}

// NewVecContext derives Montgomery constants for four primes at once. All
// four must be valid odd primes >= 3; the first invalid one is reported.
func NewVecContext(primes [LaneWidth]uint64) (*VecContext, error) {
	var v VecContext
	for i, p := range primes {
		ctx, err := NewContext(p)
		if err != nil {
			return nil, err
		}
		v.P[i] = ctx.P
		v.Q[i] = ctx.Q
		v.One[i] = ctx.One
		v.NegOne[i] = ctx.NegOne
		v.R2[i] = ctx.R2
	}
	return &v, nil
}

// Add computes lane-wise (a[i]+b[i]) mod p[i].
func (v *VecContext) Add(a, b [LaneWidth]uint64) (r [LaneWidth]uint64) {
	for i := 0; i < LaneWidth; i++ {
		r[i] = add(a[i], b[i], v.P[i])
	}
	return r
}

// Sub computes lane-wise (a[i]-b[i]) mod p[i].
func (v *VecContext) Sub(a, b [LaneWidth]uint64) (r [LaneWidth]uint64) {
	for i := 0; i < LaneWidth; i++ {
		r[i] = sub(a[i], b[i], v.P[i])
	}
	return r
}

// Mulmod computes the lane-wise Montgomery product.
func (v *VecContext) Mulmod(a, b [LaneWidth]uint64) (r [LaneWidth]uint64) {
	for i := 0; i < LaneWidth; i++ {
		r[i] = mulmod(a[i], b[i], v.P[i], v.Q[i])
	}
	return r
}

// ToRes converts four ordinary residues into Montgomery form, one per lane.
func (v *VecContext) ToRes(n [LaneWidth]uint64) (r [LaneWidth]uint64) {
	for i := 0; i < LaneWidth; i++ {
		r[i] = mulmod(n[i], v.R2[i], v.P[i], v.Q[i])
	}
	return r
}

// FromRes converts four Montgomery residues back to ordinary form.
func (v *VecContext) FromRes(x [LaneWidth]uint64) (r [LaneWidth]uint64) {
	for i := 0; i < LaneWidth; i++ {
		r[i] = mulmod(x[i], 1, v.P[i], v.Q[i])
	}
	return r
}

// Lane returns a scalar Context equivalent to lane i, so a scalar kernel can
// run against that lane's prime; worker.CpuWorker's vector path calls it for
// each real lane of a group.
func (v *VecContext) Lane(i int) *Context {
	return &Context{P: v.P[i], Q: v.Q[i], One: v.One[i], NegOne: v.NegOne[i], R2: v.R2[i]}
}
