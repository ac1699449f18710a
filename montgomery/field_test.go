package montgomery

import "testing"

func smallPrimes() []uint64 {
	return []uint64{3, 5, 7, 11, 13, 17, 97, 1009, 7919, 1_000_003}
}

func TestNewContextRejectsInvalidModulus(t *testing.T) {
	for _, p := range []uint64{0, 1, 2, 4, 100} {
		if _, err := NewContext(p); err == nil {
			t.Errorf("NewContext(%d): expected error, got nil", p)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, p := range smallPrimes() {
		ctx, err := NewContext(p)
		if err != nil {
			t.Fatalf("NewContext(%d): %v", p, err)
		}
		for n := uint64(0); n < p && n < 50; n++ {
			got := ctx.FromRes(ctx.ToRes(n))
			if got != n {
				t.Errorf("p=%d n=%d: FromRes(ToRes(n))=%d, want %d", p, n, got, n)
			}
		}
	}
}

func TestMulmodCorrectness(t *testing.T) {
	for _, p := range smallPrimes() {
		ctx, err := NewContext(p)
		if err != nil {
			t.Fatalf("NewContext(%d): %v", p, err)
		}
		for a := uint64(0); a < p && a < 30; a++ {
			for b := uint64(0); b < p && b < 30; b++ {
				got := ctx.FromRes(ctx.Mulmod(ctx.ToRes(a), ctx.ToRes(b)))
				want := (a * b) % p
				if got != want {
					t.Errorf("p=%d a=%d b=%d: got %d want %d", p, a, b, got, want)
				}
			}
		}
	}
}

func TestAddSubCorrectness(t *testing.T) {
	for _, p := range smallPrimes() {
		ctx, err := NewContext(p)
		if err != nil {
			t.Fatalf("NewContext(%d): %v", p, err)
		}
		for a := uint64(0); a < p && a < 20; a++ {
			for b := uint64(0); b < p && b < 20; b++ {
				sum := ctx.FromRes(ctx.Add(ctx.ToRes(a), ctx.ToRes(b)))
				if want := (a + b) % p; sum != want {
					t.Errorf("p=%d Add(%d,%d)=%d want %d", p, a, b, sum, want)
				}
				diff := ctx.FromRes(ctx.Sub(ctx.ToRes(a), ctx.ToRes(b)))
				want := (a + p - b) % p
				if diff != want {
					t.Errorf("p=%d Sub(%d,%d)=%d want %d", p, a, b, diff, want)
				}
			}
		}
	}
}

func TestOneAndNegOne(t *testing.T) {
	for _, p := range smallPrimes() {
		ctx, err := NewContext(p)
		if err != nil {
			t.Fatalf("NewContext(%d): %v", p, err)
		}
		if got := ctx.FromRes(ctx.One); got != 1 {
			t.Errorf("p=%d: FromRes(One)=%d want 1", p, got)
		}
		if got := ctx.FromRes(ctx.NegOne); got != p-1 {
			t.Errorf("p=%d: FromRes(NegOne)=%d want %d", p, got, p-1)
		}
	}
}

func TestInvmod(t *testing.T) {
	for _, p := range smallPrimes() {
		ctx, err := NewContext(p)
		if err != nil {
			t.Fatalf("NewContext(%d): %v", p, err)
		}
		for a := uint64(1); a < p && a < 30; a++ {
			inv := ctx.Invmod(a)
			if (a*inv)%p != 1 {
				t.Errorf("p=%d a=%d: a*inv mod p = %d, want 1", p, a, (a*inv)%p)
			}
		}
	}
}

func TestPow(t *testing.T) {
	ctx, err := NewContext(1009)
	if err != nil {
		t.Fatal(err)
	}
	base := ctx.ToRes(3)
	got := ctx.FromRes(ctx.Pow(base, 10))
	want := uint64(1)
	for i := 0; i < 10; i++ {
		want = (want * 3) % 1009
	}
	if got != want {
		t.Errorf("Pow(3,10) mod 1009 = %d, want %d", got, want)
	}
}

func TestVecContextMatchesScalar(t *testing.T) {
	primes := [LaneWidth]uint64{3, 5, 7, 11}
	vec, err := NewVecContext(primes)
	if err != nil {
		t.Fatal(err)
	}

	var a, b [LaneWidth]uint64
	for i, p := range primes {
		a[i] = 2 % p
		b[i] = 3 % p
	}

	vr := vec.FromRes(vec.Mulmod(vec.ToRes(a), vec.ToRes(b)))
	for i, p := range primes {
		ctx, err := NewContext(p)
		if err != nil {
			t.Fatal(err)
		}
		want := ctx.FromRes(ctx.Mulmod(ctx.ToRes(a[i]), ctx.ToRes(b[i])))
		if vr[i] != want {
			t.Errorf("lane %d (p=%d): vector=%d scalar=%d", i, p, vr[i], want)
		}
	}
}
