package kernel

import (
	"testing"

	"github.com/luxfi/sievemt/family"
)

// sieveSmallPrimes returns odd primes up to limit, matching the PrimeSource
// contract every kernel is actually fed under (2 is never dispatched: it is
// not a valid Montgomery modulus, montgomery.NewContext rejects it).
func sieveSmallPrimes(limit uint64) []uint64 {
	var primes []uint64
	for n := uint64(3); n <= limit; n += 2 {
		isPrime := true
		for _, p := range primes {
			if p*p > n {
				break
			}
			if n%p == 0 {
				isPrime = false
				break
			}
		}
		if isPrime {
			primes = append(primes, n)
		}
	}
	return primes
}

// bruteMultiFactorialHits computes n!_m by direct big-number-free modular
// multiplication and returns its +-1 hits, used to cross-check the Montgomery kernel's hit set
// rather than hand-verify a single worked example.
func bruteMultiFactorialHits(p uint64, params *family.MultiFactorialParams) []Hit {
	var hits []Hit
	for n := params.Multi; n <= params.MaxN; n += params.Multi {
		acc := uint64(1) % p
		for k := n; k > 0; k -= params.Multi {
			acc = (acc * (k % p)) % p
		}
		if n < params.MinN {
			continue
		}
		if acc == 1%p {
			hits = append(hits, Hit{SignOrC: -1})
		} else if acc == (p-1)%p {
			hits = append(hits, Hit{SignOrC: 1})
		}
	}
	return hits
}

func TestMultiFactorialMatchesBruteForce(t *testing.T) {
	params := &family.MultiFactorialParams{Multi: 1, MinN: 2, MaxN: 10}
	fp := &family.Parameters{Kind: family.KindMultiFactorial, MultiFactorial: params}

	for _, p := range sieveSmallPrimes(100) {
		got, err := Run(p, fp)
		if err != nil {
			t.Fatalf("p=%d: %v", p, err)
		}
		want := bruteMultiFactorialHits(p, params)
		if len(got) != len(want) {
			t.Errorf("p=%d: got %d hits, want %d", p, len(got), len(want))
			continue
		}
		for i := range got {
			if got[i].SignOrC != want[i].SignOrC {
				t.Errorf("p=%d hit %d: got sign %d, want %d", p, i, got[i].SignOrC, want[i].SignOrC)
			}
		}
	}
}

func TestMultiFactorialReportsKnownFactor(t *testing.T) {
	params := &family.MultiFactorialParams{Multi: 1, MinN: 2, MaxN: 10}
	fp := &family.Parameters{Kind: family.KindMultiFactorial, MultiFactorial: params}

	hits, err := Run(23, fp)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, h := range hits {
		if h.Term.N == 4 && h.SignOrC == -1 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected p=23 to report n=4, c=-1 (4!-1=23), got %+v", hits)
	}
}

func TestAlternatingFactorialReportsAf3(t *testing.T) {
	params := &family.AlternatingFactorialParams{MaxN: 10, MaxSteps: 10}
	fp := &family.Parameters{Kind: family.KindAlternatingFactorial, AlternatingFactorial: params}

	hits, err := Run(5, fp)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, h := range hits {
		if h.Term.N == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected p=5 to report n=3 (af(3)=5), got %+v", hits)
	}
}

func TestFixedKBNSolvesC(t *testing.T) {
	// k=1, b=2, n=3: 1*2^3 = 8. p=3 divides 8+c for c=-8, -5, -2, 1, ...
	params := &family.FixedKBNParams{K: 1, Base: 2, N: 3, MinC: -10, MaxC: 10}
	fp := &family.Parameters{Kind: family.KindFixedKBN, FixedKBN: params}

	hits, err := Run(3, fp)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, h := range hits {
		if h.Term.C == -8 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected p=3 to report c=-8 (1*2^3-8=0), got %+v", hits)
	}
}

func TestFixedBNCSolvesK(t *testing.T) {
	// base=3, n=2, c=+1: k*9+1 == 0 (mod 5) => k*9 == -1 == 4 (mod 5) =>
	// 9 == 4 (mod 5), so k == 1 (mod 5): k=1,6,11,16,...
	params := &family.FixedBNCParams{Base: 3, N: 2, C: 1, MinK: 1, MaxK: 20}
	fp := &family.Parameters{Kind: family.KindFixedBNC, FixedBNC: params}

	hits, err := Run(5, fp)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, h := range hits {
		if h.Term.K == 16 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected p=5 to report k=16 (16*9+1=145=5*29), got %+v", hits)
	}
}

func TestFixedBNCOddBaseParityGate(t *testing.T) {
	// base=3 is odd, so only even k may appear in the reported hits.
	params := &family.FixedBNCParams{Base: 3, N: 2, C: 1, MinK: 1, MaxK: 200}
	fp := &family.Parameters{Kind: family.KindFixedBNC, FixedBNC: params}

	hits, err := Run(5, fp)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.Term.K%2 != 0 {
			t.Errorf("expected only even k for odd base, got k=%d", h.Term.K)
		}
	}
}

func TestDMDivisorN7(t *testing.T) {
	// 2^7-1 = 127. Find small p with a k in range solving 2k*127+1 == 0 (mod p).
	params := &family.DMDivisorParams{N: 7, MinK: 1, MaxK: 1000}
	fp := &family.Parameters{Kind: family.KindDMDivisor, DMDivisor: params}

	for _, p := range sieveSmallPrimes(2000) {
		if p <= 127 {
			continue
		}
		hits, err := Run(p, fp)
		if err != nil {
			t.Fatal(err)
		}
		for _, h := range hits {
			val := 2*h.Term.K*127 + 1
			if val%p != 0 {
				t.Errorf("p=%d reported k=%d but 2k*127+1=%d not divisible by p", p, h.Term.K, val)
			}
		}
	}
}

func TestPaddingDuplicatePrimeIsHarmless(t *testing.T) {
	// Running the same prime twice must report the exact same hit set both
	// times: the group-padding idiom relies on duplicate primes being inert.
	params := &family.MultiFactorialParams{Multi: 1, MinN: 2, MaxN: 10}
	fp := &family.Parameters{Kind: family.KindMultiFactorial, MultiFactorial: params}

	first, err := Run(23, fp)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(23, fp)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected identical hit counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("index %d: got %+v and %+v", i, first[i], second[i])
		}
	}
}

func TestSmarandacheBasic(t *testing.T) {
	// The Smarandache-Wellin number formed by 1..n; check a small prime
	// that happens to divide one of the early concatenated terms.
	params := &family.SmarandacheParams{Terms: []uint64{1, 2, 3, 4, 5}, MaxDigits: 10}
	fp := &family.Parameters{Kind: family.KindSmarandache, Smarandache: params}

	primes := sieveSmallPrimes(50)
	for _, p := range primes {
		hits, err := Run(p, fp)
		if err != nil {
			t.Fatal(err)
		}
		for _, h := range hits {
			concat := uint64(0)
			for i := uint64(1); i <= h.Term.N; i++ {
				concat = concat*pow10(digitCount(i)) + i
			}
			if concat%p != 0 {
				t.Errorf("p=%d reported n=%d but concatenation %d not divisible", p, h.Term.N, concat)
			}
		}
	}
}

func pow10(n int) uint64 {
	v := uint64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

func TestSierpinskiRieselFindsKnownSolution(t *testing.T) {
	// 3*2^4 - 1 = 47, prime. The kernel run against p=47 should report the
	// sequence k=3, c=-1 at n=4.
	params := &family.SierpinskiRieselParams{
		Sequences: []family.Sequence{{K: 3, C: -1}},
		Base:      2,
		MinN:      1,
		MaxN:      20,
		BabySteps: 8,
	}
	fp := &family.Parameters{Kind: family.KindSierpinskiRiesel, SierpinskiRiesel: params}

	hits, err := Run(47, fp)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, h := range hits {
		if h.Term.N == 4 && h.Term.K == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected p=47 to report k=3, n=4 (3*2^4-1=47), got %+v", hits)
	}
}
