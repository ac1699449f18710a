package worker

import "testing"

func TestBuildGroupsPadsTailWithLastPrime(t *testing.T) {
	primes := []uint64{2, 3, 5, 7, 11, 13}
	groups := buildGroups(primes)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].realLen != 4 || groups[0].primes != [4]uint64{2, 3, 5, 7} {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
	if groups[1].realLen != 2 {
		t.Fatalf("expected second group realLen 2, got %d", groups[1].realLen)
	}
	want := [4]uint64{11, 13, 13, 13}
	if groups[1].primes != want {
		t.Errorf("expected padded tail %v, got %v", want, groups[1].primes)
	}
}

func TestBuildGroupsExactMultiple(t *testing.T) {
	primes := []uint64{2, 3, 5, 7}
	groups := buildGroups(primes)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].realLen != 4 {
		t.Errorf("expected realLen 4, got %d", groups[0].realLen)
	}
}

func TestBuildGroupsSinglePrime(t *testing.T) {
	groups := buildGroups([]uint64{97})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	want := [4]uint64{97, 97, 97, 97}
	if groups[0].primes != want || groups[0].realLen != 1 {
		t.Errorf("unexpected group: %+v", groups[0])
	}
}
