// Package term implements the TermTable: the mutable set of surviving
// terms a sieve run is trying to eliminate. Terms are removed as factors
// are found; the table is monotonically non-growing after initialization.
package term

// Key identifies one candidate term. Which fields are meaningful depends on
// the owning family: n for multi-factorial/alternating-factorial/
// Smarandache, (n,c) for FixedKBN, k for FixedBNC/DMDivisor, (k,n) for
// SierpinskiRiesel. Unused fields are left at their zero value so Key stays
// a plain comparable struct usable as a map key.
type Key struct {
	K uint64
	N uint64
	C int32
}

// Table is the shape every concrete term table implements: membership
// testing, removal by factor report, and size for termination checks.
type Table interface {
	// Contains reports whether key is still alive.
	Contains(key Key) bool
	// Remove eliminates key. Removing an already-absent key is a no-op.
	Remove(key Key)
	// Size returns the number of terms still alive.
	Size() int
	// Snapshot returns every alive key in ascending order, for checkpoint
	// serialization.
	Snapshot() []Key
}
