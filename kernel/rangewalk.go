package kernel

// normalizeRangeStart returns the smallest value >= lo that is congruent to
// value modulo step, the common starting point for every family kernel that
// reports a full arithmetic progression of solutions within a bound range.
func normalizeRangeStart(value, lo, step int64) int64 {
	d := (value - lo) % step
	if d < 0 {
		d += step
	}
	return lo + d
}
