package montgomery

import "github.com/klauspost/cpuid/v2"

// PreferredWidth reports the lane width this host's worker should prefer:
// LaneWidth (4) when the host has the integer SIMD features the vector
// variant assumes, 1 to force the scalar path otherwise. Mirrors the
// CPU-feature probe/fallback shape of the pack's SIMD dispatch (detect,
// then pick a fixed execution mode; never branch per element at runtime).
func PreferredWidth() int {
	if cpuid.CPU.Supports(cpuid.AVX2) || cpuid.CPU.Supports(cpuid.ASIMD) {
		return LaneWidth
	}
	return 1
}
