// Package numeric holds small numerical helpers shared by the actuation and
// radarfusion packages: piecewise-linear interpolation and rate limiting.
// These have no natural home in the ecosystem libraries this module already
// depends on (gonum covers linear algebra and statistics, not breakpoint
// interpolation), so they stay hand-rolled against the standard library.
package numeric

import "math"

// Interp performs piecewise-linear interpolation of x against the
// breakpoint/value table (bp, v), clamping at both ends. bp must be sorted
// ascending; behavior is undefined otherwise. Mirrors the openpilot-style
// interp() used throughout the actuation and radarfusion lookup tables.
func Interp(x float64, bp, v []float64) float64 {
	n := len(bp)
	if n == 0 {
		return 0
	}
	if n == 1 || x <= bp[0] {
		return v[0]
	}
	if x >= bp[n-1] {
		return v[n-1]
	}
	i := 1
	for i < n-1 && bp[i] < x {
		i++
	}
	frac := (x - bp[i-1]) / (bp[i] - bp[i-1])
	return v[i-1] + frac*(v[i]-v[i-1])
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// RateLimit moves old toward new by at most upStep (when rising) or
// downStep (when falling) and returns the result.
func RateLimit(new, old, upStep, downStep float64) float64 {
	return Clamp(new, old-downStep, old+upStep)
}

// RoundHalfAwayFromZero rounds x to the nearest integer, ties away from
// zero, matching the actuator-frame integer fields' rounding convention.
func RoundHalfAwayFromZero(x float64) int {
	if x >= 0 {
		return int(math.Floor(x + 0.5))
	}
	return -int(math.Floor(-x + 0.5))
}
