package core

import "math"

// SoftLimit leaves |x| <= knee untouched and compresses the excess above
// knee by slope, never letting the magnitude pass ceiling.
func SoftLimit(x, knee, slope, ceiling float64) float64 {
	a := math.Abs(x)
	if a <= knee {
		return x
	}

	return Sign(x) * math.Min(knee+(a-knee)*slope, ceiling)
}

// HardLimit clamps the magnitude of x to ceiling.
func HardLimit(x, ceiling float64) float64 {
	if math.Abs(x) > ceiling {
		return Sign(x) * ceiling
	}

	return x
}
