package core

import "math"

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// Feedback paths (comb filters, envelope followers) decay into this range
// and would otherwise slow the audio thread down.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// Sign returns 1 for x > 0 and -1 otherwise.
func Sign(x float64) float64 {
	if x > 0 {
		return 1
	}

	return -1
}

// WrapPhase folds phase into [0, 2π) assuming it moved by less than 2π.
func WrapPhase(phase float64) float64 {
	const twoPi = 2 * math.Pi
	if phase >= twoPi {
		phase -= twoPi
	} else if phase < 0 {
		phase += twoPi
	}

	return phase
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}
