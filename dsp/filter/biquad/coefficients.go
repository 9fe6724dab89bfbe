package biquad

import (
	"fmt"
	"math"
)

// Coefficients holds the transfer function coefficients for a single
// second-order section. a0 is normalized to 1 and not stored.
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// BandPass returns constant 0 dB peak-gain band-pass coefficients centred
// on freq with quality factor q.
func BandPass(freq, q, sampleRate float64) (Coefficients, error) {
	if err := validateDesign(freq, q, sampleRate); err != nil {
		return Coefficients{}, err
	}

	w := 2 * math.Pi * freq / sampleRate
	sinW, cosW := math.Sincos(w)
	alpha := sinW / (2 * q)
	a0 := 1 + alpha

	return Coefficients{
		B0: alpha / a0,
		B1: 0,
		B2: -alpha / a0,
		A1: -2 * cosW / a0,
		A2: (1 - alpha) / a0,
	}, nil
}

func validateDesign(freq, q, sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("biquad sample rate must be > 0 and finite: %f", sampleRate)
	}
	if freq <= 0 || freq >= sampleRate/2 || math.IsNaN(freq) {
		return fmt.Errorf("biquad frequency must be in (0, %f): %f", sampleRate/2, freq)
	}
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("biquad q must be > 0 and finite: %f", q)
	}
	return nil
}
