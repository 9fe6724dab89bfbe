package biquad

// Resonator runs a set of coefficients against its own two most recent
// outputs for both the feedforward and the feedback terms:
//
//	y  = B0*x + B1*z1 + B2*z2 - A1*z1 - A2*z2
//	z2 = z1
//	z1 = y
//
// This is not a textbook direct form. With band-pass coefficients it gives
// a narrower, more vocal sweep than Direct Form II and is kept for that voice.
// Coefficients may be swapped between samples without clearing the history.
type Resonator struct {
	Coefficients

	z1, z2 float64
}

// ProcessSample filters one sample.
func (r *Resonator) ProcessSample(x float64) float64 {
	y := r.B0*x + r.B1*r.z1 + r.B2*r.z2 - r.A1*r.z1 - r.A2*r.z2
	r.z2 = r.z1
	r.z1 = y
	return y
}

// Reset clears the output history.
func (r *Resonator) Reset() {
	r.z1 = 0
	r.z2 = 0
}

// History returns the last two outputs [z1, z2].
func (r *Resonator) History() [2]float64 {
	return [2]float64{r.z1, r.z2}
}
