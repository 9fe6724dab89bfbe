package delay

import (
	"fmt"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
)

// Allpass is a Schroeder all-pass diffuser:
//
//	y[n]   = -x[n] + buf[i]
//	buf[i] =  x[n] + buf[i]*feedback
type Allpass struct {
	buffer   []float64
	index    int
	feedback float64
}

// NewAllpass returns an all-pass filter with a delay of size samples.
func NewAllpass(size int) (*Allpass, error) {
	a := &Allpass{}
	if err := a.SetSize(size); err != nil {
		return nil, err
	}
	return a, nil
}

// SetSize reallocates the delay buffer and clears all state.
func (a *Allpass) SetSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("allpass size must be > 0: %d", size)
	}
	a.buffer = make([]float64, size)
	a.index = 0
	return nil
}

// SetFeedback sets the diffusion gain.
func (a *Allpass) SetFeedback(feedback float64) { a.feedback = feedback }

// Process filters one sample.
func (a *Allpass) Process(input float64) float64 {
	bufOut := a.buffer[a.index]
	output := -input + bufOut
	a.buffer[a.index] = core.FlushDenormals(input + bufOut*a.feedback)
	a.index++
	if a.index >= len(a.buffer) {
		a.index = 0
	}
	return output
}

// Reset clears the delay buffer.
func (a *Allpass) Reset() {
	core.Zero(a.buffer)
	a.index = 0
}

// Size returns the delay length in samples.
func (a *Allpass) Size() int { return len(a.buffer) }

// Feedback returns the diffusion gain.
func (a *Allpass) Feedback() float64 { return a.feedback }
