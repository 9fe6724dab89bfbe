package delay

import (
	"fmt"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
)

// Comb is a damped feedback comb filter.
type Comb struct {
	buffer []float64
	index  int

	feedback    float64
	filterStore float64
	damp1       float64
	damp2       float64
}

// NewComb returns a comb filter whose delay equals size samples.
func NewComb(size int) (*Comb, error) {
	c := &Comb{}
	if err := c.SetSize(size); err != nil {
		return nil, err
	}
	return c, nil
}

// SetSize reallocates the delay buffer and clears all state.
func (c *Comb) SetSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("comb size must be > 0: %d", size)
	}
	c.buffer = make([]float64, size)
	c.index = 0
	c.filterStore = 0
	return nil
}

// SetFeedback sets the recirculation gain.
func (c *Comb) SetFeedback(feedback float64) { c.feedback = feedback }

// SetDamp sets the one-pole damping amount; 0 disables high-frequency loss.
func (c *Comb) SetDamp(damp float64) {
	c.damp1 = damp
	c.damp2 = 1 - damp
}

// Process returns the delayed sample and writes input plus the damped,
// fed-back output at the same cursor.
func (c *Comb) Process(input float64) float64 {
	output := c.buffer[c.index]
	c.filterStore = core.FlushDenormals(output*c.damp2 + c.filterStore*c.damp1)
	c.buffer[c.index] = input + c.filterStore*c.feedback
	c.index++
	if c.index >= len(c.buffer) {
		c.index = 0
	}
	return output
}

// Reset clears the delay buffer and damping state.
func (c *Comb) Reset() {
	core.Zero(c.buffer)
	c.index = 0
	c.filterStore = 0
}

// Size returns the delay length in samples.
func (c *Comb) Size() int { return len(c.buffer) }

// Feedback returns the recirculation gain.
func (c *Comb) Feedback() float64 { return c.feedback }

// Damp returns the damping amount.
func (c *Comb) Damp() float64 { return c.damp1 }
