package effectchain

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
)

// Context provides environmental information that stage runtimes need.
type Context struct {
	SampleRate float64
	Channels   int
	MaxFrames  int
}

// NewContext builds a Context from processor options applied over
// core.DefaultProcessorConfig.
func NewContext(opts ...core.ProcessorOption) Context {
	cfg := core.ApplyProcessorOptions(opts...)
	return Context{SampleRate: cfg.SampleRate, Channels: cfg.Channels, MaxFrames: cfg.MaxFrames}
}

// Validate checks that the context can drive a chain.
func (c Context) Validate() error {
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("effectchain: sample rate must be > 0 and finite: %f", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("effectchain: channels must be > 0: %d", c.Channels)
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("effectchain: max frames must be >= 0: %d", c.MaxFrames)
	}
	return nil
}
