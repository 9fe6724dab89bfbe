package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const (
	defaultChorusRateHz   = 1.5
	defaultChorusDepth    = 0.02
	defaultChorusFeedback = 0.3
	defaultChorusWidth    = 0.5

	chorusBaseDelayMs = 15.0
	chorusDepthMs     = 10.0
	chorusMaxDelayMs  = 40
	chorusWetMix      = 0.5
)

// ChorusParams are the chorus controls.
type ChorusParams struct {
	Enabled  param.Bool
	Rate     param.Float
	Depth    param.Float
	Feedback param.Float
	Width    param.Float
}

// NewChorusParams returns chorus controls at their defaults.
func NewChorusParams() *ChorusParams {
	p := &ChorusParams{}
	p.Enabled.Init("enabled", false)
	p.Rate.Init("rate", "Hz", defaultChorusRateHz, 0.1, 5)
	p.Depth.Init("depth", "", defaultChorusDepth, 0, 1)
	p.Feedback.Init("feedback", "", defaultChorusFeedback, 0, 0.95)
	p.Width.Init("width", "", defaultChorusWidth, 0, 1)
	return p
}

// Group exposes the controls for name lookup.
func (p *ChorusParams) Group() param.Group {
	return param.Group{
		Name:    "chorus",
		Enabled: &p.Enabled,
		Floats:  []*param.Float{&p.Rate, &p.Depth, &p.Feedback, &p.Width},
	}
}

// Chorus is a single-voice modulated delay over an interleaved buffer.
//
// Per channel the delay time follows
//
//	d = 15ms + 10ms*depth*(0.6*sin(φ) + 0.4*sin(1.5φ)),  φ = phase + ch*width*π
//
// and the wet tap is read with linear interpolation. The delay line holds
// 40ms of frames and only ever grows.
type Chorus struct {
	params     *ChorusParams
	sampleRate float64

	delayLine []float64
	write     int
	phase     float64
}

// NewChorus creates a chorus bound to params. A nil params gets defaults.
func NewChorus(sampleRate float64, params *ChorusParams) (*Chorus, error) {
	if params == nil {
		params = NewChorusParams()
	}
	c := &Chorus{params: params}
	if err := c.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return c, nil
}

// SetSampleRate updates the sample rate. The delay line is resized on the
// next Prepare or Process if the new rate needs more room.
func (c *Chorus) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("chorus sample rate must be > 0 and finite: %f", sampleRate)
	}
	c.sampleRate = sampleRate
	return nil
}

// Prepare sizes the delay line for channels so that Process does not
// allocate.
func (c *Chorus) Prepare(channels int) {
	if channels <= 0 {
		return
	}
	need := c.maxDelayFrames() * channels
	if len(c.delayLine) < need {
		c.delayLine = make([]float64, need)
		c.write = 0
	}
}

// Reset clears the delay line, cursor and LFO phase.
func (c *Chorus) Reset() {
	core.Zero(c.delayLine)
	c.write = 0
	c.phase = 0
}

// Process applies chorus to an interleaved buffer in place.
func (c *Chorus) Process(buf []float64, channels int) {
	if !c.params.Enabled.Load() || channels <= 0 {
		return
	}
	c.Prepare(channels)
	if len(c.delayLine) == 0 {
		return
	}

	modDepthMs := chorusDepthMs * c.params.Depth.Load()
	feedback := c.params.Feedback.Load()
	width := c.params.Width.Load()
	inc := 2 * math.Pi * c.params.Rate.Load() / c.sampleRate

	line := c.delayLine
	size := len(line)
	lineFrames := float64(size) / float64(channels)

	frames := core.Frames(buf, channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			idx := i*channels + ch
			dry := buf[idx]

			phase := c.phase + float64(ch)*width*math.Pi
			lfo := 0.6*math.Sin(phase) + 0.4*math.Sin(1.5*phase)
			delaySamples := c.sampleRate * (chorusBaseDelayMs + modDepthMs*lfo) / 1000

			readPos := float64(c.write) - delaySamples
			for readPos < 0 {
				readPos += lineFrames
			}

			a := int(readPos)*channels + ch
			b := a + channels
			if b >= size {
				b -= size
			}
			frac := readPos - math.Floor(readPos)
			wet := line[a%size]*(1-frac) + line[b%size]*frac

			buf[idx] = (1-chorusWetMix)*dry + chorusWetMix*wet
			line[(c.write*channels+ch)%size] = dry + wet*feedback
		}

		c.phase += inc
		if c.phase > 2*math.Pi {
			c.phase -= 2 * math.Pi
		}
		c.write++
		if c.write*channels >= size {
			c.write = 0
		}
	}
}

func (c *Chorus) maxDelayFrames() int {
	return int(c.sampleRate * chorusMaxDelayMs / 1000)
}

// Params returns the bound controls.
func (c *Chorus) Params() *ChorusParams { return c.params }

// SampleRate returns sample rate in Hz.
func (c *Chorus) SampleRate() float64 { return c.sampleRate }

// DelayLineLen returns the allocated delay line length in samples.
func (c *Chorus) DelayLineLen() int { return len(c.delayLine) }
