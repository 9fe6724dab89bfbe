package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const (
	defaultCompressorLevel     = 1.0
	defaultCompressorTone      = 0.5
	defaultCompressorAttackMs  = 10.0
	defaultCompressorSustainMs = 100.0

	compressorThreshold = 0.15
	compressorRatio     = 8.0
	compressorKnee      = 0.1
	compressorMakeup    = 2.5
	compressorSmoothing = 0.001
	compressorLowCoef   = 0.03

	compressorLimitKnee    = 0.9
	compressorLimitSlope   = 0.1
	compressorLimitCeiling = 0.98
)

// CompressorParams are the compressor/sustainer controls. Sustain sets the
// release time and also lengthens it further as it grows.
type CompressorParams struct {
	Enabled param.Bool
	Level   param.Float
	Tone    param.Float
	Attack  param.Float
	Sustain param.Float
}

// NewCompressorParams returns compressor controls at their defaults.
func NewCompressorParams() *CompressorParams {
	p := &CompressorParams{}
	p.Enabled.Init("enabled", false)
	p.Level.Init("level", "", defaultCompressorLevel, 0, 2)
	p.Tone.Init("tone", "", defaultCompressorTone, 0, 1)
	p.Attack.Init("attack", "ms", defaultCompressorAttackMs, 0.1, 500)
	p.Sustain.Init("sustain", "ms", defaultCompressorSustainMs, 1, 5000)
	return p
}

// Group exposes the controls for name lookup.
func (p *CompressorParams) Group() param.Group {
	return param.Group{
		Name:    "compressor",
		Enabled: &p.Enabled,
		Floats:  []*param.Float{&p.Level, &p.Tone, &p.Attack, &p.Sustain},
	}
}

// Compressor is a per-channel sustainer: fixed threshold 0.15, ratio 8:1,
// knee 0.1 and 2.5x makeup, with level, tone, attack and sustain exposed.
type Compressor struct {
	params     *CompressorParams
	sampleRate float64

	env    []float64
	smooth []float64
	low    []float64
}

// NewCompressor creates a compressor bound to params. A nil params gets
// defaults.
func NewCompressor(sampleRate float64, params *CompressorParams) (*Compressor, error) {
	if params == nil {
		params = NewCompressorParams()
	}
	c := &Compressor{params: params}
	if err := c.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return c, nil
}

// SetSampleRate updates the rate used for the envelope time constants.
func (c *Compressor) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}
	c.sampleRate = sampleRate
	return nil
}

// Prepare sizes per-channel state so that Process does not allocate.
// Existing channels keep their state; new ones start at unity smoothed gain.
func (c *Compressor) Prepare(channels int) {
	for len(c.env) < channels {
		c.env = append(c.env, 0)
		c.smooth = append(c.smooth, 1)
		c.low = append(c.low, 0)
	}
}

// Reset clears envelopes and filters. The smoothed gain restarts at zero
// and fades in over the smoothing constant, so a reset chain ramps up
// instead of starting at full makeup gain.
func (c *Compressor) Reset() {
	for i := range c.env {
		c.env[i] = 0
		c.smooth[i] = 0
		c.low[i] = 0
	}
}

// Process compresses an interleaved buffer in place.
func (c *Compressor) Process(buf []float64, channels int) {
	if !c.params.Enabled.Load() || channels <= 0 {
		return
	}
	c.Prepare(channels)

	level := c.params.Level.Load()
	tone := c.params.Tone.Load()
	attackMs := c.params.Attack.Load()
	sustainMs := c.params.Sustain.Load()

	attackSec := math.Max(0.1, attackMs) / 1000
	releaseSec := math.Max(10, sustainMs) / 1000
	sustain := sustainMs / 1000

	attackCoef := math.Exp(-1 / (attackSec * c.sampleRate))
	releaseCoef := math.Exp(-1 / (releaseSec * (1 + 2*sustain) * c.sampleRate))

	midBoost := 1 + (1-math.Abs(tone-0.5)*2)*0.3

	frames := core.Frames(buf, channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			idx := i*channels + ch
			x := buf[idx]
			ax := math.Abs(x)

			env := c.env[ch]
			if ax > env {
				env = attackCoef*env + (1-attackCoef)*ax
			} else {
				env = releaseCoef*env + (1-releaseCoef)*ax
			}
			env = core.FlushDenormals(env)
			c.env[ch] = env

			smooth := c.smooth[ch]*(1-compressorSmoothing) + gainFor(env)*compressorSmoothing
			c.smooth[ch] = smooth

			y := x * smooth * compressorMakeup * level
			y += y * math.Abs(y) * 0.08 * sustain

			low := core.FlushDenormals(c.low[ch] + compressorLowCoef*(y-c.low[ch]))
			c.low[ch] = low
			high := y - low

			out := low*(1-tone)*1.2 + y*midBoost*0.4 + high*tone*1.5
			out = core.SoftLimit(out, compressorLimitKnee, compressorLimitSlope, compressorLimitCeiling)
			buf[idx] = out
		}
	}
}

// gainFor returns the static gain for an envelope level: unity below the
// knee, a quadratic knee around the threshold and ratio compression above.
func gainFor(env float64) float64 {
	var dbOver float64
	switch {
	case env > compressorThreshold-compressorKnee && env < compressorThreshold+compressorKnee:
		in := env - compressorThreshold + compressorKnee
		out := in * in / (4 * compressorKnee)
		dbOver = 20 * mathLog10((compressorThreshold+out)/compressorThreshold+1e-20)
	case env >= compressorThreshold+compressorKnee:
		dbOver = 20 * mathLog10(env/compressorThreshold+1e-20)
	default:
		return 1
	}
	return mathPower10(-(dbOver - dbOver/compressorRatio) / 20)
}

// Params returns the bound controls.
func (c *Compressor) Params() *CompressorParams { return c.params }

// SampleRate returns sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }
