package effects

import (
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const (
	defaultBluesGain  = 1.5
	defaultBluesTone  = 0.5
	defaultBluesLevel = 0.8

	bluesInputScale  = 1.8
	bluesPreBoost    = 1.4
	bluesSoftThresh  = 0.3
	bluesHardThresh  = 0.65
	bluesHarmonics   = 0.3
	bluesPresence    = 0.15
	bluesLowpassCoef = 0.08
	bluesMakeup      = 1.1

	bluesLimitKnee    = 0.85
	bluesLimitSlope   = 0.3
	bluesLimitCeiling = 0.98
)

// BluesDriverParams are the blues driver controls.
type BluesDriverParams struct {
	Enabled param.Bool
	Gain    param.Float
	Tone    param.Float
	Level   param.Float
}

// NewBluesDriverParams returns blues driver controls at their defaults.
func NewBluesDriverParams() *BluesDriverParams {
	p := &BluesDriverParams{}
	p.Enabled.Init("enabled", false)
	p.Gain.Init("gain", "", defaultBluesGain, 0, 10)
	p.Tone.Init("tone", "", defaultBluesTone, 0, 1)
	p.Level.Init("level", "", defaultBluesLevel, 0, 2)
	return p
}

// Group exposes the controls for name lookup.
func (p *BluesDriverParams) Group() param.Group {
	return param.Group{
		Name:    "blues",
		Enabled: &p.Enabled,
		Floats:  []*param.Float{&p.Gain, &p.Tone, &p.Level},
	}
}

// BluesDriver clips in three regions (clean, cubic soft knee, asymmetric
// exponential) and then splits the signal into bass, scooped mid, treble
// and presence bands before remixing them.
type BluesDriver struct {
	params *BluesDriverParams
	low    [2]float64
}

// NewBluesDriver creates a blues driver bound to params. A nil params gets
// defaults.
func NewBluesDriver(params *BluesDriverParams) *BluesDriver {
	if params == nil {
		params = NewBluesDriverParams()
	}
	return &BluesDriver{params: params}
}

// Reset clears the tone stack filters.
func (b *BluesDriver) Reset() { b.low = [2]float64{} }

// Process applies the blues driver to an interleaved buffer in place.
// Channels share the two tone-stack filters by parity.
func (b *BluesDriver) Process(buf []float64, channels int) {
	if !b.params.Enabled.Load() || channels <= 0 {
		return
	}

	gain := b.params.Gain.Load() * bluesInputScale
	tone := b.params.Tone.Load()
	level := b.params.Level.Load()

	bassPresence := 1.2 + (1-tone)*0.5
	midScoop := 0.6 + tone*0.2
	trebleBoost := 1.5 + tone

	frames := core.Frames(buf, channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			idx := i*channels + ch

			x := bluesClip(buf[idx] * gain * bluesPreBoost)
			x2 := x * x
			x += x2*bluesHarmonics*0.15 + x2*x*bluesHarmonics*0.25

			f := ch % 2
			b.low[f] += bluesLowpassCoef * (x*bassPresence - b.low[f])
			bass := b.low[f]
			high := x - bass
			treble := high * trebleBoost
			mid := (x - bass*0.5 - high*0.5) * midScoop
			presence := high * bluesPresence * 2.5

			out := bass*0.35 + mid*0.25 + treble*0.3 + presence*0.1
			out = core.SoftLimit(out, bluesLimitKnee, bluesLimitSlope, bluesLimitCeiling)
			buf[idx] = out * level * bluesMakeup
		}
	}
}

// bluesClip is the three-region clipper. The positive half saturates
// harder and caps at 0.95; the negative half caps at 0.90.
func bluesClip(x float64) float64 {
	a := math.Abs(x)
	switch {
	case a < bluesSoftThresh:
		return x * (1 + a*0.2)
	case a < bluesHardThresh:
		span := bluesHardThresh - bluesSoftThresh
		e := (a - bluesSoftThresh) / span
		sat := bluesSoftThresh + (e-e*e*e*0.33)*span
		return core.Sign(x) * sat
	default:
		e := a - bluesHardThresh
		if x > 0 {
			return math.Min(bluesHardThresh+(1-bluesHardThresh)*(1-math.Exp(-2*e)), 0.95)
		}
		return -math.Min(bluesHardThresh+(1-bluesHardThresh)*(1-math.Exp(-1.2*e)), 0.90)
	}
}

// Params returns the bound controls.
func (b *BluesDriver) Params() *BluesDriverParams { return b.params }
