package effects

import (
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const (
	defaultWarmAmount     = 0.5
	defaultWarmTone       = 0.5
	defaultWarmSaturation = 0.3

	warmCompThreshold = 0.2
	warmLowpassCoef   = 0.3
	warmCeiling       = 0.95
)

// WarmParams are the warm saturator controls. Amount is also the dry/wet
// balance.
type WarmParams struct {
	Enabled    param.Bool
	Amount     param.Float
	Tone       param.Float
	Saturation param.Float
}

// NewWarmParams returns warm controls at their defaults.
func NewWarmParams() *WarmParams {
	p := &WarmParams{}
	p.Enabled.Init("enabled", false)
	p.Amount.Init("amount", "", defaultWarmAmount, 0, 1)
	p.Tone.Init("tone", "", defaultWarmTone, 0, 1)
	p.Saturation.Init("saturation", "", defaultWarmSaturation, 0, 1)
	return p
}

// Group exposes the controls for name lookup.
func (p *WarmParams) Group() param.Group {
	return param.Group{
		Name:    "warm",
		Enabled: &p.Enabled,
		Floats:  []*param.Float{&p.Amount, &p.Tone, &p.Saturation},
	}
}

// Warm is a tube-flavoured saturator. It only processes channels 0 and 1;
// further channels are overwritten with channel ch%2.
type Warm struct {
	params *WarmParams
	lp     [2]float64
}

// NewWarm creates a warm saturator bound to params. A nil params gets
// defaults.
func NewWarm(params *WarmParams) *Warm {
	if params == nil {
		params = NewWarmParams()
	}
	return &Warm{params: params}
}

// Reset clears the roll-off filter.
func (w *Warm) Reset() { w.lp = [2]float64{} }

// Process applies warm saturation to an interleaved buffer in place.
func (w *Warm) Process(buf []float64, channels int) {
	if !w.params.Enabled.Load() || channels <= 0 {
		return
	}

	amount := w.params.Amount.Load()
	tone := w.params.Tone.Load()
	sat := w.params.Saturation.Load()

	compRatio := 0.3 + amount*0.4
	drive := 1 + sat*3
	harmonic := sat * 0.5
	bassBoost := 1 + (1-tone)*0.8
	trebleRoll := 1 - tone*0.3
	midWarmth := 1 + amount*0.4
	outGain := 0.8 + amount*0.4

	active := min(channels, 2)
	frames := core.Frames(buf, channels)
	for i := 0; i < frames; i++ {
		base := i * channels
		for ch := 0; ch < active; ch++ {
			in := buf[base+ch]

			x := in * bassBoost
			if a := math.Abs(x); a > warmCompThreshold {
				x = core.Sign(x) * (warmCompThreshold + (a-warmCompThreshold)*compRatio)
			}

			s := warmSaturate(x*drive, harmonic) * 0.7
			if harmonic > 0.01 {
				s2 := s * s
				s += s2*harmonic*0.15 + s2*s*harmonic*0.05
			}
			s *= midWarmth

			w.lp[ch] += warmLowpassCoef * (s*trebleRoll - w.lp[ch])
			out := core.HardLimit(w.lp[ch]*outGain, warmCeiling)

			buf[base+ch] = in*(1-amount) + out*amount
		}
		for ch := 2; ch < channels; ch++ {
			buf[base+ch] = buf[base+ch%2]
		}
	}
}

// warmSaturate is a cubic soft clipper inside [-1, 1] and an exponential
// limiter outside. The curve is discontinuous at |x| = 1.
func warmSaturate(x, harmonic float64) float64 {
	if math.Abs(x) <= 1 {
		x2 := x * x
		return x - x2*x*0.33 + x2*harmonic*0.1
	}
	return core.Sign(x) * (1 - math.Exp(-(math.Abs(x)-1)*0.5))
}

// Params returns the bound controls.
func (w *Warm) Params() *WarmParams { return w.params }
