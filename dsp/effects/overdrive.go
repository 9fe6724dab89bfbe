package effects

import (
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const (
	defaultOverdriveDrive     = 3.0
	defaultOverdriveThreshold = 0.3
	defaultOverdriveTone      = 0.5
	defaultOverdriveMix       = 0.8

	overdriveLimitKnee    = 0.9
	overdriveLimitSlope   = 0.1
	overdriveLimitCeiling = 0.98
)

// OverdriveParams are the overdrive controls.
type OverdriveParams struct {
	Enabled   param.Bool
	Drive     param.Float
	Threshold param.Float
	Tone      param.Float
	Mix       param.Float
}

// NewOverdriveParams returns overdrive controls at their defaults.
func NewOverdriveParams() *OverdriveParams {
	p := &OverdriveParams{}
	p.Enabled.Init("enabled", false)
	p.Drive.Init("drive", "", defaultOverdriveDrive, 1, 10)
	p.Threshold.Init("threshold", "", defaultOverdriveThreshold, 0.1, 0.9)
	p.Tone.Init("tone", "", defaultOverdriveTone, 0, 1)
	p.Mix.Init("mix", "", defaultOverdriveMix, 0, 1)
	return p
}

// Group exposes the controls for name lookup.
func (p *OverdriveParams) Group() param.Group {
	return param.Group{
		Name:    "overdrive",
		Enabled: &p.Enabled,
		Floats:  []*param.Float{&p.Drive, &p.Threshold, &p.Tone, &p.Mix},
	}
}

// Overdrive is an asymmetric soft clipper. A lower threshold means more
// saturation and more output gain to compensate. The tone filter only runs
// on the first two channels; further channels get the raw clipped signal.
type Overdrive struct {
	params *OverdriveParams
	tone   [2]float64
}

// NewOverdrive creates an overdrive bound to params. A nil params gets
// defaults.
func NewOverdrive(params *OverdriveParams) *Overdrive {
	if params == nil {
		params = NewOverdriveParams()
	}
	return &Overdrive{params: params}
}

// Reset clears the tone filter.
func (o *Overdrive) Reset() { o.tone = [2]float64{} }

// Process applies overdrive to an interleaved buffer in place.
func (o *Overdrive) Process(buf []float64, channels int) {
	if !o.params.Enabled.Load() || channels <= 0 {
		return
	}

	drive := o.params.Drive.Load()
	threshold := o.params.Threshold.Load()
	tone := o.params.Tone.Load()
	mix := o.params.Mix.Load()

	sensitivity := 1 - threshold
	outputGain := 1 + 2*sensitivity
	saturation := 1.5 + 3*sensitivity
	preEmphasis := 1 + 0.8*sensitivity
	bassRolloff := 0.3 + 0.4*tone
	trebleBoost := 1 + 1.5*tone

	frames := core.Frames(buf, channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			idx := i*channels + ch
			in := buf[idx]

			wet := overdriveShape(in*drive*preEmphasis, threshold, saturation, sensitivity)

			if ch < 2 {
				low := wet*bassRolloff + o.tone[ch]*(1-bassRolloff)
				o.tone[ch] = low
				wet = low + (wet-low)*trebleBoost
			}

			wet = core.SoftLimit(wet, overdriveLimitKnee, overdriveLimitSlope, overdriveLimitCeiling)
			buf[idx] = in*(1-mix) + wet*outputGain*mix
		}
	}
}

// overdriveShape is the static transfer curve: mild expansion below
// threshold, exponential saturation above it with a softer negative half.
func overdriveShape(x, threshold, saturation, sensitivity float64) float64 {
	a := math.Abs(x)
	if a <= threshold {
		return x * (1 + a/threshold*0.3)
	}

	excess := (a - threshold) / (1 - threshold + 0.001)
	var y float64
	if x > 0 {
		y = threshold + (1-math.Exp(-excess*saturation))*(1-threshold)*0.85
	} else {
		y = -(threshold + (1-math.Exp(-excess*saturation*0.8))*(1-threshold)*0.75)
	}

	return y + x*a*0.15*sensitivity
}

// Params returns the bound controls.
func (o *Overdrive) Params() *OverdriveParams { return o.params }
