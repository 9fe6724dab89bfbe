package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const (
	defaultTremoloRateHz = 5.0
	defaultTremoloDepth  = 0.5
)

// TremoloParams are the tremolo controls. Rate and depth accept any finite
// value; a negative depth inverts the modulation.
type TremoloParams struct {
	Enabled param.Bool
	Rate    param.Float
	Depth   param.Float
}

// NewTremoloParams returns tremolo controls at their defaults.
func NewTremoloParams() *TremoloParams {
	p := &TremoloParams{}
	p.Enabled.Init("enabled", false)
	p.Rate.Init("rate", "Hz", defaultTremoloRateHz, math.Inf(-1), math.Inf(1))
	p.Depth.Init("depth", "", defaultTremoloDepth, math.Inf(-1), math.Inf(1))
	return p
}

// Group exposes the controls for name lookup.
func (p *TremoloParams) Group() param.Group {
	return param.Group{Name: "tremolo", Enabled: &p.Enabled, Floats: []*param.Float{&p.Rate, &p.Depth}}
}

// Tremolo multiplies every channel of a frame by 1 + depth*sin(phase).
type Tremolo struct {
	params     *TremoloParams
	sampleRate float64
	phase      float64
}

// NewTremolo creates a tremolo bound to params. A nil params gets defaults.
func NewTremolo(sampleRate float64, params *TremoloParams) (*Tremolo, error) {
	if params == nil {
		params = NewTremoloParams()
	}
	t := &Tremolo{params: params}
	if err := t.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return t, nil
}

// SetSampleRate updates the rate used for the phase increment.
func (t *Tremolo) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("tremolo sample rate must be > 0 and finite: %f", sampleRate)
	}
	t.sampleRate = sampleRate
	return nil
}

// Reset zeroes the LFO phase.
func (t *Tremolo) Reset() { t.phase = 0 }

// Process applies tremolo to an interleaved buffer in place.
func (t *Tremolo) Process(buf []float64, channels int) {
	if !t.params.Enabled.Load() || channels <= 0 {
		return
	}

	depth := t.params.Depth.Load()
	inc := math.Mod(2*math.Pi*t.params.Rate.Load()/t.sampleRate, 2*math.Pi)

	frames := core.Frames(buf, channels)
	for i := 0; i < frames; i++ {
		gain := 1 + depth*math.Sin(t.phase)
		frame := buf[i*channels : (i+1)*channels]
		for ch := range frame {
			frame[ch] *= gain
		}
		t.phase = core.WrapPhase(t.phase + inc)
	}
}

// Params returns the bound controls.
func (t *Tremolo) Params() *TremoloParams { return t.params }

// SampleRate returns sample rate in Hz.
func (t *Tremolo) SampleRate() float64 { return t.sampleRate }

// Phase returns the current LFO phase in radians.
func (t *Tremolo) Phase() float64 { return t.phase }
