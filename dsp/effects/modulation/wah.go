package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/filter/biquad"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const (
	// WahMinFreqHz and WahMaxFreqHz bound the swept center frequency.
	WahMinFreqHz = 200.0
	WahMaxFreqHz = 3000.0

	defaultWahFreqHz    = 1000.0
	defaultWahQ         = 10.0
	defaultWahMix       = 0.5
	defaultWahLFORateHz = 0.5
	defaultWahLFODepth  = 0.5
	defaultWahAttackMs  = 5.0
	defaultWahReleaseMs = 80.0

	wahSmoothing       = 0.08
	wahManualWeight    = 0.1
	wahEnvSensitivity  = 3.0
	wahRetuneThreshold = 1.0
)

// WahParams are the wah controls. Freq is the manual pedal position; it
// pulls the swept frequency towards itself with a 10% weight.
type WahParams struct {
	Enabled  param.Bool
	Freq     param.Float
	Q        param.Float
	Mix      param.Float
	LFORate  param.Float
	LFODepth param.Float
	Attack   param.Float
	Release  param.Float
}

// NewWahParams returns wah controls at their defaults.
func NewWahParams() *WahParams {
	p := &WahParams{}
	p.Enabled.Init("enabled", false)
	p.Freq.Init("freq", "Hz", defaultWahFreqHz, WahMinFreqHz, WahMaxFreqHz)
	p.Q.Init("q", "", defaultWahQ, 0.5, 20)
	p.Mix.Init("mix", "", defaultWahMix, 0, 1)
	p.LFORate.Init("lforate", "Hz", defaultWahLFORateHz, 0, 10)
	p.LFODepth.Init("lfodepth", "", defaultWahLFODepth, 0, 1)
	p.Attack.Init("attack", "ms", defaultWahAttackMs, 0.001, 500)
	p.Release.Init("release", "ms", defaultWahReleaseMs, 1, 2000)
	return p
}

// Group exposes the controls for name lookup.
func (p *WahParams) Group() param.Group {
	return param.Group{
		Name:    "wah",
		Enabled: &p.Enabled,
		Floats: []*param.Float{
			&p.Freq, &p.Q, &p.Mix, &p.LFORate, &p.LFODepth, &p.Attack, &p.Release,
		},
	}
}

// Wah is a stereo band-pass sweep driven by an envelope follower on the
// L/R average and a sine LFO. The center frequency is smoothed per sample
// and the filter is only retuned once it has moved more than 1 Hz.
type Wah struct {
	params     *WahParams
	sampleRate float64

	env         float64
	lfoPhase    float64
	smoothFreq  float64
	lastTuned   float64
	retuneCount uint64

	left, right biquad.Resonator

	scratchL, scratchR []float64
}

// NewWah creates a wah bound to params. A nil params gets defaults.
func NewWah(sampleRate float64, params *WahParams) (*Wah, error) {
	if params == nil {
		params = NewWahParams()
	}
	w := &Wah{params: params}
	if err := w.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	w.Reset()
	return w, nil
}

// SetSampleRate updates the sample rate. Coefficients are retuned on the
// next sample.
func (w *Wah) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("wah sample rate must be > 0 and finite: %f", sampleRate)
	}
	w.sampleRate = sampleRate
	w.lastTuned = 0
	return nil
}

// Prepare sizes the deinterleave scratch for maxFrames so that Process
// does not allocate.
func (w *Wah) Prepare(maxFrames int) {
	if maxFrames > len(w.scratchL) {
		w.scratchL = make([]float64, maxFrames)
		w.scratchR = make([]float64, maxFrames)
	}
}

// Reset clears filter history, envelope, LFO phase and frequency smoothing.
func (w *Wah) Reset() {
	w.left.Reset()
	w.right.Reset()
	w.left.Coefficients = biquad.Coefficients{}
	w.right.Coefficients = biquad.Coefficients{}
	w.env = 0
	w.lfoPhase = 0
	w.smoothFreq = w.params.Freq.Load()
	w.lastTuned = 0
}

// Process applies the wah to channels 0 and 1 of an interleaved buffer
// and mirrors the result onto any further channels. Mono buffers pass
// through unchanged.
func (w *Wah) Process(buf []float64, channels int) {
	if !w.params.Enabled.Load() || channels < 2 {
		return
	}
	frames := core.Frames(buf, channels)
	w.Prepare(frames)

	left := w.scratchL[:frames]
	right := w.scratchR[:frames]
	core.Deinterleave(left, buf, channels, 0)
	core.Deinterleave(right, buf, channels, 1)

	w.ProcessStereo(left, right)

	core.Interleave(buf, left, channels, 0)
	core.Interleave(buf, right, channels, 1)
	core.MirrorStereo(buf, channels)
}

// ProcessStereo applies the wah to separate left and right slices in place.
// Both slices must have the same length.
func (w *Wah) ProcessStereo(left, right []float64) {
	if !w.params.Enabled.Load() {
		return
	}

	p := w.params
	sr := w.sampleRate
	manual := p.Freq.Load()
	q := p.Q.Load()
	mix := p.Mix.Load()
	lfoRate := p.LFORate.Load()
	depth := p.LFODepth.Load()

	lfoInc := 2 * math.Pi * lfoRate / sr
	attack := math.Exp(-1 / (math.Max(0.001, p.Attack.Load()) * 0.001 * sr))
	release := math.Exp(-1 / (math.Max(1, p.Release.Load()) * 0.001 * sr))

	for i := range left {
		inL, inR := left[i], right[i]

		level := (math.Abs(inL) + math.Abs(inR)) * 0.5
		if level > w.env {
			w.env = attack*w.env + (1-attack)*level
		} else {
			w.env = release*w.env + (1-release)*level
		}
		envMod := math.Min(1, w.env*wahEnvSensitivity)

		lfo := 0.0
		if lfoRate > 0 && depth > 0 {
			lfo = 0.5 * (1 + math.Sin(w.lfoPhase))
			w.lfoPhase = core.WrapPhase(w.lfoPhase + lfoInc)
		}

		combined := (envMod*depth + lfo*depth) / math.Max(0.0001, 2*depth)
		if depth <= 0.0001 {
			combined = envMod
		}

		target := WahMinFreqHz + combined*(WahMaxFreqHz-WahMinFreqHz)
		target = target*(1-wahManualWeight) + manual*wahManualWeight
		w.smoothFreq += (target - w.smoothFreq) * wahSmoothing

		if math.Abs(w.smoothFreq-w.lastTuned) > wahRetuneThreshold {
			w.retune(w.smoothFreq, q)
			w.lastTuned = w.smoothFreq
		}

		outL := w.left.ProcessSample(inL)
		outR := w.right.ProcessSample(inR)
		left[i] = inL*(1-mix) + outL*mix
		right[i] = inR*(1-mix) + outR*mix
	}
}

func (w *Wah) retune(freq, q float64) {
	c, err := biquad.BandPass(freq, q, w.sampleRate)
	if err != nil {
		// Frequencies at or above Nyquist keep the previous tuning.
		return
	}
	w.left.Coefficients = c
	w.right.Coefficients = c
	w.retuneCount++
}

// Params returns the bound controls.
func (w *Wah) Params() *WahParams { return w.params }

// SampleRate returns sample rate in Hz.
func (w *Wah) SampleRate() float64 { return w.sampleRate }

// Frequency returns the smoothed center frequency in Hz.
func (w *Wah) Frequency() float64 { return w.smoothFreq }

// Coefficients returns the band-pass coefficients currently in use.
func (w *Wah) Coefficients() biquad.Coefficients { return w.left.Coefficients }

// Retunes returns how many times the coefficients have been recomputed.
func (w *Wah) Retunes() uint64 { return w.retuneCount }

// Envelope returns the envelope follower level.
func (w *Wah) Envelope() float64 { return w.env }
