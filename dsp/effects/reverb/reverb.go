package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/delay"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const (
	numCombs     = 8
	numAllpasses = 4

	defaultReverbSize    = 0.5
	defaultReverbDamping = 0.5
	defaultReverbWidth   = 1.0
	defaultReverbMix     = 0.3

	referenceSampleRate = 44100.0
	rightSpread         = 1.1
	inputGain           = 0.015
	wetScale            = 3.0
	allpassFeedback     = 0.5
	roomScale           = 0.28
	roomOffset          = 0.7
	dampScale           = 0.4
)

var (
	combTunings    = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTunings = [numAllpasses]int{556, 441, 341, 225}
)

// Params are the reverb controls.
type Params struct {
	Enabled param.Bool
	Size    param.Float
	Damping param.Float
	Width   param.Float
	Mix     param.Float
}

// NewParams returns reverb controls at their defaults.
func NewParams() *Params {
	p := &Params{}
	p.Enabled.Init("enabled", false)
	p.Size.Init("size", "", defaultReverbSize, 0, 1)
	p.Damping.Init("damping", "", defaultReverbDamping, 0, 1)
	p.Width.Init("width", "", defaultReverbWidth, 0, 1)
	p.Mix.Init("mix", "", defaultReverbMix, 0, 1)
	return p
}

// Group exposes the controls for name lookup.
func (p *Params) Group() param.Group {
	return param.Group{
		Name:    "reverb",
		Enabled: &p.Enabled,
		Floats:  []*param.Float{&p.Size, &p.Damping, &p.Width, &p.Mix},
	}
}

type side struct {
	combs     [numCombs]*delay.Comb
	allpasses [numAllpasses]*delay.Allpass
}

// Reverb is a stereo algorithmic reverb. It needs at least two channels;
// mono buffers pass through untouched. Delay lengths are scaled by
// sampleRate/44100, with the right side stretched by 1.1.
//
// The wet gain is mix*3 against a dry gain of 1-mix, which makes up for
// the low level coming out of the comb bank.
type Reverb struct {
	params     *Params
	sampleRate float64

	left, right side
	ready       bool
}

// New creates a reverb bound to params. A nil params gets defaults.
// Filters are sized on first use.
func New(sampleRate float64, params *Params) (*Reverb, error) {
	if params == nil {
		params = NewParams()
	}
	r := &Reverb{params: params}
	if err := r.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return r, nil
}

// SetSampleRate updates the sample rate; filters are resized on next use.
func (r *Reverb) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("reverb sample rate must be > 0 and finite: %f", sampleRate)
	}
	if sampleRate != r.sampleRate {
		r.ready = false
	}
	r.sampleRate = sampleRate
	return nil
}

// Prepare sizes every filter for the current sample rate.
func (r *Reverb) Prepare() error {
	if r.ready {
		return nil
	}
	scale := r.sampleRate / referenceSampleRate
	if err := r.left.build(scale); err != nil {
		return err
	}
	if err := r.right.build(scale * rightSpread); err != nil {
		return err
	}
	r.ready = true
	return nil
}

// Reset clears all filter state. Filters are re-sized on next use.
func (r *Reverb) Reset() {
	r.left.reset()
	r.right.reset()
	r.ready = false
}

// Process applies reverb to channels 0 and 1 of an interleaved buffer and
// mirrors the result onto any further channels.
func (r *Reverb) Process(buf []float64, channels int) {
	if !r.params.Enabled.Load() || channels < 2 {
		return
	}
	if err := r.Prepare(); err != nil {
		return
	}

	room := r.params.Size.Load()*roomScale + roomOffset
	damp := r.params.Damping.Load() * dampScale
	r.left.tune(room, damp)
	r.right.tune(room, damp)

	mix := r.params.Mix.Load()
	width := r.params.Width.Load()
	wet := mix * wetScale
	dry := 1 - mix

	frames := core.Frames(buf, channels)
	for i := 0; i < frames; i++ {
		base := i * channels
		inL, inR := buf[base], buf[base+1]
		in := (inL + inR) * inputGain

		outL := r.left.process(in)
		outR := r.right.process(in)

		revL := outL*(1+width)*0.5 + outR*(1-width)*0.5
		revR := outR*(1+width)*0.5 + outL*(1-width)*0.5

		buf[base] = inL*dry + revL*wet
		buf[base+1] = inR*dry + revR*wet
		for ch := 2; ch < channels; ch++ {
			buf[base+ch] = buf[base+ch%2]
		}
	}
}

// Params returns the bound controls.
func (r *Reverb) Params() *Params { return r.params }

// SampleRate returns sample rate in Hz.
func (r *Reverb) SampleRate() float64 { return r.sampleRate }

// Ready reports whether the filters are sized for the current rate.
func (r *Reverb) Ready() bool { return r.ready }

// CombSizes returns the left and right comb delay lengths. Both are nil
// before the first Prepare or Process.
func (r *Reverb) CombSizes() (left, right []int) {
	if !r.ready {
		return nil, nil
	}
	left = make([]int, numCombs)
	right = make([]int, numCombs)
	for i := range numCombs {
		left[i] = r.left.combs[i].Size()
		right[i] = r.right.combs[i].Size()
	}
	return left, right
}

func (s *side) build(scale float64) error {
	for i, tuning := range combTunings {
		size := max(1, int(float64(tuning)*scale))
		if s.combs[i] != nil && s.combs[i].Size() == size {
			s.combs[i].Reset()
			continue
		}
		c, err := delay.NewComb(size)
		if err != nil {
			return err
		}
		s.combs[i] = c
	}
	for i, tuning := range allpassTunings {
		size := max(1, int(float64(tuning)*scale))
		if s.allpasses[i] != nil && s.allpasses[i].Size() == size {
			s.allpasses[i].Reset()
		} else {
			a, err := delay.NewAllpass(size)
			if err != nil {
				return err
			}
			s.allpasses[i] = a
		}
		s.allpasses[i].SetFeedback(allpassFeedback)
	}
	return nil
}

func (s *side) tune(room, damp float64) {
	for _, c := range s.combs {
		c.SetFeedback(room)
		c.SetDamp(damp)
	}
}

func (s *side) process(in float64) float64 {
	sum := 0.0
	for _, c := range s.combs {
		sum += c.Process(in)
	}
	for _, a := range s.allpasses {
		sum = a.Process(sum)
	}
	return sum
}

func (s *side) reset() {
	for _, c := range s.combs {
		if c != nil {
			c.Reset()
		}
	}
	for _, a := range s.allpasses {
		if a != nil {
			a.Reset()
		}
	}
}
