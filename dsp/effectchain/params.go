package effectchain

import (
	"strings"

	"github.com/cwbudde/algo-guitarfx/dsp/effects"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/dynamics"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/modulation"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/reverb"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

const defaultMasterVolume = 1.0

// Params is the parameter store for a whole chain: one lock-free group per
// stage plus the master volume. Control surfaces write it from any
// goroutine; the audio goroutine reads it once per buffer.
type Params struct {
	Tremolo    *modulation.TremoloParams
	Chorus     *modulation.ChorusParams
	Blues      *effects.BluesDriverParams
	Overdrive  *effects.OverdriveParams
	Compressor *dynamics.CompressorParams
	Reverb     *reverb.Params
	Warm       *effects.WarmParams
	Wah        *modulation.WahParams

	Volume param.Float
}

// NewParams returns a store holding every documented default, with all
// stages disabled.
func NewParams() *Params {
	p := &Params{
		Tremolo:    modulation.NewTremoloParams(),
		Chorus:     modulation.NewChorusParams(),
		Blues:      effects.NewBluesDriverParams(),
		Overdrive:  effects.NewOverdriveParams(),
		Compressor: dynamics.NewCompressorParams(),
		Reverb:     reverb.NewParams(),
		Warm:       effects.NewWarmParams(),
		Wah:        modulation.NewWahParams(),
	}
	p.Volume.Init("volume", "", defaultMasterVolume, 0, 2)
	return p
}

// Groups returns the stage groups in processing order followed by the
// master group, which has no enable flag.
func (p *Params) Groups() []param.Group {
	return []param.Group{
		p.Tremolo.Group(),
		p.Chorus.Group(),
		p.Blues.Group(),
		p.Overdrive.Group(),
		p.Compressor.Group(),
		p.Reverb.Group(),
		p.Warm.Group(),
		p.Wah.Group(),
		{Name: "master", Floats: []*param.Float{&p.Volume}},
	}
}

// Reset restores every flag and value to its default.
func (p *Params) Reset() {
	for _, g := range p.Groups() {
		g.Reset()
	}
}

// Group looks up a group by name.
func (p *Params) Group(name string) (param.Group, bool) {
	for _, g := range p.Groups() {
		if g.Name == name {
			return g, true
		}
	}
	return param.Group{}, false
}

// Float resolves a "group.name" path such as "chorus.rate".
func (p *Params) Float(path string) (*param.Float, bool) {
	group, name, ok := strings.Cut(path, ".")
	if !ok {
		return nil, false
	}
	g, ok := p.Group(group)
	if !ok {
		return nil, false
	}
	return g.Float(name)
}

// Enabled returns the enable flag of a stage.
func (p *Params) Enabled(stage string) (*param.Bool, bool) {
	g, ok := p.Group(stage)
	if !ok || g.Enabled == nil {
		return nil, false
	}
	return g.Enabled, true
}

// Paths lists every "group.name" path in display order.
func (p *Params) Paths() []string {
	var out []string
	for _, g := range p.Groups() {
		for _, f := range g.Floats {
			out = append(out, g.Name+"."+f.Name())
		}
	}
	return out
}
