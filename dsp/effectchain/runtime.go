package effectchain

import (
	"github.com/cwbudde/algo-guitarfx/dsp/effects"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/dynamics"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/modulation"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/reverb"
)

// Runtime is the per-stage processing contract. Process works in place on
// an interleaved buffer and must be a no-op while the stage is disabled.
type Runtime interface {
	Process(buf []float64, channels int)
	Reset()
}

// Preparer is implemented by runtimes that size state ahead of the audio
// goroutine.
type Preparer interface {
	Prepare(ctx Context) error
}

// RateSetter is implemented by runtimes whose state depends on the sample
// rate.
type RateSetter interface {
	SetSampleRate(sampleRate float64) error
}

type tremoloRuntime struct{ *modulation.Tremolo }

type chorusRuntime struct{ *modulation.Chorus }

func (r chorusRuntime) Prepare(ctx Context) error {
	r.Chorus.Prepare(ctx.Channels)
	return nil
}

type wahRuntime struct{ *modulation.Wah }

func (r wahRuntime) Prepare(ctx Context) error {
	r.Wah.Prepare(ctx.MaxFrames)
	return nil
}

type bluesRuntime struct{ *effects.BluesDriver }

type overdriveRuntime struct{ *effects.Overdrive }

type warmRuntime struct{ *effects.Warm }

type compressorRuntime struct{ *dynamics.Compressor }

func (r compressorRuntime) Prepare(ctx Context) error {
	r.Compressor.Prepare(ctx.Channels)
	return nil
}

type reverbRuntime struct{ *reverb.Reverb }

func (r reverbRuntime) Prepare(_ Context) error {
	return r.Reverb.Prepare()
}
