package effectchain

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-guitarfx/dsp/effects"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/dynamics"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/modulation"
	"github.com/cwbudde/algo-guitarfx/dsp/effects/reverb"
)

// Stage names in processing order. The order is fixed.
const (
	StageTremolo    = "tremolo"
	StageChorus     = "chorus"
	StageBlues      = "blues"
	StageOverdrive  = "overdrive"
	StageCompressor = "compressor"
	StageReverb     = "reverb"
	StageWarm       = "warm"
	StageWah        = "wah"
)

// StageOrder is the order in which a Chain applies its stages.
var StageOrder = []string{
	StageTremolo,
	StageChorus,
	StageBlues,
	StageOverdrive,
	StageCompressor,
	StageReverb,
	StageWarm,
	StageWah,
}

// Factory builds one Runtime bound to the shared parameter store.
type Factory func(ctx Context, params *Params) (Runtime, error)

// Registry maps stage names to their factories.
type Registry struct {
	factories map[string]Factory
}

var (
	// ErrUnknownStage is returned when a chain needs a stage that has no factory.
	ErrUnknownStage = errors.New("unknown stage")

	errDuplicateStage = errors.New("duplicate stage")
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given stage.
func (r *Registry) Register(stage string, factory Factory) error {
	if stage == "" {
		return errors.New("empty stage name")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[stage]; exists {
		return fmt.Errorf("%w: %s", errDuplicateStage, stage)
	}

	r.factories[stage] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(stage string, factory Factory) {
	if err := r.Register(stage, factory); err != nil {
		panic("effectchain registry: " + err.Error())
	}
}

// Replace swaps the factory for a registered stage. Tests use it to
// instrument a single stage.
func (r *Registry) Replace(stage string, factory Factory) error {
	if _, ok := r.factories[stage]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	if factory == nil {
		return errors.New("nil factory")
	}
	r.factories[stage] = factory
	return nil
}

// Lookup returns the factory for the given stage, or nil.
func (r *Registry) Lookup(stage string) Factory {
	return r.factories[stage]
}

// DefaultRegistry returns a Registry with every built-in stage.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(StageTremolo, func(ctx Context, p *Params) (Runtime, error) {
		fx, err := modulation.NewTremolo(ctx.SampleRate, p.Tremolo)
		if err != nil {
			return nil, err
		}
		return tremoloRuntime{fx}, nil
	})
	r.MustRegister(StageChorus, func(ctx Context, p *Params) (Runtime, error) {
		fx, err := modulation.NewChorus(ctx.SampleRate, p.Chorus)
		if err != nil {
			return nil, err
		}
		return chorusRuntime{fx}, nil
	})
	r.MustRegister(StageBlues, func(_ Context, p *Params) (Runtime, error) {
		return bluesRuntime{effects.NewBluesDriver(p.Blues)}, nil
	})
	r.MustRegister(StageOverdrive, func(_ Context, p *Params) (Runtime, error) {
		return overdriveRuntime{effects.NewOverdrive(p.Overdrive)}, nil
	})
	r.MustRegister(StageCompressor, func(ctx Context, p *Params) (Runtime, error) {
		fx, err := dynamics.NewCompressor(ctx.SampleRate, p.Compressor)
		if err != nil {
			return nil, err
		}
		return compressorRuntime{fx}, nil
	})
	r.MustRegister(StageReverb, func(ctx Context, p *Params) (Runtime, error) {
		fx, err := reverb.New(ctx.SampleRate, p.Reverb)
		if err != nil {
			return nil, err
		}
		return reverbRuntime{fx}, nil
	})
	r.MustRegister(StageWarm, func(_ Context, p *Params) (Runtime, error) {
		return warmRuntime{effects.NewWarm(p.Warm)}, nil
	})
	r.MustRegister(StageWah, func(ctx Context, p *Params) (Runtime, error) {
		fx, err := modulation.NewWah(ctx.SampleRate, p.Wah)
		if err != nil {
			return nil, err
		}
		return wahRuntime{fx}, nil
	})

	return r
}
