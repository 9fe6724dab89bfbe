package effectchain

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
)

type stageRuntime struct {
	name    string
	runtime Runtime
}

// Chain applies the stages in StageOrder to each buffer and then scales by
// the master volume. It owns all stage state; the parameter store is
// shared with the control surface.
//
// Process, Reset, Prepare and SetSampleRate must be called from one
// goroutine at a time.
type Chain struct {
	ctx    Context
	params *Params
	stages []stageRuntime
}

// New builds a chain for ctx. A nil params gets a fresh default store and
// a nil registry uses DefaultRegistry.
func New(ctx Context, params *Params, registry *Registry) (*Chain, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if params == nil {
		params = NewParams()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}

	c := &Chain{ctx: ctx, params: params}
	for _, name := range StageOrder {
		factory := registry.Lookup(name)
		if factory == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStage, name)
		}
		rt, err := factory(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("effectchain: build %s: %w", name, err)
		}
		c.stages = append(c.stages, stageRuntime{name: name, runtime: rt})
	}

	if err := c.Prepare(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Prepare sizes stage state for ctx so that Process does not allocate for
// buffers of up to ctx.MaxFrames frames with ctx.Channels channels.
func (c *Chain) Prepare(ctx Context) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if ctx.SampleRate != c.ctx.SampleRate {
		if err := c.SetSampleRate(ctx.SampleRate); err != nil {
			return err
		}
	}
	c.ctx = ctx
	for _, s := range c.stages {
		if p, ok := s.runtime.(Preparer); ok {
			if err := p.Prepare(ctx); err != nil {
				return fmt.Errorf("effectchain: prepare %s: %w", s.name, err)
			}
		}
	}
	return nil
}

// SetSampleRate forwards a new rate to every rate-dependent stage. Rate
// dependent buffers are resized lazily.
func (c *Chain) SetSampleRate(sampleRate float64) error {
	next := c.ctx
	next.SampleRate = sampleRate
	if err := next.Validate(); err != nil {
		return err
	}
	for _, s := range c.stages {
		if rs, ok := s.runtime.(RateSetter); ok {
			if err := rs.SetSampleRate(sampleRate); err != nil {
				return fmt.Errorf("effectchain: %s: %w", s.name, err)
			}
		}
	}
	c.ctx = next
	return nil
}

// Reset clears every stage's internal state. Parameters are untouched.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.runtime.Reset()
	}
}

// ProcessInPlace runs buf through every stage and applies master volume.
func (c *Chain) ProcessInPlace(buf []float64, channels int) {
	if len(buf) == 0 || channels <= 0 {
		return
	}
	for _, s := range c.stages {
		s.runtime.Process(buf, channels)
	}
	vecmath.ScaleBlockInPlace(buf, c.params.Volume.Load())
}

// Process implements the stage shape so a chain can be tested like one.
func (c *Chain) Process(buf []float64, channels int) { c.ProcessInPlace(buf, channels) }

// Context returns the current chain context.
func (c *Chain) Context() Context { return c.ctx }

// Params returns the shared parameter store.
func (c *Chain) Params() *Params { return c.params }

// Stages returns the stage names in processing order.
func (c *Chain) Stages() []string {
	out := make([]string, len(c.stages))
	for i, s := range c.stages {
		out[i] = s.name
	}
	return out
}

// Runtime returns the runtime of a stage, or nil.
func (c *Chain) Runtime(stage string) Runtime {
	for _, s := range c.stages {
		if s.name == stage {
			return s.runtime
		}
	}
	return nil
}
