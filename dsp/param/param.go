// Package param provides lock-free parameter cells shared between a control
// thread and the audio thread.
//
// Values are stored as atomic words. Writers clamp into the documented range
// and never block; readers on the audio thread load the latest value once
// per processing call. A read racing a write observes either the old or the
// new value, never a torn one.
package param

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
)

// Float is a clamped float64 parameter.
type Float struct {
	name string
	unit string
	min  float64
	max  float64
	def  float64

	bits atomic.Uint64
}

// Init configures a Float in place: def clamped to [min, max], which every
// store clamps to. Infinite bounds leave that side open. Floats are embedded
// by value in parameter groups.
func (f *Float) Init(name, unit string, def, min, max float64) {
	if min > max {
		min, max = max, min
	}
	f.name = name
	f.unit = unit
	f.min = min
	f.max = max
	f.def = core.Clamp(def, min, max)
	f.bits.Store(math.Float64bits(f.def))
}

// Load returns the current value.
func (f *Float) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Store clamps v into range and publishes it. NaN is ignored; infinities
// clamp to the range bounds or are ignored for unbounded parameters.
func (f *Float) Store(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = core.Clamp(v, f.min, f.max)
	if math.IsInf(v, 0) {
		return
	}
	f.bits.Store(math.Float64bits(v))
}

// Reset restores the default value.
func (f *Float) Reset() {
	f.bits.Store(math.Float64bits(f.def))
}

// Name returns the parameter name.
func (f *Float) Name() string { return f.name }

// Unit returns the display unit, possibly empty.
func (f *Float) Unit() string { return f.unit }

// Range returns the inclusive bounds.
func (f *Float) Range() (min, max float64) { return f.min, f.max }

// Bounded reports whether both bounds are finite.
func (f *Float) Bounded() bool {
	return !math.IsInf(f.min, 0) && !math.IsInf(f.max, 0)
}

// Bool is an on/off parameter, used for stage enable flags.
type Bool struct {
	name string
	def  bool
	v    atomic.Bool
}

// Init configures a Bool in place.
func (b *Bool) Init(name string, def bool) {
	b.name = name
	b.def = def
	b.v.Store(def)
}

// Load returns the current flag.
func (b *Bool) Load() bool { return b.v.Load() }

// Store publishes v.
func (b *Bool) Store(v bool) { b.v.Store(v) }

// Toggle flips the flag and returns the new value.
func (b *Bool) Toggle() bool {
	for {
		old := b.v.Load()
		if b.v.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Reset restores the default.
func (b *Bool) Reset() { b.v.Store(b.def) }

// Name returns the flag name.
func (b *Bool) Name() string { return b.name }

// Group is the parameter set of one stage: an enable flag plus its
// continuous controls, in display order.
type Group struct {
	Name    string
	Enabled *Bool
	Floats  []*Float
}

// Reset restores every value in the group to its default.
func (g Group) Reset() {
	if g.Enabled != nil {
		g.Enabled.Reset()
	}
	for _, f := range g.Floats {
		f.Reset()
	}
}

// Float looks up a control by name.
func (g Group) Float(name string) (*Float, bool) {
	for _, f := range g.Floats {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}
