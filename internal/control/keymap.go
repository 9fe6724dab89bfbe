// Package control maps user input onto the engine's parameter store:
// single-key hotkeys from a raw terminal and MIDI control changes.
package control

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cwbudde/algo-guitarfx/dsp/effectchain"
	"github.com/cwbudde/algo-guitarfx/dsp/param"
)

// Target is what control surfaces drive. *engine.Engine implements it.
type Target interface {
	Params() *effectchain.Params
	ResetAll()
}

// Result reports what a handled input did.
type Result struct {
	Handled bool
	Quit    bool
	Status  string
}

// ErrUnknownAction is returned when rebinding a name no key action has.
var ErrUnknownAction = errors.New("unknown key action")

type action struct {
	name string
	help string
	do   func(t Target) Result
}

// Keymap binds single keys to named parameter actions. Keys can be
// rebound by action name.
type Keymap struct {
	target  Target
	actions map[string]*action
	keys    map[byte]*action
}

// NewKeymap returns the default hotkeys.
func NewKeymap(target Target) *Keymap {
	k := &Keymap{target: target, actions: make(map[string]*action), keys: make(map[byte]*action)}
	p := func(t Target) *effectchain.Params { return t.Params() }

	k.bind('q', "quit", "quit", func(Target) Result { return Result{Handled: true, Quit: true, Status: "Stopping..."} })
	k.bind('r', "reset", "reset all effects", func(t Target) Result {
		t.ResetAll()
		return Result{Handled: true, Status: "All effects reset to default."}
	})

	k.bind('t', "tremolo.toggle", "toggle tremolo", toggle(func(t Target) *param.Bool { return &p(t).Tremolo.Enabled }, "Tremolo"))
	k.bind('1', "tremolo.rate.down", "tremolo rate down", step(func(t Target) *param.Float { return &p(t).Tremolo.Rate }, "Tremolo rate",
		func(v float64) float64 { return stepDown(v, 1, 1, 0.5) }))
	k.bind('2', "tremolo.rate.up", "tremolo rate up", step(func(t Target) *param.Float { return &p(t).Tremolo.Rate }, "Tremolo rate",
		func(v float64) float64 { return stepUp(v, 1, 20) }))
	k.bind('3', "tremolo.depth.down", "tremolo depth down", step(func(t Target) *param.Float { return &p(t).Tremolo.Depth }, "Tremolo depth",
		func(v float64) float64 { return stepDown(v, 0.1, 0.1, 0) }))
	k.bind('4', "tremolo.depth.up", "tremolo depth up", step(func(t Target) *param.Float { return &p(t).Tremolo.Depth }, "Tremolo depth",
		func(v float64) float64 { return stepUp(v, 0.1, 1) }))

	k.bind('c', "chorus.toggle", "toggle chorus", toggle(func(t Target) *param.Bool { return &p(t).Chorus.Enabled }, "Chorus"))
	k.bind(']', "chorus.rate.down", "chorus rate down", step(func(t Target) *param.Float { return &p(t).Chorus.Rate }, "Chorus rate",
		func(v float64) float64 { return stepDown(v, 0.1, 0.1, 0.1) }))
	k.bind('}', "chorus.rate.up", "chorus rate up", step(func(t Target) *param.Float { return &p(t).Chorus.Rate }, "Chorus rate",
		func(v float64) float64 { return stepUp(v, 0.1, 5) }))
	k.bind('/', "chorus.depth.down", "chorus depth down", step(func(t Target) *param.Float { return &p(t).Chorus.Depth }, "Chorus depth",
		func(v float64) float64 { return stepDown(v, 0.005, 0.005, 0) }))
	k.bind('?', "chorus.depth.up", "chorus depth up", step(func(t Target) *param.Float { return &p(t).Chorus.Depth }, "Chorus depth",
		func(v float64) float64 { return stepUp(v, 0.005, 0.1) }))

	k.bind('v', "volume.down", "volume down", step(func(t Target) *param.Float { return &p(t).Volume }, "Main volume",
		func(v float64) float64 { return stepDown(v, 0.05, 0.05, 0) }))
	k.bind('b', "volume.up", "volume up", step(func(t Target) *param.Float { return &p(t).Volume }, "Main volume",
		func(v float64) float64 { return stepUp(v, 0.05, 2) }))

	k.bind('o', "overdrive.toggle", "toggle overdrive", toggle(func(t Target) *param.Bool { return &p(t).Overdrive.Enabled }, "Overdrive"))
	k.bind('d', "blues.toggle", "toggle blues driver", toggle(func(t Target) *param.Bool { return &p(t).Blues.Enabled }, "Blues driver"))
	k.bind('k', "compressor.toggle", "toggle compressor", toggle(func(t Target) *param.Bool { return &p(t).Compressor.Enabled }, "Compressor"))
	k.bind('e', "reverb.toggle", "toggle reverb", toggle(func(t Target) *param.Bool { return &p(t).Reverb.Enabled }, "Reverb"))
	k.bind('w', "warm.toggle", "toggle warm", toggle(func(t Target) *param.Bool { return &p(t).Warm.Enabled }, "Warm"))
	k.bind('a', "wah.toggle", "toggle wah", toggle(func(t Target) *param.Bool { return &p(t).Wah.Enabled }, "Wah"))

	return k
}

func (k *Keymap) bind(key byte, name, help string, do func(Target) Result) {
	a := &action{name: name, help: help, do: do}
	k.actions[name] = a
	k.keys[key] = a
}

// HandleKey applies the action bound to key.
func (k *Keymap) HandleKey(key byte) Result {
	a, ok := k.keys[key]
	if !ok {
		return Result{}
	}
	return a.do(k.target)
}

// Rebind moves the named action to key. The action's previous key is
// released; an action that held key loses it.
func (k *Keymap) Rebind(name string, key byte) error {
	a, ok := k.actions[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	if key < 0x21 || key > 0x7e {
		return fmt.Errorf("key %q is not a printable character", key)
	}
	for kk, held := range k.keys {
		if held == a {
			delete(k.keys, kk)
		}
	}
	k.keys[key] = a
	return nil
}

// LoadBindings applies "action key" lines from r. Blank lines and lines
// starting with # are skipped. Every bad line is reported; the good ones
// are still applied.
func (k *Keymap) LoadBindings(r io.Reader) error {
	var errs []error
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 || len(fields[1]) != 1 {
			errs = append(errs, fmt.Errorf("line %d: want \"action key\", got %q", n, line))
			continue
		}
		if err := k.Rebind(fields[0], fields[1][0]); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", n, err))
		}
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Help lists the bindings, one "key  description  action" per line.
func (k *Keymap) Help() string {
	keys := make([]int, 0, len(k.keys))
	for key := range k.keys {
		keys = append(keys, int(key))
	}
	sort.Ints(keys)

	var sb strings.Builder
	for _, key := range keys {
		a := k.keys[byte(key)]
		fmt.Fprintf(&sb, "%c  %-20s %s\n", key, a.help, a.name)
	}
	return sb.String()
}

func toggle(flag func(Target) *param.Bool, label string) func(Target) Result {
	return func(t Target) Result {
		state := "disabled"
		if flag(t).Toggle() {
			state = "enabled"
		}
		return Result{Handled: true, Status: label + " " + state}
	}
}

func step(f func(Target) *param.Float, label string, next func(float64) float64) func(Target) Result {
	return func(t Target) Result {
		p := f(t)
		p.Store(next(p.Load()))
		status := fmt.Sprintf("%s: %.3g", label, p.Load())
		if unit := p.Unit(); unit != "" {
			status += " " + unit
		}
		return Result{Handled: true, Status: status}
	}
}

// stepDown subtracts delta while v is above floorAt, otherwise snaps to floor.
func stepDown(v, delta, floorAt, floor float64) float64 {
	if v > floorAt {
		return v - delta
	}
	return floor
}

func stepUp(v, delta, ceiling float64) float64 {
	return min(v+delta, ceiling)
}
