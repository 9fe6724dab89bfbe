package control

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrUnknownTarget is returned when a binding names neither a stage nor a
// parameter path.
var ErrUnknownTarget = errors.New("control: unknown MIDI target")

// ranges for parameters that are unbounded in the store.
var ccRanges = map[string][2]float64{
	"tremolo.rate":  {0.5, 20},
	"tremolo.depth": {0, 1},
}

// DefaultCCBindings maps controller numbers to targets. CC 80..87 toggle the
// stages in processing order.
var DefaultCCBindings = map[uint8]string{
	1:  "wah.freq",
	7:  "master.volume",
	11: "wah.mix",
	12: "tremolo.rate",
	13: "tremolo.depth",
	14: "chorus.rate",
	15: "chorus.depth",
	16: "overdrive.drive",
	17: "reverb.mix",
	80: "tremolo",
	81: "chorus",
	82: "blues",
	83: "overdrive",
	84: "compressor",
	85: "reverb",
	86: "warm",
	87: "wah",
}

// MIDIMap routes control change messages to stage flags and parameters.
// A stage target turns on for values >= 64. A parameter target scales
// 0..127 onto the parameter range.
type MIDIMap struct {
	target Target
	log    logrus.FieldLogger

	mu       sync.Mutex
	bindings map[uint8]string
	learn    string
}

// NewMIDIMap returns an empty map.
func NewMIDIMap(target Target, log logrus.FieldLogger) *MIDIMap {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &MIDIMap{target: target, log: log, bindings: make(map[uint8]string)}
}

// DefaultMIDIMap returns a map loaded with DefaultCCBindings.
func DefaultMIDIMap(target Target, log logrus.FieldLogger) *MIDIMap {
	m := NewMIDIMap(target, log)
	for cc, name := range DefaultCCBindings {
		m.bindings[cc] = name
	}
	return m
}

func (m *MIDIMap) validTarget(name string) bool {
	p := m.target.Params()
	if _, ok := p.Enabled(name); ok {
		return true
	}
	_, ok := p.Float(name)
	return ok
}

// Bind routes controller cc to name.
func (m *MIDIMap) Bind(cc uint8, name string) error {
	if cc > 127 {
		return fmt.Errorf("control: controller %d out of range", cc)
	}
	if !m.validTarget(name) {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	m.mu.Lock()
	m.bindings[cc] = name
	m.mu.Unlock()
	return nil
}

// Unbind removes the binding of cc.
func (m *MIDIMap) Unbind(cc uint8) {
	m.mu.Lock()
	delete(m.bindings, cc)
	m.mu.Unlock()
}

// Learn binds name to the next controller that arrives.
func (m *MIDIMap) Learn(name string) error {
	if !m.validTarget(name) {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	m.mu.Lock()
	m.learn = name
	m.mu.Unlock()
	return nil
}

// Binding returns the target bound to cc.
func (m *MIDIMap) Binding(cc uint8) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.bindings[cc]
	return name, ok
}

// Bindings lists the controllers in ascending order.
func (m *MIDIMap) Bindings() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint8, 0, len(m.bindings))
	for cc := range m.bindings {
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Handle applies msg. Messages other than control changes are ignored.
func (m *MIDIMap) Handle(msg midi.Message) Result {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		return Result{}
	}

	m.mu.Lock()
	if m.learn != "" {
		m.bindings[cc] = m.learn
		m.learn = ""
	}
	name, ok := m.bindings[cc]
	m.mu.Unlock()
	if !ok {
		return Result{}
	}

	p := m.target.Params()
	if flag, ok := p.Enabled(name); ok {
		on := val >= 64
		flag.Store(on)
		state := "disabled"
		if on {
			state = "enabled"
		}
		m.log.WithFields(logrus.Fields{"channel": ch, "cc": cc, "stage": name, "on": on}).Debug("midi toggle")
		return Result{Handled: true, Status: fmt.Sprintf("%s %s", name, state)}
	}

	f, ok := p.Float(name)
	if !ok {
		return Result{}
	}
	lo, hi := f.Range()
	if r, ok := ccRanges[name]; ok {
		lo, hi = r[0], r[1]
	} else if !f.Bounded() {
		m.log.WithFields(logrus.Fields{"cc": cc, "param": name}).Debug("midi control ignored: unbounded parameter")
		return Result{}
	}
	f.Store(lo + float64(val)/127*(hi-lo))
	m.log.WithFields(logrus.Fields{"channel": ch, "cc": cc, "param": name, "value": f.Load()}).Debug("midi control")
	status := fmt.Sprintf("%s: %.3g", name, f.Load())
	if unit := f.Unit(); unit != "" {
		status += " " + unit
	}
	return Result{Handled: true, Status: status}
}

// Inputs lists the MIDI input port names of the registered driver.
func Inputs() ([]string, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("control: list MIDI inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// Listen opens the named input port and feeds its messages to m. The
// returned stop function ends listening and closes the port.
func (m *MIDIMap) Listen(portName string) (stop func(), err error) {
	in, err := midi.FindInPort(portName)
	if err != nil {
		return nil, fmt.Errorf("control: MIDI input %q: %w", portName, err)
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("control: open MIDI input %q: %w", portName, err)
	}

	log := m.log.WithField("device", in.String())
	stopListen, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		m.Handle(msg)
	}, midi.HandleError(func(listenErr error) {
		log.WithError(listenErr).Warn("MIDI listener error")
	}))
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("control: listen on %q: %w", portName, err)
	}
	log.Info("MIDI input connected")

	var once sync.Once
	return func() {
		once.Do(func() {
			stopListen()
			_ = in.Close()
			log.Info("MIDI input closed")
		})
	}, nil
}
