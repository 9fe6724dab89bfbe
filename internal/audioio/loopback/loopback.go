// Package loopback is an in-memory audio provider. Captured packets come
// from a script or a Source and rendered packets are recorded, which makes
// the engine testable without hardware and runnable headless.
package loopback

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/internal/audioio"
)

// DefaultDevice is the single device a Provider offers unless configured.
var DefaultDevice = audioio.Device{ID: "loopback", Name: "Loopback", Default: true}

// DefaultFormat is stereo 48 kHz float32 with 10 ms capture packets.
var DefaultFormat = audioio.Format{
	SampleRate:      48000,
	Channels:        2,
	BitsPerSample:   32,
	Float:           true,
	CaptureCapacity: 480,
	RenderCapacity:  1920,
}

// Op names a session operation for fault injection.
type Op int

const (
	OpStart Op = iota
	OpStop
	OpCaptureAvailable
	OpAcquireCapture
	OpReleaseCapture
	OpRenderPadding
	OpAcquireRender
	OpReleaseRender
)

// Provider hands out loopback sessions.
type Provider struct {
	mu       sync.Mutex
	devices  []audioio.Device
	format   audioio.Format
	source   audioio.Source
	openErr  error
	startErr error
	sessions []*Session
}

// Option configures a Provider.
type Option func(*Provider)

// WithFormat sets the format every session negotiates.
func WithFormat(f audioio.Format) Option {
	return func(p *Provider) { p.format = f }
}

// WithDevices replaces the device list.
func WithDevices(devices ...audioio.Device) Option {
	return func(p *Provider) { p.devices = append([]audioio.Device(nil), devices...) }
}

// WithSource makes sessions capture from src in real time whenever no
// scripted packet is queued.
func WithSource(src audioio.Source) Option {
	return func(p *Provider) { p.source = src }
}

// New returns a provider.
func New(opts ...Option) *Provider {
	p := &Provider{devices: []audioio.Device{DefaultDevice}, format: DefaultFormat}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Name implements audioio.Provider.
func (p *Provider) Name() string { return "loopback" }

// FailOpen makes the next OpenDuplex calls fail with err wrapped in
// audioio.ErrSetup. A nil err clears it.
func (p *Provider) FailOpen(err error) {
	p.mu.Lock()
	p.openErr = err
	p.mu.Unlock()
}

// FailStart makes Start fail on the next opened session.
func (p *Provider) FailStart(err error) {
	p.mu.Lock()
	p.startErr = err
	p.mu.Unlock()
}

// CaptureDevices implements audioio.Provider.
func (p *Provider) CaptureDevices(ctx context.Context) ([]audioio.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audioio.Device(nil), p.devices...), nil
}

// OpenDuplex implements audioio.Provider.
func (p *Provider) OpenDuplex(ctx context.Context, captureID string) (audioio.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", audioio.ErrSetup, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.openErr != nil {
		return nil, fmt.Errorf("%w: %w", audioio.ErrSetup, p.openErr)
	}
	if !p.hasDevice(captureID) {
		return nil, fmt.Errorf("%w: %q", audioio.ErrNoDevice, captureID)
	}
	if err := p.format.Validate(); err != nil {
		return nil, err
	}
	if !p.format.IsFloat32() && p.format.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: loopback carries float32 or 16-bit PCM, not %s", audioio.ErrSetup, p.format)
	}

	s := &Session{
		format: p.format,
		source: p.source,
		fail:   make(map[Op]error),
	}
	if p.startErr != nil {
		s.fail[OpStart] = p.startErr
		p.startErr = nil
	}
	p.sessions = append(p.sessions, s)
	return s, nil
}

func (p *Provider) hasDevice(id string) bool {
	if id == "" {
		return len(p.devices) > 0
	}
	for _, d := range p.devices {
		if d.ID == id {
			return true
		}
	}
	return false
}

// Sessions returns every session opened so far.
func (p *Provider) Sessions() []*Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Session(nil), p.sessions...)
}

// Last returns the most recently opened session, or nil.
func (p *Provider) Last() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil
	}
	return p.sessions[len(p.sessions)-1]
}

// Session is a loopback duplex stream. Test helpers may be called from
// any goroutine.
type Session struct {
	mu     sync.Mutex
	format audioio.Format
	source audioio.Source

	queue    [][]byte
	captured int

	capture     []byte
	captureHeld bool

	render     []byte
	renderHeld int
	rendered   []byte
	padding    int

	started bool
	closed  bool
	fail    map[Op]error

	srcBuf  []float64
	srcNext time.Time
}

// Format implements audioio.Session.
func (s *Session) Format() audioio.Format { return s.format }

// Start implements audioio.Session.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpStart); err != nil {
		return err
	}
	s.started = true
	s.srcNext = time.Now()
	return nil
}

// Stop implements audioio.Session.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpStop); err != nil {
		return err
	}
	s.started = false
	return nil
}

// Close implements audioio.Session. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.started = false
	return nil
}

// CaptureAvailable implements audioio.Session.
func (s *Session) CaptureAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpCaptureAvailable); err != nil {
		return 0, err
	}
	if len(s.queue) == 0 {
		s.pullSource()
	}
	if len(s.queue) == 0 {
		return 0, nil
	}
	return len(s.queue[0]) / s.format.FrameBytes(), nil
}

// pullSource queues one packet from the source once its wall-clock slot
// has arrived.
func (s *Session) pullSource() {
	if s.source == nil || !s.started || time.Now().Before(s.srcNext) {
		return
	}
	frames := s.format.CaptureCapacity
	s.srcBuf = core.EnsureLen(s.srcBuf, frames*s.format.Channels)
	s.source.Fill(s.srcBuf, s.format.Channels)
	s.queue = append(s.queue, encode(s.format, s.srcBuf))
	s.srcNext = s.srcNext.Add(time.Duration(float64(frames) / float64(s.format.SampleRate) * float64(time.Second)))
}

// AcquireCapture implements audioio.Session.
func (s *Session) AcquireCapture() ([]byte, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpAcquireCapture); err != nil {
		return nil, 0, err
	}
	if s.captureHeld {
		return nil, 0, fmt.Errorf("%w: capture buffer already held", audioio.ErrTransport)
	}
	if len(s.queue) == 0 {
		return nil, 0, nil
	}
	s.capture = s.queue[0]
	s.queue = s.queue[1:]
	s.captureHeld = true
	return s.capture, len(s.capture) / s.format.FrameBytes(), nil
}

// ReleaseCapture implements audioio.Session.
func (s *Session) ReleaseCapture(frames int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpReleaseCapture); err != nil {
		return err
	}
	if !s.captureHeld {
		return fmt.Errorf("%w: no capture buffer held", audioio.ErrTransport)
	}
	s.captureHeld = false
	s.capture = nil
	s.captured++
	return nil
}

// RenderPadding implements audioio.Session.
func (s *Session) RenderPadding() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpRenderPadding); err != nil {
		return 0, err
	}
	return s.padding, nil
}

// AcquireRender implements audioio.Session.
func (s *Session) AcquireRender(frames int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpAcquireRender); err != nil {
		return nil, err
	}
	if frames > s.format.RenderCapacity-s.padding {
		return nil, fmt.Errorf("%w: render request %d exceeds free space %d",
			audioio.ErrTransport, frames, s.format.RenderCapacity-s.padding)
	}
	n := frames * s.format.FrameBytes()
	if cap(s.render) < n {
		s.render = make([]byte, n)
	}
	s.render = s.render[:n]
	s.renderHeld = frames
	return s.render, nil
}

// ReleaseRender implements audioio.Session. Released frames play at once.
func (s *Session) ReleaseRender(frames int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpReleaseRender); err != nil {
		return err
	}
	if frames != s.renderHeld {
		return fmt.Errorf("%w: released %d frames, acquired %d", audioio.ErrTransport, frames, s.renderHeld)
	}
	s.rendered = append(s.rendered, s.render[:frames*s.format.FrameBytes()]...)
	s.renderHeld = 0
	return nil
}

func (s *Session) check(op Op) error {
	if s.closed {
		return audioio.ErrClosed
	}
	if err, ok := s.fail[op]; ok {
		delete(s.fail, op)
		return fmt.Errorf("%w: %w", audioio.ErrTransport, err)
	}
	return nil
}

// Feed queues one interleaved capture packet, encoded in the session format.
func (s *Session) Feed(samples []float64) {
	s.FeedRaw(encode(s.format, samples))
}

// FeedRaw queues raw packet bytes.
func (s *Session) FeedRaw(raw []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, append([]byte(nil), raw...))
	s.mu.Unlock()
}

// SetPadding fixes the frames the render queue reports as still playing.
func (s *Session) SetPadding(frames int) {
	s.mu.Lock()
	s.padding = frames
	s.mu.Unlock()
}

// FailNext makes the next call of op fail with err wrapped in
// audioio.ErrTransport.
func (s *Session) FailNext(op Op, err error) {
	s.mu.Lock()
	s.fail[op] = err
	s.mu.Unlock()
}

// Pending returns the number of queued capture packets.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Captured returns the number of released capture packets.
func (s *Session) Captured() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captured
}

// RenderedRaw returns a copy of every rendered byte.
func (s *Session) RenderedRaw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.rendered...)
}

// Rendered decodes the rendered stream. Non-float formats are decoded as
// 16-bit PCM scaled to [-1, 1).
func (s *Session) Rendered() []float64 {
	return decode(s.format, s.RenderedRaw())
}

// Started reports whether the session is running.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func encode(f audioio.Format, samples []float64) []byte {
	if f.IsFloat32() {
		raw := make([]byte, len(samples)*4)
		core.EncodeFloat32LE(raw, samples)
		return raw
	}
	raw := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(math.Round(core.Clamp(v, -1, 1)*math.MaxInt16))))
	}
	return raw
}

func decode(f audioio.Format, raw []byte) []float64 {
	if f.IsFloat32() {
		out := make([]float64, len(raw)/4)
		core.DecodeFloat32LE(out, raw)
		return out
	}
	out := make([]float64, len(raw)/2)
	for i := range out {
		out[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / (math.MaxInt16 + 1)
	}
	return out
}
