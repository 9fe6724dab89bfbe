// Package otoaudio renders through oto/v3 and captures from a synthesized
// Source. oto only drives output devices, so the capture side is a demo
// rig: a strummed guitar unless another Source is supplied.
package otoaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/internal/audioio"
)

// Device is the single synthesized capture endpoint.
var Device = audioio.Device{ID: "strummer", Name: "Synthesized strummer", Default: true}

const bytesPerSample = 4

// Config selects the stream the oto context is opened with.
type Config struct {
	SampleRate   int
	Channels     int
	PacketFrames int
	// RenderBuffer is the queued audio between the engine and the device.
	RenderBuffer time.Duration
	// Source overrides the strummer.
	Source audioio.Source
	// StrumInterval spaces the strummer's plucks.
	StrumInterval time.Duration
}

// DefaultConfig returns stereo 48 kHz with 10 ms packets and 40 ms of
// render buffering.
func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		Channels:      2,
		PacketFrames:  480,
		RenderBuffer:  40 * time.Millisecond,
		StrumInterval: 600 * time.Millisecond,
	}
}

// format derives the negotiated format. The render capacity is rounded up
// so the ring size is a power of two in bytes.
func (c Config) format() (audioio.Format, int, error) {
	if c.SampleRate <= 0 || c.Channels <= 0 || c.PacketFrames <= 0 || c.RenderBuffer <= 0 {
		return audioio.Format{}, 0, fmt.Errorf("%w: invalid oto config %+v", audioio.ErrSetup, c)
	}
	frameBytes := c.Channels * bytesPerSample
	size := audioio.RingSize(max(int(c.RenderBuffer.Seconds()*float64(c.SampleRate)), c.PacketFrames) * frameBytes)
	f := audioio.Format{
		SampleRate:      c.SampleRate,
		Channels:        c.Channels,
		BitsPerSample:   bytesPerSample * 8,
		Float:           true,
		CaptureCapacity: c.PacketFrames,
		RenderCapacity:  size / frameBytes,
	}
	return f, size, nil
}

// oto allows one context per process.
var (
	sharedMu   sync.Mutex
	sharedCtx  *oto.Context
	sharedOpts oto.NewContextOptions
)

func sharedContext(rate, channels int, buffer time.Duration) (*oto.Context, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedCtx != nil {
		if sharedOpts.SampleRate != rate || sharedOpts.ChannelCount != channels {
			return nil, fmt.Errorf("%w: oto context already open at %d Hz/%d ch",
				audioio.ErrSetup, sharedOpts.SampleRate, sharedOpts.ChannelCount)
		}
		return sharedCtx, nil
	}

	op := oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	}
	ctx, ready, err := oto.NewContext(&op)
	if err != nil {
		return nil, fmt.Errorf("%w: oto: %w", audioio.ErrSetup, err)
	}
	<-ready

	sharedCtx, sharedOpts = ctx, op
	return ctx, nil
}

// Provider opens oto sessions.
type Provider struct {
	cfg Config
}

// New returns a provider for cfg.
func New(cfg Config) *Provider { return &Provider{cfg: cfg} }

// Name implements audioio.Provider.
func (p *Provider) Name() string { return "oto" }

// CaptureDevices implements audioio.Provider.
func (p *Provider) CaptureDevices(ctx context.Context) ([]audioio.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []audioio.Device{Device}, nil
}

// OpenDuplex implements audioio.Provider.
func (p *Provider) OpenDuplex(ctx context.Context, captureID string) (_ audioio.Session, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", audioio.ErrSetup, err)
	}
	if captureID != "" && captureID != Device.ID {
		return nil, fmt.Errorf("%w: %q", audioio.ErrNoDevice, captureID)
	}

	f, ringSize, err := p.cfg.format()
	if err != nil {
		return nil, err
	}

	src := p.cfg.Source
	if src == nil {
		interval := p.cfg.StrumInterval
		if interval <= 0 {
			interval = DefaultConfig().StrumInterval
		}
		s, err := audioio.NewStrummer(float64(f.SampleRate), interval)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", audioio.ErrSetup, err)
		}
		src = s
	}

	var cleanup audioio.Cleanup
	defer func() {
		if err != nil {
			_ = cleanup.Close()
		}
	}()

	octx, err := sharedContext(f.SampleRate, f.Channels, p.cfg.RenderBuffer)
	if err != nil {
		return nil, err
	}

	r, err := audioio.NewRing(ringSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audioio.ErrSetup, err)
	}

	player := octx.NewPlayer(r)
	player.SetBufferSize(2 * f.CaptureCapacity * f.FrameBytes())
	cleanup.Add(player.Close)

	return &Session{
		format:  f,
		player:  player,
		ring:    r,
		source:  src,
		srcBuf:  make([]float64, f.CaptureCapacity*f.Channels),
		capture: make([]byte, f.CaptureCapacity*f.FrameBytes()),
		render:  make([]byte, f.RenderCapacity*f.FrameBytes()),
		cleanup: cleanup.Disarm(),
	}, nil
}

// Session is an oto duplex session.
type Session struct {
	format audioio.Format
	player *oto.Player
	ring   *audioio.Ring
	source audioio.Source

	srcBuf  []float64
	capture []byte
	render  []byte
	held    int
	next    time.Time

	mu      sync.Mutex
	started bool
	closed  bool
	cleanup *audioio.Cleanup
}

// Format implements audioio.Session.
func (s *Session) Format() audioio.Format { return s.format }

// Start implements audioio.Session.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return audioio.ErrClosed
	}
	s.next = time.Now()
	s.player.Play()
	s.started = true
	return nil
}

// Stop implements audioio.Session.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return audioio.ErrClosed
	}
	s.player.Pause()
	s.started = false
	return nil
}

// Close implements audioio.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.started = false
	if err := s.cleanup.Close(); err != nil {
		return fmt.Errorf("%w: %w", audioio.ErrTransport, err)
	}
	return nil
}

// CaptureAvailable implements audioio.Session. A packet becomes available
// once its wall-clock slot has passed.
func (s *Session) CaptureAvailable() (int, error) {
	if s.isClosed() {
		return 0, audioio.ErrClosed
	}
	if time.Now().Before(s.next) {
		return 0, nil
	}
	return s.format.CaptureCapacity, nil
}

// AcquireCapture implements audioio.Session.
func (s *Session) AcquireCapture() ([]byte, int, error) {
	if s.isClosed() {
		return nil, 0, audioio.ErrClosed
	}
	s.source.Fill(s.srcBuf, s.format.Channels)
	core.EncodeFloat32LE(s.capture, s.srcBuf)
	return s.capture, s.format.CaptureCapacity, nil
}

// ReleaseCapture implements audioio.Session.
func (s *Session) ReleaseCapture(frames int) error {
	if s.isClosed() {
		return audioio.ErrClosed
	}
	s.next = s.next.Add(time.Duration(float64(frames) / float64(s.format.SampleRate) * float64(time.Second)))
	if lag := time.Since(s.next); lag > time.Second {
		s.next = time.Now()
	}
	return nil
}

// RenderPadding implements audioio.Session.
func (s *Session) RenderPadding() (int, error) {
	if s.isClosed() {
		return 0, audioio.ErrClosed
	}
	return s.ring.Len() / s.format.FrameBytes(), nil
}

// AcquireRender implements audioio.Session.
func (s *Session) AcquireRender(frames int) ([]byte, error) {
	if s.isClosed() {
		return nil, audioio.ErrClosed
	}
	n := frames * s.format.FrameBytes()
	if n > s.ring.Free() || n > len(s.render) {
		return nil, fmt.Errorf("%w: render request %d frames exceeds free space", audioio.ErrTransport, frames)
	}
	s.held = frames
	return s.render[:n], nil
}

// ReleaseRender implements audioio.Session.
func (s *Session) ReleaseRender(frames int) error {
	if s.isClosed() {
		return audioio.ErrClosed
	}
	if frames != s.held {
		return fmt.Errorf("%w: released %d frames, acquired %d", audioio.ErrTransport, frames, s.held)
	}
	s.held = 0
	n := frames * s.format.FrameBytes()
	if w := s.ring.Write(s.render[:n]); w != n {
		return fmt.Errorf("%w: render ring accepted %d of %d bytes", audioio.ErrTransport, w, n)
	}
	return nil
}

// Underruns counts device reads padded with silence.
func (s *Session) Underruns() uint64 { return s.ring.Underruns() }

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
