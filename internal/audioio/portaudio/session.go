// Package portaudio captures from a real input device and renders to an
// output device through one PortAudio duplex callback stream.
//
// The binding needs the PortAudio C library and is compiled with the
// portaudio build tag. Without it the Provider reports ErrSetup and
// Available is false.
package portaudio

import (
	"fmt"
	"sync"
	"time"

	"github.com/cwbudde/algo-guitarfx/internal/audioio"
)

const bytesPerSample = 4

// captureDepth is the number of packets the capture ring holds.
const captureDepth = 8

// Config selects the stream the duplex session is opened with.
type Config struct {
	SampleRate   int
	Channels     int
	PacketFrames int
	// RenderBuffer is the queued audio between the engine and the device.
	RenderBuffer time.Duration
	// OutputDevice is a PortAudio device index; negative selects the
	// default output.
	OutputDevice int
}

// DefaultConfig returns stereo 48 kHz with 10 ms packets and 40 ms of
// render buffering on the default output.
func DefaultConfig() Config {
	return Config{
		SampleRate:   48000,
		Channels:     2,
		PacketFrames: 480,
		RenderBuffer: 40 * time.Millisecond,
		OutputDevice: -1,
	}
}

// format derives the negotiated format and the render ring size in bytes.
func (c Config) format() (audioio.Format, int, error) {
	if c.SampleRate <= 0 || c.Channels <= 0 || c.PacketFrames <= 0 || c.RenderBuffer <= 0 {
		return audioio.Format{}, 0, fmt.Errorf("%w: invalid portaudio config %+v", audioio.ErrSetup, c)
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

// deviceInfo is the part of a PortAudio device description the provider
// needs.
type deviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
}

// inputDevices keeps the devices that can capture.
func inputDevices(infos []deviceInfo, defaultIndex int) []audioio.Device {
	var out []audioio.Device
	for _, d := range infos {
		if d.MaxInputChannels <= 0 {
			continue
		}
		out = append(out, audioio.Device{
			ID:      fmt.Sprint(d.Index),
			Name:    d.Name,
			Default: d.Index == defaultIndex,
		})
	}
	return out
}

// Provider opens PortAudio duplex sessions.
type Provider struct {
	cfg Config
}

// New returns a provider for cfg.
func New(cfg Config) *Provider { return &Provider{cfg: cfg} }

// Name implements audioio.Provider.
func (p *Provider) Name() string { return "portaudio" }

type stream interface {
	StartStream() error
	StopStream() error
}

// Session is a duplex session. The device callback fills the capture ring
// and drains the render ring; the engine does the opposite.
type Session struct {
	format     audioio.Format
	inChannels int
	stream     stream

	captureRing *audioio.Ring
	renderRing  *audioio.Ring

	frame   []byte
	capture []byte
	render  []byte
	held    int

	mu      sync.Mutex
	started bool
	closed  bool
	cleanup *audioio.Cleanup
}

func newSession(f audioio.Format, inChannels, renderSize int) (*Session, error) {
	if inChannels <= 0 {
		return nil, fmt.Errorf("%w: input channels must be > 0: %d", audioio.ErrSetup, inChannels)
	}
	packet := f.CaptureCapacity * f.FrameBytes()
	capRing, err := audioio.NewRing(audioio.RingSize(captureDepth * packet))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audioio.ErrSetup, err)
	}
	renRing, err := audioio.NewRing(renderSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audioio.ErrSetup, err)
	}
	return &Session{
		format:      f,
		inChannels:  inChannels,
		captureRing: capRing,
		renderRing:  renRing,
		frame:       make([]byte, f.FrameBytes()),
		capture:     make([]byte, packet),
		render:      make([]byte, f.RenderCapacity*f.FrameBytes()),
		cleanup:     &audioio.Cleanup{},
	}, nil
}

// transfer runs on the device thread. input holds frames of inChannels
// float32 samples; channels beyond the device's repeat its last channel.
func (s *Session) transfer(input, output []byte, frames int) {
	if len(input) > 0 {
		if s.inChannels == s.format.Channels {
			s.captureRing.Write(input[:min(len(input), frames*len(s.frame))])
		} else {
			s.upmix(input, frames)
		}
	}
	if len(output) > 0 {
		_, _ = s.renderRing.Read(output)
	}
}

func (s *Session) upmix(input []byte, frames int) {
	inFrame := s.inChannels * bytesPerSample
	frames = min(frames, len(input)/inFrame)
	for i := range frames {
		src := input[i*inFrame : (i+1)*inFrame]
		for ch := range s.format.Channels {
			from := min(ch, s.inChannels-1) * bytesPerSample
			copy(s.frame[ch*bytesPerSample:], src[from:from+bytesPerSample])
		}
		if s.captureRing.Write(s.frame) < len(s.frame) {
			return
		}
	}
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
	if s.started {
		return nil
	}
	if err := s.stream.StartStream(); err != nil {
		return fmt.Errorf("%w: start stream: %w", audioio.ErrTransport, err)
	}
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
	if !s.started {
		return nil
	}
	s.started = false
	if err := s.stream.StopStream(); err != nil {
		return fmt.Errorf("%w: stop stream: %w", audioio.ErrTransport, err)
	}
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

// CaptureAvailable implements audioio.Session. Capture is handed out in
// whole packets.
func (s *Session) CaptureAvailable() (int, error) {
	if s.isClosed() {
		return 0, audioio.ErrClosed
	}
	if s.captureRing.Len() < len(s.capture) {
		return 0, nil
	}
	return s.format.CaptureCapacity, nil
}

// AcquireCapture implements audioio.Session.
func (s *Session) AcquireCapture() ([]byte, int, error) {
	if s.isClosed() {
		return nil, 0, audioio.ErrClosed
	}
	if s.captureRing.Len() < len(s.capture) {
		return nil, 0, fmt.Errorf("%w: no captured packet ready", audioio.ErrTransport)
	}
	_, _ = s.captureRing.Read(s.capture)
	return s.capture, s.format.CaptureCapacity, nil
}

// ReleaseCapture implements audioio.Session.
func (s *Session) ReleaseCapture(frames int) error {
	if s.isClosed() {
		return audioio.ErrClosed
	}
	if frames != s.format.CaptureCapacity {
		return fmt.Errorf("%w: released %d capture frames, acquired %d", audioio.ErrTransport, frames, s.format.CaptureCapacity)
	}
	return nil
}

// RenderPadding implements audioio.Session.
func (s *Session) RenderPadding() (int, error) {
	if s.isClosed() {
		return 0, audioio.ErrClosed
	}
	return s.renderRing.Len() / s.format.FrameBytes(), nil
}

// AcquireRender implements audioio.Session.
func (s *Session) AcquireRender(frames int) ([]byte, error) {
	if s.isClosed() {
		return nil, audioio.ErrClosed
	}
	n := frames * s.format.FrameBytes()
	if n > s.renderRing.Free() || n > len(s.render) {
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
	if w := s.renderRing.Write(s.render[:n]); w != n {
		return fmt.Errorf("%w: render ring accepted %d of %d bytes", audioio.ErrTransport, w, n)
	}
	return nil
}

// Underruns counts device reads padded with silence.
func (s *Session) Underruns() uint64 { return s.renderRing.Underruns() }

// Overruns counts device packets dropped because the engine fell behind.
func (s *Session) Overruns() uint64 { return s.captureRing.Overruns() }

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
