package portaudio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-guitarfx/internal/audioio"
)

type fakeStream struct {
	starts, stops int
	failStart     error
}

func (f *fakeStream) StartStream() error {
	if f.failStart != nil {
		return f.failStart
	}
	f.starts++
	return nil
}

func (f *fakeStream) StopStream() error {
	f.stops++
	return nil
}

func testSession(t *testing.T, inChannels int) (*Session, *fakeStream) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PacketFrames = 4
	cfg.RenderBuffer = time.Millisecond
	f, size, err := cfg.format()
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	s, err := newSession(f, inChannels, size)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	fs := &fakeStream{}
	s.stream = fs
	return s, fs
}

func float32Bytes(v ...float32) []byte {
	out := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(x))
	}
	return out
}

func sampleAt(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
}

func TestConfigFormat(t *testing.T) {
	f, size, err := DefaultConfig().format()
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !f.IsFloat32() || f.Channels != 2 || f.CaptureCapacity != 480 {
		t.Fatalf("format = %v", f)
	}
	if size&(size-1) != 0 || f.RenderCapacity*f.FrameBytes() != size {
		t.Fatalf("render ring size %d, capacity %d", size, f.RenderCapacity)
	}

	bad := DefaultConfig()
	bad.PacketFrames = 0
	if _, _, err := bad.format(); !errors.Is(err, audioio.ErrSetup) {
		t.Fatalf("err = %v, want ErrSetup", err)
	}
}

func TestInputDevicesFiltersOutputOnly(t *testing.T) {
	got := inputDevices([]deviceInfo{
		{Index: 0, Name: "speakers", MaxOutputChannels: 2},
		{Index: 1, Name: "interface", MaxInputChannels: 2, MaxOutputChannels: 2},
		{Index: 3, Name: "usb mic", MaxInputChannels: 1},
	}, 3)
	if len(got) != 2 {
		t.Fatalf("got %d devices, want 2: %+v", len(got), got)
	}
	if got[0].ID != "1" || got[0].Name != "interface" || got[0].Default {
		t.Fatalf("device 0 = %+v", got[0])
	}
	if got[1].ID != "3" || !got[1].Default {
		t.Fatalf("device 1 = %+v", got[1])
	}
}

func TestCaptureWaitsForWholePacket(t *testing.T) {
	s, _ := testSession(t, 2)
	s.transfer(float32Bytes(1, 1, 2, 2), nil, 2)
	if n, err := s.CaptureAvailable(); err != nil || n != 0 {
		t.Fatalf("CaptureAvailable = %d, %v; want 0", n, err)
	}
	s.transfer(float32Bytes(3, 3, 4, 4), nil, 2)
	n, err := s.CaptureAvailable()
	if err != nil || n != 4 {
		t.Fatalf("CaptureAvailable = %d, %v; want 4", n, err)
	}
	buf, frames, err := s.AcquireCapture()
	if err != nil || frames != 4 {
		t.Fatalf("AcquireCapture = %d, %v", frames, err)
	}
	for i, want := range []float32{1, 1, 2, 2, 3, 3, 4, 4} {
		if got := sampleAt(buf, i); got != want {
			t.Fatalf("sample %d = %v, want %v", i, got, want)
		}
	}
	if err := s.ReleaseCapture(frames); err != nil {
		t.Fatalf("ReleaseCapture: %v", err)
	}
	if err := s.ReleaseCapture(1); !errors.Is(err, audioio.ErrTransport) {
		t.Fatalf("partial release err = %v, want ErrTransport", err)
	}
}

func TestMonoInputIsUpmixed(t *testing.T) {
	s, _ := testSession(t, 1)
	s.transfer(float32Bytes(0.1, 0.2, 0.3, 0.4), nil, 4)
	buf, _, err := s.AcquireCapture()
	if err != nil {
		t.Fatalf("AcquireCapture: %v", err)
	}
	for i := range 4 {
		l, r := sampleAt(buf, 2*i), sampleAt(buf, 2*i+1)
		if l != r || l != float32(i+1)/10 {
			t.Fatalf("frame %d = (%v, %v)", i, l, r)
		}
	}
}

func TestRenderRoundTrip(t *testing.T) {
	s, _ := testSession(t, 2)
	buf, err := s.AcquireRender(2)
	if err != nil {
		t.Fatalf("AcquireRender: %v", err)
	}
	copy(buf, float32Bytes(0.5, -0.5, 0.25, -0.25))
	if err := s.ReleaseRender(2); err != nil {
		t.Fatalf("ReleaseRender: %v", err)
	}
	if pad, _ := s.RenderPadding(); pad != 2 {
		t.Fatalf("padding = %d, want 2", pad)
	}

	out := make([]byte, 4*4)
	s.transfer(nil, out, 2)
	if sampleAt(out, 0) != 0.5 || sampleAt(out, 3) != -0.25 {
		t.Fatalf("device output = %v %v", sampleAt(out, 0), sampleAt(out, 3))
	}
	if pad, _ := s.RenderPadding(); pad != 0 {
		t.Fatalf("padding after drain = %d", pad)
	}
	s.transfer(nil, out, 2)
	if s.Underruns() != 1 {
		t.Fatalf("underruns = %d, want 1", s.Underruns())
	}

	if _, err := s.AcquireRender(s.format.RenderCapacity + 1); !errors.Is(err, audioio.ErrTransport) {
		t.Fatalf("oversized render err = %v", err)
	}
}

func TestCaptureOverrunIsCounted(t *testing.T) {
	s, _ := testSession(t, 2)
	packet := make([]byte, s.format.CaptureCapacity*s.format.FrameBytes())
	for range captureDepth + 1 {
		s.transfer(packet, nil, s.format.CaptureCapacity)
	}
	if s.Overruns() == 0 {
		t.Fatal("expected an overrun once the capture ring is full")
	}
}

func TestStartStopClose(t *testing.T) {
	s, fs := testSession(t, 2)
	closed := 0
	s.cleanup.Add(func() error { closed++; return nil })

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(); err != nil || fs.starts != 1 {
		t.Fatalf("second Start = %v, starts = %d", err, fs.starts)
	}
	if err := s.Stop(); err != nil || fs.stops != 1 {
		t.Fatalf("Stop = %v, stops = %d", err, fs.stops)
	}
	if err := s.Close(); err != nil || closed != 1 {
		t.Fatalf("Close = %v, cleanup ran %d times", err, closed)
	}
	if err := s.Close(); err != nil || closed != 1 {
		t.Fatalf("second Close = %v, cleanup ran %d times", err, closed)
	}
	if err := s.Start(); !errors.Is(err, audioio.ErrClosed) {
		t.Fatalf("Start after Close = %v", err)
	}
	if _, err := s.CaptureAvailable(); !errors.Is(err, audioio.ErrClosed) {
		t.Fatalf("CaptureAvailable after Close = %v", err)
	}
}

func TestStartFailureIsTransport(t *testing.T) {
	s, fs := testSession(t, 2)
	fs.failStart = errors.New("device busy")
	if err := s.Start(); !errors.Is(err, audioio.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}
