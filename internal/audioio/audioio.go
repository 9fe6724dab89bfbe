// Package audioio defines the duplex audio transport the engine runs on.
//
// A Provider enumerates capture devices and opens Sessions. A Session
// exposes packet-style capture and render queues: the engine polls for
// captured frames, checks render padding, and moves raw interleaved
// samples between the two. Implementations live in sub-packages.
package audioio

import (
	"context"
	"fmt"
)

// Device describes one capture endpoint.
type Device struct {
	ID      string
	Name    string
	Default bool
}

// Format is the negotiated stream format of a session.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Float         bool

	// Buffer capacities in frames.
	CaptureCapacity int
	RenderCapacity  int
}

// FrameBytes is the size of one interleaved frame.
func (f Format) FrameBytes() int { return f.Channels * f.BitsPerSample / 8 }

// IsFloat32 reports whether samples are little-endian IEEE-754 float32,
// the only layout the effect chain processes.
func (f Format) IsFloat32() bool { return f.Float && f.BitsPerSample == 32 }

// Validate checks the fields a session must report.
func (f Format) Validate() error {
	switch {
	case f.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be > 0: %d", ErrSetup, f.SampleRate)
	case f.Channels <= 0:
		return fmt.Errorf("%w: channels must be > 0: %d", ErrSetup, f.Channels)
	case f.BitsPerSample <= 0 || f.BitsPerSample%8 != 0:
		return fmt.Errorf("%w: bits per sample must be a positive multiple of 8: %d", ErrSetup, f.BitsPerSample)
	case f.CaptureCapacity <= 0 || f.RenderCapacity <= 0:
		return fmt.Errorf("%w: buffer capacities must be > 0: capture=%d render=%d",
			ErrSetup, f.CaptureCapacity, f.RenderCapacity)
	}
	return nil
}

func (f Format) String() string {
	kind := "int"
	if f.Float {
		kind = "float"
	}
	return fmt.Sprintf("%d Hz, %d ch, %d-bit %s", f.SampleRate, f.Channels, f.BitsPerSample, kind)
}

// Provider is an audio backend.
type Provider interface {
	// Name identifies the backend, e.g. "oto".
	Name() string

	// CaptureDevices lists the available capture endpoints.
	CaptureDevices(ctx context.Context) ([]Device, error)

	// OpenDuplex opens captureID for capture together with the default
	// render endpoint. An empty captureID selects the default device.
	// Errors wrap ErrSetup or ErrNoDevice.
	OpenDuplex(ctx context.Context, captureID string) (Session, error)
}

// Session is an open duplex stream. All methods except Close are called
// from the audio goroutine only.
type Session interface {
	Format() Format

	Start() error
	Stop() error
	Close() error

	// CaptureAvailable returns the frame count of the next captured packet,
	// or 0 when none is ready.
	CaptureAvailable() (int, error)

	// AcquireCapture returns the next packet's raw samples. The slice is
	// valid until ReleaseCapture.
	AcquireCapture() ([]byte, int, error)
	ReleaseCapture(frames int) error

	// RenderPadding returns the frames queued but not yet played.
	// RenderCapacity minus padding is the space AcquireRender can hand out.
	RenderPadding() (int, error)

	// AcquireRender returns space for frames frames. The slice is valid
	// until ReleaseRender.
	AcquireRender(frames int) ([]byte, error)
	ReleaseRender(frames int) error
}
