package meter

import (
	"math"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/window"
)

// FloorDBFS is reported for silence.
const FloorDBFS = -120.0

// Reading is one meter snapshot.
type Reading struct {
	PeakDBFS float64
	RMSDBFS  float64
	Pitch    Pitch
	HasPitch bool
}

// Meter couples a Tap written by the audio goroutine with a Tuner run by
// the reader.
type Meter struct {
	tap   *Tap
	tuner *Tuner
	frame []float64
}

// New creates a meter analyzing fftSize-sample frames at sampleRate. The
// tuner frames are shaped by win.
func New(sampleRate float64, fftSize int, win window.Type) (*Meter, error) {
	tuner, err := NewTuner(fftSize, sampleRate, win)
	if err != nil {
		return nil, err
	}
	tap, err := NewTap(fftSize)
	if err != nil {
		return nil, err
	}
	return &Meter{tap: tap, tuner: tuner, frame: make([]float64, fftSize)}, nil
}

// Write feeds a processed interleaved buffer. Safe to call from the audio
// goroutine concurrently with Read.
func (m *Meter) Write(buf []float64, channels int) { m.tap.Write(buf, channels) }

// Tap exposes the underlying ring.
func (m *Meter) Tap() *Tap { return m.tap }

// SetSampleRate updates the tuner's bin spacing. Call it from the reader.
func (m *Meter) SetSampleRate(sampleRate float64) error {
	return m.tuner.SetSampleRate(sampleRate)
}

// Read returns levels accumulated since the previous Read and a pitch
// estimate of the latest frame. Only one goroutine may call Read.
func (m *Meter) Read() Reading {
	r := Reading{PeakDBFS: FloorDBFS, RMSDBFS: FloorDBFS}

	if peak, ms, ok := m.tap.Levels(); ok {
		r.PeakDBFS = toDBFS(peak)
		r.RMSDBFS = toDBFS(math.Sqrt(ms))
	}

	if m.tap.Snapshot(m.frame) == len(m.frame) {
		r.Pitch, r.HasPitch = m.tuner.Estimate(m.frame)
	}

	return r
}

func toDBFS(linear float64) float64 {
	db := core.LinearToDB(linear)
	if math.IsNaN(db) || db < FloorDBFS {
		return FloorDBFS
	}
	return db
}
