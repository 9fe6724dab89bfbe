package meter

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-guitarfx/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// Lowest and highest fundamentals the tuner searches, covering a
	// drop-tuned low string up to the top frets.
	minPitchHz = 30.0
	maxPitchHz = 1500.0

	// Peaks whose normalized magnitude fall below this are treated as silence.
	silenceMagnitude = 1e-4
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Pitch is a tuner estimate.
type Pitch struct {
	Frequency float64
	Note      string
	MIDI      int
	Cents     float64
	Magnitude float64
}

// NearestNote maps a frequency to the closest equal-tempered note (A4 =
// 440 Hz) and the deviation from it in cents.
func NearestNote(freq float64) (name string, midi int, cents float64) {
	if freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return "", 0, 0
	}
	m := 69 + 12*math.Log2(freq/440)
	midi = int(math.Round(m))
	cents = 100 * (m - float64(midi))
	octave := midi/12 - 1
	idx := midi % 12
	if idx < 0 {
		idx += 12
		octave--
	}
	return fmt.Sprintf("%s%d", noteNames[idx], octave), midi, cents
}

// Tuner estimates the dominant frequency of a mono frame by FFT peak
// picking with parabolic interpolation. It is not safe for concurrent use.
type Tuner struct {
	size       int
	sampleRate float64
	plan       *algofft.Plan[complex128]
	win        []float64
	norm       float64

	frame []float64
	in    []complex128
	out   []complex128
	re    []float64
	im    []float64
	mag   []float64
}

// NewTuner creates a tuner for frames of size samples.
func NewTuner(size int, sampleRate float64, winType window.Type) (*Tuner, error) {
	if size < 16 || size&(size-1) != 0 {
		return nil, fmt.Errorf("tuner fft size must be a power of two >= 16: %d", size)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("tuner sample rate must be > 0 and finite: %f", sampleRate)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("tuner init fft plan: %w", err)
	}

	win := window.Generate(winType, size, window.WithPeriodic())
	bins := size/2 + 1

	return &Tuner{
		size:       size,
		sampleRate: sampleRate,
		plan:       plan,
		win:        win,
		norm:       float64(size) * math.Max(window.CoherentGain(win), 1e-12) / 2,
		frame:      make([]float64, size),
		in:         make([]complex128, size),
		out:        make([]complex128, size),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mag:        make([]float64, bins),
	}, nil
}

// Size returns the frame length.
func (t *Tuner) Size() int { return t.size }

// SetSampleRate changes the rate used to convert bins to Hz.
func (t *Tuner) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("tuner sample rate must be > 0 and finite: %f", sampleRate)
	}
	t.sampleRate = sampleRate
	return nil
}

// Estimate analyzes samples, which must hold exactly Size values. ok is
// false for silence or when no peak lies in the guitar range.
func (t *Tuner) Estimate(samples []float64) (Pitch, bool) {
	if len(samples) != t.size {
		return Pitch{}, false
	}

	copy(t.frame, samples)
	if err := window.ApplyCoefficientsInPlace(t.frame, t.win); err != nil {
		return Pitch{}, false
	}
	for i, v := range t.frame {
		t.in[i] = complex(v, 0)
	}
	if err := t.plan.Forward(t.out, t.in); err != nil {
		return Pitch{}, false
	}

	for k := range t.mag {
		t.re[k] = real(t.out[k])
		t.im[k] = imag(t.out[k])
	}
	vecmath.Magnitude(t.mag, t.re, t.im)

	binHz := t.sampleRate / float64(t.size)
	lo := max(1, int(math.Floor(minPitchHz/binHz)))
	hi := min(len(t.mag)-2, int(math.Ceil(maxPitchHz/binHz)))
	if lo > hi {
		return Pitch{}, false
	}

	best := lo
	for k := lo + 1; k <= hi; k++ {
		if t.mag[k] > t.mag[best] {
			best = k
		}
	}

	peak := t.mag[best] / t.norm
	if peak < silenceMagnitude {
		return Pitch{}, false
	}

	a, b, c := t.mag[best-1], t.mag[best], t.mag[best+1]
	delta := 0.0
	if den := a - 2*b + c; den != 0 {
		delta = 0.5 * (a - c) / den
	}

	freq := (float64(best) + delta) * binHz
	name, midi, cents := NearestNote(freq)

	return Pitch{Frequency: freq, Note: name, MIDI: midi, Cents: cents, Magnitude: peak}, true
}
