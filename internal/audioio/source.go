package audioio

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cwbudde/algo-guitarfx/dsp/delay"
)

// Source fills interleaved capture packets for backends without a real
// input device.
type Source interface {
	Fill(buf []float64, channels int)
}

// Open-string tuning E2 A2 D3 G3 B3 E4.
var openStrings = []float64{82.4069, 110.0, 146.8324, 195.9977, 246.9417, 329.6276}

const (
	stringFeedback = 0.996
	stringDamp     = 0.25
	stringGain     = 0.25
	pluckAmplitude = 0.5
)

// Strummer is a Source that plucks six Karplus-Strong strings in turn. Each
// string is a damped comb filter excited by one period of noise.
type Strummer struct {
	strings  []*delay.Comb
	excite   []int
	rng      *rand.Rand
	interval int
	next     int
	cur      int
}

// NewStrummer plucks the next string every interval.
func NewStrummer(sampleRate float64, interval time.Duration) (*Strummer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("strummer sample rate must be > 0: %f", sampleRate)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("strummer interval must be > 0: %v", interval)
	}

	s := &Strummer{
		excite:   make([]int, len(openStrings)),
		rng:      rand.New(rand.NewSource(1)),
		interval: max(1, int(interval.Seconds()*sampleRate)),
	}
	for _, f := range openStrings {
		c, err := delay.NewComb(max(2, int(sampleRate/f+0.5)))
		if err != nil {
			return nil, err
		}
		c.SetFeedback(stringFeedback)
		c.SetDamp(stringDamp)
		s.strings = append(s.strings, c)
	}
	return s, nil
}

// Fill writes the same mono signal to every channel.
func (s *Strummer) Fill(buf []float64, channels int) {
	if channels <= 0 {
		return
	}
	frames := len(buf) / channels
	for i := range frames {
		if s.next == 0 {
			s.excite[s.cur] = s.strings[s.cur].Size()
			s.cur = (s.cur + 1) % len(s.strings)
			s.next = s.interval
		}
		s.next--

		out := 0.0
		for k, c := range s.strings {
			in := 0.0
			if s.excite[k] > 0 {
				in = (s.rng.Float64()*2 - 1) * pluckAmplitude
				s.excite[k]--
			}
			out += c.Process(in)
		}
		out *= stringGain

		base := i * channels
		for ch := range channels {
			buf[base+ch] = out
		}
	}
}
