package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Pluck generates an exponentially decaying tone, a rough stand-in for a
// plucked string: amplitude*exp(-t/decaySec)*sin(2πft).
func Pluck(freqHz, sampleRate, amplitude, decaySec float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = amplitude * math.Exp(-t/decaySec) * math.Sin(step*float64(i))
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Interleave zips equal-length channel slices into one interleaved buffer.
// The frame count is taken from the shortest channel.
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	for _, c := range channels[1:] {
		if len(c) < frames {
			frames = len(c)
		}
	}
	out := make([]float64, frames*len(channels))
	for i := 0; i < frames; i++ {
		for ch, c := range channels {
			out[i*len(channels)+ch] = c[i]
		}
	}
	return out
}

// Channel extracts channel ch from an interleaved buffer.
func Channel(buf []float64, channels, ch int) []float64 {
	out := make([]float64, len(buf)/channels)
	for i := range out {
		out[i] = buf[i*channels+ch]
	}
	return out
}
