package core

import (
	"encoding/binary"
	"math"
)

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Frames returns the number of whole frames in an interleaved buffer.
func Frames(buf []float64, channels int) int {
	if channels <= 0 {
		return 0
	}
	return len(buf) / channels
}

// Deinterleave copies channel ch of an interleaved buffer into dst and
// returns the number of frames copied.
func Deinterleave(dst, buf []float64, channels, ch int) int {
	n := Frames(buf, channels)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = buf[i*channels+ch]
	}
	return n
}

// Interleave writes src into channel ch of an interleaved buffer and
// returns the number of frames written.
func Interleave(buf, src []float64, channels, ch int) int {
	n := Frames(buf, channels)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		buf[i*channels+ch] = src[i]
	}
	return n
}

// MirrorStereo copies channels 0 and 1 onto every channel beyond the
// first two, alternating left/right (channel ch takes ch%2).
func MirrorStereo(buf []float64, channels int) {
	if channels <= 2 {
		return
	}
	frames := Frames(buf, channels)
	for i := 0; i < frames; i++ {
		base := i * channels
		for ch := 2; ch < channels; ch++ {
			buf[base+ch] = buf[base+ch%2]
		}
	}
}

// DecodeFloat32LE converts little-endian IEEE-754 float32 samples from raw
// into dst and returns the number of samples decoded.
func DecodeFloat32LE(dst []float64, raw []byte) int {
	n := len(raw) / 4
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
	}
	return n
}

// EncodeFloat32LE writes src into raw as little-endian float32 samples and
// returns the number of samples encoded.
func EncodeFloat32LE(raw []byte, src []float64) int {
	n := len(raw) / 4
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(float32(src[i])))
	}
	return n
}
