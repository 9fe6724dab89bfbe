package meter

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
)

// Tap is a single-producer ring of mono samples plus running level
// accumulators. One goroutine writes, any goroutine may read.
type Tap struct {
	ring  []atomic.Uint64
	mask  uint64
	write atomic.Uint64

	peak    atomic.Uint64
	sumSq   atomic.Uint64
	samples atomic.Uint64
}

// NewTap returns a tap holding the last size mono samples. size must be a
// power of two.
func NewTap(size int) (*Tap, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("meter: tap size must be a power of two >= 2: %d", size)
	}
	return &Tap{ring: make([]atomic.Uint64, size), mask: uint64(size - 1)}, nil
}

// Size returns the ring capacity in samples.
func (t *Tap) Size() int { return len(t.ring) }

// Write records an interleaved buffer. Levels cover every channel; the
// ring stores the per-frame channel average.
func (t *Tap) Write(buf []float64, channels int) {
	if channels <= 0 || len(buf) < channels {
		return
	}

	t.accumulate(vecmath.MaxAbs(buf), vecmath.DotProduct(buf, buf), uint64(len(buf)))

	frames := len(buf) / channels
	w := t.write.Load()
	inv := 1 / float64(channels)
	for i := range frames {
		base := i * channels
		sum := 0.0
		for ch := range channels {
			sum += buf[base+ch]
		}
		t.ring[(w+uint64(i))&t.mask].Store(math.Float64bits(sum * inv))
	}
	t.write.Store(w + uint64(frames))
}

func (t *Tap) accumulate(peak, sumSq float64, n uint64) {
	for {
		old := t.peak.Load()
		if peak <= math.Float64frombits(old) || t.peak.CompareAndSwap(old, math.Float64bits(peak)) {
			break
		}
	}
	for {
		old := t.sumSq.Load()
		if t.sumSq.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+sumSq)) {
			break
		}
	}
	t.samples.Add(n)
}

// Levels returns peak and mean-square since the previous call and resets
// the accumulators. ok is false when nothing was written.
func (t *Tap) Levels() (peak, meanSquare float64, ok bool) {
	n := t.samples.Swap(0)
	peak = math.Float64frombits(t.peak.Swap(0))
	sumSq := math.Float64frombits(t.sumSq.Swap(0))
	if n == 0 {
		return 0, 0, false
	}
	return peak, sumSq / float64(n), true
}

// Written returns the total number of frames written.
func (t *Tap) Written() uint64 { return t.write.Load() }

// Snapshot copies the most recent len(dst) samples, oldest first, and
// returns how many were available. dst may not exceed Size.
func (t *Tap) Snapshot(dst []float64) int {
	if len(dst) > len(t.ring) {
		dst = dst[:len(t.ring)]
	}
	w := t.write.Load()
	n := uint64(len(dst))
	if w < n {
		n = w
	}
	start := w - n
	for i := range n {
		dst[i] = math.Float64frombits(t.ring[(start+i)&t.mask].Load())
	}
	return int(n)
}

// Reset clears the ring and the accumulators. It must not race Write.
func (t *Tap) Reset() {
	for i := range t.ring {
		t.ring[i].Store(0)
	}
	t.write.Store(0)
	t.Levels()
}
