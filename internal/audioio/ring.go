package audioio

import (
	"fmt"
	"sync/atomic"
)

// Ring is a single-producer single-consumer byte queue between the engine
// and a device thread. Capture rings are written by the device and read by
// the engine; render rings the other way round.
type Ring struct {
	buf   []byte
	mask  uint64
	read  atomic.Uint64
	write atomic.Uint64

	underruns atomic.Uint64
	overruns  atomic.Uint64
}

// NewRing returns a ring of size bytes. size must be a power of two.
func NewRing(size int) (*Ring, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("audioio: ring size must be a power of two >= 2: %d", size)
	}
	return &Ring{buf: make([]byte, size), mask: uint64(size - 1)}, nil
}

// RingSize rounds want up to a power of two.
func RingSize(want int) int {
	size := 2
	for size < want {
		size <<= 1
	}
	return size
}

// Cap returns the ring size in bytes.
func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the bytes queued.
func (r *Ring) Len() int { return int(r.write.Load() - r.read.Load()) }

// Free returns the bytes that can be written.
func (r *Ring) Free() int { return len(r.buf) - r.Len() }

// Write copies as much of p as fits and returns the count. A short write
// counts as an overrun.
func (r *Ring) Write(p []byte) int {
	w := r.write.Load()
	n := min(len(p), len(r.buf)-int(w-r.read.Load()))
	for i := range n {
		r.buf[(w+uint64(i))&r.mask] = p[i]
	}
	r.write.Store(w + uint64(n))
	if n < len(p) {
		r.overruns.Add(1)
	}
	return n
}

// Read fills p and never fails. A short queue is padded with silence so a
// device never stalls; padding after the first write counts as an underrun.
func (r *Ring) Read(p []byte) (int, error) {
	rd := r.read.Load()
	n := min(len(p), int(r.write.Load()-rd))
	for i := range n {
		p[i] = r.buf[(rd+uint64(i))&r.mask]
	}
	r.read.Store(rd + uint64(n))
	if n < len(p) {
		clear(p[n:])
		if n > 0 || r.write.Load() > 0 {
			r.underruns.Add(1)
		}
	}
	return len(p), nil
}

// Underruns counts reads padded with silence.
func (r *Ring) Underruns() uint64 { return r.underruns.Load() }

// Overruns counts writes that did not fit.
func (r *Ring) Overruns() uint64 { return r.overruns.Load() }
