package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/internal/audioio"
)

// loop is the real-time audio loop. It exits when the running flag clears,
// ctx is cancelled or a transport call fails; failures wrap
// audioio.ErrTransport.
func (e *Engine) loop(ctx context.Context, r *run) error {
	format := r.format
	channels := format.Channels
	process := format.IsFloat32()
	if !process {
		e.log.WithError(fmt.Errorf("%w: %s", audioio.ErrFormatUnsupported, format)).
			Warn("passing audio through unprocessed")
	}

	scratch := make([]float64, format.CaptureCapacity*channels)
	seenReset := e.resetGen.Load()
	seenRate := e.rateGen.Load()
	m := e.meter.Load()

	idle := time.NewTimer(e.opts.idleWait)
	defer idle.Stop()

	e.log.Debug("audio loop entered")

	for e.running.Load() {
		if g := e.resetGen.Load(); g != seenReset {
			seenReset = g
			r.chain.Reset()
		}
		if g := e.rateGen.Load(); g != seenRate {
			seenRate = g
			if err := r.chain.SetSampleRate(math.Float64frombits(e.rateBits.Load())); err != nil {
				e.log.WithError(err).Warn("sample rate change ignored")
			}
		}

		avail, err := r.session.CaptureAvailable()
		if err != nil {
			return transportErr("poll capture", err)
		}
		if avail == 0 {
			e.idlePolls.Add(1)
			idle.Reset(e.opts.idleWait)
			select {
			case <-ctx.Done():
				return nil
			case <-idle.C:
			}
			continue
		}

		raw, frames, err := r.session.AcquireCapture()
		if err != nil {
			return transportErr("acquire capture", err)
		}
		if frames == 0 {
			continue
		}

		padding, err := r.session.RenderPadding()
		if err != nil {
			return releaseHeld(r.session, frames, transportErr("query render padding", err))
		}
		if frames > format.RenderCapacity-padding {
			e.dropped.Add(1)
			if err := r.session.ReleaseCapture(frames); err != nil {
				return transportErr("release capture", err)
			}
			continue
		}

		out, err := r.session.AcquireRender(frames)
		if err != nil {
			return releaseHeld(r.session, frames, transportErr("acquire render", err))
		}

		if process {
			n := frames * channels
			scratch = core.EnsureLen(scratch, n)
			buf := scratch[:n]
			core.DecodeFloat32LE(buf, raw)
			r.chain.ProcessInPlace(buf, channels)
			core.EncodeFloat32LE(out, buf)
			if m != nil {
				m.Write(buf, channels)
			}
		} else {
			copy(out, raw)
			e.passthrough.Add(1)
		}

		if err := r.session.ReleaseRender(frames); err != nil {
			return releaseHeld(r.session, frames, transportErr("release render", err))
		}
		if err := r.session.ReleaseCapture(frames); err != nil {
			return transportErr("release capture", err)
		}

		e.packets.Add(1)
		e.frames.Add(uint64(frames))
	}

	return nil
}

// releaseHeld returns the held capture packet before the loop exits with
// cause.
func releaseHeld(s audioio.Session, frames int, cause error) error {
	if err := s.ReleaseCapture(frames); err != nil {
		return errors.Join(cause, transportErr("release capture", err))
	}
	return cause
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", audioio.ErrTransport, op, err)
}
