// Package engine runs the effect chain against a duplex audio session.
//
// The Engine is the control surface's handle: it starts and stops
// processing, exposes the shared parameter store and reports state,
// statistics and the terminal error of the last session. One worker
// goroutine owns the session and the chain while processing runs; control
// calls reach it only through atomics checked at buffer boundaries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/dsp/effectchain"
	"github.com/cwbudde/algo-guitarfx/internal/audioio"
	"github.com/cwbudde/algo-guitarfx/measure/meter"
)

// ErrStopTimeout is returned when the loop does not exit in time. The
// worker still releases the session when it finally returns.
var ErrStopTimeout = errors.New("audio loop did not stop in time")

// Engine drives one audio session at a time.
type Engine struct {
	provider audioio.Provider
	params   *effectchain.Params
	opts     options
	log      logrus.FieldLogger

	// mu serializes lifecycle calls from control goroutines.
	mu  sync.Mutex
	cur *run

	state   atomic.Int32
	running atomic.Bool

	resetGen atomic.Uint64
	rateGen  atomic.Uint64
	rateBits atomic.Uint64

	meter atomic.Pointer[meter.Meter]

	packets     atomic.Uint64
	frames      atomic.Uint64
	dropped     atomic.Uint64
	idlePolls   atomic.Uint64
	passthrough atomic.Uint64

	errMu sync.Mutex
	err   error
}

// run is one started session and the worker that owns it.
type run struct {
	session audioio.Session
	chain   *effectchain.Chain
	format  audioio.Format
	cleanup *audioio.Cleanup
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns an idle engine using provider.
func New(provider audioio.Provider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, errors.New("engine: nil audio provider")
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.params == nil {
		o.params = effectchain.NewParams()
	}
	if o.registry == nil {
		o.registry = effectchain.DefaultRegistry()
	}

	return &Engine{
		provider: provider,
		params:   o.params,
		opts:     o,
		log:      o.logger.WithField("provider", provider.Name()),
	}, nil
}

// Params returns the shared parameter store. Setters clamp and never block.
func (e *Engine) Params() *effectchain.Params { return e.params }

// State returns the lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// IsRunning reports whether the audio loop is processing.
func (e *Engine) IsRunning() bool { return e.running.Load() }

// Err returns the terminal error of the last session, if any.
func (e *Engine) Err() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

func (e *Engine) setErr(err error) {
	e.errMu.Lock()
	e.err = err
	e.errMu.Unlock()
}

// Stats returns the counters of the current or last session.
func (e *Engine) Stats() Stats {
	return Stats{
		Packets:     e.packets.Load(),
		Frames:      e.frames.Load(),
		Dropped:     e.dropped.Load(),
		IdlePolls:   e.idlePolls.Load(),
		Passthrough: e.passthrough.Load(),
	}
}

// Meter returns the output meter of the current session, or nil.
func (e *Engine) Meter() *meter.Meter { return e.meter.Load() }

// Done is closed when the current worker exits. With no session it is
// already closed.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return e.cur.done
}

// CaptureDevices lists the provider's capture endpoints.
func (e *Engine) CaptureDevices(ctx context.Context) ([]audioio.Device, error) {
	devs, err := e.provider.CaptureDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate capture devices: %w", audioio.ErrSetup, err)
	}
	return devs, nil
}

// ResetAll restores every parameter to its default and clears all stage
// state. A running loop applies the state reset at its next buffer.
func (e *Engine) ResetAll() {
	e.params.Reset()
	e.resetGen.Add(1)
}

// SetSampleRate overrides the rate the stages assume. A running loop
// applies it at its next buffer; a new session starts from the negotiated
// rate.
func (e *Engine) SetSampleRate(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("engine: sample rate must be > 0 and finite: %f", rate)
	}
	e.rateBits.Store(math.Float64bits(rate))
	e.rateGen.Add(1)
	return nil
}

// StartProcessing stops any running session, opens captureID and starts
// the audio loop. Setup failures leave the engine idle and wrap
// audioio.ErrSetup or audioio.ErrNoDevice.
func (e *Engine) StartProcessing(ctx context.Context, captureID string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur != nil {
		if stopErr := e.stopLocked(); errors.Is(stopErr, ErrStopTimeout) {
			return stopErr
		}
	}

	e.state.Store(int32(StateStarting))
	e.setErr(nil)
	defer func() {
		if err != nil {
			e.state.Store(int32(StateIdle))
			e.log.WithError(err).Error("audio setup failed")
		}
	}()

	var cleanup audioio.Cleanup
	defer func() {
		if err != nil {
			if cerr := cleanup.Close(); cerr != nil {
				e.log.WithError(cerr).Warn("release after failed setup")
			}
		}
	}()

	session, err := e.provider.OpenDuplex(ctx, captureID)
	if err != nil {
		return err
	}
	cleanup.Add(session.Close)

	format := session.Format()
	if err := format.Validate(); err != nil {
		return err
	}

	chain, err := effectchain.New(effectchain.NewContext(
		core.WithSampleRate(float64(format.SampleRate)),
		core.WithChannels(format.Channels),
		core.WithMaxFrames(max(format.CaptureCapacity, format.RenderCapacity)),
	), e.params, e.opts.registry)
	if err != nil {
		return fmt.Errorf("%w: %w", audioio.ErrSetup, err)
	}

	var m *meter.Meter
	if e.opts.meterSize > 0 {
		m, err = meter.New(float64(format.SampleRate), e.opts.meterSize, e.opts.meterWindow)
		if err != nil {
			return fmt.Errorf("%w: %w", audioio.ErrSetup, err)
		}
	}

	if err := session.Start(); err != nil {
		return fmt.Errorf("%w: start transports: %w", audioio.ErrSetup, err)
	}
	cleanup.Add(session.Stop)

	e.resetStats()
	e.meter.Store(m)

	loopCtx, cancel := context.WithCancel(context.Background())
	r := &run{
		session: session,
		chain:   chain,
		format:  format,
		cleanup: cleanup.Disarm(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	e.cur = r

	e.log.WithFields(logrus.Fields{
		"device":      captureID,
		"sample_rate": format.SampleRate,
		"channels":    format.Channels,
		"bits":        format.BitsPerSample,
		"float":       format.Float,
		"capture":     format.CaptureCapacity,
		"render":      format.RenderCapacity,
	}).Info("audio session started")

	e.running.Store(true)
	e.state.Store(int32(StateRunning))

	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		defer e.running.Store(false)
		return e.loop(gctx, r)
	})
	go e.finish(g, r)

	return nil
}

// finish joins the worker, releases the session and records the outcome.
func (e *Engine) finish(g *errgroup.Group, r *run) {
	err := g.Wait()
	r.cancel()

	if cerr := r.cleanup.Close(); cerr != nil {
		e.log.WithError(cerr).Warn("release audio session")
	}

	entry := e.log.WithFields(logrus.Fields{
		"packets": e.packets.Load(),
		"dropped": e.dropped.Load(),
	})
	if err != nil {
		e.setErr(err)
		entry.WithError(err).Error("audio loop failed")
	} else {
		entry.Info("audio loop stopped")
	}

	e.state.Store(int32(StateIdle))
	close(r.done)
}

// StopProcessing signals the loop, waits for it to exit and returns the
// session's terminal error, if any.
func (e *Engine) StopProcessing() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return e.Err()
	}
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	r := e.cur
	if e.State() == StateRunning {
		e.state.Store(int32(StateStopping))
	}
	e.running.Store(false)
	r.cancel()

	select {
	case <-r.done:
	case <-time.After(e.opts.stopTimeout):
		e.log.WithField("timeout", e.opts.stopTimeout).Warn("audio loop did not exit")
		return ErrStopTimeout
	}

	e.cur = nil
	e.meter.Store(nil)
	return e.Err()
}

// Close stops processing.
func (e *Engine) Close() error { return e.StopProcessing() }

func (e *Engine) resetStats() {
	e.packets.Store(0)
	e.frames.Store(0)
	e.dropped.Store(0)
	e.idlePolls.Store(0)
	e.passthrough.Store(0)
}
