package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-guitarfx/dsp/effectchain"
	"github.com/cwbudde/algo-guitarfx/dsp/window"
)

const (
	defaultIdleWait    = time.Millisecond
	defaultStopTimeout = 2 * time.Second
)

type options struct {
	logger      logrus.FieldLogger
	params      *effectchain.Params
	registry    *effectchain.Registry
	idleWait    time.Duration
	stopTimeout time.Duration
	meterSize   int
	meterWindow window.Type
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithParams shares an existing parameter store.
func WithParams(p *effectchain.Params) Option {
	return func(o *options) {
		if p != nil {
			o.params = p
		}
	}
}

// WithRegistry overrides the stage factories.
func WithRegistry(r *effectchain.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithIdleWait sets how long the loop sleeps when no frames are captured.
func WithIdleWait(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleWait = d
		}
	}
}

// WithStopTimeout bounds how long StopProcessing waits for the loop.
func WithStopTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.stopTimeout = d
		}
	}
}

// WithMeter attaches an output meter analyzing fftSize-sample frames.
// Zero disables it.
func WithMeter(fftSize int) Option {
	return func(o *options) {
		if fftSize >= 0 {
			o.meterSize = fftSize
		}
	}
}

// WithMeterWindow selects the tuner's analysis window. The default is Hann.
func WithMeterWindow(t window.Type) Option {
	return func(o *options) { o.meterWindow = t }
}

func defaultOptions() options {
	return options{
		logger:      logrus.StandardLogger(),
		idleWait:    defaultIdleWait,
		stopTimeout: defaultStopTimeout,
		meterWindow: window.TypeHann,
	}
}
