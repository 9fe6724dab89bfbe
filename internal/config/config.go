// Package config holds the command line settings of the guitarfx host.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/cwbudde/algo-guitarfx/dsp/window"
)

// Backend names.
const (
	BackendAuto      = "auto"
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
	BackendLoopback  = "loopback"
)

// Config selects the audio backend, stream shape and control surfaces.
type Config struct {
	Backend string
	Device  string
	// OutputDevice is the render device index for the portaudio backend;
	// negative selects the default output.
	OutputDevice int
	SampleRate   int
	Channels     int
	PacketFrames int
	RenderBuffer time.Duration
	IdleWait     time.Duration
	StopTimeout  time.Duration

	// StrumInterval spaces the built-in test signal's plucks.
	StrumInterval time.Duration

	Meter         bool
	MeterFFT      int
	MeterInterval time.Duration
	MeterWindow   window.Type

	MIDIPort string

	// KeymapFile rebinds keys, one "action key" pair per line.
	KeymapFile string

	ListDevices bool
	ListMIDI    bool
	Debug       bool
}

// Default returns the settings used when no flags are given.
func Default() Config {
	return Config{
		Backend:       BackendAuto,
		OutputDevice:  -1,
		SampleRate:    48000,
		Channels:      2,
		PacketFrames:  480,
		RenderBuffer:  40 * time.Millisecond,
		IdleWait:      time.Millisecond,
		StopTimeout:   2 * time.Second,
		StrumInterval: 600 * time.Millisecond,
		MeterFFT:      4096,
		MeterInterval: 500 * time.Millisecond,
		MeterWindow:   window.TypeHann,
	}
}

// RegisterFlags binds c's fields to fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Backend, "backend", c.Backend,
		"audio backend: auto, portaudio, oto or loopback (auto prefers portaudio when built in)")
	fs.StringVar(&c.Device, "device", c.Device, "capture device id as shown by -list (empty selects the default)")
	fs.IntVar(&c.OutputDevice, "output", c.OutputDevice, "portaudio output device index (-1 selects the default)")
	fs.IntVar(&c.SampleRate, "rate", c.SampleRate, "sample rate in Hz")
	fs.IntVar(&c.Channels, "channels", c.Channels, "channel count")
	fs.IntVar(&c.PacketFrames, "packet", c.PacketFrames, "frames per capture packet")
	fs.DurationVar(&c.RenderBuffer, "buffer", c.RenderBuffer, "render buffer duration")
	fs.DurationVar(&c.IdleWait, "idle-wait", c.IdleWait, "wait between polls when no capture data is ready")
	fs.DurationVar(&c.StopTimeout, "stop-timeout", c.StopTimeout, "maximum wait for the audio loop to stop")
	fs.DurationVar(&c.StrumInterval, "strum", c.StrumInterval, "interval between test signal strums")
	fs.BoolVar(&c.Meter, "meter", c.Meter, "print output level and pitch")
	fs.IntVar(&c.MeterFFT, "meter-fft", c.MeterFFT, "tuner FFT size (power of two)")
	fs.DurationVar(&c.MeterInterval, "meter-interval", c.MeterInterval, "meter print interval")
	fs.TextVar(&c.MeterWindow, "meter-window", c.MeterWindow,
		"tuner analysis window: rectangular, hann, hamming or blackmanharris")
	fs.StringVar(&c.KeymapFile, "keymap", c.KeymapFile, "file rebinding keys, one \"action key\" per line")
	fs.StringVar(&c.MIDIPort, "midi", c.MIDIPort, "MIDI input port name for control changes")
	fs.BoolVar(&c.ListDevices, "list", c.ListDevices, "list capture devices and exit")
	fs.BoolVar(&c.ListMIDI, "list-midi", c.ListMIDI, "list MIDI inputs and exit")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging")
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendAuto, BackendPortAudio, BackendOto, BackendLoopback:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be > 0: %d", c.SampleRate))
	}
	if c.Channels <= 0 {
		errs = append(errs, fmt.Errorf("channels must be > 0: %d", c.Channels))
	}
	if c.PacketFrames <= 0 {
		errs = append(errs, fmt.Errorf("packet frames must be > 0: %d", c.PacketFrames))
	}
	if c.RenderBuffer <= 0 {
		errs = append(errs, fmt.Errorf("render buffer must be > 0: %s", c.RenderBuffer))
	}
	if c.IdleWait <= 0 {
		errs = append(errs, fmt.Errorf("idle wait must be > 0: %s", c.IdleWait))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop timeout must be > 0: %s", c.StopTimeout))
	}
	if c.StrumInterval <= 0 {
		errs = append(errs, fmt.Errorf("strum interval must be > 0: %s", c.StrumInterval))
	}
	if c.Meter {
		if c.MeterFFT < 16 || c.MeterFFT&(c.MeterFFT-1) != 0 {
			errs = append(errs, fmt.Errorf("meter FFT size must be a power of two >= 16: %d", c.MeterFFT))
		}
		if c.MeterInterval <= 0 {
			errs = append(errs, fmt.Errorf("meter interval must be > 0: %s", c.MeterInterval))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
