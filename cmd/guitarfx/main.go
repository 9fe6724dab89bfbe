// Command guitarfx runs the guitar effects chain on a live duplex stream.
//
// Usage:
//
//	guitarfx [flags]
//
// The portaudio backend captures the guitar from a real input device and is
// available when built with -tags portaudio. The default backend, auto,
// uses it when present and otherwise plays a built-in strummed test signal
// through oto.
//
// Keys toggle and adjust effects while the stream runs. The bindings are
// printed at start and q quits; -keymap rebinds them from a file of
// "action key" lines. With -midi, control changes from the named input
// drive the same parameters.
//
// Examples:
//
//	guitarfx
//	guitarfx -list
//	guitarfx -backend portaudio -device 3 -output 1
//	guitarfx -backend loopback -meter -meter-window blackmanharris
//	guitarfx -keymap ~/.guitarfx-keys
//	guitarfx -list-midi
//	guitarfx -midi "USB MIDI Pedal" -debug
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-guitarfx/internal/audioio"
	"github.com/cwbudde/algo-guitarfx/internal/audioio/loopback"
	"github.com/cwbudde/algo-guitarfx/internal/audioio/otoaudio"
	"github.com/cwbudde/algo-guitarfx/internal/audioio/portaudio"
	"github.com/cwbudde/algo-guitarfx/internal/config"
	"github.com/cwbudde/algo-guitarfx/internal/control"
	"github.com/cwbudde/algo-guitarfx/internal/engine"
	"github.com/cwbudde/algo-guitarfx/measure/meter"
)

func main() {
	cfg := config.Default()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: guitarfx [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the guitar effects chain on a live audio stream.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("guitarfx failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	features := cpu.DetectFeatures()
	log.WithFields(logrus.Fields{
		"arch": features.Architecture,
		"avx2": features.HasAVX2,
		"neon": features.HasNEON,
	}).Debug("cpu features")

	defer midi.CloseDriver()
	if cfg.ListMIDI {
		return printMIDIInputs()
	}

	provider, err := newProvider(cfg, log)
	if err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithIdleWait(cfg.IdleWait),
		engine.WithStopTimeout(cfg.StopTimeout),
	}
	if cfg.Meter {
		opts = append(opts, engine.WithMeter(cfg.MeterFFT), engine.WithMeterWindow(cfg.MeterWindow))
	}
	eng, err := engine.New(provider, opts...)
	if err != nil {
		return err
	}

	keymap := control.NewKeymap(eng)
	if cfg.KeymapFile != "" {
		if err := loadKeymap(keymap, cfg.KeymapFile); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ListDevices {
		return printDevices(ctx, eng)
	}

	if err := eng.StartProcessing(ctx, cfg.Device); err != nil {
		return err
	}

	fmt.Print("Keys:\n" + keymap.Help() + "\n")

	if cfg.MIDIPort != "" {
		stopMIDI, err := control.DefaultMIDIMap(eng, log).Listen(cfg.MIDIPort)
		if err != nil {
			log.WithError(err).Warn("MIDI control unavailable")
		} else {
			defer stopMIDI()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := control.NewKeyboard(os.Stdin, os.Stdout, keymap, log).Run(gctx)
		stop()
		return err
	})
	g.Go(func() error {
		select {
		case <-eng.Done():
			stop()
			return eng.Err()
		case <-gctx.Done():
			return nil
		}
	})
	if m := eng.Meter(); m != nil {
		g.Go(func() error {
			printMeter(gctx, m, cfg.MeterInterval, log)
			return nil
		})
	}

	runErr := g.Wait()
	fmt.Println()
	stopErr := eng.StopProcessing()
	if errors.Is(stopErr, runErr) {
		stopErr = nil
	}

	stats := eng.Stats()
	log.WithFields(logrus.Fields{
		"packets":     stats.Packets,
		"frames":      stats.Frames,
		"dropped":     stats.Dropped,
		"passthrough": stats.Passthrough,
	}).Info("guitarfx stopped")

	return errors.Join(runErr, stopErr)
}

func newProvider(cfg config.Config, log logrus.FieldLogger) (audioio.Provider, error) {
	backend := cfg.Backend
	if backend == config.BackendAuto {
		backend = config.BackendOto
		if portaudio.Available {
			backend = config.BackendPortAudio
		}
		log.WithField("backend", backend).Debug("auto-selected audio backend")
	}

	switch backend {
	case config.BackendPortAudio:
		pc := portaudio.DefaultConfig()
		pc.SampleRate = cfg.SampleRate
		pc.Channels = cfg.Channels
		pc.PacketFrames = cfg.PacketFrames
		pc.RenderBuffer = cfg.RenderBuffer
		pc.OutputDevice = cfg.OutputDevice
		return portaudio.New(pc), nil
	case config.BackendLoopback:
		src, err := audioio.NewStrummer(float64(cfg.SampleRate), cfg.StrumInterval)
		if err != nil {
			return nil, err
		}
		format := loopback.DefaultFormat
		format.SampleRate = cfg.SampleRate
		format.Channels = cfg.Channels
		format.CaptureCapacity = cfg.PacketFrames
		format.RenderCapacity = max(cfg.PacketFrames, int(cfg.RenderBuffer.Seconds()*float64(cfg.SampleRate)))
		return loopback.New(loopback.WithFormat(format), loopback.WithSource(src)), nil
	case config.BackendOto:
		oc := otoaudio.DefaultConfig()
		oc.SampleRate = cfg.SampleRate
		oc.Channels = cfg.Channels
		oc.PacketFrames = cfg.PacketFrames
		oc.RenderBuffer = cfg.RenderBuffer
		oc.StrumInterval = cfg.StrumInterval
		return otoaudio.New(oc), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func loadKeymap(k *control.Keymap, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("keymap: %w", err)
	}
	defer f.Close()
	if err := k.LoadBindings(f); err != nil {
		return fmt.Errorf("keymap %s: %w", path, err)
	}
	return nil
}

func printDevices(ctx context.Context, eng *engine.Engine) error {
	devices, err := eng.CaptureDevices(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tName\tDefault\n")
	for _, d := range devices {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, def)
	}
	return w.Flush()
}

func printMIDIInputs() error {
	names, err := control.Inputs()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no MIDI inputs")
		return nil
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func printMeter(ctx context.Context, m *meter.Meter, interval time.Duration, log logrus.FieldLogger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		r := m.Read()
		entry := log.WithFields(logrus.Fields{
			"peak_dbfs": fmt.Sprintf("%.1f", r.PeakDBFS),
			"rms_dbfs":  fmt.Sprintf("%.1f", r.RMSDBFS),
		})
		if r.HasPitch {
			entry = entry.WithFields(logrus.Fields{
				"note":  r.Pitch.Note,
				"hz":    fmt.Sprintf("%.1f", r.Pitch.Frequency),
				"cents": fmt.Sprintf("%+.0f", r.Pitch.Cents),
			})
		}
		entry.Info("meter")
	}
}
