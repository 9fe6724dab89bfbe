package effectchain

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-guitarfx/dsp/core"
	"github.com/cwbudde/algo-guitarfx/internal/testutil"
)

func newTestChain(t *testing.T, channels, maxFrames int) *Chain {
	t.Helper()
	c, err := New(Context{SampleRate: 48000, Channels: channels, MaxFrames: maxFrames}, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestChainStageOrder(t *testing.T) {
	c := newTestChain(t, 2, 256)
	got := c.Stages()
	if len(got) != len(StageOrder) {
		t.Fatalf("stages = %v, want %v", got, StageOrder)
	}
	for i := range got {
		if got[i] != StageOrder[i] {
			t.Fatalf("stage %d = %q, want %q", i, got[i], StageOrder[i])
		}
	}
	want := []string{"tremolo", "chorus", "blues", "overdrive", "compressor", "reverb", "warm", "wah"}
	for i := range want {
		if StageOrder[i] != want[i] {
			t.Fatalf("StageOrder[%d] = %q, want %q", i, StageOrder[i], want[i])
		}
	}
}

func TestChainAllDisabledIsIdentity(t *testing.T) {
	c := newTestChain(t, 2, 512)
	in := testutil.DeterministicNoise(11, 0.8, 1024)
	buf := append([]float64(nil), in...)
	c.ProcessInPlace(buf, 2)
	testutil.RequireIdentical(t, buf, in)
}

func TestChainTremoloEndToEnd(t *testing.T) {
	const (
		sampleRate = 48000.0
		frames     = 48000
	)
	c := newTestChain(t, 2, frames)
	p := c.Params()
	p.Tremolo.Enabled.Store(true)
	p.Tremolo.Rate.Store(5)
	p.Tremolo.Depth.Store(0.5)

	buf := testutil.DC(1, frames*2)
	c.ProcessInPlace(buf, 2)

	for i := range frames {
		want := 1 + 0.5*math.Sin(2*math.Pi*5*float64(i)/sampleRate)
		for ch := range 2 {
			got := buf[i*2+ch]
			if math.Abs(got-want) > 1e-5 {
				t.Fatalf("frame %d ch %d = %.9f, want %.9f", i, ch, got, want)
			}
		}
	}
}

func TestChainMasterVolume(t *testing.T) {
	c := newTestChain(t, 2, 64)
	c.Params().Volume.Store(0.5)
	buf := testutil.DC(0.8, 128)
	c.ProcessInPlace(buf, 2)
	for i, v := range buf {
		if math.Abs(v-0.4) > 1e-15 {
			t.Fatalf("sample %d = %v, want 0.4", i, v)
		}
	}
	c.Params().Volume.Store(5)
	if got := c.Params().Volume.Load(); got != 2 {
		t.Fatalf("volume clamp = %v, want 2", got)
	}
}

func TestResetAllRestoresDefaults(t *testing.T) {
	p := NewParams()
	for _, g := range p.Groups() {
		if g.Enabled != nil {
			g.Enabled.Store(true)
		}
		for _, f := range g.Floats {
			lo, hi := f.Range()
			if f.Bounded() {
				f.Store((lo + hi) / 3)
			} else {
				f.Store(f.Default() + 1.25)
			}
		}
	}
	p.Reset()

	for _, g := range p.Groups() {
		if g.Enabled != nil && g.Enabled.Load() {
			t.Fatalf("%s enabled after reset", g.Name)
		}
		for _, f := range g.Floats {
			if f.Load() != f.Default() {
				t.Fatalf("%s.%s = %v, want %v", g.Name, f.Name(), f.Load(), f.Default())
			}
		}
	}

	checks := map[string]float64{
		"chorus.rate":       1.5,
		"reverb.mix":        0.3,
		"compressor.attack": 10,
		"tremolo.rate":      5,
		"master.volume":     1,
	}
	for path, want := range checks {
		f, ok := p.Float(path)
		if !ok {
			t.Fatalf("Float(%q) not found", path)
		}
		if got := f.Load(); got != want {
			t.Fatalf("%s = %v, want %v", path, got, want)
		}
	}
}

func TestParamsLookup(t *testing.T) {
	p := NewParams()
	if _, ok := p.Float("chorus"); ok {
		t.Fatal("path without dot resolved")
	}
	if _, ok := p.Float("flanger.rate"); ok {
		t.Fatal("unknown group resolved")
	}
	if _, ok := p.Enabled("master"); ok {
		t.Fatal("master group must not have an enable flag")
	}
	for _, name := range StageOrder {
		flag, ok := p.Enabled(name)
		if !ok {
			t.Fatalf("Enabled(%q) not found", name)
		}
		if flag.Load() {
			t.Fatalf("%s enabled by default", name)
		}
	}
	paths := p.Paths()
	if len(paths) == 0 || paths[len(paths)-1] != "master.volume" {
		t.Fatalf("Paths() = %v, want master.volume last", paths)
	}
}

func TestChainContinuity(t *testing.T) {
	build := func() *Chain {
		c := newTestChain(t, 2, 512)
		p := c.Params()
		p.Chorus.Enabled.Store(true)
		p.Compressor.Enabled.Store(true)
		p.Reverb.Enabled.Store(true)
		p.Wah.Enabled.Store(true)
		return c
	}
	in := testutil.Interleave(
		testutil.Pluck(196, 48000, 0.7, 0.4, 1024),
		testutil.Pluck(247, 48000, 0.6, 0.4, 1024),
	)
	testutil.RequireContinuous(t, build(), build(), in, 2)
}

func TestChainResetClearsState(t *testing.T) {
	c := newTestChain(t, 2, 1024)
	c.Params().Reverb.Enabled.Store(true)
	c.Params().Reverb.Mix.Store(1)

	in := testutil.Interleave(testutil.Impulse(1024, 0), testutil.Impulse(1024, 0))
	first := append([]float64(nil), in...)
	c.ProcessInPlace(first, 2)

	c.Reset()
	second := append([]float64(nil), in...)
	c.ProcessInPlace(second, 2)
	testutil.RequireIdentical(t, second, first)
}

func TestChainSetSampleRate(t *testing.T) {
	c := newTestChain(t, 2, 64)
	if err := c.SetSampleRate(44100); err != nil {
		t.Fatalf("SetSampleRate() error = %v", err)
	}
	if got := c.Context().SampleRate; got != 44100 {
		t.Fatalf("sample rate = %v, want 44100", got)
	}
	if err := c.SetSampleRate(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if got := c.Context().SampleRate; got != 44100 {
		t.Fatalf("failed update changed rate to %v", got)
	}
}

func TestNewRejectsInvalidContext(t *testing.T) {
	for _, ctx := range []Context{
		{SampleRate: 0, Channels: 2},
		{SampleRate: math.NaN(), Channels: 2},
		{SampleRate: 48000, Channels: 0},
		{SampleRate: 48000, Channels: 2, MaxFrames: -1},
	} {
		if _, err := New(ctx, nil, nil); err == nil {
			t.Fatalf("New(%+v) expected error", ctx)
		}
	}
}

func TestNewMissingStage(t *testing.T) {
	r := NewRegistry()
	_, err := New(Context{SampleRate: 48000, Channels: 2}, nil, r)
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("error = %v, want ErrUnknownStage", err)
	}
}

func BenchmarkChainAllEnabled(b *testing.B) {
	c, err := New(Context{SampleRate: 48000, Channels: 2, MaxFrames: 256}, nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	for _, name := range StageOrder {
		flag, _ := c.Params().Enabled(name)
		flag.Store(true)
	}
	buf := testutil.DeterministicNoise(3, 0.5, 512)
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		c.ProcessInPlace(buf, 2)
	}
}

func TestNewContextFromOptions(t *testing.T) {
	ctx := NewContext(core.WithSampleRate(48000), core.WithChannels(1), core.WithMaxFrames(256))
	if ctx.SampleRate != 48000 || ctx.Channels != 1 || ctx.MaxFrames != 256 {
		t.Fatalf("ctx=%+v", ctx)
	}
	if err := ctx.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	def := NewContext(core.WithSampleRate(-1))
	if def.SampleRate != 44100 || def.Channels != 2 {
		t.Fatalf("invalid options must keep defaults: %+v", def)
	}
}
