package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-guitarfx/internal/testutil"
)

func newEnabledCompressor(t *testing.T) *Compressor {
	t.Helper()
	c, err := NewCompressor(48000, nil)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}
	c.Params().Enabled.Store(true)
	return c
}

func TestCompressorDisabledLeavesBufferUnchanged(t *testing.T) {
	c, err := NewCompressor(48000, nil)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}
	in := testutil.DeterministicNoise(1, 1, 600)
	buf := append([]float64(nil), in...)
	c.Process(buf, 2)
	testutil.RequireIdentical(t, buf, in)
}

func TestCompressorCeiling(t *testing.T) {
	c := newEnabledCompressor(t)
	c.Params().Level.Store(2)
	c.Params().Sustain.Store(5000)
	for _, tone := range []float64{0, 0.5, 1} {
		c.Params().Tone.Store(tone)
		buf := testutil.DeterministicNoise(2, 50, 4800)
		buf = append(buf, 1e6, -1e6, 1e12, -1e12)
		c.Process(buf, 2)
		testutil.RequireCeiling(t, buf, 0.98)
	}
}

func TestCompressorGainLaw(t *testing.T) {
	if g := gainFor(0.01); g != 1 {
		t.Fatalf("below knee gain = %v, want 1", g)
	}
	// At threshold the knee adds (0.1^2)/(0.4) = 0.025.
	want := math.Pow(10, -(20*math.Log10(0.175/0.15)*(1-1.0/8))/20)
	if g := gainFor(0.15); math.Abs(g-want) > 1e-12 {
		t.Fatalf("knee gain = %v, want %v", g, want)
	}
	// Well above the knee the law is exactly 8:1.
	want = math.Pow(1.2/0.15, -7.0/8)
	if g := gainFor(1.2); math.Abs(g-want) > 1e-9 {
		t.Fatalf("gain above knee = %v, want %v", g, want)
	}
	prev := 1.0
	for env := 0.0; env < 2; env += 0.001 {
		g := gainFor(env)
		if g > prev+1e-12 {
			t.Fatalf("gain rose from %v to %v at env %v", prev, g, env)
		}
		prev = g
	}
}

func TestCompressorSmoothedGainReduces(t *testing.T) {
	c := newEnabledCompressor(t)
	buf := testutil.DC(0.9, 2*48000)
	c.Process(buf, 2)
	for ch, g := range c.smooth {
		if g >= 0.5 {
			t.Fatalf("channel %d gain %v, expected heavy reduction on a 0.9 DC input", ch, g)
		}
	}
	for i, v := range buf {
		if math.Abs(v) > 0.98 {
			t.Fatalf("sample %d = %v above ceiling", i, v)
		}
	}
}

func TestCompressorContinuity(t *testing.T) {
	a := newEnabledCompressor(t)
	b := newEnabledCompressor(t)
	in := testutil.Interleave(
		testutil.Pluck(82.4, 48000, 0.9, 0.5, 4096),
		testutil.Pluck(110, 48000, 0.7, 0.5, 4096),
		testutil.DeterministicNoise(3, 0.2, 4096),
	)
	testutil.RequireContinuous(t, a, b, in, 3)
}

func TestCompressorResetFadesGainIn(t *testing.T) {
	c := newEnabledCompressor(t)
	c.Process(testutil.DC(0.9, 9600), 2)
	c.Reset()
	for ch := range c.smooth {
		if c.smooth[ch] != 0 || c.env[ch] != 0 || c.low[ch] != 0 {
			t.Fatalf("channel %d not reset: smooth=%v env=%v low=%v", ch, c.smooth[ch], c.env[ch], c.low[ch])
		}
	}

	// A quiet signal sits below the knee, so the smoothed gain climbs
	// back toward unity.
	c.Process(testutil.DC(0.01, 2*48000), 2)
	for ch, g := range c.smooth {
		if g < 0.99 {
			t.Fatalf("channel %d gain %v after fade-in, want ~1", ch, g)
		}
	}
}

func TestCompressorGrowsChannelState(t *testing.T) {
	c := newEnabledCompressor(t)
	c.Process(make([]float64, 8), 2)
	c.Process(make([]float64, 12), 6)
	if len(c.env) != 6 || c.smooth[5] != 1 {
		t.Fatalf("state not grown to 6 channels: env=%d smooth=%v", len(c.env), c.smooth)
	}
}

func BenchmarkCompressorProcess(b *testing.B) {
	c, err := NewCompressor(48000, nil)
	if err != nil {
		b.Fatalf("NewCompressor() error = %v", err)
	}
	c.Params().Enabled.Store(true)
	c.Prepare(2)
	buf := testutil.DeterministicNoise(1, 0.5, 2*256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Process(buf, 2)
	}
}
