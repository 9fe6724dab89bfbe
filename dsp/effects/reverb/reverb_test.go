package reverb

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-guitarfx/internal/testutil"
)

func newEnabledReverb(t *testing.T, sampleRate float64) *Reverb {
	t.Helper()
	r, err := New(sampleRate, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.Params().Enabled.Store(true)
	return r
}

func TestReverbDisabledLeavesBufferUnchanged(t *testing.T) {
	r, err := New(48000, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	in := testutil.DeterministicNoise(1, 1, 1024)
	buf := append([]float64(nil), in...)
	r.Process(buf, 2)
	testutil.RequireIdentical(t, buf, in)
	if r.Ready() {
		t.Fatal("disabled reverb should not size its filters")
	}
}

func TestReverbMonoIsNoOp(t *testing.T) {
	r := newEnabledReverb(t, 48000)
	in := testutil.DeterministicNoise(2, 1, 1024)
	buf := append([]float64(nil), in...)
	r.Process(buf, 1)
	testutil.RequireIdentical(t, buf, in)
}

func TestReverbDelaySizesScaleWithSampleRate(t *testing.T) {
	r := newEnabledReverb(t, 44100)
	if err := r.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	left, right := r.CombSizes()
	if left[0] != 1116 || right[0] != 1227 {
		t.Fatalf("44.1k comb[0] = %d/%d, want 1116/1227", left[0], right[0])
	}

	if err := r.SetSampleRate(48000); err != nil {
		t.Fatalf("SetSampleRate() error = %v", err)
	}
	if r.Ready() {
		t.Fatal("rate change should invalidate filter sizing")
	}
	r.Process(make([]float64, 4), 2)
	left, right = r.CombSizes()
	sr := 48000.0
	if want := int(1116 * sr / 44100); left[0] != want {
		t.Fatalf("48k left comb[0] = %d, want %d", left[0], want)
	}
	if right[0] <= left[0] {
		t.Fatalf("right comb %d should be longer than left %d", right[0], left[0])
	}
}

func TestReverbZeroMixIsDry(t *testing.T) {
	r := newEnabledReverb(t, 48000)
	r.Params().Mix.Store(0)
	in := testutil.DeterministicNoise(3, 1, 2048)
	buf := append([]float64(nil), in...)
	r.Process(buf, 2)
	testutil.RequireIdentical(t, buf, in)
}

func TestReverbProducesDecayingTail(t *testing.T) {
	r := newEnabledReverb(t, 48000)
	r.Params().Mix.Store(1)

	frames := 48000
	buf := make([]float64, frames*2)
	buf[0], buf[1] = 1, 1
	r.Process(buf, 2)
	testutil.RequireFinite(t, buf)

	early, late := 0.0, 0.0
	for i := 2000; i < 12000; i++ {
		early = math.Max(early, math.Abs(buf[i*2]))
	}
	for i := 38000; i < 48000; i++ {
		late = math.Max(late, math.Abs(buf[i*2]))
	}
	if early == 0 {
		t.Fatal("no reverb tail")
	}
	if late >= early {
		t.Fatalf("tail not decaying: early %v, late %v", early, late)
	}
}

func TestReverbMirrorsExtraChannels(t *testing.T) {
	r := newEnabledReverb(t, 48000)
	buf := testutil.Interleave(
		testutil.DeterministicNoise(4, 1, 512),
		testutil.DeterministicNoise(5, 1, 512),
		make([]float64, 512),
	)
	r.Process(buf, 3)
	for i := 0; i < 512; i++ {
		if buf[i*3+2] != buf[i*3] {
			t.Fatalf("frame %d channel 2 = %v, want %v", i, buf[i*3+2], buf[i*3])
		}
	}
}

func TestReverbContinuity(t *testing.T) {
	a := newEnabledReverb(t, 44100)
	b := newEnabledReverb(t, 44100)
	in := testutil.Interleave(
		testutil.Pluck(196, 44100, 0.8, 0.1, 6000),
		testutil.Pluck(247, 44100, 0.8, 0.1, 6000),
	)
	testutil.RequireContinuous(t, a, b, in, 2)
}

func TestReverbResetSilencesTail(t *testing.T) {
	r := newEnabledReverb(t, 48000)
	r.Process(testutil.DeterministicNoise(6, 1, 4096), 2)
	r.Reset()

	buf := make([]float64, 4096)
	r.Process(buf, 2)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d after reset = %v, want 0", i, v)
		}
	}
}

func BenchmarkReverbProcess(b *testing.B) {
	r, err := New(48000, nil)
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	r.Params().Enabled.Store(true)
	if err := r.Prepare(); err != nil {
		b.Fatalf("Prepare() error = %v", err)
	}
	buf := testutil.DeterministicNoise(1, 0.5, 2*256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Process(buf, 2)
	}
}
