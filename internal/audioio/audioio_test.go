package audioio

import (
	"errors"
	"testing"
)

func TestFormatHelpers(t *testing.T) {
	f := Format{SampleRate: 48000, Channels: 2, BitsPerSample: 32, Float: true, CaptureCapacity: 480, RenderCapacity: 960}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if f.FrameBytes() != 8 {
		t.Fatalf("FrameBytes() = %d, want 8", f.FrameBytes())
	}
	if !f.IsFloat32() {
		t.Fatal("IsFloat32() = false")
	}
	if got := f.String(); got != "48000 Hz, 2 ch, 32-bit float" {
		t.Fatalf("String() = %q", got)
	}

	pcm := f
	pcm.Float = false
	pcm.BitsPerSample = 16
	if pcm.IsFloat32() {
		t.Fatal("16-bit int reported as float32")
	}
}

func TestFormatValidateRejects(t *testing.T) {
	good := Format{SampleRate: 48000, Channels: 2, BitsPerSample: 32, Float: true, CaptureCapacity: 1, RenderCapacity: 1}
	bad := []func(*Format){
		func(f *Format) { f.SampleRate = 0 },
		func(f *Format) { f.Channels = 0 },
		func(f *Format) { f.BitsPerSample = 12 },
		func(f *Format) { f.RenderCapacity = 0 },
	}
	for i, mut := range bad {
		f := good
		mut(&f)
		if err := f.Validate(); !errors.Is(err, ErrSetup) {
			t.Fatalf("case %d: error = %v, want ErrSetup", i, err)
		}
	}
}

func TestCleanupRunsInReverse(t *testing.T) {
	var order []int
	boom := errors.New("boom")

	var c Cleanup
	c.Add(func() error { order = append(order, 1); return nil })
	c.Add(func() error { order = append(order, 2); return boom })
	c.Add(nil)
	c.Add(func() error { order = append(order, 3); return nil })

	if err := c.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close() error = %v, want boom", err)
	}
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Fatalf("order = %v, want [3 2 1]", order)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestCleanupDisarm(t *testing.T) {
	ran := 0
	var c Cleanup
	c.Add(func() error { ran++; return nil })

	owned := c.Disarm()
	if err := c.Close(); err != nil || ran != 0 {
		t.Fatalf("disarmed Close ran %d funcs, err %v", ran, err)
	}
	if err := owned.Close(); err != nil || ran != 1 {
		t.Fatalf("owned Close ran %d funcs, err %v", ran, err)
	}
}
