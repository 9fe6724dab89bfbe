package audioio

import (
	"math"
	"testing"
	"time"
)

func TestStrummerProducesBoundedSignal(t *testing.T) {
	s, err := NewStrummer(48000, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStrummer() error = %v", err)
	}
	buf := make([]float64, 2*48000)
	s.Fill(buf, 2)

	peak := 0.0
	for i := 0; i < len(buf); i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("frame %d channels differ: %v vs %v", i/2, buf[i], buf[i+1])
		}
		if math.IsNaN(buf[i]) || math.IsInf(buf[i], 0) {
			t.Fatalf("frame %d not finite: %v", i/2, buf[i])
		}
		peak = math.Max(peak, math.Abs(buf[i]))
	}
	if peak == 0 {
		t.Fatal("strummer is silent")
	}
	if peak > 6*stringGain*pluckAmplitude/(1-stringFeedback) {
		t.Fatalf("peak %v exceeds bound", peak)
	}
}

func TestStrummerRejectsInvalid(t *testing.T) {
	if _, err := NewStrummer(0, time.Second); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := NewStrummer(48000, 0); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
