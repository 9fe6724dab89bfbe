package core

import (
	"math"
	"testing"
)

func TestSoftLimitCeiling(t *testing.T) {
	for _, x := range []float64{0.5, 0.91, 1, 2, 10, 1e6, math.MaxFloat64} {
		for _, s := range []float64{1, -1} {
			got := SoftLimit(s*x, 0.9, 0.1, 0.98)
			if math.Abs(got) > 0.98 {
				t.Fatalf("SoftLimit(%v) = %v exceeds 0.98", s*x, got)
			}
			if got*s < 0 {
				t.Fatalf("SoftLimit(%v) = %v flipped sign", s*x, got)
			}
		}
	}
}

func TestSoftLimitKnee(t *testing.T) {
	if got := SoftLimit(0.85, 0.9, 0.1, 0.98); got != 0.85 {
		t.Fatalf("below knee: got %v, want 0.85", got)
	}
	if got := SoftLimit(-1.4, 0.9, 0.1, 0.98); math.Abs(got+0.95) > 1e-12 {
		t.Fatalf("above knee: got %v, want -0.95", got)
	}
}

func TestHardLimit(t *testing.T) {
	if got := HardLimit(3, 0.95); got != 0.95 {
		t.Fatalf("HardLimit(3) = %v", got)
	}
	if got := HardLimit(-3, 0.95); got != -0.95 {
		t.Fatalf("HardLimit(-3) = %v", got)
	}
	if got := HardLimit(0.5, 0.95); got != 0.5 {
		t.Fatalf("HardLimit(0.5) = %v", got)
	}
}
