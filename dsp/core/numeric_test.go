package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWrapPhase(t *testing.T) {
	if got := WrapPhase(2 * math.Pi); got != 0 {
		t.Fatalf("WrapPhase(2π) = %v, want 0", got)
	}
	if got := WrapPhase(1); got != 1 {
		t.Fatalf("WrapPhase(1) = %v, want 1", got)
	}
	got := WrapPhase(2*math.Pi + 0.25)
	if math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("WrapPhase(2π+0.25) = %v, want 0.25", got)
	}
	got = WrapPhase(-0.5)
	if math.Abs(got-(2*math.Pi-0.5)) > 1e-12 {
		t.Fatalf("WrapPhase(-0.5) = %v, want 2π-0.5", got)
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 {
		t.Fatal("expected tiny value to flush to zero")
	}
	if FlushDenormals(-1e-3) != -1e-3 {
		t.Fatal("expected regular value to pass through")
	}
}

func TestDBConversions(t *testing.T) {
	linear := DBToLinear(-6)
	db := LinearToDB(linear)
	if math.Abs(db+6) > 1e-10 {
		t.Fatalf("LinearToDB(DBToLinear(-6)) = %v, want -6", db)
	}
	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}
	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("expected NaN for negative amplitude")
	}
}

func TestIsFinite(t *testing.T) {
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) {
		t.Fatal("expected non-finite values to be rejected")
	}
	if !IsFinite(-3.5) {
		t.Fatal("expected finite value to be accepted")
	}
}
