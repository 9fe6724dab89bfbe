package testutil

import (
	"fmt"
	"math"
	"testing"
)

// InterleavedProcessor is the in-place processing shape shared by every
// effect stage.
type InterleavedProcessor interface {
	Process(buf []float64, channels int)
}

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireIdentical fails t unless got and want have identical bit patterns.
func RequireIdentical(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Float64bits(got[i]) != math.Float64bits(want[i]) {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireCeiling fails t if any element's magnitude exceeds ceiling.
func RequireCeiling(t *testing.T, data []float64, ceiling float64) {
	t.Helper()
	for i, v := range data {
		if math.Abs(v) > ceiling {
			t.Fatalf("index %d: |%v| exceeds ceiling %v", i, v, ceiling)
		}
	}
}

// RequireContinuous fails t unless processing input as two consecutive
// halves on one stage matches processing it in a single call on another.
// Both stages must start from identical state.
func RequireContinuous(t *testing.T, split, whole InterleavedProcessor, input []float64, channels int) {
	t.Helper()
	frames := len(input) / channels
	half := (frames / 2) * channels

	got := append([]float64(nil), input...)
	split.Process(got[:half], channels)
	split.Process(got[half:], channels)

	want := append([]float64(nil), input...)
	whole.Process(want, channels)

	RequireSliceNearlyEqual(t, got, want, 1e-12)
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
