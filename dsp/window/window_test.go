package window

import (
	"math"
	"testing"
)

func TestGenerateLengthAndFinite(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackmanHarris4Term} {
		w := Generate(typ, 64)
		if len(w) != 64 {
			t.Fatalf("%s: len=%d, want 64", typ, len(w))
		}
		for i, v := range w {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("%s: coefficient[%d] invalid: %v", typ, i, v)
			}
		}
	}
	if Generate(TypeHann, 0) != nil {
		t.Fatal("zero length must return nil")
	}
}

func TestHannSymmetricEndpoints(t *testing.T) {
	w := Generate(TypeHann, 9)
	if math.Abs(w[0]) > 1e-15 || math.Abs(w[8]) > 1e-15 {
		t.Fatalf("endpoints = %v, %v, want 0", w[0], w[8])
	}
	if math.Abs(w[4]-1) > 1e-15 {
		t.Fatalf("center = %v, want 1", w[4])
	}
	for i := range 4 {
		if math.Abs(w[i]-w[8-i]) > 1e-15 {
			t.Fatalf("asymmetric at %d: %v vs %v", i, w[i], w[8-i])
		}
	}
}

func TestPeriodicHannCoherentGain(t *testing.T) {
	w := Generate(TypeHann, 1024, WithPeriodic())
	if got := CoherentGain(w); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("coherent gain = %v, want 0.5", got)
	}
	if CoherentGain(nil) != 0 {
		t.Fatal("empty coherent gain must be 0")
	}
}

func TestParse(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackmanHarris4Term} {
		got, err := Parse(" " + typ.String() + " ")
		if err != nil || got != typ {
			t.Fatalf("Parse(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if _, err := Parse("kaiser"); err == nil {
		t.Fatal("expected error for unsupported window")
	}
}

func TestTextRoundTrip(t *testing.T) {
	text, err := TypeHamming.MarshalText()
	if err != nil || string(text) != "hamming" {
		t.Fatalf("MarshalText = %q, %v", text, err)
	}
	var typ Type
	if err := typ.UnmarshalText([]byte("BlackmanHarris")); err != nil || typ != TypeBlackmanHarris4Term {
		t.Fatalf("UnmarshalText = %v, %v", typ, err)
	}
	if err := typ.UnmarshalText([]byte("kaiser")); err == nil || typ != TypeBlackmanHarris4Term {
		t.Fatalf("failed UnmarshalText changed value to %v (err %v)", typ, err)
	}
}

func TestApplyCoefficientsInPlace(t *testing.T) {
	s := []float64{2, 4, 6}
	if err := ApplyCoefficientsInPlace(s, []float64{0.5, 0.25, 0}); err != nil {
		t.Fatalf("error = %v", err)
	}
	if s[0] != 1 || s[1] != 1 || s[2] != 0 {
		t.Fatalf("got %v", s)
	}
	if err := ApplyCoefficientsInPlace(s, []float64{1}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
