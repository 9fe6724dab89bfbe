package core

import (
	"testing"
)

func TestDeinterleaveInterleaveRoundTrip(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5, 6}
	left := make([]float64, 3)
	right := make([]float64, 3)

	if n := Deinterleave(left, buf, 2, 0); n != 3 {
		t.Fatalf("Deinterleave() = %d, want 3", n)
	}
	Deinterleave(right, buf, 2, 1)
	if left[2] != 5 || right[0] != 2 {
		t.Fatalf("unexpected channels: left=%v right=%v", left, right)
	}

	left[1] = -3
	Interleave(buf, left, 2, 0)
	if buf[2] != -3 {
		t.Fatalf("Interleave() did not write frame 1: %v", buf)
	}
}

func TestMirrorStereo(t *testing.T) {
	buf := []float64{
		1, 2, 0, 0, 0,
		3, 4, 0, 0, 0,
	}
	MirrorStereo(buf, 5)
	want := []float64{1, 2, 1, 2, 1, 3, 4, 3, 4, 3}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestFloat32LERoundTrip(t *testing.T) {
	src := []float64{0.5, -0.25, 1}
	raw := make([]byte, len(src)*4)
	if n := EncodeFloat32LE(raw, src); n != 3 {
		t.Fatalf("EncodeFloat32LE() = %d, want 3", n)
	}
	dst := make([]float64, 3)
	DecodeFloat32LE(dst, raw)
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("index %d: got %v, want %v", i, dst[i], src[i])
		}
	}
}

func TestEnsureLenReusesCapacity(t *testing.T) {
	buf := make([]float64, 2, 8)
	got := EnsureLen(buf, 6)
	if len(got) != 6 || cap(got) != 8 {
		t.Fatalf("EnsureLen() len=%d cap=%d, want len=6 cap=8", len(got), cap(got))
	}
	if got := EnsureLen(buf, 16); len(got) != 16 {
		t.Fatalf("EnsureLen() len=%d, want 16", len(got))
	}
}
