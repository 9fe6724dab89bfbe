package audioio

import (
	"bytes"
	"testing"
)

func TestRingWriteRead(t *testing.T) {
	r, err := NewRing(8)
	if err != nil {
		t.Fatalf("NewRing() error = %v", err)
	}
	if n := r.Write([]byte{1, 2, 3, 4, 5, 6}); n != 6 {
		t.Fatalf("Write() = %d, want 6", n)
	}
	if r.Len() != 6 || r.Free() != 2 {
		t.Fatalf("Len/Free = %d/%d, want 6/2", r.Len(), r.Free())
	}
	if n := r.Write([]byte{7, 8, 9}); n != 2 {
		t.Fatalf("overfull Write() = %d, want 2", n)
	}
	if r.Overruns() != 1 {
		t.Fatalf("Overruns() = %d, want 1", r.Overruns())
	}

	p := make([]byte, 5)
	if n, err := r.Read(p); n != 5 || err != nil {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	if !bytes.Equal(p, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("read %v", p)
	}

	r.Write([]byte{10, 11})
	p = make([]byte, 8)
	r.Read(p)
	if !bytes.Equal(p, []byte{6, 7, 8, 10, 11, 0, 0, 0}) {
		t.Fatalf("wrapped read %v", p)
	}
	if r.Underruns() != 1 {
		t.Fatalf("Underruns() = %d, want 1", r.Underruns())
	}
}

func TestRingSilentBeforeFirstWrite(t *testing.T) {
	r, _ := NewRing(4)
	p := []byte{9, 9, 9}
	r.Read(p)
	if !bytes.Equal(p, []byte{0, 0, 0}) {
		t.Fatalf("read %v, want silence", p)
	}
	if r.Underruns() != 0 {
		t.Fatal("startup silence counted as underrun")
	}
	if _, err := NewRing(6); err == nil {
		t.Fatal("expected error for non power of two")
	}
}

func TestRingSize(t *testing.T) {
	for _, tc := range []struct{ want, got int }{{1, 2}, {2, 2}, {3, 4}, {15360, 16384}, {16384, 16384}} {
		if g := RingSize(tc.want); g != tc.got {
			t.Fatalf("RingSize(%d) = %d, want %d", tc.want, g, tc.got)
		}
	}
}
