package bitutil

import "testing"

func TestExtractBits(t *testing.T) {
	// 0x91000C21: sf=1 (bit31), op=0 (bit30), S=0 (bit29), imm12=3 (bits 21:10)
	word := uint32(0x91000C21)
	if got := ExtractBits32(word, 31, 31); got != 1 {
		t.Fatalf("sf: got %d want 1", got)
	}
	if got := ExtractBits32(word, 30, 30); got != 0 {
		t.Fatalf("op: got %d want 0", got)
	}
	if got := ExtractBits32(word, 10, 21); got != 3 {
		t.Fatalf("imm12: got %d want 3", got)
	}
	if got := ExtractBits32(word, 5, 9); got != 1 {
		t.Fatalf("rn: got %d want 1", got)
	}
	if got := ExtractBits32(word, 0, 4); got != 1 {
		t.Fatalf("rd: got %d want 1", got)
	}
}

func TestExtractBitsFullWidth(t *testing.T) {
	if got := ExtractBits(0xFFFFFFFFFFFFFFFF, 0, 63); got != 0xFFFFFFFFFFFFFFFF {
		t.Fatalf("got %#x", got)
	}
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		v     uint64
		bits  uint8
		want  int64
	}{
		{0x1, 4, 1},
		{0xF, 4, -1},
		{0x7FF, 12, 0x7FF},
		{0xFFF, 12, -1},
		{0, 8, 0},
	}
	for _, c := range cases {
		if got := SignExtend(c.v, c.bits); got != c.want {
			t.Fatalf("SignExtend(%#x, %d) = %d want %d", c.v, c.bits, got, c.want)
		}
	}
}

func TestReaderRead32LittleEndian(t *testing.T) {
	buf := []byte{0x21, 0x0C, 0x00, 0x91, 0xAA}
	r := NewReader(buf)
	v, ok := r.Read32()
	if !ok || v != 0x91000C21 {
		t.Fatalf("got %#x ok=%v want 0x91000c21", v, ok)
	}
	if r.Remaining() != 1 {
		t.Fatalf("remaining = %d want 1", r.Remaining())
	}
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, ok := r.Read32(); ok {
		t.Fatal("expected short read to fail")
	}
}

func TestPutGet32RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	Put32LE(buf, 2, 0xDEADBEEF)
	if got := Get32LE(buf, 2); got != 0xDEADBEEF {
		t.Fatalf("got %#x", got)
	}
}

func TestPutGet64RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	Put64LE(buf, 0, 0x0123456789ABCDEF)
	if got := Get64LE(buf, 0); got != 0x0123456789ABCDEF {
		t.Fatalf("got %#x", got)
	}
}
