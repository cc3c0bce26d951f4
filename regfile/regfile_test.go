package regfile

import (
	"testing"

	"github.com/IntuitionAmiga/aargon/ir"
)

func TestSetGetRoundTrip64(t *testing.T) {
	order := []ir.RawRegisterID{0, 1}
	desc := NewDesc(order, func(ir.RawRegisterID) int { return 8 }, func(ir.RawRegisterID) bool { return false })
	f := New(desc)

	f.Set64(0, 8, 0xDEADBEEFCAFEBABE)
	if got := f.Get64(0, 8); got != 0xDEADBEEFCAFEBABE {
		t.Fatalf("got %#x", got)
	}
}

func TestNarrowWriteZeroExtends(t *testing.T) {
	order := []ir.RawRegisterID{0}
	desc := NewDesc(order, func(ir.RawRegisterID) int { return 8 }, func(ir.RawRegisterID) bool { return false })
	f := New(desc)

	f.Set64(0, 8, 0xFFFFFFFFFFFFFFFF)
	f.Set64(0, 4, 0x1) // W-register write zero-extends into the upper 32 bits
	if got := f.Get64(0, 8); got != 1 {
		t.Fatalf("got %#x, want 1 (upper bits cleared)", got)
	}
}

func TestReadOnlyRegisterPanicsOnSet(t *testing.T) {
	order := []ir.RawRegisterID{0}
	desc := NewDesc(order, func(ir.RawRegisterID) int { return 8 }, func(ir.RawRegisterID) bool { return true })
	f := New(desc)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic writing a read-only register")
		}
	}()
	f.Set64(0, 8, 1)
}

func TestFlagBank(t *testing.T) {
	var b FlagBank
	b.Set(ir.FlagZF, true)
	if !b.Get(ir.FlagZF) {
		t.Fatal("expected ZF set")
	}
	if b.Get(ir.FlagCF) {
		t.Fatal("expected CF clear")
	}
}
