package codegen

import "testing"

func TestSubWithFlags64BitNoBorrowSetsCarry(t *testing.T) {
	mask := ^uint64(0)
	_, _, cf, _ := subWithFlags(5, 3, 0, mask)
	if !cf {
		t.Fatal("5-3 at width 64 has no borrow, CF must be set")
	}
}

func TestSubWithFlags64BitBorrowClearsCarry(t *testing.T) {
	mask := ^uint64(0)
	_, _, cf, _ := subWithFlags(3, 5, 0, mask)
	if cf {
		t.Fatal("3-5 at width 64 borrows, CF must be clear")
	}
}

func TestAddWithFlags64BitOverflowSetsCarry(t *testing.T) {
	mask := ^uint64(0)
	_, _, cf, _ := addWithFlags(mask, 1, 0, mask)
	if !cf {
		t.Fatal("max_uint64 + 1 must carry out at width 64")
	}
}

func TestAddWithFlags32BitCarryStillDetected(t *testing.T) {
	mask := uint64(0xFFFFFFFF)
	_, _, cf, _ := addWithFlags(mask, 1, 0, mask)
	if !cf {
		t.Fatal("0xFFFFFFFF + 1 must carry out at width 32")
	}
	_, _, cf, _ = addWithFlags(1, 1, 0, mask)
	if cf {
		t.Fatal("1 + 1 must not carry out at width 32")
	}
}
