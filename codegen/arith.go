package codegen

import "math/bits"

// addWithFlags computes (a + b + carry) truncated to width bits, along
// with the ZF/CF/OF flags AArch64's ADDS would set for that result.
//
// CF is the carry out of bit (width-1), not bit 63: for mask == ^uint64(0)
// (a 64-bit op) the unmasked sum can wrap the full uint64 range, so the
// carry-out has to come from bits.Add64's own overflow bit rather than from
// comparing the (already-wrapped) sum against mask.
func addWithFlags(a, b, carry, mask uint64) (result uint64, zf, cf, of bool) {
	sum, carryOut := bits.Add64(a, b, carry)
	result = sum & mask
	if mask == ^uint64(0) {
		cf = carryOut != 0
	} else {
		cf = sum > mask
	}
	signBit := (mask >> 1) + 1
	aSign := a&signBit != 0
	bSign := b&signBit != 0
	rSign := result&signBit != 0
	of = aSign == bSign && rSign != aSign
	zf = result == 0
	return result, zf, cf, of
}

// subWithFlags computes (a - b - borrow) truncated to width bits per the
// AArch64 convention of lowering SUB as an add of the bitwise-inverted
// operand: CF is set when no borrow occurred (a >= b + borrow).
func subWithFlags(a, b, borrow, mask uint64) (result uint64, zf, cf, of bool) {
	notB := (^b) & mask
	return addWithFlags(a, notB, 1-borrow, mask)
}
