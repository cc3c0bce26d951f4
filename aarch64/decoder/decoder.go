package decoder

import "github.com/IntuitionAmiga/aargon/bitutil"

// Decode matches the leading 4 bytes of buf against the decode table in
// declaration order and returns the first rule that fires. ok is false if
// fewer than 4 bytes remain or no rule matches; the caller (the runtime
// driver) turns an unmatched word into a guest Exception rather than
// panicking, since a malformed guest binary is an expected failure mode,
// not a host bug.
func Decode(buf []byte) (instr Instr, ok bool) {
	r := bitutil.NewReader(buf)
	word, haveWord := r.Read32()
	if !haveWord {
		return Instr{}, false
	}
	for _, rl := range decodeTable {
		if rl.pat.test(word) {
			return rl.decode(word), true
		}
	}
	return Instr{}, false
}

// PCRegister is the raw register id the architecture reserves for the
// program counter. It is not part of the 31 general-purpose registers and
// has no encoding as an Rd/Rn/Rm/Rt field.
const PCRegister = 32

// ZeroRegister is the encoding of X31/W31 (XZR/WZR) in an Rn/Rm/Rd field.
// The lifter does not special-case it: register 31 is lifted as the single
// storage slot it shares with SP, so reads of it are not forced to zero and
// writes to it are not discarded.
const ZeroRegister = 31

// Mnemonic renders a short, debugger-style name for instr.Op, independent
// of operand values.
func Mnemonic(instr Instr) string {
	switch instr.Op {
	case OpNop:
		return "nop"
	case OpAddImm32, OpAddImm64:
		return "add"
	case OpAddsImm32, OpAddsImm64:
		return "adds"
	case OpSubImm32, OpSubImm64:
		return "sub"
	case OpSubsImm32, OpSubsImm64:
		return "subs"
	case OpAddShiftedReg32, OpAddShiftedReg64:
		return "add"
	case OpAddsShiftedReg32, OpAddsShiftedReg64:
		return "adds"
	case OpSubShiftedReg32, OpSubShiftedReg64:
		return "sub"
	case OpSubsShiftedReg32, OpSubsShiftedReg64:
		return "subs"
	case OpAndShiftedReg32, OpAndShiftedReg64:
		return "and"
	case OpOrrShiftedReg32, OpOrrShiftedReg64:
		return "orr"
	case OpEorShiftedReg32, OpEorShiftedReg64:
		return "eor"
	case OpAndsShiftedReg32, OpAndsShiftedReg64:
		return "ands"
	case OpMovz32, OpMovz64:
		return "movz"
	case OpMovn32, OpMovn64:
		return "movn"
	case OpMovk32, OpMovk64:
		return "movk"
	case OpAdr:
		return "adr"
	case OpAdrp:
		return "adrp"
	case OpLdrb, OpLdrh, OpLdrw, OpLdrx:
		return "ldr"
	case OpStrb, OpStrh, OpStrw, OpStrx:
		return "str"
	case OpB:
		return "b"
	case OpBl:
		return "bl"
	case OpBCond:
		return "b.cond"
	case OpCbz32, OpCbz64:
		return "cbz"
	case OpCbnz32, OpCbnz64:
		return "cbnz"
	case OpTbz:
		return "tbz"
	case OpTbnz:
		return "tbnz"
	case OpBr:
		return "br"
	case OpBlr:
		return "blr"
	case OpRet:
		return "ret"
	case OpSvc:
		return "svc"
	case OpBrk:
		return "brk"
	default:
		return "unknown"
	}
}

// Is32Bit reports whether op operates on the 32-bit (W-register) view of
// its operands rather than the 64-bit (X-register) view.
func Is32Bit(op Op) bool {
	switch op {
	case OpAddImm32, OpAddsImm32, OpSubImm32, OpSubsImm32,
		OpAddShiftedReg32, OpAddsShiftedReg32, OpSubShiftedReg32, OpSubsShiftedReg32,
		OpAndShiftedReg32, OpOrrShiftedReg32, OpEorShiftedReg32, OpAndsShiftedReg32,
		OpMovz32, OpMovn32, OpMovk32, OpCbz32, OpCbnz32:
		return true
	default:
		return false
	}
}
