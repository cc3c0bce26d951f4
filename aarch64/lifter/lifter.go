package lifter

import (
	"fmt"

	"github.com/IntuitionAmiga/aargon/aarch64/decoder"
	"github.com/IntuitionAmiga/aargon/ir"
)

// UnsupportedError reports a decoded instruction this lifter has no
// translation rule for. The runtime driver turns this into a guest
// Exception rather than aborting the host process, since an undecodable
// or unimplemented opcode is a guest-program condition, not a host bug.
type UnsupportedError struct {
	Op decoder.Op
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("lifter: no rule for %s", decoder.Mnemonic(decoder.Instr{Op: e.Op}))
}

// zero64 is the constant carry-in operand for plain add/sub.
var (
	zero64 = ir.Imm(ir.ConstU64(0))
)

func shiftOp(shift decoder.ShiftType) func(dst, lhs, rhs ir.Value) ir.Inst {
	switch shift {
	case decoder.ShiftLSL:
		return ir.Shl
	case decoder.ShiftLSR:
		return ir.Lshr
	case decoder.ShiftASR:
		return ir.Ashr
	case decoder.ShiftROR:
		return ir.Rotr
	default:
		return ir.Shl
	}
}

// Lift translates instr, fetched from guest address pc, into IR appended to
// bb. Branches, SVC and BRK seal bb themselves; every other instruction
// leaves the block open, and the caller seals it once the fetch window runs
// out.
//
// Every non-branching instruction ends by emitting PC += 4 as an explicit
// IR Add, so the compiled block's PC register is always current without
// the runtime driver needing to special-case it.
func Lift(instr decoder.Instr, pc uint64, bb *ir.BasicBlock) error {
	is32 := decoder.Is32Bit(instr.Op)
	ty := width(is32)
	pcReg := ir.Reg(ir.B64, PCRegister)

	advancePC := func() {
		bb.Emit(ir.Add(pcReg, pcReg, ir.Imm(ir.ConstU64(4)), zero64, false))
	}

	switch instr.Op {
	case decoder.OpNop:
		advancePC()
		return nil

	case decoder.OpAddImm32, decoder.OpAddImm64, decoder.OpAddsImm32, decoder.OpAddsImm64,
		decoder.OpSubImm32, decoder.OpSubImm64, decoder.OpSubsImm32, decoder.OpSubsImm64:
		sub := instr.Op == decoder.OpSubImm32 || instr.Op == decoder.OpSubImm64 ||
			instr.Op == decoder.OpSubsImm32 || instr.Op == decoder.OpSubsImm64
		setFlags := instr.Op == decoder.OpAddsImm32 || instr.Op == decoder.OpAddsImm64 ||
			instr.Op == decoder.OpSubsImm32 || instr.Op == decoder.OpSubsImm64
		imm := uint64(instr.Imm12)
		if instr.Sh == 1 {
			imm <<= 12
		}
		rn := gpr(instr.Rn, ty)
		rd := gpr(instr.Rd, ty)
		operand := ir.Imm(immConstFor(ty, imm))
		if sub {
			bb.Emit(ir.Sub(rd, rn, operand, zero64, setFlags))
		} else {
			bb.Emit(ir.Add(rd, rn, operand, zero64, setFlags))
		}
		advancePC()
		return nil

	case decoder.OpAddShiftedReg32, decoder.OpAddShiftedReg64, decoder.OpAddsShiftedReg32, decoder.OpAddsShiftedReg64,
		decoder.OpSubShiftedReg32, decoder.OpSubShiftedReg64, decoder.OpSubsShiftedReg32, decoder.OpSubsShiftedReg64:
		sub := instr.Op == decoder.OpSubShiftedReg32 || instr.Op == decoder.OpSubShiftedReg64 ||
			instr.Op == decoder.OpSubsShiftedReg32 || instr.Op == decoder.OpSubsShiftedReg64
		setFlags := instr.Op == decoder.OpAddsShiftedReg32 || instr.Op == decoder.OpAddsShiftedReg64 ||
			instr.Op == decoder.OpSubsShiftedReg32 || instr.Op == decoder.OpSubsShiftedReg64
		rn := gpr(instr.Rn, ty)
		rd := gpr(instr.Rd, ty)
		shifted := shiftedOperand(instr, ty, bb)
		if sub {
			bb.Emit(ir.Sub(rd, rn, shifted, zero64, setFlags))
		} else {
			bb.Emit(ir.Add(rd, rn, shifted, zero64, setFlags))
		}
		advancePC()
		return nil

	case decoder.OpAndShiftedReg32, decoder.OpAndShiftedReg64,
		decoder.OpOrrShiftedReg32, decoder.OpOrrShiftedReg64,
		decoder.OpEorShiftedReg32, decoder.OpEorShiftedReg64,
		decoder.OpAndsShiftedReg32, decoder.OpAndsShiftedReg64:
		rn := gpr(instr.Rn, ty)
		rd := gpr(instr.Rd, ty)
		shifted := shiftedOperand(instr, ty, bb)
		switch instr.Op {
		case decoder.OpAndShiftedReg32, decoder.OpAndShiftedReg64,
			decoder.OpAndsShiftedReg32, decoder.OpAndsShiftedReg64:
			bb.Emit(ir.BitAnd(rd, rn, shifted))
		case decoder.OpOrrShiftedReg32, decoder.OpOrrShiftedReg64:
			bb.Emit(ir.BitOr(rd, rn, shifted))
		case decoder.OpEorShiftedReg32, decoder.OpEorShiftedReg64:
			bb.Emit(ir.BitXor(rd, rn, shifted))
		}
		advancePC()
		return nil

	case decoder.OpMovz32, decoder.OpMovz64:
		rd := gpr(instr.Rd, ty)
		bb.Emit(ir.Assign(rd, ir.Imm(immConstFor(ty, uint64(instr.Imm16)<<instr.Hw))))
		advancePC()
		return nil

	case decoder.OpMovn32, decoder.OpMovn64:
		rd := gpr(instr.Rd, ty)
		val := ^(uint64(instr.Imm16) << instr.Hw)
		if ty.Equal(ir.B32) {
			val &= 0xFFFFFFFF
		}
		bb.Emit(ir.Assign(rd, ir.Imm(immConstFor(ty, val))))
		advancePC()
		return nil

	case decoder.OpMovk32, decoder.OpMovk64:
		rd := gpr(instr.Rd, ty)
		mask := ^(uint64(0xFFFF) << instr.Hw)
		if ty.Equal(ir.B32) {
			mask &= 0xFFFFFFFF
		}
		cleared := bb.FreshVar(ty)
		bb.Emit(ir.BitAnd(cleared, rd, ir.Imm(immConstFor(ty, mask))))
		bb.Emit(ir.BitOr(rd, cleared, ir.Imm(immConstFor(ty, uint64(instr.Imm16)<<instr.Hw))))
		advancePC()
		return nil

	case decoder.OpAdr:
		rd := gpr(instr.Rd, ir.B64)
		target := int64(pc) + instr.ImmLoHi
		bb.Emit(ir.Assign(rd, ir.Imm(ir.ConstU64(uint64(target)))))
		advancePC()
		return nil

	case decoder.OpAdrp:
		rd := gpr(instr.Rd, ir.B64)
		target := (int64(pc) &^ 0xFFF) + instr.ImmLoHi<<12
		bb.Emit(ir.Assign(rd, ir.Imm(ir.ConstU64(uint64(target)))))
		advancePC()
		return nil

	case decoder.OpLdrb, decoder.OpLdrh, decoder.OpLdrw, decoder.OpLdrx,
		decoder.OpStrb, decoder.OpStrh, decoder.OpStrw, decoder.OpStrx:
		return liftLoadStore(instr, bb, advancePC)

	case decoder.OpB:
		bb.Seal(ir.Branch(uint64(int64(pc) + int64(instr.Imm26)*4)))
		return nil

	case decoder.OpBl:
		link := gpr(30, ir.B64)
		bb.Emit(ir.Assign(link, ir.Imm(ir.ConstU64(pc+4))))
		bb.Seal(ir.Branch(uint64(int64(pc) + int64(instr.Imm26)*4)))
		return nil

	case decoder.OpBCond:
		cond := bb.FreshVar(ir.Bool)
		bb.Emit(ir.Intrinsic(cond, "cond_holds", ir.Imm(ir.ConstU8(instr.Cond))))
		bb.Seal(ir.BranchCond(cond, uint64(int64(pc)+int64(instr.Imm19)*4), pc+4))
		return nil

	case decoder.OpCbz32, decoder.OpCbz64, decoder.OpCbnz32, decoder.OpCbnz64:
		rt := gpr(instr.Rt, width(instr.Op == decoder.OpCbz32 || instr.Op == decoder.OpCbnz32))
		isZero := bb.FreshVar(ir.Bool)
		bb.Emit(ir.Intrinsic(isZero, "is_zero", rt))
		taken := uint64(int64(pc) + int64(instr.Imm19)*4)
		fallthrough_ := pc + 4
		if instr.Op == decoder.OpCbz32 || instr.Op == decoder.OpCbz64 {
			bb.Seal(ir.BranchCond(isZero, taken, fallthrough_))
		} else {
			bb.Seal(ir.BranchCond(isZero, fallthrough_, taken))
		}
		return nil

	case decoder.OpTbz, decoder.OpTbnz:
		rt := gpr(instr.Rt, ir.B64)
		bit := bb.FreshVar(ir.Bool)
		bb.Emit(ir.Intrinsic(bit, "bit_set", rt, ir.Imm(ir.ConstU8(instr.Imm6))))
		taken := uint64(int64(pc) + int64(instr.Imm14)*4)
		fallthrough_ := pc + 4
		if instr.Op == decoder.OpTbz {
			bb.Seal(ir.BranchCond(bit, fallthrough_, taken))
		} else {
			bb.Seal(ir.BranchCond(bit, taken, fallthrough_))
		}
		return nil

	case decoder.OpBr:
		bb.Seal(ir.BranchIndirect(gpr(instr.Rn, ir.B64)))
		return nil

	case decoder.OpBlr:
		link := gpr(30, ir.B64)
		bb.Emit(ir.Assign(link, ir.Imm(ir.ConstU64(pc+4))))
		bb.Seal(ir.BranchIndirect(gpr(instr.Rn, ir.B64)))
		return nil

	case decoder.OpRet:
		bb.Seal(ir.BranchIndirect(gpr(instr.Rn, ir.B64)))
		return nil

	case decoder.OpSvc:
		bb.Emit(ir.MakeInterrupt(ir.SystemCall(uint64(instr.Imm16))))
		advancePC()
		bb.Seal(ir.Next())
		return nil

	case decoder.OpBrk:
		bb.Emit(ir.MakeInterrupt(ir.Exception(uint64(instr.Imm16))))
		advancePC()
		bb.Seal(ir.Next())
		return nil

	default:
		return &UnsupportedError{Op: instr.Op}
	}
}

func immConstFor(ty ir.Type, v uint64) ir.Constant {
	if ty.Equal(ir.B32) {
		return ir.ConstU32(uint32(v))
	}
	return ir.ConstU64(v)
}

// shiftedOperand materializes Rm shifted by imm6, the second operand of
// every shifted-register data-processing instruction.
func shiftedOperand(instr decoder.Instr, ty ir.Type, bb *ir.BasicBlock) ir.Value {
	rm := gpr(instr.Rm, ty)
	if instr.Imm6 == 0 {
		return rm
	}
	dst := bb.FreshVar(ty)
	amount := ir.Imm(immConstFor(ty, uint64(instr.Imm6)))
	bb.Emit(shiftOp(instr.Shift)(dst, rm, amount))
	return dst
}

// liftLoadStore handles the unsigned-offset imm12 and unscaled imm9
// addressing families this decoder's simplified load/store layout
// produces, computing the effective address as an explicit IR Add before
// the memory access. Only the post-indexed imm9 form writes the updated
// address back to the base register; the other imm9 form uses base+imm9 as
// the address and leaves the base unchanged.
func liftLoadStore(instr decoder.Instr, bb *ir.BasicBlock, advancePC func()) error {
	var dataTy ir.Type
	switch instr.Op {
	case decoder.OpLdrb, decoder.OpStrb:
		dataTy = ir.B8
	case decoder.OpLdrh, decoder.OpStrh:
		dataTy = ir.B16
	case decoder.OpLdrw, decoder.OpStrw:
		dataTy = ir.B32
	case decoder.OpLdrx, decoder.OpStrx:
		dataTy = ir.B64
	}
	isLoad := instr.Op == decoder.OpLdrb || instr.Op == decoder.OpLdrh ||
		instr.Op == decoder.OpLdrw || instr.Op == decoder.OpLdrx

	base := gpr(instr.Rn, ir.B64)
	var offset int64
	if instr.Unscaled {
		offset = int64(instr.Imm9)
	} else {
		offset = int64(instr.Imm12) * int64(dataTy.SizeOf())
	}

	preAddr := bb.FreshVar(ir.B64)
	bb.Emit(ir.Add(preAddr, base, ir.Imm(ir.ConstU64(uint64(offset))), zero64, false))

	var addr ir.Value
	if instr.Unscaled && instr.PostIndex {
		addr = base
	} else {
		addr = preAddr
	}

	rt := gpr(instr.Rt, dataTy)
	if isLoad {
		bb.Emit(ir.Load(rt, addr))
	} else {
		bb.Emit(ir.Store(addr, rt))
	}

	if instr.Unscaled && instr.PostIndex {
		bb.Emit(ir.Assign(base, preAddr))
	}

	advancePC()
	return nil
}
