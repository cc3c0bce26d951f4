package codegen

import (
	"fmt"

	"github.com/IntuitionAmiga/aargon/ir"
)

// compileIntrinsic dispatches the handful of named intrinsics the lifter
// emits for condition evaluation (B.cond, CBZ/CBNZ, TBZ/TBNZ condense to a
// single boolean variable the terminator branches on). Unknown names are a
// lifter/codegen mismatch, not a guest-program condition, so they are a
// compile-time error rather than a runtime Exception.
func compileIntrinsic(inst ir.Inst, slotOf []int) (step, error) {
	dst := inst.Dst
	args := inst.IntrinsicArgs
	switch inst.IntrinsicName {
	case "cond_holds":
		condConst := args[0].Const.Lo
		cond := uint8(condConst)
		return func(ctx *Context) (*ir.Interrupt, error) {
			write(ctx, dst, slotOf, boolToU64(conditionHolds(cond, ctx.Flags.Get(ir.FlagZF), ctx.Flags.Get(ir.FlagCF), ctx.Flags.Get(ir.FlagOF))))
			return nil, nil
		}, nil
	case "is_zero":
		v := args[0]
		return func(ctx *Context) (*ir.Interrupt, error) {
			write(ctx, dst, slotOf, boolToU64(resolve(ctx, v, slotOf) == 0))
			return nil, nil
		}, nil
	case "bit_set":
		v, bitConst := args[0], args[1]
		bit := uint(bitConst.Const.Lo)
		return func(ctx *Context) (*ir.Interrupt, error) {
			write(ctx, dst, slotOf, boolToU64(resolve(ctx, v, slotOf)&(uint64(1)<<bit) != 0))
			return nil, nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown intrinsic %q", ErrInvalidType, inst.IntrinsicName)
	}
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// conditionHolds evaluates one of AArch64's 16 condition codes. The
// trimmed flag model tracks ZF/CF/OF but not the negative (N) flag; N is
// treated as always clear, so the six conditions that depend on it
// (MI/PL/GE/LT/GT/LE) are only exact when the compared result is
// non-negative. AL/NV are unconditional.
func conditionHolds(cond uint8, zf, cf, vf bool) bool {
	const n = false
	switch cond {
	case 0b0000: // EQ
		return zf
	case 0b0001: // NE
		return !zf
	case 0b0010: // CS/HS
		return cf
	case 0b0011: // CC/LO
		return !cf
	case 0b0100: // MI
		return n
	case 0b0101: // PL
		return !n
	case 0b0110: // VS
		return vf
	case 0b0111: // VC
		return !vf
	case 0b1000: // HI
		return cf && !zf
	case 0b1001: // LS
		return !(cf && !zf)
	case 0b1010: // GE
		return n == vf
	case 0b1011: // LT
		return n != vf
	case 0b1100: // GT
		return !zf && n == vf
	case 0b1101: // LE
		return !(!zf && n == vf)
	case 0b1110, 0b1111: // AL, NV
		return true
	default:
		return true
	}
}
