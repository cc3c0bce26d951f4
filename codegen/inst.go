package codegen

import (
	"fmt"

	"github.com/IntuitionAmiga/aargon/bitutil"
	"github.com/IntuitionAmiga/aargon/ir"
)

func compileInst(inst ir.Inst, slotOf []int) (step, error) {
	switch inst.Op {
	case ir.OpAdd:
		return compileAddSub(inst, slotOf, false)
	case ir.OpSub:
		return compileAddSub(inst, slotOf, true)
	case ir.OpMul:
		return compileBinary(inst, slotOf, func(a, b uint64) uint64 { return a * b }), nil
	case ir.OpDiv:
		return compileDivRem(inst, slotOf, false), nil
	case ir.OpRem:
		return compileDivRem(inst, slotOf, true), nil
	case ir.OpBitAnd:
		return compileBinary(inst, slotOf, func(a, b uint64) uint64 { return a & b }), nil
	case ir.OpBitOr:
		return compileBinary(inst, slotOf, func(a, b uint64) uint64 { return a | b }), nil
	case ir.OpBitXor:
		return compileBinary(inst, slotOf, func(a, b uint64) uint64 { return a ^ b }), nil
	case ir.OpBitNot:
		return compileUnary(inst, slotOf, func(a uint64) uint64 { return ^a }), nil
	case ir.OpShl:
		return compileShift(inst, slotOf, func(a uint64, n, bits uint) uint64 { return a << n }), nil
	case ir.OpLshr:
		return compileShift(inst, slotOf, func(a uint64, n, bits uint) uint64 { return a >> n }), nil
	case ir.OpAshr:
		return compileShift(inst, slotOf, arithmeticShiftRight), nil
	case ir.OpRotr:
		return compileShift(inst, slotOf, rotateRight), nil
	case ir.OpZextCast:
		return compileUnary(inst, slotOf, func(a uint64) uint64 { return a }), nil
	case ir.OpSextCast:
		return compileSext(inst, slotOf), nil
	case ir.OpLoad:
		return compileLoad(inst, slotOf), nil
	case ir.OpStore:
		return compileStore(inst, slotOf), nil
	case ir.OpAssign:
		return compileUnary(inst, slotOf, func(a uint64) uint64 { return a }), nil
	case ir.OpMoveFlag:
		return compileMoveFlag(inst, slotOf), nil
	case ir.OpFence:
		return func(ctx *Context) (*ir.Interrupt, error) { return nil, nil }, nil
	case ir.OpInterrupt:
		interrupt := inst.Interrupt
		return func(ctx *Context) (*ir.Interrupt, error) { return &interrupt, nil }, nil
	case ir.OpIntrinsic:
		return compileIntrinsic(inst, slotOf)
	default:
		return nil, fmt.Errorf("%w: op %s", ErrInvalidType, inst.Op)
	}
}

func compileAddSub(inst ir.Inst, slotOf []int, sub bool) (step, error) {
	dst, lhs, rhs, carryIn := inst.Dst, inst.Lhs, inst.Rhs, inst.CarryIn
	mask := maskFor(dst.Ty)
	setFlags := inst.SetFlags
	return func(ctx *Context) (*ir.Interrupt, error) {
		a := resolve(ctx, lhs, slotOf)
		b := resolve(ctx, rhs, slotOf)
		carry := resolve(ctx, carryIn, slotOf) & 1
		var result uint64
		var zf, cf, of bool
		if sub {
			result, zf, cf, of = subWithFlags(a, b, carry, mask)
		} else {
			result, zf, cf, of = addWithFlags(a, b, carry, mask)
		}
		write(ctx, dst, slotOf, result)
		if setFlags {
			ctx.Flags.Set(ir.FlagZF, zf)
			ctx.Flags.Set(ir.FlagCF, cf)
			ctx.Flags.Set(ir.FlagOF, of)
		}
		return nil, nil
	}, nil
}

func compileBinary(inst ir.Inst, slotOf []int, f func(a, b uint64) uint64) step {
	dst, lhs, rhs := inst.Dst, inst.Lhs, inst.Rhs
	return func(ctx *Context) (*ir.Interrupt, error) {
		a := resolve(ctx, lhs, slotOf)
		b := resolve(ctx, rhs, slotOf)
		write(ctx, dst, slotOf, f(a, b))
		return nil, nil
	}
}

func compileUnary(inst ir.Inst, slotOf []int, f func(a uint64) uint64) step {
	dst, lhs := inst.Dst, inst.Lhs
	return func(ctx *Context) (*ir.Interrupt, error) {
		a := resolve(ctx, lhs, slotOf)
		write(ctx, dst, slotOf, f(a))
		return nil, nil
	}
}

func compileDivRem(inst ir.Inst, slotOf []int, rem bool) step {
	dst, lhs, rhs := inst.Dst, inst.Lhs, inst.Rhs
	return func(ctx *Context) (*ir.Interrupt, error) {
		a := resolve(ctx, lhs, slotOf)
		b := resolve(ctx, rhs, slotOf)
		if b == 0 {
			interrupt := ir.Exception(0)
			return &interrupt, nil
		}
		if rem {
			write(ctx, dst, slotOf, a%b)
		} else {
			write(ctx, dst, slotOf, a/b)
		}
		return nil, nil
	}
}

func arithmeticShiftRight(a uint64, n, bits uint) uint64 {
	signBit := uint64(1) << (bits - 1)
	negative := a&signBit != 0
	shifted := a >> n
	if !negative || n == 0 {
		return shifted
	}
	highMask := (^uint64(0) << (bits - n)) & maskForBits(bits)
	return shifted | highMask
}

func rotateRight(a uint64, n, bits uint) uint64 {
	n %= bits
	if n == 0 {
		return a
	}
	m := maskForBits(bits)
	a &= m
	return ((a >> n) | (a << (bits - n))) & m
}

func maskForBits(bits uint) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

func compileShift(inst ir.Inst, slotOf []int, f func(a uint64, n, bits uint) uint64) step {
	dst, lhs, rhs := inst.Dst, inst.Lhs, inst.Rhs
	bits := uint(dst.Ty.SizeOf() * 8)
	return func(ctx *Context) (*ir.Interrupt, error) {
		a := resolve(ctx, lhs, slotOf)
		n := uint(resolve(ctx, rhs, slotOf)) % bits
		write(ctx, dst, slotOf, f(a, n, bits))
		return nil, nil
	}
}

func compileSext(inst ir.Inst, slotOf []int) step {
	dst, lhs := inst.Dst, inst.Lhs
	fromBits := uint8(lhs.Ty.SizeOf() * 8)
	return func(ctx *Context) (*ir.Interrupt, error) {
		a := resolve(ctx, lhs, slotOf)
		write(ctx, dst, slotOf, uint64(bitutil.SignExtend(a, fromBits)))
		return nil, nil
	}
}

func compileLoad(inst ir.Inst, slotOf []int) step {
	dst, addrVal := inst.Dst, inst.Lhs
	size := dst.Ty.SizeOf()
	return func(ctx *Context) (*ir.Interrupt, error) {
		addr := resolve(ctx, addrVal, slotOf)
		buf := make([]byte, size)
		if err := ctx.Mem.ReadAt(addr, buf); err != nil {
			interrupt := ir.Exception(uint64(addr))
			return &interrupt, nil
		}
		var v uint64
		for i := 0; i < size; i++ {
			v |= uint64(buf[i]) << (8 * i)
		}
		write(ctx, dst, slotOf, v)
		return nil, nil
	}
}

func compileStore(inst ir.Inst, slotOf []int) step {
	addrVal, valueVal := inst.Dst, inst.Lhs
	size := valueVal.Ty.SizeOf()
	return func(ctx *Context) (*ir.Interrupt, error) {
		addr := resolve(ctx, addrVal, slotOf)
		v := resolve(ctx, valueVal, slotOf)
		buf := make([]byte, size)
		for i := 0; i < size; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		if err := ctx.Mem.WriteAt(addr, buf); err != nil {
			interrupt := ir.Exception(uint64(addr))
			return &interrupt, nil
		}
		return nil, nil
	}
}

func compileMoveFlag(inst ir.Inst, slotOf []int) step {
	dst, pos, flag := inst.Dst, inst.DstPos, inst.FlagID
	return func(ctx *Context) (*ir.Interrupt, error) {
		cur := resolve(ctx, dst, slotOf)
		bit := uint64(0)
		if ctx.Flags.Get(flag) {
			bit = 1
		}
		cleared := cur &^ (1 << pos)
		write(ctx, dst, slotOf, cleared|(bit<<pos))
		return nil, nil
	}
}

func compileTerminator(term ir.Terminator, slotOf []int, pcReg ir.RawRegisterID) (func(ctx *Context) (uint64, error), error) {
	switch term.Kind {
	case ir.TermNext:
		return func(ctx *Context) (uint64, error) {
			return ctx.Regs.Get64(pcReg, 8), nil
		}, nil
	case ir.TermBranch:
		if term.IsIndirect {
			target := term.TargetReg
			return func(ctx *Context) (uint64, error) {
				return resolve(ctx, target, slotOf), nil
			}, nil
		}
		t := term.Target
		return func(ctx *Context) (uint64, error) { return t, nil }, nil
	case ir.TermBranchCond:
		cond, ifTrue, ifFalse := term.Cond, term.True, term.False
		return func(ctx *Context) (uint64, error) {
			if resolve(ctx, cond, slotOf) != 0 {
				return ifTrue, nil
			}
			return ifFalse, nil
		}, nil
	default:
		return nil, fmt.Errorf("codegen: block has no terminator")
	}
}
