// value.go - IR values: variables, register projections, constants

package ir

import "fmt"

// VarID numbers a basic block's SSA-like local slots 0..N. Variables are
// created only by the lifter while building a block; once sealed, the set
// of variables is fixed.
type VarID uint32

// RawRegisterID indexes an architecture's register descriptor table.
type RawRegisterID uint16

// Constant is a width-tagged immediate. The 128-bit case is stored as two
// 64-bit words (Go has no native u128) — Lo holds the low 64 bits, Hi the
// high 64 bits, unused for narrower widths.
type Constant struct {
	Ty Type
	Lo uint64
	Hi uint64
}

func ConstBool(v bool) Constant {
	var lo uint64
	if v {
		lo = 1
	}
	return Constant{Ty: Bool, Lo: lo}
}

func ConstU8(v uint8) Constant   { return Constant{Ty: B8, Lo: uint64(v)} }
func ConstU16(v uint16) Constant { return Constant{Ty: B16, Lo: uint64(v)} }
func ConstU32(v uint32) Constant { return Constant{Ty: B32, Lo: uint64(v)} }
func ConstU64(v uint64) Constant { return Constant{Ty: B64, Lo: v} }
func ConstU128(lo, hi uint64) Constant {
	return Constant{Ty: B128, Lo: lo, Hi: hi}
}

func (c Constant) String() string {
	if c.Ty.Kind == KindB128 {
		return fmt.Sprintf("0x%016x%016x", c.Hi, c.Lo)
	}
	return fmt.Sprintf("0x%x:%s", c.Lo, c.Ty)
}

// ValueKind tags which of the three IrValue shapes a Value holds.
type ValueKind uint8

const (
	ValueVariable ValueKind = iota
	ValueRegister
	ValueConstant
)

// Value is one of Variable(type, id), Register(type, raw id) or
// Constant(IrConstant). Variable and Register additionally carry the type
// the value is being read/written at, which may be narrower than the
// register's native width (e.g. W0 as a 32-bit view of X0).
type Value struct {
	Kind  ValueKind
	Ty    Type
	ID    VarID
	Reg   RawRegisterID
	Const Constant
}

func Var(ty Type, id VarID) Value {
	return Value{Kind: ValueVariable, Ty: ty, ID: id}
}

func Reg(ty Type, reg RawRegisterID) Value {
	return Value{Kind: ValueRegister, Ty: ty, Reg: reg}
}

func Imm(c Constant) Value {
	return Value{Kind: ValueConstant, Ty: c.Ty, Const: c}
}

func (v Value) Type() Type { return v.Ty }

func (v Value) IsVariable() bool { return v.Kind == ValueVariable }

func (v Value) String() string {
	switch v.Kind {
	case ValueVariable:
		return fmt.Sprintf("v%d:%s", v.ID, v.Ty)
	case ValueRegister:
		return fmt.Sprintf("r%d:%s", v.Reg, v.Ty)
	case ValueConstant:
		return v.Const.String()
	default:
		return "?"
	}
}
