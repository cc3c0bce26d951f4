// instruction.go - the closed set of IR operations
//
// Every IrInst's result type equals Dst.Type(). Add/Sub additionally update
// the flag set {ZF, CF, OF} when their SetFlags field is true; no other
// operation writes the flag bank, so BitAnd/BitOr/BitXor/BitNot/Div/Rem
// leave ZF unchanged (see ir/flag.go and codegen's arithmetic lowering).

package ir

// Op tags which of the closed set of operations an Inst performs.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShl
	OpLshr
	OpAshr
	OpRotr
	OpZextCast
	OpSextCast
	OpLoad
	OpStore
	OpAssign
	OpMoveFlag
	OpFence
	OpInterrupt
	OpIntrinsic
)

func (o Op) String() string {
	names := [...]string{
		"add", "sub", "mul", "div", "rem",
		"and", "or", "xor", "not",
		"shl", "lshr", "ashr", "rotr",
		"zext", "sext", "load", "store", "assign",
		"move_flag", "fence", "interrupt", "intrinsic",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return "?"
}

// Ordering is the memory-ordering tag a Fence carries. Single-threaded
// guests never observe a difference (see spec §5(c)); SeqCst is reserved
// so an SMP-capable codegen can later emit a real host fence for it.
type Ordering uint8

const (
	OrderRelaxed Ordering = iota
	OrderAcquire
	OrderRelease
	OrderAcqRel
	OrderSeqCst
)

// Inst is one instruction in a sealed BasicBlock. Only the fields relevant
// to Op are populated; see the per-op doc comment below for which.
type Inst struct {
	Op Op

	// Binary/unary arithmetic, bitwise, shift, cast: Dst = f(Lhs, Rhs).
	// Unary ops (BitNot, ZextCast, SextCast) ignore Rhs.
	Dst Value
	Lhs Value
	Rhs Value

	// Add/Sub carry-in operand (zero constant for plain add/sub; a
	// flag-derived value for ADC/SBC-style lowering).
	CarryIn Value

	// SetFlags, for Add/Sub only, selects whether the flag bank (ZF, CF,
	// OF) is updated as a side effect. The *S mnemonics (ADDS, SUBS,
	// CMP, CMN) set it; plain ADD/SUB leave the flag bank untouched.
	SetFlags bool

	// Load{Dst, Src}/Store{Dst, Src}: Dst/Src double as the address operand
	// on the side that isn't the memory value — Load reads Src as an
	// address into Dst; Store writes Src's value to the address in Dst.

	// MoveFlag{Dst, DstPos, FlagID}.
	DstPos uint8
	FlagID Flag

	// Fence{Order}.
	Order Ordering

	// Interrupt{Kind}.
	Interrupt Interrupt

	// Intrinsic{Name, Args}: an architecture-specific escape hatch (e.g.
	// system-register moves) that codegen dispatches by name rather than
	// by a dedicated Op — kept deliberately small: aargon's lifter emits
	// only "cond_holds", "is_zero" and "bit_set" for branch conditions.
	IntrinsicName string
	IntrinsicArgs []Value
}

// ResultType returns the type every well-formed instruction's Dst carries.
func (i Inst) ResultType() Type { return i.Dst.Ty }

// Operands returns every Value this instruction reads, in a fixed order.
// Used by the liveness pass (ir/value.go's Variable kind is what matters
// there).
func (i Inst) Operands() []Value {
	switch i.Op {
	case OpAdd, OpSub:
		return []Value{i.Lhs, i.Rhs, i.CarryIn}
	case OpMul, OpDiv, OpRem, OpBitAnd, OpBitOr, OpBitXor,
		OpShl, OpLshr, OpAshr, OpRotr:
		return []Value{i.Lhs, i.Rhs}
	case OpBitNot, OpZextCast, OpSextCast, OpAssign:
		return []Value{i.Lhs}
	case OpLoad:
		return []Value{i.Lhs} // Lhs carries the address
	case OpStore:
		return []Value{i.Dst, i.Lhs} // Dst: address, Lhs: value
	case OpMoveFlag, OpFence, OpInterrupt:
		return nil
	case OpIntrinsic:
		return i.IntrinsicArgs
	default:
		return nil
	}
}

// Writes reports the Value this instruction assigns, if any. Store and
// Fence write nothing observable to a variable.
func (i Inst) Writes() (Value, bool) {
	switch i.Op {
	case OpStore, OpFence, OpInterrupt:
		return Value{}, false
	default:
		return i.Dst, true
	}
}

func Add(dst, lhs, rhs, carryIn Value, setFlags bool) Inst {
	return Inst{Op: OpAdd, Dst: dst, Lhs: lhs, Rhs: rhs, CarryIn: carryIn, SetFlags: setFlags}
}

func Sub(dst, lhs, rhs, carryIn Value, setFlags bool) Inst {
	return Inst{Op: OpSub, Dst: dst, Lhs: lhs, Rhs: rhs, CarryIn: carryIn, SetFlags: setFlags}
}

func Mul(dst, lhs, rhs Value) Inst { return Inst{Op: OpMul, Dst: dst, Lhs: lhs, Rhs: rhs} }
func Div(dst, lhs, rhs Value) Inst { return Inst{Op: OpDiv, Dst: dst, Lhs: lhs, Rhs: rhs} }
func Rem(dst, lhs, rhs Value) Inst { return Inst{Op: OpRem, Dst: dst, Lhs: lhs, Rhs: rhs} }

func BitAnd(dst, lhs, rhs Value) Inst { return Inst{Op: OpBitAnd, Dst: dst, Lhs: lhs, Rhs: rhs} }
func BitOr(dst, lhs, rhs Value) Inst  { return Inst{Op: OpBitOr, Dst: dst, Lhs: lhs, Rhs: rhs} }
func BitXor(dst, lhs, rhs Value) Inst { return Inst{Op: OpBitXor, Dst: dst, Lhs: lhs, Rhs: rhs} }
func BitNot(dst, src Value) Inst      { return Inst{Op: OpBitNot, Dst: dst, Lhs: src} }

func Shl(dst, lhs, rhs Value) Inst  { return Inst{Op: OpShl, Dst: dst, Lhs: lhs, Rhs: rhs} }
func Lshr(dst, lhs, rhs Value) Inst { return Inst{Op: OpLshr, Dst: dst, Lhs: lhs, Rhs: rhs} }
func Ashr(dst, lhs, rhs Value) Inst { return Inst{Op: OpAshr, Dst: dst, Lhs: lhs, Rhs: rhs} }
func Rotr(dst, lhs, rhs Value) Inst { return Inst{Op: OpRotr, Dst: dst, Lhs: lhs, Rhs: rhs} }

func ZextCast(dst, src Value) Inst { return Inst{Op: OpZextCast, Dst: dst, Lhs: src} }
func SextCast(dst, src Value) Inst { return Inst{Op: OpSextCast, Dst: dst, Lhs: src} }

func Load(dst, src Value) Inst  { return Inst{Op: OpLoad, Dst: dst, Lhs: src} }
func Store(dst, src Value) Inst { return Inst{Op: OpStore, Dst: dst, Lhs: src} }

func Assign(dst, src Value) Inst { return Inst{Op: OpAssign, Dst: dst, Lhs: src} }

func MoveFlag(dst Value, dstPos uint8, flag Flag) Inst {
	return Inst{Op: OpMoveFlag, Dst: dst, DstPos: dstPos, FlagID: flag}
}

func MakeFence(order Ordering) Inst { return Inst{Op: OpFence, Order: order} }

func MakeInterrupt(i Interrupt) Inst { return Inst{Op: OpInterrupt, Interrupt: i} }

func Intrinsic(dst Value, name string, args ...Value) Inst {
	return Inst{Op: OpIntrinsic, Dst: dst, IntrinsicName: name, IntrinsicArgs: args}
}
