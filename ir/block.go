// block.go - basic blocks and their terminators

package ir

// TerminatorKind tags how a BasicBlock hands control to its successor(s).
type TerminatorKind uint8

const (
	// TermNone marks a block still being built; Seal must replace it
	// before the block is handed to liveness or codegen.
	TermNone TerminatorKind = iota
	// TermNext falls through to the following block in program order
	// (emitted for ordinary non-branching instruction sequences that hit
	// the end of a fetch window rather than an explicit branch).
	TermNext
	// TermBranch transfers unconditionally to Target.
	TermBranch
	// TermBranchCond transfers to True if Cond is nonzero, else False.
	TermBranchCond
)

// Terminator closes a BasicBlock. Target/True/False are guest addresses
// for direct branches; when a branch target is computed at runtime (BR,
// BLR, RET) TargetReg names the register holding it and Target is unused.
type Terminator struct {
	Kind TerminatorKind

	Target    uint64
	TargetReg Value
	IsIndirect bool

	Cond  Value
	True  uint64
	False uint64
}

func NoTerminator() Terminator { return Terminator{Kind: TermNone} }

func Next() Terminator { return Terminator{Kind: TermNext} }

func Branch(target uint64) Terminator {
	return Terminator{Kind: TermBranch, Target: target}
}

func BranchIndirect(target Value) Terminator {
	return Terminator{Kind: TermBranch, TargetReg: target, IsIndirect: true}
}

func BranchCond(cond Value, ifTrue, ifFalse uint64) Terminator {
	return Terminator{Kind: TermBranchCond, Cond: cond, True: ifTrue, False: ifFalse}
}

// BasicBlock is a straight-line run of Insts starting at Addr, closed by a
// Terminator. VariableCount is the number of VarIDs the lifter allocated
// while building it (0..VariableCount-1 are all valid); liveness and
// codegen both size their per-variable tables from it.
type BasicBlock struct {
	Addr          uint64
	Insts         []Inst
	VariableCount int
	Term          Terminator
}

// NewBasicBlock starts an empty, unsealed block at addr.
func NewBasicBlock(addr uint64) *BasicBlock {
	return &BasicBlock{Addr: addr, Term: NoTerminator()}
}

// Emit appends inst to the block.
func (b *BasicBlock) Emit(inst Inst) {
	b.Insts = append(b.Insts, inst)
}

// FreshVar allocates and returns the next VarID of type ty.
func (b *BasicBlock) FreshVar(ty Type) Value {
	id := VarID(b.VariableCount)
	b.VariableCount++
	return Var(ty, id)
}

// Seal installs term, marking the block closed. Emit and FreshVar do not
// check it; the lifter and the runtime driver stop adding to a block once
// it is sealed, after the instruction that produced term (a branch, or the
// synthetic end-of-window fallout).
func (b *BasicBlock) Seal(term Terminator) {
	b.Term = term
}

func (b *BasicBlock) Sealed() bool { return b.Term.Kind != TermNone }
