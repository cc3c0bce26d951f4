package codegen

import (
	"fmt"

	"github.com/IntuitionAmiga/aargon/ir"
	"github.com/IntuitionAmiga/aargon/liveness"
	"github.com/IntuitionAmiga/aargon/regfile"
	"github.com/IntuitionAmiga/aargon/softmmu"
)

// step is one compiled instruction. It returns a non-nil *ir.Interrupt to
// suspend the block (e.g. OpInterrupt), or an error on a host-visible
// fault. The steps this package builds report a failed guest memory access
// as an ir.Exception interrupt carrying the address, not as an error.
type step func(ctx *Context) (*ir.Interrupt, error)

// Block is a compiled BasicBlock: run its steps in order, then Terminate
// to find the next guest PC (or an indirect target already resolved into
// a register).
type Block struct {
	steps     []step
	terminate func(ctx *Context) (uint64, error)
	slotCount int
}

// NewContext builds the Context a compiled Block executes against.
func NewContext(regs *regfile.File, flags *regfile.FlagBank, mem *softmmu.Cursor, b *Block) *Context {
	return newContext(regs, flags, mem, b.slotCount)
}

// Run executes steps starting from ctx's resume cursor (0 the first time
// ctx is used against this block). If a step yields an Interrupt, Run
// records where to resume and returns immediately; calling Run again with
// the same ctx continues right after the step that yielded, rather than
// re-running the block from the top — the Go analogue of resuming a
// generator after it yields. On normal completion it returns the resolved
// next-PC from the terminator and resets the cursor.
func (b *Block) Run(ctx *Context) (*ir.Interrupt, uint64, error) {
	for i := ctx.cursor; i < len(b.steps); i++ {
		interrupt, err := b.steps[i](ctx)
		if err != nil {
			return nil, 0, err
		}
		if interrupt != nil {
			ctx.cursor = i + 1
			return interrupt, 0, nil
		}
	}
	ctx.cursor = 0
	next, err := b.terminate(ctx)
	return nil, next, err
}

// Compile lowers a sealed BasicBlock into a Block. It runs liveness
// analysis itself so callers never have to thread an Info through by
// hand, and allocates variable slots with a FIFO queue discipline sized
// to the block's peak simultaneous liveness: a VarID's slot is assigned
// the instruction it's first written and returned to the free queue the
// instruction liveness says it last dies, so slots hosting variables with
// disjoint lifetimes are silently reused.
func Compile(bb *ir.BasicBlock, pcReg ir.RawRegisterID) (*Block, error) {
	if !bb.Sealed() {
		return nil, fmt.Errorf("codegen: block at %#x is not sealed", bb.Addr)
	}
	info := liveness.Analyze(bb)

	slotOf := make([]int, bb.VariableCount)
	assigned := make([]bool, bb.VariableCount)
	free := make([]int, info.MaxLive)
	for i := range free {
		free[i] = i
	}
	popFree := func() int {
		s := free[0]
		free = free[1:]
		return s
	}
	pushFree := func(slot int) { free = append(free, slot) }

	assign := func(v ir.Value) {
		if !v.IsVariable() || assigned[v.ID] {
			return
		}
		slotOf[v.ID] = popFree()
		assigned[v.ID] = true
	}

	steps := make([]step, 0, len(bb.Insts))
	for i, inst := range bb.Insts {
		if dst, ok := inst.Writes(); ok {
			assign(dst)
		}
		s, err := compileInst(inst, slotOf)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
		for _, id := range info.Killed[i] {
			pushFree(slotOf[id])
		}
	}

	term, err := compileTerminator(bb.Term, slotOf, pcReg)
	if err != nil {
		return nil, err
	}

	return &Block{steps: steps, terminate: term, slotCount: info.MaxLive}, nil
}

func resolve(ctx *Context, v ir.Value, slotOf []int) uint64 {
	switch v.Kind {
	case ir.ValueVariable:
		return ctx.vars[slotOf[v.ID]] & maskFor(v.Ty)
	case ir.ValueRegister:
		return ctx.Regs.Get64(v.Reg, v.Ty.SizeOf())
	case ir.ValueConstant:
		return v.Const.Lo & maskFor(v.Ty)
	default:
		return 0
	}
}

func write(ctx *Context, v ir.Value, slotOf []int, value uint64) {
	value &= maskFor(v.Ty)
	switch v.Kind {
	case ir.ValueVariable:
		ctx.vars[slotOf[v.ID]] = value
	case ir.ValueRegister:
		ctx.Regs.Set64(v.Reg, v.Ty.SizeOf(), value)
	}
}
