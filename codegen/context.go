// Package codegen turns a sealed, liveness-analyzed BasicBlock into a
// compiled block: a sequence of step closures over a Context, plus a
// terminator closure, with no further decode/dispatch overhead once
// compiled. This is the "interpreter JIT" the runtime driver executes —
// resumable generator semantics are modeled by each step returning
// *ir.Interrupt (nil meaning "keep going").
package codegen

import (
	"fmt"

	"github.com/IntuitionAmiga/aargon/ir"
	"github.com/IntuitionAmiga/aargon/regfile"
	"github.com/IntuitionAmiga/aargon/softmmu"
)

// ErrInvalidType is returned when Compile meets an instruction it has no
// closure for: an unknown Op or an unknown intrinsic name. Operand types
// and widths are not checked.
var ErrInvalidType = fmt.Errorf("codegen: invalid or unsupported operand type")

// Context is everything a compiled block's closures read and write:
// the architectural register file, the condition flag bank, guest memory
// and a fixed-size slab of variable storage sized to the block's peak
// liveness rather than its variable count.
type Context struct {
	Regs  *regfile.File
	Flags *regfile.FlagBank
	Mem   *softmmu.Cursor

	vars   []uint64
	cursor int // index of the next step to run; lets Run resume after a yield
}

func newContext(regs *regfile.File, flags *regfile.FlagBank, mem *softmmu.Cursor, slots int) *Context {
	return &Context{Regs: regs, Flags: flags, Mem: mem, vars: make([]uint64, slots)}
}

func maskFor(ty ir.Type) uint64 {
	bits := ty.SizeOf() * 8
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}
