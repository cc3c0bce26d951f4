package codegen

import (
	"testing"

	"github.com/IntuitionAmiga/aargon/ir"
	"github.com/IntuitionAmiga/aargon/regfile"
	"github.com/IntuitionAmiga/aargon/softmmu"
)

const pcReg = ir.RawRegisterID(32)

func newTestContext(t *testing.T, b *Block) *Context {
	t.Helper()
	order := []ir.RawRegisterID{0, 1, 30, pcReg}
	desc := regfile.NewDesc(order, func(ir.RawRegisterID) int { return 8 }, func(ir.RawRegisterID) bool { return false })
	regs := regfile.New(desc)
	var flags regfile.FlagBank
	mmu := softmmu.New()
	mmu.Map(softmmu.NewDeviceBlock(0, 0x10000, softmmu.NewRam(0x10000)))
	cursor := softmmu.NewCursor(mmu)
	return NewContext(regs, &flags, cursor, b)
}

func TestCompileAddDoesNotSetFlagsWhenNotRequested(t *testing.T) {
	bb := ir.NewBasicBlock(0x1000)
	x1 := ir.Reg(ir.B64, 1)
	bb.Emit(ir.Add(x1, x1, ir.Imm(ir.ConstU64(3)), ir.Imm(ir.ConstU64(0)), false))
	bb.Seal(ir.Next())

	blk, err := Compile(bb, pcReg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext(t, blk)
	ctx.Regs.Set64(1, 8, 1)
	ctx.Flags.Set(ir.FlagZF, true) // pre-set, must survive since SetFlags=false

	if _, _, err := blk.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Regs.Get64(1, 8); got != 4 {
		t.Fatalf("x1 = %d, want 4", got)
	}
	if !ctx.Flags.Get(ir.FlagZF) {
		t.Fatal("plain ADD must not clear a pre-existing flag")
	}
}

func TestCompileAddsSetsZeroFlag(t *testing.T) {
	bb := ir.NewBasicBlock(0x1000)
	x0 := ir.Reg(ir.B64, 0)
	bb.Emit(ir.Add(x0, x0, ir.Imm(ir.ConstU64(0)), ir.Imm(ir.ConstU64(0)), true))
	bb.Seal(ir.Next())

	blk, err := Compile(bb, pcReg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext(t, blk)
	ctx.Regs.Set64(0, 8, 0)

	if _, _, err := blk.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !ctx.Flags.Get(ir.FlagZF) {
		t.Fatal("0+0 should set ZF")
	}
}

func TestCompileDivByZeroYieldsException(t *testing.T) {
	bb := ir.NewBasicBlock(0x1000)
	dst := bb.FreshVar(ir.B64)
	bb.Emit(ir.Div(dst, ir.Reg(ir.B64, 0), ir.Imm(ir.ConstU64(0))))
	bb.Seal(ir.Next())

	blk, err := Compile(bb, pcReg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext(t, blk)

	interrupt, _, err := blk.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if interrupt == nil || interrupt.Kind != ir.KindException {
		t.Fatalf("interrupt = %+v, want KindException", interrupt)
	}
}

func TestCompileBranchCondPicksTrueOrFalse(t *testing.T) {
	bb := ir.NewBasicBlock(0x1000)
	cond := bb.FreshVar(ir.Bool)
	bb.Emit(ir.Assign(cond, ir.Imm(ir.ConstBool(true))))
	bb.Seal(ir.BranchCond(cond, 0x2000, 0x3000))

	blk, err := Compile(bb, pcReg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext(t, blk)

	_, next, err := blk.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if next != 0x2000 {
		t.Fatalf("next = %#x, want 0x2000", next)
	}
}

func TestCompileLoadStoreRoundTrip(t *testing.T) {
	bb := ir.NewBasicBlock(0x1000)
	addr := ir.Imm(ir.ConstU64(0x100))
	value := ir.Reg(ir.B64, 1)
	loaded := bb.FreshVar(ir.B64)
	bb.Emit(ir.Store(addr, value))
	bb.Emit(ir.Load(loaded, addr))
	bb.Emit(ir.Assign(ir.Reg(ir.B64, 0), loaded))
	bb.Seal(ir.Next())

	blk, err := Compile(bb, pcReg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext(t, blk)
	ctx.Regs.Set64(1, 8, 0xABCD)

	if _, _, err := blk.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Regs.Get64(0, 8); got != 0xABCD {
		t.Fatalf("x0 = %#x, want 0xABCD", got)
	}
}

func TestCompileUnsealedBlockErrors(t *testing.T) {
	bb := ir.NewBasicBlock(0x1000)
	if _, err := Compile(bb, pcReg); err == nil {
		t.Fatal("expected error compiling an unsealed block")
	}
}
