package liveness

import (
	"testing"

	"github.com/IntuitionAmiga/aargon/ir"
)

func TestAnalyzeSimpleChain(t *testing.T) {
	bb := ir.NewBasicBlock(0x1000)
	a := bb.FreshVar(ir.B64)
	b := bb.FreshVar(ir.B64)
	c := bb.FreshVar(ir.B64)

	bb.Emit(ir.Assign(a, ir.Imm(ir.ConstU64(1))))
	bb.Emit(ir.Assign(b, ir.Imm(ir.ConstU64(2))))
	bb.Emit(ir.Add(c, a, b, ir.Imm(ir.ConstU64(0)), false))
	bb.Seal(ir.Next())

	info := Analyze(bb)
	if info.MaxLive < 2 {
		t.Fatalf("max_live = %d, want at least 2 (a and b alive before the add)", info.MaxLive)
	}
	// a and b both die at instruction 2 (the add), c is never read so it
	// dies at the add too since nothing references it afterward.
	killedAt2 := map[ir.VarID]bool{}
	for _, v := range info.Killed[2] {
		killedAt2[v] = true
	}
	if !killedAt2[a.ID] || !killedAt2[b.ID] {
		t.Fatalf("expected a and b to die at instruction 2, got %v", info.Killed[2])
	}
}

func TestAnalyzeTerminatorExtendsLifetime(t *testing.T) {
	bb := ir.NewBasicBlock(0x2000)
	cond := bb.FreshVar(ir.Bool)
	bb.Emit(ir.Assign(cond, ir.Imm(ir.ConstBool(true))))
	bb.Seal(ir.BranchCond(cond, 0x2004, 0x2008))

	info := Analyze(bb)
	if len(info.Killed) != 1 {
		t.Fatalf("expected 1 instruction slot, got %d", len(info.Killed))
	}
	// cond is read by the terminator, not by instruction 0, so it must not
	// be reported as dying at instruction 0.
	for _, v := range info.Killed[0] {
		if v == cond.ID {
			t.Fatal("cond should not die before the terminator reads it")
		}
	}
}

func TestAnalyzeEmptyBlock(t *testing.T) {
	bb := ir.NewBasicBlock(0x3000)
	bb.Seal(ir.Next())
	info := Analyze(bb)
	if info.MaxLive != 0 {
		t.Fatalf("max_live = %d, want 0", info.MaxLive)
	}
}
