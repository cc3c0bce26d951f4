// Package liveness computes, for a sealed basic block, which variables die
// at which instruction and the peak number of variables simultaneously
// live. Codegen uses both to allocate a fixed-size slot pool instead of one
// slot per variable.
package liveness

import "github.com/IntuitionAmiga/aargon/ir"

// Info is the result of analyzing one BasicBlock.
type Info struct {
	// Killed[i] holds the VarIDs whose last use is instruction i (the
	// instruction after which they can be reused). An instruction that
	// writes a variable but never reads it again also appears in its own
	// index's Killed set.
	Killed [][]ir.VarID

	// MaxLive is the high-water mark of variables live at once across the
	// block, counting from just before instruction 0 through just after
	// the terminator.
	MaxLive int
}

// Analyze runs the two-phase algorithm over bb: a backward pass finds each
// variable's last use (building Killed), then a forward pass replays
// allocation/death to find MaxLive.
func Analyze(bb *ir.BasicBlock) Info {
	n := len(bb.Insts)
	lastUse := make([]int, bb.VariableCount)
	for i := range lastUse {
		lastUse[i] = -1
	}

	// Backward pass: record each variable's last reading instruction,
	// walking from the terminator back to instruction 0 so an operand
	// read by the terminator always wins over an earlier in-block read.
	noteUse := func(v ir.Value, idx int) {
		if v.IsVariable() && lastUse[v.ID] < idx {
			lastUse[v.ID] = idx
		}
	}
	termUseIdx := n // terminator operands are treated as reads "after" the last instruction
	switch bb.Term.Kind {
	case ir.TermBranchCond:
		noteUse(bb.Term.Cond, termUseIdx)
	case ir.TermBranch:
		if bb.Term.IsIndirect {
			noteUse(bb.Term.TargetReg, termUseIdx)
		}
	}
	for i := n - 1; i >= 0; i-- {
		for _, operand := range bb.Insts[i].Operands() {
			noteUse(operand, i)
		}
	}
	// A variable that is written but never read dies at its own write.
	for i := 0; i < n; i++ {
		if dst, ok := bb.Insts[i].Writes(); ok && dst.IsVariable() && lastUse[dst.ID] == -1 {
			lastUse[dst.ID] = i
		}
	}

	killed := make([][]ir.VarID, n+1) // index n holds deaths attributed to the terminator
	for id, last := range lastUse {
		if last == -1 {
			continue
		}
		idx := last
		if idx == termUseIdx {
			idx = n
		}
		killed[idx] = append(killed[idx], ir.VarID(id))
	}

	// Forward pass: replay births (a write's Dst becomes live the
	// instruction it's produced) and deaths (from Killed) to find the
	// peak simultaneously-live count.
	live := make(map[ir.VarID]bool, bb.VariableCount)
	maxLive := 0
	track := func() {
		if len(live) > maxLive {
			maxLive = len(live)
		}
	}
	for i := 0; i < n; i++ {
		if dst, ok := bb.Insts[i].Writes(); ok && dst.IsVariable() {
			live[dst.ID] = true
		}
		track()
		for _, id := range killed[i] {
			delete(live, id)
		}
	}
	track()
	for _, id := range killed[n] {
		delete(live, id)
	}
	track()

	return Info{Killed: killed[:n], MaxLive: maxLive}
}
