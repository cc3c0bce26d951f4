// Package lifter translates a decoded AArch64 instruction into the
// architecture-neutral IR, one instruction at a time, into a BasicBlock
// the caller is accumulating.
package lifter

import (
	"github.com/IntuitionAmiga/aargon/aarch64/decoder"
	"github.com/IntuitionAmiga/aargon/ir"
	"github.com/IntuitionAmiga/aargon/regfile"
)

// SPRegister is the raw register id for AArch64's stack pointer. This
// decoder's trimmed instruction set never distinguishes SP from the
// zero register (XZR/WZR) the way the full architecture does when Rd/Rn
// is 31; both uses are modeled as one read/write storage slot.
const SPRegister = 31

// PCRegister mirrors decoder.PCRegister: the raw id the lifter uses when
// projecting the program counter as an IR register Value.
const PCRegister = decoder.PCRegister

// registerOrder lists every raw register id the aarch64 register file
// backs, in layout order: X0-X30, SP/ZR, PC.
func registerOrder() []ir.RawRegisterID {
	order := make([]ir.RawRegisterID, 0, 33)
	for i := ir.RawRegisterID(0); i <= 30; i++ {
		order = append(order, i)
	}
	order = append(order, SPRegister, PCRegister)
	return order
}

// RegisterFileDesc builds the aarch64 regfile.Desc: 31 general-purpose
// registers plus SP/ZR and PC, all 8 bytes, none read-only.
func RegisterFileDesc() *regfile.Desc {
	return regfile.NewDesc(
		registerOrder(),
		func(ir.RawRegisterID) int { return 8 },
		func(ir.RawRegisterID) bool { return false },
	)
}

// GetPCRegister returns the raw register id holding the program counter.
func GetPCRegister() ir.RawRegisterID { return PCRegister }

// width returns the IR type an instruction's GPR operands are viewed at:
// B32 for the W-register forms, B64 for the X-register forms.
func width(is32 bool) ir.Type {
	if is32 {
		return ir.B32
	}
	return ir.B64
}

func gpr(id uint8, ty ir.Type) ir.Value {
	return ir.Reg(ty, ir.RawRegisterID(id))
}
