// Package decoder turns a 32-bit AArch64 instruction word into a typed
// Instr via a declaration-ordered bit-pattern table, the same matching
// discipline the lifter consumes one Instr at a time.
package decoder

// Op tags which AArch64 instruction class an Instr carries. The set below
// is deliberately a subset of the real ISA: integer data-processing,
// branches and the handful of system instructions a user-mode DBT needs.
type Op uint16

const (
	OpUnknown Op = iota

	OpNop

	OpAddImm32
	OpAddsImm32
	OpSubImm32
	OpSubsImm32
	OpAddImm64
	OpAddsImm64
	OpSubImm64
	OpSubsImm64

	OpAddShiftedReg32
	OpAddsShiftedReg32
	OpSubShiftedReg32
	OpSubsShiftedReg32
	OpAddShiftedReg64
	OpAddsShiftedReg64
	OpSubShiftedReg64
	OpSubsShiftedReg64

	OpAndShiftedReg32
	OpOrrShiftedReg32
	OpEorShiftedReg32
	OpAndsShiftedReg32
	OpAndShiftedReg64
	OpOrrShiftedReg64
	OpEorShiftedReg64
	OpAndsShiftedReg64

	OpMovz32
	OpMovn32
	OpMovk32
	OpMovz64
	OpMovn64
	OpMovk64

	OpAdr
	OpAdrp

	OpLdrb
	OpLdrh
	OpLdrw
	OpLdrx
	OpStrb
	OpStrh
	OpStrw
	OpStrx

	OpB
	OpBl
	OpBCond
	OpCbz32
	OpCbnz32
	OpCbz64
	OpCbnz64
	OpTbz
	OpTbnz
	OpBr
	OpBlr
	OpRet

	OpSvc
	OpBrk
)

// ShiftType is the 2-bit shift kind shared by shifted-register data
// processing instructions.
type ShiftType uint8

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

func (s ShiftType) String() string {
	switch s {
	case ShiftLSL:
		return "lsl"
	case ShiftLSR:
		return "lsr"
	case ShiftASR:
		return "asr"
	case ShiftROR:
		return "ror"
	default:
		return "?"
	}
}

// Instr is a decoded instruction. Only the fields relevant to Op are
// populated; Size is always the byte length of the decoded word (4, fixed
// for this ISA subset — no Thumb-style variable length).
type Instr struct {
	Op   Op
	Size int

	Rd, Rn, Rm, Rt uint8

	Imm12     uint16
	Imm16     uint32
	Imm6      uint8
	Imm9      int16
	Imm14     int32
	Imm19     int32
	Imm26     int32
	ImmLoHi   int64 // ADR/ADRP: (immhi:immlo) sign-extended, in bytes/pages
	Sh        uint8 // add/sub immediate: 0 or 1 (1 means LSL #12 applied to imm12)
	Shift     ShiftType
	Cond      uint8
	Hw        uint8 // MOVZ/MOVN/MOVK: halfword position, 0/16/32/48
	PostIndex bool
	Unscaled  bool // load/store: Imm9 (byte-granular) vs Imm12 (element-scaled)
}
