package decoder

import "github.com/IntuitionAmiga/aargon/bitutil"

// rule pairs a compiled pattern with the closure that builds the Instr once
// the pattern matches. Rules are tried in declaration order and the first
// match wins, mirroring the guest ISA's property that every well-formed
// encoding belongs to exactly one instruction class within this subset.
type rule struct {
	pat    pattern
	decode func(word uint32) Instr
}

func eb(word uint32, lo, hi uint8) uint32 { return bitutil.ExtractBits32(word, lo, hi) }

func addSubImmDecoder(op Op) func(uint32) Instr {
	return func(word uint32) Instr {
		return Instr{
			Op:    op,
			Size:  4,
			Sh:    uint8(eb(word, 22, 22)),
			Imm12: uint16(eb(word, 10, 21)),
			Rn:    uint8(eb(word, 5, 9)),
			Rd:    uint8(eb(word, 0, 4)),
		}
	}
}

func addSubShiftedDecoder(op Op) func(uint32) Instr {
	return func(word uint32) Instr {
		return Instr{
			Op:    op,
			Size:  4,
			Shift: ShiftType(eb(word, 22, 23)),
			Rm:    uint8(eb(word, 16, 20)),
			Imm6:  uint8(eb(word, 10, 15)),
			Rn:    uint8(eb(word, 5, 9)),
			Rd:    uint8(eb(word, 0, 4)),
		}
	}
}

func logicalShiftedDecoder(op Op) func(uint32) Instr {
	return addSubShiftedDecoder(op)
}

func movWideDecoder(op Op) func(uint32) Instr {
	return func(word uint32) Instr {
		return Instr{
			Op:    op,
			Size:  4,
			Hw:    uint8(eb(word, 21, 22)) * 16,
			Imm16: eb(word, 5, 20),
			Rd:    uint8(eb(word, 0, 4)),
		}
	}
}

func adrFamilyDecoder(op Op) func(uint32) Instr {
	return func(word uint32) Instr {
		immlo := int64(eb(word, 29, 30))
		immhi := int64(eb(word, 5, 23))
		raw := (immhi << 2) | immlo
		return Instr{
			Op:      op,
			Size:    4,
			ImmLoHi: int64(bitutil.SignExtend(uint64(raw), 21)),
			Rd:      uint8(eb(word, 0, 4)),
		}
	}
}

// loadStoreUnsignedDecoder handles the element-scaled imm12 addressing
// family (idxt == 01 in this decoder's simplified layout).
func loadStoreUnsignedDecoder(op Op) func(uint32) Instr {
	return func(word uint32) Instr {
		return Instr{
			Op:    op,
			Size:  4,
			Imm12: uint16(eb(word, 10, 21)),
			Rn:    uint8(eb(word, 5, 9)),
			Rt:    uint8(eb(word, 0, 4)),
		}
	}
}

// loadStoreUnscaledDecoder handles the byte-granular imm9 addressing family
// (idxt == 00): bit 12 selects post-index; when it is clear the imm9 is a
// plain offset with no base writeback.
func loadStoreUnscaledDecoder(op Op) func(uint32) Instr {
	return func(word uint32) Instr {
		return Instr{
			Op:        op,
			Size:      4,
			Imm9:      int16(bitutil.SignExtend(uint64(eb(word, 13, 21)), 9)),
			PostIndex: eb(word, 12, 12) == 1,
			Unscaled:  true,
			Rn:        uint8(eb(word, 5, 9)),
			Rt:        uint8(eb(word, 0, 4)),
		}
	}
}

func buildTable() []rule {
	var t []rule

	t = append(t, rule{parsePattern("11010101000000110010000000011111"), func(uint32) Instr {
		return Instr{Op: OpNop, Size: 4}
	}})

	addSub := []struct {
		pat string
		op  Op
	}{
		{"000100010", OpAddImm32}, {"001100010", OpAddsImm32},
		{"010100010", OpSubImm32}, {"011100010", OpSubsImm32},
		{"100100010", OpAddImm64}, {"101100010", OpAddsImm64},
		{"110100010", OpSubImm64}, {"111100010", OpSubsImm64},
	}
	for _, e := range addSub {
		t = append(t, rule{parsePattern(e.pat + "x" + x(12) + x(5) + x(5)), addSubImmDecoder(e.op)})
	}

	addSubShifted := []struct {
		pat string
		op  Op
	}{
		{"00001011", OpAddShiftedReg32}, {"00101011", OpAddsShiftedReg32},
		{"01001011", OpSubShiftedReg32}, {"01101011", OpSubsShiftedReg32},
		{"10001011", OpAddShiftedReg64}, {"10101011", OpAddsShiftedReg64},
		{"11001011", OpSubShiftedReg64}, {"11101011", OpSubsShiftedReg64},
	}
	for _, e := range addSubShifted {
		t = append(t, rule{parsePattern(e.pat + x(2) + "0" + x(5) + x(6) + x(5) + x(5)), addSubShiftedDecoder(e.op)})
	}

	logical := []struct {
		pat string
		op  Op
	}{
		{"00001010", OpAndShiftedReg32}, {"00101010", OpOrrShiftedReg32},
		{"01001010", OpEorShiftedReg32}, {"01101010", OpAndsShiftedReg32},
		{"10001010", OpAndShiftedReg64}, {"10101010", OpOrrShiftedReg64},
		{"11001010", OpEorShiftedReg64}, {"11101010", OpAndsShiftedReg64},
	}
	for _, e := range logical {
		t = append(t, rule{parsePattern(e.pat + x(2) + "0" + x(5) + x(6) + x(5) + x(5)), logicalShiftedDecoder(e.op)})
	}

	movWide := []struct {
		pat string
		op  Op
	}{
		{"000100101", OpMovn32}, {"010100101", OpMovz32}, {"011100101", OpMovk32},
		{"100100101", OpMovn64}, {"110100101", OpMovz64}, {"111100101", OpMovk64},
	}
	for _, e := range movWide {
		t = append(t, rule{parsePattern(e.pat + x(2) + x(16) + x(5)), movWideDecoder(e.op)})
	}

	t = append(t, rule{parsePattern("0" + x(2) + "10000" + x(19) + x(5)), adrFamilyDecoder(OpAdr)})
	t = append(t, rule{parsePattern("1" + x(2) + "10000" + x(19) + x(5)), adrFamilyDecoder(OpAdrp)})

	// size(2) 111 0 0 L idxt(2) ...
	lsUnsignedByL := []struct {
		size string
		l    string
		op   Op
	}{
		{"00", "0", OpStrb}, {"00", "1", OpLdrb},
		{"01", "0", OpStrh}, {"01", "1", OpLdrh},
		{"10", "0", OpStrw}, {"10", "1", OpLdrw},
		{"11", "0", OpStrx}, {"11", "1", OpLdrx},
	}
	for _, e := range lsUnsignedByL {
		pat := e.size + "11100" + e.l + "01" + x(12) + x(5) + x(5)
		t = append(t, rule{parsePattern(pat), loadStoreUnsignedDecoder(e.op)})
	}
	for _, e := range lsUnsignedByL {
		pat := e.size + "11100" + e.l + "00" + x(9) + x(1) + "00" + x(5) + x(5)
		t = append(t, rule{parsePattern(pat), loadStoreUnscaledDecoder(e.op)})
	}

	t = append(t, rule{parsePattern("000101" + x(26)), func(word uint32) Instr {
		return Instr{Op: OpB, Size: 4, Imm26: int32(bitutil.SignExtend(uint64(eb(word, 0, 25)), 26))}
	}})
	t = append(t, rule{parsePattern("100101" + x(26)), func(word uint32) Instr {
		return Instr{Op: OpBl, Size: 4, Imm26: int32(bitutil.SignExtend(uint64(eb(word, 0, 25)), 26))}
	}})

	t = append(t, rule{parsePattern("01010100" + x(19) + "0" + x(4)), func(word uint32) Instr {
		return Instr{
			Op:    OpBCond,
			Size:  4,
			Imm19: int32(bitutil.SignExtend(uint64(eb(word, 5, 23)), 19)),
			Cond:  uint8(eb(word, 0, 3)),
		}
	}})

	cbz := []struct {
		pat string
		op  Op
	}{
		{"00110100", OpCbz32}, {"00110101", OpCbnz32},
		{"10110100", OpCbz64}, {"10110101", OpCbnz64},
	}
	for _, e := range cbz {
		t = append(t, rule{parsePattern(e.pat + x(19) + x(5)), func(op Op) func(uint32) Instr {
			return func(word uint32) Instr {
				return Instr{
					Op:    op,
					Size:  4,
					Imm19: int32(bitutil.SignExtend(uint64(eb(word, 5, 23)), 19)),
					Rt:    uint8(eb(word, 0, 4)),
				}
			}
		}(e.op)})
	}

	tb := []struct {
		pat string
		op  Op
	}{
		{"x" + "011011" + "0", OpTbz}, {"x" + "011011" + "1", OpTbnz},
	}
	for _, e := range tb {
		t = append(t, rule{parsePattern(e.pat + x(5) + x(14) + x(5)), func(op Op) func(uint32) Instr {
			return func(word uint32) Instr {
				b5 := eb(word, 31, 31)
				b40 := eb(word, 19, 23)
				bitNum := b5<<5 | b40
				return Instr{
					Op:    op,
					Size:  4,
					Imm14: int32(bitutil.SignExtend(uint64(eb(word, 5, 18)), 14)),
					Rt:    uint8(eb(word, 0, 4)),
					Imm6:  uint8(bitNum),
				}
			}
		}(e.op)})
	}

	unreg := []struct {
		pat string
		op  Op
	}{
		{"1101011" + "0000" + "11111" + "000000", OpBr},
		{"1101011" + "0001" + "11111" + "000000", OpBlr},
		{"1101011" + "0010" + "11111" + "000000", OpRet},
	}
	for _, e := range unreg {
		t = append(t, rule{parsePattern(e.pat + x(5) + "00000"), func(op Op) func(uint32) Instr {
			return func(word uint32) Instr {
				return Instr{Op: op, Size: 4, Rn: uint8(eb(word, 5, 9))}
			}
		}(e.op)})
	}

	t = append(t, rule{parsePattern("11010100" + "000" + x(16) + "000" + "01"), func(word uint32) Instr {
		return Instr{Op: OpSvc, Size: 4, Imm16: eb(word, 5, 20)}
	}})
	t = append(t, rule{parsePattern("11010100" + "001" + x(16) + "000" + "00"), func(word uint32) Instr {
		return Instr{Op: OpBrk, Size: 4, Imm16: eb(word, 5, 20)}
	}})

	return t
}

// x returns a run of n don't-care pattern characters.
func x(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

var decodeTable = buildTable()
