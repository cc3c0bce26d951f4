package decoder

import "testing"

func leBytes(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}

func TestDecodeAddImmediate(t *testing.T) {
	instr, ok := Decode(leBytes(0x91000C21))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if instr.Op != OpAddImm64 {
		t.Fatalf("op = %v, want OpAddImm64", instr.Op)
	}
	if instr.Imm12 != 3 {
		t.Fatalf("imm12 = %d, want 3", instr.Imm12)
	}
	if instr.Rn != 1 || instr.Rd != 1 {
		t.Fatalf("rn=%d rd=%d, want 1,1", instr.Rn, instr.Rd)
	}
	if instr.Sh != 0 {
		t.Fatalf("sh = %d, want 0", instr.Sh)
	}
}

func TestDecodeNop(t *testing.T) {
	instr, ok := Decode(leBytes(0xD503201F))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if instr.Op != OpNop {
		t.Fatalf("op = %v, want OpNop", instr.Op)
	}
	if Mnemonic(instr) != "nop" {
		t.Fatalf("mnemonic = %q", Mnemonic(instr))
	}
}

func TestDecodeShortBufferFails(t *testing.T) {
	if _, ok := Decode([]byte{1, 2, 3}); ok {
		t.Fatal("expected decode to fail on short buffer")
	}
}

func TestDecodeOrrShiftedReg64(t *testing.T) {
	// sf=1 opc=01(orr) 01010 shift=00 N=0 Rm=2 imm6=0 Rn=3 Rd=4
	var w uint32
	w |= 1 << 31       // sf
	w |= 0b01 << 29    // opc = orr
	w |= 0b01010 << 24 // fixed
	w |= 0b00 << 22    // shift = LSL
	w |= 0 << 21       // N
	w |= 2 << 16       // Rm
	w |= 0 << 10       // imm6
	w |= 3 << 5        // Rn
	w |= 4             // Rd

	instr, ok := Decode(leBytes(w))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if instr.Op != OpOrrShiftedReg64 {
		t.Fatalf("op = %v, want OpOrrShiftedReg64", instr.Op)
	}
	if instr.Rm != 2 || instr.Rn != 3 || instr.Rd != 4 {
		t.Fatalf("rm=%d rn=%d rd=%d", instr.Rm, instr.Rn, instr.Rd)
	}
}

func TestDecodeBranchImm26SignExtends(t *testing.T) {
	// B with a negative (backward) displacement: imm26 = -4 (word units)
	var w uint32
	imm26 := int32(-4)
	w |= 0b000101 << 26
	w |= uint32(imm26) & 0x03FFFFFF

	instr, ok := Decode(leBytes(w))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if instr.Op != OpB {
		t.Fatalf("op = %v, want OpB", instr.Op)
	}
	if instr.Imm26 != -4 {
		t.Fatalf("imm26 = %d, want -4", instr.Imm26)
	}
}

func TestDecodeSvc(t *testing.T) {
	var w uint32
	w |= 0b11010100 << 24
	w |= 0b000 << 21 // opc
	w |= 0x5D << 5   // imm16
	w |= 0b000 << 2  // op2
	w |= 0b01         // LL

	instr, ok := Decode(leBytes(w))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if instr.Op != OpSvc {
		t.Fatalf("op = %v, want OpSvc", instr.Op)
	}
	if instr.Imm16 != 0x5D {
		t.Fatalf("imm16 = %#x, want 0x5D", instr.Imm16)
	}
}

func TestDecodeUnknownWordFails(t *testing.T) {
	// all-ones is not assigned to any rule in this subset
	if _, ok := Decode(leBytes(0xFFFFFFFF)); ok {
		t.Fatal("expected all-ones word to be undecodable")
	}
}
