package cpu

import "testing"

func newTestCPU() *CPU {
	return New(4096)
}

// encodeI builds an I-type instruction word.
func encodeI(imm uint32, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm&0xFFF)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return (funct7&0x7F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

func encodeU(imm uint32, rd, opcode uint32) uint32 {
	return (imm & 0xFFFFF000) | (rd&0x1F)<<7 | (opcode & 0x7F)
}

func encodeJ(imm uint32, rd, opcode uint32) uint32 {
	b20 := (imm >> 20) & 0x1
	b10_1 := (imm >> 1) & 0x3FF
	b11 := (imm >> 11) & 0x1
	b19_12 := (imm >> 12) & 0xFF
	word := (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12)
	return word | (rd&0x1F)<<7 | (opcode & 0x7F)
}

func encodeB(imm uint32, rs2, rs1, funct3, opcode uint32) uint32 {
	b12 := (imm >> 12) & 0x1
	b11 := (imm >> 11) & 0x1
	b10_5 := (imm >> 5) & 0x3F
	b4_1 := (imm >> 1) & 0xF
	word := (b12 << 31) | (b10_5 << 25) | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (b4_1 << 8) | (b11 << 7)
	return word | (opcode & 0x7F)
}

func encodeS(imm uint32, rs2, rs1, funct3, opcode uint32) uint32 {
	hi := (imm >> 5) & 0x7F
	lo := imm & 0x1F
	return hi<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | lo<<7 | (opcode & 0x7F)
}

func TestLUI(t *testing.T) {
	c := newTestCPU()
	c.PC = 0x10
	c.Instruction = 0x00420437 // lui x8, 0x420
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x00420000 {
		t.Fatalf("x8 = %#x, want 0x420000", got)
	}
	if c.PC != 0x14 {
		t.Fatalf("pc = %#x, want 0x14", c.PC)
	}
}

func TestAUIPC(t *testing.T) {
	c := newTestCPU()
	c.PC = 0x10
	c.Instruction = encodeU(0x00420000, 8, OpAUIPC)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x10+0x00420000 {
		t.Fatalf("x8 = %#x, want %#x", got, 0x10+0x00420000)
	}
}

func TestJAL(t *testing.T) {
	c := newTestCPU()
	c.PC = 0x10
	c.Instruction = encodeJ(8, 8, OpJAL)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x14 {
		t.Fatalf("x8 = %#x, want 0x14", got)
	}
	if c.PC != 0x18 {
		t.Fatalf("pc = %#x, want 0x18", c.PC)
	}
}

func TestJALRClearsLowBit(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x11) // odd, low bit must be cleared by JALR
	c.PC = 0x10
	c.Instruction = encodeI(0, 9, f3JALR, 8, OpJALR)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x14 {
		t.Fatalf("x8 = %#x, want 0x14", got)
	}
	if c.PC != 0x10 {
		t.Fatalf("pc = %#x, want 0x10", c.PC)
	}
}

func TestJALRSameRegAsRdAndRs1(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(8, 0x100)
	c.PC = 0x10
	c.Instruction = encodeI(4, 8, f3JALR, 8, OpJALR)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x14 {
		t.Fatalf("x8 = %#x, want 0x14 (rs1 must be read before rd write)", got)
	}
	if c.PC != 0x104 {
		t.Fatalf("pc = %#x, want 0x104", c.PC)
	}
}

func TestADDI(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x420)
	c.PC = 0x10
	c.Instruction = encodeI(0x420, 9, f3ADDI, 8, OpALUI)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x840 {
		t.Fatalf("x8 = %#x, want 0x840", got)
	}
	if c.PC != 0x14 {
		t.Fatalf("pc = %#x, want 0x14", c.PC)
	}
}

func TestLW(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x50)
	if err := c.Mem.SetU32(0x50, 0xCC33CC33); err != nil {
		t.Fatal(err)
	}
	c.PC = 0x10
	c.Instruction = encodeI(0, 9, f3LW, 8, OpLoad)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0xCC33CC33 {
		t.Fatalf("x8 = %#x, want 0xcc33cc33", got)
	}
}

func TestLoadsReadFromExactRs1PlusImm(t *testing.T) {
	// All load widths must read from exactly rs1+imm, with no width-dependent
	// offset bias.
	c := newTestCPU()
	c.Reg.Set(9, 0x50)
	if err := c.Mem.SetU32(0x50, 0xAABBCCDD); err != nil {
		t.Fatal(err)
	}
	c.PC = 0x10

	c.Instruction = encodeI(0, 9, f3LH, 8, OpLoad)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0xFFFFCCDD {
		t.Fatalf("lh x8 = %#x, want 0xffffccdd (sign-extended low halfword at rs1+imm)", got)
	}

	c.PC = 0x10
	c.Instruction = encodeI(0, 9, f3LB, 8, OpLoad)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0xFFFFFFDD {
		t.Fatalf("lb x8 = %#x, want 0xffffffdd (sign-extended low byte at rs1+imm)", got)
	}
}

func TestMUL(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0xFFFFFFFF)  // -1
	c.Reg.Set(10, 0xFFFFFFFE) // -2
	c.PC = 0x10
	c.Instruction = encodeR(f7M, 10, 9, f3MUL, 8, OpALU)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 2 {
		t.Fatalf("x8 = %#x, want 2", got)
	}
}

func TestDivByZero(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x10)
	c.Reg.Set(10, 0)
	c.PC = 0x10
	c.Instruction = encodeR(f7M, 10, 9, f3DIV, 8, OpALU)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0xFFFFFFFF {
		t.Fatalf("x8 = %#x, want 0xffffffff", got)
	}
}

func TestRemByZero(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x10)
	c.Reg.Set(10, 0)
	c.PC = 0x10
	c.Instruction = encodeR(f7M, 10, 9, f3REM, 8, OpALU)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x10 {
		t.Fatalf("x8 = %#x, want 0x10 (dividend)", got)
	}
}

func TestDivSignedOverflow(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x80000000)
	c.Reg.Set(10, 0xFFFFFFFF) // -1
	c.PC = 0x10
	c.Instruction = encodeR(f7M, 10, 9, f3DIV, 8, OpALU)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x80000000 {
		t.Fatalf("x8 = %#x, want 0x80000000", got)
	}

	c2 := newTestCPU()
	c2.Reg.Set(9, 0x80000000)
	c2.Reg.Set(10, 0xFFFFFFFF)
	c2.PC = 0x10
	c2.Instruction = encodeR(f7M, 10, 9, f3REM, 8, OpALU)
	c2.Opcode = c2.Instruction & 0x7F
	if err := c2.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c2.Reg.Get(8); got != 0 {
		t.Fatalf("rem x8 = %#x, want 0", got)
	}
}

func TestBEQTaken(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x420)
	c.Reg.Set(10, 0x420)
	c.PC = 0x10
	c.Instruction = encodeB(0x108, 10, 9, f3BEQ, OpBranch)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x118 {
		t.Fatalf("pc = %#x, want 0x118", c.PC)
	}
}

func TestBranchDoesNotWriteRA(t *testing.T) {
	// Taken branches must never write ra.
	c := newTestCPU()
	c.Reg.Set(1, 0xBAD) // ra, pre-set to a sentinel
	c.Reg.Set(9, 1)
	c.Reg.Set(10, 1)
	c.PC = 0x10
	c.Instruction = encodeB(0x108, 10, 9, f3BEQ, OpBranch)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(1); got != 0xBAD {
		t.Fatalf("ra = %#x, branches must never write ra", got)
	}
}

func TestBranchSymmetry(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 5)
	c.Reg.Set(10, 5)
	c.PC = 0x10
	c.Instruction = encodeB(8, 10, 9, f3BEQ, OpBranch)
	c.Opcode = c.Instruction & 0x7F
	beqPC := c.PC
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	beqTaken := c.PC != beqPC+4

	c2 := newTestCPU()
	c2.Reg.Set(9, 5)
	c2.Reg.Set(10, 5)
	c2.PC = 0x10
	c2.Instruction = encodeB(8, 10, 9, f3BNE, OpBranch)
	c2.Opcode = c2.Instruction & 0x7F
	bnePC := c2.PC
	if err := c2.Execute(); err != nil {
		t.Fatal(err)
	}
	bneTaken := c2.PC != bnePC+4

	if beqTaken == bneTaken {
		t.Fatalf("BEQ taken=%v, BNE taken=%v: must disagree on identical operands", beqTaken, bneTaken)
	}
}

func TestBLTUUnsigned(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0xFFFFFFFF) // huge unsigned, -1 signed
	c.Reg.Set(10, 1)
	c.PC = 0x10
	c.Instruction = encodeB(8, 10, 9, f3BLTU, OpBranch)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x14 {
		t.Fatalf("bltu(0xffffffff, 1) must not be taken unsigned, pc=%#x", c.PC)
	}
}

func TestSRAISignPropagates(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x000003B1)
	c.PC = 0x10
	ci := encodeI(4, 9, f3SRLISRAI, 8, OpALUI)
	ci |= 1 << 30 // select SRAI
	c.Instruction = ci
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0x0000003B {
		t.Fatalf("x8 = %#x, want 0x3b (arithmetic right shift, not rotate)", got)
	}
}

func TestSRANegativeSignExtends(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 0x80000000)
	c.Reg.Set(10, 4)
	c.PC = 0x10
	c.Instruction = encodeR(f7Alt, 10, 9, f3SRLSRA, 8, OpALU)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 0xF8000000 {
		t.Fatalf("x8 = %#x, want 0xf8000000 (sign-propagating, not rotate)", got)
	}
}

func TestShiftMasksToFiveBits(t *testing.T) {
	c := newTestCPU()
	c.Reg.Set(9, 1)
	c.Reg.Set(10, 0x20) // 32, low 5 bits are 0
	c.PC = 0x10
	c.Instruction = encodeR(f7Base, 10, 9, f3SLL, 8, OpALU)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(8); got != 1 {
		t.Fatalf("x8 = %#x, want 1 (shamt masked to low 5 bits, shift by 0)", got)
	}
}

func TestRegisterZeroAlwaysReadsZero(t *testing.T) {
	c := newTestCPU()
	c.PC = 0x10
	c.Instruction = encodeI(0x420, 0, f3ADDI, 0, OpALUI)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := c.Reg.Get(0); got != 0 {
		t.Fatalf("x0 = %#x, want 0", got)
	}
}

func TestStoreOpcodeIs0x23(t *testing.T) {
	if OpStore != 0x23 {
		t.Fatalf("OpStore = %#x, want 0x23", OpStore)
	}
}

func TestHaltOnAllZeroWord(t *testing.T) {
	c := newTestCPU()
	err := c.Run(0)
	if err != nil {
		t.Fatalf("Run() = %v, want nil for a clean halt", err)
	}
}

func TestHaltOnECALL(t *testing.T) {
	c := newTestCPU()
	if err := c.Mem.SetU32(0, 0x00000073); err != nil { // ecall
		t.Fatal(err)
	}
	if err := c.Run(0); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestIllegalOpcodeIsFatal(t *testing.T) {
	c := newTestCPU()
	if err := c.Mem.SetU32(0, 0x0000007F); err != nil { // opcode 0x7f, undefined
		t.Fatal(err)
	}
	err := c.Run(0)
	if err == nil {
		t.Fatal("expected a fatal error for an illegal opcode")
	}
}

func TestOutOfRangeFetchIsFatal(t *testing.T) {
	c := newTestCPU()
	err := c.Run(4096)
	if err == nil {
		t.Fatal("expected a fatal error for an out-of-range fetch")
	}
}

func TestSequentialPCAdvancesByFour(t *testing.T) {
	c := newTestCPU()
	c.PC = 0x10
	c.Instruction = encodeI(1, 0, f3ADDI, 1, OpALUI)
	c.Opcode = c.Instruction & 0x7F
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x14 {
		t.Fatalf("pc = %#x, want 0x14", c.PC)
	}
}
