package cpu

import (
	"fmt"

	"github.com/rv32i/rv32i/internal/register"
)

func regName(i uint32) string {
	return register.ABINames[i]
}

// Disassemble renders a single instruction word as RISC-V assembly
// text. It does not touch interpreter state -- it is purely a decode
// of ci, usable on any word fetched from memory.
func Disassemble(ci uint32) string {
	opcode := ci & 0x7F
	d := rd(ci)
	s1 := rs1(ci)
	s2 := rs2(ci)
	f3 := funct3(ci)
	f7 := funct7(ci)

	switch opcode {
	case OpLUI:
		return fmt.Sprintf("lui %s, %#x", regName(d), immU(ci)>>12)
	case OpAUIPC:
		return fmt.Sprintf("auipc %s, %#x", regName(d), immU(ci)>>12)
	case OpJAL:
		return fmt.Sprintf("jal %s, %d", regName(d), int32(immJ(ci)))
	case OpJALR:
		return fmt.Sprintf("jalr %s, %d(%s)", regName(d), int32(immI(ci)), regName(s1))
	case OpBranch:
		name, ok := branchNames[f3]
		if !ok {
			return fmt.Sprintf("<unknown branch funct3 %#x>", f3)
		}
		return fmt.Sprintf("%s %s, %s, %d", name, regName(s1), regName(s2), int32(immB(ci)))
	case OpLoad:
		name, ok := loadNames[f3]
		if !ok {
			return fmt.Sprintf("<unknown load funct3 %#x>", f3)
		}
		return fmt.Sprintf("%s %s, %d(%s)", name, regName(d), int32(immI(ci)), regName(s1))
	case OpStore:
		name, ok := storeNames[f3]
		if !ok {
			return fmt.Sprintf("<unknown store funct3 %#x>", f3)
		}
		return fmt.Sprintf("%s %s, %d(%s)", name, regName(s2), int32(immS(ci)), regName(s1))
	case OpALUI:
		return disasmALUI(ci, d, s1, f3)
	case OpALU:
		return disasmALU(ci, d, s1, s2, f3, f7)
	case OpFence:
		return "fence"
	case OpSystem:
		return "ecall"
	case OpHalt:
		return "halt"
	default:
		return fmt.Sprintf("<unknown opcode %#x>", opcode)
	}
}

var branchNames = map[uint32]string{
	f3BEQ: "beq", f3BNE: "bne", f3BLT: "blt", f3BGE: "bge", f3BLTU: "bltu", f3BGEU: "bgeu",
}

var loadNames = map[uint32]string{
	f3LB: "lb", f3LH: "lh", f3LW: "lw", f3LBU: "lbu", f3LHU: "lhu",
}

var storeNames = map[uint32]string{
	f3SB: "sb", f3SH: "sh", f3SW: "sw",
}

func disasmALUI(ci uint32, d, s1, f3 uint32) string {
	imm := int32(immI(ci))
	switch f3 {
	case f3ADDI:
		return fmt.Sprintf("addi %s, %s, %d", regName(d), regName(s1), imm)
	case f3SLTI:
		return fmt.Sprintf("slti %s, %s, %d", regName(d), regName(s1), imm)
	case f3SLTIU:
		return fmt.Sprintf("sltiu %s, %s, %d", regName(d), regName(s1), imm)
	case f3XORI:
		return fmt.Sprintf("xori %s, %s, %d", regName(d), regName(s1), imm)
	case f3ORI:
		return fmt.Sprintf("ori %s, %s, %d", regName(d), regName(s1), imm)
	case f3ANDI:
		return fmt.Sprintf("andi %s, %s, %d", regName(d), regName(s1), imm)
	case f3SLLI:
		return fmt.Sprintf("slli %s, %s, %d", regName(d), regName(s1), uint32(imm)&0x1F)
	case f3SRLISRAI:
		if (ci>>30)&0x1 == 0 {
			return fmt.Sprintf("srli %s, %s, %d", regName(d), regName(s1), uint32(imm)&0x1F)
		}
		return fmt.Sprintf("srai %s, %s, %d", regName(d), regName(s1), uint32(imm)&0x1F)
	default:
		return fmt.Sprintf("<unknown alu-immediate funct3 %#x>", f3)
	}
}

func disasmALU(ci uint32, d, s1, s2, f3, f7 uint32) string {
	if f7 == f7M {
		name, ok := mNames[f3]
		if !ok {
			return fmt.Sprintf("<unknown rv32m funct3 %#x>", f3)
		}
		return fmt.Sprintf("%s %s, %s, %s", name, regName(d), regName(s1), regName(s2))
	}
	name, ok := rrNames[rrKey{f3, f7}]
	if !ok {
		return fmt.Sprintf("<unknown alu funct3 %#x funct7 %#x>", f3, f7)
	}
	return fmt.Sprintf("%s %s, %s, %s", name, regName(d), regName(s1), regName(s2))
}

type rrKey struct{ f3, f7 uint32 }

var rrNames = map[rrKey]string{
	{f3ADDSUB, f7Base}: "add",
	{f3ADDSUB, f7Alt}:  "sub",
	{f3SLL, f7Base}:    "sll",
	{f3SLT, f7Base}:    "slt",
	{f3SLTU, f7Base}:   "sltu",
	{f3XOR, f7Base}:    "xor",
	{f3SRLSRA, f7Base}: "srl",
	{f3SRLSRA, f7Alt}:  "sra",
	{f3OR, f7Base}:     "or",
	{f3AND, f7Base}:    "and",
}

var mNames = map[uint32]string{
	f3MUL: "mul", f3MULH: "mulh", f3MULHSU: "mulhsu", f3MULHU: "mulhu",
	f3DIV: "div", f3DIVU: "divu", f3REM: "rem", f3REMU: "remu",
}
