// Package cpu implements the RV32I/RV32M interpreter.
//
// Instruction formats
//
// Every instruction is a 32-bit little-endian word. We implement the
// six RISC-V base encoding formats:
//
//	R-type: <funct7:7><rs2:5><rs1:5><funct3:3><rd:5><opcode:7>
//	I-type: <imm[11:0]:12><rs1:5><funct3:3><rd:5><opcode:7>
//	S-type: <imm[11:5]:7><rs2:5><rs1:5><funct3:3><imm[4:0]:5><opcode:7>
//	B-type: <imm[12|10:5]:7><rs2:5><rs1:5><funct3:3><imm[4:1|11]:5><opcode:7>
//	U-type: <imm[31:12]:20><rd:5><opcode:7>
//	J-type: <imm[20|10:1|11|19:12]:20><rd:5><opcode:7>
//
// Opcode dispatch
//
// The interpreter fetches a word, extracts the low 7 bits as the
// opcode, and dispatches to a per-format executor. Executors reconstruct
// their immediate per the bit layouts above, execute the instruction's
// semantics against the register file and memory, and advance PC --
// sequentially by 4, or to a computed target for taken control transfers.
//
// This package intentionally implements only RV32I and the RV32M
// multiply/divide extension: no privileged ISA, no CSRs or traps, no
// floating point, no compressed/atomic/vector extensions, no ELF
// loading. FENCE is a no-op hook; ECALL/EBREAK/the CSR opcode family
// uniformly halt the interpreter, as does an all-zero instruction word
// (the sentinel for the end of a flat image).
package cpu

import (
	"errors"
	"fmt"

	"github.com/rv32i/rv32i/internal/memory"
	"github.com/rv32i/rv32i/internal/register"
)

// Opcodes (low 7 bits of the instruction word).
const (
	OpLUI    = 0x37
	OpAUIPC  = 0x17
	OpJAL    = 0x6F
	OpJALR   = 0x67
	OpBranch = 0x63
	OpLoad   = 0x03
	OpStore  = 0x23
	OpALUI   = 0x13
	OpALU    = 0x33
	OpFence  = 0x0F
	OpSystem = 0x73
	OpHalt   = 0x00
)

// funct3 values shared across opcodes that use them.
const (
	f3JALR = 0x0

	f3BEQ  = 0x0
	f3BNE  = 0x1
	f3BLT  = 0x4
	f3BGE  = 0x5
	f3BLTU = 0x6
	f3BGEU = 0x7

	f3LB  = 0x0
	f3LH  = 0x1
	f3LW  = 0x2
	f3LBU = 0x4
	f3LHU = 0x5

	f3SB = 0x0
	f3SH = 0x1
	f3SW = 0x2

	f3ADDI     = 0x0
	f3SLTI     = 0x2
	f3SLTIU    = 0x3
	f3XORI     = 0x4
	f3ORI      = 0x6
	f3ANDI     = 0x7
	f3SLLI     = 0x1
	f3SRLISRAI = 0x5

	f3ADDSUB = 0x0
	f3SLL    = 0x1
	f3SLT    = 0x2
	f3SLTU   = 0x3
	f3XOR    = 0x4
	f3SRLSRA = 0x5
	f3OR     = 0x6
	f3AND    = 0x7

	f3MUL    = 0x0
	f3MULH   = 0x1
	f3MULHSU = 0x2
	f3MULHU  = 0x3
	f3DIV    = 0x4
	f3DIVU   = 0x5
	f3REM    = 0x6
	f3REMU   = 0x7
)

// funct7 values.
const (
	f7Base = 0x00
	f7Alt  = 0x20 // SUB, SRA
	f7M    = 0x01 // RV32M extension
)

// Sentinel errors reported by the interpreter. Fatal conditions abort
// the run loop; the caller is expected to surface PC and the offending
// instruction word or address (see Fault).
var (
	// ErrHalt indicates a clean, expected termination: ECALL/EBREAK/CSR
	// opcode family, or an all-zero instruction word.
	ErrHalt = errors.New("cpu: halted")

	// ErrIllegalInstruction indicates an unknown opcode or an invalid
	// funct3/funct7 combination for a legal opcode.
	ErrIllegalInstruction = errors.New("cpu: illegal instruction")

	// ErrMemory wraps an out-of-range memory access encountered while
	// fetching or executing an instruction.
	ErrMemory = errors.New("cpu: memory access fault")
)

// Fault carries PC and instruction-word context alongside a fatal
// interpreter error, so a caller can print a precise diagnostic.
type Fault struct {
	PC          uint32
	Instruction uint32
	Err         error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at pc=0x%08x instruction=0x%08x", f.Err, f.PC, f.Instruction)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// CPU is the RV32I/RV32M interpreter. It owns exactly one Memory and
// one register.File and is not safe for concurrent use: a single
// goroutine must drive Fetch/Execute or Run at a time.
type CPU struct {
	PC          uint32
	Instruction uint32
	Opcode      uint32

	Mem *memory.Memory
	Reg register.File
}

// New creates an interpreter over a freshly allocated memory of the
// given size in bytes.
func New(memSize uint32) *CPU {
	return &CPU{Mem: memory.New(memSize)}
}

// LoadImage copies a flat binary image into memory at offset.
func (c *CPU) LoadImage(offset uint32, image []byte) error {
	if err := c.Mem.LoadImage(offset, image); err != nil {
		return fmt.Errorf("cpu: %w", err)
	}
	return nil
}

// Fetch reads the instruction word at PC into c.Instruction and caches
// its opcode in c.Opcode. It does not advance PC -- executors are
// responsible for that.
func (c *CPU) Fetch() error {
	word, err := c.Mem.GetU32(c.PC)
	if err != nil {
		return &Fault{PC: c.PC, Err: fmt.Errorf("%w: %s", ErrMemory, err)}
	}
	c.Instruction = word
	c.Opcode = word & 0x7F
	return nil
}

// Execute dispatches and runs the currently fetched instruction. It
// returns nil after a normal instruction, a *Fault wrapping ErrHalt when
// the interpreter should stop, and a *Fault wrapping
// ErrIllegalInstruction or ErrMemory on a fatal error.
func (c *CPU) Execute() error {
	switch c.Opcode {
	case OpHalt:
		return &Fault{PC: c.PC, Instruction: c.Instruction, Err: ErrHalt}
	case OpLUI:
		c.execLUI()
	case OpAUIPC:
		c.execAUIPC()
	case OpJAL:
		c.execJAL()
	case OpJALR:
		if err := c.execJALR(); err != nil {
			return err
		}
	case OpBranch:
		if err := c.execBranch(); err != nil {
			return err
		}
	case OpLoad:
		if err := c.execLoad(); err != nil {
			return err
		}
	case OpStore:
		if err := c.execStore(); err != nil {
			return err
		}
	case OpALUI:
		if err := c.execALUI(); err != nil {
			return err
		}
	case OpALU:
		if err := c.execALU(); err != nil {
			return err
		}
	case OpFence:
		c.PC += 4
	case OpSystem:
		return &Fault{PC: c.PC, Instruction: c.Instruction, Err: ErrHalt}
	default:
		return &Fault{PC: c.PC, Instruction: c.Instruction, Err: ErrIllegalInstruction}
	}
	return nil
}

// Run executes instructions starting at entry until a halt-class
// instruction or a fatal error is reached. It returns nil on a clean
// halt and the originating error otherwise.
func (c *CPU) Run(entry uint32) error {
	c.PC = entry
	for {
		if err := c.Fetch(); err != nil {
			return err
		}
		err := c.Execute()
		if err == nil {
			continue
		}
		if errors.Is(err, ErrHalt) {
			return nil
		}
		return err
	}
}

func rd(ci uint32) uint32    { return (ci >> 7) & 0x1F }
func rs1(ci uint32) uint32   { return (ci >> 15) & 0x1F }
func rs2(ci uint32) uint32   { return (ci >> 20) & 0x1F }
func funct3(ci uint32) uint32 { return (ci >> 12) & 0x7 }
func funct7(ci uint32) uint32 { return (ci >> 25) & 0x7F }

// signExtend sign-extends the low (bit+1) bits of v, treating bit as
// the sign bit.
func signExtend(v uint32, bit uint) uint32 {
	shift := 31 - bit
	return uint32(int32(v<<shift) >> shift)
}

// immI reconstructs the I-type immediate: bits [11:0] from ci[31:20],
// sign-extended from bit 11.
func immI(ci uint32) uint32 {
	return signExtend(ci>>20, 11)
}

// immS reconstructs the S-type immediate.
func immS(ci uint32) uint32 {
	hi := (ci >> 25) & 0x7F
	lo := (ci >> 7) & 0x1F
	return signExtend(hi<<5|lo, 11)
}

// immB reconstructs the B-type immediate. Bit 0 is always zero.
func immB(ci uint32) uint32 {
	b12 := (ci >> 31) & 0x1
	b11 := (ci >> 7) & 0x1
	b10_5 := (ci >> 25) & 0x3F
	b4_1 := (ci >> 8) & 0xF
	v := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	return signExtend(v, 12)
}

// immU reconstructs the U-type immediate: already aligned in the
// upper 20 bits, no sign extension required.
func immU(ci uint32) uint32 {
	return ci & 0xFFFFF000
}

// immJ reconstructs the J-type immediate. Bit 0 is always zero.
func immJ(ci uint32) uint32 {
	b20 := (ci >> 31) & 0x1
	b19_12 := (ci >> 12) & 0xFF
	b11 := (ci >> 20) & 0x1
	b10_1 := (ci >> 21) & 0x3FF
	v := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	return signExtend(v, 20)
}
