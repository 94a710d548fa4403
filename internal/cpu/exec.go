package cpu

import "fmt"

func (c *CPU) execLUI() {
	c.Reg.Set(rd(c.Instruction), immU(c.Instruction))
	c.PC += 4
}

func (c *CPU) execAUIPC() {
	c.Reg.Set(rd(c.Instruction), c.PC+immU(c.Instruction))
	c.PC += 4
}

func (c *CPU) execJAL() {
	c.Reg.Set(rd(c.Instruction), c.PC+4)
	c.PC = c.PC + immJ(c.Instruction)
}

func (c *CPU) execJALR() error {
	// rs1 must be read before rd is written, so rd == rs1 still sees
	// the pre-write source value.
	target := (c.Reg.Get(rs1(c.Instruction)) + immI(c.Instruction)) &^ 1
	c.Reg.Set(rd(c.Instruction), c.PC+4)
	c.PC = target
	return nil
}

func (c *CPU) execBranch() error {
	ci := c.Instruction
	f3 := funct3(ci)
	a := c.Reg.Get(rs1(ci))
	b := c.Reg.Get(rs2(ci))
	var taken bool
	switch f3 {
	case f3BEQ:
		taken = a == b
	case f3BNE:
		taken = a != b
	case f3BLT:
		taken = int32(a) < int32(b)
	case f3BGE:
		taken = int32(a) >= int32(b)
	case f3BLTU:
		taken = a < b
	case f3BGEU:
		taken = a >= b
	default:
		return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: branch funct3 %#x", ErrIllegalInstruction, f3)}
	}
	if taken {
		c.PC = c.PC + immB(ci)
	} else {
		c.PC += 4
	}
	return nil
}

func (c *CPU) execLoad() error {
	ci := c.Instruction
	f3 := funct3(ci)
	addr := c.Reg.Get(rs1(ci)) + immI(ci)
	var v uint32
	switch f3 {
	case f3LW:
		w, err := c.Mem.GetU32(addr)
		if err != nil {
			return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: %s", ErrMemory, err)}
		}
		v = w
	case f3LH:
		h, err := c.Mem.GetU16(addr)
		if err != nil {
			return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: %s", ErrMemory, err)}
		}
		v = uint32(int32(int16(h)))
	case f3LHU:
		h, err := c.Mem.GetU16(addr)
		if err != nil {
			return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: %s", ErrMemory, err)}
		}
		v = uint32(h)
	case f3LB:
		b, err := c.Mem.GetU8(addr)
		if err != nil {
			return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: %s", ErrMemory, err)}
		}
		v = uint32(int32(int8(b)))
	case f3LBU:
		b, err := c.Mem.GetU8(addr)
		if err != nil {
			return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: %s", ErrMemory, err)}
		}
		v = uint32(b)
	default:
		return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: load funct3 %#x", ErrIllegalInstruction, f3)}
	}
	c.Reg.Set(rd(ci), v)
	c.PC += 4
	return nil
}

func (c *CPU) execStore() error {
	ci := c.Instruction
	f3 := funct3(ci)
	addr := c.Reg.Get(rs1(ci)) + immS(ci)
	v := c.Reg.Get(rs2(ci))
	var err error
	switch f3 {
	case f3SW:
		err = c.Mem.SetU32(addr, v)
	case f3SH:
		err = c.Mem.SetU16(addr, uint16(v))
	case f3SB:
		err = c.Mem.SetU8(addr, uint8(v))
	default:
		return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: store funct3 %#x", ErrIllegalInstruction, f3)}
	}
	if err != nil {
		return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: %s", ErrMemory, err)}
	}
	c.PC += 4
	return nil
}

func (c *CPU) execALUI() error {
	ci := c.Instruction
	f3 := funct3(ci)
	a := c.Reg.Get(rs1(ci))
	imm := immI(ci)
	var result uint32
	switch f3 {
	case f3ADDI:
		result = a + imm
	case f3SLTI:
		result = b2u(int32(a) < int32(imm))
	case f3SLTIU:
		result = b2u(a < imm)
	case f3XORI:
		result = a ^ imm
	case f3ORI:
		result = a | imm
	case f3ANDI:
		result = a & imm
	case f3SLLI:
		result = a << (imm & 0x1F)
	case f3SRLISRAI:
		shamt := imm & 0x1F
		if (ci>>30)&0x1 == 0 {
			result = a >> shamt
		} else {
			result = arithShiftRight(a, shamt)
		}
	default:
		return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: alu-immediate funct3 %#x", ErrIllegalInstruction, f3)}
	}
	c.Reg.Set(rd(ci), result)
	c.PC += 4
	return nil
}

func (c *CPU) execALU() error {
	ci := c.Instruction
	f3 := funct3(ci)
	f7 := funct7(ci)
	a := c.Reg.Get(rs1(ci))
	b := c.Reg.Get(rs2(ci))
	var result uint32
	switch {
	case f7 == f7M:
		var err error
		result, err = execM(f3, a, b)
		if err != nil {
			return &Fault{PC: c.PC, Instruction: ci, Err: err}
		}
	case f7 == f7Base || f7 == f7Alt:
		var err error
		result, err = execRR(f3, f7, a, b)
		if err != nil {
			return &Fault{PC: c.PC, Instruction: ci, Err: err}
		}
	default:
		return &Fault{PC: c.PC, Instruction: ci, Err: fmt.Errorf("%w: alu funct7 %#x", ErrIllegalInstruction, f7)}
	}
	c.Reg.Set(rd(ci), result)
	c.PC += 4
	return nil
}

func execRR(f3, f7, a, b uint32) (uint32, error) {
	shamt := b & 0x1F
	switch f3 {
	case f3ADDSUB:
		if f7 == f7Alt {
			return a - b, nil
		}
		return a + b, nil
	case f3SLL:
		return a << shamt, nil
	case f3SLT:
		return b2u(int32(a) < int32(b)), nil
	case f3SLTU:
		return b2u(a < b), nil
	case f3XOR:
		return a ^ b, nil
	case f3SRLSRA:
		if f7 == f7Alt {
			return arithShiftRight(a, shamt), nil
		}
		return a >> shamt, nil
	case f3OR:
		return a | b, nil
	case f3AND:
		return a & b, nil
	default:
		return 0, fmt.Errorf("%w: alu funct3 %#x", ErrIllegalInstruction, f3)
	}
}

func execM(f3, a, b uint32) (uint32, error) {
	switch f3 {
	case f3MUL:
		return a * b, nil
	case f3MULH:
		return uint32((int64(int32(a)) * int64(int32(b))) >> 32), nil
	case f3MULHSU:
		return uint32((int64(int32(a)) * int64(b)) >> 32), nil
	case f3MULHU:
		return uint32((uint64(a) * uint64(b)) >> 32), nil
	case f3DIV:
		if b == 0 {
			return 0xFFFFFFFF, nil
		}
		if a == 0x80000000 && int32(b) == -1 {
			return 0x80000000, nil
		}
		return uint32(int32(a) / int32(b)), nil
	case f3DIVU:
		if b == 0 {
			return 0xFFFFFFFF, nil
		}
		return a / b, nil
	case f3REM:
		if b == 0 {
			return a, nil
		}
		if a == 0x80000000 && int32(b) == -1 {
			return 0, nil
		}
		return uint32(int32(a) % int32(b)), nil
	case f3REMU:
		if b == 0 {
			return a, nil
		}
		return a % b, nil
	default:
		return 0, fmt.Errorf("%w: rv32m funct3 %#x", ErrIllegalInstruction, f3)
	}
}

func b2u(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// arithShiftRight performs a sign-propagating right shift of a by
// shamt (0..31) bits.
func arithShiftRight(a, shamt uint32) uint32 {
	return uint32(int32(a) >> shamt)
}
