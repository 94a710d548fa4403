// Package register implements the RV32 general-purpose register file.
//
// The file holds 32 32-bit entries. Register x0 is hard-wired to zero:
// writes to it are silently dropped and reads always return zero. The
// ABI alias table lets callers (the disassembler, the inspector UI)
// resolve conventional names like ra, sp, a0 to an xN index as a plain
// constant lookup, rather than storing pointers back into the owning
// File.
package register

import "fmt"

// Count is the number of general-purpose registers.
const Count = 32

// File is the 32-entry general-purpose register file.
type File struct {
	regs [Count]uint32
}

// Get returns the value of register i. Register 0 always reads as 0.
func (f *File) Get(i uint32) uint32 {
	if i >= Count {
		panic(fmt.Sprintf("register: index %d out of range", i))
	}
	if i == 0 {
		return 0
	}
	return f.regs[i]
}

// Set stores v in register i. Writes to register 0 are a no-op.
func (f *File) Set(i uint32, v uint32) {
	if i >= Count {
		panic(fmt.Sprintf("register: index %d out of range", i))
	}
	if i == 0 {
		return
	}
	f.regs[i] = v
}

// ABINames maps register index to its conventional ABI name.
var ABINames = [Count]string{
	0: "zero", 1: "ra", 2: "sp", 3: "gp", 4: "tp",
	5: "t0", 6: "t1", 7: "t2",
	8: "s0", 9: "s1",
	10: "a0", 11: "a1", 12: "a2", 13: "a3", 14: "a4", 15: "a5", 16: "a6", 17: "a7",
	18: "s2", 19: "s3", 20: "s4", 21: "s5", 22: "s6", 23: "s7", 24: "s8", 25: "s9", 26: "s10", 27: "s11",
	28: "t3", 29: "t4", 30: "t5", 31: "t6",
}

// IndexOf resolves an ABI or xN name to its register index. It
// returns false if name does not match any register.
func IndexOf(name string) (uint32, bool) {
	for i, n := range ABINames {
		if n == name {
			return uint32(i), true
		}
	}
	for i := 0; i < Count; i++ {
		if fmt.Sprintf("x%d", i) == name {
			return uint32(i), true
		}
	}
	return 0, false
}
