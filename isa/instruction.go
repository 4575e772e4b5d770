package isa

import (
	"fmt"
)

// Major opcodes (bits 6:0).
const (
	OPCODE_LOAD     = uint32(0b0000011)
	OPCODE_MISC_MEM = uint32(0b0001111)
	OPCODE_OP_IMM   = uint32(0b0010011)
	OPCODE_AUIPC    = uint32(0b0010111)
	OPCODE_STORE    = uint32(0b0100011)
	OPCODE_OP       = uint32(0b0110011)
	OPCODE_LUI      = uint32(0b0110111)
	OPCODE_BRANCH   = uint32(0b1100011)
	OPCODE_JALR     = uint32(0b1100111)
	OPCODE_JAL      = uint32(0b1101111)
	OPCODE_SYSTEM   = uint32(0b1110011)
)

const (
	INSTR_WIDTH = 4  // Bytes per instruction word.
	REG_COUNT   = 32 // Number of integer registers.
)

// Instruction is a raw 32-bit instruction word.
type Instruction uint32

// Opcode returns bits 6:0.
func (in Instruction) Opcode() uint32 {
	return uint32(in) & 0x7f
}

// Rd returns the destination register index, bits 11:7.
func (in Instruction) Rd() uint8 {
	return uint8((in >> 7) & 0x1f)
}

// Funct3 returns bits 14:12.
func (in Instruction) Funct3() uint32 {
	return uint32(in>>12) & 0x7
}

// Rs1 returns the first source register index, bits 19:15.
func (in Instruction) Rs1() uint8 {
	return uint8((in >> 15) & 0x1f)
}

// Rs2 returns the second source register index, bits 24:20.
func (in Instruction) Rs2() uint8 {
	return uint8((in >> 20) & 0x1f)
}

// Funct7 returns bits 31:25.
func (in Instruction) Funct7() uint32 {
	return uint32(in>>25) & 0x7f
}

// String returns the instruction as a mnemonic and its raw word.
func (in Instruction) String() string {
	return fmt.Sprintf("%v(0x%08x)", Decode(in), uint32(in))
}
