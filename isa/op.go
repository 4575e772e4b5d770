package isa

import (
	"iter"
)

// Format is an instruction encoding format.
type Format int

const (
	FORMAT_NONE = Format(0) // -
	FORMAT_R    = Format(1) // R
	FORMAT_I    = Format(2) // I
	FORMAT_S    = Format(3) // S
	FORMAT_B    = Format(4) // B
	FORMAT_U    = Format(5) // U
	FORMAT_J    = Format(6) // J
)

var formatNames = [...]string{"-", "R", "I", "S", "B", "U", "J"}

func (ft Format) String() string {
	if ft < 0 || int(ft) >= len(formatNames) {
		return "?"
	}
	return formatNames[ft]
}

// Op identifies a decoded RV32IM operation.
type Op int

const (
	OP_INVALID = Op(iota)
	OP_LUI
	OP_AUIPC
	OP_JAL
	OP_JALR
	OP_BEQ
	OP_BNE
	OP_BLT
	OP_BGE
	OP_BLTU
	OP_BGEU
	OP_LB
	OP_LH
	OP_LW
	OP_LBU
	OP_LHU
	OP_SB
	OP_SH
	OP_SW
	OP_ADDI
	OP_SLTI
	OP_SLTIU
	OP_XORI
	OP_ORI
	OP_ANDI
	OP_SLLI
	OP_SRLI
	OP_SRAI
	OP_ADD
	OP_SUB
	OP_SLL
	OP_SLT
	OP_SLTU
	OP_XOR
	OP_SRL
	OP_SRA
	OP_OR
	OP_AND
	OP_FENCE
	OP_ECALL
	OP_MUL
	OP_MULH
	OP_MULHSU
	OP_MULHU
	OP_DIV
	OP_DIVU
	OP_REM
	OP_REMU
	op_count
)

// How many fields beyond the major opcode select an operation.
type matchLevel uint32

const (
	MATCH_OPCODE = matchLevel(0)
	MATCH_FUNCT3 = matchLevel(1)
	MATCH_FUNCT7 = matchLevel(2)
)

type opInfo struct {
	name   string
	format Format
	opcode uint32
	funct3 uint32
	funct7 uint32
	match  matchLevel
}

var opTable = [op_count]opInfo{
	OP_INVALID: {"invalid", FORMAT_NONE, 0, 0, 0, MATCH_OPCODE},

	OP_LUI:   {"lui", FORMAT_U, OPCODE_LUI, 0, 0, MATCH_OPCODE},
	OP_AUIPC: {"auipc", FORMAT_U, OPCODE_AUIPC, 0, 0, MATCH_OPCODE},
	OP_JAL:   {"jal", FORMAT_J, OPCODE_JAL, 0, 0, MATCH_OPCODE},
	OP_JALR:  {"jalr", FORMAT_I, OPCODE_JALR, 0b000, 0, MATCH_FUNCT3},

	OP_BEQ:  {"beq", FORMAT_B, OPCODE_BRANCH, 0b000, 0, MATCH_FUNCT3},
	OP_BNE:  {"bne", FORMAT_B, OPCODE_BRANCH, 0b001, 0, MATCH_FUNCT3},
	OP_BLT:  {"blt", FORMAT_B, OPCODE_BRANCH, 0b100, 0, MATCH_FUNCT3},
	OP_BGE:  {"bge", FORMAT_B, OPCODE_BRANCH, 0b101, 0, MATCH_FUNCT3},
	OP_BLTU: {"bltu", FORMAT_B, OPCODE_BRANCH, 0b110, 0, MATCH_FUNCT3},
	OP_BGEU: {"bgeu", FORMAT_B, OPCODE_BRANCH, 0b111, 0, MATCH_FUNCT3},

	OP_LB:  {"lb", FORMAT_I, OPCODE_LOAD, 0b000, 0, MATCH_FUNCT3},
	OP_LH:  {"lh", FORMAT_I, OPCODE_LOAD, 0b001, 0, MATCH_FUNCT3},
	OP_LW:  {"lw", FORMAT_I, OPCODE_LOAD, 0b010, 0, MATCH_FUNCT3},
	OP_LBU: {"lbu", FORMAT_I, OPCODE_LOAD, 0b100, 0, MATCH_FUNCT3},
	OP_LHU: {"lhu", FORMAT_I, OPCODE_LOAD, 0b101, 0, MATCH_FUNCT3},

	OP_SB: {"sb", FORMAT_S, OPCODE_STORE, 0b000, 0, MATCH_FUNCT3},
	OP_SH: {"sh", FORMAT_S, OPCODE_STORE, 0b001, 0, MATCH_FUNCT3},
	OP_SW: {"sw", FORMAT_S, OPCODE_STORE, 0b010, 0, MATCH_FUNCT3},

	OP_ADDI:  {"addi", FORMAT_I, OPCODE_OP_IMM, 0b000, 0, MATCH_FUNCT3},
	OP_SLTI:  {"slti", FORMAT_I, OPCODE_OP_IMM, 0b010, 0, MATCH_FUNCT3},
	OP_SLTIU: {"sltiu", FORMAT_I, OPCODE_OP_IMM, 0b011, 0, MATCH_FUNCT3},
	OP_XORI:  {"xori", FORMAT_I, OPCODE_OP_IMM, 0b100, 0, MATCH_FUNCT3},
	OP_ORI:   {"ori", FORMAT_I, OPCODE_OP_IMM, 0b110, 0, MATCH_FUNCT3},
	OP_ANDI:  {"andi", FORMAT_I, OPCODE_OP_IMM, 0b111, 0, MATCH_FUNCT3},
	OP_SLLI:  {"slli", FORMAT_I, OPCODE_OP_IMM, 0b001, 0b0000000, MATCH_FUNCT7},
	OP_SRLI:  {"srli", FORMAT_I, OPCODE_OP_IMM, 0b101, 0b0000000, MATCH_FUNCT7},
	OP_SRAI:  {"srai", FORMAT_I, OPCODE_OP_IMM, 0b101, 0b0100000, MATCH_FUNCT7},

	OP_ADD:  {"add", FORMAT_R, OPCODE_OP, 0b000, 0b0000000, MATCH_FUNCT7},
	OP_SUB:  {"sub", FORMAT_R, OPCODE_OP, 0b000, 0b0100000, MATCH_FUNCT7},
	OP_SLL:  {"sll", FORMAT_R, OPCODE_OP, 0b001, 0b0000000, MATCH_FUNCT7},
	OP_SLT:  {"slt", FORMAT_R, OPCODE_OP, 0b010, 0b0000000, MATCH_FUNCT7},
	OP_SLTU: {"sltu", FORMAT_R, OPCODE_OP, 0b011, 0b0000000, MATCH_FUNCT7},
	OP_XOR:  {"xor", FORMAT_R, OPCODE_OP, 0b100, 0b0000000, MATCH_FUNCT7},
	OP_SRL:  {"srl", FORMAT_R, OPCODE_OP, 0b101, 0b0000000, MATCH_FUNCT7},
	OP_SRA:  {"sra", FORMAT_R, OPCODE_OP, 0b101, 0b0100000, MATCH_FUNCT7},
	OP_OR:   {"or", FORMAT_R, OPCODE_OP, 0b110, 0b0000000, MATCH_FUNCT7},
	OP_AND:  {"and", FORMAT_R, OPCODE_OP, 0b111, 0b0000000, MATCH_FUNCT7},

	OP_FENCE: {"fence", FORMAT_NONE, OPCODE_MISC_MEM, 0b000, 0, MATCH_FUNCT3},
	OP_ECALL: {"ecall", FORMAT_NONE, OPCODE_SYSTEM, 0b000, 0, MATCH_FUNCT7},

	OP_MUL:    {"mul", FORMAT_R, OPCODE_OP, 0b000, 0b0000001, MATCH_FUNCT7},
	OP_MULH:   {"mulh", FORMAT_R, OPCODE_OP, 0b001, 0b0000001, MATCH_FUNCT7},
	OP_MULHSU: {"mulhsu", FORMAT_R, OPCODE_OP, 0b010, 0b0000001, MATCH_FUNCT7},
	OP_MULHU:  {"mulhu", FORMAT_R, OPCODE_OP, 0b011, 0b0000001, MATCH_FUNCT7},
	OP_DIV:    {"div", FORMAT_R, OPCODE_OP, 0b100, 0b0000001, MATCH_FUNCT7},
	OP_DIVU:   {"divu", FORMAT_R, OPCODE_OP, 0b101, 0b0000001, MATCH_FUNCT7},
	OP_REM:    {"rem", FORMAT_R, OPCODE_OP, 0b110, 0b0000001, MATCH_FUNCT7},
	OP_REMU:   {"remu", FORMAT_R, OPCODE_OP, 0b111, 0b0000001, MATCH_FUNCT7},
}

// The only SYSTEM encoding the datapath recognizes.
const ECALL_WORD = uint32(0x00000073)

var decodeTable map[uint32]Op

func init() {
	decodeTable = make(map[uint32]Op, len(opTable))
	for n, info := range opTable {
		op := Op(n)
		if op == OP_INVALID || op == OP_ECALL {
			continue
		}
		decodeTable[decodeKey(info.match, info.opcode, info.funct3, info.funct7)] = op
	}
}

func decodeKey(match matchLevel, opcode, funct3, funct7 uint32) uint32 {
	switch match {
	case MATCH_OPCODE:
		funct3 = 0
		funct7 = 0
	case MATCH_FUNCT3:
		funct7 = 0
	}

	return uint32(match)<<24 | funct7<<12 | funct3<<8 | opcode
}

// Decode returns the operation encoded by the instruction word.
// Unknown encodings decode to OP_INVALID.
func Decode(in Instruction) (op Op) {
	if uint32(in) == ECALL_WORD {
		op = OP_ECALL
		return
	}

	opcode := in.Opcode()
	funct3 := in.Funct3()
	funct7 := in.Funct7()
	for _, match := range [...]matchLevel{MATCH_FUNCT7, MATCH_FUNCT3, MATCH_OPCODE} {
		var ok bool
		op, ok = decodeTable[decodeKey(match, opcode, funct3, funct7)]
		if ok {
			return
		}
	}

	op = OP_INVALID
	return
}

// Valid returns true for any operation other than OP_INVALID.
func (op Op) Valid() bool {
	return op > OP_INVALID && op < op_count
}

// Format returns the immediate encoding format of the operation.
func (op Op) Format() Format {
	if op < 0 || op >= op_count {
		return FORMAT_NONE
	}
	return opTable[op].format
}

// String returns the assembler mnemonic.
func (op Op) String() string {
	if op < 0 || op >= op_count {
		return "invalid"
	}
	return opTable[op].name
}

// Ops returns all valid operations, in encoding table order.
func Ops() iter.Seq[Op] {
	return func(yield func(op Op) bool) {
		for op := OP_INVALID + 1; op < op_count; op++ {
			if !yield(op) {
				return
			}
		}
	}
}
