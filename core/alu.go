package core

import (
	"fmt"

	"github.com/ezrec/rv32ss/signal"
)

// AluOp is an ALU operation.
type AluOp int

const (
	ALU_OP_ADD    = AluOp(0)  // add
	ALU_OP_SUB    = AluOp(1)  // sub
	ALU_OP_SLL    = AluOp(2)  // sll
	ALU_OP_SLT    = AluOp(3)  // slt
	ALU_OP_SLTU   = AluOp(4)  // sltu
	ALU_OP_XOR    = AluOp(5)  // xor
	ALU_OP_SRL    = AluOp(6)  // srl
	ALU_OP_SRA    = AluOp(7)  // sra
	ALU_OP_OR     = AluOp(8)  // or
	ALU_OP_AND    = AluOp(9)  // and
	ALU_OP_MUL    = AluOp(10) // mul
	ALU_OP_MULH   = AluOp(11) // mulh
	ALU_OP_MULHU  = AluOp(12) // mulhu
	ALU_OP_MULHSU = AluOp(13) // mulhsu
	ALU_OP_DIV    = AluOp(14) // div
	ALU_OP_DIVU   = AluOp(15) // divu
	ALU_OP_REM    = AluOp(16) // rem
	ALU_OP_REMU   = AluOp(17) // remu
	ALU_OP_LUI    = AluOp(18) // lui
)

var aluOpNames = [...]string{
	"add", "sub", "sll", "slt", "sltu", "xor", "srl", "sra", "or", "and",
	"mul", "mulh", "mulhu", "mulhsu", "div", "divu", "rem", "remu", "lui",
}

func (op AluOp) String() string {
	if op < 0 || int(op) >= len(aluOpNames) {
		return fmt.Sprintf("aluop(%d)", int(op))
	}
	return aluOpNames[op]
}

// Alu computes op over the two operands. Every operation is total:
// division by zero and signed overflow produce the RISC-V defined results.
func Alu(op AluOp, a uint32, b uint32) (result uint32) {
	sa := int32(a)
	sb := int32(b)

	switch op {
	case ALU_OP_ADD:
		result = a + b
	case ALU_OP_SUB:
		result = a - b
	case ALU_OP_SLL:
		result = a << (b & 0x1f)
	case ALU_OP_SLT:
		if sa < sb {
			result = 1
		}
	case ALU_OP_SLTU:
		if a < b {
			result = 1
		}
	case ALU_OP_XOR:
		result = a ^ b
	case ALU_OP_SRL:
		result = a >> (b & 0x1f)
	case ALU_OP_SRA:
		result = uint32(sa >> (b & 0x1f))
	case ALU_OP_OR:
		result = a | b
	case ALU_OP_AND:
		result = a & b
	case ALU_OP_MUL:
		result = a * b
	case ALU_OP_MULH:
		result = uint32(uint64(int64(sa)*int64(sb)) >> 32)
	case ALU_OP_MULHU:
		result = uint32((uint64(a) * uint64(b)) >> 32)
	case ALU_OP_MULHSU:
		result = uint32(uint64(int64(sa)*int64(uint64(b))) >> 32)
	case ALU_OP_DIV:
		switch {
		case b == 0:
			result = 0xffffffff
		case sa == -1<<31 && sb == -1:
			result = a
		default:
			result = uint32(sa / sb)
		}
	case ALU_OP_DIVU:
		if b == 0 {
			result = 0xffffffff
		} else {
			result = a / b
		}
	case ALU_OP_REM:
		switch {
		case b == 0:
			result = a
		case sa == -1<<31 && sb == -1:
			result = 0
		default:
			result = uint32(sa % sb)
		}
	case ALU_OP_REMU:
		if b == 0 {
			result = a
		} else {
			result = a % b
		}
	case ALU_OP_LUI:
		result = b
	}

	return
}

// ALU is the arithmetic unit node.
type ALU struct {
	Op  *signal.Wire[AluOp]
	A   *signal.Wire[uint32]
	B   *signal.Wire[uint32]
	Res *signal.Wire[uint32]
}

var _ signal.Node = (*ALU)(nil)

// NewALU creates an ALU over the operation and operand wires.
func NewALU(op *signal.Wire[AluOp], a, b *signal.Wire[uint32]) *ALU {
	return &ALU{
		Op:  op,
		A:   a,
		B:   b,
		Res: signal.NewWire[uint32]("alu_res"),
	}
}

func (al *ALU) Name() string           { return "alu" }
func (al *ALU) Inputs() []signal.Port  { return []signal.Port{al.Op, al.A, al.B} }
func (al *ALU) Outputs() []signal.Port { return []signal.Port{al.Res} }

func (al *ALU) Evaluate() error {
	al.Res.Set(Alu(al.Op.Get(), al.A.Get(), al.B.Get()))
	return nil
}
