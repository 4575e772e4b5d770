package core

import (
	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/signal"
)

// Immediate produces the sign-extended immediate of the current
// instruction, in the format selected by its operation.
type Immediate struct {
	Op    *signal.Wire[isa.Op]
	Instr *signal.Wire[isa.Instruction]

	Imm *signal.Wire[uint32]
}

var _ signal.Node = (*Immediate)(nil)

func NewImmediate(op *signal.Wire[isa.Op], instr *signal.Wire[isa.Instruction]) *Immediate {
	return &Immediate{
		Op:    op,
		Instr: instr,
		Imm:   signal.NewWire[uint32]("imm"),
	}
}

func (im *Immediate) Name() string           { return "immediate" }
func (im *Immediate) Inputs() []signal.Port  { return []signal.Port{im.Op, im.Instr} }
func (im *Immediate) Outputs() []signal.Port { return []signal.Port{im.Imm} }

func (im *Immediate) Evaluate() error {
	im.Imm.Set(isa.Immediate(im.Op.Get(), im.Instr.Get()))
	return nil
}
