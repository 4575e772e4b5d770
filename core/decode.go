package core

import (
	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/signal"
)

// Decode splits the fetched instruction into its operation and register
// indexes. Register fields are always extracted; components downstream
// ignore the ones the operation does not use.
type Decode struct {
	Instr *signal.Wire[isa.Instruction]

	Op  *signal.Wire[isa.Op]
	Rd  *signal.Wire[uint8]
	Rs1 *signal.Wire[uint8]
	Rs2 *signal.Wire[uint8]
}

var _ signal.Node = (*Decode)(nil)

// NewDecode creates a decoder reading the instruction wire.
func NewDecode(instr *signal.Wire[isa.Instruction]) *Decode {
	return &Decode{
		Instr: instr,
		Op:    signal.NewWire[isa.Op]("op"),
		Rd:    signal.NewWire[uint8]("rd"),
		Rs1:   signal.NewWire[uint8]("rs1"),
		Rs2:   signal.NewWire[uint8]("rs2"),
	}
}

func (dc *Decode) Name() string          { return "decode" }
func (dc *Decode) Inputs() []signal.Port { return []signal.Port{dc.Instr} }

func (dc *Decode) Outputs() []signal.Port {
	return []signal.Port{dc.Op, dc.Rd, dc.Rs1, dc.Rs2}
}

func (dc *Decode) Evaluate() error {
	in := dc.Instr.Get()
	dc.Op.Set(isa.Decode(in))
	dc.Rd.Set(in.Rd())
	dc.Rs1.Set(in.Rs1())
	dc.Rs2.Set(in.Rs2())
	return nil
}
