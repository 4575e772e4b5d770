package core

import (
	"iter"

	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/signal"
)

// RegisterFile holds x0..x31. The read ports are combinational; the write
// port is sampled at the clock edge. x0 always reads zero.
type RegisterFile struct {
	Initial [isa.REG_COUNT]uint32 // Contents after Reset.

	Rs1   *signal.Wire[uint8]
	Rs2   *signal.Wire[uint8]
	Data1 *signal.Wire[uint32]
	Data2 *signal.Wire[uint32]

	// Sampled at the clock edge.
	Rd        *signal.Wire[uint8]
	RegWrite  *signal.Wire[bool]
	WriteData *signal.Wire[uint32]

	reg [isa.REG_COUNT]uint32
}

var _ signal.Clocked = (*RegisterFile)(nil)

// NewRegisterFile creates a register file with read ports on rs1 and rs2.
func NewRegisterFile(rs1, rs2 *signal.Wire[uint8]) *RegisterFile {
	return &RegisterFile{
		Rs1:   rs1,
		Rs2:   rs2,
		Data1: signal.NewWire[uint32]("reg1"),
		Data2: signal.NewWire[uint32]("reg2"),
	}
}

// Connect the write port.
func (rf *RegisterFile) Connect(rd *signal.Wire[uint8], we *signal.Wire[bool], data *signal.Wire[uint32]) {
	rf.Rd = rd
	rf.RegWrite = we
	rf.WriteData = data
}

func (rf *RegisterFile) Name() string           { return "registers" }
func (rf *RegisterFile) Inputs() []signal.Port  { return []signal.Port{rf.Rs1, rf.Rs2} }
func (rf *RegisterFile) Outputs() []signal.Port { return []signal.Port{rf.Data1, rf.Data2} }

func (rf *RegisterFile) Evaluate() error {
	rf.Data1.Set(rf.Register(rf.Rs1.Get()))
	rf.Data2.Set(rf.Register(rf.Rs2.Get()))
	return nil
}

// Clock writes the sampled data to rd, if enabled.
func (rf *RegisterFile) Clock() {
	if rf.RegWrite == nil || !rf.RegWrite.Get() {
		return
	}
	rf.SetRegister(rf.Rd.Get(), rf.WriteData.Get())
}

// Reset loads the initial register contents.
func (rf *RegisterFile) Reset() {
	rf.Restore(rf.Initial)
}

// Register returns the committed value of register index.
// Out of range indexes read as zero.
func (rf *RegisterFile) Register(index uint8) uint32 {
	if index == isa.REG_ZERO || int(index) >= isa.REG_COUNT {
		return 0
	}
	return rf.reg[index]
}

// SetRegister writes a committed register value. Writes to x0 are ignored.
func (rf *RegisterFile) SetRegister(index uint8, value uint32) {
	if index == isa.REG_ZERO || int(index) >= isa.REG_COUNT {
		return
	}
	rf.reg[index] = value
}

// Registers returns a copy of all registers.
func (rf *RegisterFile) Registers() [isa.REG_COUNT]uint32 {
	return rf.reg
}

// Restore all registers from a copy. x0 stays zero.
func (rf *RegisterFile) Restore(reg [isa.REG_COUNT]uint32) {
	rf.reg = reg
	rf.reg[isa.REG_ZERO] = 0
}

// All returns every register index and value.
func (rf *RegisterFile) All() iter.Seq2[uint8, uint32] {
	return func(yield func(uint8, uint32) bool) {
		for n := range uint8(isa.REG_COUNT) {
			if !yield(n, rf.reg[n]) {
				return
			}
		}
	}
}
