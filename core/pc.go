package core

import (
	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/signal"
)

// pcRegister holds the committed PC.
type pcRegister struct {
	initial uint32
	value   uint32

	Pc *signal.Wire[uint32]

	// Sampled at the clock edge.
	Next *signal.Wire[uint32]
}

var _ signal.Clocked = (*pcRegister)(nil)

func (pr *pcRegister) Name() string           { return "pc_reg" }
func (pr *pcRegister) Inputs() []signal.Port  { return nil }
func (pr *pcRegister) Outputs() []signal.Port { return []signal.Port{pr.Pc} }

func (pr *pcRegister) Evaluate() error {
	pr.Pc.Set(pr.value)
	return nil
}

func (pr *pcRegister) Clock() {
	pr.value = pr.Next.Get()
}

func (pr *pcRegister) Reset() {
	pr.value = pr.initial
}

// PCSequencer is the PC register, its PC+4 adder, and the next PC
// selector choosing between PC+4 and the ALU result.
type PCSequencer struct {
	reg  *pcRegister
	four *signal.Const[uint32]
	add  *signal.Adder
	next *signal.Mux2[uint32]
}

// NewPCSequencer creates a sequencer that resets to initial.
func NewPCSequencer(initial uint32) (seq *PCSequencer) {
	reg := &pcRegister{
		initial: initial,
		value:   initial,
		Pc:      signal.NewWire[uint32]("pc"),
	}
	four := signal.NewConst[uint32]("four", isa.INSTR_WIDTH)

	seq = &PCSequencer{
		reg:  reg,
		four: four,
		add:  signal.NewAdder("pc4", reg.Pc, four.Out),
	}

	return
}

// Connect the next PC selector. When takeAlternate is set, the next PC
// is target; otherwise it is PC+4.
func (seq *PCSequencer) Connect(takeAlternate *signal.Wire[bool], target *signal.Wire[uint32]) {
	seq.next = signal.NewMux2("next_pc", takeAlternate, seq.add.Out, target)
	seq.reg.Next = seq.next.Out
}

// Nodes of the sequencer, for adding to a graph.
func (seq *PCSequencer) Nodes() []signal.Node {
	return []signal.Node{seq.reg, seq.four, seq.add, seq.next}
}

func (seq *PCSequencer) Pc() *signal.Wire[uint32]     { return seq.reg.Pc }
func (seq *PCSequencer) Pc4() *signal.Wire[uint32]    { return seq.add.Out }
func (seq *PCSequencer) NextPc() *signal.Wire[uint32] { return seq.next.Out }

// Value returns the committed PC.
func (seq *PCSequencer) Value() uint32 {
	return seq.reg.value
}

// SetPc overwrites the committed PC.
func (seq *PCSequencer) SetPc(pc uint32) {
	seq.reg.value = pc
}

// SetInitial changes the PC loaded on Reset.
func (seq *PCSequencer) SetInitial(pc uint32) {
	seq.reg.initial = pc
}
