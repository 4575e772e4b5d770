package core

import (
	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/signal"
)

// AluSrc1 selects the first ALU operand.
type AluSrc1 int

const (
	ALU_SRC1_REG = AluSrc1(0) // reg1
	ALU_SRC1_PC  = AluSrc1(1) // pc
)

// AluSrc2 selects the second ALU operand.
type AluSrc2 int

const (
	ALU_SRC2_REG = AluSrc2(0) // reg2
	ALU_SRC2_IMM = AluSrc2(1) // imm
)

// RegWrSrc selects the value written to the register file.
type RegWrSrc int

const (
	REG_WR_SRC_ALURES  = RegWrSrc(0) // alures
	REG_WR_SRC_MEMREAD = RegWrSrc(1) // memread
	REG_WR_SRC_PC4     = RegWrSrc(2) // pc4
)

func (src AluSrc1) String() string {
	if src == ALU_SRC1_PC {
		return "pc"
	}
	return "reg1"
}

func (src AluSrc2) String() string {
	if src == ALU_SRC2_IMM {
		return "imm"
	}
	return "reg2"
}

func (src RegWrSrc) String() string {
	switch src {
	case REG_WR_SRC_MEMREAD:
		return "memread"
	case REG_WR_SRC_PC4:
		return "pc4"
	}
	return "alures"
}

// Controls is the control signal bundle for one operation.
type Controls struct {
	AluSrc1  AluSrc1
	AluSrc2  AluSrc2
	AluOp    AluOp
	CompOp   CompOp
	DoBranch bool // Take the ALU result as next PC if the comparison holds.
	DoJump   bool // Always take the ALU result as next PC.
	RegWrite bool
	RegWrSrc RegWrSrc
	MemOp    MemOp
	MemWrite bool
}

// Operand and write-back shapes shared by each instruction class.
var (
	ctrlRegReg = Controls{AluSrc1: ALU_SRC1_REG, AluSrc2: ALU_SRC2_REG, RegWrite: true, RegWrSrc: REG_WR_SRC_ALURES}
	ctrlRegImm = Controls{AluSrc1: ALU_SRC1_REG, AluSrc2: ALU_SRC2_IMM, RegWrite: true, RegWrSrc: REG_WR_SRC_ALURES}
	ctrlLoad   = Controls{AluSrc1: ALU_SRC1_REG, AluSrc2: ALU_SRC2_IMM, AluOp: ALU_OP_ADD, RegWrite: true, RegWrSrc: REG_WR_SRC_MEMREAD}
	ctrlStore  = Controls{AluSrc1: ALU_SRC1_REG, AluSrc2: ALU_SRC2_IMM, AluOp: ALU_OP_ADD, MemWrite: true}
	ctrlBranch = Controls{AluSrc1: ALU_SRC1_PC, AluSrc2: ALU_SRC2_IMM, AluOp: ALU_OP_ADD, DoBranch: true}
)

func withAlu(ctrl Controls, op AluOp) Controls {
	ctrl.AluOp = op
	return ctrl
}

func withMem(ctrl Controls, op MemOp) Controls {
	ctrl.MemOp = op
	return ctrl
}

func withComp(ctrl Controls, op CompOp) Controls {
	ctrl.CompOp = op
	return ctrl
}

var controlTable = map[isa.Op]Controls{
	isa.OP_LUI:   {AluSrc2: ALU_SRC2_IMM, AluOp: ALU_OP_LUI, RegWrite: true, RegWrSrc: REG_WR_SRC_ALURES},
	isa.OP_AUIPC: {AluSrc1: ALU_SRC1_PC, AluSrc2: ALU_SRC2_IMM, AluOp: ALU_OP_ADD, RegWrite: true, RegWrSrc: REG_WR_SRC_ALURES},
	isa.OP_JAL:   {AluSrc1: ALU_SRC1_PC, AluSrc2: ALU_SRC2_IMM, AluOp: ALU_OP_ADD, DoJump: true, RegWrite: true, RegWrSrc: REG_WR_SRC_PC4},
	isa.OP_JALR:  {AluSrc1: ALU_SRC1_REG, AluSrc2: ALU_SRC2_IMM, AluOp: ALU_OP_ADD, DoJump: true, RegWrite: true, RegWrSrc: REG_WR_SRC_PC4},

	isa.OP_BEQ:  withComp(ctrlBranch, COMP_OP_EQ),
	isa.OP_BNE:  withComp(ctrlBranch, COMP_OP_NE),
	isa.OP_BLT:  withComp(ctrlBranch, COMP_OP_LT),
	isa.OP_BGE:  withComp(ctrlBranch, COMP_OP_GE),
	isa.OP_BLTU: withComp(ctrlBranch, COMP_OP_LTU),
	isa.OP_BGEU: withComp(ctrlBranch, COMP_OP_GEU),

	isa.OP_LB:  withMem(ctrlLoad, MEM_OP_LB),
	isa.OP_LH:  withMem(ctrlLoad, MEM_OP_LH),
	isa.OP_LW:  withMem(ctrlLoad, MEM_OP_LW),
	isa.OP_LBU: withMem(ctrlLoad, MEM_OP_LBU),
	isa.OP_LHU: withMem(ctrlLoad, MEM_OP_LHU),

	isa.OP_SB: withMem(ctrlStore, MEM_OP_SB),
	isa.OP_SH: withMem(ctrlStore, MEM_OP_SH),
	isa.OP_SW: withMem(ctrlStore, MEM_OP_SW),

	isa.OP_ADDI:  withAlu(ctrlRegImm, ALU_OP_ADD),
	isa.OP_SLTI:  withAlu(ctrlRegImm, ALU_OP_SLT),
	isa.OP_SLTIU: withAlu(ctrlRegImm, ALU_OP_SLTU),
	isa.OP_XORI:  withAlu(ctrlRegImm, ALU_OP_XOR),
	isa.OP_ORI:   withAlu(ctrlRegImm, ALU_OP_OR),
	isa.OP_ANDI:  withAlu(ctrlRegImm, ALU_OP_AND),
	isa.OP_SLLI:  withAlu(ctrlRegImm, ALU_OP_SLL),
	isa.OP_SRLI:  withAlu(ctrlRegImm, ALU_OP_SRL),
	isa.OP_SRAI:  withAlu(ctrlRegImm, ALU_OP_SRA),

	isa.OP_ADD:  withAlu(ctrlRegReg, ALU_OP_ADD),
	isa.OP_SUB:  withAlu(ctrlRegReg, ALU_OP_SUB),
	isa.OP_SLL:  withAlu(ctrlRegReg, ALU_OP_SLL),
	isa.OP_SLT:  withAlu(ctrlRegReg, ALU_OP_SLT),
	isa.OP_SLTU: withAlu(ctrlRegReg, ALU_OP_SLTU),
	isa.OP_XOR:  withAlu(ctrlRegReg, ALU_OP_XOR),
	isa.OP_SRL:  withAlu(ctrlRegReg, ALU_OP_SRL),
	isa.OP_SRA:  withAlu(ctrlRegReg, ALU_OP_SRA),
	isa.OP_OR:   withAlu(ctrlRegReg, ALU_OP_OR),
	isa.OP_AND:  withAlu(ctrlRegReg, ALU_OP_AND),

	isa.OP_MUL:    withAlu(ctrlRegReg, ALU_OP_MUL),
	isa.OP_MULH:   withAlu(ctrlRegReg, ALU_OP_MULH),
	isa.OP_MULHSU: withAlu(ctrlRegReg, ALU_OP_MULHSU),
	isa.OP_MULHU:  withAlu(ctrlRegReg, ALU_OP_MULHU),
	isa.OP_DIV:    withAlu(ctrlRegReg, ALU_OP_DIV),
	isa.OP_DIVU:   withAlu(ctrlRegReg, ALU_OP_DIVU),
	isa.OP_REM:    withAlu(ctrlRegReg, ALU_OP_REM),
	isa.OP_REMU:   withAlu(ctrlRegReg, ALU_OP_REMU),

	// Nothing in the datapath changes except PC+4.
	isa.OP_FENCE: {},
	isa.OP_ECALL: {},
}

// ControlFor returns the control signals for an operation.
// Operations without control signals are illegal instructions.
func ControlFor(op isa.Op) (ctrl Controls, err error) {
	ctrl, ok := controlTable[op]
	if !ok {
		err = ErrIllegalInstruction
	}
	return
}

// Control drives the control signal wires from the decoded operation.
type Control struct {
	Op *signal.Wire[isa.Op]

	AluSrc1  *signal.Wire[AluSrc1]
	AluSrc2  *signal.Wire[AluSrc2]
	AluOp    *signal.Wire[AluOp]
	CompOp   *signal.Wire[CompOp]
	DoBranch *signal.Wire[bool]
	DoJump   *signal.Wire[bool]
	RegWrite *signal.Wire[bool]
	RegWrSrc *signal.Wire[RegWrSrc]
	MemOp    *signal.Wire[MemOp]
	MemWrite *signal.Wire[bool]
}

var _ signal.Node = (*Control)(nil)

// NewControl creates the control unit reading the operation wire.
func NewControl(op *signal.Wire[isa.Op]) *Control {
	return &Control{
		Op:       op,
		AluSrc1:  signal.NewWire[AluSrc1]("alu_src1"),
		AluSrc2:  signal.NewWire[AluSrc2]("alu_src2"),
		AluOp:    signal.NewWire[AluOp]("alu_op"),
		CompOp:   signal.NewWire[CompOp]("comp_op"),
		DoBranch: signal.NewWire[bool]("do_branch"),
		DoJump:   signal.NewWire[bool]("do_jump"),
		RegWrite: signal.NewWire[bool]("reg_write"),
		RegWrSrc: signal.NewWire[RegWrSrc]("reg_wr_src"),
		MemOp:    signal.NewWire[MemOp]("mem_op"),
		MemWrite: signal.NewWire[bool]("mem_write"),
	}
}

func (ct *Control) Name() string          { return "control" }
func (ct *Control) Inputs() []signal.Port { return []signal.Port{ct.Op} }

func (ct *Control) Outputs() []signal.Port {
	return []signal.Port{
		ct.AluSrc1, ct.AluSrc2, ct.AluOp, ct.CompOp,
		ct.DoBranch, ct.DoJump, ct.RegWrite, ct.RegWrSrc,
		ct.MemOp, ct.MemWrite,
	}
}

// Evaluate drives the bundle for the current operation. An illegal
// operation drives an all-disabled bundle and faults.
func (ct *Control) Evaluate() (err error) {
	ctrl, err := ControlFor(ct.Op.Get())
	ct.drive(ctrl)
	return
}

func (ct *Control) drive(ctrl Controls) {
	ct.AluSrc1.Set(ctrl.AluSrc1)
	ct.AluSrc2.Set(ctrl.AluSrc2)
	ct.AluOp.Set(ctrl.AluOp)
	ct.CompOp.Set(ctrl.CompOp)
	ct.DoBranch.Set(ctrl.DoBranch)
	ct.DoJump.Set(ctrl.DoJump)
	ct.RegWrite.Set(ctrl.RegWrite)
	ct.RegWrSrc.Set(ctrl.RegWrSrc)
	ct.MemOp.Set(ctrl.MemOp)
	ct.MemWrite.Set(ctrl.MemWrite)
}

// Signals returns the bundle currently on the control wires.
func (ct *Control) Signals() Controls {
	return Controls{
		AluSrc1:  ct.AluSrc1.Get(),
		AluSrc2:  ct.AluSrc2.Get(),
		AluOp:    ct.AluOp.Get(),
		CompOp:   ct.CompOp.Get(),
		DoBranch: ct.DoBranch.Get(),
		DoJump:   ct.DoJump.Get(),
		RegWrite: ct.RegWrite.Get(),
		RegWrSrc: ct.RegWrSrc.Get(),
		MemOp:    ct.MemOp.Get(),
		MemWrite: ct.MemWrite.Get(),
	}
}
