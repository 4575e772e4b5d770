// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package core

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/signal"
	"github.com/ezrec/rv32ss/storage"
)

// State of the datapath.
type State int

const (
	STATE_RUNNING      = State(0) // running
	STATE_HALT_PENDING = State(1) // halt pending
	STATE_HALTED       = State(2) // halted
)

func (st State) String() string {
	switch st {
	case STATE_RUNNING:
		return "running"
	case STATE_HALT_PENDING:
		return "halt pending"
	case STATE_HALTED:
		return "halted"
	}
	return fmt.Sprintf("state(%d)", int(st))
}

// Config of a Datapath.
type Config struct {
	ResetPc   uint32             // PC after Reset.
	Registers map[uint8]uint32   // Register contents after Reset; unset registers are zero.
	Handler   EcallHandler       // Ecall handler; nil halts on every ecall.
	Finished  func()             // Called once on entering STATE_HALTED.
	Verbose   bool               // If set, logs each committed cycle.
	Log       logrus.FieldLogger // Logger for verbose output. Nil is the standard logger.
}

// Snapshot is the committed state of a Datapath.
type Snapshot struct {
	Pc       uint32
	Register [isa.REG_COUNT]uint32
	Memory   storage.Image
	State    State
	Cycles   uint64

	notified bool
}

// Datapath is a single-cycle RV32IM processor.
type Datapath struct {
	Config

	mem   AddressSpace
	graph signal.Graph

	seq     *PCSequencer
	imem    *InstrMemory
	decode  *Decode
	control *Control
	imm     *Immediate
	regs    *RegisterFile
	alu     *ALU
	branch  *Branch
	dmem    *DataMemory
	ecall   *EcallChecker

	state    State
	cycles   uint64
	notified bool  // Handler called for the current instruction.
	ecallErr error // Handler failure, reported by the next Clock.
}

var _ Environment = (*Datapath)(nil)

// NewDatapath creates a datapath over mem, in the reset state.
// The memory's current contents are its reset contents.
func NewDatapath(mem AddressSpace, config Config) (dp *Datapath, err error) {
	dp = &Datapath{
		Config: config,
		mem:    mem,
	}

	seq := NewPCSequencer(config.ResetPc)
	imem := NewInstrMemory(mem, seq.Pc())
	decode := NewDecode(imem.Instr)
	control := NewControl(decode.Op)
	imm := NewImmediate(decode.Op, imem.Instr)
	regs := NewRegisterFile(decode.Rs1, decode.Rs2)
	for index, value := range config.Registers {
		if int(index) >= isa.REG_COUNT {
			err = errors.Join(ErrRegister, errors.New(f("x%d", index)))
			dp = nil
			return
		}
		if index != isa.REG_ZERO {
			regs.Initial[index] = value
		}
	}

	op1 := signal.NewSelect("alu_op1", control.AluSrc1,
		signal.Case[AluSrc1, uint32]{Key: ALU_SRC1_REG, Wire: regs.Data1},
		signal.Case[AluSrc1, uint32]{Key: ALU_SRC1_PC, Wire: seq.Pc()},
	)
	op2 := signal.NewSelect("alu_op2", control.AluSrc2,
		signal.Case[AluSrc2, uint32]{Key: ALU_SRC2_REG, Wire: regs.Data2},
		signal.Case[AluSrc2, uint32]{Key: ALU_SRC2_IMM, Wire: imm.Imm},
	)
	alu := NewALU(control.AluOp, op1.Out, op2.Out)

	branch := NewBranch(control.CompOp, regs.Data1, regs.Data2)
	taken := signal.NewAnd("branch_taken", branch.Result, control.DoBranch)
	alternate := signal.NewOr("take_alternate", taken.Out, control.DoJump)
	seq.Connect(alternate.Out, alu.Res)

	dmem := NewDataMemory(mem, control.MemOp, alu.Res, regs.Data2)
	dmem.Connect(control.MemWrite)

	wrData := signal.NewSelect("reg_wr_data", control.RegWrSrc,
		signal.Case[RegWrSrc, uint32]{Key: REG_WR_SRC_ALURES, Wire: alu.Res},
		signal.Case[RegWrSrc, uint32]{Key: REG_WR_SRC_MEMREAD, Wire: dmem.ReadData},
		signal.Case[RegWrSrc, uint32]{Key: REG_WR_SRC_PC4, Wire: seq.Pc4()},
	)
	regs.Connect(decode.Rd, control.RegWrite, wrData.Out)

	ecall := NewEcallChecker(decode.Op, config.Handler)

	dp.seq = seq
	dp.imem = imem
	dp.decode = decode
	dp.control = control
	dp.imm = imm
	dp.regs = regs
	dp.alu = alu
	dp.branch = branch
	dp.dmem = dmem
	dp.ecall = ecall

	dp.graph.Verbose = config.Verbose
	dp.graph.Log = config.Log
	dp.graph.Add(seq.Nodes()...)
	dp.graph.Add(imem, decode, control, imm, regs,
		op1, op2, alu, branch, taken, alternate,
		dmem, wrData, ecall)

	err = dp.graph.Build()
	if err != nil {
		dp = nil
		return
	}

	dp.SetResetImage()
	dp.Reset()

	return
}

func (dp *Datapath) log() logrus.FieldLogger {
	if dp.Log == nil {
		return logrus.StandardLogger()
	}
	return dp.Log
}

// settle propagates the committed state, and notifies the ecall handler
// if the new instruction is an ecall. Propagation faults are reported by
// the next Clock.
func (dp *Datapath) settle() {
	err := dp.graph.Propagate()
	if err != nil {
		return
	}

	if dp.state != STATE_RUNNING || dp.notified || !dp.ecall.Raised.Get() {
		return
	}

	dp.notified = true
	halt, err := dp.ecall.Notify(dp)
	if err != nil {
		dp.ecallErr = err
		return
	}
	if halt {
		dp.state = STATE_HALT_PENDING
	}
}

// Clock executes one instruction. A fault leaves the PC, registers and
// memory unchanged, and is returned as a *Fault.
func (dp *Datapath) Clock() (err error) {
	if dp.state == STATE_HALTED {
		err = ErrHalted
		return
	}

	err = dp.graph.Propagate()
	if err == nil && dp.ecallErr != nil {
		err = errors.Join(ErrEcall, dp.ecallErr)
	}
	if err != nil {
		err = &Fault{
			Pc:          dp.seq.Value(),
			Instruction: dp.imem.Instr.Get(),
			Err:         err,
		}
		return
	}

	if dp.Verbose {
		ctrl := dp.control.Signals()
		dp.log().WithFields(logrus.Fields{
			"cycle":   dp.cycles,
			"pc":      fmt.Sprintf("%#08x", dp.seq.Value()),
			"instr":   dp.imem.Instr.Get(),
			"next_pc": fmt.Sprintf("%#08x", dp.seq.NextPc().Get()),
			"alu":     ctrl.AluOp,
			"mem":     ctrl.MemOp,
			"state":   dp.state,
		}).Info("core: commit")
	}

	dp.graph.Clock()
	dp.cycles++
	dp.notified = false

	if dp.state == STATE_HALT_PENDING {
		dp.state = STATE_HALTED
		if dp.Finished != nil {
			dp.Finished()
		}
	}

	dp.settle()

	return
}

// Reset the PC, registers and memory to their reset contents, and return
// to STATE_RUNNING.
func (dp *Datapath) Reset() {
	dp.graph.Reset()
	dp.state = STATE_RUNNING
	dp.cycles = 0
	dp.notified = false
	dp.ecallErr = nil
	dp.settle()
}

// SetResetImage makes the current memory contents the reset contents.
func (dp *Datapath) SetResetImage() {
	img := dp.mem.Checkpoint()
	dp.dmem.Initial = &img
}

// SetResetPc changes the PC loaded by Reset.
func (dp *Datapath) SetResetPc(pc uint32) {
	dp.ResetPc = pc
	dp.seq.SetInitial(pc)
}

// Capture the committed state.
func (dp *Datapath) Capture() (snap Snapshot) {
	snap = Snapshot{
		Pc:       dp.seq.Value(),
		Register: dp.regs.Registers(),
		Memory:   dp.mem.Checkpoint(),
		State:    dp.state,
		Cycles:   dp.cycles,
		notified: dp.notified,
	}
	return
}

// Rewind to a captured state. A halt that happened after the capture is
// discarded.
func (dp *Datapath) Rewind(snap Snapshot) {
	dp.seq.SetPc(snap.Pc)
	dp.regs.Restore(snap.Register)
	dp.mem.Restore(snap.Memory)
	dp.state = snap.State
	dp.cycles = snap.Cycles
	dp.notified = snap.notified
	dp.ecallErr = nil
	dp.settle()
}

// State of the datapath.
func (dp *Datapath) State() State { return dp.state }

// Cycles committed since Reset.
func (dp *Datapath) Cycles() uint64 { return dp.cycles }

// Pc returns the committed PC.
func (dp *Datapath) Pc() uint32 { return dp.seq.Value() }

// NextPc returns the PC the next Clock would commit.
func (dp *Datapath) NextPc() uint32 { return dp.seq.NextPc().Get() }

// Instruction returns the instruction at the committed PC.
func (dp *Datapath) Instruction() isa.Instruction { return dp.imem.Instr.Get() }

// Op returns the decoded operation at the committed PC.
func (dp *Datapath) Op() isa.Op { return dp.decode.Op.Get() }

// Controls returns the control signals of the current instruction.
func (dp *Datapath) Controls() Controls { return dp.control.Signals() }

// Memory returns the address space of the datapath.
func (dp *Datapath) Memory() AddressSpace { return dp.mem }

// Register returns the committed value of a register.
func (dp *Datapath) Register(index uint8) uint32 {
	return dp.regs.Register(index)
}

// SetRegister overwrites a committed register. Writes to x0 are ignored.
func (dp *Datapath) SetRegister(index uint8, value uint32) {
	dp.regs.SetRegister(index, value)
	dp.settle()
}

// SetPc overwrites the committed PC.
func (dp *Datapath) SetPc(pc uint32) {
	dp.seq.SetPc(pc)
	dp.settle()
}

// Refresh re-evaluates the network after the memory was changed
// directly.
func (dp *Datapath) Refresh() {
	dp.settle()
}
