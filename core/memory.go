package core

import (
	"errors"
	"fmt"

	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/signal"
	"github.com/ezrec/rv32ss/storage"
)

// MemOp is a data memory access kind.
type MemOp int

const (
	MEM_OP_NONE = MemOp(0) // -
	MEM_OP_LB   = MemOp(1) // lb
	MEM_OP_LH   = MemOp(2) // lh
	MEM_OP_LW   = MemOp(3) // lw
	MEM_OP_LBU  = MemOp(4) // lbu
	MEM_OP_LHU  = MemOp(5) // lhu
	MEM_OP_SB   = MemOp(6) // sb
	MEM_OP_SH   = MemOp(7) // sh
	MEM_OP_SW   = MemOp(8) // sw
)

type memOpInfo struct {
	name   string
	width  storage.Width
	signed bool
	store  bool
}

var memOpTable = [...]memOpInfo{
	MEM_OP_NONE: {"-", 0, false, false},
	MEM_OP_LB:   {"lb", storage.WIDTH_BYTE, true, false},
	MEM_OP_LH:   {"lh", storage.WIDTH_HALF, true, false},
	MEM_OP_LW:   {"lw", storage.WIDTH_WORD, true, false},
	MEM_OP_LBU:  {"lbu", storage.WIDTH_BYTE, false, false},
	MEM_OP_LHU:  {"lhu", storage.WIDTH_HALF, false, false},
	MEM_OP_SB:   {"sb", storage.WIDTH_BYTE, false, true},
	MEM_OP_SH:   {"sh", storage.WIDTH_HALF, false, true},
	MEM_OP_SW:   {"sw", storage.WIDTH_WORD, false, true},
}

func (op MemOp) info() memOpInfo {
	if op < 0 || int(op) >= len(memOpTable) {
		return memOpTable[MEM_OP_NONE]
	}
	return memOpTable[op]
}

func (op MemOp) String() string {
	if op < 0 || int(op) >= len(memOpTable) {
		return fmt.Sprintf("memop(%d)", int(op))
	}
	return memOpTable[op].name
}

func (op MemOp) Width() storage.Width { return op.info().width }
func (op MemOp) Signed() bool         { return op.info().signed }
func (op MemOp) IsStore() bool        { return op.info().store }
func (op MemOp) IsLoad() bool         { return op != MEM_OP_NONE && !op.IsStore() && op.Width() != 0 }

// AddressSpace is the storage shared by instruction fetch and data access.
type AddressSpace interface {
	Read(addr uint32, width storage.Width) (value uint32, err error)
	Write(addr uint32, width storage.Width, value uint32) (err error)
	Checkpoint() storage.Image
	Restore(img storage.Image)
}

var _ AddressSpace = (*storage.Memory)(nil)

func checkAlign(addr uint32, width storage.Width) (err error) {
	if addr%uint32(width) != 0 {
		err = ErrMisaligned
	}
	return
}

// InstrMemory fetches the instruction word at the PC.
type InstrMemory struct {
	Mem   AddressSpace
	Pc    *signal.Wire[uint32]
	Instr *signal.Wire[isa.Instruction]
}

var _ signal.Node = (*InstrMemory)(nil)

// NewInstrMemory creates the fetch port of mem addressed by pc.
func NewInstrMemory(mem AddressSpace, pc *signal.Wire[uint32]) *InstrMemory {
	return &InstrMemory{
		Mem:   mem,
		Pc:    pc,
		Instr: signal.NewWire[isa.Instruction]("instr"),
	}
}

func (im *InstrMemory) Name() string           { return "imem" }
func (im *InstrMemory) Inputs() []signal.Port  { return []signal.Port{im.Pc} }
func (im *InstrMemory) Outputs() []signal.Port { return []signal.Port{im.Instr} }

func (im *InstrMemory) Evaluate() (err error) {
	pc := im.Pc.Get()

	var word uint32
	err = checkAlign(pc, isa.INSTR_WIDTH)
	if err == nil {
		word, err = im.Mem.Read(pc, storage.WIDTH_WORD)
	}
	if err != nil {
		im.Instr.Set(0)
		err = errors.Join(ErrFetch, err)
		return
	}

	im.Instr.Set(isa.Instruction(word))
	return
}

// DataMemory is the load/store port. Loads are combinational; stores are
// checked during evaluation and written at the clock edge.
type DataMemory struct {
	Mem     AddressSpace
	Initial *storage.Image // Contents after Reset; nil leaves memory as is.

	Op        *signal.Wire[MemOp]
	Addr      *signal.Wire[uint32]
	WriteData *signal.Wire[uint32]
	ReadData  *signal.Wire[uint32]

	// Sampled at the clock edge.
	MemWrite *signal.Wire[bool]
}

var _ signal.Clocked = (*DataMemory)(nil)

// NewDataMemory creates the data port of mem.
func NewDataMemory(mem AddressSpace, op *signal.Wire[MemOp], addr, data *signal.Wire[uint32]) *DataMemory {
	return &DataMemory{
		Mem:       mem,
		Op:        op,
		Addr:      addr,
		WriteData: data,
		ReadData:  signal.NewWire[uint32]("mem_read"),
	}
}

// Connect the write enable.
func (dm *DataMemory) Connect(we *signal.Wire[bool]) {
	dm.MemWrite = we
}

func (dm *DataMemory) Name() string           { return "dmem" }
func (dm *DataMemory) Inputs() []signal.Port  { return []signal.Port{dm.Op, dm.Addr, dm.WriteData} }
func (dm *DataMemory) Outputs() []signal.Port { return []signal.Port{dm.ReadData} }

// Evaluate performs a load, or validates a store.
func (dm *DataMemory) Evaluate() (err error) {
	op := dm.Op.Get()
	addr := dm.Addr.Get()

	var value uint32
	switch {
	case op.IsLoad():
		value, err = dm.access(op, addr)
		if err != nil {
			err = errors.Join(ErrLoad, err)
			break
		}
		if op.Signed() {
			value = isa.SignExtend(value, uint(op.Width())*8)
		}
	case op.IsStore():
		_, err = dm.access(op, addr)
		if err != nil {
			err = errors.Join(ErrStore, err)
		}
	}

	dm.ReadData.Set(value)
	return
}

func (dm *DataMemory) access(op MemOp, addr uint32) (value uint32, err error) {
	err = checkAlign(addr, op.Width())
	if err != nil {
		return
	}
	value, err = dm.Mem.Read(addr, op.Width())
	return
}

// Clock writes the sampled store data, if enabled.
func (dm *DataMemory) Clock() {
	op := dm.Op.Get()
	if dm.MemWrite == nil || !dm.MemWrite.Get() || !op.IsStore() {
		return
	}
	// Validated by Evaluate.
	_ = dm.Mem.Write(dm.Addr.Get(), op.Width(), dm.WriteData.Get())
}

// Reset restores the initial memory contents.
func (dm *DataMemory) Reset() {
	if dm.Initial != nil {
		dm.Mem.Restore(*dm.Initial)
	}
}
