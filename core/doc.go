// Package core implements a single-cycle RV32IM datapath.
//
// The datapath is a network of components (Decode, Immediate, Control,
// ALU, Branch, RegisterFile, InstrMemory, DataMemory, PCSequencer and
// EcallChecker) connected by signal wires. Each Clock evaluates the
// network to a fixpoint from the committed state, then commits the PC,
// the register file write and the data memory write together. A fault
// found during evaluation aborts the commit.
//
// After an ECALL is decoded the datapath is HALT_PENDING; the next Clock
// commits the ECALL itself and enters HALTED.
package core
