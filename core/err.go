package core

import (
	"errors"

	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/translate"
)

var f = translate.From

var (
	// Faults
	ErrIllegalInstruction = errors.New(f("illegal instruction"))
	ErrMisaligned         = errors.New(f("misaligned access"))

	// Fault context
	ErrFetch = errors.New(f("fetch"))
	ErrLoad  = errors.New(f("load"))
	ErrStore = errors.New(f("store"))
	ErrEcall = errors.New(f("ecall"))

	// Datapath state errors
	ErrHalted   = errors.New(f("halted"))
	ErrRegister = errors.New(f("register index invalid"))
)

// Fault is the result of a clock cycle that could not commit.
type Fault struct {
	Pc          uint32          // PC of the faulting instruction.
	Instruction isa.Instruction // Instruction word, if it was fetched.
	Err         error
}

func (err *Fault) Error() string {
	return f("fault at pc 0x%08x (0x%08x): %v", err.Pc, uint32(err.Instruction), err.Err)
}

func (err *Fault) Unwrap() error {
	return err.Err
}
