package emulator

import (
	"errors"

	"github.com/ezrec/rv32ss/translate"
)

var f = translate.From

var (
	ErrSyscall    = errors.New(f("syscall unknown"))
	ErrString     = errors.New(f("string unterminated"))
	ErrInput      = errors.New(f("console input"))
	ErrHistory    = errors.New(f("history exhausted"))
	ErrCycleLimit = errors.New(f("cycle limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint32
	LineNo int // Listing line, if known.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc %#08x %v", err.Pc, err.Err)
	}
	return f("pc %#08x line %d %v", err.Pc, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
