package isa

import (
	"errors"

	"github.com/ezrec/rv32ss/translate"
)

var f = translate.From

var (
	ErrRegister       = errors.New(f("register invalid"))
	ErrImmediateRange = errors.New(f("immediate out of range"))
	ErrImmediateAlign = errors.New(f("immediate misaligned"))
	ErrOpInvalid      = errors.New(f("operation invalid"))
)

// ErrEncode reports which operation could not be encoded.
type ErrEncode struct {
	Op  Op
	Err error
}

func (err *ErrEncode) Error() string {
	return f("encode %v: %v", err.Op, err.Err)
}

func (err *ErrEncode) Unwrap() error {
	return err.Err
}
