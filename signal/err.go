package signal

import (
	"errors"

	"github.com/ezrec/rv32ss/translate"
)

var f = translate.From

var (
	ErrMultipleDrivers = errors.New(f("wire has multiple drivers"))
	ErrUndriven        = errors.New(f("wire has no driver"))
	ErrCycle           = errors.New(f("combinational cycle"))
	ErrNoFixpoint      = errors.New(f("no fixpoint"))
	ErrSelect          = errors.New(f("selector has no case"))
)

// ErrNode indicates which node failed.
type ErrNode struct {
	Node string
	Err  error
}

func (err *ErrNode) Error() string {
	return f("%v: %v", err.Node, err.Err)
}

func (err *ErrNode) Unwrap() error {
	return err.Err
}

// ErrPort indicates which wire is misconnected.
type ErrPort string

func (err ErrPort) Error() string {
	return f("wire %v", string(err))
}
