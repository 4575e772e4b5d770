package core

import (
	"github.com/ezrec/rv32ss/isa"
	"github.com/ezrec/rv32ss/signal"
)

// Environment is the committed machine state visible to an ecall handler.
type Environment interface {
	Pc() uint32
	Register(index uint8) uint32
	SetRegister(index uint8, value uint32)
	Memory() AddressSpace
}

// EcallHandler services an environment call. Returning halt finishes
// the program after the ecall commits.
type EcallHandler interface {
	Ecall(env Environment) (halt bool, err error)
}

// EcallFunc adapts a function to an EcallHandler.
type EcallFunc func(env Environment) (halt bool, err error)

func (fn EcallFunc) Ecall(env Environment) (halt bool, err error) {
	return fn(env)
}

// EcallChecker raises when the decoded operation is an ecall.
type EcallChecker struct {
	Handler EcallHandler // Nil halts on every ecall.

	Op     *signal.Wire[isa.Op]
	Raised *signal.Wire[bool]
}

var _ signal.Node = (*EcallChecker)(nil)

// NewEcallChecker creates a checker on the decoded operation wire.
func NewEcallChecker(op *signal.Wire[isa.Op], handler EcallHandler) *EcallChecker {
	return &EcallChecker{
		Handler: handler,
		Op:      op,
		Raised:  signal.NewWire[bool]("ecall"),
	}
}

func (ec *EcallChecker) Name() string           { return "ecall" }
func (ec *EcallChecker) Inputs() []signal.Port  { return []signal.Port{ec.Op} }
func (ec *EcallChecker) Outputs() []signal.Port { return []signal.Port{ec.Raised} }

func (ec *EcallChecker) Evaluate() error {
	ec.Raised.Set(ec.Op.Get() == isa.OP_ECALL)
	return nil
}

// Notify the handler of a raised ecall.
func (ec *EcallChecker) Notify(env Environment) (halt bool, err error) {
	if ec.Handler == nil {
		halt = true
		return
	}
	return ec.Handler.Ecall(env)
}
