package core

import (
	"fmt"

	"github.com/ezrec/rv32ss/signal"
)

// CompOp is a branch comparison.
type CompOp int

const (
	COMP_OP_EQ  = CompOp(0) // eq
	COMP_OP_NE  = CompOp(1) // ne
	COMP_OP_LT  = CompOp(2) // lt
	COMP_OP_GE  = CompOp(3) // ge
	COMP_OP_LTU = CompOp(4) // ltu
	COMP_OP_GEU = CompOp(5) // geu
)

var compOpNames = [...]string{"eq", "ne", "lt", "ge", "ltu", "geu"}

func (op CompOp) String() string {
	if op < 0 || int(op) >= len(compOpNames) {
		return fmt.Sprintf("compop(%d)", int(op))
	}
	return compOpNames[op]
}

// Compare evaluates the branch condition.
func Compare(op CompOp, a uint32, b uint32) (taken bool) {
	switch op {
	case COMP_OP_EQ:
		taken = a == b
	case COMP_OP_NE:
		taken = a != b
	case COMP_OP_LT:
		taken = int32(a) < int32(b)
	case COMP_OP_GE:
		taken = int32(a) >= int32(b)
	case COMP_OP_LTU:
		taken = a < b
	case COMP_OP_GEU:
		taken = a >= b
	}
	return
}

// Branch compares the two register operands.
type Branch struct {
	Op     *signal.Wire[CompOp]
	A      *signal.Wire[uint32]
	B      *signal.Wire[uint32]
	Result *signal.Wire[bool]
}

var _ signal.Node = (*Branch)(nil)

// NewBranch creates a comparator over the operation and operand wires.
func NewBranch(op *signal.Wire[CompOp], a, b *signal.Wire[uint32]) *Branch {
	return &Branch{
		Op:     op,
		A:      a,
		B:      b,
		Result: signal.NewWire[bool]("branch"),
	}
}

func (br *Branch) Name() string           { return "branch" }
func (br *Branch) Inputs() []signal.Port  { return []signal.Port{br.Op, br.A, br.B} }
func (br *Branch) Outputs() []signal.Port { return []signal.Port{br.Result} }

func (br *Branch) Evaluate() error {
	br.Result.Set(Compare(br.Op.Get(), br.A.Get(), br.B.Get()))
	return nil
}
