package isa

import (
	"fmt"
	"iter"
)

// ABI register indexes used by the environment.
const (
	REG_ZERO = uint8(0)
	REG_RA   = uint8(1)
	REG_SP   = uint8(2)
	REG_GP   = uint8(3)
	REG_A0   = uint8(10)
	REG_A1   = uint8(11)
	REG_A7   = uint8(17)
)

var abiNames = [REG_COUNT]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegisterName returns the ABI name of a register index.
func RegisterName(index uint8) string {
	if index >= REG_COUNT {
		return "?"
	}
	return abiNames[index]
}

// Registers yields every register name, both xN and ABI forms, with its
// index. "fp" is an alias of s0.
func Registers() iter.Seq2[string, uint32] {
	return func(yield func(name string, index uint32) bool) {
		for n := range REG_COUNT {
			if !yield(fmt.Sprintf("x%d", n), uint32(n)) {
				return
			}
		}
		for n, name := range abiNames {
			if !yield(name, uint32(n)) {
				return
			}
		}
		yield("fp", 8)
	}
}
