// Package isa describes the RV32IM instruction encoding.
//
// An Instruction is a raw 32-bit word. Fields are extracted at their fixed
// bit positions regardless of format; Decode maps a word onto the Op that
// it encodes, and Immediate reconstructs the sign-extended immediate for
// the Op's Format.
//
// The Make* constructors are the inverse of Decode and Immediate, and are
// used by the program assembler and by tests.
package isa
