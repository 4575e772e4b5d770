package isa

// SignExtend extends the low 'bits' of value from its top bit.
func SignExtend(value uint32, bits uint) uint32 {
	shift := 32 - bits
	return uint32(int32(value<<shift) >> shift)
}

// ImmI returns bits 31:20, sign-extended.
func ImmI(in Instruction) uint32 {
	return SignExtend(uint32(in)>>20, 12)
}

// ImmS returns bits 31:25 | 11:7, sign-extended.
func ImmS(in Instruction) uint32 {
	word := uint32(in)
	hi := (word >> 25) & 0x7f
	lo := (word >> 7) & 0x1f
	return SignExtend(hi<<5|lo, 12)
}

// ImmB returns bit 31 | bit 7 | bits 30:25 | bits 11:8, shifted left one,
// sign-extended.
func ImmB(in Instruction) uint32 {
	word := uint32(in)
	imm := ((word>>31)&1)<<12 |
		((word>>7)&1)<<11 |
		((word>>25)&0x3f)<<5 |
		((word>>8)&0xf)<<1
	return SignExtend(imm, 13)
}

// ImmU returns bits 31:12 in place, low bits zero.
func ImmU(in Instruction) uint32 {
	return uint32(in) & 0xfffff000
}

// ImmJ returns bit 31 | bits 19:12 | bit 20 | bits 30:21, shifted left
// one, sign-extended.
func ImmJ(in Instruction) uint32 {
	word := uint32(in)
	imm := ((word>>31)&1)<<20 |
		((word>>12)&0xff)<<12 |
		((word>>20)&1)<<11 |
		((word>>21)&0x3ff)<<1
	return SignExtend(imm, 21)
}

// Immediate returns the immediate of the instruction, decoded per the
// format of op. Formats without an immediate yield zero.
func Immediate(op Op, in Instruction) (imm uint32) {
	switch op.Format() {
	case FORMAT_I:
		imm = ImmI(in)
	case FORMAT_S:
		imm = ImmS(in)
	case FORMAT_B:
		imm = ImmB(in)
	case FORMAT_U:
		imm = ImmU(in)
	case FORMAT_J:
		imm = ImmJ(in)
	}

	return
}
