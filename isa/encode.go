package isa

// fits returns true if value is representable as a 'bits' wide two's
// complement integer.
func fits(value int32, bits uint) bool {
	limit := int32(1) << (bits - 1)
	return value >= -limit && value < limit
}

func checkRegs(regs ...uint8) error {
	for _, reg := range regs {
		if reg >= REG_COUNT {
			return ErrRegister
		}
	}
	return nil
}

func base(op Op) uint32 {
	info := opTable[op]
	return info.funct7<<25 | info.funct3<<12 | info.opcode
}

// MakeR encodes a register-register operation.
func MakeR(op Op, rd, rs1, rs2 uint8) Instruction {
	return Instruction(base(op) |
		uint32(rs2&0x1f)<<20 |
		uint32(rs1&0x1f)<<15 |
		uint32(rd&0x1f)<<7)
}

// MakeI encodes an I-format operation. For the shift-immediate operations
// imm is the shift amount.
func MakeI(op Op, rd, rs1 uint8, imm int32) Instruction {
	u := uint32(imm) & 0xfff
	if opTable[op].match == MATCH_FUNCT7 {
		u &= 0x1f
	}
	return Instruction(base(op) |
		u<<20 |
		uint32(rs1&0x1f)<<15 |
		uint32(rd&0x1f)<<7)
}

// MakeS encodes a store.
func MakeS(op Op, rs1, rs2 uint8, imm int32) Instruction {
	u := uint32(imm) & 0xfff
	return Instruction(base(op) |
		((u>>5)&0x7f)<<25 |
		uint32(rs2&0x1f)<<20 |
		uint32(rs1&0x1f)<<15 |
		(u&0x1f)<<7)
}

// MakeB encodes a conditional branch. imm is the byte offset from the
// branch instruction.
func MakeB(op Op, rs1, rs2 uint8, imm int32) Instruction {
	u := uint32(imm)
	return Instruction(base(op) |
		((u>>12)&1)<<31 |
		((u>>5)&0x3f)<<25 |
		uint32(rs2&0x1f)<<20 |
		uint32(rs1&0x1f)<<15 |
		((u>>1)&0xf)<<8 |
		((u>>11)&1)<<7)
}

// MakeU encodes LUI or AUIPC. imm20 is the value of bits 31:12.
func MakeU(op Op, rd uint8, imm20 uint32) Instruction {
	return Instruction(base(op) |
		(imm20&0xfffff)<<12 |
		uint32(rd&0x1f)<<7)
}

// MakeJ encodes JAL. imm is the byte offset from the jump instruction.
func MakeJ(op Op, rd uint8, imm int32) Instruction {
	u := uint32(imm)
	return Instruction(base(op) |
		((u>>20)&1)<<31 |
		((u>>1)&0x3ff)<<21 |
		((u>>11)&1)<<20 |
		((u>>12)&0xff)<<12 |
		uint32(rd&0x1f)<<7)
}

// MakeEcall encodes ECALL.
func MakeEcall() Instruction {
	return Instruction(ECALL_WORD)
}

// MakeFence encodes FENCE with all predecessor and successor bits set.
func MakeFence() Instruction {
	return Instruction(0x0ff00000 | base(OP_FENCE))
}

// Make encodes any operation from its operands, checking ranges.
// Operands not used by the format of op must be zero.
// For U-format operations imm is the value of bits 31:12.
func Make(op Op, rd, rs1, rs2 uint8, imm int32) (in Instruction, err error) {
	defer func() {
		if err != nil {
			err = &ErrEncode{Op: op, Err: err}
		}
	}()

	if !op.Valid() {
		err = ErrOpInvalid
		return
	}

	err = checkRegs(rd, rs1, rs2)
	if err != nil {
		return
	}

	switch op {
	case OP_ECALL:
		in = MakeEcall()
		return
	case OP_FENCE:
		in = MakeFence()
		return
	}

	switch op.Format() {
	case FORMAT_R:
		in = MakeR(op, rd, rs1, rs2)
	case FORMAT_I:
		if opTable[op].match == MATCH_FUNCT7 {
			if imm < 0 || imm > 31 {
				err = ErrImmediateRange
				return
			}
		} else if !fits(imm, 12) {
			err = ErrImmediateRange
			return
		}
		in = MakeI(op, rd, rs1, imm)
	case FORMAT_S:
		if !fits(imm, 12) {
			err = ErrImmediateRange
			return
		}
		in = MakeS(op, rs1, rs2, imm)
	case FORMAT_B:
		if !fits(imm, 13) {
			err = ErrImmediateRange
			return
		}
		if imm&1 != 0 {
			err = ErrImmediateAlign
			return
		}
		in = MakeB(op, rs1, rs2, imm)
	case FORMAT_U:
		if imm < 0 || imm > 0xfffff {
			err = ErrImmediateRange
			return
		}
		in = MakeU(op, rd, uint32(imm))
	case FORMAT_J:
		if !fits(imm, 21) {
			err = ErrImmediateRange
			return
		}
		if imm&1 != 0 {
			err = ErrImmediateAlign
			return
		}
		in = MakeJ(op, rd, imm)
	default:
		err = ErrOpInvalid
	}

	return
}
