package insts

// Compressed-instruction expansion. Each valid 16-bit instruction maps to a
// 32-bit base encoding; executing the expansion is equivalent to executing
// the compressed form. Expansion depends on XLEN: the C.JAL slot becomes
// C.ADDIW on RV64, and the FLW/LD slots swap meaning.

// illegalWord is an all-zero encoding, which decodes to OpIllegal.
const illegalWord uint32 = 0

func encodeR(funct7, rs2, rs1, funct3, rd, opc uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opc
}

func encodeI(imm int32, rs1, funct3, rd, opc uint32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opc
}

func encodeS(imm int32, rs2, rs1, funct3, opc uint32) uint32 {
	u := uint32(imm)
	return (u>>5)&0x7f<<25 | rs2<<20 | rs1<<15 | funct3<<12 | u&0x1f<<7 | opc
}

func encodeB(imm int32, rs2, rs1, funct3, opc uint32) uint32 {
	u := uint32(imm)
	return (u>>12)&0x1<<31 | (u>>5)&0x3f<<25 | rs2<<20 | rs1<<15 |
		funct3<<12 | (u>>1)&0xf<<8 | (u>>11)&0x1<<7 | opc
}

func encodeU(imm int32, rd, opc uint32) uint32 {
	return uint32(imm)&0xfffff000 | rd<<7 | opc
}

func encodeJ(imm int32, rd, opc uint32) uint32 {
	u := uint32(imm)
	return (u>>20)&0x1<<31 | (u>>1)&0x3ff<<21 | (u>>11)&0x1<<20 |
		(u>>12)&0xff<<12 | rd<<7 | opc
}

// rvcReg maps a 3-bit compressed register field to x8-x15.
func rvcReg(field uint16) uint32 {
	return uint32(field&0x7) + 8
}

func signExtend6(v uint32) int32 {
	return int32(v<<26) >> 26
}

// Expand returns the 32-bit instruction equivalent to the given 16-bit
// compressed instruction, or an illegal encoding if the compressed word is
// not valid. xlen selects the RV32 or RV64 interpretation of the slots that
// differ between the two.
func Expand(inst uint16, xlen uint32) uint32 {
	rv64 := xlen == 64

	switch inst & 0x3 {
	case 0:
		return expandQ0(inst, rv64)
	case 1:
		return expandQ1(inst, rv64)
	case 2:
		return expandQ2(inst, rv64)
	}
	return illegalWord
}

func expandQ0(inst uint16, rv64 bool) uint32 {
	rdp := rvcReg(inst >> 2)
	rs1p := rvcReg(inst >> 7)

	switch inst >> 13 {
	case 0: // c.addi4spn
		uimm := uint32(inst>>7)&0xf<<6 | uint32(inst>>11)&0x3<<4 |
			uint32(inst>>5)&0x1<<3 | uint32(inst>>6)&0x1<<2
		if uimm == 0 {
			return illegalWord
		}
		return encodeI(int32(uimm), 2, 0, rdp, opcOpImm)
	case 1: // c.fld
		uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>5)&0x3<<6
		return encodeI(int32(uimm), rs1p, 3, rdp, opcLoadFp)
	case 2: // c.lw
		uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>6)&0x1<<2 | uint32(inst>>5)&0x1<<6
		return encodeI(int32(uimm), rs1p, 2, rdp, opcLoad)
	case 3: // c.flw (rv32) / c.ld (rv64)
		if rv64 {
			uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>5)&0x3<<6
			return encodeI(int32(uimm), rs1p, 3, rdp, opcLoad)
		}
		uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>6)&0x1<<2 | uint32(inst>>5)&0x1<<6
		return encodeI(int32(uimm), rs1p, 2, rdp, opcLoadFp)
	case 5: // c.fsd
		uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>5)&0x3<<6
		return encodeS(int32(uimm), rdp, rs1p, 3, opcStoreFp)
	case 6: // c.sw
		uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>6)&0x1<<2 | uint32(inst>>5)&0x1<<6
		return encodeS(int32(uimm), rdp, rs1p, 2, opcStore)
	case 7: // c.fsw (rv32) / c.sd (rv64)
		if rv64 {
			uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>5)&0x3<<6
			return encodeS(int32(uimm), rdp, rs1p, 3, opcStore)
		}
		uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>6)&0x1<<2 | uint32(inst>>5)&0x1<<6
		return encodeS(int32(uimm), rdp, rs1p, 2, opcStoreFp)
	}
	return illegalWord
}

func expandQ1(inst uint16, rv64 bool) uint32 {
	rd := uint32(inst>>7) & 0x1f
	imm6 := signExtend6(uint32(inst>>12)&0x1<<5 | uint32(inst>>2)&0x1f)

	switch inst >> 13 {
	case 0: // c.addi / c.nop
		return encodeI(imm6, rd, 0, rd, opcOpImm)
	case 1: // c.jal (rv32) / c.addiw (rv64)
		if rv64 {
			if rd == 0 {
				return illegalWord
			}
			return encodeI(imm6, rd, 0, rd, opcOpImm32)
		}
		return encodeJ(cjDisp(inst), 1, opcJal)
	case 2: // c.li
		return encodeI(imm6, 0, 0, rd, opcOpImm)
	case 3:
		if rd == 2 { // c.addi16sp
			imm := int32(uint32(inst>>12)&0x1<<9|uint32(inst>>3)&0x3<<7|
				uint32(inst>>5)&0x1<<6|uint32(inst>>2)&0x1<<5|uint32(inst>>6)&0x1<<4) << 22 >> 22
			if imm == 0 {
				return illegalWord
			}
			return encodeI(imm, 2, 0, 2, opcOpImm)
		}
		// c.lui
		if imm6 == 0 {
			return illegalWord
		}
		return encodeU(imm6<<12, rd, opcLui)
	case 4:
		return expandQ1MiscAlu(inst, rv64)
	case 5: // c.j
		return encodeJ(cjDisp(inst), 0, opcJal)
	case 6: // c.beqz
		return encodeB(cbDisp(inst), 0, rvcReg(inst>>7), 0, opcBranch)
	case 7: // c.bnez
		return encodeB(cbDisp(inst), 0, rvcReg(inst>>7), 1, opcBranch)
	}
	return illegalWord
}

func expandQ1MiscAlu(inst uint16, rv64 bool) uint32 {
	rdp := rvcReg(inst >> 7)
	rs2p := rvcReg(inst >> 2)
	shamt := uint32(inst>>12)&0x1<<5 | uint32(inst>>2)&0x1f

	switch (inst >> 10) & 0x3 {
	case 0: // c.srli
		if !rv64 && shamt >= 32 {
			return illegalWord
		}
		return encodeI(int32(shamt), rdp, 5, rdp, opcOpImm)
	case 1: // c.srai
		if !rv64 && shamt >= 32 {
			return illegalWord
		}
		return encodeI(int32(0x400|shamt), rdp, 5, rdp, opcOpImm)
	case 2: // c.andi
		return encodeI(signExtend6(shamt), rdp, 7, rdp, opcOpImm)
	}

	if inst&0x1000 == 0 {
		switch (inst >> 5) & 0x3 {
		case 0: // c.sub
			return encodeR(0x20, rs2p, rdp, 0, rdp, opcOp)
		case 1: // c.xor
			return encodeR(0x00, rs2p, rdp, 4, rdp, opcOp)
		case 2: // c.or
			return encodeR(0x00, rs2p, rdp, 6, rdp, opcOp)
		case 3: // c.and
			return encodeR(0x00, rs2p, rdp, 7, rdp, opcOp)
		}
	}
	if rv64 {
		switch (inst >> 5) & 0x3 {
		case 0: // c.subw
			return encodeR(0x20, rs2p, rdp, 0, rdp, opcOp32)
		case 1: // c.addw
			return encodeR(0x00, rs2p, rdp, 0, rdp, opcOp32)
		}
	}
	return illegalWord
}

// cjDisp unscrambles the 11-bit C.J/C.JAL displacement.
func cjDisp(inst uint16) int32 {
	v := uint32(inst)
	imm := (v>>12)&0x1<<11 | (v>>11)&0x1<<4 | (v>>9)&0x3<<8 |
		(v>>8)&0x1<<10 | (v>>7)&0x1<<6 | (v>>6)&0x1<<7 |
		(v>>3)&0x7<<1 | (v>>2)&0x1<<5
	return int32(imm<<20) >> 20
}

// cbDisp unscrambles the 8-bit C.BEQZ/C.BNEZ displacement.
func cbDisp(inst uint16) int32 {
	v := uint32(inst)
	imm := (v>>12)&0x1<<8 | (v>>10)&0x3<<3 | (v>>5)&0x3<<6 |
		(v>>3)&0x3<<1 | (v>>2)&0x1<<5
	return int32(imm<<23) >> 23
}

func expandQ2(inst uint16, rv64 bool) uint32 {
	rd := uint32(inst>>7) & 0x1f
	rs2 := uint32(inst>>2) & 0x1f

	switch inst >> 13 {
	case 0: // c.slli
		shamt := uint32(inst>>12)&0x1<<5 | uint32(inst>>2)&0x1f
		if !rv64 && shamt >= 32 {
			return illegalWord
		}
		return encodeI(int32(shamt), rd, 1, rd, opcOpImm)
	case 1: // c.fldsp
		uimm := uint32(inst>>12)&0x1<<5 | uint32(inst>>5)&0x3<<3 | uint32(inst>>2)&0x7<<6
		return encodeI(int32(uimm), 2, 3, rd, opcLoadFp)
	case 2: // c.lwsp
		if rd == 0 {
			return illegalWord
		}
		uimm := uint32(inst>>12)&0x1<<5 | uint32(inst>>4)&0x7<<2 | uint32(inst>>2)&0x3<<6
		return encodeI(int32(uimm), 2, 2, rd, opcLoad)
	case 3: // c.flwsp (rv32) / c.ldsp (rv64)
		if rv64 {
			if rd == 0 {
				return illegalWord
			}
			uimm := uint32(inst>>12)&0x1<<5 | uint32(inst>>5)&0x3<<3 | uint32(inst>>2)&0x7<<6
			return encodeI(int32(uimm), 2, 3, rd, opcLoad)
		}
		uimm := uint32(inst>>12)&0x1<<5 | uint32(inst>>4)&0x7<<2 | uint32(inst>>2)&0x3<<6
		return encodeI(int32(uimm), 2, 2, rd, opcLoadFp)
	case 4:
		if inst&0x1000 == 0 {
			if rs2 == 0 { // c.jr
				if rd == 0 {
					return illegalWord
				}
				return encodeI(0, rd, 0, 0, opcJalr)
			}
			// c.mv
			return encodeR(0x00, rs2, 0, 0, rd, opcOp)
		}
		if rd == 0 && rs2 == 0 { // c.ebreak
			return encodeI(1, 0, 0, 0, opcSystem)
		}
		if rs2 == 0 { // c.jalr
			return encodeI(0, rd, 0, 1, opcJalr)
		}
		// c.add
		return encodeR(0x00, rs2, rd, 0, rd, opcOp)
	case 5: // c.fsdsp
		uimm := uint32(inst>>10)&0x7<<3 | uint32(inst>>7)&0x7<<6
		return encodeS(int32(uimm), rs2, 2, 3, opcStoreFp)
	case 6: // c.swsp
		uimm := uint32(inst>>9)&0xf<<2 | uint32(inst>>7)&0x3<<6
		return encodeS(int32(uimm), rs2, 2, 2, opcStore)
	case 7: // c.fswsp (rv32) / c.sdsp (rv64)
		uimm64 := uint32(inst>>10)&0x7<<3 | uint32(inst>>7)&0x7<<6
		if rv64 {
			return encodeS(int32(uimm64), rs2, 2, 3, opcStore)
		}
		uimm := uint32(inst>>9)&0xf<<2 | uint32(inst>>7)&0x3<<6
		return encodeS(int32(uimm), rs2, 2, 2, opcStoreFp)
	}
	return illegalWord
}
