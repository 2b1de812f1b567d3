// Package insts provides RISC-V instruction definitions and decoding.
package insts

// Base opcode fields (bits [6:0]).
const (
	opcLui     = 0x37
	opcAuipc   = 0x17
	opcJal     = 0x6f
	opcJalr    = 0x67
	opcBranch  = 0x63
	opcLoad    = 0x03
	opcStore   = 0x23
	opcOpImm   = 0x13
	opcOp      = 0x33
	opcOpImm32 = 0x1b
	opcOp32    = 0x3b
	opcMiscMem = 0x0f
	opcSystem  = 0x73
	opcAmo     = 0x2f
	opcLoadFp  = 0x07
	opcStoreFp = 0x27
	opcFmadd   = 0x43
	opcFmsub   = 0x47
	opcFnmsub  = 0x4b
	opcFnmadd  = 0x4f
	opcOpFp    = 0x53
)

// Decoder decodes RISC-V machine code into instructions. It is stateless:
// Decode is a pure function of the instruction word.
type Decoder struct{}

// NewDecoder creates a new RISC-V instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// IsCompressed reports whether the low 16 bits of a fetch group encode a
// compressed instruction (low two bits not 11).
func IsCompressed(low uint16) bool {
	return low&0x3 != 0x3
}

// Decode decodes a 32-bit instruction word. Compressed words must be
// expanded with Expand first.
func (d *Decoder) Decode(word uint32) DecodedInst {
	di := DecodedInst{Word: word, Op: OpIllegal, Size: 4}

	switch word & 0x7f {
	case opcLui:
		di.Op, di.Rd, di.Imm = OpLUI, rdField(word), int32(word&0xfffff000)
	case opcAuipc:
		di.Op, di.Rd, di.Imm = OpAUIPC, rdField(word), int32(word&0xfffff000)
	case opcJal:
		di.Op, di.Rd, di.Imm = OpJAL, rdField(word), jImm(word)
	case opcJalr:
		if f3(word) == 0 {
			di.Op, di.Rd, di.Rs1, di.Imm = OpJALR, rdField(word), rs1Field(word), iImm(word)
		}
	case opcBranch:
		d.decodeBranch(word, &di)
	case opcLoad:
		d.decodeLoad(word, &di)
	case opcStore:
		d.decodeStore(word, &di)
	case opcOpImm:
		d.decodeOpImm(word, &di)
	case opcOp:
		d.decodeOp(word, &di)
	case opcOpImm32:
		d.decodeOpImm32(word, &di)
	case opcOp32:
		d.decodeOp32(word, &di)
	case opcMiscMem:
		switch f3(word) {
		case 0:
			di.Op = OpFENCE
		case 1:
			di.Op = OpFENCEI
		}
	case opcSystem:
		d.decodeSystem(word, &di)
	case opcAmo:
		d.decodeAmo(word, &di)
	case opcLoadFp:
		switch f3(word) {
		case 2:
			di.Op, di.Rd, di.Rs1, di.Imm = OpFLW, rdField(word), rs1Field(word), iImm(word)
		case 3:
			di.Op, di.Rd, di.Rs1, di.Imm = OpFLD, rdField(word), rs1Field(word), iImm(word)
		}
	case opcStoreFp:
		switch f3(word) {
		case 2:
			di.Op, di.Rs1, di.Rs2, di.Imm = OpFSW, rs1Field(word), rs2Field(word), sImm(word)
		case 3:
			di.Op, di.Rs1, di.Rs2, di.Imm = OpFSD, rs1Field(word), rs2Field(word), sImm(word)
		}
	case opcFmadd, opcFmsub, opcFnmsub, opcFnmadd:
		d.decodeFma(word, &di)
	case opcOpFp:
		d.decodeOpFp(word, &di)
	}

	return di
}

func rdField(word uint32) uint32  { return (word >> 7) & 0x1f }
func rs1Field(word uint32) uint32 { return (word >> 15) & 0x1f }
func rs2Field(word uint32) uint32 { return (word >> 20) & 0x1f }
func rs3Field(word uint32) uint32 { return (word >> 27) & 0x1f }
func f3(word uint32) uint32       { return (word >> 12) & 0x7 }
func f7(word uint32) uint32       { return (word >> 25) & 0x7f }

// iImm extracts the sign-extended I-type immediate (bits [31:20]).
func iImm(word uint32) int32 {
	return int32(word) >> 20
}

// sImm extracts the sign-extended S-type immediate.
func sImm(word uint32) int32 {
	return int32(word&0xfe000000)>>20 | int32((word>>7)&0x1f)
}

// bImm extracts the sign-extended B-type immediate (branch displacement).
func bImm(word uint32) int32 {
	imm := (word>>31)&0x1<<12 |
		(word>>7)&0x1<<11 |
		(word>>25)&0x3f<<5 |
		(word>>8)&0xf<<1
	return int32(imm<<19) >> 19
}

// jImm extracts the sign-extended J-type immediate (jump displacement).
func jImm(word uint32) int32 {
	imm := (word>>31)&0x1<<20 |
		(word>>12)&0xff<<12 |
		(word>>20)&0x1<<11 |
		(word>>21)&0x3ff<<1
	return int32(imm<<11) >> 11
}

func (d *Decoder) decodeBranch(word uint32, di *DecodedInst) {
	ops := [8]Op{OpBEQ, OpBNE, OpIllegal, OpIllegal, OpBLT, OpBGE, OpBLTU, OpBGEU}
	di.Op = ops[f3(word)]
	if di.Op != OpIllegal {
		di.Rs1, di.Rs2, di.Imm = rs1Field(word), rs2Field(word), bImm(word)
	}
}

func (d *Decoder) decodeLoad(word uint32, di *DecodedInst) {
	ops := [8]Op{OpLB, OpLH, OpLW, OpLD, OpLBU, OpLHU, OpLWU, OpIllegal}
	di.Op = ops[f3(word)]
	if di.Op != OpIllegal {
		di.Rd, di.Rs1, di.Imm = rdField(word), rs1Field(word), iImm(word)
	}
}

func (d *Decoder) decodeStore(word uint32, di *DecodedInst) {
	ops := [8]Op{OpSB, OpSH, OpSW, OpSD, OpIllegal, OpIllegal, OpIllegal, OpIllegal}
	di.Op = ops[f3(word)]
	if di.Op != OpIllegal {
		di.Rs1, di.Rs2, di.Imm = rs1Field(word), rs2Field(word), sImm(word)
	}
}

// shamt6 extracts a 6-bit shift amount (RV64 form; the hart rejects bit 5
// when running RV32).
func shamt6(word uint32) int32 {
	return int32((word >> 20) & 0x3f)
}

func (d *Decoder) decodeOpImm(word uint32, di *DecodedInst) {
	di.Rd, di.Rs1, di.Imm = rdField(word), rs1Field(word), iImm(word)

	switch f3(word) {
	case 0:
		di.Op = OpADDI
	case 2:
		di.Op = OpSLTI
	case 3:
		di.Op = OpSLTIU
	case 4:
		di.Op = OpXORI
	case 6:
		di.Op = OpORI
	case 7:
		di.Op = OpANDI
	case 1:
		d.decodeShiftLeftImm(word, di)
	case 5:
		d.decodeShiftRightImm(word, di)
	}
}

// decodeShiftLeftImm handles the OP-IMM funct3=001 group: slli plus the
// bit-manipulation immediates that share its slot.
func (d *Decoder) decodeShiftLeftImm(word uint32, di *DecodedInst) {
	di.Imm = shamt6(word)

	if f7(word) == 0x30 { // unary register ops encoded in the shamt field
		d.decodeUnary(word, di)
		return
	}

	switch f7(word) >> 1 { // funct6: shamt bit 5 belongs to the immediate
	case 0x00:
		di.Op = OpSLLI
	case 0x08:
		di.Op = OpSLOI
	case 0x0a:
		di.Op = OpSBSETI
	case 0x12:
		di.Op = OpSBCLRI
	case 0x1a:
		di.Op = OpSBINVI
	case 0x02:
		di.Op, di.Imm = OpSHFLI, int32((word>>20)&0x1f)
	default:
		di.Op, di.Imm = OpIllegal, 0
	}
}

// decodeUnary handles the funct7=0110000 funct3=001 unary group where the
// rs2 field selects the operation.
func (d *Decoder) decodeUnary(word uint32, di *DecodedInst) {
	di.Imm = 0
	switch rs2Field(word) {
	case 0x00:
		di.Op = OpCLZ
	case 0x01:
		di.Op = OpCTZ
	case 0x02:
		di.Op = OpPCNT
	case 0x03:
		di.Op = OpBMATFLIP
	case 0x04:
		di.Op = OpSEXTB
	case 0x05:
		di.Op = OpSEXTH
	case 0x10:
		di.Op = OpCRC32B
	case 0x11:
		di.Op = OpCRC32H
	case 0x12:
		di.Op = OpCRC32W
	case 0x13:
		di.Op = OpCRC32D
	case 0x18:
		di.Op = OpCRC32CB
	case 0x19:
		di.Op = OpCRC32CH
	case 0x1a:
		di.Op = OpCRC32CW
	case 0x1b:
		di.Op = OpCRC32CD
	}
}

// decodeShiftRightImm handles the OP-IMM funct3=101 group: srli/srai plus
// rotate, generalized-reverse and funnel-shift immediates.
func (d *Decoder) decodeShiftRightImm(word uint32, di *DecodedInst) {
	if word&(1<<26) != 0 { // fsri: rs3 above the 6-bit shamt
		di.Op = OpFSRI
		di.Rs3 = rs3Field(word)
		di.Imm = int32((word >> 20) & 0x3f)
		return
	}

	di.Imm = shamt6(word)
	switch f7(word) >> 1 {
	case 0x00:
		di.Op = OpSRLI
	case 0x10:
		di.Op = OpSRAI
	case 0x08:
		di.Op = OpSROI
	case 0x18:
		di.Op = OpRORI
	case 0x0a:
		di.Op = OpGORCI
	case 0x1a:
		di.Op = OpGREVI
	case 0x12:
		di.Op = OpSBEXTI
	case 0x02:
		di.Op, di.Imm = OpUNSHFLI, int32((word>>20)&0x1f)
	default:
		di.Op, di.Imm = OpIllegal, 0
	}
}

func (d *Decoder) decodeOp(word uint32, di *DecodedInst) {
	di.Rd, di.Rs1, di.Rs2 = rdField(word), rs1Field(word), rs2Field(word)

	// Ternary group: bits [26:25] select fsl/fsr (10) or cmix/cmov (11)
	// with rs3 in the upper field.
	switch word >> 25 & 0x3 {
	case 2:
		di.Rs3 = rs3Field(word)
		switch f3(word) {
		case 1:
			di.Op = OpFSL
		case 5:
			di.Op = OpFSR
		}
		if di.Op != OpIllegal {
			return
		}
	case 3:
		di.Rs3 = rs3Field(word)
		switch f3(word) {
		case 1:
			di.Op = OpCMIX
		case 5:
			di.Op = OpCMOV
		}
		if di.Op != OpIllegal {
			return
		}
	}
	di.Rs3 = 0

	type key struct {
		funct7 uint32
		funct3 uint32
	}
	ops := map[key]Op{
		{0x00, 0}: OpADD, {0x00, 1}: OpSLL, {0x00, 2}: OpSLT, {0x00, 3}: OpSLTU,
		{0x00, 4}: OpXOR, {0x00, 5}: OpSRL, {0x00, 6}: OpOR, {0x00, 7}: OpAND,
		{0x20, 0}: OpSUB, {0x20, 4}: OpXNOR, {0x20, 5}: OpSRA,
		{0x20, 6}: OpORN, {0x20, 7}: OpANDN,
		{0x01, 0}: OpMUL, {0x01, 1}: OpMULH, {0x01, 2}: OpMULHSU, {0x01, 3}: OpMULHU,
		{0x01, 4}: OpDIV, {0x01, 5}: OpDIVU, {0x01, 6}: OpREM, {0x01, 7}: OpREMU,
		{0x10, 1}: OpSLO, {0x10, 5}: OpSRO,
		{0x10, 2}: OpSH1ADD, {0x10, 4}: OpSH2ADD, {0x10, 6}: OpSH3ADD,
		{0x30, 1}: OpROL, {0x30, 5}: OpROR,
		{0x14, 1}: OpSBSET, {0x14, 5}: OpGORC,
		{0x24, 1}: OpSBCLR, {0x24, 5}: OpSBEXT, {0x24, 4}: OpPACKU,
		{0x24, 6}: OpBDEP, {0x24, 3}: OpBMATXOR, {0x24, 7}: OpBFP,
		{0x34, 1}: OpSBINV, {0x34, 5}: OpGREV,
		{0x05, 1}: OpCLMUL, {0x05, 2}: OpCLMULR, {0x05, 3}: OpCLMULH,
		{0x05, 4}: OpMIN, {0x05, 5}: OpMAX, {0x05, 6}: OpMINU, {0x05, 7}: OpMAXU,
		{0x04, 1}: OpSHFL, {0x04, 5}: OpUNSHFL, {0x04, 4}: OpPACK,
		{0x04, 7}: OpPACKH, {0x04, 6}: OpBEXT, {0x04, 3}: OpBMATOR,
	}
	di.Op = ops[key{f7(word), f3(word)}]
}

func (d *Decoder) decodeOpImm32(word uint32, di *DecodedInst) {
	di.Rd, di.Rs1 = rdField(word), rs1Field(word)

	switch f3(word) {
	case 0:
		di.Op, di.Imm = OpADDIW, iImm(word)
	case 4:
		di.Op, di.Imm = OpADDIWU, iImm(word)
	case 1:
		switch f7(word) >> 1 {
		case 0x00:
			di.Op, di.Imm = OpSLLIW, int32((word>>20)&0x1f)
		case 0x02:
			di.Op, di.Imm = OpSLLIUW, shamt6(word)
		}
	case 5:
		switch f7(word) {
		case 0x00:
			di.Op, di.Imm = OpSRLIW, int32((word>>20)&0x1f)
		case 0x20:
			di.Op, di.Imm = OpSRAIW, int32((word>>20)&0x1f)
		}
	}
}

func (d *Decoder) decodeOp32(word uint32, di *DecodedInst) {
	di.Rd, di.Rs1, di.Rs2 = rdField(word), rs1Field(word), rs2Field(word)

	type key struct {
		funct7 uint32
		funct3 uint32
	}
	ops := map[key]Op{
		{0x00, 0}: OpADDW, {0x00, 1}: OpSLLW, {0x00, 5}: OpSRLW,
		{0x20, 0}: OpSUBW, {0x20, 5}: OpSRAW,
		{0x01, 0}: OpMULW, {0x01, 4}: OpDIVW, {0x01, 5}: OpDIVUW,
		{0x01, 6}: OpREMW, {0x01, 7}: OpREMUW,
		{0x04, 0}: OpADDUW, {0x04, 4}: OpPACKW,
		{0x24, 0}: OpSUBUW, {0x24, 4}: OpPACKUW,
		{0x05, 0}: OpADDWU, {0x25, 0}: OpSUBWU,
		{0x10, 2}: OpSH1ADDUW, {0x10, 4}: OpSH2ADDUW, {0x10, 6}: OpSH3ADDUW,
	}
	di.Op = ops[key{f7(word), f3(word)}]
}

func (d *Decoder) decodeSystem(word uint32, di *DecodedInst) {
	if f3(word) == 0 {
		if f7(word) == 0x09 { // sfence.vma
			di.Op, di.Rs1, di.Rs2 = OpSFENCEVMA, rs1Field(word), rs2Field(word)
			return
		}
		switch word >> 20 {
		case 0x000:
			di.Op = OpECALL
		case 0x001:
			di.Op = OpEBREAK
		case 0x002:
			di.Op = OpURET
		case 0x102:
			di.Op = OpSRET
		case 0x105:
			di.Op = OpWFI
		case 0x302:
			di.Op = OpMRET
		}
		return
	}

	ops := [8]Op{OpIllegal, OpCSRRW, OpCSRRS, OpCSRRC, OpIllegal, OpCSRRWI, OpCSRRSI, OpCSRRCI}
	di.Op = ops[f3(word)]
	if di.Op != OpIllegal {
		di.Rd, di.Rs1, di.Csr = rdField(word), rs1Field(word), word>>20
		di.Imm = int32(rs1Field(word)) // uimm for the immediate variants
	}
}

// Aq and Rl report the acquire/release bits of an atomic instruction word.
func (di *DecodedInst) Aq() bool { return di.Word&(1<<26) != 0 }

// Rl reports the release bit of an atomic instruction word.
func (di *DecodedInst) Rl() bool { return di.Word&(1<<25) != 0 }

func (d *Decoder) decodeAmo(word uint32, di *DecodedInst) {
	var ops map[uint32]Op
	switch f3(word) {
	case 2:
		ops = map[uint32]Op{
			0x02: OpLRW, 0x03: OpSCW, 0x01: OpAMOSWAPW, 0x00: OpAMOADDW,
			0x04: OpAMOXORW, 0x0c: OpAMOANDW, 0x08: OpAMOORW,
			0x10: OpAMOMINW, 0x14: OpAMOMAXW, 0x18: OpAMOMINUW, 0x1c: OpAMOMAXUW,
		}
	case 3:
		ops = map[uint32]Op{
			0x02: OpLRD, 0x03: OpSCD, 0x01: OpAMOSWAPD, 0x00: OpAMOADDD,
			0x04: OpAMOXORD, 0x0c: OpAMOANDD, 0x08: OpAMOORD,
			0x10: OpAMOMIND, 0x14: OpAMOMAXD, 0x18: OpAMOMINUD, 0x1c: OpAMOMAXUD,
		}
	default:
		return
	}

	funct5 := word >> 27
	di.Op = ops[funct5]
	if di.Op != OpIllegal {
		di.Rd, di.Rs1, di.Rs2 = rdField(word), rs1Field(word), rs2Field(word)
	}
	if (di.Op == OpLRW || di.Op == OpLRD) && di.Rs2 != 0 {
		*di = DecodedInst{Word: word, Op: OpIllegal, Size: 4}
	}
}

func (d *Decoder) decodeFma(word uint32, di *DecodedInst) {
	fmt := (word >> 25) & 0x3
	if fmt > 1 {
		return
	}

	var ops [2]Op
	switch word & 0x7f {
	case opcFmadd:
		ops = [2]Op{OpFMADDS, OpFMADDD}
	case opcFmsub:
		ops = [2]Op{OpFMSUBS, OpFMSUBD}
	case opcFnmsub:
		ops = [2]Op{OpFNMSUBS, OpFNMSUBD}
	case opcFnmadd:
		ops = [2]Op{OpFNMADDS, OpFNMADDD}
	}

	di.Op = ops[fmt]
	di.Rd, di.Rs1, di.Rs2, di.Rs3 = rdField(word), rs1Field(word), rs2Field(word), rs3Field(word)
	di.Rm = f3(word)
}

func (d *Decoder) decodeOpFp(word uint32, di *DecodedInst) {
	di.Rd, di.Rs1, di.Rs2 = rdField(word), rs1Field(word), rs2Field(word)
	di.Rm = f3(word)

	switch f7(word) {
	case 0x00:
		di.Op = OpFADDS
	case 0x04:
		di.Op = OpFSUBS
	case 0x08:
		di.Op = OpFMULS
	case 0x0c:
		di.Op = OpFDIVS
	case 0x2c:
		if di.Rs2 == 0 {
			di.Op = OpFSQRTS
		}
	case 0x10:
		switch di.Rm {
		case 0:
			di.Op = OpFSGNJS
		case 1:
			di.Op = OpFSGNJNS
		case 2:
			di.Op = OpFSGNJXS
		}
	case 0x14:
		switch di.Rm {
		case 0:
			di.Op = OpFMINS
		case 1:
			di.Op = OpFMAXS
		}
	case 0x60:
		di.Op = [4]Op{OpFCVTWS, OpFCVTWUS, OpFCVTLS, OpFCVTLUS}[di.Rs2&0x3]
		if di.Rs2 > 3 {
			di.Op = OpIllegal
		}
	case 0x70:
		switch di.Rm {
		case 0:
			di.Op = OpFMVXW
		case 1:
			di.Op = OpFCLASSS
		}
	case 0x50:
		switch di.Rm {
		case 0:
			di.Op = OpFLES
		case 1:
			di.Op = OpFLTS
		case 2:
			di.Op = OpFEQS
		}
	case 0x68:
		di.Op = [4]Op{OpFCVTSW, OpFCVTSWU, OpFCVTSL, OpFCVTSLU}[di.Rs2&0x3]
		if di.Rs2 > 3 {
			di.Op = OpIllegal
		}
	case 0x78:
		if di.Rm == 0 {
			di.Op = OpFMVWX
		}

	case 0x01:
		di.Op = OpFADDD
	case 0x05:
		di.Op = OpFSUBD
	case 0x09:
		di.Op = OpFMULD
	case 0x0d:
		di.Op = OpFDIVD
	case 0x2d:
		if di.Rs2 == 0 {
			di.Op = OpFSQRTD
		}
	case 0x11:
		switch di.Rm {
		case 0:
			di.Op = OpFSGNJD
		case 1:
			di.Op = OpFSGNJND
		case 2:
			di.Op = OpFSGNJXD
		}
	case 0x15:
		switch di.Rm {
		case 0:
			di.Op = OpFMIND
		case 1:
			di.Op = OpFMAXD
		}
	case 0x20:
		if di.Rs2 == 1 {
			di.Op = OpFCVTSD
		}
	case 0x21:
		if di.Rs2 == 0 {
			di.Op = OpFCVTDS
		}
	case 0x51:
		switch di.Rm {
		case 0:
			di.Op = OpFLED
		case 1:
			di.Op = OpFLTD
		case 2:
			di.Op = OpFEQD
		}
	case 0x61:
		di.Op = [4]Op{OpFCVTWD, OpFCVTWUD, OpFCVTLD, OpFCVTLUD}[di.Rs2&0x3]
		if di.Rs2 > 3 {
			di.Op = OpIllegal
		}
	case 0x69:
		di.Op = [4]Op{OpFCVTDW, OpFCVTDWU, OpFCVTDL, OpFCVTDLU}[di.Rs2&0x3]
		if di.Rs2 > 3 {
			di.Op = OpIllegal
		}
	case 0x71:
		switch di.Rm {
		case 0:
			di.Op = OpFMVXD
		case 1:
			di.Op = OpFCLASSD
		}
	case 0x79:
		if di.Rm == 0 {
			di.Op = OpFMVDX
		}
	}
}
