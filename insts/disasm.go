package insts

import "fmt"

// abiNames maps integer register indices to their ABI mnemonics.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the name of integer register r, using ABI names when
// abi is true and xN names otherwise.
func RegName(r uint32, abi bool) string {
	if r > 31 {
		return fmt.Sprintf("x%d", r)
	}
	if abi {
		return abiNames[r]
	}
	return fmt.Sprintf("x%d", r)
}

// FpRegName returns the name of floating-point register r.
func FpRegName(r uint32) string {
	return fmt.Sprintf("f%d", r)
}

// Disassemble renders a decoded instruction as assembly text.
func Disassemble(di *DecodedInst, abi bool) string {
	ent := di.Op.Entry()
	m := ent.Mnemonic
	rd := RegName(di.Rd, abi)
	rs1 := RegName(di.Rs1, abi)
	rs2 := RegName(di.Rs2, abi)

	switch di.Op {
	case OpIllegal:
		return fmt.Sprintf("illegal 0x%08x", di.Word)
	case OpLUI, OpAUIPC:
		return fmt.Sprintf("%s %s, 0x%x", m, rd, uint32(di.Imm)>>12)
	case OpJAL:
		return fmt.Sprintf("%s %s, %d", m, rd, di.Imm)
	case OpJALR:
		return fmt.Sprintf("%s %s, %d(%s)", m, rd, di.Imm, rs1)
	case OpECALL, OpEBREAK, OpMRET, OpSRET, OpURET, OpWFI, OpFENCE, OpFENCEI:
		return m
	case OpSFENCEVMA:
		return fmt.Sprintf("%s %s, %s", m, rs1, rs2)
	case OpCSRRW, OpCSRRS, OpCSRRC:
		return fmt.Sprintf("%s %s, 0x%x, %s", m, rd, di.Csr, rs1)
	case OpCSRRWI, OpCSRRSI, OpCSRRCI:
		return fmt.Sprintf("%s %s, 0x%x, %d", m, rd, di.Csr, di.Imm)
	}

	switch ent.Class {
	case ClassBranch:
		return fmt.Sprintf("%s %s, %s, %d", m, rs1, rs2, di.Imm)
	case ClassLoad:
		dest := rd
		if ent.Ext == ExtF || ent.Ext == ExtD {
			dest = FpRegName(di.Rd)
		}
		return fmt.Sprintf("%s %s, %d(%s)", m, dest, di.Imm, rs1)
	case ClassStore:
		src := rs2
		if ent.Ext == ExtF || ent.Ext == ExtD {
			src = FpRegName(di.Rs2)
		}
		return fmt.Sprintf("%s %s, %d(%s)", m, src, di.Imm, rs1)
	case ClassAtomic:
		if di.Op == OpLRW || di.Op == OpLRD {
			return fmt.Sprintf("%s %s, (%s)", m, rd, rs1)
		}
		return fmt.Sprintf("%s %s, %s, (%s)", m, rd, rs2, rs1)
	case ClassFp:
		return disassembleFp(di, m, abi)
	}

	// Integer register-register and register-immediate forms.
	switch di.Op {
	case OpCLZ, OpCTZ, OpPCNT, OpSEXTB, OpSEXTH, OpBMATFLIP,
		OpCRC32B, OpCRC32H, OpCRC32W, OpCRC32D,
		OpCRC32CB, OpCRC32CH, OpCRC32CW, OpCRC32CD:
		return fmt.Sprintf("%s %s, %s", m, rd, rs1)
	case OpCMOV, OpCMIX, OpFSL, OpFSR:
		return fmt.Sprintf("%s %s, %s, %s, %s", m, rd, rs1, rs2, RegName(di.Rs3, abi))
	case OpFSRI:
		return fmt.Sprintf("%s %s, %s, %s, %d", m, rd, rs1, RegName(di.Rs3, abi), di.Imm)
	case OpADDI, OpSLTI, OpSLTIU, OpXORI, OpORI, OpANDI, OpADDIW, OpADDIWU,
		OpSLLI, OpSRLI, OpSRAI, OpSLLIW, OpSRLIW, OpSRAIW, OpSLLIUW,
		OpSLOI, OpSROI, OpRORI, OpGREVI, OpGORCI, OpSHFLI, OpUNSHFLI,
		OpSBSETI, OpSBCLRI, OpSBINVI, OpSBEXTI:
		return fmt.Sprintf("%s %s, %s, %d", m, rd, rs1, di.Imm)
	}

	return fmt.Sprintf("%s %s, %s, %s", m, rd, rs1, rs2)
}

func disassembleFp(di *DecodedInst, m string, abi bool) string {
	fd := FpRegName(di.Rd)
	fs1 := FpRegName(di.Rs1)
	fs2 := FpRegName(di.Rs2)

	switch di.Op {
	case OpFMADDS, OpFMSUBS, OpFNMSUBS, OpFNMADDS,
		OpFMADDD, OpFMSUBD, OpFNMSUBD, OpFNMADDD:
		return fmt.Sprintf("%s %s, %s, %s, %s", m, fd, fs1, fs2, FpRegName(di.Rs3))
	case OpFSQRTS, OpFSQRTD, OpFCVTDS, OpFCVTSD:
		return fmt.Sprintf("%s %s, %s", m, fd, fs1)
	case OpFCVTWS, OpFCVTWUS, OpFCVTLS, OpFCVTLUS,
		OpFCVTWD, OpFCVTWUD, OpFCVTLD, OpFCVTLUD,
		OpFMVXW, OpFMVXD, OpFCLASSS, OpFCLASSD:
		return fmt.Sprintf("%s %s, %s", m, RegName(di.Rd, abi), fs1)
	case OpFCVTSW, OpFCVTSWU, OpFCVTSL, OpFCVTSLU,
		OpFCVTDW, OpFCVTDWU, OpFCVTDL, OpFCVTDLU,
		OpFMVWX, OpFMVDX:
		return fmt.Sprintf("%s %s, %s", m, fd, RegName(di.Rs1, abi))
	case OpFEQS, OpFLTS, OpFLES, OpFEQD, OpFLTD, OpFLED:
		return fmt.Sprintf("%s %s, %s, %s", m, RegName(di.Rd, abi), fs1, fs2)
	}
	return fmt.Sprintf("%s %s, %s, %s", m, fd, fs1, fs2)
}
