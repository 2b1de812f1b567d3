// Package insts provides RISC-V instruction definitions and decoding.
//
// This package implements decoding of RV32/RV64 machine code into structured
// instruction representations. It covers the I, M, A, F, D and C extensions
// together with the draft bit-manipulation family (Zba, Zbb, Zbc, Zbe, Zbf,
// Zbm, Zbp, Zbr, Zbs, Zbt). Compressed (16-bit) instructions are expanded to
// their 32-bit equivalents before decoding.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00700093) // ADDI x1, x0, 7
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts

// Op identifies a RISC-V instruction.
type Op uint16

// Instruction identities. The order groups instructions by extension.
const (
	OpIllegal Op = iota

	// RV32I
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpFENCEI
	OpECALL
	OpEBREAK

	// System
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
	OpMRET
	OpSRET
	OpURET
	OpWFI
	OpSFENCEVMA

	// RV64I
	OpLWU
	OpLD
	OpSD
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW

	// M
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW

	// A (32-bit)
	OpLRW
	OpSCW
	OpAMOSWAPW
	OpAMOADDW
	OpAMOXORW
	OpAMOANDW
	OpAMOORW
	OpAMOMINW
	OpAMOMAXW
	OpAMOMINUW
	OpAMOMAXUW

	// A (64-bit)
	OpLRD
	OpSCD
	OpAMOSWAPD
	OpAMOADDD
	OpAMOXORD
	OpAMOANDD
	OpAMOORD
	OpAMOMIND
	OpAMOMAXD
	OpAMOMINUD
	OpAMOMAXUD

	// F
	OpFLW
	OpFSW
	OpFMADDS
	OpFMSUBS
	OpFNMSUBS
	OpFNMADDS
	OpFADDS
	OpFSUBS
	OpFMULS
	OpFDIVS
	OpFSQRTS
	OpFSGNJS
	OpFSGNJNS
	OpFSGNJXS
	OpFMINS
	OpFMAXS
	OpFCVTWS
	OpFCVTWUS
	OpFMVXW
	OpFEQS
	OpFLTS
	OpFLES
	OpFCLASSS
	OpFCVTSW
	OpFCVTSWU
	OpFMVWX
	OpFCVTLS
	OpFCVTLUS
	OpFCVTSL
	OpFCVTSLU

	// D
	OpFLD
	OpFSD
	OpFMADDD
	OpFMSUBD
	OpFNMSUBD
	OpFNMADDD
	OpFADDD
	OpFSUBD
	OpFMULD
	OpFDIVD
	OpFSQRTD
	OpFSGNJD
	OpFSGNJND
	OpFSGNJXD
	OpFMIND
	OpFMAXD
	OpFCVTDS
	OpFCVTSD
	OpFEQD
	OpFLTD
	OpFLED
	OpFCLASSD
	OpFCVTWD
	OpFCVTWUD
	OpFCVTDW
	OpFCVTDWU
	OpFCVTLD
	OpFCVTLUD
	OpFCVTDL
	OpFCVTDLU
	OpFMVXD
	OpFMVDX

	// Zba
	OpSH1ADD
	OpSH2ADD
	OpSH3ADD
	OpSH1ADDUW
	OpSH2ADDUW
	OpSH3ADDUW
	OpADDUW
	OpSUBUW
	OpSLLIUW

	// Zbb
	OpCLZ
	OpCTZ
	OpPCNT
	OpANDN
	OpORN
	OpXNOR
	OpSLO
	OpSRO
	OpSLOI
	OpSROI
	OpMIN
	OpMAX
	OpMINU
	OpMAXU
	OpROL
	OpROR
	OpRORI
	OpPACK
	OpPACKH
	OpPACKU
	OpPACKW
	OpPACKUW
	OpADDWU
	OpSUBWU
	OpADDIWU
	OpSEXTB
	OpSEXTH

	// Zbp
	OpGREV
	OpGREVI
	OpGORC
	OpGORCI
	OpSHFL
	OpSHFLI
	OpUNSHFL
	OpUNSHFLI

	// Zbs
	OpSBSET
	OpSBCLR
	OpSBINV
	OpSBEXT
	OpSBSETI
	OpSBCLRI
	OpSBINVI
	OpSBEXTI

	// Zbe / Zbf
	OpBEXT
	OpBDEP
	OpBFP

	// Zbc
	OpCLMUL
	OpCLMULH
	OpCLMULR

	// Zbr
	OpCRC32B
	OpCRC32H
	OpCRC32W
	OpCRC32D
	OpCRC32CB
	OpCRC32CH
	OpCRC32CW
	OpCRC32CD

	// Zbm
	OpBMATOR
	OpBMATXOR
	OpBMATFLIP

	// Zbt
	OpCMOV
	OpCMIX
	OpFSL
	OpFSR
	OpFSRI

	numOps
)

// Extension identifies the ISA extension an instruction belongs to.
type Extension uint8

// ISA extensions.
const (
	ExtI Extension = iota
	ExtM
	ExtA
	ExtF
	ExtD
	ExtC
	ExtS
	ExtZba
	ExtZbb
	ExtZbc
	ExtZbe
	ExtZbf
	ExtZbm
	ExtZbp
	ExtZbr
	ExtZbs
	ExtZbt
)

// Class carries coarse execution-class metadata used by the hart for
// performance counters and trigger timing.
type Class uint8

// Instruction classes.
const (
	ClassAlu Class = iota
	ClassBranch
	ClassJump
	ClassLoad
	ClassStore
	ClassAtomic
	ClassFp
	ClassSystem
)

// Entry describes an instruction identity: its assembly mnemonic, the
// extension gating it, and its execution class.
type Entry struct {
	Mnemonic string
	Ext      Extension
	Class    Class
	RV64Only bool
}

// DecodedInst is the result of decoding one instruction word.
type DecodedInst struct {
	// Word is the 32-bit instruction encoding. For compressed
	// instructions this is the expanded base encoding.
	Word uint32

	// Op is the instruction identity. OpIllegal marks undecodable words.
	Op Op

	// Size is the fetch size in bytes: 2 for compressed, else 4.
	Size uint8

	// Register operands. Rs3 is only meaningful for R4-type (FMA) and
	// ternary bit-manipulation instructions.
	Rd, Rs1, Rs2, Rs3 uint32

	// Imm is the sign-extended immediate (shift amount or branch
	// displacement depending on the format).
	Imm int32

	// Csr is the CSR address for system instructions.
	Csr uint32

	// Rm is the rounding-mode field for floating-point instructions.
	Rm uint32
}

// IsBranch reports whether the instruction is a conditional branch.
func (di *DecodedInst) IsBranch() bool {
	return instTable[di.Op].Class == ClassBranch
}

// IsJump reports whether the instruction is an unconditional jump.
func (di *DecodedInst) IsJump() bool {
	return instTable[di.Op].Class == ClassJump
}

// IsLoad reports whether the instruction reads data memory.
func (di *DecodedInst) IsLoad() bool {
	return instTable[di.Op].Class == ClassLoad
}

// IsStore reports whether the instruction writes data memory.
func (di *DecodedInst) IsStore() bool {
	return instTable[di.Op].Class == ClassStore
}

// Entry returns the metadata entry for the instruction identity.
func (op Op) Entry() *Entry {
	if op >= numOps {
		return &instTable[OpIllegal]
	}
	return &instTable[op]
}

// String returns the assembly mnemonic.
func (op Op) String() string {
	return op.Entry().Mnemonic
}
