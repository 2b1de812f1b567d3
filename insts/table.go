package insts

// instTable maps each Op to its metadata. Indexed by Op.
var instTable = [numOps]Entry{
	OpIllegal: {"illegal", ExtI, ClassSystem, false},

	OpLUI:    {"lui", ExtI, ClassAlu, false},
	OpAUIPC:  {"auipc", ExtI, ClassAlu, false},
	OpJAL:    {"jal", ExtI, ClassJump, false},
	OpJALR:   {"jalr", ExtI, ClassJump, false},
	OpBEQ:    {"beq", ExtI, ClassBranch, false},
	OpBNE:    {"bne", ExtI, ClassBranch, false},
	OpBLT:    {"blt", ExtI, ClassBranch, false},
	OpBGE:    {"bge", ExtI, ClassBranch, false},
	OpBLTU:   {"bltu", ExtI, ClassBranch, false},
	OpBGEU:   {"bgeu", ExtI, ClassBranch, false},
	OpLB:     {"lb", ExtI, ClassLoad, false},
	OpLH:     {"lh", ExtI, ClassLoad, false},
	OpLW:     {"lw", ExtI, ClassLoad, false},
	OpLBU:    {"lbu", ExtI, ClassLoad, false},
	OpLHU:    {"lhu", ExtI, ClassLoad, false},
	OpSB:     {"sb", ExtI, ClassStore, false},
	OpSH:     {"sh", ExtI, ClassStore, false},
	OpSW:     {"sw", ExtI, ClassStore, false},
	OpADDI:   {"addi", ExtI, ClassAlu, false},
	OpSLTI:   {"slti", ExtI, ClassAlu, false},
	OpSLTIU:  {"sltiu", ExtI, ClassAlu, false},
	OpXORI:   {"xori", ExtI, ClassAlu, false},
	OpORI:    {"ori", ExtI, ClassAlu, false},
	OpANDI:   {"andi", ExtI, ClassAlu, false},
	OpSLLI:   {"slli", ExtI, ClassAlu, false},
	OpSRLI:   {"srli", ExtI, ClassAlu, false},
	OpSRAI:   {"srai", ExtI, ClassAlu, false},
	OpADD:    {"add", ExtI, ClassAlu, false},
	OpSUB:    {"sub", ExtI, ClassAlu, false},
	OpSLL:    {"sll", ExtI, ClassAlu, false},
	OpSLT:    {"slt", ExtI, ClassAlu, false},
	OpSLTU:   {"sltu", ExtI, ClassAlu, false},
	OpXOR:    {"xor", ExtI, ClassAlu, false},
	OpSRL:    {"srl", ExtI, ClassAlu, false},
	OpSRA:    {"sra", ExtI, ClassAlu, false},
	OpOR:     {"or", ExtI, ClassAlu, false},
	OpAND:    {"and", ExtI, ClassAlu, false},
	OpFENCE:  {"fence", ExtI, ClassSystem, false},
	OpFENCEI: {"fence.i", ExtI, ClassSystem, false},
	OpECALL:  {"ecall", ExtI, ClassSystem, false},
	OpEBREAK: {"ebreak", ExtI, ClassSystem, false},

	OpCSRRW:     {"csrrw", ExtI, ClassSystem, false},
	OpCSRRS:     {"csrrs", ExtI, ClassSystem, false},
	OpCSRRC:     {"csrrc", ExtI, ClassSystem, false},
	OpCSRRWI:    {"csrrwi", ExtI, ClassSystem, false},
	OpCSRRSI:    {"csrrsi", ExtI, ClassSystem, false},
	OpCSRRCI:    {"csrrci", ExtI, ClassSystem, false},
	OpMRET:      {"mret", ExtI, ClassSystem, false},
	OpSRET:      {"sret", ExtS, ClassSystem, false},
	OpURET:      {"uret", ExtI, ClassSystem, false},
	OpWFI:       {"wfi", ExtI, ClassSystem, false},
	OpSFENCEVMA: {"sfence.vma", ExtS, ClassSystem, false},

	OpLWU:   {"lwu", ExtI, ClassLoad, true},
	OpLD:    {"ld", ExtI, ClassLoad, true},
	OpSD:    {"sd", ExtI, ClassStore, true},
	OpADDIW: {"addiw", ExtI, ClassAlu, true},
	OpSLLIW: {"slliw", ExtI, ClassAlu, true},
	OpSRLIW: {"srliw", ExtI, ClassAlu, true},
	OpSRAIW: {"sraiw", ExtI, ClassAlu, true},
	OpADDW:  {"addw", ExtI, ClassAlu, true},
	OpSUBW:  {"subw", ExtI, ClassAlu, true},
	OpSLLW:  {"sllw", ExtI, ClassAlu, true},
	OpSRLW:  {"srlw", ExtI, ClassAlu, true},
	OpSRAW:  {"sraw", ExtI, ClassAlu, true},

	OpMUL:    {"mul", ExtM, ClassAlu, false},
	OpMULH:   {"mulh", ExtM, ClassAlu, false},
	OpMULHSU: {"mulhsu", ExtM, ClassAlu, false},
	OpMULHU:  {"mulhu", ExtM, ClassAlu, false},
	OpDIV:    {"div", ExtM, ClassAlu, false},
	OpDIVU:   {"divu", ExtM, ClassAlu, false},
	OpREM:    {"rem", ExtM, ClassAlu, false},
	OpREMU:   {"remu", ExtM, ClassAlu, false},
	OpMULW:   {"mulw", ExtM, ClassAlu, true},
	OpDIVW:   {"divw", ExtM, ClassAlu, true},
	OpDIVUW:  {"divuw", ExtM, ClassAlu, true},
	OpREMW:   {"remw", ExtM, ClassAlu, true},
	OpREMUW:  {"remuw", ExtM, ClassAlu, true},

	OpLRW:      {"lr.w", ExtA, ClassAtomic, false},
	OpSCW:      {"sc.w", ExtA, ClassAtomic, false},
	OpAMOSWAPW: {"amoswap.w", ExtA, ClassAtomic, false},
	OpAMOADDW:  {"amoadd.w", ExtA, ClassAtomic, false},
	OpAMOXORW:  {"amoxor.w", ExtA, ClassAtomic, false},
	OpAMOANDW:  {"amoand.w", ExtA, ClassAtomic, false},
	OpAMOORW:   {"amoor.w", ExtA, ClassAtomic, false},
	OpAMOMINW:  {"amomin.w", ExtA, ClassAtomic, false},
	OpAMOMAXW:  {"amomax.w", ExtA, ClassAtomic, false},
	OpAMOMINUW: {"amominu.w", ExtA, ClassAtomic, false},
	OpAMOMAXUW: {"amomaxu.w", ExtA, ClassAtomic, false},

	OpLRD:      {"lr.d", ExtA, ClassAtomic, true},
	OpSCD:      {"sc.d", ExtA, ClassAtomic, true},
	OpAMOSWAPD: {"amoswap.d", ExtA, ClassAtomic, true},
	OpAMOADDD:  {"amoadd.d", ExtA, ClassAtomic, true},
	OpAMOXORD:  {"amoxor.d", ExtA, ClassAtomic, true},
	OpAMOANDD:  {"amoand.d", ExtA, ClassAtomic, true},
	OpAMOORD:   {"amoor.d", ExtA, ClassAtomic, true},
	OpAMOMIND:  {"amomin.d", ExtA, ClassAtomic, true},
	OpAMOMAXD:  {"amomax.d", ExtA, ClassAtomic, true},
	OpAMOMINUD: {"amominu.d", ExtA, ClassAtomic, true},
	OpAMOMAXUD: {"amomaxu.d", ExtA, ClassAtomic, true},

	OpFLW:     {"flw", ExtF, ClassLoad, false},
	OpFSW:     {"fsw", ExtF, ClassStore, false},
	OpFMADDS:  {"fmadd.s", ExtF, ClassFp, false},
	OpFMSUBS:  {"fmsub.s", ExtF, ClassFp, false},
	OpFNMSUBS: {"fnmsub.s", ExtF, ClassFp, false},
	OpFNMADDS: {"fnmadd.s", ExtF, ClassFp, false},
	OpFADDS:   {"fadd.s", ExtF, ClassFp, false},
	OpFSUBS:   {"fsub.s", ExtF, ClassFp, false},
	OpFMULS:   {"fmul.s", ExtF, ClassFp, false},
	OpFDIVS:   {"fdiv.s", ExtF, ClassFp, false},
	OpFSQRTS:  {"fsqrt.s", ExtF, ClassFp, false},
	OpFSGNJS:  {"fsgnj.s", ExtF, ClassFp, false},
	OpFSGNJNS: {"fsgnjn.s", ExtF, ClassFp, false},
	OpFSGNJXS: {"fsgnjx.s", ExtF, ClassFp, false},
	OpFMINS:   {"fmin.s", ExtF, ClassFp, false},
	OpFMAXS:   {"fmax.s", ExtF, ClassFp, false},
	OpFCVTWS:  {"fcvt.w.s", ExtF, ClassFp, false},
	OpFCVTWUS: {"fcvt.wu.s", ExtF, ClassFp, false},
	OpFMVXW:   {"fmv.x.w", ExtF, ClassFp, false},
	OpFEQS:    {"feq.s", ExtF, ClassFp, false},
	OpFLTS:    {"flt.s", ExtF, ClassFp, false},
	OpFLES:    {"fle.s", ExtF, ClassFp, false},
	OpFCLASSS: {"fclass.s", ExtF, ClassFp, false},
	OpFCVTSW:  {"fcvt.s.w", ExtF, ClassFp, false},
	OpFCVTSWU: {"fcvt.s.wu", ExtF, ClassFp, false},
	OpFMVWX:   {"fmv.w.x", ExtF, ClassFp, false},
	OpFCVTLS:  {"fcvt.l.s", ExtF, ClassFp, true},
	OpFCVTLUS: {"fcvt.lu.s", ExtF, ClassFp, true},
	OpFCVTSL:  {"fcvt.s.l", ExtF, ClassFp, true},
	OpFCVTSLU: {"fcvt.s.lu", ExtF, ClassFp, true},

	OpFLD:     {"fld", ExtD, ClassLoad, false},
	OpFSD:     {"fsd", ExtD, ClassStore, false},
	OpFMADDD:  {"fmadd.d", ExtD, ClassFp, false},
	OpFMSUBD:  {"fmsub.d", ExtD, ClassFp, false},
	OpFNMSUBD: {"fnmsub.d", ExtD, ClassFp, false},
	OpFNMADDD: {"fnmadd.d", ExtD, ClassFp, false},
	OpFADDD:   {"fadd.d", ExtD, ClassFp, false},
	OpFSUBD:   {"fsub.d", ExtD, ClassFp, false},
	OpFMULD:   {"fmul.d", ExtD, ClassFp, false},
	OpFDIVD:   {"fdiv.d", ExtD, ClassFp, false},
	OpFSQRTD:  {"fsqrt.d", ExtD, ClassFp, false},
	OpFSGNJD:  {"fsgnj.d", ExtD, ClassFp, false},
	OpFSGNJND: {"fsgnjn.d", ExtD, ClassFp, false},
	OpFSGNJXD: {"fsgnjx.d", ExtD, ClassFp, false},
	OpFMIND:   {"fmin.d", ExtD, ClassFp, false},
	OpFMAXD:   {"fmax.d", ExtD, ClassFp, false},
	OpFCVTDS:  {"fcvt.d.s", ExtD, ClassFp, false},
	OpFCVTSD:  {"fcvt.s.d", ExtD, ClassFp, false},
	OpFEQD:    {"feq.d", ExtD, ClassFp, false},
	OpFLTD:    {"flt.d", ExtD, ClassFp, false},
	OpFLED:    {"fle.d", ExtD, ClassFp, false},
	OpFCLASSD: {"fclass.d", ExtD, ClassFp, false},
	OpFCVTWD:  {"fcvt.w.d", ExtD, ClassFp, false},
	OpFCVTWUD: {"fcvt.wu.d", ExtD, ClassFp, false},
	OpFCVTDW:  {"fcvt.d.w", ExtD, ClassFp, false},
	OpFCVTDWU: {"fcvt.d.wu", ExtD, ClassFp, false},
	OpFCVTLD:  {"fcvt.l.d", ExtD, ClassFp, true},
	OpFCVTLUD: {"fcvt.lu.d", ExtD, ClassFp, true},
	OpFCVTDL:  {"fcvt.d.l", ExtD, ClassFp, true},
	OpFCVTDLU: {"fcvt.d.lu", ExtD, ClassFp, true},
	OpFMVXD:   {"fmv.x.d", ExtD, ClassFp, true},
	OpFMVDX:   {"fmv.d.x", ExtD, ClassFp, true},

	OpSH1ADD:   {"sh1add", ExtZba, ClassAlu, false},
	OpSH2ADD:   {"sh2add", ExtZba, ClassAlu, false},
	OpSH3ADD:   {"sh3add", ExtZba, ClassAlu, false},
	OpSH1ADDUW: {"sh1add.uw", ExtZba, ClassAlu, true},
	OpSH2ADDUW: {"sh2add.uw", ExtZba, ClassAlu, true},
	OpSH3ADDUW: {"sh3add.uw", ExtZba, ClassAlu, true},
	OpADDUW:    {"add.uw", ExtZba, ClassAlu, true},
	OpSUBUW:    {"sub.uw", ExtZba, ClassAlu, true},
	OpSLLIUW:   {"slli.uw", ExtZba, ClassAlu, true},

	OpCLZ:    {"clz", ExtZbb, ClassAlu, false},
	OpCTZ:    {"ctz", ExtZbb, ClassAlu, false},
	OpPCNT:   {"pcnt", ExtZbb, ClassAlu, false},
	OpANDN:   {"andn", ExtZbb, ClassAlu, false},
	OpORN:    {"orn", ExtZbb, ClassAlu, false},
	OpXNOR:   {"xnor", ExtZbb, ClassAlu, false},
	OpSLO:    {"slo", ExtZbb, ClassAlu, false},
	OpSRO:    {"sro", ExtZbb, ClassAlu, false},
	OpSLOI:   {"sloi", ExtZbb, ClassAlu, false},
	OpSROI:   {"sroi", ExtZbb, ClassAlu, false},
	OpMIN:    {"min", ExtZbb, ClassAlu, false},
	OpMAX:    {"max", ExtZbb, ClassAlu, false},
	OpMINU:   {"minu", ExtZbb, ClassAlu, false},
	OpMAXU:   {"maxu", ExtZbb, ClassAlu, false},
	OpROL:    {"rol", ExtZbb, ClassAlu, false},
	OpROR:    {"ror", ExtZbb, ClassAlu, false},
	OpRORI:   {"rori", ExtZbb, ClassAlu, false},
	OpPACK:   {"pack", ExtZbb, ClassAlu, false},
	OpPACKH:  {"packh", ExtZbb, ClassAlu, false},
	OpPACKU:  {"packu", ExtZbb, ClassAlu, false},
	OpPACKW:  {"packw", ExtZbb, ClassAlu, true},
	OpPACKUW: {"packuw", ExtZbb, ClassAlu, true},
	OpADDWU:  {"addwu", ExtZbb, ClassAlu, true},
	OpSUBWU:  {"subwu", ExtZbb, ClassAlu, true},
	OpADDIWU: {"addiwu", ExtZbb, ClassAlu, true},
	OpSEXTB:  {"sext.b", ExtZbb, ClassAlu, false},
	OpSEXTH:  {"sext.h", ExtZbb, ClassAlu, false},

	OpGREV:    {"grev", ExtZbp, ClassAlu, false},
	OpGREVI:   {"grevi", ExtZbp, ClassAlu, false},
	OpGORC:    {"gorc", ExtZbp, ClassAlu, false},
	OpGORCI:   {"gorci", ExtZbp, ClassAlu, false},
	OpSHFL:    {"shfl", ExtZbp, ClassAlu, false},
	OpSHFLI:   {"shfli", ExtZbp, ClassAlu, false},
	OpUNSHFL:  {"unshfl", ExtZbp, ClassAlu, false},
	OpUNSHFLI: {"unshfli", ExtZbp, ClassAlu, false},

	OpSBSET:  {"sbset", ExtZbs, ClassAlu, false},
	OpSBCLR:  {"sbclr", ExtZbs, ClassAlu, false},
	OpSBINV:  {"sbinv", ExtZbs, ClassAlu, false},
	OpSBEXT:  {"sbext", ExtZbs, ClassAlu, false},
	OpSBSETI: {"sbseti", ExtZbs, ClassAlu, false},
	OpSBCLRI: {"sbclri", ExtZbs, ClassAlu, false},
	OpSBINVI: {"sbinvi", ExtZbs, ClassAlu, false},
	OpSBEXTI: {"sbexti", ExtZbs, ClassAlu, false},

	OpBEXT: {"bext", ExtZbe, ClassAlu, false},
	OpBDEP: {"bdep", ExtZbe, ClassAlu, false},
	OpBFP:  {"bfp", ExtZbf, ClassAlu, false},

	OpCLMUL:  {"clmul", ExtZbc, ClassAlu, false},
	OpCLMULH: {"clmulh", ExtZbc, ClassAlu, false},
	OpCLMULR: {"clmulr", ExtZbc, ClassAlu, false},

	OpCRC32B:  {"crc32.b", ExtZbr, ClassAlu, false},
	OpCRC32H:  {"crc32.h", ExtZbr, ClassAlu, false},
	OpCRC32W:  {"crc32.w", ExtZbr, ClassAlu, false},
	OpCRC32D:  {"crc32.d", ExtZbr, ClassAlu, true},
	OpCRC32CB: {"crc32c.b", ExtZbr, ClassAlu, false},
	OpCRC32CH: {"crc32c.h", ExtZbr, ClassAlu, false},
	OpCRC32CW: {"crc32c.w", ExtZbr, ClassAlu, false},
	OpCRC32CD: {"crc32c.d", ExtZbr, ClassAlu, true},

	OpBMATOR:   {"bmator", ExtZbm, ClassAlu, true},
	OpBMATXOR:  {"bmatxor", ExtZbm, ClassAlu, true},
	OpBMATFLIP: {"bmatflip", ExtZbm, ClassAlu, true},

	OpCMOV: {"cmov", ExtZbt, ClassAlu, false},
	OpCMIX: {"cmix", ExtZbt, ClassAlu, false},
	OpFSL:  {"fsl", ExtZbt, ClassAlu, false},
	OpFSR:  {"fsr", ExtZbt, ClassAlu, false},
	OpFSRI: {"fsri", ExtZbt, ClassAlu, false},
}
