package emu

import (
	"math/bits"

	"github.com/sarchlab/rvsim/insts"
)

// readReg reads integer register r.
func (h *Hart) readReg(r uint32) uint64 {
	return h.intRegs.Read(r)
}

// writeReg writes integer register r, truncating to the register width.
func (h *Hart) writeReg(r uint32, v uint64) {
	h.intRegs.Write(r, v&h.xlenMask)
}

// signedReg reads register r as a signed value of the register width.
func (h *Hart) signedReg(r uint32) int64 {
	v := h.intRegs.Read(r)
	if h.cfg.Xlen == 32 {
		return int64(int32(v))
	}
	return int64(v)
}

// shiftMask is the shift-amount mask: 0x1f on RV32, 0x3f on RV64.
func (h *Hart) shiftMask() uint64 {
	if h.cfg.Xlen == 32 {
		return 0x1f
	}
	return 0x3f
}

func signExtendWord(v uint64) uint64 {
	return uint64(int64(int32(v)))
}

// execute dispatches one decoded instruction.
func (h *Hart) execute(di *insts.DecodedInst) {
	ent := di.Op.Entry()

	if di.Op == insts.OpIllegal {
		h.illegalInst(di)
		return
	}
	if ent.RV64Only && h.cfg.Xlen == 32 {
		h.illegalInst(di)
		return
	}
	if !h.cfg.extEnabled(ent.Ext) {
		h.illegalInst(di)
		return
	}

	switch ent.Class {
	case insts.ClassLoad:
		h.execLoad(di)
		return
	case insts.ClassStore:
		h.execStore(di)
		return
	case insts.ClassAtomic:
		h.execAmo(di)
		return
	case insts.ClassFp:
		h.execFp(di)
		return
	case insts.ClassBranch:
		h.execBranch(di)
		return
	}

	switch di.Op {
	case insts.OpLUI:
		h.writeReg(di.Rd, uint64(int64(di.Imm)))
	case insts.OpAUIPC:
		h.writeReg(di.Rd, h.currPc+uint64(int64(di.Imm)))
	case insts.OpJAL:
		h.execJal(di)
	case insts.OpJALR:
		h.execJalr(di)

	case insts.OpADDI:
		h.writeReg(di.Rd, h.readReg(di.Rs1)+uint64(int64(di.Imm)))
	case insts.OpSLTI:
		h.writeBool(di.Rd, h.signedReg(di.Rs1) < int64(di.Imm))
	case insts.OpSLTIU:
		h.writeBool(di.Rd, h.readReg(di.Rs1) < uint64(int64(di.Imm))&h.xlenMask)
	case insts.OpXORI:
		h.writeReg(di.Rd, h.readReg(di.Rs1)^uint64(int64(di.Imm)))
	case insts.OpORI:
		h.writeReg(di.Rd, h.readReg(di.Rs1)|uint64(int64(di.Imm)))
	case insts.OpANDI:
		h.writeReg(di.Rd, h.readReg(di.Rs1)&uint64(int64(di.Imm)))
	case insts.OpSLLI:
		h.execShiftImm(di, func(v uint64, sh uint) uint64 { return v << sh })
	case insts.OpSRLI:
		h.execShiftImm(di, func(v uint64, sh uint) uint64 { return v >> sh })
	case insts.OpSRAI:
		h.execShiftImmSigned(di)

	case insts.OpADD:
		h.writeReg(di.Rd, h.readReg(di.Rs1)+h.readReg(di.Rs2))
	case insts.OpSUB:
		h.writeReg(di.Rd, h.readReg(di.Rs1)-h.readReg(di.Rs2))
	case insts.OpSLL:
		h.writeReg(di.Rd, h.readReg(di.Rs1)<<(h.readReg(di.Rs2)&h.shiftMask()))
	case insts.OpSLT:
		h.writeBool(di.Rd, h.signedReg(di.Rs1) < h.signedReg(di.Rs2))
	case insts.OpSLTU:
		h.writeBool(di.Rd, h.readReg(di.Rs1) < h.readReg(di.Rs2))
	case insts.OpXOR:
		h.writeReg(di.Rd, h.readReg(di.Rs1)^h.readReg(di.Rs2))
	case insts.OpSRL:
		h.writeReg(di.Rd, h.readReg(di.Rs1)>>(h.readReg(di.Rs2)&h.shiftMask()))
	case insts.OpSRA:
		h.writeReg(di.Rd, uint64(h.signedReg(di.Rs1)>>(h.readReg(di.Rs2)&h.shiftMask())))
	case insts.OpOR:
		h.writeReg(di.Rd, h.readReg(di.Rs1)|h.readReg(di.Rs2))
	case insts.OpAND:
		h.writeReg(di.Rd, h.readReg(di.Rs1)&h.readReg(di.Rs2))

	case insts.OpFENCE:
		// Ordering is trivial in the single-stepped model.
	case insts.OpFENCEI:
		h.clearDecodeCache()

	case insts.OpECALL:
		h.execEcall(di)
	case insts.OpEBREAK:
		h.execEbreak(di)
	case insts.OpMRET:
		h.execMret(di)
	case insts.OpSRET:
		h.execSret(di)
	case insts.OpURET:
		h.execUret(di)
	case insts.OpWFI:
		// Implementation-defined: treat as nop; pc advances.
	case insts.OpSFENCEVMA:
		h.execSfenceVma(di)

	case insts.OpCSRRW, insts.OpCSRRS, insts.OpCSRRC,
		insts.OpCSRRWI, insts.OpCSRRSI, insts.OpCSRRCI:
		h.execCsrInst(di)

	// RV64I word forms.
	case insts.OpADDIW:
		h.writeReg(di.Rd, signExtendWord(h.readReg(di.Rs1)+uint64(int64(di.Imm))))
	case insts.OpSLLIW:
		h.writeReg(di.Rd, signExtendWord(h.readReg(di.Rs1)<<uint(di.Imm&0x1f)))
	case insts.OpSRLIW:
		h.writeReg(di.Rd, signExtendWord(uint64(uint32(h.readReg(di.Rs1))>>uint(di.Imm&0x1f))))
	case insts.OpSRAIW:
		h.writeReg(di.Rd, uint64(int64(int32(h.readReg(di.Rs1))>>uint(di.Imm&0x1f))))
	case insts.OpADDW:
		h.writeReg(di.Rd, signExtendWord(h.readReg(di.Rs1)+h.readReg(di.Rs2)))
	case insts.OpSUBW:
		h.writeReg(di.Rd, signExtendWord(h.readReg(di.Rs1)-h.readReg(di.Rs2)))
	case insts.OpSLLW:
		h.writeReg(di.Rd, signExtendWord(h.readReg(di.Rs1)<<(h.readReg(di.Rs2)&0x1f)))
	case insts.OpSRLW:
		h.writeReg(di.Rd, signExtendWord(uint64(uint32(h.readReg(di.Rs1))>>(h.readReg(di.Rs2)&0x1f))))
	case insts.OpSRAW:
		h.writeReg(di.Rd, uint64(int64(int32(h.readReg(di.Rs1))>>(h.readReg(di.Rs2)&0x1f))))

	case insts.OpMUL, insts.OpMULH, insts.OpMULHSU, insts.OpMULHU,
		insts.OpDIV, insts.OpDIVU, insts.OpREM, insts.OpREMU,
		insts.OpMULW, insts.OpDIVW, insts.OpDIVUW, insts.OpREMW, insts.OpREMUW:
		h.execMulDiv(di)

	default:
		h.execBitmanip(di)
	}
}

func (h *Hart) writeBool(rd uint32, b bool) {
	if b {
		h.writeReg(rd, 1)
	} else {
		h.writeReg(rd, 0)
	}
}

func (h *Hart) execShiftImm(di *insts.DecodedInst, op func(uint64, uint) uint64) {
	sh := uint64(di.Imm)
	if sh&^h.shiftMask() != 0 {
		h.illegalInst(di)
		return
	}
	h.writeReg(di.Rd, op(h.readReg(di.Rs1), uint(sh)))
}

func (h *Hart) execShiftImmSigned(di *insts.DecodedInst) {
	sh := uint64(di.Imm)
	if sh&^h.shiftMask() != 0 {
		h.illegalInst(di)
		return
	}
	h.writeReg(di.Rd, uint64(h.signedReg(di.Rs1)>>uint(sh)))
}

// ---------------------------------------------------------------------
// Jumps and branches

// checkJumpTarget validates target alignment when the C extension is off.
func (h *Hart) checkJumpTarget(target uint64) bool {
	if !h.cfg.EnableC && target&3 != 0 {
		h.raiseException(ExcInstAddrMisal, target, SecCauseNone)
		return false
	}
	return true
}

func (h *Hart) execJal(di *insts.DecodedInst) {
	target := (h.currPc + uint64(int64(di.Imm))) & h.xlenMask
	if !h.checkJumpTarget(target) {
		return
	}
	h.writeReg(di.Rd, h.pc)
	h.pc = target
	h.lastBranchTaken = true
}

func (h *Hart) execJalr(di *insts.DecodedInst) {
	target := (h.readReg(di.Rs1) + uint64(int64(di.Imm))) &^ 1 & h.xlenMask
	if !h.checkJumpTarget(target) {
		return
	}
	h.writeReg(di.Rd, h.pc)
	h.pc = target
	h.lastBranchTaken = true
}

func (h *Hart) execBranch(di *insts.DecodedInst) {
	var taken bool
	switch di.Op {
	case insts.OpBEQ:
		taken = h.readReg(di.Rs1) == h.readReg(di.Rs2)
	case insts.OpBNE:
		taken = h.readReg(di.Rs1) != h.readReg(di.Rs2)
	case insts.OpBLT:
		taken = h.signedReg(di.Rs1) < h.signedReg(di.Rs2)
	case insts.OpBGE:
		taken = h.signedReg(di.Rs1) >= h.signedReg(di.Rs2)
	case insts.OpBLTU:
		taken = h.readReg(di.Rs1) < h.readReg(di.Rs2)
	case insts.OpBGEU:
		taken = h.readReg(di.Rs1) >= h.readReg(di.Rs2)
	}
	if !taken {
		return
	}

	target := (h.currPc + uint64(int64(di.Imm))) & h.xlenMask
	if !h.checkJumpTarget(target) {
		return
	}
	h.pc = target
	h.lastBranchTaken = true
}

// ---------------------------------------------------------------------
// Multiply / divide

func (h *Hart) execMulDiv(di *insts.DecodedInst) {
	a, b := h.readReg(di.Rs1), h.readReg(di.Rs2)
	sa, sb := h.signedReg(di.Rs1), h.signedReg(di.Rs2)

	switch di.Op {
	case insts.OpMUL:
		h.writeReg(di.Rd, a*b)
	case insts.OpMULH:
		if h.cfg.Xlen == 32 {
			h.writeReg(di.Rd, uint64(sa*sb)>>32)
		} else {
			hi, _ := bits.Mul64(uint64(sa), uint64(sb))
			// Adjust the unsigned product for negative operands.
			if sa < 0 {
				hi -= uint64(sb)
			}
			if sb < 0 {
				hi -= uint64(sa)
			}
			h.writeReg(di.Rd, hi)
		}
	case insts.OpMULHU:
		if h.cfg.Xlen == 32 {
			h.writeReg(di.Rd, a*b>>32)
		} else {
			hi, _ := bits.Mul64(a, b)
			h.writeReg(di.Rd, hi)
		}
	case insts.OpMULHSU:
		if h.cfg.Xlen == 32 {
			h.writeReg(di.Rd, uint64(sa*int64(b))>>32)
		} else {
			hi, _ := bits.Mul64(uint64(sa), b)
			if sa < 0 {
				hi -= b
			}
			h.writeReg(di.Rd, hi)
		}
	case insts.OpDIV:
		h.writeReg(di.Rd, uint64(divSigned(sa, sb, h.cfg.Xlen)))
	case insts.OpDIVU:
		h.writeReg(di.Rd, divUnsigned(a&h.xlenMask, b&h.xlenMask, h.xlenMask))
	case insts.OpREM:
		h.writeReg(di.Rd, uint64(remSigned(sa, sb)))
	case insts.OpREMU:
		h.writeReg(di.Rd, remUnsigned(a&h.xlenMask, b&h.xlenMask))

	case insts.OpMULW:
		h.writeReg(di.Rd, signExtendWord(a*b))
	case insts.OpDIVW:
		h.writeReg(di.Rd, uint64(int64(int32(divSigned(int64(int32(a)), int64(int32(b)), 32)))))
	case insts.OpDIVUW:
		h.writeReg(di.Rd, signExtendWord(divUnsigned(uint64(uint32(a)), uint64(uint32(b)), 0xffffffff)))
	case insts.OpREMW:
		h.writeReg(di.Rd, uint64(int64(int32(remSigned(int64(int32(a)), int64(int32(b)))))))
	case insts.OpREMUW:
		h.writeReg(di.Rd, signExtendWord(remUnsigned(uint64(uint32(a)), uint64(uint32(b)))))
	}
}

// divSigned implements the RISC-V signed-division contracts: divide by
// zero yields -1; the most-negative value divided by -1 overflows to
// itself.
func divSigned(a, b int64, xlen uint32) int64 {
	if b == 0 {
		return -1
	}
	minVal := int64(-1) << (xlen - 1)
	if a == minVal && b == -1 {
		return a
	}
	return a / b
}

func divUnsigned(a, b, mask uint64) uint64 {
	if b == 0 {
		return mask
	}
	return a / b
}

func remSigned(a, b int64) int64 {
	if b == 0 {
		return a
	}
	if b == -1 {
		return 0
	}
	return a % b
}

func remUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

// ---------------------------------------------------------------------
// System instructions

func (h *Hart) execEcall(di *insts.DecodedInst) {
	if (h.cfg.Newlib || h.cfg.Linux) && !h.speculative {
		if h.syscall.Emulate() {
			return
		}
	}

	var cause ExceptionCause
	switch h.privMode {
	case PrivUser:
		cause = ExcEcallFromU
	case PrivSupervisor:
		cause = ExcEcallFromS
	default:
		cause = ExcEcallFromM
	}
	h.raiseException(cause, 0, SecCauseNone)
}

func (h *Hart) execEbreak(di *insts.DecodedInst) {
	if h.debugMode {
		// ebreak does not recurse in debug mode.
		return
	}

	dcsr, _ := h.csRegs.Peek(CsrDcsr)
	var toDebug bool
	switch h.privMode {
	case PrivMachine:
		toDebug = dcsr&(1<<15) != 0 // ebreakm
	case PrivSupervisor:
		toDebug = dcsr&(1<<13) != 0 // ebreaks
	case PrivUser:
		toDebug = dcsr&(1<<12) != 0 // ebreaku
	}
	if toDebug && !h.speculative {
		h.pc = h.currPc
		h.EnterDebugMode(DebugCauseEbreak, h.currPc)
		return
	}

	h.raiseException(ExcBreakpoint, h.currPc, SecCauseNone)
}

func (h *Hart) execMret(di *insts.DecodedInst) {
	if h.privMode < PrivMachine {
		h.illegalInst(di)
		return
	}

	v, _ := h.csRegs.Peek(CsrMstatus)
	prevMode := PrivMode(v >> MstatusMPPShift & 0x3)

	if v&MstatusMPIE != 0 {
		v |= MstatusMIE
	} else {
		v &^= MstatusMIE
	}
	v |= MstatusMPIE
	leastPriv := PrivMachine
	if h.cfg.EnableU {
		leastPriv = PrivUser
	}
	v = v&^MstatusMPP | uint64(leastPriv)<<MstatusMPPShift

	h.csRegs.Poke(CsrMstatus, v)
	h.updateCachedMstatus()
	h.privMode = prevMode

	epc, _ := h.csRegs.Peek(CsrMepc)
	h.pc = epc & h.alignmentMask()
}

func (h *Hart) execSret(di *insts.DecodedInst) {
	if h.privMode < PrivSupervisor {
		h.illegalInst(di)
		return
	}
	if h.privMode == PrivSupervisor && h.mstatusBit(MstatusTSR) {
		h.illegalInst(di)
		return
	}

	v, _ := h.csRegs.Peek(CsrMstatus)
	prevMode := PrivUser
	if v&MstatusSPP != 0 {
		prevMode = PrivSupervisor
	}

	if v&MstatusSPIE != 0 {
		v |= MstatusSIE
	} else {
		v &^= MstatusSIE
	}
	v |= MstatusSPIE
	v &^= MstatusSPP

	h.csRegs.Poke(CsrMstatus, v)
	h.updateCachedMstatus()
	h.privMode = prevMode

	epc, _ := h.csRegs.Peek(CsrSepc)
	h.pc = epc & h.alignmentMask()
}

func (h *Hart) execUret(di *insts.DecodedInst) {
	if !h.cfg.EnableN {
		h.illegalInst(di)
		return
	}

	v, _ := h.csRegs.Peek(CsrMstatus)
	if v&MstatusUPIE != 0 {
		v |= MstatusUIE
	} else {
		v &^= MstatusUIE
	}
	v |= MstatusUPIE

	h.csRegs.Poke(CsrMstatus, v)
	h.updateCachedMstatus()

	epc, _ := h.csRegs.Peek(CsrUepc)
	h.pc = epc & h.alignmentMask()
}

func (h *Hart) execSfenceVma(di *insts.DecodedInst) {
	if !h.cfg.EnableS {
		h.illegalInst(di)
		return
	}
	if h.privMode == PrivSupervisor && h.mstatusBit(MstatusTVM) {
		h.illegalInst(di)
		return
	}
	if h.privMode == PrivUser {
		h.illegalInst(di)
		return
	}
	h.virtMem.FlushTlb()
}

// ---------------------------------------------------------------------
// CSR instructions

// execCsrInst follows the architected order: read the CSR, write rd,
// compute the new value, write the CSR, then fire side effects.
func (h *Hart) execCsrInst(di *insts.DecodedInst) {
	num := CsrNum(di.Csr)

	// satp is guarded by mstatus.TVM for supervisor code.
	if num == CsrSatp && h.privMode == PrivSupervisor && h.mstatusBit(MstatusTVM) {
		h.illegalInst(di)
		return
	}

	var src uint64
	switch di.Op {
	case insts.OpCSRRWI, insts.OpCSRRSI, insts.OpCSRRCI:
		src = uint64(di.Imm) & 0x1f
	default:
		src = h.readReg(di.Rs1)
	}

	isWrite := true
	switch di.Op {
	case insts.OpCSRRS, insts.OpCSRRC:
		isWrite = di.Rs1 != 0
	case insts.OpCSRRSI, insts.OpCSRRCI:
		isWrite = src != 0
	}

	prev, ok := h.csRegs.Read(num, h.privMode)
	if !ok {
		h.csrException = true
		h.illegalInst(di)
		return
	}

	var next uint64
	switch di.Op {
	case insts.OpCSRRW, insts.OpCSRRWI:
		next = src
	case insts.OpCSRRS, insts.OpCSRRSI:
		next = prev | src
	case insts.OpCSRRC, insts.OpCSRRCI:
		next = prev &^ src
	}

	h.writeReg(di.Rd, prev)

	if isWrite {
		if !h.csRegs.Write(num, h.privMode, next) {
			h.csrException = true
			h.illegalInst(di)
			return
		}
		h.csrSideEffects(num)
	}
}
