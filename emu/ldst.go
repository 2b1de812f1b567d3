package emu

import (
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/mem"
)

// loadSpec describes the width and extension behavior of a load op.
type loadSpec struct {
	size     uint64
	signed   bool
	fp       bool
	fpDouble bool
}

var loadSpecs = map[insts.Op]loadSpec{
	insts.OpLB:  {size: 1, signed: true},
	insts.OpLH:  {size: 2, signed: true},
	insts.OpLW:  {size: 4, signed: true},
	insts.OpLD:  {size: 8, signed: true},
	insts.OpLBU: {size: 1},
	insts.OpLHU: {size: 2},
	insts.OpLWU: {size: 4},
	insts.OpFLW: {size: 4, fp: true},
	insts.OpFLD: {size: 8, fp: true, fpDouble: true},
}

var storeSizes = map[insts.Op]uint64{
	insts.OpSB:  1,
	insts.OpSH:  2,
	insts.OpSW:  4,
	insts.OpSD:  8,
	insts.OpFSW: 4,
	insts.OpFSD: 8,
}

// dataAddress computes, translates, and protection-checks a data access.
// On failure the proper trap is raised and ok is false.
func (h *Hart) dataAddress(vaddr, size uint64, isLoad bool) (paddr uint64, ok bool) {
	misalCause := ExcStoreAddrMisal
	faultCause := ExcStoreAccFault
	protSec := SecCauseStoreMemProtection
	kind := AccessWrite
	if isLoad {
		misalCause = ExcLoadAddrMisal
		faultCause = ExcLoadAccFault
		protSec = SecCauseLoadMemProtection
		kind = AccessRead
	}

	if vaddr&(size-1) != 0 {
		h.misalignedLdSt = true
		if !h.cfg.MisalDataOk {
			h.raiseException(misalCause, vaddr, SecCauseNone)
			return 0, false
		}
	}

	paddr = vaddr
	priv := h.effectiveLdStPriv()
	if h.cfg.EnableS {
		var cause ExceptionCause
		paddr, cause = h.virtMem.Translate(vaddr, kind, priv,
			h.mstatusBit(MstatusSUM), h.mstatusBit(MstatusMXR))
		if cause != ExcNone {
			h.raiseException(cause, vaddr, SecCauseNone)
			return 0, false
		}
	}

	if h.pmp.Enabled() && !h.pmp.IsAllowed(paddr, kind, priv) {
		h.raiseException(faultCause, vaddr, protSec)
		return 0, false
	}

	return paddr, true
}

// ldStTriggersArmed reports whether load/store triggers need evaluation.
func (h *Hart) ldStTriggersArmed() bool {
	return h.cfg.EnableTriggers && !h.debugMode && h.csRegs.Triggers().AnyArmed()
}

func (h *Hart) execLoad(di *insts.DecodedInst) {
	spec := loadSpecs[di.Op]
	if spec.fp {
		h.execFpLoad(di, spec)
		return
	}

	vaddr := (h.readReg(di.Rs1) + uint64(int64(di.Imm))) & h.xlenMask
	h.ldStAddr, h.ldStAddrValid = vaddr, true

	armed := h.ldStTriggersArmed()
	if armed && h.csRegs.Triggers().LdStAddrTripped(vaddr, TimingBefore, true, h.privMode) {
		h.takeTriggerAction(h.currPc)
		return
	}

	paddr, ok := h.dataAddress(vaddr, spec.size, true)
	if !ok {
		return
	}

	value, err := h.memory.Read(paddr, spec.size)
	if err != mem.ErrNone {
		sec := SecCauseLoadMemProtection
		if err == mem.ErrOutOfBounds {
			sec = SecCauseLoadOutOfBounds
		}
		h.raiseException(ExcLoadAccFault, vaddr, sec)
		return
	}

	if armed && h.csRegs.Triggers().LdStDataTripped(value, TimingBefore, true, h.privMode) {
		h.takeTriggerAction(h.currPc)
		return
	}

	value = extendLoadValue(value, spec)
	prev := h.readReg(di.Rd)
	h.loadQueue.invalidateReg(di.Rd)
	h.writeReg(di.Rd, value)

	if h.loadQueue.enabled && di.Rd != 0 {
		h.loadTag++
		h.loadQueue.push(LoadInfo{
			Size:     uint32(spec.size),
			Addr:     paddr,
			RegIx:    di.Rd,
			Tag:      h.loadTag,
			PrevData: prev,
			Valid:    true,
		})
	}
}

func extendLoadValue(value uint64, spec loadSpec) uint64 {
	if !spec.signed {
		return value
	}
	switch spec.size {
	case 1:
		return uint64(int64(int8(value)))
	case 2:
		return uint64(int64(int16(value)))
	case 4:
		return uint64(int64(int32(value)))
	}
	return value
}

func (h *Hart) execStore(di *insts.DecodedInst) {
	size := storeSizes[di.Op]

	var value uint64
	switch di.Op {
	case insts.OpFSW:
		if !h.fpEnabled() {
			h.illegalInst(di)
			return
		}
		value = h.fpRegs.ReadRaw(di.Rs2) & 0xffffffff
	case insts.OpFSD:
		if !h.fpEnabled() {
			h.illegalInst(di)
			return
		}
		value = h.fpRegs.ReadRaw(di.Rs2)
	default:
		value = h.readReg(di.Rs2)
	}

	vaddr := (h.readReg(di.Rs1) + uint64(int64(di.Imm))) & h.xlenMask
	h.store(di, vaddr, size, value)
}

// store performs the common store sequence: triggers, translation,
// protection, undo capture, the write itself, and the special tohost,
// console-IO and CLINT side effects.
func (h *Hart) store(di *insts.DecodedInst, vaddr, size, value uint64) bool {
	h.ldStAddr, h.ldStAddrValid = vaddr, true

	armed := h.ldStTriggersArmed()
	if armed {
		hit := h.csRegs.Triggers().LdStAddrTripped(vaddr, TimingBefore, false, h.privMode)
		if h.csRegs.Triggers().LdStDataTripped(value, TimingBefore, false, h.privMode) {
			hit = true
		}
		if hit {
			h.takeTriggerAction(h.currPc)
			return false
		}
	}

	paddr, ok := h.dataAddress(vaddr, size, false)
	if !ok {
		return false
	}

	// Console IO: a byte stored at the console address goes to the
	// console instead of memory.
	if h.conIoValid && paddr == h.conIo && !h.speculative {
		if h.consoleOut != nil {
			h.consoleOut.Write([]byte{byte(value)})
		}
		return true
	}

	prev, _ := h.memory.Peek(paddr, size)
	if err := h.memory.Write(h.hartIx, paddr, size, value); err != mem.ErrNone {
		if h.isClintAddr(paddr) {
			// The CLINT window needs no memory backing.
			if !h.speculative {
				h.processClintWrite(paddr, value)
			}
			return true
		}
		sec := SecCauseStoreMemProtection
		if err == mem.ErrOutOfBounds {
			sec = SecCauseStoreOutOfBounds
		}
		h.raiseException(ExcStoreAccFault, vaddr, sec)
		return false
	}

	h.currStore = StoreInfo{Size: uint32(size), Addr: paddr, NewData: value, PrevData: prev}
	h.currStoreValid = true
	h.storeBuffer.push(h.currStore)
	h.invalidateDecodeCache(paddr, size)

	if h.isClintAddr(paddr) && !h.speculative {
		h.processClintWrite(paddr, value)
	}

	if h.toHostValid && paddr == h.toHost && !h.speculative {
		h.targetProgFinished = true
		h.exitReason = StopToHost
		h.exitCode = value
	}

	return true
}

// ---------------------------------------------------------------------
// Atomics

var amoSizes = map[insts.Op]uint64{
	insts.OpLRW: 4, insts.OpSCW: 4, insts.OpAMOSWAPW: 4, insts.OpAMOADDW: 4,
	insts.OpAMOXORW: 4, insts.OpAMOANDW: 4, insts.OpAMOORW: 4,
	insts.OpAMOMINW: 4, insts.OpAMOMAXW: 4, insts.OpAMOMINUW: 4, insts.OpAMOMAXUW: 4,
	insts.OpLRD: 8, insts.OpSCD: 8, insts.OpAMOSWAPD: 8, insts.OpAMOADDD: 8,
	insts.OpAMOXORD: 8, insts.OpAMOANDD: 8, insts.OpAMOORD: 8,
	insts.OpAMOMIND: 8, insts.OpAMOMAXD: 8, insts.OpAMOMINUD: 8, insts.OpAMOMAXUD: 8,
}

// amoAddress validates an atomic's address: atomics never tolerate
// misalignment and may be restricted to DCCM regions.
func (h *Hart) amoAddress(di *insts.DecodedInst, size uint64, isLoad bool) (uint64, bool) {
	vaddr := h.readReg(di.Rs1) & h.xlenMask
	h.ldStAddr, h.ldStAddrValid = vaddr, true

	if vaddr&(size-1) != 0 {
		h.misalignedLdSt = true
		if h.cfg.MisalAtomicCauseAccessFault {
			cause := ExcStoreAccFault
			if isLoad {
				cause = ExcLoadAccFault
			}
			h.raiseException(cause, vaddr, SecCauseNone)
		} else {
			cause := ExcStoreAddrMisal
			if isLoad {
				cause = ExcLoadAddrMisal
			}
			h.raiseException(cause, vaddr, SecCauseNone)
		}
		return 0, false
	}

	paddr, ok := h.dataAddress(vaddr, size, isLoad)
	if !ok {
		return 0, false
	}

	if h.cfg.AmoInDccmOnly && !h.memory.AttribAt(paddr).Dccm {
		cause := ExcStoreAccFault
		if isLoad {
			cause = ExcLoadAccFault
		}
		h.raiseException(cause, vaddr, SecCauseAmoOutsideDccm)
		return 0, false
	}

	return paddr, true
}

func (h *Hart) execAmo(di *insts.DecodedInst) {
	size := amoSizes[di.Op]

	switch di.Op {
	case insts.OpLRW, insts.OpLRD:
		h.execLr(di, size)
	case insts.OpSCW, insts.OpSCD:
		h.execSc(di, size)
	default:
		h.execAmoRmw(di, size)
	}
}

func (h *Hart) execLr(di *insts.DecodedInst, size uint64) {
	paddr, ok := h.amoAddress(di, size, true)
	if !ok {
		return
	}

	value, err := h.memory.Read(paddr, size)
	if err != mem.ErrNone {
		h.raiseException(ExcLoadAccFault, h.ldStAddr, SecCauseLoadMemProtection)
		return
	}
	if size == 4 {
		value = signExtendWord(value)
	}

	h.writeReg(di.Rd, value)
	h.memory.Reserve(h.hartIx, paddr)
}

func (h *Hart) execSc(di *insts.DecodedInst, size uint64) {
	paddr, ok := h.amoAddress(di, size, false)
	if !ok {
		return
	}

	if !h.memory.HasReservation(h.hartIx, paddr) {
		h.memory.InvalidateLr(h.hartIx)
		h.writeReg(di.Rd, 1)
		return
	}

	if !h.store(di, h.ldStAddr, size, h.readReg(di.Rs2)) {
		return
	}
	h.memory.InvalidateLr(h.hartIx)
	h.writeReg(di.Rd, 0)
}

func (h *Hart) execAmoRmw(di *insts.DecodedInst, size uint64) {
	paddr, ok := h.amoAddress(di, size, false)
	if !ok {
		return
	}

	old, err := h.memory.Read(paddr, size)
	if err != mem.ErrNone {
		h.raiseException(ExcStoreAccFault, h.ldStAddr, SecCauseStoreMemProtection)
		return
	}
	if size == 4 {
		old = signExtendWord(old)
	}

	rs2 := h.readReg(di.Rs2)
	result := amoCompute(di.Op, old, rs2, size)

	if !h.store(di, h.ldStAddr, size, result) {
		return
	}
	h.writeReg(di.Rd, old)
}

func amoCompute(op insts.Op, old, rs2, size uint64) uint64 {
	if size == 4 {
		rs2 = signExtendWord(rs2)
	}

	switch op {
	case insts.OpAMOSWAPW, insts.OpAMOSWAPD:
		return rs2
	case insts.OpAMOADDW, insts.OpAMOADDD:
		return old + rs2
	case insts.OpAMOXORW, insts.OpAMOXORD:
		return old ^ rs2
	case insts.OpAMOANDW, insts.OpAMOANDD:
		return old & rs2
	case insts.OpAMOORW, insts.OpAMOORD:
		return old | rs2
	case insts.OpAMOMINW, insts.OpAMOMIND:
		if int64(old) < int64(rs2) {
			return old
		}
		return rs2
	case insts.OpAMOMAXW, insts.OpAMOMAXD:
		if int64(old) > int64(rs2) {
			return old
		}
		return rs2
	case insts.OpAMOMINUW, insts.OpAMOMINUD:
		if old < rs2 {
			return old
		}
		return rs2
	case insts.OpAMOMAXUW, insts.OpAMOMAXUD:
		if old > rs2 {
			return old
		}
		return rs2
	}
	return old
}

// ---------------------------------------------------------------------
// Imprecise exceptions (test-bench pathway)

// ApplyStoreException reports an external fault on an in-flight store at
// addr. The match count is returned; with exactly one match the address
// is recorded in mdseac and a store-access-fault is delivered. With
// store-error rollback enabled the store's previous data is restored.
func (h *Hart) ApplyStoreException(addr uint64) (matches int, ok bool) {
	ix := h.storeBuffer.match(addr)
	matches = len(ix)
	if matches != 1 {
		return matches, false
	}

	info := h.storeBuffer.entries[ix[0]]
	if h.cfg.StoreErrorRollback {
		h.memory.Poke(info.Addr, uint64(info.Size), info.PrevData, false)
		h.invalidateDecodeCache(info.Addr, uint64(info.Size))
	}
	h.storeBuffer.remove(ix[0])

	h.csRegs.Poke(CsrMdseac, addr)
	h.initiateException(ExcStoreAccFault, h.pc, addr, SecCauseImpreciseStore)
	return 1, true
}

// ApplyLoadException reports an external fault on the in-flight load
// matching addr and tag. With load-error rollback enabled the target
// register is restored unless a younger load already overwrote it.
func (h *Hart) ApplyLoadException(addr uint64, tag uint64) (matches int, ok bool) {
	ix := h.loadQueue.match(addr, tag, true)
	matches = len(ix)
	if matches != 1 {
		return matches, false
	}

	i := ix[0]
	info := h.loadQueue.entries[i]

	if h.cfg.LoadErrorRollback && info.Valid {
		youngerWrote := false
		for j := i + 1; j < len(h.loadQueue.entries); j++ {
			if h.loadQueue.entries[j].RegIx == info.RegIx {
				youngerWrote = true
				break
			}
		}
		if !youngerWrote {
			h.intRegs.Poke(info.RegIx, info.PrevData)
		}
	}
	h.loadQueue.remove(i)

	h.csRegs.Poke(CsrMdseac, addr)
	h.initiateException(ExcLoadAccFault, h.pc, addr, SecCauseImpreciseLoad)
	return 1, true
}

// ApplyLoadFinished retires the in-flight load matching addr and tag
// from the load queue.
func (h *Hart) ApplyLoadFinished(addr uint64, tag uint64) (matches int, ok bool) {
	ix := h.loadQueue.match(addr, tag, true)
	matches = len(ix)
	if matches == 0 {
		return 0, false
	}
	h.loadQueue.remove(ix[0])
	return matches, true
}
