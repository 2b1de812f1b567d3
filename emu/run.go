package emu

import (
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/mem"
)

// clearDecodeCache drops all memoized decodes (fence.i, reset).
func (h *Hart) clearDecodeCache() {
	for i := range h.decodeCache {
		h.decodeCache[i].valid = false
	}
}

// invalidateDecodeCache drops cached decodes overlapping a written range.
func (h *Hart) invalidateDecodeCache(addr, size uint64) {
	for a := addr &^ 1; a < addr+size; a += 2 {
		e := &h.decodeCache[(a>>1)&h.decodeCacheMask]
		if e.valid && a >= e.addr && a < e.addr+4 {
			e.valid = false
		}
	}
}

// beginInstruction clears the per-instruction trap state and undo
// information.
func (h *Hart) beginInstruction() {
	h.hasException = false
	h.csrException = false
	h.triggerTripped = false
	h.lastBranchTaken = false
	h.misalignedLdSt = false
	h.ldStAddrValid = false
	h.currStoreValid = false
	h.lastPriv = h.privMode

	h.intRegs.ClearLastWritten()
	h.fpRegs.ClearLastWritten()
	h.csRegs.ClearWrittenCsrs()
	if h.cfg.EnableTriggers {
		h.csRegs.Triggers().ClearTripped()
	}
}

// undoInstruction reverts every write the current instruction made:
// destination register, memory, and CSRs.
func (h *Hart) undoInstruction() {
	h.intRegs.UndoLastWrite()
	h.fpRegs.UndoLastWrite()
	h.csRegs.UndoWrites()
	h.updateCachedMstatus()
	h.updateCachedFcsr()

	if h.currStoreValid {
		h.memory.Poke(h.currStore.Addr, uint64(h.currStore.Size), h.currStore.PrevData, false)
		h.currStoreValid = false
	}
}

// raiseException rolls back the current instruction and delivers a
// precise trap anchored at the current instruction address.
func (h *Hart) raiseException(cause ExceptionCause, tval uint64, secCause SecondaryCause) {
	h.undoInstruction()
	h.initiateException(cause, h.currPc, tval, secCause)
}

// illegalInst raises illegal-instruction with the instruction word as the
// trap value.
func (h *Hart) illegalInst(di *insts.DecodedInst) {
	var tval uint64
	if di != nil {
		tval = uint64(di.Word)
	}
	h.raiseException(ExcIllegalInst, tval, SecCauseNone)
}

// fetchInst translates and reads the instruction at pc, returning the
// 32-bit word (expanded when compressed) and its fetch size. On failure a
// trap is delivered and ok is false.
func (h *Hart) fetchInst() (word uint32, size uint8, ok bool) {
	vaddr := h.pc

	if vaddr&(^h.alignmentMask()) != 0 {
		h.initiateException(ExcInstAddrMisal, vaddr, vaddr, SecCauseNone)
		return 0, 0, false
	}

	low, ok := h.fetchHalf(vaddr)
	if !ok {
		return 0, 0, false
	}

	if insts.IsCompressed(uint16(low)) {
		if !h.cfg.EnableC {
			h.initiateException(ExcIllegalInst, h.currPc, uint64(low), SecCauseNone)
			return 0, 0, false
		}
		return insts.Expand(uint16(low), h.cfg.Xlen), 2, true
	}

	high, ok := h.fetchHalf(vaddr + 2)
	if !ok {
		return 0, 0, false
	}
	return uint32(high)<<16 | uint32(low), 4, true
}

// fetchHalf reads 16 bits of instruction memory at vaddr, translating and
// checking PMP. Traps are delivered on failure.
func (h *Hart) fetchHalf(vaddr uint64) (uint16, bool) {
	paddr := vaddr
	if h.cfg.EnableS {
		var cause ExceptionCause
		paddr, cause = h.virtMem.Translate(vaddr, AccessExec, h.privMode,
			h.mstatusBit(MstatusSUM), h.mstatusBit(MstatusMXR))
		if cause != ExcNone {
			h.initiateException(cause, h.currPc, vaddr, SecCauseNone)
			return 0, false
		}
	}

	if h.pmp.Enabled() && !h.pmp.IsAllowed(paddr, AccessExec, h.privMode) {
		h.initiateException(ExcInstAccFault, h.currPc, vaddr, SecCauseFetchMemProtection)
		return 0, false
	}

	v, err := h.memory.Fetch(paddr, 2)
	if err != mem.ErrNone {
		sec := SecCauseFetchMemProtection
		if err == mem.ErrOutOfBounds {
			sec = SecCauseFetchOutOfBounds
		}
		h.initiateException(ExcInstAccFault, h.currPc, vaddr, sec)
		return 0, false
	}
	return uint16(v), true
}

// decodeAtPc decodes the fetched word, memoizing the result in the
// direct-mapped decode cache.
func (h *Hart) decodeAtPc(word uint32, size uint8) *insts.DecodedInst {
	e := &h.decodeCache[(h.currPc>>1)&h.decodeCacheMask]
	if e.valid && e.addr == h.currPc && e.word == word {
		return &e.di
	}

	di := h.decoder.Decode(word)
	di.Size = size
	*e = decodeCacheEntry{valid: true, addr: h.currPc, word: word, di: di}
	return &e.di
}

// takeTriggerAction delivers the strongest pending trigger action:
// breakpoint exception or debug-mode entry.
func (h *Hart) takeTriggerAction(pc uint64) {
	h.triggerTripped = true
	if h.csRegs.Triggers().TrippedAction() == ActionEnterDebug {
		h.EnterDebugMode(DebugCauseTrigger, pc)
		return
	}
	h.initiateException(ExcBreakpoint, pc, pc, SecCauseTriggerHit)
}

// SingleStep executes exactly one fetch-decode-execute iteration.
func (h *Hart) SingleStep() {
	h.singleStep()
}

func (h *Hart) singleStep() {
	h.beginInstruction()

	// Periodic maintenance and interrupt polling happen between
	// instructions.
	h.processTimerAlarm()
	if h.nmiPending && !h.debugMode {
		h.initiateNmi()
	} else if cause, ok := h.isInterruptPossible(); ok {
		h.initiateInterrupt(cause, h.pc)
	}

	h.currPc = h.pc

	word, size, ok := h.fetchInst()
	if !ok {
		h.instCounter++
		h.traceTrap()
		return
	}

	triggersArmed := h.cfg.EnableTriggers && !h.debugMode && h.csRegs.Triggers().AnyArmed()
	if triggersArmed {
		hit := h.csRegs.Triggers().InstAddrTripped(h.currPc, TimingBefore, h.privMode)
		if h.csRegs.Triggers().InstOpcodeTripped(uint64(word), TimingBefore, h.privMode) {
			hit = true
		}
		if hit {
			h.instCounter++
			h.takeTriggerAction(h.currPc)
			return
		}
	}

	di := h.decodeAtPc(word, size)

	h.pc += uint64(size)
	h.execute(di)

	h.instCounter++

	if h.hasException || h.triggerTripped {
		h.traceTrap()
		return
	}

	// After-timing triggers.
	if triggersArmed {
		hit := h.csRegs.Triggers().InstAddrTripped(h.currPc, TimingAfter, h.privMode)
		if h.csRegs.Triggers().InstOpcodeTripped(uint64(word), TimingAfter, h.privMode) {
			hit = true
		}
		if h.csRegs.Triggers().IcountTripped(h.lastPriv) {
			hit = true
		}
		if hit {
			h.takeTriggerAction(h.pc)
			return
		}
	}

	h.retire(di)

	if h.dcsrStep && !h.debugMode {
		h.EnterDebugMode(DebugCauseStep, h.pc)
	}
}

// retire commits the bookkeeping of one successfully executed
// instruction.
func (h *Hart) retire(di *insts.DecodedInst) {
	h.retiredInsts++
	h.cycleCount++
	if h.cfg.EnableCounters && !h.debugMode {
		h.csRegs.AdvanceCounters()
	}
	h.tracer.Record(h, di)
}

// traceTrap emits a trace record for a trapped instruction.
func (h *Hart) traceTrap() {
	h.tracer.RecordTrap(h)
}

// Run executes instructions until a stop condition: a store to tohost,
// pc reaching the stop address, an exit system call, the
// retired-instruction limit, or a trap loop.
func (h *Hart) Run() RunResult {
	for {
		if r, done := h.checkStop(); done {
			return r
		}
		h.singleStep()
	}
}

// UntilAddress executes until pc equals addr or another stop condition
// fires.
func (h *Hart) UntilAddress(addr uint64) RunResult {
	for {
		if r, done := h.checkStop(); done {
			return r
		}
		if h.pc == addr {
			return RunResult{Reason: StopAddr, Pc: h.pc}
		}
		h.singleStep()
	}
}

func (h *Hart) checkStop() (RunResult, bool) {
	switch {
	case h.targetProgFinished:
		reason := StopToHost
		if h.exitCodeValid() {
			reason = StopExit
		}
		return RunResult{Reason: reason, Pc: h.currPc, Value: h.exitCode}, true
	case h.stopAddrValid && h.pc == h.stopAddr:
		return RunResult{Reason: StopAddr, Pc: h.pc}, true
	case h.instCounter >= h.instCountLim:
		return RunResult{Reason: StopLimit, Pc: h.pc}, true
	case h.consecutiveIllegalCount >= trapLoopThreshold:
		return RunResult{Reason: StopTrapLoop, Pc: h.pc}, true
	}
	return RunResult{}, false
}

func (h *Hart) exitCodeValid() bool {
	return h.exitReason == StopExit
}

// ---------------------------------------------------------------------
// Speculative stepping

// CsrChange records one CSR modified by a speculated instruction.
type CsrChange struct {
	Num   CsrNum
	Value uint64
}

// ChangeRecord describes the effects one instruction would have, as
// reported by WhatIfSingleStep.
type ChangeRecord struct {
	NewPc        uint64
	HasException bool

	IntRegIx    int // -1 if no integer register written
	IntRegValue uint64

	FpRegIx    int // -1 if no FP register written
	FpRegValue uint64

	CsrChanges []CsrChange

	MemAddr  uint64
	MemSize  uint32
	MemValue uint64
	HasMem   bool
}

// WhatIfSingleStep determines the effect of executing inst at
// programCounter without committing any state. It returns false if the
// instruction would trap.
func (h *Hart) WhatIfSingleStep(programCounter uint64, inst uint32, record *ChangeRecord) bool {
	savedPc, savedCurrPc := h.pc, h.currPc
	savedPriv, savedLastPriv := h.privMode, h.lastPriv
	savedFinished, savedExit := h.targetProgFinished, h.exitCode
	savedReason := h.exitReason
	savedCounter := h.instCounter

	h.speculative = true
	h.beginInstruction()
	h.currPc = programCounter
	h.pc = programCounter

	di := h.decoder.Decode(inst)
	di.Size = 4
	if insts.IsCompressed(uint16(inst)) {
		di = h.decoder.Decode(insts.Expand(uint16(inst), h.cfg.Xlen))
		di.Size = 2
	}

	h.pc = programCounter + uint64(di.Size)
	h.execute(&di)

	record.NewPc = h.pc
	record.HasException = h.hasException
	record.IntRegIx, record.IntRegValue = -1, 0
	record.FpRegIx, record.FpRegValue = -1, 0
	record.CsrChanges = record.CsrChanges[:0]

	if ix, _ := h.intRegs.LastWritten(); ix >= 0 {
		record.IntRegIx = ix
		record.IntRegValue = h.intRegs.Read(uint32(ix))
	}
	if ix, _ := h.fpRegs.LastWritten(); ix >= 0 {
		record.FpRegIx = ix
		record.FpRegValue = h.fpRegs.ReadRaw(uint32(ix))
	}
	for _, w := range h.csRegs.WrittenCsrs() {
		if v, ok := h.csRegs.Peek(w.num); ok {
			record.CsrChanges = append(record.CsrChanges, CsrChange{Num: w.num, Value: v})
		}
	}
	if h.currStoreValid {
		record.HasMem = true
		record.MemAddr = h.currStore.Addr
		record.MemSize = h.currStore.Size
		record.MemValue = h.currStore.NewData
	}

	ok := !h.hasException

	// Revert everything.
	h.undoInstruction()
	h.pc, h.currPc = savedPc, savedCurrPc
	h.privMode, h.lastPriv = savedPriv, savedLastPriv
	h.targetProgFinished, h.exitCode = savedFinished, savedExit
	h.exitReason = savedReason
	h.instCounter = savedCounter
	h.hasException = false
	h.triggerTripped = false
	h.speculative = false

	return ok
}
