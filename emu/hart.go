package emu

import (
	"io"
	"os"

	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/mem"
)

// StopReason tells the driver why run() returned.
type StopReason int

// Stop reasons.
const (
	StopNone     StopReason = iota
	StopToHost              // store to the tohost address
	StopAddr                // pc reached the stop address
	StopExit                // exit system call
	StopLimit               // retired-instruction limit reached
	StopTrapLoop            // too many consecutive illegal-instruction traps
)

func (r StopReason) String() string {
	switch r {
	case StopToHost:
		return "stopped"
	case StopAddr:
		return "stop address"
	case StopExit:
		return "exited"
	case StopLimit:
		return "instruction limit"
	case StopTrapLoop:
		return "trap loop"
	}
	return "running"
}

// RunResult is the outcome of run/untilAddress.
type RunResult struct {
	Reason StopReason
	Pc     uint64 // pc at stop
	Value  uint64 // tohost value or exit code
}

// trapLoopThreshold is the number of consecutive illegal-instruction
// traps after which run() gives up.
const trapLoopThreshold = 64

// defaultDecodeCacheSize is the number of decode-cache slots; must be a
// power of two.
const defaultDecodeCacheSize = 4096

type decodeCacheEntry struct {
	valid bool
	addr  uint64
	word  uint32
	di    insts.DecodedInst
}

// Hart models one RISC-V hardware thread: its registers, privilege
// state, and the fetch-decode-execute engine.
type Hart struct {
	hartIx  int
	started bool

	cfg      Config
	xlenMask uint64

	memory  *mem.Memory
	intRegs *IntRegs
	fpRegs  *FpRegs
	csRegs  *CsRegs
	virtMem *VirtMem
	pmp     *PmpManager
	decoder *insts.Decoder
	syscall *Syscall

	pc     uint64 // next instruction address
	currPc uint64 // address of the executing instruction

	resetPc       uint64
	stopAddr      uint64
	stopAddrValid bool

	toHost       uint64
	toHostValid  bool
	toHostSym    string
	consoleIoSym string
	conIo        uint64
	conIoValid   bool
	consoleOut   io.Writer

	clintStart     uint64
	clintLimit     uint64
	clintSoftHart  func(addr uint64) *Hart
	clintTimerHart func(addr uint64) *Hart

	nmiPc      uint64
	nmiPending bool
	nmiCause   NmiCause
	nmiEnabled bool

	// Cleared at each instruction boundary.
	hasException   bool
	csrException   bool
	triggerTripped bool

	// Cached mstatus fields, kept coherent on every mstatus write/poke.
	privMode    PrivMode
	lastPriv    PrivMode
	mstatusMpp  PrivMode
	mstatusMprv bool
	mstatusFs   FpStatus

	fcsrValue uint64 // cached FCSR

	instCounter  uint64 // absolute retired-instruction count
	instCountLim uint64
	retiredInsts uint64
	cycleCount   uint64

	exceptionCount          uint64
	interruptCount          uint64
	nmiCount                uint64
	consecutiveIllegalCount uint64
	counterAtLastIllegal    uint64

	alarmInterval uint64
	alarmLimit    uint64

	loadQueue   loadQueue
	storeBuffer storeBuffer
	loadTag     uint64

	// Undo information for the current instruction's memory write.
	currStore      StoreInfo
	currStoreValid bool

	debugMode       bool
	debugStepMode   bool
	dcsrStep        bool
	dcsrStepIe      bool
	ebreakInstDebug bool
	debugRomAddr    uint64

	decodeCache     []decodeCacheEntry
	decodeCacheMask uint64

	lastBranchTaken bool
	misalignedLdSt  bool
	ldStAddr        uint64
	ldStAddrValid   bool

	targetProgFinished bool
	exitReason         StopReason
	exitCode           uint64

	// speculative suppresses trap delivery and external effects during
	// WhatIfSingleStep.
	speculative bool

	tracer *Tracer

	snapshotIx uint32
}

// NewHart creates hart number hartIx over the given memory.
func NewHart(hartIx int, memory *mem.Memory, cfg Config) *Hart {
	if cfg.Xlen != 32 && cfg.Xlen != 64 {
		cfg.Xlen = 64
	}

	h := &Hart{
		hartIx:       hartIx,
		started:      hartIx == 0,
		cfg:          cfg,
		memory:       memory,
		intRegs:      NewIntRegs(),
		fpRegs:       NewFpRegs(),
		csRegs:       NewCsRegs(cfg.Xlen, uint64(hartIx)),
		pmp:          NewPmpManager(),
		decoder:      insts.NewDecoder(),
		toHostSym:    "tohost",
		consoleIoSym: "__whisper_console_io",
		consoleOut:   os.Stdout,
		nmiEnabled:   true,
		instCountLim: ^uint64(0),
		alarmLimit:   ^uint64(0),
		privMode:     PrivMachine,
		lastPriv:     PrivMachine,
		mstatusMpp:   PrivMachine,
	}
	h.xlenMask = ^uint64(0)
	if cfg.Xlen == 32 {
		h.xlenMask = 0xffffffff
	}
	h.virtMem = NewVirtMem(memory)
	h.syscall = NewSyscall(h)
	h.loadQueue.enabled = cfg.LoadQueueEnabled
	h.storeBuffer.enabled = cfg.StoreErrorRollback
	h.setDecodeCacheSize(defaultDecodeCacheSize)
	h.tracer = NewTracer(cfg.AbiNames)
	return h
}

func (h *Hart) setDecodeCacheSize(n uint64) {
	h.decodeCache = make([]decodeCacheEntry, n)
	h.decodeCacheMask = n - 1
}

// Index returns the hart index within its system.
func (h *Hart) Index() int { return h.hartIx }

// Config returns the hart configuration.
func (h *Hart) Config() Config { return h.cfg }

// Memory returns the memory the hart executes against.
func (h *Hart) Memory() *mem.Memory { return h.memory }

// IntRegs returns the integer register file.
func (h *Hart) IntRegs() *IntRegs { return h.intRegs }

// FpRegs returns the floating-point register file.
func (h *Hart) FpRegs() *FpRegs { return h.fpRegs }

// CsRegs returns the CSR file.
func (h *Hart) CsRegs() *CsRegs { return h.csRegs }

// Pc returns the address of the next instruction.
func (h *Hart) Pc() uint64 { return h.pc }

// SetPc sets the address of the next instruction.
func (h *Hart) SetPc(pc uint64) { h.pc = pc & h.alignmentMask() }

// PrivMode returns the current privilege mode.
func (h *Hart) PrivMode() PrivMode { return h.privMode }

// InstCount returns the absolute retired-instruction count.
func (h *Hart) InstCount() uint64 { return h.instCounter }

// SetInstCount overwrites the absolute retired-instruction count.
func (h *Hart) SetInstCount(n uint64) { h.instCounter = n }

// SetInstCountLimit bounds run()/untilAddress().
func (h *Hart) SetInstCountLimit(lim uint64) { h.instCountLim = lim }

// Started reports whether the hart has been released from reset.
func (h *Hart) Started() bool { return h.started }

// SetStarted releases the hart from (or returns it to) the wait-for-start
// state. Hart 0 starts automatically; others wait for mhartstart.
func (h *Hart) SetStarted(flag bool) { h.started = flag }

// SetResetPc sets the pc installed by reset.
func (h *Hart) SetResetPc(pc uint64) { h.resetPc = pc }

// SetNmiPc sets the non-maskable-interrupt handler address.
func (h *Hart) SetNmiPc(pc uint64) { h.nmiPc = pc }

// SetStopAddress makes run() stop when pc reaches addr.
func (h *Hart) SetStopAddress(addr uint64) {
	h.stopAddr = addr
	h.stopAddrValid = true
}

// SetToHostAddress defines the tohost address: a store to it stops the
// simulated program.
func (h *Hart) SetToHostAddress(addr uint64) {
	h.toHost = addr
	h.toHostValid = true
}

// ToHostAddress returns the tohost address and whether it is set.
func (h *Hart) ToHostAddress() (uint64, bool) {
	return h.toHost, h.toHostValid
}

// SetToHostSymbol overrides the ELF symbol adopted as tohost.
func (h *Hart) SetToHostSymbol(sym string) { h.toHostSym = sym }

// ToHostSymbol returns the ELF symbol used for the tohost address.
func (h *Hart) ToHostSymbol() string { return h.toHostSym }

// SetConsoleIoAddress defines the console-IO MMIO byte address.
func (h *Hart) SetConsoleIoAddress(addr uint64) {
	h.conIo = addr
	h.conIoValid = true
}

// SetConsoleIoSymbol overrides the ELF symbol adopted as the console-IO
// address.
func (h *Hart) SetConsoleIoSymbol(sym string) { h.consoleIoSym = sym }

// ConsoleIoSymbol returns the ELF symbol used for the console-IO address.
func (h *Hart) ConsoleIoSymbol() string { return h.consoleIoSym }

// SetConsoleOutput directs console-IO bytes to w.
func (h *Hart) SetConsoleOutput(w io.Writer) { h.consoleOut = w }

// ConfigClint defines the CLINT window and the resolvers mapping mailbox
// addresses to harts.
func (h *Hart) ConfigClint(start, limit uint64, softHart, timerHart func(addr uint64) *Hart) {
	h.clintStart = start
	h.clintLimit = limit
	h.clintSoftHart = softHart
	h.clintTimerHart = timerHart
}

// SetupPeriodicTimerInterrupt asserts a machine timer interrupt every
// interval retired instructions.
func (h *Hart) SetupPeriodicTimerInterrupt(interval uint64) {
	h.alarmInterval = interval
	h.alarmLimit = h.instCounter + interval
}

// SetPmpGrainSize configures the PMP granularity (power of two >= 4).
func (h *Hart) SetPmpGrainSize(log2Size uint32) bool {
	return h.pmp.SetGrainSize(log2Size)
}

// SetSnapshotIndex records the directory index for the next snapshot.
func (h *Hart) SetSnapshotIndex(ix uint32) { h.snapshotIx = ix }

// SetTraceOutput attaches a writer receiving one record per retired
// instruction.
func (h *Hart) SetTraceOutput(w io.Writer) { h.tracer.SetOutput(w) }

// EnableLoadQueue turns in-flight load tracking on or off.
func (h *Hart) EnableLoadQueue(flag bool) { h.loadQueue.enabled = flag }

// TieSharedCsrsTo aliases this hart's shared CSRs to those of other.
func (h *Hart) TieSharedCsrsTo(other *Hart) {
	h.csRegs.TieSharedTo(other.csRegs)
}

// PostNmi posts a non-maskable interrupt to be taken before the next
// instruction.
func (h *Hart) PostNmi(cause NmiCause) {
	if !h.nmiEnabled {
		return
	}
	h.nmiPending = true
	h.nmiCause = cause
}

// ClearNmi withdraws a pending non-maskable interrupt.
func (h *Hart) ClearNmi() {
	h.nmiPending = false
	h.nmiCause = NmiUnknown
}

// Reset puts the hart back into its reset state. Memory contents,
// including memory-mapped register values, are preserved; when
// resetMemMapped is set the mip MSIP and MTIP bits those registers feed
// are cleared.
func (h *Hart) Reset(resetMemMapped bool) {
	h.intRegs.Reset()
	h.fpRegs.Reset()
	h.csRegs.Reset()
	h.virtMem.FlushTlb()
	h.clearDecodeCache()

	h.pc = h.resetPc & h.alignmentMask()
	h.currPc = h.pc
	h.privMode = PrivMachine
	h.lastPriv = PrivMachine
	h.debugMode = false
	h.debugStepMode = false
	h.nmiPending = false
	h.hasException = false
	h.csrException = false
	h.triggerTripped = false
	h.targetProgFinished = false
	h.consecutiveIllegalCount = 0
	h.loadQueue.clear()
	h.storeBuffer.clear()
	h.memory.InvalidateLr(h.hartIx)

	h.updateCachedMstatus()
	h.updateMemoryProtection()
	h.updateAddressTranslation()
	h.updateCachedFcsr()

	if resetMemMapped {
		// Memory-mapped register values are owned by Memory; the reset
		// protocol clears the mip bits they feed.
		h.csRegs.SetMipBit(MipMSIP, false)
		h.csRegs.SetMipBit(MipMTIP, false)
	}
}

// alignmentMask returns the pc alignment enforced at fetch: 2 bytes with
// the C extension, else 4.
func (h *Hart) alignmentMask() uint64 {
	if h.cfg.EnableC {
		return ^uint64(1)
	}
	return ^uint64(3)
}

// updateCachedMstatus refreshes the cached mpp/mprv/fs fields after any
// write or poke of mstatus.
func (h *Hart) updateCachedMstatus() {
	v, _ := h.csRegs.Peek(CsrMstatus)
	h.mstatusMpp = PrivMode(v >> MstatusMPPShift & 0x3)
	h.mstatusMprv = v&MstatusMPRV != 0
	h.mstatusFs = FpStatus(v >> MstatusFSShift & 0x3)
}

// updateCachedFcsr refreshes the cached FCSR value after CSR writes.
func (h *Hart) updateCachedFcsr() {
	h.fcsrValue, _ = h.csRegs.Peek(CsrFcsr)
}

// updateMemoryProtection reloads the PMP unit from the pmpcfg/pmpaddr
// CSRs.
func (h *Hart) updateMemoryProtection() {
	var cfg [4]uint64
	var addr [16]uint64
	for i := 0; i < 4; i++ {
		cfg[i], _ = h.csRegs.Peek(CsrPmpcfg0 + CsrNum(i))
	}
	for i := 0; i < 16; i++ {
		addr[i], _ = h.csRegs.Peek(CsrPmpaddr0 + CsrNum(i))
	}
	h.pmp.UpdateConfig(h.cfg.Xlen, cfg, addr)
}

// updateAddressTranslation reconfigures the page-table walker from satp.
func (h *Hart) updateAddressTranslation() {
	if !h.cfg.EnableS {
		return
	}
	satp, _ := h.csRegs.Peek(CsrSatp)
	h.virtMem.ConfigureFromSatp(satp, h.cfg.Xlen)
}

// csrSideEffects applies the special behaviors attached to certain CSRs
// after a successful CSR-instruction write.
func (h *Hart) csrSideEffects(num CsrNum) {
	switch {
	case num == CsrMstatus || num == CsrSstatus:
		h.updateCachedMstatus()
	case num == CsrFcsr || num == CsrFflags || num == CsrFrm:
		h.updateCachedFcsr()
		h.markFsDirty()
	case num == CsrSatp:
		h.updateAddressTranslation()
	case num >= CsrPmpcfg0 && num <= CsrPmpcfg3,
		num >= CsrPmpaddr0 && num <= CsrPmpaddr15:
		h.updateMemoryProtection()
	case num == CsrMhartstart:
		// Hart-start bits are consumed by the owning System.
	}
}

// markFsDirty sets mstatus.FS to dirty after any FP state change.
func (h *Hart) markFsDirty() {
	if !h.cfg.EnableF {
		return
	}
	v, _ := h.csRegs.Peek(CsrMstatus)
	v |= MstatusFS
	h.csRegs.Poke(CsrMstatus, v)
	h.mstatusFs = FsDirty
}

// effectiveLdStPriv is the privilege used for data translation: mpp when
// mprv is set in machine mode.
func (h *Hart) effectiveLdStPriv() PrivMode {
	if h.mstatusMprv && h.privMode == PrivMachine {
		return h.mstatusMpp
	}
	return h.privMode
}

// mstatusBit reads a single mstatus bit.
func (h *Hart) mstatusBit(bit uint64) bool {
	v, _ := h.csRegs.Peek(CsrMstatus)
	return v&bit != 0
}

// ---------------------------------------------------------------------
// Trap delivery

// initiateException delivers a synchronous exception with the given
// cause, trap-value and secondary cause. The faulting instruction's
// writes must already be rolled back.
func (h *Hart) initiateException(cause ExceptionCause, pc, tval uint64, secCause SecondaryCause) {
	h.hasException = true
	if h.speculative {
		return
	}
	h.exceptionCount++

	if cause == ExcIllegalInst {
		if h.counterAtLastIllegal+1 == h.instCounter {
			h.consecutiveIllegalCount++
		} else {
			h.consecutiveIllegalCount = 1
		}
		h.counterAtLastIllegal = h.instCounter
	} else {
		h.consecutiveIllegalCount = 0
	}

	h.takeTrap(false, uint32(cause), pc, tval, secCause)
}

// initiateInterrupt delivers an interrupt before the next instruction.
func (h *Hart) initiateInterrupt(cause InterruptCause, pc uint64) {
	h.interruptCount++
	h.takeTrap(true, uint32(cause), pc, 0, SecCauseNone)
}

// initiateNmi vectors to the NMI handler.
func (h *Hart) initiateNmi() {
	h.nmiCount++
	h.nmiPending = false

	// NMI is taken in machine mode regardless of delegation.
	h.pokeTrapCsr(CsrMepc, h.pc&^uint64(1))
	h.pokeTrapCsr(CsrMcause, h.interruptBit()|uint64(h.nmiCause))
	h.pokeTrapCsr(CsrMtval, 0)
	h.trapUpdateStatus(PrivMachine)
	h.privMode = PrivMachine
	h.pc = h.nmiPc & h.alignmentMask()
}

// interruptBit is the top bit of xcause.
func (h *Hart) interruptBit() uint64 {
	return uint64(1) << (h.cfg.Xlen - 1)
}

// delegatedTo computes the privilege that handles a trap, consulting the
// delegation CSRs.
func (h *Hart) delegatedTo(interrupt bool, cause uint32) PrivMode {
	if h.privMode == PrivMachine || !h.cfg.EnableS {
		return PrivMachine
	}

	var deleg uint64
	if interrupt {
		deleg, _ = h.csRegs.Peek(CsrMideleg)
	} else {
		deleg, _ = h.csRegs.Peek(CsrMedeleg)
	}
	if deleg&(1<<cause) == 0 {
		return PrivMachine
	}

	if h.cfg.EnableN && h.privMode == PrivUser {
		var sdeleg uint64
		if interrupt {
			sdeleg, _ = h.csRegs.Peek(CsrSideleg)
		} else {
			sdeleg, _ = h.csRegs.Peek(CsrSedeleg)
		}
		if sdeleg&(1<<cause) != 0 {
			return PrivUser
		}
	}
	return PrivSupervisor
}

// pokeTrapCsr writes a trap CSR directly, bypassing write masks and
// per-instruction write tracking.
func (h *Hart) pokeTrapCsr(num CsrNum, value uint64) {
	h.csRegs.Poke(num, value)
}

// trapUpdateStatus performs the xstatus bookkeeping of trap entry for
// destination privilege p: save the interrupt enable into xPIE, clear
// xIE, and save the previous privilege into xPP.
func (h *Hart) trapUpdateStatus(p PrivMode) {
	v, _ := h.csRegs.Peek(CsrMstatus)

	switch p {
	case PrivMachine:
		if v&MstatusMIE != 0 {
			v |= MstatusMPIE
		} else {
			v &^= MstatusMPIE
		}
		v &^= MstatusMIE
		v = v&^MstatusMPP | uint64(h.privMode)<<MstatusMPPShift
	case PrivSupervisor:
		if v&MstatusSIE != 0 {
			v |= MstatusSPIE
		} else {
			v &^= MstatusSPIE
		}
		v &^= MstatusSIE
		if h.privMode == PrivSupervisor {
			v |= MstatusSPP
		} else {
			v &^= MstatusSPP
		}
	case PrivUser:
		if v&MstatusUIE != 0 {
			v |= MstatusUPIE
		} else {
			v &^= MstatusUPIE
		}
		v &^= MstatusUIE
	}

	h.csRegs.Poke(CsrMstatus, v)
	h.updateCachedMstatus()
}

// takeTrap is the common trap-delivery path for exceptions and
// interrupts.
func (h *Hart) takeTrap(interrupt bool, cause uint32, epc, tval uint64, secCause SecondaryCause) {
	nextMode := h.delegatedTo(interrupt, cause)

	var epcNum, causeNum, tvalNum, tvecNum CsrNum
	switch nextMode {
	case PrivSupervisor:
		epcNum, causeNum, tvalNum, tvecNum = CsrSepc, CsrScause, CsrStval, CsrStvec
	case PrivUser:
		epcNum, causeNum, tvalNum, tvecNum = CsrUepc, CsrUcause, CsrUtval, CsrUtvec
	default:
		epcNum, causeNum, tvalNum, tvecNum = CsrMepc, CsrMcause, CsrMtval, CsrMtvec
	}

	causeValue := uint64(cause)
	if interrupt {
		causeValue |= h.interruptBit()
	}

	h.pokeTrapCsr(epcNum, epc&^uint64(1))
	h.pokeTrapCsr(causeNum, causeValue)
	h.pokeTrapCsr(tvalNum, tval)
	h.pokeTrapCsr(CsrMscause, uint64(secCause))

	h.trapUpdateStatus(nextMode)
	h.privMode = nextMode

	tvec, _ := h.csRegs.Peek(tvecNum)
	base := tvec &^ uint64(3)
	if interrupt && h.cfg.FastInterrupts {
		h.pc = h.fastInterruptHandler(base, cause)
		return
	}
	if interrupt && tvec&0x3 == 1 {
		base += 4 * uint64(cause)
	}
	h.pc = base & h.alignmentMask()
}

// fastInterruptHandler reads the per-cause handler entry from the table
// at base, bypassing the vectored dispatch.
func (h *Hart) fastInterruptHandler(base uint64, cause uint32) uint64 {
	entrySize := uint64(h.cfg.Xlen / 8)
	addr := base + uint64(cause)*entrySize
	v, err := h.memory.Read(addr, entrySize)
	if err != mem.ErrNone {
		return base & h.alignmentMask()
	}
	return v & h.alignmentMask()
}

// ---------------------------------------------------------------------
// Interrupts

// interruptPriority is the order interrupts are considered in.
var interruptPriority = []InterruptCause{
	IntMachExt, IntMachSoft, IntMachTimer,
	IntSupExt, IntSupSoft, IntSupTimer,
	IntUserExt, IntUserSoft, IntUserTimer,
}

// isInterruptPossible reports whether an enabled, pending, unmasked
// interrupt exists, and which one.
func (h *Hart) isInterruptPossible() (InterruptCause, bool) {
	if h.debugMode && !(h.debugStepMode && h.dcsrStepIe) {
		return 0, false
	}

	mip, _ := h.csRegs.Peek(CsrMip)
	mie, _ := h.csRegs.Peek(CsrMie)
	pending := mip & mie
	if pending == 0 {
		return 0, false
	}

	mideleg, _ := h.csRegs.Peek(CsrMideleg)
	mstatusMie := h.mstatusBit(MstatusMIE)
	mstatusSie := h.mstatusBit(MstatusSIE)

	for _, cause := range interruptPriority {
		bit := uint64(1) << cause
		if pending&bit == 0 {
			continue
		}
		if mideleg&bit == 0 {
			// Machine-level interrupt.
			if h.privMode < PrivMachine || (h.privMode == PrivMachine && mstatusMie) {
				return cause, true
			}
		} else {
			// Delegated to supervisor.
			if h.privMode < PrivSupervisor ||
				(h.privMode == PrivSupervisor && mstatusSie) {
				return cause, true
			}
		}
	}
	return 0, false
}

// processTimerAlarm asserts MTIP when the periodic alarm expires.
func (h *Hart) processTimerAlarm() {
	if h.alarmInterval == 0 || h.debugMode {
		return
	}
	if h.instCounter >= h.alarmLimit {
		h.csRegs.SetMipBit(MipMTIP, true)
		h.alarmLimit += h.alarmInterval
	}
}

// isClintAddr reports whether a data address falls in the CLINT window.
func (h *Hart) isClintAddr(addr uint64) bool {
	return h.clintLimit > h.clintStart && addr >= h.clintStart && addr < h.clintLimit
}

// processClintWrite resolves a store into the CLINT window to a hart
// mailbox and updates its mip bits.
func (h *Hart) processClintWrite(addr, value uint64) {
	if h.clintSoftHart != nil {
		if target := h.clintSoftHart(addr); target != nil {
			target.csRegs.SetMipBit(MipMSIP, value&1 != 0)
			return
		}
	}
	if h.clintTimerHart != nil {
		if target := h.clintTimerHart(addr); target != nil {
			// Writing the timer compare retracts the pending timer
			// interrupt and re-arms the alarm.
			target.csRegs.SetMipBit(MipMTIP, false)
			target.alarmLimit = value
			if target.alarmInterval == 0 {
				target.alarmInterval = 1
				target.alarmLimit = value
			}
		}
	}
}

// ---------------------------------------------------------------------
// Debug mode

// DebugCause is the dcsr cause field value on debug entry.
type DebugCause uint32

// Debug-entry causes.
const (
	DebugCauseEbreak  DebugCause = 1
	DebugCauseTrigger DebugCause = 2
	DebugCauseHalt    DebugCause = 3
	DebugCauseStep    DebugCause = 4
)

// SetDebugRomAddress sets the address jumped to on debug entry.
func (h *Hart) SetDebugRomAddress(addr uint64) { h.debugRomAddr = addr }

// InDebugMode reports whether the hart is halted in debug mode.
func (h *Hart) InDebugMode() bool { return h.debugMode }

// EnterDebugMode halts the hart into debug mode: pc is saved into dpc,
// the cause and previous privilege into dcsr, and control transfers to
// the debug ROM.
func (h *Hart) EnterDebugMode(cause DebugCause, pc uint64) {
	if h.debugMode {
		return
	}
	h.debugMode = true
	h.ebreakInstDebug = cause == DebugCauseEbreak

	h.csRegs.Poke(CsrDpc, pc)
	dcsr, _ := h.csRegs.Peek(CsrDcsr)
	dcsr = dcsr&^uint64(0x1c0) | uint64(cause)<<6
	dcsr = dcsr&^uint64(0x3) | uint64(h.privMode)
	h.csRegs.Poke(CsrDcsr, dcsr)

	h.privMode = PrivMachine
	h.pc = h.debugRomAddr & h.alignmentMask()
}

// ExitDebugMode resumes from debug mode: privilege and pc are restored
// from dcsr/dpc.
func (h *Hart) ExitDebugMode() {
	if !h.debugMode {
		return
	}
	h.debugMode = false
	h.ebreakInstDebug = false

	dcsr, _ := h.csRegs.Peek(CsrDcsr)
	h.privMode = PrivMode(dcsr & 0x3)
	h.dcsrStep = dcsr&(1<<2) != 0
	h.dcsrStepIe = dcsr&(1<<11) != 0
	h.debugStepMode = h.dcsrStep

	dpc, _ := h.csRegs.Peek(CsrDpc)
	h.pc = dpc & h.alignmentMask()
}
