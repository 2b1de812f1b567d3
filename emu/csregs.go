package emu

// Csr is one control/status register: its storage, reset value, and the
// masks governing writes from CSR instructions and from the external
// debug (poke) interface.
type Csr struct {
	name        string
	number      CsrNum
	implemented bool
	shared      bool
	readOnly    bool
	value       *uint64
	resetValue  uint64
	writeMask   uint64
	pokeMask    uint64
}

// Name returns the CSR name.
func (c *Csr) Name() string { return c.name }

type csrWrite struct {
	num  CsrNum
	prev uint64
}

// CsRegs is the control/status register file of one hart.
type CsRegs struct {
	xlen     uint32
	xlenMask uint64
	regs     [0x1000]*Csr
	triggers *Triggers

	// CSRs written by the current instruction, for tracing and rollback.
	writes []csrWrite
}

// NewCsRegs creates a CSR file for a hart with the given hart id and
// register width (32 or 64).
func NewCsRegs(xlen uint32, hartId uint64) *CsRegs {
	cr := &CsRegs{
		xlen:     xlen,
		triggers: NewTriggers(defaultTriggerCount),
	}
	cr.xlenMask = ^uint64(0)
	if xlen == 32 {
		cr.xlenMask = 0xffffffff
	}
	cr.defineMachineCsrs(hartId)
	cr.defineSupervisorCsrs()
	cr.defineUserCsrs()
	cr.defineDebugCsrs()
	cr.defineVendorCsrs()
	return cr
}

func (cr *CsRegs) define(name string, num CsrNum, reset, writeMask, pokeMask uint64,
	readOnly, shared bool) *Csr {
	v := reset
	c := &Csr{
		name:        name,
		number:      num,
		implemented: true,
		shared:      shared,
		readOnly:    readOnly,
		value:       &v,
		resetValue:  reset,
		writeMask:   writeMask,
		pokeMask:    pokeMask,
	}
	cr.regs[num] = c
	return c
}

func (cr *CsRegs) defineMachineCsrs(hartId uint64) {
	all := ^uint64(0)

	cr.define("mvendorid", CsrMvendorid, 0, 0, 0, true, false)
	cr.define("marchid", CsrMarchid, 0, 0, 0, true, false)
	cr.define("mimpid", CsrMimpid, 0, 0, 0, true, false)
	cr.define("mhartid", CsrMhartid, hartId, 0, 0, true, false)

	mstatusMask := MstatusUIE | MstatusSIE | MstatusMIE | MstatusUPIE |
		MstatusSPIE | MstatusMPIE | MstatusSPP | MstatusMPP | MstatusFS |
		MstatusMPRV | MstatusSUM | MstatusMXR | MstatusTVM | MstatusTW | MstatusTSR
	mpp := uint64(PrivMachine) << MstatusMPPShift
	cr.define("mstatus", CsrMstatus, mpp, mstatusMask, mstatusMask|1<<63, false, false)

	cr.define("misa", CsrMisa, 0, 0, 0, true, false)
	cr.define("medeleg", CsrMedeleg, 0, 0xb3ff, 0xb3ff, false, false)
	cr.define("mideleg", CsrMideleg, 0, MipSSIP|MipSTIP|MipSEIP, MipSSIP|MipSTIP|MipSEIP, false, false)
	mieMask := MipMSIP | MipMTIP | MipMEIP | MipSSIP | MipSTIP | MipSEIP
	cr.define("mie", CsrMie, 0, mieMask, mieMask, false, false)
	cr.define("mtvec", CsrMtvec, 0, ^uint64(2), ^uint64(2), false, false)
	cr.define("mcounteren", CsrMcounteren, 0, 0xffffffff, 0xffffffff, false, false)
	cr.define("mcountinhibit", CsrMcountinhibit, 0, 0xffffffff, 0xffffffff, false, false)
	cr.define("mscratch", CsrMscratch, 0, all, all, false, false)
	cr.define("mepc", CsrMepc, 0, ^uint64(1), ^uint64(1), false, false)
	cr.define("mcause", CsrMcause, 0, all, all, false, false)
	cr.define("mtval", CsrMtval, 0, all, all, false, false)
	// MSIP/MTIP are set by the CLINT through the poke mask.
	cr.define("mip", CsrMip, 0, MipSSIP|MipSTIP|MipSEIP,
		MipSSIP|MipSTIP|MipSEIP|MipMSIP|MipMTIP|MipMEIP, false, false)

	for i := CsrNum(0); i < 4; i++ {
		cr.define(csrIndexName("pmpcfg", int(i)), CsrPmpcfg0+i, 0, all, all, false, false)
	}
	for i := CsrNum(0); i < 16; i++ {
		cr.define(csrIndexName("pmpaddr", int(i)), CsrPmpaddr0+i, 0, all, all, false, false)
	}

	cr.define("mcycle", CsrMcycle, 0, all, all, false, false)
	cr.define("minstret", CsrMinstret, 0, all, all, false, false)
	for i := CsrNum(3); i <= 31; i++ {
		cr.define(csrIndexName("mhpmcounter", int(i)), CsrMhpmcounter3+i-3, 0, all, all, false, false)
		cr.define(csrIndexName("mhpmevent", int(i)), CsrMhpmevent3+i-3, 0, all, all, false, false)
	}
}

func (cr *CsRegs) defineSupervisorCsrs() {
	all := ^uint64(0)

	// sstatus/sie/sip are views of the machine-level registers; define
	// placeholders so implementation checks succeed.
	cr.define("sstatus", CsrSstatus, 0, 0, 0, false, false)
	cr.define("sie", CsrSie, 0, 0, 0, false, false)
	cr.define("sip", CsrSip, 0, 0, 0, false, false)

	cr.define("sedeleg", CsrSedeleg, 0, 0, 0, false, false)
	cr.define("sideleg", CsrSideleg, 0, 0, 0, false, false)
	cr.define("stvec", CsrStvec, 0, ^uint64(2), ^uint64(2), false, false)
	cr.define("scounteren", CsrScounteren, 0, 0xffffffff, 0xffffffff, false, false)
	cr.define("sscratch", CsrSscratch, 0, all, all, false, false)
	cr.define("sepc", CsrSepc, 0, ^uint64(1), ^uint64(1), false, false)
	cr.define("scause", CsrScause, 0, all, all, false, false)
	cr.define("stval", CsrStval, 0, all, all, false, false)
	cr.define("satp", CsrSatp, 0, all, all, false, false)
}

func (cr *CsRegs) defineUserCsrs() {
	all := ^uint64(0)

	cr.define("ustatus", CsrUstatus, 0, MstatusUIE|MstatusUPIE, MstatusUIE|MstatusUPIE, false, false)
	cr.define("uie", CsrUie, 0, MipUSIP|MipUTIP|MipUEIP, MipUSIP|MipUTIP|MipUEIP, false, false)
	cr.define("utvec", CsrUtvec, 0, ^uint64(2), ^uint64(2), false, false)
	cr.define("uscratch", CsrUscratch, 0, all, all, false, false)
	cr.define("uepc", CsrUepc, 0, ^uint64(1), ^uint64(1), false, false)
	cr.define("ucause", CsrUcause, 0, all, all, false, false)
	cr.define("utval", CsrUtval, 0, all, all, false, false)
	cr.define("uip", CsrUip, 0, MipUSIP, MipUSIP|MipUTIP|MipUEIP, false, false)

	cr.define("fflags", CsrFflags, 0, 0, 0, false, false)
	cr.define("frm", CsrFrm, 0, 0, 0, false, false)
	cr.define("fcsr", CsrFcsr, 0, 0xff, 0xff, false, false)
	cr.define("cycle", CsrCycle, 0, 0, 0, true, false)
	cr.define("time", CsrTime, 0, 0, 0, true, false)
	cr.define("instret", CsrInstret, 0, 0, 0, true, false)
}

func (cr *CsRegs) defineDebugCsrs() {
	all := ^uint64(0)

	cr.define("tselect", CsrTselect, 0, all, all, false, false)
	cr.define("tdata1", CsrTdata1, 0, 0, 0, false, false)
	cr.define("tdata2", CsrTdata2, 0, 0, 0, false, false)
	cr.define("tdata3", CsrTdata3, 0, 0, 0, false, false)

	// dcsr: xdebugver=4, ebreak bits, cause, step, prv.
	dcsrMask := uint64(0xbc04 | 0x3) // ebreakm/s/u, stepie, stopcount, step, prv
	cr.define("dcsr", CsrDcsr, 0x40000003, dcsrMask, dcsrMask|0x1c0, false, false)
	cr.define("dpc", CsrDpc, 0, all, all, false, false)
	cr.define("dscratch", CsrDscratch, 0, all, all, false, false)
}

func (cr *CsRegs) defineVendorCsrs() {
	all := ^uint64(0)

	cr.define("mhartstart", CsrMhartstart, 1, all, all, false, true)
	cr.define("mscause", CsrMscause, 0, all, all, false, false)
	cr.define("mdseac", CsrMdseac, 0, 0, all, true, false)
}

func csrIndexName(prefix string, ix int) string {
	const digits = "0123456789"
	if ix < 10 {
		return prefix + digits[ix:ix+1]
	}
	return prefix + digits[ix/10:ix/10+1] + digits[ix%10:ix%10+1]
}

// Find returns the CSR with the given number, or nil.
func (cr *CsRegs) Find(num CsrNum) *Csr {
	if num >= 0x1000 {
		return nil
	}
	return cr.regs[num]
}

// Triggers exposes the debug-trigger unit.
func (cr *CsRegs) Triggers() *Triggers {
	return cr.triggers
}

// sstatusMask selects the mstatus bits visible through sstatus.
const sstatusMask = MstatusUIE | MstatusSIE | MstatusUPIE | MstatusSPIE |
	MstatusSPP | MstatusFS | MstatusSUM | MstatusMXR

// ustatusMask selects the mstatus bits visible through ustatus.
const ustatusMask = MstatusUIE | MstatusUPIE

// Read returns the value of a CSR, checking privilege. The boolean is
// false if the CSR is not implemented or not accessible from priv.
func (cr *CsRegs) Read(num CsrNum, priv PrivMode) (uint64, bool) {
	csr := cr.Find(num)
	if csr == nil || !csr.implemented {
		return 0, false
	}
	if PrivMode((num>>8)&0x3) > priv {
		return 0, false
	}
	if num >= CsrCycle && num <= CsrCycle+0x1f && priv < PrivMachine {
		bit := uint64(1) << uint(num-CsrCycle)
		if en, _ := cr.Peek(CsrMcounteren); en&bit == 0 {
			return 0, false
		}
		if priv == PrivUser {
			if en, _ := cr.Peek(CsrScounteren); en&bit == 0 {
				return 0, false
			}
		}
	}
	return cr.readValue(csr), true
}

// Peek returns the value of a CSR without privilege checking. Used by the
// external debug interface.
func (cr *CsRegs) Peek(num CsrNum) (uint64, bool) {
	csr := cr.Find(num)
	if csr == nil || !csr.implemented {
		return 0, false
	}
	return cr.readValue(csr), true
}

func (cr *CsRegs) readValue(csr *Csr) uint64 {
	switch csr.number {
	case CsrUstatus:
		v, _ := cr.Peek(CsrMstatus)
		return v & ustatusMask & cr.xlenMask
	case CsrUie:
		mie, _ := cr.Peek(CsrMie)
		mideleg, _ := cr.Peek(CsrMideleg)
		return mie & mideleg & (MipUSIP | MipUTIP | MipUEIP) & cr.xlenMask
	case CsrUip:
		mip, _ := cr.Peek(CsrMip)
		mideleg, _ := cr.Peek(CsrMideleg)
		return mip & mideleg & (MipUSIP | MipUTIP | MipUEIP) & cr.xlenMask
	case CsrSstatus:
		v, _ := cr.Peek(CsrMstatus)
		return v & sstatusMask & cr.xlenMask
	case CsrSie:
		mie, _ := cr.Peek(CsrMie)
		mideleg, _ := cr.Peek(CsrMideleg)
		return mie & mideleg & cr.xlenMask
	case CsrSip:
		mip, _ := cr.Peek(CsrMip)
		mideleg, _ := cr.Peek(CsrMideleg)
		return mip & mideleg & cr.xlenMask
	case CsrFflags:
		fcsr, _ := cr.Peek(CsrFcsr)
		return fcsr & FcsrFlagsMask
	case CsrFrm:
		fcsr, _ := cr.Peek(CsrFcsr)
		return (fcsr & FcsrRmMask) >> FcsrRmShift
	case CsrCycle, CsrTime:
		v, _ := cr.Peek(CsrMcycle)
		return v & cr.xlenMask
	case CsrInstret:
		v, _ := cr.Peek(CsrMinstret)
		return v & cr.xlenMask
	case CsrTdata1:
		tsel, _ := cr.Peek(CsrTselect)
		return cr.triggers.ReadData1(int(tsel)) & cr.xlenMask
	case CsrTdata2:
		tsel, _ := cr.Peek(CsrTselect)
		return cr.triggers.ReadData2(int(tsel)) & cr.xlenMask
	case CsrTdata3:
		tsel, _ := cr.Peek(CsrTselect)
		return cr.triggers.ReadData3(int(tsel)) & cr.xlenMask
	}
	return *csr.value & cr.xlenMask
}

// Write performs a CSR-instruction write, checking privilege and
// read-only status, and applying the CSR's write mask. It records the
// previous value for tracing and rollback. Returns false on illegal
// access.
func (cr *CsRegs) Write(num CsrNum, priv PrivMode, value uint64) bool {
	csr := cr.Find(num)
	if csr == nil || !csr.implemented || csr.readOnly {
		return false
	}
	if PrivMode((num>>8)&0x3) > priv {
		return false
	}
	if num>>10 == 0x3 { // top quadrant of each privilege space is read-only
		return false
	}

	prev := cr.readValue(csr)

	switch num {
	case CsrUstatus:
		mstatus, _ := cr.Peek(CsrMstatus)
		cr.setValue(cr.Find(CsrMstatus), mstatus&^ustatusMask|value&ustatusMask)
	case CsrUie:
		mideleg, _ := cr.Peek(CsrMideleg)
		mie, _ := cr.Peek(CsrMie)
		umask := mideleg & (MipUSIP | MipUTIP | MipUEIP)
		cr.setValue(cr.Find(CsrMie), mie&^umask|value&umask)
	case CsrUip:
		mideleg, _ := cr.Peek(CsrMideleg)
		mip, _ := cr.Peek(CsrMip)
		umask := mideleg & MipUSIP
		cr.setValue(cr.Find(CsrMip), mip&^umask|value&umask)
	case CsrSstatus:
		mstatus, _ := cr.Peek(CsrMstatus)
		cr.setValue(cr.Find(CsrMstatus), mstatus&^sstatusMask|value&sstatusMask)
	case CsrSie:
		mideleg, _ := cr.Peek(CsrMideleg)
		mie, _ := cr.Peek(CsrMie)
		cr.setValue(cr.Find(CsrMie), mie&^mideleg|value&mideleg)
	case CsrSip:
		mideleg, _ := cr.Peek(CsrMideleg)
		mip, _ := cr.Peek(CsrMip)
		cr.setValue(cr.Find(CsrMip), mip&^(mideleg&MipSSIP)|value&mideleg&MipSSIP)
	case CsrFflags:
		fcsr, _ := cr.Peek(CsrFcsr)
		cr.setValue(cr.Find(CsrFcsr), fcsr&^FcsrFlagsMask|value&FcsrFlagsMask)
	case CsrFrm:
		fcsr, _ := cr.Peek(CsrFcsr)
		cr.setValue(cr.Find(CsrFcsr), fcsr&^FcsrRmMask|value<<FcsrRmShift&FcsrRmMask)
	case CsrTdata1:
		tsel, _ := cr.Peek(CsrTselect)
		if !cr.triggers.WriteData1(int(tsel), value) {
			return false
		}
	case CsrTdata2:
		tsel, _ := cr.Peek(CsrTselect)
		if !cr.triggers.WriteData2(int(tsel), value) {
			return false
		}
	case CsrTdata3:
		tsel, _ := cr.Peek(CsrTselect)
		if !cr.triggers.WriteData3(int(tsel), value) {
			return false
		}
	case CsrTselect:
		if value >= uint64(cr.triggers.Count()) {
			return true // out-of-range select leaves tselect unchanged
		}
		cr.setValue(csr, value)
	case CsrMstatus:
		cr.setValue(csr, *csr.value&^csr.writeMask|value&csr.writeMask)
		cr.updateStatusSD(csr)
	default:
		cr.setValue(csr, *csr.value&^csr.writeMask|value&csr.writeMask)
	}

	cr.writes = append(cr.writes, csrWrite{num: num, prev: prev})
	return true
}

func (cr *CsRegs) setValue(csr *Csr, value uint64) {
	*csr.value = value & cr.xlenMask
}

// updateStatusSD keeps the mstatus SD summary bit coherent with FS.
func (cr *CsRegs) updateStatusSD(csr *Csr) {
	sdBit := uint64(1) << 31
	if cr.xlen == 64 {
		sdBit = 1 << 63
	}
	if *csr.value&MstatusFS == MstatusFS {
		*csr.value |= sdBit
	} else {
		*csr.value &^= sdBit
	}
}

// Poke writes a CSR through the external interface, applying the poke
// mask and skipping privilege checks. Returns false if unimplemented.
func (cr *CsRegs) Poke(num CsrNum, value uint64) bool {
	csr := cr.Find(num)
	if csr == nil || !csr.implemented {
		return false
	}

	switch num {
	case CsrTdata1, CsrTdata2, CsrTdata3:
		tsel, _ := cr.Peek(CsrTselect)
		return cr.triggers.Poke(int(tsel), num, value)
	case CsrSstatus, CsrSie, CsrSip, CsrFflags, CsrFrm:
		// Poke the underlying machine register instead.
		return false
	}

	*csr.value = (*csr.value&^csr.pokeMask | value&csr.pokeMask) & cr.xlenMask
	if num == CsrMstatus {
		cr.updateStatusSD(csr)
	}
	return true
}

// PokeRaw overwrites a CSR's stored value, bypassing all masks. Used by
// snapshot restore. View CSRs are skipped; their backing registers are
// restored directly.
func (cr *CsRegs) PokeRaw(num CsrNum, value uint64) bool {
	csr := cr.Find(num)
	if csr == nil || !csr.implemented {
		return false
	}
	switch num {
	case CsrUstatus, CsrUie, CsrUip, CsrSstatus, CsrSie, CsrSip,
		CsrFflags, CsrFrm, CsrCycle, CsrTime, CsrInstret,
		CsrTdata1, CsrTdata2, CsrTdata3:
		return true
	}
	*csr.value = value & cr.xlenMask
	return true
}

// SetMipBit sets or clears a bit of mip directly (CLINT and alarm path).
func (cr *CsRegs) SetMipBit(bit uint64, set bool) {
	csr := cr.Find(CsrMip)
	if set {
		*csr.value |= bit
	} else {
		*csr.value &^= bit
	}
}

// WrittenCsrs returns the CSR writes performed by the current
// instruction, oldest first.
func (cr *CsRegs) WrittenCsrs() []csrWrite {
	return cr.writes
}

// ClearWrittenCsrs resets per-instruction write tracking.
func (cr *CsRegs) ClearWrittenCsrs() {
	cr.writes = cr.writes[:0]
}

// UndoWrites reverts all CSR writes of the current instruction, newest
// first. Writes through view CSRs (sstatus and friends) are undone by
// replaying the captured view value into the backing register.
func (cr *CsRegs) UndoWrites() {
	for i := len(cr.writes) - 1; i >= 0; i-- {
		w := cr.writes[i]
		csr := cr.Find(w.num)
		if csr == nil {
			continue
		}
		switch w.num {
		case CsrUstatus:
			cr.restoreMasked(CsrMstatus, ustatusMask, w.prev)
		case CsrSstatus:
			cr.restoreMasked(CsrMstatus, sstatusMask, w.prev)
		case CsrUie, CsrSie:
			mideleg, _ := cr.Peek(CsrMideleg)
			cr.restoreMasked(CsrMie, mideleg, w.prev)
		case CsrUip, CsrSip:
			mideleg, _ := cr.Peek(CsrMideleg)
			cr.restoreMasked(CsrMip, mideleg, w.prev)
		case CsrFflags:
			cr.restoreMasked(CsrFcsr, FcsrFlagsMask, w.prev)
		case CsrFrm:
			cr.restoreMasked(CsrFcsr, FcsrRmMask, w.prev<<FcsrRmShift)
		case CsrTdata1, CsrTdata2, CsrTdata3:
			tsel, _ := cr.Peek(CsrTselect)
			cr.triggers.Poke(int(tsel), w.num, w.prev)
		default:
			*csr.value = w.prev
		}
	}
	cr.ClearWrittenCsrs()
}

func (cr *CsRegs) restoreMasked(num CsrNum, mask, prev uint64) {
	csr := cr.Find(num)
	*csr.value = *csr.value&^mask | prev&mask
}

// Reset restores every CSR to its reset value.
func (cr *CsRegs) Reset() {
	for _, csr := range cr.regs {
		if csr != nil && csr.implemented && !csr.shared {
			*csr.value = csr.resetValue
		}
	}
	cr.triggers.Reset()
	cr.ClearWrittenCsrs()
}

// TieSharedTo aliases this file's shared CSRs to those of another hart's
// file, so writes from either side are visible to both.
func (cr *CsRegs) TieSharedTo(other *CsRegs) {
	for num, csr := range cr.regs {
		if csr == nil || !csr.shared {
			continue
		}
		if peer := other.regs[num]; peer != nil {
			csr.value = peer.value
		}
	}
}

// CounterInhibited reports whether counter ix (0 for mcycle, 2 for
// minstret, 3..31 for mhpmcounters) is inhibited by mcountinhibit.
func (cr *CsRegs) CounterInhibited(ix uint) bool {
	v, _ := cr.Peek(CsrMcountinhibit)
	return v&(1<<ix) != 0
}

// AdvanceCounters bumps mcycle and minstret (and the event counters whose
// mhpmevent selects the retired-instruction event) after one retired
// instruction.
func (cr *CsRegs) AdvanceCounters() {
	if !cr.CounterInhibited(0) {
		v := cr.Find(CsrMcycle)
		*v.value++
	}
	if !cr.CounterInhibited(2) {
		v := cr.Find(CsrMinstret)
		*v.value++
	}
	for i := CsrNum(3); i <= 31; i++ {
		if cr.CounterInhibited(uint(i)) {
			continue
		}
		ev := cr.Find(CsrMhpmevent3 + i - 3)
		if *ev.value == perfEventInstRetired {
			ctr := cr.Find(CsrMhpmcounter3 + i - 3)
			*ctr.value++
		}
	}
}

// perfEventInstRetired is the mhpmevent selector for retired instructions.
const perfEventInstRetired = 1
