package emu

import "github.com/sarchlab/rvsim/mem"

// External state access for the loader, driver and debugger. All
// accessors are fallible by index range and never raise architectural
// traps.

// PeekIntReg returns the value of integer register ix.
func (h *Hart) PeekIntReg(ix uint32) (uint64, bool) {
	if ix > 31 {
		return 0, false
	}
	return h.intRegs.Read(ix), true
}

// PokeIntReg sets integer register ix.
func (h *Hart) PokeIntReg(ix uint32, value uint64) bool {
	return h.intRegs.Poke(ix, value&h.xlenMask)
}

// PeekFpReg returns the raw bits of FP register ix.
func (h *Hart) PeekFpReg(ix uint32) (uint64, bool) {
	if !h.cfg.EnableF && !h.cfg.EnableD {
		return 0, false
	}
	if ix > 31 {
		return 0, false
	}
	return h.fpRegs.ReadRaw(ix), true
}

// PokeFpReg sets the raw bits of FP register ix.
func (h *Hart) PokeFpReg(ix uint32, value uint64) bool {
	if !h.cfg.EnableF && !h.cfg.EnableD {
		return false
	}
	return h.fpRegs.Poke(ix, value)
}

// PeekCsr returns the value of a CSR.
func (h *Hart) PeekCsr(num CsrNum) (uint64, bool) {
	return h.csRegs.Peek(num)
}

// PokeCsr writes a CSR through its poke mask and refreshes the hart's
// cached CSR state.
func (h *Hart) PokeCsr(num CsrNum, value uint64) bool {
	if !h.csRegs.Poke(num, value) {
		return false
	}
	switch {
	case num == CsrMstatus:
		h.updateCachedMstatus()
	case num == CsrFcsr:
		h.updateCachedFcsr()
	case num == CsrSatp:
		h.updateAddressTranslation()
	case num >= CsrPmpcfg0 && num <= CsrPmpcfg3,
		num >= CsrPmpaddr0 && num <= CsrPmpaddr15:
		h.updateMemoryProtection()
	}
	return true
}

// PeekPc returns the address of the next instruction.
func (h *Hart) PeekPc() uint64 { return h.pc }

// PokePc sets the address of the next instruction.
func (h *Hart) PokePc(pc uint64) { h.SetPc(pc) }

// PeekMemory reads size (1, 2, 4 or 8) bytes of physical memory.
func (h *Hart) PeekMemory(addr, size uint64) (uint64, bool) {
	v, err := h.memory.Peek(addr, size)
	return v, err == mem.ErrNone
}

// PokeMemory writes size (1, 2, 4 or 8) bytes of physical memory,
// honoring memory-mapped register masks and invalidating affected
// decode-cache entries.
func (h *Hart) PokeMemory(addr, size, value uint64) bool {
	if err := h.memory.Poke(addr, size, value, true); err != mem.ErrNone {
		return false
	}
	h.invalidateDecodeCache(addr, size)
	return true
}

// PeekTrigger returns the three data words of trigger ix.
func (h *Hart) PeekTrigger(ix int) (d1, d2, d3 uint64, ok bool) {
	return h.csRegs.Triggers().Peek(ix)
}

// PokeTrigger sets one data word of trigger ix.
func (h *Hart) PokeTrigger(ix int, num CsrNum, value uint64) bool {
	return h.csRegs.Triggers().Poke(ix, num, value)
}

// ConfigTrigger sets the data words and write masks of trigger ix.
func (h *Hart) ConfigTrigger(ix int, d1, d2, d3, wm1, wm2, wm3 uint64) bool {
	return h.csRegs.Triggers().Config(ix, d1, d2, d3, wm1, wm2, wm3)
}

// LastLdStAddress returns the data address of the most recent load or
// store instruction.
func (h *Hart) LastLdStAddress() (uint64, bool) {
	return h.ldStAddr, h.ldStAddrValid
}
