// Package emu provides functional RISC-V emulation.
package emu

// IntRegs represents the RISC-V integer register file: 32 registers of up
// to 64 bits. Register 0 is hardwired to zero.
type IntRegs struct {
	regs [32]uint64

	// Last-written tracking for tracing and rollback.
	lastWritten     int
	lastWrittenPrev uint64
}

// NewIntRegs creates an integer register file with all registers zero.
func NewIntRegs() *IntRegs {
	r := &IntRegs{}
	r.ClearLastWritten()
	return r
}

// Read returns the value of register reg. Register 0 always reads as 0.
func (r *IntRegs) Read(reg uint32) uint64 {
	if reg == 0 || reg > 31 {
		return 0
	}
	return r.regs[reg]
}

// Write sets register reg to value. Writes to register 0 are discarded.
// The previous value is recorded so the write can be undone on a trap.
func (r *IntRegs) Write(reg uint32, value uint64) {
	if reg == 0 || reg > 31 {
		return
	}
	r.lastWritten = int(reg)
	r.lastWrittenPrev = r.regs[reg]
	r.regs[reg] = value
}

// Poke sets register reg without recording it as a last write. Used by
// the external debug interface. Returns false if reg is out of range.
func (r *IntRegs) Poke(reg uint32, value uint64) bool {
	if reg > 31 {
		return false
	}
	if reg != 0 {
		r.regs[reg] = value
	}
	return true
}

// LastWritten returns the index of the register written by the current
// instruction, or -1, together with its prior value.
func (r *IntRegs) LastWritten() (int, uint64) {
	return r.lastWritten, r.lastWrittenPrev
}

// ClearLastWritten resets last-write tracking at an instruction boundary.
func (r *IntRegs) ClearLastWritten() {
	r.lastWritten = -1
	r.lastWrittenPrev = 0
}

// UndoLastWrite reverts the register written by the current instruction.
func (r *IntRegs) UndoLastWrite() {
	if r.lastWritten > 0 {
		r.regs[r.lastWritten] = r.lastWrittenPrev
	}
	r.ClearLastWritten()
}

// Reset clears all registers.
func (r *IntRegs) Reset() {
	r.regs = [32]uint64{}
	r.ClearLastWritten()
}
