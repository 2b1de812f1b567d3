package emu

import "math"

// nanBoxMask is the pattern occupying the upper half of a 64-bit register
// holding a NaN-boxed single-precision value.
const nanBoxMask = uint64(0xffffffff) << 32

// FpRegs represents the floating-point register file: 32 registers of 64
// bits each. Single-precision values are NaN-boxed: the upper 32 bits of
// the slot are all ones.
type FpRegs struct {
	regs [32]uint64

	lastWritten     int
	lastWrittenPrev uint64
}

// NewFpRegs creates a floating-point register file with all registers zero.
func NewFpRegs() *FpRegs {
	r := &FpRegs{}
	r.ClearLastWritten()
	return r
}

// ReadRaw returns the raw 64-bit contents of register reg.
func (r *FpRegs) ReadRaw(reg uint32) uint64 {
	if reg > 31 {
		return 0
	}
	return r.regs[reg]
}

// WriteRaw sets the raw 64-bit contents of register reg.
func (r *FpRegs) WriteRaw(reg uint32, value uint64) {
	if reg > 31 {
		return
	}
	r.lastWritten = int(reg)
	r.lastWrittenPrev = r.regs[reg]
	r.regs[reg] = value
}

// ReadSingle returns the single-precision value of register reg. A slot
// that is not properly NaN-boxed reads as the canonical quiet NaN.
func (r *FpRegs) ReadSingle(reg uint32) float32 {
	raw := r.ReadRaw(reg)
	if raw&nanBoxMask != nanBoxMask {
		return math.Float32frombits(0x7fc00000)
	}
	return math.Float32frombits(uint32(raw))
}

// WriteSingle sets register reg to a NaN-boxed single-precision value.
func (r *FpRegs) WriteSingle(reg uint32, value float32) {
	r.WriteRaw(reg, nanBoxMask|uint64(math.Float32bits(value)))
}

// ReadDouble returns the double-precision value of register reg.
func (r *FpRegs) ReadDouble(reg uint32) float64 {
	return math.Float64frombits(r.ReadRaw(reg))
}

// WriteDouble sets register reg to a double-precision value.
func (r *FpRegs) WriteDouble(reg uint32, value float64) {
	r.WriteRaw(reg, math.Float64bits(value))
}

// Poke sets register reg without last-write tracking. Returns false if
// reg is out of range.
func (r *FpRegs) Poke(reg uint32, value uint64) bool {
	if reg > 31 {
		return false
	}
	r.regs[reg] = value
	return true
}

// LastWritten returns the index of the register written by the current
// instruction, or -1, together with its prior value.
func (r *FpRegs) LastWritten() (int, uint64) {
	return r.lastWritten, r.lastWrittenPrev
}

// ClearLastWritten resets last-write tracking at an instruction boundary.
func (r *FpRegs) ClearLastWritten() {
	r.lastWritten = -1
	r.lastWrittenPrev = 0
}

// UndoLastWrite reverts the register written by the current instruction.
func (r *FpRegs) UndoLastWrite() {
	if r.lastWritten >= 0 {
		r.regs[r.lastWritten] = r.lastWrittenPrev
	}
	r.ClearLastWritten()
}

// Reset clears all registers.
func (r *FpRegs) Reset() {
	r.regs = [32]uint64{}
	r.ClearLastWritten()
}
