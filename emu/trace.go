package emu

import (
	"fmt"
	"io"

	"github.com/sarchlab/rvsim/insts"
)

// Tracer emits one record per retired instruction: the retired-count tag,
// pc, raw opcode, disassembly, and the registers, CSRs and memory words
// the instruction modified.
type Tracer struct {
	out      io.Writer
	abiNames bool
}

// NewTracer creates a tracer with no output attached.
func NewTracer(abiNames bool) *Tracer {
	return &Tracer{abiNames: abiNames}
}

// SetOutput attaches (or detaches, with nil) the trace destination.
func (t *Tracer) SetOutput(w io.Writer) { t.out = w }

// Enabled reports whether records are being emitted.
func (t *Tracer) Enabled() bool { return t.out != nil }

// Record emits the record of a successfully retired instruction.
func (t *Tracer) Record(h *Hart, di *insts.DecodedInst) {
	if t.out == nil {
		return
	}

	tag := h.instCounter
	disasm := insts.Disassemble(di, t.abiNames)
	emitted := false

	if ix, _ := h.intRegs.LastWritten(); ix >= 0 {
		fmt.Fprintf(t.out, "#%d %d %08x %08x r %02x %016x  %s\n",
			tag, h.hartIx, h.currPc, di.Word, ix, h.intRegs.Read(uint32(ix)), disasm)
		emitted = true
	}
	if ix, _ := h.fpRegs.LastWritten(); ix >= 0 {
		fmt.Fprintf(t.out, "#%d %d %08x %08x f %02x %016x  %s\n",
			tag, h.hartIx, h.currPc, di.Word, ix, h.fpRegs.ReadRaw(uint32(ix)), disasm)
		emitted = true
	}
	if h.cfg.EnableCsrTrace {
		for _, w := range h.csRegs.WrittenCsrs() {
			v, _ := h.csRegs.Peek(w.num)
			fmt.Fprintf(t.out, "#%d %d %08x %08x c %03x %016x  %s\n",
				tag, h.hartIx, h.currPc, di.Word, uint32(w.num), v, disasm)
			emitted = true
		}
	}
	if h.currStoreValid {
		fmt.Fprintf(t.out, "#%d %d %08x %08x m %08x %016x  %s\n",
			tag, h.hartIx, h.currPc, di.Word, h.currStore.Addr, h.currStore.NewData, disasm)
		emitted = true
	}

	if !emitted {
		fmt.Fprintf(t.out, "#%d %d %08x %08x r %02x %016x  %s\n",
			tag, h.hartIx, h.currPc, di.Word, 0, uint64(0), disasm)
	}
}

// RecordTrap emits the record of an instruction that trapped.
func (t *Tracer) RecordTrap(h *Hart) {
	if t.out == nil {
		return
	}
	cause, _ := h.csRegs.Peek(CsrMcause)
	fmt.Fprintf(t.out, "#%d %d %08x %08x t %016x\n",
		h.instCounter, h.hartIx, h.currPc, 0, cause)
}
