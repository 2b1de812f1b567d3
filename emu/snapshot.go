package emu

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sarchlab/rvsim/mem"
)

// Snapshots persist the architectural state of a hart (pc, integer and
// FP registers, CSRs) plus the non-zero pages of memory, so a later run
// can resume bit-identically.

const snapshotPageSize = 4096

// SaveSnapshot writes the hart and memory state into dir, creating it if
// needed.
func (h *Hart) SaveSnapshot(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := h.saveRegisters(filepath.Join(dir, "registers")); err != nil {
		return err
	}
	return h.saveMemory(filepath.Join(dir, "memory"))
}

// LoadSnapshot restores state previously written by SaveSnapshot.
func (h *Hart) LoadSnapshot(dir string) error {
	if err := h.loadRegisters(filepath.Join(dir, "registers")); err != nil {
		return err
	}
	if err := h.loadMemory(filepath.Join(dir, "memory")); err != nil {
		return err
	}
	h.clearDecodeCache()
	h.virtMem.FlushTlb()
	h.updateCachedMstatus()
	h.updateCachedFcsr()
	h.updateMemoryProtection()
	h.updateAddressTranslation()
	return nil
}

func (h *Hart) saveRegisters(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "pc 0x%x\n", h.pc)
	fmt.Fprintf(w, "instcount %d\n", h.instCounter)
	fmt.Fprintf(w, "priv %d\n", h.privMode)
	for i := uint32(0); i < 32; i++ {
		fmt.Fprintf(w, "x%d 0x%x\n", i, h.intRegs.Read(i))
	}
	if h.cfg.EnableF || h.cfg.EnableD {
		for i := uint32(0); i < 32; i++ {
			fmt.Fprintf(w, "f%d 0x%x\n", i, h.fpRegs.ReadRaw(i))
		}
	}
	for num := CsrNum(0); num < 0x1000; num++ {
		if v, ok := h.csRegs.Peek(num); ok {
			fmt.Fprintf(w, "csr 0x%x 0x%x\n", uint32(num), v)
		}
	}
	return w.Flush()
}

func (h *Hart) loadRegisters(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var v uint64
		var ix uint32
		line := scanner.Text()
		switch {
		case matchField(line, "pc 0x%x", &v):
			h.pc = v
		case matchField(line, "instcount %d", &v):
			h.instCounter = v
		case matchField(line, "priv %d", &v):
			h.privMode = PrivMode(v)
		case matchIndexed(line, "x%d 0x%x", &ix, &v):
			h.intRegs.Poke(ix, v)
		case matchIndexed(line, "f%d 0x%x", &ix, &v):
			h.fpRegs.Poke(ix, v)
		case matchIndexed(line, "csr 0x%x 0x%x", &ix, &v):
			h.csRegs.PokeRaw(CsrNum(ix), v)
		}
	}
	return scanner.Err()
}

func matchField(line, format string, v *uint64) bool {
	n, err := fmt.Sscanf(line, format, v)
	return err == nil && n == 1
}

func matchIndexed(line, format string, ix *uint32, v *uint64) bool {
	n, err := fmt.Sscanf(line, format, ix, v)
	return err == nil && n == 2
}

// saveMemory writes the non-zero pages of physical memory as
// (address, page-bytes) records.
func (h *Hart) saveMemory(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	var page [snapshotPageSize]byte

	for addr := uint64(0); addr < h.memory.Size(); addr += snapshotPageSize {
		zero := true
		for i := uint64(0); i < snapshotPageSize; i += 8 {
			v, errp := h.memory.Peek(addr+i, 8)
			if errp != mem.ErrNone {
				break
			}
			binary.LittleEndian.PutUint64(page[i:], v)
			if v != 0 {
				zero = false
			}
		}
		if zero {
			continue
		}
		var hdr [8]byte
		binary.LittleEndian.PutUint64(hdr[:], addr)
		if _, err := w.Write(hdr[:]); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if _, err := w.Write(page[:]); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	return w.Flush()
}

func (h *Hart) loadMemory(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)
	var hdr [8]byte
	var page [snapshotPageSize]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil // end of records
		}
		addr := binary.LittleEndian.Uint64(hdr[:])
		if _, err := io.ReadFull(r, page[:]); err != nil {
			return fmt.Errorf("snapshot: truncated page at 0x%x", addr)
		}
		if err := h.memory.LoadSegment(addr, page[:]); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
}
