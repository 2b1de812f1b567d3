// Package mem models the physical address space of the simulated machine.
//
// Memory is a flat, byte-addressable, little-endian space with per-region
// physical memory attributes (PMAs), memory-mapped registers guarded by
// write masks, and per-hart load-reservation tracking for the LR/SC pair.
// The raw bytes live in an Akita storage component.
package mem

import (
	"encoding/binary"
	"fmt"

	akitamem "github.com/sarchlab/akita/v4/mem/mem"
)

// Err distinguishes the failure kinds of a physical memory access so the
// hart can map them to the proper trap cause.
type Err int

// Access failure kinds.
const (
	ErrNone Err = iota
	ErrOutOfBounds
	ErrUnmapped
	ErrNoAccess
)

func (e Err) Error() string {
	switch e {
	case ErrOutOfBounds:
		return "address out of bounds"
	case ErrUnmapped:
		return "address not mapped"
	case ErrNoAccess:
		return "access denied by memory attributes"
	}
	return "no error"
}

// Attrib is the physical memory attribute record of a region.
type Attrib struct {
	Read      bool // region supports data reads
	Write     bool // region supports data writes
	Exec      bool // region supports instruction fetch
	Io        bool // region is device memory
	Cacheable bool
	Iccm      bool // instruction closely-coupled memory
	Dccm      bool // data closely-coupled memory
	MemMapped bool // region holds memory-mapped registers
}

// Region is a contiguous address range carrying one attribute record.
type Region struct {
	Start  uint64 // inclusive
	Limit  uint64 // exclusive
	Attrib Attrib
}

// lineSize is the reservation granularity of the LR/SC pair.
const lineSize = 64

type reservation struct {
	valid bool
	addr  uint64 // line-aligned
}

// Memory is the shared physical memory of a System.
type Memory struct {
	size    uint64
	storage *akitamem.Storage
	regions []Region

	// mmrMask maps word-aligned memory-mapped register addresses to the
	// bits writable through normal stores.
	mmrMask map[uint64]uint32

	reservations []reservation
}

// New creates a memory of the given byte size supporting hartCount
// reservation slots. The whole space starts fully accessible; call
// DefineRegion to restrict or specialize parts of it.
func New(size uint64, hartCount int) *Memory {
	m := &Memory{
		size:         size,
		storage:      akitamem.NewStorage(size),
		mmrMask:      make(map[uint64]uint32),
		reservations: make([]reservation, hartCount),
	}
	m.regions = []Region{{
		Start:  0,
		Limit:  size,
		Attrib: Attrib{Read: true, Write: true, Exec: true, Cacheable: true},
	}}
	return m
}

// Size returns the size of the address space in bytes.
func (m *Memory) Size() uint64 {
	return m.size
}

// DefineRegion assigns an attribute record to [start, limit). Later
// definitions take precedence over earlier ones.
func (m *Memory) DefineRegion(start, limit uint64, attrib Attrib) error {
	if limit < start || limit > m.size {
		return fmt.Errorf("region [0x%x, 0x%x) outside memory of size 0x%x",
			start, limit, m.size)
	}
	m.regions = append(m.regions, Region{Start: start, Limit: limit, Attrib: attrib})
	return nil
}

// DefineMmr declares a memory-mapped register at a word-aligned address.
// Stores to it only change the bits set in mask.
func (m *Memory) DefineMmr(addr uint64, mask uint32) error {
	if addr&3 != 0 {
		return fmt.Errorf("memory mapped register address 0x%x not word aligned", addr)
	}
	m.mmrMask[addr] = mask
	return nil
}

// AttribAt returns the attribute record covering addr.
func (m *Memory) AttribAt(addr uint64) Attrib {
	// Last matching region wins.
	for i := len(m.regions) - 1; i >= 0; i-- {
		r := &m.regions[i]
		if addr >= r.Start && addr < r.Limit {
			return r.Attrib
		}
	}
	return Attrib{}
}

func (m *Memory) checkRange(addr, size uint64) Err {
	if addr+size < addr || addr+size > m.size {
		return ErrOutOfBounds
	}
	return ErrNone
}

func (m *Memory) readBytes(addr, size uint64) ([]byte, Err) {
	if err := m.checkRange(addr, size); err != ErrNone {
		return nil, err
	}
	data, err := m.storage.Read(addr, size)
	if err != nil {
		return nil, ErrUnmapped
	}
	return data, ErrNone
}

func (m *Memory) writeBytes(addr uint64, data []byte) Err {
	if err := m.checkRange(addr, uint64(len(data))); err != ErrNone {
		return err
	}
	if err := m.storage.Write(addr, data); err != nil {
		return ErrUnmapped
	}
	return ErrNone
}

// Read reads size (1, 2, 4 or 8) bytes of data memory at addr.
func (m *Memory) Read(addr, size uint64) (uint64, Err) {
	if err := m.checkRange(addr, size); err != ErrNone {
		return 0, err
	}
	if !m.AttribAt(addr).Read {
		return 0, ErrNoAccess
	}
	return m.peek(addr, size)
}

// Fetch reads size (2 or 4) bytes of instruction memory at addr. Fetch
// from a DCCM-only region is denied.
func (m *Memory) Fetch(addr, size uint64) (uint64, Err) {
	if err := m.checkRange(addr, size); err != ErrNone {
		return 0, err
	}
	attrib := m.AttribAt(addr)
	if !attrib.Exec || (attrib.Dccm && !attrib.Iccm) {
		return 0, ErrNoAccess
	}
	return m.peek(addr, size)
}

// Write stores size (1, 2, 4 or 8) bytes at addr, honoring memory-mapped
// register masks and invalidating overlapping reservations.
func (m *Memory) Write(hartIx int, addr, size, value uint64) Err {
	if err := m.checkRange(addr, size); err != ErrNone {
		return err
	}
	attrib := m.AttribAt(addr)
	if !attrib.Write {
		return ErrNoAccess
	}
	if attrib.MemMapped {
		if size != 4 {
			return ErrNoAccess
		}
		value = m.maskMmrValue(addr, uint32(value))
	}
	if err := m.poke(addr, size, value); err != ErrNone {
		return err
	}
	m.invalidateOverlapping(hartIx, addr, size)
	return ErrNone
}

func (m *Memory) maskMmrValue(addr uint64, value uint32) uint64 {
	mask, ok := m.mmrMask[addr]
	if !ok {
		return uint64(value)
	}
	old, _ := m.peek(addr, 4)
	return uint64(uint32(old)&^mask | value&mask)
}

// Peek reads raw bytes regardless of region attributes. Used by the
// debugger/loader surface.
func (m *Memory) Peek(addr, size uint64) (uint64, Err) {
	return m.peek(addr, size)
}

// Poke writes raw bytes regardless of region attributes but still honors
// memory-mapped register masks unless maskedMmr is false.
func (m *Memory) Poke(addr, size, value uint64, maskMmr bool) Err {
	if maskMmr && m.AttribAt(addr).MemMapped && size == 4 {
		value = m.maskMmrValue(addr, uint32(value))
	}
	return m.poke(addr, size, value)
}

func (m *Memory) peek(addr, size uint64) (uint64, Err) {
	data, err := m.readBytes(addr, size)
	if err != ErrNone {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(data[0]), ErrNone
	case 2:
		return uint64(binary.LittleEndian.Uint16(data)), ErrNone
	case 4:
		return uint64(binary.LittleEndian.Uint32(data)), ErrNone
	case 8:
		return binary.LittleEndian.Uint64(data), ErrNone
	}
	return 0, ErrOutOfBounds
}

func (m *Memory) poke(addr, size, value uint64) Err {
	var buf [8]byte
	switch size {
	case 1:
		buf[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(buf[:2], uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(buf[:4], uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(buf[:8], value)
	default:
		return ErrOutOfBounds
	}
	return m.writeBytes(addr, buf[:size])
}

// Reserve records a load reservation for hartIx covering the line holding
// addr. A hart has at most one reservation.
func (m *Memory) Reserve(hartIx int, addr uint64) {
	m.reservations[hartIx] = reservation{valid: true, addr: addr &^ (lineSize - 1)}
}

// HasReservation reports whether hartIx holds a valid reservation covering
// addr.
func (m *Memory) HasReservation(hartIx int, addr uint64) bool {
	r := m.reservations[hartIx]
	return r.valid && r.addr == addr&^(lineSize-1)
}

// InvalidateLr drops the reservation of hartIx.
func (m *Memory) InvalidateLr(hartIx int) {
	m.reservations[hartIx].valid = false
}

// invalidateOverlapping drops every other hart's reservation whose line
// overlaps the written range. The writing hart keeps its own.
func (m *Memory) invalidateOverlapping(hartIx int, addr, size uint64) {
	lo := addr &^ (lineSize - 1)
	hi := (addr + size - 1) &^ (lineSize - 1)
	for i := range m.reservations {
		if i == hartIx {
			continue
		}
		r := &m.reservations[i]
		if r.valid && r.addr >= lo && r.addr <= hi {
			r.valid = false
		}
	}
}

// LoadSegment copies raw bytes into memory at addr, for use by program
// loaders. Attributes are not checked.
func (m *Memory) LoadSegment(addr uint64, data []byte) error {
	if err := m.checkRange(addr, uint64(len(data))); err != ErrNone {
		return fmt.Errorf("segment at 0x%x: %w", addr, err)
	}
	if err := m.storage.Write(addr, data); err != nil {
		return fmt.Errorf("segment at 0x%x: %v", addr, err)
	}
	return nil
}
