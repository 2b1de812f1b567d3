package emu

import "github.com/sarchlab/rvsim/mem"

// Sv32/Sv39/Sv48 page-table walker. Translation is selected by the mode
// field of satp; machine mode bypasses translation unless mprv redirects
// data accesses to a lower effective privilege.

// Translation modes (satp.MODE).
const (
	satpBare uint64 = 0
	satpSv32 uint64 = 1
	satpSv39 uint64 = 8
	satpSv48 uint64 = 9
)

// Page-table entry bits.
const (
	pteV uint64 = 1 << 0
	pteR uint64 = 1 << 1
	pteW uint64 = 1 << 2
	pteX uint64 = 1 << 3
	pteU uint64 = 1 << 4
	pteG uint64 = 1 << 5
	pteA uint64 = 1 << 6
	pteD uint64 = 1 << 7
)

const (
	pageShift = 12
	pageSize  = 1 << pageShift
	vpnBits   = 9 // per level for Sv39/Sv48
)

// tlbEntry caches one translation.
type tlbEntry struct {
	valid    bool
	vpn      uint64
	ppn      uint64
	flags    uint64
	pageSize uint64
}

const tlbSize = 256

// VirtMem translates virtual addresses to physical for fetch, load and
// store accesses, walking the page table rooted at satp.
type VirtMem struct {
	memory *mem.Memory

	mode uint64 // satp.MODE
	ppn  uint64 // satp.PPN (root page table)

	tlb [tlbSize]tlbEntry
}

// NewVirtMem creates a walker over the given physical memory with
// translation off.
func NewVirtMem(memory *mem.Memory) *VirtMem {
	return &VirtMem{memory: memory, mode: satpBare}
}

// ConfigureFromSatp latches the translation mode and root page number
// from a satp value.
func (vm *VirtMem) ConfigureFromSatp(satp uint64, xlen uint32) {
	if xlen == 32 {
		if satp>>31 != 0 {
			vm.mode = satpSv32
		} else {
			vm.mode = satpBare
		}
		vm.ppn = satp & 0x3fffff
	} else {
		vm.mode = satp >> 60
		vm.ppn = satp & 0xfffffffffff
	}
	vm.FlushTlb()
}

// Active reports whether translation applies at the given privilege.
func (vm *VirtMem) Active(priv PrivMode) bool {
	return vm.mode != satpBare && priv != PrivMachine
}

// FlushTlb invalidates all cached translations (sfence.vma).
func (vm *VirtMem) FlushTlb() {
	for i := range vm.tlb {
		vm.tlb[i].valid = false
	}
}

func (vm *VirtMem) levels() int {
	switch vm.mode {
	case satpSv32:
		return 2
	case satpSv39:
		return 3
	case satpSv48:
		return 4
	}
	return 0
}

func (vm *VirtMem) pteSize() uint64 {
	if vm.mode == satpSv32 {
		return 4
	}
	return 8
}

func (vm *VirtMem) levelBits() uint {
	if vm.mode == satpSv32 {
		return 10
	}
	return vpnBits
}

// pageFaultCause maps an access kind to its page-fault cause.
func pageFaultCause(kind AccessKind) ExceptionCause {
	switch kind {
	case AccessRead:
		return ExcLoadPageFault
	case AccessWrite:
		return ExcStorePageFault
	}
	return ExcInstPageFault
}

// Translate maps a virtual address to physical for the given access kind
// at the given effective privilege. sum and mxr are the mstatus bits
// governing supervisor access to user pages and loads of execute-only
// pages. On failure the returned cause is the page fault matching the
// access kind.
func (vm *VirtMem) Translate(vaddr uint64, kind AccessKind, priv PrivMode,
	sum, mxr bool) (uint64, ExceptionCause) {
	if !vm.Active(priv) {
		return vaddr, ExcNone
	}

	// TLB lookup; entries needing A/D updates fall through to the walk.
	vpn := vaddr >> pageShift
	te := &vm.tlb[vpn%tlbSize]
	if te.valid && te.vpn == vpn {
		if vm.permOk(te.flags, kind, priv, sum, mxr) &&
			te.flags&pteA != 0 && (kind != AccessWrite || te.flags&pteD != 0) {
			off := vaddr & (te.pageSize - 1)
			return te.ppn<<pageShift | off, ExcNone
		}
		te.valid = false
	}

	paddr, flags, size, cause := vm.walk(vaddr, kind, priv, sum, mxr)
	if cause != ExcNone {
		return 0, cause
	}

	*te = tlbEntry{
		valid:    true,
		vpn:      vpn,
		ppn:      paddr >> pageShift,
		flags:    flags,
		pageSize: size,
	}
	return paddr, ExcNone
}

func (vm *VirtMem) walk(vaddr uint64, kind AccessKind, priv PrivMode,
	sum, mxr bool) (uint64, uint64, uint64, ExceptionCause) {
	levels := vm.levels()
	bits := vm.levelBits()
	vpnMask := uint64(1)<<bits - 1

	// Non-canonical addresses fault without walking.
	if vm.mode == satpSv39 || vm.mode == satpSv48 {
		top := uint(38)
		if vm.mode == satpSv48 {
			top = 47
		}
		hi := int64(vaddr) >> top
		if hi != 0 && hi != -1 {
			return 0, 0, 0, pageFaultCause(kind)
		}
	}

	tableAddr := vm.ppn << pageShift

	for level := levels - 1; level >= 0; level-- {
		vpnShift := uint(pageShift) + uint(level)*bits
		vpn := vaddr >> vpnShift & vpnMask
		pteAddr := tableAddr + vpn*vm.pteSize()

		raw, err := vm.memory.Read(pteAddr, vm.pteSize())
		if err != mem.ErrNone {
			return 0, 0, 0, pageFaultCause(kind)
		}
		pte := raw

		if pte&pteV == 0 || (pte&pteR == 0 && pte&pteW != 0) {
			return 0, 0, 0, pageFaultCause(kind)
		}

		if pte&(pteR|pteX) == 0 {
			// Pointer to the next level.
			tableAddr = pte >> 10 << pageShift
			continue
		}

		// Leaf entry. Reject misaligned superpages.
		size := uint64(pageSize)
		if level > 0 {
			lowPpnMask := uint64(1)<<(uint(level)*bits) - 1
			if pte>>10&lowPpnMask != 0 {
				return 0, 0, 0, pageFaultCause(kind)
			}
			size = 1 << (uint(pageShift) + uint(level)*bits)
		}

		if !vm.permOk(pte, kind, priv, sum, mxr) {
			return 0, 0, 0, pageFaultCause(kind)
		}

		// Update A on any access, D on stores.
		newPte := pte | pteA
		if kind == AccessWrite {
			newPte |= pteD
		}
		if newPte != pte {
			if err := vm.memory.Poke(pteAddr, vm.pteSize(), newPte, false); err != mem.ErrNone {
				return 0, 0, 0, pageFaultCause(kind)
			}
			pte = newPte
		}

		ppn := pte >> 10
		if level > 0 {
			// Superpage: low VPN bits pass through.
			lowMask := uint64(1)<<(uint(level)*bits) - 1
			ppn = ppn&^lowMask | vaddr>>pageShift&lowMask
		}
		return ppn<<pageShift | vaddr&(size-1), pte, size, ExcNone
	}

	return 0, 0, 0, pageFaultCause(kind)
}

// permOk applies PTE permission policy: user pages, SUM, MXR and R/W/X.
func (vm *VirtMem) permOk(pte uint64, kind AccessKind, priv PrivMode, sum, mxr bool) bool {
	if priv == PrivUser {
		if pte&pteU == 0 {
			return false
		}
	} else if pte&pteU != 0 && !sum {
		return false
	}

	switch kind {
	case AccessRead:
		if pte&pteR == 0 {
			return mxr && pte&pteX != 0
		}
		return true
	case AccessWrite:
		return pte&pteW != 0
	case AccessExec:
		return pte&pteX != 0
	}
	return false
}
