package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/mem"
)

// Page-table layout used below (Sv39):
//
//	root table at 0x10000, level-1 table at 0x11000, level-0 at 0x12000.
//	va 0x8000 -> pa 0x8000 (V|R|W|X leaf), va 0x4000 -> invalid leaf.
func buildSv39Tables(m *mem.Memory) {
	const (
		pteV = 1 << 0
		pteR = 1 << 1
		pteW = 1 << 2
		pteX = 1 << 3
	)

	m.Poke(0x10000, 8, uint64(0x11)<<10|pteV, false)
	m.Poke(0x11000, 8, uint64(0x12)<<10|pteV, false)
	m.Poke(0x12000+8*8, 8, uint64(0x8)<<10|pteV|pteR|pteW|pteX, false)
	// entry for va 0x4000 (index 4) left zero: V=0
}

var _ = Describe("VirtMem", func() {
	var (
		m  *mem.Memory
		vm *emu.VirtMem
	)

	BeforeEach(func() {
		m = mem.New(1<<24, 1)
		vm = emu.NewVirtMem(m)
		buildSv39Tables(m)
		vm.ConfigureFromSatp(uint64(8)<<60|0x10, 64)
	})

	It("should pass addresses through in bare mode", func() {
		bare := emu.NewVirtMem(m)
		pa, cause := bare.Translate(0x1234, emu.AccessRead, emu.PrivSupervisor, false, false)

		Expect(cause).To(Equal(emu.ExcNone))
		Expect(pa).To(Equal(uint64(0x1234)))
	})

	It("should not translate machine-mode accesses", func() {
		pa, cause := vm.Translate(0x8000, emu.AccessRead, emu.PrivMachine, false, false)

		Expect(cause).To(Equal(emu.ExcNone))
		Expect(pa).To(Equal(uint64(0x8000)))
	})

	It("should walk a three-level table to a leaf", func() {
		pa, cause := vm.Translate(0x8123, emu.AccessRead, emu.PrivSupervisor, false, false)

		Expect(cause).To(Equal(emu.ExcNone))
		Expect(pa).To(Equal(uint64(0x8123)))
	})

	It("should fault on an invalid leaf with the access-matching cause", func() {
		_, cause := vm.Translate(0x4000, emu.AccessRead, emu.PrivSupervisor, false, false)
		Expect(cause).To(Equal(emu.ExcLoadPageFault))

		_, cause = vm.Translate(0x4000, emu.AccessWrite, emu.PrivSupervisor, false, false)
		Expect(cause).To(Equal(emu.ExcStorePageFault))

		_, cause = vm.Translate(0x4000, emu.AccessExec, emu.PrivSupervisor, false, false)
		Expect(cause).To(Equal(emu.ExcInstPageFault))
	})

	It("should fault at the last byte of an unmapped page", func() {
		_, cause := vm.Translate(0x4FFF, emu.AccessRead, emu.PrivSupervisor, false, false)

		Expect(cause).To(Equal(emu.ExcLoadPageFault))
	})

	It("should set the A bit on access and D on store", func() {
		const pteAddr = uint64(0x12000 + 8*8)

		vm.Translate(0x8000, emu.AccessRead, emu.PrivSupervisor, false, false)
		pte, _ := m.Peek(pteAddr, 8)
		Expect(pte & (1 << 6)).NotTo(BeZero()) // A
		Expect(pte & (1 << 7)).To(BeZero())    // D

		vm.Translate(0x8000, emu.AccessWrite, emu.PrivSupervisor, false, false)
		pte, _ = m.Peek(pteAddr, 8)
		Expect(pte & (1 << 7)).NotTo(BeZero())
	})

	It("should deny supervisor access to user pages without SUM", func() {
		// Mark the leaf as a user page.
		pte, _ := m.Peek(0x12000+8*8, 8)
		m.Poke(0x12000+8*8, 8, pte|1<<4, false)
		vm.FlushTlb()

		_, cause := vm.Translate(0x8000, emu.AccessRead, emu.PrivSupervisor, false, false)
		Expect(cause).To(Equal(emu.ExcLoadPageFault))

		_, cause = vm.Translate(0x8000, emu.AccessRead, emu.PrivSupervisor, true, false)
		Expect(cause).To(Equal(emu.ExcNone))
	})

	It("should fault user accesses to supervisor pages", func() {
		_, cause := vm.Translate(0x8000, emu.AccessRead, emu.PrivUser, false, false)

		Expect(cause).To(Equal(emu.ExcLoadPageFault))
	})

	It("should fault non-canonical addresses", func() {
		_, cause := vm.Translate(uint64(1)<<40, emu.AccessRead, emu.PrivSupervisor, false, false)

		Expect(cause).To(Equal(emu.ExcLoadPageFault))
	})
})

var _ = Describe("Paged execution", func() {
	It("should deliver a delegated load page fault to supervisor mode", func() {
		cfg := emu.DefaultConfig()
		cfg.EnableS = true
		cfg.EnableU = true
		system := emu.NewSystem(1, 1, 1<<32, cfg)
		hart, _ := system.IthHart(0)
		hart.SetResetPc(resetPc)
		hart.Reset(true)

		buildSv39Tables(system.Memory())

		// lw x5, 0(x1) at va/pa 0x8000
		hart.PokeMemory(0x8000, 4, 0x0000A283)
		// mret at the reset pc drops us into supervisor mode
		hart.PokeMemory(resetPc, 4, 0x30200073)

		hart.PokeCsr(emu.CsrSatp, uint64(8)<<60|0x10)
		hart.PokeCsr(emu.CsrMedeleg, 1<<13)
		hart.PokeCsr(emu.CsrStvec, 0x9000)
		hart.PokeCsr(emu.CsrMepc, 0x8000)
		hart.PokeCsr(emu.CsrMstatus, uint64(emu.PrivSupervisor)<<emu.MstatusMPPShift)
		hart.PokeIntReg(1, 0x4000)
		hart.PokeIntReg(5, 0xDEAD)

		hart.SingleStep() // mret -> supervisor at 0x8000
		Expect(hart.PrivMode()).To(Equal(emu.PrivSupervisor))

		hart.SingleStep() // lw faults

		scause, _ := hart.PeekCsr(emu.CsrScause)
		Expect(scause).To(Equal(uint64(13)))
		stval, _ := hart.PeekCsr(emu.CsrStval)
		Expect(stval).To(Equal(uint64(0x4000)))
		sepc, _ := hart.PeekCsr(emu.CsrSepc)
		Expect(sepc).To(Equal(uint64(0x8000)))
		v5, _ := hart.PeekIntReg(5)
		Expect(v5).To(Equal(uint64(0xDEAD)))
		Expect(hart.Pc()).To(Equal(uint64(0x9000)))
		Expect(hart.PrivMode()).To(Equal(emu.PrivSupervisor))
	})
})
