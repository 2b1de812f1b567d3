package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
)

var _ = Describe("CsRegs", func() {
	var cr *emu.CsRegs

	BeforeEach(func() {
		cr = emu.NewCsRegs(64, 0)
	})

	Describe("Access rules", func() {
		It("should report mhartid read-only", func() {
			Expect(cr.Write(emu.CsrMhartid, emu.PrivMachine, 5)).To(BeFalse())
		})

		It("should reject machine CSR access from user mode", func() {
			_, ok := cr.Read(emu.CsrMstatus, emu.PrivUser)
			Expect(ok).To(BeFalse())

			Expect(cr.Write(emu.CsrMstatus, emu.PrivUser, 0)).To(BeFalse())
		})

		It("should drop write bits outside the mask", func() {
			Expect(cr.Write(emu.CsrMepc, emu.PrivMachine, 0x1001)).To(BeTrue())

			v, _ := cr.Read(emu.CsrMepc, emu.PrivMachine)
			Expect(v).To(Equal(uint64(0x1000)))
		})

		It("should report unimplemented CSRs", func() {
			_, ok := cr.Read(emu.CsrNum(0x5c0), emu.PrivMachine)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("mstatus", func() {
		It("should keep the SD bit coherent with FS", func() {
			cr.Write(emu.CsrMstatus, emu.PrivMachine, emu.MstatusFS)

			v, _ := cr.Read(emu.CsrMstatus, emu.PrivMachine)
			Expect(v & (uint64(1) << 63)).NotTo(BeZero())

			cr.Write(emu.CsrMstatus, emu.PrivMachine, 0)
			v, _ = cr.Read(emu.CsrMstatus, emu.PrivMachine)
			Expect(v & (uint64(1) << 63)).To(BeZero())
		})

		It("should expose only the sstatus view through sstatus", func() {
			cr.Write(emu.CsrMstatus, emu.PrivMachine, emu.MstatusMIE|emu.MstatusSIE)

			v, _ := cr.Read(emu.CsrSstatus, emu.PrivSupervisor)
			Expect(v & emu.MstatusSIE).NotTo(BeZero())
			Expect(v & emu.MstatusMIE).To(BeZero())
		})
	})

	Describe("FCSR views", func() {
		It("should reflect fflags and frm into fcsr", func() {
			cr.Write(emu.CsrFflags, emu.PrivUser, 0x1f)
			cr.Write(emu.CsrFrm, emu.PrivUser, 0x3)

			v, _ := cr.Read(emu.CsrFcsr, emu.PrivUser)
			Expect(v).To(Equal(uint64(0x3<<5 | 0x1f)))
		})
	})

	Describe("Counter access gating", func() {
		It("should deny user counter reads unless enabled", func() {
			_, ok := cr.Read(emu.CsrCycle, emu.PrivUser)
			Expect(ok).To(BeFalse())

			cr.Write(emu.CsrMcounteren, emu.PrivMachine, 1)
			cr.Write(emu.CsrScounteren, emu.PrivSupervisor, 1)

			_, ok = cr.Read(emu.CsrCycle, emu.PrivUser)
			Expect(ok).To(BeTrue())
		})
	})

	Describe("Counters", func() {
		It("should advance mcycle and minstret unless inhibited", func() {
			cr.AdvanceCounters()
			cr.AdvanceCounters()

			v, _ := cr.Peek(emu.CsrMcycle)
			Expect(v).To(Equal(uint64(2)))
			v, _ = cr.Peek(emu.CsrMinstret)
			Expect(v).To(Equal(uint64(2)))

			cr.Write(emu.CsrMcountinhibit, emu.PrivMachine, 0x1) // inhibit mcycle
			cr.AdvanceCounters()

			v, _ = cr.Peek(emu.CsrMcycle)
			Expect(v).To(Equal(uint64(2)))
			v, _ = cr.Peek(emu.CsrMinstret)
			Expect(v).To(Equal(uint64(3)))
		})
	})

	Describe("Write rollback", func() {
		It("should undo instruction writes in reverse order", func() {
			cr.Write(emu.CsrMscratch, emu.PrivMachine, 0x1111)
			cr.ClearWrittenCsrs()

			cr.Write(emu.CsrMscratch, emu.PrivMachine, 0x2222)
			cr.UndoWrites()

			v, _ := cr.Peek(emu.CsrMscratch)
			Expect(v).To(Equal(uint64(0x1111)))
		})

		It("should undo writes made through view CSRs", func() {
			cr.Write(emu.CsrMstatus, emu.PrivMachine, emu.MstatusSIE)
			cr.ClearWrittenCsrs()

			cr.Write(emu.CsrSstatus, emu.PrivSupervisor, 0)
			cr.UndoWrites()

			v, _ := cr.Peek(emu.CsrMstatus)
			Expect(v & emu.MstatusSIE).NotTo(BeZero())
		})
	})

	Describe("Shared CSRs", func() {
		It("should alias shared CSRs after tying", func() {
			other := emu.NewCsRegs(64, 1)
			other.TieSharedTo(cr)

			cr.Write(emu.CsrMhartstart, emu.PrivMachine, 0x7)

			v, _ := other.Peek(emu.CsrMhartstart)
			Expect(v).To(Equal(uint64(0x7)))
		})
	})

	Describe("Reset", func() {
		It("should restore reset values", func() {
			cr.Write(emu.CsrMscratch, emu.PrivMachine, 0x1234)
			cr.Reset()

			v, _ := cr.Peek(emu.CsrMscratch)
			Expect(v).To(Equal(uint64(0)))

			status, _ := cr.Peek(emu.CsrMstatus)
			Expect(status & emu.MstatusMPP).To(Equal(uint64(3) << emu.MstatusMPPShift))
		})
	})
})
