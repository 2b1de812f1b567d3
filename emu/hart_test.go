package emu_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
)

func TestEmu(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Emu Suite")
}

const resetPc = uint64(0x80000000)

// newTestSystem builds a two-hart system with the given configuration
// and both harts reset to resetPc.
func newTestSystem(cfg emu.Config) *emu.System {
	system := emu.NewSystem(2, 1, 1<<32, cfg)
	for i := 0; i < system.HartCount(); i++ {
		hart, _ := system.IthHart(i)
		hart.SetResetPc(resetPc)
		hart.Reset(true)
	}
	return system
}

// loadWords pokes 32-bit instruction words at consecutive addresses.
func loadWords(h *emu.Hart, addr uint64, words ...uint32) {
	for i, w := range words {
		h.PokeMemory(addr+uint64(i)*4, 4, uint64(w))
	}
}

var _ = Describe("Hart", func() {
	var (
		system *emu.System
		hart   *emu.Hart
	)

	BeforeEach(func() {
		cfg := emu.DefaultConfig()
		cfg.EnableA = true
		system = newTestSystem(cfg)
		hart, _ = system.IthHart(0)
	})

	Describe("Basic execution", func() {
		It("should execute ADDI x1, x0, 7", func() {
			loadWords(hart, resetPc, 0x00700093)

			hart.SingleStep()

			Expect(hart.Pc()).To(Equal(resetPc + 4))
			v, _ := hart.PeekIntReg(1)
			Expect(v).To(Equal(uint64(7)))
			z, _ := hart.PeekIntReg(0)
			Expect(z).To(Equal(uint64(0)))
		})

		It("should keep x0 at zero across writes", func() {
			// addi x0, x0, 7
			loadWords(hart, resetPc, 0x00700013)

			hart.SingleStep()

			z, _ := hart.PeekIntReg(0)
			Expect(z).To(Equal(uint64(0)))
		})

		It("should compute LUI followed by ADDI", func() {
			loadWords(hart, resetPc, 0xABCDE137, 0xFFF10113)

			hart.SingleStep()
			hart.SingleStep()

			v, _ := hart.PeekIntReg(2)
			Expect(v).To(Equal(uint64(0xFFFFFFFFABCDDFFF)))
		})

		It("should take a branch and update the pc", func() {
			// beq x0, x0, 16
			loadWords(hart, resetPc, 0x00000863)

			hart.SingleStep()

			Expect(hart.Pc()).To(Equal(resetPc + 16))
		})

		It("should execute a compressed instruction with size 2", func() {
			// c.li x1, 7
			hart.PokeMemory(resetPc, 2, 0x409D)

			hart.SingleStep()

			Expect(hart.Pc()).To(Equal(resetPc + 2))
			v, _ := hart.PeekIntReg(1)
			Expect(v).To(Equal(uint64(7)))
		})

		It("should count retired instructions in minstret", func() {
			loadWords(hart, resetPc, 0x00700093, 0x00700093, 0x00700093)

			hart.SingleStep()
			hart.SingleStep()
			hart.SingleStep()

			v, _ := hart.PeekCsr(emu.CsrMinstret)
			Expect(v).To(Equal(uint64(3)))
		})
	})

	Describe("LR/SC", func() {
		It("should round-trip LR.W / SC.W on one hart", func() {
			hart.PokeMemory(0x1000, 4, 0x11111111)
			hart.PokeIntReg(1, 0x1000)
			hart.PokeIntReg(2, 0x22222222)
			// lr.w x3, (x1); sc.w x4, x2, (x1)
			loadWords(hart, resetPc, 0x1000A1AF, 0x1820A22F)

			hart.SingleStep()
			hart.SingleStep()

			v3, _ := hart.PeekIntReg(3)
			Expect(v3).To(Equal(uint64(0x11111111)))
			v4, _ := hart.PeekIntReg(4)
			Expect(v4).To(Equal(uint64(0)))
			m, _ := hart.PeekMemory(0x1000, 4)
			Expect(m).To(Equal(uint64(0x22222222)))
		})

		It("should fail SC when another hart stores to the line", func() {
			hartB, _ := system.IthHart(1)

			hart.PokeMemory(0x1000, 4, 0x11111111)
			hart.PokeIntReg(1, 0x1000)
			hart.PokeIntReg(2, 0x22222222)
			loadWords(hart, resetPc, 0x1000A1AF, 0x1820A22F)

			// Hart B stores to the reserved line between LR and SC.
			hartB.PokeIntReg(1, 0x1000)
			hartB.PokeIntReg(2, 0x33333333)
			// sw x2, 0(x1)
			loadWords(hartB, resetPc, 0x0020A023)

			hart.SingleStep()  // LR.W
			hartB.SingleStep() // intervening store
			hart.SingleStep()  // SC.W must fail

			v4, _ := hart.PeekIntReg(4)
			Expect(v4).To(Equal(uint64(1)))
			m, _ := hart.PeekMemory(0x1000, 4)
			Expect(m).To(Equal(uint64(0x33333333)))
		})

		It("should perform AMOADD.W read-modify-write", func() {
			hart.PokeMemory(0x1000, 4, 100)
			hart.PokeIntReg(1, 0x1000)
			hart.PokeIntReg(2, 5)
			// amoadd.w x3, x2, (x1)
			loadWords(hart, resetPc, 0x0020A1AF)

			hart.SingleStep()

			v3, _ := hart.PeekIntReg(3)
			Expect(v3).To(Equal(uint64(100)))
			m, _ := hart.PeekMemory(0x1000, 4)
			Expect(m).To(Equal(uint64(105)))
		})
	})

	Describe("Trap delivery", func() {
		It("should deliver ECALL from machine mode precisely", func() {
			hart.PokeCsr(emu.CsrMtvec, 0x80001000)
			hart.PokeCsr(emu.CsrMstatus, emu.MstatusMIE)
			loadWords(hart, resetPc, 0x00000073)

			hart.SingleStep()

			cause, _ := hart.PeekCsr(emu.CsrMcause)
			Expect(cause).To(Equal(uint64(11)))
			epc, _ := hart.PeekCsr(emu.CsrMepc)
			Expect(epc).To(Equal(resetPc))
			status, _ := hart.PeekCsr(emu.CsrMstatus)
			Expect(status & emu.MstatusMIE).To(BeZero())
			Expect(status & emu.MstatusMPIE).NotTo(BeZero())
			Expect(hart.Pc()).To(Equal(uint64(0x80001000)))
		})

		It("should roll back register writes on a faulting load", func() {
			hart.PokeIntReg(5, 0xDEAD)
			hart.PokeIntReg(1, 0xFFFFFFFF00000000) // far out of bounds
			// lw x5, 0(x1)
			loadWords(hart, resetPc, 0x0000A283)

			hart.SingleStep()

			v5, _ := hart.PeekIntReg(5)
			Expect(v5).To(Equal(uint64(0xDEAD)))
			cause, _ := hart.PeekCsr(emu.CsrMcause)
			Expect(cause).To(Equal(uint64(5))) // load access fault
		})

		It("should raise illegal instruction into a trap loop stop", func() {
			hart.SetInstCountLimit(100000)
			// Memory is all zeroes: every fetch decodes as illegal.

			result := hart.Run()

			Expect(result.Reason).To(Equal(emu.StopTrapLoop))
		})

		It("should stop on a store to the tohost address", func() {
			hart.SetToHostAddress(0x2000)
			hart.PokeIntReg(1, 0x2000)
			hart.PokeIntReg(2, 0x2A)
			// sw x2, 0(x1)
			loadWords(hart, resetPc, 0x0020A023)

			result := hart.Run()

			Expect(result.Reason).To(Equal(emu.StopToHost))
			Expect(result.Value).To(Equal(uint64(0x2A)))
		})

		It("should return from a trap with MRET", func() {
			hart.PokeCsr(emu.CsrMepc, 0x80002000)
			hart.PokeCsr(emu.CsrMstatus, emu.MstatusMPIE|uint64(3)<<emu.MstatusMPPShift)
			// mret
			loadWords(hart, resetPc, 0x30200073)

			hart.SingleStep()

			Expect(hart.Pc()).To(Equal(uint64(0x80002000)))
			status, _ := hart.PeekCsr(emu.CsrMstatus)
			Expect(status & emu.MstatusMIE).NotTo(BeZero())
			Expect(status & emu.MstatusMPIE).NotTo(BeZero())
		})
	})

	Describe("Interrupts", func() {
		It("should vector a pending software interrupt", func() {
			hart.PokeCsr(emu.CsrMtvec, 0x1000)
			hart.PokeCsr(emu.CsrMie, emu.MipMSIP)
			hart.PokeCsr(emu.CsrMstatus, emu.MstatusMIE)
			hart.PokeCsr(emu.CsrMip, emu.MipMSIP)
			// handler: addi x1, x0, 7
			loadWords(hart, 0x1000, 0x00700093)

			hart.SingleStep()

			cause, _ := hart.PeekCsr(emu.CsrMcause)
			Expect(cause).To(Equal(uint64(1)<<63 | 3))
			epc, _ := hart.PeekCsr(emu.CsrMepc)
			Expect(epc).To(Equal(resetPc))
			v, _ := hart.PeekIntReg(1)
			Expect(v).To(Equal(uint64(7)))
		})

		It("should not take a masked interrupt", func() {
			hart.PokeCsr(emu.CsrMtvec, 0x1000)
			hart.PokeCsr(emu.CsrMie, emu.MipMSIP)
			hart.PokeCsr(emu.CsrMip, emu.MipMSIP)
			// mstatus.MIE left clear
			loadWords(hart, resetPc, 0x00700093)

			hart.SingleStep()

			Expect(hart.Pc()).To(Equal(resetPc + 4))
		})

		It("should assert MTIP from the periodic alarm", func() {
			hart.SetupPeriodicTimerInterrupt(2)
			loadWords(hart, resetPc, 0x00700093, 0x00700093, 0x00700093)

			hart.SingleStep()
			hart.SingleStep()
			hart.SingleStep()

			mip, _ := hart.PeekCsr(emu.CsrMip)
			Expect(mip & emu.MipMTIP).NotTo(BeZero())
		})
	})

	Describe("Speculative stepping", func() {
		It("should report effects without committing state", func() {
			var rec emu.ChangeRecord

			ok := hart.WhatIfSingleStep(resetPc, 0x00700093, &rec)

			Expect(ok).To(BeTrue())
			Expect(rec.IntRegIx).To(Equal(1))
			Expect(rec.IntRegValue).To(Equal(uint64(7)))
			Expect(rec.NewPc).To(Equal(resetPc + 4))

			v, _ := hart.PeekIntReg(1)
			Expect(v).To(Equal(uint64(0)))
			Expect(hart.Pc()).To(Equal(resetPc))
		})
	})

	Describe("Snapshots", func() {
		It("should reproduce architectural state after a round trip", func() {
			dir := GinkgoT().TempDir()

			loadWords(hart, resetPc, 0x00700093, 0xABCDE137)
			hart.SingleStep()
			hart.SingleStep()

			Expect(hart.SaveSnapshot(dir)).To(BeNil())

			fresh := newTestSystem(emu.DefaultConfig())
			hart2, _ := fresh.IthHart(0)
			Expect(hart2.LoadSnapshot(dir)).To(BeNil())

			Expect(hart2.Pc()).To(Equal(hart.Pc()))
			for i := uint32(0); i < 32; i++ {
				a, _ := hart.PeekIntReg(i)
				b, _ := hart2.PeekIntReg(i)
				Expect(b).To(Equal(a))
			}
			mcycle1, _ := hart.PeekCsr(emu.CsrMcycle)
			mcycle2, _ := hart2.PeekCsr(emu.CsrMcycle)
			Expect(mcycle2).To(Equal(mcycle1))
		})
	})

	Describe("Debug triggers", func() {
		It("should trip an execute-address trigger before the instruction", func() {
			cfg := emu.DefaultConfig()
			cfg.EnableTriggers = true
			sys := newTestSystem(cfg)
			h, _ := sys.IthHart(0)

			d1 := uint64(2)<<59 | 1<<6 | 1<<2 // mcontrol, m-mode, execute
			Expect(h.ConfigTrigger(0, d1, resetPc, 0, ^uint64(0), ^uint64(0), 0)).To(BeTrue())
			loadWords(h, resetPc, 0x00700093)

			h.SingleStep()

			cause, _ := h.PeekCsr(emu.CsrMcause)
			Expect(cause).To(Equal(uint64(3))) // breakpoint
			v, _ := h.PeekIntReg(1)
			Expect(v).To(Equal(uint64(0)))
		})
	})

	Describe("Debug mode", func() {
		It("should save and restore state across enter/exit", func() {
			hart.SetDebugRomAddress(0x800)

			hart.EnterDebugMode(emu.DebugCauseHalt, resetPc)

			Expect(hart.InDebugMode()).To(BeTrue())
			Expect(hart.Pc()).To(Equal(uint64(0x800)))
			dpc, _ := hart.PeekCsr(emu.CsrDpc)
			Expect(dpc).To(Equal(resetPc))

			hart.ExitDebugMode()

			Expect(hart.InDebugMode()).To(BeFalse())
			Expect(hart.Pc()).To(Equal(resetPc))
			Expect(hart.PrivMode()).To(Equal(emu.PrivMachine))
		})
	})

	Describe("System calls", func() {
		It("should stop with the exit code on the exit ecall", func() {
			cfg := emu.DefaultConfig()
			cfg.Newlib = true
			sys := newTestSystem(cfg)
			h, _ := sys.IthHart(0)

			h.PokeIntReg(17, 93) // a7 = exit
			h.PokeIntReg(10, 5)  // a0 = 5
			loadWords(h, resetPc, 0x00000073)

			result := h.Run()

			Expect(result.Reason).To(Equal(emu.StopExit))
			Expect(result.Value).To(Equal(uint64(5)))
		})
	})

	Describe("Imprecise exceptions", func() {
		It("should match and retire queued loads", func() {
			cfg := emu.DefaultConfig()
			cfg.LoadQueueEnabled = true
			sys := newTestSystem(cfg)
			h, _ := sys.IthHart(0)

			h.PokeMemory(0x1000, 4, 0x1234)
			h.PokeIntReg(1, 0x1000)
			// lw x5, 0(x1)
			loadWords(h, resetPc, 0x0000A283)

			h.SingleStep()

			matches, ok := h.ApplyLoadFinished(0x1000, 1)
			Expect(ok).To(BeTrue())
			Expect(matches).To(Equal(1))
		})

		It("should record mdseac on a store exception", func() {
			cfg := emu.DefaultConfig()
			cfg.StoreErrorRollback = true
			sys := newTestSystem(cfg)
			h, _ := sys.IthHart(0)

			h.PokeIntReg(1, 0x1000)
			h.PokeIntReg(2, 0x55)
			// sw x2, 0(x1)
			loadWords(h, resetPc, 0x0020A023)

			h.SingleStep()

			matches, ok := h.ApplyStoreException(0x1000)
			Expect(ok).To(BeTrue())
			Expect(matches).To(Equal(1))
			mdseac, _ := h.PeekCsr(emu.CsrMdseac)
			Expect(mdseac).To(Equal(uint64(0x1000)))
			// Rollback restored the previous memory contents.
			m, _ := h.PeekMemory(0x1000, 4)
			Expect(m).To(Equal(uint64(0)))
		})
	})

	Describe("Hart startup", func() {
		It("should hold secondary harts until mhartstart is written", func() {
			hartB, _ := system.IthHart(1)
			Expect(hart.Started()).To(BeTrue())
			Expect(hartB.Started()).To(BeFalse())

			hart.PokeCsr(emu.CsrMhartstart, 0x3)
			system.StartPendingHarts()

			Expect(hartB.Started()).To(BeTrue())
		})
	})
})
