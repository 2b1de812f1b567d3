package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
)

var _ = Describe("Floating point", func() {
	var (
		system *emu.System
		hart   *emu.Hart
	)

	BeforeEach(func() {
		cfg := emu.DefaultConfig()
		cfg.EnableF = true
		cfg.EnableD = true
		system = newTestSystem(cfg)
		hart, _ = system.IthHart(0)
		// Turn the FP unit on: mstatus.FS = Initial.
		hart.PokeCsr(emu.CsrMstatus, uint64(1)<<emu.MstatusFSShift)
	})

	It("should NaN-box single-precision writes", func() {
		hart.PokeIntReg(1, 0x40000000) // 2.0f
		// fmv.w.x f1, x1
		loadWords(hart, resetPc, 0xF00080D3)

		hart.SingleStep()

		raw, _ := hart.PeekFpReg(1)
		Expect(raw >> 32).To(Equal(uint64(0xFFFFFFFF)))
		Expect(raw & 0xFFFFFFFF).To(Equal(uint64(0x40000000)))
	})

	It("should add single-precision values", func() {
		hart.PokeIntReg(1, 0x40000000) // 2.0f
		hart.PokeIntReg(2, 0x40400000) // 3.0f
		// fmv.w.x f1, x1; fmv.w.x f2, x2; fadd.s f3, f1, f2
		loadWords(hart, resetPc, 0xF00080D3, 0xF0010153, 0x002081D3)

		hart.SingleStep()
		hart.SingleStep()
		hart.SingleStep()

		raw, _ := hart.PeekFpReg(3)
		Expect(raw).To(Equal(uint64(0xFFFFFFFF40A00000))) // 5.0f, boxed
	})

	It("should mark mstatus.FS dirty on FP register writes", func() {
		hart.PokeIntReg(1, 0x40000000)
		loadWords(hart, resetPc, 0xF00080D3)

		hart.SingleStep()

		status, _ := hart.PeekCsr(emu.CsrMstatus)
		Expect(status & emu.MstatusFS).To(Equal(emu.MstatusFS))
		Expect(status & (uint64(1) << 63)).NotTo(BeZero()) // SD
	})

	It("should convert float to integer", func() {
		hart.PokeIntReg(1, 0x40000000) // 2.0f
		// fmv.w.x f1, x1; fcvt.w.s x5, f1
		loadWords(hart, resetPc, 0xF00080D3, 0xC00082D3)

		hart.SingleStep()
		hart.SingleStep()

		v, _ := hart.PeekIntReg(5)
		Expect(v).To(Equal(uint64(2)))
	})

	It("should raise illegal instruction for DYN rm with FCSR.frm=7", func() {
		hart.PokeCsr(emu.CsrFcsr, uint64(7)<<5)
		// fadd.s f3, f1, f2 with rm=DYN
		loadWords(hart, resetPc, 0x0020F1D3)

		hart.SingleStep()

		cause, _ := hart.PeekCsr(emu.CsrMcause)
		Expect(cause).To(Equal(uint64(2)))
	})

	It("should raise illegal instruction when mstatus.FS is Off", func() {
		hart.PokeCsr(emu.CsrMstatus, 0) // FS = Off
		loadWords(hart, resetPc, 0x002081D3)

		hart.SingleStep()

		cause, _ := hart.PeekCsr(emu.CsrMcause)
		Expect(cause).To(Equal(uint64(2)))
	})

	It("should accrue the divide-by-zero flag", func() {
		hart.PokeIntReg(1, 0x40000000) // 2.0f
		hart.PokeIntReg(2, 0x00000000) // 0.0f
		// fmv.w.x f1, x1; fmv.w.x f2, x2; fdiv.s f3, f1, f2
		loadWords(hart, resetPc, 0xF00080D3, 0xF0010153, 0x1820F1D3)

		hart.SingleStep()
		hart.SingleStep()
		hart.SingleStep()

		fflags, _ := hart.PeekCsr(emu.CsrFflags)
		Expect(fflags & emu.FcsrDZ).NotTo(BeZero())
	})
})
