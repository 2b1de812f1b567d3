package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
)

var _ = Describe("Bit manipulation", func() {
	var hart *emu.Hart

	BeforeEach(func() {
		cfg := emu.DefaultConfig()
		cfg.EnableZba = true
		cfg.EnableZbb = true
		cfg.EnableZbc = true
		cfg.EnableZbp = true
		cfg.EnableZbs = true
		cfg.EnableZbt = true
		system := newTestSystem(cfg)
		hart, _ = system.IthHart(0)
	})

	step1 := func(word uint32) uint64 {
		loadWords(hart, resetPc, word)
		hart.SingleStep()
		v, _ := hart.PeekIntReg(3)
		return v
	}

	It("should count leading zeros with CLZ", func() {
		hart.PokeIntReg(1, 0x10)

		Expect(step1(0x60009193)).To(Equal(uint64(59)))
	})

	It("should count trailing zeros with CTZ", func() {
		hart.PokeIntReg(1, 0x10)

		// ctz x3, x1
		Expect(step1(0x60109193)).To(Equal(uint64(4)))
	})

	It("should rotate right with RORI", func() {
		hart.PokeIntReg(1, 0x123456789ABCDEF0)

		// rori x3, x1, 4
		Expect(step1(0x6040D193)).To(Equal(uint64(0x0123456789ABCDEF)))
	})

	It("should compute SH1ADD", func() {
		hart.PokeIntReg(1, 3)
		hart.PokeIntReg(2, 10)

		Expect(step1(0x2020A1B3)).To(Equal(uint64(16)))
	})

	It("should compute ANDN", func() {
		hart.PokeIntReg(1, 0xFF)
		hart.PokeIntReg(2, 0x0F)

		Expect(step1(0x4020F1B3)).To(Equal(uint64(0xF0)))
	})

	It("should set a bit with SBSET", func() {
		hart.PokeIntReg(1, 0)
		hart.PokeIntReg(2, 5)

		Expect(step1(0x282091B3)).To(Equal(uint64(0x20)))
	})

	It("should pack lower halves with PACK", func() {
		hart.PokeIntReg(1, 0x11111111AAAAAAAA)
		hart.PokeIntReg(2, 0xBBBBBBBB55555555)

		Expect(step1(0x0820C1B3)).To(Equal(uint64(0x55555555AAAAAAAA)))
	})

	It("should carry-less multiply with CLMUL", func() {
		hart.PokeIntReg(1, 3)
		hart.PokeIntReg(2, 3)

		Expect(step1(0x0A2091B3)).To(Equal(uint64(5)))
	})

	It("should select with CMOV", func() {
		hart.PokeIntReg(1, 0x111)
		hart.PokeIntReg(2, 1)
		hart.PokeIntReg(4, 0x444)

		// cmov x3, x1, x2, x4
		Expect(step1(0x2620D1B3)).To(Equal(uint64(0x111)))

		hart.Reset(false)
		hart.PokeIntReg(1, 0x111)
		hart.PokeIntReg(2, 0)
		hart.PokeIntReg(4, 0x444)
		Expect(step1(0x2620D1B3)).To(Equal(uint64(0x444)))
	})

	It("should byte-reverse via GREVI", func() {
		hart.PokeIntReg(1, 0x0102030405060708)

		// grevi x3, x1, 0x38 (rev8)
		Expect(step1(0x6B80D193)).To(Equal(uint64(0x0807060504030201)))
	})

	It("should raise illegal instruction when the extension is off", func() {
		cfg := emu.DefaultConfig() // no Zb* extensions
		system := newTestSystem(cfg)
		h, _ := system.IthHart(0)
		h.PokeIntReg(1, 1)
		loadWords(h, resetPc, 0x60009193) // clz

		h.SingleStep()

		cause, _ := h.PeekCsr(emu.CsrMcause)
		Expect(cause).To(Equal(uint64(2)))
	})
})
