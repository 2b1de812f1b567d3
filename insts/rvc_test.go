package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/insts"
)

var _ = Describe("Compressed expansion", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	expand := func(c uint16, xlen uint32) insts.DecodedInst {
		return decoder.Decode(insts.Expand(c, xlen))
	}

	It("should expand C.LI to ADDI from x0", func() {
		// c.li x1, 7
		di := expand(0x409D, 64)

		Expect(di.Op).To(Equal(insts.OpADDI))
		Expect(di.Rd).To(Equal(uint32(1)))
		Expect(di.Rs1).To(Equal(uint32(0)))
		Expect(di.Imm).To(Equal(int32(7)))
	})

	It("should expand C.ADDI with a negative immediate", func() {
		// c.addi x8, -1
		di := expand(0x147D, 64)

		Expect(di.Op).To(Equal(insts.OpADDI))
		Expect(di.Rd).To(Equal(uint32(8)))
		Expect(di.Rs1).To(Equal(uint32(8)))
		Expect(di.Imm).To(Equal(int32(-1)))
	})

	It("should expand C.MV to ADD from x0", func() {
		// c.mv x1, x2
		di := expand(0x808A, 64)

		Expect(di.Op).To(Equal(insts.OpADD))
		Expect(di.Rd).To(Equal(uint32(1)))
		Expect(di.Rs1).To(Equal(uint32(0)))
		Expect(di.Rs2).To(Equal(uint32(2)))
	})

	It("should expand C.ADD", func() {
		// c.add x1, x2
		di := expand(0x908A, 64)

		Expect(di.Op).To(Equal(insts.OpADD))
		Expect(di.Rd).To(Equal(uint32(1)))
		Expect(di.Rs1).To(Equal(uint32(1)))
		Expect(di.Rs2).To(Equal(uint32(2)))
	})

	It("should expand C.LW with the scaled offset", func() {
		// c.lw x10, 4(x11)
		di := expand(0x41C8, 64)

		Expect(di.Op).To(Equal(insts.OpLW))
		Expect(di.Rd).To(Equal(uint32(10)))
		Expect(di.Rs1).To(Equal(uint32(11)))
		Expect(di.Imm).To(Equal(int32(4)))
	})

	It("should expand C.SW", func() {
		// c.sw x10, 4(x11)
		di := expand(0xC1C8, 64)

		Expect(di.Op).To(Equal(insts.OpSW))
		Expect(di.Rs1).To(Equal(uint32(11)))
		Expect(di.Rs2).To(Equal(uint32(10)))
		Expect(di.Imm).To(Equal(int32(4)))
	})

	It("should expand C.JR to JALR x0", func() {
		// c.jr x1
		di := expand(0x8082, 64)

		Expect(di.Op).To(Equal(insts.OpJALR))
		Expect(di.Rd).To(Equal(uint32(0)))
		Expect(di.Rs1).To(Equal(uint32(1)))
	})

	It("should expand C.EBREAK", func() {
		di := expand(0x9002, 64)

		Expect(di.Op).To(Equal(insts.OpEBREAK))
	})

	It("should expand C.BEQZ to BEQ against x0", func() {
		// c.beqz x8, 8
		di := expand(0xC401, 64)

		Expect(di.Op).To(Equal(insts.OpBEQ))
		Expect(di.Rs1).To(Equal(uint32(8)))
		Expect(di.Rs2).To(Equal(uint32(0)))
		Expect(di.Imm).To(Equal(int32(8)))
	})

	It("should expand the quadrant-1 slot 001 per XLEN", func() {
		// RV64: c.addiw x8, 1; RV32: c.jal
		di64 := expand(0x2405, 64)
		Expect(di64.Op).To(Equal(insts.OpADDIW))
		Expect(di64.Rd).To(Equal(uint32(8)))
		Expect(di64.Imm).To(Equal(int32(1)))

		di32 := expand(0x2405, 32)
		Expect(di32.Op).To(Equal(insts.OpJAL))
	})

	It("should expand C.LD on RV64 and C.FLW on RV32", func() {
		// quadrant 0, funct3=011
		di64 := expand(0x6188, 64)
		Expect(di64.Op).To(Equal(insts.OpLD))

		di32 := expand(0x6188, 32)
		Expect(di32.Op).To(Equal(insts.OpFLW))
	})

	It("should expand C.SLLI", func() {
		// c.slli x1, 4
		di := expand(0x0092, 64)

		Expect(di.Op).To(Equal(insts.OpSLLI))
		Expect(di.Rd).To(Equal(uint32(1)))
		Expect(di.Imm).To(Equal(int32(4)))
	})

	It("should reject the all-zero halfword", func() {
		di := expand(0x0000, 64)

		Expect(di.Op).To(Equal(insts.OpIllegal))
	})

	It("should reject RV32-invalid shift amounts", func() {
		// c.slli x1, 33 (shamt bit 5 set)
		di := expand(0x1086, 32)

		Expect(di.Op).To(Equal(insts.OpIllegal))
	})

	It("should report compressed words by their low bits", func() {
		Expect(insts.IsCompressed(0x409D)).To(BeTrue())
		Expect(insts.IsCompressed(0x0093)).To(BeFalse())
	})
})
