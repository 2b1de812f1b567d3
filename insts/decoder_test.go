package insts_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/insts"
)

func TestInsts(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Insts Suite")
}

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Integer immediate forms", func() {
		It("should decode ADDI x1, x0, 7", func() {
			di := decoder.Decode(0x00700093)

			Expect(di.Op).To(Equal(insts.OpADDI))
			Expect(di.Rd).To(Equal(uint32(1)))
			Expect(di.Rs1).To(Equal(uint32(0)))
			Expect(di.Imm).To(Equal(int32(7)))
		})

		It("should decode ADDI with a negative immediate", func() {
			// addi x2, x2, -1
			di := decoder.Decode(0xFFF10113)

			Expect(di.Op).To(Equal(insts.OpADDI))
			Expect(di.Rd).To(Equal(uint32(2)))
			Expect(di.Rs1).To(Equal(uint32(2)))
			Expect(di.Imm).To(Equal(int32(-1)))
		})

		It("should decode LUI x2, 0xABCDE", func() {
			di := decoder.Decode(0xABCDE137)

			Expect(di.Op).To(Equal(insts.OpLUI))
			Expect(di.Rd).To(Equal(uint32(2)))
			Expect(uint32(di.Imm)).To(Equal(uint32(0xABCDE000)))
		})

		It("should decode SLLI with a 6-bit shift amount", func() {
			// slli x5, x6, 33
			di := decoder.Decode(0x02131293)

			Expect(di.Op).To(Equal(insts.OpSLLI))
			Expect(di.Rd).To(Equal(uint32(5)))
			Expect(di.Rs1).To(Equal(uint32(6)))
			Expect(di.Imm).To(Equal(int32(33)))
		})
	})

	Describe("Register-register forms", func() {
		It("should decode ADD x3, x1, x2", func() {
			// funct7=0, rs2=2, rs1=1, funct3=0, rd=3
			di := decoder.Decode(0x002081B3)

			Expect(di.Op).To(Equal(insts.OpADD))
			Expect(di.Rd).To(Equal(uint32(3)))
			Expect(di.Rs1).To(Equal(uint32(1)))
			Expect(di.Rs2).To(Equal(uint32(2)))
		})

		It("should decode SUB x3, x1, x2", func() {
			di := decoder.Decode(0x402081B3)

			Expect(di.Op).To(Equal(insts.OpSUB))
		})

		It("should decode MUL x3, x1, x2", func() {
			di := decoder.Decode(0x022081B3)

			Expect(di.Op).To(Equal(insts.OpMUL))
		})
	})

	Describe("Branches and jumps", func() {
		It("should decode BEQ with a positive displacement", func() {
			// beq x1, x2, 16
			di := decoder.Decode(0x00208863)

			Expect(di.Op).To(Equal(insts.OpBEQ))
			Expect(di.Rs1).To(Equal(uint32(1)))
			Expect(di.Rs2).To(Equal(uint32(2)))
			Expect(di.Imm).To(Equal(int32(16)))
		})

		It("should decode BNE with a negative displacement", func() {
			// bne x1, x2, -4
			di := decoder.Decode(0xFE209EE3)

			Expect(di.Op).To(Equal(insts.OpBNE))
			Expect(di.Imm).To(Equal(int32(-4)))
		})

		It("should decode JAL x1, 2048", func() {
			// jal x1, 2048
			di := decoder.Decode(0x001000EF)

			Expect(di.Op).To(Equal(insts.OpJAL))
			Expect(di.Rd).To(Equal(uint32(1)))
			Expect(di.Imm).To(Equal(int32(2048)))
		})

		It("should decode JALR", func() {
			// jalr x0, 0(x1)
			di := decoder.Decode(0x00008067)

			Expect(di.Op).To(Equal(insts.OpJALR))
			Expect(di.Rd).To(Equal(uint32(0)))
			Expect(di.Rs1).To(Equal(uint32(1)))
		})
	})

	Describe("Loads and stores", func() {
		It("should decode LW x5, 0(x1)", func() {
			di := decoder.Decode(0x0000A283)

			Expect(di.Op).To(Equal(insts.OpLW))
			Expect(di.Rd).To(Equal(uint32(5)))
			Expect(di.Rs1).To(Equal(uint32(1)))
			Expect(di.Imm).To(Equal(int32(0)))
			Expect(di.IsLoad()).To(BeTrue())
		})

		It("should decode SW x2, 8(x1)", func() {
			// sw x2, 8(x1)
			di := decoder.Decode(0x0020A423)

			Expect(di.Op).To(Equal(insts.OpSW))
			Expect(di.Rs1).To(Equal(uint32(1)))
			Expect(di.Rs2).To(Equal(uint32(2)))
			Expect(di.Imm).To(Equal(int32(8)))
			Expect(di.IsStore()).To(BeTrue())
		})

		It("should decode SD with a negative offset", func() {
			// sd x2, -8(x1)
			di := decoder.Decode(0xFE20BC23)

			Expect(di.Op).To(Equal(insts.OpSD))
			Expect(di.Imm).To(Equal(int32(-8)))
		})
	})

	Describe("System instructions", func() {
		It("should decode ECALL", func() {
			di := decoder.Decode(0x00000073)

			Expect(di.Op).To(Equal(insts.OpECALL))
		})

		It("should decode EBREAK", func() {
			di := decoder.Decode(0x00100073)

			Expect(di.Op).To(Equal(insts.OpEBREAK))
		})

		It("should decode MRET", func() {
			di := decoder.Decode(0x30200073)

			Expect(di.Op).To(Equal(insts.OpMRET))
		})

		It("should decode CSRRW with the CSR address", func() {
			// csrrw x1, mscratch, x2
			di := decoder.Decode(0x340110F3)

			Expect(di.Op).To(Equal(insts.OpCSRRW))
			Expect(di.Rd).To(Equal(uint32(1)))
			Expect(di.Rs1).To(Equal(uint32(2)))
			Expect(di.Csr).To(Equal(uint32(0x340)))
		})

		It("should decode CSRRSI with the immediate in Imm", func() {
			// csrrsi x0, mstatus, 8
			di := decoder.Decode(0x30046073)

			Expect(di.Op).To(Equal(insts.OpCSRRSI))
			Expect(di.Csr).To(Equal(uint32(0x300)))
			Expect(di.Imm).To(Equal(int32(8)))
		})
	})

	Describe("Atomics", func() {
		It("should decode LR.W", func() {
			// lr.w x3, (x1)
			di := decoder.Decode(0x1000A1AF)

			Expect(di.Op).To(Equal(insts.OpLRW))
			Expect(di.Rd).To(Equal(uint32(3)))
			Expect(di.Rs1).To(Equal(uint32(1)))
		})

		It("should decode SC.W", func() {
			// sc.w x4, x2, (x1)
			di := decoder.Decode(0x1820A22F)

			Expect(di.Op).To(Equal(insts.OpSCW))
			Expect(di.Rd).To(Equal(uint32(4)))
			Expect(di.Rs2).To(Equal(uint32(2)))
		})

		It("should decode AMOADD.D", func() {
			// amoadd.d x5, x6, (x7)
			di := decoder.Decode(0x0063B2AF)

			Expect(di.Op).To(Equal(insts.OpAMOADDD))
			Expect(di.Rd).To(Equal(uint32(5)))
			Expect(di.Rs2).To(Equal(uint32(6)))
			Expect(di.Rs1).To(Equal(uint32(7)))
		})
	})

	Describe("Floating point", func() {
		It("should decode FADD.S with the rounding mode", func() {
			// fadd.s f1, f2, f3, rne
			di := decoder.Decode(0x003100D3)

			Expect(di.Op).To(Equal(insts.OpFADDS))
			Expect(di.Rd).To(Equal(uint32(1)))
			Expect(di.Rs1).To(Equal(uint32(2)))
			Expect(di.Rs2).To(Equal(uint32(3)))
			Expect(di.Rm).To(Equal(uint32(0)))
		})

		It("should decode FMADD.D with three sources", func() {
			// fmadd.d f1, f2, f3, f4
			di := decoder.Decode(0x223170C3)

			Expect(di.Op).To(Equal(insts.OpFMADDD))
			Expect(di.Rs3).To(Equal(uint32(4)))
		})

		It("should decode FCVT.W.S", func() {
			// fcvt.w.s x1, f2
			di := decoder.Decode(0xC00170D3)

			Expect(di.Op).To(Equal(insts.OpFCVTWS))
		})
	})

	Describe("Bit manipulation", func() {
		It("should decode SH1ADD", func() {
			// sh1add x3, x1, x2 : funct7=0010000 funct3=010
			di := decoder.Decode(0x2020A1B3)

			Expect(di.Op).To(Equal(insts.OpSH1ADD))
		})

		It("should decode ANDN", func() {
			// andn x3, x1, x2 : funct7=0100000 funct3=111
			di := decoder.Decode(0x4020F1B3)

			Expect(di.Op).To(Equal(insts.OpANDN))
		})

		It("should decode CLZ", func() {
			// clz x3, x1 : funct7=0110000, rs2=0, funct3=001
			di := decoder.Decode(0x60009193)

			Expect(di.Op).To(Equal(insts.OpCLZ))
		})

		It("should decode RORI", func() {
			// rori x3, x1, 5 : funct6=011000 funct3=101
			di := decoder.Decode(0x6050D193)

			Expect(di.Op).To(Equal(insts.OpRORI))
			Expect(di.Imm).To(Equal(int32(5)))
		})

		It("should decode CMIX with rs3", func() {
			// cmix x3, x1, x2, x4 : rs3=4, bits[26:25]=11, funct3=001
			di := decoder.Decode(0x262091B3)

			Expect(di.Op).To(Equal(insts.OpCMIX))
			Expect(di.Rs3).To(Equal(uint32(4)))
		})
	})

	Describe("Invalid encodings", func() {
		It("should resolve an all-zero word to Illegal", func() {
			di := decoder.Decode(0x00000000)

			Expect(di.Op).To(Equal(insts.OpIllegal))
		})

		It("should resolve an all-ones word to Illegal", func() {
			di := decoder.Decode(0xFFFFFFFF)

			Expect(di.Op).To(Equal(insts.OpIllegal))
		})
	})

	Describe("Purity", func() {
		It("should decode the same word identically every time", func() {
			a := decoder.Decode(0x00700093)
			b := decoder.Decode(0x00700093)

			Expect(a).To(Equal(b))
		})
	})
})
