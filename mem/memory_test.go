package mem_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/mem"
)

func TestMem(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mem Suite")
}

var _ = Describe("Memory", func() {
	var m *mem.Memory

	BeforeEach(func() {
		m = mem.New(1<<20, 2)
	})

	Describe("Typed access", func() {
		It("should read back written values at each width", func() {
			Expect(m.Write(0, 0x100, 1, 0xAB)).To(Equal(mem.ErrNone))
			Expect(m.Write(0, 0x200, 2, 0xBEEF)).To(Equal(mem.ErrNone))
			Expect(m.Write(0, 0x300, 4, 0xDEADBEEF)).To(Equal(mem.ErrNone))
			Expect(m.Write(0, 0x400, 8, 0x0123456789ABCDEF)).To(Equal(mem.ErrNone))

			v, err := m.Read(0x100, 1)
			Expect(err).To(Equal(mem.ErrNone))
			Expect(v).To(Equal(uint64(0xAB)))

			v, _ = m.Read(0x200, 2)
			Expect(v).To(Equal(uint64(0xBEEF)))

			v, _ = m.Read(0x300, 4)
			Expect(v).To(Equal(uint64(0xDEADBEEF)))

			v, _ = m.Read(0x400, 8)
			Expect(v).To(Equal(uint64(0x0123456789ABCDEF)))
		})

		It("should store little-endian", func() {
			m.Write(0, 0x100, 4, 0x11223344)

			v, _ := m.Read(0x100, 1)
			Expect(v).To(Equal(uint64(0x44)))
			v, _ = m.Read(0x103, 1)
			Expect(v).To(Equal(uint64(0x11)))
		})

		It("should report out-of-bounds distinctly", func() {
			_, err := m.Read(1<<20, 4)
			Expect(err).To(Equal(mem.ErrOutOfBounds))

			err = m.Write(0, 1<<20-2, 4, 0)
			Expect(err).To(Equal(mem.ErrOutOfBounds))
		})
	})

	Describe("Region attributes", func() {
		It("should deny writes to read-only regions", func() {
			err := m.DefineRegion(0x1000, 0x2000, mem.Attrib{Read: true, Exec: true})
			Expect(err).To(BeNil())

			Expect(m.Write(0, 0x1000, 4, 1)).To(Equal(mem.ErrNoAccess))
			_, rerr := m.Read(0x1000, 4)
			Expect(rerr).To(Equal(mem.ErrNone))
		})

		It("should deny fetch from non-executable regions", func() {
			m.DefineRegion(0x1000, 0x2000, mem.Attrib{Read: true, Write: true})

			_, err := m.Fetch(0x1000, 4)
			Expect(err).To(Equal(mem.ErrNoAccess))
		})

		It("should let later regions override earlier ones", func() {
			m.DefineRegion(0x0, 0x10000, mem.Attrib{Read: true})
			m.DefineRegion(0x1000, 0x2000, mem.Attrib{Read: true, Write: true})

			Expect(m.Write(0, 0x1800, 4, 1)).To(Equal(mem.ErrNone))
			Expect(m.Write(0, 0x800, 4, 1)).To(Equal(mem.ErrNoAccess))
		})
	})

	Describe("Memory-mapped registers", func() {
		It("should mask store bits outside the register's write mask", func() {
			m.DefineRegion(0x8000, 0x9000, mem.Attrib{Read: true, Write: true, MemMapped: true})
			Expect(m.DefineMmr(0x8000, 0x0000FFFF)).To(BeNil())

			m.Poke(0x8000, 4, 0x11112222, false)
			m.Write(0, 0x8000, 4, 0xAAAABBBB)

			v, _ := m.Read(0x8000, 4)
			Expect(v).To(Equal(uint64(0x1111BBBB)))
		})

		It("should reject sub-word stores to memory-mapped registers", func() {
			m.DefineRegion(0x8000, 0x9000, mem.Attrib{Read: true, Write: true, MemMapped: true})

			Expect(m.Write(0, 0x8000, 2, 1)).To(Equal(mem.ErrNoAccess))
		})
	})

	Describe("Load reservations", func() {
		It("should honor a reservation until another hart writes the line", func() {
			m.Reserve(0, 0x1000)
			Expect(m.HasReservation(0, 0x1000)).To(BeTrue())
			Expect(m.HasReservation(0, 0x1020)).To(BeTrue()) // same line
			Expect(m.HasReservation(0, 0x1040)).To(BeFalse())

			m.Write(1, 0x1008, 4, 7)
			Expect(m.HasReservation(0, 0x1000)).To(BeFalse())
		})

		It("should keep the reservation when the owning hart writes", func() {
			m.Reserve(0, 0x1000)
			m.Write(0, 0x1008, 4, 7)

			Expect(m.HasReservation(0, 0x1000)).To(BeTrue())
		})

		It("should clear reservations explicitly", func() {
			m.Reserve(1, 0x2000)
			m.InvalidateLr(1)

			Expect(m.HasReservation(1, 0x2000)).To(BeFalse())
		})
	})
})
