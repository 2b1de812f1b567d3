package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
)

var _ = Describe("PmpManager", func() {
	var pm *emu.PmpManager

	// entry builds a pmpcfg byte: A-field mode plus permission bits.
	entry := func(mode uint8, r, w, x, locked bool) uint64 {
		b := uint64(mode) << 3
		if r {
			b |= 1
		}
		if w {
			b |= 2
		}
		if x {
			b |= 4
		}
		if locked {
			b |= 0x80
		}
		return b
	}

	BeforeEach(func() {
		pm = emu.NewPmpManager()
	})

	It("should allow everything with no entries configured", func() {
		Expect(pm.Enabled()).To(BeFalse())
		Expect(pm.IsAllowed(0x1000, emu.AccessRead, emu.PrivUser)).To(BeTrue())
		Expect(pm.IsAllowed(0x1000, emu.AccessWrite, emu.PrivMachine)).To(BeTrue())
	})

	It("should evaluate a NAPOT entry", func() {
		var cfg [4]uint64
		var addr [16]uint64
		// NAPOT region of 4KB at 0x10000: pmpaddr = (0x10000>>2) | ((4096/8)-1)
		cfg[0] = entry(3, true, false, false, false)
		addr[0] = 0x10000>>2 | (4096/8 - 1)
		pm.UpdateConfig(64, cfg, addr)

		Expect(pm.IsAllowed(0x10000, emu.AccessRead, emu.PrivUser)).To(BeTrue())
		Expect(pm.IsAllowed(0x10FFF, emu.AccessRead, emu.PrivUser)).To(BeTrue())
		Expect(pm.IsAllowed(0x10000, emu.AccessWrite, emu.PrivUser)).To(BeFalse())
		Expect(pm.IsAllowed(0x11000, emu.AccessRead, emu.PrivUser)).To(BeFalse())
	})

	It("should evaluate a TOR pair", func() {
		var cfg [4]uint64
		var addr [16]uint64
		// Entry 0 NAPOT-off boundary, entry 1 TOR covering [0x2000, 0x3000).
		addr[0] = 0x2000 >> 2
		addr[1] = 0x3000 >> 2
		cfg[0] = 0
		cfg[0] |= entry(1, true, true, false, false) << 8
		pm.UpdateConfig(64, cfg, addr)

		Expect(pm.IsAllowed(0x2000, emu.AccessRead, emu.PrivUser)).To(BeTrue())
		Expect(pm.IsAllowed(0x2FFF, emu.AccessWrite, emu.PrivUser)).To(BeTrue())
		Expect(pm.IsAllowed(0x2000, emu.AccessExec, emu.PrivUser)).To(BeFalse())
		Expect(pm.IsAllowed(0x3000, emu.AccessRead, emu.PrivUser)).To(BeFalse())
	})

	It("should deny unmatched lower-privilege access once enabled", func() {
		var cfg [4]uint64
		var addr [16]uint64
		cfg[0] = entry(2, true, true, true, false) // NA4 at 0x1000
		addr[0] = 0x1000 >> 2
		pm.UpdateConfig(64, cfg, addr)

		Expect(pm.IsAllowed(0x9000, emu.AccessRead, emu.PrivUser)).To(BeFalse())
		Expect(pm.IsAllowed(0x9000, emu.AccessRead, emu.PrivMachine)).To(BeTrue())
	})

	It("should constrain machine mode only via locked entries", func() {
		var cfg [4]uint64
		var addr [16]uint64
		cfg[0] = entry(2, false, false, false, true) // locked NA4, no perms
		addr[0] = 0x1000 >> 2
		pm.UpdateConfig(64, cfg, addr)

		Expect(pm.IsAllowed(0x1000, emu.AccessRead, emu.PrivMachine)).To(BeFalse())

		cfg[0] = entry(2, false, false, false, false) // unlocked
		pm.UpdateConfig(64, cfg, addr)
		Expect(pm.IsAllowed(0x1000, emu.AccessRead, emu.PrivMachine)).To(BeTrue())
	})

	It("should pick the first matching entry", func() {
		var cfg [4]uint64
		var addr [16]uint64
		cfg[0] = entry(2, true, false, false, false) // NA4 read-only
		addr[0] = 0x1000 >> 2
		cfg[0] |= entry(2, true, true, true, false) << 8 // same range, more permissive
		addr[1] = 0x1000 >> 2
		pm.UpdateConfig(64, cfg, addr)

		Expect(pm.IsAllowed(0x1000, emu.AccessWrite, emu.PrivUser)).To(BeFalse())
	})

	It("should honor the configured grain size", func() {
		Expect(pm.SetGrainSize(1)).To(BeFalse())
		Expect(pm.SetGrainSize(4)).To(BeTrue())
	})
})
