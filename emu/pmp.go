package emu

// Physical memory protection. Up to 16 entries, each pairing a pmpcfg
// byte with a pmpaddr register. Entries are evaluated in index order and
// the first one covering the address decides. With no match, machine mode
// is allowed and lower modes are denied.

// pmpEntryCount is the number of PMP entries.
const pmpEntryCount = 16

// pmpcfg byte fields.
const (
	pmpR     uint8 = 1 << 0
	pmpW     uint8 = 1 << 1
	pmpX     uint8 = 1 << 2
	pmpAMask uint8 = 3 << 3
	pmpL     uint8 = 1 << 7
)

// PMP address-matching modes (the A field).
const (
	pmpOff   uint8 = 0
	pmpTor   uint8 = 1
	pmpNa4   uint8 = 2
	pmpNapot uint8 = 3
)

// AccessKind distinguishes read, write and execute permission checks.
type AccessKind uint8

// Access kinds.
const (
	AccessRead AccessKind = iota
	AccessWrite
	AccessExec
)

// PmpManager evaluates physical-memory-protection entries.
type PmpManager struct {
	cfg  [pmpEntryCount]uint8
	addr [pmpEntryCount]uint64

	// grain constrains address matching granularity; addresses below
	// the grain size are ignored in NAPOT/TOR comparisons.
	grainShift uint32

	enabled bool
}

// NewPmpManager creates a manager with no active entries.
func NewPmpManager() *PmpManager {
	return &PmpManager{grainShift: 2} // grain of 4 bytes
}

// SetGrainSize sets the PMP granularity to 2^log2Size bytes. The minimum
// grain is 4 bytes.
func (pm *PmpManager) SetGrainSize(log2Size uint32) bool {
	if log2Size < 2 {
		return false
	}
	pm.grainShift = log2Size
	return true
}

// Enabled reports whether any PMP entry has been configured.
func (pm *PmpManager) Enabled() bool {
	return pm.enabled
}

// UpdateConfig loads entry configuration bytes and address registers from
// the pmpcfg/pmpaddr CSR values. xlen selects the pmpcfg packing: 4
// entries per register on RV32, 8 on RV64 (pmpcfg0/pmpcfg2).
func (pm *PmpManager) UpdateConfig(xlen uint32, cfgCsrs [4]uint64, addrCsrs [16]uint64) {
	pm.enabled = false

	for i := 0; i < pmpEntryCount; i++ {
		var b uint8
		if xlen == 32 {
			b = uint8(cfgCsrs[i/4] >> (8 * (i % 4)))
		} else {
			b = uint8(cfgCsrs[(i/8)*2] >> (8 * (i % 8)))
		}
		pm.cfg[i] = b
		pm.addr[i] = addrCsrs[i]
		if b&pmpAMask != 0 {
			pm.enabled = true
		}
	}
}

// entryRange returns the byte range [lo, hi) matched by entry i, and
// whether the entry is active.
func (pm *PmpManager) entryRange(i int) (lo, hi uint64, active bool) {
	mode := pm.cfg[i] & pmpAMask >> 3
	a := pm.addr[i]
	// pmpaddr bits below the grain, in 4-byte units.
	g := uint64(1)<<(pm.grainShift-2) - 1

	switch mode {
	case pmpTor:
		var prev uint64
		if i > 0 {
			prev = (pm.addr[i-1] &^ g) << 2
		}
		return prev, (a &^ g) << 2, true
	case pmpNa4:
		return a << 2, a<<2 + 4, true
	case pmpNapot:
		// Low one-bits of the address encode the region size; the bits
		// below the grain read as ones, so no region is smaller than it.
		a |= g >> 1
		size := uint64(8)
		mask := a
		for mask&1 == 1 {
			size <<= 1
			mask >>= 1
		}
		base := (a &^ (size>>3 - 1)) << 2
		return base, base + size, true
	}
	return 0, 0, false
}

// IsAllowed checks whether an access of the given kind at the given
// privilege may touch the physical address.
func (pm *PmpManager) IsAllowed(addr uint64, kind AccessKind, priv PrivMode) bool {
	for i := 0; i < pmpEntryCount; i++ {
		lo, hi, active := pm.entryRange(i)
		if !active || addr < lo || addr >= hi {
			continue
		}

		cfg := pm.cfg[i]
		// Unlocked entries do not constrain machine mode.
		if priv == PrivMachine && cfg&pmpL == 0 {
			return true
		}
		switch kind {
		case AccessRead:
			return cfg&pmpR != 0
		case AccessWrite:
			return cfg&pmpW != 0
		case AccessExec:
			return cfg&pmpX != 0
		}
	}

	// No match: machine mode is allowed, lower modes are denied when any
	// entry is active.
	if priv == PrivMachine {
		return true
	}
	return !pm.enabled
}
