package emu

import (
	"fmt"

	"github.com/sarchlab/rvsim/mem"
)

// System owns the shared memory and the ordered set of harts. Harts are
// indexed 0..N-1 with N = cores x harts-per-core. Hart 0 starts at
// reset; the others wait until hart 0 sets their bit in mhartstart.
type System struct {
	memory *mem.Memory
	harts  []*Hart
}

// NewSystem creates a system of cores*hartsPerCore harts sharing one
// memory of the given size.
func NewSystem(cores, hartsPerCore int, memSize uint64, cfg Config) *System {
	n := cores * hartsPerCore
	memory := mem.New(memSize, n)

	s := &System{memory: memory}
	for i := 0; i < n; i++ {
		s.harts = append(s.harts, NewHart(i, memory, cfg))
	}

	// Shared CSRs of secondary harts alias hart 0's.
	for i := 1; i < n; i++ {
		s.harts[i].TieSharedCsrsTo(s.harts[0])
	}

	return s
}

// Memory returns the shared memory.
func (s *System) Memory() *mem.Memory { return s.memory }

// HartCount returns the number of harts.
func (s *System) HartCount() int { return len(s.harts) }

// IthHart returns hart i, or an error if out of range.
func (s *System) IthHart(i int) (*Hart, error) {
	if i < 0 || i >= len(s.harts) {
		return nil, fmt.Errorf("hart index %d out of range [0, %d)", i, len(s.harts))
	}
	return s.harts[i], nil
}

// StartPendingHarts releases harts whose bit is set in the shared
// mhartstart CSR. Called by the driver after stepping hart 0.
func (s *System) StartPendingHarts() {
	if len(s.harts) == 0 {
		return
	}
	mask, ok := s.harts[0].CsRegs().Peek(CsrMhartstart)
	if !ok {
		return
	}
	for i, h := range s.harts {
		if !h.Started() && mask&(1<<uint(i)) != 0 {
			h.SetStarted(true)
		}
	}
}

// Reset resets every hart. Memory contents are preserved.
func (s *System) Reset(resetMemMapped bool) {
	for _, h := range s.harts {
		h.Reset(resetMemMapped)
		h.SetStarted(h.Index() == 0)
	}
}
