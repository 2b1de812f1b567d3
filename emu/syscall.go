package emu

import (
	"io"
	"os"
)

// RISC-V Linux/newlib system call numbers.
const (
	sysClose        uint64 = 57
	sysLseek        uint64 = 62
	sysRead         uint64 = 63
	sysWrite        uint64 = 64
	sysFstat        uint64 = 80
	sysExit         uint64 = 93
	sysExitGroup    uint64 = 94
	sysBrk          uint64 = 214
	sysOpen         uint64 = 1024
	sysGettimeofday uint64 = 169
)

// Linux error numbers returned to the simulated program.
const (
	errEBADF  = 9
	errEINVAL = 22
	errENOSYS = 38
)

// Syscall translates a subset of Linux/newlib ecalls into host
// operations. RISC-V convention: number in a7 (x17), arguments in
// a0-a5 (x10-x15), result in a0.
type Syscall struct {
	hart *Hart
	fds  *fdTable

	stdin io.Reader

	brkBase  uint64
	brkValid bool
}

// NewSyscall creates a syscall translator bound to a hart.
func NewSyscall(hart *Hart) *Syscall {
	return &Syscall{hart: hart, fds: newFdTable()}
}

// SetStdin directs the read syscall's fd 0 to r.
func (s *Syscall) SetStdin(r io.Reader) { s.stdin = r }

const (
	regA0 = 10
	regA1 = 11
	regA2 = 12
	regA7 = 17
)

func (s *Syscall) setResult(v uint64) {
	s.hart.writeReg(regA0, v)
}

func (s *Syscall) setError(errno int64) {
	s.hart.writeReg(regA0, uint64(-errno))
}

// Emulate executes the system call selected by the hart's registers.
// It returns true when the ecall was consumed (no trap should be
// raised).
func (s *Syscall) Emulate() bool {
	h := s.hart
	num := h.readReg(regA7)

	switch num {
	case sysExit, sysExitGroup:
		h.targetProgFinished = true
		h.exitReason = StopExit
		h.exitCode = h.readReg(regA0)
	case sysRead:
		s.emulateRead()
	case sysWrite:
		s.emulateWrite()
	case sysOpen:
		s.emulateOpen()
	case sysClose:
		s.emulateClose()
	case sysLseek:
		s.emulateLseek()
	case sysFstat:
		s.emulateFstat()
	case sysBrk:
		s.emulateBrk()
	case sysGettimeofday:
		// Deterministic: report time as the retired-instruction count
		// in microseconds.
		s.writeTimeval(h.readReg(regA0), h.instCounter)
		s.setResult(0)
	default:
		s.setError(errENOSYS)
	}
	return true
}

func (s *Syscall) readBuffer(addr, size uint64) []byte {
	buf := make([]byte, size)
	for i := uint64(0); i < size; i++ {
		v, err := s.hart.memory.Peek(addr+i, 1)
		if err != 0 {
			return buf[:i]
		}
		buf[i] = byte(v)
	}
	return buf
}

func (s *Syscall) writeBuffer(addr uint64, data []byte) {
	for i, b := range data {
		s.hart.memory.Poke(addr+uint64(i), 1, uint64(b), true)
	}
}

func (s *Syscall) writeTimeval(addr, usecs uint64) {
	s.hart.memory.Poke(addr, 8, usecs/1000000, true)
	s.hart.memory.Poke(addr+8, 8, usecs%1000000, true)
}

func (s *Syscall) emulateRead() {
	h := s.hart
	fd, bufAddr, count := h.readReg(regA0), h.readReg(regA1), h.readReg(regA2)

	if fd == 0 {
		if s.stdin == nil {
			s.setResult(0)
			return
		}
		buf := make([]byte, count)
		n, err := s.stdin.Read(buf)
		if err != nil && n == 0 {
			s.setResult(0)
			return
		}
		s.writeBuffer(bufAddr, buf[:n])
		s.setResult(uint64(n))
		return
	}

	e, ok := s.fds.get(fd)
	if !ok || e.hostFile == nil {
		s.setError(errEBADF)
		return
	}
	buf := make([]byte, count)
	n, err := e.hostFile.Read(buf)
	if err != nil && n == 0 {
		s.setResult(0)
		return
	}
	s.writeBuffer(bufAddr, buf[:n])
	s.setResult(uint64(n))
}

func (s *Syscall) emulateWrite() {
	h := s.hart
	fd, bufAddr, count := h.readReg(regA0), h.readReg(regA1), h.readReg(regA2)
	buf := s.readBuffer(bufAddr, count)

	switch fd {
	case 1, 2:
		w := h.consoleOut
		if w == nil {
			w = os.Stdout
		}
		n, err := w.Write(buf)
		if err != nil {
			s.setError(errEBADF)
			return
		}
		s.setResult(uint64(n))
	default:
		e, ok := s.fds.get(fd)
		if !ok || e.hostFile == nil {
			s.setError(errEBADF)
			return
		}
		n, err := e.hostFile.Write(buf)
		if err != nil {
			s.setError(errEBADF)
			return
		}
		s.setResult(uint64(n))
	}
}

func (s *Syscall) emulateOpen() {
	h := s.hart
	pathAddr, flags, mode := h.readReg(regA0), h.readReg(regA1), h.readReg(regA2)

	var path []byte
	for {
		v, err := h.memory.Peek(pathAddr+uint64(len(path)), 1)
		if err != 0 || v == 0 || len(path) > 4096 {
			break
		}
		path = append(path, byte(v))
	}

	fd, err := s.fds.openFile(string(path), int(flags), os.FileMode(mode))
	if err != nil {
		s.setError(errEINVAL)
		return
	}
	s.setResult(fd)
}

func (s *Syscall) emulateClose() {
	if err := s.fds.closeFd(s.hart.readReg(regA0)); err != nil {
		s.setError(errEBADF)
		return
	}
	s.setResult(0)
}

func (s *Syscall) emulateLseek() {
	h := s.hart
	fd, offset, whence := h.readReg(regA0), int64(h.readReg(regA1)), int(h.readReg(regA2))

	e, ok := s.fds.get(fd)
	if !ok || e.hostFile == nil {
		s.setError(errEBADF)
		return
	}
	pos, err := e.hostFile.Seek(offset, whence)
	if err != nil {
		s.setError(errEINVAL)
		return
	}
	s.setResult(uint64(pos))
}

func (s *Syscall) emulateFstat() {
	h := s.hart
	fd, statAddr := h.readReg(regA0), h.readReg(regA1)

	e, ok := s.fds.get(fd)
	if !ok {
		s.setError(errEBADF)
		return
	}

	var size int64
	var mode uint64
	if fd <= 2 {
		info := &stdioFileInfo{name: e.path}
		mode = uint64(info.Mode())
		size = info.Size()
	} else if e.hostFile != nil {
		info, err := e.hostFile.Stat()
		if err != nil {
			s.setError(errEBADF)
			return
		}
		size = info.Size()
		mode = uint64(info.Mode())
	}

	// Minimal struct stat: st_mode at offset 16, st_size at offset 48
	// (RISC-V Linux layout).
	for i := uint64(0); i < 128; i += 8 {
		h.memory.Poke(statAddr+i, 8, 0, true)
	}
	h.memory.Poke(statAddr+16, 4, mode, true)
	h.memory.Poke(statAddr+48, 8, uint64(size), true)
	s.setResult(0)
}

func (s *Syscall) emulateBrk() {
	h := s.hart
	addr := h.readReg(regA0)

	if !s.brkValid {
		s.brkBase = addr
		s.brkValid = true
	}
	if addr == 0 {
		s.setResult(s.brkBase)
		return
	}
	s.brkBase = addr
	s.setResult(addr)
}
