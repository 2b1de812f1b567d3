package emu

// CsrNum is a CSR address in the 12-bit CSR space.
type CsrNum uint32

// CSR addresses.
const (
	// User trap handling (N extension).
	CsrUstatus  CsrNum = 0x000
	CsrUie      CsrNum = 0x004
	CsrUtvec    CsrNum = 0x005
	CsrUscratch CsrNum = 0x040
	CsrUepc     CsrNum = 0x041
	CsrUcause   CsrNum = 0x042
	CsrUtval    CsrNum = 0x043
	CsrUip      CsrNum = 0x044

	// User floating point.
	CsrFflags CsrNum = 0x001
	CsrFrm    CsrNum = 0x002
	CsrFcsr   CsrNum = 0x003

	// User counters.
	CsrCycle   CsrNum = 0xc00
	CsrTime    CsrNum = 0xc01
	CsrInstret CsrNum = 0xc02

	// Supervisor.
	CsrSstatus    CsrNum = 0x100
	CsrSedeleg    CsrNum = 0x102
	CsrSideleg    CsrNum = 0x103
	CsrSie        CsrNum = 0x104
	CsrStvec      CsrNum = 0x105
	CsrScounteren CsrNum = 0x106
	CsrSscratch   CsrNum = 0x140
	CsrSepc       CsrNum = 0x141
	CsrScause     CsrNum = 0x142
	CsrStval      CsrNum = 0x143
	CsrSip        CsrNum = 0x144
	CsrSatp       CsrNum = 0x180

	// Machine information.
	CsrMvendorid CsrNum = 0xf11
	CsrMarchid   CsrNum = 0xf12
	CsrMimpid    CsrNum = 0xf13
	CsrMhartid   CsrNum = 0xf14

	// Machine trap setup/handling.
	CsrMstatus       CsrNum = 0x300
	CsrMisa          CsrNum = 0x301
	CsrMedeleg       CsrNum = 0x302
	CsrMideleg       CsrNum = 0x303
	CsrMie           CsrNum = 0x304
	CsrMtvec         CsrNum = 0x305
	CsrMcounteren    CsrNum = 0x306
	CsrMcountinhibit CsrNum = 0x320
	CsrMscratch      CsrNum = 0x340
	CsrMepc          CsrNum = 0x341
	CsrMcause        CsrNum = 0x342
	CsrMtval         CsrNum = 0x343
	CsrMip           CsrNum = 0x344

	// Physical memory protection.
	CsrPmpcfg0   CsrNum = 0x3a0
	CsrPmpcfg1   CsrNum = 0x3a1
	CsrPmpcfg2   CsrNum = 0x3a2
	CsrPmpcfg3   CsrNum = 0x3a3
	CsrPmpaddr0  CsrNum = 0x3b0
	CsrPmpaddr15 CsrNum = 0x3bf

	// Machine counters.
	CsrMcycle        CsrNum = 0xb00
	CsrMinstret      CsrNum = 0xb02
	CsrMhpmcounter3  CsrNum = 0xb03
	CsrMhpmcounter31 CsrNum = 0xb1f
	CsrMhpmevent3    CsrNum = 0x323
	CsrMhpmevent31   CsrNum = 0x33f

	// Debug triggers.
	CsrTselect CsrNum = 0x7a0
	CsrTdata1  CsrNum = 0x7a1
	CsrTdata2  CsrNum = 0x7a2
	CsrTdata3  CsrNum = 0x7a3

	// Debug mode.
	CsrDcsr     CsrNum = 0x7b0
	CsrDpc      CsrNum = 0x7b1
	CsrDscratch CsrNum = 0x7b2

	// Vendor.
	CsrMhartstart CsrNum = 0x7fc // hart-start bit mask, writable by hart 0
	CsrMscause    CsrNum = 0x7ff // secondary exception cause
	CsrMdseac     CsrNum = 0xfc0 // double-bit-error/imprecise exception address
)

// mstatus bit fields.
const (
	MstatusUIE  uint64 = 1 << 0
	MstatusSIE  uint64 = 1 << 1
	MstatusMIE  uint64 = 1 << 3
	MstatusUPIE uint64 = 1 << 4
	MstatusSPIE uint64 = 1 << 5
	MstatusMPIE uint64 = 1 << 7
	MstatusSPP  uint64 = 1 << 8
	MstatusMPP  uint64 = 3 << 11
	MstatusFS   uint64 = 3 << 13
	MstatusXS   uint64 = 3 << 15
	MstatusMPRV uint64 = 1 << 17
	MstatusSUM  uint64 = 1 << 18
	MstatusMXR  uint64 = 1 << 19
	MstatusTVM  uint64 = 1 << 20
	MstatusTW   uint64 = 1 << 21
	MstatusTSR  uint64 = 1 << 22

	MstatusMPPShift = 11
	MstatusFSShift  = 13
)

// mip/mie interrupt bits.
const (
	MipUSIP uint64 = 1 << 0
	MipSSIP uint64 = 1 << 1
	MipMSIP uint64 = 1 << 3
	MipUTIP uint64 = 1 << 4
	MipSTIP uint64 = 1 << 5
	MipMTIP uint64 = 1 << 7
	MipUEIP uint64 = 1 << 8
	MipSEIP uint64 = 1 << 9
	MipMEIP uint64 = 1 << 11
)

// InterruptCause enumerates interrupt cause numbers.
type InterruptCause uint32

// Interrupt causes.
const (
	IntUserSoft  InterruptCause = 0
	IntSupSoft   InterruptCause = 1
	IntMachSoft  InterruptCause = 3
	IntUserTimer InterruptCause = 4
	IntSupTimer  InterruptCause = 5
	IntMachTimer InterruptCause = 7
	IntUserExt   InterruptCause = 8
	IntSupExt    InterruptCause = 9
	IntMachExt   InterruptCause = 11
)

// ExceptionCause enumerates synchronous exception cause numbers.
type ExceptionCause uint32

// Exception causes.
const (
	ExcInstAddrMisal  ExceptionCause = 0
	ExcInstAccFault   ExceptionCause = 1
	ExcIllegalInst    ExceptionCause = 2
	ExcBreakpoint     ExceptionCause = 3
	ExcLoadAddrMisal  ExceptionCause = 4
	ExcLoadAccFault   ExceptionCause = 5
	ExcStoreAddrMisal ExceptionCause = 6
	ExcStoreAccFault  ExceptionCause = 7
	ExcEcallFromU     ExceptionCause = 8
	ExcEcallFromS     ExceptionCause = 9
	ExcEcallFromM     ExceptionCause = 11
	ExcInstPageFault  ExceptionCause = 12
	ExcLoadPageFault  ExceptionCause = 13
	ExcStorePageFault ExceptionCause = 15
	ExcNone           ExceptionCause = 0xffffffff
)

// SecondaryCause carries vendor-specific trap diagnostics.
type SecondaryCause uint32

// Secondary causes.
const (
	SecCauseNone SecondaryCause = iota
	SecCauseFetchOutOfBounds
	SecCauseFetchMemProtection
	SecCauseLoadOutOfBounds
	SecCauseLoadMemProtection
	SecCauseStoreOutOfBounds
	SecCauseStoreMemProtection
	SecCauseImpreciseStore
	SecCauseImpreciseLoad
	SecCauseAmoOutsideDccm
	SecCauseTriggerHit
)

// NmiCause identifies the source of a non-maskable interrupt.
type NmiCause uint32

// NMI causes.
const (
	NmiUnknown        NmiCause = 0
	NmiExternal       NmiCause = 1
	NmiStoreException NmiCause = 2
	NmiLoadException  NmiCause = 3
)

// PrivMode is a RISC-V privilege mode.
type PrivMode uint8

// Privilege modes, ordered least to most privileged.
const (
	PrivUser       PrivMode = 0
	PrivSupervisor PrivMode = 1
	PrivMachine    PrivMode = 3
)

func (p PrivMode) String() string {
	switch p {
	case PrivUser:
		return "user"
	case PrivSupervisor:
		return "supervisor"
	case PrivMachine:
		return "machine"
	}
	return "reserved"
}

// FpStatus is the mstatus.FS field encoding.
type FpStatus uint8

// FS field values.
const (
	FsOff     FpStatus = 0
	FsInitial FpStatus = 1
	FsClean   FpStatus = 2
	FsDirty   FpStatus = 3
)

// FCSR fields.
const (
	FcsrNX uint64 = 1 << 0 // inexact
	FcsrUF uint64 = 1 << 1 // underflow
	FcsrOF uint64 = 1 << 2 // overflow
	FcsrDZ uint64 = 1 << 3 // divide by zero
	FcsrNV uint64 = 1 << 4 // invalid operation

	FcsrFlagsMask uint64 = 0x1f
	FcsrRmShift          = 5
	FcsrRmMask    uint64 = 0x7 << FcsrRmShift
)

// RoundingMode is the FP rounding mode encoding.
type RoundingMode uint32

// Rounding modes.
const (
	RmRNE RoundingMode = 0 // round to nearest, ties to even
	RmRTZ RoundingMode = 1 // round toward zero
	RmRDN RoundingMode = 2 // round down
	RmRUP RoundingMode = 3 // round up
	RmRMM RoundingMode = 4 // round to nearest, ties to max magnitude
	RmDYN RoundingMode = 7 // use frm
)
