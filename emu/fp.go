package emu

import (
	"math"

	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/mem"
)

// Floating-point execution. Values are kept in 64-bit registers with
// single-precision results NaN-boxed. Accrued exception flags are OR'd
// into FCSR; any FP register write marks mstatus.FS dirty.

const (
	canonicalNan32 = uint32(0x7fc00000)
	canonicalNan64 = uint64(0x7ff8000000000000)
)

// fpEnabled reports whether FP instructions may execute: the extension
// is on and mstatus.FS is not Off.
func (h *Hart) fpEnabled() bool {
	return (h.cfg.EnableF || h.cfg.EnableD) && h.mstatusFs != FsOff
}

// effectiveRm resolves the rounding mode of an instruction: the rm field,
// or FCSR.frm when the field is DYN. The boolean is false for reserved
// modes.
func (h *Hart) effectiveRm(rm uint32) (RoundingMode, bool) {
	mode := RoundingMode(rm)
	if mode == RmDYN {
		mode = RoundingMode(h.fcsrValue & FcsrRmMask >> FcsrRmShift)
	}
	return mode, mode <= RmRMM
}

// orFpFlags accrues exception flags into FCSR.fflags.
func (h *Hart) orFpFlags(flags uint64) {
	if flags == 0 {
		return
	}
	h.csRegs.Poke(CsrFcsr, h.fcsrValue|flags&FcsrFlagsMask)
	h.updateCachedFcsr()
}

func isNan32(b uint32) bool {
	return b&0x7f800000 == 0x7f800000 && b&0x007fffff != 0
}

func isSNan32(b uint32) bool {
	return isNan32(b) && b&0x00400000 == 0
}

func isNan64(b uint64) bool {
	return b&0x7ff0000000000000 == 0x7ff0000000000000 && b&0x000fffffffffffff != 0
}

func isSNan64(b uint64) bool {
	return isNan64(b) && b&0x0008000000000000 == 0
}

// roundToInt applies a rounding mode to a float value.
func roundToInt(v float64, rm RoundingMode) float64 {
	switch rm {
	case RmRTZ:
		return math.Trunc(v)
	case RmRDN:
		return math.Floor(v)
	case RmRUP:
		return math.Ceil(v)
	case RmRMM:
		return math.Round(v)
	}
	return math.RoundToEven(v)
}

// execFpLoad implements flw/fld: the data path of a load with an FP
// destination.
func (h *Hart) execFpLoad(di *insts.DecodedInst, spec loadSpec) {
	if !h.fpEnabled() {
		h.illegalInst(di)
		return
	}

	vaddr := (h.readReg(di.Rs1) + uint64(int64(di.Imm))) & h.xlenMask
	h.ldStAddr, h.ldStAddrValid = vaddr, true

	armed := h.ldStTriggersArmed()
	if armed && h.csRegs.Triggers().LdStAddrTripped(vaddr, TimingBefore, true, h.privMode) {
		h.takeTriggerAction(h.currPc)
		return
	}

	paddr, ok := h.dataAddress(vaddr, spec.size, true)
	if !ok {
		return
	}

	value, err := h.memory.Read(paddr, spec.size)
	if err != mem.ErrNone {
		h.raiseException(ExcLoadAccFault, vaddr, SecCauseLoadMemProtection)
		return
	}

	if spec.fpDouble {
		h.fpRegs.WriteRaw(di.Rd, value)
	} else {
		h.fpRegs.WriteRaw(di.Rd, nanBoxMask|value)
	}
	h.markFsDirty()
}

// execFp dispatches the computational FP instructions.
func (h *Hart) execFp(di *insts.DecodedInst) {
	if !h.fpEnabled() {
		h.illegalInst(di)
		return
	}

	ent := di.Op.Entry()
	if ent.Ext == insts.ExtD && !h.cfg.EnableD {
		h.illegalInst(di)
		return
	}

	if fpNeedsRm(di.Op) {
		if _, ok := h.effectiveRm(di.Rm); !ok {
			h.illegalInst(di)
			return
		}
	}

	if ent.Ext == insts.ExtF || isSingleOp(di.Op) {
		h.execFpSingle(di)
	} else {
		h.execFpDouble(di)
	}
}

// fpNeedsRm reports whether an op consumes the rounding-mode field.
func fpNeedsRm(op insts.Op) bool {
	switch op {
	case insts.OpFSGNJS, insts.OpFSGNJNS, insts.OpFSGNJXS,
		insts.OpFSGNJD, insts.OpFSGNJND, insts.OpFSGNJXD,
		insts.OpFMINS, insts.OpFMAXS, insts.OpFMIND, insts.OpFMAXD,
		insts.OpFEQS, insts.OpFLTS, insts.OpFLES,
		insts.OpFEQD, insts.OpFLTD, insts.OpFLED,
		insts.OpFCLASSS, insts.OpFCLASSD,
		insts.OpFMVXW, insts.OpFMVWX, insts.OpFMVXD, insts.OpFMVDX:
		return false
	}
	return true
}

// isSingleOp distinguishes the single-precision ops within the F
// extension grouping.
func isSingleOp(op insts.Op) bool {
	switch op {
	case insts.OpFCVTSD:
		return true
	}
	return op.Entry().Ext == insts.ExtF
}

func (h *Hart) writeFpSingle(rd uint32, v float32, flags uint64) {
	h.fpRegs.WriteSingle(rd, v)
	h.orFpFlags(flags)
	h.markFsDirty()
}

func (h *Hart) writeFpDouble(rd uint32, v float64, flags uint64) {
	h.fpRegs.WriteDouble(rd, v)
	h.orFpFlags(flags)
	h.markFsDirty()
}

// arithFlags32 derives the accrued flags of a single-precision result.
func arithFlags32(a, b uint32, result float32) uint64 {
	var flags uint64
	if isSNan32(a) || isSNan32(b) {
		flags |= FcsrNV
	}
	r := math.Float32bits(result)
	if isNan32(r) && !isNan32(a) && !isNan32(b) {
		flags |= FcsrNV
	}
	if r&0x7fffffff == 0x7f800000 && !isNan32(a) && !isNan32(b) &&
		a&0x7fffffff != 0x7f800000 && b&0x7fffffff != 0x7f800000 {
		flags |= FcsrOF | FcsrNX
	}
	return flags
}

// arithFlags64 derives the accrued flags of a double-precision result.
func arithFlags64(a, b uint64, result float64) uint64 {
	var flags uint64
	if isSNan64(a) || isSNan64(b) {
		flags |= FcsrNV
	}
	r := math.Float64bits(result)
	if isNan64(r) && !isNan64(a) && !isNan64(b) {
		flags |= FcsrNV
	}
	if r&^uint64(1<<63) == 0x7ff0000000000000 && !isNan64(a) && !isNan64(b) &&
		a&^uint64(1<<63) != 0x7ff0000000000000 && b&^uint64(1<<63) != 0x7ff0000000000000 {
		flags |= FcsrOF | FcsrNX
	}
	return flags
}

func quiet32(v float32) float32 {
	if v != v {
		return math.Float32frombits(canonicalNan32)
	}
	return v
}

func quiet64(v float64) float64 {
	if math.IsNaN(v) {
		return math.Float64frombits(canonicalNan64)
	}
	return v
}

func (h *Hart) execFpSingle(di *insts.DecodedInst) {
	f1 := h.fpRegs.ReadSingle(di.Rs1)
	f2 := h.fpRegs.ReadSingle(di.Rs2)
	b1 := math.Float32bits(f1)
	b2 := math.Float32bits(f2)

	switch di.Op {
	case insts.OpFADDS:
		r := f1 + f2
		h.writeFpSingle(di.Rd, quiet32(r), arithFlags32(b1, b2, r))
	case insts.OpFSUBS:
		r := f1 - f2
		h.writeFpSingle(di.Rd, quiet32(r), arithFlags32(b1, b2, r))
	case insts.OpFMULS:
		r := f1 * f2
		h.writeFpSingle(di.Rd, quiet32(r), arithFlags32(b1, b2, r))
	case insts.OpFDIVS:
		r := f1 / f2
		flags := arithFlags32(b1, b2, r)
		if f2 == 0 && !isNan32(b1) && f1 != 0 {
			flags = FcsrDZ // infinite result from the zero divisor is exact
		}
		h.writeFpSingle(di.Rd, quiet32(r), flags)
	case insts.OpFSQRTS:
		var flags uint64
		if f1 < 0 || isSNan32(b1) {
			flags |= FcsrNV
		}
		h.writeFpSingle(di.Rd, quiet32(float32(math.Sqrt(float64(f1)))), flags)

	case insts.OpFMADDS, insts.OpFMSUBS, insts.OpFNMSUBS, insts.OpFNMADDS:
		h.execFmaSingle(di)

	case insts.OpFSGNJS:
		h.writeFpSingle(di.Rd, math.Float32frombits(b1&0x7fffffff|b2&0x80000000), 0)
	case insts.OpFSGNJNS:
		h.writeFpSingle(di.Rd, math.Float32frombits(b1&0x7fffffff|^b2&0x80000000), 0)
	case insts.OpFSGNJXS:
		h.writeFpSingle(di.Rd, math.Float32frombits(b1^b2&0x80000000), 0)

	case insts.OpFMINS, insts.OpFMAXS:
		h.execFpMinMaxSingle(di, f1, f2, b1, b2)

	case insts.OpFEQS:
		var flags uint64
		if isSNan32(b1) || isSNan32(b2) {
			flags = FcsrNV
		}
		h.writeBool(di.Rd, f1 == f2)
		h.orFpFlags(flags)
	case insts.OpFLTS:
		var flags uint64
		if isNan32(b1) || isNan32(b2) {
			flags = FcsrNV
		}
		h.writeBool(di.Rd, f1 < f2)
		h.orFpFlags(flags)
	case insts.OpFLES:
		var flags uint64
		if isNan32(b1) || isNan32(b2) {
			flags = FcsrNV
		}
		h.writeBool(di.Rd, f1 <= f2)
		h.orFpFlags(flags)

	case insts.OpFCLASSS:
		h.writeReg(di.Rd, classifySingle(b1))

	case insts.OpFCVTWS, insts.OpFCVTWUS, insts.OpFCVTLS, insts.OpFCVTLUS:
		h.execFpToInt(di, float64(f1), isNan32(b1))
	case insts.OpFCVTSW:
		h.writeFpSingle(di.Rd, float32(int32(h.readReg(di.Rs1))), 0)
	case insts.OpFCVTSWU:
		h.writeFpSingle(di.Rd, float32(uint32(h.readReg(di.Rs1))), 0)
	case insts.OpFCVTSL:
		h.writeFpSingle(di.Rd, float32(int64(h.readReg(di.Rs1))), 0)
	case insts.OpFCVTSLU:
		h.writeFpSingle(di.Rd, float32(h.readReg(di.Rs1)), 0)
	case insts.OpFCVTSD:
		d := h.fpRegs.ReadDouble(di.Rs1)
		var flags uint64
		if isSNan64(math.Float64bits(d)) {
			flags = FcsrNV
		}
		h.writeFpSingle(di.Rd, quiet32(float32(d)), flags)

	case insts.OpFMVXW:
		h.writeReg(di.Rd, uint64(int64(int32(uint32(h.fpRegs.ReadRaw(di.Rs1))))))
	case insts.OpFMVWX:
		h.fpRegs.WriteRaw(di.Rd, nanBoxMask|h.readReg(di.Rs1)&0xffffffff)
		h.markFsDirty()
	}
}

func (h *Hart) execFmaSingle(di *insts.DecodedInst) {
	f1 := float64(h.fpRegs.ReadSingle(di.Rs1))
	f2 := float64(h.fpRegs.ReadSingle(di.Rs2))
	f3 := float64(h.fpRegs.ReadSingle(di.Rs3))

	var r float64
	switch di.Op {
	case insts.OpFMADDS:
		r = math.FMA(f1, f2, f3)
	case insts.OpFMSUBS:
		r = math.FMA(f1, f2, -f3)
	case insts.OpFNMSUBS:
		r = math.FMA(-f1, f2, f3)
	case insts.OpFNMADDS:
		r = -math.FMA(f1, f2, f3)
	}

	var flags uint64
	if math.IsNaN(r) && !math.IsNaN(f1) && !math.IsNaN(f2) && !math.IsNaN(f3) {
		flags |= FcsrNV
	}
	h.writeFpSingle(di.Rd, quiet32(float32(r)), flags)
}

func (h *Hart) execFpMinMaxSingle(di *insts.DecodedInst, f1, f2 float32, b1, b2 uint32) {
	var flags uint64
	if isSNan32(b1) || isSNan32(b2) {
		flags = FcsrNV
	}

	var r float32
	switch {
	case isNan32(b1) && isNan32(b2):
		r = math.Float32frombits(canonicalNan32)
	case isNan32(b1):
		r = f2
	case isNan32(b2):
		r = f1
	case di.Op == insts.OpFMINS:
		if f1 < f2 || (f1 == f2 && math.Signbit(float64(f1))) {
			r = f1
		} else {
			r = f2
		}
	default:
		if f1 > f2 || (f1 == f2 && !math.Signbit(float64(f1))) {
			r = f1
		} else {
			r = f2
		}
	}
	h.writeFpSingle(di.Rd, r, flags)
}

func classifySingle(b uint32) uint64 {
	sign := b>>31 != 0
	exp := b >> 23 & 0xff
	frac := b & 0x7fffff

	switch {
	case exp == 0xff && frac == 0:
		if sign {
			return 1 << 0 // -inf
		}
		return 1 << 7 // +inf
	case exp == 0xff:
		if b&0x00400000 == 0 {
			return 1 << 8 // signaling NaN
		}
		return 1 << 9 // quiet NaN
	case exp == 0 && frac == 0:
		if sign {
			return 1 << 3 // -0
		}
		return 1 << 4 // +0
	case exp == 0:
		if sign {
			return 1 << 2 // negative subnormal
		}
		return 1 << 5 // positive subnormal
	default:
		if sign {
			return 1 << 1 // negative normal
		}
		return 1 << 6 // positive normal
	}
}

func (h *Hart) execFpDouble(di *insts.DecodedInst) {
	f1 := h.fpRegs.ReadDouble(di.Rs1)
	f2 := h.fpRegs.ReadDouble(di.Rs2)
	b1 := math.Float64bits(f1)
	b2 := math.Float64bits(f2)

	switch di.Op {
	case insts.OpFADDD:
		r := f1 + f2
		h.writeFpDouble(di.Rd, quiet64(r), arithFlags64(b1, b2, r))
	case insts.OpFSUBD:
		r := f1 - f2
		h.writeFpDouble(di.Rd, quiet64(r), arithFlags64(b1, b2, r))
	case insts.OpFMULD:
		r := f1 * f2
		h.writeFpDouble(di.Rd, quiet64(r), arithFlags64(b1, b2, r))
	case insts.OpFDIVD:
		r := f1 / f2
		flags := arithFlags64(b1, b2, r)
		if f2 == 0 && !isNan64(b1) && f1 != 0 {
			flags = FcsrDZ // infinite result from the zero divisor is exact
		}
		h.writeFpDouble(di.Rd, quiet64(r), flags)
	case insts.OpFSQRTD:
		var flags uint64
		if f1 < 0 || isSNan64(b1) {
			flags |= FcsrNV
		}
		h.writeFpDouble(di.Rd, quiet64(math.Sqrt(f1)), flags)

	case insts.OpFMADDD, insts.OpFMSUBD, insts.OpFNMSUBD, insts.OpFNMADDD:
		h.execFmaDouble(di)

	case insts.OpFSGNJD:
		h.writeFpDouble(di.Rd, math.Float64frombits(b1&^uint64(1<<63)|b2&(1<<63)), 0)
	case insts.OpFSGNJND:
		h.writeFpDouble(di.Rd, math.Float64frombits(b1&^uint64(1<<63)|^b2&(1<<63)), 0)
	case insts.OpFSGNJXD:
		h.writeFpDouble(di.Rd, math.Float64frombits(b1^b2&(1<<63)), 0)

	case insts.OpFMIND, insts.OpFMAXD:
		h.execFpMinMaxDouble(di, f1, f2, b1, b2)

	case insts.OpFEQD:
		var flags uint64
		if isSNan64(b1) || isSNan64(b2) {
			flags = FcsrNV
		}
		h.writeBool(di.Rd, f1 == f2)
		h.orFpFlags(flags)
	case insts.OpFLTD:
		var flags uint64
		if isNan64(b1) || isNan64(b2) {
			flags = FcsrNV
		}
		h.writeBool(di.Rd, f1 < f2)
		h.orFpFlags(flags)
	case insts.OpFLED:
		var flags uint64
		if isNan64(b1) || isNan64(b2) {
			flags = FcsrNV
		}
		h.writeBool(di.Rd, f1 <= f2)
		h.orFpFlags(flags)

	case insts.OpFCLASSD:
		h.writeReg(di.Rd, classifyDouble(b1))

	case insts.OpFCVTWD, insts.OpFCVTWUD, insts.OpFCVTLD, insts.OpFCVTLUD:
		h.execFpToInt(di, f1, isNan64(b1))
	case insts.OpFCVTDW:
		h.writeFpDouble(di.Rd, float64(int32(h.readReg(di.Rs1))), 0)
	case insts.OpFCVTDWU:
		h.writeFpDouble(di.Rd, float64(uint32(h.readReg(di.Rs1))), 0)
	case insts.OpFCVTDL:
		h.writeFpDouble(di.Rd, float64(int64(h.readReg(di.Rs1))), 0)
	case insts.OpFCVTDLU:
		h.writeFpDouble(di.Rd, float64(h.readReg(di.Rs1)), 0)
	case insts.OpFCVTDS:
		s := h.fpRegs.ReadSingle(di.Rs1)
		var flags uint64
		if isSNan32(math.Float32bits(s)) {
			flags = FcsrNV
		}
		h.writeFpDouble(di.Rd, quiet64(float64(s)), flags)

	case insts.OpFMVXD:
		h.writeReg(di.Rd, h.fpRegs.ReadRaw(di.Rs1))
	case insts.OpFMVDX:
		h.fpRegs.WriteRaw(di.Rd, h.readReg(di.Rs1))
		h.markFsDirty()
	}
}

func (h *Hart) execFmaDouble(di *insts.DecodedInst) {
	f1 := h.fpRegs.ReadDouble(di.Rs1)
	f2 := h.fpRegs.ReadDouble(di.Rs2)
	f3 := h.fpRegs.ReadDouble(di.Rs3)

	var r float64
	switch di.Op {
	case insts.OpFMADDD:
		r = math.FMA(f1, f2, f3)
	case insts.OpFMSUBD:
		r = math.FMA(f1, f2, -f3)
	case insts.OpFNMSUBD:
		r = math.FMA(-f1, f2, f3)
	case insts.OpFNMADDD:
		r = -math.FMA(f1, f2, f3)
	}

	var flags uint64
	if math.IsNaN(r) && !math.IsNaN(f1) && !math.IsNaN(f2) && !math.IsNaN(f3) {
		flags |= FcsrNV
	}
	h.writeFpDouble(di.Rd, quiet64(r), flags)
}

func (h *Hart) execFpMinMaxDouble(di *insts.DecodedInst, f1, f2 float64, b1, b2 uint64) {
	var flags uint64
	if isSNan64(b1) || isSNan64(b2) {
		flags = FcsrNV
	}

	var r float64
	switch {
	case isNan64(b1) && isNan64(b2):
		r = math.Float64frombits(canonicalNan64)
	case isNan64(b1):
		r = f2
	case isNan64(b2):
		r = f1
	case di.Op == insts.OpFMIND:
		if f1 < f2 || (f1 == f2 && math.Signbit(f1)) {
			r = f1
		} else {
			r = f2
		}
	default:
		if f1 > f2 || (f1 == f2 && !math.Signbit(f1)) {
			r = f1
		} else {
			r = f2
		}
	}
	h.writeFpDouble(di.Rd, r, flags)
}

func classifyDouble(b uint64) uint64 {
	sign := b>>63 != 0
	exp := b >> 52 & 0x7ff
	frac := b & 0xfffffffffffff

	switch {
	case exp == 0x7ff && frac == 0:
		if sign {
			return 1 << 0
		}
		return 1 << 7
	case exp == 0x7ff:
		if b&0x0008000000000000 == 0 {
			return 1 << 8
		}
		return 1 << 9
	case exp == 0 && frac == 0:
		if sign {
			return 1 << 3
		}
		return 1 << 4
	case exp == 0:
		if sign {
			return 1 << 2
		}
		return 1 << 5
	default:
		if sign {
			return 1 << 1
		}
		return 1 << 6
	}
}

// execFpToInt implements the float-to-integer conversions with RISC-V
// clamping: out-of-range and NaN inputs saturate and set NV.
func (h *Hart) execFpToInt(di *insts.DecodedInst, v float64, isNan bool) {
	rm, _ := h.effectiveRm(di.Rm)
	rounded := roundToInt(v, rm)

	var flags uint64
	if rounded != v && !isNan {
		flags |= FcsrNX
	}

	var result uint64
	switch di.Op {
	case insts.OpFCVTWS, insts.OpFCVTWD:
		switch {
		case isNan:
			result, flags = uint64(int64(math.MaxInt32)), flags|FcsrNV
		case rounded > math.MaxInt32:
			result, flags = uint64(int64(math.MaxInt32)), flags|FcsrNV
		case rounded < math.MinInt32:
			minInt32 := int32(math.MinInt32)
			result, flags = uint64(int64(minInt32)), flags|FcsrNV
		default:
			result = uint64(int64(int32(rounded)))
		}
	case insts.OpFCVTWUS, insts.OpFCVTWUD:
		switch {
		case isNan:
			maxUint32 := uint32(math.MaxUint32)
			result, flags = uint64(int64(int32(maxUint32))), flags|FcsrNV
		case rounded > math.MaxUint32:
			maxUint32 := uint32(math.MaxUint32)
			result, flags = uint64(int64(int32(maxUint32))), flags|FcsrNV
		case rounded < 0:
			result, flags = 0, flags|FcsrNV
		default:
			result = uint64(int64(int32(uint32(rounded))))
		}
	case insts.OpFCVTLS, insts.OpFCVTLD:
		switch {
		case isNan:
			result, flags = uint64(int64(math.MaxInt64)), flags|FcsrNV
		case rounded >= float64(math.MaxInt64):
			result, flags = uint64(int64(math.MaxInt64)), flags|FcsrNV
		case rounded <= float64(math.MinInt64)-1:
			minInt64 := int64(math.MinInt64)
			result, flags = uint64(minInt64), flags|FcsrNV
		default:
			result = uint64(int64(rounded))
		}
	case insts.OpFCVTLUS, insts.OpFCVTLUD:
		switch {
		case isNan:
			result, flags = math.MaxUint64, flags|FcsrNV
		case rounded >= float64(math.MaxUint64)+1:
			result, flags = math.MaxUint64, flags|FcsrNV
		case rounded < 0:
			result, flags = 0, flags|FcsrNV
		default:
			result = uint64(rounded)
		}
	}

	h.writeReg(di.Rd, result)
	h.orFpFlags(flags)
}
