package cpu

// pattern matches one instruction family: the word belongs to the
// family when word&mask == value. The table is searched in order, so
// narrow patterns precede broad ones.
type pattern struct {
	mask  uint32
	value uint32
	name  string
	// exec runs the instruction. It returns true when it assigned
	// the program counter itself.
	exec func(c *CPU, w uint32) bool
}

// patterns is the decode table. System and branch forms come first,
// then the data-processing and memory families.
var patterns = []pattern{
	{0xFFFFF01F, 0xD503201F, "hint", execHint},
	{0xFFFFF09F, 0xD503309F, "barrier", execHint},
	{0xFFFFFC1F, 0xD65F0000, "ret", execRet},
	{0xFFFFFC1F, 0xD61F0000, "br", execBr},
	{0xFFFFFC1F, 0xD63F0000, "blr", execBlr},
	{0xFFE0001F, 0xD4000001, "svc", execSvc},
	{0xFF000010, 0x54000000, "b.cond", execBCond},
	{0x7E000000, 0x34000000, "cbz", execCompareBranch},
	{0x7C000000, 0x14000000, "b", execBranch},
	{0x1F800000, 0x12800000, "mov", execMoveWide},
	{0x1F000000, 0x11000000, "addsub-imm", execAddSubImm},
	{0x3B000000, 0x18000000, "ldr-literal", execLoadLiteral},
	{0x3F200400, 0x38000400, "ldst-index", execLoadStoreIndexed},
	{0x3F000000, 0x39000000, "ldst-off", execLoadStoreUnsigned},
	{0x3F800000, 0x28800000, "ldstp-post", execPairPost},
	{0x3F800000, 0x29800000, "ldstp-pre", execPairPre},
	{0x3F800000, 0x29000000, "ldstp", execPairSigned},
	{0x1F200000, 0x0B000000, "addsub-reg", execAddSubReg},
	{0x1F000000, 0x0A000000, "logic-reg", execLogicReg},
	{0x7FE08000, 0x1B000000, "madd", execMulAdd},
	{0x7FE00000, 0x1AC00000, "div-shift", execDivShift},
}

// Field accessors shared by the handlers.

func rd(w uint32) int { return int(w & 31) }
func rn(w uint32) int { return int(w>>5) & 31 }
func rm(w uint32) int { return int(w>>16) & 31 }

// sext sign-extends the low bits of v.
func sext(v uint32, bits uint) int64 {
	shift := 64 - bits
	return int64(uint64(v)<<shift) >> shift
}

// shiftedReg applies the optional shift of a register-form operand.
func shiftedReg(v uint64, w uint32, wide bool) uint64 {
	amt := uint(w>>10) & 0x3F
	if amt == 0 {
		return v
	}
	datasize := uint(64)
	if !wide {
		datasize = 32
		v &= 0xFFFFFFFF
	}
	amt %= datasize
	switch (w >> 22) & 3 {
	case 0: // lsl
		v <<= amt
	case 1: // lsr
		v >>= amt
	case 2: // asr
		if wide {
			v = uint64(int64(v) >> amt)
		} else {
			v = uint64(uint32(int32(uint32(v)) >> amt))
		}
	case 3: // ror
		if wide {
			v = v>>amt | v<<(64-amt)
		} else {
			u := uint32(v)
			v = uint64(u>>amt | u<<(32-amt))
		}
	}
	return v
}
