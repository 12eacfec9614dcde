// Package disassembler turns machine words back into assembly text.
// Word is pure: the same word always yields the same string, and for
// words the assembler produces the text re-assembles, at address
// zero, to the identical word.
package disassembler

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/vegarsten/a64vm/assembler"
)

// gp names a register in a data-processing context, where number 31
// is the zero register.
func gp(n uint32, wide bool) string {
	if n == 31 {
		if wide {
			return "xzr"
		}
		return "wzr"
	}
	if wide {
		return fmt.Sprintf("x%d", n)
	}
	return fmt.Sprintf("w%d", n)
}

// gpOrSP names a register in an addressing context, where number 31
// is the stack pointer.
func gpOrSP(n uint32, wide bool) string {
	if n == 31 {
		return "sp"
	}
	return gp(n, wide)
}

func rd(w uint32) uint32 { return w & 31 }
func rn(w uint32) uint32 { return w >> 5 & 31 }
func rm(w uint32) uint32 { return w >> 16 & 31 }

func sext(v uint32, bits uint) int64 {
	shift := 64 - bits
	return int64(uint64(v)<<shift) >> shift
}

// Word renders one instruction word. Unrecognized words come back as
// a .word directive so the output still assembles.
func Word(w uint32) string {
	switch w {
	case 0xD503201F:
		return "nop"
	case 0xD503207F:
		return "wfi"
	case 0xD503205F:
		return "wfe"
	case 0xD503209F:
		return "sev"
	case 0xD50320BF:
		return "sevl"
	}

	if w&0xFFFFF09F == 0xD503309F {
		var mn string
		switch w >> 5 & 7 {
		case 4:
			mn = "dsb"
		case 5:
			mn = "dmb"
		default:
			mn = "isb"
		}
		if opt := w >> 8 & 0xF; opt != 0xF {
			return fmt.Sprintf("%s #%d", mn, opt)
		}
		return mn
	}

	switch w & 0xFFFFFC1F {
	case 0xD65F0000:
		if rn(w) == 30 {
			return "ret"
		}
		return "ret " + gp(rn(w), true)
	case 0xD61F0000:
		return "br " + gp(rn(w), true)
	case 0xD63F0000:
		return "blr " + gp(rn(w), true)
	}

	if w&0xFFE0001C == 0xD4000000 && w&3 != 0 {
		return supervisorCall(w)
	}

	if w&0x7C000000 == 0x14000000 {
		mn := "b"
		if w>>31 != 0 {
			mn = "bl"
		}
		return fmt.Sprintf("%s #%d", mn, sext(w&0x3FFFFFF, 26)<<2)
	}

	if w&0xFF000010 == 0x54000000 {
		return fmt.Sprintf("b.%s #%d",
			assembler.CondName(int(w&0xF)), sext(w>>5&0x7FFFF, 19)<<2)
	}

	if w&0x7E000000 == 0x34000000 {
		mn := "cbz"
		if w>>24&1 == 1 {
			mn = "cbnz"
		}
		return fmt.Sprintf("%s %s, #%d",
			mn, gp(rd(w), w>>31 != 0), sext(w>>5&0x7FFFF, 19)<<2)
	}

	if w&0x1F800000 == 0x12800000 {
		return moveWide(w)
	}

	if w&0x1F000000 == 0x11000000 {
		return addSubImm(w)
	}

	if w&0x3B000000 == 0x18000000 {
		return loadLiteral(w)
	}

	if w&0x3F200400 == 0x38000400 {
		return loadStoreIndexed(w)
	}

	if w&0x3F000000 == 0x39000000 {
		return loadStoreUnsigned(w)
	}

	if w&0x3E800000 == 0x28800000 || w&0x3F800000 == 0x29000000 {
		return loadStorePair(w)
	}

	if w&0x1F200000 == 0x0B000000 {
		return addSubReg(w)
	}

	if w&0x1F000000 == 0x0A000000 {
		return logicReg(w)
	}

	if w&0x7FE08000 == 0x1B000000 {
		return mulAdd(w)
	}

	if w&0x7FE00000 == 0x1AC00000 {
		if s := divShift(w); s != "" {
			return s
		}
	}

	return fmt.Sprintf(".word 0x%08x", w)
}

func supervisorCall(w uint32) string {
	imm := uint16(w >> 5)
	switch w & 3 {
	case 2:
		return fmt.Sprintf("hvc #0x%x", imm)
	case 3:
		return fmt.Sprintf("smc #0x%x", imm)
	}
	if name, ok := assembler.ExtendedName(imm); ok {
		return name
	}
	return fmt.Sprintf("svc #0x%x", imm)
}

// moveWide prints movz and movn as the computed mov alias, which the
// assembler folds back into the same window selection.
func moveWide(w uint32) string {
	wide := w>>31 != 0
	imm := uint64(w>>5) & 0xFFFF
	shift := uint(w>>21&3) * 16
	dst := gp(rd(w), wide)
	switch w >> 29 & 3 {
	case 2: // movz
		return fmt.Sprintf("mov %s, #%d", dst, imm<<shift)
	case 0: // movn
		v := int64(^(imm << shift))
		if !wide {
			v = int64(int32(v))
		}
		if v < 0 {
			return fmt.Sprintf("mov %s, #%d", dst, v)
		}
		// A positive complemented value would fold back into movz,
		// so keep the explicit form.
		return fmt.Sprintf("movn %s, #%d", dst, v)
	case 3: // movk
		if shift != 0 {
			return fmt.Sprintf(".word 0x%08x", w)
		}
		return fmt.Sprintf("movk %s, #%d", dst, imm)
	}
	return fmt.Sprintf(".word 0x%08x", w)
}

func addSubImm(w uint32) string {
	wide := w>>31 != 0
	sub := w>>30&1 == 1
	setFlags := w>>29&1 == 1
	imm := uint64(w>>10) & 0xFFF
	if w>>22&1 == 1 {
		imm <<= 12
	}
	src := gpOrSP(rn(w), wide)
	if setFlags && rd(w) == 31 {
		mn := "cmn"
		if sub {
			mn = "cmp"
		}
		return fmt.Sprintf("%s %s, #%d", mn, src, imm)
	}
	mn := "add"
	if sub {
		mn = "sub"
	}
	if setFlags {
		mn += "s"
		return fmt.Sprintf("%s %s, %s, #%d", mn, gp(rd(w), wide), src, imm)
	}
	return fmt.Sprintf("%s %s, %s, #%d", mn, gpOrSP(rd(w), wide), src, imm)
}

func addSubReg(w uint32) string {
	wide := w>>31 != 0
	sub := w>>30&1 == 1
	setFlags := w>>29&1 == 1
	dst := gp(rd(w), wide)
	a := gp(rn(w), wide)
	b := gp(rm(w), wide)
	var s string
	switch {
	case setFlags && rd(w) == 31 && sub:
		s = fmt.Sprintf("cmp %s, %s", a, b)
	case setFlags && rd(w) == 31:
		s = fmt.Sprintf("cmn %s, %s", a, b)
	case sub && !setFlags && rn(w) == 31:
		s = fmt.Sprintf("neg %s, %s", dst, b)
	default:
		mn := "add"
		if sub {
			mn = "sub"
		}
		if setFlags {
			mn += "s"
		}
		s = fmt.Sprintf("%s %s, %s, %s", mn, dst, a, b)
	}
	return s + shiftSuffix(w)
}

func logicReg(w uint32) string {
	wide := w>>31 != 0
	invert := w>>21&1 == 1
	dst := gp(rd(w), wide)
	a := gp(rn(w), wide)
	b := gp(rm(w), wide)
	var s string
	switch opc := w >> 29 & 3; {
	case opc == 1 && !invert && rn(w) == 31 && w>>10&0x3F == 0:
		return fmt.Sprintf("mov %s, %s", dst, b)
	case opc == 1 && invert && rn(w) == 31:
		s = fmt.Sprintf("mvn %s, %s", dst, b)
	case opc == 3 && rd(w) == 31 && !invert:
		s = fmt.Sprintf("tst %s, %s", a, b)
	default:
		var mn string
		switch opc {
		case 0:
			mn = "and"
			if invert {
				mn = "bic"
			}
		case 1:
			mn = "orr"
			if invert {
				mn = "orn"
			}
		case 2:
			mn = "eor"
			if invert {
				mn = "eon"
			}
		case 3:
			mn = "ands"
			if invert {
				mn = "bics"
			}
		}
		s = fmt.Sprintf("%s %s, %s, %s", mn, dst, a, b)
	}
	return s + shiftSuffix(w)
}

// shiftSuffix renders a non-zero operand shift. The assembler never
// emits one, so this only shows up on foreign words.
func shiftSuffix(w uint32) string {
	amt := w >> 10 & 0x3F
	if amt == 0 {
		return ""
	}
	names := [4]string{"lsl", "lsr", "asr", "ror"}
	return fmt.Sprintf(", %s #%d", names[w>>22&3], amt)
}

func mulAdd(w uint32) string {
	wide := w>>31 != 0
	ra := w >> 10 & 31
	dst := gp(rd(w), wide)
	a := gp(rn(w), wide)
	b := gp(rm(w), wide)
	if ra == 31 {
		return fmt.Sprintf("mul %s, %s, %s", dst, a, b)
	}
	return fmt.Sprintf("madd %s, %s, %s, %s", dst, a, b, gp(ra, wide))
}

func divShift(w uint32) string {
	var mn string
	switch w >> 10 & 0x3F {
	case 2:
		mn = "udiv"
	case 3:
		mn = "sdiv"
	case 8:
		mn = "lsl"
	case 9:
		mn = "lsr"
	case 10:
		mn = "asr"
	case 11:
		mn = "ror"
	default:
		return ""
	}
	wide := w>>31 != 0
	return fmt.Sprintf("%s %s, %s, %s",
		mn, gp(rd(w), wide), gp(rn(w), wide), gp(rm(w), wide))
}

func loadLiteral(w uint32) string {
	off := sext(w>>5&0x7FFFF, 19) << 2
	switch w >> 30 {
	case 0:
		return fmt.Sprintf("ldr %s, #%d", gp(rd(w), false), off)
	case 1:
		return fmt.Sprintf("ldr %s, #%d", gp(rd(w), true), off)
	case 2:
		return fmt.Sprintf("ldrsw %s, #%d", gp(rd(w), true), off)
	}
	return fmt.Sprintf(".word 0x%08x", w)
}

// scalarForm names a load/store and its transfer register width from
// the size and opc fields. ok is false for the prefetch encodings.
func scalarForm(size, opc uint32) (mn string, wide bool, ok bool) {
	switch size {
	case 0:
		switch opc {
		case 0:
			return "strb", false, true
		case 1:
			return "ldrb", false, true
		case 2:
			return "ldrsb", true, true
		case 3:
			return "ldrsb", false, true
		}
	case 1:
		switch opc {
		case 0:
			return "strh", false, true
		case 1:
			return "ldrh", false, true
		case 2:
			return "ldrsh", true, true
		case 3:
			return "ldrsh", false, true
		}
	case 2:
		switch opc {
		case 0:
			return "str", false, true
		case 1:
			return "ldr", false, true
		case 2:
			return "ldrsw", true, true
		}
	case 3:
		switch opc {
		case 0:
			return "str", true, true
		case 1:
			return "ldr", true, true
		}
	}
	return "", false, false
}

func loadStoreUnsigned(w uint32) string {
	size := w >> 30
	mn, wide, ok := scalarForm(size, w>>22&3)
	if !ok {
		return fmt.Sprintf(".word 0x%08x", w)
	}
	off := uint64(w>>10&0xFFF) << size
	base := gpOrSP(rn(w), true)
	if off == 0 {
		return fmt.Sprintf("%s %s, [%s]", mn, gp(rd(w), wide), base)
	}
	return fmt.Sprintf("%s %s, [%s, #%d]", mn, gp(rd(w), wide), base, off)
}

func loadStoreIndexed(w uint32) string {
	mn, wide, ok := scalarForm(w>>30, w>>22&3)
	if !ok {
		return fmt.Sprintf(".word 0x%08x", w)
	}
	off := sext(w>>12&0x1FF, 9)
	reg := gp(rd(w), wide)
	base := gpOrSP(rn(w), true)
	if w>>10&3 == 3 {
		return fmt.Sprintf("%s %s, [%s, #%d]!", mn, reg, base, off)
	}
	return fmt.Sprintf("%s %s, [%s], #%d", mn, reg, base, off)
}

func loadStorePair(w uint32) string {
	opc := w >> 30
	if opc != 0 && opc != 2 {
		return fmt.Sprintf(".word 0x%08x", w)
	}
	wide := opc == 2
	scale := uint(2)
	if wide {
		scale = 3
	}
	mn := "stp"
	if w>>22&1 == 1 {
		mn = "ldp"
	}
	off := sext(w>>15&0x7F, 7) << scale
	r1 := gp(rd(w), wide)
	r2 := gp(w>>10&31, wide)
	base := gpOrSP(rn(w), true)
	switch w >> 23 & 7 {
	case 1: // post-index
		return fmt.Sprintf("%s %s, %s, [%s], #%d", mn, r1, r2, base, off)
	case 3: // pre-index
		return fmt.Sprintf("%s %s, %s, [%s, #%d]!", mn, r1, r2, base, off)
	default: // signed offset
		if off == 0 {
			return fmt.Sprintf("%s %s, %s, [%s]", mn, r1, r2, base)
		}
		return fmt.Sprintf("%s %s, %s, [%s, #%d]", mn, r1, r2, base, off)
	}
}

// Disassemble renders a whole code buffer, one word per line with its
// byte address. A trailing fragment shorter than a word is shown as
// bytes.
func Disassemble(code []byte) string {
	var b strings.Builder
	for off := 0; off+4 <= len(code); off += 4 {
		w := binary.LittleEndian.Uint32(code[off:])
		fmt.Fprintf(&b, "%08x: %08x  %s\n", off, w, Word(w))
	}
	if rem := len(code) % 4; rem != 0 {
		off := len(code) - rem
		fmt.Fprintf(&b, "%08x:", off)
		for _, v := range code[off:] {
			fmt.Fprintf(&b, " %02x", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
