package assembler

import "strings"

// Mnemonic enumerates every instruction the generator understands.
// Dispatch is keyed on this value rather than on repeated string
// comparison.
type Mnemonic int

const (
	MnInvalid Mnemonic = iota
	MnNop
	MnRet
	MnBr
	MnBlr
	MnB
	MnBl
	MnBCond
	MnCbz
	MnCbnz
	MnMov
	MnMovz
	MnMovn
	MnMovk
	MnAdd
	MnAdds
	MnSub
	MnSubs
	MnCmp
	MnCmn
	MnTst
	MnAnd
	MnAnds
	MnOrr
	MnEor
	MnBic
	MnOrn
	MnMvn
	MnNeg
	MnMul
	MnUdiv
	MnSdiv
	MnLsl
	MnLsr
	MnAsr
	MnRor
	MnLdr
	MnLdrb
	MnLdrh
	MnLdrsb
	MnLdrsh
	MnLdrsw
	MnStr
	MnStrb
	MnStrh
	MnLdp
	MnStp
	MnWfi
	MnWfe
	MnSev
	MnSevl
	MnDmb
	MnDsb
	MnIsb
	MnSvc
	MnHvc
	MnSmc
	MnExtended // fixed extended opcode, imm16 looked up separately
)

var mnemonics = map[string]Mnemonic{
	"nop": MnNop, "ret": MnRet, "br": MnBr, "blr": MnBlr,
	"b": MnB, "bl": MnBl, "cbz": MnCbz, "cbnz": MnCbnz,
	"mov": MnMov, "movz": MnMovz, "movn": MnMovn, "movk": MnMovk,
	"add": MnAdd, "adds": MnAdds, "sub": MnSub, "subs": MnSubs,
	"cmp": MnCmp, "cmn": MnCmn, "tst": MnTst,
	"and": MnAnd, "ands": MnAnds, "orr": MnOrr, "eor": MnEor,
	"bic": MnBic, "orn": MnOrn, "mvn": MnMvn, "neg": MnNeg,
	"mul": MnMul, "udiv": MnUdiv, "sdiv": MnSdiv,
	"lsl": MnLsl, "lsr": MnLsr, "asr": MnAsr, "ror": MnRor,
	"ldr": MnLdr, "ldrb": MnLdrb, "ldrh": MnLdrh,
	"ldrsb": MnLdrsb, "ldrsh": MnLdrsh, "ldrsw": MnLdrsw,
	"str": MnStr, "strb": MnStrb, "strh": MnStrh,
	"ldp": MnLdp, "stp": MnStp,
	"wfi": MnWfi, "wfe": MnWfe, "sev": MnSev, "sevl": MnSevl,
	"dmb": MnDmb, "dsb": MnDsb, "isb": MnIsb,
	"svc": MnSvc, "hvc": MnHvc, "smc": MnSmc,
}

// ExtendedOpcodes maps the numbered pseudo-instructions to the imm16
// of their supervisor-call encoding.
var ExtendedOpcodes = map[string]uint16{
	"prt": 0x100, "prtc": 0x101, "prtn": 0x102, "inp": 0x103,
	"inps": 0x104, "prtx": 0x105,
	"cls": 0x110, "setc": 0x111, "plot": 0x112, "line": 0x113,
	"box": 0x114, "reset": 0x115, "canvas": 0x116,
	"fcreat": 0x120, "fwrite": 0x121, "fread": 0x122, "fdel": 0x123,
	"fcopy": 0x124, "fmove": 0x125, "fexist": 0x126,
	"strlen": 0x130, "memcpy": 0x131, "memset": 0x132, "abs": 0x133,
	"sleep": 0x1F0, "rnd": 0x1F1, "tick": 0x1F2, "halt": 0x1FF,
}

// ExtendedName reverses ExtendedOpcodes for tooling.
func ExtendedName(imm uint16) (string, bool) {
	for name, v := range ExtendedOpcodes {
		if v == imm {
			return name, true
		}
	}
	return "", false
}

// Condition code encodings shared by the generator and the engine.
var conditions = map[string]int{
	"eq": 0, "ne": 1,
	"cs": 2, "hs": 2,
	"cc": 3, "lo": 3,
	"mi": 4, "pl": 5,
	"vs": 6, "vc": 7,
	"hi": 8, "ls": 9,
	"ge": 10, "lt": 11,
	"gt": 12, "le": 13,
	"al": 14,
}

// CondName returns the assembler spelling of a condition encoding.
func CondName(cond int) string {
	names := [16]string{
		"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc",
		"hi", "ls", "ge", "lt", "gt", "le", "al", "nv",
	}
	return names[cond&0xF]
}

// LookupMnemonic resolves an identifier to a mnemonic. Conditional
// branches come back as MnBCond with the condition encoding; the
// "b.cond" spelling is preferred, and the dotless "bcond" spelling is
// accepted when the condition does not begin with 'l' or 'r' (so "bl"
// and "br" stay unambiguous, and "blt" must be written "b.lt").
func LookupMnemonic(name string) (mn Mnemonic, cond int, imm16 uint16, ok bool) {
	s := strings.ToLower(name)

	if m, found := mnemonics[s]; found {
		return m, 0, 0, true
	}
	if imm, found := ExtendedOpcodes[s]; found {
		return MnExtended, 0, imm, true
	}

	if len(s) > 2 && s[0] == 'b' && s[1] == '.' {
		if c, found := conditions[s[2:]]; found {
			return MnBCond, c, 0, true
		}
	}
	if len(s) >= 3 && s[0] == 'b' && s[1] != 'l' && s[1] != 'r' {
		if c, found := conditions[s[1:]]; found {
			return MnBCond, c, 0, true
		}
	}
	return MnInvalid, 0, 0, false
}

// ParseRegister resolves a register name per the register grammar:
// x0-x30, w0-w30, sp, lr, xzr, wzr, case-insensitive. wide reports an
// X (64-bit) register.
func ParseRegister(name string) (num int, wide bool, ok bool) {
	s := strings.ToLower(name)
	switch s {
	case "sp":
		return 31, true, true
	case "lr":
		return 30, true, true
	case "xzr":
		return 31, true, true
	case "wzr":
		return 31, false, true
	}
	if len(s) < 2 || len(s) > 3 {
		return 0, false, false
	}
	if s[0] != 'x' && s[0] != 'w' {
		return 0, false, false
	}
	n := 0
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false, false
		}
		n = n*10 + int(s[i]-'0')
	}
	if n > 30 {
		return 0, false, false
	}
	return n, s[0] == 'x', true
}
