package disassembler

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegarsten/a64vm/assembler"
)

func TestWordRendering(t *testing.T) {
	tests := []struct {
		word uint32
		want string
	}{
		{0xD503201F, "nop"},
		{0xD503207F, "wfi"},
		{0xD5033FBF, "dmb"},
		{0xD65F03C0, "ret"},
		{0xD65F00A0, "ret x5"},
		{0xD61F00A0, "br x5"},
		{0xD63F0020, "blr x1"},
		{0xD4002001, "prt"},
		{0xD4002021, "prtc"},
		{0xD4003FE1, "halt"},
		{0xD4000141, "svc #0xa"},
		{0x14000002, "b #8"},
		{0x97FFFFFE, "bl #-8"},
		{0x54000040, "b.eq #8"},
		{0x54FFFFCB, "b.lt #-8"},
		{0xB4000080, "cbz x0, #16"},
		{0x35000041, "cbnz w1, #8"},
		{0xD2800020, "mov x0, #1"},
		{0xD2A00022, "mov x2, #65536"},
		{0x92800000, "mov x0, #-1"},
		{0x12800020, "mov w0, #-2"},
		{0xF2824680, "movk x0, #4660"},
		{0xAA0103E0, "mov x0, x1"},
		{0x8B020020, "add x0, x1, x2"},
		{0xCB020020, "sub x0, x1, x2"},
		{0xCB0103E0, "neg x0, x1"},
		{0xEB02003F, "cmp x1, x2"},
		{0x2B04007F, "cmn w3, w4"},
		{0xEA0600BF, "tst x5, x6"},
		{0xAA2103E0, "mvn x0, x1"},
		{0x8A220020, "bic x0, x1, x2"},
		{0x91000421, "add x1, x1, #1"},
		{0xD1004083, "sub x3, x4, #16"},
		{0x91400400, "add x0, x0, #4096"},
		{0xF100281F, "cmp x0, #10"},
		{0xD10083FF, "sub sp, sp, #32"},
		{0x9B027C20, "mul x0, x1, x2"},
		{0x9AC20820, "udiv x0, x1, x2"},
		{0x1AC20C20, "sdiv w0, w1, w2"},
		{0x9AC22020, "lsl x0, x1, x2"},
		{0xF9400020, "ldr x0, [x1]"},
		{0xF94007E0, "ldr x0, [sp, #8]"},
		{0xB9000462, "str w2, [x3, #4]"},
		{0x39400020, "ldrb w0, [x1]"},
		{0x79C00020, "ldrsh w0, [x1]"},
		{0xB9800020, "ldrsw x0, [x1]"},
		{0xF8408420, "ldr x0, [x1], #8"},
		{0xF81F0FE0, "str x0, [sp, #-16]!"},
		{0x58000040, "ldr x0, #8"},
		{0xA9BF07E0, "stp x0, x1, [sp, #-16]!"},
		{0xA8C107E0, "ldp x0, x1, [sp], #16"},
		{0x29000440, "stp w0, w1, [x2]"},
		{0xFFFFFFFF, ".word 0xffffffff"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Word(tc.word), "word %08x", tc.word)
	}
}

// TestRoundTrip feeds generator output through the disassembler and
// back through the assembler, expecting the identical word.
func TestRoundTrip(t *testing.T) {
	sources := []string{
		"nop", "ret", "ret x5", "br x3", "blr x9",
		"wfi", "wfe", "sev", "sevl", "dmb", "dsb", "isb",
		"svc #0", "svc #3", "hvc #1", "smc #2",
		"prt", "prtc", "prtn", "inp", "inps", "prtx",
		"cls", "setc", "plot", "line", "box", "reset", "canvas",
		"fcreat", "fwrite", "fread", "fdel", "fcopy", "fmove", "fexist",
		"strlen", "memcpy", "memset", "abs",
		"sleep", "rnd", "tick", "halt",
		"b #8", "b #-16", "bl #4", "b.eq #8", "b.lt #-8", "b.hi #64",
		"cbz x0, #16", "cbnz w7, #-4",
		"mov x0, #1", "mov w1, #65535", "mov x2, #65536", "mov x3, #-1",
		"mov w4, #-2", "movn x5, #-3", "movn w6, #0xFFFF", "movk x0, #18",
		"mov x0, x1", "mov w2, w3",
		"add x0, x1, x2", "adds x1, x2, x3", "sub w0, w1, w2",
		"subs x4, x5, x6", "cmp x1, x2", "cmn w3, w4", "neg x0, x1", "neg w2, w9",
		"add x1, x1, #1", "sub x3, x4, #16", "add x0, x0, #4096",
		"cmp x0, #10", "adds x0, x1, #2", "subs x0, x1, #3",
		"and x0, x1, x2", "ands x0, x1, x2", "orr x0, x1, x2",
		"eor x0, x1, x2", "bic x0, x1, x2", "orn x0, x1, x2",
		"mvn x0, x1", "tst x5, x6",
		"mul x0, x1, x2", "udiv x0, x1, x2", "sdiv w0, w1, w2",
		"lsl x0, x1, x2", "lsr x0, x1, x2", "asr x0, x1, x2", "ror x0, x1, x2",
		"ldr x0, [x1]", "ldr w0, [x1, #4]", "str x2, [sp, #16]",
		"ldrb w0, [x1]", "strb w1, [x2, #3]", "ldrh w0, [x1, #2]",
		"strh w0, [x1]", "ldrsb x0, [x1]", "ldrsh w2, [x3]", "ldrsw x0, [x1, #4]",
		"ldr x0, [x1], #8", "str x0, [sp, #-16]!", "ldrb w0, [x1], #1",
		"ldr x0, #8", "ldr w0, #-4",
		"stp x0, x1, [sp, #-16]!", "ldp x0, x1, [sp], #16",
		"stp w0, w1, [x2]", "ldp x2, x3, [x4, #8]",
	}
	for _, src := range sources {
		code, err := assembler.New().Assemble(src + "\n")
		require.NoError(t, err, "source %q", src)
		require.Len(t, code, 4, "source %q", src)
		word := binary.LittleEndian.Uint32(code)

		text := Word(word)
		code2, err := assembler.New().Assemble(text + "\n")
		require.NoError(t, err, "source %q disassembled to %q", src, text)
		require.Len(t, code2, 4, "source %q disassembled to %q", src, text)
		assert.Equal(t, word, binary.LittleEndian.Uint32(code2),
			"source %q disassembled to %q", src, text)
	}
}

func TestDisassembleBuffer(t *testing.T) {
	code := []byte{
		0x1F, 0x20, 0x03, 0xD5, // nop
		0xE1, 0x3F, 0x00, 0xD4, // halt
		0x68, 0x69, // trailing data
	}
	text := Disassemble(code)
	assert.Contains(t, text, "00000000: d503201f  nop")
	assert.Contains(t, text, "00000004: d4003fe1  halt")
	assert.Contains(t, text, "00000008: 68 69")
}