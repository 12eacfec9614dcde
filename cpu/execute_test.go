package cpu

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const haltWord = 0xD4003FE1

// program builds a memory image from instruction words with extra
// zeroed space appended for data.
func program(extra int, words ...uint32) []byte {
	mem := make([]byte, len(words)*4+extra)
	for i, w := range words {
		binary.LittleEndian.PutUint32(mem[i*4:], w)
	}
	return mem
}

func runWords(t *testing.T, extra int, words ...uint32) *CPU {
	t.Helper()
	c := New(program(extra, words...), nil)
	require.NoError(t, c.Run())
	return c
}

func TestMovAdd(t *testing.T) {
	c := runWords(t, 0,
		0xD2800040, // mov x0, #2
		0xD2800061, // mov x1, #3
		0x8B010002, // add x2, x0, x1
		haltWord,
	)
	assert.Equal(t, uint64(5), c.X[2])
	assert.Equal(t, Halted, c.State)
}

func TestMovWideForms(t *testing.T) {
	c := runWords(t, 0,
		0xD2A00022, // mov x2, #65536
		0x92800000, // mov x0, #-1
		0x12800021, // mov w1, #-2
		0xF2824680, // movk x0, #0x1234
		haltWord,
	)
	assert.Equal(t, uint64(65536), c.X[2])
	assert.Equal(t, uint64(0xFFFFFFFFFFFF1234), c.X[0])
	assert.Equal(t, uint64(0xFFFFFFFE), c.X[1])
}

func TestSubFlags(t *testing.T) {
	tests := []struct {
		name       string
		a, b       uint64
		n, z, cf, v bool
	}{
		{"equal", 5, 5, false, true, true, false},
		{"borrow", 1, 2, true, false, false, false},
		{"greater", 9, 3, false, false, true, false},
	}
	for _, tc := range tests {
		c := New(program(0, 0xEB02003F, haltWord), nil) // cmp x1, x2
		c.X[1] = tc.a
		c.X[2] = tc.b
		require.NoError(t, c.Run())
		assert.Equal(t, tc.n, c.N, "%s N", tc.name)
		assert.Equal(t, tc.z, c.Z, "%s Z", tc.name)
		assert.Equal(t, tc.cf, c.C, "%s C", tc.name)
		assert.Equal(t, tc.v, c.V, "%s V", tc.name)
	}
}

func TestSubOverflowFlag(t *testing.T) {
	// Most-negative minus one overflows.
	c := New(program(0, 0xEB02003F, haltWord), nil)
	c.X[1] = 0x8000000000000000
	c.X[2] = 1
	require.NoError(t, c.Run())
	assert.True(t, c.V)
	assert.False(t, c.N)
}

func TestCountdownLoop(t *testing.T) {
	c := runWords(t, 0,
		0xD2800000, // mov x0, #0
		0xD28000A1, // mov x1, #5
		0x91000400, // add x0, x0, #1
		0xEB01001F, // cmp x0, x1
		0x54FFFFCB, // b.lt back to the add
		haltWord,
	)
	assert.Equal(t, uint64(5), c.X[0])
	assert.Equal(t, 2+3*5+1, c.Executed)
	assert.Equal(t, Halted, c.State)
}

func TestZeroRegister(t *testing.T) {
	c := New(program(0,
		0x8B02003F, // add xzr, x1, x2
		0x8B1F0043, // add x3, x2, xzr
		haltWord,
	), nil)
	c.X[1] = 7
	c.X[2] = 9
	c.X[31] = 1234 // raw slot must not leak into data-processing reads
	require.NoError(t, c.Run())
	assert.Equal(t, uint64(1234), c.X[31])
	assert.Equal(t, uint64(9), c.X[3])
}

func TestLoadStoreRoundTrip(t *testing.T) {
	c := runWords(t, 32,
		0xD2800401, // mov x1, #32
		0xD2824680, // mov x0, #0x1234
		0xF9000020, // str x0, [x1]
		0xF9400022, // ldr x2, [x1]
		haltWord,
	)
	assert.Equal(t, uint64(0x1234), c.X[2])
}

func TestPostIndexWriteback(t *testing.T) {
	c := runWords(t, 32,
		0xD2800401, // mov x1, #32
		0xF8408420, // ldr x0, [x1], #8
		haltWord,
	)
	assert.Equal(t, uint64(40), c.X[1])
}

func TestPairPushPop(t *testing.T) {
	c := New(program(48,
		0xA9BF07E0, // stp x0, x1, [sp, #-16]!
		0xA8C10FE2, // ldp x2, x3, [sp], #16
		haltWord,
	), nil)
	end := uint64(len(c.Mem))
	c.X[31] = end
	c.X[0] = 11
	c.X[1] = 22
	require.NoError(t, c.Run())
	assert.Equal(t, uint64(11), c.X[2])
	assert.Equal(t, uint64(22), c.X[3])
	assert.Equal(t, end, c.X[31])
}

func TestOutOfRangeAccessDropped(t *testing.T) {
	c := New(program(0,
		0xD2820001, // mov x1, #4096
		0xF9000020, // str x0, [x1]
		0xF9400022, // ldr x2, [x1]
		haltWord,
	), nil)
	c.X[2] = 99
	require.NoError(t, c.Run())
	// Both accesses land outside memory: nothing written, nothing read.
	assert.Equal(t, Halted, c.State)
	assert.Equal(t, uint64(99), c.X[2])
}

func TestDivideByZero(t *testing.T) {
	c := New(program(0,
		0x9AC20820, // udiv x0, x1, x2
		haltWord,
	), nil)
	c.X[1] = 42
	c.X[2] = 0
	require.NoError(t, c.Run())
	assert.Equal(t, uint64(0), c.X[0])
}

func TestCallAndReturn(t *testing.T) {
	c := runWords(t, 0,
		0x94000002, // bl +8
		haltWord,   // return lands here
		0xD65F03C0, // ret
	)
	assert.Equal(t, Halted, c.State)
	assert.Equal(t, 3, c.Executed)
	assert.Equal(t, uint64(4), c.X[30])
}

func TestReturnWithoutCallHalts(t *testing.T) {
	c := runWords(t, 0, 0xD65F03C0) // ret with lr still zero
	assert.Equal(t, Halted, c.State)
}

func TestRunOffEndHalts(t *testing.T) {
	c := runWords(t, 0, 0xD503201F) // lone nop
	assert.Equal(t, Halted, c.State)
	assert.Equal(t, 1, c.Executed)
}

func TestUnknownWordFaults(t *testing.T) {
	c := New(program(0, 0xFFFFFFFF), nil)
	err := c.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownInstruction)
	assert.Equal(t, Faulted, c.State)

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, uint64(0), fault.PC)
	assert.Equal(t, uint32(0xFFFFFFFF), fault.Word)
}

func TestUnknownServiceFaults(t *testing.T) {
	c := New(program(0, 0xD4000021), nil) // svc #1
	err := c.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownService)
	assert.Equal(t, Faulted, c.State)
}

func TestInstructionCeiling(t *testing.T) {
	c := New(program(0, 0x14000000), nil) // b to itself
	c.MaxInstructions = 10
	err := c.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstructionLimit)
	assert.Equal(t, 10, c.Executed)
}

func TestStepAfterHaltIsNoop(t *testing.T) {
	c := runWords(t, 0, haltWord)
	executed := c.Executed
	require.NoError(t, c.Step())
	assert.Equal(t, executed, c.Executed)
	assert.Equal(t, Halted, c.State)
}

func TestAbsScenario(t *testing.T) {
	c := runWords(t, 0,
		0xD1006400, // sub x0, x0, #25
		0xD4002661, // abs
		haltWord,
	)
	assert.Equal(t, uint64(25), c.X[0])
}
