// Package cpu implements the execution engine: a fetch-decode-execute
// interpreter over a flat little-endian code buffer, with a register
// file, condition flags and an extended-opcode dispatcher.
package cpu

import (
	"github.com/sirupsen/logrus"
)

// State is the engine's lifecycle state.
type State int

const (
	// Running means Step may execute another instruction.
	Running State = iota
	// Halted is terminal: the halt opcode or a top-level return.
	Halted
	// Faulted is terminal: an unrecognized word, an unknown extended
	// opcode, a fatal host-service failure or the instruction ceiling.
	Faulted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	}
	return "unknown"
}

// DefaultMaxInstructions bounds a run so runaway loops abort
// deterministically instead of hanging.
const DefaultMaxInstructions = 10000

// CPU is the execution engine state for one run invocation.
type CPU struct {
	// X is the general-purpose register file. Index 31 is the stack
	// pointer in addressing contexts and reads as zero in
	// data-processing contexts; index 30 conventionally holds the
	// return address.
	X [32]uint64
	// PC is the program counter, a byte offset into Mem.
	PC uint64

	// Condition flags, updated only by flag-setting instructions.
	N, Z, C, V bool

	// Mem is the flat memory image: code followed by data.
	Mem []byte

	// State machine position.
	State State
	// Fault carries the terminal error when State is Faulted.
	Fault error

	// Executed counts completed instructions.
	Executed int
	// MaxInstructions is the runaway ceiling.
	MaxInstructions int

	// Host provides the privileged services behind extended opcodes.
	Host Host
	// Log receives debug notices for dropped memory accesses.
	Log logrus.FieldLogger
}

// New creates an engine over the given memory image. The image is
// used in place; the first bytes are the entry point at address 0.
func New(mem []byte, host Host) *CPU {
	return &CPU{
		Mem:             mem,
		Host:            host,
		MaxInstructions: DefaultMaxInstructions,
		Log:             logrus.StandardLogger(),
	}
}

// Reg reads a register in a data-processing context: register 31 is
// the hard-wired zero.
func (c *CPU) Reg(n int) uint64 {
	if n == 31 {
		return 0
	}
	return c.X[n]
}

// SetReg writes a register in a data-processing context: writes to
// register 31 are discarded.
func (c *CPU) SetReg(n int, v uint64) {
	if n == 31 {
		return
	}
	c.X[n] = v
}

// translate validates that size bytes at addr fall inside the memory
// window. Anything else is dropped by the caller, not faulted.
func (c *CPU) translate(addr uint64, size int) (int, bool) {
	if addr+uint64(size) > uint64(len(c.Mem)) || addr > addr+uint64(size) {
		c.Log.WithFields(logrus.Fields{
			"addr": addr,
			"pc":   c.PC,
		}).Debug("dropped out-of-range memory access")
		return 0, false
	}
	return int(addr), true
}

// loadN reads size bytes little-endian. Out-of-range reads report
// ok=false and the access is skipped.
func (c *CPU) loadN(addr uint64, size int) (uint64, bool) {
	off, ok := c.translate(addr, size)
	if !ok {
		return 0, false
	}
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(c.Mem[off+i]) << (8 * i)
	}
	return v, true
}

// storeN writes size bytes little-endian. Out-of-range writes are
// dropped.
func (c *CPU) storeN(addr uint64, size int, v uint64) bool {
	off, ok := c.translate(addr, size)
	if !ok {
		return false
	}
	for i := 0; i < size; i++ {
		c.Mem[off+i] = byte(v >> (8 * i))
	}
	return true
}

// cstring reads a zero-terminated byte string starting at addr,
// stopping at the memory window's edge.
func (c *CPU) cstring(addr uint64) []byte {
	var out []byte
	for addr < uint64(len(c.Mem)) && c.Mem[addr] != 0 {
		out = append(out, c.Mem[addr])
		addr++
	}
	return out
}

// setFlagsSub64 computes N/Z/C/V for a 64-bit flag-setting
// subtraction: carry is the absence of borrow.
func (c *CPU) setFlagsSub64(a, b, r uint64) {
	c.N = r>>63 != 0
	c.Z = r == 0
	c.C = a >= b
	c.V = (a^b)&(a^r)>>63 != 0
}

func (c *CPU) setFlagsSub32(a, b, r uint32) {
	c.N = r>>31 != 0
	c.Z = r == 0
	c.C = a >= b
	c.V = (a^b)&(a^r)>>31 != 0
}

// setFlagsAdd64 computes N/Z/C/V for a 64-bit flag-setting addition.
func (c *CPU) setFlagsAdd64(a, b, r uint64) {
	c.N = r>>63 != 0
	c.Z = r == 0
	c.C = r < a
	c.V = (^(a^b))&(a^r)>>63 != 0
}

func (c *CPU) setFlagsAdd32(a, b, r uint32) {
	c.N = r>>31 != 0
	c.Z = r == 0
	c.C = r < a
	c.V = (^(a^b))&(a^r)>>31 != 0
}

// setFlagsLogic64 updates N and Z and clears C and V, as the
// flag-setting logical operations do.
func (c *CPU) setFlagsLogic64(r uint64) {
	c.N = r>>63 != 0
	c.Z = r == 0
	c.C = false
	c.V = false
}

func (c *CPU) setFlagsLogic32(r uint32) {
	c.N = r>>31 != 0
	c.Z = r == 0
	c.C = false
	c.V = false
}
