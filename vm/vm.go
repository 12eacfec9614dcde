// Package vm wires the execution engine to concrete host services: a
// console over stdio, a terminal framebuffer, a file store and a
// clock with a deterministic random source.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vegarsten/a64vm/cpu"
)

// DefaultMemSize is the machine memory window when none is given.
const DefaultMemSize = 5 * 1024

// Option adjusts a Machine before its first use.
type Option func(*Machine)

// WithMemSize sets the memory window. Images larger than the window
// still load in full.
func WithMemSize(n int) Option {
	return func(m *Machine) { m.memSize = n }
}

// WithMaxInstructions sets the runaway ceiling. Zero disables it.
func WithMaxInstructions(n int) Option {
	return func(m *Machine) { m.maxInstr = n }
}

// WithStreams redirects console input and output.
func WithStreams(in io.Reader, out io.Writer) Option {
	return func(m *Machine) {
		m.in = in
		m.out = out
	}
}

// WithStorePath backs the file service with a bolt database instead
// of the in-memory store.
func WithStorePath(path string) Option {
	return func(m *Machine) { m.storePath = path }
}

// WithStore injects a ready-made file service.
func WithStore(s cpu.Store) Option {
	return func(m *Machine) { m.store = s }
}

// WithLogger routes engine diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Machine) { m.log = log }
}

// Machine is one loaded program plus the host services it may call.
type Machine struct {
	CPU *cpu.CPU

	memSize   int
	maxInstr  int
	in        io.Reader
	out       io.Writer
	storePath string
	log       logrus.FieldLogger

	console *Console
	canvas  *Framebuffer
	store   cpu.Store
	clock   *RealClock
	rand    *LCG
}

// New loads a machine-code image at address zero and prepares the
// host services around it.
func New(image []byte, opts ...Option) (*Machine, error) {
	m := &Machine{
		memSize:  DefaultMemSize,
		maxInstr: cpu.DefaultMaxInstructions,
		in:       os.Stdin,
		out:      os.Stdout,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.memSize < len(image) {
		m.memSize = len(image)
	}
	mem := make([]byte, m.memSize)
	copy(mem, image)

	m.console = NewConsole(m.in, m.out)
	m.canvas = NewFramebuffer(m.out)
	m.clock = NewRealClock()
	m.rand = NewLCG()
	if m.store == nil {
		if m.storePath != "" {
			bs, err := OpenBoltStore(m.storePath)
			if err != nil {
				return nil, fmt.Errorf("opening file store: %w", err)
			}
			m.store = bs
		} else {
			m.store = NewMemStore()
		}
	}

	m.CPU = cpu.New(mem, m)
	m.CPU.MaxInstructions = m.maxInstr
	m.CPU.Log = m.log
	return m, nil
}

// Host service accessors for the engine.

func (m *Machine) Console() cpu.Console { return m.console }
func (m *Machine) Canvas() cpu.Canvas   { return m.canvas }
func (m *Machine) Store() cpu.Store     { return m.store }
func (m *Machine) Clock() cpu.Clock     { return m.clock }
func (m *Machine) Rand() cpu.Rand       { return m.rand }

// Run executes until the program halts, faults or hits the ceiling.
func (m *Machine) Run() error {
	return m.CPU.Run()
}

// Step executes a single instruction.
func (m *Machine) Step() error {
	return m.CPU.Step()
}

// State reports the engine lifecycle state.
func (m *Machine) State() cpu.State { return m.CPU.State }

// Executed reports how many instructions have completed.
func (m *Machine) Executed() int { return m.CPU.Executed }

// Close restores the terminal and releases the file store.
func (m *Machine) Close() error {
	m.canvas.Reset()
	if c, ok := m.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// DumpRegisters prints the register file, program counter and flags.
func (m *Machine) DumpRegisters(w io.Writer) {
	c := m.CPU
	for i := 0; i < 30; i += 2 {
		fmt.Fprintf(w, "x%-2d %016x   x%-2d %016x\n", i, c.X[i], i+1, c.X[i+1])
	}
	fmt.Fprintf(w, "lr  %016x   sp  %016x\n", c.X[30], c.X[31])
	fmt.Fprintf(w, "pc  %016x   flags %s%s%s%s\n", c.PC,
		flagChar(c.N, 'N'), flagChar(c.Z, 'Z'), flagChar(c.C, 'C'), flagChar(c.V, 'V'))
}

func flagChar(set bool, ch byte) string {
	if set {
		return string(ch)
	}
	return "-"
}
