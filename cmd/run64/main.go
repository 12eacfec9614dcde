// run64 executes a machine-code image until it halts or faults.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vegarsten/a64vm/assembler"
	"github.com/vegarsten/a64vm/cpu"
	"github.com/vegarsten/a64vm/disassembler"
	"github.com/vegarsten/a64vm/vm"
)

var (
	memSize   int
	maxInstr  int
	storePath string
	stepMode  bool
	dumpRegs  bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "run64 <image.bin>",
	Short: "Run a binary image on the execution engine",
	Args:  cobra.ExactArgs(1),
	RunE:  run,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().IntVar(&memSize, "mem", vm.DefaultMemSize, "machine memory size in bytes")
	rootCmd.Flags().IntVar(&maxInstr, "max-instr", cpu.DefaultMaxInstructions, "instruction ceiling, 0 for none")
	rootCmd.Flags().StringVar(&storePath, "store", "", "file store database path (default: in-memory)")
	rootCmd.Flags().BoolVar(&stepMode, "step", false, "single-step with register display")
	rootCmd.Flags().BoolVarP(&dumpRegs, "dump", "d", false, "dump registers on exit")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	image, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	// Source files are assembled in place; anything else is taken as
	// a prebuilt image.
	if strings.HasSuffix(args[0], ".s") {
		image, err = assembler.NewSized(memSize).Assemble(string(image))
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
	}

	m, err := vm.New(image,
		vm.WithMemSize(memSize),
		vm.WithMaxInstructions(maxInstr),
		vm.WithStorePath(storePath),
	)
	if err != nil {
		return err
	}
	defer m.Close()

	if stepMode {
		err = step(m)
	} else {
		err = m.Run()
	}

	if dumpRegs && !stepMode {
		m.DumpRegisters(os.Stdout)
	}
	fmt.Printf("%s after %d instructions\n", m.State(), m.Executed())
	return err
}

// step runs one instruction per keypress: enter continues, q quits.
func step(m *vm.Machine) error {
	in := bufio.NewReader(os.Stdin)
	for m.State() == cpu.Running {
		pc := m.CPU.PC
		if pc+4 <= uint64(len(m.CPU.Mem)) {
			w := binary.LittleEndian.Uint32(m.CPU.Mem[pc:])
			fmt.Printf("%08x: %08x  %s\n", pc, w, disassembler.Word(w))
		}
		line, err := in.ReadString('\n')
		if err != nil {
			return nil
		}
		if strings.TrimSpace(line) == "q" {
			return nil
		}
		if err := m.Step(); err != nil {
			return err
		}
		m.DumpRegisters(os.Stdout)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
