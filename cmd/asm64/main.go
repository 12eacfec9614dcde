// asm64 assembles a source file into a flat machine-code image.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vegarsten/a64vm/assembler"
)

var (
	outPath     string
	memSize     int
	showSymbols bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "asm64 <source.s>",
	Short: "Assemble a source file into a binary image",
	Args:  cobra.ExactArgs(1),
	RunE:  run,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: source name with .bin)")
	rootCmd.Flags().IntVar(&memSize, "size", assembler.DefaultMemSize, "output buffer size in bytes")
	rootCmd.Flags().BoolVarP(&showSymbols, "symbols", "s", false, "print the symbol table")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	a := assembler.NewSized(memSize)
	code, err := a.Assemble(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := outPath
	if out == "" {
		out = strings.TrimSuffix(args[0], ".s") + ".bin"
	}
	if err := os.WriteFile(out, code, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s: %d bytes\n", out, len(code))

	if showSymbols {
		for _, sym := range a.Symbols() {
			marker := " "
			if sym.Global {
				marker = "g"
			}
			fmt.Printf("%08x %s %s\n", sym.Addr, marker, sym.Name)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
