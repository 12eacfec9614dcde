// dis64 prints the assembly text of a binary image.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vegarsten/a64vm/disassembler"
)

var rootCmd = &cobra.Command{
	Use:   "dis64 <image.bin> [outfile]",
	Short: "Disassemble a binary image",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		text := disassembler.Disassemble(code)
		if len(args) == 2 {
			return os.WriteFile(args[1], []byte(text), 0o644)
		}
		fmt.Print(text)
		return nil
	},

	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
