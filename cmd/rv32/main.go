// Command rv32 runs, inspects, and disassembles flat RV32I/RV32M
// machine-code images.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rv32",
		Short: "A RISC-V RV32I/RV32M interpreter",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newDisasmCmd())
	return root
}
