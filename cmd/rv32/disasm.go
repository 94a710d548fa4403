package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rv32i/rv32i/internal/cpu"
)

func newDisasmCmd() *cobra.Command {
	var entry uint32
	cmd := &cobra.Command{
		Use:   "disasm <image>",
		Short: "Disassemble a flat image word by word, as loaded at entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disasmImage(args[0], entry)
		},
	}
	cmd.Flags().Uint32Var(&entry, "entry", 0x4, "entry point / load offset")
	return cmd
}

func disasmImage(path string, entry uint32) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rv32: cannot read image: %w", err)
	}
	for off := 0; off+4 <= len(data); off += 4 {
		word := binary.LittleEndian.Uint32(data[off:])
		fmt.Printf("%08x: %08x  %s\n", entry+uint32(off), word, cpu.Disassemble(word))
		if word&0x7F == cpu.OpHalt || word&0x7F == cpu.OpSystem {
			break
		}
	}
	return nil
}
