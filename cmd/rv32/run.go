package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/rv32i/rv32i/internal/cpu"
	"github.com/rv32i/rv32i/internal/memory"
)

func newRunCmd() *cobra.Command {
	var (
		entry   uint32
		memSize uint32
		verbose bool
		debug   bool
	)
	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "Load a flat image and run it headlessly until it halts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImage(args[0], entry, memSize, verbose, debug)
		},
	}
	cmd.Flags().Uint32Var(&entry, "entry", 0x4, "entry point / load offset")
	cmd.Flags().Uint32Var(&memSize, "memsize", memory.DefaultSize, "memory capacity in bytes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace each fetched instruction")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "pause for Enter before executing each instruction")
	return cmd
}

func runImage(path string, entry, memSize uint32, verbose, debug bool) error {
	log.SetFlags(0)

	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rv32: cannot read image: %w", err)
	}

	c := cpu.New(memSize)
	if err := c.LoadImage(entry, image); err != nil {
		return fmt.Errorf("rv32: cannot load image: %w", err)
	}

	c.PC = entry
	for {
		if err := c.Fetch(); err != nil {
			return fmt.Errorf("rv32: fatal: %w", err)
		}
		if verbose {
			log.Printf("rv32: pc=0x%08x instr=0x%08x %s", c.PC, c.Instruction, cpu.Disassemble(c.Instruction))
		}
		if debug {
			log.Printf("rv32: paused, press Enter to continue...")
			fmt.Scanln()
		}
		if err := c.Execute(); err != nil {
			if errors.Is(err, cpu.ErrHalt) {
				break
			}
			return fmt.Errorf("rv32: fatal: %w", err)
		}
	}
	log.Printf("rv32: halted at pc=0x%08x", c.PC)
	return nil
}
