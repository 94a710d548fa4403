package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rv32i/rv32i/internal/cpu"
	"github.com/rv32i/rv32i/internal/inspect"
	"github.com/rv32i/rv32i/internal/memory"
)

func newInspectCmd() *cobra.Command {
	var (
		entry   uint32
		memSize uint32
	)
	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Run an image to completion, then open the register/memory inspector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectImage(args[0], entry, memSize)
		},
	}
	cmd.Flags().Uint32Var(&entry, "entry", 0x4, "entry point / load offset")
	cmd.Flags().Uint32Var(&memSize, "memsize", memory.DefaultSize, "memory capacity in bytes")
	return cmd
}

func inspectImage(path string, entry, memSize uint32) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rv32: cannot read image: %w", err)
	}

	c := cpu.New(memSize)
	if err := c.LoadImage(entry, image); err != nil {
		return fmt.Errorf("rv32: cannot load image: %w", err)
	}

	if err := c.Run(entry); err != nil && !errors.Is(err, cpu.ErrHalt) {
		return fmt.Errorf("rv32: fatal: %w", err)
	}

	return inspect.New(c).Run()
}
