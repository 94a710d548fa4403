// Package inspect implements a read-only terminal inspector over a
// halted interpreter's register file and memory.
//
// It reproduces the two-tab layout (Registers, Memory) of the
// original Rust VM's control panel, adapted to a terminal UI: the
// Memory tab pages through the buffer 16 bytes per row, exactly as
// the original's egui scroll area did. The inspector never mutates
// the CPU -- it holds plain value/pointer views and is meant to be
// launched only once the run loop has returned control to the caller.
package inspect

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rv32i/rv32i/internal/cpu"
	"github.com/rv32i/rv32i/internal/register"
)

// PageSize is the number of bytes shown per memory row.
const PageSize = 16

// Inspector is a terminal UI over a halted CPU's state.
type Inspector struct {
	app  *tview.Application
	c    *cpu.CPU
	page int
}

// New builds an inspector over c. The CPU is expected to be halted;
// the inspector only reads Reg and Mem, never writes to them.
func New(c *cpu.CPU) *Inspector {
	return &Inspector{app: tview.NewApplication(), c: c}
}

// Run draws the inspector and blocks until the user quits (q or
// Ctrl-C).
func (insp *Inspector) Run() error {
	pages := tview.NewPages()

	regs := insp.registersView()
	mem := insp.memoryView()

	pages.AddPage("registers", regs, true, true)
	pages.AddPage("memory", mem, true, false)

	tabs := tview.NewTextView().
		SetText("[Tab 1] Registers   [Tab 2] Memory   (Tab to switch, q to quit)").
		SetDynamicColors(true)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tabs, 1, 0, false).
		AddItem(pages, 0, 1, true)

	active := "registers"
	root.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyTab:
			if active == "registers" {
				active = "memory"
			} else {
				active = "registers"
			}
			pages.SwitchToPage(active)
			return nil
		case event.Rune() == 'q':
			insp.app.Stop()
			return nil
		}
		return event
	})

	return insp.app.SetRoot(root, true).Run()
}

func (insp *Inspector) registersView() tview.Primitive {
	view := tview.NewTextView().SetDynamicColors(true)
	var b strings.Builder
	for i := uint32(0); i < register.Count; i++ {
		v := insp.c.Reg.Get(i)
		fmt.Fprintf(&b, "x%-2d %-4s = 0x%08x  (%d)\n", i, register.ABINames[i], v, int32(v))
	}
	view.SetText(b.String())
	return view
}

func (insp *Inspector) memoryView() tview.Primitive {
	view := tview.NewTextView().SetDynamicColors(true)
	buf := insp.c.Mem.Bytes()
	var b strings.Builder
	for off := 0; off < len(buf); off += PageSize {
		end := off + PageSize
		if end > len(buf) {
			end = len(buf)
		}
		fmt.Fprintf(&b, "%08x: ", off)
		for _, v := range buf[off:end] {
			fmt.Fprintf(&b, "%02x ", v)
		}
		b.WriteByte('\n')
	}
	view.SetText(b.String())
	return view
}
