package repl

import (
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/mwantia/bowl/pkg/frame"
	"github.com/mwantia/bowl/pkg/vm"
)

// Model is the Bubble Tea model for the debug console: a single-line input
// over the VM's dictionary and the console frame's own datastack (a fresh
// slot, not the root frame's), with a status bar reporting
// live datastack depth, dictionary size, and heap occupancy after every
// top-level form (the "much smaller console" this package trims the
// teacher's bytecode-disassembling TUI down to).
type Model struct {
	vm *vm.VM
	f  *frame.Frame

	input   textinput.Model
	history []string
	histPos int // len(history) == "current input", else an index into history

	output []line

	width  int
	height int

	quitting bool
}

// New builds a console Model bound to v, linking its own frame onto v's
// chain so the input's intermediate allocations are rooted independently of
// whatever the host otherwise keeps on the chain.
func New(v *vm.VM) Model {
	ti := textinput.New()
	ti.Placeholder = "dup swap + ..."
	ti.Prompt = "> "
	ti.Focus()

	f := frame.Empty(v.RootFrame())
	v.Chain().Link(f)

	return Model{
		vm:    v,
		f:     f,
		input: ti,
	}
}
