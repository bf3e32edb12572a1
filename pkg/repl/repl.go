// Package repl implements a small interactive debug console for a booted
// VM: a single-line input over the dictionary and datastack, with a status
// bar reporting live datastack depth, dictionary size, and heap occupancy
// after every top-level form. It is a debugging aid for the host
// application, not part of the runtime core.
package repl

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwantia/bowl/pkg/vm"
)

// Run starts the console against v and blocks until the user quits.
func Run(v *vm.VM) error {
	p := tea.NewProgram(New(v), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
