package repl

import (
	"strconv"
	"strings"

	"github.com/mwantia/bowl/pkg/value"
	"github.com/mwantia/bowl/pkg/vm"
)

// Tokenize is the console's own tiny collaborator tokenizer — the core
// deliberately has none (spec §1: "external tokenizer"). A word that parses
// as a float becomes a Number, a word wrapped in double quotes becomes a
// String with the quotes stripped, and everything else becomes a Symbol
// looked up against the dictionary at execution time.
func Tokenize(v *vm.VM, line string) (vm.Ref, vm.Ref) {
	words := strings.Fields(line)
	// The program built so far is pinned: each tokenOf call allocates and may
	// trigger a collection.
	programPin := v.Pin(vm.NullRef)
	defer v.Unpin(programPin)

	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		tok, exc := tokenOf(v, w)
		if exc != vm.NullRef {
			return vm.NullRef, exc
		}
		next, exc := value.NewList(v, tok, v.Pinned(programPin))
		if exc != vm.NullRef {
			return vm.NullRef, exc
		}
		v.SetPinned(programPin, next)
	}
	return v.Pinned(programPin), vm.NullRef
}

func tokenOf(v *vm.VM, w string) (vm.Ref, vm.Ref) {
	if n, err := strconv.ParseFloat(w, 64); err == nil {
		return value.NewNumber(v, n)
	}
	if len(w) >= 2 && w[0] == '"' && w[len(w)-1] == '"' {
		return value.NewString(v, w[1:len(w)-1])
	}
	return value.NewSymbol(v, w)
}
