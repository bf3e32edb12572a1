package vm

import (
	"github.com/mwantia/bowl/pkg/frame"
	"github.com/mwantia/bowl/pkg/value"
)

// Primitive names a single native entry point to register (spec §4.8's bulk
// `register_all`, `{name, function}` entries).
type Primitive struct {
	Name string
	Fn   uintptr
}

// RegisterFunction creates a symbol for name, a Function value bound to
// library and fn, and rewrites f's dictionary slot to a new map carrying
// that binding (spec §4.8). Re-registration of an existing name replaces
// the prior binding, since value.MapPut always does.
func RegisterFunction(vm *VM, f *frame.Frame, name string, library Ref, fn uintptr) Ref {
	libPin := vm.Pin(library)
	defer vm.Unpin(libPin)

	sym, exc := value.NewSymbol(vm, name)
	if exc != NullRef {
		return exc
	}
	symPin := vm.Pin(sym)
	defer vm.Unpin(symPin)

	fnRef, exc := value.NewFunction(vm, vm.Pinned(libPin), fn)
	if exc != NullRef {
		return exc
	}
	newDict, exc := value.MapPut(vm, f.Dictionary.Ref, vm.Pinned(symPin), fnRef)
	if exc != NullRef {
		return exc
	}
	f.Dictionary.Ref = newDict
	return NullRef
}

// RegisterAll registers every entry against a single library value in one
// pass (spec §4.8).
func RegisterAll(vm *VM, f *frame.Frame, library Ref, entries []Primitive) Ref {
	for _, e := range entries {
		if exc := RegisterFunction(vm, f, e.Name, library, e.Fn); exc != NullRef {
			return exc
		}
	}
	return NullRef
}
