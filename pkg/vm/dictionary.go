package vm

import "github.com/mwantia/bowl/pkg/value"

// Lookup resolves name against the current dictionary, returning the bound
// Function ref, or the formatted UndefinedName exception (spec §4.8).
func Lookup(vm *VM, name string) (Ref, Ref) {
	key, exc := value.NewSymbol(vm, name)
	if exc != NullRef {
		return NullRef, exc
	}
	fn := value.MapGetOrElse(vm, vm.Dictionary(), key, vm.SentinelValue())
	if fn == vm.SentinelValue() {
		return NullRef, UndefinedName(vm, name)
	}
	return fn, NullRef
}

// Define binds name to fn in the VM's live dictionary, replacing any prior
// binding (spec §4.8's "re-registration replaces the prior binding").
func Define(vm *VM, name string, fn Ref) Ref {
	fnPin := vm.Pin(fn)
	defer vm.Unpin(fnPin)

	key, exc := value.NewSymbol(vm, name)
	if exc != NullRef {
		return exc
	}
	newDict, exc := value.MapPut(vm, vm.Dictionary(), key, vm.Pinned(fnPin))
	if exc != NullRef {
		return exc
	}
	vm.root.Dictionary.Ref = newDict
	return NullRef
}
