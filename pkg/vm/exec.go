package vm

import (
	"github.com/mwantia/bowl/pkg/frame"
	"github.com/mwantia/bowl/pkg/value"
)

// NativeFunc is a primitive's Go-side body: it receives the frame it should
// read its arguments and push its results through, and returns either
// NullRef on success or an exception ref (spec §6: "a native primitive has
// signature fn(frame) → exception | null").
type NativeFunc func(vm *VM, f *frame.Frame) Ref

// natives maps the synthetic pointer value stored in a Function cell back to
// its Go body. Only functions bound through RegisterNative (or Bind) have an
// entry: pkg/module adds none for a loaded module's native entry points, so
// Dispatch reports a Function cell holding any other pointer as unresolved.
type natives struct {
	next  uintptr
	table map[uintptr]NativeFunc
}

func newNatives() *natives {
	return &natives{next: 1, table: make(map[uintptr]NativeFunc)}
}

// Bind reserves a synthetic pointer for fn and returns it, suitable for
// NewFunction's fn argument.
func (n *natives) Bind(fn NativeFunc) uintptr {
	ptr := n.next
	n.next++
	n.table[ptr] = fn
	return ptr
}

// RegisterNative is the common path for binding a Go-implemented primitive
// under name in f's dictionary (spec §4.8). library is NullRef for
// host-provided primitives with no owning module.
func RegisterNative(vm *VM, f *frame.Frame, name string, library Ref, fn NativeFunc) Ref {
	ptr := vm.natives().Bind(fn)
	return RegisterFunction(vm, f, name, library, ptr)
}

// Dispatch invokes the Function cell fnRef against frame f, type-checking
// that fnRef really is a Function and that its pointer resolves in the
// native table (spec §4.8: "dispatch is a single map lookup followed by an
// indirect call").
func Dispatch(vm *VM, f *frame.Frame, fnRef Ref) Ref {
	if fnRef == NullRef || value.TypeOf(vm, fnRef) != value.TypeFunction {
		return TypeMismatch(vm, "dispatch", value.TypeFunction, fnRef)
	}
	ptr := value.FunctionPointer(vm, fnRef)
	fn, ok := vm.natives().table[ptr]
	if !ok {
		return newException(vm, "dispatch: unresolved native pointer %#x", ptr)
	}
	return fn(vm, f)
}

// Execute walks program — a list of Symbol and literal tokens, built by the
// external tokenizer (spec §1) — left to right. A Symbol token is looked up
// in the VM's dictionary (the root frame's slot, via Lookup) and dispatched
// against f; any other token is pushed onto f's
// datastack as a literal (spec §2's "control flow in a typical step").
// Execution stops and returns the first exception raised by a lookup or a
// primitive; NullRef means the whole program ran to completion.
func Execute(vm *VM, f *frame.Frame, program Ref) Ref {
	curPin := vm.Pin(program)
	defer vm.Unpin(curPin)

	for cur := vm.Pinned(curPin); cur != NullRef; cur = vm.Pinned(curPin) {
		token := value.ListHead(vm, cur)

		if token != NullRef && value.TypeOf(vm, token) == value.TypeSymbol {
			fn, exc := Lookup(vm, value.SymbolText(vm, token))
			if exc != NullRef {
				return exc
			}
			if exc := Dispatch(vm, f, fn); exc != NullRef {
				return exc
			}
			vm.SetPinned(curPin, value.ListTail(vm, vm.Pinned(curPin)))
			continue
		}

		if exc := Push(vm, f.Datastack, token); exc != NullRef {
			return exc
		}
		vm.SetPinned(curPin, value.ListTail(vm, vm.Pinned(curPin)))
	}
	return NullRef
}
