package vm

import (
	"github.com/rs/xid"

	"github.com/mwantia/bowl/pkg/value"
)

// newException formats an exception message and tags it with a sortable
// correlation id, so two exceptions raised moments apart in a log stream
// (or by concurrent VMs sharing a sink) can be told apart independent of the
// library UUIDs pkg/module attaches to its own failures.
func newException(vm *VM, format string, args ...any) Ref {
	tag := xid.New()
	ref, exc := value.FormatException(vm, "["+tag.String()+"] "+format, args...)
	if exc != NullRef {
		return exc
	}
	return ref
}

// TypeMismatch raises the formatted exception a type assertion on a
// primitive argument produces (spec §4.6): it names the primitive, the
// expected variant, and the variant actually observed.
func TypeMismatch(vm *VM, primitive string, expected value.Type, observed Ref) Ref {
	var got string
	if observed == NullRef {
		got = "null"
	} else {
		got = value.TypeOf(vm, observed).String()
	}
	return newException(vm, "%s: expected %s, got %s", primitive, expected, got)
}

// StackUnderflow raises the exception produced by popping an empty
// datastack (spec §4.6, scenario S6).
func StackUnderflow(vm *VM, primitive string) Ref {
	return newException(vm, "%s: stack underflow", primitive)
}

// UndefinedName raises the exception produced by a dictionary lookup that
// found no binding (spec §4.6, §4.8).
func UndefinedName(vm *VM, name string) Ref {
	return newException(vm, "undefined name: %s", name)
}

// LibraryFailure raises the exception produced when the dynamic loader
// cannot open/resolve a module, or the module's own init/finalize returned
// an exception (spec §4.6, §4.7).
func LibraryFailure(vm *VM, path string, cause error) Ref {
	return newException(vm, "library failure: %s: %v", path, cause)
}

// DomainError raises a primitive-specific invariant violation (spec §4.6),
// e.g. division by zero in a kernel arithmetic primitive.
func DomainError(vm *VM, primitive, reason string) Ref {
	return newException(vm, "%s: %s", primitive, reason)
}
