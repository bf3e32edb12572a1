package vm

import (
	"testing"

	"github.com/mwantia/bowl/pkg/frame"
	"github.com/mwantia/bowl/pkg/value"
)

// TestReRegistrationReplacesPriorBinding backs spec §4.8's "re-registration
// replaces the prior binding": calling RegisterFunction twice under the same
// name leaves only the second function reachable by Lookup.
func TestReRegistrationReplacesPriorBinding(t *testing.T) {
	v := newTestVM(t, 0)
	f := frame.Inherit(v.RootFrame())
	v.Chain().Link(f)
	defer v.Chain().Unlink(f)

	var calls []string
	first := func(*VM, *frame.Frame) Ref {
		calls = append(calls, "first")
		return NullRef
	}
	second := func(*VM, *frame.Frame) Ref {
		calls = append(calls, "second")
		return NullRef
	}

	if exc := RegisterNative(v, f, "greet", NullRef, first); exc != NullRef {
		t.Fatalf("RegisterNative(first): unexpected exception")
	}
	if exc := RegisterNative(v, f, "greet", NullRef, second); exc != NullRef {
		t.Fatalf("RegisterNative(second): unexpected exception")
	}

	fn, exc := Lookup(v, "greet")
	if exc != NullRef {
		t.Fatalf("Lookup: unexpected exception")
	}
	if exc := Dispatch(v, f, fn); exc != NullRef {
		t.Fatalf("Dispatch: unexpected exception")
	}

	if len(calls) != 1 || calls[0] != "second" {
		t.Fatalf("calls = %v, want only [second]", calls)
	}
}

// TestRegisterAllBindsEveryEntry backs the bulk register_all path (spec
// §4.8).
func TestRegisterAllBindsEveryEntry(t *testing.T) {
	v := newTestVM(t, 0)
	f := frame.Inherit(v.RootFrame())
	v.Chain().Link(f)
	defer v.Chain().Unlink(f)

	lib, exc := value.NewLibrary(v, "test-lib", 0)
	if exc != NullRef {
		t.Fatalf("NewLibrary: unexpected exception")
	}

	entries := []Primitive{
		{Name: "one", Fn: v.natives().Bind(func(*VM, *frame.Frame) Ref { return NullRef })},
		{Name: "two", Fn: v.natives().Bind(func(*VM, *frame.Frame) Ref { return NullRef })},
	}
	if exc := RegisterAll(v, f, lib, entries); exc != NullRef {
		t.Fatalf("RegisterAll: unexpected exception")
	}

	for _, name := range []string{"one", "two"} {
		fnRef, exc := Lookup(v, name)
		if exc != NullRef {
			t.Fatalf("Lookup(%q): unexpected exception", name)
		}
		if value.TypeOf(v, fnRef) != value.TypeFunction {
			t.Fatalf("Lookup(%q) did not resolve to a Function", name)
		}
		if got := value.FunctionLibrary(v, fnRef); got != lib {
			t.Fatalf("FunctionLibrary(%q) = %v, want %v", name, got, lib)
		}
	}
}
