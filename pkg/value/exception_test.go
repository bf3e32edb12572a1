package value_test

import (
	"testing"

	"github.com/mwantia/bowl/pkg/value"
)

func TestNewExceptionHasNoCause(t *testing.T) {
	a := newAllocator(t)
	msg := mustString(t, a, "boom")

	exc, fault := value.NewException(a, msg)
	if fault != value.NullRef {
		t.Fatalf("NewException: unexpected allocation failure")
	}
	if got := value.ExceptionCause(a, exc); got != value.NullRef {
		t.Fatalf("ExceptionCause = %v, want NullRef", got)
	}
	if got := value.ExceptionMessage(a, exc); got != msg {
		t.Fatalf("ExceptionMessage = %v, want %v", got, msg)
	}
}

func TestNewExceptionWithCauseChains(t *testing.T) {
	a := newAllocator(t)
	rootMsg := mustString(t, a, "root cause")
	root, _ := value.NewException(a, rootMsg)

	wrapMsg := mustString(t, a, "wrapped")
	wrapped, fault := value.NewExceptionWithCause(a, root, wrapMsg)
	if fault != value.NullRef {
		t.Fatalf("NewExceptionWithCause: unexpected allocation failure")
	}
	if got := value.ExceptionCause(a, wrapped); got != root {
		t.Fatalf("ExceptionCause = %v, want %v", got, root)
	}
}

func TestFormatExceptionBuildsMessage(t *testing.T) {
	a := newAllocator(t)
	exc, fault := value.FormatException(a, "missing key %q", "x")
	if fault != value.NullRef {
		t.Fatalf("FormatException: unexpected allocation failure")
	}
	msg := value.ExceptionMessage(a, exc)
	if got := value.StringText(a, msg); got != `missing key "x"` {
		t.Fatalf("ExceptionMessage text = %q, want %q", got, `missing key "x"`)
	}
	if got := value.ExceptionCause(a, exc); got != value.NullRef {
		t.Fatalf("FormatException should produce a cause-less exception")
	}
}

func TestRethrowPreservesCauseChain(t *testing.T) {
	a := newAllocator(t)
	prior, fault := value.FormatException(a, "inner failure")
	if fault != value.NullRef {
		t.Fatalf("FormatException: unexpected allocation failure")
	}

	outer, fault := value.Rethrow(a, prior, "while loading %s", "lib")
	if fault != value.NullRef {
		t.Fatalf("Rethrow: unexpected allocation failure")
	}
	if got := value.ExceptionCause(a, outer); got != prior {
		t.Fatalf("Rethrow cause = %v, want %v", got, prior)
	}

	msg := value.ExceptionMessage(a, outer)
	if got := value.StringText(a, msg); got != "while loading lib" {
		t.Fatalf("Rethrow message = %q, want %q", got, "while loading lib")
	}
}
