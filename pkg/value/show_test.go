package value_test

import (
	"strings"
	"testing"

	"github.com/mwantia/bowl/pkg/value"
)

func TestShowQuotesAndEscapesStrings(t *testing.T) {
	a := newAllocator(t)
	s := mustString(t, a, "line\nend\ttab\"quote\\back")

	got := value.Show(a, s)
	want := `"line\nend\ttab\"quote\\back"`
	if got != want {
		t.Fatalf("Show = %q, want %q", got, want)
	}
}

func TestShowSymbolIsBare(t *testing.T) {
	a := newAllocator(t)
	sym, exc := value.NewSymbol(a, "dup")
	if exc != value.NullRef {
		t.Fatalf("NewSymbol: unexpected exception")
	}
	if got := value.Show(a, sym); got != "dup" {
		t.Fatalf("Show = %q, want %q", got, "dup")
	}
}

func TestShowEmptyListIsParens(t *testing.T) {
	a := newAllocator(t)
	if got := value.Show(a, value.NullRef); got != "()" {
		t.Fatalf("Show(null) = %q, want %q", got, "()")
	}
}

func TestShowListIsSpaceSeparated(t *testing.T) {
	a := newAllocator(t)
	list := mustList(t, a, mustNumber(t, a, 1), mustList(t, a, mustNumber(t, a, 2), value.NullRef))
	if got := value.Show(a, list); got != "(1 2)" {
		t.Fatalf("Show = %q, want %q", got, "(1 2)")
	}
}

func TestShowExceptionIncludesCause(t *testing.T) {
	a := newAllocator(t)
	root, _ := value.FormatException(a, "root")
	wrapped, _ := value.Rethrow(a, root, "outer")

	got := value.Show(a, wrapped)
	if !strings.Contains(got, "outer") || !strings.Contains(got, "root") {
		t.Fatalf("Show(exception) = %q, want it to mention both messages", got)
	}
	if !strings.Contains(got, "caused by") {
		t.Fatalf("Show(exception) = %q, want a cause marker", got)
	}
}

func TestDumpWritesSameTextAsShow(t *testing.T) {
	a := newAllocator(t)
	n := mustNumber(t, a, 3.5)

	var buf strings.Builder
	if err := value.Dump(a, &buf, n); err != nil {
		t.Fatalf("Dump: unexpected error: %v", err)
	}
	if got, want := buf.String(), value.Show(a, n); got != want {
		t.Fatalf("Dump wrote %q, want %q", got, want)
	}
}
