package value_test

import (
	"testing"

	"github.com/mwantia/bowl/pkg/value"
)

func TestNewVectorFillsEverySlot(t *testing.T) {
	a := newAllocator(t)
	fill := mustNumber(t, a, 7)

	vec, exc := value.NewVector(a, 4, fill)
	if exc != value.NullRef {
		t.Fatalf("NewVector: unexpected exception")
	}
	if got := value.VectorLength(a, vec); got != 4 {
		t.Fatalf("VectorLength = %d, want 4", got)
	}
	for i := 0; i < 4; i++ {
		if got := value.VectorGet(a, vec, i); got != fill {
			t.Fatalf("VectorGet(%d) = %v, want %v", i, got, fill)
		}
	}
}

func TestNewVectorZeroLength(t *testing.T) {
	a := newAllocator(t)
	vec, exc := value.NewVector(a, 0, value.NullRef)
	if exc != value.NullRef {
		t.Fatalf("NewVector(0): unexpected exception")
	}
	if got := value.VectorLength(a, vec); got != 0 {
		t.Fatalf("VectorLength = %d, want 0", got)
	}
}

func TestVectorSetMutatesInPlace(t *testing.T) {
	a := newAllocator(t)
	vec := mustVector(t, a, 3, value.NullRef)

	replacement := mustNumber(t, a, 42)
	value.VectorSet(a, vec, 1, replacement)

	if got := value.VectorGet(a, vec, 0); got != value.NullRef {
		t.Fatalf("VectorGet(0) = %v, want NullRef (untouched)", got)
	}
	if got := value.VectorGet(a, vec, 1); got != replacement {
		t.Fatalf("VectorGet(1) = %v, want %v", got, replacement)
	}
	if got := value.VectorGet(a, vec, 2); got != value.NullRef {
		t.Fatalf("VectorGet(2) = %v, want NullRef (untouched)", got)
	}
}

func TestVectorSetIsVisibleAcrossReads(t *testing.T) {
	a := newAllocator(t)
	vec := mustVector(t, a, 2, value.NullRef)

	first := mustNumber(t, a, 1)
	second := mustNumber(t, a, 2)
	value.VectorSet(a, vec, 0, first)
	value.VectorSet(a, vec, 1, second)

	// Overwriting one slot must not disturb the other.
	third := mustNumber(t, a, 3)
	value.VectorSet(a, vec, 0, third)

	if got := value.VectorGet(a, vec, 0); got != third {
		t.Fatalf("VectorGet(0) = %v, want %v", got, third)
	}
	if got := value.VectorGet(a, vec, 1); got != second {
		t.Fatalf("VectorGet(1) = %v, want %v", got, second)
	}
}

func mustVector(t *testing.T, a value.Allocator, length int, fill value.Ref) value.Ref {
	t.Helper()
	ref, exc := value.NewVector(a, length, fill)
	if exc != value.NullRef {
		t.Fatalf("NewVector: unexpected exception")
	}
	return ref
}
