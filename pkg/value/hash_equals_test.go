package value_test

import (
	"math"
	"testing"

	"github.com/mwantia/bowl/pkg/value"
)

// TestHashEqualsLaw backs P1: equals(a,b) => hash(a) == hash(b), across
// every variant that can appear as a map key or list element.
func TestHashEqualsLaw(t *testing.T) {
	a := newAllocator(t)

	pairs := [][2]value.Ref{
		{mustNumber(t, a, 3.14), mustNumber(t, a, 3.14)},
		{mustString(t, a, "hello"), mustString(t, a, "hello")},
		{mustBoolean(t, a, true), mustBoolean(t, a, true)},
		{mustList(t, a, mustNumber(t, a, 1), mustList(t, a, mustNumber(t, a, 2), value.NullRef)),
			mustList(t, a, mustNumber(t, a, 1), mustList(t, a, mustNumber(t, a, 2), value.NullRef))},
	}

	for i, p := range pairs {
		if !value.Equals(a, p[0], p[1]) {
			t.Fatalf("pair %d: expected equal", i)
		}
		if value.Hash(a, p[0]) != value.Hash(a, p[1]) {
			t.Fatalf("pair %d: equal values hashed differently", i)
		}
	}
}

func mustBoolean(t *testing.T, a value.Allocator, b bool) value.Ref {
	t.Helper()
	ref, exc := value.NewBoolean(a, b)
	if exc != value.NullRef {
		t.Fatalf("NewBoolean(%v): unexpected exception", b)
	}
	return ref
}

func TestHashCachesAndNeverReturnsZero(t *testing.T) {
	a := newAllocator(t)
	s := mustString(t, a, "cache me")

	h1 := value.Hash(a, s)
	h2 := value.Hash(a, s)
	if h1 != h2 {
		t.Fatalf("Hash not stable across calls: %d vs %d", h1, h2)
	}
	if h1 == 0 {
		t.Fatalf("Hash returned the uncomputed sentinel 0")
	}
}

func TestNaNEqualsNaN(t *testing.T) {
	a := newAllocator(t)
	n1 := mustNumber(t, a, math.NaN())
	n2 := mustNumber(t, a, math.NaN())

	if !value.Equals(a, n1, n2) {
		t.Fatalf("NaN should equal NaN for map-key purposes")
	}
	if value.Hash(a, n1) != value.Hash(a, n2) {
		t.Fatalf("NaN values should hash equally")
	}
}

func TestNegativeZeroEqualsPositiveZero(t *testing.T) {
	a := newAllocator(t)
	neg := mustNumber(t, a, math.Copysign(0, -1))
	pos := mustNumber(t, a, 0)

	if !value.Equals(a, neg, pos) {
		t.Fatalf("-0 should equal +0")
	}
	if value.Hash(a, neg) != value.Hash(a, pos) {
		t.Fatalf("-0 and +0 should hash equally")
	}
}

func TestEqualsTypeMismatch(t *testing.T) {
	a := newAllocator(t)
	n := mustNumber(t, a, 1)
	s := mustString(t, a, "1")
	if value.Equals(a, n, s) {
		t.Fatalf("number and string should never compare equal")
	}
}

func TestEqualsNullVsNonNullList(t *testing.T) {
	a := newAllocator(t)
	l := mustList(t, a, mustNumber(t, a, 1), value.NullRef)
	if value.Equals(a, l, value.NullRef) {
		t.Fatalf("non-empty list must not equal the empty list")
	}
}

// TestByteSizeMatchesCellSize backs P2: ByteSize equals the bytes a
// constructor actually lays out for every variant.
func TestByteSizeMatchesCellSize(t *testing.T) {
	a := newAllocator(t)

	cases := []struct {
		name string
		ref  value.Ref
		want int
	}{
		{"number", mustNumber(t, a, 1), value.HeaderSize + 8},
		{"boolean", mustBoolean(t, a, true), value.HeaderSize + 1},
		{"string-5", mustString(t, a, "hello"), value.HeaderSize + 4 + 5},
		{"list", mustList(t, a, mustNumber(t, a, 1), value.NullRef), value.HeaderSize + 24},
	}

	for _, c := range cases {
		if got := value.ByteSize(a, c.ref); got != c.want {
			t.Errorf("%s: ByteSize = %d, want %d", c.name, got, c.want)
		}
		if got := value.ByteSize(a, c.ref); got < value.HeaderSize {
			t.Errorf("%s: ByteSize %d smaller than HeaderSize %d", c.name, got, value.HeaderSize)
		}
	}
}

func TestCloneOfNullListIsNull(t *testing.T) {
	a := newAllocator(t)
	cloned, exc := value.Clone(a, value.NullRef)
	if exc != value.NullRef || cloned != value.NullRef {
		t.Fatalf("Clone(null) = (%v, %v), want (null, null)", cloned, exc)
	}
}

func TestCloneProducesEqualAggregate(t *testing.T) {
	a := newAllocator(t)
	orig := mustList(t, a, mustNumber(t, a, 1), mustList(t, a, mustString(t, a, "x"), value.NullRef))

	cloned, exc := value.Clone(a, orig)
	if exc != value.NullRef {
		t.Fatalf("Clone: unexpected exception")
	}
	if !value.Equals(a, orig, cloned) {
		t.Fatalf("Clone should produce a structurally equal value")
	}
	if cloned == orig {
		t.Fatalf("Clone of an aggregate should allocate a fresh cell")
	}
}

func TestCloneOfLeafSharesIdentity(t *testing.T) {
	a := newAllocator(t)
	n := mustNumber(t, a, 42)
	cloned, exc := value.Clone(a, n)
	if exc != value.NullRef {
		t.Fatalf("Clone: unexpected exception")
	}
	if cloned != n {
		t.Fatalf("Clone of a leaf value should return the same ref")
	}
}
