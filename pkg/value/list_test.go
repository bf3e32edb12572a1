package value_test

import (
	"testing"

	"github.com/mwantia/bowl/pkg/value"
)

func mustNumber(t *testing.T, a value.Allocator, n float64) value.Ref {
	t.Helper()
	ref, exc := value.NewNumber(a, n)
	if exc != value.NullRef {
		t.Fatalf("NewNumber(%v): unexpected exception", n)
	}
	return ref
}

func mustList(t *testing.T, a value.Allocator, head, tail value.Ref) value.Ref {
	t.Helper()
	ref, exc := value.NewList(a, head, tail)
	if exc != value.NullRef {
		t.Fatalf("NewList: unexpected exception")
	}
	return ref
}

func TestListConsAndLength(t *testing.T) {
	a := newAllocator(t)

	list := value.NullRef
	for i := 3; i >= 1; i-- {
		list = mustList(t, a, mustNumber(t, a, float64(i)), list)
	}

	if got := value.ListLength(a, list); got != 3 {
		t.Fatalf("ListLength = %d, want 3", got)
	}

	want := []float64{1, 2, 3}
	cur := list
	for _, w := range want {
		if value.NumberValue(a, value.ListHead(a, cur)) != w {
			t.Fatalf("ListHead = %v, want %v", value.NumberValue(a, value.ListHead(a, cur)), w)
		}
		cur = value.ListTail(a, cur)
	}
	if cur != value.NullRef {
		t.Fatalf("expected list to end in NullRef")
	}
}

func TestNullListLengthIsZero(t *testing.T) {
	a := newAllocator(t)
	if got := value.ListLength(a, value.NullRef); got != 0 {
		t.Fatalf("ListLength(null) = %d, want 0", got)
	}
}

func TestListReverse(t *testing.T) {
	a := newAllocator(t)

	list := value.NullRef
	for i := 1; i <= 3; i++ {
		list = mustList(t, a, mustNumber(t, a, float64(i)), list)
	}
	// list is now (3 2 1)

	rev, exc := value.ListReverse(a, list)
	if exc != value.NullRef {
		t.Fatalf("ListReverse: unexpected exception")
	}

	want := []float64{1, 2, 3}
	cur := rev
	for _, w := range want {
		if got := value.NumberValue(a, value.ListHead(a, cur)); got != w {
			t.Fatalf("reversed head = %v, want %v", got, w)
		}
		cur = value.ListTail(a, cur)
	}
}

func TestListReverseOfNullIsNull(t *testing.T) {
	a := newAllocator(t)
	rev, exc := value.ListReverse(a, value.NullRef)
	if exc != value.NullRef || rev != value.NullRef {
		t.Fatalf("ListReverse(null) = (%v, %v), want (null, null)", rev, exc)
	}
}

// TestListReverseSurvivesCollectionMidConstruction forces a real collection
// partway through ListReverse's internal cons loop — where both the walk
// cursor and the growing accumulator are live only as in-flight
// intermediates, not yet reachable any other way — and checks the finished
// list comes out intact. Without pinning those intermediates across the
// collection, the accumulator (and whatever of the original list it hasn't
// walked past yet) would be silently reclaimed mid-build.
func TestListReverseSurvivesCollectionMidConstruction(t *testing.T) {
	a := newAllocator(t)

	list := value.NullRef
	for i := 5; i >= 1; i-- {
		list = mustList(t, a, mustNumber(t, a, float64(i)), list)
	}
	listPin := a.Pin(list)
	defer a.Unpin(listPin)
	// list is now (1 2 3 4 5); reversing it issues 5 NewList calls. Force a
	// collection just before the third one allocates, squarely inside the loop.
	a.forceCollectAfter(3)

	rev, exc := value.ListReverse(a, a.Pinned(listPin))
	if exc != value.NullRef {
		t.Fatalf("ListReverse: unexpected exception")
	}

	want := []float64{5, 4, 3, 2, 1}
	cur := rev
	for _, w := range want {
		if cur == value.NullRef {
			t.Fatalf("list ended early, expected element %v", w)
		}
		if got := value.NumberValue(a, value.ListHead(a, cur)); got != w {
			t.Fatalf("element = %v, want %v", got, w)
		}
		cur = value.ListTail(a, cur)
	}
	if cur != value.NullRef {
		t.Fatalf("list has extra elements beyond the expected 5")
	}
}
