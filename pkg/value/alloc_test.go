package value_test

import (
	"testing"

	"github.com/mwantia/bowl/pkg/heap"
	"github.com/mwantia/bowl/pkg/value"
)

// testAllocator wraps a plain heap.Heap as a value.Allocator sized generously
// enough that ordinary tests never need a collection to exercise value-level
// behavior. It also implements heap.RootWalker over its own pin table so a
// test can force a real collection — via forceCollectAfter — to land in the
// middle of a multi-cell constructor and check the result survives intact.
type testAllocator struct {
	t    *testing.T
	h    *heap.Heap
	pins []value.Ref

	// forceCollectIn, when positive, counts down on every Allocate call; it
	// runs one real collection immediately before reaching zero, then
	// disables itself. Lets a test land a collection at a specific point
	// inside a constructor without hand-computing heap byte budgets.
	forceCollectIn int
}

func newAllocator(t *testing.T) *testAllocator {
	return &testAllocator{t: t, h: heap.New(1 << 20)}
}

// forceCollectAfter arranges for a real collection to run immediately before
// the nth Allocate call from now.
func (a *testAllocator) forceCollectAfter(n int) {
	a.forceCollectIn = n
}

func (a *testAllocator) collect() {
	a.h.Collect(value.Forwarder, a, nil)
}

func (a *testAllocator) Allocate(tp value.Type, extraBytes int) (value.Ref, value.Ref) {
	if a.forceCollectIn > 0 {
		a.forceCollectIn--
		if a.forceCollectIn == 0 {
			a.collect()
		}
	}
	size := value.HeaderSize + extraBytes
	if ref, ok := a.h.Reserve(size); ok {
		return ref, value.NullRef
	}
	a.collect()
	ref, ok := a.h.Reserve(size)
	if !ok {
		a.t.Fatalf("test heap exhausted allocating type %v", tp)
	}
	return ref, value.NullRef
}

func (a *testAllocator) Bytes() []byte { return a.h.Bytes() }

func (a *testAllocator) Pin(ref value.Ref) int {
	a.pins = append(a.pins, ref)
	return len(a.pins) - 1
}

func (a *testAllocator) Pinned(handle int) value.Ref { return a.pins[handle] }

func (a *testAllocator) SetPinned(handle int, ref value.Ref) { a.pins[handle] = ref }

func (a *testAllocator) Unpin(handle int) { a.pins = a.pins[:handle] }

// WalkRoots implements heap.RootWalker over the pin table: a test allocator
// has no frame chain, so pins are its entire root set.
func (a *testAllocator) WalkRoots(forward func(value.Ref) value.Ref) {
	for i, ref := range a.pins {
		a.pins[i] = forward(ref)
	}
}
