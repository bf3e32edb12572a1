// Package heap implements the VM's semi-space copying heap: a contiguous
// bump-allocated arena plus the relocating collector that keeps it compact.
package heap

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/cpuid/v2"
)

// Ref is a byte offset into the heap's current space. NullRef represents the
// absence of a reference (the empty list, an un-set register, and so on).
type Ref int64

// NullRef is never a valid allocation offset.
const NullRef Ref = -1

// alignment is the cell boundary cells are padded to. On hosts where cpuid
// cannot determine a cache line size, it falls back to 8-byte alignment,
// matching the spec's "fixed power-of-two" growth discipline.
var alignment = func() int {
	if l := cpuid.CPU.CacheLine; l > 0 {
		return l
	}
	return 8
}()

func align(n int) int {
	if r := n % alignment; r != 0 {
		n += alignment - r
	}
	return n
}

// defaultInitialSize is the starting capacity of each semi-space.
const defaultInitialSize = 64 * 1024

// highWaterMark is the post-collection occupancy fraction that triggers a
// doubling of both spaces before the next allocation (spec §4.1).
const highWaterMark = 0.75

// Heap is a two-space copying arena. Allocation always happens in fromSpace;
// Collect flips the two spaces and copies every reachable cell across.
type Heap struct {
	fromSpace []byte
	toSpace   []byte
	free      int // next free offset in fromSpace

	onVerbose func(format string, args ...any)
}

// New creates a Heap with two equally sized spaces of the given capacity.
// A capacity of 0 uses defaultInitialSize.
func New(capacity int) *Heap {
	if capacity <= 0 {
		capacity = defaultInitialSize
	}
	capacity = align(capacity)
	return &Heap{
		fromSpace: make([]byte, capacity),
		toSpace:   make([]byte, capacity),
	}
}

// OnVerbose installs a callback invoked with human-readable progress lines
// (collection summaries, growth events). Pass nil to silence it.
func (h *Heap) OnVerbose(fn func(format string, args ...any)) {
	h.onVerbose = fn
}

func (h *Heap) logf(format string, args ...any) {
	if h.onVerbose != nil {
		h.onVerbose(format, args...)
	}
}

// Capacity returns the size of a single semi-space.
func (h *Heap) Capacity() int { return len(h.fromSpace) }

// Occupied returns the number of bytes currently bump-allocated.
func (h *Heap) Occupied() int { return h.free }

// Bytes returns the live from-space buffer. Callers must not retain slices
// across a Collect call: the collector may relocate every cell.
func (h *Heap) Bytes() []byte { return h.fromSpace }

// Slice returns a view of size bytes starting at ref, for reading or writing
// cell fields in place. The view is only valid until the next allocation or
// collection.
func (h *Heap) Slice(ref Ref, size int) []byte {
	return h.fromSpace[ref : int(ref)+size]
}

// Reserve bump-allocates size bytes, padded to the arena's alignment, and
// returns the cell's base offset. If the request doesn't fit, the caller
// (pkg/vm's allocator) is responsible for invoking Collect and retrying
// exactly once, per spec §4.1 — Reserve itself never triggers a collection,
// since it has no access to the root set.
func (h *Heap) Reserve(size int) (Ref, bool) {
	padded := align(size)
	if h.free+padded > len(h.fromSpace) {
		return NullRef, false
	}
	ref := Ref(h.free)
	h.free += padded
	// Zero-fill up to and including the header's location/hash fields so a
	// freshly reserved cell reads hash==0 ("uncomputed") without the caller
	// having to do it.
	clear(h.fromSpace[ref : int(ref)+headerPrefixToZero])
	return ref, true
}

// headerPrefixToZero is the number of leading header bytes Reserve zeroes:
// enough to cover Type, Location and Hash (see pkg/value.HeaderSize).
const headerPrefixToZero = 24

// Forwarder visits every reference-typed field reachable from a root slot or
// from inside an already-scanned cell. It is implemented by pkg/value so that
// pkg/heap never needs to know the variant layouts.
type Forwarder interface {
	// ByteSize returns the total size (header + fixed fields + trailing
	// payload) of the cell at ref, as currently laid out in buf.
	ByteSize(buf []byte, ref Ref) int

	// ForwardFields rewrites every outgoing reference field of the cell at
	// newRef (already copied into buf, the destination space) by calling
	// forward on each one and storing back whatever it returns.
	ForwardFields(buf []byte, newRef Ref, forward func(Ref) Ref)
}

// RootWalker is implemented by pkg/vm's frame chain: it calls forward once
// per GC-visible root slot (spec §3.3, §4.3 step 2).
type RootWalker interface {
	WalkRoots(forward func(Ref) Ref)
}

// Collect runs one Cheney-style copying collection: roots are forwarded
// first, then the to-space is scanned breadth-first until the scan pointer
// catches the free pointer. Returns the number of live bytes copied.
// beforeSweep, if non-nil, runs after the scan completes but before the old
// space is cleared: it receives the old space's bytes so a caller tracking
// refs outside the root set (pkg/module's library registry, per spec §4.7)
// can call IsForwarded on its own candidates to tell survivors from the
// unreachable, then finalize the latter.
func (h *Heap) Collect(fw Forwarder, roots RootWalker, beforeSweep func(oldSpace []byte)) int {
	before := h.free

	// 1. Flip.
	h.fromSpace, h.toSpace = h.toSpace, h.fromSpace
	scan, free := 0, 0

	// h.toSpace holds the pre-flip live data (the old from-space); h.fromSpace
	// is the fresh destination new cells get copied into. A cell's location
	// field, read from its home in h.toSpace, equals its own offset until the
	// moment it is copied — pkg/value's constructors guarantee that
	// invariant by writing location=self right after reserving a cell and
	// before any allocation that could trigger a collection.
	forward := func(ref Ref) Ref {
		if ref == NullRef {
			return NullRef
		}
		if loc := readLocation(h.toSpace, ref); loc != ref {
			return loc &^ forwardedBit
		}

		size := fw.ByteSize(h.toSpace, ref)
		dst := Ref(free)
		copy(h.fromSpace[dst:int(dst)+size], h.toSpace[ref:int(ref)+size])
		writeLocation(h.toSpace, ref, dst|forwardedBit)
		// The bytes just copied carry whatever location value the cell had
		// at its last move (or its original self-address, if this is its
		// first); re-stamp it to the new self address so a later
		// collection's readLocation sees "not yet forwarded this round"
		// rather than a stale pointer (spec §3.2: location is self outside
		// collection).
		writeLocation(h.fromSpace, dst, dst)
		free += size
		return dst
	}

	roots.WalkRoots(forward)

	// 3. Breadth-first scan of the copied region.
	for scan < free {
		size := fw.ByteSize(h.fromSpace, Ref(scan))
		fw.ForwardFields(h.fromSpace, Ref(scan), forward)
		scan += size
	}

	if beforeSweep != nil {
		beforeSweep(h.toSpace)
	}

	h.free = free

	// Clear the old from-space (now h.toSpace) so a future allocation never
	// reads stale forwarding bits; also drops references for the Go GC.
	clear(h.toSpace)

	collected := before - h.free
	h.logf("gc: collected %s of %s (%.0f%% occupied after)",
		humanize.Bytes(uint64(collected)), humanize.Bytes(uint64(len(h.fromSpace))),
		100*float64(h.free)/float64(len(h.fromSpace)))

	if float64(h.free)/float64(len(h.fromSpace)) > highWaterMark {
		h.grow()
	}

	return h.free
}

func (h *Heap) grow() {
	newCap := len(h.fromSpace) * 2
	grown := make([]byte, newCap)
	copy(grown, h.fromSpace[:h.free])
	h.fromSpace = grown
	h.toSpace = make([]byte, newCap)
	h.logf("gc: grew heap to %s per space", humanize.Bytes(uint64(newCap)))
}

// locationFieldOffset/hashFieldOffset mirror pkg/value's header layout; kept
// here too so Collect can implement forwarding without importing pkg/value
// (which itself depends on pkg/heap for Ref).
const (
	typeFieldOffset     = 0
	locationFieldOffset = 8
	hashFieldOffset     = 16
)

// IsForwarded reports whether ref, read from a space snapshot taken via
// Collect's beforeSweep hook, survived the collection — and if so, its new
// address. A ref whose location field still equals itself was never visited
// by forward() during root-walking or scanning, meaning nothing reachable
// pointed to it.
func IsForwarded(oldSpace []byte, ref Ref) (Ref, bool) {
	loc := readLocation(oldSpace, ref)
	return loc &^ forwardedBit, loc != ref
}

// forwardedBit is set on the forwarding address forward() writes into a
// copied cell's old location field, so a cell copied to the same offset it
// had before still reads as already forwarded.
const forwardedBit = Ref(1) << 62

func readLocation(buf []byte, ref Ref) Ref {
	off := int(ref) + locationFieldOffset
	return Ref(beUint64(buf[off : off+8]))
}

func writeLocation(buf []byte, ref Ref, loc Ref) {
	off := int(ref) + locationFieldOffset
	putUint64(buf[off:off+8], uint64(loc))
}

func beUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// ErrOutOfHeap is returned by pkg/vm's allocator after a retry still fails;
// kept here so pkg/heap has a canonical error text shared with the
// preallocated exception singleton (see pkg/vm.ExceptionOutOfHeap).
var ErrOutOfHeap = fmt.Errorf("out of heap: allocation failed after collection")
