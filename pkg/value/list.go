package value

import "encoding/binary"

// List layout: length(8) + head ref(8) + tail ref(8). The empty list is
// NullRef itself — no zero-length cell is ever allocated (spec §3.1, §9c).
const (
	listLengthOff = HeaderSize
	listHeadOff   = HeaderSize + 8
	listTailOff   = HeaderSize + 16
	listByteSize  = HeaderSize + 24
)

// NewList conses head onto tail, allocating one new cell. tail may be
// NullRef (the empty list). reserve's Allocate call can itself trigger a
// collection, which would relocate head and tail out from under plain Go
// locals, so both are pinned across it and re-read from the pin afterward.
func NewList(a Allocator, head, tail Ref) (Ref, Ref) {
	headPin, tailPin := a.Pin(head), a.Pin(tail)
	defer a.Unpin(headPin)

	ref, exc := reserve(a, TypeList, 24)
	if exc != NullRef {
		return NullRef, exc
	}
	head, tail = a.Pinned(headPin), a.Pinned(tailPin)

	buf := a.Bytes()
	length := uint64(1)
	if tail != NullRef {
		length += ListLength(a, tail)
	}
	binary.LittleEndian.PutUint64(buf[int(ref)+listLengthOff:], length)
	binary.LittleEndian.PutUint64(buf[int(ref)+listHeadOff:], uint64(head))
	binary.LittleEndian.PutUint64(buf[int(ref)+listTailOff:], uint64(tail))
	return ref, NullRef
}

// ListLength returns the length of a list, 0 for the empty list.
func ListLength(a Allocator, ref Ref) uint64 {
	if ref == NullRef {
		return 0
	}
	return binary.LittleEndian.Uint64(a.Bytes()[int(ref)+listLengthOff:])
}

// ListHead returns the head reference of a non-empty list cell.
func ListHead(a Allocator, ref Ref) Ref {
	return Ref(binary.LittleEndian.Uint64(a.Bytes()[int(ref)+listHeadOff:]))
}

// ListTail returns the tail reference (possibly NullRef) of a list cell.
func ListTail(a Allocator, ref Ref) Ref {
	return Ref(binary.LittleEndian.Uint64(a.Bytes()[int(ref)+listTailOff:]))
}

// ListReverse builds a new list with elements in reverse order, allocating
// exactly ListLength(ref) new cells (spec §4.5, property P7). Both the walk
// cursor and the accumulator are live across every iteration's NewList call,
// so each is kept in a pin slot advanced via SetPinned rather than a plain Go
// local.
func ListReverse(a Allocator, ref Ref) (Ref, Ref) {
	curPin := a.Pin(ref)
	defer a.Unpin(curPin)
	outPin := a.Pin(NullRef)

	for a.Pinned(curPin) != NullRef {
		cur := a.Pinned(curPin)
		out, exc := NewList(a, ListHead(a, cur), a.Pinned(outPin))
		if exc != NullRef {
			return NullRef, exc
		}
		a.SetPinned(outPin, out)
		a.SetPinned(curPin, ListTail(a, cur))
	}
	return a.Pinned(outPin), NullRef
}
