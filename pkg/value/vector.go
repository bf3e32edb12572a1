package value

import "encoding/binary"

// Vector layout: length(8) + length*8 bytes of element refs (spec §3.1).
const vectorLengthOff = HeaderSize

func vectorByteSize(buf []byte, ref Ref) int {
	n := binary.LittleEndian.Uint64(buf[int(ref)+vectorLengthOff:])
	return HeaderSize + 8 + int(n)*8
}

func vectorElemOff(ref Ref, i int) int {
	return int(ref) + HeaderSize + 8 + i*8
}

// NewVector allocates a fixed-length vector, filling every slot with fill
// (spec §4.5). fill is pinned across reserve's allocation.
func NewVector(a Allocator, length int, fill Ref) (Ref, Ref) {
	fillPin := a.Pin(fill)
	defer a.Unpin(fillPin)

	ref, exc := reserve(a, TypeVector, 8+length*8)
	if exc != NullRef {
		return NullRef, exc
	}
	fill = a.Pinned(fillPin)

	buf := a.Bytes()
	binary.LittleEndian.PutUint64(buf[int(ref)+vectorLengthOff:], uint64(length))
	for i := 0; i < length; i++ {
		binary.LittleEndian.PutUint64(buf[vectorElemOff(ref, i):], uint64(fill))
	}
	return ref, NullRef
}

// VectorLength returns the fixed length of a vector.
func VectorLength(a Allocator, ref Ref) int {
	return int(binary.LittleEndian.Uint64(a.Bytes()[int(ref)+vectorLengthOff:]))
}

// VectorGet returns element i of a vector.
func VectorGet(a Allocator, ref Ref, i int) Ref {
	return Ref(binary.LittleEndian.Uint64(a.Bytes()[vectorElemOff(ref, i):]))
}

// VectorSet mutates element i of a vector in place. Vectors are the one
// aggregate the spec allows to be mutated after construction isn't named
// explicitly, but since they have no "functional update" contract like Map
// (spec §4.5), in-place element replacement is the natural reading; callers
// that need persistence should build a fresh vector instead.
func VectorSet(a Allocator, ref Ref, i int, v Ref) {
	binary.LittleEndian.PutUint64(a.Bytes()[vectorElemOff(ref, i):], uint64(v))
}
