package value

import (
	"encoding/binary"
	"math"
)

// numberByteSize is fixed: header + one float64.
const numberByteSize = HeaderSize + 8

// NewNumber allocates a Number cell wrapping a 64-bit IEEE-754 double (spec §3.1).
func NewNumber(a Allocator, n float64) (Ref, Ref) {
	ref, exc := reserve(a, TypeNumber, 8)
	if exc != NullRef {
		return NullRef, exc
	}
	buf := a.Bytes()
	binary.LittleEndian.PutUint64(buf[int(ref)+HeaderSize:], math.Float64bits(n))
	return ref, NullRef
}

// NumberValue returns the float64 payload of a Number cell.
func NumberValue(a Allocator, ref Ref) float64 {
	buf := a.Bytes()
	bits := binary.LittleEndian.Uint64(buf[int(ref)+HeaderSize:])
	return math.Float64frombits(bits)
}
