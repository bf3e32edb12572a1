// Package value implements the VM's tagged, heap-allocated value model: a
// closed set of ten variants sharing a common three-field header, laid out
// directly in the bytes of a pkg/heap.Heap so the collector can relocate any
// cell with a single memmove.
package value

import (
	"encoding/binary"

	"github.com/mwantia/bowl/pkg/heap"
)

// Ref is a heap offset naming a value cell. The zero value is not special —
// use NullRef for "no value"/"empty list".
type Ref = heap.Ref

// NullRef denotes the empty list and an absent reference (spec §3.1).
const NullRef = heap.NullRef

// Type discriminates the ten value variants (spec §3.1).
type Type byte

const (
	TypeSymbol Type = iota + 1
	TypeList
	TypeFunction
	TypeMap
	TypeBoolean
	TypeNumber
	TypeString
	TypeLibrary
	TypeVector
	TypeException
)

func (t Type) String() string {
	switch t {
	case TypeSymbol:
		return "symbol"
	case TypeList:
		return "list"
	case TypeFunction:
		return "function"
	case TypeMap:
		return "map"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeLibrary:
		return "library"
	case TypeVector:
		return "vector"
	case TypeException:
		return "exception"
	default:
		return "invalid"
	}
}

// Header field offsets. Every cell starts with these three fields regardless
// of variant (spec §3.1); variant-specific fields follow at HeaderSize.
const (
	typeOffset     = 0
	locationOffset = 8
	hashOffset     = 16
	// HeaderSize is where a variant's own fixed fields begin.
	HeaderSize = 24
)

// Allocator is implemented by pkg/vm. It reserves a cell and retries once
// through a collection on overflow (spec §4.1); on a second failure it
// returns the preallocated out-of-heap exception instead of NullRef.
type Allocator interface {
	// Allocate reserves HeaderSize+extraBytes of zero-filled space and
	// returns the cell's ref. It does not stamp the type tag or the
	// location field — reserve(), below, does that immediately afterward so
	// every constructor gets the invariant for free. On failure the second
	// Ref is the out-of-heap exception and the first is NullRef.
	Allocate(t Type, extraBytes int) (Ref, Ref)
	// Bytes returns the heap buffer backing every live ref. Never retain a
	// slice derived from it across a call to Allocate: an intervening
	// collection can relocate every cell.
	Bytes() []byte

	// Pin roots ref for the duration of the returned handle, exactly like an
	// extra frame register: a collection triggered by any later Allocate
	// call forwards it in place. A multi-cell constructor that holds an
	// intermediate Ref across more than one allocation — a cons accumulator,
	// a key about to be written into a second cell — has nowhere else to
	// keep it live and unmoved, since nothing but a root slot survives a
	// collection intact. Pin/Unpin calls must nest like a stack: Unpin
	// releases handle and everything pinned after it, so callers unpin in
	// the reverse order they pinned (typically via defer).
	Pin(ref Ref) int
	// Pinned returns the current value at handle, forwarded if a collection
	// has run since it was pinned or last set.
	Pinned(handle int) Ref
	// SetPinned overwrites the value at handle, for a loop that advances its
	// own cursor or accumulator across repeated allocations.
	SetPinned(handle int, ref Ref)
	// Unpin releases handle and every handle pinned after it.
	Unpin(handle int)
}

func typeOf(buf []byte, ref Ref) Type {
	return Type(buf[int(ref)+typeOffset])
}

// TypeOf returns the variant discriminator of the cell at ref.
func TypeOf(a Allocator, ref Ref) Type {
	return typeOf(a.Bytes(), ref)
}

func location(buf []byte, ref Ref) Ref {
	return Ref(binary.LittleEndian.Uint64(buf[int(ref)+locationOffset:]))
}

func setLocation(buf []byte, ref, loc Ref) {
	binary.LittleEndian.PutUint64(buf[int(ref)+locationOffset:], uint64(loc))
}

func cachedHash(buf []byte, ref Ref) uint64 {
	return binary.LittleEndian.Uint64(buf[int(ref)+hashOffset:])
}

func setCachedHash(buf []byte, ref Ref, h uint64) {
	binary.LittleEndian.PutUint64(buf[int(ref)+hashOffset:], h)
}

// reserve allocates a cell, stamps its type tag, and sets location==self —
// every constructor in this package funnels through it so the "location is
// self outside collection" invariant (spec §3.2) holds the instant the cell
// is visible to any later allocation.
func reserve(a Allocator, t Type, extraBytes int) (Ref, Ref) {
	ref, exc := a.Allocate(t, extraBytes)
	if exc != NullRef {
		return NullRef, exc
	}
	buf := a.Bytes()
	buf[int(ref)+typeOffset] = byte(t)
	setLocation(buf, ref, ref)
	return ref, NullRef
}
