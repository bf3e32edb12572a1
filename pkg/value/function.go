package value

import "encoding/binary"

// Function layout: library ref(8, nullable) + native function pointer(8),
// stored as a raw uintptr bit pattern (spec §3.1). The pointer is never
// dereferenced by this package — only pkg/vm's dispatcher calls through it.
const (
	functionLibraryOff = HeaderSize
	functionPtrOff     = HeaderSize + 8
	functionByteSize   = HeaderSize + 16
)

// NewFunction allocates a Function cell bound to library (NullRef for
// functions with no owning module) and a native entry point. library is
// pinned across reserve's allocation.
func NewFunction(a Allocator, library Ref, fn uintptr) (Ref, Ref) {
	libraryPin := a.Pin(library)
	defer a.Unpin(libraryPin)

	ref, exc := reserve(a, TypeFunction, 16)
	if exc != NullRef {
		return NullRef, exc
	}
	library = a.Pinned(libraryPin)

	buf := a.Bytes()
	binary.LittleEndian.PutUint64(buf[int(ref)+functionLibraryOff:], uint64(library))
	binary.LittleEndian.PutUint64(buf[int(ref)+functionPtrOff:], uint64(fn))
	return ref, NullRef
}

// FunctionLibrary returns the owning Library ref, or NullRef.
func FunctionLibrary(a Allocator, ref Ref) Ref {
	return Ref(binary.LittleEndian.Uint64(a.Bytes()[int(ref)+functionLibraryOff:]))
}

// FunctionPointer returns the raw native entry point.
func FunctionPointer(a Allocator, ref Ref) uintptr {
	return uintptr(binary.LittleEndian.Uint64(a.Bytes()[int(ref)+functionPtrOff:]))
}
