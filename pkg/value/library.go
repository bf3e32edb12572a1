package value

import "encoding/binary"

// Library layout: native handle(8, an opaque uintptr bit pattern — dlopen's
// return value or a purego library handle) + name length(4) + name bytes
// (spec §3.1). The handle is never exposed outside the cell; pkg/module is
// the only code that interprets it.
const (
	libraryHandleOff = HeaderSize
	libraryNameOff   = HeaderSize + 8
)

func libraryByteSize(buf []byte, ref Ref) int {
	n := binary.LittleEndian.Uint32(buf[int(ref)+libraryNameOff:])
	return libraryNameOff + textLengthSize + int(n)
}

// NewLibrary allocates a Library cell for an already-opened native handle.
func NewLibrary(a Allocator, name string, handle uintptr) (Ref, Ref) {
	ref, exc := reserve(a, TypeLibrary, 8+textLengthSize+len(name))
	if exc != NullRef {
		return NullRef, exc
	}
	buf := a.Bytes()
	binary.LittleEndian.PutUint64(buf[int(ref)+libraryHandleOff:], uint64(handle))
	base := int(ref) + libraryNameOff
	binary.LittleEndian.PutUint32(buf[base:], uint32(len(name)))
	copy(buf[base+textLengthSize:], name)
	return ref, NullRef
}

// LibraryHandle returns the raw native handle bits.
func LibraryHandle(a Allocator, ref Ref) uintptr {
	return uintptr(binary.LittleEndian.Uint64(a.Bytes()[int(ref)+libraryHandleOff:]))
}

// LibraryName returns the normalized path/name the library was loaded from.
func LibraryName(a Allocator, ref Ref) string {
	buf := a.Bytes()
	base := int(ref) + libraryNameOff
	n := binary.LittleEndian.Uint32(buf[base:])
	return string(buf[base+textLengthSize : base+textLengthSize+int(n)])
}
