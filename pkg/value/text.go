package value

import "encoding/binary"

// Symbol and String share the same layout: a 4-byte length followed by that
// many bytes of UTF-8 (spec §3.1). Library names use the same layout inside
// the Library variant's tail (see library.go).
const textLengthSize = 4

func textByteSize(buf []byte, ref Ref) int {
	n := binary.LittleEndian.Uint32(buf[int(ref)+HeaderSize:])
	return HeaderSize + textLengthSize + int(n)
}

func newText(a Allocator, t Type, s string) (Ref, Ref) {
	ref, exc := reserve(a, t, textLengthSize+len(s))
	if exc != NullRef {
		return NullRef, exc
	}
	buf := a.Bytes()
	base := int(ref) + HeaderSize
	binary.LittleEndian.PutUint32(buf[base:], uint32(len(s)))
	copy(buf[base+textLengthSize:], s)
	return ref, NullRef
}

func textBytes(buf []byte, ref Ref) []byte {
	base := int(ref) + HeaderSize
	n := binary.LittleEndian.Uint32(buf[base:])
	return buf[base+textLengthSize : base+textLengthSize+int(n)]
}

// NewSymbol allocates a Symbol cell. Symbols compare and hash by raw bytes —
// there is no interning table (spec §4.5).
func NewSymbol(a Allocator, name string) (Ref, Ref) {
	return newText(a, TypeSymbol, name)
}

// NewString allocates a String cell.
func NewString(a Allocator, s string) (Ref, Ref) {
	return newText(a, TypeString, s)
}

// SymbolText returns the bytes of a Symbol cell as a string. It does not
// check the type: a String cell reads back the same way, and any other
// variant yields meaningless bytes or a slice out-of-range panic — callers
// are expected to check TypeOf first, matching the teacher's type-assertion
// discipline of surfacing a formatted exception rather than calling this
// blind.
func SymbolText(a Allocator, ref Ref) string {
	return string(textBytes(a.Bytes(), ref))
}

// StringText returns the bytes of a String cell as a string.
func StringText(a Allocator, ref Ref) string {
	return string(textBytes(a.Bytes(), ref))
}
