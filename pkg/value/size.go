package value

import "encoding/binary"

// ByteSize returns the total cell size (header + fixed fields + any trailing
// payload), in constant time off the type tag and length field (spec §4.2,
// property P2).
func ByteSize(a Allocator, ref Ref) int {
	return byteSize(a.Bytes(), ref)
}

func byteSize(buf []byte, ref Ref) int {
	switch typeOf(buf, ref) {
	case TypeSymbol, TypeString:
		return textByteSize(buf, ref)
	case TypeNumber:
		return numberByteSize
	case TypeBoolean:
		return booleanByteSize
	case TypeList:
		return listByteSize
	case TypeMap:
		return mapByteSize(buf, ref)
	case TypeFunction:
		return functionByteSize
	case TypeLibrary:
		return libraryByteSize(buf, ref)
	case TypeVector:
		return vectorByteSize(buf, ref)
	case TypeException:
		return exceptionByteSize
	default:
		panic("value: unknown type tag")
	}
}

// heapForwarder adapts this package's per-variant field layouts to
// pkg/heap.Forwarder, so the collector can relocate any cell without knowing
// what a Map or a List is.
type heapForwarder struct{}

// Forwarder is the singleton heap.Forwarder implementation pkg/vm installs
// on its Heap.
var Forwarder heapForwarder

func (heapForwarder) ByteSize(buf []byte, ref Ref) int {
	return byteSize(buf, ref)
}

func (heapForwarder) ForwardFields(buf []byte, ref Ref, forward func(Ref) Ref) {
	switch typeOf(buf, ref) {
	case TypeSymbol, TypeString, TypeNumber, TypeBoolean:
		// No reference fields.
	case TypeList:
		h := Ref(binary.LittleEndian.Uint64(buf[int(ref)+listHeadOff:]))
		t := Ref(binary.LittleEndian.Uint64(buf[int(ref)+listTailOff:]))
		binary.LittleEndian.PutUint64(buf[int(ref)+listHeadOff:], uint64(forward(h)))
		binary.LittleEndian.PutUint64(buf[int(ref)+listTailOff:], uint64(forward(t)))
	case TypeMap:
		cap := int(binary.LittleEndian.Uint64(buf[int(ref)+mapCapacityOff:]))
		for i := 0; i < cap; i++ {
			off := mapBucketOff(ref, i)
			b := Ref(binary.LittleEndian.Uint64(buf[off:]))
			binary.LittleEndian.PutUint64(buf[off:], uint64(forward(b)))
		}
	case TypeFunction:
		lib := Ref(binary.LittleEndian.Uint64(buf[int(ref)+functionLibraryOff:]))
		binary.LittleEndian.PutUint64(buf[int(ref)+functionLibraryOff:], uint64(forward(lib)))
		// functionPtrOff is a raw code pointer, not a heap ref — never forwarded.
	case TypeLibrary:
		// libraryHandleOff is a native OS handle, not a heap ref.
	case TypeVector:
		n := int(binary.LittleEndian.Uint64(buf[int(ref)+vectorLengthOff:]))
		for i := 0; i < n; i++ {
			off := vectorElemOff(ref, i)
			e := Ref(binary.LittleEndian.Uint64(buf[off:]))
			binary.LittleEndian.PutUint64(buf[off:], uint64(forward(e)))
		}
	case TypeException:
		c := Ref(binary.LittleEndian.Uint64(buf[int(ref)+exceptionCauseOff:]))
		m := Ref(binary.LittleEndian.Uint64(buf[int(ref)+exceptionMessageOff:]))
		binary.LittleEndian.PutUint64(buf[int(ref)+exceptionCauseOff:], uint64(forward(c)))
		binary.LittleEndian.PutUint64(buf[int(ref)+exceptionMessageOff:], uint64(forward(m)))
	default:
		panic("value: unknown type tag")
	}
}
