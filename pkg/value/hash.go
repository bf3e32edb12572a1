package value

import (
	"encoding/binary"
	"math"
)

// FNV-1a 64-bit constants.
const (
	fnvOffset64 uint64 = 14695981039346656037
	fnvPrime64  uint64 = 1099511628211
)

func fnv1a(b []byte) uint64 {
	h := fnvOffset64
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

// mix folds a running accumulator with a new value, order-sensitively
// (boost::hash_combine's constant, widened to 64 bits).
func mix(acc, v uint64) uint64 {
	acc ^= v + 0x9e3779b97f4a7c15 + (acc << 6) + (acc >> 2)
	return acc
}

// booleanHashOffset distinguishes true/false from any other small integer
// that might collide at 0/1 (spec §4.2).
const booleanHashOffset uint64 = 0x5a5a5a5a5a5a5a5a

// Hash returns the cached or newly computed content hash of ref (spec §4.2).
// The sentinel 0 means "uncomputed"; a real hash that happens to compute to
// 0 is re-keyed to 1, so a non-zero cached value always means "computed".
func Hash(a Allocator, ref Ref) uint64 {
	if ref == NullRef {
		// The empty list is a legitimate hashable value (it's a valid map
		// key or list element) — give it a fixed, non-zero identity.
		return fnvOffset64
	}

	buf := a.Bytes()
	if cached := cachedHash(buf, ref); cached != 0 {
		return cached
	}

	h := computeHash(a, ref)
	if h == 0 {
		h = 1
	}
	setCachedHash(a.Bytes(), ref, h)
	return h
}

func computeHash(a Allocator, ref Ref) uint64 {
	switch TypeOf(a, ref) {
	case TypeSymbol, TypeString:
		return fnv1a(textBytes(a.Bytes(), ref))

	case TypeNumber:
		n := NumberValue(a, ref)
		if math.IsNaN(n) {
			n = math.NaN() // canonical NaN bit pattern
		}
		if n == 0 {
			n = 0 // canonicalize -0 to +0
		}
		return fnv1a(u64Bytes(math.Float64bits(n)))

	case TypeBoolean:
		if BooleanValue(a, ref) {
			return booleanHashOffset ^ 1
		}
		return booleanHashOffset ^ 0

	case TypeList:
		acc := fnvOffset64
		for cur := ref; cur != NullRef; cur = ListTail(a, cur) {
			acc = mix(acc, Hash(a, ListHead(a, cur)))
		}
		return acc

	case TypeVector:
		acc := fnvOffset64
		n := VectorLength(a, ref)
		for i := 0; i < n; i++ {
			acc = mix(acc, Hash(a, VectorGet(a, ref, i)))
		}
		return acc

	case TypeMap:
		// Order-insensitive: plain XOR fold so two maps with identical
		// entries hash equally regardless of bucket layout (spec §4.2).
		var acc uint64
		MapEach(a, ref, func(k, v Ref) {
			acc ^= mix(Hash(a, k), Hash(a, v))
		})
		return acc

	case TypeFunction:
		lib := FunctionLibrary(a, ref)
		libHash := uint64(lib)
		if lib != NullRef {
			libHash = uint64(LibraryHandle(a, lib))
		}
		return mix(libHash, uint64(FunctionPointer(a, ref)))

	case TypeLibrary:
		return fnv1a(u64Bytes(uint64(LibraryHandle(a, ref))))

	case TypeException:
		cause := ExceptionCause(a, ref)
		causeHash := fnvOffset64
		if cause != NullRef {
			causeHash = Hash(a, cause)
		}
		return mix(causeHash, Hash(a, ExceptionMessage(a, ref)))

	default:
		panic("value: unknown type tag")
	}
}

func u64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
