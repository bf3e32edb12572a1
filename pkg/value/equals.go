package value

// Equals compares two values structurally (spec §4.2). It short-circuits on
// reference equality and on type mismatch, then recurses per-variant. NaN
// equals NaN here (reflexivity required for map keys), which is why this
// must not be confused with a language-level `==` that might follow IEEE 754
// rules instead.
func Equals(a Allocator, x, y Ref) bool {
	if x == y {
		return true
	}
	if x == NullRef || y == NullRef {
		return false // one is the empty list, the other isn't (both-null caught above)
	}
	tx, ty := TypeOf(a, x), TypeOf(a, y)
	if tx != ty {
		return false
	}

	switch tx {
	case TypeSymbol, TypeString:
		return string(textBytes(a.Bytes(), x)) == string(textBytes(a.Bytes(), y))

	case TypeNumber:
		nx, ny := NumberValue(a, x), NumberValue(a, y)
		if nx != nx && ny != ny {
			return true // NaN == NaN for map-key purposes
		}
		return nx == ny

	case TypeBoolean:
		return BooleanValue(a, x) == BooleanValue(a, y)

	case TypeList:
		if ListLength(a, x) != ListLength(a, y) {
			return false
		}
		cx, cy := x, y
		for cx != NullRef {
			if !Equals(a, ListHead(a, cx), ListHead(a, cy)) {
				return false
			}
			cx, cy = ListTail(a, cx), ListTail(a, cy)
		}
		return true

	case TypeVector:
		nx, ny := VectorLength(a, x), VectorLength(a, y)
		if nx != ny {
			return false
		}
		for i := 0; i < nx; i++ {
			if !Equals(a, VectorGet(a, x, i), VectorGet(a, y, i)) {
				return false
			}
		}
		return true

	case TypeMap:
		return MapSubsetOf(a, y, x) && MapSubsetOf(a, x, y)

	case TypeFunction:
		return FunctionLibrary(a, x) == FunctionLibrary(a, y) &&
			FunctionPointer(a, x) == FunctionPointer(a, y)

	case TypeLibrary:
		return LibraryHandle(a, x) == LibraryHandle(a, y)

	case TypeException:
		cx, cy := ExceptionCause(a, x), ExceptionCause(a, y)
		if (cx == NullRef) != (cy == NullRef) {
			return false
		}
		if cx != NullRef && !Equals(a, cx, cy) {
			return false
		}
		return Equals(a, ExceptionMessage(a, x), ExceptionMessage(a, y))

	default:
		panic("value: unknown type tag")
	}
}
