package value

// booleanByteSize is fixed: header + one byte.
const booleanByteSize = HeaderSize + 1

// NewBoolean allocates a Boolean cell (spec §3.1). There is no singleton
// optimization: a boolean not reachable from any root is reclaimed like any
// other cell, which keeps the collector's liveness story uniform across
// variants.
func NewBoolean(a Allocator, b bool) (Ref, Ref) {
	ref, exc := reserve(a, TypeBoolean, 1)
	if exc != NullRef {
		return NullRef, exc
	}
	buf := a.Bytes()
	if b {
		buf[int(ref)+HeaderSize] = 1
	} else {
		buf[int(ref)+HeaderSize] = 0
	}
	return ref, NullRef
}

// BooleanValue returns the bool payload of a Boolean cell.
func BooleanValue(a Allocator, ref Ref) bool {
	return a.Bytes()[int(ref)+HeaderSize] != 0
}
