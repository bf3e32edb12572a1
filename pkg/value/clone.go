package value

// Clone returns a value with the same observable structure as ref, but
// freshly allocated for every aggregate cell it passes through (spec §4.2,
// property P9). Leaf variants — Symbol, Number, Boolean, String, Function,
// Library — are immutable and pointer-identical under Equals regardless of
// sharing, so Clone returns them unchanged rather than paying to duplicate
// bytes nothing will ever mutate in place.
//
// clone(null_list) is defined to equal null (Open Question c): the empty
// list has no payload to duplicate, so there is nothing to distinguish a
// "cloned" empty list from the canonical one.
//
// ref is pinned for the whole call: every branch below reads one of its
// fields, recurses (which may allocate and collect), then reads another
// field — ref would otherwise go stale between the two reads.
func Clone(a Allocator, ref Ref) (Ref, Ref) {
	if ref == NullRef {
		return NullRef, NullRef
	}

	refPin := a.Pin(ref)
	defer a.Unpin(refPin)

	switch TypeOf(a, ref) {
	case TypeSymbol, TypeNumber, TypeBoolean, TypeString, TypeFunction, TypeLibrary:
		return ref, NullRef

	case TypeList:
		head, exc := Clone(a, ListHead(a, a.Pinned(refPin)))
		if exc != NullRef {
			return NullRef, exc
		}
		headPin := a.Pin(head)
		defer a.Unpin(headPin)

		tail, exc := Clone(a, ListTail(a, a.Pinned(refPin)))
		if exc != NullRef {
			return NullRef, exc
		}
		return NewList(a, a.Pinned(headPin), tail)

	case TypeVector:
		n := VectorLength(a, a.Pinned(refPin))
		out, exc := NewVector(a, n, NullRef)
		if exc != NullRef {
			return NullRef, exc
		}
		outPin := a.Pin(out)
		defer a.Unpin(outPin)

		for i := 0; i < n; i++ {
			elem, exc := Clone(a, VectorGet(a, a.Pinned(refPin), i))
			if exc != NullRef {
				return NullRef, exc
			}
			VectorSet(a, a.Pinned(outPin), i, elem)
		}
		return a.Pinned(outPin), NullRef

	case TypeMap:
		out, exc := NewMap(a, int(MapCapacity(a, a.Pinned(refPin))))
		if exc != NullRef {
			return NullRef, exc
		}
		outPin := a.Pin(out)
		defer a.Unpin(outPin)

		var failure Ref
		MapEach(a, a.Pinned(refPin), func(k, v Ref) {
			if failure != NullRef {
				return
			}
			ck, e := Clone(a, k)
			if e != NullRef {
				failure = e
				return
			}
			ckPin := a.Pin(ck)
			defer a.Unpin(ckPin)

			cv, e := Clone(a, v)
			if e != NullRef {
				failure = e
				return
			}
			newOut, e := MapPut(a, a.Pinned(outPin), a.Pinned(ckPin), cv)
			if e != NullRef {
				failure = e
				return
			}
			a.SetPinned(outPin, newOut)
		})
		if failure != NullRef {
			return NullRef, failure
		}
		return a.Pinned(outPin), NullRef

	case TypeException:
		cause, exc := Clone(a, ExceptionCause(a, a.Pinned(refPin)))
		if exc != NullRef {
			return NullRef, exc
		}
		causePin := a.Pin(cause)
		defer a.Unpin(causePin)

		message, exc := Clone(a, ExceptionMessage(a, a.Pinned(refPin)))
		if exc != NullRef {
			return NullRef, exc
		}
		if a.Pinned(causePin) == NullRef {
			return NewException(a, message)
		}
		return NewExceptionWithCause(a, a.Pinned(causePin), message)

	default:
		panic("value: unknown type tag")
	}
}
