package value

import (
	"encoding/binary"
)

// Map layout: length(8) + capacity(8) + capacity*8 bytes of bucket refs
// (spec §3.1). Each bucket is a List whose elements alternate key, value,
// key, value, … (spec §4.5).
const (
	mapLengthOff   = HeaderSize
	mapCapacityOff = HeaderSize + 8
	mapBucketsOff  = HeaderSize + 16
)

func mapBucketOff(ref Ref, i int) int {
	return int(ref) + mapBucketsOff + i*8
}

func mapByteSize(buf []byte, ref Ref) int {
	cap := binary.LittleEndian.Uint64(buf[int(ref)+mapCapacityOff:])
	return mapBucketsOff + int(cap)*8
}

func mapLength(buf []byte, ref Ref) uint64 {
	return binary.LittleEndian.Uint64(buf[int(ref)+mapLengthOff:])
}

func mapCapacity(buf []byte, ref Ref) uint64 {
	return binary.LittleEndian.Uint64(buf[int(ref)+mapCapacityOff:])
}

func mapBucket(buf []byte, ref Ref, i int) Ref {
	return Ref(binary.LittleEndian.Uint64(buf[mapBucketOff(ref, i):]))
}

// MapLength returns the number of entries (spec invariant: equals the total
// (key,value) pairs across all buckets).
func MapLength(a Allocator, ref Ref) uint64 { return mapLength(a.Bytes(), ref) }

// MapCapacity returns the bucket count.
func MapCapacity(a Allocator, ref Ref) uint64 { return mapCapacity(a.Bytes(), ref) }

func nextPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// NewMap allocates an empty map with the given bucket capacity (rounded up
// to a power of two, minimum 1).
func NewMap(a Allocator, capacity int) (Ref, Ref) {
	cap := nextPow2(uint64(capacity))
	ref, exc := reserve(a, TypeMap, 16+int(cap)*8)
	if exc != NullRef {
		return NullRef, exc
	}
	buf := a.Bytes()
	binary.LittleEndian.PutUint64(buf[int(ref)+mapLengthOff:], 0)
	binary.LittleEndian.PutUint64(buf[int(ref)+mapCapacityOff:], cap)
	for i := 0; i < int(cap); i++ {
		binary.LittleEndian.PutUint64(buf[mapBucketOff(ref, i):], uint64(NullRef))
	}
	return ref, NullRef
}

func bucketIndex(a Allocator, key Ref, capacity uint64) uint64 {
	return Hash(a, key) % capacity
}

// bucketFind walks a bucket's key/value pairs, returning the value ref and
// true if key is present (compared with Equals, not identity). The walk
// never allocates, so the plain Go cursor is safe without a pin.
func bucketFind(a Allocator, bucket, key Ref) (Ref, bool) {
	for pair := bucket; pair != NullRef; pair = ListTail(a, ListTail(a, pair)) {
		k := ListHead(a, pair)
		if Equals(a, k, key) {
			return ListHead(a, ListTail(a, pair)), true
		}
	}
	return NullRef, false
}

// consPair conses (k, v) onto the accumulator pinned at outPin, using kPin as
// scratch to keep k rooted across the first of the two NewList calls below —
// the second call is the only place k is read again, and nothing else
// between the two allocates.
func consPair(a Allocator, outPin, kPin int, k, v Ref) Ref {
	a.SetPinned(kPin, k)
	out, exc := NewList(a, v, a.Pinned(outPin))
	if exc != NullRef {
		return exc
	}
	out, exc = NewList(a, a.Pinned(kPin), out)
	if exc != NullRef {
		return exc
	}
	a.SetPinned(outPin, out)
	return NullRef
}

// bucketPut rebuilds a bucket with (key,value) inserted or replaced. Order is
// not preserved (buckets have no ordering contract beyond alternating
// key,value) so pairs are consed as they're walked instead of collected into
// a slice and reversed — a slice of raw Refs held across the repeated
// NewList allocations below would have nothing rooting it once a collection
// ran mid-walk.
func bucketPut(a Allocator, bucket, key, val Ref) (Ref, bool, Ref) {
	bucketPin := a.Pin(bucket)
	defer a.Unpin(bucketPin)
	keyPin := a.Pin(key)
	valPin := a.Pin(val)
	outPin := a.Pin(NullRef)
	scratchKeyPin := a.Pin(NullRef)

	found := false
	for cur := a.Pinned(bucketPin); cur != NullRef; cur = a.Pinned(bucketPin) {
		k := ListHead(a, cur)
		v := ListHead(a, ListTail(a, cur))
		a.SetPinned(bucketPin, ListTail(a, ListTail(a, cur)))

		if !found && Equals(a, k, a.Pinned(keyPin)) {
			v = a.Pinned(valPin)
			found = true
		}
		if exc := consPair(a, outPin, scratchKeyPin, k, v); exc != NullRef {
			return NullRef, false, exc
		}
	}
	if !found {
		if exc := consPair(a, outPin, scratchKeyPin, a.Pinned(keyPin), a.Pinned(valPin)); exc != NullRef {
			return NullRef, false, exc
		}
	}
	return a.Pinned(outPin), found, NullRef
}

// bucketDelete rebuilds a bucket without key's pair, if present. origPin
// holds the untouched original head for the not-found return path, separate
// from cursorPin which walks ahead — the not-found path must hand back the
// bucket as it started, not wherever the walk cursor ended up (NullRef).
func bucketDelete(a Allocator, bucket, key Ref) (Ref, bool, Ref) {
	origPin := a.Pin(bucket)
	defer a.Unpin(origPin)
	keyPin := a.Pin(key)
	cursorPin := a.Pin(bucket)
	outPin := a.Pin(NullRef)
	scratchKeyPin := a.Pin(NullRef)

	found := false
	for cur := a.Pinned(cursorPin); cur != NullRef; cur = a.Pinned(cursorPin) {
		k := ListHead(a, cur)
		v := ListHead(a, ListTail(a, cur))
		a.SetPinned(cursorPin, ListTail(a, ListTail(a, cur)))

		if !found && Equals(a, k, a.Pinned(keyPin)) {
			found = true
			continue
		}
		if exc := consPair(a, outPin, scratchKeyPin, k, v); exc != NullRef {
			return NullRef, false, exc
		}
	}
	if !found {
		return a.Pinned(origPin), false, NullRef
	}
	return a.Pinned(outPin), true, NullRef
}

// consIntoBucket conses (k,v) onto bucket idx of the map pinned at mapPin,
// using kPin to keep k rooted across the two NewList calls. The map ref
// itself is re-read from mapPin both before finding the bucket's current
// head and again immediately before the final write, since either NewList
// call can relocate the map cell out from under a cached ref or byte offset.
func consIntoBucket(a Allocator, mapPin, kPin int, idx int, k, v Ref) Ref {
	a.SetPinned(kPin, k)
	cur := mapBucket(a.Bytes(), a.Pinned(mapPin), idx)

	nv, exc := NewList(a, v, cur)
	if exc != NullRef {
		return exc
	}
	nk, exc := NewList(a, a.Pinned(kPin), nv)
	if exc != NullRef {
		return exc
	}

	m := a.Pinned(mapPin)
	binary.LittleEndian.PutUint64(a.Bytes()[mapBucketOff(m, idx):], uint64(nk))
	return NullRef
}

// rebuild copies every bucket of m into a freshly allocated map of the given
// capacity, applying overrideBucket/overrideIndex for the one bucket the
// caller is about to change (pass -1 to copy every bucket untouched).
func rebuild(a Allocator, m Ref, capacity uint64, overrideIndex int, overrideBucket Ref, lengthDelta int64) (Ref, Ref) {
	mPin := a.Pin(m)
	defer a.Unpin(mPin)
	overridePin := a.Pin(overrideBucket)
	kPin := a.Pin(NullRef)

	out, exc := NewMap(a, int(capacity))
	if exc != NullRef {
		return NullRef, exc
	}
	outPin := a.Pin(out)

	oldCap := mapCapacity(a.Bytes(), a.Pinned(mPin))

	if capacity == oldCap {
		// A pure byte copy with no allocation in the loop: m and out can't
		// move mid-loop, so reading them once is safe.
		mRef, outRef := a.Pinned(mPin), a.Pinned(outPin)
		for i := 0; i < int(oldCap); i++ {
			b := mapBucket(a.Bytes(), mRef, i)
			if i == overrideIndex {
				b = a.Pinned(overridePin)
			}
			binary.LittleEndian.PutUint64(a.Bytes()[mapBucketOff(outRef, i):], uint64(b))
		}
	} else {
		// Growing: every existing pair is re-hashed into the new bucket
		// layout, then the override is applied on top. A NewList failure
		// inside the closure is swallowed, matching MapEach's fire-and-forget
		// contract — rebuild's own allocations (NewMap above, the override
		// splice below) are what report exceptions to the caller.
		MapEach(a, a.Pinned(mPin), func(k, v Ref) {
			idx := bucketIndex(a, k, capacity)
			_ = consIntoBucket(a, outPin, kPin, int(idx), k, v)
		})
		if overrideIndex >= 0 {
			ob := a.Pinned(overridePin)
			idx := bucketIndex(a, ListHead(a, ob), capacity)
			binary.LittleEndian.PutUint64(a.Bytes()[mapBucketOff(a.Pinned(outPin), int(idx)):], uint64(ob))
		}
	}

	newLength := int64(mapLength(a.Bytes(), a.Pinned(mPin))) + lengthDelta
	out = a.Pinned(outPin)
	binary.LittleEndian.PutUint64(a.Bytes()[int(out)+mapLengthOff:], uint64(newLength))
	return out, NullRef
}

const mapLoadFactor = 0.75

// MapPut returns a new map with key bound to val (spec §4.5). If capacity
// growth is needed (load factor would exceed 0.75), the whole map is
// rebuilt at the next power of two ≥ (length+1)*2.
func MapPut(a Allocator, m, key, val Ref) (Ref, Ref) {
	mPin := a.Pin(m)
	defer a.Unpin(mPin)
	keyPin := a.Pin(key)
	valPin := a.Pin(val)

	capacity := mapCapacity(a.Bytes(), m)
	idx := bucketIndex(a, key, capacity)
	bucket := mapBucket(a.Bytes(), m, int(idx))

	newBucket, existed, exc := bucketPut(a, bucket, a.Pinned(keyPin), a.Pinned(valPin))
	if exc != NullRef {
		return NullRef, exc
	}
	m = a.Pinned(mPin)

	newLength := mapLength(a.Bytes(), m)
	if !existed {
		newLength++
	}
	if !existed && float64(newLength)/float64(capacity) > mapLoadFactor {
		grown := nextPow2(uint64(float64(newLength) * 2))
		return rebuildWithPut(a, m, grown, a.Pinned(keyPin), a.Pinned(valPin))
	}

	delta := int64(0)
	if !existed {
		delta = 1
	}
	return rebuild(a, m, capacity, int(idx), newBucket, delta)
}

// rebuildWithPut rebuilds at a larger capacity and inserts key/val in the
// same pass (used when growth is triggered by the insert itself).
func rebuildWithPut(a Allocator, m Ref, capacity uint64, key, val Ref) (Ref, Ref) {
	mPin := a.Pin(m)
	defer a.Unpin(mPin)
	keyPin := a.Pin(key)
	valPin := a.Pin(val)
	kPin := a.Pin(NullRef)

	out, exc := NewMap(a, int(capacity))
	if exc != NullRef {
		return NullRef, exc
	}
	outPin := a.Pin(out)

	MapEach(a, a.Pinned(mPin), func(k, v Ref) {
		idx := bucketIndex(a, k, capacity)
		_ = consIntoBucket(a, outPin, kPin, int(idx), k, v)
	})

	idx := bucketIndex(a, a.Pinned(keyPin), capacity)
	if exc := consIntoBucket(a, outPin, kPin, int(idx), a.Pinned(keyPin), a.Pinned(valPin)); exc != NullRef {
		return NullRef, exc
	}

	out = a.Pinned(outPin)
	binary.LittleEndian.PutUint64(a.Bytes()[int(out)+mapLengthOff:], mapLength(a.Bytes(), a.Pinned(mPin))+1)
	return out, NullRef
}

// MapDelete returns a new map with key's binding removed, or m unchanged if
// key is absent (spec §4.5).
func MapDelete(a Allocator, m, key Ref) (Ref, Ref) {
	mPin := a.Pin(m)
	defer a.Unpin(mPin)

	capacity := mapCapacity(a.Bytes(), m)
	idx := bucketIndex(a, key, capacity)
	bucket := mapBucket(a.Bytes(), m, int(idx))

	newBucket, existed, exc := bucketDelete(a, bucket, key)
	if exc != NullRef {
		return NullRef, exc
	}
	m = a.Pinned(mPin)
	if !existed {
		return m, NullRef
	}
	return rebuild(a, m, capacity, int(idx), newBucket, -1)
}

// MapGetOrElse looks up key, returning its value or def if absent (spec §4.5).
func MapGetOrElse(a Allocator, m, key, def Ref) Ref {
	buf := a.Bytes()
	capacity := mapCapacity(buf, m)
	idx := bucketIndex(a, key, capacity)
	bucket := mapBucket(buf, m, int(idx))
	if v, ok := bucketFind(a, bucket, key); ok {
		return v
	}
	return def
}

// MapMerge folds b's entries into a's, with b winning on overlapping keys
// (spec §9 Open Question b). The result's capacity fits a.length+b.length
// without exceeding the load factor.
func MapMerge(alloc Allocator, a, b Ref) (Ref, Ref) {
	aPin := alloc.Pin(a)
	defer alloc.Unpin(aPin)
	bPin := alloc.Pin(b)

	total := mapLength(alloc.Bytes(), a) + mapLength(alloc.Bytes(), b)
	capacity := nextPow2(uint64(float64(total) / mapLoadFactor))
	if capacity < mapCapacity(alloc.Bytes(), a) {
		capacity = mapCapacity(alloc.Bytes(), a)
	}

	out, exc := rebuild(alloc, alloc.Pinned(aPin), capacity, -1, NullRef, 0)
	if exc != NullRef {
		return NullRef, exc
	}
	outPin := alloc.Pin(out)

	var failure Ref
	MapEach(alloc, alloc.Pinned(bPin), func(k, v Ref) {
		if failure != NullRef {
			return
		}
		newOut, e := MapPut(alloc, alloc.Pinned(outPin), k, v)
		if e != NullRef {
			failure = e
			return
		}
		alloc.SetPinned(outPin, newOut)
	})
	if failure != NullRef {
		return NullRef, failure
	}
	return alloc.Pinned(outPin), NullRef
}

// MapSubsetOf reports whether every entry of sub is present in super with an
// equal value (spec §4.5); used by Equals to compare maps as sets. Neither
// bucketFind nor Equals allocates, so super's ref never moves mid-walk and
// needs no pin.
func MapSubsetOf(a Allocator, super, sub Ref) bool {
	if mapLength(a.Bytes(), sub) > mapLength(a.Bytes(), super) {
		return false
	}
	superCap := mapCapacity(a.Bytes(), super)
	ok := true
	MapEach(a, sub, func(k, v Ref) {
		if !ok {
			return
		}
		idx := bucketIndex(a, k, superCap)
		bucket := mapBucket(a.Bytes(), super, int(idx))
		sv, found := bucketFind(a, bucket, k)
		if !found || !Equals(a, sv, v) {
			ok = false
		}
	})
	return ok
}

// MapEach calls fn once per (key, value) pair, in bucket order. fn is free to
// allocate (MapPut and friends do, when folded over a map this way), so both
// the map ref and the in-bucket walk cursor are kept in pins, advanced before
// each call rather than after — a collection triggered inside fn must see
// the pins already pointing past the pair just delivered.
func MapEach(a Allocator, m Ref, fn func(k, v Ref)) {
	mPin := a.Pin(m)
	defer a.Unpin(mPin)
	cursorPin := a.Pin(NullRef)

	capacity := mapCapacity(a.Bytes(), a.Pinned(mPin))
	for i := 0; i < int(capacity); i++ {
		a.SetPinned(cursorPin, mapBucket(a.Bytes(), a.Pinned(mPin), i))

		for pair := a.Pinned(cursorPin); pair != NullRef; pair = a.Pinned(cursorPin) {
			k := ListHead(a, pair)
			v := ListHead(a, ListTail(a, pair))
			a.SetPinned(cursorPin, ListTail(a, ListTail(a, pair)))
			fn(k, v)
		}
	}
}
