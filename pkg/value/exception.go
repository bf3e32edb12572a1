package value

import (
	"encoding/binary"
	"fmt"
)

// Exception layout: cause ref(8, nullable, chains to a prior exception) +
// message ref(8, a String or other value) (spec §3.1, §4.6).
const (
	exceptionCauseOff   = HeaderSize
	exceptionMessageOff = HeaderSize + 8
	exceptionByteSize   = HeaderSize + 16
)

// NewException allocates an Exception cell with no cause.
func NewException(a Allocator, message Ref) (Ref, Ref) {
	return NewExceptionWithCause(a, NullRef, message)
}

// NewExceptionWithCause allocates an Exception cell wrapping a prior one,
// forming a finite cause chain (spec §4.6). cause and message are pinned
// across reserve's allocation, which can itself trigger a collection.
func NewExceptionWithCause(a Allocator, cause, message Ref) (Ref, Ref) {
	causePin, messagePin := a.Pin(cause), a.Pin(message)
	defer a.Unpin(causePin)

	ref, exc := reserve(a, TypeException, 16)
	if exc != NullRef {
		return NullRef, exc
	}
	cause, message = a.Pinned(causePin), a.Pinned(messagePin)

	buf := a.Bytes()
	binary.LittleEndian.PutUint64(buf[int(ref)+exceptionCauseOff:], uint64(cause))
	binary.LittleEndian.PutUint64(buf[int(ref)+exceptionMessageOff:], uint64(message))
	return ref, NullRef
}

// ExceptionCause returns the prior exception in the chain, or NullRef.
func ExceptionCause(a Allocator, ref Ref) Ref {
	return Ref(binary.LittleEndian.Uint64(a.Bytes()[int(ref)+exceptionCauseOff:]))
}

// ExceptionMessage returns the message value ref.
func ExceptionMessage(a Allocator, ref Ref) Ref {
	return Ref(binary.LittleEndian.Uint64(a.Bytes()[int(ref)+exceptionMessageOff:]))
}

// FormatException builds a string message via printf-style formatting and
// wraps it in a cause-less exception cell (spec §4.6). If the message string
// itself cannot be allocated, the out-of-heap exception produced by the
// failing NewString call is returned instead — callers never need a second
// fallback path.
func FormatException(a Allocator, format string, args ...any) (Ref, Ref) {
	msg, exc := NewString(a, fmt.Sprintf(format, args...))
	if exc != NullRef {
		return NullRef, exc
	}
	return NewException(a, msg)
}

// Rethrow wraps prior (an existing exception ref) with additional context,
// producing a new exception whose cause is prior. prior is pinned across the
// NewString call below, which allocates before NewExceptionWithCause gets a
// chance to pin it itself.
func Rethrow(a Allocator, prior Ref, format string, args ...any) (Ref, Ref) {
	priorPin := a.Pin(prior)
	defer a.Unpin(priorPin)

	msg, exc := NewString(a, fmt.Sprintf(format, args...))
	if exc != NullRef {
		return NullRef, exc
	}
	return NewExceptionWithCause(a, a.Pinned(priorPin), msg)
}
