package vm

import (
	"github.com/mwantia/bowl/pkg/frame"
	"github.com/mwantia/bowl/pkg/value"
)

// Push conses val onto the list pointed to by slot, the general shape every
// datastack and callstack operation reduces to (spec §3.3 glossary:
// "datastack: the operand stack; a list value pointed to by a frame slot").
func Push(vm *VM, slot *frame.Slot, val Ref) Ref {
	newTop, exc := value.NewList(vm, val, slot.Ref)
	if exc != NullRef {
		return exc
	}
	slot.Ref = newTop
	return NullRef
}

// Pop removes and returns the head of the list pointed to by slot. primitive
// names the caller for StackUnderflow's message.
func Pop(vm *VM, slot *frame.Slot, primitive string) (Ref, Ref) {
	if slot.Ref == NullRef {
		return NullRef, StackUnderflow(vm, primitive)
	}
	top := value.ListHead(vm, slot.Ref)
	slot.Ref = value.ListTail(vm, slot.Ref)
	return top, NullRef
}

// Peek returns the head of the list pointed to by slot without popping it.
func Peek(vm *VM, slot *frame.Slot, primitive string) (Ref, Ref) {
	if slot.Ref == NullRef {
		return NullRef, StackUnderflow(vm, primitive)
	}
	return value.ListHead(vm, slot.Ref), NullRef
}

// PopNumber pops a Number argument, raising TypeMismatch if the popped
// value isn't one.
func PopNumber(vm *VM, slot *frame.Slot, primitive string) (float64, Ref) {
	ref, exc := Pop(vm, slot, primitive)
	if exc != NullRef {
		return 0, exc
	}
	if ref == NullRef || value.TypeOf(vm, ref) != value.TypeNumber {
		return 0, TypeMismatch(vm, primitive, value.TypeNumber, ref)
	}
	return value.NumberValue(vm, ref), NullRef
}

// PopString pops a String argument, raising TypeMismatch if the popped
// value isn't one.
func PopString(vm *VM, slot *frame.Slot, primitive string) (string, Ref) {
	ref, exc := Pop(vm, slot, primitive)
	if exc != NullRef {
		return "", exc
	}
	if ref == NullRef || value.TypeOf(vm, ref) != value.TypeString {
		return "", TypeMismatch(vm, primitive, value.TypeString, ref)
	}
	return value.StringText(vm, ref), NullRef
}
