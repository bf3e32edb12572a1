// Package frame implements the VM's frame-chain protocol: the cooperative
// activation records native primitives use to pin intermediate values while
// the collector is free to relocate everything else (spec §3.3, §4.4).
package frame

import "github.com/mwantia/bowl/pkg/heap"

// Ref is a heap reference, re-exported so callers don't need to import
// pkg/heap directly just to build a Frame.
type Ref = heap.Ref

// NullRef is the canonical "no value" reference.
const NullRef = heap.NullRef

// Slot is a GC-visible storage cell a Frame's Dictionary/Callstack/Datastack
// pointers alias. Its lifetime must outlast the Frame that points to it —
// typically it lives in the enclosing frame, or in the VM itself at the
// bottom of the chain.
type Slot struct {
	Ref Ref
}

// Frame is one activation record in the chain the collector treats as the
// root set (spec §3.3). It is ordinary Go-stack or Go-heap memory — never a
// value-heap cell itself — matching the ABI's "modules construct frames
// before allocating" contract (spec §6).
type Frame struct {
	Previous *Frame
	Regs     [3]Ref

	Dictionary *Slot
	Callstack  *Slot
	Datastack  *Slot
}

// Inherit builds a frame that shares its predecessor's three root slots,
// with fresh nulled registers (spec §4.4, "inheriting frame"). Used when a
// primitive wants to add register roots within the same scope.
func Inherit(previous *Frame) *Frame {
	f := &Frame{Previous: previous}
	if previous != nil {
		f.Dictionary = previous.Dictionary
		f.Callstack = previous.Callstack
		f.Datastack = previous.Datastack
	}
	for i := range f.Regs {
		f.Regs[i] = NullRef
	}
	return f
}

// Empty builds a frame with all three slots and all registers null (spec
// §4.4, "empty frame"). Used at the bottom of a brand-new scope.
func Empty(previous *Frame) *Frame {
	f := &Frame{
		Previous:   previous,
		Dictionary: &Slot{Ref: NullRef},
		Callstack:  &Slot{Ref: NullRef},
		Datastack:  &Slot{Ref: NullRef},
	}
	for i := range f.Regs {
		f.Regs[i] = NullRef
	}
	return f
}

// Chain tracks the process-wide "current top frame" register (spec §3.3,
// §9 "global mutable state"). One VM owns exactly one Chain; an embedder
// running several VMs on separate threads gets separate Chains for free by
// giving each VM its own.
type Chain struct {
	top *Frame
}

// Top returns the current top frame, or nil if nothing is linked.
func (c *Chain) Top() *Frame { return c.top }

// Link pushes f onto the chain as the new top. f must not already be linked.
func (c *Chain) Link(f *Frame) {
	f.Previous = c.top
	c.top = f
}

// Unlink pops f off the chain. It panics if f is not the current top, which
// would indicate a primitive returned without unwinding its own frames in
// order (spec §4.4: "a frame must be unlinked before returning").
func (c *Chain) Unlink(f *Frame) {
	if c.top != f {
		panic("frame: unlink called out of order")
	}
	c.top = f.Previous
}

// WalkRoots visits every root slot in the chain — each frame's three
// registers, then its Dictionary/Callstack/Datastack slots — from the
// current top toward the bottom (spec §4.3 step 2; walk order documented as
// a supplemented detail since the spec leaves it unstated). It satisfies
// heap.RootWalker.
func (c *Chain) WalkRoots(forward func(heap.Ref) heap.Ref) {
	seen := make(map[*Slot]bool)
	for f := c.top; f != nil; f = f.Previous {
		for i := range f.Regs {
			f.Regs[i] = forward(f.Regs[i])
		}
		for _, slot := range [...]*Slot{f.Dictionary, f.Callstack, f.Datastack} {
			if slot == nil || seen[slot] {
				continue
			}
			seen[slot] = true
			slot.Ref = forward(slot.Ref)
		}
	}
}
