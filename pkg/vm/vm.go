// Package vm implements the bowl virtual machine: the concrete heap,
// allocator, frame chain, dictionary, and dispatch loop the rest of the
// runtime is built around.
package vm

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/mwantia/bowl/pkg/frame"
	"github.com/mwantia/bowl/pkg/heap"
	"github.com/mwantia/bowl/pkg/value"
)

// Ref is a heap reference, re-exported for callers that only need pkg/vm.
type Ref = value.Ref

// NullRef is the canonical "no value" reference.
const NullRef = value.NullRef

// Register indices the bottom frame permanently reserves for the three
// preallocated singletons (spec §6). The bottom frame never does allocation
// work of its own, so it has no competing need for scratch registers.
const (
	regSentinel            = 0
	regOutOfHeap           = 1
	regFinalizationFailure = 2
)

// VM owns the real heap, the frame chain, the dictionary's backing slot, and
// the three preallocated singletons the spec requires (sentinel_value,
// exception_out_of_heap, exception_finalization_failure).
type VM struct {
	heap  *heap.Heap
	chain frame.Chain
	root  *frame.Frame // the bottom frame; its Dictionary slot is the VM's live dictionary

	log hclog.Logger

	booted    bool
	finalize  func(oldSpace []byte)
	nativeFns *natives

	// pins holds Refs rooted outside any frame register: a multi-cell
	// constructor's in-flight accumulator, a walk cursor, anything a plain Go
	// local can't keep safe across a second allocation. Walked alongside the
	// frame chain on every collection (see WalkRoots) and released in LIFO
	// order by Unpin, mirroring how a register is reused once its value is no
	// longer needed.
	pins []value.Ref
}

// natives returns the VM's native-pointer dispatch table, lazily created so
// a zero-value-adjacent VM (impossible to construct outside New, but kept
// defensive for tests that poke at internals) never nil-derefs.
func (vm *VM) natives() *natives {
	if vm.nativeFns == nil {
		vm.nativeFns = newNatives()
	}
	return vm.nativeFns
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithLogger installs the logger the VM writes its GC events to.
// The default is hclog.NewNullLogger().
func WithLogger(log hclog.Logger) Option {
	return func(vm *VM) { vm.log = log }
}

// WithHeapSize overrides the default per-semi-space capacity.
func WithHeapSize(bytes int) Option {
	return func(vm *VM) { vm.heap = heap.New(bytes) }
}

// New boots a VM: allocates the heap, links the bottom (empty) frame, and
// preallocates the three singletons (spec §6, §9 "global mutable state").
// Each VM value is its own process-wide state, per the spec's "one VM
// instance per thread" concurrency model — an embedder wanting concurrency
// creates one VM per thread rather than sharing one.
func New(opts ...Option) (*VM, error) {
	vm := &VM{
		heap:      heap.New(0),
		log:       hclog.NewNullLogger(),
		nativeFns: newNatives(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.heap.OnVerbose(func(format string, args ...any) {
		vm.log.Trace(fmt.Sprintf(format, args...))
	})

	vm.root = frame.Empty(nil)
	vm.chain.Link(vm.root)

	dict, exc := value.NewMap(vm, 16)
	if exc != NullRef {
		return nil, fmt.Errorf("vm: failed to allocate initial dictionary")
	}
	vm.root.Dictionary.Ref = dict

	sentinel, exc := value.NewSymbol(vm, "sentinel_value")
	if exc != NullRef {
		return nil, fmt.Errorf("vm: failed to allocate sentinel_value")
	}
	vm.root.Regs[regSentinel] = sentinel

	outOfHeapMsg, exc := value.NewString(vm, "out of heap: allocation failed after collection")
	if exc != NullRef {
		return nil, fmt.Errorf("vm: failed to allocate exception_out_of_heap message")
	}
	vm.root.Regs[regOutOfHeap] = outOfHeapMsg // pin the message across the next allocation
	outOfHeap, exc := value.NewException(vm, outOfHeapMsg)
	if exc != NullRef {
		return nil, fmt.Errorf("vm: failed to allocate exception_out_of_heap")
	}
	vm.root.Regs[regOutOfHeap] = outOfHeap

	finalizationMsg, exc := value.NewString(vm, "finalization failure: native module finalizer or handle close failed")
	if exc != NullRef {
		return nil, fmt.Errorf("vm: failed to allocate exception_finalization_failure message")
	}
	vm.root.Regs[regFinalizationFailure] = finalizationMsg
	finalizationFailure, exc := value.NewException(vm, finalizationMsg)
	if exc != NullRef {
		return nil, fmt.Errorf("vm: failed to allocate exception_finalization_failure")
	}
	vm.root.Regs[regFinalizationFailure] = finalizationFailure

	vm.booted = true
	return vm, nil
}

// SentinelValue returns the singleton map_get_or_else uses to signal key
// absence without allocating.
func (vm *VM) SentinelValue() Ref { return vm.root.Regs[regSentinel] }

// ExceptionOutOfHeap returns the preallocated out-of-heap exception.
func (vm *VM) ExceptionOutOfHeap() Ref { return vm.root.Regs[regOutOfHeap] }

// ExceptionFinalizationFailure returns the preallocated finalization-failure
// exception.
func (vm *VM) ExceptionFinalizationFailure() Ref { return vm.root.Regs[regFinalizationFailure] }

// Allocate implements value.Allocator. It bump-allocates from the heap,
// retries exactly once after a synchronous collection on overflow, and
// falls back to the preallocated out-of-heap singleton on a second failure
// (spec §4.1).
func (vm *VM) Allocate(t value.Type, extraBytes int) (Ref, Ref) {
	size := value.HeaderSize + extraBytes
	if ref, ok := vm.heap.Reserve(size); ok {
		return ref, NullRef
	}

	vm.CollectGarbage()

	if ref, ok := vm.heap.Reserve(size); ok {
		return ref, NullRef
	}

	if !vm.booted {
		// Still bootstrapping the singletons themselves: there is no
		// out-of-heap exception to hand back yet.
		panic(heap.ErrOutOfHeap)
	}
	return NullRef, vm.ExceptionOutOfHeap()
}

// Bytes implements value.Allocator.
func (vm *VM) Bytes() []byte { return vm.heap.Bytes() }

// Pin implements value.Allocator.
func (vm *VM) Pin(ref Ref) int {
	vm.pins = append(vm.pins, ref)
	return len(vm.pins) - 1
}

// Pinned implements value.Allocator.
func (vm *VM) Pinned(handle int) Ref { return vm.pins[handle] }

// SetPinned implements value.Allocator.
func (vm *VM) SetPinned(handle int, ref Ref) { vm.pins[handle] = ref }

// Unpin implements value.Allocator. It releases handle and every pin made
// after it, so callers must unpin in the reverse order they pinned.
func (vm *VM) Unpin(handle int) {
	vm.pins = vm.pins[:handle]
}

// WalkRoots implements heap.RootWalker by forwarding the frame chain's roots
// followed by every pinned Ref, so CollectGarbage can pass the VM itself in
// place of the bare frame chain.
func (vm *VM) WalkRoots(forward func(Ref) Ref) {
	vm.chain.WalkRoots(forward)
	for i, ref := range vm.pins {
		vm.pins[i] = forward(ref)
	}
}

// Chain returns the VM's frame chain, for primitives that need to link
// their own frames.
func (vm *VM) Chain() *frame.Chain { return &vm.chain }

// RootFrame returns the bottom frame, whose Dictionary slot is the VM's
// live, process-wide dictionary binding.
func (vm *VM) RootFrame() *frame.Frame { return vm.root }

// Dictionary returns the current dictionary map ref.
func (vm *VM) Dictionary() Ref { return vm.root.Dictionary.Ref }

// HeapOccupied and HeapCapacity expose the underlying arena's occupancy for
// the debug console and tests.
func (vm *VM) HeapOccupied() int { return vm.heap.Occupied() }
func (vm *VM) HeapCapacity() int { return vm.heap.Capacity() }

// CollectGarbage runs one synchronous collection (spec §4.3). It is exposed
// directly so a primitive (collect_garbage) can request it explicitly, not
// only on allocation overflow.
func (vm *VM) CollectGarbage() {
	before := vm.heap.Occupied()
	vm.heap.Collect(value.Forwarder, vm, vm.finalize)
	vm.log.Debug("collected garbage", "before", before, "after", vm.heap.Occupied())
}

// OnBeforeSweep installs the hook pkg/module uses to diff its library
// registry against survivors (spec §4.3 finalization step). Only one hook
// may be installed; pkg/module's loader owns it for the lifetime of the VM.
func (vm *VM) OnBeforeSweep(fn func(oldSpace []byte)) {
	vm.finalize = fn
}
