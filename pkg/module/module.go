// Package module implements the native module loader (spec §4.7): dynamic
// discovery, loading, initialization, finalization, and GC-lifetime
// coupling of foreign shared libraries to a Library value in the heap.
package module

import (
	"fmt"
	"path/filepath"
	"sync"
	"unsafe"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/hashicorp/go-multierror"
	"github.com/google/uuid"

	"github.com/ebitengine/purego"

	"github.com/mwantia/bowl/pkg/frame"
	"github.com/mwantia/bowl/pkg/heap"
	"github.com/mwantia/bowl/pkg/value"
	"github.com/mwantia/bowl/pkg/vm"
)

// Ref is a heap reference, re-exported for callers that only need pkg/module.
type Ref = vm.Ref

// NullRef is the canonical "no value" reference.
const NullRef = vm.NullRef

// entry is everything the loader tracks about one loaded module, keyed by
// normalized path in the registry and also reachable by its current ref
// during a collection's beforeSweep pass.
type entry struct {
	path   string
	id     uuid.UUID
	handle uintptr
	ref    Ref

	initialize func(framePtr, libraryPtr uintptr) uintptr
	finalize   func(framePtr, libraryPtr uintptr) uintptr
}

// Loader owns the process-wide path → library-cell registry (spec §4.7,
// §9 "global mutable state"). It installs itself as the VM's beforeSweep
// hook so the collector's finalization step (spec §4.3) has somewhere to
// report unreachable libraries.
type Loader struct {
	vm *vm.VM

	mu       sync.Mutex
	registry *iradix.Tree // normalized path -> *entry
	byRef    map[Ref]*entry

	lastFinalizationErr error
}

// New creates a Loader bound to vm and installs its beforeSweep hook.
func New(v *vm.VM) *Loader {
	l := &Loader{
		vm:       v,
		registry: iradix.New(),
		byRef:    make(map[Ref]*entry),
	}
	v.OnBeforeSweep(l.beforeSweep)
	return l
}

// HadFinalizationFailure reports whether the most recent collection failed
// to finalize or close at least one unreachable library. Callers surface
// this with the VM's preallocated ExceptionFinalizationFailure singleton
// (spec §4.3) rather than allocating a fresh exception mid-collection.
func (l *Loader) HadFinalizationFailure() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastFinalizationErr != nil
}

// LastFinalizationError returns the aggregated finalizer/close errors from
// the most recent collection, or nil.
func (l *Loader) LastFinalizationError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastFinalizationErr
}

// Load returns the Library cell for path, loading it if this is the first
// request for that normalized path (spec §4.7).
func (l *Loader) Load(f *frame.Frame, path string) (Ref, Ref) {
	norm, err := filepath.Abs(path)
	if err != nil {
		norm = path
	}
	norm = filepath.Clean(norm)

	l.mu.Lock()
	if raw, ok := l.registry.Get([]byte(norm)); ok {
		l.mu.Unlock()
		return raw.(*entry).ref, NullRef
	}
	l.mu.Unlock()

	handle, err := purego.Dlopen(norm, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return NullRef, vm.LibraryFailure(l.vm, norm, err)
	}

	var init func(framePtr, libraryPtr uintptr) uintptr
	initSym, err := purego.Dlsym(handle, "bowl_module_initialize")
	if err != nil {
		purego.Dlclose(handle)
		return NullRef, vm.LibraryFailure(l.vm, norm, fmt.Errorf("missing bowl_module_initialize: %w", err))
	}
	purego.RegisterFunc(&init, initSym)

	var fin func(framePtr, libraryPtr uintptr) uintptr
	finSym, err := purego.Dlsym(handle, "bowl_module_finalize")
	if err != nil {
		purego.Dlclose(handle)
		return NullRef, vm.LibraryFailure(l.vm, norm, fmt.Errorf("missing bowl_module_finalize: %w", err))
	}
	purego.RegisterFunc(&fin, finSym)

	libRef, exc := value.NewLibrary(l.vm, norm, handle)
	if exc != NullRef {
		purego.Dlclose(handle)
		return NullRef, exc
	}
	// Pin the new cell in a register across the initialize call, which may
	// itself allocate (spec §4.4: keep intermediates rooted before they're
	// reachable any other way).
	f.Regs[0] = libRef

	if excPtr := init(uintptr(unsafe.Pointer(f)), uintptr(libRef)); excPtr != 0 {
		purego.Dlclose(handle)
		return NullRef, Ref(excPtr)
	}
	// init may have allocated through f; re-read the rooted register rather
	// than trust the pre-call local, in case a collection moved the cell.
	libRef = f.Regs[0]

	e := &entry{
		path:       norm,
		id:         uuid.New(),
		handle:     handle,
		ref:        libRef,
		initialize: init,
		finalize:   fin,
	}

	l.mu.Lock()
	l.registry, _, _ = l.registry.Insert([]byte(norm), e)
	l.byRef[libRef] = e
	l.mu.Unlock()

	return libRef, NullRef
}

// beforeSweep runs after the collector has finished forwarding every
// reachable reference but before the old space is cleared (spec §4.3's
// finalization step). Every entry the loader still knows about is checked
// against oldSpace's forwarding bits: survivors get their ref updated to the
// new address (since library cells are not roots, nothing else does this
// for the registry's own bookkeeping copy); the rest are finalized and
// closed.
func (l *Loader) beforeSweep(oldSpace []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs *multierror.Error
	survivors := make(map[Ref]*entry, len(l.byRef))
	registry := l.registry

	for oldRef, e := range l.byRef {
		newRef, alive := heap.IsForwarded(oldSpace, oldRef)
		if alive {
			e.ref = newRef
			survivors[newRef] = e
			continue
		}

		if excPtr := e.finalize(uintptr(unsafe.Pointer(l.vm.RootFrame())), uintptr(oldRef)); excPtr != 0 {
			errs = multierror.Append(errs, fmt.Errorf("module %s (%s): finalize returned an exception", e.path, e.id))
		}
		purego.Dlclose(e.handle)

		var ok bool
		registry, _, ok = registry.Delete([]byte(e.path))
		_ = ok
	}

	l.byRef = survivors
	l.registry = registry
	if errs != nil {
		l.lastFinalizationErr = errs
	} else {
		l.lastFinalizationErr = nil
	}
}
