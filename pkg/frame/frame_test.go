package frame

import "testing"

func TestInheritSharesSlotsFreshRegisters(t *testing.T) {
	bottom := Empty(nil)
	bottom.Dictionary.Ref = 10
	bottom.Callstack.Ref = 20
	bottom.Datastack.Ref = 30

	child := Inherit(bottom)

	if child.Dictionary != bottom.Dictionary || child.Callstack != bottom.Callstack || child.Datastack != bottom.Datastack {
		t.Fatalf("Inherit should alias the predecessor's three root slots")
	}
	for i, r := range child.Regs {
		if r != NullRef {
			t.Fatalf("Inherit: reg %d = %v, want NullRef", i, r)
		}
	}
	// Mutating through the child is visible to the predecessor, since they
	// share the same Slot.
	child.Datastack.Ref = 99
	if bottom.Datastack.Ref != 99 {
		t.Fatalf("mutation through aliased slot did not propagate")
	}
}

func TestEmptyFrameAllSlotsNull(t *testing.T) {
	f := Empty(nil)
	if f.Dictionary.Ref != NullRef || f.Callstack.Ref != NullRef || f.Datastack.Ref != NullRef {
		t.Fatalf("Empty frame should start with all three slots null")
	}
	for i, r := range f.Regs {
		if r != NullRef {
			t.Fatalf("Empty: reg %d = %v, want NullRef", i, r)
		}
	}
}

func TestChainLinkUnlinkOrder(t *testing.T) {
	var c Chain
	bottom := Empty(nil)
	c.Link(bottom)

	mid := Inherit(bottom)
	c.Link(mid)

	top := Inherit(mid)
	c.Link(top)

	if c.Top() != top {
		t.Fatalf("Top() = %v, want top frame", c.Top())
	}

	c.Unlink(top)
	if c.Top() != mid {
		t.Fatalf("after unlinking top, Top() = %v, want mid", c.Top())
	}
	c.Unlink(mid)
	if c.Top() != bottom {
		t.Fatalf("after unlinking mid, Top() = %v, want bottom", c.Top())
	}
}

func TestChainUnlinkOutOfOrderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic unlinking a non-top frame")
		}
	}()

	var c Chain
	bottom := Empty(nil)
	c.Link(bottom)
	mid := Inherit(bottom)
	c.Link(mid)

	c.Unlink(bottom) // bottom is not the top; must panic
}

func TestWalkRootsVisitsEveryRegisterAndSlotOnce(t *testing.T) {
	var c Chain
	bottom := Empty(nil)
	bottom.Dictionary.Ref = 1
	bottom.Callstack.Ref = 2
	bottom.Datastack.Ref = 3
	bottom.Regs[0] = 4
	c.Link(bottom)

	child := Inherit(bottom)
	child.Regs[1] = 5
	c.Link(child)

	var visited []Ref
	c.WalkRoots(func(r Ref) Ref {
		visited = append(visited, r)
		return r + 100
	})

	// child's three registers (5 in Regs[1]), then its aliased slots (shared
	// with bottom, visited once), then bottom's three registers (4 in
	// Regs[0]); bottom's slots are skipped as already seen.
	if len(visited) == 0 {
		t.Fatalf("expected WalkRoots to visit at least one root")
	}

	// Aliased slots must be forwarded exactly once even though both frames
	// reference the same Slot.
	if bottom.Dictionary.Ref != 101 {
		t.Fatalf("Dictionary.Ref = %v, want 101 (forwarded once)", bottom.Dictionary.Ref)
	}
	if child.Regs[1] != 105 {
		t.Fatalf("child.Regs[1] = %v, want 105", child.Regs[1])
	}
	if bottom.Regs[0] != 104 {
		t.Fatalf("bottom.Regs[0] = %v, want 104", bottom.Regs[0])
	}
}
