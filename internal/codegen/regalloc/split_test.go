package regalloc

import "testing"

// buildSplitFixture constructs a single straight-line block:
//
//	v0 = zero()
//	call(v0)     -- clobbers the group
//	just_use(v0)
//
// and runs construction through buildIntervals (but not the scan walk), so
// v0's root interval carries, besides the use at its own definition, two
// AnyUse uses, one exactly at the clobbering call and one after it, ready
// for splitAt to be exercised directly.
func buildSplitFixture(t *testing.T) (g *Graph, v0Root IntervalID, callPos, usePos InstrID) {
	t.Helper()

	g = NewGraph()
	grp := Group(0)

	zero := constOp("zero", grp)
	call := clobberingOp("call", grp)
	justUse := sinkOp("just_use", grp, 1)

	var zeroID, callID, useID InstrID

	g.Block(func(b *BlockBuilder) {
		b.MakeRoot()
		zeroID = b.Add(zero, nil)
		callID = b.Add(call, []InstrID{zeroID})
		useID = b.Add(justUse, []InstrID{zeroID})
	})

	zeroInstr := g.instr(zeroID)
	callInstr := g.instr(callID)
	useInstr := g.instr(useID)

	if err := g.flatten(); err != nil {
		t.Fatalf("flatten: %v", err)
	}

	g.buildLiveness()

	cfg := Config{RegisterCountPerGroup: []int{1}}
	if err := g.buildIntervals(cfg); err != nil {
		t.Fatalf("buildIntervals: %v", err)
	}

	return g, zeroInstr.output, callInstr.id, useInstr.id
}

// TestSplitAtUseAtBoundary covers spec.md section 4.5's resolved tie-break:
// a use exactly at the split position stays with the parent when the
// instruction there clobbers the interval's group, and moves to the new
// child otherwise.
func TestSplitAtUseAtBoundary(t *testing.T) {
	t.Run("clobbering boundary keeps the use with the parent", func(t *testing.T) {
		g, v0, callPos, usePos := buildSplitFixture(t)

		child := g.splitAt(v0, callPos)

		parent := g.interval(v0)

		foundInParent := false

		for _, u := range parent.uses {
			if u.Pos == callPos {
				foundInParent = true
			}
		}

		if !foundInParent {
			t.Errorf("expected the use at the clobbering call (pos %d) to stay with the parent", callPos)
		}

		for _, u := range g.interval(child).uses {
			if u.Pos == callPos {
				t.Errorf("use at the clobbering call must not also appear on the child")
			}
		}

		foundUseAfter := false

		for _, u := range g.interval(child).uses {
			if u.Pos == usePos {
				foundUseAfter = true
			}
		}

		if !foundUseAfter {
			t.Errorf("expected the later just_use (pos %d) to move to the child", usePos)
		}
	})

	t.Run("non-clobbering boundary moves the use to the child", func(t *testing.T) {
		g, v0, _, usePos := buildSplitFixture(t)

		// Split exactly at the non-clobbering just_use itself: this use must
		// move to the child since nothing clobbers the group there.
		child := g.splitAt(v0, usePos)

		parent := g.interval(v0)

		for _, u := range parent.uses {
			if u.Pos == usePos {
				t.Errorf("use at a non-clobbering boundary must not stay with the parent")
			}
		}

		found := false

		for _, u := range g.interval(child).uses {
			if u.Pos == usePos {
				found = true
			}
		}

		if !found {
			t.Errorf("expected the use at pos %d to have moved to the child", usePos)
		}
	})
}

func TestSplitAtInsertsMoveWhenNotOnBlockBoundary(t *testing.T) {
	g, v0, callPos, _ := buildSplitFixture(t)

	g.splitAt(v0, callPos)

	if _, ok := g.gaps[callPos]; !ok {
		t.Errorf("expected a gap move to be recorded at the split position %d", callPos)
	}
}

func TestOptimalSplitPosStaysInRange(t *testing.T) {
	g, v0, callPos, usePos := buildSplitFixture(t)

	grp := g.interval(v0).value.Group
	start := g.interval(v0).Start()

	pos := g.optimalSplitPos(grp, start, usePos)

	if pos <= start || pos > usePos {
		t.Errorf("optimalSplitPos(%d, %d) = %d, want in (%d, %d]", start, usePos, pos, start, usePos)
	}

	_ = callPos
}
