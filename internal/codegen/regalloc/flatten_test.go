package regalloc

import "testing"

// buildLoopGraph constructs root -> header -> {body, exit}, body -> header
// (the back edge), exit with no successor: the minimal shape that exercises
// detectLoops' back-edge detection and orderBlocks' work-list.
func buildLoopGraph() (*Graph, BlockID, BlockID, BlockID, BlockID) {
	g := NewGraph()
	grp := Group(0)

	root := g.EmptyBlock()
	header := g.EmptyBlock()
	body := g.EmptyBlock()
	exit := g.EmptyBlock()

	zero := constOp("zero", grp)
	use2 := branchOp("branch_if_bigger", grp)
	inc := unaryOp("increment", grp)
	sink := sinkOp("return", grp, 1)

	var c0 InstrID

	g.WithBlock(root, func(b *BlockBuilder) {
		b.MakeRoot()
		c0 = b.Add(zero, nil)
		b.Goto(header)
	})

	g.WithBlock(header, func(b *BlockBuilder) {
		b.Add(use2, []InstrID{c0, c0})
		b.Branch(body, exit)
	})

	g.WithBlock(body, func(b *BlockBuilder) {
		b.Add(inc, []InstrID{c0})
		b.Goto(header)
	})

	g.WithBlock(exit, func(b *BlockBuilder) {
		b.Add(sink, []InstrID{c0})
	})

	return g, root, header, body, exit
}

func TestFlattenOrdersRootFirstAndCoversEveryBlock(t *testing.T) {
	g, root, _, _, _ := buildLoopGraph()

	if err := g.flatten(); err != nil {
		t.Fatalf("flatten: %v", err)
	}

	if len(g.flattened) != 4 {
		t.Fatalf("expected 4 blocks in flattened order, got %d", len(g.flattened))
	}

	if g.flattened[0] != g.root {
		t.Fatalf("expected flattened order to start at the (possibly renumbered) root")
	}

	_ = root // original handle is stale after renumbering; g.root is authoritative
}

// The reverse walk from a loop's back-edge ends stops at the header after
// marking it, so the header and the body share one loop depth, deeper than
// the root outside the loop.
func TestFlattenMarksLoopHeaderAndBodyAtSameDepth(t *testing.T) {
	g, _, _, _, _ := buildLoopGraph()

	if err := g.flatten(); err != nil {
		t.Fatalf("flatten: %v", err)
	}

	var header, body *Block

	for _, id := range g.flattened {
		blk := g.block(id)
		if len(blk.succs) == 2 {
			header = blk
		}
	}

	if header == nil {
		t.Fatalf("expected exactly one two-way-branch block (the loop header)")
	}

	for _, id := range g.flattened {
		blk := g.block(id)
		if blk == header {
			continue
		}

		for _, p := range blk.preds {
			if g.block(p) == header && len(blk.succs) == 1 && g.block(blk.succs[0]) == header {
				body = blk
			}
		}
	}

	if body == nil {
		t.Fatalf("expected to find the single-successor block that branches back to the header")
	}

	if body.loopDepth != header.loopDepth {
		t.Errorf("loop body depth %d should equal header depth %d", body.loopDepth, header.loopDepth)
	}

	if root := g.block(g.root); header.loopDepth <= root.loopDepth {
		t.Errorf("loop header depth %d should exceed root depth %d", header.loopDepth, root.loopDepth)
	}
}

func TestFlattenInsertsGapsAroundEveryRealInstruction(t *testing.T) {
	g, _, _, _, _ := buildLoopGraph()

	if err := g.flatten(); err != nil {
		t.Fatalf("flatten: %v", err)
	}

	for _, id := range g.flattened {
		blk := g.block(id)

		for _, instrID := range blk.instrs {
			if !g.instr(instrID).added {
				t.Errorf("block %d contains an instruction that was never marked added", id)
			}
		}

		if !g.instr(blk.instrs[0]).kind.IsGap() {
			t.Errorf("block %d must start with a Gap", id)
		}

		if !g.instr(blk.instrs[len(blk.instrs)-1]).kind.IsGap() {
			t.Errorf("block %d must end with a Gap", id)
		}
	}
}

func TestFlattenRejectsGraphWithoutRoot(t *testing.T) {
	g := NewGraph()
	g.EmptyBlock()

	if err := g.flatten(); err == nil {
		t.Fatalf("expected an error when no block was marked root")
	}
}
