package regalloc

import "sort"

// Start returns a block's first (always-Gap) position.
func (b *Block) Start() InstrID { return b.start }

// End returns one past a block's last (always-Gap) position — i.e. the
// position at which the next block, if any, begins.
func (b *Block) End() InstrID { return b.endPos + 1 }

// blockContaining returns the block whose [Start, End) span covers pos.
func (g *Graph) blockContaining(pos InstrID) *Block {
	for _, id := range g.flattened {
		blk := g.block(id)
		if pos >= blk.Start() && pos < blk.End() {
			return blk
		}
	}

	return nil
}

// isGapOrClobber reports whether position pos is itself a Gap, or a user
// instruction that clobbers group g. Positions at or past the end of the
// instruction stream count as a boundary (vacuously true): there is nothing
// there to back away from.
func (g *Graph) isGapOrClobber(pos InstrID, group Group) bool {
	if pos < 0 || int(pos) >= len(g.instrs) {
		return true
	}

	instr := g.instr(pos)

	return instr.kind.IsGap() || instr.kind.Clobbers(group)
}

// optimalSplitPos picks the end-position of the shallowest block whose end
// lies in (start, end], falling back to end itself when no such block
// exists, then nudges the result back onto a gap when it would otherwise
// land mid-instruction. This hoists splits out of inner loops: the result is
// always in (start, end].
func (g *Graph) optimalSplitPos(group Group, start, end InstrID) InstrID {
	best := (*Block)(nil)

	for _, id := range g.flattened {
		blk := g.block(id)
		if blk.End() > start && blk.End() <= end {
			if best == nil || blk.loopDepth < best.loopDepth {
				best = blk
			}
		}
	}

	result := end
	if best != nil {
		result = best.End()
	}

	if !g.isGapOrClobber(result, group) {
		result--
	}

	return result
}

// splitAt splits the child of id's root interval that covers pos into two
// pieces at pos, returning the new (later) child's handle. The tie-break on
// which side a use exactly at pos belongs to depends on whether the
// instruction at pos clobbers the interval's group: if so, the boundary use
// stays with the earlier piece (the value must still be valid going into the
// clobber); otherwise it moves to the new, later piece.
func (g *Graph) splitAt(id IntervalID, pos InstrID) IntervalID {
	root := g.rootOf(id)
	group := g.interval(root).value.Group

	splitParent := root
	if !g.interval(root).Covers(pos) {
		found := false

		for _, c := range g.interval(root).children {
			if g.interval(c).Covers(pos) {
				splitParent = c
				found = true

				break
			}
		}

		assertf(found, "splitAt: no child of interval %d covers position %d", root, pos)
	}

	child := g.newIntervalID(group)
	g.interval(child).parent = root
	g.interval(child).hint = root

	sp := g.interval(splitParent)

	var parentRanges, childRanges []LiveRange

	for _, r := range sp.ranges {
		switch {
		case r.End <= pos:
			parentRanges = append(parentRanges, r)
		case r.Start < pos:
			parentRanges = append(parentRanges, LiveRange{Start: r.Start, End: pos})
			childRanges = append(childRanges, LiveRange{Start: pos, End: r.End})
		default:
			childRanges = append(childRanges, r)
		}
	}

	if len(childRanges) == 0 {
		childRanges = append(childRanges, LiveRange{Start: pos, End: pos})
	}

	sp.ranges = parentRanges
	g.interval(child).ranges = childRanges

	// spec.md 4.5: a use exactly at pos stays with the parent when the
	// instruction at pos clobbers the group (the value must still be valid
	// going into the clobber), otherwise it moves to the new, later child.
	clobbersAtPos := int(pos) < len(g.instrs) && g.instr(pos).kind.Clobbers(group)

	var parentUses, childUses []Use

	for _, u := range sp.uses {
		keepWithParent := u.Pos < pos
		if clobbersAtPos {
			keepWithParent = u.Pos <= pos
		}

		if keepWithParent {
			parentUses = append(parentUses, u)
		} else {
			childUses = append(childUses, u)
		}
	}

	sp.uses = parentUses
	g.interval(child).uses = childUses

	iv := g.interval(root)
	idx := sort.Search(len(iv.children), func(i int) bool {
		return g.interval(iv.children[i]).End() > g.interval(child).End()
	})
	iv.children = append(iv.children, NoInterval)
	copy(iv.children[idx+1:], iv.children[idx:])
	iv.children[idx] = child

	blockBoundary := false
	if blk := g.blockContaining(pos); blk != nil {
		blockBoundary = blk.Start() == pos
	}

	if !blockBoundary || g.instr(pos).kind.Clobbers(group) {
		g.addMove(pos, splitParent, child)
	}

	return child
}
