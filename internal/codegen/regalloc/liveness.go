package regalloc

// buildLiveness computes live_gen/live_kill locally per block, then
// live_in/live_out by backward fix-point, over the flattened block order.
// Liveness identity is keyed by instruction handle: every non-gap
// instruction defines at most one value, so its own InstrID doubles as that
// value's identity throughout this pass.
func (g *Graph) buildLiveness() {
	g.buildLocalLiveness()
	g.buildGlobalLiveness()
}

func (g *Graph) buildLocalLiveness() {
	for _, id := range g.flattened {
		blk := g.block(id)

		for _, instrID := range blk.instrs {
			instr := g.instr(instrID)

			if instr.output != NoInterval {
				blk.liveKill.Insert(int(instrID))
			}

			for _, in := range instr.inputs {
				if !blk.liveKill.Contains(int(in)) {
					blk.liveGen.Insert(int(in))
				}
			}
		}
	}

	// A phi's output is considered defined in its owning (header) block even
	// though phis are never members of any block's instruction list.
	for _, phi := range g.phis {
		instr := g.instr(phi)
		g.block(instr.block).liveKill.Insert(int(phi))
	}
}

func (g *Graph) buildGlobalLiveness() {
	changed := true
	for changed {
		changed = false

		for i := len(g.flattened) - 1; i >= 0; i-- {
			blk := g.block(g.flattened[i])

			union := newBitset()
			for _, s := range blk.succs {
				union.UnionWith(g.block(s).liveIn)
			}

			if !blk.liveOut.IsSupersetOf(union) {
				blk.liveOut.UnionWith(union)
				changed = true
			}

			next := blk.liveOut.Clone()
			next.DifferenceWith(blk.liveKill)
			next.UnionWith(blk.liveGen)

			if !next.Equal(blk.liveIn) {
				blk.liveIn = next
				changed = true
			}
		}
	}
}
