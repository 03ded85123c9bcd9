package regalloc

// resolveEdges adds the moves that make every live-in value of every block
// land in the split-child location its successor expects, placing each move
// on whichever side of the edge is critical-edge-free: the successor's start
// gap for a two-way branch (the predecessor can't own a gap shared by both
// targets), otherwise the predecessor's end gap.
func (g *Graph) resolveEdges() {
	for _, bID := range g.flattened {
		b := g.block(bID)

		for _, sID := range b.succs {
			s := g.block(sID)

			s.liveIn.Each(func(n int) {
				producer := g.instr(InstrID(n))
				if producer.output == NoInterval {
					return
				}

				from := g.childAt(producer.output, b.End()-1)
				to := g.childAt(producer.output, s.Start())

				if from == to {
					return
				}

				pos := b.End() - 1
				if len(b.succs) == 2 {
					pos = s.Start()
				}

				g.addMove(pos, from, to)
			})
		}
	}
}
