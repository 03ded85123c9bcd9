package regalloc

// Generator is the downstream visitor a code emitter implements to consume
// an allocated graph. Generate walks the flattened stream in position order,
// resolving every operand to the concrete split-child that covers its
// position, and calls back into gen accordingly.
type Generator interface {
	Prelude()
	Epilogue()
	Block(id BlockID)
	Goto(id BlockID)
	Move(from, to IntervalID)
	Swap(a, b IntervalID)
	Instr(kind InstrKind, output IntervalID, inputs, temporaries []IntervalID, successors []BlockID)
}

// Generate runs gen over g, which must already have completed a successful
// Allocate call.
func (g *Graph) Generate(gen Generator) {
	gen.Prelude()

	for i, bID := range g.flattened {
		blk := g.block(bID)
		gen.Block(bID)

		for _, instrID := range blk.instrs {
			instr := g.instr(instrID)

			switch {
			case instr.kind.IsGap():
				g.generateGap(instrID, gen)
			case instr.kind.IsToPhi():
				g.generateToPhi(instr, gen)
			default:
				// A split at a clobbering instruction records its move at
				// that instruction's own position; it runs before the
				// instruction does.
				g.generateGap(instrID, gen)
				g.generateInstr(instr, gen)
			}
		}

		g.generateTerminator(blk, i, gen)
	}

	gen.Epilogue()
}

func (g *Graph) generateGap(pos InstrID, gen Generator) {
	st, ok := g.gaps[pos]
	if !ok {
		return
	}

	for _, a := range st.Actions {
		switch a.Kind {
		case ActionMove:
			gen.Move(a.From, a.To)
		case ActionSwap:
			gen.Swap(a.From, a.To)
		}
	}
}

// generateToPhi treats a ToPhi pseudo-instruction as a plain move from its
// input's covering child into the phi's own covering child, never calling
// gen.Instr for it.
func (g *Graph) generateToPhi(instr *Instruction, gen Generator) {
	p := instr.id
	producer := g.instr(instr.inputs[0])

	from := g.childAt(producer.output, p)
	to := g.childAt(instr.output, p)

	if from != to {
		gen.Move(from, to)
	}
}

func (g *Graph) generateInstr(instr *Instruction, gen Generator) {
	p := instr.id

	output := NoInterval
	if instr.output != NoInterval {
		// A clobbering instruction's output is defined at p+1, not p (spec
		// section 3/8; intervals.go's buildIntervals seeds the output
		// range's start the same way), so it must be resolved one position
		// later too, matching original_source/src/linearscan/generator.rs's
		// instr.id.next() lookup.
		outPos := p
		if instr.kind.Clobbers(g.interval(instr.output).value.Group) {
			outPos = p + 1
		}

		output = g.childAt(instr.output, outPos)
	}

	inputs := make([]IntervalID, len(instr.inputs))
	for i, producerID := range instr.inputs {
		producer := g.instr(producerID)
		inputs[i] = g.childAt(producer.output, p)
	}

	gen.Instr(instr.kind, output, inputs, instr.temps, g.block(instr.block).succs)
}

// generateTerminator emits an explicit Goto for any single successor that
// isn't simply the next block in flattened order (a fall-through needs no
// instruction). Two-way branches are assumed to already have their
// condition encoded in the block's last user instruction.
func (g *Graph) generateTerminator(blk *Block, flatIndex int, gen Generator) {
	if len(blk.succs) != 1 {
		return
	}

	target := blk.succs[0]

	if flatIndex+1 < len(g.flattened) && g.flattened[flatIndex+1] == target {
		return
	}

	gen.Goto(target)
}
