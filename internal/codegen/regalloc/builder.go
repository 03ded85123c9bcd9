package regalloc

// BlockBuilder scopes the per-block construction calls (add/add_arg/to_phi/
// goto/branch) to a single block handle, mirroring the Rust original's
// BlockBuilder<'self, K>.
type BlockBuilder struct {
	g     *Graph
	block BlockID
}

// EmptyBlock creates a block with no instructions yet; the caller is
// expected to populate it later via WithBlock.
func (g *Graph) EmptyBlock() BlockID {
	return g.newBlockID()
}

// Block creates a new block and immediately runs body against it.
func (g *Graph) Block(body func(b *BlockBuilder)) BlockID {
	id := g.newBlockID()
	g.WithBlock(id, body)

	return id
}

// WithBlock re-opens an existing block (typically one created via
// EmptyBlock) for further construction.
func (g *Graph) WithBlock(id BlockID, body func(b *BlockBuilder)) {
	b := &BlockBuilder{g: g, block: id}
	body(b)
}

// Phi creates a phi instruction in the given register group. Phis are never
// added to a block's instruction list, and neither Phi nor ToPhi records the
// phi's owning (header) block: SetPhiBlock must be called for that before
// allocation.
func (g *Graph) Phi(group Group) InstrID {
	id := g.newInstrID(PhiInstr(group))
	instr := g.instr(id)
	instr.output = g.newIntervalID(group)
	instr.added = true
	g.phis = append(g.phis, id)

	return id
}

// SetPhiBlock records which block owns a phi (the merge point where its
// output is considered "defined" for liveness purposes).
func (g *Graph) SetPhiBlock(phi InstrID, block BlockID) {
	g.instr(phi).block = block
}

// newUserInstr allocates (but does not place) a user instruction, resolving
// its inputs' producer intervals and allocating its temporaries and output
// interval up front, exactly as Instruction::new/new_empty do in the Rust
// original.
func (g *Graph) newUserInstr(kind InstrKind, args []InstrID) InstrID {
	id := g.newInstrID(kind)
	instr := g.instr(id)

	instr.inputs = append(instr.inputs, args...)

	for _, grp := range kind.Temporaries() {
		instr.temps = append(instr.temps, g.newIntervalID(grp))
	}

	if rk, ok := kind.ResultKind(); ok {
		instr.output = g.newIntervalID(rk.Group)
	}

	return id
}

// Add creates a new user instruction with the given inputs and appends it to
// this block.
func (b *BlockBuilder) Add(kind UserKind, args []InstrID) InstrID {
	id := b.g.newUserInstr(UserInstr(kind), args)
	b.AddExisting(id)

	return id
}

// AddExisting places an already-created (but not yet placed) instruction
// into this block. Panics if the instruction was already added or if this
// block has already been ended, matching the Rust assert!s.
func (b *BlockBuilder) AddExisting(id InstrID) {
	instr := b.g.instr(id)
	if instr.added {
		panic("regalloc: instruction already added to a block")
	}

	instr.added = true
	instr.block = b.block

	blk := b.g.block(b.block)
	if blk.ended {
		panic("regalloc: cannot add instruction to an ended block")
	}

	blk.instrs = append(blk.instrs, id)
}

// AddArg appends another producer-instruction handle to id's input list
// after the fact (used for cyclic input graphs the constructor couldn't see
// ahead of time).
func (b *BlockBuilder) AddArg(id, arg InstrID) {
	instr := b.g.instr(id)
	instr.inputs = append(instr.inputs, arg)
}

// ToPhi appends a ToPhi pseudo-instruction at the current end of this block,
// carrying input's value into phi's output interval.
func (b *BlockBuilder) ToPhi(input, phi InstrID) InstrID {
	phiInstr := b.g.instr(phi)
	if !phiInstr.kind.IsPhi() {
		panic("regalloc: ToPhi target must be a Phi instruction")
	}

	if phiInstr.output == NoInterval {
		panic("regalloc: Phi instruction has no output interval")
	}

	id := b.g.newInstrID(ToPhiInstr(b.g.interval(phiInstr.output).value.Group))
	instr := b.g.instr(id)
	instr.inputs = []InstrID{input}
	instr.output = phiInstr.output

	b.AddExisting(id)

	return id
}

func (b *BlockBuilder) end() {
	blk := b.g.block(b.block)
	if blk.ended {
		panic("regalloc: block already ended")
	}

	if len(blk.instrs) == 0 {
		panic("regalloc: cannot end an empty block")
	}

	blk.ended = true
}

// Goto terminates the block with a single successor.
func (b *BlockBuilder) Goto(target BlockID) {
	b.g.block(b.block).addSuccessor(target)
	b.g.block(target).addPredecessor(b.block)
	b.end()
}

// Branch terminates the block with two successors (left taken, right not).
func (b *BlockBuilder) Branch(left, right BlockID) {
	b.g.block(b.block).addSuccessor(left)
	b.g.block(b.block).addSuccessor(right)
	b.g.block(left).addPredecessor(b.block)
	b.g.block(right).addPredecessor(b.block)
	b.end()
}

// MakeRoot designates this block as the graph's entry point.
func (b *BlockBuilder) MakeRoot() {
	b.g.root = b.block
}
