package regalloc

import "sort"

// flatten orders blocks so every predecessor (save for loop back-edges)
// precedes its successors, keeps loop bodies contiguous, then re-numbers
// blocks and instructions to match that order, inserting Gap pseudo
// instructions at the start and end of every block body and between every
// pair of real instructions.
func (g *Graph) flatten() error {
	if g.root == NoBlock {
		return errMalformedGraph("graph has no root block")
	}

	for _, b := range g.blocks {
		if len(b.succs) > 2 || len(b.preds) > 2 {
			return errMalformedGraph("block %d has more than two successors/predecessors", b.id)
		}
	}

	g.detectLoops()

	order, err := g.orderBlocks()
	if err != nil {
		return err
	}

	g.renumber(order)

	// renumber re-handled every block to its index in order, so the flat
	// order is now simply 0..N-1.
	g.flattened = make([]BlockID, len(order))
	for i := range order {
		g.flattened[i] = BlockID(i)
	}
	g.constructed = true

	return nil
}

// detectLoops runs a DFS from the root, recording every edge u -> v whose
// target is already on the current path as a loop back-edge, then stamps
// loop_index/loop_depth on every block between each header and its ends via
// a reverse BFS, and decrements the header's incomingFwd once per back-edge
// so the work-list ordering pass can be driven purely by forward edges.
func (g *Graph) detectLoops() {
	onPath := make(map[BlockID]bool)
	visited := make(map[BlockID]bool)
	ends := make(map[BlockID][]BlockID)

	var dfs func(b BlockID)
	dfs = func(b BlockID) {
		visited[b] = true
		onPath[b] = true

		for _, s := range g.block(b).succs {
			if onPath[s] {
				ends[s] = append(ends[s], b)
				continue
			}

			if !visited[s] {
				dfs(s)
			}
		}

		onPath[b] = false
	}
	dfs(g.root)

	loopIndex := 0

	// Iterate headers in a stable order (by handle) for deterministic
	// loop_index assignment.
	var headers []BlockID
	for h := range ends {
		headers = append(headers, h)
	}

	sort.Slice(headers, func(i, j int) bool { return headers[i] < headers[j] })

	for _, header := range headers {
		backEdges := ends[header]
		g.block(header).incomingFwd -= len(backEdges)

		seen := make(map[BlockID]bool)
		queue := append([]BlockID(nil), backEdges...)
		expectedDepth := g.block(header).loopDepth

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			blk := g.block(cur)
			if blk.loopDepth == expectedDepth && !seen[cur] {
				seen[cur] = true
				blk.loopIndex = loopIndex
				blk.loopDepth++
			}

			if cur != header {
				queue = append(queue, blk.preds...)
			}
		}

		loopIndex++
	}
}

// orderBlocks produces the linear block order via a work-list seeded with
// the root: a block becomes eligible once every incoming forward branch
// (tracked via incomingFwd, pre-decremented for back-edges) has been
// consumed by one of its predecessors popping it. Newly eligible blocks go
// to the front of the work-list, so a loop body is laid out before the
// blocks that were already waiting, such as the loop's exit.
func (g *Graph) orderBlocks() ([]BlockID, error) {
	// detectLoops already subtracted each header's back-edge count from its
	// incomingFwd; adding every block's predecessor count now leaves exactly
	// the forward-edge predecessor count for every block.
	for _, b := range g.blocks {
		b.incomingFwd += len(b.preds)
	}

	pending := make(map[BlockID]int, len(g.blocks))
	for _, b := range g.blocks {
		pending[b.id] = b.incomingFwd
	}

	var order []BlockID
	visited := make(map[BlockID]bool)
	queue := []BlockID{g.root}
	visited[g.root] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)

		blk := g.block(cur)

		switch len(blk.succs) {
		case 0:
		case 1:
			s := blk.succs[0]
			pending[s]--

			if !visited[s] && pending[s] <= 0 {
				visited[s] = true
				queue = append([]BlockID{s}, queue...)
			}
		case 2:
			left, right := g.scoreSuccessors(blk)

			var ready []BlockID

			for _, s := range []BlockID{left, right} {
				pending[s]--

				if !visited[s] && pending[s] <= 0 {
					visited[s] = true
					ready = append(ready, s)
				}
			}

			queue = append(ready, queue...)
		default:
			return nil, errMalformedGraph("block %d has too many successors", cur)
		}
	}

	if len(order) != len(g.blocks) {
		return nil, errMalformedGraph("flatten produced %d of %d blocks (disconnected graph?)", len(order), len(g.blocks))
	}

	return order, nil
}

// scoreSuccessors orders a two-way branch's targets the way the Rust
// original's flatten() does: prefer keeping the current loop's body
// contiguous (same loop_index scores 2) and prefer not exiting to a
// shallower loop depth (depth <= target's depth scores 1).
func (g *Graph) scoreSuccessors(blk *Block) (first, second BlockID) {
	score := func(succID BlockID) int {
		succ := g.block(succID)
		s := 0

		if blk.loopIndex == succ.loopIndex {
			s += 2
		}

		if blk.loopDepth <= succ.loopDepth {
			s++
		}

		return s
	}

	a, b := blk.succs[0], blk.succs[1]
	if score(a) >= score(b) {
		return a, b
	}

	return b, a
}

// renumber re-handles blocks 0..N in flat order, then rebuilds the
// instruction stream: for each block in flat order, a start Gap, then
// alternating real/gap instructions ending with an end Gap. Phis are
// re-handled last and kept out of every block's instruction list. Every
// instruction's input list is rewritten through the block/instruction remap.
func (g *Graph) renumber(order []BlockID) {
	blockRemap := make([]BlockID, len(g.blocks))
	newBlocks := make([]*Block, len(order))

	for newID, oldID := range order {
		blk := g.block(oldID)
		blk.id = BlockID(newID)
		newBlocks[newID] = blk
		blockRemap[oldID] = BlockID(newID)
	}

	for _, blk := range newBlocks {
		for i, s := range blk.succs {
			blk.succs[i] = blockRemap[s]
		}

		for i, p := range blk.preds {
			blk.preds[i] = blockRemap[p]
		}
	}

	g.blocks = newBlocks
	g.root = blockRemap[g.root]

	var newInstrs []*Instruction
	instrRemap := make(map[InstrID]InstrID, len(g.instrs))

	alloc := func(old *Instruction) InstrID {
		id := InstrID(len(newInstrs))
		old.id = id
		newInstrs = append(newInstrs, old)

		return id
	}

	for _, blk := range g.blocks {
		oldInstrs := blk.instrs
		blk.instrs = nil

		blk.start = alloc(&Instruction{kind: GapInstr(), output: NoInterval, block: blk.id, added: true})
		blk.instrs = append(blk.instrs, blk.start)

		for _, oldID := range oldInstrs {
			instr := g.instr(oldID)
			newID := alloc(instr)
			instrRemap[oldID] = newID
			instr.block = blk.id
			blk.instrs = append(blk.instrs, newID)

			gap := alloc(&Instruction{kind: GapInstr(), output: NoInterval, block: blk.id, added: true})
			blk.instrs = append(blk.instrs, gap)
		}

		blk.endPos = blk.instrs[len(blk.instrs)-1]
	}

	for _, phi := range g.phis {
		instr := g.instr(phi)
		newID := alloc(instr)
		instrRemap[phi] = newID
	}

	for i, phi := range g.phis {
		g.phis[i] = instrRemap[phi]
	}

	g.instrs = newInstrs

	for _, instr := range g.instrs {
		for i, in := range instr.inputs {
			instr.inputs[i] = instrRemap[in]
		}
	}
}
