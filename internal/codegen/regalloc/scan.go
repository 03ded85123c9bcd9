package regalloc

import "container/heap"

// posInf stands in for an unbounded "free forever" / "never reclaimed"
// position; every real instruction handle is far smaller.
const posInf InstrID = 1 << 30

// intervalHeap is a container/heap min-heap of interval handles ordered by
// their current Start() position.
type intervalHeap struct {
	g   *Graph
	ids []IntervalID
}

func (h *intervalHeap) Len() int { return len(h.ids) }
func (h *intervalHeap) Less(i, j int) bool {
	return h.g.interval(h.ids[i]).Start() < h.g.interval(h.ids[j]).Start()
}
func (h *intervalHeap) Swap(i, j int) { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }

func (h *intervalHeap) Push(x interface{}) { h.ids = append(h.ids, x.(IntervalID)) }

func (h *intervalHeap) Pop() interface{} {
	old := h.ids
	n := len(old)
	item := old[n-1]
	h.ids = old[:n-1]

	return item
}

// scanState is the live walk state for one register group.
type scanState struct {
	g         *Graph
	group     Group
	regCount  int
	unhandled *intervalHeap
	active    []IntervalID
	inactive  []IntervalID
	freeSlots []StackSlot
	nextSlot  StackSlot
	spilled   int
}

// scanGroup runs the linear-scan walk for a single register group,
// returning the number of intervals spilled to a stack slot in that group.
func (g *Graph) scanGroup(cfg Config, grp Group) (int, error) {
	s := &scanState{
		g:         g,
		group:     grp,
		regCount:  cfg.registerCount(grp),
		unhandled: &intervalHeap{g: g},
	}

	for id, iv := range g.intervals {
		if iv.value.Group != grp || iv.fixed || iv.parent != NoInterval || len(iv.ranges) == 0 {
			continue
		}

		s.unhandled.ids = append(s.unhandled.ids, IntervalID(id))
	}

	heap.Init(s.unhandled)

	// Fixed intervals that accumulated no clobber ranges during interval
	// building never intersect anything and are left out entirely: Start/End
	// are undefined on an empty range list.
	for _, fixedID := range g.physicalRegs[grp] {
		if len(g.interval(fixedID).ranges) > 0 {
			s.active = append(s.active, fixedID)
		}
	}

	for s.unhandled.Len() > 0 {
		currentID := heap.Pop(s.unhandled).(IntervalID)
		current := g.interval(currentID)
		p := current.Start()

		s.ageActive(p)
		s.ageInactive(p)

		if current.value.Kind == ValueVirtual {
			ok, err := s.tryAllocateFree(currentID)
			if err != nil {
				return s.spilled, err
			}

			if !ok {
				if err := s.allocateBlocked(currentID); err != nil {
					return s.spilled, err
				}
			}
		}

		if g.interval(currentID).value.Kind == ValueRegister {
			s.active = append(s.active, currentID)
		}
	}

	return s.spilled, nil
}

func (s *scanState) ageActive(p InstrID) {
	var survivors []IntervalID

	for _, a := range s.active {
		iv := s.g.interval(a)
		if iv.Covers(p) {
			survivors = append(survivors, a)
			continue
		}

		if p < iv.End() {
			s.inactive = append(s.inactive, a)
		} else {
			s.retire(iv)
		}
	}

	s.active = survivors
}

func (s *scanState) ageInactive(p InstrID) {
	var survivors []IntervalID

	for _, ia := range s.inactive {
		iv := s.g.interval(ia)
		if iv.Covers(p) {
			s.active = append(s.active, ia)
			continue
		}

		survivors = append(survivors, ia)
	}

	s.inactive = survivors
}

// retire returns a handled interval's stack slot, if any, to the free pool.
func (s *scanState) retire(iv *Interval) {
	if iv.value.Kind == ValueStack {
		s.freeSlots = append(s.freeSlots, iv.value.Slot)
	}
}

// spill assigns a fresh (or recycled) stack slot to iv.
func (s *scanState) spill(id IntervalID) {
	iv := s.g.interval(id)

	var slot StackSlot
	if n := len(s.freeSlots); n > 0 {
		slot = s.freeSlots[n-1]
		s.freeSlots = s.freeSlots[:n-1]
	} else {
		slot = s.nextSlot
		s.nextSlot++
	}

	iv.value = OnStack(s.group, slot)
	s.spilled++
}

// resolveHintReg returns the physical register iv's hint currently holds, if
// its hint interval has already been assigned one in this group.
func (s *scanState) resolveHintReg(iv *Interval) (int, bool) {
	if iv.hint == NoInterval {
		return 0, false
	}

	h := s.g.interval(iv.hint)
	if h.value.Kind == ValueRegister && h.value.Group == iv.value.Group {
		return int(h.value.Reg), true
	}

	return 0, false
}

// pickRegister chooses a register from table (free_pos or use_pos,
// "bigger is more available" in both), forcing iv's fixed register if it
// carries one, otherwise taking the max with a hint tie-break.
func (s *scanState) pickRegister(iv *Interval, table []InstrID) (int, InstrID) {
	if u, ok := iv.NextFixedUse(iv.Start()); ok {
		return int(u.Kind.Reg), table[u.Kind.Reg]
	}

	best, bestVal := 0, table[0]

	for r := 1; r < len(table); r++ {
		if table[r] > bestVal {
			best, bestVal = r, table[r]
		}
	}

	if hintReg, ok := s.resolveHintReg(iv); ok && table[hintReg] == bestVal {
		best = hintReg
	}

	return best, bestVal
}

// tryAllocateFree implements spec section 4.4's TryAllocateFree: it either
// assigns current a register (possibly after splitting off a suffix that
// still needs one) and returns true, or returns false so the caller falls
// back to allocateBlocked.
func (s *scanState) tryAllocateFree(currentID IntervalID) (bool, error) {
	g := s.g
	current := g.interval(currentID)

	freePos := make([]InstrID, s.regCount)
	for i := range freePos {
		freePos[i] = posInf
	}

	for _, a := range s.active {
		av := g.interval(a)
		if av.value.Kind == ValueRegister {
			freePos[av.value.Reg] = 0
		}
	}

	for _, ia := range s.inactive {
		av := g.interval(ia)
		if av.value.Kind != ValueRegister {
			continue
		}

		if q, ok := current.FirstIntersection(av); ok {
			if q < freePos[av.value.Reg] {
				freePos[av.value.Reg] = q
			}
		}
	}

	r, maxPos := s.pickRegister(current, freePos)

	switch {
	case maxPos == 0:
		return false, nil
	case maxPos >= current.End():
		current.value = InRegister(s.group, Register(r))
		return true, nil
	case current.Start()+1 >= maxPos:
		return false, nil
	default:
		splitPos := g.optimalSplitPos(s.group, current.Start(), maxPos)
		child := g.splitAt(currentID, splitPos)
		current.value = InRegister(s.group, Register(r))

		civ := g.interval(child)
		if _, ok := civ.NextUse(civ.Start()); !ok {
			s.spill(child)
		} else {
			heap.Push(s.unhandled, child)
		}

		return true, nil
	}
}

// allocateBlocked implements spec section 4.4's AllocateBlocked.
func (s *scanState) allocateBlocked(currentID IntervalID) error {
	g := s.g
	current := g.interval(currentID)
	start := current.Start()

	usePos := make([]InstrID, s.regCount)
	blockPos := make([]InstrID, s.regCount)

	for i := range usePos {
		usePos[i] = posInf
		blockPos[i] = posInf
	}

	for _, a := range s.active {
		av := g.interval(a)
		if av.value.Kind != ValueRegister {
			continue
		}

		r := av.value.Reg
		if av.fixed {
			blockPos[r] = 0
			continue
		}

		if u, ok := av.NextUse(start); ok && u.Pos < usePos[r] {
			usePos[r] = u.Pos
		}
	}

	for _, ia := range s.inactive {
		av := g.interval(ia)
		if av.value.Kind != ValueRegister {
			continue
		}

		r := av.value.Reg

		q, intersects := current.FirstIntersection(av)
		if !intersects {
			continue
		}

		if av.fixed {
			if q < blockPos[r] {
				blockPos[r] = q
			}

			continue
		}

		if u, ok := av.NextUse(start); ok && u.Pos < usePos[r] {
			usePos[r] = u.Pos
		}
	}

	r, _ := s.pickRegister(current, usePos)

	u0, hasU0 := current.NextUse(start)

	if !hasU0 {
		s.spill(currentID)
		return nil
	}

	if usePos[r] < u0.Pos {
		splitPos := g.optimalSplitPos(s.group, start, u0.Pos)
		child := g.splitAt(currentID, splitPos)
		s.spill(currentID)
		heap.Push(s.unhandled, child)

		return nil
	}

	if blockPos[r] <= start && u0.Pos == start {
		return errAllocationImpossible("no register available in group %d for a use at position %d", s.group, start)
	}

	current.value = InRegister(s.group, Register(r))

	if blockPos[r] <= current.End() {
		splitPos := g.optimalSplitPos(s.group, start, blockPos[r])
		child := g.splitAt(currentID, splitPos)
		heap.Push(s.unhandled, child)
	}

	s.splitAndSpillOccupants(r, currentID)

	return nil
}

// splitAndSpillOccupants evicts every active or intersecting-inactive
// interval (other than the fixed interval itself) currently assigned
// register r, spilling each around the current position and, where a
// register-needing use remains afterward, returning a fresh child to
// unhandled to compete again.
func (s *scanState) splitAndSpillOccupants(r int, currentID IntervalID) {
	g := s.g
	current := g.interval(currentID)
	start := current.Start()

	clobbersNow := start < InstrID(len(g.instrs)) && (g.instr(start).kind.IsGap() || g.instr(start).kind.Clobbers(s.group))

	sp := start - 1
	if clobbersNow {
		sp = start
	}

	evict := func(id IntervalID) bool {
		iv := g.interval(id)
		if iv.fixed || iv.value.Kind != ValueRegister || iv.value.Reg != Register(r) {
			return false
		}

		lastUse := iv.Start()
		if u, ok := iv.LastUseBefore(sp); ok {
			lastUse = u.Pos
		}

		splitPos := g.optimalSplitPos(s.group, lastUse, sp)
		spillChild := g.splitAt(id, splitPos)
		s.spill(spillChild)

		sciv := g.interval(spillChild)
		if u, ok := sciv.NextUse(sciv.Start()); ok {
			freshPos := g.optimalSplitPos(s.group, sp, u.Pos)
			fresh := g.splitAt(spillChild, freshPos)
			heap.Push(s.unhandled, fresh)
		}

		return true
	}

	var survivingActive []IntervalID

	for _, a := range s.active {
		if !evict(a) {
			survivingActive = append(survivingActive, a)
		}
	}

	s.active = survivingActive

	var survivingInactive []IntervalID

	for _, ia := range s.inactive {
		iv := g.interval(ia)
		if iv.value.Kind == ValueRegister && iv.value.Reg == Register(r) && !iv.fixed {
			if _, intersects := current.FirstIntersection(iv); intersects {
				evict(ia)
				continue
			}
		}

		survivingInactive = append(survivingInactive, ia)
	}

	s.inactive = survivingInactive
}
