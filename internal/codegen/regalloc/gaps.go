package regalloc

// gapNodeState is the three-color mark used by resolveGap's DFS.
type gapNodeState int

const (
	gapToMove gapNodeState = iota
	gapMoving
	gapMoved
)

// resolveGaps turns every gap's unordered simultaneous-move set into a
// legal sequential order, replacing cycles with swaps.
func (g *Graph) resolveGaps() {
	for _, st := range g.gaps {
		g.resolveGap(st)
	}
}

// resolveGap implements spec section 4.7: drop no-op moves, then a
// three-color DFS over the remaining moves keyed by the location each move
// writes to. moveOne(i) walks every other still-pending move whose source
// reads the location move i is about to overwrite and resolves it first; if
// that walk loops back onto a move still in progress (state Moving), every
// move on the path back to that point — not just the closing edge — must
// become a Swap instead of a Move, since a single Move would clobber a
// location a not-yet-emitted sibling still needs to read. The node where the
// loop is actually discovered contributes no action of its own: its half of
// the exchange is already covered by the swaps its callers emit.
func (g *Graph) resolveGap(st *GapState) {
	var filtered []GapAction

	for _, a := range st.Actions {
		if a.Kind == ActionMove && g.interval(a.From).value == g.interval(a.To).value {
			continue
		}

		filtered = append(filtered, a)
	}

	if len(filtered) == 0 {
		st.Actions = nil
		return
	}

	states := make([]gapNodeState, len(filtered))

	var order []GapAction

	var moveOne func(i int) bool

	moveOne = func(i int) bool {
		states[i] = gapMoving

		to := g.interval(filtered[i].To).value

		circular := false
		sentinel := false

		for j := range filtered {
			if g.interval(filtered[j].From).value != to {
				continue
			}

			switch states[j] {
			case gapToMove:
				if moveOne(j) {
					assertf(!circular, "resolveGap: more than one move reads the location move %d writes", i)
					circular = true
				}
			case gapMoving:
				sentinel = true
			}
		}

		switch {
		case circular:
			order = append(order, GapAction{Kind: ActionSwap, From: filtered[i].From, To: filtered[i].To})
		case !sentinel:
			order = append(order, filtered[i])
		}

		states[i] = gapMoved

		return circular || sentinel
	}

	for i := range filtered {
		if states[i] == gapToMove {
			moveOne(i)
		}
	}

	st.Actions = order
}
