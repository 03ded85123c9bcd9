package regalloc

// SchemaVersion is the semver string embedded in every Dump. A consumer
// parses it with a version-constraint library (see cmd/orizon-regalloc-trace)
// rather than assuming field layout; bump the minor version for additive
// fields, the major version for anything that changes a field's meaning.
const SchemaVersion = "1.0.0"

// Dump is the machine-readable snapshot of an allocated graph named in
// spec.md section 6: blocks, intervals with their ranges/uses/value, and the
// per-instruction gap state. It exists purely for offline debugging; nothing
// in this package reads a Dump back in.
type Dump struct {
	SchemaVersion string          `json:"schema_version"`
	Blocks        []BlockDump     `json:"blocks"`
	Intervals     []IntervalDump  `json:"intervals"`
	Gaps          []GapDump       `json:"gaps"`
}

// BlockDump is one block's static shape plus its liveness bit-sets rendered
// as sorted instruction-handle lists (bitset.Each's iteration order).
type BlockDump struct {
	ID        BlockID `json:"id"`
	Instrs    []int   `json:"instrs"`
	Preds     []int   `json:"preds"`
	Succs     []int   `json:"succs"`
	LoopIndex int     `json:"loop_index"`
	LoopDepth int      `json:"loop_depth"`
	LiveIn    []int    `json:"live_in"`
	LiveOut   []int    `json:"live_out"`
}

// IntervalDump is one interval's value, ranges and uses.
type IntervalDump struct {
	ID       int        `json:"id"`
	Value    string     `json:"value"`
	Parent   int        `json:"parent"`
	Children []int      `json:"children"`
	Fixed    bool       `json:"fixed"`
	Ranges   [][2]int   `json:"ranges"`
	Uses     []UseDump  `json:"uses"`
}

// UseDump is one use's position and constraint kind.
type UseDump struct {
	Pos  int    `json:"pos"`
	Kind string `json:"kind"`
}

// GapDump is one gap position's action list: in execution order after
// resolveGaps has run, in insertion order before it.
type GapDump struct {
	Pos     int            `json:"pos"`
	Actions []GapActionDump `json:"actions"`
}

// GapActionDump is one scheduled move or swap.
type GapActionDump struct {
	Kind string `json:"kind"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// Dump renders the current graph state into the JSON-serializable snapshot
// shape. Safe to call at any point in the pipeline, not only after a
// completed Allocate.
func (g *Graph) Dump() Dump {
	d := Dump{SchemaVersion: SchemaVersion}

	order := g.flattened
	if order == nil {
		for i := range g.blocks {
			order = append(order, BlockID(i))
		}
	}

	for _, id := range order {
		b := g.block(id)
		d.Blocks = append(d.Blocks, BlockDump{
			ID:        b.id,
			Instrs:    idsToInts(b.instrs),
			Preds:     blockIDsToInts(b.preds),
			Succs:     blockIDsToInts(b.succs),
			LoopIndex: b.loopIndex,
			LoopDepth: b.loopDepth,
			LiveIn:    bitsetMembers(b.liveIn),
			LiveOut:   bitsetMembers(b.liveOut),
		})
	}

	for _, iv := range g.intervals {
		id := IntervalDump{
			ID:       int(iv.id),
			Value:    iv.value.String(),
			Parent:   int(iv.parent),
			Children: intervalIDsToInts(iv.children),
			Fixed:    iv.fixed,
		}

		for _, r := range iv.ranges {
			id.Ranges = append(id.Ranges, [2]int{int(r.Start), int(r.End)})
		}

		for _, u := range iv.uses {
			id.Uses = append(id.Uses, UseDump{Pos: int(u.Pos), Kind: u.Kind.String()})
		}

		d.Intervals = append(d.Intervals, id)
	}

	for pos, st := range g.gaps {
		gd := GapDump{Pos: int(pos)}

		for _, a := range st.Actions {
			kind := "move"
			if a.Kind == ActionSwap {
				kind = "swap"
			}

			gd.Actions = append(gd.Actions, GapActionDump{Kind: kind, From: int(a.From), To: int(a.To)})
		}

		d.Gaps = append(d.Gaps, gd)
	}

	return d
}

func idsToInts(ids []InstrID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}

	return out
}

func blockIDsToInts(ids []BlockID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}

	return out
}

func intervalIDsToInts(ids []IntervalID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}

	return out
}

func bitsetMembers(b *bitset) []int {
	var out []int

	b.Each(func(n int) { out = append(out, n) })

	return out
}
