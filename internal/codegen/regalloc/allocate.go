package regalloc

// Result reports the outcome of a successful Allocate call.
type Result struct {
	// SpillCounts is indexed by Group: SpillCounts[g] is the number of
	// interval pieces in group g that ended up on a stack slot.
	SpillCounts []int
}

// Allocate runs the full pipeline once over g: flatten, build liveness,
// build live intervals, scan each register group, resolve edges, resolve
// gaps. It takes exclusive ownership of g for the duration of the call and
// returns once every interval has a concrete value and every gap has an
// ordered action list.
func Allocate(g *Graph, cfg Config, opts Options) (Result, error) {
	if err := g.flatten(); err != nil {
		return Result{}, err
	}

	g.buildLiveness()

	if err := g.buildIntervals(cfg); err != nil {
		return Result{}, err
	}

	spillCounts := make([]int, len(cfg.RegisterCountPerGroup))

	for grp := range cfg.RegisterCountPerGroup {
		n, err := g.scanGroup(cfg, Group(grp))
		if err != nil {
			return Result{}, err
		}

		spillCounts[grp] = n
	}

	g.resolveEdges()
	g.resolveGaps()

	if opts.Verify {
		if err := g.Verify(); err != nil {
			return Result{}, err
		}
	}

	return Result{SpillCounts: spillCounts}, nil
}
