package regalloc

// buildIntervals seeds one fixed interval per physical register in every
// group, then walks flattened blocks and their instructions in reverse
// building every virtual interval's ranges and uses, and finally splits any
// interval carrying more than one fixed use so no single piece of a split
// chain ever needs two different physical registers at once.
func (g *Graph) buildIntervals(cfg Config) error {
	g.seedPhysicalIntervals(cfg)
	g.setPhiHints()

	for i := len(g.flattened) - 1; i >= 0; i-- {
		blk := g.block(g.flattened[i])
		bStart, bEnd := blk.Start(), blk.End()

		blk.liveOut.Each(func(n int) {
			producer := g.instr(InstrID(n))
			if producer.output != NoInterval {
				g.interval(producer.output).AddRange(bStart, bEnd)
			}
		})

		for j := len(blk.instrs) - 1; j >= 0; j-- {
			instr := g.instr(blk.instrs[j])
			if instr.kind.IsGap() {
				continue
			}

			p := instr.id

			for _, grp := range allGroups(cfg) {
				if instr.kind.Clobbers(grp) {
					for _, fixedID := range g.physicalRegs[grp] {
						g.interval(fixedID).AddRange(p, p+1)
					}
				}
			}

			if instr.output != NoInterval {
				oiv := g.interval(instr.output)

				def := p
				if instr.kind.Clobbers(oiv.value.Group) {
					def = p + 1
				}

				if len(oiv.ranges) > 0 {
					oiv.ranges[0].Start = def
				} else {
					oiv.AddRange(def, def+1)
				}

				resultKind, ok := instr.kind.ResultKind()
				if ok {
					oiv.AddUse(resultKind, def)
				}
			}

			for _, tempID := range instr.temps {
				tiv := g.interval(tempID)
				if instr.kind.Clobbers(tiv.value.Group) {
					return errInvalidTemporary("instruction %d declares a temporary in a group it clobbers", p)
				}

				tiv.AddRange(p, p+1)
				tiv.AddUse(RegUse(tiv.value.Group), p)
			}

			for idx, producerID := range instr.inputs {
				producer := g.instr(producerID)
				assertf(producer.output != NoInterval, "instruction %d consumes producer %d with no output interval", p, producerID)

				iv := g.interval(producer.output)
				if !iv.Covers(p) {
					iv.AddRange(bStart, p)
				}

				iv.AddUse(instr.kind.UseKindAt(idx), p)
			}
		}
	}

	return g.splitFixedUses()
}

// seedPhysicalIntervals creates one fixed interval per (group, register)
// pair, ready to receive clobber ranges and fixed-use call sites during the
// walk below.
func (g *Graph) seedPhysicalIntervals(cfg Config) {
	g.physicalRegs = make([][]IntervalID, len(cfg.RegisterCountPerGroup))

	for grp, count := range cfg.RegisterCountPerGroup {
		g.physicalRegs[grp] = make([]IntervalID, count)

		for r := 0; r < count; r++ {
			id := g.newIntervalID(Group(grp))
			iv := g.interval(id)
			iv.value = InRegister(Group(grp), Register(r))
			iv.fixed = true
			g.physicalRegs[grp][r] = id
		}
	}
}

// setPhiHints sets each phi output's register hint to the output interval of
// its first ToPhi contribution, so the scan engine's tie-break prefers
// keeping the merged value in the register its first predecessor already put
// it in.
func (g *Graph) setPhiHints() {
	for _, phi := range g.phis {
		phiInstr := g.instr(phi)
		if phiInstr.output == NoInterval {
			continue
		}

	searchBlocks:
		for _, blk := range g.blocks {
			for _, instrID := range blk.instrs {
				instr := g.instr(instrID)
				if instr.kind.IsToPhi() && instr.output == phiInstr.output {
					producer := g.instr(instr.inputs[0])
					g.interval(phiInstr.output).hint = producer.output

					break searchBlocks
				}
			}
		}
	}
}

// allGroups lists every group index the config declares register counts for.
func allGroups(cfg Config) []Group {
	groups := make([]Group, len(cfg.RegisterCountPerGroup))
	for i := range groups {
		groups[i] = Group(i)
	}

	return groups
}

// splitFixedUses walks every interval that existed before this pass (newly
// created split children are never themselves re-split here) and, for any
// interval carrying two or more fixed uses, splits it at an optimal position
// between each consecutive pair so that no single piece of the resulting
// chain ever has to satisfy more than one fixed-register demand.
func (g *Graph) splitFixedUses() error {
	n := len(g.intervals)

	for id := 0; id < n; id++ {
		iv := g.intervals[id]
		if iv.fixed || iv.parent != NoInterval {
			continue
		}

		var fixedPos []InstrID

		for _, u := range iv.uses {
			if u.Kind.Variant == UseFixed {
				fixedPos = append(fixedPos, u.Pos)
			}
		}

		if len(fixedPos) < 2 {
			continue
		}

		current := IntervalID(id)
		group := iv.value.Group

		for i := 0; i+1 < len(fixedPos); i++ {
			splitPos := g.optimalSplitPos(group, fixedPos[i], fixedPos[i+1])
			current = g.splitAt(current, splitPos)
		}
	}

	return nil
}
