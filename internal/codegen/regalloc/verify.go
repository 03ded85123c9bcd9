package regalloc

import (
	"fmt"
	"sort"
)

// Verify walks every interval after a completed allocation and checks the
// universal invariants from spec section 8: no virtual values remain on any
// interval with ranges, every use's group matches its interval's group,
// Register uses land on a register value, Fixed(g, r) uses land on exactly
// that register, and no two intervals sharing a physical register have
// overlapping ranges. It never mutates the graph and is safe to call
// repeatedly; callers that only want it in development/CI builds gate the
// call themselves via Options.Verify.
func (g *Graph) Verify() error {
	for _, iv := range g.intervals {
		if len(iv.ranges) > 0 && iv.value.Kind == ValueVirtual {
			return fmt.Errorf("regalloc: verify: interval %d has ranges but no assigned value", iv.id)
		}

		for _, u := range iv.uses {
			if u.Kind.Group != iv.value.Group {
				return fmt.Errorf("regalloc: verify: interval %d use at %d has group %d, interval has group %d", iv.id, u.Pos, u.Kind.Group, iv.value.Group)
			}

			switch u.Kind.Variant {
			case UseRegister:
				if iv.value.Kind != ValueRegister {
					return fmt.Errorf("regalloc: verify: interval %d register use at %d but value is %s", iv.id, u.Pos, iv.value)
				}
			case UseFixed:
				if iv.value.Kind != ValueRegister || iv.value.Reg != u.Kind.Reg {
					return fmt.Errorf("regalloc: verify: interval %d fixed(%d) use at %d but value is %s", iv.id, u.Kind.Reg, u.Pos, iv.value)
				}
			}
		}
	}

	return g.verifyDisjointRegisters()
}

// verifyDisjointRegisters checks that any two intervals assigned the same
// physical register never cover the same position.
func (g *Graph) verifyDisjointRegisters() error {
	type occupant struct {
		iv    IntervalID
		start InstrID
		end   InstrID
	}

	byReg := make(map[[2]int][]occupant)

	for _, iv := range g.intervals {
		if iv.value.Kind != ValueRegister || len(iv.ranges) == 0 {
			continue
		}

		key := [2]int{int(iv.value.Group), int(iv.value.Reg)}

		for _, r := range iv.ranges {
			byReg[key] = append(byReg[key], occupant{iv: iv.id, start: r.Start, end: r.End})
		}
	}

	for key, occs := range byReg {
		sort.Slice(occs, func(i, j int) bool { return occs[i].start < occs[j].start })

		for i := 1; i < len(occs); i++ {
			if occs[i].start < occs[i-1].end {
				return fmt.Errorf("regalloc: verify: intervals %d and %d both hold register (group %d, reg %d) at position %d",
					occs[i-1].iv, occs[i].iv, key[0], key[1], occs[i].start)
			}
		}
	}

	return nil
}
