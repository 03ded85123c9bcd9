package regalloc

import "fmt"

// ValueKind discriminates the three states an interval's value can be in.
type ValueKind int

const (
	// ValueVirtual means the interval has not yet been assigned a location.
	ValueVirtual ValueKind = iota
	// ValueRegister means the interval lives in a physical register.
	ValueRegister
	// ValueStack means the interval has been spilled to a stack slot.
	ValueStack
)

// Value is the concrete location of an interval at some point in its
// lifetime: either still virtual, a physical register, or a stack slot.
type Value struct {
	Kind  ValueKind
	Group Group
	Reg   Register
	Slot  StackSlot
}

// Virtual constructs an unassigned value for the given group.
func Virtual(g Group) Value { return Value{Kind: ValueVirtual, Group: g} }

// InRegister constructs a register-resident value.
func InRegister(g Group, r Register) Value {
	return Value{Kind: ValueRegister, Group: g, Reg: r}
}

// OnStack constructs a stack-resident value.
func OnStack(g Group, s StackSlot) Value {
	return Value{Kind: ValueStack, Group: g, Slot: s}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueRegister:
		return fmt.Sprintf("reg(g%d,r%d)", v.Group, v.Reg)
	case ValueStack:
		return fmt.Sprintf("stack(g%d,s%d)", v.Group, v.Slot)
	default:
		return fmt.Sprintf("virtual(g%d)", v.Group)
	}
}

// UseVariant discriminates the three ways an operand may constrain its
// interval: no preference, any register, or one specific register.
type UseVariant int

const (
	UseAny UseVariant = iota
	UseRegister
	UseFixed
)

// UseKind constrains where the operand at a use position must live.
type UseKind struct {
	Variant UseVariant
	Group   Group
	Reg     Register
}

// AnyUse admits either a register or a stack slot for the given group.
func AnyUse(g Group) UseKind { return UseKind{Variant: UseAny, Group: g} }

// RegUse demands some register in the given group.
func RegUse(g Group) UseKind { return UseKind{Variant: UseRegister, Group: g} }

// FixedUse demands exactly the given physical register.
func FixedUse(g Group, r Register) UseKind {
	return UseKind{Variant: UseFixed, Group: g, Reg: r}
}

func (k UseKind) String() string {
	switch k.Variant {
	case UseRegister:
		return fmt.Sprintf("reg(g%d)", k.Group)
	case UseFixed:
		return fmt.Sprintf("fixed(g%d,r%d)", k.Group, k.Reg)
	default:
		return fmt.Sprintf("any(g%d)", k.Group)
	}
}

// LiveRange is a half-open position interval [Start, End) during which an
// interval's value must remain reachable.
type LiveRange struct {
	Start InstrID
	End   InstrID
}

// Covers reports whether pos falls within [Start, End).
func (r LiveRange) Covers(pos InstrID) bool {
	return r.Start <= pos && pos < r.End
}

// Intersects returns the first position at which r and other overlap, if
// any. Both ends are half-open, so ranges that merely abut (one's End equals
// the other's Start) do not intersect: adjacent blocks' spans meet exactly
// at that boundary, and treating it as an overlap would over-report
// conflicts during scanning.
func (r LiveRange) Intersects(other LiveRange) (InstrID, bool) {
	start := r.Start
	if other.Start > start {
		start = other.Start
	}

	end := r.End
	if other.End < end {
		end = other.End
	}

	if start < end {
		return start, true
	}

	return 0, false
}

// Use is a single operand reference at a program position.
type Use struct {
	Pos  InstrID
	Kind UseKind
}
