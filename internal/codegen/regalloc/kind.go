package regalloc

// UserKind is the capability interface a client instruction set implements so
// the allocator can reason about its constraints without knowing what the
// instruction actually does (spec: KindHelper).
type UserKind interface {
	// Clobbers reports whether this instruction invalidates every register
	// in group g (e.g. a call crossing the ABI boundary).
	Clobbers(g Group) bool
	// Temporaries lists the groups of scratch intervals this instruction
	// needs for the duration of its own execution.
	Temporaries() []Group
	// UseKind returns the constraint on the i'th input operand.
	UseKind(i int) UseKind
	// ResultKind returns the constraint on the instruction's own output, if
	// it produces one.
	ResultKind() (UseKind, bool)
}

// variant discriminates the four instruction shapes the allocator core
// understands; everything else is delegated to a UserKind implementation.
type variant int

const (
	variantUser variant = iota
	variantGap
	variantPhi
	variantToPhi
)

// InstrKind is the sum type `User(k) | Gap | Phi(group) | ToPhi(group)` from
// spec.md section 3. Go has no native sum types, so the variant tag plus a
// payload field stands in for it, matching how InstrKind<K> dispatches in the
// Rust original.
type InstrKind struct {
	variant variant
	user    UserKind
	group   Group
}

// UserInstr wraps a client-defined instruction kind.
func UserInstr(k UserKind) InstrKind { return InstrKind{variant: variantUser, user: k} }

// GapInstr constructs the pseudo-instruction that carries parallel moves.
func GapInstr() InstrKind { return InstrKind{variant: variantGap} }

// PhiInstr constructs a merge-point phi in the given register group.
func PhiInstr(g Group) InstrKind { return InstrKind{variant: variantPhi, group: g} }

// ToPhiInstr constructs the pseudo-instruction that feeds one predecessor's
// value into a phi's output interval.
func ToPhiInstr(g Group) InstrKind { return InstrKind{variant: variantToPhi, group: g} }

func (k InstrKind) IsUser() bool  { return k.variant == variantUser }
func (k InstrKind) IsGap() bool   { return k.variant == variantGap }
func (k InstrKind) IsPhi() bool   { return k.variant == variantPhi }
func (k InstrKind) IsToPhi() bool { return k.variant == variantToPhi }

// User returns the wrapped client instruction kind; only valid when IsUser().
func (k InstrKind) User() UserKind { return k.user }

// Clobbers delegates to the variant, matching the Rust KindHelper impl for
// InstrKind<K>.
func (k InstrKind) Clobbers(g Group) bool {
	if k.variant == variantUser {
		return k.user.Clobbers(g)
	}

	return false
}

// Temporaries delegates to the variant.
func (k InstrKind) Temporaries() []Group {
	if k.variant == variantUser {
		return k.user.Temporaries()
	}

	return nil
}

// UseKindAt delegates to the variant; Gap/Phi/ToPhi operands are unconstrained.
func (k InstrKind) UseKindAt(i int) UseKind {
	if k.variant == variantUser {
		return k.user.UseKind(i)
	}

	return AnyUse(k.group)
}

// ResultKind delegates to the variant. Phi and ToPhi always produce an
// unconstrained output in their own group; Gap never produces one.
func (k InstrKind) ResultKind() (UseKind, bool) {
	switch k.variant {
	case variantUser:
		return k.user.ResultKind()
	case variantPhi, variantToPhi:
		return AnyUse(k.group), true
	default:
		return UseKind{}, false
	}
}

func (k InstrKind) String() string {
	switch k.variant {
	case variantGap:
		return "gap"
	case variantPhi:
		return "phi"
	case variantToPhi:
		return "to_phi"
	default:
		return "user"
	}
}
