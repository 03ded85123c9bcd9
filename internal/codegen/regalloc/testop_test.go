package regalloc

// userOp is a minimal UserKind fixture used across this package's tests: a
// named instruction shape with a fixed arity, an optional output and an
// optional clobber set, built through the constructors below rather than
// struct literals so test call sites read like the operations they model
// (constOp, unaryOp, binaryOp, branchOp), mirroring the small closed `Kind`
// enum original_source/test/emulator.rs tests against.
type userOp struct {
	name     string
	clobbers map[Group]bool
	temps    []Group
	uses     []UseKind
	result   *UseKind
}

func (k *userOp) Clobbers(g Group) bool { return k.clobbers[g] }
func (k *userOp) Temporaries() []Group  { return k.temps }
func (k *userOp) UseKind(i int) UseKind { return k.uses[i] }

func (k *userOp) ResultKind() (UseKind, bool) {
	if k.result == nil {
		return UseKind{}, false
	}

	return *k.result, true
}

func (k *userOp) String() string { return k.name }

func constOp(name string, g Group) *userOp {
	r := AnyUse(g)
	return &userOp{name: name, result: &r}
}

func unaryOp(name string, g Group) *userOp {
	r := AnyUse(g)
	return &userOp{name: name, uses: []UseKind{AnyUse(g)}, result: &r}
}

func binaryOp(name string, g Group) *userOp {
	r := AnyUse(g)
	return &userOp{name: name, uses: []UseKind{AnyUse(g), AnyUse(g)}, result: &r}
}

func sinkOp(name string, g Group, arity int) *userOp {
	uses := make([]UseKind, arity)
	for i := range uses {
		uses[i] = AnyUse(g)
	}

	return &userOp{name: name, uses: uses}
}

func branchOp(name string, g Group) *userOp {
	return &userOp{
		name:  name,
		uses:  []UseKind{AnyUse(g), AnyUse(g)},
		temps: []Group{g},
	}
}

// clobberingOp builds an instruction that clobbers every register in g, the
// way a call crossing the ABI boundary does, with a single input and no
// output (matching how a real call site discards its own result operand
// class in these tests).
func clobberingOp(name string, g Group) *userOp {
	return &userOp{
		name:     name,
		uses:     []UseKind{AnyUse(g)},
		clobbers: map[Group]bool{g: true},
	}
}

func fixedUseOp(name string, g Group, r Register) *userOp {
	return &userOp{name: name, uses: []UseKind{FixedUse(g, r)}}
}

// fixedClobberingOp builds an instruction that both clobbers every register
// in g and produces an output, with its single input pinned to a specific
// register — the shape spec.md section 8's S1 scenario names ("print
// clobbers all registers and uses register 3"): a real call site can both
// take an argument in a fixed ABI register and hand back a result, while
// still invalidating every other register for its own duration.
func fixedClobberingOp(name string, g Group, r Register) *userOp {
	res := AnyUse(g)
	return &userOp{
		name:     name,
		uses:     []UseKind{FixedUse(g, r)},
		clobbers: map[Group]bool{g: true},
		result:   &res,
	}
}
