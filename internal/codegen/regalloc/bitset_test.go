package regalloc

import "testing"

func TestBitsetInsertContains(t *testing.T) {
	b := newBitset()

	b.Insert(0)
	b.Insert(63)
	b.Insert(64)
	b.Insert(200)

	for _, n := range []int{0, 63, 64, 200} {
		if !b.Contains(n) {
			t.Errorf("expected %d to be contained", n)
		}
	}

	for _, n := range []int{1, 62, 65, 199, 201} {
		if b.Contains(n) {
			t.Errorf("did not expect %d to be contained", n)
		}
	}

	if b.Contains(-1) {
		t.Errorf("negative index must never be contained")
	}
}

func TestBitsetInsertNegativeIsNoop(t *testing.T) {
	b := newBitset()
	b.Insert(-5)

	if len(b.words) != 0 {
		t.Errorf("inserting a negative index should not allocate any words")
	}
}

func TestBitsetUnionDifferenceSuperset(t *testing.T) {
	a := newBitset()
	a.Insert(1)
	a.Insert(2)

	b := newBitset()
	b.Insert(2)
	b.Insert(3)

	a.UnionWith(b)

	for _, n := range []int{1, 2, 3} {
		if !a.Contains(n) {
			t.Errorf("union: expected %d", n)
		}
	}

	if !a.IsSupersetOf(b) {
		t.Errorf("expected a to be a superset of b after union")
	}

	a.DifferenceWith(b)

	if !a.Contains(1) || a.Contains(2) || a.Contains(3) {
		t.Errorf("difference: expected only 1 to remain, got words %v", a.words)
	}
}

func TestBitsetEqualAndClone(t *testing.T) {
	a := newBitset()
	a.Insert(5)
	a.Insert(130)

	c := a.Clone()
	if !a.Equal(c) {
		t.Errorf("clone must be equal to original")
	}

	c.Insert(9)
	if a.Equal(c) {
		t.Errorf("mutating the clone must not affect the original's equality")
	}

	if a.Contains(9) {
		t.Errorf("mutating the clone must not affect the original's members")
	}
}

func TestBitsetEach(t *testing.T) {
	b := newBitset()
	want := []int{0, 5, 64, 70, 256}

	for _, n := range want {
		b.Insert(n)
	}

	var got []int

	b.Each(func(n int) { got = append(got, n) })

	if len(got) != len(want) {
		t.Fatalf("Each produced %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Each order mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}
