package regalloc

import "math/bits"

// bitset is a dense, growable set of small non-negative integers, used to
// track live_gen/live_kill/live_in/live_out per block keyed by instruction
// handle. Dense rather than map-based because liveness handles are themselves
// dense consecutive integers once the Flattener has run.
type bitset struct {
	words []uint64
}

func newBitset() *bitset { return &bitset{} }

func (b *bitset) wordIndex(n int) int { return n / 64 }

func (b *bitset) ensure(n int) {
	need := b.wordIndex(n) + 1
	for len(b.words) < need {
		b.words = append(b.words, 0)
	}
}

// Insert adds n to the set.
func (b *bitset) Insert(n int) {
	if n < 0 {
		return
	}

	b.ensure(n)
	b.words[b.wordIndex(n)] |= 1 << uint(n%64)
}

// Contains reports whether n is in the set.
func (b *bitset) Contains(n int) bool {
	if n < 0 || b.wordIndex(n) >= len(b.words) {
		return false
	}

	return b.words[b.wordIndex(n)]&(1<<uint(n%64)) != 0
}

// UnionWith merges other into b in place.
func (b *bitset) UnionWith(other *bitset) {
	b.ensure(len(other.words)*64 - 1)

	for i, w := range other.words {
		b.words[i] |= w
	}
}

// DifferenceWith removes every member of other from b in place.
func (b *bitset) DifferenceWith(other *bitset) {
	for i, w := range other.words {
		if i >= len(b.words) {
			break
		}

		b.words[i] &^= w
	}
}

// IsSupersetOf reports whether b contains every member of other.
func (b *bitset) IsSupersetOf(other *bitset) bool {
	for i, w := range other.words {
		var mine uint64
		if i < len(b.words) {
			mine = b.words[i]
		}

		if mine&w != w {
			return false
		}
	}

	return true
}

// Equal reports whether b and other have the same members.
func (b *bitset) Equal(other *bitset) bool {
	n := len(b.words)
	if len(other.words) > n {
		n = len(other.words)
	}

	for i := 0; i < n; i++ {
		var a, o uint64
		if i < len(b.words) {
			a = b.words[i]
		}

		if i < len(other.words) {
			o = other.words[i]
		}

		if a != o {
			return false
		}
	}

	return true
}

// Clone returns an independent copy of b.
func (b *bitset) Clone() *bitset {
	c := &bitset{words: make([]uint64, len(b.words))}
	copy(c.words, b.words)

	return c
}

// Each calls f once for every member, in ascending order.
func (b *bitset) Each(f func(n int)) {
	for wi, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			f(wi*64 + tz)
			w &^= 1 << uint(tz)
		}
	}
}
