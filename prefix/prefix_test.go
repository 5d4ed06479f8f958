package prefix

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	p := New(0b1010<<60, 4)
	assert.True(t, p.Matches(0b1010<<60))
	assert.True(t, p.Matches(0b1010<<60|0xFFFFFFFF))
	assert.False(t, p.Matches(0b1011<<60))
}

func TestEmptyMatchesEverything(t *testing.T) {
	f := fuzz.New()
	for i := 0; i < 100; i++ {
		var name uint64
		f.Fuzz(&name)
		assert.True(t, Empty.Matches(name))
	}
}

func TestSplitProducesDisjointCoveringChildren(t *testing.T) {
	p := New(0b101<<61, 3)
	zero, one := p.Split()

	assert.Equal(t, uint8(4), zero.Len)
	assert.Equal(t, uint8(4), one.Len)
	assert.NotEqual(t, zero.Bits, one.Bits)

	f := fuzz.New()
	for i := 0; i < 1000; i++ {
		var name uint64
		f.Fuzz(&name)
		if !p.Matches(name) {
			continue
		}
		inZero, inOne := zero.Matches(name), one.Matches(name)
		assert.True(t, inZero || inOne, "name must match exactly one child")
		assert.False(t, inZero && inOne, "name must not match both children")
	}
}

func TestSplitAtMaxLengthPanics(t *testing.T) {
	p := New(0, MaxLen)
	assert.Panics(t, func() {
		p.Split()
	})
}

func TestSiblingIsInvolution(t *testing.T) {
	p := New(0b1100<<60, 4)
	sib := p.Sibling()
	require.NotEqual(t, p.Bits, sib.Bits)
	assert.Equal(t, p, sib.Sibling())
}

func TestSiblingOfRootPanics(t *testing.T) {
	assert.Panics(t, func() {
		Empty.Sibling()
	})
}

func TestShortenRootPanics(t *testing.T) {
	assert.Panics(t, func() {
		Empty.Shorten()
	})
}

func TestSplitThenShortenRoundTrips(t *testing.T) {
	p := New(0b0110<<60, 4)
	zero, _ := p.Split()
	assert.Equal(t, p, zero.Shorten())
}

func TestIsAncestorOf(t *testing.T) {
	root := Empty
	child := New(0b1<<63, 1)
	grandchild := New(0b10<<62, 2)
	unrelated := New(0b01<<62, 2)

	assert.True(t, root.IsAncestorOf(child))
	assert.True(t, root.IsAncestorOf(grandchild))
	assert.True(t, child.IsAncestorOf(grandchild))
	assert.False(t, grandchild.IsAncestorOf(child))
	assert.False(t, child.IsAncestorOf(unrelated))
	assert.True(t, root.IsAncestorOf(root))
}

func TestSubstitutedInReplacesOnlyPrefixBits(t *testing.T) {
	p := New(0b111<<61, 3)
	name := uint64(0b000_1010) << 56

	got := p.SubstitutedIn(name)
	assert.True(t, p.Matches(got))
	// the low 61 bits of name should be preserved
	assert.Equal(t, name<<3>>3, got<<3>>3)
}

func TestSubstitutedInOfEmptyIsIdentity(t *testing.T) {
	f := fuzz.New()
	for i := 0; i < 100; i++ {
		var name uint64
		f.Fuzz(&name)
		assert.Equal(t, name, Empty.SubstitutedIn(name))
	}
}

func TestStringRoundTripsThroughNew(t *testing.T) {
	p := New(0b10110<<59, 5)
	assert.Equal(t, "10110", p.String())
}

func TestNewTruncatesBitsBelowLength(t *testing.T) {
	// bits outside of the top `length` should be discarded.
	p := New(^uint64(0), 2)
	assert.Equal(t, New(0b11<<62, 2), p)
}
