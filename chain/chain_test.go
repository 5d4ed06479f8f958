package chain

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockHashIsDeterministic(t *testing.T) {
	b := NewBlock(Live, 42, 7)
	assert.Equal(t, b.Hash(), b.Hash())
}

func TestBlockHashDependsOnAllFields(t *testing.T) {
	base := NewBlock(Live, 42, 7)
	assert.NotEqual(t, base.Hash(), NewBlock(Dead, 42, 7).Hash())
	assert.NotEqual(t, base.Hash(), NewBlock(Live, 43, 7).Hash())
	assert.NotEqual(t, base.Hash(), NewBlock(Live, 42, 8).Hash())
}

func TestRehashIsDeterministicAndChanges(t *testing.T) {
	h := NewBlock(Live, 1, 1).Hash()
	r1 := h.Rehash()
	r2 := h.Rehash()
	assert.Equal(t, r1, r2)
	assert.NotEqual(t, h, r1)
}

func TestTrailingZerosOfZeroHashIsFullWidth(t *testing.T) {
	var h Hash
	assert.Equal(t, 256, h.TrailingZeros())
}

func TestTrailingZerosMatchesLowWordWhenNonZero(t *testing.T) {
	var h Hash
	h[31] = 0b1000 // low byte, bit 3 set => 3 trailing zeros
	assert.Equal(t, 3, h.TrailingZeros())
}

func TestTrailingZerosNeverExceedsHashWidthUnderFuzzing(t *testing.T) {
	f := fuzz.New()
	for i := 0; i < 200; i++ {
		var raw [32]byte
		f.Fuzz(&raw)
		h := Hash(raw)
		tz := h.TrailingZeros()
		assert.GreaterOrEqual(t, tz, 0)
		assert.LessOrEqual(t, tz, 256)
	}
}

func TestChainLastLiveReturnsMostRecent(t *testing.T) {
	var c Chain
	_, ok := c.LastLive()
	require.False(t, ok)

	c.Insert(Live, 1, 1)
	c.Insert(Gone, 1, 1)
	c.Insert(Live, 2, 5)

	b, ok := c.LastLive()
	require.True(t, ok)
	assert.Equal(t, uint64(2), b.Name)
	assert.Equal(t, uint64(5), b.Age)
}

func TestChainCloneIsIndependent(t *testing.T) {
	var c Chain
	c.Insert(Live, 1, 1)
	clone := c.Clone()
	c.Insert(Live, 2, 2)
	assert.Equal(t, 1, clone.Len())
	assert.Equal(t, 2, c.Len())
}

func TestChainExtendAppendsInOrder(t *testing.T) {
	var a, b Chain
	a.Insert(Live, 1, 1)
	b.Insert(Gone, 2, 2)
	a.Extend(b)
	require.Equal(t, 2, a.Len())
	assert.Equal(t, Gone, a.Blocks()[1].Event)
}
