package node

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdultIsInfant(t *testing.T) {
	n := New(1, 4)
	assert.True(t, n.IsInfant(5))
	assert.False(t, n.IsAdult(5))

	n.Age = 5
	assert.True(t, n.IsAdult(5))
	assert.False(t, n.IsInfant(5))
}

func TestRelocatedIncrementsAgeAndRenames(t *testing.T) {
	n := New(42, 7)
	r := n.Relocated(99)
	assert.Equal(t, Name(99), r.Name)
	assert.Equal(t, Age(8), r.Age)
	assert.False(t, r.Elder)
}

func TestDefaultDropProbabilityMonotonicallyDecreasing(t *testing.T) {
	prev := DefaultDropProbability.Probability(0)
	for age := Age(1); age < 100; age++ {
		cur := DefaultDropProbability.Probability(age)
		assert.Less(t, cur, prev)
		prev = cur
	}
}

func TestCompareByAgeThenNameSortsElderFirst(t *testing.T) {
	nodes := []Node{
		{Name: 1, Age: 5},
		{Name: 5, Age: 10},
		{Name: 3, Age: 10},
		{Name: 2, Age: 1},
	}
	sort.Slice(nodes, func(i, j int) bool {
		return CompareByAgeThenName(nodes[i], nodes[j]) < 0
	})

	assert.Equal(t, []Name{5, 3, 1, 2}, []Name{nodes[0].Name, nodes[1].Name, nodes[2].Name, nodes[3].Name})
}

func TestCountMatchingAdults(t *testing.T) {
	nodes := []Node{
		{Name: 0b00 << 62, Age: 10},
		{Name: 0b10 << 62, Age: 10},
		{Name: 0b00 << 62, Age: 1}, // infant
	}
	matchesZero := func(n Name) bool { return n>>63 == 0 }
	assert.Equal(t, 1, CountMatchingAdults(5, matchesZero, nodes))
}
