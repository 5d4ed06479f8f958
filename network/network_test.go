package network

import (
	"testing"

	"github.com/maqi/datachains-sim/internal/rng"
	"github.com/maqi/datachains-sim/node"
	"github.com/maqi/datachains-sim/params"
	"github.com/maqi/datachains-sim/prefix"
	"github.com/maqi/datachains-sim/section"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNetwork(opts ...params.Option) *Network {
	p := params.New(rng.Seed{1, 2, 3, 4}, opts...)
	return New(p)
}

func TestNewSeedsSingleRootSection(t *testing.T) {
	n := testNetwork()
	assert.Len(t, n.sections, 1)
	_, ok := n.sections[prefix.Empty]
	assert.True(t, ok)
}

func TestTickRunsWithoutErrorUnderSmallGroupSize(t *testing.T) {
	n := testNetwork(params.WithGroupSize(4), params.WithMaxSectionSize(200))
	for i := uint64(0); i < 200; i++ {
		require.NoError(t, n.Tick(i))
	}
	assert.Greater(t, n.totalNodes(), uint64(0))
}

func TestCheckNoIncomingRelocationsPassesOnFreshNetwork(t *testing.T) {
	n := testNetwork()
	assert.NoError(t, n.checkNoIncomingRelocations())
}

func TestCheckNoIncomingRelocationsFlagsPendingCache(t *testing.T) {
	n := testNetwork(params.WithMaxSectionSize(10))
	root := n.sections[prefix.Empty]
	root.Receive(section.RelocateRequestMsg(prefix.Empty, 42, 7))
	root.HandleRequests(n.params)

	err := n.checkNoIncomingRelocations()
	require.Error(t, err)
}

func TestHandleResponseMergeCreatesAndRemovesOldPrefix(t *testing.T) {
	n := testNetwork()
	child := prefix.New(1<<63, 1)
	parent := prefix.Empty
	n.sections[child] = section.New(child, n.rng)
	delete(n.sections, parent)

	merged := section.New(parent, n.rng)
	var st tickStats
	n.handleResponse(section.MergeResponse(merged, child), &st)

	assert.EqualValues(t, 1, st.merges)
	_, childStillThere := n.sections[child]
	assert.False(t, childStillThere)
	_, parentThere := n.sections[parent]
	assert.True(t, parentThere)
}

func TestHandleResponseSplitInsertsBothChildren(t *testing.T) {
	n := testNetwork()
	zero, one := prefix.Empty.Split()
	s0 := section.New(zero, n.rng)
	s1 := section.New(one, n.rng)

	var st tickStats
	n.handleResponse(section.SplitResponse(s0, s1, prefix.Empty), &st)

	assert.EqualValues(t, 1, st.splits)
	_, ok0 := n.sections[zero]
	_, ok1 := n.sections[one]
	assert.True(t, ok0)
	assert.True(t, ok1)
	_, rootStillThere := n.sections[prefix.Empty]
	assert.False(t, rootStillThere)
}

func TestHandleResponseRejectCountsRejection(t *testing.T) {
	n := testNetwork()
	var st tickStats
	n.handleResponse(section.Reject(node.New(1, 0)), &st)
	assert.EqualValues(t, 1, st.rejections)
}

func TestOrderedPrefixesAreDeterministicallySorted(t *testing.T) {
	n := testNetwork()
	zero, one := prefix.Empty.Split()
	n.sections[zero] = section.New(zero, n.rng)
	n.sections[one] = section.New(one, n.rng)
	delete(n.sections, prefix.Empty)

	order := n.orderedPrefixes()
	require.Len(t, order, 2)
	assert.Equal(t, zero, order[0])
	assert.Equal(t, one, order[1])
}

func TestCheckSectionSizesFlagsOverflow(t *testing.T) {
	n := testNetwork(params.WithMaxSectionSize(0))
	root := n.sections[prefix.Empty]
	root.Receive(section.LiveRequest(node.New(1, 3)))
	root.HandleRequests(n.params)

	err := n.checkSectionSizes()
	require.Error(t, err)
}

func TestDistributionsCoverAllSections(t *testing.T) {
	n := testNetwork()
	root := n.sections[prefix.Empty]
	root.Receive(section.LiveRequest(node.New(1, 3)))
	root.HandleRequests(n.params)

	ageDist := n.AgeDistribution()
	assert.EqualValues(t, 1, ageDist.Count)
	sizeDist := n.SectionSizeDistribution()
	assert.EqualValues(t, 1, sizeDist.Max)
	prefixDist := n.PrefixLenDistribution()
	assert.EqualValues(t, 1, prefixDist.Count)
}
