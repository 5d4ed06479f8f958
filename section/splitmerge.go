package section

import (
	"github.com/maqi/datachains-sim/errs"
	"github.com/maqi/datachains-sim/node"
	"github.com/maqi/datachains-sim/params"
	"github.com/maqi/datachains-sim/prefix"
)

// trySplit splits s into two children once both halves would retain at
// least SplitLimit adults (spec.md §4.5). The chain, membership and
// relocation caches are partitioned between the two children; s itself
// becomes Splitting until the Router removes it.
func (s *Section) trySplit(p params.Params) []Response {
	if s.prefix.Len >= prefix.MaxLen {
		panic(errs.New(errs.ErrMaxPrefixLength, s.prefix.String(), p.Seed.String(), "cannot split: prefix already at maximum length"))
	}

	zero, one := s.prefix.Split()

	numAdults0 := node.CountMatchingAdults(p.AdultAge, zero.Matches, s.nodeSlice())
	numAdults1 := node.CountMatchingAdults(p.AdultAge, one.Matches, s.nodeSlice())

	limit := int(p.SplitLimit())
	if numAdults0 < limit || numAdults1 < limit {
		return nil
	}

	section0 := New(zero, s.rng)
	section1 := New(one, s.rng)
	section0.chain = s.chain.Clone()
	section1.chain = s.chain.Clone()

	for name, n := range s.nodes {
		if zero.Matches(name) {
			section0.nodes[name] = n
		} else {
			section1.nodes[name] = n
		}
	}
	section0.updateElders(p, false)
	section1.updateElders(p, false)

	for name := range s.outgoingRelocations {
		if zero.Matches(name) {
			section0.outgoingRelocations[name] = struct{}{}
		} else {
			section1.outgoingRelocations[name] = struct{}{}
		}
	}

	for name, dst := range s.incomingRelocations {
		if zero.Matches(dst) {
			section0.incomingRelocations[name] = dst
		} else {
			section1.incomingRelocations[name] = dst
		}
	}

	s.state = stateSplitting

	return []Response{SplitResponse(section0, section1, s.prefix)}
}

// tryMerge asks s and its sibling to merge into their shared parent once s
// has fallen below GroupSize adults (spec.md §4.5). The root section, which
// has no sibling, never merges.
func (s *Section) tryMerge(p params.Params) []Response {
	if s.prefix == prefix.Empty {
		return nil
	}
	if node.CountAdults(p.AdultAge, s.nodeSlice()) >= int(p.GroupSize) {
		return nil
	}

	sibling := s.prefix.Sibling()
	parent := s.prefix.Shorten()

	return []Response{
		Send(s.prefix, MergeRequest(parent)),
		Send(sibling, MergeRequest(parent)),
	}
}
