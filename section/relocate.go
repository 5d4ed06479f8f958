package section

import (
	"sort"

	"github.com/maqi/datachains-sim/chain"
	"github.com/maqi/datachains-sim/node"
	"github.com/maqi/datachains-sim/params"
)

// tryRelocate attempts to pick one adult to relocate out of s, seeded by
// liveBlock's hash (spec.md §4.6). Relocating while another relocation is
// already outgoing, or while doing so would itself trigger a merge, is
// skipped. The seed is rehashed up to MaxRelocationAttempts times looking
// for a candidate.
func (s *Section) tryRelocate(p params.Params, liveBlock chain.Block) []Response {
	if node.CountAdults(p.AdultAge, s.nodeSlice()) <= int(p.GroupSize) {
		return nil
	}
	if len(s.outgoingRelocations) > 0 {
		return nil
	}

	h := liveBlock.Hash()
	for i := uint64(0); i < p.MaxRelocationAttempts; i++ {
		if name, ok := s.checkRelocate(h); ok {
			s.outgoingRelocations[name] = struct{}{}
			dst := h.ToU64()
			return []Response{RelocateRequestResponse(s.prefix, dst, name)}
		}
		h = h.Rehash()
	}
	return nil
}

// checkRelocate finds the oldest node whose age passes the
// hash.TrailingZeros() test, breaking ties deterministically among nodes of
// equal age (spec.md §4.6 steps 1-3).
func (s *Section) checkRelocate(h chain.Hash) (uint64, bool) {
	candidates := s.relocationCandidates(h)
	if len(candidates) == 0 {
		return 0, false
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Age > candidates[j].Age })
	age := candidates[0].Age
	cut := len(candidates)
	for i, n := range candidates {
		if n.Age != age {
			cut = i
			break
		}
	}
	candidates = candidates[:cut]

	if len(candidates) == 1 {
		return candidates[0].Name, true
	}
	return breakTies(candidates), true
}

// relocationCandidates returns every node whose age is at most h's trailing
// zero bit count, the `hash % 2^age == 0` test expressed via
// Hash.TrailingZeros (spec.md §4.6 step 1).
func (s *Section) relocationCandidates(h chain.Hash) []node.Node {
	tz := h.TrailingZeros()
	var candidates []node.Node
	for _, n := range s.nodes {
		if int(n.Age) <= tz {
			candidates = append(candidates, n)
		}
	}
	return candidates
}

// breakTies deterministically picks one name among equally-old candidates:
// XOR every candidate's name together, then pick the candidate whose name
// XORed with that total sorts lowest (spec.md §4.6 step 3).
func breakTies(candidates []node.Node) uint64 {
	var total uint64
	for _, n := range candidates {
		total ^= n.Name
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name^total < candidates[j].Name^total
	})
	return candidates[0].Name
}
