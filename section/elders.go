package section

import (
	"slices"

	"github.com/maqi/datachains-sim/chain"
	"github.com/maqi/datachains-sim/node"
	"github.com/maqi/datachains-sim/params"
)

// updateElders recomputes s's elder set: the top GroupSize nodes ordered by
// age descending, ties broken by name descending (spec.md §4.4). Demotions
// and promotions are both recorded on the chain. When relocate is set and
// exactly one node was promoted, that promotion triggers a relocation
// attempt; a relocated node's own promotion must never re-trigger one,
// which is why every other call site passes relocate=false.
func (s *Section) updateElders(p params.Params, relocate bool) []Response {
	names := make([]uint64, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	slices.Sort(names)

	oldElders := make(map[uint64]struct{})
	for _, name := range names {
		if s.nodes[name].Elder {
			oldElders[name] = struct{}{}
		}
	}

	ranked := s.nodeSlice()
	slices.SortFunc(ranked, node.CompareByAgeThenName)
	if uint64(len(ranked)) > p.GroupSize {
		ranked = ranked[:p.GroupSize]
	}
	newElders := make(map[uint64]struct{}, len(ranked))
	for _, n := range ranked {
		newElders[n.Name] = struct{}{}
	}

	var promoted []node.Node
	for _, name := range names {
		n := s.nodes[name]
		_, wasElder := oldElders[name]
		_, isElder := newElders[name]

		switch {
		case wasElder && !isElder:
			n = n.Demote()
			s.chain.Insert(chain.Gone, n.Name, n.Age)
		case isElder && !wasElder:
			n = n.Promote()
			s.chain.Insert(chain.Live, n.Name, n.Age)
			promoted = append(promoted, n)
		default:
			continue
		}
		s.nodes[name] = n
	}

	if relocate && len(promoted) == 1 {
		n := promoted[0]
		return s.tryRelocate(p, chain.NewBlock(chain.Live, n.Name, n.Age))
	}
	return nil
}
