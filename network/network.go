// Package network implements the Router: the top-level simulation driver
// that owns every Section, injects random Live/Dead traffic once per tick,
// and drains the resulting Request/Response traffic to quiescence
// (spec.md §4.3).
package network

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/maqi/datachains-sim/errs"
	"github.com/maqi/datachains-sim/internal/rng"
	"github.com/maqi/datachains-sim/internal/simlog"
	"github.com/maqi/datachains-sim/node"
	"github.com/maqi/datachains-sim/params"
	"github.com/maqi/datachains-sim/prefix"
	"github.com/maqi/datachains-sim/section"
	"github.com/maqi/datachains-sim/stats"
)

// Network owns every Section in the simulated overlay and drives the
// tick-by-tick protocol to a quiescent state.
type Network struct {
	params   params.Params
	stats    *stats.Stats
	sections map[prefix.Prefix]*section.Section
	rng      *rand.Rand
}

// New creates a Network seeded with a single root Section covering the
// whole name space (spec.md §4.3).
func New(p params.Params) *Network {
	r := rng.New(p.Seed)
	sections := map[prefix.Prefix]*section.Section{
		prefix.Empty: section.New(prefix.Empty, r),
	}
	return &Network{params: p, stats: stats.New(), sections: sections, rng: r}
}

// Params returns the Network's configuration.
func (n *Network) Params() params.Params {
	return n.params
}

// Stats returns the cumulative, running simulation statistics.
func (n *Network) Stats() *stats.Stats {
	return n.stats
}

// tickStats accumulates the per-tick counters handle_responses produces,
// which Stats.Record folds into its cumulative totals.
type tickStats struct {
	merges      uint64
	splits      uint64
	relocations uint64
	rejections  uint64
}

func (t *tickStats) add(o tickStats) {
	t.merges += o.merges
	t.splits += o.splits
	t.relocations += o.relocations
	t.rejections += o.rejections
}

// Tick executes one simulation iteration: inject random traffic, drain the
// resulting message cascade to quiescence, record statistics, then check
// that no section overflowed (spec.md §4.3). It returns a non-nil error
// only on a fatal invariant violation; the caller should stop the
// simulation in that case.
func (n *Network) Tick(iteration uint64) error {
	if err := n.checkNoIncomingRelocations(); err != nil {
		return err
	}

	n.generateRandomMessages()
	st := n.handleMessages()

	n.stats.Record(iteration, n.totalNodes(), uint64(len(n.sections)), st.merges, st.splits, st.relocations, st.rejections)

	return n.checkSectionSizes()
}

// orderedPrefixes returns every section prefix in ascending bit-string
// order, used everywhere iteration must be deterministic across runs
// (spec.md §5).
func (n *Network) orderedPrefixes() []prefix.Prefix {
	out := make([]prefix.Prefix, 0, len(n.sections))
	for p := range n.sections {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Len != out[j].Len {
			return out[i].Len < out[j].Len
		}
		return out[i].Bits < out[j].Bits
	})
	return out
}

func (n *Network) totalNodes() uint64 {
	var total uint64
	for _, s := range n.sections {
		total += uint64(len(s.Nodes()))
	}
	return total
}

func (n *Network) checkNoIncomingRelocations() error {
	for _, p := range n.orderedPrefixes() {
		if n.sections[p].HasIncomingRelocation() {
			return errs.New(errs.ErrDanglingRelocation, p.String(), n.params.Seed.String(), "section has a pending relocation at tick start")
		}
	}
	return nil
}

// generateRandomMessages injects one random join and, independently, one
// random drop attempt per section, in randomized order (spec.md §4.3).
func (n *Network) generateRandomMessages() {
	for _, p := range n.orderedPrefixes() {
		s := n.sections[p]
		if n.rng.Uint64()%2 == 0 {
			n.addRandomNode(s)
			n.dropRandomNode(s)
		} else {
			n.dropRandomNode(s)
			n.addRandomNode(s)
		}
	}
}

func (n *Network) addRandomNode(s *section.Section) {
	name := s.Prefix().SubstitutedIn(n.rng.Uint64())
	s.Receive(section.LiveRequest(node.New(name, n.params.InitAge)))
}

// dropRandomNode tries every node youngest-first, dropping the first one
// whose random draw falls under its own drop probability (spec.md §4.3,
// mirroring the original's ascending node::by_age traversal).
func (n *Network) dropRandomNode(s *section.Section) {
	nodes := youngestFirst(s.Nodes())
	for _, nd := range nodes {
		if n.rng.Float64() < node.DefaultDropProbability.Probability(nd.Age) {
			s.Receive(section.DeadRequest(nd.Name))
			return
		}
	}
}

func youngestFirst(nodes map[uint64]node.Node) []node.Node {
	out := make([]node.Node, 0, len(nodes))
	for _, nd := range nodes {
		out = append(out, nd)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Age != out[j].Age {
			return out[i].Age < out[j].Age
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// handleMessages drains every section's request queue, processes the
// Responses produced, and keeps looping until a full pass produces no
// further Responses (spec.md §4.3).
func (n *Network) handleMessages() tickStats {
	var total tickStats
	for {
		var responses []section.Response
		for _, p := range n.orderedPrefixes() {
			responses = append(responses, n.sections[p].HandleRequests(n.params)...)
		}
		if len(responses) == 0 {
			return total
		}
		total.add(n.handleResponses(responses))
	}
}

func (n *Network) handleResponses(responses []section.Response) tickStats {
	var st tickStats

	for len(responses) > 0 {
		var forwarded []section.Response
		for _, resp := range responses {
			forwarded = append(forwarded, n.handleResponse(resp, &st)...)
		}
		responses = forwarded
	}

	return st
}

func (n *Network) handleResponse(resp section.Response, st *tickStats) []section.Response {
	switch resp.Kind {
	case section.RespMerge:
		target, existed := n.sections[resp.MergeSection.Prefix()]
		if !existed {
			st.merges++
			target = section.New(resp.MergeSection.Prefix(), n.rng)
			n.sections[resp.MergeSection.Prefix()] = target
		}
		target.MergeFrom(n.params, resp.MergeSection)
		delete(n.sections, resp.OldPrefix)
		return nil

	case section.RespSplit:
		st.splits++
		p0, p1 := resp.Split0.Prefix(), resp.Split1.Prefix()
		if _, exists := n.sections[p0]; exists {
			panic(errs.New(errs.ErrDuplicatePrefix, p0.String(), n.params.Seed.String(), "split child already present"))
		}
		if _, exists := n.sections[p1]; exists {
			panic(errs.New(errs.ErrDuplicatePrefix, p1.String(), n.params.Seed.String(), "split child already present"))
		}
		n.sections[p0] = resp.Split0
		n.sections[p1] = resp.Split1
		delete(n.sections, resp.OldPrefix)
		return nil

	case section.RespReject:
		st.rejections++
		return nil

	case section.RespRelocateRequest:
		target := n.findMatchingSection(resp.RelocDst)
		return target.Receive(section.RelocateRequestMsg(resp.RelocSrc, resp.RelocDst, resp.RelocNodeName))

	case section.RespRelocate:
		st.relocations++
		target := n.findMatchingSection(resp.RelocDst)
		return target.Receive(section.RelocateMsg(resp.RelocDst, resp.RelocateNode))

	case section.RespSend:
		return n.handleSend(resp.SendPrefix, resp.SendRequest, st)
	}
	return nil
}

// handleSend implements the Send(prefix, request) case: a Merge request is
// broadcast to every section descending from prefix, since the intended
// receiver may already have split away; a Relocate request counts towards
// the tick's relocation total even when delivered this way; everything
// else goes through the ordinary send path (spec.md §4.3).
func (n *Network) handleSend(p prefix.Prefix, req section.Request, st *tickStats) []section.Response {
	switch req.Kind {
	case section.ReqMerge:
		var forwarded []section.Response
		for _, q := range n.orderedPrefixes() {
			if p.IsAncestorOf(q) {
				forwarded = append(forwarded, n.sections[q].Receive(section.MergeRequest(req.MergeParent))...)
			}
		}
		return forwarded
	case section.ReqRelocate:
		st.relocations++
		return n.send(p, req)
	default:
		return n.send(p, req)
	}
}

func (n *Network) findMatchingSection(name uint64) *section.Section {
	for _, p := range n.orderedPrefixes() {
		if p.Matches(name) {
			return n.sections[p]
		}
	}
	panic(fmt.Sprintf("network: no section matches name %d", name))
}

// send delivers request to the section at prefix, falling back to an
// ancestor (the section may have split since the request was issued) and
// finally to the section matching the request's destination name
// (RelocateRequest, Relocate) or node name (RelocateAccept, RelocateReject)
// (spec.md §4.3).
func (n *Network) send(p prefix.Prefix, req section.Request) []section.Response {
	if s, ok := n.sections[p]; ok {
		return s.Receive(req)
	}

	slog.Debug("send target missing, falling back to ancestor lookup",
		simlog.KeyPrefix, p.String(), simlog.KeyEvent, req.Kind)

	for _, q := range n.orderedPrefixes() {
		if n.sections[q].Prefix().IsAncestorOf(p) {
			return n.sections[q].Receive(req)
		}
	}

	switch req.Kind {
	case section.ReqRelocateRequest, section.ReqRelocate:
		return n.findMatchingSection(req.RelocDst).Receive(req)
	case section.ReqRelocateAccept, section.ReqRelocateReject:
		return n.findMatchingSection(req.RelocNodeName).Receive(req)
	default:
		panic(fmt.Sprintf("network: no section found to deliver request %+v", req))
	}
}

func (n *Network) checkSectionSizes() error {
	for _, p := range n.orderedPrefixes() {
		s := n.sections[p]
		if uint64(len(s.Nodes())) > n.params.MaxSectionSize {
			return errs.New(errs.ErrSectionOverflow, p.String(), n.params.Seed.String(),
				fmt.Sprintf("section has %d nodes, limit %d", len(s.Nodes()), n.params.MaxSectionSize))
		}
	}
	return nil
}

// AgeDistribution summarizes the age of every node across the whole overlay.
func (n *Network) AgeDistribution() stats.Distribution {
	var ages []uint64
	for _, s := range n.sections {
		for _, nd := range s.Nodes() {
			ages = append(ages, nd.Age)
		}
	}
	return stats.NewDistribution(ages)
}

// SectionSizeDistribution summarizes section membership size.
func (n *Network) SectionSizeDistribution() stats.Distribution {
	sizes := make([]uint64, 0, len(n.sections))
	for _, s := range n.sections {
		sizes = append(sizes, uint64(len(s.Nodes())))
	}
	return stats.NewDistribution(sizes)
}

// PrefixLenDistribution summarizes section prefix length, whose spread is
// the running max_prefix_len_diff tracked by the caller (SPEC_FULL.md §4.9).
func (n *Network) PrefixLenDistribution() stats.Distribution {
	lens := make([]uint64, 0, len(n.sections))
	for p := range n.sections {
		lens = append(lens, uint64(p.Len))
	}
	return stats.NewDistribution(lens)
}
