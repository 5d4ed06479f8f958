package section

import (
	"log/slog"
	"math/rand/v2"

	"github.com/maqi/datachains-sim/chain"
	"github.com/maqi/datachains-sim/internal/simlog"
	"github.com/maqi/datachains-sim/node"
	"github.com/maqi/datachains-sim/params"
	"github.com/maqi/datachains-sim/prefix"
)

// stateKind discriminates a Section's lifecycle state (spec.md §4.2).
type stateKind uint8

const (
	stateStable stateKind = iota
	stateSplitting
	stateMerging
)

// Section is one partition of the overlay's name space: a state machine
// that owns a set of nodes, an append-only chain, and a FIFO of requests
// awaiting dispatch (spec.md §4).
type Section struct {
	prefix      prefix.Prefix
	state       stateKind
	mergeParent prefix.Prefix // meaningful only when state == stateMerging

	nodes               map[uint64]node.Node
	chain               chain.Chain
	requests            []Request
	incomingRelocations map[uint64]uint64 // node name -> relocation dst
	outgoingRelocations map[uint64]struct{}

	rng *rand.Rand
}

// New creates an empty, Stable Section for p. rng is shared across every
// Section in a Network so that the single pseudo-random stream consumed by
// relocation name generation stays in one deterministic order, the same way
// the original simulator reseeds one process-wide generator (spec.md §5).
func New(p prefix.Prefix, rng *rand.Rand) *Section {
	return &Section{
		prefix:              p,
		state:               stateStable,
		nodes:               make(map[uint64]node.Node),
		incomingRelocations: make(map[uint64]uint64),
		outgoingRelocations: make(map[uint64]struct{}),
		rng:                 rng,
	}
}

// Prefix returns s's prefix.
func (s *Section) Prefix() prefix.Prefix {
	return s.prefix
}

// Nodes returns a read-only view of s's current membership.
func (s *Section) Nodes() map[uint64]node.Node {
	return s.nodes
}

// Chain returns s's append-only block log.
func (s *Section) Chain() chain.Chain {
	return s.chain
}

// IsComplete reports whether s has at least GroupSize adults.
func (s *Section) IsComplete(p params.Params) bool {
	return node.CountAdults(p.AdultAge, s.nodeSlice()) >= int(p.GroupSize)
}

// HasIncomingRelocation reports whether s still has a relocation pending
// acceptance. A tick must never begin with a non-empty incoming cache
// (spec.md §3, invariant v; enforced by the caller via errs.ErrDanglingRelocation).
func (s *Section) HasIncomingRelocation() bool {
	return len(s.incomingRelocations) > 0
}

func (s *Section) nodeSlice() []node.Node {
	out := make([]node.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out
}

// Receive enqueues request for later dispatch by HandleRequests, unless s is
// mid-split or mid-merge, in which case the request is immediately bounced
// back out as a Send so the Router can redeliver it once the transition
// completes (spec.md §4.2).
func (s *Section) Receive(req Request) []Response {
	switch s.state {
	case stateStable:
	case stateSplitting:
		return []Response{Send(s.prefix, req)}
	case stateMerging:
		return []Response{Send(s.mergeParent, req)}
	}

	s.requests = append(s.requests, req)
	return nil
}

// HandleRequests drains s's request queue in FIFO order, dispatching each
// request to its handler and collecting every Response produced along the
// way (spec.md §4.2).
func (s *Section) HandleRequests(p params.Params) []Response {
	pending := s.requests
	s.requests = nil

	var responses []Response
	for _, req := range pending {
		responses = append(responses, s.dispatch(p, req)...)
	}
	return responses
}

func (s *Section) dispatch(p params.Params, req Request) []Response {
	switch req.Kind {
	case ReqLive:
		return s.handleLive(p, req.LiveNode)
	case ReqDead:
		return s.handleDead(p, req.DeadName)
	case ReqMerge:
		return s.handleMerge(p, req.MergeParent)
	case ReqRelocateRequest:
		return s.handleRelocateRequest(p, req.RelocSrc, req.RelocDst, req.RelocNodeName)
	case ReqRelocateAccept:
		return s.handleRelocateAccept(req.RelocDst, req.RelocNodeName)
	case ReqRelocateReject:
		return s.handleRelocateReject(req.RelocDst, req.RelocNodeName)
	case ReqRelocate:
		return s.handleRelocate(p, req.RelocDst, req.RelocateNode)
	default:
		return nil
	}
}

// MergeFrom absorbs other's state into s, unioning nodes, chain blocks,
// queued requests and relocation caches, then recomputes elders without
// triggering relocation (spec.md §4.3, "merge `section` into it"). other
// must carry the same prefix as s. This is the Router-side counterpart to
// handleMerge, which builds a parent Section carrying the merging section's
// nodes, chain and relocation caches; MergeFrom folds each such Section into
// the Router's single Section at the parent prefix.
func (s *Section) MergeFrom(p params.Params, other *Section) {
	s.chain.Extend(other.chain)
	for name, n := range other.nodes {
		s.nodes[name] = n
	}
	s.requests = append(s.requests, other.requests...)
	for name, dst := range other.incomingRelocations {
		s.incomingRelocations[name] = dst
	}
	for name := range other.outgoingRelocations {
		s.outgoingRelocations[name] = struct{}{}
	}
	s.updateElders(p, false)
}

// forward reports the prefix a request concerning name should be routed to
// while s is mid-transition: for a Splitting section, whichever child's
// range name falls under; for a Merging section, the parent it is merging
// into. This is distinct from Receive's blanket forwarding: it is used by
// handlers already dequeued from a request batch that straddled a
// transition triggered earlier in the same batch (spec.md §4.2).
func (s *Section) forward(name uint64) (prefix.Prefix, bool) {
	switch s.state {
	case stateSplitting:
		zero, one := s.prefix.Split()
		if zero.Matches(name) {
			return zero, true
		}
		return one, true
	case stateMerging:
		return s.mergeParent, true
	default:
		return prefix.Prefix{}, false
	}
}

func (s *Section) addNode(n node.Node) {
	s.nodes[n.Name] = n
}

func (s *Section) rejectNode(n node.Node) []Response {
	return []Response{Reject(n)}
}

func (s *Section) dropNode(name uint64) (node.Node, bool) {
	n, ok := s.nodes[name]
	if ok {
		delete(s.nodes, name)
	}
	return n, ok
}

// handleLive admits a newly joined or relocated node (spec.md §4.2).
func (s *Section) handleLive(p params.Params, n node.Node) []Response {
	if fwd, ok := s.forward(n.Name); ok {
		return []Response{Send(fwd, LiveRequest(n))}
	}

	startup := s.prefix == prefix.Empty

	var newNode node.Node
	switch {
	case startup:
		// During startup, nodes join directly as adults; no relocation.
		newNode = node.New(n.Name, p.AdultAge)
	case n.IsInfant(p.AdultAge) && node.CountInfants(p.AdultAge, s.nodeSlice()) >= int(p.MaxInfantsPerSection):
		return s.rejectNode(n)
	default:
		newNode = n
	}

	age, name := newNode.Age, newNode.Name
	isAdult := newNode.IsAdult(p.AdultAge)

	s.addNode(newNode)
	// A relocated adult must trigger relocation at most once: its
	// subsequent promotion to elder must not trigger it again.
	s.updateElders(p, false)

	if responses := s.trySplit(p); len(responses) > 0 {
		return responses
	}
	if isAdult && !startup {
		return s.tryRelocate(p, chain.NewBlock(chain.Live, name, age))
	}
	return nil
}

// handleDead removes a departed node and re-evaluates elders, merge and
// relocation (spec.md §4.2).
func (s *Section) handleDead(p params.Params, name uint64) []Response {
	n, ok := s.dropNode(name)
	if !ok {
		return nil
	}

	responses := s.updateElders(p, true)
	responses = append(responses, s.tryMerge(p)...)

	if n.IsAdult(p.AdultAge) {
		if last, ok := s.chain.LastLive(); ok {
			responses = append(responses, s.tryRelocate(p, last)...)
		}
	}
	return responses
}

// handleMerge drives s towards parent, the section it and its sibling are
// merging into (spec.md §4.3).
func (s *Section) handleMerge(p params.Params, parent prefix.Prefix) []Response {
	switch s.state {
	case stateMerging:
		if s.mergeParent.IsAncestorOf(parent) {
			slog.Debug("dropping merge: already merging into an ancestor of the requested parent",
				simlog.KeyPrefix, s.prefix.String(), "merge_parent", s.mergeParent.String(), "requested_parent", parent.String())
			return nil
		}
		return []Response{Send(s.mergeParent, MergeRequest(parent))}
	case stateSplitting:
		zero, one := s.prefix.Split()
		return []Response{
			Send(zero, MergeRequest(parent)),
			Send(one, MergeRequest(parent)),
		}
	}

	merged := New(parent, s.rng)
	merged.chain = s.chain.Clone()
	merged.nodes = s.nodes
	merged.outgoingRelocations = s.outgoingRelocations
	merged.incomingRelocations = s.incomingRelocations

	s.nodes = make(map[uint64]node.Node)
	s.outgoingRelocations = make(map[uint64]struct{})
	s.incomingRelocations = make(map[uint64]uint64)
	s.state = stateMerging
	s.mergeParent = parent

	return []Response{MergeResponse(merged, s.prefix)}
}

// handleRelocate accepts a node handed off by another section, giving it a
// fresh, subtree-balanced name before re-joining it via handleLive
// (spec.md §4.6 step 7).
func (s *Section) handleRelocate(p params.Params, dst uint64, n node.Node) []Response {
	if fwd, ok := s.forward(n.Name); ok {
		return []Response{Send(fwd, RelocateMsg(dst, n))}
	}

	if _, ok := s.incomingRelocations[n.Name]; !ok {
		slog.Debug("dropping relocate: no pending incoming relocation for node",
			simlog.KeyPrefix, s.prefix.String(), "name", n.Name)
		return nil
	}
	delete(s.incomingRelocations, n.Name)

	newName := s.rng.Uint64()

	zero, one := s.prefix.Split()
	count0 := node.CountMatchingAdults(p.AdultAge, zero.Matches, s.nodeSlice())
	count1 := node.CountMatchingAdults(p.AdultAge, one.Matches, s.nodeSlice())
	if count0 < count1 {
		newName = zero.SubstitutedIn(newName)
	} else {
		newName = one.SubstitutedIn(newName)
	}

	return s.handleLive(p, node.New(newName, n.Age))
}

// handleRelocateRequest decides whether s will accept an incoming
// relocation, rejecting if it already has one pending or is at capacity
// (spec.md §4.6 step 7).
func (s *Section) handleRelocateRequest(p params.Params, src prefix.Prefix, dst, nodeName uint64) []Response {
	if len(s.incomingRelocations) > 0 || uint64(len(s.nodes)) >= p.MaxSectionSize {
		return []Response{Send(src, RelocateRejectMsg(dst, nodeName))}
	}
	s.incomingRelocations[nodeName] = dst
	return []Response{Send(src, RelocateAcceptMsg(dst, nodeName))}
}

// handleRelocateAccept completes the departing side of a relocation:
// increments the node's age, demotes it if it was an elder, and hands it
// off to the Router as a Relocate response (spec.md §4.6 step 7).
func (s *Section) handleRelocateAccept(dst, nodeName uint64) []Response {
	if fwd, ok := s.forward(nodeName); ok {
		return []Response{Send(fwd, RelocateAcceptMsg(dst, nodeName))}
	}

	if _, ok := s.outgoingRelocations[nodeName]; !ok {
		slog.Debug("dropping relocate accept: no matching outgoing relocation",
			simlog.KeyPrefix, s.prefix.String(), "name", nodeName)
		return nil
	}
	delete(s.outgoingRelocations, nodeName)

	n, ok := s.nodes[nodeName]
	if !ok {
		slog.Debug("dropping relocate accept: accepted node no longer present",
			simlog.KeyPrefix, s.prefix.String(), "name", nodeName)
		return nil
	}
	delete(s.nodes, nodeName)
	wasElder := n.Elder
	n = n.Relocated(n.Name)
	if wasElder {
		n = n.Demote()
		s.chain.Insert(chain.Dead, nodeName, n.Age)
	}

	return []Response{RelocateResponse(dst, n)}
}

// handleRelocateReject retries a rejected relocation by rehashing the
// destination once more and resubmitting (spec.md §4.6 step 6). Seeding a
// Hash from dst and then rehashing it once is the same two-call construction
// the original uses (`Hash::new_from_u64(dst).hash()`): NewFromU64 forms the
// seed, Rehash is the single rehashing step over it.
func (s *Section) handleRelocateReject(dst, nodeName uint64) []Response {
	if _, ok := s.outgoingRelocations[nodeName]; !ok {
		slog.Debug("dropping relocate reject: no matching outgoing relocation",
			simlog.KeyPrefix, s.prefix.String(), "name", nodeName)
		return nil
	}
	newDst := chain.NewFromU64(dst).Rehash().ToU64()
	return []Response{RelocateRequestResponse(s.prefix, newDst, nodeName)}
}
