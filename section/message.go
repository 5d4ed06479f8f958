// Package section implements the per-section protocol state machine:
// Stable/Splitting/Merging states, the Live/Dead/Merge/Relocate message
// family, split/merge policy, elder maintenance, and relocation selection
// (spec.md §4).
package section

import (
	"github.com/maqi/datachains-sim/node"
	"github.com/maqi/datachains-sim/prefix"
)

// Request is the tagged sum type a Section receives (spec.md §4.1). Exactly
// one of the fields is meaningful, selected by Kind.
type Request struct {
	Kind RequestKind

	// Live
	LiveNode node.Node

	// Dead
	DeadName uint64

	// Merge
	MergeParent prefix.Prefix

	// RelocateRequest / RelocateAccept / RelocateReject
	RelocSrc      prefix.Prefix
	RelocDst      uint64
	RelocNodeName uint64

	// Relocate
	RelocateNode node.Node
}

// RequestKind discriminates the Request union.
type RequestKind uint8

const (
	ReqLive RequestKind = iota
	ReqDead
	ReqMerge
	ReqRelocateRequest
	ReqRelocateAccept
	ReqRelocateReject
	ReqRelocate
)

// String implements fmt.Stringer, used for debug-level protocol logging.
func (k RequestKind) String() string {
	switch k {
	case ReqLive:
		return "Live"
	case ReqDead:
		return "Dead"
	case ReqMerge:
		return "Merge"
	case ReqRelocateRequest:
		return "RelocateRequest"
	case ReqRelocateAccept:
		return "RelocateAccept"
	case ReqRelocateReject:
		return "RelocateReject"
	case ReqRelocate:
		return "Relocate"
	default:
		return "Unknown"
	}
}

// LiveRequest builds a Live(node) request.
func LiveRequest(n node.Node) Request {
	return Request{Kind: ReqLive, LiveNode: n}
}

// DeadRequest builds a Dead(name) request.
func DeadRequest(name uint64) Request {
	return Request{Kind: ReqDead, DeadName: name}
}

// MergeRequest builds a Merge(target_parent_prefix) request.
func MergeRequest(parent prefix.Prefix) Request {
	return Request{Kind: ReqMerge, MergeParent: parent}
}

// RelocateRequestMsg builds a RelocateRequest{src, dst, node_name} request.
func RelocateRequestMsg(src prefix.Prefix, dst, nodeName uint64) Request {
	return Request{Kind: ReqRelocateRequest, RelocSrc: src, RelocDst: dst, RelocNodeName: nodeName}
}

// RelocateAcceptMsg builds a RelocateAccept{dst, node_name} request.
func RelocateAcceptMsg(dst, nodeName uint64) Request {
	return Request{Kind: ReqRelocateAccept, RelocDst: dst, RelocNodeName: nodeName}
}

// RelocateRejectMsg builds a RelocateReject{dst, node_name} request.
func RelocateRejectMsg(dst, nodeName uint64) Request {
	return Request{Kind: ReqRelocateReject, RelocDst: dst, RelocNodeName: nodeName}
}

// RelocateMsg builds a Relocate{dst, node} request: the actual hand-off.
func RelocateMsg(dst uint64, n node.Node) Request {
	return Request{Kind: ReqRelocate, RelocDst: dst, RelocateNode: n}
}

// Response is the tagged sum type a Section emits (spec.md §4.1).
type Response struct {
	Kind ResponseKind

	// Send
	SendPrefix  prefix.Prefix
	SendRequest Request

	// Merge
	MergeSection *Section
	OldPrefix    prefix.Prefix

	// Split
	Split0 *Section
	Split1 *Section

	// Reject
	RejectNode node.Node

	// Relocate / RelocateRequest (Router-bound)
	RelocDst      uint64
	RelocateNode  node.Node
	RelocSrc      prefix.Prefix
	RelocNodeName uint64
}

// ResponseKind discriminates the Response union.
type ResponseKind uint8

const (
	RespSend ResponseKind = iota
	RespMerge
	RespSplit
	RespReject
	RespRelocate
	RespRelocateRequest
)

// Send builds a Send(prefix, request) response.
func Send(p prefix.Prefix, r Request) Response {
	return Response{Kind: RespSend, SendPrefix: p, SendRequest: r}
}

// MergeResponse builds a Merge(section, old_prefix) response.
func MergeResponse(merged *Section, old prefix.Prefix) Response {
	return Response{Kind: RespMerge, MergeSection: merged, OldPrefix: old}
}

// SplitResponse builds a Split(section0, section1, old_prefix) response.
func SplitResponse(s0, s1 *Section, old prefix.Prefix) Response {
	return Response{Kind: RespSplit, Split0: s0, Split1: s1, OldPrefix: old}
}

// Reject builds a Reject(node) response.
func Reject(n node.Node) Response {
	return Response{Kind: RespReject, RejectNode: n}
}

// RelocateResponse builds a Relocate{dst, node} response bound for the
// Router to forward.
func RelocateResponse(dst uint64, n node.Node) Response {
	return Response{Kind: RespRelocate, RelocDst: dst, RelocateNode: n}
}

// RelocateRequestResponse builds a RelocateRequest{src, dst, node_name}
// response bound for the Router to forward.
func RelocateRequestResponse(src prefix.Prefix, dst, nodeName uint64) Response {
	return Response{Kind: RespRelocateRequest, RelocSrc: src, RelocDst: dst, RelocNodeName: nodeName}
}
