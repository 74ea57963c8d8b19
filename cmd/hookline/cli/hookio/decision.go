package hookio

import "encoding/json"

// Kind discriminates Decision values.
type Kind int

const (
	// KindNone means the hook has nothing to tell the host.
	KindNone Kind = iota
	// KindContinue lets the tool call proceed unchanged.
	KindContinue
	// KindContinueWith lets the call proceed with a rewritten tool_input.
	KindContinueWith
	// KindBlock stops the call.
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindContinue:
		return "continue"
	case KindContinueWith:
		return "continue_with"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Decision is a hook's verdict on one event.
//
// Block decisions can only be produced by a Gate, and carry the gate that
// produced them.
type Decision struct {
	kind   Kind
	input  json.RawMessage
	reason string
	gate   *Gate
}

// NoDecision produces no output at all.
func NoDecision() Decision { return Decision{kind: KindNone} }

// Continue allows the call unchanged.
func Continue() Decision { return Decision{kind: KindContinue} }

// ContinueWith allows the call with input replacing tool_input.
func ContinueWith(input json.RawMessage) Decision {
	return Decision{kind: KindContinueWith, input: input}
}

// Kind returns the decision's variant.
func (d Decision) Kind() Kind { return d.kind }

// Input returns the replacement tool_input for KindContinueWith.
func (d Decision) Input() json.RawMessage { return d.input }

// Reason returns the block reason for KindBlock.
func (d Decision) Reason() string { return d.reason }

// IssuedBy reports whether d may be emitted by the holder of g. Non-block
// decisions always may; a Block only when g produced it, so a nil g admits no
// Block at all.
func (d Decision) IssuedBy(g *Gate) bool {
	return d.kind != KindBlock || (g != nil && d.gate == g)
}

// Gate is the capability to block. The dispatcher hands one only to hooks
// registered as able to block and emits a Block only when it came from that
// gate (see Decision.IssuedBy), so a gate minted anywhere else cannot block.
type Gate struct {
	issued bool
}

// NewGate issues a blocking capability.
func NewGate() *Gate { return &Gate{issued: true} }

// Block stops the tool call with reason. A nil or unissued gate degrades to
// Continue.
func (g *Gate) Block(reason string) Decision {
	if g == nil || !g.issued {
		return Continue()
	}
	return Decision{kind: KindBlock, reason: reason, gate: g}
}
