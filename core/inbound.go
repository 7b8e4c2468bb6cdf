package core

// InboundItem represents a polymorphic item on an agent's merged inbound
// sequence: either a peer Message or a ledger Event. Concrete types
// implement the unexported isInboundItem marker enabling a closed set.
//
// Per-recipient delivery preserves each source's own order; no total order
// exists between independent peer messages and engine events.
type InboundItem interface{ isInboundItem() }

// isInboundItem implements the InboundItem interface for Message.
func (Message) isInboundItem() {}

// isInboundItem implements the InboundItem interface for Event.
func (Event) isInboundItem() {}
