package core

import "context"

// Signal is returned by Behavior.Process to steer the driving state machine.
type Signal int

const (
	// Continue keeps the state machine processing subsequent items.
	Continue Signal = iota
	// Halt transitions the agent to its terminal state. After Halt no
	// further Process or Startup call occurs for that agent.
	Halt
)

// String returns the string representation of the signal.
func (s Signal) String() string {
	switch s {
	case Continue:
		return "continue"
	case Halt:
		return "halt"
	default:
		return "unknown"
	}
}

// EnvironmentHandle is the execution environment handle given to behaviors.
// Submit enqueues an operation on the environment's serialized queue and
// blocks until the corresponding ExecutionResult arrives, the context is
// cancelled, or the environment becomes unavailable.
type EnvironmentHandle interface {
	Submit(ctx context.Context, op Operation) (ExecutionResult, error)
}

// MessagerHandle is the messager handle given to behaviors. Send delivers a
// message to its recipient's inbound sequence; an unknown recipient yields
// ErrNoSuchRecipient, which is non-fatal. Stream returns the agent's merged
// inbound sequence of peer messages and engine events; it is lazy, suspends
// when empty, and never self-terminates while the agent lives.
type MessagerHandle interface {
	ID() string
	Send(msg Message) error
	Stream() <-chan InboundItem
}

// Behavior is the pluggable reaction logic bound to one agent.
//
// Startup is called exactly once when the agent starts. It may submit
// operations and send messages, and returns the inbound sequence the agent
// will process (typically the messager handle's merged stream; possibly an
// already-closed channel for fire-and-forget behaviors).
//
// Process is called once per inbound item, in delivery order, never
// concurrently. Returning Halt (or closing of the inbound sequence)
// terminates the agent. An error from Process is contained at the state
// machine boundary: it is logged and processing continues with the next
// item. Side effects go only through the provided handles.
type Behavior interface {
	Startup(ctx context.Context, env EnvironmentHandle, msgr MessagerHandle) (<-chan InboundItem, error)
	Process(ctx context.Context, item InboundItem) (Signal, error)
}
