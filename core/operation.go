package core

import "github.com/google/uuid"

// Operation is an opaque state-changing request submitted to the ledger.
// The payload shape is engine-specific; the kernel only routes it. Caller
// identifies the submitting agent so results can be replied to exactly once.
type Operation struct {
	ID      string // Unique per submission, generated by NewOperation
	Caller  string // Submitting agent identity
	Payload any    // Engine-specific request body
}

// NewOperation constructs an Operation with a generated ID.
func NewOperation(caller string, payload any) Operation {
	return Operation{
		ID:      NewID(),
		Caller:  caller,
		Payload: payload,
	}
}

// ExecutionResult is the outcome of executing one Operation against the
// ledger. It carries either a success payload plus the ordered events the
// execution emitted, or a logical failure descriptor. Treat it as immutable
// once produced. A logical failure (e.g. a reverted operation) is an
// ordinary result with Failure set; it is not an environment error.
type ExecutionResult struct {
	OperationID string  // Echo of the originating Operation.ID
	Output      any     // Engine-specific success payload
	Events      []Event // Events emitted by the execution, in emission order
	Failure     string  // Non-empty when the operation logically failed
}

// Failed reports whether the result describes a logical failure.
func (r ExecutionResult) Failed() bool { return r.Failure != "" }

// NewID generates a new process-unique identifier.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
