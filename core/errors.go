package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID is returned when registering an identity that is
	// already taken within the current run.
	ErrDuplicateID = errors.New("agent id already registered")

	// ErrNoSuchRecipient is returned by Send when the addressed agent is
	// not registered. It is non-fatal; the sender's state is unaffected.
	ErrNoSuchRecipient = errors.New("no such recipient")

	// ErrEnvironmentUnavailable is returned by Submit when the execution
	// environment worker has terminated. It is fatal to any agent with an
	// outstanding submission and must surface as an unrecoverable failure,
	// never a silent hang.
	ErrEnvironmentUnavailable = errors.New("execution environment unavailable")

	// ErrAlreadyRunning is returned on structural misuse, e.g. adding an
	// agent to a world whose run has already started.
	ErrAlreadyRunning = errors.New("world already running")

	// ErrMessageDecode wraps behavior-level failures to decode an inbound
	// message payload. Decoding is the Behavior's concern; the kernel only
	// defines the sentinel so callers can classify.
	ErrMessageDecode = errors.New("message decode failed")
)

// BehaviorError wraps an unhandled failure that escaped a Behavior's
// Process (or Startup). It is caught at the state machine boundary, logged
// as non-fatal, and never affects other agents or the environment.
type BehaviorError struct {
	AgentID string
	Err     error
}

// Error implements the error interface.
func (e *BehaviorError) Error() string {
	return fmt.Sprintf("behavior error in agent %s: %v", e.AgentID, e.Err)
}

// Unwrap returns the underlying behavior failure.
func (e *BehaviorError) Unwrap() error { return e.Err }
