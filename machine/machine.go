// Package machine drives one agent's Behavior through its lifecycle:
//
//	Uninitialized --start--> Started --first item--> Processing --> Halted
//
// Halted is terminal and irreversible: once reached, no further Startup or
// Process call occurs for the agent. An unhandled failure inside Process
// (error return or panic) is caught at this boundary, logged as a non-fatal
// behavior error, and processing continues with the next item. The exception
// is core.ErrEnvironmentUnavailable, which is unrecoverable for any agent
// with an outstanding submission.
package machine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentsim/core"
	"github.com/hupe1980/agentsim/logging"
)

// State is the lifecycle state of one agent's behavior.
type State int

const (
	// Uninitialized is the initial state; Startup has not been called.
	Uninitialized State = iota
	// Started means Startup returned and the inbound sequence is live.
	Started
	// Processing means at least one inbound item has been processed.
	Processing
	// Halted is terminal and irreversible.
	Halted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Started:
		return "started"
	case Processing:
		return "processing"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger provides structured logging. Defaults to NoOp logger if nil.
	Logger logging.Logger
}

// StateMachine binds one Behavior to its lifecycle. Run may be called once;
// State is observable concurrently, including after the run has ended.
type StateMachine struct {
	agentID  string
	behavior core.Behavior
	logger   logging.Logger

	mu    sync.Mutex
	state State
}

// New constructs a StateMachine for the given agent and behavior.
func New(agentID string, behavior core.Behavior, optFns ...func(o *Options)) *StateMachine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &StateMachine{
		agentID:  agentID,
		behavior: behavior,
		logger:   opts.Logger,
		state:    Uninitialized,
	}
}

// State returns the current lifecycle state.
func (m *StateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *StateMachine) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run drives the behavior until it halts, its inbound sequence ends, the
// context is cancelled, or the environment becomes unavailable. The machine
// always ends Halted. The returned error is nil for a normal halt,
// a *core.BehaviorError when Startup itself failed, the context error on
// cancellation, or an error wrapping core.ErrEnvironmentUnavailable.
func (m *StateMachine) Run(ctx context.Context, env core.EnvironmentHandle, msgr core.MessagerHandle) error {
	m.mu.Lock()
	if m.state != Uninitialized {
		m.mu.Unlock()
		return fmt.Errorf("state machine for %s already started: %w", m.agentID, core.ErrAlreadyRunning)
	}
	m.state = Started
	m.mu.Unlock()

	defer m.setState(Halted)

	stream, err := m.startup(ctx, env, msgr)
	if err != nil {
		if errors.Is(err, core.ErrEnvironmentUnavailable) {
			m.logger.Error("agent %s startup: environment unavailable: %v", m.agentID, err)
			return err
		}
		berr := &core.BehaviorError{AgentID: m.agentID, Err: err}
		m.logger.Warn("agent %s halting after startup failure: %v", m.agentID, berr)
		return berr
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case item, ok := <-stream:
			if !ok {
				// Finite sequence exhausted; halt without an explicit signal.
				m.logger.Debug("agent %s inbound sequence ended", m.agentID)
				return nil
			}

			m.setState(Processing)

			signal, err := m.process(ctx, item)
			if err != nil {
				if errors.Is(err, core.ErrEnvironmentUnavailable) {
					m.logger.Error("agent %s: environment unavailable: %v", m.agentID, err)
					return err
				}
				// Contained at this boundary; the agent keeps processing.
				m.logger.Warn("agent %s behavior error contained: %v", m.agentID, err)
				continue
			}

			if signal == core.Halt {
				m.logger.Debug("agent %s halted by behavior", m.agentID)
				return nil
			}
		}
	}
}

// startup invokes Behavior.Startup with panic containment.
func (m *StateMachine) startup(ctx context.Context, env core.EnvironmentHandle, msgr core.MessagerHandle) (stream <-chan core.InboundItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("startup panic: %v", r)
		}
	}()

	return m.behavior.Startup(ctx, env, msgr)
}

// process invokes Behavior.Process with panic containment.
func (m *StateMachine) process(ctx context.Context, item core.InboundItem) (signal core.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			signal = core.Continue
			err = fmt.Errorf("process panic: %v", r)
		}
	}()

	return m.behavior.Process(ctx, item)
}
