package world

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentsim/core"
	"github.com/hupe1980/agentsim/environment"
	"github.com/hupe1980/agentsim/logging"
	"github.com/hupe1980/agentsim/machine"
	"github.com/hupe1980/agentsim/messager"
)

// Agent binds one identity, one Behavior, a messager handle and the shared
// execution environment handle, and hosts the running state machine. The
// binding is immutable after construction; only the machine state changes.
type Agent struct {
	id       string
	behavior core.Behavior
	handle   *messager.Handle
	machine  *machine.StateMachine
	err      error // terminal run outcome, set before the world's barrier resolves
}

// ID returns the agent's identity.
func (a *Agent) ID() string { return a.id }

// State returns the agent's current lifecycle state.
func (a *Agent) State() machine.State { return a.machine.State() }

// Err returns the agent's terminal error, nil for a normal halt. Only
// meaningful after the world's Run has resolved.
func (a *Agent) Err() error { return a.err }

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger provides structured logging. Defaults to NoOp logger if nil.
	Logger logging.Logger
}

// World owns the execution environment and the agent set. Populate it, then
// call Run exactly once.
type World struct {
	id       string
	env      *environment.Environment
	messager *messager.Messager
	logger   logging.Logger

	mu      sync.Mutex
	agents  []*Agent
	byID    map[string]*Agent
	running bool
}

// New constructs a World around the given ledger.
func New(id string, ledger core.Ledger, optFns ...func(o *Options)) *World {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.ForWorld(opts.Logger, id)

	return &World{
		id: id,
		env: environment.New(ledger, func(o *environment.Options) {
			o.Logger = logging.ForComponent(logger, "environment")
		}),
		messager: messager.New(func(o *messager.Options) {
			o.Logger = logging.ForComponent(logger, "messager")
		}),
		logger: logger,
		byID:   make(map[string]*Agent),
	}
}

// AddAgent registers an agent with the given identity and behavior. It
// fails with core.ErrAlreadyRunning once Run has started, and with
// core.ErrDuplicateID when the identity is taken.
func (w *World) AddAgent(id string, behavior core.Behavior) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("add agent %q: %w", id, core.ErrAlreadyRunning)
	}

	handle, err := w.messager.Register(id)
	if err != nil {
		return fmt.Errorf("add agent: %w", err)
	}

	a := &Agent{
		id:       id,
		behavior: behavior,
		handle:   handle,
		machine: machine.New(id, behavior, func(o *machine.Options) {
			o.Logger = logging.ForAgent(w.logger, id)
		}),
	}

	w.agents = append(w.agents, a)
	w.byID[id] = a

	return nil
}

// Agent returns the named agent, if present. Halted agents remain
// observable after the run, including after cancellation.
func (w *World) Agent(id string) (*Agent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.byID[id]
	return a, ok
}

// RunReport summarizes one world run. Individual non-fatal behavior errors
// never fail a run; Degraded marks runs in which the execution environment
// became unavailable.
type RunReport struct {
	RunID    string
	WorldID  string
	Halted   []string         // agents that halted normally (contained behavior errors included)
	Failed   map[string]error // agents whose run ended on an unrecoverable error
	Degraded bool
	Duration time.Duration
}

// Run starts the environment worker and every agent's state machine
// concurrently and resolves once every agent has reached its terminal
// state. Agents are released (detached from the bus and the broadcast)
// only after all of them halted.
func (w *World) Run(ctx context.Context) (*RunReport, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil, fmt.Errorf("world %q: %w", w.id, core.ErrAlreadyRunning)
	}
	w.running = true
	agents := make([]*Agent, len(w.agents))
	copy(agents, w.agents)
	w.mu.Unlock()

	start := time.Now()
	runID := core.NewID()

	w.logger.Info("world run starting world_id=%s run_id=%s agents=%d", w.id, runID, len(agents))

	// The environment outlives the agents: its context is cancelled only
	// after the completion barrier, so in-flight submissions can complete.
	envCtx, stopEnv := context.WithCancel(context.Background())
	w.env.Start(envCtx)

	// Subscribe every agent to the broadcast before starting any of them.
	unsubscribes := make([]func(), len(agents))
	for i, a := range agents {
		unsubscribes[i] = w.env.Subscribe(a.handle)
	}

	var wg sync.WaitGroup
	for _, a := range agents {
		wg.Add(1)
		go func(a *Agent) {
			defer wg.Done()
			a.err = a.machine.Run(ctx, w.env, a.handle)
		}(a)
	}

	// An engine failure must also release agents suspended on their inbound
	// streams: close every handle so the streams end and the machines halt.
	// Submitters observe ErrEnvironmentUnavailable on their own.
	barrier := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-w.env.Done():
			if w.env.Failure() == nil {
				return
			}
			for _, a := range agents {
				a.handle.Close()
			}
		case <-barrier:
		}
	}()

	wg.Wait()
	close(barrier)
	<-watcher

	for i, a := range agents {
		unsubscribes[i]()
		a.handle.Close()
	}

	stopEnv()
	<-w.env.Done()

	report := &RunReport{
		RunID:    runID,
		WorldID:  w.id,
		Failed:   make(map[string]error),
		Duration: time.Since(start),
	}

	for _, a := range agents {
		var berr *core.BehaviorError
		switch {
		case a.err == nil:
			report.Halted = append(report.Halted, a.id)
		case errors.As(a.err, &berr):
			// Contained: the agent halted after a startup failure.
			report.Halted = append(report.Halted, a.id)
		default:
			report.Failed[a.id] = a.err
			if errors.Is(a.err, core.ErrEnvironmentUnavailable) {
				report.Degraded = true
			}
		}
	}

	if w.env.Failure() != nil {
		report.Degraded = true
	}

	if sl, ok := w.logger.(*logging.SimLogger); ok {
		sl.LogRun(w.id, len(agents), report.Duration, report.Degraded)
	} else {
		w.logger.Info("world run completed world_id=%s run_id=%s halted=%d failed=%d degraded=%t", w.id, runID, len(report.Halted), len(report.Failed), report.Degraded)
	}

	return report, nil
}
