package environment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentsim/core"
	"github.com/hupe1980/agentsim/logging"
)

// Subscriber consumes the event broadcast. Notify must not block; the
// messager handle satisfies this by pushing into an unbounded inbox.
type Subscriber interface {
	Notify(ev core.Event)
}

// submission pairs an operation with the channel its result is replied on.
type submission struct {
	op    core.Operation
	reply chan core.ExecutionResult
}

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger provides structured logging. Defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Environment serializes all ledger mutations through one worker goroutine
// and fans resulting events out to subscribers. Public methods are safe for
// concurrent use.
type Environment struct {
	ledger core.Ledger
	queue  *core.Mailbox[submission]
	logger logging.Logger
	sim    *logging.SimLogger // non-nil when logger supports the domain helpers

	subsMu  sync.RWMutex
	subs    map[int]Subscriber
	nextSub int

	startOnce sync.Once
	done      chan struct{} // closed when the worker exits

	failMu  sync.Mutex
	failure error // set before done is closed on unrecoverable failure
}

// New constructs an Environment around the given ledger. The worker is not
// started until Start is called; operations submitted earlier are queued.
func New(ledger core.Ledger, optFns ...func(o *Options)) *Environment {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	sim, _ := opts.Logger.(*logging.SimLogger)

	return &Environment{
		ledger: ledger,
		queue:  core.NewMailbox[submission](),
		logger: opts.Logger,
		sim:    sim,
		subs:   make(map[int]Subscriber),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. Subsequent calls are no-ops. The
// worker quiesces when ctx is cancelled, finishing the operation in flight
// and failing the remaining queued submissions rather than stranding their
// callers.
func (e *Environment) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		go e.worker(ctx)
	})
}

// Done returns a channel closed once the worker has exited.
func (e *Environment) Done() <-chan struct{} { return e.done }

// Failure returns the unrecoverable engine error that terminated the
// worker, or nil after a clean shutdown. Only meaningful once Done is
// closed.
func (e *Environment) Failure() error {
	e.failMu.Lock()
	defer e.failMu.Unlock()
	return e.failure
}

// Subscribe registers a sink for the event broadcast and returns a cancel
// function removing it. Events of operations executed while subscribed are
// delivered in execution order.
func (e *Environment) Subscribe(s Subscriber) (cancel func()) {
	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = s
	e.subsMu.Unlock()

	return func() {
		e.subsMu.Lock()
		delete(e.subs, id)
		e.subsMu.Unlock()
	}
}

// Submit enqueues an operation and blocks until its ExecutionResult
// arrives, the caller's context is cancelled, or the environment becomes
// unavailable. Every accepted operation yields exactly one result,
// delivered only to its submitter.
func (e *Environment) Submit(ctx context.Context, op core.Operation) (core.ExecutionResult, error) {
	reply := make(chan core.ExecutionResult, 1)

	if !e.queue.Push(submission{op: op, reply: reply}) {
		return core.ExecutionResult{}, fmt.Errorf("submit %s: %w", op.ID, core.ErrEnvironmentUnavailable)
	}

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return core.ExecutionResult{}, ctx.Err()
	case <-e.done:
		// The worker may have replied in the same instant it exited.
		select {
		case res := <-reply:
			return res, nil
		default:
		}
		return core.ExecutionResult{}, fmt.Errorf("submit %s: %w", op.ID, core.ErrEnvironmentUnavailable)
	}
}

func (e *Environment) worker(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.queue.Close()
			e.logger.Debug("environment worker quiesced")
			return

		case sub, ok := <-e.queue.Out():
			if !ok {
				return
			}

			start := time.Now()
			res, err := e.execute(sub.op)
			if e.sim != nil {
				e.sim.LogSubmission(sub.op.ID, time.Since(start), err == nil && !res.Failed(), err)
			}
			if err != nil {
				e.failMu.Lock()
				e.failure = err
				e.failMu.Unlock()
				e.queue.Close()
				e.logger.Error("environment worker terminated: %v", err)
				return
			}

			if !res.Failed() {
				e.broadcast(sub.op.ID, res.Events)
			}

			// Buffered reply channel; never blocks the worker.
			sub.reply <- res
		}
	}
}

// execute runs one operation against the ledger, converting a ledger panic
// into an unrecoverable engine error.
func (e *Environment) execute(op core.Operation) (res core.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ledger panic executing %s: %v", op.ID, r)
		}
	}()

	res, err = e.ledger.Execute(op)
	if err != nil {
		return core.ExecutionResult{}, fmt.Errorf("execute %s: %w", op.ID, err)
	}

	res.OperationID = op.ID

	return res, nil
}

// broadcast enqueues the events of one executed operation at every current
// subscriber. Delivery is enqueue-only, so a slow agent never stalls the
// worker or other recipients.
func (e *Environment) broadcast(operationID string, events []core.Event) {
	if len(events) == 0 {
		return
	}

	e.subsMu.RLock()
	defer e.subsMu.RUnlock()

	for _, s := range e.subs {
		for _, ev := range events {
			s.Notify(ev)
		}
	}

	if e.sim != nil {
		e.sim.LogBroadcast(operationID, len(events), len(e.subs))
		return
	}
	e.logger.Debug("environment broadcast operation_id=%s events=%d subscribers=%d", operationID, len(events), len(e.subs))
}
