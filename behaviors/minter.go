package behaviors

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentsim/core"
	"github.com/hupe1980/agentsim/ledger"
)

// closedStream returns an already-exhausted inbound sequence, halting the
// agent as soon as its startup work is done.
func closedStream() <-chan core.InboundItem {
	ch := make(chan core.InboundItem)
	close(ch)
	return ch
}

// Minter submits a single mint operation on startup and halts. It never
// listens for anything.
type Minter struct {
	Account string `toml:"account"`
	Amount  uint64 `toml:"amount"`
}

// Startup submits the mint and returns a closed stream.
func (m *Minter) Startup(ctx context.Context, env core.EnvironmentHandle, msgr core.MessagerHandle) (<-chan core.InboundItem, error) {
	res, err := env.Submit(ctx, core.NewOperation(msgr.ID(), ledger.MintOp{To: m.Account, Amount: m.Amount}))
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, fmt.Errorf("mint rejected: %s", res.Failure)
	}

	return closedStream(), nil
}

// Process is never reached; the inbound sequence is already closed.
func (m *Minter) Process(context.Context, core.InboundItem) (core.Signal, error) {
	return core.Halt, nil
}

// Watcher only listens: it collects ledger events matching its tags and
// halts once Limit of them arrived. Peer messages are ignored.
type Watcher struct {
	Tags  []string `toml:"tags"`
	Limit int      `toml:"limit"`

	mu   sync.Mutex
	seen []core.Event
}

// Startup returns the merged inbound stream.
func (w *Watcher) Startup(_ context.Context, _ core.EnvironmentHandle, msgr core.MessagerHandle) (<-chan core.InboundItem, error) {
	if w.Limit <= 0 {
		return nil, fmt.Errorf("watcher requires a positive limit, got %d", w.Limit)
	}

	return msgr.Stream(), nil
}

// Process records matching events and halts at the limit.
func (w *Watcher) Process(_ context.Context, item core.InboundItem) (core.Signal, error) {
	ev, ok := item.(core.Event)
	if !ok {
		return core.Continue, nil
	}

	if len(w.Tags) > 0 && len(core.FilterEvents([]core.Event{ev}, w.Tags...)) == 0 {
		return core.Continue, nil
	}

	w.mu.Lock()
	w.seen = append(w.seen, ev)
	n := len(w.seen)
	w.mu.Unlock()

	if n >= w.Limit {
		return core.Halt, nil
	}

	return core.Continue, nil
}

// Seen returns the matching events observed so far, in delivery order.
func (w *Watcher) Seen() []core.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.Event, len(w.seen))
	copy(out, w.seen)
	return out
}
