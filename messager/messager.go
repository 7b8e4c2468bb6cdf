// Package messager implements the addressable publish/subscribe bus. Each
// agent registers an identity and receives a Handle: its sending endpoint
// and its single merged inbound sequence. Peer messages and engine events
// land in the same per-identity inbox, preserving each source's own order;
// no total order exists between independent sources.
package messager

import (
	"fmt"
	"sync"

	"github.com/hupe1980/agentsim/core"
	"github.com/hupe1980/agentsim/logging"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger provides structured logging. Defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Messager routes messages between registered identities. Public methods
// are safe for concurrent use.
type Messager struct {
	mu      sync.Mutex
	inboxes map[string]*core.Mailbox[core.InboundItem]
	taken   map[string]struct{} // every id ever registered; never reused within a run
	logger  logging.Logger
}

// New constructs an empty Messager.
func New(optFns ...func(o *Options)) *Messager {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Messager{
		inboxes: make(map[string]*core.Mailbox[core.InboundItem]),
		taken:   make(map[string]struct{}),
		logger:  opts.Logger,
	}
}

// Register allocates the identity and its inbox, returning the agent's
// Handle. Identities are stable for the agent's lifetime and never reused
// within a run, so re-registering a closed identity also fails with
// core.ErrDuplicateID.
func (m *Messager) Register(id string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.taken[id]; exists {
		return nil, fmt.Errorf("register %q: %w", id, core.ErrDuplicateID)
	}

	inbox := core.NewMailbox[core.InboundItem]()
	m.taken[id] = struct{}{}
	m.inboxes[id] = inbox

	m.logger.Debug("messager registered id=%s", id)

	return &Handle{id: id, messager: m, inbox: inbox}, nil
}

// send routes one message under the bus lock, so one sender's successive
// sends arrive at each recipient in send order.
func (m *Messager) send(msg core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.To.IsAll() {
		for _, inbox := range m.inboxes {
			inbox.Push(msg)
		}
		return nil
	}

	inbox, ok := m.inboxes[msg.To.AgentID()]
	if !ok {
		return fmt.Errorf("send from %q to %q: %w", msg.From, msg.To.AgentID(), core.ErrNoSuchRecipient)
	}

	inbox.Push(msg)

	return nil
}

// deregister removes the identity's inbox. The id stays taken.
func (m *Messager) deregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inboxes, id)
}

// Handle is one agent's endpoint on the bus: its identity, its sending
// side, and its merged inbound sequence. It also satisfies
// environment.Subscriber so engine events are merged into the same inbox.
type Handle struct {
	id       string
	messager *Messager
	inbox    *core.Mailbox[core.InboundItem]
}

// ID returns the handle's identity.
func (h *Handle) ID() string { return h.id }

// Send delivers a message to the named recipient's inbound sequence, or to
// every registered agent when addressed to core.All. An unknown recipient
// yields core.ErrNoSuchRecipient; the sender's own state is unaffected.
func (h *Handle) Send(msg core.Message) error {
	if err := h.messager.send(msg); err != nil {
		h.messager.logger.Warn("messager dropped message from=%s: %v", h.id, err)
		return err
	}
	return nil
}

// Stream returns the merged inbound sequence. It suspends when empty and
// terminates only when the handle is closed.
func (h *Handle) Stream() <-chan core.InboundItem { return h.inbox.Out() }

// Notify implements the environment's Subscriber: engine events are pushed
// into the same inbox as peer messages.
func (h *Handle) Notify(ev core.Event) { h.inbox.Push(ev) }

// Close detaches the identity from the bus and ends the inbound sequence.
// The id remains taken for the rest of the run; subsequent sends to it
// fail with core.ErrNoSuchRecipient.
func (h *Handle) Close() {
	h.messager.deregister(h.id)
	h.inbox.Close()
}
