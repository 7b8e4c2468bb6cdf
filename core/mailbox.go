package core

import "sync"

// Mailbox is an unbounded FIFO queue with a channel receive side. It backs
// the environment's submission queue and every agent inbox: producers never
// block on a slow consumer, and a single producer's items are received in
// push order.
//
// Closing a mailbox drops any still-buffered items and closes the out
// channel; items pushed concurrently with Close may be silently dropped.
// Callers that must not lose items (e.g. pending submissions awaiting a
// reply) are expected to observe termination through a separate signal.
type Mailbox[T any] struct {
	in     chan T
	out    chan T
	closed chan struct{}
	once   sync.Once
}

// NewMailbox constructs a Mailbox and starts its pump goroutine. The
// goroutine exits when Close is called.
func NewMailbox[T any]() *Mailbox[T] {
	m := &Mailbox[T]{
		in:     make(chan T),
		out:    make(chan T),
		closed: make(chan struct{}),
	}
	go m.pump()
	return m
}

// Push appends an item. It reports false once the mailbox is closed.
func (m *Mailbox[T]) Push(v T) bool {
	select {
	case m.in <- v:
		return true
	case <-m.closed:
		return false
	}
}

// Out returns the receive side. It is closed, after dropping any buffered
// items, when the mailbox is closed.
func (m *Mailbox[T]) Out() <-chan T { return m.out }

// Close terminates the mailbox. Idempotent and safe for concurrent use.
func (m *Mailbox[T]) Close() {
	m.once.Do(func() { close(m.closed) })
}

func (m *Mailbox[T]) pump() {
	var buf []T
	for {
		var out chan T
		var next T
		if len(buf) > 0 {
			out = m.out
			next = buf[0]
		}
		select {
		case v := <-m.in:
			buf = append(buf, v)
		case out <- next:
			buf = buf[1:]
		case <-m.closed:
			close(m.out)
			return
		}
	}
}
