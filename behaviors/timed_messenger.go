package behaviors

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentsim/core"
)

// TimedMessenger plays message ping-pong: it sends an opening message on
// startup, then answers every inbound peer message with the same payload
// until Max exchanges happened, and halts. Ledger events are ignored.
//
// Two timed messengers addressed at each other form the classic smoke test
// for the bus: the exchange count bounds the run.
type TimedMessenger struct {
	To   string `toml:"to"` // peer identity; empty broadcasts to everyone
	Data string `toml:"data"`
	Max  int    `toml:"max"`

	count int
	msgr  core.MessagerHandle
}

// Startup sends the opening message and returns the merged inbound stream.
func (t *TimedMessenger) Startup(_ context.Context, _ core.EnvironmentHandle, msgr core.MessagerHandle) (<-chan core.InboundItem, error) {
	if t.Max <= 0 {
		return nil, fmt.Errorf("timed messenger requires a positive max, got %d", t.Max)
	}

	t.msgr = msgr

	if err := t.send(); err != nil {
		return nil, err
	}

	return msgr.Stream(), nil
}

// Process answers peer messages until the exchange budget is spent.
func (t *TimedMessenger) Process(_ context.Context, item core.InboundItem) (core.Signal, error) {
	if _, ok := item.(core.Message); !ok {
		return core.Continue, nil
	}

	t.count++
	if t.count >= t.Max {
		return core.Halt, nil
	}

	if err := t.send(); err != nil {
		return core.Continue, err
	}

	return core.Continue, nil
}

func (t *TimedMessenger) send() error {
	msg := core.NewBroadcast(t.msgr.ID(), []byte(t.Data))
	if t.To != "" {
		msg = core.NewMessage(t.msgr.ID(), t.To, []byte(t.Data))
	}
	return t.msgr.Send(msg)
}
