package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_PreservesPushOrder(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	for i := 0; i < 100; i++ {
		require.True(t, m.Push(i))
	}

	for i := 0; i < 100; i++ {
		select {
		case v := <-m.Out():
			assert.Equal(t, i, v)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for item %d", i)
		}
	}
}

func TestMailbox_ProducerNeverBlocks(t *testing.T) {
	m := NewMailbox[int]()
	defer m.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody is receiving yet; every push must still return.
		for i := 0; i < 10000; i++ {
			m.Push(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("push blocked on a slow consumer")
	}
}

func TestMailbox_CloseEndsOut(t *testing.T) {
	m := NewMailbox[string]()
	m.Push("pending")
	m.Close()

	// Buffered items may or may not be delivered once Close raced the
	// pump; the out channel must terminate either way.
	deadline := time.After(time.Second)
	for open := true; open; {
		select {
		case _, open = <-m.Out():
		case <-deadline:
			t.Fatal("out channel never closed")
		}
	}

	assert.False(t, m.Push("late"), "push after close should report false")

	// Idempotent.
	m.Close()
}
