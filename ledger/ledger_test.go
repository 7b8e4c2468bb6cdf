package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentsim/core"
)

// The environment depends on the ledger never returning a non-nil error for
// domain violations; these tests pin that contract alongside the arithmetic.

func execute(t *testing.T, l *TokenLedger, payload any) core.ExecutionResult {
	t.Helper()

	res, err := l.Execute(core.NewOperation("test", payload))
	require.NoError(t, err)
	return res
}

func TestTokenLedger_Mint(t *testing.T) {
	l := NewTokenLedger("ArbiterToken", "ARBT")

	res := execute(t, l, MintOp{To: "alice", Amount: 1000})

	assert.False(t, res.Failed())
	assert.Equal(t, uint64(1000), res.Output)
	assert.Equal(t, uint64(1000), l.Balance("alice"))
	assert.Equal(t, uint64(1000), l.Supply())

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, "ARBT", ev.Emitter)
	assert.True(t, ev.HasTag(TagMint))
	assert.True(t, ev.HasTag("alice"))

	var rec TransferRecord
	require.NoError(t, json.Unmarshal(ev.Payload, &rec))
	assert.Equal(t, TransferRecord{To: "alice", Amount: 1000, Supply: 1000}, rec)
}

func TestTokenLedger_MintValidation(t *testing.T) {
	l := NewTokenLedger("ArbiterToken", "ARBT")

	for _, op := range []MintOp{
		{To: "", Amount: 10},
		{To: "alice", Amount: 0},
	} {
		res := execute(t, l, op)
		assert.True(t, res.Failed())
		assert.Empty(t, res.Events, "failed operations emit nothing")
	}

	assert.Equal(t, uint64(0), l.Supply())
}

func TestTokenLedger_Transfer(t *testing.T) {
	l := NewTokenLedger("ArbiterToken", "ARBT")
	execute(t, l, MintOp{To: "alice", Amount: 100})

	res := execute(t, l, TransferOp{From: "alice", To: "bob", Amount: 40})

	assert.False(t, res.Failed())
	assert.Equal(t, uint64(40), res.Output)
	assert.Equal(t, uint64(60), l.Balance("alice"))
	assert.Equal(t, uint64(40), l.Balance("bob"))
	assert.Equal(t, uint64(100), l.Supply(), "transfers do not change supply")

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.True(t, ev.HasTag(TagTransfer))
	assert.True(t, ev.HasTag("alice"))
	assert.True(t, ev.HasTag("bob"))
}

func TestTokenLedger_TransferInsufficientFunds(t *testing.T) {
	l := NewTokenLedger("ArbiterToken", "ARBT")
	execute(t, l, MintOp{To: "alice", Amount: 10})

	res := execute(t, l, TransferOp{From: "alice", To: "bob", Amount: 11})

	assert.True(t, res.Failed())
	assert.Contains(t, res.Failure, "insufficient funds")
	assert.Equal(t, uint64(10), l.Balance("alice"), "failed transfers change nothing")
	assert.Equal(t, uint64(0), l.Balance("bob"))
}

func TestTokenLedger_BalanceOf(t *testing.T) {
	l := NewTokenLedger("ArbiterToken", "ARBT")
	execute(t, l, MintOp{To: "alice", Amount: 7})

	res := execute(t, l, BalanceOfOp{Account: "alice"})
	assert.Equal(t, uint64(7), res.Output)
	assert.Empty(t, res.Events)

	res = execute(t, l, BalanceOfOp{Account: "nobody"})
	assert.Equal(t, uint64(0), res.Output)
}

func TestTokenLedger_UnsupportedPayload(t *testing.T) {
	l := NewTokenLedger("ArbiterToken", "ARBT")

	res := execute(t, l, "selfdestruct")

	assert.True(t, res.Failed())
	assert.Contains(t, res.Failure, "unsupported payload type")
}

func TestTokenLedger_Deterministic(t *testing.T) {
	run := func() (*TokenLedger, []core.Event) {
		l := NewTokenLedger("ArbiterToken", "ARBT")
		var events []core.Event
		for _, payload := range []any{
			MintOp{To: "alice", Amount: 100},
			MintOp{To: "bob", Amount: 50},
			TransferOp{From: "alice", To: "bob", Amount: 30},
			TransferOp{From: "bob", To: "carol", Amount: 80},
		} {
			events = append(events, execute(t, l, payload).Events...)
		}
		return l, events
	}

	l1, ev1 := run()
	l2, ev2 := run()

	assert.Equal(t, ev1, ev2)
	for _, account := range []string{"alice", "bob", "carol"} {
		assert.Equal(t, l1.Balance(account), l2.Balance(account))
	}
	assert.Equal(t, uint64(150), l1.Supply())
}
