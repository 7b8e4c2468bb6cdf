// Package ledger provides a reference deterministic execution engine: an
// in-memory token ledger with mint, transfer and balance operations. The
// kernel treats the engine as opaque; this package exists so the repo, its
// tests, the CLI and the examples have a concrete Ledger to run against.
package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentsim/core"
)

// Event tags emitted by the token ledger.
const (
	TagMint     = "mint"
	TagTransfer = "transfer"
)

// MintOp creates Amount new tokens in To's balance.
type MintOp struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// TransferOp moves Amount tokens from From to To.
type TransferOp struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// BalanceOfOp reads Account's balance. It emits no events.
type BalanceOfOp struct {
	Account string `json:"account"`
}

// TransferRecord is the JSON payload of mint and transfer events. Mints
// have an empty From.
type TransferRecord struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Supply uint64 `json:"supply"`
}

// TokenLedger is a single-token balance ledger. It carries no internal
// locking: the environment worker is its sole caller.
type TokenLedger struct {
	name     string
	symbol   string
	balances map[string]uint64
	supply   uint64
}

// NewTokenLedger constructs an empty ledger for the named token.
func NewTokenLedger(name, symbol string) *TokenLedger {
	return &TokenLedger{
		name:     name,
		symbol:   symbol,
		balances: make(map[string]uint64),
	}
}

// Symbol returns the token symbol used as event emitter.
func (l *TokenLedger) Symbol() string { return l.symbol }

// Balance returns the current balance of an account. Intended for
// inspection after a run; during a run, submit a BalanceOfOp instead.
func (l *TokenLedger) Balance(account string) uint64 { return l.balances[account] }

// Supply returns the total minted supply.
func (l *TokenLedger) Supply() uint64 { return l.supply }

// Execute applies one operation. Domain violations (unknown payload shape,
// insufficient funds, zero-value mutations) are logical failures; the
// ledger itself never fails unrecoverably.
func (l *TokenLedger) Execute(op core.Operation) (core.ExecutionResult, error) {
	switch p := op.Payload.(type) {
	case MintOp:
		return l.mint(p), nil
	case TransferOp:
		return l.transfer(p), nil
	case BalanceOfOp:
		return core.ExecutionResult{Output: l.balances[p.Account]}, nil
	default:
		return core.ExecutionResult{Failure: fmt.Sprintf("unsupported payload type %T", op.Payload)}, nil
	}
}

func (l *TokenLedger) mint(p MintOp) core.ExecutionResult {
	if p.To == "" || p.Amount == 0 {
		return core.ExecutionResult{Failure: "mint requires a recipient and a non-zero amount"}
	}

	l.balances[p.To] += p.Amount
	l.supply += p.Amount

	ev := l.record(TagMint, TransferRecord{To: p.To, Amount: p.Amount, Supply: l.supply}, p.To)

	return core.ExecutionResult{Output: l.balances[p.To], Events: []core.Event{ev}}
}

func (l *TokenLedger) transfer(p TransferOp) core.ExecutionResult {
	if p.From == "" || p.To == "" || p.Amount == 0 {
		return core.ExecutionResult{Failure: "transfer requires two accounts and a non-zero amount"}
	}
	if l.balances[p.From] < p.Amount {
		return core.ExecutionResult{Failure: fmt.Sprintf("insufficient funds: %s has %d, needs %d", p.From, l.balances[p.From], p.Amount)}
	}

	l.balances[p.From] -= p.Amount
	l.balances[p.To] += p.Amount

	ev := l.record(TagTransfer, TransferRecord{From: p.From, To: p.To, Amount: p.Amount, Supply: l.supply}, p.From, p.To)

	return core.ExecutionResult{Output: l.balances[p.To], Events: []core.Event{ev}}
}

func (l *TokenLedger) record(kind string, rec TransferRecord, accounts ...string) core.Event {
	payload, _ := json.Marshal(rec)
	return core.Event{
		Emitter: l.symbol,
		Tags:    append([]string{kind}, accounts...),
		Payload: payload,
	}
}
