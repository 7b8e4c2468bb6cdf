package behaviors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentsim/core"
	"github.com/hupe1980/agentsim/ledger"
)

// AdminQuery is the wire format peers use to talk to a TokenAdmin.
type AdminQuery struct {
	Kind    string `json:"kind"` // "mint" or "balance_of"
	To      string `json:"to,omitempty"`
	Amount  uint64 `json:"amount,omitempty"`
	Account string `json:"account,omitempty"`
}

// BalanceReply answers a balance_of query.
type BalanceReply struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// TokenAdmin owns the mint capability: peers request mints and balance
// reads by message, the admin submits the corresponding operations. After
// MaxMints served mints the admin halts; zero means unbounded.
type TokenAdmin struct {
	MaxMints int `toml:"max_mints"`

	count int
	env   core.EnvironmentHandle
	msgr  core.MessagerHandle
}

// Startup keeps the handles and returns the merged inbound stream.
func (a *TokenAdmin) Startup(_ context.Context, env core.EnvironmentHandle, msgr core.MessagerHandle) (<-chan core.InboundItem, error) {
	a.env = env
	a.msgr = msgr
	return msgr.Stream(), nil
}

// Process serves one peer query. Undecodable payloads surface as
// core.ErrMessageDecode, contained at the state machine boundary.
func (a *TokenAdmin) Process(ctx context.Context, item core.InboundItem) (core.Signal, error) {
	msg, ok := item.(core.Message)
	if !ok {
		return core.Continue, nil
	}

	var query AdminQuery
	if err := json.Unmarshal(msg.Data, &query); err != nil {
		return core.Continue, fmt.Errorf("%w: query from %q: %v", core.ErrMessageDecode, msg.From, err)
	}

	switch query.Kind {
	case "mint":
		return a.mint(ctx, query)
	case "balance_of":
		return core.Continue, a.balanceOf(ctx, msg.From, query)
	default:
		return core.Continue, fmt.Errorf("%w: unknown query kind %q from %q", core.ErrMessageDecode, query.Kind, msg.From)
	}
}

func (a *TokenAdmin) mint(ctx context.Context, query AdminQuery) (core.Signal, error) {
	res, err := a.env.Submit(ctx, core.NewOperation(a.msgr.ID(), ledger.MintOp{To: query.To, Amount: query.Amount}))
	if err != nil {
		return core.Continue, err
	}
	if res.Failed() {
		return core.Continue, fmt.Errorf("mint for %q rejected: %s", query.To, res.Failure)
	}

	a.count++
	if a.MaxMints > 0 && a.count >= a.MaxMints {
		return core.Halt, nil
	}

	return core.Continue, nil
}

func (a *TokenAdmin) balanceOf(ctx context.Context, from string, query AdminQuery) error {
	res, err := a.env.Submit(ctx, core.NewOperation(a.msgr.ID(), ledger.BalanceOfOp{Account: query.Account}))
	if err != nil {
		return err
	}

	balance, ok := res.Output.(uint64)
	if !ok {
		return fmt.Errorf("%w: balance_of output %T, want uint64", core.ErrMessageDecode, res.Output)
	}

	data, err := json.Marshal(BalanceReply{Account: query.Account, Balance: balance})
	if err != nil {
		return err
	}

	return a.msgr.Send(core.NewMessage(a.msgr.ID(), from, data))
}

// TokenRequester asks a TokenAdmin for mints until its account accumulated
// Target tokens, observing progress through the mint events broadcast by
// the ledger, then halts.
type TokenRequester struct {
	Admin   string `toml:"admin"`
	Account string `toml:"account"`
	Amount  uint64 `toml:"amount"` // per-request mint amount
	Target  uint64 `toml:"target"`

	received uint64
	msgr     core.MessagerHandle
}

// Startup sends the first mint request and returns the merged inbound
// stream.
func (r *TokenRequester) Startup(_ context.Context, _ core.EnvironmentHandle, msgr core.MessagerHandle) (<-chan core.InboundItem, error) {
	if r.Amount == 0 || r.Target == 0 {
		return nil, fmt.Errorf("token requester requires non-zero amount and target")
	}

	r.msgr = msgr

	if err := r.request(); err != nil {
		return nil, err
	}

	return msgr.Stream(), nil
}

// Process watches for mint events crediting the account and requests again
// until the target is reached.
func (r *TokenRequester) Process(_ context.Context, item core.InboundItem) (core.Signal, error) {
	ev, ok := item.(core.Event)
	if !ok || !ev.HasTag(ledger.TagMint) || !ev.HasTag(r.Account) {
		return core.Continue, nil
	}

	var rec ledger.TransferRecord
	if err := json.Unmarshal(ev.Payload, &rec); err != nil {
		return core.Continue, fmt.Errorf("%w: mint event: %v", core.ErrMessageDecode, err)
	}

	r.received += rec.Amount
	if r.received >= r.Target {
		return core.Halt, nil
	}

	return core.Continue, r.request()
}

// Received returns the amount credited so far.
func (r *TokenRequester) Received() uint64 { return r.received }

func (r *TokenRequester) request() error {
	data, err := json.Marshal(AdminQuery{Kind: "mint", To: r.Account, Amount: r.Amount})
	if err != nil {
		return err
	}
	return r.msgr.Send(core.NewMessage(r.msgr.ID(), r.Admin, data))
}
