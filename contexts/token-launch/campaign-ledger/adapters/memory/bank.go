package memory

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

var (
	errInsufficientBalance = errors.New("insufficient balance")
	errTransferRejected    = errors.New("transfer rejected by recipient")
	errBalanceOverflow     = errors.New("balance overflow")
)

// Bank is an in-memory fungible-asset bank standing in for the external
// transfer primitive. Batches apply all-or-nothing under the lock.
// RejectInbound simulates an account that refuses incoming transfers, the
// failure mode that can block a bulk rescue.
type Bank struct {
	mu       sync.Mutex
	balances map[string]map[string]uint64
	rejected map[string]bool
}

func NewBank() *Bank {
	return &Bank{
		balances: make(map[string]map[string]uint64),
		rejected: make(map[string]bool),
	}
}

// Mint credits an account out of thin air; test and local-mode seeding.
func (b *Bank) Mint(asset string, account string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(asset, strings.TrimSpace(account), amount)
}

// RejectInbound toggles whether transfers to account fail.
func (b *Bank) RejectInbound(account string, reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejected[strings.TrimSpace(account)] = reject
}

func (b *Bank) Transfer(_ context.Context, asset string, from string, to string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transfer(asset, strings.TrimSpace(from), strings.TrimSpace(to), amount)
}

func (b *Bank) TransferBatch(_ context.Context, asset string, from string, transfers []ports.AssetTransfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	from = strings.TrimSpace(from)
	var total uint64
	// Incoming amounts accumulate per recipient so a batch with repeated
	// recipients is overflow-checked against the sum, not each item alone.
	incoming := make(map[string]uint64, len(transfers))
	for _, item := range transfers {
		to := strings.TrimSpace(item.To)
		if b.rejected[to] {
			return errTransferRejected
		}
		if item.Amount > math.MaxUint64-total {
			return errBalanceOverflow
		}
		if item.Amount > math.MaxUint64-incoming[to] {
			return errBalanceOverflow
		}
		incoming[to] += item.Amount
		if incoming[to] > math.MaxUint64-b.balance(asset, to) {
			return errBalanceOverflow
		}
		total += item.Amount
	}
	if b.balance(asset, from) < total {
		return errInsufficientBalance
	}

	for _, item := range transfers {
		if item.Amount == 0 {
			continue
		}
		b.balances[asset][from] -= item.Amount
		b.credit(asset, strings.TrimSpace(item.To), item.Amount)
	}
	return nil
}

func (b *Bank) Balance(_ context.Context, asset string, account string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(asset, strings.TrimSpace(account)), nil
}

func (b *Bank) transfer(asset string, from string, to string, amount uint64) error {
	if b.rejected[to] {
		return errTransferRejected
	}
	if amount == 0 {
		return nil
	}
	if b.balance(asset, from) < amount {
		return errInsufficientBalance
	}
	current := b.balance(asset, to)
	if amount > math.MaxUint64-current {
		return errBalanceOverflow
	}
	b.balances[asset][from] -= amount
	b.credit(asset, to, amount)
	return nil
}

func (b *Bank) balance(asset string, account string) uint64 {
	holders, ok := b.balances[asset]
	if !ok {
		return 0
	}
	return holders[account]
}

func (b *Bank) credit(asset string, account string, amount uint64) {
	holders, ok := b.balances[asset]
	if !ok {
		holders = make(map[string]uint64)
		b.balances[asset] = holders
	}
	holders[account] += amount
}
