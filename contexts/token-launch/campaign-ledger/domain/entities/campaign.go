package entities

import (
	"math"
	"strings"
	"time"
)

// Campaign is the singleton configuration and running totals of one
// deployed ledger instance. Title, asset and owner are fixed at creation;
// FeeRecipient is owner-mutable.
type Campaign struct {
	CampaignID     string
	Title          string
	AssetAddress   string
	Owner          string
	FeeRecipient   string
	CustodyAccount string
	DepositFee     uint64
	Phase          Phase
	TotalDeposits  uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DepositorRecord tracks one depositor's cumulative live balance.
// Position preserves first-deposit order; records are never removed, a
// rescue only zeroes Amount.
type DepositorRecord struct {
	Address  string
	Amount   uint64
	Position int
}

type AllocationRecord struct {
	Address string
	Amount  uint64
}

type ClaimRecord struct {
	Address   string
	ClaimedAt time.Time
}

// ValidateBasics checks the creation-time configuration.
func (c Campaign) ValidateBasics() bool {
	return strings.TrimSpace(c.Title) != "" &&
		ValidIdentity(c.AssetAddress) &&
		ValidIdentity(c.Owner) &&
		ValidIdentity(c.FeeRecipient)
}

// IsOwner reports whether caller is the campaign owner.
func (c Campaign) IsOwner(caller string) bool {
	return ValidIdentity(caller) && c.Owner == strings.TrimSpace(caller)
}

// ValidIdentity reports whether value is a usable account identity.
// The zero identity is empty or whitespace after trimming.
func ValidIdentity(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Ledger is the full mutable state of one campaign: configuration plus the
// deposit, allocation and claim books. Use cases load it, mutate a copy and
// save it back in a single repository commit, so every operation is
// all-or-nothing.
type Ledger struct {
	Campaign    Campaign
	Depositors  []DepositorRecord
	Allocations []AllocationRecord
	Claims      []ClaimRecord
}

// RecordDeposit applies a deposit to the books: appends the depositor on
// first deposit, then raises the balance and the running total. Returns
// false on amount overflow; the ledger is unchanged in that case.
func (l *Ledger) RecordDeposit(depositor string, amount uint64) bool {
	depositor = strings.TrimSpace(depositor)
	if amount == 0 || amount > math.MaxUint64-l.Campaign.TotalDeposits {
		return false
	}

	idx := l.depositorIndex(depositor)
	if idx < 0 {
		l.Depositors = append(l.Depositors, DepositorRecord{
			Address:  depositor,
			Position: len(l.Depositors),
		})
		idx = len(l.Depositors) - 1
	}
	if amount > math.MaxUint64-l.Depositors[idx].Amount {
		return false
	}

	l.Depositors[idx].Amount += amount
	l.Campaign.TotalDeposits += amount
	return true
}

// DepositOf returns the live deposit balance for address.
func (l *Ledger) DepositOf(address string) uint64 {
	if idx := l.depositorIndex(strings.TrimSpace(address)); idx >= 0 {
		return l.Depositors[idx].Amount
	}
	return 0
}

// ApplyAllocations overwrites the allocation book with the given pairs.
// Repeated addresses within one call take the last value. Returns the new
// total allocated and false when that total would exceed TotalDeposits, in
// which case the book is unchanged.
func (l *Ledger) ApplyAllocations(pairs []AllocationRecord) (uint64, bool) {
	next := make([]AllocationRecord, len(l.Allocations))
	copy(next, l.Allocations)

	for _, pair := range pairs {
		address := strings.TrimSpace(pair.Address)
		found := false
		for i := range next {
			if next[i].Address == address {
				next[i].Amount = pair.Amount
				found = true
				break
			}
		}
		if !found {
			next = append(next, AllocationRecord{Address: address, Amount: pair.Amount})
		}
	}

	var total uint64
	for _, record := range next {
		if record.Amount > math.MaxUint64-total {
			return 0, false
		}
		total += record.Amount
	}
	if total > l.Campaign.TotalDeposits {
		return total, false
	}

	l.Allocations = next
	return total, true
}

// AllocationOf returns the allocation for address, zero when unlisted.
func (l *Ledger) AllocationOf(address string) uint64 {
	address = strings.TrimSpace(address)
	for _, record := range l.Allocations {
		if record.Address == address {
			return record.Amount
		}
	}
	return 0
}

// TotalAllocated sums the allocation book.
func (l *Ledger) TotalAllocated() uint64 {
	var total uint64
	for _, record := range l.Allocations {
		total += record.Amount
	}
	return total
}

// HasClaimed reports whether address already claimed its allocation.
func (l *Ledger) HasClaimed(address string) bool {
	address = strings.TrimSpace(address)
	for _, record := range l.Claims {
		if record.Address == address {
			return true
		}
	}
	return false
}

// MarkClaimed sets the one-shot claim flag for address.
func (l *Ledger) MarkClaimed(address string, at time.Time) {
	if l.HasClaimed(address) {
		return
	}
	l.Claims = append(l.Claims, ClaimRecord{
		Address:   strings.TrimSpace(address),
		ClaimedAt: at.UTC(),
	})
}

// UnmarkClaimed rolls a claim flag back after a failed asset push.
func (l *Ledger) UnmarkClaimed(address string) {
	address = strings.TrimSpace(address)
	for i, record := range l.Claims {
		if record.Address == address {
			l.Claims = append(l.Claims[:i], l.Claims[i+1:]...)
			return
		}
	}
}

// OutstandingRefunds lists every nonzero depositor balance in list order.
func (l *Ledger) OutstandingRefunds() []DepositorRecord {
	refunds := make([]DepositorRecord, 0, len(l.Depositors))
	for _, record := range l.Depositors {
		if record.Amount > 0 {
			refunds = append(refunds, record)
		}
	}
	return refunds
}

// ZeroDeposits clears every depositor balance and the running total. The
// depositor list itself is kept; entries are append-only.
func (l *Ledger) ZeroDeposits() {
	for i := range l.Depositors {
		l.Depositors[i].Amount = 0
	}
	l.Campaign.TotalDeposits = 0
}

func (l *Ledger) depositorIndex(address string) int {
	for i, record := range l.Depositors {
		if record.Address == address {
			return i
		}
	}
	return -1
}

// Clone deep-copies the ledger so use cases can mutate scratch state.
func (l Ledger) Clone() Ledger {
	clone := l
	clone.Depositors = append([]DepositorRecord(nil), l.Depositors...)
	clone.Allocations = append([]AllocationRecord(nil), l.Allocations...)
	clone.Claims = append([]ClaimRecord(nil), l.Claims...)
	return clone
}
