package queries

import (
	"context"
	"log/slog"
	"strings"

	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

type ListDepositorsUseCase struct {
	Ledgers ports.LedgerRepository
	Logger  *slog.Logger
}

// Execute returns the ordered depositor list with live balances. Order is
// first-deposit order; entries stay listed after a rescue zeroes them.
func (uc ListDepositorsUseCase) Execute(ctx context.Context, campaignID string) ([]entities.DepositorRecord, error) {
	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return nil, err
	}
	return ledger.Depositors, nil
}

// Position is one identity's view of the ledger.
type Position struct {
	Address   string
	Deposited uint64
	Allocated uint64
	Claimed   bool
}

type GetPositionUseCase struct {
	Ledgers ports.LedgerRepository
	Logger  *slog.Logger
}

func (uc GetPositionUseCase) Execute(ctx context.Context, campaignID string, address string) (Position, error) {
	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return Position{}, err
	}
	address = strings.TrimSpace(address)
	return Position{
		Address:   address,
		Deposited: ledger.DepositOf(address),
		Allocated: ledger.AllocationOf(address),
		Claimed:   ledger.HasClaimed(address),
	}, nil
}
