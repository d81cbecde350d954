package commands

import (
	"context"
	"log/slog"
	"strings"

	application "launchpad/contexts/token-launch/campaign-ledger/application"
	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

type SetAllocationsCommand struct {
	CampaignID string
	CallerID   string
	Identities []string
	Amounts    []uint64
}

type SetAllocationsUseCase struct {
	Ledgers ports.LedgerRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Execute overwrites allocations in bulk. The batch commits only when the
// resulting allocation total stays within total deposits; otherwise no pair
// in the call is applied.
func (uc SetAllocationsUseCase) Execute(ctx context.Context, cmd SetAllocationsCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if len(cmd.Identities) != len(cmd.Amounts) {
		return domainerrors.ErrLengthMismatch
	}

	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if !ledger.Campaign.IsOwner(cmd.CallerID) {
		return domainerrors.ErrUnauthorized
	}
	if !ledger.Campaign.Phase.AcceptsAllocations() {
		return domainerrors.ErrIllegalStateForOperation
	}

	pairs := make([]entities.AllocationRecord, 0, len(cmd.Identities))
	for i, identity := range cmd.Identities {
		if !entities.ValidIdentity(identity) {
			return domainerrors.ErrInvalidIdentity
		}
		pairs = append(pairs, entities.AllocationRecord{
			Address: strings.TrimSpace(identity),
			Amount:  cmd.Amounts[i],
		})
	}

	total, ok := ledger.ApplyAllocations(pairs)
	if !ok {
		return domainerrors.ErrAllocationExceedsDeposits
	}

	now := uc.Clock.Now().UTC()
	ledger.Campaign.UpdatedAt = now

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newCampaignEnvelope(eventID, EventAllocationsSet, ledger.Campaign.CampaignID, now, map[string]any{
		"campaign_id":     ledger.Campaign.CampaignID,
		"pair_count":      len(pairs),
		"total_allocated": total,
		"total_deposits":  ledger.Campaign.TotalDeposits,
	})
	if err != nil {
		return err
	}
	if err := uc.Ledgers.SaveLedger(ctx, ledger, envelope); err != nil {
		return err
	}

	logger.Info("allocations set",
		"event", "campaign_allocations_set",
		"module", "token-launch/campaign-ledger",
		"layer", "application",
		"campaign_id", ledger.Campaign.CampaignID,
		"pair_count", len(pairs),
		"total_allocated", total,
	)
	return nil
}
