package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "launchpad/contexts/token-launch/campaign-ledger/application"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

type RescueRemainingCommand struct {
	CampaignID string
	CallerID   string
}

type RescueRemainingResult struct {
	CampaignID     string
	Surplus        uint64
	HeldBalance    uint64
	TotalAllocated uint64
}

type RescueRemainingUseCase struct {
	Ledgers ports.LedgerRepository
	Bank    ports.AssetBank
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Execute sweeps the unallocated residual held in custody to the owner:
// held asset balance minus the allocation total. Zero or negative surplus
// fails ErrNoResidual.
func (uc RescueRemainingUseCase) Execute(ctx context.Context, cmd RescueRemainingCommand) (RescueRemainingResult, error) {
	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return RescueRemainingResult{}, err
	}
	if !ledger.Campaign.IsOwner(cmd.CallerID) {
		return RescueRemainingResult{}, domainerrors.ErrUnauthorized
	}
	if !ledger.Campaign.Phase.AcceptsAllocations() {
		return RescueRemainingResult{}, domainerrors.ErrIllegalStateForOperation
	}

	held, err := uc.Bank.Balance(ctx, ledger.Campaign.AssetAddress, ledger.Campaign.CustodyAccount)
	if err != nil {
		return RescueRemainingResult{}, fmt.Errorf("%w: %v", domainerrors.ErrAssetTransferFailed, err)
	}
	allocated := ledger.TotalAllocated()
	if held <= allocated {
		return RescueRemainingResult{}, domainerrors.ErrNoResidual
	}
	surplus := held - allocated

	if err := uc.Bank.Transfer(ctx, ledger.Campaign.AssetAddress, ledger.Campaign.CustodyAccount, ledger.Campaign.Owner, surplus); err != nil {
		return RescueRemainingResult{}, fmt.Errorf("%w: %v", domainerrors.ErrAssetTransferFailed, err)
	}

	result := RescueRemainingResult{
		CampaignID:     ledger.Campaign.CampaignID,
		Surplus:        surplus,
		HeldBalance:    held,
		TotalAllocated: allocated,
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return RescueRemainingResult{}, err
		}
		envelope, err := newCampaignEnvelope(eventID, EventResidualSwept, result.CampaignID, uc.Clock.Now().UTC(), map[string]any{
			"campaign_id":     result.CampaignID,
			"surplus":         result.Surplus,
			"held_balance":    result.HeldBalance,
			"total_allocated": result.TotalAllocated,
		})
		if err != nil {
			return RescueRemainingResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return RescueRemainingResult{}, err
		}
	}

	application.ResolveLogger(uc.Logger).Info("residual swept",
		"event", "campaign_residual_swept",
		"module", "token-launch/campaign-ledger",
		"layer", "application",
		"campaign_id", result.CampaignID,
		"surplus", result.Surplus,
	)
	return result, nil
}
