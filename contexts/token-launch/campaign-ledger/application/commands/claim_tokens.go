package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "launchpad/contexts/token-launch/campaign-ledger/application"
	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

type ClaimTokensCommand struct {
	CampaignID string
	CallerID   string
}

type ClaimTokensResult struct {
	CampaignID string
	Claimant   string
	Amount     uint64
}

type ClaimTokensUseCase struct {
	Ledgers ports.LedgerRepository
	Bank    ports.AssetBank
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Execute settles the caller's allocation exactly once. The claim flag is
// committed before the asset push so a re-entering transfer callback sees
// the claim as spent; a failed push rolls the flag back and the caller may
// retry.
func (uc ClaimTokensUseCase) Execute(ctx context.Context, cmd ClaimTokensCommand) (ClaimTokensResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !entities.ValidIdentity(cmd.CallerID) {
		return ClaimTokensResult{}, domainerrors.ErrInvalidIdentity
	}

	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return ClaimTokensResult{}, err
	}
	if !ledger.Campaign.Phase.AcceptsAllocations() {
		return ClaimTokensResult{}, domainerrors.ErrIllegalStateForOperation
	}

	claimant := strings.TrimSpace(cmd.CallerID)
	amount := ledger.AllocationOf(claimant)
	if amount == 0 {
		return ClaimTokensResult{}, domainerrors.ErrNoAllocation
	}
	if ledger.HasClaimed(claimant) {
		return ClaimTokensResult{}, domainerrors.ErrAlreadyClaimed
	}

	now := uc.Clock.Now().UTC()
	result := ClaimTokensResult{
		CampaignID: ledger.Campaign.CampaignID,
		Claimant:   claimant,
		Amount:     amount,
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ClaimTokensResult{}, err
	}
	envelope, err := newCampaignEnvelope(eventID, EventTokensClaimed, result.CampaignID, now, map[string]any{
		"campaign_id": result.CampaignID,
		"claimant":    result.Claimant,
		"amount":      result.Amount,
	})
	if err != nil {
		return ClaimTokensResult{}, err
	}

	ledger.MarkClaimed(claimant, now)
	ledger.Campaign.UpdatedAt = now
	if err := uc.Ledgers.SaveLedger(ctx, ledger); err != nil {
		return ClaimTokensResult{}, err
	}

	if err := uc.Bank.Transfer(ctx, ledger.Campaign.AssetAddress, ledger.Campaign.CustodyAccount, claimant, amount); err != nil {
		ledger.UnmarkClaimed(claimant)
		if rollbackErr := uc.Ledgers.SaveLedger(ctx, ledger); rollbackErr != nil {
			logger.Error("claim rollback failed",
				"event", "campaign_claim_rollback_failed",
				"module", "token-launch/campaign-ledger",
				"layer", "application",
				"campaign_id", ledger.Campaign.CampaignID,
				"claimant", claimant,
				"error", rollbackErr.Error(),
			)
			return ClaimTokensResult{}, rollbackErr
		}
		return ClaimTokensResult{}, fmt.Errorf("%w: %v", domainerrors.ErrAssetTransferFailed, err)
	}

	// The event commits only once the payout went through; a failed write
	// here loses the envelope but must not report a settled claim as failed.
	if err := uc.Ledgers.SaveLedger(ctx, ledger, envelope); err != nil {
		logger.Error("claim event write failed",
			"event", "campaign_claim_event_write_failed",
			"module", "token-launch/campaign-ledger",
			"layer", "application",
			"campaign_id", result.CampaignID,
			"claimant", claimant,
			"error", err.Error(),
		)
	}

	logger.Info("tokens claimed",
		"event", "campaign_tokens_claimed",
		"module", "token-launch/campaign-ledger",
		"layer", "application",
		"campaign_id", result.CampaignID,
		"claimant", result.Claimant,
		"amount", result.Amount,
	)
	return result, nil
}
