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

type UpdateFeeRecipientCommand struct {
	CampaignID string
	CallerID   string
	Recipient  string
}

type UpdateFeeRecipientUseCase struct {
	Ledgers ports.LedgerRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Execute repoints the fixed side-payment recipient. Past deposits are
// unaffected.
func (uc UpdateFeeRecipientUseCase) Execute(ctx context.Context, cmd UpdateFeeRecipientCommand) error {
	if !entities.ValidIdentity(cmd.Recipient) {
		return domainerrors.ErrInvalidIdentity
	}

	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if !ledger.Campaign.IsOwner(cmd.CallerID) {
		return domainerrors.ErrUnauthorized
	}

	previous := ledger.Campaign.FeeRecipient
	now := uc.Clock.Now().UTC()
	ledger.Campaign.FeeRecipient = strings.TrimSpace(cmd.Recipient)
	ledger.Campaign.UpdatedAt = now

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newCampaignEnvelope(eventID, EventFeeRecipientUpdated, ledger.Campaign.CampaignID, now, map[string]any{
		"campaign_id":        ledger.Campaign.CampaignID,
		"previous_recipient": previous,
		"new_recipient":      ledger.Campaign.FeeRecipient,
	})
	if err != nil {
		return err
	}
	if err := uc.Ledgers.SaveLedger(ctx, ledger, envelope); err != nil {
		return err
	}

	application.ResolveLogger(uc.Logger).Info("fee recipient updated",
		"event", "campaign_fee_recipient_updated",
		"module", "token-launch/campaign-ledger",
		"layer", "application",
		"campaign_id", ledger.Campaign.CampaignID,
		"new_recipient", ledger.Campaign.FeeRecipient,
	)
	return nil
}
