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

type CreateCampaignCommand struct {
	Title        string
	AssetAddress string
	Owner        string
	FeeRecipient string
	DepositFee   uint64
}

type CreateCampaignUseCase struct {
	Ledgers ports.LedgerRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Execute provisions a fresh ledger instance in the graduating phase.
// Title, asset and owner are immutable afterwards.
func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (entities.Campaign, error) {
	campaign := entities.Campaign{
		Title:        strings.TrimSpace(cmd.Title),
		AssetAddress: strings.TrimSpace(cmd.AssetAddress),
		Owner:        strings.TrimSpace(cmd.Owner),
		FeeRecipient: strings.TrimSpace(cmd.FeeRecipient),
		DepositFee:   cmd.DepositFee,
		Phase:        entities.PhaseGraduating,
	}
	if !campaign.ValidateBasics() {
		return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
	}

	campaignID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Campaign{}, err
	}
	now := uc.Clock.Now().UTC()
	campaign.CampaignID = strings.TrimSpace(campaignID)
	campaign.CustodyAccount = "custody:" + campaign.CampaignID
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	envelope, err := uc.createdEnvelope(ctx, campaign)
	if err != nil {
		return entities.Campaign{}, err
	}
	if err := uc.Ledgers.CreateLedger(ctx, entities.Ledger{Campaign: campaign}, envelope); err != nil {
		return entities.Campaign{}, err
	}

	application.ResolveLogger(uc.Logger).Info("campaign created",
		"event", "campaign_created",
		"module", "token-launch/campaign-ledger",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"asset_address", campaign.AssetAddress,
		"deposit_fee", campaign.DepositFee,
	)
	return campaign, nil
}

func (uc CreateCampaignUseCase) createdEnvelope(ctx context.Context, campaign entities.Campaign) (ports.EventEnvelope, error) {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return newCampaignEnvelope(eventID, EventCampaignCreated, campaign.CampaignID, campaign.CreatedAt, map[string]any{
		"campaign_id":   campaign.CampaignID,
		"title":         campaign.Title,
		"asset_address": campaign.AssetAddress,
		"owner":         campaign.Owner,
		"fee_recipient": campaign.FeeRecipient,
		"deposit_fee":   campaign.DepositFee,
		"phase":         string(campaign.Phase),
	})
}
