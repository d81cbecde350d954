package queries

import (
	"context"
	"log/slog"
	"strings"

	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

type GetCampaignUseCase struct {
	Ledgers ports.LedgerRepository
	Logger  *slog.Logger
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID string) (entities.Campaign, error) {
	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return entities.Campaign{}, err
	}
	return ledger.Campaign, nil
}

type ListCampaignsUseCase struct {
	Ledgers ports.LedgerRepository
	Logger  *slog.Logger
}

func (uc ListCampaignsUseCase) Execute(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	return uc.Ledgers.ListCampaigns(ctx, filter)
}
