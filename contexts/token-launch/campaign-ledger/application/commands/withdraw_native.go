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

type WithdrawNativeCommand struct {
	CampaignID string
	CallerID   string
}

type WithdrawNativeResult struct {
	CampaignID string
	Amount     uint64
}

type WithdrawNativeUseCase struct {
	Ledgers ports.LedgerRepository
	Bank    ports.AssetBank
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Execute sweeps the custody account's entire native-currency balance to
// the owner. Legal in any phase.
func (uc WithdrawNativeUseCase) Execute(ctx context.Context, cmd WithdrawNativeCommand) (WithdrawNativeResult, error) {
	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return WithdrawNativeResult{}, err
	}
	if !ledger.Campaign.IsOwner(cmd.CallerID) {
		return WithdrawNativeResult{}, domainerrors.ErrUnauthorized
	}

	balance, err := uc.Bank.Balance(ctx, ports.NativeAsset, ledger.Campaign.CustodyAccount)
	if err != nil {
		return WithdrawNativeResult{}, fmt.Errorf("%w: %v", domainerrors.ErrAssetTransferFailed, err)
	}
	if balance == 0 {
		return WithdrawNativeResult{}, domainerrors.ErrNothingToWithdraw
	}

	if err := uc.Bank.Transfer(ctx, ports.NativeAsset, ledger.Campaign.CustodyAccount, ledger.Campaign.Owner, balance); err != nil {
		return WithdrawNativeResult{}, fmt.Errorf("%w: %v", domainerrors.ErrAssetTransferFailed, err)
	}

	result := WithdrawNativeResult{
		CampaignID: ledger.Campaign.CampaignID,
		Amount:     balance,
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return WithdrawNativeResult{}, err
		}
		envelope, err := newCampaignEnvelope(eventID, EventNativeWithdrawn, result.CampaignID, uc.Clock.Now().UTC(), map[string]any{
			"campaign_id": result.CampaignID,
			"amount":      result.Amount,
		})
		if err != nil {
			return WithdrawNativeResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return WithdrawNativeResult{}, err
		}
	}

	application.ResolveLogger(uc.Logger).Info("native balance withdrawn",
		"event", "campaign_native_withdrawn",
		"module", "token-launch/campaign-ledger",
		"layer", "application",
		"campaign_id", result.CampaignID,
		"amount", result.Amount,
	)
	return result, nil
}
