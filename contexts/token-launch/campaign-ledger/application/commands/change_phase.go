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

type ChangePhaseAction string

const (
	PhaseActionGoLive ChangePhaseAction = "live"
	PhaseActionEnd    ChangePhaseAction = "end"
	PhaseActionRescue ChangePhaseAction = "rescue"
)

type ChangePhaseCommand struct {
	CampaignID string
	CallerID   string
	Action     ChangePhaseAction
}

type ChangePhaseUseCase struct {
	Ledgers ports.LedgerRepository
	Bank    ports.AssetBank
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Execute advances the campaign phase. The rescue action additionally
// refunds every outstanding deposit before the transition commits; the
// refund batch is atomic, so one rejecting depositor aborts the whole
// rescue and leaves the ledger unchanged.
func (uc ChangePhaseUseCase) Execute(ctx context.Context, cmd ChangePhaseCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if !ledger.Campaign.IsOwner(cmd.CallerID) {
		return domainerrors.ErrUnauthorized
	}

	from := ledger.Campaign.Phase
	var to entities.Phase
	switch cmd.Action {
	case PhaseActionGoLive:
		to = entities.PhaseLive
	case PhaseActionEnd:
		to = entities.PhaseEnded
	case PhaseActionRescue:
		to = entities.PhaseRescue
	default:
		return domainerrors.ErrInvalidStateTransition
	}
	if !from.CanTransitionTo(to) {
		return domainerrors.ErrInvalidStateTransition
	}

	now := uc.Clock.Now().UTC()
	var transfers []ports.AssetTransfer
	var refundedTotal uint64

	if to == entities.PhaseRescue {
		refunds := ledger.OutstandingRefunds()
		transfers = make([]ports.AssetTransfer, 0, len(refunds))
		for _, refund := range refunds {
			transfers = append(transfers, ports.AssetTransfer{To: refund.Address, Amount: refund.Amount})
			refundedTotal += refund.Amount
		}
	}

	ledger.Campaign.Phase = to
	ledger.Campaign.UpdatedAt = now
	events, err := uc.phaseEvents(ctx, ledger.Campaign, from, to, refundedTotal, len(transfers))
	if err != nil {
		return err
	}

	if to == entities.PhaseRescue {
		if len(transfers) > 0 {
			if err := uc.Bank.TransferBatch(ctx, ledger.Campaign.AssetAddress, ledger.Campaign.CustodyAccount, transfers); err != nil {
				return fmt.Errorf("%w: %v", domainerrors.ErrAssetTransferFailed, err)
			}
		}
		ledger.ZeroDeposits()
	}

	if err := uc.Ledgers.SaveLedger(ctx, ledger, events...); err != nil {
		return err
	}

	logger.Info("campaign phase changed",
		"event", "campaign_phase_changed",
		"module", "token-launch/campaign-ledger",
		"layer", "application",
		"campaign_id", ledger.Campaign.CampaignID,
		"from_phase", string(from),
		"to_phase", string(to),
	)
	return nil
}

func (uc ChangePhaseUseCase) phaseEvents(
	ctx context.Context,
	campaign entities.Campaign,
	from entities.Phase,
	to entities.Phase,
	refundedTotal uint64,
	refundedCount int,
) ([]ports.EventEnvelope, error) {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return nil, err
	}
	envelope, err := newCampaignEnvelope(eventID, EventPhaseChanged, campaign.CampaignID, campaign.UpdatedAt, map[string]any{
		"campaign_id": campaign.CampaignID,
		"from_phase":  string(from),
		"to_phase":    string(to),
	})
	if err != nil {
		return nil, err
	}
	events := []ports.EventEnvelope{envelope}

	if to != entities.PhaseRescue {
		return events, nil
	}
	rescueEventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return nil, err
	}
	rescueEnvelope, err := newCampaignEnvelope(rescueEventID, EventRescueCompleted, campaign.CampaignID, campaign.UpdatedAt, map[string]any{
		"campaign_id":     campaign.CampaignID,
		"refunded_total":  refundedTotal,
		"depositor_count": refundedCount,
	})
	if err != nil {
		return nil, err
	}
	return append(events, rescueEnvelope), nil
}
