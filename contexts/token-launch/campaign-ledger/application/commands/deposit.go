package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "launchpad/contexts/token-launch/campaign-ledger/application"
	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

type DepositCommand struct {
	CampaignID  string
	Depositor   string
	Amount      uint64
	SidePayment uint64
}

type DepositResult struct {
	CampaignID     string `json:"campaign_id"`
	Depositor      string `json:"depositor"`
	Amount         uint64 `json:"amount"`
	DepositBalance uint64 `json:"deposit_balance"`
	TotalDeposits  uint64 `json:"total_deposits"`
	RecordedAt     string `json:"recorded_at"`
}

type DepositUseCase struct {
	Ledgers        ports.LedgerRepository
	Bank           ports.AssetBank
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Execute pulls the deposit amount into custody, forwards the exact fixed
// side-payment to the fee recipient and records the deposit. The books and
// the event envelope are prepared before any transfer, so every failure
// after the asset pull compensates by returning the pulled amount; the
// envelope commits inside the same ledger save as the state change.
func (uc DepositUseCase) Execute(
	ctx context.Context,
	idempotencyKey string,
	cmd DepositCommand,
) (DepositResult, bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(idempotencyKey) == "" {
		return DepositResult{}, false, domainerrors.ErrIdempotencyKeyRequired
	}

	ledger, err := uc.Ledgers.GetLedger(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return DepositResult{}, false, err
	}
	campaign := ledger.Campaign

	if !ledger.Campaign.Phase.AcceptsDeposits() {
		return DepositResult{}, false, domainerrors.ErrIllegalStateForOperation
	}
	if !entities.ValidIdentity(cmd.Depositor) {
		return DepositResult{}, false, domainerrors.ErrInvalidIdentity
	}
	if cmd.Amount == 0 {
		return DepositResult{}, false, domainerrors.ErrInvalidAmount
	}
	if cmd.SidePayment != campaign.DepositFee {
		return DepositResult{}, false, domainerrors.ErrInvalidSidePayment
	}

	now := uc.now()
	depositor := strings.TrimSpace(cmd.Depositor)
	requestHash := hashPayload(map[string]any{
		"campaign_id":  campaign.CampaignID,
		"depositor":    depositor,
		"amount":       cmd.Amount,
		"side_payment": cmd.SidePayment,
	})

	if uc.Idempotency != nil {
		record, found, err := uc.Idempotency.GetRecord(ctx, strings.TrimSpace(idempotencyKey), now)
		if err != nil {
			return DepositResult{}, false, err
		}
		if found {
			if record.RequestHash != requestHash {
				return DepositResult{}, false, domainerrors.ErrIdempotencyKeyConflict
			}
			var replayed DepositResult
			if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
				return DepositResult{}, false, err
			}
			return replayed, true, nil
		}
	}

	// Apply the deposit to the scratch ledger and build the envelope before
	// touching the bank, so no transfer happens for a deposit that cannot
	// be booked.
	if !ledger.RecordDeposit(depositor, cmd.Amount) {
		return DepositResult{}, false, domainerrors.ErrInvalidAmount
	}
	ledger.Campaign.UpdatedAt = now

	result := DepositResult{
		CampaignID:     campaign.CampaignID,
		Depositor:      depositor,
		Amount:         cmd.Amount,
		DepositBalance: ledger.DepositOf(depositor),
		TotalDeposits:  ledger.Campaign.TotalDeposits,
		RecordedAt:     now.Format(time.RFC3339),
	}
	envelope, err := uc.depositEnvelope(ctx, result, now)
	if err != nil {
		return DepositResult{}, false, err
	}

	if err := uc.Bank.Transfer(ctx, campaign.AssetAddress, depositor, campaign.CustodyAccount, cmd.Amount); err != nil {
		return DepositResult{}, false, fmt.Errorf("%w: %v", domainerrors.ErrAssetTransferFailed, err)
	}

	if err := uc.Bank.Transfer(ctx, ports.NativeAsset, depositor, campaign.FeeRecipient, cmd.SidePayment); err != nil {
		uc.refundPulledAmount(ctx, campaign, depositor, cmd.Amount)
		return DepositResult{}, false, fmt.Errorf("%w: %v", domainerrors.ErrFeeForwardingFailed, err)
	}

	if err := uc.Ledgers.SaveLedger(ctx, ledger, envelope); err != nil {
		// Nothing was booked, so return the pulled amount. The forwarded
		// fee sits with the recipient and cannot be clawed back.
		uc.refundPulledAmount(ctx, campaign, depositor, cmd.Amount)
		logger.Error("deposit save failed after fee forward",
			"event", "campaign_deposit_save_failed",
			"module", "token-launch/campaign-ledger",
			"layer", "application",
			"campaign_id", campaign.CampaignID,
			"depositor", depositor,
			"forwarded_fee", cmd.SidePayment,
			"error", err.Error(),
		)
		return DepositResult{}, false, err
	}

	if uc.Idempotency != nil {
		payload, err := json.Marshal(result)
		if err == nil {
			err = uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
				Key:             strings.TrimSpace(idempotencyKey),
				RequestHash:     requestHash,
				ResponsePayload: payload,
				ExpiresAt:       now.Add(uc.idempotencyTTL()),
			})
		}
		// The deposit is committed; a lost replay record must not turn a
		// recorded deposit into an error.
		if err != nil {
			logger.Error("idempotency record write failed",
				"event", "campaign_deposit_idempotency_write_failed",
				"module", "token-launch/campaign-ledger",
				"layer", "application",
				"campaign_id", campaign.CampaignID,
				"idempotency_key", strings.TrimSpace(idempotencyKey),
				"error", err.Error(),
			)
		}
	}

	logger.Info("deposit recorded",
		"event", "campaign_deposit_recorded",
		"module", "token-launch/campaign-ledger",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"depositor", depositor,
		"amount", cmd.Amount,
		"total_deposits", result.TotalDeposits,
	)
	return result, false, nil
}

func (uc DepositUseCase) refundPulledAmount(
	ctx context.Context,
	campaign entities.Campaign,
	depositor string,
	amount uint64,
) {
	if err := uc.Bank.Transfer(ctx, campaign.AssetAddress, campaign.CustodyAccount, depositor, amount); err != nil {
		application.ResolveLogger(uc.Logger).Error("deposit compensation failed",
			"event", "campaign_deposit_compensation_failed",
			"module", "token-launch/campaign-ledger",
			"layer", "application",
			"campaign_id", campaign.CampaignID,
			"depositor", depositor,
			"error", err.Error(),
		)
	}
}

func (uc DepositUseCase) depositEnvelope(ctx context.Context, result DepositResult, now time.Time) (ports.EventEnvelope, error) {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return newCampaignEnvelope(eventID, EventDepositRecorded, result.CampaignID, now, map[string]any{
		"campaign_id":     result.CampaignID,
		"depositor":       result.Depositor,
		"amount":          result.Amount,
		"deposit_balance": result.DepositBalance,
		"total_deposits":  result.TotalDeposits,
	})
}

func (uc DepositUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc DepositUseCase) idempotencyTTL() time.Duration {
	if uc.IdempotencyTTL > 0 {
		return uc.IdempotencyTTL
	}
	return 7 * 24 * time.Hour
}

func hashPayload(payload map[string]any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
