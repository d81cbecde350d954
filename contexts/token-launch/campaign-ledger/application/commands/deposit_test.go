package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"launchpad/contexts/token-launch/campaign-ledger/adapters/memory"
	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

func newDepositUseCase(store *memory.Store, bank *memory.Bank) DepositUseCase {
	return DepositUseCase{
		Ledgers:        store,
		Bank:           bank,
		Idempotency:    store,
		Clock:          fixedClock{now: testNow},
		IDGen:          &seqIDs{},
		IdempotencyTTL: time.Hour,
	}
}

func TestDepositMovesAssetAndFee(t *testing.T) {
	store := memory.NewStore()
	bank := memory.NewBank()
	campaign := seedCampaign(t, store, entities.PhaseLive, 5)
	bank.Mint(campaign.AssetAddress, "alice", 1_000)
	bank.Mint(ports.NativeAsset, "alice", 50)

	uc := newDepositUseCase(store, bank)
	result, replayed, err := uc.Execute(context.Background(), "idem-1", DepositCommand{
		CampaignID:  campaign.CampaignID,
		Depositor:   "alice",
		Amount:      300,
		SidePayment: 5,
	})
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if replayed {
		t.Fatalf("fresh deposit reported as replay")
	}
	if result.DepositBalance != 300 || result.TotalDeposits != 300 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if got := mustBalance(t, bank, campaign.AssetAddress, campaign.CustodyAccount); got != 300 {
		t.Fatalf("custody balance = %d, want 300", got)
	}
	if got := mustBalance(t, bank, ports.NativeAsset, campaign.FeeRecipient); got != 5 {
		t.Fatalf("fee recipient balance = %d, want 5", got)
	}
	if got := mustBalance(t, bank, ports.NativeAsset, "alice"); got != 45 {
		t.Fatalf("depositor native balance = %d, want 45", got)
	}

	ledger := mustGetLedger(t, store, campaign.CampaignID)
	if ledger.DepositOf("alice") != 300 {
		t.Fatalf("ledger balance = %d, want 300", ledger.DepositOf("alice"))
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != EventDepositRecorded {
		t.Fatalf("expected one deposit_recorded event, got %+v", pending)
	}
}

func TestDepositRejectsWrongSidePayment(t *testing.T) {
	store := memory.NewStore()
	bank := memory.NewBank()
	campaign := seedCampaign(t, store, entities.PhaseLive, 5)
	bank.Mint(campaign.AssetAddress, "alice", 1_000)
	bank.Mint(ports.NativeAsset, "alice", 50)

	uc := newDepositUseCase(store, bank)
	for _, side := range []uint64{0, 4, 6} {
		_, _, err := uc.Execute(context.Background(), "idem-side", DepositCommand{
			CampaignID:  campaign.CampaignID,
			Depositor:   "alice",
			Amount:      100,
			SidePayment: side,
		})
		if !errors.Is(err, domainerrors.ErrInvalidSidePayment) {
			t.Fatalf("side payment %d: got %v, want ErrInvalidSidePayment", side, err)
		}
	}
	if got := mustBalance(t, bank, campaign.AssetAddress, campaign.CustodyAccount); got != 0 {
		t.Fatalf("custody credited on rejected deposit")
	}
}

func TestDepositRejectedOutsideDepositPhases(t *testing.T) {
	for _, phase := range []entities.Phase{entities.PhaseRescue, entities.PhaseEnded} {
		store := memory.NewStore()
		bank := memory.NewBank()
		campaign := seedCampaign(t, store, phase, 0)
		bank.Mint(campaign.AssetAddress, "alice", 100)

		uc := newDepositUseCase(store, bank)
		_, _, err := uc.Execute(context.Background(), "idem-phase", DepositCommand{
			CampaignID: campaign.CampaignID,
			Depositor:  "alice",
			Amount:     10,
		})
		if !errors.Is(err, domainerrors.ErrIllegalStateForOperation) {
			t.Fatalf("phase %s: got %v, want ErrIllegalStateForOperation", phase, err)
		}
	}
}

func TestDepositValidation(t *testing.T) {
	store := memory.NewStore()
	bank := memory.NewBank()
	campaign := seedCampaign(t, store, entities.PhaseLive, 0)
	uc := newDepositUseCase(store, bank)

	if _, _, err := uc.Execute(context.Background(), "", DepositCommand{
		CampaignID: campaign.CampaignID, Depositor: "alice", Amount: 10,
	}); !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("missing key: got %v", err)
	}
	if _, _, err := uc.Execute(context.Background(), "k", DepositCommand{
		CampaignID: campaign.CampaignID, Depositor: "   ", Amount: 10,
	}); !errors.Is(err, domainerrors.ErrInvalidIdentity) {
		t.Fatalf("blank depositor: got %v", err)
	}
	if _, _, err := uc.Execute(context.Background(), "k", DepositCommand{
		CampaignID: campaign.CampaignID, Depositor: "alice", Amount: 0,
	}); !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, _, err := uc.Execute(context.Background(), "k", DepositCommand{
		CampaignID: "missing", Depositor: "alice", Amount: 10,
	}); !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("missing campaign: got %v", err)
	}
}

func TestDepositFeeForwardFailureRefundsPulledAmount(t *testing.T) {
	store := memory.NewStore()
	bank := memory.NewBank()
	campaign := seedCampaign(t, store, entities.PhaseLive, 5)
	bank.Mint(campaign.AssetAddress, "alice", 1_000)
	// No native balance, so the fee forward fails after the asset pull.

	uc := newDepositUseCase(store, bank)
	_, _, err := uc.Execute(context.Background(), "idem-fee", DepositCommand{
		CampaignID:  campaign.CampaignID,
		Depositor:   "alice",
		Amount:      300,
		SidePayment: 5,
	})
	if !errors.Is(err, domainerrors.ErrFeeForwardingFailed) {
		t.Fatalf("got %v, want ErrFeeForwardingFailed", err)
	}

	if got := mustBalance(t, bank, campaign.AssetAddress, "alice"); got != 1_000 {
		t.Fatalf("depositor not made whole: %d", got)
	}
	if got := mustBalance(t, bank, campaign.AssetAddress, campaign.CustodyAccount); got != 0 {
		t.Fatalf("custody kept funds from failed deposit: %d", got)
	}
	ledger := mustGetLedger(t, store, campaign.CampaignID)
	if ledger.Campaign.TotalDeposits != 0 || len(ledger.Depositors) != 0 {
		t.Fatalf("failed deposit recorded: %+v", ledger)
	}
}

func TestDepositIdempotencyReplayAndConflict(t *testing.T) {
	store := memory.NewStore()
	bank := memory.NewBank()
	campaign := seedCampaign(t, store, entities.PhaseLive, 0)
	bank.Mint(campaign.AssetAddress, "alice", 1_000)

	uc := newDepositUseCase(store, bank)
	first, _, err := uc.Execute(context.Background(), "idem-rep", DepositCommand{
		CampaignID: campaign.CampaignID, Depositor: "alice", Amount: 100,
	})
	if err != nil {
		t.Fatalf("first deposit: %v", err)
	}

	second, replayed, err := uc.Execute(context.Background(), "idem-rep", DepositCommand{
		CampaignID: campaign.CampaignID, Depositor: "alice", Amount: 100,
	})
	if err != nil {
		t.Fatalf("replay deposit: %v", err)
	}
	if !replayed {
		t.Fatalf("duplicate key not replayed")
	}
	if second != first {
		t.Fatalf("replay returned different result: %+v vs %+v", second, first)
	}
	// Replay must not move funds twice.
	if got := mustBalance(t, bank, campaign.AssetAddress, campaign.CustodyAccount); got != 100 {
		t.Fatalf("custody balance after replay = %d, want 100", got)
	}

	_, _, err = uc.Execute(context.Background(), "idem-rep", DepositCommand{
		CampaignID: campaign.CampaignID, Depositor: "alice", Amount: 200,
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("reused key with new payload: got %v", err)
	}
}

var errStorageUnavailable = errors.New("storage unavailable")

// flakyLedgers fails the first SaveLedger calls, then delegates to the
// in-memory store.
type flakyLedgers struct {
	*memory.Store
	saveFailures int
}

func (f *flakyLedgers) SaveLedger(ctx context.Context, ledger entities.Ledger, events ...ports.EventEnvelope) error {
	if f.saveFailures > 0 {
		f.saveFailures--
		return errStorageUnavailable
	}
	return f.Store.SaveLedger(ctx, ledger, events...)
}

func TestDepositSaveFailureRefundsPullAndLeavesNoRecord(t *testing.T) {
	store := memory.NewStore()
	bank := memory.NewBank()
	campaign := seedCampaign(t, store, entities.PhaseLive, 5)
	bank.Mint(campaign.AssetAddress, "alice", 1_000)
	bank.Mint(ports.NativeAsset, "alice", 50)

	ledgers := &flakyLedgers{Store: store, saveFailures: 1}
	uc := newDepositUseCase(store, bank)
	uc.Ledgers = ledgers

	_, _, err := uc.Execute(context.Background(), "idem-save", DepositCommand{
		CampaignID:  campaign.CampaignID,
		Depositor:   "alice",
		Amount:      300,
		SidePayment: 5,
	})
	if !errors.Is(err, errStorageUnavailable) {
		t.Fatalf("got %v, want storage error", err)
	}

	// The asset pull is compensated; the forwarded fee cannot be clawed back.
	if got := mustBalance(t, bank, campaign.AssetAddress, "alice"); got != 1_000 {
		t.Fatalf("depositor asset balance = %d, want 1000", got)
	}
	if got := mustBalance(t, bank, campaign.AssetAddress, campaign.CustodyAccount); got != 0 {
		t.Fatalf("custody kept funds from failed deposit: %d", got)
	}
	if got := mustBalance(t, bank, ports.NativeAsset, campaign.FeeRecipient); got != 5 {
		t.Fatalf("fee recipient balance = %d, want 5", got)
	}

	ledger := mustGetLedger(t, store, campaign.CampaignID)
	if ledger.Campaign.TotalDeposits != 0 || len(ledger.Depositors) != 0 {
		t.Fatalf("failed deposit recorded: %+v", ledger)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("failed deposit emitted events: %+v", pending)
	}

	// Nothing was committed, so the same key retries cleanly and charges once.
	result, replayed, err := uc.Execute(context.Background(), "idem-save", DepositCommand{
		CampaignID:  campaign.CampaignID,
		Depositor:   "alice",
		Amount:      300,
		SidePayment: 5,
	})
	if err != nil {
		t.Fatalf("retry after save failure: %v", err)
	}
	if replayed {
		t.Fatalf("retry reported as replay")
	}
	if result.DepositBalance != 300 {
		t.Fatalf("retry balance = %d, want 300", result.DepositBalance)
	}
	if got := mustBalance(t, bank, campaign.AssetAddress, campaign.CustodyAccount); got != 300 {
		t.Fatalf("custody balance after retry = %d, want 300", got)
	}
	if got := mustBalance(t, bank, ports.NativeAsset, campaign.FeeRecipient); got != 10 {
		t.Fatalf("fee recipient balance after retry = %d, want 10", got)
	}
}
