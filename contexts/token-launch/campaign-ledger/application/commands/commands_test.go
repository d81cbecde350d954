package commands

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"launchpad/contexts/token-launch/campaign-ledger/adapters/memory"
	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// seqIDCounter is shared across all seqIDs instances so use cases wired
// with separate generators still emit distinct event IDs into the shared
// outbox, whose duplicate-ID check would otherwise reject the save.
var seqIDCounter atomic.Int64

type seqIDs struct{}

func (g *seqIDs) NewID(_ context.Context) (string, error) {
	return fmt.Sprintf("id-%d", seqIDCounter.Add(1)), nil
}

var testNow = time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)

func seedCampaign(t *testing.T, store *memory.Store, phase entities.Phase, depositFee uint64) entities.Campaign {
	t.Helper()
	campaign := entities.Campaign{
		CampaignID:     "camp-1",
		Title:          "Token Launch",
		AssetAddress:   "asset-1",
		Owner:          "owner-1",
		FeeRecipient:   "fees-1",
		CustodyAccount: "custody:camp-1",
		DepositFee:     depositFee,
		Phase:          phase,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
	if err := store.CreateLedger(context.Background(), entities.Ledger{Campaign: campaign}); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return campaign
}

func mustGetLedger(t *testing.T, store *memory.Store, campaignID string) entities.Ledger {
	t.Helper()
	ledger, err := store.GetLedger(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("get ledger: %v", err)
	}
	return ledger
}

func mustBalance(t *testing.T, bank *memory.Bank, asset string, account string) uint64 {
	t.Helper()
	balance, err := bank.Balance(context.Background(), asset, account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}
