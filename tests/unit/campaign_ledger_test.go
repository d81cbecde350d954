package unit

import (
	"context"
	"errors"
	"testing"

	campaignledger "launchpad/contexts/token-launch/campaign-ledger"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
	httptransport "launchpad/contexts/token-launch/campaign-ledger/transport/http"
)

func createCampaign(t *testing.T, module campaignledger.Module, fee uint64) httptransport.CampaignDTO {
	t.Helper()
	resp, err := module.Handler.CreateCampaignHandler(context.Background(), "owner-1", httptransport.CreateCampaignRequest{
		Title:        "Token Launch",
		AssetAddress: "asset-1",
		FeeRecipient: "fees-1",
		DepositFee:   fee,
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return resp.Campaign
}

func goLiveAndEnd(t *testing.T, module campaignledger.Module, campaignID string) {
	t.Helper()
	ctx := context.Background()
	for _, action := range []string{"live", "end"} {
		if err := module.Handler.ChangePhaseHandler(ctx, "owner-1", campaignID, httptransport.ChangePhaseRequest{
			Action: action,
		}); err != nil {
			t.Fatalf("phase action %s: %v", action, err)
		}
	}
}

func TestCampaignLifecycleHappyPath(t *testing.T) {
	module := campaignledger.NewInMemoryModule(nil)
	ctx := context.Background()
	campaign := createCampaign(t, module, 2)

	module.Bank.Mint(campaign.AssetAddress, "alice", 1_000)
	module.Bank.Mint(campaign.AssetAddress, "bob", 1_000)
	module.Bank.Mint(ports.NativeAsset, "alice", 10)
	module.Bank.Mint(ports.NativeAsset, "bob", 10)

	deposit, err := module.Handler.DepositHandler(ctx, "alice", "idem-a", campaign.CampaignID, httptransport.DepositRequest{
		Amount: 600, SidePayment: 2,
	})
	if err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if deposit.TotalDeposits != 600 {
		t.Fatalf("total after alice = %d", deposit.TotalDeposits)
	}
	if _, err := module.Handler.DepositHandler(ctx, "bob", "idem-b", campaign.CampaignID, httptransport.DepositRequest{
		Amount: 400, SidePayment: 2,
	}); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}

	goLiveAndEnd(t, module, campaign.CampaignID)

	if err := module.Handler.SetAllocationsHandler(ctx, "owner-1", campaign.CampaignID, httptransport.SetAllocationsRequest{
		Identities: []string{"alice", "bob"},
		Amounts:    []uint64{600, 400},
	}); err != nil {
		t.Fatalf("set allocations: %v", err)
	}

	claim, err := module.Handler.ClaimTokensHandler(ctx, "alice", campaign.CampaignID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.Amount != 600 {
		t.Fatalf("claim amount = %d", claim.Amount)
	}

	position, err := module.Handler.GetPositionHandler(ctx, campaign.CampaignID, "alice")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if !position.Claimed || position.Deposited != 600 || position.Allocated != 600 {
		t.Fatalf("unexpected position: %+v", position)
	}

	depositors, err := module.Handler.ListDepositorsHandler(ctx, campaign.CampaignID)
	if err != nil {
		t.Fatalf("depositors: %v", err)
	}
	if len(depositors.Items) != 2 || depositors.Items[0].Address != "alice" {
		t.Fatalf("depositor order wrong: %+v", depositors.Items)
	}
}

func TestDepositRequiresExactSidePayment(t *testing.T) {
	module := campaignledger.NewInMemoryModule(nil)
	ctx := context.Background()
	campaign := createCampaign(t, module, 5)
	module.Bank.Mint(campaign.AssetAddress, "alice", 100)
	module.Bank.Mint(ports.NativeAsset, "alice", 100)

	_, err := module.Handler.DepositHandler(ctx, "alice", "idem-1", campaign.CampaignID, httptransport.DepositRequest{
		Amount: 50, SidePayment: 4,
	})
	if !errors.Is(err, domainerrors.ErrInvalidSidePayment) {
		t.Fatalf("got %v, want ErrInvalidSidePayment", err)
	}
}

func TestRescuePathRefundsAndBlocksFurtherActivity(t *testing.T) {
	module := campaignledger.NewInMemoryModule(nil)
	ctx := context.Background()
	campaign := createCampaign(t, module, 0)
	module.Bank.Mint(campaign.AssetAddress, "alice", 300)

	if _, err := module.Handler.DepositHandler(ctx, "alice", "idem-1", campaign.CampaignID, httptransport.DepositRequest{
		Amount: 300,
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := module.Handler.ChangePhaseHandler(ctx, "owner-1", campaign.CampaignID, httptransport.ChangePhaseRequest{
		Action: "rescue",
	}); err != nil {
		t.Fatalf("rescue: %v", err)
	}

	balance, err := module.Bank.Balance(ctx, campaign.AssetAddress, "alice")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 300 {
		t.Fatalf("refund wrong: %d", balance)
	}

	// Rescue is terminal: no deposits, no transitions.
	_, err = module.Handler.DepositHandler(ctx, "alice", "idem-2", campaign.CampaignID, httptransport.DepositRequest{
		Amount: 10,
	})
	if !errors.Is(err, domainerrors.ErrIllegalStateForOperation) {
		t.Fatalf("post-rescue deposit: got %v", err)
	}
	err = module.Handler.ChangePhaseHandler(ctx, "owner-1", campaign.CampaignID, httptransport.ChangePhaseRequest{
		Action: "live",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("post-rescue transition: got %v", err)
	}
}

func TestRescueRemainingAndWithdrawNative(t *testing.T) {
	module := campaignledger.NewInMemoryModule(nil)
	ctx := context.Background()
	campaign := createCampaign(t, module, 0)
	module.Bank.Mint(campaign.AssetAddress, "alice", 100)

	if _, err := module.Handler.DepositHandler(ctx, "alice", "idem-1", campaign.CampaignID, httptransport.DepositRequest{
		Amount: 100,
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	goLiveAndEnd(t, module, campaign.CampaignID)

	if err := module.Handler.SetAllocationsHandler(ctx, "owner-1", campaign.CampaignID, httptransport.SetAllocationsRequest{
		Identities: []string{"alice"},
		Amounts:    []uint64{80},
	}); err != nil {
		t.Fatalf("set allocations: %v", err)
	}

	swept, err := module.Handler.RescueRemainingHandler(ctx, "owner-1", campaign.CampaignID)
	if err != nil {
		t.Fatalf("rescue remaining: %v", err)
	}
	if swept.Surplus != 20 {
		t.Fatalf("surplus = %d, want 20", swept.Surplus)
	}

	// Stranded native funds on the custody account are owner-recoverable.
	module.Bank.Mint(ports.NativeAsset, campaign.CustodyAccount, 9)
	withdrawn, err := module.Handler.WithdrawNativeHandler(ctx, "owner-1", campaign.CampaignID)
	if err != nil {
		t.Fatalf("withdraw native: %v", err)
	}
	if withdrawn.Amount != 9 {
		t.Fatalf("withdrawn = %d, want 9", withdrawn.Amount)
	}
	if _, err := module.Handler.WithdrawNativeHandler(ctx, "owner-1", campaign.CampaignID); !errors.Is(err, domainerrors.ErrNothingToWithdraw) {
		t.Fatalf("second withdraw: got %v", err)
	}
}

func TestOwnerOnlyOperationsRejectOtherCallers(t *testing.T) {
	module := campaignledger.NewInMemoryModule(nil)
	ctx := context.Background()
	campaign := createCampaign(t, module, 0)

	if err := module.Handler.ChangePhaseHandler(ctx, "intruder", campaign.CampaignID, httptransport.ChangePhaseRequest{
		Action: "live",
	}); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("phase by non-owner: got %v", err)
	}
	if err := module.Handler.UpdateFeeRecipientHandler(ctx, "intruder", campaign.CampaignID, httptransport.UpdateFeeRecipientRequest{
		FeeRecipient: "thief",
	}); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("fee recipient by non-owner: got %v", err)
	}
	if _, err := module.Handler.RescueRemainingHandler(ctx, "intruder", campaign.CampaignID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("rescue remaining by non-owner: got %v", err)
	}
}

func TestListCampaignsFilter(t *testing.T) {
	module := campaignledger.NewInMemoryModule(nil)
	ctx := context.Background()
	first := createCampaign(t, module, 0)
	createCampaign(t, module, 0)

	if err := module.Handler.ChangePhaseHandler(ctx, "owner-1", first.CampaignID, httptransport.ChangePhaseRequest{
		Action: "live",
	}); err != nil {
		t.Fatalf("go live: %v", err)
	}

	all, err := module.Handler.ListCampaignsHandler(ctx, "", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("list all = %d items", len(all.Items))
	}

	live, err := module.Handler.ListCampaignsHandler(ctx, "", "live")
	if err != nil {
		t.Fatalf("list live: %v", err)
	}
	if len(live.Items) != 1 || live.Items[0].CampaignID != first.CampaignID {
		t.Fatalf("live filter wrong: %+v", live.Items)
	}
}
