package entities

import (
	"math"
	"testing"
	"time"
)

func TestRecordDepositAccumulatesAndKeepsOrder(t *testing.T) {
	ledger := Ledger{Campaign: Campaign{Phase: PhaseGraduating}}

	if !ledger.RecordDeposit("alice", 100) {
		t.Fatalf("first deposit rejected")
	}
	if !ledger.RecordDeposit("bob", 50) {
		t.Fatalf("second depositor rejected")
	}
	if !ledger.RecordDeposit("alice", 25) {
		t.Fatalf("repeat deposit rejected")
	}

	if len(ledger.Depositors) != 2 {
		t.Fatalf("expected 2 depositor records, got %d", len(ledger.Depositors))
	}
	if ledger.Depositors[0].Address != "alice" || ledger.Depositors[0].Position != 0 {
		t.Fatalf("first-deposit order lost: %+v", ledger.Depositors[0])
	}
	if ledger.DepositOf("alice") != 125 || ledger.DepositOf("bob") != 50 {
		t.Fatalf("balances wrong: alice=%d bob=%d", ledger.DepositOf("alice"), ledger.DepositOf("bob"))
	}
	if ledger.Campaign.TotalDeposits != 175 {
		t.Fatalf("total deposits = %d, want 175", ledger.Campaign.TotalDeposits)
	}
}

func TestRecordDepositSumInvariant(t *testing.T) {
	ledger := Ledger{}
	deposits := map[string]uint64{"a": 10, "b": 20, "c": 30}
	for address, amount := range deposits {
		ledger.RecordDeposit(address, amount)
	}
	var sum uint64
	for _, record := range ledger.Depositors {
		sum += record.Amount
	}
	if sum != ledger.Campaign.TotalDeposits {
		t.Fatalf("depositor sum %d != total %d", sum, ledger.Campaign.TotalDeposits)
	}
}

func TestRecordDepositOverflowLeavesLedgerUntouched(t *testing.T) {
	ledger := Ledger{}
	if !ledger.RecordDeposit("alice", math.MaxUint64-1) {
		t.Fatalf("seed deposit rejected")
	}
	if ledger.RecordDeposit("bob", 2) {
		t.Fatalf("overflowing deposit accepted")
	}
	if ledger.Campaign.TotalDeposits != math.MaxUint64-1 {
		t.Fatalf("total changed after rejected deposit")
	}
	if ledger.DepositOf("bob") != 0 {
		t.Fatalf("rejected depositor has balance")
	}
}

func TestRecordDepositZeroAmountRejected(t *testing.T) {
	ledger := Ledger{}
	if ledger.RecordDeposit("alice", 0) {
		t.Fatalf("zero deposit accepted")
	}
}

func TestApplyAllocationsOverwriteAndLastWins(t *testing.T) {
	ledger := Ledger{}
	ledger.RecordDeposit("alice", 100)

	total, ok := ledger.ApplyAllocations([]AllocationRecord{
		{Address: "alice", Amount: 40},
		{Address: "bob", Amount: 30},
	})
	if !ok || total != 70 {
		t.Fatalf("first batch: total=%d ok=%v", total, ok)
	}

	// Second call overwrites listed addresses, leaves others alone.
	total, ok = ledger.ApplyAllocations([]AllocationRecord{
		{Address: "alice", Amount: 10},
	})
	if !ok || total != 40 {
		t.Fatalf("overwrite batch: total=%d ok=%v", total, ok)
	}
	if ledger.AllocationOf("alice") != 10 || ledger.AllocationOf("bob") != 30 {
		t.Fatalf("allocations wrong: alice=%d bob=%d", ledger.AllocationOf("alice"), ledger.AllocationOf("bob"))
	}

	// Repeated address inside one call takes the last value.
	total, ok = ledger.ApplyAllocations([]AllocationRecord{
		{Address: "carol", Amount: 90},
		{Address: "carol", Amount: 5},
	})
	if !ok {
		t.Fatalf("last-wins batch rejected, total=%d", total)
	}
	if ledger.AllocationOf("carol") != 5 {
		t.Fatalf("carol allocation = %d, want 5", ledger.AllocationOf("carol"))
	}
}

func TestApplyAllocationsExceedingDepositsLeavesBookIntact(t *testing.T) {
	ledger := Ledger{}
	ledger.RecordDeposit("alice", 100)
	if _, ok := ledger.ApplyAllocations([]AllocationRecord{{Address: "alice", Amount: 60}}); !ok {
		t.Fatalf("valid batch rejected")
	}

	if _, ok := ledger.ApplyAllocations([]AllocationRecord{{Address: "bob", Amount: 50}}); ok {
		t.Fatalf("over-allocating batch accepted")
	}
	if ledger.AllocationOf("alice") != 60 || ledger.AllocationOf("bob") != 0 {
		t.Fatalf("failed batch mutated the book")
	}
	if ledger.TotalAllocated() != 60 {
		t.Fatalf("total allocated = %d, want 60", ledger.TotalAllocated())
	}
}

func TestClaimFlagRoundTrip(t *testing.T) {
	ledger := Ledger{}
	at := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	if ledger.HasClaimed("alice") {
		t.Fatalf("fresh ledger reports claim")
	}
	ledger.MarkClaimed("alice", at)
	ledger.MarkClaimed("alice", at.Add(time.Hour))
	if !ledger.HasClaimed("alice") {
		t.Fatalf("claim flag not set")
	}
	if len(ledger.Claims) != 1 {
		t.Fatalf("duplicate claim records: %d", len(ledger.Claims))
	}
	ledger.UnmarkClaimed("alice")
	if ledger.HasClaimed("alice") {
		t.Fatalf("claim flag survived rollback")
	}
}

func TestZeroDepositsKeepsDepositorList(t *testing.T) {
	ledger := Ledger{}
	ledger.RecordDeposit("alice", 100)
	ledger.RecordDeposit("bob", 50)

	refunds := ledger.OutstandingRefunds()
	if len(refunds) != 2 || refunds[0].Address != "alice" || refunds[0].Amount != 100 {
		t.Fatalf("unexpected refunds: %+v", refunds)
	}

	ledger.ZeroDeposits()
	if ledger.Campaign.TotalDeposits != 0 {
		t.Fatalf("total not zeroed")
	}
	if len(ledger.Depositors) != 2 {
		t.Fatalf("depositor list truncated on zeroing")
	}
	if len(ledger.OutstandingRefunds()) != 0 {
		t.Fatalf("refunds remain after zeroing")
	}
}

func TestCloneIsDeep(t *testing.T) {
	ledger := Ledger{}
	ledger.RecordDeposit("alice", 100)
	ledger.ApplyAllocations([]AllocationRecord{{Address: "alice", Amount: 10}})

	clone := ledger.Clone()
	clone.RecordDeposit("alice", 50)
	clone.Allocations[0].Amount = 99

	if ledger.DepositOf("alice") != 100 {
		t.Fatalf("clone mutation leaked into depositors")
	}
	if ledger.AllocationOf("alice") != 10 {
		t.Fatalf("clone mutation leaked into allocations")
	}
}

func TestValidateBasicsAndIdentity(t *testing.T) {
	campaign := Campaign{
		Title:        "Launch",
		AssetAddress: "asset-1",
		Owner:        "owner-1",
		FeeRecipient: "fees-1",
	}
	if !campaign.ValidateBasics() {
		t.Fatalf("valid campaign rejected")
	}
	campaign.FeeRecipient = "   "
	if campaign.ValidateBasics() {
		t.Fatalf("blank fee recipient accepted")
	}
	if ValidIdentity("  ") || !ValidIdentity(" x ") {
		t.Fatalf("identity validation wrong")
	}
	if !campaign.IsOwner(" owner-1 ") || campaign.IsOwner("other") || campaign.IsOwner("  ") {
		t.Fatalf("owner check wrong")
	}
}
