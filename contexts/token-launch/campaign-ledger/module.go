package campaignledger

import (
	"log/slog"
	"time"

	httpadapter "launchpad/contexts/token-launch/campaign-ledger/adapters/http"
	"launchpad/contexts/token-launch/campaign-ledger/adapters/memory"
	"launchpad/contexts/token-launch/campaign-ledger/application/commands"
	"launchpad/contexts/token-launch/campaign-ledger/application/queries"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
	Bank    *memory.Bank
}

type Dependencies struct {
	Ledgers        ports.LedgerRepository
	Bank           ports.AssetBank
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createCampaign := commands.CreateCampaignUseCase{
		Ledgers: deps.Ledgers,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Logger:  deps.Logger,
	}
	deposit := commands.DepositUseCase{
		Ledgers:        deps.Ledgers,
		Bank:           deps.Bank,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	changePhase := commands.ChangePhaseUseCase{
		Ledgers: deps.Ledgers,
		Bank:    deps.Bank,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Logger:  deps.Logger,
	}
	setAllocations := commands.SetAllocationsUseCase{
		Ledgers: deps.Ledgers,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Logger:  deps.Logger,
	}
	claimTokens := commands.ClaimTokensUseCase{
		Ledgers: deps.Ledgers,
		Bank:    deps.Bank,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Logger:  deps.Logger,
	}
	rescueRemaining := commands.RescueRemainingUseCase{
		Ledgers: deps.Ledgers,
		Bank:    deps.Bank,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Logger:  deps.Logger,
	}
	withdrawNative := commands.WithdrawNativeUseCase{
		Ledgers: deps.Ledgers,
		Bank:    deps.Bank,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Logger:  deps.Logger,
	}
	updateFeeRecipient := commands.UpdateFeeRecipientUseCase{
		Ledgers: deps.Ledgers,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Logger:  deps.Logger,
	}

	getCampaign := queries.GetCampaignUseCase{
		Ledgers: deps.Ledgers,
		Logger:  deps.Logger,
	}
	listCampaigns := queries.ListCampaignsUseCase{
		Ledgers: deps.Ledgers,
		Logger:  deps.Logger,
	}
	listDepositors := queries.ListDepositorsUseCase{
		Ledgers: deps.Ledgers,
		Logger:  deps.Logger,
	}
	getPosition := queries.GetPositionUseCase{
		Ledgers: deps.Ledgers,
		Logger:  deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateCampaign:     createCampaign,
			Deposit:            deposit,
			ChangePhase:        changePhase,
			SetAllocations:     setAllocations,
			ClaimTokens:        claimTokens,
			RescueRemaining:    rescueRemaining,
			WithdrawNative:     withdrawNative,
			UpdateFeeRecipient: updateFeeRecipient,
			GetCampaign:        getCampaign,
			ListCampaigns:      listCampaigns,
			ListDepositors:     listDepositors,
			GetPosition:        getPosition,
			Logger:             deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-process store and bank.
// Used by tests and local runs; production wiring swaps in postgres and a
// real asset bridge.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	bank := memory.NewBank()
	module := NewModule(Dependencies{
		Ledgers:        store,
		Bank:           bank,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	module.Bank = bank
	return module
}
