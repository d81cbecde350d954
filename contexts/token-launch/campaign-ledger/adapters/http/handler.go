package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"launchpad/contexts/token-launch/campaign-ledger/application/commands"
	"launchpad/contexts/token-launch/campaign-ledger/application/queries"
	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"
	httptransport "launchpad/contexts/token-launch/campaign-ledger/transport/http"
)

// Handler adapts ledger use cases to transport DTOs. Callers are identified
// by address only; authentication sits outside this module.
type Handler struct {
	CreateCampaign     commands.CreateCampaignUseCase
	Deposit            commands.DepositUseCase
	ChangePhase        commands.ChangePhaseUseCase
	SetAllocations     commands.SetAllocationsUseCase
	ClaimTokens        commands.ClaimTokensUseCase
	RescueRemaining    commands.RescueRemainingUseCase
	WithdrawNative     commands.WithdrawNativeUseCase
	UpdateFeeRecipient commands.UpdateFeeRecipientUseCase
	GetCampaign        queries.GetCampaignUseCase
	ListCampaigns      queries.ListCampaignsUseCase
	ListDepositors     queries.ListDepositorsUseCase
	GetPosition        queries.GetPositionUseCase
	Logger             *slog.Logger
}

func (h Handler) CreateCampaignHandler(
	ctx context.Context,
	callerAddress string,
	req httptransport.CreateCampaignRequest,
) (httptransport.CreateCampaignResponse, error) {
	campaign, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		Title:        req.Title,
		AssetAddress: req.AssetAddress,
		Owner:        callerAddress,
		FeeRecipient: req.FeeRecipient,
		DepositFee:   req.DepositFee,
	})
	if err != nil {
		return httptransport.CreateCampaignResponse{}, err
	}
	return httptransport.CreateCampaignResponse{Campaign: mapCampaign(campaign)}, nil
}

func (h Handler) DepositHandler(
	ctx context.Context,
	callerAddress string,
	idempotencyKey string,
	campaignID string,
	req httptransport.DepositRequest,
) (httptransport.DepositResponse, error) {
	result, replayed, err := h.Deposit.Execute(ctx, idempotencyKey, commands.DepositCommand{
		CampaignID:  campaignID,
		Depositor:   callerAddress,
		Amount:      req.Amount,
		SidePayment: req.SidePayment,
	})
	if err != nil {
		return httptransport.DepositResponse{}, err
	}
	return httptransport.DepositResponse{
		CampaignID:     result.CampaignID,
		Depositor:      result.Depositor,
		Amount:         result.Amount,
		DepositBalance: result.DepositBalance,
		TotalDeposits:  result.TotalDeposits,
		RecordedAt:     result.RecordedAt,
		Replayed:       replayed,
	}, nil
}

func (h Handler) ChangePhaseHandler(
	ctx context.Context,
	callerAddress string,
	campaignID string,
	req httptransport.ChangePhaseRequest,
) error {
	action, ok := parsePhaseAction(req.Action)
	if !ok {
		return domainerrors.ErrInvalidStateTransition
	}
	return h.ChangePhase.Execute(ctx, commands.ChangePhaseCommand{
		CampaignID: campaignID,
		CallerID:   callerAddress,
		Action:     action,
	})
}

func (h Handler) SetAllocationsHandler(
	ctx context.Context,
	callerAddress string,
	campaignID string,
	req httptransport.SetAllocationsRequest,
) error {
	return h.SetAllocations.Execute(ctx, commands.SetAllocationsCommand{
		CampaignID: campaignID,
		CallerID:   callerAddress,
		Identities: append([]string(nil), req.Identities...),
		Amounts:    append([]uint64(nil), req.Amounts...),
	})
}

func (h Handler) ClaimTokensHandler(
	ctx context.Context,
	callerAddress string,
	campaignID string,
) (httptransport.ClaimResponse, error) {
	result, err := h.ClaimTokens.Execute(ctx, commands.ClaimTokensCommand{
		CampaignID: campaignID,
		CallerID:   callerAddress,
	})
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{
		CampaignID: result.CampaignID,
		Claimant:   result.Claimant,
		Amount:     result.Amount,
	}, nil
}

func (h Handler) RescueRemainingHandler(
	ctx context.Context,
	callerAddress string,
	campaignID string,
) (httptransport.RescueRemainingResponse, error) {
	result, err := h.RescueRemaining.Execute(ctx, commands.RescueRemainingCommand{
		CampaignID: campaignID,
		CallerID:   callerAddress,
	})
	if err != nil {
		return httptransport.RescueRemainingResponse{}, err
	}
	return httptransport.RescueRemainingResponse{
		CampaignID:     result.CampaignID,
		Surplus:        result.Surplus,
		HeldBalance:    result.HeldBalance,
		TotalAllocated: result.TotalAllocated,
	}, nil
}

func (h Handler) WithdrawNativeHandler(
	ctx context.Context,
	callerAddress string,
	campaignID string,
) (httptransport.WithdrawNativeResponse, error) {
	result, err := h.WithdrawNative.Execute(ctx, commands.WithdrawNativeCommand{
		CampaignID: campaignID,
		CallerID:   callerAddress,
	})
	if err != nil {
		return httptransport.WithdrawNativeResponse{}, err
	}
	return httptransport.WithdrawNativeResponse{
		CampaignID: result.CampaignID,
		Amount:     result.Amount,
	}, nil
}

func (h Handler) UpdateFeeRecipientHandler(
	ctx context.Context,
	callerAddress string,
	campaignID string,
	req httptransport.UpdateFeeRecipientRequest,
) error {
	return h.UpdateFeeRecipient.Execute(ctx, commands.UpdateFeeRecipientCommand{
		CampaignID: campaignID,
		CallerID:   callerAddress,
		Recipient:  req.FeeRecipient,
	})
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (httptransport.GetCampaignResponse, error) {
	item, err := h.GetCampaign.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	return httptransport.GetCampaignResponse{Campaign: mapCampaign(item)}, nil
}

func (h Handler) ListCampaignsHandler(ctx context.Context, owner string, phase string) (httptransport.ListCampaignsResponse, error) {
	items, err := h.ListCampaigns.Execute(ctx, ports.CampaignFilter{
		Owner: owner,
		Phase: entities.Phase(phase),
	})
	if err != nil {
		return httptransport.ListCampaignsResponse{}, err
	}
	result := make([]httptransport.CampaignDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapCampaign(item))
	}
	return httptransport.ListCampaignsResponse{Items: result}, nil
}

func (h Handler) ListDepositorsHandler(ctx context.Context, campaignID string) (httptransport.ListDepositorsResponse, error) {
	items, err := h.ListDepositors.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.ListDepositorsResponse{}, err
	}
	result := make([]httptransport.DepositorDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.DepositorDTO{
			Address:  item.Address,
			Amount:   item.Amount,
			Position: item.Position,
		})
	}
	return httptransport.ListDepositorsResponse{Items: result}, nil
}

func (h Handler) GetPositionHandler(
	ctx context.Context,
	campaignID string,
	address string,
) (httptransport.PositionResponse, error) {
	position, err := h.GetPosition.Execute(ctx, campaignID, address)
	if err != nil {
		return httptransport.PositionResponse{}, err
	}
	return httptransport.PositionResponse{
		Address:   position.Address,
		Deposited: position.Deposited,
		Allocated: position.Allocated,
		Claimed:   position.Claimed,
	}, nil
}

func mapCampaign(item entities.Campaign) httptransport.CampaignDTO {
	return httptransport.CampaignDTO{
		CampaignID:     item.CampaignID,
		Title:          item.Title,
		AssetAddress:   item.AssetAddress,
		Owner:          item.Owner,
		FeeRecipient:   item.FeeRecipient,
		CustodyAccount: item.CustodyAccount,
		DepositFee:     item.DepositFee,
		Phase:          string(item.Phase),
		TotalDeposits:  item.TotalDeposits,
		CreatedAt:      item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      item.UpdatedAt.Format(time.RFC3339),
	}
}

func parsePhaseAction(raw string) (commands.ChangePhaseAction, bool) {
	switch commands.ChangePhaseAction(raw) {
	case commands.PhaseActionGoLive:
		return commands.PhaseActionGoLive, true
	case commands.PhaseActionEnd:
		return commands.PhaseActionEnd, true
	case commands.PhaseActionRescue:
		return commands.PhaseActionRescue, true
	default:
		return "", false
	}
}
