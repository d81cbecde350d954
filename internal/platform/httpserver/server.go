package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	campaignledger "launchpad/contexts/token-launch/campaign-ledger"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	ledgerhttp "launchpad/contexts/token-launch/campaign-ledger/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "launchpad/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	ledger campaignledger.Module
}

func New(ledger campaignledger.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		ledger: ledger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/campaigns", s.handleCreateCampaign)
	s.mux.HandleFunc("GET /v1/campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/deposits", s.handleDeposit)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/phase", s.handleChangePhase)
	s.mux.HandleFunc("PUT /v1/campaigns/{campaign_id}/allocations", s.handleSetAllocations)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/claims", s.handleClaimTokens)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/rescue-remaining", s.handleRescueRemaining)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/withdraw-native", s.handleWithdrawNative)
	s.mux.HandleFunc("PUT /v1/campaigns/{campaign_id}/fee-recipient", s.handleUpdateFeeRecipient)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}/depositors", s.handleListDepositors)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}/positions/{address}", s.handleGetPosition)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.CreateCampaignHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.ledger.Handler.ListCampaignsHandler(r.Context(), query.Get("owner"), query.Get("phase"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetCampaignHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.DepositHandler(
		r.Context(),
		caller,
		r.Header.Get("Idempotency-Key"),
		r.PathValue("campaign_id"),
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangePhase(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.ChangePhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.ledger.Handler.ChangePhaseHandler(r.Context(), caller, r.PathValue("campaign_id"), req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetAllocations(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.SetAllocationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.ledger.Handler.SetAllocationsHandler(r.Context(), caller, r.PathValue("campaign_id"), req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClaimTokens(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}

	resp, err := s.ledger.Handler.ClaimTokensHandler(r.Context(), caller, r.PathValue("campaign_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRescueRemaining(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}

	resp, err := s.ledger.Handler.RescueRemainingHandler(r.Context(), caller, r.PathValue("campaign_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawNative(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}

	resp, err := s.ledger.Handler.WithdrawNativeHandler(r.Context(), caller, r.PathValue("campaign_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateFeeRecipient(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddress(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.UpdateFeeRecipientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.ledger.Handler.UpdateFeeRecipientHandler(r.Context(), caller, r.PathValue("campaign_id"), req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDepositors(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListDepositorsHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetPositionHandler(
		r.Context(),
		r.PathValue("campaign_id"),
		r.PathValue("address"),
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func callerAddress(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := strings.TrimSpace(r.Header.Get("X-Caller-Address"))
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return "", false
	}
	return caller, true
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrCampaignNotFound):
		writeLedgerError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidCampaignInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_campaign_input", err.Error())
	case errors.Is(err, domainerrors.ErrUnauthorized):
		writeLedgerError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, domainerrors.ErrIllegalStateForOperation):
		writeLedgerError(w, http.StatusConflict, "illegal_state", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidStateTransition):
		writeLedgerError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidAmount):
		writeLedgerError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidIdentity):
		writeLedgerError(w, http.StatusBadRequest, "invalid_identity", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidSidePayment):
		writeLedgerError(w, http.StatusBadRequest, "invalid_side_payment", err.Error())
	case errors.Is(err, domainerrors.ErrLengthMismatch):
		writeLedgerError(w, http.StatusBadRequest, "length_mismatch", err.Error())
	case errors.Is(err, domainerrors.ErrAllocationExceedsDeposits):
		writeLedgerError(w, http.StatusUnprocessableEntity, "allocation_exceeds_deposits", err.Error())
	case errors.Is(err, domainerrors.ErrNoAllocation):
		writeLedgerError(w, http.StatusNotFound, "no_allocation", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyClaimed):
		writeLedgerError(w, http.StatusConflict, "already_claimed", err.Error())
	case errors.Is(err, domainerrors.ErrNoResidual):
		writeLedgerError(w, http.StatusConflict, "no_residual", err.Error())
	case errors.Is(err, domainerrors.ErrNothingToWithdraw):
		writeLedgerError(w, http.StatusConflict, "nothing_to_withdraw", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyKeyRequired):
		writeLedgerError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyKeyConflict):
		writeLedgerError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, domainerrors.ErrAssetTransferFailed):
		writeLedgerError(w, http.StatusBadGateway, "asset_transfer_failed", err.Error())
	case errors.Is(err, domainerrors.ErrFeeForwardingFailed):
		writeLedgerError(w, http.StatusBadGateway, "fee_forwarding_failed", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
