package errors

import "errors"

var (
	ErrCampaignNotFound          = errors.New("campaign not found")
	ErrInvalidCampaignInput      = errors.New("invalid campaign input")
	ErrUnauthorized              = errors.New("caller is not the campaign owner")
	ErrIllegalStateForOperation  = errors.New("operation not legal in current phase")
	ErrInvalidStateTransition    = errors.New("invalid campaign phase transition")
	ErrInvalidAmount             = errors.New("amount must be positive")
	ErrInvalidIdentity           = errors.New("identity must be non-zero")
	ErrInvalidSidePayment        = errors.New("side payment must equal the deposit fee exactly")
	ErrLengthMismatch            = errors.New("identities and amounts length mismatch")
	ErrAllocationExceedsDeposits = errors.New("allocation total exceeds total deposits")
	ErrNoAllocation              = errors.New("caller has no allocation")
	ErrAlreadyClaimed            = errors.New("allocation already claimed")
	ErrAssetTransferFailed       = errors.New("asset transfer failed")
	ErrFeeForwardingFailed       = errors.New("fee forwarding failed")
	ErrNoResidual                = errors.New("no residual balance to sweep")
	ErrNothingToWithdraw         = errors.New("no native balance to withdraw")
	ErrIdempotencyKeyRequired    = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict    = errors.New("idempotency key conflict")
)
