package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateCampaignRequest struct {
	Title        string `json:"title"`
	AssetAddress string `json:"asset_address"`
	FeeRecipient string `json:"fee_recipient"`
	DepositFee   uint64 `json:"deposit_fee"`
}

type CampaignDTO struct {
	CampaignID     string `json:"campaign_id"`
	Title          string `json:"title"`
	AssetAddress   string `json:"asset_address"`
	Owner          string `json:"owner"`
	FeeRecipient   string `json:"fee_recipient"`
	CustodyAccount string `json:"custody_account"`
	DepositFee     uint64 `json:"deposit_fee"`
	Phase          string `json:"phase"`
	TotalDeposits  uint64 `json:"total_deposits"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type CreateCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type GetCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type ListCampaignsResponse struct {
	Items []CampaignDTO `json:"items"`
}

type DepositRequest struct {
	Amount      uint64 `json:"amount"`
	SidePayment uint64 `json:"side_payment"`
}

type DepositResponse struct {
	CampaignID     string `json:"campaign_id"`
	Depositor      string `json:"depositor"`
	Amount         uint64 `json:"amount"`
	DepositBalance uint64 `json:"deposit_balance"`
	TotalDeposits  uint64 `json:"total_deposits"`
	RecordedAt     string `json:"recorded_at"`
	Replayed       bool   `json:"replayed"`
}

type ChangePhaseRequest struct {
	Action string `json:"action"`
}

type SetAllocationsRequest struct {
	Identities []string `json:"identities"`
	Amounts    []uint64 `json:"amounts"`
}

type ClaimResponse struct {
	CampaignID string `json:"campaign_id"`
	Claimant   string `json:"claimant"`
	Amount     uint64 `json:"amount"`
}

type RescueRemainingResponse struct {
	CampaignID     string `json:"campaign_id"`
	Surplus        uint64 `json:"surplus"`
	HeldBalance    uint64 `json:"held_balance"`
	TotalAllocated uint64 `json:"total_allocated"`
}

type WithdrawNativeResponse struct {
	CampaignID string `json:"campaign_id"`
	Amount     uint64 `json:"amount"`
}

type UpdateFeeRecipientRequest struct {
	FeeRecipient string `json:"fee_recipient"`
}

type DepositorDTO struct {
	Address  string `json:"address"`
	Amount   uint64 `json:"amount"`
	Position int    `json:"position"`
}

type ListDepositorsResponse struct {
	Items []DepositorDTO `json:"items"`
}

type PositionResponse struct {
	Address   string `json:"address"`
	Deposited uint64 `json:"deposited"`
	Allocated uint64 `json:"allocated"`
	Claimed   bool   `json:"claimed"`
}
