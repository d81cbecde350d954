package postgresadapter

import (
	"strings"
	"time"

	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
)

type campaignModel struct {
	CampaignID     string    `gorm:"column:campaign_id;primaryKey"`
	Title          string    `gorm:"column:title"`
	AssetAddress   string    `gorm:"column:asset_address"`
	Owner          string    `gorm:"column:owner"`
	FeeRecipient   string    `gorm:"column:fee_recipient"`
	CustodyAccount string    `gorm:"column:custody_account"`
	DepositFee     uint64    `gorm:"column:deposit_fee"`
	Phase          string    `gorm:"column:phase"`
	TotalDeposits  uint64    `gorm:"column:total_deposits"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string {
	return "campaigns"
}

type depositorModel struct {
	CampaignID string `gorm:"column:campaign_id;primaryKey"`
	Address    string `gorm:"column:address;primaryKey"`
	Amount     uint64 `gorm:"column:amount"`
	Position   int    `gorm:"column:position"`
}

func (depositorModel) TableName() string {
	return "campaign_depositors"
}

type allocationModel struct {
	CampaignID string `gorm:"column:campaign_id;primaryKey"`
	Address    string `gorm:"column:address;primaryKey"`
	Amount     uint64 `gorm:"column:amount"`
}

func (allocationModel) TableName() string {
	return "campaign_allocations"
}

type claimModel struct {
	CampaignID string    `gorm:"column:campaign_id;primaryKey"`
	Address    string    `gorm:"column:address;primaryKey"`
	ClaimedAt  time.Time `gorm:"column:claimed_at"`
}

func (claimModel) TableName() string {
	return "campaign_claims"
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "campaign_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "campaign_outbox"
}

func campaignModelFromEntity(item entities.Campaign) campaignModel {
	return campaignModel{
		CampaignID:     strings.TrimSpace(item.CampaignID),
		Title:          item.Title,
		AssetAddress:   item.AssetAddress,
		Owner:          item.Owner,
		FeeRecipient:   item.FeeRecipient,
		CustodyAccount: item.CustodyAccount,
		DepositFee:     item.DepositFee,
		Phase:          string(item.Phase),
		TotalDeposits:  item.TotalDeposits,
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
}

func (m campaignModel) toEntity() entities.Campaign {
	return entities.Campaign{
		CampaignID:     m.CampaignID,
		Title:          m.Title,
		AssetAddress:   m.AssetAddress,
		Owner:          m.Owner,
		FeeRecipient:   m.FeeRecipient,
		CustodyAccount: m.CustodyAccount,
		DepositFee:     m.DepositFee,
		Phase:          entities.Phase(m.Phase),
		TotalDeposits:  m.TotalDeposits,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
