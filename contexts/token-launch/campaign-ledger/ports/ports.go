package ports

import (
	"context"
	"time"

	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	contractsv1 "launchpad/contracts/gen/events/v1"
)

// NativeAsset is the reserved asset key for the execution environment's
// native currency inside an AssetBank.
const NativeAsset = "native"

type CampaignFilter struct {
	Owner string
	Phase entities.Phase
}

// LedgerRepository persists whole campaign ledgers. CreateLedger and
// SaveLedger commit campaign row, depositor list, allocation book, claim
// registry and any given outbox envelopes atomically; a failed save leaves
// the stored ledger untouched and writes no envelope.
type LedgerRepository interface {
	CreateLedger(ctx context.Context, ledger entities.Ledger, events ...EventEnvelope) error
	GetLedger(ctx context.Context, campaignID string) (entities.Ledger, error)
	SaveLedger(ctx context.Context, ledger entities.Ledger, events ...EventEnvelope) error
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]entities.Campaign, error)
}

type AssetTransfer struct {
	To     string
	Amount uint64
}

// AssetBank is the external fungible-asset transfer primitive. Every call
// may fail independently of the ledger; TransferBatch is all-or-nothing
// across its transfers.
type AssetBank interface {
	Transfer(ctx context.Context, asset string, from string, to string, amount uint64) error
	TransferBatch(ctx context.Context, asset string, from string, transfers []AssetTransfer) error
	Balance(ctx context.Context, asset string, account string) (uint64, error)
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
