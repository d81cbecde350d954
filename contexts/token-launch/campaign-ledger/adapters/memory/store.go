package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"

	"github.com/google/uuid"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Store keeps whole campaign ledgers in memory. Every read hands out a
// deep copy and every save swaps the stored copy in one step under the
// lock, which is what makes each use case all-or-nothing.
type Store struct {
	mu sync.RWMutex

	ledgers     map[string]entities.Ledger
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

func NewStore() *Store {
	return &Store{
		ledgers:     make(map[string]entities.Ledger),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreateLedger(_ context.Context, ledger entities.Ledger, events ...ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(ledger.Campaign.CampaignID)
	if id == "" {
		return domainerrors.ErrInvalidCampaignInput
	}
	if _, exists := s.ledgers[id]; exists {
		return domainerrors.ErrInvalidCampaignInput
	}
	rows, err := s.stageOutbox(events)
	if err != nil {
		return err
	}
	s.ledgers[id] = ledger.Clone()
	s.commitOutbox(rows)
	return nil
}

func (s *Store) GetLedger(_ context.Context, campaignID string) (entities.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, ok := s.ledgers[strings.TrimSpace(campaignID)]
	if !ok {
		return entities.Ledger{}, domainerrors.ErrCampaignNotFound
	}
	return ledger.Clone(), nil
}

func (s *Store) SaveLedger(_ context.Context, ledger entities.Ledger, events ...ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(ledger.Campaign.CampaignID)
	if _, ok := s.ledgers[id]; !ok {
		return domainerrors.ErrCampaignNotFound
	}
	rows, err := s.stageOutbox(events)
	if err != nil {
		return err
	}
	s.ledgers[id] = ledger.Clone()
	s.commitOutbox(rows)
	return nil
}

func (s *Store) ListCampaigns(_ context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Campaign, 0, len(s.ledgers))
	for _, ledger := range s.ledgers {
		campaign := ledger.Campaign
		if strings.TrimSpace(filter.Owner) != "" && campaign.Owner != strings.TrimSpace(filter.Owner) {
			continue
		}
		if filter.Phase != "" && campaign.Phase != filter.Phase {
			continue
		}
		items = append(items, campaign)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrIdempotencyKeyRequired
	}
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.stageOutbox([]ports.EventEnvelope{envelope})
	if err != nil {
		return err
	}
	s.commitOutbox(rows)
	return nil
}

// stageOutbox validates envelopes against the dedupe rules without touching
// the outbox, so a save can fail before any state changes. Duplicate event
// IDs with identical payloads are dropped; differing payloads conflict.
func (s *Store) stageOutbox(events []ports.EventEnvelope) ([]ports.OutboxMessage, error) {
	rows := make([]ports.OutboxMessage, 0, len(events))
	for _, envelope := range events {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return nil, err
		}
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			return nil, domainerrors.ErrInvalidCampaignInput
		}
		if existing, ok := s.outbox[outboxID]; ok {
			if !bytes.Equal(existing.Message.Payload, payload) {
				return nil, domainerrors.ErrIdempotencyKeyConflict
			}
			continue
		}
		rows = append(rows, ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		})
	}
	return rows, nil
}

func (s *Store) commitOutbox(rows []ports.OutboxMessage) {
	for _, row := range rows {
		s.outbox[row.OutboxID] = outboxRecord{
			Message: row,
			Status:  outboxStatusPending,
		}
	}
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrCampaignNotFound
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
