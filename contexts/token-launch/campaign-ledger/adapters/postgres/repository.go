package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"launchpad/contexts/token-launch/campaign-ledger/domain/entities"
	domainerrors "launchpad/contexts/token-launch/campaign-ledger/domain/errors"
	"launchpad/contexts/token-launch/campaign-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository stores campaign ledgers across the campaigns, depositor,
// allocation and claim tables. SaveLedger replaces the child tables inside
// one transaction so a ledger is never observed half-written.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateLedger(ctx context.Context, ledger entities.Ledger, events ...ports.EventEnvelope) error {
	row := campaignModelFromEntity(ledger.Campaign)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidCampaignInput
			}
			return err
		}
		if err := writeLedgerChildren(tx, ledger); err != nil {
			return err
		}
		return appendOutboxTx(tx, events)
	})
}

func (r *Repository) GetLedger(ctx context.Context, campaignID string) (entities.Ledger, error) {
	id := strings.TrimSpace(campaignID)

	var campaignRow campaignModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", id).
		First(&campaignRow).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ledger{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Ledger{}, err
	}

	var depositorRows []depositorModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", id).
		Order("position ASC").
		Find(&depositorRows).
		Error; err != nil {
		return entities.Ledger{}, err
	}

	var allocationRows []allocationModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", id).
		Order("address ASC").
		Find(&allocationRows).
		Error; err != nil {
		return entities.Ledger{}, err
	}

	var claimRows []claimModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", id).
		Order("claimed_at ASC").
		Find(&claimRows).
		Error; err != nil {
		return entities.Ledger{}, err
	}

	ledger := entities.Ledger{Campaign: campaignRow.toEntity()}
	for _, row := range depositorRows {
		ledger.Depositors = append(ledger.Depositors, entities.DepositorRecord{
			Address:  row.Address,
			Amount:   row.Amount,
			Position: row.Position,
		})
	}
	for _, row := range allocationRows {
		ledger.Allocations = append(ledger.Allocations, entities.AllocationRecord{
			Address: row.Address,
			Amount:  row.Amount,
		})
	}
	for _, row := range claimRows {
		ledger.Claims = append(ledger.Claims, entities.ClaimRecord{
			Address:   row.Address,
			ClaimedAt: row.ClaimedAt.UTC(),
		})
	}
	return ledger, nil
}

func (r *Repository) SaveLedger(ctx context.Context, ledger entities.Ledger, events ...ports.EventEnvelope) error {
	row := campaignModelFromEntity(ledger.Campaign)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&campaignModel{}).
			Where("campaign_id = ?", row.CampaignID).
			Updates(map[string]any{
				"title":          row.Title,
				"asset_address":  row.AssetAddress,
				"owner":          row.Owner,
				"fee_recipient":  row.FeeRecipient,
				"deposit_fee":    row.DepositFee,
				"phase":          row.Phase,
				"total_deposits": row.TotalDeposits,
				"updated_at":     row.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrCampaignNotFound
		}

		for _, model := range []any{&depositorModel{}, &allocationModel{}, &claimModel{}} {
			if err := tx.Where("campaign_id = ?", row.CampaignID).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := writeLedgerChildren(tx, ledger); err != nil {
			return err
		}
		return appendOutboxTx(tx, events)
	})
}

func writeLedgerChildren(tx *gorm.DB, ledger entities.Ledger) error {
	id := strings.TrimSpace(ledger.Campaign.CampaignID)

	if len(ledger.Depositors) > 0 {
		rows := make([]depositorModel, 0, len(ledger.Depositors))
		for _, item := range ledger.Depositors {
			rows = append(rows, depositorModel{
				CampaignID: id,
				Address:    item.Address,
				Amount:     item.Amount,
				Position:   item.Position,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(ledger.Allocations) > 0 {
		rows := make([]allocationModel, 0, len(ledger.Allocations))
		for _, item := range ledger.Allocations {
			rows = append(rows, allocationModel{
				CampaignID: id,
				Address:    item.Address,
				Amount:     item.Amount,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(ledger.Claims) > 0 {
		rows := make([]claimModel, 0, len(ledger.Claims))
		for _, item := range ledger.Claims {
			rows = append(rows, claimModel{
				CampaignID: id,
				Address:    item.Address,
				ClaimedAt:  item.ClaimedAt.UTC(),
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	tx := r.db.WithContext(ctx).Model(&campaignModel{})
	if strings.TrimSpace(filter.Owner) != "" {
		tx = tx.Where("owner = ?", strings.TrimSpace(filter.Owner))
	}
	if filter.Phase != "" {
		tx = tx.Where("phase = ?", string(filter.Phase))
	}

	var rows []campaignModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: append([]byte(nil), record.ResponsePayload...),
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != row.RequestHash || !bytes.Equal(existing.ResponsePayload, row.ResponsePayload) {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	return appendOutboxTx(r.db.WithContext(ctx), []ports.EventEnvelope{envelope})
}

// appendOutboxTx inserts envelopes on the given handle, which inside a
// ledger save is the save's own transaction; events and state then commit
// or roll back together.
func appendOutboxTx(tx *gorm.DB, events []ports.EventEnvelope) error {
	for _, envelope := range events {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		row := outboxModel{
			OutboxID:     strings.TrimSpace(envelope.EventID),
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		}
		if row.OutboxID == "" {
			row.OutboxID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}

		createResult := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "outbox_id"}},
				DoNothing: true,
			}).
			Create(&row)
		if createResult.Error != nil {
			return createResult.Error
		}
		if createResult.RowsAffected > 0 {
			continue
		}

		var existing outboxModel
		if err := tx.
			Select("payload").
			Where("outbox_id = ?", row.OutboxID).
			First(&existing).
			Error; err != nil {
			return err
		}
		if !bytes.Equal(existing.Payload, row.Payload) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidCampaignInput
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
