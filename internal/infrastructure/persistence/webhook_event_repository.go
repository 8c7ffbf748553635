package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var claimableStatuses = []webhook.Status{webhook.StatusPending, webhook.StatusFailed}

// GormWebhookEventRepository implements webhook.EventRepository using GORM
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// RecordIfNew inserts the event, relying on the (shop_domain, platform_event_id)
// unique index to reject redeliveries without touching the stored row.
func (r *GormWebhookEventRepository) RecordIfNew(ctx context.Context, event *webhook.WebhookEvent) (webhook.RecordResult, error) {
	model := models.WebhookEventModelFromDomain(event)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_domain"}, {Name: "platform_event_id"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return webhook.RecordDuplicate, nil
	}
	return webhook.RecordInserted, nil
}

// Claim moves the event to processing with a single conditional UPDATE so
// that only one of several concurrent processors wins.
func (r *GormWebhookEventRepository) Claim(ctx context.Context, event *webhook.WebhookEvent, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WebhookEventModel{}).
		Where("id = ? AND status IN ?", event.ID, claimableStatuses).
		Updates(map[string]any{
			"status":     webhook.StatusProcessing,
			"claimed_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	event.Status = webhook.StatusProcessing
	event.ClaimedAt = &now
	event.UpdatedAt = now
	return true, nil
}

// SaveOutcome persists the result of an apply attempt. It only updates a row
// still in processing so a released claim cannot be overwritten.
func (r *GormWebhookEventRepository) SaveOutcome(ctx context.Context, event *webhook.WebhookEvent) error {
	result := r.db.WithContext(ctx).
		Model(&models.WebhookEventModel{}).
		Where("id = ? AND status = ?", event.ID, webhook.StatusProcessing).
		Updates(map[string]any{
			"status":          event.Status,
			"attempts":        event.Attempts,
			"last_error":      event.LastError,
			"last_error_kind": string(event.LastErrorKind),
			"outcome":         string(event.Outcome),
			"next_retry_at":   event.NextRetryAt,
			"processed_at":    event.ProcessedAt,
			"updated_at":      event.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return webhook.ErrEventNotClaimed
	}
	return nil
}

// ListPending returns events eligible for another attempt at now
func (r *GormWebhookEventRepository) ListPending(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*webhook.WebhookEvent, error) {
	var rows []models.WebhookEventModel
	err := r.retryable(ctx, maxAttempts).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("received_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toWebhookEvents(rows), nil
}

// CountRetryable counts pending and failed events below the attempt ceiling
func (r *GormWebhookEventRepository) CountRetryable(ctx context.Context, maxAttempts int) (int64, error) {
	var count int64
	err := r.retryable(ctx, maxAttempts).Count(&count).Error
	return count, err
}

func (r *GormWebhookEventRepository) retryable(ctx context.Context, maxAttempts int) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.WebhookEventModel{}).
		Where("status IN ?", claimableStatuses).
		Where("attempts < ?", maxAttempts)
}

// FindByID retrieves a single event
func (r *GormWebhookEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*webhook.WebhookEvent, error) {
	var model models.WebhookEventModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPlatformID retrieves an event by its deduplication identity
func (r *GormWebhookEventRepository) FindByPlatformID(ctx context.Context, shopDomain, platformEventID string) (*webhook.WebhookEvent, error) {
	var model models.WebhookEventModel
	err := r.db.WithContext(ctx).
		Where("shop_domain = ? AND platform_event_id = ?", shared.NormalizeShopDomain(shopDomain), platformEventID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByStatus pages through events in a status. An empty status lists all.
func (r *GormWebhookEventRepository) ListByStatus(ctx context.Context, status webhook.Status, filter shared.Filter) ([]*webhook.WebhookEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WebhookEventModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if shop, ok := filter.String("shop_domain"); ok {
		query = query.Where("shop_domain = ?", shared.NormalizeShopDomain(shop))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WebhookEventModel
	err := query.
		Order(webhookEventSort.Clause(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toWebhookEvents(rows), total, nil
}

// CountByStatus returns count of events for each status
func (r *GormWebhookEventRepository) CountByStatus(ctx context.Context) (map[webhook.Status]int64, error) {
	type statusCount struct {
		Status webhook.Status
		Count  int64
	}

	var results []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.WebhookEventModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[webhook.Status]int64)
	for _, c := range results {
		counts[c.Status] = c.Count
	}
	return counts, nil
}

// Update persists every column of the event
func (r *GormWebhookEventRepository) Update(ctx context.Context, event *webhook.WebhookEvent) error {
	return r.db.WithContext(ctx).Save(models.WebhookEventModelFromDomain(event)).Error
}

// ReleaseStaleClaims fails events whose claim is older than before. The
// expired claim counts as an attempt, so an event that keeps killing its
// worker is exhausted at maxAttempts instead of cycling forever.
func (r *GormWebhookEventRepository) ReleaseStaleClaims(ctx context.Context, before time.Time, maxAttempts int) (int64, error) {
	now := shared.Now()
	var released int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, step := range []struct {
			status webhook.Status
			where  string
		}{
			{webhook.StatusExhausted, "attempts + 1 >= ?"},
			{webhook.StatusFailed, "attempts + 1 < ?"},
		} {
			result := tx.Model(&models.WebhookEventModel{}).
				Where("status = ? AND claimed_at < ?", webhook.StatusProcessing, before).
				Where(step.where, maxAttempts).
				Updates(map[string]any{
					"status":          step.status,
					"attempts":        gorm.Expr("attempts + 1"),
					"last_error":      "claim expired before an outcome was recorded",
					"last_error_kind": string(webhook.ErrorKindTransient),
					"next_retry_at":   nil,
					"updated_at":      now,
				})
			if result.Error != nil {
				return result.Error
			}
			released += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

func toWebhookEvents(rows []models.WebhookEventModel) []*webhook.WebhookEvent {
	events := make([]*webhook.WebhookEvent, len(rows))
	for i := range rows {
		events[i] = rows[i].ToDomain()
	}
	return events
}

// Ensure GormWebhookEventRepository implements webhook.EventRepository
var _ webhook.EventRepository = (*GormWebhookEventRepository)(nil)
