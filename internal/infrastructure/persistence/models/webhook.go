package models

import (
	"time"

	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/google/uuid"
)

// WebhookEventModel is the persistence model for received platform events.
// The unique index on (shop_domain, platform_event_id) is the deduplication guarantee.
type WebhookEventModel struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ShopDomain      string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_webhook_events_identity,priority:1"`
	PlatformEventID string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_webhook_events_identity,priority:2"`
	Topic           string         `gorm:"type:varchar(64);not null"`
	Payload         []byte         `gorm:"not null"`
	Status          webhook.Status `gorm:"type:varchar(20);not null;index:idx_webhook_events_queue,priority:1"`
	Attempts        int            `gorm:"not null;default:0"`
	LastError       string         `gorm:"type:text"`
	LastErrorKind   string         `gorm:"type:varchar(20)"`
	Outcome         string         `gorm:"type:varchar(20)"`
	NextRetryAt     *time.Time
	ClaimedAt       *time.Time
	ProcessedAt     *time.Time
	ReceivedAt      time.Time `gorm:"not null;index:idx_webhook_events_queue,priority:2"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WebhookEventModel) TableName() string {
	return "webhook_events"
}

// ToDomain converts the persistence model to a domain WebhookEvent
func (m *WebhookEventModel) ToDomain() *webhook.WebhookEvent {
	return &webhook.WebhookEvent{
		ID:              m.ID,
		ShopDomain:      m.ShopDomain,
		PlatformEventID: m.PlatformEventID,
		Topic:           webhook.Topic(m.Topic),
		Payload:         m.Payload,
		Status:          m.Status,
		Attempts:        m.Attempts,
		LastError:       m.LastError,
		LastErrorKind:   webhook.ErrorKind(m.LastErrorKind),
		Outcome:         webhook.Outcome(m.Outcome),
		NextRetryAt:     m.NextRetryAt,
		ClaimedAt:       m.ClaimedAt,
		ProcessedAt:     m.ProcessedAt,
		ReceivedAt:      m.ReceivedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain WebhookEvent
func (m *WebhookEventModel) FromDomain(e *webhook.WebhookEvent) {
	m.ID = e.ID
	m.ShopDomain = e.ShopDomain
	m.PlatformEventID = e.PlatformEventID
	m.Topic = e.Topic.String()
	m.Payload = e.Payload
	m.Status = e.Status
	m.Attempts = e.Attempts
	m.LastError = e.LastError
	m.LastErrorKind = string(e.LastErrorKind)
	m.Outcome = string(e.Outcome)
	m.NextRetryAt = e.NextRetryAt
	m.ClaimedAt = e.ClaimedAt
	m.ProcessedAt = e.ProcessedAt
	m.ReceivedAt = e.ReceivedAt
	m.UpdatedAt = e.UpdatedAt
}

// WebhookEventModelFromDomain creates a new persistence model from a domain WebhookEvent
func WebhookEventModelFromDomain(e *webhook.WebhookEvent) *WebhookEventModel {
	m := &WebhookEventModel{}
	m.FromDomain(e)
	return m
}
