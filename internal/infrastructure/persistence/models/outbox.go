package models

import (
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// OutboxEntryModel is a change notification row. Rows are written in the
// same transaction as the order mutation they announce.
type OutboxEntryModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShopDomain    string    `gorm:"type:varchar(255);not null;index"`
	EventType     string    `gorm:"type:varchar(100);not null"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null"`
	AggregateType string    `gorm:"type:varchar(100);not null"`
	Payload       []byte    `gorm:"not null"`

	Delivery OutboxDelivery `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null;index:idx_outbox_status_created,priority:2"`
	UpdatedAt time.Time `gorm:"not null"`
}

// OutboxDelivery holds the publish state the outbox processor advances
type OutboxDelivery struct {
	Status      shared.OutboxStatus `gorm:"type:varchar(20);not null;index:idx_outbox_status_created,priority:1"`
	RetryCount  int                 `gorm:"not null;default:0"`
	MaxRetries  int                 `gorm:"not null;default:5"`
	LastError   string              `gorm:"type:text"`
	NextRetryAt *time.Time          `gorm:"index:idx_outbox_next_retry"`
	ProcessedAt *time.Time
}

// TableName returns the table name for GORM
func (OutboxEntryModel) TableName() string {
	return "outbox_events"
}

// NewOutboxEntryModel maps a domain entry to its row
func NewOutboxEntryModel(e *shared.OutboxEntry) *OutboxEntryModel {
	return &OutboxEntryModel{
		ID:            e.ID,
		ShopDomain:    e.ShopDomain,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Payload:       e.Payload,
		Delivery: OutboxDelivery{
			Status:      e.Status,
			RetryCount:  e.RetryCount,
			MaxRetries:  e.MaxRetries,
			LastError:   e.LastError,
			NextRetryAt: e.NextRetryAt,
			ProcessedAt: e.ProcessedAt,
		},
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// ToDomain maps the row back to a domain entry
func (m *OutboxEntryModel) ToDomain() *shared.OutboxEntry {
	d := m.Delivery
	return &shared.OutboxEntry{
		ID:            m.ID,
		ShopDomain:    m.ShopDomain,
		EventType:     m.EventType,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		Payload:       m.Payload,
		Status:        d.Status,
		RetryCount:    d.RetryCount,
		MaxRetries:    d.MaxRetries,
		LastError:     d.LastError,
		NextRetryAt:   d.NextRetryAt,
		ProcessedAt:   d.ProcessedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
