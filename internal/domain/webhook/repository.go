package webhook

import (
	"context"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// RecordResult tells the receiver whether a delivery was new
type RecordResult string

const (
	RecordInserted  RecordResult = "inserted"
	RecordDuplicate RecordResult = "duplicate"
)

// EventRepository is the durable event log
type EventRepository interface {
	// RecordIfNew inserts the event unless (shop, platform event id) already
	// exists. A duplicate never overwrites the stored status.
	RecordIfNew(ctx context.Context, event *WebhookEvent) (RecordResult, error)
	// Claim atomically moves a pending or failed event to processing. It
	// returns false when another processor got there first.
	Claim(ctx context.Context, event *WebhookEvent, now time.Time) (bool, error)
	// SaveOutcome persists a transition out of processing
	SaveOutcome(ctx context.Context, event *WebhookEvent) error
	// ListPending returns retryable events due at now, oldest received first
	ListPending(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*WebhookEvent, error)
	// CountRetryable counts events still eligible for automatic retry
	CountRetryable(ctx context.Context, maxAttempts int) (int64, error)
	// FindByID retrieves a single event
	FindByID(ctx context.Context, id uuid.UUID) (*WebhookEvent, error)
	// FindByPlatformID retrieves an event by its deduplication identity
	FindByPlatformID(ctx context.Context, shopDomain, platformEventID string) (*WebhookEvent, error)
	// ListByStatus pages through events in a given status, newest first
	ListByStatus(ctx context.Context, status Status, filter shared.Filter) ([]*WebhookEvent, int64, error)
	// CountByStatus returns count of events for each status
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	// Update persists operator changes such as a requeue
	Update(ctx context.Context, event *WebhookEvent) error
	// ReleaseStaleClaims returns events stuck in processing since before the
	// given time to failed so the queue picks them up again. The expired
	// claim counts as an attempt; events reaching maxAttempts are exhausted.
	ReleaseStaleClaims(ctx context.Context, before time.Time, maxAttempts int) (int64, error)
}

// DeliveryCache is a best-effort memory of deliveries already recorded. It
// short-circuits platform redeliveries without a database round trip; the
// unique index in the event store remains the source of truth.
type DeliveryCache interface {
	// Seen reports whether key was remembered
	Seen(ctx context.Context, key string) (bool, error)
	// Remember stores key for ttl
	Remember(ctx context.Context, key string, ttl time.Duration) error
	// Close releases resources
	Close() error
}
