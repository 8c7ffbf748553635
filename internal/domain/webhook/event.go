package webhook

import (
	"errors"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// Status is the processing state of a received event
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
	// StatusExhausted is terminal: automatic retries stop until an operator requeues
	StatusExhausted Status = "exhausted"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusProcessed, StatusFailed, StatusExhausted:
		return true
	}
	return false
}

// IsClaimable reports whether an event in this status may be picked up
func (s Status) IsClaimable() bool {
	return s == StatusPending || s == StatusFailed
}

// Outcome records how a processed event was applied
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeSkippedStale Outcome = "skipped_stale"
)

// WebhookEvent is one verified delivery from the platform. Identity for
// deduplication is (ShopDomain, PlatformEventID). Events are never deleted.
type WebhookEvent struct {
	ID              uuid.UUID
	ShopDomain      string
	PlatformEventID string
	Topic           Topic
	Payload         []byte
	Status          Status
	Attempts        int
	LastError       string
	LastErrorKind   ErrorKind
	Outcome         Outcome
	NextRetryAt     *time.Time
	ClaimedAt       *time.Time
	ProcessedAt     *time.Time
	ReceivedAt      time.Time
	UpdatedAt       time.Time
}

// NewWebhookEvent creates a pending event from a verified delivery
func NewWebhookEvent(shopDomain, platformEventID, rawTopic string, payload []byte) (*WebhookEvent, error) {
	shopDomain = shared.NormalizeShopDomain(shopDomain)
	if shopDomain == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shop domain is required")
	}
	if platformEventID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Platform event id is required")
	}
	if rawTopic == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Topic is required")
	}
	if len(payload) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payload is required")
	}

	topic, _ := ParseTopic(rawTopic)
	now := shared.Now()
	return &WebhookEvent{
		ID:              uuid.New(),
		ShopDomain:      shopDomain,
		PlatformEventID: platformEventID,
		Topic:           topic,
		Payload:         payload,
		Status:          StatusPending,
		ReceivedAt:      now,
		UpdatedAt:       now,
	}, nil
}

// DedupKey returns the deduplication identity of the event
func (e *WebhookEvent) DedupKey() string {
	return e.ShopDomain + "/" + e.PlatformEventID
}

// MarkProcessing claims the event for an apply attempt
func (e *WebhookEvent) MarkProcessing(now time.Time) error {
	if !e.Status.IsClaimable() {
		return errors.New("can only claim pending or failed events")
	}
	e.Status = StatusProcessing
	e.ClaimedAt = &now
	e.UpdatedAt = now
	return nil
}

// MarkProcessed records a successful apply
func (e *WebhookEvent) MarkProcessed(outcome Outcome, now time.Time) error {
	if e.Status != StatusProcessing {
		return ErrEventNotClaimed
	}
	e.Status = StatusProcessed
	e.Outcome = outcome
	e.ProcessedAt = &now
	e.NextRetryAt = nil
	e.UpdatedAt = now
	return nil
}

// MarkFailed records a failed apply attempt. Permanent failures and attempts
// reaching the ceiling move the event to exhausted; otherwise it is scheduled
// for a later pass according to policy.
func (e *WebhookEvent) MarkFailed(cause error, kind ErrorKind, policy RetryPolicy, now time.Time) error {
	if e.Status != StatusProcessing {
		return ErrEventNotClaimed
	}
	e.Attempts++
	e.LastError = truncate(cause.Error(), maxErrorLength)
	e.LastErrorKind = kind
	e.UpdatedAt = now

	if kind == ErrorKindPermanent || policy.Exhausted(e.Attempts) {
		e.Status = StatusExhausted
		e.NextRetryAt = nil
		return nil
	}
	e.Status = StatusFailed
	next := now.Add(policy.Backoff(e.Attempts))
	e.NextRetryAt = &next
	return nil
}

// Requeue returns an exhausted event to the queue after manual intervention
func (e *WebhookEvent) Requeue(now time.Time) error {
	if e.Status != StatusExhausted {
		return ErrNotExhausted
	}
	e.Status = StatusPending
	e.Attempts = 0
	e.LastError = ""
	e.LastErrorKind = ""
	e.NextRetryAt = nil
	e.ClaimedAt = nil
	e.UpdatedAt = now
	return nil
}

// IsTerminal reports whether automatic processing is finished for the event
func (e *WebhookEvent) IsTerminal() bool {
	return e.Status == StatusProcessed || e.Status == StatusExhausted
}

const maxErrorLength = 2000

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
