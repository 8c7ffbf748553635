package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventResponse is the operator view of a recorded event
type EventResponse struct {
	ID              uuid.UUID       `json:"id"`
	ShopDomain      string          `json:"shop_domain"`
	PlatformEventID string          `json:"platform_event_id"`
	Topic           string          `json:"topic"`
	Status          string          `json:"status"`
	Attempts        int             `json:"attempts"`
	LastError       string          `json:"last_error,omitempty"`
	LastErrorKind   string          `json:"last_error_kind,omitempty"`
	Outcome         string          `json:"outcome,omitempty"`
	NextRetryAt     *time.Time      `json:"next_retry_at,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	ReceivedAt      time.Time       `json:"received_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// ToEventResponse converts a domain event. The payload is included only
// when withPayload is set and it is valid JSON.
func ToEventResponse(e *webhook.WebhookEvent, withPayload bool) EventResponse {
	resp := EventResponse{
		ID:              e.ID,
		ShopDomain:      e.ShopDomain,
		PlatformEventID: e.PlatformEventID,
		Topic:           e.Topic.String(),
		Status:          string(e.Status),
		Attempts:        e.Attempts,
		LastError:       e.LastError,
		LastErrorKind:   string(e.LastErrorKind),
		Outcome:         string(e.Outcome),
		NextRetryAt:     e.NextRetryAt,
		ProcessedAt:     e.ProcessedAt,
		ReceivedAt:      e.ReceivedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if withPayload && json.Valid(e.Payload) {
		resp.Payload = json.RawMessage(e.Payload)
	}
	return resp
}

// QueueStats summarizes the event store
type QueueStats struct {
	ByStatus    map[string]int64 `json:"by_status"`
	Retryable   int64            `json:"retryable"`
	MaxAttempts int              `json:"max_attempts"`
}

// QueueService exposes the event store to operators
type QueueService struct {
	events webhook.EventRepository
	policy webhook.RetryPolicy
	logger *zap.Logger
}

// NewQueueService creates a new QueueService
func NewQueueService(events webhook.EventRepository, policy webhook.RetryPolicy, logger *zap.Logger) *QueueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueService{events: events, policy: policy.WithDefaults(), logger: logger}
}

// Stats returns event counts per status and the retryable backlog
func (s *QueueService) Stats(ctx context.Context) (*QueueStats, error) {
	counts, err := s.events.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	retryable, err := s.events.CountRetryable(ctx, s.policy.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to count retryable events: %w", err)
	}

	stats := &QueueStats{
		ByStatus:    make(map[string]int64, len(counts)),
		Retryable:   retryable,
		MaxAttempts: s.policy.MaxAttempts,
	}
	for _, st := range []webhook.Status{
		webhook.StatusPending, webhook.StatusProcessing, webhook.StatusProcessed,
		webhook.StatusFailed, webhook.StatusExhausted,
	} {
		stats.ByStatus[string(st)] = counts[st]
	}
	return stats, nil
}

// ListEvents pages through events in one status. An empty status lists all.
func (s *QueueService) ListEvents(ctx context.Context, status webhook.Status, filter shared.Filter) ([]EventResponse, int64, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, shared.NewDomainError("INVALID_INPUT", "Unknown event status")
	}
	events, total, err := s.events.ListByStatus(ctx, status, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, ToEventResponse(e, false))
	}
	return out, total, nil
}

// GetEvent returns one event with its payload
func (s *QueueService) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToEventResponse(event, true)
	return &resp, nil
}

// Requeue returns an exhausted event to the queue with its attempt count
// reset, after whatever made it fail has been fixed.
func (s *QueueService) Requeue(ctx context.Context, id uuid.UUID, actorID string) (*EventResponse, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := event.Requeue(shared.Now()); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to requeue event: %w", err)
	}
	s.logger.Info("Webhook event requeued",
		zap.String("event_id", event.ID.String()),
		zap.String("shop_domain", event.ShopDomain),
		zap.String("actor_id", actorID),
	)
	resp := ToEventResponse(event, false)
	return &resp, nil
}
