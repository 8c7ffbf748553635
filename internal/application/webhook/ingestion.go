package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ingestion defaults
const (
	DefaultMaxPayloadSize = 1 << 20
	DefaultDedupTTL       = 24 * time.Hour
)

// ErrPayloadTooLarge is returned for deliveries above the configured size
var ErrPayloadTooLarge = shared.NewDomainError("PAYLOAD_TOO_LARGE", "Webhook payload exceeds the size limit")

// ReceiveStatus tells the platform how a delivery was handled
type ReceiveStatus string

const (
	ReceiveStatusAccepted  ReceiveStatus = "accepted"
	ReceiveStatusDuplicate ReceiveStatus = "duplicate"
)

// ReceiveRequest is one delivery as it arrived over HTTP
type ReceiveRequest struct {
	ShopDomain      string
	Topic           string
	PlatformEventID string
	Signature       string
	Body            []byte
}

// ReceiveResult is returned to the delivering platform
type ReceiveResult struct {
	Status     ReceiveStatus `json:"status"`
	EventID    *uuid.UUID    `json:"event_id,omitempty"`
	Topic      string        `json:"topic"`
	Processing ProcessResult `json:"processing,omitempty"`
}

// IngestionService authenticates deliveries and records them in the event
// store. Acknowledgement depends only on the durable record: a delivery is
// accepted once stored, whatever later happens when it is applied.
type IngestionService struct {
	verifier       *SignatureVerifier
	events         webhook.EventRepository
	cache          webhook.DeliveryCache
	processor      *Processor
	maxPayloadSize int64
	dedupTTL       time.Duration
	syncApply      bool
	metrics        *telemetry.Metrics
	logger         *zap.Logger
}

// IngestionServiceConfig contains the dependencies of an IngestionService.
// Cache and Metrics are optional; Processor is required only with SyncApply.
type IngestionServiceConfig struct {
	Verifier       *SignatureVerifier
	Events         webhook.EventRepository
	Cache          webhook.DeliveryCache
	Processor      *Processor
	MaxPayloadSize int64
	DedupTTL       time.Duration
	SyncApply      bool
	Metrics        *telemetry.Metrics
	Logger         *zap.Logger
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(cfg IngestionServiceConfig) *IngestionService {
	s := &IngestionService{
		verifier:       cfg.Verifier,
		events:         cfg.Events,
		cache:          cfg.Cache,
		processor:      cfg.Processor,
		maxPayloadSize: cfg.MaxPayloadSize,
		dedupTTL:       cfg.DedupTTL,
		syncApply:      cfg.SyncApply && cfg.Processor != nil,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
	}
	if s.maxPayloadSize <= 0 {
		s.maxPayloadSize = DefaultMaxPayloadSize
	}
	if s.dedupTTL <= 0 {
		s.dedupTTL = DefaultDedupTTL
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Receive verifies and records one delivery. Invalid signatures return
// shared.ErrAuthenticationFailure and are never stored. Redeliveries of an
// already recorded event are acknowledged as duplicates without touching the
// stored event.
func (s *IngestionService) Receive(ctx context.Context, req ReceiveRequest) (*ReceiveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook_ingestion", "receive",
		telemetry.WithAttribute(telemetry.SpanAttrShopDomain, req.ShopDomain),
		telemetry.WithAttribute(telemetry.SpanAttrTopic, req.Topic),
		telemetry.WithAttribute(telemetry.SpanAttrPlatformEventID, req.PlatformEventID),
	)
	defer span.End()

	if int64(len(req.Body)) > s.maxPayloadSize {
		s.metrics.RecordWebhookReceived(req.Topic, telemetry.ReceiveRejected)
		return nil, ErrPayloadTooLarge
	}

	verification, err := s.verifier.Verify(ctx, req.ShopDomain, req.Body, req.Signature)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordWebhookReceived(req.Topic, telemetry.ReceiveError)
		return nil, err
	}
	if !verification.Valid {
		s.metrics.RecordSignatureFailure()
		s.metrics.RecordWebhookReceived(req.Topic, telemetry.ReceiveRejected)
		s.logger.Warn("Webhook signature verification failed",
			zap.String("shop_domain", req.ShopDomain),
			zap.String("topic", req.Topic),
			zap.String("platform_event_id", req.PlatformEventID),
		)
		return nil, shared.ErrAuthenticationFailure
	}

	event, err := webhook.NewWebhookEvent(req.ShopDomain, req.PlatformEventID, req.Topic, req.Body)
	if err != nil {
		s.metrics.RecordWebhookReceived(req.Topic, telemetry.ReceiveRejected)
		return nil, err
	}
	result := &ReceiveResult{Topic: event.Topic.String()}

	if s.seen(ctx, event.DedupKey()) {
		s.metrics.RecordWebhookReceived(result.Topic, telemetry.ReceiveDuplicate)
		result.Status = ReceiveStatusDuplicate
		return result, nil
	}

	recorded, err := s.events.RecordIfNew(ctx, event)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordWebhookReceived(result.Topic, telemetry.ReceiveError)
		return nil, fmt.Errorf("failed to record webhook event: %w", err)
	}
	s.remember(ctx, event.DedupKey())

	if recorded == webhook.RecordDuplicate {
		s.metrics.RecordWebhookReceived(result.Topic, telemetry.ReceiveDuplicate)
		s.logger.Debug("Duplicate webhook delivery",
			zap.String("shop_domain", event.ShopDomain),
			zap.String("platform_event_id", event.PlatformEventID),
		)
		result.Status = ReceiveStatusDuplicate
		return result, nil
	}

	s.metrics.RecordWebhookReceived(result.Topic, telemetry.ReceiveAccepted)
	telemetry.SetAttribute(span, telemetry.SpanAttrEventID, event.ID.String())
	s.logger.Info("Webhook event recorded",
		zap.String("event_id", event.ID.String()),
		zap.String("shop_domain", event.ShopDomain),
		zap.String("topic", result.Topic),
		zap.String("secret_source", string(verification.Source)),
	)

	id := event.ID
	result.Status = ReceiveStatusAccepted
	result.EventID = &id

	if s.syncApply {
		res, err := s.processor.ProcessOne(ctx, event)
		if err != nil {
			s.logger.Error("Inline apply failed, event left for the retry queue",
				zap.String("event_id", event.ID.String()),
				zap.Error(err),
			)
		} else {
			result.Processing = res
		}
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *IngestionService) seen(ctx context.Context, key string) bool {
	if s.cache == nil {
		return false
	}
	seen, err := s.cache.Seen(ctx, key)
	if err != nil {
		s.logger.Warn("Delivery cache lookup failed", zap.Error(err))
		return false
	}
	return seen
}

func (s *IngestionService) remember(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Remember(ctx, key, s.dedupTTL); err != nil {
		s.logger.Warn("Delivery cache write failed", zap.Error(err))
	}
}
