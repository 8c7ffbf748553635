package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Batch limits
const (
	DefaultBatchSize    = 50
	DefaultMaxBatchSize = 500
	DefaultApplyTimeout = 30 * time.Second
)

// ProcessResult is what happened to a single event in one pass
type ProcessResult string

const (
	ProcessResultProcessed ProcessResult = "processed"
	ProcessResultFailed    ProcessResult = "failed"
	ProcessResultExhausted ProcessResult = "exhausted"
	// ProcessResultSkipped means another processor claimed the event first
	ProcessResultSkipped ProcessResult = "skipped"
)

// BatchResult summarizes one retry pass
type BatchResult struct {
	Processed    int `json:"processed"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	Exhausted    int `json:"exhausted"`
	StillPending int `json:"still_pending"`
}

// Processor drives recorded events through the applier. Every attempt
// starts with an atomic claim, so overlapping passes (a scheduled tick and a
// manual trigger, or two replicas) never apply the same event twice at once.
type Processor struct {
	events       webhook.EventRepository
	applier      EventApplier
	policy       webhook.RetryPolicy
	applyTimeout time.Duration
	batchSize    int
	maxBatchSize int
	metrics      *telemetry.Metrics
	logger       *zap.Logger
}

// ProcessorConfig contains configuration for Processor
type ProcessorConfig struct {
	Events       webhook.EventRepository
	Applier      EventApplier
	Policy       webhook.RetryPolicy
	ApplyTimeout time.Duration
	BatchSize    int
	MaxBatchSize int
	Metrics      *telemetry.Metrics
	Logger       *zap.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		events:       cfg.Events,
		applier:      cfg.Applier,
		policy:       cfg.Policy.WithDefaults(),
		applyTimeout: cfg.ApplyTimeout,
		batchSize:    cfg.BatchSize,
		maxBatchSize: cfg.MaxBatchSize,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
	if p.applyTimeout <= 0 {
		p.applyTimeout = DefaultApplyTimeout
	}
	if p.maxBatchSize <= 0 {
		p.maxBatchSize = DefaultMaxBatchSize
	}
	if p.batchSize <= 0 {
		p.batchSize = DefaultBatchSize
	}
	if p.batchSize > p.maxBatchSize {
		p.batchSize = p.maxBatchSize
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Policy returns the retry policy in effect
func (p *Processor) Policy() webhook.RetryPolicy {
	return p.policy
}

// ProcessBatch runs one pass over due events, oldest first. maxItems <= 0
// uses the configured batch size; larger values are clamped to the maximum.
func (p *Processor) ProcessBatch(ctx context.Context, maxItems int) (*BatchResult, error) {
	if maxItems <= 0 {
		maxItems = p.batchSize
	}
	if maxItems > p.maxBatchSize {
		maxItems = p.maxBatchSize
	}
	// A pass is not cancelled midway; a caller going away must not strand
	// claimed events or skip the rest of the batch.
	ctx = context.WithoutCancel(ctx)

	ctx, span := telemetry.StartServiceSpan(ctx, "retry_processor", "process_batch",
		telemetry.WithAttribute(telemetry.SpanAttrBatchSize, maxItems),
	)
	defer span.End()
	start := time.Now()

	events, err := p.events.ListPending(ctx, shared.Now(), p.policy.MaxAttempts, maxItems)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}

	result := &BatchResult{}
	for _, event := range events {
		res, err := p.ProcessOne(ctx, event)
		if err != nil {
			p.logger.Error("Failed to record event outcome",
				zap.String("event_id", event.ID.String()),
				zap.String("shop_domain", event.ShopDomain),
				zap.Error(err),
			)
			continue
		}
		switch res {
		case ProcessResultProcessed:
			result.Processed++
			result.Succeeded++
		case ProcessResultFailed:
			result.Processed++
			result.Failed++
		case ProcessResultExhausted:
			result.Processed++
			result.Failed++
			result.Exhausted++
		}
	}

	remaining, err := p.events.CountRetryable(ctx, p.policy.MaxAttempts)
	if err != nil {
		p.logger.Warn("Failed to count retryable events", zap.Error(err))
	} else {
		result.StillPending = int(remaining)
	}

	elapsed := time.Since(start)
	p.metrics.RecordBatch(result.Succeeded, result.Failed, result.Exhausted, result.StillPending, elapsed)
	telemetry.SetAttributes(span,
		"batch.processed", result.Processed,
		"batch.succeeded", result.Succeeded,
		"batch.failed", result.Failed,
		"batch.still_pending", result.StillPending,
	)
	telemetry.SetOK(span)

	if result.Processed > 0 {
		p.logger.Info("Retry pass finished",
			zap.Int("processed", result.Processed),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
			zap.Int("exhausted", result.Exhausted),
			zap.Int("still_pending", result.StillPending),
			zap.Duration("elapsed", elapsed),
		)
	}
	return result, nil
}

// ProcessOne claims event and applies it. The returned error is only set
// when the outcome could not be persisted; apply failures are recorded on
// the event and reported through the result.
//
// The attempt is detached from ctx cancellation and bounded by the apply
// timeout alone, so the outcome is always persisted once claimed.
func (p *Processor) ProcessOne(ctx context.Context, event *webhook.WebhookEvent) (ProcessResult, error) {
	ctx = context.WithoutCancel(ctx)
	claimed, err := p.events.Claim(ctx, event, shared.Now())
	if err != nil {
		return "", fmt.Errorf("failed to claim event: %w", err)
	}
	if !claimed {
		return ProcessResultSkipped, nil
	}

	start := time.Now()
	applyCtx, cancel := context.WithTimeout(ctx, p.applyTimeout)
	outcome, applyErr := p.applier.Apply(applyCtx, event)
	cancel()
	elapsed := time.Since(start)

	now := shared.Now()
	if applyErr == nil {
		if err := event.MarkProcessed(outcome.Outcome, now); err != nil {
			return "", err
		}
		if err := p.events.SaveOutcome(ctx, event); err != nil {
			return "", fmt.Errorf("failed to save event outcome: %w", err)
		}
		p.metrics.RecordApply(event.Topic.String(), string(outcome.Outcome), elapsed)
		p.logger.Debug("Webhook event applied",
			zap.String("event_id", event.ID.String()),
			zap.String("topic", event.Topic.String()),
			zap.String("outcome", string(outcome.Outcome)),
			zap.Int("warnings", len(outcome.Warnings)),
		)
		return ProcessResultProcessed, nil
	}

	kind := webhook.ClassifyError(applyErr)
	if err := event.MarkFailed(applyErr, kind, p.policy, now); err != nil {
		return "", err
	}
	if err := p.events.SaveOutcome(ctx, event); err != nil {
		return "", fmt.Errorf("failed to save event outcome: %w", err)
	}

	if event.Status == webhook.StatusExhausted {
		p.metrics.RecordApply(event.Topic.String(), string(webhook.StatusExhausted), elapsed)
		p.logger.Error("Webhook event exhausted",
			zap.String("event_id", event.ID.String()),
			zap.String("shop_domain", event.ShopDomain),
			zap.String("topic", event.Topic.String()),
			zap.String("error_kind", string(kind)),
			zap.Int("attempts", event.Attempts),
			zap.Error(applyErr),
		)
		return ProcessResultExhausted, nil
	}

	p.metrics.RecordApply(event.Topic.String(), string(webhook.StatusFailed), elapsed)
	p.logger.Warn("Webhook event apply failed, will retry",
		zap.String("event_id", event.ID.String()),
		zap.String("shop_domain", event.ShopDomain),
		zap.String("topic", event.Topic.String()),
		zap.Int("attempts", event.Attempts),
		zap.Timep("next_retry_at", event.NextRetryAt),
		zap.Error(applyErr),
	)
	return ProcessResultFailed, nil
}

// ReleaseStaleClaims returns events stuck in processing for longer than
// olderThan to the queue, for example after a crash mid-apply. Each release
// uses up one attempt.
func (p *Processor) ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	released, err := p.events.ReleaseStaleClaims(ctx, shared.Now().Add(-olderThan), p.policy.MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("failed to release stale claims: %w", err)
	}
	if released > 0 {
		p.logger.Warn("Released stale event claims", zap.Int64("released", released))
	}
	return released, nil
}
