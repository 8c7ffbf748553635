package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/application/webhook"
	"go.uber.org/zap"
)

// BatchProcessor is the retry queue as seen by the scheduler
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, maxItems int) (*webhook.BatchResult, error)
	ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RetryExecutor runs retry queue jobs
type RetryExecutor struct {
	processor       BatchProcessor
	staleClaimAfter time.Duration
	logger          *zap.Logger
}

// NewRetryExecutor creates a RetryExecutor. Claims older than
// staleClaimAfter are released by JobKindReleaseClaims jobs.
func NewRetryExecutor(processor BatchProcessor, staleClaimAfter time.Duration, logger *zap.Logger) *RetryExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryExecutor{
		processor:       processor,
		staleClaimAfter: staleClaimAfter,
		logger:          logger,
	}
}

// Execute runs one job
func (e *RetryExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Kind {
	case JobKindRetryBatch:
		result, err := e.processor.ProcessBatch(ctx, job.MaxItems)
		if err != nil {
			return fmt.Errorf("retry batch: %w", err)
		}
		if result.Processed > 0 {
			e.logger.Info("Retry batch finished",
				zap.String("job_id", job.ID.String()),
				zap.Int("processed", result.Processed),
				zap.Int("succeeded", result.Succeeded),
				zap.Int("failed", result.Failed),
				zap.Int("exhausted", result.Exhausted),
				zap.Int("still_pending", result.StillPending),
			)
		}
		return nil

	case JobKindReleaseClaims:
		released, err := e.processor.ReleaseStaleClaims(ctx, e.staleClaimAfter)
		if err != nil {
			return fmt.Errorf("release stale claims: %w", err)
		}
		if released > 0 {
			e.logger.Warn("Released stale webhook claims",
				zap.Int64("released", released),
				zap.Duration("older_than", e.staleClaimAfter),
			)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
}
