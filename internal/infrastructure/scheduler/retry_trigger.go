package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RetryTriggerConfig holds configuration for the retry trigger
type RetryTriggerConfig struct {
	// Interval between retry batches
	Interval time.Duration
	// BatchSize is the item limit passed to each batch
	BatchSize int
	// StaleClaimInterval is how often stuck claims are released; zero
	// disables release jobs
	StaleClaimInterval time.Duration
}

// DefaultRetryTriggerConfig returns default retry trigger configuration
func DefaultRetryTriggerConfig() RetryTriggerConfig {
	return RetryTriggerConfig{
		Interval:           30 * time.Second,
		BatchSize:          50,
		StaleClaimInterval: 5 * time.Minute,
	}
}

// RetryTrigger submits retry batches and claim releases to the scheduler on
// a fixed cadence
type RetryTrigger struct {
	config    RetryTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRelease time.Time
}

// NewRetryTrigger creates a new retry trigger
func NewRetryTrigger(config RetryTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *RetryTrigger {
	if config.Interval <= 0 {
		config.Interval = DefaultRetryTriggerConfig().Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the trigger
func (c *RetryTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.lastRelease = time.Now()
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Retry trigger started",
		zap.Duration("interval", c.config.Interval),
		zap.Int("batch_size", c.config.BatchSize),
		zap.Duration("stale_claim_interval", c.config.StaleClaimInterval),
	)
	return nil
}

// Stop stops the trigger
func (c *RetryTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Retry trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *RetryTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.tick(now)
		}
	}
}

func (c *RetryTrigger) tick(now time.Time) {
	c.submit(NewJob(JobKindRetryBatch, c.config.BatchSize))

	if c.config.StaleClaimInterval <= 0 {
		return
	}
	c.mu.Lock()
	due := now.Sub(c.lastRelease) >= c.config.StaleClaimInterval
	if due {
		c.lastRelease = now
	}
	c.mu.Unlock()
	if due {
		c.submit(NewJob(JobKindReleaseClaims, 0))
	}
}

func (c *RetryTrigger) submit(job *Job) {
	err := c.scheduler.SubmitJob(job)
	switch {
	case err == nil:
	case errors.Is(err, ErrJobInFlight):
		c.logger.Debug("Skipping tick, previous job still running", zap.String("kind", string(job.Kind)))
	default:
		c.logger.Warn("Failed to submit job", zap.String("kind", string(job.Kind)), zap.Error(err))
	}
}
