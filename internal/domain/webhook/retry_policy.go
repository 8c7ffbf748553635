package webhook

import "time"

// Retry defaults. The ceiling and curve are tunables, not a contract.
const (
	DefaultMaxAttempts = 5
	DefaultBaseBackoff = 30 * time.Second
	DefaultMaxBackoff  = 30 * time.Minute
)

// RetryPolicy bounds automatic re-application of failed events
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy returns the default retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
		MaxBackoff:  DefaultMaxBackoff,
	}
}

// WithDefaults fills zero fields from DefaultRetryPolicy
func (p RetryPolicy) WithDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = d.BaseBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.MaxBackoff < p.BaseBackoff {
		p.MaxBackoff = p.BaseBackoff
	}
	return p
}

// Backoff returns the delay before the next attempt once attempts failures
// have been recorded: base, 2*base, 4*base, ... capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	p = p.WithDefaults()
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.BaseBackoff
	for i := 1; i < attempts; i++ {
		backoff *= 2
		if backoff >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return backoff
}

// Exhausted reports whether attempts has reached the ceiling
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.WithDefaults().MaxAttempts
}
