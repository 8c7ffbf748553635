package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/orderhook/internal/domain/shared"
)

// ErrorKind classifies why an apply attempt failed
type ErrorKind string

const (
	// ErrorKindTransient failures are retried by the queue up to the ceiling
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindPermanent failures exhaust the event on first occurrence
	ErrorKindPermanent ErrorKind = "permanent"
)

// Sentinel errors
var (
	ErrUnknownTopic    = errors.New("unknown webhook topic")
	ErrSchemaMismatch  = errors.New("payload does not match topic schema")
	ErrOrderNotFound   = errors.New("order referenced by event does not exist yet")
	ErrEventNotClaimed = shared.NewDomainError("EVENT_NOT_CLAIMED", "Webhook event is not claimed by this processor")
	ErrNotExhausted    = shared.NewDomainError("INVALID_STATE_TRANSITION", "Only exhausted events can be requeued")
)

// ApplyError is returned by the applier. Kind drives the retry decision.
type ApplyError struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface
func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s apply error: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable apply error
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &ApplyError{Kind: ErrorKindTransient, Err: err}
}

// Permanent wraps err as a non-retryable apply error
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &ApplyError{Kind: ErrorKindPermanent, Err: err}
}

// ClassifyError returns the kind of an apply failure. Errors that already
// carry a kind keep it; domain errors and schema violations are permanent;
// everything else (store unavailable, timeouts, lock waits) is transient.
func ClassifyError(err error) ErrorKind {
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorKindTransient
	}
	if errors.Is(err, ErrUnknownTopic) || errors.Is(err, ErrSchemaMismatch) {
		return ErrorKindPermanent
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return ErrorKindPermanent
	}
	return ErrorKindTransient
}
