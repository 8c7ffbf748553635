package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobInFlight is returned when a job of the same kind is already queued or running
	ErrJobInFlight = errors.New("a job of this kind is already in flight")

	// ErrUnknownJobKind is returned by executors for kinds they do not handle
	ErrUnknownJobKind = errors.New("unknown job kind")
)
