package scheduler

import "errors"

// Submission and execution errors
var (
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
	ErrJobQueueFull        = errors.New("scheduler: job queue full")
	ErrUnknownJobKind      = errors.New("scheduler: unknown job kind")
)
