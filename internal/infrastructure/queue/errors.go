package queue

import "errors"

var (
	// ErrExecutorNotRunning is returned by Submit before Start or after Stop
	ErrExecutorNotRunning = errors.New("queue: executor is not running")
	// ErrQueueFull is returned when the in-process queue has no free slot
	ErrQueueFull = errors.New("queue: task queue is full")
	// ErrUnknownTaskType is returned for tasks without a registered handler
	ErrUnknownTaskType = errors.New("queue: no handler registered for task type")
)
