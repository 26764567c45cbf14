package shared

import "context"

// Task is a unit of background work. Payload is opaque to the executor so that
// redis-backed queues can carry it across processes.
type Task struct {
	ID      string
	Type    string
	Payload []byte
}

// TaskHandler processes a task of a registered type
type TaskHandler func(ctx context.Context, task Task) error

// TaskExecutor runs tasks outside of the caller's goroutine. Submit never waits
// for the handler; handler errors are reported on the executor's own error path.
type TaskExecutor interface {
	// Register binds a handler to a task type. Must be called before Start.
	Register(taskType string, handler TaskHandler)
	// Submit hands a task to the executor
	Submit(ctx context.Context, task Task) error
	// Start begins processing
	Start(ctx context.Context) error
	// Stop drains in-flight tasks and stops processing
	Stop(ctx context.Context) error
}
