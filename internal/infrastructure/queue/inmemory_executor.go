package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/shared"
)

// Default pool sizing
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// InMemoryExecutor runs tasks on a fixed pool of goroutines fed by a bounded
// queue. Submit never blocks: a full queue is reported as ErrQueueFull so the
// webhook can answer with a retryable status. A task whose ID is still queued
// or running is accepted without being queued twice.
type InMemoryExecutor struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	workers   int
	queueSize int

	mu      sync.RWMutex
	queue   chan shared.Task
	running atomic.Bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	idsMu    sync.Mutex
	inflight map[string]struct{}
}

// NewInMemoryExecutor creates an executor. Non-positive sizes use the defaults.
func NewInMemoryExecutor(workers, queueSize int, logger *zap.Logger) *InMemoryExecutor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &InMemoryExecutor{
		registry:  NewHandlerRegistry(),
		logger:    logger,
		workers:   workers,
		queueSize: queueSize,
		inflight:  make(map[string]struct{}),
	}
}

// Register binds a handler to a task type
func (e *InMemoryExecutor) Register(taskType string, handler shared.TaskHandler) {
	e.registry.Register(taskType, handler)
	e.logger.Debug("task handler registered", zap.String("task_type", taskType))
}

// Submit enqueues a task without waiting for it to run
func (e *InMemoryExecutor) Submit(ctx context.Context, task shared.Task) error {
	if _, ok := e.registry.Get(task.Type); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTaskType, task.Type)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.running.Load() {
		return ErrExecutorNotRunning
	}
	if !e.claim(task.ID) {
		e.logger.Debug("task already queued", zap.String("task_id", task.ID))
		return nil
	}
	select {
	case e.queue <- task:
		return nil
	case <-ctx.Done():
		e.release(task.ID)
		return ctx.Err()
	default:
		e.release(task.ID)
		return ErrQueueFull
	}
}

// claim marks id as in flight, reporting false when it already was. Tasks
// without an ID are never deduplicated.
func (e *InMemoryExecutor) claim(id string) bool {
	if id == "" {
		return true
	}
	e.idsMu.Lock()
	defer e.idsMu.Unlock()
	if _, ok := e.inflight[id]; ok {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *InMemoryExecutor) release(id string) {
	if id == "" {
		return
	}
	e.idsMu.Lock()
	delete(e.inflight, id)
	e.idsMu.Unlock()
}

// Start launches the worker pool. Calling Start on a running executor is a no-op.
func (e *InMemoryExecutor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return nil
	}

	// Workers outlive the caller's context; Stop cancels them.
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.queue = make(chan shared.Task, e.queueSize)
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.work(workerCtx, e.queue)
	}
	e.running.Store(true)
	e.logger.Info("task executor started",
		zap.Int("workers", e.workers),
		zap.Int("queue_size", e.queueSize),
	)
	return nil
}

// Stop refuses new tasks and waits for queued ones to finish. When ctx expires
// first, in-flight handlers see their context cancelled and ctx.Err is returned.
func (e *InMemoryExecutor) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running.Load() {
		e.mu.Unlock()
		return nil
	}
	e.running.Store(false)
	close(e.queue)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		e.logger.Info("task executor stopped")
		return nil
	case <-ctx.Done():
		e.cancel()
		<-done
		e.logger.Warn("task executor stopped before the queue drained")
		return ctx.Err()
	}
}

// Running reports whether the executor accepts tasks
func (e *InMemoryExecutor) Running() bool {
	return e.running.Load()
}

// Pending returns the number of queued tasks not yet picked up by a worker
func (e *InMemoryExecutor) Pending() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.queue == nil {
		return 0
	}
	return len(e.queue)
}

func (e *InMemoryExecutor) work(ctx context.Context, queue <-chan shared.Task) {
	defer e.wg.Done()
	for task := range queue {
		err := e.dispatch(ctx, task)
		e.release(task.ID)
		if err != nil {
			e.logger.Error("task failed",
				zap.String("task_type", task.Type),
				zap.String("task_id", task.ID),
				zap.Error(err),
			)
		}
	}
}

// dispatch runs the handler, turning a panic into an error
func (e *InMemoryExecutor) dispatch(ctx context.Context, task shared.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task handler panicked: %v", r)
		}
	}()

	handler, ok := e.registry.Get(task.Type)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTaskType, task.Type)
	}
	return handler(ctx, task)
}

var _ shared.TaskExecutor = (*InMemoryExecutor)(nil)
