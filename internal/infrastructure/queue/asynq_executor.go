package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/shared"
)

// DefaultAsynqQueue is the queue sale tasks are enqueued on
const DefaultAsynqQueue = "posbridge"

// AsynqConfig configures the redis-backed executor
type AsynqConfig struct {
	Addr     string
	Password string
	DB       int
	Queue    string
	// Concurrency is the number of in-process asynq workers. Zero makes the
	// executor enqueue-only, for deployments where a separate worker consumes.
	Concurrency     int
	ShutdownTimeout time.Duration
}

func (c AsynqConfig) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// AsynqExecutor hands tasks to asynq. Tasks carrying an ID are deduplicated by
// asynq while the previous task with that ID is queued or running. A failed
// task is archived without retry; submitting its ID again replaces it.
type AsynqExecutor struct {
	config    AsynqConfig
	client    *asynq.Client
	inspector *asynq.Inspector
	server    *asynq.Server
	mux       *asynq.ServeMux
	registry  *HandlerRegistry
	logger    *zap.Logger

	mu      sync.Mutex
	running atomic.Bool
}

// NewAsynqExecutor creates an executor; nothing connects until Start
func NewAsynqExecutor(cfg AsynqConfig, logger *zap.Logger) *AsynqExecutor {
	if cfg.Queue == "" {
		cfg.Queue = DefaultAsynqQueue
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	e := &AsynqExecutor{
		config:    cfg,
		client:    asynq.NewClient(cfg.redisOpt()),
		inspector: asynq.NewInspector(cfg.redisOpt()),
		mux:       asynq.NewServeMux(),
		registry:  NewHandlerRegistry(),
		logger:    logger,
	}
	if cfg.Concurrency > 0 {
		e.server = asynq.NewServer(cfg.redisOpt(), asynq.Config{
			Concurrency:     cfg.Concurrency,
			Queues:          map[string]int{cfg.Queue: 1},
			ShutdownTimeout: cfg.ShutdownTimeout,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				id, _ := asynq.GetTaskID(ctx)
				logger.Error("task failed",
					zap.String("task_type", task.Type()),
					zap.String("task_id", id),
					zap.Error(err),
				)
			}),
		})
	}
	return e
}

// Register binds a handler to a task type. Must be called before Start.
func (e *AsynqExecutor) Register(taskType string, handler shared.TaskHandler) {
	e.registry.Register(taskType, handler)
	e.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		id, _ := asynq.GetTaskID(ctx)
		if err := handler(ctx, shared.Task{ID: id, Type: t.Type(), Payload: t.Payload()}); err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return nil
	})
}

// Submit enqueues a task. A task whose ID is already queued or running is
// treated as submitted; one left archived by a failed run is replaced.
func (e *AsynqExecutor) Submit(ctx context.Context, task shared.Task) error {
	if !e.running.Load() {
		return ErrExecutorNotRunning
	}
	if _, ok := e.registry.Get(task.Type); !ok && e.server != nil {
		return fmt.Errorf("%w: %s", ErrUnknownTaskType, task.Type)
	}

	opts := []asynq.Option{asynq.Queue(e.config.Queue), asynq.MaxRetry(0)}
	if task.ID != "" {
		opts = append(opts, asynq.TaskID(task.ID))
	}

	info, err := e.client.EnqueueContext(ctx, asynq.NewTask(task.Type, task.Payload), opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		released, releaseErr := e.releaseArchived(task.ID)
		if releaseErr != nil {
			return releaseErr
		}
		if !released {
			e.logger.Debug("task already queued", zap.String("task_id", task.ID))
			return nil
		}
		info, err = e.client.EnqueueContext(ctx, asynq.NewTask(task.Type, task.Payload), opts...)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			// a concurrent redelivery got there first
			return nil
		}
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type, err)
	}
	e.logger.Debug("task enqueued",
		zap.String("task_type", task.Type),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}

// releaseArchived deletes the archived task holding id and reports whether the
// id is free again. Pending, scheduled and active tasks are left alone.
func (e *AsynqExecutor) releaseArchived(id string) (bool, error) {
	info, err := e.inspector.GetTaskInfo(e.config.Queue, id)
	if errors.Is(err, asynq.ErrTaskNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect task %s: %w", id, err)
	}
	if info.State != asynq.TaskStateArchived {
		return false, nil
	}
	if err := e.inspector.DeleteTask(e.config.Queue, id); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
		return false, fmt.Errorf("failed to delete archived task %s: %w", id, err)
	}
	e.logger.Info("archived task replaced", zap.String("task_id", id))
	return true, nil
}

// Start begins accepting tasks and, unless enqueue-only, starts the asynq server
func (e *AsynqExecutor) Start(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return nil
	}
	if e.server != nil {
		if err := e.server.Start(e.mux); err != nil {
			return fmt.Errorf("failed to start asynq server: %w", err)
		}
	}
	e.running.Store(true)
	e.logger.Info("asynq executor started",
		zap.String("queue", e.config.Queue),
		zap.Int("concurrency", e.config.Concurrency),
	)
	return nil
}

// Stop stops accepting tasks, waits up to ShutdownTimeout for in-flight
// handlers and closes the client.
func (e *AsynqExecutor) Stop(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running.Load() {
		return nil
	}
	e.running.Store(false)
	if e.server != nil {
		e.server.Shutdown()
	}
	if err := e.inspector.Close(); err != nil {
		e.logger.Warn("failed to close asynq inspector", zap.Error(err))
	}
	if err := e.client.Close(); err != nil {
		return fmt.Errorf("failed to close asynq client: %w", err)
	}
	e.logger.Info("asynq executor stopped")
	return nil
}

// Running reports whether the executor accepts tasks
func (e *AsynqExecutor) Running() bool {
	return e.running.Load()
}

var _ shared.TaskExecutor = (*AsynqExecutor)(nil)
