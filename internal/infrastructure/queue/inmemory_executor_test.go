package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/shared"
)

const testTaskType = "test:task"

func startedExecutor(t *testing.T, workers, queueSize int, handler shared.TaskHandler) *InMemoryExecutor {
	t.Helper()
	e := NewInMemoryExecutor(workers, queueSize, zap.NewNop())
	e.Register(testTaskType, handler)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop(context.Background()) })
	return e
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestInMemoryExecutor_RunsSubmittedTasks(t *testing.T) {
	var mu sync.Mutex
	seen := make([]string, 0)
	e := startedExecutor(t, 2, 8, func(_ context.Context, task shared.Task) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, task.ID)
		return nil
	})

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, e.Submit(context.Background(), shared.Task{ID: id, Type: testTaskType}))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
}

func TestInMemoryExecutor_SubmitBeforeStart(t *testing.T) {
	e := NewInMemoryExecutor(1, 1, zap.NewNop())
	e.Register(testTaskType, func(context.Context, shared.Task) error { return nil })

	err := e.Submit(context.Background(), shared.Task{Type: testTaskType})

	assert.ErrorIs(t, err, ErrExecutorNotRunning)
}

func TestInMemoryExecutor_UnknownTaskType(t *testing.T) {
	e := startedExecutor(t, 1, 1, func(context.Context, shared.Task) error { return nil })

	err := e.Submit(context.Background(), shared.Task{Type: "other"})

	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestInMemoryExecutor_QueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	e := startedExecutor(t, 1, 1, func(context.Context, shared.Task) error {
		started <- struct{}{}
		<-release
		return nil
	})
	defer close(release)

	require.NoError(t, e.Submit(context.Background(), shared.Task{ID: "busy", Type: testTaskType}))
	<-started
	require.NoError(t, e.Submit(context.Background(), shared.Task{ID: "queued", Type: testTaskType}))

	err := e.Submit(context.Background(), shared.Task{ID: "overflow", Type: testTaskType})

	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, e.Pending())
}

func TestInMemoryExecutor_CollapsesInFlightIDs(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var handled atomic.Int32
	e := startedExecutor(t, 2, 4, func(context.Context, shared.Task) error {
		started <- struct{}{}
		<-release
		handled.Add(1)
		return errors.New("crm down")
	})

	task := shared.Task{ID: "receipt:r-1", Type: testTaskType}
	require.NoError(t, e.Submit(context.Background(), task))
	<-started
	require.NoError(t, e.Submit(context.Background(), task))
	assert.Equal(t, 0, e.Pending())

	close(release)
	require.Eventually(t, func() bool { return handled.Load() == 1 }, time.Second, 5*time.Millisecond)

	// a failed run frees the id for the next delivery
	require.Eventually(t, func() bool {
		e.idsMu.Lock()
		defer e.idsMu.Unlock()
		return len(e.inflight) == 0
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, e.Submit(context.Background(), task))
	assert.Eventually(t, func() bool { return handled.Load() == 2 }, time.Second, 5*time.Millisecond)
}

// ---------------------------------------------------------------------------
// Failure isolation
// ---------------------------------------------------------------------------

func TestInMemoryExecutor_HandlerErrorsAndPanicsDoNotStopWorkers(t *testing.T) {
	var handled atomic.Int32
	e := startedExecutor(t, 1, 8, func(_ context.Context, task shared.Task) error {
		handled.Add(1)
		switch task.ID {
		case "panic":
			panic("boom")
		case "error":
			return errors.New("handler failed")
		}
		return nil
	})

	for _, id := range []string{"panic", "error", "ok"} {
		require.NoError(t, e.Submit(context.Background(), shared.Task{ID: id, Type: testTaskType}))
	}

	assert.Eventually(t, func() bool { return handled.Load() == 3 }, time.Second, 5*time.Millisecond)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestInMemoryExecutor_StopDrainsQueue(t *testing.T) {
	var handled atomic.Int32
	e := NewInMemoryExecutor(1, 8, zap.NewNop())
	e.Register(testTaskType, func(context.Context, shared.Task) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	})
	require.NoError(t, e.Start(context.Background()))

	for i := 0; i < 4; i++ {
		require.NoError(t, e.Submit(context.Background(), shared.Task{Type: testTaskType}))
	}
	require.NoError(t, e.Stop(context.Background()))

	assert.Equal(t, int32(4), handled.Load())
	assert.False(t, e.Running())
	assert.ErrorIs(t, e.Submit(context.Background(), shared.Task{Type: testTaskType}), ErrExecutorNotRunning)
}

func TestInMemoryExecutor_StopTimeoutCancelsHandlers(t *testing.T) {
	started := make(chan struct{})
	e := NewInMemoryExecutor(1, 1, zap.NewNop())
	e.Register(testTaskType, func(ctx context.Context, _ shared.Task) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Submit(context.Background(), shared.Task{Type: testTaskType}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := e.Stop(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInMemoryExecutor_Restart(t *testing.T) {
	var handled atomic.Int32
	e := NewInMemoryExecutor(1, 1, zap.NewNop())
	e.Register(testTaskType, func(context.Context, shared.Task) error {
		handled.Add(1)
		return nil
	})

	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Stop(context.Background()))
	require.NoError(t, e.Stop(context.Background()))

	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Submit(context.Background(), shared.Task{Type: testTaskType}))
	require.NoError(t, e.Stop(context.Background()))

	assert.Equal(t, int32(1), handled.Load())
}
