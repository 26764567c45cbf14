package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/catalogsync"
)

// JobStatus represents the status of a scheduled sync
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
	JobStatusSkipped JobStatus = "SKIPPED"
)

// Job records one scheduled catalog sync
type Job struct {
	ID          uuid.UUID
	Status      JobStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	Summary     *catalogsync.RunSummary
}

// CatalogSyncRunner runs one reconciliation pass
type CatalogSyncRunner interface {
	Run(ctx context.Context) (*catalogsync.RunSummary, error)
}

// CatalogSyncConfig holds scheduler configuration
type CatalogSyncConfig struct {
	// Interval between runs; zero disables the scheduler
	Interval time.Duration
	// RunTimeout bounds a single scheduled run
	RunTimeout time.Duration
	// RunOnStart triggers a run immediately on Start
	RunOnStart bool
}

// DefaultCatalogSyncConfig returns default configuration
func DefaultCatalogSyncConfig() CatalogSyncConfig {
	return CatalogSyncConfig{
		Interval:   0,
		RunTimeout: 30 * time.Minute,
	}
}

// Validate validates the configuration
func (c *CatalogSyncConfig) Validate() error {
	if c.Interval < 0 || c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// CatalogSyncScheduler runs the reconciler on a ticker. Ticks that arrive
// while the previous scheduled run is in progress are skipped.
type CatalogSyncScheduler struct {
	config CatalogSyncConfig
	runner CatalogSyncRunner
	logger *zap.Logger

	inFlight atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	lastJob  *Job
}

// NewCatalogSyncScheduler creates a new scheduler
func NewCatalogSyncScheduler(config CatalogSyncConfig, runner CatalogSyncRunner, logger *zap.Logger) *CatalogSyncScheduler {
	return &CatalogSyncScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start begins the ticker loop. A zero interval leaves the scheduler idle.
func (s *CatalogSyncScheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.config.Interval == 0 {
		if s.config.Interval == 0 {
			s.logger.Info("catalog sync scheduler disabled")
		}
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop(loopCtx)

	s.logger.Info("catalog sync scheduler started",
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to return
func (s *CatalogSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("catalog sync scheduler stopped")
}

// IsRunning reports whether the ticker loop is active
func (s *CatalogSyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastJob returns a copy of the most recent scheduled job, or nil
func (s *CatalogSyncScheduler) LastJob() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastJob == nil {
		return nil
	}
	job := *s.lastJob
	return &job
}

func (s *CatalogSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		_, _ = s.Trigger(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Trigger(ctx); errors.Is(err, ErrSyncAlreadyInProgress) {
				s.logger.Warn("skipping scheduled catalog sync, previous run still in progress")
			}
		}
	}
}

// Trigger runs one sync synchronously unless a scheduled run is in flight
func (s *CatalogSyncScheduler) Trigger(ctx context.Context) (*Job, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.setLastJob(&Job{ID: uuid.New(), Status: JobStatusSkipped, StartedAt: time.Now()})
		return nil, ErrSyncAlreadyInProgress
	}
	defer s.inFlight.Store(false)

	job := &Job{ID: uuid.New(), Status: JobStatusRunning, StartedAt: time.Now()}
	s.setLastJob(job)

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	summary, err := s.runner.Run(runCtx)
	now := time.Now()

	s.mu.Lock()
	job.CompletedAt = &now
	job.Summary = summary
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
	} else {
		job.Status = JobStatusSuccess
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled catalog sync aborted",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return job, err
	}

	s.logger.Info("scheduled catalog sync completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("units", summary.Units),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)),
	)
	return job, nil
}

func (s *CatalogSyncScheduler) setLastJob(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastJob = job
}
