// Package scheduler triggers forecast ingestion on a fixed interval when the
// service runs as a long-lived process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/forecast-ingest/internal/domain"
	"github.com/couchcryptid/forecast-ingest/internal/observability"
)

// Runner performs one invocation.
type Runner interface {
	Run(ctx context.Context, trigger any) string
}

// Trigger is the payload handed to Runner.Run for scheduled invocations.
type Trigger struct {
	Source    string    `json:"source"`
	Scheduled time.Time `json:"scheduled"`
}

// Scheduler runs a Runner immediately and then every interval. Runs never
// overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Scheduler. The interval must be positive.
func New(runner Runner, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Start schedules the job and starts the underlying scheduler. Jobs run with
// ctx, so cancelling it aborts an in-flight invocation.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.scheduler.IsRunning() {
		return errors.New("scheduler already started")
	}
	if _, err := s.scheduler.Every(s.interval).Do(s.runOnce, ctx); err != nil {
		return fmt.Errorf("schedule ingest job: %w", err)
	}

	s.scheduler.StartAsync()
	s.metrics.SchedulerRunning.Set(1)
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and waits for a running job to return.
func (s *Scheduler) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
	s.metrics.SchedulerRunning.Set(0)
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug("running scheduled ingest")
	result := s.runner.Run(ctx, Trigger{Source: "scheduler", Scheduled: domain.Clock().Now().UTC()})
	s.logger.Debug("scheduled ingest finished", "result", result)
}
