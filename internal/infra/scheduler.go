package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs Jobs on fixed intervals. A job never overlaps with itself.
type Scheduler struct {
	cron   gocron.Scheduler
	logger *slog.Logger
}

// NewScheduler registers jobs on a gocron scheduler without starting it.
func NewScheduler(ctx context.Context, logger *slog.Logger, jobs ...Job) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	for _, j := range jobs {
		job := j
		_, err := s.NewJob(
			gocron.DurationJob(job.Interval),
			gocron.NewTask(func() {
				start := time.Now()
				if err := job.Run(ctx); err != nil {
					logger.Error("scheduled job failed", "job", job.Name, "error", err)
					return
				}
				logger.Info("scheduled job finished", "job", job.Name, "duration", time.Since(start))
			}),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("register job %s: %w", job.Name, err)
		}
		logger.Info("scheduled job registered", "job", job.Name, "interval", job.Interval)
	}

	return &Scheduler{cron: s, logger: logger}, nil
}

// Start begins running registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}
