package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
)

// Task is a periodic job. Its context ends when the scheduler stops.
type Task func(ctx context.Context) error

type Scheduler struct {
	s      gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{s: s, ctx: ctx, cancel: cancel}, nil
}

// Every registers task to run at interval, once immediately on Start. Runs of
// the same task never overlap.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %s", interval, name)
	}

	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			start := time.Now()
			if err := task(s.ctx); err != nil {
				logger.Error("Scheduled job failed", "job", name, "error", err)
				return
			}
			logger.Debug("Scheduled job finished", "job", name, "duration", time.Since(start))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	logger.Info("Scheduled job", "job", name, "interval", interval)
	return nil
}

func (s *Scheduler) Start() {
	s.s.Start()
	logger.Info("Scheduler started", "jobs", len(s.s.Jobs()))
}

func (s *Scheduler) Stop() error {
	s.cancel()
	return s.s.Shutdown()
}
