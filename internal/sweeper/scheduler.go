package sweeper

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the sweep on a cron cadence: hourly, daily at midnight, and
// once at startup to catch transitions missed while the process was down.
type Scheduler struct {
	cron   *cron.Cron
	run    func(ctx context.Context)
	logger *zap.Logger
}

// NewScheduler creates a sweep scheduler around the given run function.
func NewScheduler(run func(ctx context.Context), logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		run:    run,
		logger: logger,
	}
}

// Start registers the schedules, fires one immediate run, and starts the cron
// loop in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	job := func() {
		s.run(ctx)
	}

	if _, err := s.cron.AddFunc("0 * * * *", job); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 * * *", job); err != nil {
		return err
	}

	go job()

	s.cron.Start()
	s.logger.Info("sweep scheduler started")
	return nil
}

// Stop halts the cron loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("sweep scheduler stopped")
}
