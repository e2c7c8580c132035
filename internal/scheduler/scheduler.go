// Package scheduler runs the due-expense reminder on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"budget/internal/config"
	"budget/internal/ledger"
	"budget/internal/log"

	"github.com/robfig/cron/v3"
)

// Reminder is the job the scheduler fires.
type Reminder interface {
	Run(ctx context.Context, now time.Time) ([]ledger.DueExpense, error)
}

// Scheduler wraps a seconds-enabled cron.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
	now    func() time.Time
}

func New(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Scheduler{
		cron:   cron.New(cron.WithParser(config.ReminderSchedule)),
		logger: logger.WithComponent(log.ComponentScheduler),
		now:    time.Now,
	}
}

// AddReminder registers r under spec. Each firing gets ctx so a shutdown
// cancels a reminder that is still running.
func (s *Scheduler) AddReminder(ctx context.Context, spec string, r Reminder) error {
	if _, err := s.cron.AddFunc(spec, func() { s.fire(ctx, r) }); err != nil {
		return fmt.Errorf("register reminder %q: %w", spec, err)
	}
	s.logger.InfoContext(ctx, "Reminder scheduled", "spec", spec)
	return nil
}

// RunNow fires r once outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, r Reminder) {
	s.fire(ctx, r)
}

func (s *Scheduler) fire(ctx context.Context, r Reminder) {
	now := s.now()
	due, err := r.Run(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Reminder failed",
			log.FieldOperation, log.OpRemind,
			log.FieldError, err)
		return
	}
	s.logger.InfoContext(ctx, "Reminder done",
		log.FieldMonth, int(now.Month()),
		log.FieldExpenses, len(due))
}

// Run starts the cron and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started")

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.InfoContext(context.Background(), "Scheduler stopped")
	return nil
}
