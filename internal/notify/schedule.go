package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun returns the first fire time of expr after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("notify: schedule %q: %w", expr, err)
	}
	return sched.Next(from), nil
}

// Scheduler runs a Notifier on a cron schedule.
type Scheduler struct {
	n    *Notifier
	expr string
}

// NewScheduler validates expr and returns a Scheduler for n.
func NewScheduler(n *Notifier, expr string) (*Scheduler, error) {
	if _, err := cronParser.Parse(expr); err != nil {
		return nil, fmt.Errorf("notify: schedule %q: %w", expr, err)
	}
	return &Scheduler{n: n, expr: expr}, nil
}

// Run fires the notifier on every tick until ctx is cancelled. A tick that
// starts while the previous one is still sending is skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.expr, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("notify: schedule %q: %w", s.expr, err)
	}
	c.Start()
	s.n.log.WithField("schedule", s.expr).Info("notify: scheduler started")
	<-ctx.Done()
	<-c.Stop().Done()
	s.n.log.Info("notify: scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	sent, err := s.n.Run(ctx)
	if err != nil {
		s.n.log.WithError(err).Warn("notify: reminder run")
	}
	if sent > 0 {
		s.n.log.WithField("sent", sent).Info("notify: reminder run finished")
	}
}
