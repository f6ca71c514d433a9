// Package scheduler runs the server-side background jobs: the due-reminder sweep, email
// outbox dispatch and expired-session cleanup.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"taskdesk/internal/pkg/logger"
)

const (
	defaultSweepSpec   = "@every 1m"
	defaultOutboxSpec  = "@every 30s"
	defaultSessionSpec = "@hourly"
)

type ReminderSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type OutboxDispatcher interface {
	Dispatch(ctx context.Context) (int, error)
}

type SessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	reminders ReminderSweeper
	outbox    OutboxDispatcher
	sessions  SessionPurger
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger

	sweepSchedule   string
	outboxSchedule  string
	sessionSchedule string
}

type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSweepSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.sweepSchedule = spec
		}
	}
}

func WithOutboxSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.outboxSchedule = spec
		}
	}
}

func WithSessionSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.sessionSchedule = spec
		}
	}
}

// New builds a scheduler. A nil dependency skips its job.
func New(reminders ReminderSweeper, outbox OutboxDispatcher, sessions SessionPurger, opts ...Option) *Scheduler {
	s := &Scheduler{
		reminders:       reminders,
		outbox:          outbox,
		sessions:        sessions,
		now:             time.Now,
		log:             logger.WithModule("scheduler"),
		sweepSchedule:   defaultSweepSpec,
		outboxSchedule:  defaultOutboxSpec,
		sessionSchedule: defaultSessionSpec,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	}
	return s
}

// Start registers the jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	jobs := []struct {
		enabled bool
		spec    string
		run     func(context.Context) error
	}{
		{s.reminders != nil, s.sweepSchedule, s.sweepReminders},
		{s.outbox != nil, s.outboxSchedule, s.dispatchOutbox},
		{s.sessions != nil, s.sessionSchedule, s.purgeSessions},
	}

	for _, job := range jobs {
		if !job.enabled {
			continue
		}
		run := job.run
		if _, err := s.cron.AddFunc(job.spec, func() {
			if err := run(context.Background()); err != nil {
				s.log.Warn("scheduled job failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce runs every configured job sequentially and returns the combined errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs error
	if s.reminders != nil {
		errs = multierr.Append(errs, s.sweepReminders(ctx))
	}
	if s.outbox != nil {
		errs = multierr.Append(errs, s.dispatchOutbox(ctx))
	}
	if s.sessions != nil {
		errs = multierr.Append(errs, s.purgeSessions(ctx))
	}
	return errs
}

func (s *Scheduler) sweepReminders(ctx context.Context) error {
	fired, err := s.reminders.Sweep(ctx)
	if fired > 0 {
		s.log.Info("reminder sweep", zap.Int("fired", fired))
	}
	return err
}

func (s *Scheduler) dispatchOutbox(ctx context.Context) error {
	sent, err := s.outbox.Dispatch(ctx)
	if sent > 0 {
		s.log.Debug("outbox dispatch", zap.Int("sent", sent))
	}
	return err
}

func (s *Scheduler) purgeSessions(ctx context.Context) error {
	removed, err := s.sessions.DeleteExpired(ctx, s.now())
	if removed > 0 {
		s.log.Info("expired sessions removed", zap.Int64("count", removed))
	}
	return err
}
