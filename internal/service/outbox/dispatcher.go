// Package outbox delivers queued emails outside the transactions that produced them.
package outbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/logger"
	"taskdesk/internal/pkg/mail"
	"taskdesk/internal/pkg/metrics"
	"taskdesk/internal/repository"
)

type Options struct {
	From        string
	BatchSize   int
	MaxAttempts int
	// ClaimTimeout is how long a row may stay claimed before another dispatch retries it.
	ClaimTimeout time.Duration
}

// Dispatcher sends pending outbox rows. A failed send is recorded on the row and never
// affects the write that queued it.
type Dispatcher struct {
	repo   repository.OutboxRepository
	sender mail.Sender
	opts   Options
	log    *zap.Logger
	kick   chan struct{}
	now    func() time.Time
}

func NewDispatcher(repo repository.OutboxRepository, sender mail.Sender, opts Options) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = 10 * time.Minute
	}
	return &Dispatcher{
		repo:   repo,
		sender: sender,
		opts:   opts,
		log:    logger.WithModule("outbox"),
		kick:   make(chan struct{}, 1),
		now:    time.Now,
	}
}

// Dispatch sends one batch and returns how many emails went out. Each row is claimed before
// it is sent, so concurrent dispatches never deliver the same email twice. Per-email failures
// are aggregated into the returned error after every row has been attempted.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	released, err := d.repo.ReleaseStale(ctx, d.now().Add(-d.opts.ClaimTimeout))
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	if released > 0 {
		d.log.Warn("released stale outbox claims", zap.Int64("count", released))
	}

	pending, err := d.repo.ListPending(ctx, d.opts.MaxAttempts, d.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending emails: %w", err)
	}

	var (
		sent int
		errs error
	)
	for _, email := range pending {
		if ctx.Err() != nil {
			return sent, multierr.Append(errs, ctx.Err())
		}
		claimed, err := d.repo.Claim(ctx, email.ID, d.now())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("claim email %s: %w", email.ID, err))
			continue
		}
		if !claimed {
			continue
		}
		if err := d.deliver(ctx, email); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("email %s: %w", email.ID, err))
			continue
		}
		sent++
	}
	return sent, errs
}

func (d *Dispatcher) deliver(ctx context.Context, email domain.OutboxEmail) error {
	msg := mail.Message{
		From:    d.opts.From,
		To:      []string{email.ToAddress},
		Subject: email.Subject,
		Text:    email.TextBody,
		HTML:    email.HTMLBody,
	}

	sendErr := d.sender.Send(ctx, msg)
	if sendErr == nil {
		metrics.EmailsDelivered.WithLabelValues("sent").Inc()
		return d.repo.MarkSent(ctx, email.ID, d.now())
	}

	result := "retry"
	if email.Attempts+1 >= d.opts.MaxAttempts {
		result = "failed"
	}
	metrics.EmailsDelivered.WithLabelValues(result).Inc()
	d.log.Warn("email delivery failed",
		zap.String("email_id", email.ID.String()),
		zap.String("to", email.ToAddress),
		zap.Int("attempt", email.Attempts+1),
		zap.String("result", result),
		zap.Error(sendErr),
	)

	if err := d.repo.RecordFailure(ctx, email.ID, sendErr.Error(), d.opts.MaxAttempts); err != nil {
		return multierr.Append(sendErr, err)
	}
	return sendErr
}

// Kick asks a running loop to dispatch soon. It never blocks.
func (d *Dispatcher) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Run dispatches whenever Kick is called until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.kick:
			if _, err := d.Dispatch(ctx); err != nil {
				d.log.Error("outbox dispatch finished with errors", zap.Error(err))
			}
		}
	}
}
