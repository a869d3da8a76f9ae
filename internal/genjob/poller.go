package genjob

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lineup/internal/logging"
	"lineup/internal/services"
)

// ErrPollTimeout reports that a poll loop gave up waiting. The stored job
// record is left untouched: the backend may still finish, and a later
// ResumeIfPending can pick the job back up.
var ErrPollTimeout = errors.New("generation job poll timed out")

// Poller drives the fixed-interval polling loop for one job at a time.
// Stopping the loop (via context cancellation) does NOT cancel the backend
// job; the backend runs to completion or failure regardless. Only polling
// stops.
type Poller struct {
	manager  *Manager
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewPoller constructs a poller. Interval is the gap between status reads;
// timeout bounds the whole loop (zero means no bound).
func NewPoller(manager *Manager, interval, timeout time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{
		manager:  manager,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With(slog.String(logging.FieldComponent, "genjob-poller")),
	}
}

// Wait polls until the job reaches a terminal status, the context is
// cancelled, or the timeout expires. Transient poll failures are logged and
// retried on the next tick; only an explicit failed status or a not-found
// answer is authoritative.
func (p *Poller) Wait(ctx context.Context, jobID string) (*Job, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.timeout, ErrPollTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		job, err := p.manager.Refresh(ctx, jobID)
		switch {
		case err == nil:
			if job.IsTerminal() {
				return job, nil
			}
		case errors.Is(err, services.ErrNotFound):
			return nil, err
		case services.IsRetryable(err):
			p.logger.Warn("poll failed, retrying next tick",
				slog.String(logging.FieldJobID, jobID),
				slog.String("error", err.Error()))
		default:
			return nil, err
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if cause := context.Cause(ctx); errors.Is(cause, ErrPollTimeout) {
				p.logger.Warn("gave up polling, backend job may still finish",
					slog.String(logging.FieldJobID, jobID))
				return nil, ErrPollTimeout
			}
			return nil, ctx.Err()
		}
	}
}
