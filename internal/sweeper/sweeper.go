// Package sweeper runs the expired-entry sweep on a fixed interval.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Target deletes expired cache entries and reports how many were removed.
type Target interface {
	SweepExpired(ctx context.Context) (int64, error)
}

const initialBackoff = 200 * time.Millisecond

// Scheduler sweeps a Target every interval. A failed sweep is retried with
// exponential backoff capped at the interval.
type Scheduler struct {
	target   Target
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// New creates a Scheduler. A nil clock uses real time.
func New(target Target, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{target: target, interval: interval, clock: clock, logger: logger}
}

// Run sweeps until ctx is cancelled. The first sweep happens one interval
// after Run is called.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("cache sweeper started", "interval", s.interval)

	wait := s.interval
	backoff := initialBackoff
	for {
		if !s.sleep(ctx, wait) {
			s.logger.Info("cache sweeper stopping", "reason", ctx.Err())
			return nil
		}

		n, err := s.target.SweepExpired(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("scheduled sweep failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, s.interval)
			continue
		}

		s.logger.Debug("scheduled sweep complete", "removed", n)
		wait = s.interval
		backoff = initialBackoff
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}

	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
