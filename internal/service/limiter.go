package service

import (
	"context"
	"time"
)

// IntervalLimiter enforces a fixed delay between consecutive calls.
type IntervalLimiter struct {
	interval time.Duration
}

// NewIntervalLimiter creates a limiter with the given inter-call delay.
// A non-positive interval waits not at all.
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{interval: interval}
}

// Wait blocks for the configured interval or until the context is done.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return nil
	}

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
