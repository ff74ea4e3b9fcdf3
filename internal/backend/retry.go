package backend

import (
	"context"
	"time"

	"lakechat/cli/internal/errors"
)

// RetryPolicy decides whether a failed connection attempt is repeated and
// how long to wait first. Attempts are numbered from 1.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy returns 3 attempts with 1s doubling backoff capped at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		MaxBackoff:  5 * time.Second,
	}
}

// ShouldRetry reports whether another attempt follows the failed attempt
// and the backoff to wait before it. Only connection and server errors are
// retried, and never past MaxAttempts.
func (p RetryPolicy) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if err == nil || attempt >= p.MaxAttempts {
		return false, 0
	}
	switch errors.KindOf(err) {
	case errors.Connection, errors.Server:
		return true, p.Backoff(attempt)
	default:
		return false, 0
	}
}

// Backoff returns BaseBackoff * 2^(attempt-1), capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
