package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy caps how often BookWithRetry re-runs a booking that lost a
// concurrency race.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// BookWithRetry re-runs the full read-validate-commit cycle after a
// ConflictError, with capped exponential backoff and jitter. Any other
// outcome is returned as soon as it happens.
func (e *Engine) BookWithRetry(ctx context.Context, req Request, policy RetryPolicy) (*Confirmation, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}
	b.MaxElapsedTime = 0

	var (
		conf    *Confirmation
		attempt int
	)
	op := func() error {
		attempt++
		var err error
		conf, err = e.Book(ctx, req)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		e.log.Info("retrying booking after conflict", "attempt", attempt, "error", err)
		return err
	}

	policyBackoff := backoff.WithContext(backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1)), ctx)
	if err := backoff.Retry(op, policyBackoff); err != nil {
		// The backoff gives up with the bare context error when ctx ends
		// while waiting between attempts.
		var k kinded
		if !errors.As(err, &k) {
			return nil, backendFault(ctx, "retry booking", err)
		}
		return nil, err
	}
	return conf, nil
}
