package retry

import (
	"context"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/cenkalti/backoff/v4"
)

// Retry calls fn up to maxAttempts times with exponential backoff and jitter.
// Only errors accepted by retryable are retried; anything else is returned at once.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, retryable func(error) bool, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = baseDelay
	exp.RandomizationFactor = 0.5
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxAttempts-1)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		logger.WarningTagged([]string{"Retry"}, "Attempt %d failed: %v. Retrying in %v...", attempt, err, delay.Round(time.Millisecond))
	}

	return backoff.RetryNotify(op, policy, notify)
}
