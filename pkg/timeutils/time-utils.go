package timeutils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrAllAttemptsFailed = errors.New("all attempts failed")
)

// Retry calls function once and then once more after each of attemptDelays
// for as long as onFinished asks for a retry.
func Retry[T any](
	ctx context.Context,
	attemptDelays []time.Duration,
	function func(context.Context) (T, error),
	onFinished func(T, error) (needRetry bool),
) (T, error) {
	var (
		res     T
		lastErr error
	)
	for attempt := 0; attempt <= len(attemptDelays); attempt++ {
		if attempt > 0 {
			if err := SleepCtx(ctx, attemptDelays[attempt-1]); err != nil {
				var zero T
				return zero, err
			}
		}
		if ctx.Err() != nil {
			var zero T
			return zero, fmt.Errorf("retry canceled: %w", ctx.Err())
		}
		res, lastErr = function(ctx)
		if !onFinished(res, lastErr) {
			return res, lastErr
		}
	}
	var zero T
	if lastErr != nil {
		return zero, fmt.Errorf("%w: %w", ErrAllAttemptsFailed, lastErr)
	}
	return zero, ErrAllAttemptsFailed
}

func SleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
