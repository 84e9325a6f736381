package worker

// retry.go
// Reusable retry-with-backoff combinator. Only the two writes whose absence
// after a reported save would desynchronize physical rolls from records get
// retried (confirmation update, storage capture create); printing and other
// non-critical side effects are never retried.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxAttempts and DefaultBaseDelay match the lifecycle's retry policy:
// 3 attempts, 1s base delay, doubling.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// WithRetry runs op up to maxAttempts times, sleeping baseDelay, 2×baseDelay,
// 4×baseDelay… between attempts. Returns nil on the first success, the last
// error otherwise. The context aborts waiting between attempts.
func WithRetry(ctx context.Context, name string, op func(ctx context.Context) error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 1 {
				log.Info().Str("op", name).Int("attempt", attempt).Msg("retry: succeeded after retry")
			}
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		log.Warn().Str("op", name).Int("attempt", attempt).
			Dur("next_delay", delay).Err(lastErr).
			Msg("retry: attempt failed, backing off")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	log.Error().Str("op", name).Int("attempts", maxAttempts).Err(lastErr).
		Msg("retry: all attempts exhausted")
	return lastErr
}
