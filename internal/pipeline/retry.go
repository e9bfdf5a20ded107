package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docmock/internal/extract"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *extract.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// Retrying retries transient completion failures with jittered backoff.
type Retrying struct {
	extract.Client
	Log *slog.Logger

	backoff func(attempt int) time.Duration
}

func (r Retrying) Complete(ctx context.Context, prompt string) (string, error) {
	backoff := r.backoff
	if backoff == nil {
		backoff = Backoff
	}
	var (
		text    string
		lastErr error
	)
	for attempt := range MaxRetries {
		text, lastErr = r.Client.Complete(ctx, prompt)
		if lastErr == nil || !IsRetryable(lastErr) {
			return text, lastErr
		}
		if r.Log != nil {
			r.Log.Warn("retryable llm error", "attempt", attempt, "error", lastErr)
		}
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
