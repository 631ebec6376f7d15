package retry

import (
	"context"
	"fmt"
	"time"
)

// Do runs fn up to attempts times with exponential backoff between tries.
// The ingestion and summarization pipeline never retries; this exists for the
// outbound delivery call only.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		delay := baseDelay * time.Duration(1<<(attempt-1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
