package providers

import (
	"context"
	"log"
	"time"

	"infinite-experiment/kontrollburo/internal/constants"
)

// withRetry runs op up to attempts times with a fixed delay between tries.
// Retries stop early when the context is done. Callers treat an exhausted
// retry as "activity unchanged", never as zero activity.
func withRetry(ctx context.Context, name string, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		log.Printf("[%s] Attempt %d/%d failed: %v", name, attempt, attempts, lastErr)

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return &ProviderError{
		Code:    constants.ErrCodeRetriesExhausted,
		Message: constants.GetErrorMessage(constants.ErrCodeRetriesExhausted),
		Err:     lastErr,
	}
}
