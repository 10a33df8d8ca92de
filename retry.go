package smbfs

import (
	"context"
	"time"
)

// RetryPolicy defines retry behavior for transient collaborator failures
// (SPEC_FULL.md A3), kept from the teacher nearly as-is.
type RetryPolicy struct {
	MaxAttempts  int           // Maximum number of attempts (default: 3)
	InitialDelay time.Duration // Initial delay between retries (default: 100ms)
	MaxDelay     time.Duration // Maximum delay between retries (default: 5s)
	Multiplier   float64       // Backoff multiplier (default: 2.0)
	Logger       Logger        // Optional logger for retry attempts
}

// defaultRetryPolicy is the default retry policy.
var defaultRetryPolicy = &RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
}

// DefaultRetryPolicy returns the package's default retry policy.
func DefaultRetryPolicy() *RetryPolicy {
	return defaultRetryPolicy
}

// withRetry executes operation under policy's exponential backoff,
// retrying only errors isRetryable judges transient. A nil policy uses
// the default.
func withRetry(ctx context.Context, policy *RetryPolicy, operation func() error) error {
	if policy == nil {
		policy = defaultRetryPolicy
	}

	if policy.MaxAttempts <= 1 {
		return operation()
	}

	var lastErr error
	delay := policy.InitialDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt == policy.MaxAttempts {
			break
		}

		if policy.Logger != nil {
			policy.Logger.Printf("Operation failed (attempt %d/%d), retrying in %v: %v",
				attempt, policy.MaxAttempts, delay, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * policy.Multiplier)
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return lastErr
}
