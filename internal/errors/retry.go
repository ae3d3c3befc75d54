package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy configures transient-retry behavior around the external fetch.
// It is only applied to upstream transport failures; empty-but-successful
// responses go through the trial ledger instead.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy mirrors the upstream defaults: three attempts with
// exponential backoff between one and thirty seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// Retry executes fn, retrying transient failures per the policy. Errors that
// are not transient are returned immediately. The final error after exhausted
// attempts wraps the last failure.
func Retry(ctx context.Context, logger *slog.Logger, policy RetryPolicy, op string, fn func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialDelay
	exp.MaxInterval = policy.MaxDelay
	exp.MaxElapsedTime = 0
	strategy := backoff.WithMaxRetries(exp, uint64(policy.MaxAttempts-1))

	var lastErr error
	attempts := 0
	for {
		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return err
		}
		logger.Warn("transient upstream failure",
			"operation", op,
			"attempt", attempts,
			"max_attempts", policy.MaxAttempts,
			"error", err.Error())

		if ctx.Err() != nil {
			return fmt.Errorf("context canceled during retry: %w", ctx.Err())
		}
		next := strategy.NextBackOff()
		if next == backoff.Stop {
			break
		}
		select {
		case <-time.After(next):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
		}
	}
	return fmt.Errorf("operation %s failed after %d attempts: %w", op, attempts, lastErr)
}

// isTransient classifies whether a fetch failure is worth another attempt.
func isTransient(err error) bool {
	if IsTransient(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"rate limit",
		"too many requests",
		"service unavailable",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
