package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/loykin/rnpdno/internal/common"
	"go.mongodb.org/mongo-driver/mongo"
)

// Config controls how template store operations are retried.
// Dashboard requests never go through here.
type Config struct {
	MaxRetries    int           // retries after the first attempt
	InitialDelay  time.Duration // wait before the first retry
	MaxDelay      time.Duration // cap for any single wait
	BackoffFactor float64       // growth of the wait per retry
	// RetryableErrors are matched case-insensitively against the error text.
	RetryableErrors []string
}

// DefaultRetryConfig returns the policy used when a store has none configured.
func DefaultRetryConfig() *Config {
	return &Config{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"server selection",
			"temporary failure",
			"database is locked",
			"connection lost",
			"broken pipe",
			"i/o timeout",
		},
	}
}

// Retryable reports whether err may go away on another attempt: mongo
// network and timeout errors, net timeouts and the configured messages.
// Context cancellation and expiry are final.
func (rc *Config) Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range rc.RetryableErrors {
		if strings.Contains(msg, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Backoff returns the wait before retry n, counting from zero.
func (rc *Config) Backoff(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	d := time.Duration(float64(rc.InitialDelay) * math.Pow(rc.BackoffFactor, float64(n)))
	if d > rc.MaxDelay || d < 0 {
		return rc.MaxDelay
	}
	return d
}

// Attempts is the total number of tries, the first one included.
func (rc *Config) Attempts() int {
	if rc.MaxRetries < 0 {
		return 1
	}
	return rc.MaxRetries + 1
}

// Operation is a store call without a result.
type Operation func(ctx context.Context) error

// Do runs op until it succeeds, fails with an error Retryable rejects, or
// runs out of attempts. A nil config means DefaultRetryConfig.
func Do[T any](ctx context.Context, config *Config, op func(ctx context.Context) (T, error)) (T, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}
	logger := common.GetLogger().WithComponent("store-retry")
	attempts := config.Attempts()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("store operation succeeded after retry", "attempt", attempt, "max_attempts", attempts)
			}
			return out, nil
		}
		lastErr = err
		if !config.Retryable(err) {
			logger.Debug("store operation failed with non-retryable error", "error", err, "attempt", attempt)
			return zero, err
		}
		if attempt == attempts {
			break
		}

		delay := config.Backoff(attempt - 1)
		logger.Warn("store operation failed, retrying",
			"error", err,
			"attempt", attempt,
			"max_attempts", attempts,
			"retry_delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("operation cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}

	logger.Error("store operation failed after all retry attempts", "error", lastErr, "attempts", attempts)
	return zero, fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

// WithRetry is Do for operations without a result.
func WithRetry(ctx context.Context, config *Config, op Operation) error {
	_, err := Do(ctx, config, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
