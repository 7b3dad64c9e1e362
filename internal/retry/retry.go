// Package retry repeats provider calls that fail for transient reasons.
package retry

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/domain"
)

// Predicate determines whether an error should be retried.
type Predicate func(error) bool

// Config controls retry behavior.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// MaxDelay caps both the computed backoff and any delay the server
	// asked for. Zero means no cap.
	MaxDelay time.Duration

	// OnRetry, if set, is called before each sleep with the attempt that
	// just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// hintError carries a server-requested wait (Retry-After).
type hintError struct {
	err   error
	after time.Duration
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

// After annotates err with the minimum wait before the next attempt.
// A nil err stays nil.
func After(err error, d time.Duration) error {
	if err == nil || d <= 0 {
		return err
	}
	return &hintError{err: err, after: d}
}

// Hint returns the wait requested through After, if any.
func Hint(err error) (time.Duration, bool) {
	var h *hintError
	if errors.As(err, &h) {
		return h.after, true
	}
	return 0, false
}

// Value runs fn with retries using the provided config. The result of the
// last attempt is returned alongside its error.
func Value[T any](ctx context.Context, config Config, shouldRetry Predicate, fn func() (T, error)) (T, error) {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}

	var (
		out T
		err error
	)
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}

		out, err = fn()
		if err == nil {
			return out, nil
		}
		if attempt == config.MaxAttempts || !shouldRetry(err) {
			return out, err
		}

		delay := nextDelay(config, attempt, err)
		if config.OnRetry != nil {
			config.OnRetry(attempt, err, delay)
		}
		if delay > 0 && !sleep(ctx, delay) {
			return out, ctx.Err()
		}
	}
	return out, err
}

// nextDelay is the jittered backoff, raised to the server hint when one
// is present, and capped by MaxDelay.
func nextDelay(config Config, attempt int, err error) time.Duration {
	delay := backoffDelay(config.BaseDelay, config.MaxDelay, attempt)
	if hint, ok := Hint(err); ok && hint > delay {
		delay = hint
	}
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// IsRetryable determines whether an error is likely transient: timeouts,
// dropped connections, provider 5xx responses and throttling.
// Authentication failures and missing resources are never retried.
func IsRetryable(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotFound):
		return false
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, domain.ErrServerError),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// backoffDelay returns a full-jitter delay: uniform in [0, min(ceiling, base*2^(attempt-1))].
func backoffDelay(base, ceiling time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	attempt = min(max(attempt, 1), 62)

	delay := base << (attempt - 1)
	if delay <= 0 || (ceiling > 0 && delay > ceiling) {
		delay = ceiling
	}
	if delay <= 0 {
		return 0
	}
	return rand.N(delay + 1)
}

func sleep(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
