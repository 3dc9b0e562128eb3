package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RetryableError marks an error as transient so that [Retry] attempts the
// operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// StatusError is a response with an unexpected status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// CheckStatus returns nil for 2xx, a retryable *StatusError for 5xx and 429,
// and a plain *StatusError otherwise.
func CheckStatus(code int, body string) error {
	if code >= 200 && code < 300 {
		return nil
	}
	err := &StatusError{StatusCode: code, Body: body}
	if code >= 500 || code == http.StatusTooManyRequests {
		return &RetryableError{Err: err}
	}
	return err
}

// Retry executes fn up to attempts times with exponential backoff.
// Only errors wrapped with [RetryableError] are retried; others are returned
// immediately. The delay doubles after each failed attempt. Returns the last
// error if all attempts fail, or ctx.Err() if cancelled while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// IsRetryable reports whether err is wrapped in a RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
