package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/shared"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
)

// StatusError carries a non-2xx HTTP status from a remote service.
type StatusError struct {
	StatusCode int
	URL        string
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s returned %d: %s", e.URL, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets 4xx responses match [shared.ErrClientResponse].
func (e *StatusError) Is(target error) bool {
	return target == shared.ErrClientResponse && e.clientError()
}

func (e *StatusError) clientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retrier retries an operation with exponential backoff: the delay after
// attempt i (0-based) is BaseDelay * 2^i, and there is no delay after the
// final attempt.
//
// Client errors (4xx [StatusError]) and [Permanent] errors end the loop
// immediately. Server errors, other non-2xx statuses and transport failures
// are retried.
type Retrier struct {
	Attempts  int
	BaseDelay time.Duration
	logger    *log.Logger
	sleep     func(context.Context, time.Duration) error
}

// NewRetrier creates a [Retrier]. Non-positive attempts fall back to [DefaultMaxAttempts]
// and a negative delay falls back to [DefaultBaseDelay].
func NewRetrier(attempts int, baseDelay time.Duration, logger *log.Logger) *Retrier {
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Retrier{Attempts: attempts, BaseDelay: baseDelay, logger: logger, sleep: sleepContext}
}

// Delay returns the backoff after the given 0-based attempt.
func (r *Retrier) Delay(attempt int) time.Duration {
	return r.BaseDelay * time.Duration(1<<attempt)
}

// Do runs op until it succeeds, fails permanently or the attempts are used up.
// Exhaustion is reported as [shared.ErrFetch].
func (r *Retrier) Do(ctx context.Context, label string, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < r.Attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.clientError() {
			return fmt.Errorf("%w: %w", shared.ErrFetch, err)
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return fmt.Errorf("%w: %w", shared.ErrFetch, perm.err)
		}

		lastErr = err
		if attempt == r.Attempts-1 {
			break
		}

		delay := r.Delay(attempt)
		r.logger.Warn("retrying request", "target", label, "attempt", attempt+1, "delay", delay, "error", err)
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %w", shared.ErrFetch, label, r.Attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
