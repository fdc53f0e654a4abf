package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/raff/internal/shared"
)

func TestRetrier(t *testing.T) {
	newRetrier := func() (*Retrier, *[]time.Duration) {
		r := NewRetrier(3, 500*time.Millisecond, shared.NewLogger(io.Discard))
		var delays []time.Duration
		r.sleep = func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}
		return r, &delays
	}

	t.Run("defaults", func(t *testing.T) {
		r := NewRetrier(0, -1, nil)
		if r.Attempts != DefaultMaxAttempts || r.BaseDelay != DefaultBaseDelay {
			t.Errorf("unexpected defaults %+v", r)
		}
	})

	t.Run("Delay doubles", func(t *testing.T) {
		r, _ := newRetrier()
		want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
		for i, d := range want {
			if got := r.Delay(i); got != d {
				t.Errorf("Delay(%d) = %v, want %v", i, got, d)
			}
		}
	})

	tc := []struct {
		name       string
		errs       []error
		wantCalls  int
		wantDelays int
		wantErr    error
	}{
		{name: "first try succeeds", errs: []error{nil}, wantCalls: 1},
		{name: "server error then success", errs: []error{&StatusError{StatusCode: 502}, nil}, wantCalls: 2, wantDelays: 1},
		{name: "client error", errs: []error{&StatusError{StatusCode: 400}}, wantCalls: 1, wantErr: shared.ErrClientResponse},
		{name: "permanent", errs: []error{Permanent(errors.New("bad url"))}, wantCalls: 1, wantErr: shared.ErrFetch},
		{name: "exhausted", errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}, wantCalls: 3, wantDelays: 2, wantErr: shared.ErrFetch},
		{name: "too many requests is a client error", errs: []error{&StatusError{StatusCode: http.StatusTooManyRequests}}, wantCalls: 1, wantErr: shared.ErrClientResponse},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			r, delays := newRetrier()
			calls := 0
			err := r.Do(context.Background(), "test", func(context.Context) error {
				e := tt.errs[calls]
				calls++
				return e
			})

			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
			if len(*delays) != tt.wantDelays {
				t.Errorf("expected %d delays, got %v", tt.wantDelays, *delays)
			}
		})
	}

	t.Run("cancelled context stops retries", func(t *testing.T) {
		r, delays := newRetrier()
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := r.Do(ctx, "test", func(context.Context) error {
			calls++
			cancel()
			return errors.New("boom")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 1 || len(*delays) != 0 {
			t.Errorf("expected a single call and no delays, got calls=%d delays=%v", calls, *delays)
		}
	})

	t.Run("sleepContext honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
