/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/jonboulle/clockwork"
)

func rateLimitErr(reset time.Time) error {
	return &github.RateLimitError{
		Rate:    github.Rate{Reset: github.Timestamp{Time: reset}},
		Message: "API rate limit exceeded",
	}
}

func TestDoRetryCap(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(WithClock(fc))

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Do(context.Background(), "test", func(context.Context) (*github.Response, error) {
			calls++
			return nil, rateLimitErr(fc.Now().Add(time.Second))
		})
	}()

	// Five backoff sleeps, then the sixth attempt fails for good.
	for i := 0; i < 5; i++ {
		fc.BlockUntil(1)
		fc.Advance(2 * time.Second)
	}

	err := <-errCh
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Do() error = %v, want ErrRateLimitExceeded", err)
	}
	if calls != 6 {
		t.Errorf("made %d attempts, want exactly 6", calls)
	}
}

func TestDoRecoversAfterRateLimit(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(WithClock(fc))

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Do(context.Background(), "test", func(context.Context) (*github.Response, error) {
			calls++
			if calls == 1 {
				return nil, rateLimitErr(fc.Now().Add(time.Second))
			}
			return nil, nil
		})
	}()

	fc.BlockUntil(1)
	fc.Advance(2 * time.Second)

	if err := <-errCh; err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("made %d attempts, want 2", calls)
	}
}

func TestDoAbuseNeverRetried(t *testing.T) {
	c := New(WithClock(clockwork.NewFakeClock()))

	calls := 0
	err := c.Do(context.Background(), "test", func(context.Context) (*github.Response, error) {
		calls++
		return nil, &github.AbuseRateLimitError{Message: "abuse detected"}
	})
	if !errors.Is(err, ErrAbuseDetected) {
		t.Fatalf("Do() error = %v, want ErrAbuseDetected", err)
	}
	if calls != 1 {
		t.Errorf("made %d attempts, want 1", calls)
	}
}

func TestDoOtherErrorsPropagate(t *testing.T) {
	c := New(WithClock(clockwork.NewFakeClock()))

	boom := errors.New("boom")
	calls := 0
	err := c.Do(context.Background(), "test", func(context.Context) (*github.Response, error) {
		calls++
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Do() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("made %d attempts, want 1", calls)
	}
}

func TestDoCancelledDuringBackoff(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(WithClock(fc))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Do(ctx, "test", func(context.Context) (*github.Response, error) {
			return nil, rateLimitErr(fc.Now().Add(time.Hour))
		})
	}()

	fc.BlockUntil(1)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
}

func TestRetryDelayFallsBack(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(WithClock(fc))

	var rl github.RateLimitError
	if got := c.retryDelay(&rl); got != defaultRetryDelay {
		t.Errorf("retryDelay(zero reset) = %v, want %v", got, defaultRetryDelay)
	}

	rl.Rate.Reset = github.Timestamp{Time: fc.Now().Add(-time.Minute)}
	if got := c.retryDelay(&rl); got != defaultRetryDelay {
		t.Errorf("retryDelay(past reset) = %v, want %v", got, defaultRetryDelay)
	}

	rl.Rate.Reset = github.Timestamp{Time: fc.Now().Add(30 * time.Second)}
	if got := c.retryDelay(&rl); got != 30*time.Second {
		t.Errorf("retryDelay(future reset) = %v, want 30s", got)
	}
}
