/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package ghclient wraps logical GitHub API calls with quota-aware
// retry. Transport-level concerns (auth, connection retry) belong to
// the http.Client handed to go-github; this layer only reacts to the
// rate limit signals go-github surfaces as typed errors.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	// rateLimitRetries tracks retries after primary rate limits.
	rateLimitRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "github_rate_limit_retries_total",
			Help: "Total number of retries after GitHub rate limit errors",
		},
		[]string{"outcome"},
	)

	// rateLimitWaitSeconds tracks duration of rate limit pauses.
	rateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "github_rate_limit_wait_seconds",
			Help:    "Duration of rate limit pauses in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"operation"},
	)

	// abuseDetections tracks abuse (secondary) rate limit signals.
	abuseDetections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "github_abuse_detections_total",
			Help: "Total number of GitHub abuse detection signals",
		},
	)
)

var (
	// ErrRateLimitExceeded reports that the retry budget for a logical
	// call was exhausted.
	ErrRateLimitExceeded = errors.New("github rate limit retry budget exhausted")

	// ErrAbuseDetected reports an abuse detection signal. These are
	// never retried.
	ErrAbuseDetected = errors.New("github abuse detection triggered")
)

const (
	// maxRetries bounds the retry loop: one initial attempt plus five
	// retries, so a persistently rate-limited call fails on its sixth
	// attempt.
	maxRetries = 5

	// defaultRetryDelay applies when the rate limit error carries no
	// usable reset time.
	defaultRetryDelay = time.Minute
)

// Caller executes logical GitHub API calls with client-side pacing and
// rate limit retry.
type Caller struct {
	clock clockwork.Clock
	pacer *rate.Limiter
}

// Option configures a Caller.
type Option func(*Caller)

// WithClock overrides the clock used for backoff sleeps.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Caller) {
		c.clock = clock
	}
}

// WithRequestsPerSecond paces outbound calls so page walks cannot burst
// the quota.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Caller) {
		c.pacer = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// New creates a Caller. Without options it uses the real clock and no
// pacing.
func New(opts ...Option) *Caller {
	c := &Caller{
		clock: clockwork.NewRealClock(),
		pacer: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs fn, retrying on primary rate limit errors with the
// server-suggested delay. Abuse detection signals and all other errors
// propagate immediately. The op name is used for logs and metrics only.
func (c *Caller) Do(ctx context.Context, op string, fn func(ctx context.Context) (*github.Response, error)) error {
	log := clog.FromContext(ctx).With("operation", op)

	for attempt := 1; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}

		_, err := fn(ctx)
		if err == nil {
			return nil
		}

		var abuseErr *github.AbuseRateLimitError
		if errors.As(err, &abuseErr) {
			abuseDetections.Inc()
			log.Warnf("abuse detection triggered, not retrying: %v", err)
			return fmt.Errorf("%w: %v", ErrAbuseDetected, err)
		}

		var rlErr *github.RateLimitError
		if !errors.As(err, &rlErr) {
			return err
		}

		if attempt > maxRetries {
			rateLimitRetries.WithLabelValues("exhausted").Inc()
			log.Warnf("rate limited on attempt %d, budget exhausted", attempt)
			return fmt.Errorf("%w after %d attempts: %v", ErrRateLimitExceeded, attempt, err)
		}

		delay := c.retryDelay(rlErr)
		rateLimitRetries.WithLabelValues("retry").Inc()
		rateLimitWaitSeconds.WithLabelValues(op).Observe(delay.Seconds())
		log.Warnf("rate limited on attempt %d, retrying in %s", attempt, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(delay):
		}
	}
}

// retryDelay computes the server-suggested wait from the rate limit
// reset time, falling back to a fixed delay when the reset is absent or
// already past.
func (c *Caller) retryDelay(err *github.RateLimitError) time.Duration {
	reset := err.Rate.Reset.Time
	if reset.IsZero() {
		return defaultRetryDelay
	}
	d := reset.Sub(c.clock.Now())
	if d <= 0 {
		return defaultRetryDelay
	}
	return d
}
