// Package retry wraps slow, mostly idempotent calls with a bounded linear
// backoff: the wait before attempt n+1 is 2*n seconds. No jitter.
package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

const DefaultMaxAttempts = 3

type Policy struct {
	// MaxAttempts counts the first call. Values below 1 mean DefaultMaxAttempts.
	MaxAttempts int
	// Delay returns the wait after the given failed attempt (1-based).
	Delay func(attempt int) time.Duration
	// OnRetry, if set, observes each failure that will be retried.
	OnRetry func(attempt int, err error)
}

func LinearDelay(attempt int) time.Duration {
	return time.Duration(2*attempt) * time.Second
}

// Backoff returns the policy's schedule as a go-retry backoff. failed reports
// how many attempts have failed so far.
func (p Policy) Backoff(failed func() int) goretry.Backoff {
	delay := p.Delay
	if delay == nil {
		delay = LinearDelay
	}
	linear := goretry.BackoffFunc(func() (time.Duration, bool) {
		return delay(failed()), false
	})
	return goretry.WithMaxRetries(uint64(p.attempts()-1), linear)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// Do runs op until it succeeds or the attempts run out, returning the last
// error. Context cancellation stops waiting immediately; the error returned
// is then op's last error, not the context's.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var (
		attempt int
		last    error
	)
	b := p.Backoff(func() int { return attempt })

	v, err := goretry.DoValue(ctx, b, func(ctx context.Context) (T, error) {
		attempt++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		last = err
		if attempt < p.attempts() && ctx.Err() == nil && p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		return v, goretry.RetryableError(err)
	})
	if err != nil && last != nil && ctx.Err() != nil {
		var zero T
		return zero, last
	}
	return v, err
}
