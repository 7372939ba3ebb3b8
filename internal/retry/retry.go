// Package retry is the shared retry-with-backoff primitive used at the
// planner and composer boundaries. The HTTP layer never retries on its own.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	// Retries is the number of retries after the first attempt.
	Retries int
	// Initial is the first backoff interval; later ones double.
	Initial time.Duration
	// RetryOn decides whether an error is worth another attempt. Nil means IsTransient.
	RetryOn func(error) bool
	// NewBackOff overrides the exponential schedule (tests use a zero backoff).
	NewBackOff func() backoff.BackOff
}

// Default is three retries spaced 1s, 2s, 4s on transient errors.
func Default() Policy {
	return Policy{Retries: 3, Initial: time.Second}
}

func (p Policy) backOff() backoff.BackOff {
	if p.NewBackOff != nil {
		return p.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	if b.InitialInterval <= 0 {
		b.InitialInterval = time.Second
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 30 * time.Second
	return b
}

// Do runs op until it succeeds, returns a non-retriable error, or the policy
// is exhausted. op receives the zero-based attempt index. onRetry, when not
// nil, is called before each wait with the one-based retry number.
func Do[T any](ctx context.Context, p Policy, op func(attempt int) (T, error), onRetry func(retry int, err error, wait time.Duration)) (T, error) {
	retryOn := p.RetryOn
	if retryOn == nil {
		retryOn = IsTransient
	}
	attempt := 0
	wrapped := func() (T, error) {
		n := attempt
		attempt++
		v, err := op(n)
		if err != nil && !retryOn(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	retries := 0
	notify := func(err error, wait time.Duration) {
		retries++
		if onRetry != nil {
			onRetry(retries, err, wait)
		}
	}
	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.Retries+1)),
		backoff.WithNotify(notify),
	)
}

// Transient is implemented by errors that know whether they are retriable.
type Transient interface {
	Transient() bool
}

// IsTransient reports whether err is a network failure, a timeout, or a
// remote status that the error taxonomy marks as retriable (5xx, 429).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var t Transient
	if errors.As(err, &t) {
		return t.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
