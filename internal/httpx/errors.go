package httpx

import (
	"context"
	"errors"
	"fmt"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return e.Status + ": " + e.Body
}

// Transient reports whether the status is worth retrying (5xx and 429).
func (e *StatusError) Transient() bool {
	return e.Code >= 500 || e.Code == 429
}

// BreakerError reports a host whose circuit breaker is open.
type BreakerError struct {
	Host string
	Err  error
}

func (e *BreakerError) Error() string {
	return fmt.Sprintf("host %s unavailable: %v", e.Host, e.Err)
}

func (e *BreakerError) Unwrap() error { return e.Err }

// Transient is always true: the host may recover after the cool-down.
func (e *BreakerError) Transient() bool { return true }

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func isTransientStatus(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	// network failures count against the breaker
	return true
}
