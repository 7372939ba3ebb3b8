// Package status delivers UI events and staggers status lines so that
// concurrently finishing tools do not flood the frontend in one tick.
package status

import (
	"context"
	"sync"
	"time"

	"github.com/argos-research/argos/models"
)

// Sink receives out-of-band UI events.
type Sink interface {
	Emit(ctx context.Context, ev models.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev models.Event) error

func (f SinkFunc) Emit(ctx context.Context, ev models.Event) error { return f(ctx, ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, models.Event) error { return nil })

// Clock abstracts time so cadence can be tested without waiting.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealClock uses the wall clock.
var RealClock Clock = realClock{}

// Stagger serializes status emissions for one turn: the first goes out
// immediately, every later one waits gap while holding the lock.
type Stagger struct {
	sink  Sink
	clock Clock
	gap   time.Duration

	mu       sync.Mutex
	consumed bool
}

// NewStagger wraps sink. A nil clock selects RealClock.
func NewStagger(sink Sink, clock Clock, gap time.Duration) *Stagger {
	if clock == nil {
		clock = RealClock
	}
	if sink == nil {
		sink = Discard
	}
	return &Stagger{sink: sink, clock: clock, gap: gap}
}

// Status emits a not-done status line in turn.
func (s *Stagger) Status(ctx context.Context, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		if err := s.clock.Sleep(ctx, s.gap); err != nil {
			return err
		}
	}
	s.consumed = true
	return s.sink.Emit(ctx, models.StatusEvent(description, false))
}
