package status

import (
	"context"
	"sync"
	"time"

	"github.com/argos-research/argos/models"
)

// Recorded is an event with the clock reading at emission.
type Recorded struct {
	At    time.Time
	Event models.Event
}

// Recorder is a Sink that keeps every event; the CLI uses it to print a
// trace and tests use it to assert ordering.
type Recorder struct {
	Clock Clock

	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) Emit(_ context.Context, ev models.Event) error {
	clock := r.Clock
	if clock == nil {
		clock = RealClock
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{At: clock.Now(), Event: ev})
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

// Statuses returns the status payloads in emission order.
func (r *Recorder) Statuses() []models.StatusData {
	var out []models.StatusData
	for _, e := range r.Events() {
		if s, ok := e.Event.Data.(models.StatusData); ok && e.Event.Type == models.EventStatus {
			out = append(out, s)
		}
	}
	return out
}

// Citations returns the citation payloads in emission order.
func (r *Recorder) Citations() []models.CitationData {
	var out []models.CitationData
	for _, e := range r.Events() {
		if c, ok := e.Event.Data.(models.CitationData); ok && e.Event.Type == models.EventCitation {
			out = append(out, c)
		}
	}
	return out
}

// FakeClock advances only when slept on.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock { return &FakeClock{now: start} }

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}
