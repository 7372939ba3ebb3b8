// Package citation tracks which sources were already surfaced in a turn.
package citation

import (
	"strconv"
	"sync"
	"time"

	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/models"
)

// AggregatorSentinel marks a search-engine answer rather than a unique source.
const AggregatorSentinel = "https://search.brave.com"

// Tracker is the per-turn set of surfaced urls. Updates to the set and the
// counter happen under one lock.
type Tracker struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	order    []string
	count    int
	sentinel string
	now      func() time.Time
}

// NewTracker returns an empty tracker. An empty sentinel selects AggregatorSentinel.
func NewTracker(sentinel string) *Tracker {
	if sentinel == "" {
		sentinel = AggregatorSentinel
	}
	return &Tracker{
		seen:     make(map[string]struct{}),
		sentinel: sentinel,
		now:      time.Now,
	}
}

// Admit records c and reports whether it should be surfaced. Citations
// without a url, and urls already surfaced this turn, are rejected. The
// sentinel is always admitted and stored with the running count appended so
// repeated aggregator answers stay distinct.
func (t *Tracker) Admit(c models.Citation) bool {
	if c.URL == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c.URL != t.sentinel {
		if _, dup := t.seen[c.URL]; dup {
			return false
		}
	}
	t.count++
	key := c.URL
	if c.URL == t.sentinel {
		key = c.URL + "#" + strconv.Itoa(t.count)
	}
	t.seen[key] = struct{}{}
	t.order = append(t.order, key)
	return true
}

// Count is the number of admitted citations.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Seen returns the stored keys in admission order.
func (t *Tracker) Seen() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Event shapes an admitted citation as a UI event.
func (t *Tracker) Event(c models.Citation) models.Event {
	accessed := c.AccessedAt
	if accessed.IsZero() {
		accessed = t.now()
	}
	return Event(c, accessed)
}

// Event shapes c as a citation UI event.
func Event(c models.Citation, accessed time.Time) models.Event {
	return models.Event{
		Type: models.EventCitation,
		Data: models.CitationData{
			Document: []string{c.FormattedContent},
			Metadata: []models.CitationMetadata{{
				DateAccessed: accessed.Format(time.RFC3339),
				Source:       c.Title,
			}},
			Source: models.CitationSource{
				Name: helpers.DisplayName(c.URL),
				URL:  c.URL,
			},
		},
	}
}
