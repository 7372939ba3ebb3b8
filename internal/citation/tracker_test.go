package citation

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/argos-research/argos/models"
)

func TestAdmitDeduplicatesUrls(t *testing.T) {
	t.Parallel()
	tr := NewTracker("")
	c := models.Citation{Title: "RULAC - Ukraine", URL: "https://www.rulac.org/browse/conflicts/ukraine"}
	if !tr.Admit(c) {
		t.Fatalf("first citation rejected")
	}
	if tr.Admit(c) {
		t.Fatalf("duplicate citation admitted")
	}
	if tr.Admit(models.Citation{Title: "no url"}) {
		t.Fatalf("citation without url admitted")
	}
	if tr.Count() != 1 {
		t.Fatalf("Count() = %d", tr.Count())
	}
}

func TestAdmitKeepsAggregatorDistinct(t *testing.T) {
	t.Parallel()
	tr := NewTracker(AggregatorSentinel)
	tr.Admit(models.Citation{URL: "https://hrw.org/x"})
	for i := 0; i < 3; i++ {
		if !tr.Admit(models.Citation{URL: AggregatorSentinel}) {
			t.Fatalf("aggregator citation %d rejected", i)
		}
	}
	seen := tr.Seen()
	want := []string{"https://hrw.org/x", AggregatorSentinel + "#2", AggregatorSentinel + "#3", AggregatorSentinel + "#4"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("Seen() = %v, want %v", seen, want)
	}
}

func TestAdmitConcurrentUniqueness(t *testing.T) {
	t.Parallel()
	tr := NewTracker("")
	urls := []string{"https://a.org", "https://b.org", "https://c.org"}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Admit(models.Citation{URL: urls[i%len(urls)]})
			if i%5 == 0 {
				tr.Admit(models.Citation{URL: AggregatorSentinel})
			}
		}(i)
	}
	wg.Wait()

	counts := map[string]int{}
	aggregator := 0
	for _, key := range tr.Seen() {
		if strings.HasPrefix(key, AggregatorSentinel) {
			aggregator++
		}
		counts[key]++
	}
	for key, n := range counts {
		if n != 1 {
			t.Fatalf("%s stored %d times", key, n)
		}
	}
	if aggregator != 6 {
		t.Fatalf("aggregator entries = %d, want 6", aggregator)
	}
	if tr.Count() != 9 {
		t.Fatalf("Count() = %d, want 9", tr.Count())
	}
}

func TestEventShape(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := Event(models.Citation{
		Title:            "Human Rights Watch - Somalia",
		URL:              "https://www.hrw.org/world-report/2025/country-chapters/somalia",
		FormattedContent: "body",
	}, at)
	if ev.Type != models.EventCitation {
		t.Fatalf("type = %s", ev.Type)
	}
	data := ev.Data.(models.CitationData)
	if data.Source.Name != "hrw.org/world-report/2025/country-chapters/somalia" {
		t.Fatalf("source name = %q", data.Source.Name)
	}
	if data.Document[0] != "body" || data.Metadata[0].Source != "Human Rights Watch - Somalia" {
		t.Fatalf("unexpected data %+v", data)
	}
	if data.Metadata[0].DateAccessed != "2025-03-01T10:00:00Z" {
		t.Fatalf("date = %q", data.Metadata[0].DateAccessed)
	}
}
