package news

import (
	"sort"
	"strings"
	"time"

	"github.com/argos-research/argos/models"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate accepts the publication date shapes seen in search results.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate returns RFC 3339 for parseable dates and the input otherwise.
func NormalizeDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format(time.RFC3339)
	}
	return strings.TrimSpace(s)
}

// HumanDate renders a stored date as "January 02, 2006"; unparseable
// values are shown as stored.
func HumanDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format("January 02, 2006")
	}
	return s
}

// SortArticles orders articles oldest first. Articles whose date does not
// parse are treated as oldest; ties are broken by source, then input order.
func SortArticles(articles []models.Article) {
	type key struct {
		t  time.Time
		ok bool
	}
	keys := make([]key, len(articles))
	for i, a := range articles {
		t, ok := ParseDate(a.Date)
		keys[i] = key{t, ok}
	}
	idx := make([]int, len(articles))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := keys[idx[i]], keys[idx[j]]
		if a.ok != b.ok {
			return !a.ok
		}
		if a.ok && !a.t.Equal(b.t) {
			return a.t.Before(b.t)
		}
		return articles[idx[i]].Source < articles[idx[j]].Source
	})
	sorted := make([]models.Article, len(articles))
	for i, k := range idx {
		sorted[i] = articles[k]
	}
	copy(articles, sorted)
}
