package news

import (
	"regexp"
	"strings"
)

// Vendor is one news outlet searched by the combined news tool.
type Vendor struct {
	Name string
	// Site is the url prefix used as a site: filter.
	Site      string
	WebCount  int
	NewsCount int
	// SnippetOnly vendors are never fetched; the cleaned search snippet is the article.
	SnippetOnly bool
	Clean       func(string) string
	Extract     Extractor
}

// DefaultVendors lists the outlets in the order their results are merged.
func DefaultVendors() []Vendor {
	return []Vendor{
		{Name: "BBC", Site: "www.bbc.com/news/articles", WebCount: 1, Extract: extractBBC},
		{Name: "Al Jazeera", Site: "www.aljazeera.com/news", WebCount: 1, Extract: extractAlJazeera},
		{Name: "AP", Site: "apnews.com/article", WebCount: 1, Extract: extractAP},
		{Name: "Reuters", Site: "www.reuters.com/world", WebCount: 5, NewsCount: 5, SnippetOnly: true, Clean: CleanReutersSnippet},
	}
}

var (
	reutersDateline = regexp.MustCompile(`^[^()]{0,80}?\(Reuters\)\s*[-–—]\s*`)
	reutersTrailing = regexp.MustCompile(`\s*\(Reuters\)\s*$`)
	reutersInline   = regexp.MustCompile(`\(Reuters\)\s+`)
)

// CleanReutersSnippet strips the "CITY, Month Day (Reuters) - " dateline and
// any remaining "(Reuters)" markers.
func CleanReutersSnippet(s string) string {
	s = reutersDateline.ReplaceAllString(s, "")
	s = reutersTrailing.ReplaceAllString(s, "")
	s = reutersInline.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// CleanTitle drops the " | Outlet" suffix search results carry.
func CleanTitle(s string) string {
	if i := strings.IndexByte(s, '|'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
