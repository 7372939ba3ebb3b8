package helpers

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	spaceRun        = regexp.MustCompile(`[ \t]+`)
	spaceBeforePunc = regexp.MustCompile(`[ \t]+([,.])`)
)

// StrictHTMLPolicy returns a cached policy that strips every element.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// PlainText strips tags from a search snippet and decodes HTML entities.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(StrictHTMLPolicy().Sanitize(s)))
}

// CollapseSpaces squeezes runs of spaces and tabs and removes spaces before
// commas and full stops. Newlines are preserved.
func CollapseSpaces(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = spaceBeforePunc.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// TruncateWords keeps at most limit whitespace separated words. Text under
// the limit is returned unchanged.
func TruncateWords(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= limit {
		return s
	}
	return strings.Join(words[:limit], " ")
}
