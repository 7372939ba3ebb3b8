package fetch

import (
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/argos-research/argos/internal/httpx"
	"github.com/go-shiori/go-readability"
)

// Readable extracts the main text of a page when no site-specific extractor
// matched. Paragraph breaks are kept.
func Readable(page Page) (title string, text string, err error) {
	u, err := url.Parse(page.URL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(page.HTML), u)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(article.Title), strings.TrimSpace(article.TextContent), nil
}

func userAgent() string {
	pool := httpx.DefaultUserAgents
	return pool[rand.IntN(len(pool))]
}
