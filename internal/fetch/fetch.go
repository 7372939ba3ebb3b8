// Package fetch downloads article pages for the extractors.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/cache"
	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/httpx"
)

// Page is a downloaded HTML document.
type Page struct {
	URL       string    `json:"url"`
	HTML      string    `json:"html"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fetcher downloads one page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

var errInvalidURL = errors.New("invalid url")

// New selects a fetcher for cfg.Mode and wraps it with store when it is not nil.
func New(cfg config.FetchConfig, client *httpx.Client, store cache.Store, ttl time.Duration) (Fetcher, error) {
	var f Fetcher
	switch cfg.Mode {
	case "", config.FetchModeHTTP:
		f = &HTTP{Client: client}
	case config.FetchModeChromedp:
		f = &Chromedp{Timeout: cfg.Timeout}
	default:
		return nil, fmt.Errorf("unsupported fetch mode %q", cfg.Mode)
	}
	if store != nil {
		f = &Cached{Next: f, Store: store, TTL: ttl}
	}
	return f, nil
}

// HTTP fetches through the shared rate-limited client.
type HTTP struct {
	Client *httpx.Client
}

func (h *HTTP) Fetch(ctx context.Context, url string) (Page, error) {
	if strings.TrimSpace(url) == "" {
		return Page{}, errInvalidURL
	}
	resp, err := h.Client.Get(ctx, url, nil, nil)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	return Page{URL: url, HTML: string(resp.Body), FetchedAt: time.Now()}, nil
}

// Cached memoizes pages by url fingerprint.
type Cached struct {
	Next  Fetcher
	Store cache.Store
	TTL   time.Duration
}

func (c *Cached) Fetch(ctx context.Context, url string) (Page, error) {
	key, err := helpers.URLFingerprint(url)
	if err != nil {
		return c.Next.Fetch(ctx, url)
	}
	key = "page:" + key
	var page Page
	if err := c.Store.Get(ctx, key, &page); err == nil && page.HTML != "" {
		return page, nil
	}
	page, err = c.Next.Fetch(ctx, url)
	if err != nil {
		return page, err
	}
	// a failed write only costs a refetch next time
	_ = c.Store.Set(ctx, key, page, c.TTL)
	return page, nil
}
