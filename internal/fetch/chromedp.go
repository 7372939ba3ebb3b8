package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Chromedp renders pages in a headless browser, for vendors whose article
// body is filled in by JavaScript.
type Chromedp struct {
	Timeout time.Duration
}

func (f *Chromedp) Fetch(ctx context.Context, url string) (Page, error) {
	if strings.TrimSpace(url) == "" {
		return Page{}, errInvalidURL
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent()),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return Page{}, err
	}
	return Page{URL: url, HTML: html, FetchedAt: time.Now()}, nil
}
