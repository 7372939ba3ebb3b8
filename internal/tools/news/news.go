// Package news implements the combined news tool: per-vendor search, page
// fetch and extraction, per-article summarization, and a chronological merge.
package news

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/argos-research/argos/internal/fetch"
	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/internal/tools/websearch"
	"github.com/argos-research/argos/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var ErrNoSearch = errors.New("news: brave_search_api_key not configured")

// Searcher is the subset of the Brave client the pipeline needs.
type Searcher interface {
	WebResults(ctx context.Context, params url.Values) ([]websearch.Result, error)
	NewsResults(ctx context.Context, params url.Values) ([]websearch.Result, error)
}

type Options struct {
	Search     Searcher
	Fetcher    fetch.Fetcher
	Summarizer *Summarizer
	Vendors    []Vendor
	Denylist   []string
	WordLimit  int
	// BatchSize bounds concurrent summarization calls within one tool call.
	BatchSize int
	Logger    *log.Logger
	Now       func() time.Time
}

type Combined struct {
	opts   Options
	logger *log.Logger
}

func New(opts Options) *Combined {
	if len(opts.Vendors) == 0 {
		opts.Vendors = DefaultVendors()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 3
	}
	if opts.WordLimit <= 0 {
		opts.WordLimit = 4000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[NEWS] ", log.LstdFlags)
	}
	return &Combined{opts: opts, logger: logger}
}

func (c *Combined) Name() models.ToolName { return models.ToolCombinedNews }

func (c *Combined) Call(ctx context.Context, args map[string]interface{}) (models.ToolResult, error) {
	if c.opts.Search == nil {
		return models.ToolResult{}, ErrNoSearch
	}
	query := tools.String(args, "search_query")
	start := c.opts.Now()

	sem := semaphore.NewWeighted(int64(c.opts.BatchSize))
	perVendor := make([][]models.Article, len(c.opts.Vendors))
	var g errgroup.Group
	for i, v := range c.opts.Vendors {
		i, v := i, v
		g.Go(func() error {
			articles, err := c.vendorArticles(ctx, v, query, sem)
			if err != nil {
				c.logger.Printf("%s: %v", v.Name, err)
			}
			perVendor[i] = articles
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return models.ToolResult{}, err
	}

	var articles []models.Article
	for _, batch := range perVendor {
		articles = append(articles, batch...)
	}
	SortArticles(articles)

	now := c.opts.Now()
	res := models.ToolResult{
		ToolName: models.ToolCombinedNews,
		Content:  Digest(query, articles),
		Articles: articles,
	}
	for _, a := range articles {
		res.Citations = append(res.Citations, ArticleCitation(a, now))
	}
	c.logger.Printf("%q: %d articles from %d vendors in %s", query, len(articles), len(c.opts.Vendors), now.Sub(start).Round(time.Millisecond))
	return res, nil
}

// Digest renders the merged articles for the answer prompt.
func Digest(query string, articles []models.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Latest news and developments related to '%s' includes %d articles, listed in chronological order (oldest first):", query, len(articles))
	for _, a := range articles {
		b.WriteString("\n\n#### " + a.Title + " ")
		b.WriteString("\nSource: " + a.Source)
		b.WriteString("\nPublication Date: " + HumanDate(a.Date))
		b.WriteString("\n" + a.SummaryContent)
	}
	return b.String()
}

// ArticleCitation cites the full extracted body when there is one and the
// summary otherwise.
func ArticleCitation(a models.Article, accessed time.Time) models.Citation {
	body := a.OriginalContent
	if body == "" {
		body = a.SummaryContent
	}
	return models.Citation{
		Title:            a.Title,
		URL:              a.URL,
		FormattedContent: a.Title + "\nSource: " + a.Source + "\nPublished: " + HumanDate(a.Date) + "\n\n" + body + "\n",
		AccessedAt:       accessed,
	}
}

type hit struct {
	title   string
	url     string
	snippet string
	date    string
}

func searchParams(q string, count int) url.Values {
	return url.Values{
		"q":           {q},
		"count":       {strconv.Itoa(count)},
		"search_lang": {"en"},
		"ui_lang":     {"en-US"},
		"safesearch":  {"off"},
		"spellcheck":  {"1"},
	}
}

// hits runs the vendor's web then news search, dedupes by url and sorts the
// hits oldest first.
func (c *Combined) hits(ctx context.Context, v Vendor, query string) ([]hit, error) {
	q := "site:" + v.Site + " " + query
	var results []websearch.Result
	var errs []error
	if v.WebCount > 0 {
		params := searchParams(q, v.WebCount)
		params.Set("result_filter", "web")
		rs, err := c.opts.Search.WebResults(ctx, params)
		if err != nil {
			errs = append(errs, err)
		}
		results = append(results, rs...)
	}
	if v.NewsCount > 0 {
		rs, err := c.opts.Search.NewsResults(ctx, searchParams(q, v.NewsCount))
		if err != nil {
			errs = append(errs, err)
		}
		results = append(results, rs...)
	}

	seen := make(map[string]struct{}, len(results))
	var out []hit
	for _, r := range results {
		if r.URL == "" || helpers.Denied(r.URL, c.opts.Denylist) {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		date := r.PageAge
		if date == "" {
			date = r.Age
		}
		out = append(out, hit{title: CleanTitle(r.Title), url: r.URL, snippet: r.Description, date: date})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, oki := ParseDate(out[i].date)
		tj, okj := ParseDate(out[j].date)
		if oki != okj {
			return !oki
		}
		return oki && ti.Before(tj)
	})
	return out, errors.Join(errs...)
}

func (c *Combined) vendorArticles(ctx context.Context, v Vendor, query string, sem *semaphore.Weighted) ([]models.Article, error) {
	hits, err := c.hits(ctx, v, query)
	if len(hits) == 0 {
		return nil, err
	}
	if v.SnippetOnly {
		var out []models.Article
		for _, h := range hits {
			text := h.snippet
			if v.Clean != nil {
				text = v.Clean(text)
			}
			if text == "" {
				continue
			}
			out = append(out, models.Article{
				Title:           orDefault(h.title, v.Name+" news article about "+query),
				Date:            NormalizeDate(h.date),
				SummaryContent:  text,
				OriginalContent: text,
				URL:             h.url,
				Source:          v.Name,
			})
		}
		return out, err
	}

	articles := make([]*models.Article, len(hits))
	var g errgroup.Group
	for i, h := range hits {
		i, h := i, h
		g.Go(func() error {
			a, ferr := c.scraped(ctx, v, query, h, sem)
			if ferr != nil {
				c.logger.Printf("%s %s: %v", v.Name, h.url, ferr)
				return nil
			}
			articles[i] = a
			return nil
		})
	}
	_ = g.Wait()
	var out []models.Article
	for _, a := range articles {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out, err
}

// scraped fetches, extracts and summarizes one article.
func (c *Combined) scraped(ctx context.Context, v Vendor, query string, h hit, sem *semaphore.Weighted) (*models.Article, error) {
	if c.opts.Fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}
	page, err := c.opts.Fetcher.Fetch(ctx, h.url)
	if err != nil {
		return nil, err
	}
	text := ExtractPage(page, v.Extract, c.opts.WordLimit)
	if text == "" {
		return nil, errors.New("no article text extracted")
	}

	a := &models.Article{
		Title:           h.title,
		Date:            NormalizeDate(h.date),
		SummaryContent:  FallbackSummary,
		OriginalContent: text,
		URL:             h.url,
		Source:          v.Name,
	}
	if c.opts.Summarizer == nil {
		a.Title = orDefault(a.Title, v.Name+" news article about "+query)
		return a, nil
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	sum, err := c.opts.Summarizer.Summarize(ctx, Input{Title: h.title, Date: h.date, Content: text, URL: h.url})
	sem.Release(1)
	if err != nil {
		c.logger.Printf("%s: summary fallback for %s: %v", v.Name, h.url, err)
	} else {
		a.SummaryContent = sum.Summary
		a.Title = orDefault(a.Title, sum.Title)
		if a.Date == "" {
			a.Date = NormalizeDate(sum.Date)
		}
	}
	a.Title = orDefault(a.Title, v.Name+" news article about "+query)
	return a, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
