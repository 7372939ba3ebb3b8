// Package websearch implements the brave_search tool: a Brave summarizer
// answer when an API key is configured, otherwise a SearXNG metasearch with
// the top pages fetched and reduced to readable text.
package websearch

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/argos-research/argos/internal/citation"
	"github.com/argos-research/argos/internal/fetch"
	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/models"
)

type Options struct {
	// Brave is nil when no API key is configured.
	Brave *Brave
	// SearXNG is nil when searxng_url is unset.
	SearXNG  *SearXNG
	Fetcher  fetch.Fetcher
	Denylist []string
	// WordLimit bounds each fetched page.
	WordLimit int
	// MaxPages is the number of SearXNG hits fetched; MaxResults of them are kept.
	MaxPages   int
	MaxResults int
	Logger     *log.Logger
}

type Search struct {
	opts   Options
	logger *log.Logger
}

func New(opts Options) *Search {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 5
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 3
	}
	if opts.WordLimit <= 0 {
		opts.WordLimit = 4000
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[WEBSEARCH] ", log.LstdFlags)
	}
	return &Search{opts: opts, logger: logger}
}

func (s *Search) Name() models.ToolName { return models.ToolWebSearch }

// Call never fails on remote errors: an empty answer becomes a
// "No results found" result without citations.
func (s *Search) Call(ctx context.Context, args map[string]interface{}) (models.ToolResult, error) {
	query := tools.String(args, "query")
	res := models.ToolResult{ToolName: models.ToolWebSearch}

	if s.opts.Brave != nil {
		sum, err := s.opts.Brave.Summarize(ctx, query)
		if err == nil {
			sum.Sources = s.allowed(sum.Sources)
			res.Content = sum.Markdown()
			res.Citations = []models.Citation{{
				Title:            "Brave Search: " + query,
				URL:              citation.AggregatorSentinel,
				FormattedContent: sum.CitationText(),
				AccessedAt:       time.Now(),
			}}
			return res, nil
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		s.logger.Printf("brave search %q: %v", query, err)
	}

	if s.opts.SearXNG != nil {
		content, cites, err := s.metasearch(ctx, query)
		if err == nil && len(cites) > 0 {
			res.Content = content
			res.Citations = cites
			return res, nil
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err != nil {
			s.logger.Printf("searxng %q: %v", query, err)
		}
	}

	res.Content = "No results found for query: " + query
	return res, nil
}

func (s *Search) allowed(sources []Source) []Source {
	if len(s.opts.Denylist) == 0 {
		return sources
	}
	out := sources[:0]
	for _, src := range sources {
		if !helpers.Denied(src.URL, s.opts.Denylist) {
			out = append(out, src)
		}
	}
	return out
}

func (s *Search) metasearch(ctx context.Context, query string) (string, []models.Citation, error) {
	hits, err := s.opts.SearXNG.Search(ctx, query)
	if err != nil {
		return "", nil, err
	}
	var kept []Hit
	seen := make(map[string]struct{})
	for _, h := range hits {
		if h.URL == "" || helpers.Denied(h.URL, s.opts.Denylist) {
			continue
		}
		if _, dup := seen[h.URL]; dup {
			continue
		}
		seen[h.URL] = struct{}{}
		kept = append(kept, h)
		if len(kept) == s.opts.MaxPages {
			break
		}
	}

	var blocks []string
	var cites []models.Citation
	for _, h := range kept {
		if len(cites) == s.opts.MaxResults {
			break
		}
		text := s.pageText(ctx, h)
		if text == "" {
			continue
		}
		title := h.Title
		if title == "" {
			title = "Web content from " + h.URL
		}
		blocks = append(blocks, fmt.Sprintf("## %d. %s\nURL: %s\n\n%s", len(blocks)+1, title, h.URL, text))
		cites = append(cites, models.Citation{Title: title, URL: h.URL, FormattedContent: text, AccessedAt: time.Now()})
	}
	content := "# Web Search Results for: " + query + "\n\n" + strings.Join(blocks, "\n---\n")
	return content, cites, nil
}

// pageText prefers the readable page body and falls back to the snippet.
func (s *Search) pageText(ctx context.Context, h Hit) string {
	if s.opts.Fetcher != nil {
		page, err := s.opts.Fetcher.Fetch(ctx, h.URL)
		if err == nil {
			if _, text, err := fetch.Readable(page); err == nil && strings.TrimSpace(text) != "" {
				return helpers.TruncateWords(helpers.CollapseSpaces(text), s.opts.WordLimit)
			}
		} else {
			s.logger.Printf("fetch %s: %v", h.URL, err)
		}
	}
	return h.Content
}
