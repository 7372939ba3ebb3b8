package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/httpx"
)

const (
	BraveWebURL        = "https://api.search.brave.com/res/v1/web/search"
	BraveSummarizerURL = "https://api.search.brave.com/res/v1/summarizer/search"
	BraveNewsURL       = "https://api.search.brave.com/res/v1/news/search"
	BraveHost          = "api.search.brave.com"
)

var ErrNoSummaryKey = errors.New("brave: response carried no summarizer key")

type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Image struct {
	URL       string `json:"url"`
	Text      string `json:"text"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Summary is the parsed summarizer answer for one query.
type Summary struct {
	Query   string
	Title   string
	Content string
	Sources []Source
	Images  []Image
}

// Brave talks to the web search and summarizer endpoints.
type Brave struct {
	Client        *httpx.Client
	APIKey        string
	WebURL        string
	SummarizerURL string
	NewsURL       string
}

func (b *Brave) endpoints() (string, string) {
	web, sum := b.WebURL, b.SummarizerURL
	if web == "" {
		web = BraveWebURL
	}
	if sum == "" {
		sum = BraveSummarizerURL
	}
	return web, sum
}

type webResponse struct {
	Summarizer struct {
		Key string `json:"key"`
	} `json:"summarizer"`
}

type summarizerResponse struct {
	Title   string `json:"title"`
	Summary []struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	} `json:"summary"`
	Enrichments *struct {
		Raw     string `json:"raw"`
		Context []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"context"`
		Images []struct {
			URL       string `json:"url"`
			Text      string `json:"text"`
			Thumbnail struct {
				Src string `json:"src"`
			} `json:"thumbnail"`
		} `json:"images"`
	} `json:"enrichments"`
}

// Summarize runs the two stages in order: a web search requesting a summary
// key, then the summarizer lookup for that key.
func (b *Brave) Summarize(ctx context.Context, query string) (*Summary, error) {
	webURL, sumURL := b.endpoints()

	var web webResponse
	err := b.Client.GetJSON(ctx, webURL, url.Values{"q": {query}, "summary": {"1"}}, map[string]string{
		"X-Subscription-Token": b.APIKey,
		"Api-Version":          "2023-10-11",
		"Accept":               "application/json",
	}, &web)
	if err != nil {
		return nil, fmt.Errorf("brave web search: %w", err)
	}
	if web.Summarizer.Key == "" {
		return nil, ErrNoSummaryKey
	}

	var raw summarizerResponse
	err = b.Client.GetJSON(ctx, sumURL, url.Values{"key": {web.Summarizer.Key}, "entity_debug": {"1"}}, map[string]string{
		"X-Subscription-Token": b.APIKey,
		"Api-Version":          "2024-04-23",
		"Accept":               "application/json",
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("brave summarizer: %w", err)
	}
	return parseSummary(query, raw), nil
}

func parseSummary(query string, raw summarizerResponse) *Summary {
	s := &Summary{Query: query, Title: raw.Title}
	if s.Title == "" {
		s.Title = "Search Results"
	}
	var b strings.Builder
	for _, item := range raw.Summary {
		if item.Type != "token" {
			continue
		}
		var tok string
		if err := json.Unmarshal(item.Data, &tok); err == nil {
			b.WriteString(tok)
		}
	}
	s.Content = b.String()
	if e := raw.Enrichments; e != nil {
		if e.Raw != "" {
			s.Content = e.Raw
		}
		for _, c := range e.Context {
			title := c.Title
			if title == "" {
				title = "Unknown Source"
			}
			s.Sources = append(s.Sources, Source{Title: title, URL: c.URL})
		}
		for _, img := range e.Images {
			s.Images = append(s.Images, Image{URL: img.URL, Text: img.Text, Thumbnail: img.Thumbnail.Src})
		}
	}
	return s
}

// Markdown renders the summary with a numbered source list.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("### " + s.Title + "\n\n" + s.Content)
	if len(s.Sources) > 0 {
		b.WriteString("\n\n#### Sources\n")
		for i, src := range s.Sources {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i, src.Title, src.URL)
		}
	}
	return b.String()
}

// CitationText is the document shown for the aggregator citation.
func (s *Summary) CitationText() string {
	var b strings.Builder
	b.WriteString(s.Title + "\n")
	b.WriteString("Query: " + s.Query + "\n")
	b.WriteString(s.Content + "\n\n")
	if len(s.Sources) > 0 {
		b.WriteString("Sources:\n")
		for i, src := range s.Sources {
			fmt.Fprintf(&b, "%d. %s: %s\n", i, src.Title, src.URL)
		}
	}
	return b.String()
}

// Result is one plain web or news search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PageAge     string `json:"page_age"`
	Age         string `json:"age"`
	MetaURL     struct {
		Hostname string `json:"hostname"`
	} `json:"meta_url"`
}

func (b *Brave) headers() map[string]string {
	return map[string]string{"X-Subscription-Token": b.APIKey, "Accept": "application/json"}
}

// WebResults runs a plain web search. Snippets are returned as plain text.
func (b *Brave) WebResults(ctx context.Context, params url.Values) ([]Result, error) {
	webURL, _ := b.endpoints()
	var out struct {
		Web struct {
			Results []Result `json:"results"`
		} `json:"web"`
	}
	if err := b.Client.GetJSON(ctx, webURL, params, b.headers(), &out); err != nil {
		return nil, fmt.Errorf("brave web search: %w", err)
	}
	return clean(out.Web.Results), nil
}

// NewsResults runs a news search.
func (b *Brave) NewsResults(ctx context.Context, params url.Values) ([]Result, error) {
	newsURL := b.NewsURL
	if newsURL == "" {
		newsURL = BraveNewsURL
	}
	var out struct {
		Results []Result `json:"results"`
	}
	if err := b.Client.GetJSON(ctx, newsURL, params, b.headers(), &out); err != nil {
		return nil, fmt.Errorf("brave news search: %w", err)
	}
	return clean(out.Results), nil
}

func clean(rs []Result) []Result {
	for i := range rs {
		rs[i].Title = helpers.PlainText(rs[i].Title)
		rs[i].Description = helpers.PlainText(rs[i].Description)
	}
	return rs
}
