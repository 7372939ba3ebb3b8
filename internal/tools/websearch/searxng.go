package websearch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/httpx"
)

// Hit is one SearXNG result.
type Hit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SearXNG queries a self-hosted metasearch instance.
type SearXNG struct {
	Client  *httpx.Client
	BaseURL string
}

func (s *SearXNG) Search(ctx context.Context, query string) ([]Hit, error) {
	var out struct {
		Results []Hit `json:"results"`
	}
	err := s.Client.GetJSON(ctx, s.BaseURL, url.Values{"q": {query}, "format": {"json"}}, map[string]string{"Accept": "application/json"}, &out)
	if err != nil {
		return nil, fmt.Errorf("searxng: %w", err)
	}
	for i := range out.Results {
		out.Results[i].Content = helpers.PlainText(out.Results[i].Content)
	}
	return out.Results, nil
}
