package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/argos-research/argos/internal/citation"
	"github.com/argos-research/argos/internal/fetch"
	"github.com/argos-research/argos/internal/httpx"
	"github.com/argos-research/argos/models"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func braveServer(t *testing.T, summary map[string]interface{}, withKey bool) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("X-Subscription-Token") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/res/v1/web/search":
			if r.URL.Query().Get("summary") != "1" || r.Header.Get("Api-Version") != "2023-10-11" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			body := map[string]interface{}{"web": map[string]interface{}{"results": []interface{}{}}}
			if withKey {
				body["summarizer"] = map[string]string{"key": "sum-key"}
			}
			_ = json.NewEncoder(w).Encode(body)
		case "/res/v1/summarizer/search":
			if r.URL.Query().Get("key") != "sum-key" || r.Header.Get("Api-Version") != "2024-04-23" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(summary)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func newBrave(srv *httptest.Server) *Brave {
	return &Brave{
		Client:        httpx.New(httpx.Options{Logger: quietLogger()}),
		APIKey:        "test-key",
		WebURL:        srv.URL + "/res/v1/web/search",
		SummarizerURL: srv.URL + "/res/v1/summarizer/search",
	}
}

func TestBraveTwoStageSummary(t *testing.T) {
	t.Parallel()
	srv, calls := braveServer(t, map[string]interface{}{
		"title": "Somalia human rights",
		"summary": []interface{}{
			map[string]interface{}{"type": "token", "data": "Civilians face "},
			map[string]interface{}{"type": "enum_item", "data": map[string]string{"text": "ignored"}},
			map[string]interface{}{"type": "token", "data": "serious abuses."},
		},
		"enrichments": map[string]interface{}{
			"context": []interface{}{
				map[string]string{"title": "HRW", "url": "https://www.hrw.org/somalia"},
				map[string]string{"url": "https://blocked.example/x"},
				map[string]string{"url": "https://un.org/somalia"},
			},
		},
	}, true)

	s := New(Options{Brave: newBrave(srv), Denylist: []string{"blocked.example"}, Logger: quietLogger()})
	res, err := s.Call(context.Background(), map[string]interface{}{"query": "human rights situation in Somalia"})
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	require.Equal(t, "### Somalia human rights\n\nCivilians face serious abuses.\n\n#### Sources\n0. [HRW](https://www.hrw.org/somalia)\n1. [Unknown Source](https://un.org/somalia)\n", res.Content)
	require.Len(t, res.Citations, 1)
	c := res.Citations[0]
	require.Equal(t, citation.AggregatorSentinel, c.URL)
	require.Equal(t, "Brave Search: human rights situation in Somalia", c.Title)
	require.Equal(t, "Somalia human rights\nQuery: human rights situation in Somalia\nCivilians face serious abuses.\n\nSources:\n0. HRW: https://www.hrw.org/somalia\n1. Unknown Source: https://un.org/somalia\n", c.FormattedContent)
}

func TestBraveRawEnrichmentWins(t *testing.T) {
	t.Parallel()
	srv, _ := braveServer(t, map[string]interface{}{
		"summary":     []interface{}{map[string]interface{}{"type": "token", "data": "tokens"}},
		"enrichments": map[string]interface{}{"raw": "raw answer"},
	}, true)
	sum, err := newBrave(srv).Summarize(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, "Search Results", sum.Title)
	require.Equal(t, "raw answer", sum.Content)
	require.Equal(t, "### Search Results\n\nraw answer", sum.Markdown())
}

func TestBraveMissingKeyYieldsNoResults(t *testing.T) {
	t.Parallel()
	srv, calls := braveServer(t, nil, false)
	s := New(Options{Brave: newBrave(srv), Logger: quietLogger()})
	res, err := s.Call(context.Background(), map[string]interface{}{"query": "ceasefire Gaza"})
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load(), "summarizer must not be called without a key")
	require.Equal(t, "No results found for query: ceasefire Gaza", res.Content)
	require.Empty(t, res.Citations)

	_, err = newBrave(srv).Summarize(context.Background(), "x")
	require.True(t, errors.Is(err, ErrNoSummaryKey))
}

func TestBraveHTTPErrorYieldsNoResults(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	s := New(Options{Brave: newBrave(srv), Logger: quietLogger()})
	res, err := s.Call(context.Background(), map[string]interface{}{"query": "q"})
	require.NoError(t, err)
	require.Equal(t, "No results found for query: q", res.Content)
}

type pageFetcher map[string]string

func (p pageFetcher) Fetch(_ context.Context, url string) (fetch.Page, error) {
	html, ok := p[url]
	if !ok {
		return fetch.Page{}, errors.New("not found")
	}
	return fetch.Page{URL: url, HTML: html, FetchedAt: time.Now()}, nil
}

func TestSearXNGFallback(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": []Hit{
			{URL: "https://news.example/a", Title: "A", Content: "<b>snippet a</b>"},
			{URL: "https://www.ignored.org/b", Title: "B", Content: "snippet b"},
			{URL: "https://news.example/a", Title: "A again"},
			{URL: "https://other.example/c", Title: "C", Content: "snippet &amp; c"},
		}})
	}))
	defer srv.Close()

	article := "<html><head><title>A</title></head><body><article><h1>A</h1>" +
		strings.Repeat("<p>Fighting resumed near the border town as negotiators met again in the capital, officials said.</p>", 12) +
		"</article></body></html>"
	s := New(Options{
		SearXNG:  &SearXNG{Client: httpx.New(httpx.Options{Logger: quietLogger()}), BaseURL: srv.URL + "/search"},
		Fetcher:  pageFetcher{"https://news.example/a": article},
		Denylist: []string{"ignored.org"},
		Logger:   quietLogger(),
	})
	res, err := s.Call(context.Background(), map[string]interface{}{"query": "border fighting"})
	require.NoError(t, err)
	require.Len(t, res.Citations, 2)
	require.Equal(t, "https://news.example/a", res.Citations[0].URL)
	require.Contains(t, res.Citations[0].FormattedContent, "Fighting resumed")
	require.Equal(t, "https://other.example/c", res.Citations[1].URL)
	require.Equal(t, "snippet & c", res.Citations[1].FormattedContent)
	require.True(t, strings.HasPrefix(res.Content, "# Web Search Results for: border fighting\n\n## 1. A\nURL: https://news.example/a"))
	for _, c := range res.Citations {
		require.NotEqual(t, citation.AggregatorSentinel, c.URL)
	}
}

func TestNoBackendConfigured(t *testing.T) {
	t.Parallel()
	res, err := New(Options{Logger: quietLogger()}).Call(context.Background(), map[string]interface{}{"query": "x"})
	require.NoError(t, err)
	require.Equal(t, models.ToolWebSearch, res.ToolName)
	require.Equal(t, "No results found for query: x", res.Content)
}
