package turn

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/cache"
	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/internal/composer"
	"github.com/argos-research/argos/internal/dispatch"
	"github.com/argos-research/argos/internal/fetch"
	"github.com/argos-research/argos/internal/httpx"
	"github.com/argos-research/argos/internal/llm"
	"github.com/argos-research/argos/internal/planner"
	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/internal/tools/graph"
	"github.com/argos-research/argos/internal/tools/hrw"
	"github.com/argos-research/argos/internal/tools/news"
	"github.com/argos-research/argos/internal/tools/websearch"
)

// clients caches one provider client per (provider, key) pair.
type clients struct {
	cfg  config.LLMConfig
	byID map[string]llm.Client
}

func (c *clients) get(provider, key, setting string) (llm.Client, error) {
	if key == "" {
		return nil, &ConfigMissingError{Setting: setting}
	}
	id := provider + "\x00" + key
	if cl, ok := c.byID[id]; ok {
		return cl, nil
	}
	p, err := llm.NewProvider(provider, c.cfg.Providers[provider], key)
	if err != nil {
		return nil, fmt.Errorf("llm provider %s: %w", provider, err)
	}
	c.byID[id] = p
	return p, nil
}

func (c *clients) route(r config.LLMRoute) (llm.Client, error) {
	key, setting := c.cfg.APIKey(r.Provider)
	return c.get(r.Provider, key, "llm."+setting)
}

// Build wires the research pipeline from cfg. A missing LLM key fails with
// *ConfigMissingError; missing search or graph settings only disable the
// tools that need them.
func Build(ctx context.Context, cfg config.Config, logger *log.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[TURN] ", log.LstdFlags)
	}
	routing := cfg.LLM.Routing
	cl := &clients{cfg: cfg.LLM, byID: map[string]llm.Client{}}

	plannerLLM, err := cl.route(routing.Planner)
	if err != nil {
		return nil, err
	}
	answerLLM, err := cl.route(routing.Answer)
	if err != nil {
		return nil, err
	}
	fallbackLLM, err := cl.route(routing.AnswerFallback)
	if err != nil {
		return nil, err
	}
	titleLLM, err := cl.route(routing.Titles)
	if err != nil {
		return nil, err
	}
	followUpLLM, err := cl.route(routing.FollowUps)
	if err != nil {
		return nil, err
	}
	summaryLLM, err := cl.get(routing.NewsSummary.Provider, cfg.LLM.NewsAPIKey(), "llm.groq_api_key_news")
	if err != nil {
		return nil, err
	}

	var closers []func() error
	store := cache.Store(nil)
	if cfg.Redis.Enabled() {
		rdb, err := cache.Conn(ctx, cfg.Redis)
		if err != nil {
			logger.Printf("warn: cache disabled: %v", err)
		} else {
			r := cache.NewRedis(rdb, "argos:")
			store = r
			closers = append(closers, r.Close)
		}
	}

	search := cfg.Search
	client := httpx.New(httpx.Options{
		Defaults: httpx.Limits{
			RatePerSecond: search.ScrapeRatePerSecond,
			MaxConcurrent: int64(search.ScrapeMaxConcurrent),
			Timeout:       search.ScrapeTimeout,
		},
		Hosts: map[string]httpx.Limits{
			websearch.BraveHost: {
				RatePerSecond: search.BraveRatePerSecond,
				Burst:         1,
				MaxConcurrent: int64(search.BraveMaxConcurrent),
				Timeout:       search.APITimeout,
			},
		},
		Logger: log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	})
	fetcher, err := fetch.New(cfg.Fetch, client, store, cfg.Redis.TTL)
	if err != nil {
		return nil, err
	}

	var brave *websearch.Brave
	if search.BraveAPIKey != "" {
		brave = &websearch.Brave{Client: client, APIKey: search.BraveAPIKey}
	} else {
		logger.Printf("warn: search.brave_search_api_key is not set; news, HRW and Brave search are disabled")
	}
	var searx *websearch.SearXNG
	if search.SearXNGURL != "" {
		searx = &websearch.SearXNG{Client: client, BaseURL: search.SearXNGURL}
	}
	denylist := search.IgnoredHosts()

	var runner graph.Runner
	if db, err := graph.Open(cfg.Graph); err != nil {
		if !errors.Is(err, graph.ErrNotConfigured) {
			return nil, err
		}
		logger.Printf("warn: graph.uri is not set; RULAC conflict tools are disabled")
		runner = graph.Unavailable(err)
	} else {
		runner = db
		closers = append(closers, func() error { return db.Close(context.Background()) })
	}

	hrwTool := &hrw.Reports{Fetcher: fetcher, Denylist: denylist, WordLimit: search.PageContentWordsLimit}
	newsOpts := news.Options{
		Fetcher: fetcher,
		Summarizer: &news.Summarizer{
			LLM:   summaryLLM,
			Route: routing.NewsSummary,
			Store: store,
			TTL:   cfg.Redis.TTL,
		},
		Denylist:  denylist,
		WordLimit: search.PageContentWordsLimit,
	}
	if brave != nil {
		hrwTool.Search = brave
		newsOpts.Search = brave
	}

	lib := tools.NewLibrary(graph.ConflictTools(runner, nil)...)
	for _, t := range graph.StaticTools() {
		lib.Register(t)
	}
	lib.Register(websearch.New(websearch.Options{
		Brave:     brave,
		SearXNG:   searx,
		Fetcher:   fetcher,
		Denylist:  denylist,
		WordLimit: search.PageContentWordsLimit,
	}))
	lib.Register(hrwTool)
	lib.Register(news.New(newsOpts))

	catalog := capability.Default()
	comp := composer.New(answerLLM, routing.Answer, fallbackLLM, routing.AnswerFallback)
	comp.StreamTimeout = cfg.General.StreamTimeout
	if loc, err := cfg.General.Location(); err == nil {
		comp.Location = loc
	}

	return &Pipeline{
		Catalog:   catalog,
		Planner:   planner.New(plannerLLM, routing.Planner, catalog),
		Executor:  dispatch.New(lib, catalog, cfg.General.MaxParallelTools, cfg.General.ToolTimeout),
		Answerer:  comp,
		Titles:    &Titles{LLM: titleLLM, Route: routing.Titles, Logger: logger},
		FollowUps: &FollowUps{LLM: followUpLLM, Route: routing.FollowUps, Logger: logger},
		Close: func() error {
			var errs []error
			for _, c := range closers {
				errs = append(errs, c())
			}
			return errors.Join(errs...)
		},
	}, nil
}
