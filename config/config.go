package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research assistant
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains turn-level timing and concurrency settings
type GeneralConfig struct {
	Debug            bool          `mapstructure:"debug"`
	LogLevel         string        `mapstructure:"log_level"`
	TurnTimeout      time.Duration `mapstructure:"turn_timeout"`
	ToolTimeout      time.Duration `mapstructure:"tool_timeout"`
	StreamTimeout    time.Duration `mapstructure:"stream_timeout"`
	StatusStagger    time.Duration `mapstructure:"status_stagger"`
	MaxParallelTools int           `mapstructure:"max_parallel_tools"`
	Timezone         string        `mapstructure:"timezone"`
}

// Location resolves Timezone; an empty value means UTC.
func (g GeneralConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(g.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(g.Timezone)
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig contains API keys, provider endpoints and per-stage model routing
type LLMConfig struct {
	GroqAPIKey     string                 `mapstructure:"groq_api_key"`
	GroqAPIKeyNews string                 `mapstructure:"groq_api_key_news"`
	MistralAPIKey  string                 `mapstructure:"mistral_api_key"`
	DeepseekAPIKey string                 `mapstructure:"deepseek_api_key"`
	Providers      map[string]LLMProvider `mapstructure:"providers"`
	Routing        LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider is an OpenAI-compatible chat completions endpoint
type LLMProvider struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMRoute binds a pipeline stage to a provider model and its sampling settings
type LLMRoute struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// LLMRoutingConfig defines which model serves each stage
type LLMRoutingConfig struct {
	Planner        LLMRoute `mapstructure:"planner"`
	Answer         LLMRoute `mapstructure:"answer"`
	AnswerFallback LLMRoute `mapstructure:"answer_fallback"`
	Titles         LLMRoute `mapstructure:"titles"`
	FollowUps      LLMRoute `mapstructure:"follow_ups"`
	NewsSummary    LLMRoute `mapstructure:"news_summary"`
}

const (
	ProviderGroq     = "groq"
	ProviderMistral  = "mistral"
	ProviderDeepseek = "deepseek"
)

// APIKey returns the key configured for provider and the setting name it is read from.
func (l LLMConfig) APIKey(provider string) (key string, setting string) {
	switch provider {
	case ProviderMistral:
		return l.MistralAPIKey, "mistral_api_key"
	case ProviderDeepseek:
		return l.DeepseekAPIKey, "deepseek_api_key"
	default:
		return l.GroqAPIKey, "groq_api_key"
	}
}

// NewsAPIKey returns the key used for per-article summarization.
func (l LLMConfig) NewsAPIKey() string {
	if strings.TrimSpace(l.GroqAPIKeyNews) != "" {
		return l.GroqAPIKeyNews
	}
	return l.GroqAPIKey
}

// SearchConfig contains search API and scraping settings
type SearchConfig struct {
	BraveAPIKey           string        `mapstructure:"brave_search_api_key"`
	SearXNGURL            string        `mapstructure:"searxng_url"`
	IgnoredWebsites       string        `mapstructure:"ignored_websites"`
	PageContentWordsLimit int           `mapstructure:"page_content_words_limit"`
	BraveRatePerSecond    float64       `mapstructure:"brave_rate_per_second"`
	BraveMaxConcurrent    int           `mapstructure:"brave_max_concurrent"`
	ScrapeRatePerSecond   float64       `mapstructure:"scrape_rate_per_second"`
	ScrapeMaxConcurrent   int           `mapstructure:"scrape_max_concurrent"`
	APITimeout            time.Duration `mapstructure:"api_timeout"`
	ScrapeTimeout         time.Duration `mapstructure:"scrape_timeout"`
}

// IgnoredHosts splits the comma separated denylist.
func (s SearchConfig) IgnoredHosts() []string {
	var out []string
	for _, part := range strings.Split(s.IgnoredWebsites, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GraphConfig contains conflict graph database settings
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// FetchConfig selects how article pages are downloaded
type FetchConfig struct {
	Mode     string        `mapstructure:"mode"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Enabled reports whether a cache should be attached.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Host) != "" }

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("redis.port required when redis.host is set")
	}
	if r.TTL < 0 {
		return fmt.Errorf("redis.ttl must be >= 0")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	LogFile      string `mapstructure:"log_file"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && (t.MetricsPort <= 0 || t.MetricsPort > 65535) {
		return fmt.Errorf("telemetry.metrics_port must be in 1..65535 when telemetry is enabled")
	}
	return nil
}

const (
	FetchModeHTTP     = "http"
	FetchModeChromedp = "chromedp"

	DefaultReasoningModel = "qwen/qwen3-32b"
	DefaultSmallModel     = "llama-3.1-8b-instant"
)

var defaultProviders = map[string]LLMProvider{
	ProviderGroq:     {BaseURL: "https://api.groq.com/openai/v1", Timeout: 120 * time.Second},
	ProviderMistral:  {BaseURL: "https://api.mistral.ai/v1", Timeout: 120 * time.Second},
	ProviderDeepseek: {BaseURL: "https://api.deepseek.com/v1", Timeout: 120 * time.Second},
}

func route(r, def LLMRoute) LLMRoute {
	if strings.TrimSpace(r.Model) == "" {
		return def
	}
	if r.Provider == "" {
		r.Provider = ProviderGroq
	}
	return r
}

// Normalize fills unset values with working defaults.
func (c Config) Normalize() Config {
	g := &c.General
	if g.TurnTimeout <= 0 {
		g.TurnTimeout = 5 * time.Minute
	}
	if g.ToolTimeout <= 0 {
		g.ToolTimeout = 90 * time.Second
	}
	if g.StreamTimeout <= 0 {
		g.StreamTimeout = 3 * time.Minute
	}
	if g.StatusStagger <= 0 {
		g.StatusStagger = 2 * time.Second
	}
	if g.MaxParallelTools <= 0 {
		g.MaxParallelTools = 4
	}
	if g.Timezone == "" {
		g.Timezone = "Europe/Paris"
	}

	if c.Server.Address == "" {
		c.Server.Address = ":10001"
	}

	providers := make(map[string]LLMProvider, len(defaultProviders))
	for name, p := range defaultProviders {
		providers[name] = p
	}
	for name, p := range c.LLM.Providers {
		def := providers[name]
		if p.BaseURL == "" {
			p.BaseURL = def.BaseURL
		}
		if p.Timeout <= 0 {
			p.Timeout = def.Timeout
		}
		providers[name] = p
	}
	c.LLM.Providers = providers

	rt := &c.LLM.Routing
	rt.Planner = route(rt.Planner, LLMRoute{Provider: ProviderGroq, Model: DefaultReasoningModel, Temperature: 0.6})
	rt.Answer = route(rt.Answer, LLMRoute{Provider: ProviderGroq, Model: DefaultReasoningModel, Temperature: 0.6, MaxTokens: 4096, TopP: 0.95})
	rt.AnswerFallback = route(rt.AnswerFallback, LLMRoute{Provider: ProviderGroq, Model: DefaultSmallModel, Temperature: 0.2, MaxTokens: 4096, TopP: 0.95})
	rt.Titles = route(rt.Titles, LLMRoute{Provider: ProviderGroq, Model: DefaultSmallModel, Temperature: 0.1, MaxTokens: 100})
	rt.FollowUps = route(rt.FollowUps, LLMRoute{Provider: ProviderGroq, Model: DefaultSmallModel, Temperature: 0.3, MaxTokens: 300})
	rt.NewsSummary = route(rt.NewsSummary, LLMRoute{Provider: ProviderGroq, Model: DefaultSmallModel, Temperature: 0})

	s := &c.Search
	if s.PageContentWordsLimit <= 0 {
		s.PageContentWordsLimit = 4000
	}
	if s.BraveRatePerSecond <= 0 {
		s.BraveRatePerSecond = 1
	}
	if s.BraveMaxConcurrent <= 0 {
		s.BraveMaxConcurrent = 1
	}
	if s.ScrapeRatePerSecond <= 0 {
		s.ScrapeRatePerSecond = 2
	}
	if s.ScrapeMaxConcurrent <= 0 {
		s.ScrapeMaxConcurrent = 3
	}
	if s.APITimeout <= 0 {
		s.APITimeout = 20 * time.Second
	}
	if s.ScrapeTimeout <= 0 {
		s.ScrapeTimeout = 20 * time.Second
	}

	if c.Graph.Username == "" {
		c.Graph.Username = "neo4j"
	}

	if c.Fetch.Mode == "" {
		c.Fetch.Mode = FetchModeHTTP
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 20 * time.Second
	}
	if c.Fetch.MaxChars <= 0 {
		c.Fetch.MaxChars = 60000
	}

	if c.Redis.Enabled() {
		if c.Redis.Port == "" {
			c.Redis.Port = "6379"
		}
		if c.Redis.Timeout <= 0 {
			c.Redis.Timeout = 5 * time.Second
		}
		if c.Redis.TTL == 0 {
			c.Redis.TTL = 6 * time.Hour
		}
	}
	return c
}

// Validate rejects settings that cannot work. Missing API keys are not
// validation errors: they are reported when the first turn needs them.
func (c Config) Validate() error {
	if c.General.MaxParallelTools < 1 {
		return fmt.Errorf("general.max_parallel_tools must be >= 1")
	}
	if c.General.ToolTimeout < 0 || c.General.StreamTimeout < 0 || c.General.TurnTimeout < 0 {
		return fmt.Errorf("general timeouts must be >= 0")
	}
	if _, err := time.LoadLocation(c.General.Timezone); err != nil {
		return fmt.Errorf("general.timezone: %w", err)
	}
	switch c.Fetch.Mode {
	case FetchModeHTTP, FetchModeChromedp:
	default:
		return fmt.Errorf("fetch.mode must be %q or %q, got %q", FetchModeHTTP, FetchModeChromedp, c.Fetch.Mode)
	}
	for name, r := range map[string]LLMRoute{
		"planner":         c.LLM.Routing.Planner,
		"answer":          c.LLM.Routing.Answer,
		"answer_fallback": c.LLM.Routing.AnswerFallback,
		"titles":          c.LLM.Routing.Titles,
		"follow_ups":      c.LLM.Routing.FollowUps,
		"news_summary":    c.LLM.Routing.NewsSummary,
	} {
		if _, ok := c.LLM.Providers[r.Provider]; !ok {
			return fmt.Errorf("llm.routing.%s: unknown provider %q", name, r.Provider)
		}
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// secretKeys are declared so that ARGOS_* environment variables reach
// Unmarshal even when the config file omits them.
var secretKeys = []string{
	"llm.groq_api_key",
	"llm.groq_api_key_news",
	"llm.mistral_api_key",
	"llm.deepseek_api_key",
	"search.brave_search_api_key",
	"search.searxng_url",
	"search.ignored_websites",
	"graph.uri",
	"graph.username",
	"graph.password",
	"graph.database",
	"redis.host",
	"redis.password",
	"telemetry.otlp_endpoint",
}

// LoadConfig loads config from file and ARGOS_* environment variables.
// A missing config file is tolerated when no explicit path is given.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	for _, key := range secretKeys {
		v.SetDefault(key, "")
	}
	v.SetDefault("general.status_stagger", "2s")
	v.SetDefault("general.timezone", "Europe/Paris")
	v.SetDefault("search.page_content_words_limit", 4000)
	v.SetDefault("fetch.mode", FetchModeHTTP)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("ARGOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
