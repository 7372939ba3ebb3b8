// Package httpx is the process-wide outbound HTTP client shared by every
// web-facing tool. It rotates browser-like headers and enforces per-host
// concurrency, rate and circuit-breaker limits across concurrent callers.
// It never retries; retry policy belongs to the caller.
package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

// Limits bounds traffic to a single host.
type Limits struct {
	RatePerSecond float64
	Burst         int
	MaxConcurrent int64
	Timeout       time.Duration
}

// Options configures a Client.
type Options struct {
	Defaults   Limits
	Hosts      map[string]Limits
	UserAgents []string
	// BreakerFailures consecutive transient failures open a host for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	Transport       http.RoundTripper
	Logger          *log.Logger
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

type hostGate struct {
	limiter *rate.Limiter
	sem     *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	http   *http.Client
	opts   Options
	logger *log.Logger

	mu    sync.Mutex
	hosts map[string]*hostGate
}

// New builds a Client. Zero limits fall back to 20s timeouts, 4 concurrent
// requests and no rate limit.
func New(opts Options) *Client {
	if opts.Defaults.Timeout <= 0 {
		opts.Defaults.Timeout = 20 * time.Second
	}
	if opts.Defaults.MaxConcurrent <= 0 {
		opts.Defaults.MaxConcurrent = 4
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = DefaultUserAgents
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTPX] ", log.LstdFlags)
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		http:   &http.Client{Transport: transport},
		opts:   opts,
		logger: logger,
		hosts:  make(map[string]*hostGate),
	}
}

func (c *Client) gate(host string) *hostGate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.hosts[host]; ok {
		return g
	}
	lim, ok := c.opts.Hosts[host]
	if !ok {
		lim = c.opts.Defaults
	}
	if lim.Timeout <= 0 {
		lim.Timeout = c.opts.Defaults.Timeout
	}
	if lim.MaxConcurrent <= 0 {
		lim.MaxConcurrent = c.opts.Defaults.MaxConcurrent
	}
	every := rate.Inf
	if lim.RatePerSecond > 0 {
		every = rate.Limit(lim.RatePerSecond)
	}
	burst := lim.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := c.opts.BreakerFailures
	g := &hostGate{
		limiter: rate.NewLimiter(every, burst),
		sem:     semaphore.NewWeighted(lim.MaxConcurrent),
		timeout: lim.Timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    host,
			Timeout: c.opts.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !isTransientStatus(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Printf("breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
	c.hosts[host] = g
	return g
}

// Get issues a GET with query parameters and extra headers. Non-2xx
// responses are returned together with a *StatusError.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values, headers map[string]string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(req)
}

// GetJSON issues a GET and decodes a 2xx JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, headers map[string]string, out interface{}) error {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}
	resp, err := c.Get(ctx, rawURL, query, headers)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s: %w", stripQuery(rawURL), err)
	}
	return nil
}

// Do sends req through the host gate: concurrency slot, rate token, breaker.
func (c *Client) Do(req *http.Request) (*Response, error) {
	g := c.gate(req.URL.Hostname())
	ctx := req.Context()

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	req = req.WithContext(ctx)
	c.decorate(req)

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(req)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, &BreakerError{Host: req.URL.Hostname(), Err: err}
	}
	resp, _ := out.(*Response)
	return resp, err
}

func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := readBody(res)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	resp := &Response{Status: res.StatusCode, Header: res.Header, Body: body}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return resp, &StatusError{Code: res.StatusCode, Status: res.Status, Body: snippet}
	}
	return resp, nil
}

func (c *Client) decorate(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.opts.UserAgents[rand.IntN(len(c.opts.UserAgents))])
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", acceptValues[rand.IntN(len(acceptValues))])
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", languageValues[rand.IntN(len(languageValues))])
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", encodingValues[rand.IntN(len(encodingValues))])
	}
}

func readBody(res *http.Response) ([]byte, error) {
	var r io.Reader = res.Body
	switch strings.ToLower(strings.TrimSpace(res.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "deflate":
		// Servers mostly send zlib-wrapped data; some send a raw stream.
		raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			r = zr
		} else {
			fl := flate.NewReader(bytes.NewReader(raw))
			defer fl.Close()
			r = fl
		}
	}
	return io.ReadAll(io.LimitReader(r, maxBodyBytes))
}

func stripQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
