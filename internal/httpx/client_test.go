package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetSendsBrowserHeaders(t *testing.T) {
	t.Parallel()
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(r.URL.Query().Get("q")))
	}))
	defer srv.Close()

	c := New(Options{})
	resp, err := c.Get(context.Background(), srv.URL, url.Values{"q": {"somalia"}}, map[string]string{"X-Subscription-Token": "k"})
	require.NoError(t, err)
	require.Equal(t, "somalia", string(resp.Body))
	require.NotEmpty(t, got.Get("User-Agent"))
	require.NotEmpty(t, got.Get("Accept-Language"))
	require.Equal(t, "k", got.Get("X-Subscription-Token"))
}

func TestGetDecodesGzip(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(`{"ok":true}`))
		_ = gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	c := New(Options{})
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, map[string]string{"Accept-Encoding": "gzip"}, &out))
	require.True(t, out.OK)
}

func TestGetDecodesDeflate(t *testing.T) {
	t.Parallel()
	zlibBody := func() []byte {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		_, _ = zw.Write([]byte(`{"ok":true}`))
		_ = zw.Close()
		return buf.Bytes()
	}
	rawBody := func() []byte {
		var buf bytes.Buffer
		fw, _ := flate.NewWriter(&buf, flate.DefaultCompression)
		_, _ = fw.Write([]byte(`{"ok":true}`))
		_ = fw.Close()
		return buf.Bytes()
	}
	for name, body := range map[string][]byte{"zlib": zlibBody(), "raw": rawBody()} {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", "deflate")
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			c := New(Options{})
			var out struct {
				OK bool `json:"ok"`
			}
			require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, map[string]string{"Accept-Encoding": "deflate"}, &out))
			require.True(t, out.OK)
		})
	}
}

func TestStatusErrorClassification(t *testing.T) {
	t.Parallel()
	codes := map[int]bool{503: true, 429: true, 404: false, 400: false}
	for code, transient := range codes {
		code, transient := code, transient
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c := New(Options{BreakerFailures: 100})
		resp, err := c.Get(context.Background(), srv.URL, nil, nil)
		srv.Close()
		var se *StatusError
		require.True(t, errors.As(err, &se), "code %d", code)
		require.Equal(t, transient, se.Transient(), "code %d", code)
		require.Equal(t, code, resp.Status)
		require.Equal(t, code, StatusCode(err))
	}
}

func TestPerHostConcurrencyBound(t *testing.T) {
	t.Parallel()
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}))
	defer srv.Close()

	host, _ := url.Parse(srv.URL)
	c := New(Options{Hosts: map[string]Limits{host.Hostname(): {MaxConcurrent: 1}}})
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get(context.Background(), srv.URL, nil, nil)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Options{BreakerFailures: 2, BreakerCooldown: time.Minute})
	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), srv.URL, nil, nil)
		require.Error(t, err)
	}
	_, err := c.Get(context.Background(), srv.URL, nil, nil)
	var be *BreakerError
	require.True(t, errors.As(err, &be))
	require.True(t, be.Transient())
	require.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestCancelledContextAbortsWait(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	host, _ := url.Parse(srv.URL)
	c := New(Options{Hosts: map[string]Limits{host.Hostname(): {RatePerSecond: 0.001}}})
	_, err := c.Get(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Get(ctx, srv.URL, nil, nil)
	require.Error(t, err)
}
