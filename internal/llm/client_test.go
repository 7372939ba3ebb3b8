package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/argos-research/argos/config"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := NewProvider("groq", config.LLMProvider{BaseURL: srv.URL}, "test-key")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func TestNewProviderRequiresKey(t *testing.T) {
	t.Parallel()
	_, err := NewProvider("groq", config.LLMProvider{BaseURL: "http://x"}, " ")
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestCompleteSendsRequest(t *testing.T) {
	t.Parallel()
	var got Request
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"tools\":[]}"}}]}`)
	})

	req := NewRequest(config.LLMRoute{Model: "qwen/qwen3-32b", Temperature: 0.6}, UserPrompt("plan"))
	req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	out, err := p.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"tools":[]}` {
		t.Fatalf("content = %q", out)
	}
	if got.Model != "qwen/qwen3-32b" || got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" || got.Stream {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestCompleteStatusError(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over capacity", http.StatusServiceUnavailable)
	})
	_, err := p.Complete(context.Background(), Request{Model: "m"})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 503 || !se.Transient() {
		t.Fatalf("expected transient 503, got %v", err)
	}
}

func TestStreamDeliversDeltas(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	var b strings.Builder
	err := p.Stream(context.Background(), Request{Model: "m"}, func(s string) error {
		b.WriteString(s)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if b.String() != "Hello world" {
		t.Fatalf("stream = %q", b.String())
	}
}

func TestStreamInlineError(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"model overloaded\",\"type\":\"server_error\"}}\n\n")
	})
	err := p.Stream(context.Background(), Request{Model: "m"}, func(string) error { return nil })
	var se *StreamError
	if !errors.As(err, &se) || !se.Transient() {
		t.Fatalf("expected StreamError, got %v", err)
	}
}
