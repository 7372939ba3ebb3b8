package composer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/dispatch"
	"github.com/argos-research/argos/internal/llm"
	"github.com/argos-research/argos/models"
	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/require"
)

type streamScript struct {
	deltas []string
	err    error
}

type scriptedStream struct {
	mu      sync.Mutex
	scripts []streamScript
	reqs    []llm.Request
}

func (s *scriptedStream) Complete(context.Context, llm.Request) (string, error) {
	return "", errors.New("not implemented")
}

func (s *scriptedStream) Stream(_ context.Context, req llm.Request, onDelta func(string) error) error {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	if len(s.scripts) == 0 {
		s.mu.Unlock()
		return errors.New("no scripted stream")
	}
	sc := s.scripts[0]
	s.scripts = s.scripts[1:]
	s.mu.Unlock()
	for _, d := range sc.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return sc.err
}

func (s *scriptedStream) requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.reqs...)
}

var (
	primaryRoute  = config.LLMRoute{Model: "qwen/qwen3-32b", Temperature: 0.6, TopP: 0.95, MaxTokens: 4096}
	fallbackRoute = config.LLMRoute{Model: "llama-3.1-8b-instant", Temperature: 0.2}
	unavailable   = &llm.StatusError{Provider: "groq", Code: http.StatusServiceUnavailable, Body: "over capacity"}
)

func newTestComposer(primary, fallback llm.Client) *Composer {
	c := New(primary, primaryRoute, fallback, fallbackRoute)
	c.Policy.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	c.Logger = log.New(io.Discard, "", 0)
	return c
}

func turnOf(msgs ...string) models.Turn {
	var out []models.Message
	for i, m := range msgs {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		out = append(out, models.Message{Role: role, Content: m})
	}
	return models.NewTurn("t1", out, models.TaskResearch)
}

type collector struct {
	chunks []string
}

func (c *collector) emit(s string) error {
	c.chunks = append(c.chunks, s)
	return nil
}

func (c *collector) text() string { return strings.Join(c.chunks, "") }

var now = time.Date(2025, 4, 2, 7, 30, 0, 0, time.UTC)

func TestComposeStreamsChunks(t *testing.T) {
	t.Parallel()
	primary := &scriptedStream{scripts: []streamScript{{deltas: []string{"The conflict ", "is classified ", "as a NIAC."}}}}
	c := newTestComposer(primary, &scriptedStream{})
	var out collector
	err := c.Compose(context.Background(), turnOf("How is the Yemen conflict classified?"), dispatch.Bundle{}, now, out.emit)
	require.NoError(t, err)
	require.Equal(t, []string{"The conflict ", "is classified ", "as a NIAC."}, out.chunks)

	reqs := primary.requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "qwen/qwen3-32b", reqs[0].Model)
	require.Equal(t, "raw", reqs[0].ReasoningFormat)
	require.Len(t, reqs[0].Messages, 1)
	require.Equal(t, "user", reqs[0].Messages[0].Role)
}

func TestComposeRetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	primary := &scriptedStream{scripts: []streamScript{
		{err: unavailable},
		{err: unavailable},
		{deltas: []string{"Answer."}},
	}}
	fallback := &scriptedStream{}
	c := newTestComposer(primary, fallback)
	var out collector
	require.NoError(t, c.Compose(context.Background(), turnOf("q"), dispatch.Bundle{}, now, out.emit))

	require.Len(t, primary.requests(), 3)
	require.Empty(t, fallback.requests())
	require.Equal(t, []string{
		"\n[Experiencing a temporary issue. Retrying... (1/3)]\n",
		"\n[Experiencing a temporary issue. Retrying... (2/3)]\n",
		"Answer.",
	}, out.chunks)
}

func TestComposeSwitchesToFallbackRoute(t *testing.T) {
	t.Parallel()
	primary := &scriptedStream{scripts: []streamScript{{err: unavailable}, {err: unavailable}, {err: unavailable}}}
	fallback := &scriptedStream{scripts: []streamScript{{deltas: []string{"Short answer."}}}}
	c := newTestComposer(primary, fallback)
	var out collector
	require.NoError(t, c.Compose(context.Background(), turnOf("q"), dispatch.Bundle{}, now, out.emit))

	require.Len(t, primary.requests(), 3)
	fr := fallback.requests()
	require.Len(t, fr, 1)
	require.Equal(t, "llama-3.1-8b-instant", fr[0].Model)
	require.Empty(t, fr[0].ReasoningFormat)
	require.Contains(t, out.text(), "(3/3)]\n\n[Switching to alternative model due to service issues...]\n")
	require.True(t, strings.HasSuffix(out.text(), "Short answer."))
}

func TestComposeApologizesWhenEverythingFails(t *testing.T) {
	t.Parallel()
	primary := &scriptedStream{scripts: []streamScript{{err: unavailable}, {err: unavailable}, {err: unavailable}}}
	fallback := &scriptedStream{scripts: []streamScript{{err: &llm.StreamError{Message: "model overloaded"}}}}
	c := newTestComposer(primary, fallback)
	var out collector
	require.NoError(t, c.Compose(context.Background(), turnOf("q"), dispatch.Bundle{}, now, out.emit))

	last := out.chunks[len(out.chunks)-1]
	require.True(t, strings.HasPrefix(last, "\n\nI apologize, but I'm experiencing technical difficulties"))
	require.Contains(t, last, "Error details: StreamError - stream error: model overloaded")
	require.Contains(t, last, "Please try again in a few moments.")
}

func TestComposeStopsWhenSinkFails(t *testing.T) {
	t.Parallel()
	primary := &scriptedStream{scripts: []streamScript{{deltas: []string{"a", "b"}}}}
	c := newTestComposer(primary, &scriptedStream{})
	gone := errors.New("client gone")
	err := c.Compose(context.Background(), turnOf("q"), dispatch.Bundle{}, now, func(string) error { return gone })
	require.ErrorIs(t, err, gone)
	require.Len(t, primary.requests(), 1)
}

func TestComposeCancelledContext(t *testing.T) {
	t.Parallel()
	primary := &scriptedStream{scripts: []streamScript{{err: context.Canceled}}}
	c := newTestComposer(primary, &scriptedStream{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out collector
	err := c.Compose(ctx, turnOf("q"), dispatch.Bundle{}, now, out.emit)
	require.Error(t, err)
	for _, chunk := range out.chunks {
		require.NotContains(t, chunk, "I apologize")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want string
	}{
		{unavailable, "StatusError"},
		{&llm.StreamError{Message: "x"}, "StreamError"},
		{context.DeadlineExceeded, "TimeoutError"},
		{fmt.Errorf("read stream: %w", context.DeadlineExceeded), "TimeoutError"},
		{&netTimeout{}, "ConnectionError"},
		{errors.New("boom"), "APIError"},
	}
	for _, tc := range cases {
		if got := errorKind(tc.err); got != tc.want {
			t.Fatalf("errorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

type netTimeout struct{}

func (*netTimeout) Error() string   { return "dial tcp: connection refused" }
func (*netTimeout) Timeout() bool   { return false }
func (*netTimeout) Temporary() bool { return false }

// stalledStream blocks every attempt until its context ends.
type stalledStream struct {
	mu    sync.Mutex
	calls int
}

func (s *stalledStream) Complete(context.Context, llm.Request) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stalledStream) Stream(ctx context.Context, _ llm.Request, _ func(string) error) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (s *stalledStream) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestComposeApologizesWhenTurnDeadlinePasses(t *testing.T) {
	t.Parallel()
	primary := &stalledStream{}
	c := newTestComposer(primary, &stalledStream{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var out collector
	require.NoError(t, c.Compose(ctx, turnOf("q"), dispatch.Bundle{}, now, out.emit))

	require.Equal(t, 1, primary.count())
	require.Len(t, out.chunks, 1)
	require.Contains(t, out.chunks[0], "Error details: TimeoutError - context deadline exceeded")
}

func TestComposeStreamTimeoutIsNotRetried(t *testing.T) {
	t.Parallel()
	primary := &stalledStream{}
	fallback := &stalledStream{}
	c := newTestComposer(primary, fallback)
	c.StreamTimeout = 20 * time.Millisecond
	var out collector
	require.NoError(t, c.Compose(context.Background(), turnOf("q"), dispatch.Bundle{}, now, out.emit))

	require.Equal(t, 1, primary.count())
	require.Zero(t, fallback.count())
	require.NotContains(t, out.text(), "Retrying")
	require.Contains(t, out.text(), "TimeoutError")
}
