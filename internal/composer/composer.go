// Package composer streams the final answer for a research turn from the
// grouped tool evidence.
package composer

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/dispatch"
	"github.com/argos-research/argos/internal/llm"
	"github.com/argos-research/argos/internal/retry"
	"github.com/argos-research/argos/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

//go:embed answer_prompt.md
var answerTemplate string

const (
	defaultQuestion = "Please provide information about the current international conflicts."
	historyHeader   = "--- \n\n# Our current conversation\n\nWe are currently having the following conversation:\n\n"
	switchNotice    = "\n[Switching to alternative model due to service issues...]\n"
)

var (
	metricsOnce sync.Once
	ttftMs      otelmetric.Float64Histogram
	durationMs  otelmetric.Float64Histogram
	llmRetries  otelmetric.Int64Counter
)

func initMetrics() {
	meter := otel.Meter("argos/internal/composer")
	var err error
	ttftMs, err = meter.Float64Histogram("argos_composer_ttft_ms",
		otelmetric.WithDescription("Time to first streamed answer token"),
		otelmetric.WithUnit("ms"))
	if err != nil {
		log.Printf("composer metrics init: ttft histogram: %v", err)
	}
	durationMs, err = meter.Float64Histogram("argos_composer_duration_ms",
		otelmetric.WithDescription("Answer composition wall time"),
		otelmetric.WithUnit("ms"))
	if err != nil {
		log.Printf("composer metrics init: duration histogram: %v", err)
	}
	llmRetries, err = meter.Int64Counter("argos_llm_retries_total",
		otelmetric.WithDescription("LLM requests retried after a transient failure"))
	if err != nil {
		log.Printf("composer metrics init: retries counter: %v", err)
	}
}

// Composer renders the answer prompt and streams the model reply.
type Composer struct {
	LLM   llm.Client
	Route config.LLMRoute
	// Fallback serves the last attempt once the primary route keeps failing.
	Fallback        llm.Client
	FallbackRoute   config.LLMRoute
	ReasoningFormat string
	Location        *time.Location
	Policy          retry.Policy
	// StreamTimeout bounds each streaming attempt. An attempt that runs past
	// it is not retried: the stream ends with the apology. Zero disables it.
	StreamTimeout time.Duration
	Logger        *log.Logger
}

// New returns a composer with three retries, the last one on the fallback route.
func New(primary llm.Client, route config.LLMRoute, fallback llm.Client, fallbackRoute config.LLMRoute) *Composer {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		loc = time.UTC
	}
	return &Composer{
		LLM:             primary,
		Route:           route,
		Fallback:        fallback,
		FallbackRoute:   fallbackRoute,
		ReasoningFormat: "raw",
		Location:        loc,
		Policy:          retry.Default(),
		Logger:          log.New(os.Stderr, "[COMPOSER] ", log.LstdFlags),
	}
}

// sinkError marks a failure to hand a chunk to the caller. It is never retried.
type sinkError struct{ err error }

func (e *sinkError) Error() string { return e.err.Error() }
func (e *sinkError) Unwrap() error { return e.err }

// Prompt fills the answer template for turn.
func (c *Composer) Prompt(turn models.Turn, bundle dispatch.Bundle, now time.Time) string {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	question, ok := turn.Query()
	if !ok || strings.TrimSpace(question) == "" {
		question = defaultQuestion
	}
	r := strings.NewReplacer(
		"{currentDateTime}", now.In(loc).Format("January 02, 2006 03:04 PM"),
		"{conversation_without_last_user_message}", conversation(turn.History()),
		"{last_user_message}", question,
		"{combined_tool_research}", Research(bundle),
	)
	return r.Replace(answerTemplate)
}

func conversation(history []models.Message) string {
	kept := make([]models.Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) != "" {
			kept = append(kept, m)
		}
	}
	text := strings.TrimSpace(models.FormatHistory(kept))
	if text == "" {
		return ""
	}
	return historyHeader + text
}

// Compose streams the answer through emit. Model failures and deadlines,
// per attempt or from ctx, end in an apology chunk rather than an error; the
// returned error is non-nil only when emit fails or ctx is cancelled.
func (c *Composer) Compose(ctx context.Context, turn models.Turn, bundle dispatch.Bundle, now time.Time, emit func(string) error) error {
	metricsOnce.Do(initMetrics)
	ctx, span := otel.Tracer("argos/internal/composer").Start(ctx, "composer.stream")
	defer span.End()

	prompt := c.Prompt(turn, bundle, now)
	start := time.Now()
	var first sync.Once
	var chunks int
	onDelta := func(delta string) error {
		if delta == "" {
			return nil
		}
		first.Do(func() {
			if ttftMs != nil {
				ttftMs.Record(ctx, float64(time.Since(start).Milliseconds()))
			}
		})
		chunks++
		if err := emit(delta); err != nil {
			return &sinkError{err: err}
		}
		return nil
	}

	policy := c.Policy
	policy.RetryOn = func(err error) bool {
		var se *sinkError
		switch {
		case errors.As(err, &se), ctx.Err() != nil:
			return false
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return false
		}
		return true
	}

	var noticeErr error
	_, err := retry.Do(ctx, policy, func(attempt int) (struct{}, error) {
		if noticeErr != nil {
			return struct{}{}, &sinkError{err: noticeErr}
		}
		client, req := c.request(attempt, prompt)
		actx := ctx
		if c.StreamTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, c.StreamTimeout)
			defer cancel()
		}
		return struct{}{}, client.Stream(actx, req, onDelta)
	}, func(n int, err error, wait time.Duration) {
		c.Logger.Printf("answer stream failed, retrying in %s (attempt %d/%d): %v", wait, n, policy.Retries, err)
		if llmRetries != nil {
			llmRetries.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("stage", "composer")))
		}
		notice := fmt.Sprintf("\n[Experiencing a temporary issue. Retrying... (%d/%d)]\n", n, policy.Retries)
		if n == policy.Retries {
			notice += switchNotice
		}
		if noticeErr == nil {
			noticeErr = emit(notice)
		}
	})
	if durationMs != nil {
		durationMs.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	span.SetAttributes(attribute.Int("composer.chunks", chunks))
	if err == nil {
		return nil
	}
	span.RecordError(err)

	var se *sinkError
	if errors.As(err, &se) {
		return se.err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if ctx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%v: %w", err, ctx.Err())
	}
	c.Logger.Printf("answer stream gave up: %v", err)
	return emit(Apology(err))
}

// request picks the route for a zero-based attempt. The attempt after the
// last primary retry goes to the fallback route.
func (c *Composer) request(attempt int, prompt string) (llm.Client, llm.Request) {
	if attempt >= c.Policy.Retries && c.Policy.Retries > 0 && c.Fallback != nil {
		return c.Fallback, llm.NewRequest(c.FallbackRoute, llm.UserPrompt(prompt))
	}
	req := llm.NewRequest(c.Route, llm.UserPrompt(prompt))
	req.ReasoningFormat = c.ReasoningFormat
	return c.LLM, req
}

// Apology is the chunk sent when every attempt failed.
func Apology(err error) string {
	return fmt.Sprintf("\n\nI apologize, but I'm experiencing technical difficulties connecting to my knowledge services. Error details: %s - %v\n\nPlease try again in a few moments. If the problem persists, it may indicate an issue with the external API service.", errorKind(err), err)
}

func errorKind(err error) string {
	var status *llm.StatusError
	var stream *llm.StreamError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "TimeoutError"
	case errors.As(err, &status):
		return "StatusError"
	case errors.As(err, &stream):
		return "StreamError"
	case errors.As(err, &netErr):
		return "ConnectionError"
	default:
		return "APIError"
	}
}
