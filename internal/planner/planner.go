// Package planner asks the planning model which research tools a turn needs
// and turns its answer into a validated plan. Planning never fails a turn:
// every failure path ends in the fallback plan.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/llm"
	"github.com/argos-research/argos/internal/retry"
	"github.com/argos-research/argos/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

const (
	defaultReasoning   = "No reasoning provided"
	extractedReasoning = "Extracted from non-standard response"
)

// FallbackPlan is used whenever the model output cannot be turned into a plan.
func FallbackPlan() []models.ToolCall {
	return []models.ToolCall{{
		ID:        "fallback_tool",
		Name:      models.ToolArgosInfo,
		Args:      map[string]interface{}{},
		Reasoning: "fallback",
	}}
}

var (
	metricsOnce  sync.Once
	llmRetries   otelmetric.Int64Counter
	planOutcomes otelmetric.Int64Counter
)

func initMetrics() {
	meter := otel.Meter("argos/internal/planner")
	var err error
	llmRetries, err = meter.Int64Counter("argos_llm_retries_total",
		otelmetric.WithDescription("LLM requests retried after a transient failure"))
	if err != nil {
		log.Printf("planner metrics init: retries counter: %v", err)
	}
	planOutcomes, err = meter.Int64Counter("argos_plans_total",
		otelmetric.WithDescription("Plans produced, by outcome (model, lenient, fallback)"))
	if err != nil {
		log.Printf("planner metrics init: plans counter: %v", err)
	}
}

// Planner creates research plans for turns.
type Planner struct {
	LLM     llm.Client
	Route   config.LLMRoute
	Catalog *capability.Catalog
	// Policy retries the model call; only 503 replies are retried.
	Policy retry.Policy
	Logger *log.Logger
}

// New returns a planner with the default retry policy.
func New(client llm.Client, route config.LLMRoute, catalog *capability.Catalog) *Planner {
	policy := retry.Default()
	policy.RetryOn = unavailable
	return &Planner{
		LLM:     client,
		Route:   route,
		Catalog: catalog,
		Policy:  policy,
		Logger:  log.New(os.Stderr, "[PLANNER] ", log.LstdFlags),
	}
}

func unavailable(err error) bool {
	var se *llm.StatusError
	return errors.As(err, &se) && se.Code == http.StatusServiceUnavailable
}

// Plan returns at least one tool call. now supplies the date quoted in the prompt.
func (p *Planner) Plan(ctx context.Context, turn models.Turn, now time.Time) []models.ToolCall {
	metricsOnce.Do(initMetrics)
	ctx, span := otel.Tracer("argos/internal/planner").Start(ctx, "planner.plan")
	defer span.End()

	outcome := "model"
	calls := p.plan(ctx, turn, now, &outcome)
	span.SetAttributes(attribute.String("plan.outcome", outcome), attribute.Int("plan.tools", len(calls)))
	if planOutcomes != nil {
		planOutcomes.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
	}
	return calls
}

func (p *Planner) plan(ctx context.Context, turn models.Turn, now time.Time, outcome *string) []models.ToolCall {
	query, _ := turn.Query()
	prompt := buildPrompt(p.Catalog, now.Format("January 02, 2006"), turn.History(), query)
	req := llm.NewRequest(p.Route, llm.UserPrompt(prompt))
	req.ResponseFormat = &llm.ResponseFormat{Type: "json_object"}

	start := time.Now()
	raw, err := retry.Do(ctx, p.Policy, func(int) (string, error) {
		return p.LLM.Complete(ctx, req)
	}, func(n int, err error, wait time.Duration) {
		p.Logger.Printf("planner model unavailable, retrying in %s (attempt %d/%d): %v", wait, n, p.Policy.Retries, err)
		if llmRetries != nil {
			llmRetries.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("stage", "planner")))
		}
	})
	if err != nil {
		p.Logger.Printf("planner model failed after %s, using fallback plan: %v", time.Since(start).Round(time.Millisecond), err)
		*outcome = "fallback"
		return FallbackPlan()
	}

	calls, lenient := p.parse(raw)
	if lenient {
		*outcome = "lenient"
	}
	calls = p.known(calls)
	if len(calls) == 0 {
		p.Logger.Printf("no usable tools in planner output, using fallback plan")
		*outcome = "fallback"
		return FallbackPlan()
	}
	p.Logger.Printf("planned %d tool(s) in %s", len(calls), time.Since(start).Round(time.Millisecond))
	return calls
}

// parse reads the strict {"tools": [...]} shape and falls back to lenient
// extraction when it does not validate.
func (p *Planner) parse(raw string) ([]models.ToolCall, bool) {
	text, err := helpers.ExtractJSON(raw)
	if err != nil {
		p.Logger.Printf("planner output is not JSON: %v", err)
		return nil, false
	}
	doc, err := DecodePlanDocument([]byte(text))
	if err == nil {
		calls := make([]models.ToolCall, 0, len(doc.Tools))
		for i, item := range doc.Tools {
			reasoning := strings.TrimSpace(item.Reasoning)
			if reasoning == "" {
				reasoning = defaultReasoning
			}
			calls = append(calls, models.ToolCall{
				ID:        fmt.Sprintf("tool_%d", i),
				Name:      models.ToolName(strings.TrimSpace(item.Name)),
				Args:      nonNil(item.Args),
				Reasoning: reasoning,
			})
		}
		return calls, false
	}
	p.Logger.Printf("unexpected planner output structure (%v), trying lenient extraction", err)
	return ExtractLenient([]byte(text)), true
}

// known drops calls naming tools outside the catalog.
func (p *Planner) known(calls []models.ToolCall) []models.ToolCall {
	out := calls[:0]
	for _, c := range calls {
		if _, ok := p.Catalog.Lookup(string(c.Name)); !ok {
			p.Logger.Printf("warn: dropping unknown tool %q", c.Name)
			continue
		}
		out = append(out, c)
	}
	return out
}

type field struct {
	key   string
	value json.RawMessage
}

// topLevelFields decodes an object keeping its key order.
func topLevelFields(data []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("not an object")
	}
	var out []field
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := kt.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, field{key: key, value: raw})
	}
	return out, nil
}

// ExtractLenient pulls tool calls out of a non-standard reply: the reply
// itself when it is an array, otherwise the first non-empty array field.
// Entries need a "name" or "tool" key.
func ExtractLenient(data []byte) []models.ToolCall {
	var list []interface{}
	if err := json.Unmarshal(data, &list); err != nil {
		fields, ferr := topLevelFields(data)
		if ferr != nil {
			return nil
		}
		for _, f := range fields {
			var candidate []interface{}
			if json.Unmarshal(f.value, &candidate) == nil && len(candidate) > 0 {
				list = candidate
				break
			}
		}
	}

	var calls []models.ToolCall
	for i, entry := range list {
		item, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		name := firstString(item, "name", "tool")
		if name == "" {
			continue
		}
		args := map[string]interface{}{}
		for _, k := range []string{"args", "arguments", "parameters"} {
			if m, ok := item[k].(map[string]interface{}); ok {
				args = m
				break
			}
		}
		reasoning := firstString(item, "reasoning", "reason", "description", "explanation")
		if reasoning == "" {
			reasoning = extractedReasoning
		}
		calls = append(calls, models.ToolCall{
			ID:        fmt.Sprintf("extracted_tool_%d", i),
			Name:      models.ToolName(name),
			Args:      args,
			Reasoning: reasoning,
		})
	}
	return calls
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func nonNil(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
