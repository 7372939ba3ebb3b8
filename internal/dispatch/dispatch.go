// Package dispatch runs a research plan: it repairs arguments, calls the
// tools concurrently, streams status and citation events, and groups the
// results into an evidence bundle.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/internal/citation"
	"github.com/argos-research/argos/internal/status"
	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var errToolPanic = errors.New("tool panicked")

var (
	metricsOnce    sync.Once
	toolCalls      otelmetric.Int64Counter
	toolLatency    otelmetric.Float64Histogram
	citationsTotal otelmetric.Int64Counter
)

func initMetrics() {
	meter := otel.Meter("argos/internal/dispatch")
	var err error
	toolCalls, err = meter.Int64Counter("argos_tool_calls_total",
		otelmetric.WithDescription("Tool invocations by tool and outcome"))
	if err != nil {
		log.Printf("dispatch metrics init: tool calls counter: %v", err)
	}
	toolLatency, err = meter.Float64Histogram("argos_tool_latency_ms",
		otelmetric.WithDescription("Tool invocation latency"),
		otelmetric.WithUnit("ms"))
	if err != nil {
		log.Printf("dispatch metrics init: latency histogram: %v", err)
	}
	citationsTotal, err = meter.Int64Counter("argos_citations_total",
		otelmetric.WithDescription("Citations surfaced to the user"))
	if err != nil {
		log.Printf("dispatch metrics init: citations counter: %v", err)
	}
}

// Session carries the per-turn collaborators.
type Session struct {
	Sink    status.Sink
	Stagger *status.Stagger
	Tracker *citation.Tracker
}

// Dispatcher executes plans against a tool library.
type Dispatcher struct {
	Library *tools.Library
	Catalog *capability.Catalog
	// MaxParallel bounds concurrent tool calls; zero means unbounded.
	MaxParallel int
	// ToolTimeout is the deadline for each call; zero means none.
	ToolTimeout time.Duration
	Logger      *log.Logger
}

func New(lib *tools.Library, catalog *capability.Catalog, maxParallel int, toolTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		Library:     lib,
		Catalog:     catalog,
		MaxParallel: maxParallel,
		ToolTimeout: toolTimeout,
		Logger:      log.New(os.Stderr, "[DISPATCH] ", log.LstdFlags),
	}
}

// SelectedStatus is the line announcing the size of the plan.
func SelectedStatus(n int) string {
	if n == 1 {
		return "1 research tool selected"
	}
	return fmt.Sprintf("%d research tools selected", n)
}

// Execute runs every call of plan and returns the results in plan order.
// Calls naming a tool the library does not hold are skipped. A failing call
// yields an error result; Execute itself never fails.
func (d *Dispatcher) Execute(ctx context.Context, plan []models.ToolCall, sess Session) []models.ToolResult {
	metricsOnce.Do(initMetrics)
	ctx, span := otel.Tracer("argos/internal/dispatch").Start(ctx, "dispatch.execute",
		trace.WithAttributes(attribute.Int("plan.tools", len(plan))))
	defer span.End()

	if sess.Sink == nil {
		sess.Sink = status.Discard
	}
	if sess.Stagger == nil {
		sess.Stagger = status.NewStagger(sess.Sink, nil, 0)
	}
	if sess.Tracker == nil {
		sess.Tracker = citation.NewTracker("")
	}
	_ = sess.Sink.Emit(ctx, models.StatusEvent(SelectedStatus(len(plan)), false))

	results := make([]*models.ToolResult, len(plan))
	var g errgroup.Group
	if d.MaxParallel > 0 {
		g.SetLimit(d.MaxParallel)
	}
	for i, call := range plan {
		i, call := i, call
		tool, ok := d.Library.Get(call.Name)
		if !ok {
			d.Logger.Printf("warn: unknown tool %q skipped", call.Name)
			continue
		}
		g.Go(func() error {
			res := d.run(ctx, tool, call, sess)
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.ToolResult, 0, len(plan))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (d *Dispatcher) run(ctx context.Context, tool tools.Tool, call models.ToolCall, sess Session) models.ToolResult {
	ctx, span := otel.Tracer("argos/internal/dispatch").Start(ctx, "tool.call",
		trace.WithAttributes(
			attribute.String("tool.name", string(call.Name)),
			attribute.String("tool.call_id", call.ID),
		))
	defer span.End()

	args := Repair(call.Name, call.Args)
	if d.Catalog != nil {
		if err := d.Catalog.Validate(call.Name, args); err != nil {
			d.Logger.Printf("warn: %s arguments after repair: %v", call.ID, err)
		}
	}
	call.Args = args
	start := time.Now()
	outcome := "ok"
	defer func() {
		if toolCalls != nil {
			toolCalls.Add(ctx, 1, otelmetric.WithAttributes(
				attribute.String("tool", string(call.Name)), attribute.String("outcome", outcome)))
		}
		if toolLatency != nil {
			toolLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
				otelmetric.WithAttributes(attribute.String("tool", string(call.Name))))
		}
	}()

	// launches still queued behind the limit when the turn is cancelled are skipped
	if err := ctx.Err(); err != nil {
		outcome = "cancelled"
		return models.ErrorResult(call, err)
	}

	res, err := d.invoke(ctx, tool, call)
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		d.Logger.Printf("tool %s (%s) failed after %s: %v", call.Name, call.ID, time.Since(start).Round(time.Millisecond), err)
		return models.ErrorResult(call, err)
	}
	res.ToolName = call.Name
	res.CallID = call.ID

	if err := sess.Stagger.Status(ctx, Describe(call, args)); err != nil {
		d.Logger.Printf("status for %s: %v", call.ID, err)
	}
	admitted := 0
	for _, c := range res.Citations {
		if !sess.Tracker.Admit(c) {
			continue
		}
		admitted++
		if err := sess.Sink.Emit(ctx, sess.Tracker.Event(c)); err != nil {
			d.Logger.Printf("citation event for %s: %v", call.ID, err)
		}
	}
	if citationsTotal != nil && admitted > 0 {
		citationsTotal.Add(ctx, int64(admitted))
	}
	d.Logger.Printf("tool %s (%s) finished in %s with %d new citation(s)", call.Name, call.ID, time.Since(start).Round(time.Millisecond), admitted)
	return res
}

// invoke calls the tool under the per-call deadline and turns a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, tool tools.Tool, call models.ToolCall) (res models.ToolResult, err error) {
	if d.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ToolTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errToolPanic, r)
		}
	}()
	return tool.Call(ctx, call.Args)
}
