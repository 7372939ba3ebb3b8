// Package turn routes one user interaction to title generation, follow-up
// generation or the research pipeline (plan, dispatch, compose).
package turn

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/internal/citation"
	"github.com/argos-research/argos/internal/dispatch"
	"github.com/argos-research/argos/internal/status"
	"github.com/argos-research/argos/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const identifyingStatus = "Identifying research tools"

// Planner picks the research tools for a turn.
type Planner interface {
	Plan(ctx context.Context, turn models.Turn, now time.Time) []models.ToolCall
}

// Executor runs a plan and reports progress through the session.
type Executor interface {
	Execute(ctx context.Context, plan []models.ToolCall, sess dispatch.Session) []models.ToolResult
}

// Answerer streams the final answer.
type Answerer interface {
	Compose(ctx context.Context, turn models.Turn, bundle dispatch.Bundle, now time.Time, emit func(string) error) error
}

// Generator returns a JSON text for a non-research task.
type Generator interface {
	Generate(ctx context.Context, turn models.Turn) string
}

// Pipeline holds the collaborators built on first use.
type Pipeline struct {
	Catalog   *capability.Catalog
	Planner   Planner
	Executor  Executor
	Answerer  Answerer
	Titles    Generator
	FollowUps Generator
	// Close releases connections opened while building the pipeline.
	Close func() error
}

// ConfigMissingError names the setting a turn needed but did not find.
type ConfigMissingError struct {
	Setting string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("Argos is not configured: the setting %q is missing. Add it to the configuration or the environment and try again.", e.Setting)
}

// Controller is safe for concurrent use; one instance serves every turn.
type Controller struct {
	cfg    config.Config
	build  func(ctx context.Context) (*Pipeline, error)
	clock  status.Clock
	now    func() time.Time
	logger *log.Logger

	mu       sync.Mutex
	pipeline *Pipeline
}

// Option customizes a Controller.
type Option func(*Controller)

// WithBuilder replaces the pipeline constructor.
func WithBuilder(build func(ctx context.Context) (*Pipeline, error)) Option {
	return func(c *Controller) { c.build = build }
}

// WithClock injects the clock used for status pacing and prompt dates.
func WithClock(clock status.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
		c.now = clock.Now
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func NewController(cfg config.Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		clock:  status.RealClock,
		now:    time.Now,
		logger: log.New(os.Stderr, "[TURN] ", log.LstdFlags),
	}
	c.build = func(ctx context.Context) (*Pipeline, error) {
		return Build(ctx, cfg, c.logger)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// init builds the pipeline once. A failed build is retried on the next turn.
func (c *Controller) init(ctx context.Context) (*Pipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline != nil {
		return c.pipeline, nil
	}
	p, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	c.pipeline = p
	return p, nil
}

// Close releases the pipeline if it was built.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline == nil || c.pipeline.Close == nil {
		return nil
	}
	err := c.pipeline.Close()
	c.pipeline = nil
	return err
}

// Handle runs one turn. Title and follow-up tasks return their JSON text.
// Research turns stream the answer through chunk and UI events through sink,
// and return an empty string.
func (c *Controller) Handle(ctx context.Context, turn models.Turn, sink status.Sink, chunk func(string) error) (string, error) {
	if !turn.Task.Valid() {
		return "", fmt.Errorf("unknown task %q", turn.Task)
	}
	p, err := c.init(ctx)
	if err != nil {
		return "", err
	}
	if sink == nil {
		sink = status.Discard
	}

	ctx, span := otel.Tracer("argos/internal/turn").Start(ctx, "turn.run",
		trace.WithAttributes(
			attribute.String("turn.id", turn.ID),
			attribute.String("turn.task", string(turn.Task)),
		))
	defer span.End()

	if timeout := c.cfg.General.TurnTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	switch turn.Task {
	case models.TaskTitleGeneration:
		return p.Titles.Generate(ctx, turn), nil
	case models.TaskFollowUpGeneration:
		return p.FollowUps.Generate(ctx, turn), nil
	}
	return "", c.research(ctx, p, turn, sink, chunk)
}

func (c *Controller) research(ctx context.Context, p *Pipeline, turn models.Turn, sink status.Sink, chunk func(string) error) error {
	now := c.now()
	if err := sink.Emit(ctx, models.StatusEvent(identifyingStatus, false)); err != nil {
		return err
	}
	plan := p.Planner.Plan(ctx, turn, now)
	c.logger.Printf("turn %s: %d tool(s) planned", turn.ID, len(plan))

	tracker := citation.NewTracker("")
	sess := dispatch.Session{
		Sink:    sink,
		Stagger: status.NewStagger(sink, c.clock, c.cfg.General.StatusStagger),
		Tracker: tracker,
	}
	results := p.Executor.Execute(ctx, plan, sess)
	bundle := dispatch.Group(p.Catalog, results)

	if err := p.Answerer.Compose(ctx, turn, bundle, now, chunk); err != nil {
		return err
	}
	return sink.Emit(ctx, models.StatusEvent(FinalStatus(tracker.Count()), true))
}

// FinalStatus is the closing status line for a turn that surfaced n sources.
func FinalStatus(n int) string {
	switch {
	case n == 0:
		return " "
	case n == 1:
		return "🌐  Cross-referenced w 1 source"
	default:
		return fmt.Sprintf("🌐  Cross-referenced w %d sources", n)
	}
}
