package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/argos-research/argos/internal/status"
	"github.com/argos-research/argos/internal/turn"
	"github.com/argos-research/argos/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var turnsTracer = otel.Tracer("argos/internal/server")

const headerTurnID = "X-Turn-ID"

type TurnsHandler struct {
	Turns  TurnHandler
	Logger *log.Logger
}

func (h *TurnsHandler) Register(g *echo.Group) {
	g.POST("/turns", h.createTurn)
}

type turnRequest struct {
	Messages []models.Message `json:"messages"`
	Task     models.Task      `json:"task"`
}

type chunkPayload struct {
	Text string `json:"text"`
}

type donePayload struct {
	TurnID string `json:"turn_id"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// createTurn runs one turn.
//
//	@Summary	Run a turn
//	@Tags		turns
//	@Accept		json
//	@Produce	text/event-stream
//	@Produce	json
//	@Router		/v1/turns [post]
func (h *TurnsHandler) createTurn(c echo.Context) error {
	var req turnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages required")
	}
	if !req.Task.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown task %q", req.Task))
	}
	id := uuid.NewString()
	t := models.NewTurn(id, req.Messages, req.Task)

	ctx, span := turnsTracer.Start(c.Request().Context(), "TurnsHandler.createTurn")
	defer span.End()
	span.SetAttributes(attribute.String("turn.id", id), attribute.String("turn.task", string(req.Task)))
	c.Response().Header().Set(headerTurnID, id)

	if t.Task != models.TaskResearch {
		out, err := h.Turns.Handle(ctx, t, nil, nil)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return turnError(err)
		}
		return c.JSONBlob(http.StatusOK, []byte(out))
	}

	sse := &sseWriter{resp: c.Response()}
	sink := status.SinkFunc(func(_ context.Context, ev models.Event) error {
		return sse.send(string(ev.Type), ev.Data)
	})
	_, err := h.Turns.Handle(ctx, t, sink, func(text string) error {
		return sse.send("chunk", chunkPayload{Text: text})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !sse.started() {
			return turnError(err)
		}
		if ctx.Err() != nil {
			h.Logger.Printf("turn %s cancelled: %v", id, err)
			return nil
		}
		_ = sse.send("error", errorPayload{Error: err.Error()})
	}
	if err := sse.send("done", donePayload{TurnID: id}); err != nil {
		h.Logger.Printf("turn %s: %v", id, err)
	}
	return nil
}

func turnError(err error) error {
	var missing *turn.ConfigMissingError
	if errors.As(err, &missing) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, missing.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// sseWriter serializes events from concurrent tools onto one response.
// Headers are written with the first event so that errors raised before
// anything was streamed can still become a JSON reply.
type sseWriter struct {
	resp *echo.Response

	mu      sync.Mutex
	written bool
}

func (w *sseWriter) started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

func (w *sseWriter) send(event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.written {
		h := w.resp.Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set(echo.HeaderCacheControl, "no-cache")
		h.Set("Connection", "keep-alive")
		w.resp.WriteHeader(http.StatusOK)
		w.written = true
	}
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteString("\ndata: ")
	b.Write(payload)
	b.WriteString("\n\n")
	if _, err := w.resp.Write([]byte(b.String())); err != nil {
		return err
	}
	w.resp.Flush()
	return nil
}
