// Package llm talks to OpenAI-compatible chat completion endpoints
// (Groq, Mistral, Deepseek) in blocking and streaming modes.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/argos-research/argos/config"
)

// Message is a chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat constrains the model output, e.g. {"type":"json_object"}.
type ResponseFormat struct {
	Type string `json:"type"`
}

// Request is a chat completion request.
type Request struct {
	Model           string          `json:"model"`
	Messages        []Message       `json:"messages"`
	Temperature     float64         `json:"temperature"`
	TopP            float64         `json:"top_p,omitempty"`
	MaxTokens       int             `json:"max_tokens,omitempty"`
	ResponseFormat  *ResponseFormat `json:"response_format,omitempty"`
	ReasoningFormat string          `json:"reasoning_format,omitempty"`
	Stream          bool            `json:"stream,omitempty"`
}

// NewRequest fills model and sampling settings from a configured route.
func NewRequest(route config.LLMRoute, messages ...Message) Request {
	return Request{
		Model:       route.Model,
		Messages:    messages,
		Temperature: route.Temperature,
		TopP:        route.TopP,
		MaxTokens:   route.MaxTokens,
	}
}

// UserPrompt wraps a single prompt as the only user message.
func UserPrompt(prompt string) Message {
	return Message{Role: "user", Content: prompt}
}

// Client is safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Stream calls onDelta for every content delta until the stream ends.
	Stream(ctx context.Context, req Request, onDelta func(string) error) error
}

// ErrMissingKey is returned when a provider is built without an API key.
var ErrMissingKey = errors.New("api key not configured")

// StatusError is a non-2xx reply from the provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.Code, e.Body)
}

// Transient reports whether the call may succeed if retried.
func (e *StatusError) Transient() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// StreamError is an error object delivered inside an event stream.
type StreamError struct {
	Message string
	Type    string
}

func (e *StreamError) Error() string { return "stream error: " + e.Message }

// Transient treats in-stream failures as retriable.
func (e *StreamError) Transient() bool { return true }

// Provider is an OpenAI-compatible chat completions client.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProvider builds a client for one configured provider.
func NewProvider(name string, cfg config.LLMProvider, apiKey string) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingKey)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: base_url not configured", name)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Provider{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) post(ctx context.Context, req Request) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{Provider: p.name, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// Complete returns the content of the first choice.
func (p *Provider) Complete(ctx context.Context, req Request) (string, error) {
	req.Stream = false
	resp, err := p.post(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices", p.name)
	}
	return out.Choices[0].Message.Content, nil
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Stream reads server-sent events until [DONE] or EOF.
func (p *Provider) Stream(ctx context.Context, req Request, onDelta func(string) error) error {
	req.Stream = true
	resp, err := p.post(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return readEvents(resp.Body, onDelta)
}

func readEvents(r io.Reader, onDelta func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode chunk: %w", err)
		}
		if chunk.Error != nil {
			return &StreamError{Message: chunk.Error.Message, Type: chunk.Error.Type}
		}
		for _, c := range chunk.Choices {
			if c.Delta.Content == "" {
				continue
			}
			if err := onDelta(c.Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
