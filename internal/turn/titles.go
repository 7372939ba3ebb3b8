package turn

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/llm"
	"github.com/argos-research/argos/models"
)

const (
	DefaultTitle  = "New Chat"
	maxTitleRunes = 50
)

// Titles names a conversation from its first message.
type Titles struct {
	LLM    llm.Client
	Route  config.LLMRoute
	Logger *log.Logger
}

type titleDoc struct {
	Title string `json:"title"`
}

// Generate returns {"title": ...} as JSON text. It never fails.
func (t *Titles) Generate(ctx context.Context, turn models.Turn) string {
	if len(turn.Messages) == 0 {
		return titleJSON(DefaultTitle)
	}
	req := llm.NewRequest(t.Route, llm.UserPrompt(turn.Messages[0].Content))
	raw, err := t.LLM.Complete(ctx, req)
	if err != nil {
		t.Logger.Printf("title generation failed: %v", err)
		return titleJSON(DefaultTitle)
	}
	raw = strings.TrimSpace(helpers.StripThinking(raw))

	var doc titleDoc
	if payload, err := helpers.ExtractJSON(raw); err == nil {
		if json.Unmarshal([]byte(payload), &doc) == nil && strings.TrimSpace(doc.Title) != "" {
			raw = doc.Title
		}
	}
	return titleJSON(cleanTitle(raw))
}

// cleanTitle drops quotes and caps the title at maxTitleRunes.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(raw))
	if r := []rune(title); len(r) > maxTitleRunes {
		title = strings.TrimSpace(string(r[:maxTitleRunes]))
	}
	if title == "" {
		return DefaultTitle
	}
	return title
}

func titleJSON(title string) string {
	b, _ := json.Marshal(titleDoc{Title: title})
	return string(b)
}
