package news

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/cache"
	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/llm"
)

//go:embed summary_schema.json
var summarySchemaDoc string

var summarySchema = helpers.MustCompileSchema("argos://news/summary.json", summarySchemaDoc)

const (
	summaryRequest   = "Please provide a detailed, factual summary of this article in 3+ paragraphs."
	FallbackSummary  = "Article content could not be summarized properly. Please refer to the original source."
	summaryKeyPrefix = "summary:"
)

// Summary is the validated model output for one article.
type Summary struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// Input is the article handed to the model.
type Input struct {
	Title   string
	Date    string
	Content string
	URL     string
}

// Summarizer condenses scraped articles with a small instruction-tuned model.
type Summarizer struct {
	LLM   llm.Client
	Route config.LLMRoute
	// Store caches summaries by article url; nil disables caching.
	Store   cache.Store
	TTL     time.Duration
	Timeout time.Duration
}

func summaryPrompt(in Input) string {
	return fmt.Sprintf(`You are an expert news analyst that produces structured output.
Summarize the news article below. Keep to the facts it reports, stay neutral, and keep key figures and quotes.

The article to summarize:
<article><title>%s</title><publication_date>%s</publication_date><content>%s</content></article>

Respond with a JSON object that matches this schema, including every field:
%s`, in.Title, in.Date, in.Content, summarySchemaDoc)
}

// Summarize returns a validated summary. Newlines inside the summary are
// replaced by spaces.
func (s *Summarizer) Summarize(ctx context.Context, in Input) (Summary, error) {
	key := ""
	if s.Store != nil {
		if fp, err := helpers.URLFingerprint(in.URL); err == nil {
			key = summaryKeyPrefix + fp
			var cached Summary
			if err := s.Store.Get(ctx, key, &cached); err == nil && cached.Summary != "" {
				return cached, nil
			}
		}
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	req := llm.NewRequest(s.Route,
		llm.Message{Role: "system", Content: summaryPrompt(in)},
		llm.UserPrompt(summaryRequest),
	)
	req.ResponseFormat = &llm.ResponseFormat{Type: "json_object"}
	text, err := s.LLM.Complete(ctx, req)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize %s: %w", in.URL, err)
	}
	var out Summary
	if err := helpers.DecodeValidated(text, summarySchema, &out); err != nil {
		return Summary{}, fmt.Errorf("summarize %s: %w", in.URL, err)
	}
	out.Summary = strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(out.Summary))

	if key != "" {
		_ = s.Store.Set(ctx, key, out, s.TTL)
	}
	return out, nil
}
