package turn

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/llm"
	"github.com/argos-research/argos/models"
)

//go:embed followups_schema.json
var followUpSchemaDoc string

var followUpSchema = helpers.MustCompileSchema("argos://turn/follow_ups.json", followUpSchemaDoc)

// DefaultFollowUps is returned whenever the model reply cannot be used.
var DefaultFollowUps = []string{
	"Which international humanitarian law rules apply to this situation?",
	"Who are the parties to this armed conflict?",
	"What have human rights organizations reported recently?",
}

// FollowUps suggests questions the user may ask next.
type FollowUps struct {
	LLM    llm.Client
	Route  config.LLMRoute
	Logger *log.Logger
}

type followUpDoc struct {
	FollowUps []string `json:"follow_ups"`
}

func followUpPrompt(conversation string) string {
	return fmt.Sprintf(`Suggest 3 to 5 short follow-up questions the user could ask next in the conversation below.
The questions are about armed conflicts, international humanitarian law and human rights. Write them from the user's point of view, in the language of the conversation.

<conversation>%s</conversation>

Respond only with a JSON object of the form {"follow_ups": ["question", "question", "question"]}.`, conversation)
}

// Generate returns {"follow_ups": [...]} as JSON text with 3 to 5 entries.
func (f *FollowUps) Generate(ctx context.Context, turn models.Turn) string {
	conversation := strings.TrimSpace(models.FormatHistory(turn.Messages))
	req := llm.NewRequest(f.Route, llm.UserPrompt(followUpPrompt(conversation)))
	req.ResponseFormat = &llm.ResponseFormat{Type: "json_object"}

	raw, err := f.LLM.Complete(ctx, req)
	if err != nil {
		f.Logger.Printf("follow-up generation failed: %v", err)
		return followUpJSON(DefaultFollowUps)
	}
	var doc followUpDoc
	if err := helpers.DecodeValidated(helpers.StripThinking(raw), followUpSchema, &doc); err != nil {
		f.Logger.Printf("follow-up reply rejected: %v", err)
		return followUpJSON(DefaultFollowUps)
	}
	return followUpJSON(doc.FollowUps)
}

func followUpJSON(qs []string) string {
	b, _ := json.Marshal(followUpDoc{FollowUps: qs})
	return string(b)
}
