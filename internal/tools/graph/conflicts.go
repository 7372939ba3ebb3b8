// Package graph implements the RULAC conflict tools backed by the conflict
// graph, plus the static RULAC and Argos reference tools.
package graph

import (
	"context"
	"embed"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/models"
)

//go:embed queries/*.cypher
var queryFS embed.FS

// MaxConflicts caps the rows one query may return.
const MaxConflicts = 50

func mustQuery(name string) string {
	head, err := queryFS.ReadFile("queries/" + name + ".cypher")
	if err != nil {
		panic(err)
	}
	tail, err := queryFS.ReadFile("queries/profile.cypher")
	if err != nil {
		panic(err)
	}
	return string(head) + string(tail)
}

// ConflictTool binds one query template to a tool name.
type ConflictTool struct {
	name   models.ToolName
	// key names the argument list the query matches on. An empty list
	// matches nothing and skips the query.
	key    string
	query  string
	params func(args map[string]interface{}) map[string]interface{}
	task   func(args map[string]interface{}) string
	runner Runner
	logger *log.Logger
}

func (t *ConflictTool) Name() models.ToolName { return t.name }

func (t *ConflictTool) Call(ctx context.Context, args map[string]interface{}) (models.ToolResult, error) {
	params := t.params(args)
	if _, ok := params["conflict_types"]; !ok {
		params["conflict_types"] = []string{}
	}
	params["limit"] = MaxConflicts
	task := t.task(args)
	if len(list(args, t.key)) == 0 {
		t.logger.Printf("%s: called without %s", t.name, t.key)
		content, _ := formatConflicts(task, nil)
		return models.ToolResult{ToolName: t.name, Content: content}, nil
	}

	rows, err := t.runner.Run(ctx, t.query, params)
	if err != nil {
		return models.ToolResult{}, fmt.Errorf("%s: %w", t.name, err)
	}
	if len(rows) == 0 {
		t.logger.Printf("%s: no conflicts for %v", t.name, params)
	}
	content, citations := formatConflicts(task, rows)
	return models.ToolResult{ToolName: t.name, Content: content, Citations: citations}, nil
}

// ConflictTools returns the four graph query tools sharing runner.
func ConflictTools(runner Runner, logger *log.Logger) []tools.Tool {
	if logger == nil {
		logger = log.New(os.Stderr, "[GRAPH] ", log.LstdFlags)
	}
	mk := func(name models.ToolName, file, key string, params func(map[string]interface{}) map[string]interface{}, task func(map[string]interface{}) string) tools.Tool {
		return &ConflictTool{name: name, key: key, query: mustQuery(file), params: params, task: task, runner: runner, logger: logger}
	}
	return []tools.Tool{
		mk(models.ToolByCountry, "by_country", "countries",
			func(a map[string]interface{}) map[string]interface{} {
				return map[string]interface{}{"countries": list(a, "countries"), "conflict_types": list(a, "conflict_types")}
			},
			func(a map[string]interface{}) string {
				return "RULAC armed conflict data by country (" + strings.Join(list(a, "countries"), ", ") + ")" + typeSuffix(a)
			}),
		mk(models.ToolByNonStateActor, "by_non_state_actor", "non_state_actors",
			func(a map[string]interface{}) map[string]interface{} {
				return map[string]interface{}{"non_state_actors": list(a, "non_state_actors")}
			},
			func(a map[string]interface{}) string {
				return "RULAC conflict data for non-state actor(s): " + strings.Join(list(a, "non_state_actors"), ", ")
			}),
		mk(models.ToolByOrganization, "by_organization", "organizations",
			func(a map[string]interface{}) map[string]interface{} {
				return map[string]interface{}{"organizations": list(a, "organizations"), "conflict_types": list(a, "conflict_types")}
			},
			func(a map[string]interface{}) string {
				return "RULAC conflict data for organization(s): " + strings.Join(list(a, "organizations"), ", ") + typeSuffix(a)
			}),
		mk(models.ToolByRegion, "by_region", "regions",
			func(a map[string]interface{}) map[string]interface{} {
				return map[string]interface{}{"regions": list(a, "regions"), "conflict_types": list(a, "conflict_types")}
			},
			func(a map[string]interface{}) string {
				return "RULAC conflict data for region(s): " + strings.Join(list(a, "regions"), ", ") + typeSuffix(a)
			}),
	}
}

// list never returns nil so the driver sends an empty list, not null.
func list(args map[string]interface{}, key string) []string {
	if v := tools.StringList(args, key); v != nil {
		return v
	}
	return []string{}
}

func typeSuffix(args map[string]interface{}) string {
	types := list(args, "conflict_types")
	if len(types) == 0 {
		return ""
	}
	return " with conflict classification (" + strings.Join(types, ", ") + ")"
}

type conflict struct {
	Name            string
	Classification  string
	Overview        string
	ApplicableLaw   string
	StateParties    string
	NonStateParties string
	CitationURL     string
}

func decodeConflict(r Record) conflict {
	return conflict{
		Name:            orDefault(str(r["conflict_name"]), "Unnamed Conflict"),
		Classification:  orDefault(strings.Join(strs(r["conflict_types"]), ", "), "Unclassified"),
		Overview:        orDefault(str(r["conflict_overview"]), "No overview available"),
		ApplicableLaw:   orDefault(str(r["applicable_ihl_law"]), "Not specified"),
		StateParties:    orDefault(strings.Join(strs(r["state_parties"]), ", "), "None recorded"),
		NonStateParties: orDefault(strings.Join(strs(r["non_state_parties"]), ", "), "None recorded"),
		CitationURL:     str(r["conflict_citation"]),
	}
}

func (c conflict) profile() string {
	return "##### Conflict Name: " + c.Name + "\n" +
		"Conflict Classification under IHL: " + c.Classification + "\n" +
		"Overview: " + c.Overview + "\n" +
		"Applicable IHL Law: " + c.ApplicableLaw + "\n" +
		"State Parties: " + c.StateParties + "\n" +
		"Non-State Parties: " + c.NonStateParties
}

func (c conflict) citationText() string {
	return c.Name + "\n\n" +
		"Conflict Classification under IHL: " + c.Classification + "\n\n" +
		"Overview: " + c.Overview + "\n\n" +
		"Applicable IHL Law: " + c.ApplicableLaw + "\n\n" +
		"State Parties: " + c.StateParties + "\n\n" +
		"Non-State Parties: " + c.NonStateParties
}

// formatConflicts renders rows as markdown and collects one citation per
// distinct conflict url.
func formatConflicts(task string, rows []Record) (string, []models.Citation) {
	if len(rows) == 0 {
		return "### " + task + "\n\nThere are no recorded armed conflicts in RULAC matching this request.", nil
	}
	profiles := make([]string, 0, len(rows))
	var citations []models.Citation
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		c := decodeConflict(r)
		profiles = append(profiles, c.profile())
		if c.CitationURL == "" {
			continue
		}
		if _, dup := seen[c.CitationURL]; dup {
			continue
		}
		seen[c.CitationURL] = struct{}{}
		citations = append(citations, models.Citation{
			Title:            c.Name,
			URL:              c.CitationURL,
			FormattedContent: c.citationText(),
		})
	}
	summary := fmt.Sprintf("RULAC records %d armed conflict(s) matching this request.", len(rows))
	content := "### " + task + "\n\n" + summary + "\n\n#### Conflict profiles\n\n" + strings.Join(profiles, "\n\n")
	return content, citations
}

func str(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func strs(v interface{}) []string {
	var out []string
	switch vv := v.(type) {
	case []interface{}:
		for _, item := range vv {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range vv {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(vv); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
