package planner

import (
	"fmt"
	"strings"

	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/models"
)

const planningRules = `IMPORTANT NOTES:
- You can use multiple tools in a single response
- Prioritize the RULAC tools for conflict information
- For RULAC tools, use empty lists [] for optional parameters to get all results
- Always consider using get_human_rights_research_by_country when countries are mentioned
- Use brave_search at least once, unless the user is asking about Argos or your purpose
- If you use get_RULAC_conflict_classification_methodology, you must also use get_armed_conflict_data_by_country or get_armed_conflict_data_by_non_state_actor
- If the request involves current events or situations that may be changing rapidly, use get_combined_news to fetch the latest information`

const planningExamples = `Examples of proper tool calls:

1. "What conflicts are happening in Ukraine?":
{
  "tools": [
    {"name": "get_armed_conflict_data_by_country", "args": {"countries": ["Ukraine"], "conflict_types": []}, "reasoning": "Need the conflicts Ukraine is party to"},
    {"name": "get_human_rights_research_by_country", "args": {"country": "Ukraine"}, "reasoning": "Need human rights information for Ukraine"},
    {"name": "brave_search", "args": {"query": "What conflicts are taking place in Ukraine?"}, "reasoning": "Broader context via web search"}
  ]
}

2. "What is the current human rights situation in Somalia?":
{
  "tools": [
    {"name": "get_human_rights_research_by_country", "args": {"country": "Somalia"}, "reasoning": "Need human rights information for Somalia"},
    {"name": "get_combined_news", "args": {"search_query": "Somalia human rights violations"}, "reasoning": "Need the latest developments"},
    {"name": "brave_search", "args": {"query": "What is the human rights situation in Somalia?"}, "reasoning": "Broader context via web search"}
  ]
}

3. "What is your name?":
{
  "tools": [
    {"name": "get_information_about_Argos", "args": {}, "reasoning": "Need information about Argos"}
  ]
}`

func describeArg(a capability.ArgSpec) string {
	kind := "string"
	if a.Type == capability.ArgStringList {
		kind = "list of strings"
	}
	line := fmt.Sprintf("* %s (%s): %s", a.Name, kind, a.Description)
	if len(a.Enum) > 0 && a.Name != "regions" {
		line += "; values from [\"" + strings.Join(a.Enum, "\", \"") + "\"]"
	}
	return line
}

// renderCatalog lists the tools grouped the way they are registered.
func renderCatalog(cat *capability.Catalog) string {
	var (
		b      strings.Builder
		groups []string
		byName = map[string][]capability.ToolSpec{}
	)
	for _, s := range cat.Specs() {
		if _, ok := byName[s.Group]; !ok {
			groups = append(groups, s.Group)
		}
		byName[s.Group] = append(byName[s.Group], s)
	}
	for gi, g := range groups {
		fmt.Fprintf(&b, "%d. %s tools:\n", gi+1, g)
		for si, s := range byName[g] {
			fmt.Fprintf(&b, "   %c) %s\n", 'a'+si, s.Name)
			fmt.Fprintf(&b, "      - %s\n", s.Summary)
			fmt.Fprintf(&b, "      - Use when: %s\n", s.UseWhen)
			if len(s.Args) == 0 {
				b.WriteString("      - No parameters required\n")
			} else {
				b.WriteString("      - Parameters:\n")
				for _, a := range s.Args {
					b.WriteString("        " + describeArg(a) + "\n")
				}
			}
			if _, ok := s.Arg("regions"); ok {
				b.WriteString("      - Official regions:\n")
				for _, line := range strings.Split(strings.TrimRight(capability.RenderRegionTree(), "\n"), "\n") {
					b.WriteString("        " + line + "\n")
				}
			}
			for _, n := range s.Notes {
				b.WriteString("      - Note: " + n + "\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// buildPrompt renders the single user message sent to the planner model.
func buildPrompt(cat *capability.Catalog, date string, history []models.Message, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a helpful expert in human rights, armed conflict and international humanitarian law named "Argos".
You answer questions and complete tasks about human rights, conflict and international humanitarian law by using tools that provide you with research.
Today's date is %s.

AVAILABLE TOOLS:

`, date)
	b.WriteString(renderCatalog(cat))
	b.WriteString(planningRules)
	b.WriteString(`

For each tool you decide to use, provide output in this format:
{
  "tools": [
    {"name": "tool_name", "args": {"param1": "value1"}, "reasoning": "explanation of why you're using this tool"}
  ]
}`)

	if ctx := models.FormatHistory(history); ctx != "" {
		b.WriteString("\n\nHere is our conversation context:\n" + ctx + "\n\n")
	}
	b.WriteString("\n\nUser question: " + query)
	b.WriteString("\n\nPlease analyze this request and identify the specific tools needed to answer it. Your response must be a valid JSON object with a \"tools\" array as shown above.\n\nAvailable tool names are:\n")
	for _, name := range cat.Names() {
		b.WriteString("- " + string(name) + "\n")
	}
	b.WriteString("\n" + planningExamples + "\n\nReturn only valid JSON without any other text. Be concise.\n")
	return b.String()
}
