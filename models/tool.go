package models

import "time"

// ToolName identifies a retrieval instrument in the catalog.
type ToolName string

const (
	ToolByCountry       ToolName = "get_armed_conflict_data_by_country"
	ToolByNonStateActor ToolName = "get_armed_conflict_data_by_non_state_actor"
	ToolByOrganization  ToolName = "get_armed_conflict_data_by_organization"
	ToolByRegion        ToolName = "get_armed_conflict_data_by_region"
	ToolRULACInfo       ToolName = "get_information_about_RULAC"
	ToolMethodology     ToolName = "get_RULAC_conflict_classification_methodology"
	ToolLawFramework    ToolName = "get_international_law_framework"
	ToolArgosInfo       ToolName = "get_information_about_Argos"
	ToolHumanRights     ToolName = "get_human_rights_research_by_country"
	ToolCombinedNews    ToolName = "get_combined_news"
	ToolWebSearch       ToolName = "brave_search"
)

// AllToolNames lists the catalog in a stable order.
func AllToolNames() []ToolName {
	return []ToolName{
		ToolByCountry, ToolByNonStateActor, ToolByOrganization, ToolByRegion,
		ToolRULACInfo, ToolMethodology, ToolLawFramework, ToolArgosInfo,
		ToolHumanRights, ToolCombinedNews, ToolWebSearch,
	}
}

// ToolCall is one planned invocation.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      ToolName               `json:"name"`
	Args      map[string]interface{} `json:"args"`
	Reasoning string                 `json:"reasoning"`
}

// Citation references one source surfaced to the user.
type Citation struct {
	Title            string    `json:"title"`
	URL              string    `json:"url"`
	FormattedContent string    `json:"formatted_content"`
	AccessedAt       time.Time `json:"accessed_at"`
}

// Article is produced by the news and human rights pipelines. Date holds an
// RFC 3339 timestamp when the source date parsed, otherwise the raw string.
type Article struct {
	Title           string `json:"title"`
	Date            string `json:"date"`
	SummaryContent  string `json:"summary_content"`
	OriginalContent string `json:"original_content"`
	URL             string `json:"url"`
	Source          string `json:"source"`
}

// ToolResult is the outcome of one tool invocation.
type ToolResult struct {
	ToolName  ToolName   `json:"tool_name"`
	CallID    string     `json:"call_id"`
	Content   string     `json:"content"`
	Articles  []Article  `json:"articles,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Failed reports whether the result stands in for a failed invocation.
func (r ToolResult) Failed() bool { return r.Error != "" }

// ErrorResult builds the synthetic result recorded when a tool fails.
func ErrorResult(call ToolCall, err error) ToolResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ToolResult{
		ToolName: call.Name,
		CallID:   call.ID,
		Content:  "Error executing tool: " + msg,
		Error:    msg,
	}
}
