package dispatch

import (
	"strings"

	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/models"
)

var statusText = map[models.ToolName]string{
	models.ToolByCountry:       "Researching state actor involvement in armed conflicts",
	models.ToolByNonStateActor: "Researching non-state actor involvement in armed conflicts",
	models.ToolByOrganization:  "Researching organizational involvement in armed conflicts",
	models.ToolByRegion:        "Researching regional involvement in armed conflicts",
	models.ToolRULACInfo:       "Retrieving info about RULAC",
	models.ToolMethodology:     "Analyzing RULAC conflict classification methodology",
	models.ToolLawFramework:    "Analyzing international law framework",
	models.ToolArgosInfo:       "Retrieving info about Argos",
	models.ToolHumanRights:     "Analyzing human rights situation",
	models.ToolCombinedNews:    "Analyzing latest news and developments",
	models.ToolWebSearch:       "Searching the web for info",
}

// Describe is the status line shown while a call's results arrive. args
// should already be repaired.
func Describe(call models.ToolCall, args map[string]interface{}) string {
	switch call.Name {
	case models.ToolByCountry:
		if countries := tools.StringList(args, "countries"); len(countries) > 0 {
			return "Analyzing RULAC conflict profiles on '" + strings.Join(countries, " and ") + "'"
		}
	case models.ToolHumanRights:
		return "Analyzing HRW human rights research on '" + tools.String(args, "country") + "'"
	case models.ToolWebSearch:
		return "Searching web for '" + tools.String(args, "query") + "'"
	case models.ToolLawFramework:
		return "Analyzing framework on '" + tools.String(args, "law_focus") + "'"
	case models.ToolCombinedNews:
		return "Checking developments on '" + tools.String(args, "search_query") + "'"
	}
	if text, ok := statusText[call.Name]; ok {
		return text
	}
	return "🔍 Researching with " + string(call.Name) + "..."
}
