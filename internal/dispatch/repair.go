package dispatch

import (
	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/models"
)

const (
	defaultCountry     = "Unknown"
	defaultQuery       = "Missing query"
	defaultSearchQuery = "Current news"
)

// Repair returns a copy of args in which every argument the tool requires is
// present with the declared type. Bare strings become singleton lists,
// missing lists become empty lists, closed vocabularies drop values they do
// not recognise, and missing scalars get a default.
func Repair(name models.ToolName, args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args)+2)
	for k, v := range args {
		out[k] = v
	}
	switch name {
	case models.ToolByCountry:
		out["countries"] = list(args, "countries")
		out["conflict_types"] = conflictTypes(args)
	case models.ToolByNonStateActor:
		out["non_state_actors"] = list(args, "non_state_actors")
	case models.ToolByOrganization:
		out["organizations"] = list(args, "organizations")
		out["conflict_types"] = conflictTypes(args)
	case models.ToolByRegion:
		regions := []string{}
		for _, r := range tools.StringList(args, "regions") {
			if region, ok := capability.ParseRegion(r); ok {
				regions = append(regions, string(region))
			}
		}
		out["regions"] = regions
		out["conflict_types"] = conflictTypes(args)
	case models.ToolLawFramework:
		focus, ok := capability.ParseLawFocus(tools.String(args, "law_focus"))
		if !ok {
			focus = capability.DefaultLawFocus
		}
		out["law_focus"] = string(focus)
	case models.ToolHumanRights:
		out["country"] = scalar(args, "country", defaultCountry)
	case models.ToolWebSearch:
		out["query"] = scalar(args, "query", defaultQuery)
	case models.ToolCombinedNews:
		out["search_query"] = scalar(args, "search_query", defaultSearchQuery)
	}
	return out
}

func list(args map[string]interface{}, key string) []string {
	v := tools.StringList(args, key)
	if v == nil {
		return []string{}
	}
	return v
}

func conflictTypes(args map[string]interface{}) []string {
	out := []string{}
	for _, s := range tools.StringList(args, "conflict_types") {
		if t, ok := capability.ParseConflictType(s); ok {
			out = append(out, string(t))
		}
	}
	return out
}

func scalar(args map[string]interface{}, key, def string) string {
	if s := tools.String(args, key); s != "" {
		return s
	}
	return def
}
