package capability

import "github.com/argos-research/argos/models"

func conflictTypeEnum() []string {
	out := make([]string, 0, 3)
	for _, t := range ConflictTypes() {
		out = append(out, string(t))
	}
	return out
}

func lawFocusEnum() []string {
	out := make([]string, 0, 3)
	for _, l := range LawFocuses() {
		out = append(out, string(l))
	}
	return out
}

func regionEnum() []string {
	regions := Regions()
	out := make([]string, 0, len(regions))
	for _, r := range regions {
		out = append(out, string(r))
	}
	return out
}

// DefaultSpecs is the built-in tool catalog.
func DefaultSpecs() []ToolSpec {
	conflictTypes := ArgSpec{
		Name: "conflict_types", Type: ArgStringList, Required: true, Enum: conflictTypeEnum(),
		Description: "list of conflict classifications to keep; [] returns every type",
	}
	return []ToolSpec{
		{
			Name: models.ToolByCountry, Group: "RULAC", Category: CategoryGraph,
			Summary: "Armed conflicts in which the given states are parties, with their legal classification.",
			UseWhen: "the question concerns conflicts involving particular countries",
			Args: []ArgSpec{
				{Name: "countries", Type: ArgStringList, Required: true, Description: "list of country names"},
				conflictTypes,
			},
		},
		{
			Name: models.ToolByNonStateActor, Group: "RULAC", Category: CategoryGraph,
			Summary: "Armed conflicts involving armed groups, matched on name or alias.",
			UseWhen: "the question names an armed group or other non-state actor",
			Args: []ArgSpec{
				{Name: "non_state_actors", Type: ArgStringList, Required: true, Description: "list of group names or aliases"},
			},
		},
		{
			Name: models.ToolByOrganization, Group: "RULAC", Category: CategoryGraph,
			Summary: "Armed conflicts involving member states of an international organization.",
			UseWhen: "the question concerns an organization such as NATO, the African Union or BRICS",
			Args: []ArgSpec{
				{Name: "organizations", Type: ArgStringList, Required: true, Description: "list of organization names (European Union, African Union, G7, BRICS, NATO, ASEAN)"},
				conflictTypes,
			},
		},
		{
			Name: models.ToolByRegion, Group: "RULAC", Category: CategoryGraph,
			Summary: "Armed conflicts taking place in a geographic region.",
			UseWhen: "the question concerns a region rather than a single country",
			Args: []ArgSpec{
				{Name: "regions", Type: ArgStringList, Required: true, Enum: regionEnum(), Description: "list of region names from the official region tree"},
				conflictTypes,
			},
		},
		{
			Name: models.ToolRULACInfo, Group: "RULAC", Category: CategoryGraph,
			Summary: "Background on the Rule of Law in Armed Conflict project.",
			UseWhen: "the user asks what RULAC is or where its data comes from",
		},
		{
			Name: models.ToolMethodology, Group: "RULAC", Category: CategoryGraph,
			Summary: "How RULAC decides whether a situation is an armed conflict and which type.",
			UseWhen: "the question is about conflict classification criteria",
		},
		{
			Name: models.ToolLawFramework, Group: "RULAC", Category: CategoryGraph,
			Summary: "Reference text on one body of international law.",
			UseWhen: "the question concerns the legal framework that applies",
			Args: []ArgSpec{
				{Name: "law_focus", Type: ArgString, Required: true, Enum: lawFocusEnum(), Description: "the framework to retrieve"},
			},
		},
		{
			Name: models.ToolHumanRights, Group: "Human rights", Category: CategoryHumanRights,
			Summary: "The latest Human Rights Watch World Report chapter for a country.",
			UseWhen: "a country is mentioned",
			Notes:   []string{"use it whenever a country is mentioned, alongside the other relevant tools"},
			Args: []ArgSpec{
				{Name: "country", Type: ArgString, Required: true, Description: "the country name"},
			},
		},
		{
			Name: models.ToolWebSearch, Group: "Web search", Category: CategoryWeb,
			Summary: "A web search answered with an AI summary and its sources.",
			UseWhen: "facts are needed that the conflict and human rights sources do not cover",
			Notes:   []string{"split complex questions into several focused searches and call the tool once per search"},
			Args: []ArgSpec{
				{Name: "query", Type: ArgString, Required: true, Description: "a focused search query"},
			},
		},
		{
			Name: models.ToolCombinedNews, Group: "News", Category: CategoryNews,
			Summary: "Recent articles from BBC, Al Jazeera, AP and Reuters, summarized and ordered by date.",
			UseWhen: "the question touches on current events or a fast-moving situation",
			Notes:   []string{"use topic keywords only; leave out words such as \"news\" or \"latest\""},
			Args: []ArgSpec{
				{Name: "search_query", Type: ArgString, Required: true, Description: "topic keywords"},
			},
		},
		{
			Name: models.ToolArgosInfo, Group: "Argos", Category: CategorySelfInfo,
			Summary: "What Argos is, what it can do and which sources it uses.",
			UseWhen: "the user asks about the assistant itself, its purpose, capabilities or tools",
		},
	}
}
