package dispatch

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/models"
)

func TestRepair(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name models.ToolName
		in   map[string]interface{}
		want map[string]interface{}
	}{
		{
			name: models.ToolByCountry,
			in:   map[string]interface{}{"countries": "Ukraine"},
			want: map[string]interface{}{"countries": []string{"Ukraine"}, "conflict_types": []string{}},
		},
		{
			name: models.ToolByCountry,
			in:   map[string]interface{}{"countries": []interface{}{"Mali", " "}, "conflict_types": []interface{}{"niac", "civil war"}},
			want: map[string]interface{}{"countries": []string{"Mali"}, "conflict_types": []string{"Non-International Armed Conflict (NIAC)"}},
		},
		{
			name: models.ToolByNonStateActor,
			in:   nil,
			want: map[string]interface{}{"non_state_actors": []string{}},
		},
		{
			name: models.ToolByOrganization,
			in:   map[string]interface{}{"organizations": "NATO"},
			want: map[string]interface{}{"organizations": []string{"NATO"}, "conflict_types": []string{}},
		},
		{
			name: models.ToolByRegion,
			in:   map[string]interface{}{"regions": []interface{}{"western africa", "Atlantis"}},
			want: map[string]interface{}{"regions": []string{"Western Africa"}, "conflict_types": []string{}},
		},
		{
			name: models.ToolLawFramework,
			in:   map[string]interface{}{},
			want: map[string]interface{}{"law_focus": "International Humanitarian Law (IHL)"},
		},
		{
			name: models.ToolLawFramework,
			in:   map[string]interface{}{"law_focus": "International Criminal Law (ICL)"},
			want: map[string]interface{}{"law_focus": "International Criminal Law (ICL)"},
		},
		{
			name: models.ToolHumanRights,
			in:   map[string]interface{}{},
			want: map[string]interface{}{"country": "Unknown"},
		},
		{
			name: models.ToolWebSearch,
			in:   map[string]interface{}{"query": ""},
			want: map[string]interface{}{"query": "Missing query"},
		},
		{
			name: models.ToolCombinedNews,
			in:   map[string]interface{}{},
			want: map[string]interface{}{"search_query": "Current news"},
		},
		{
			name: models.ToolArgosInfo,
			in:   map[string]interface{}{},
			want: map[string]interface{}{},
		},
	}
	for _, tc := range cases {
		if got := Repair(tc.name, tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Repair(%s, %v) = %#v, want %#v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestRepairedArgsValidate(t *testing.T) {
	t.Parallel()
	cat := capability.Default()
	for _, name := range cat.Names() {
		if err := cat.Validate(name, Repair(name, nil)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestRepairDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := map[string]interface{}{"countries": "Ukraine"}
	Repair(models.ToolByCountry, in)
	if in["countries"] != "Ukraine" || len(in) != 1 {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	cases := []struct {
		call models.ToolCall
		want string
	}{
		{models.ToolCall{Name: models.ToolByCountry}, "Researching state actor involvement in armed conflicts"},
		{models.ToolCall{Name: models.ToolByCountry, Args: map[string]interface{}{"countries": []string{"Ukraine", "Russia"}}}, "Analyzing RULAC conflict profiles on 'Ukraine and Russia'"},
		{models.ToolCall{Name: models.ToolMethodology}, "Analyzing RULAC conflict classification methodology"},
		{models.ToolCall{Name: models.ToolLawFramework, Args: map[string]interface{}{"law_focus": "International Human Rights Law (IHR)"}}, "Analyzing framework on 'International Human Rights Law (IHR)'"},
		{models.ToolCall{Name: models.ToolHumanRights, Args: map[string]interface{}{"country": "Somalia"}}, "Analyzing HRW human rights research on 'Somalia'"},
		{models.ToolCall{Name: models.ToolCombinedNews, Args: map[string]interface{}{"search_query": "Gaza"}}, "Checking developments on 'Gaza'"},
		{models.ToolCall{Name: models.ToolWebSearch, Args: map[string]interface{}{"query": "Darfur"}}, "Searching web for 'Darfur'"},
		{models.ToolCall{Name: models.ToolArgosInfo}, "Retrieving info about Argos"},
		{models.ToolCall{Name: "get_weather"}, "🔍 Researching with get_weather..."},
	}
	for _, tc := range cases {
		if got := Describe(tc.call, tc.call.Args); got != tc.want {
			t.Errorf("Describe(%s) = %q, want %q", tc.call.Name, got, tc.want)
		}
	}
}

func TestGroupIsOrderIndependent(t *testing.T) {
	t.Parallel()
	results := []models.ToolResult{
		{ToolName: models.ToolByCountry, CallID: "tool_0", Content: "country"},
		{ToolName: models.ToolLawFramework, CallID: "tool_1", Content: "law"},
		{ToolName: models.ToolHumanRights, CallID: "tool_2", Content: "hrw"},
		{ToolName: models.ToolWebSearch, CallID: "tool_3", Content: "web a"},
		{ToolName: models.ToolWebSearch, CallID: "tool_10", Content: "web b"},
		{ToolName: models.ToolCombinedNews, CallID: "tool_4", Content: "news"},
		{ToolName: models.ToolArgosInfo, CallID: "tool_5", Content: "argos"},
		{ToolName: models.ToolRULACInfo, CallID: "tool_6", Content: "info"},
		{ToolName: models.ToolMethodology, CallID: "tool_7", Content: ""},
		{ToolName: models.ToolByRegion, CallID: "tool_8", Content: "Error executing tool: x", Error: "x"},
		{ToolName: "get_weather", CallID: "tool_9", Content: "sunny"},
	}
	cat := capability.Default()
	want := Group(cat, results)

	var graph []string
	for _, r := range want.Graph {
		graph = append(graph, r.Content)
	}
	if !reflect.DeepEqual(graph, []string{"info", "law", "country"}) {
		t.Fatalf("graph order = %v", graph)
	}
	if len(want.Web) != 3 || want.Web[0].CallID != "tool_3" || want.Web[1].CallID != "tool_10" || want.Web[2].Content != "sunny" {
		t.Fatalf("web = %+v", want.Web)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.ToolResult(nil), results...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Group(cat, shuffled); !reflect.DeepEqual(got, want) {
			t.Fatalf("grouping depends on arrival order")
		}
	}
}
