package composer

import (
	"strings"
	"testing"

	"github.com/argos-research/argos/internal/dispatch"
	"github.com/argos-research/argos/models"
	"github.com/stretchr/testify/require"
)

func result(name models.ToolName, content string) models.ToolResult {
	return models.ToolResult{ToolName: name, CallID: "tool_0", Content: content}
}

func TestResearchSectionOrder(t *testing.T) {
	t.Parallel()
	b := dispatch.Bundle{
		Graph:       []models.ToolResult{result(models.ToolRULACInfo, "info"), result(models.ToolByCountry, "country")},
		HumanRights: []models.ToolResult{result(models.ToolHumanRights, "hrw")},
		Web:         []models.ToolResult{result(models.ToolWebSearch, "web")},
		SelfInfo:    []models.ToolResult{result(models.ToolArgosInfo, "self")},
		News:        []models.ToolResult{result(models.ToolCombinedNews, "news-a"), result(models.ToolCombinedNews, "news-b")},
	}
	got := Research(b)

	require.True(t, strings.HasPrefix(got, "<RULAC_research>\n## Rule of Law in Armed Conflict (RULAC) research\n\n"))
	require.Contains(t, got, "hostilities.\n\ninfo\n\n- - -\n\ncountry\n\n</RULAC_research>")
	require.Contains(t, got, "around the world.\n\nhrw\n\n</HRW_research>")
	require.Contains(t, got, "news-anews-b")

	order := []string{"<RULAC_research>", "<HRW_research>", "<web_research>", "<Argos_information>", "<latest_news_and_developments>"}
	last := -1
	for _, tag := range order {
		idx := strings.Index(got, tag)
		require.Greater(t, idx, last, tag)
		last = idx
	}
}

func TestResearchSkipsEmptyBuckets(t *testing.T) {
	t.Parallel()
	got := Research(dispatch.Bundle{Web: []models.ToolResult{result(models.ToolWebSearch, "w1"), result(models.ToolWebSearch, "w2")}})
	require.Equal(t, "\n\n<web_research>\n## web research\n\nw1\n\nw2\n\n</web_research>", got)
	require.Empty(t, Research(dispatch.Bundle{}))
}

func TestPromptFillsSlots(t *testing.T) {
	t.Parallel()
	c := newTestComposer(&scriptedStream{}, &scriptedStream{})
	turn := turnOf("Who fights in Sudan?", "", "And who supplies them?")
	p := c.Prompt(turn, dispatch.Bundle{News: []models.ToolResult{result(models.ToolCombinedNews, "digest")}}, now)

	require.NotContains(t, p, "{currentDateTime}")
	require.NotContains(t, p, "{combined_tool_research}")
	require.Contains(t, p, "April 02, 2025 09:30 AM")
	require.Contains(t, p, "\"And who supplies them?\"")
	require.Contains(t, p, "# Our current conversation\n\nWe are currently having the following conversation:\n\n**User**: Who fights in Sudan?")
	require.NotContains(t, p, "**Assistant**:")
	require.Contains(t, p, "digest")
}

func TestPromptDefaults(t *testing.T) {
	t.Parallel()
	c := newTestComposer(&scriptedStream{}, &scriptedStream{})
	p := c.Prompt(models.NewTurn("t", nil, models.TaskResearch), dispatch.Bundle{}, now)
	require.Contains(t, p, defaultQuestion)
	require.NotContains(t, p, "# Our current conversation")
}
