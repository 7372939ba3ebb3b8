package dispatch

import (
	"sort"

	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/models"
)

// graphOrder is the order graph results appear in the evidence bundle.
var graphOrder = []models.ToolName{
	models.ToolRULACInfo,
	models.ToolLawFramework,
	models.ToolMethodology,
	models.ToolByRegion,
	models.ToolByOrganization,
	models.ToolByNonStateActor,
	models.ToolByCountry,
}

// Bundle is the grouped evidence handed to the answer composer.
type Bundle struct {
	Graph       []models.ToolResult
	HumanRights []models.ToolResult
	Web         []models.ToolResult
	SelfInfo    []models.ToolResult
	News        []models.ToolResult
}

// Empty reports whether no bucket holds evidence.
func (b Bundle) Empty() bool {
	return len(b.Graph)+len(b.HumanRights)+len(b.Web)+len(b.SelfInfo)+len(b.News) == 0
}

// Group buckets results by tool category. Failed and empty results are left
// out. The outcome does not depend on the order of results.
func Group(catalog *capability.Catalog, results []models.ToolResult) Bundle {
	var b Bundle
	for _, r := range results {
		if r.Failed() || r.Content == "" {
			continue
		}
		switch catalog.CategoryOf(r.ToolName) {
		case capability.CategoryGraph:
			b.Graph = append(b.Graph, r)
		case capability.CategoryHumanRights:
			b.HumanRights = append(b.HumanRights, r)
		case capability.CategorySelfInfo:
			b.SelfInfo = append(b.SelfInfo, r)
		case capability.CategoryNews:
			b.News = append(b.News, r)
		default:
			b.Web = append(b.Web, r)
		}
	}
	sortResults(b.Graph, graphRank)
	for _, bucket := range [][]models.ToolResult{b.HumanRights, b.Web, b.SelfInfo, b.News} {
		sortResults(bucket, func(models.ToolName) int { return 0 })
	}
	return b
}

func graphRank(name models.ToolName) int {
	for i, n := range graphOrder {
		if n == name {
			return i
		}
	}
	return len(graphOrder)
}

// sortResults orders by rank, then call id (shorter ids first so tool_2
// precedes tool_10), then content.
func sortResults(rs []models.ToolResult, rank func(models.ToolName) int) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if ra, rb := rank(a.ToolName), rank(b.ToolName); ra != rb {
			return ra < rb
		}
		if a.ToolName != b.ToolName {
			return a.ToolName < b.ToolName
		}
		if len(a.CallID) != len(b.CallID) {
			return len(a.CallID) < len(b.CallID)
		}
		if a.CallID != b.CallID {
			return a.CallID < b.CallID
		}
		return a.Content < b.Content
	})
}
