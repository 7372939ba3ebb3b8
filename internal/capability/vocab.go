package capability

import "strings"

// ConflictType is a legal classification of an armed conflict.
type ConflictType string

const (
	ConflictIAC        ConflictType = "International Armed Conflict (IAC)"
	ConflictNIAC       ConflictType = "Non-International Armed Conflict (NIAC)"
	ConflictOccupation ConflictType = "Military Occupation"
)

// ConflictTypes lists every conflict type.
func ConflictTypes() []ConflictType {
	return []ConflictType{ConflictIAC, ConflictNIAC, ConflictOccupation}
}

// ParseConflictType accepts the canonical label, its abbreviation, or a
// case-insensitive variant of either.
func ParseConflictType(s string) (ConflictType, bool) {
	switch norm(s) {
	case norm(string(ConflictIAC)), "iac", "international armed conflict":
		return ConflictIAC, true
	case norm(string(ConflictNIAC)), "niac", "non-international armed conflict", "non international armed conflict":
		return ConflictNIAC, true
	case norm(string(ConflictOccupation)), "occupation", "belligerent occupation":
		return ConflictOccupation, true
	}
	return "", false
}

// LawFocus is one of the international legal frameworks served as reference text.
type LawFocus string

const (
	LawIHL LawFocus = "International Humanitarian Law (IHL)"
	LawIHR LawFocus = "International Human Rights Law (IHR)"
	LawICL LawFocus = "International Criminal Law (ICL)"
)

// DefaultLawFocus is used when the planner omits law_focus.
const DefaultLawFocus = LawIHL

func LawFocuses() []LawFocus {
	return []LawFocus{LawIHL, LawIHR, LawICL}
}

// ParseLawFocus accepts the canonical label or its abbreviation.
func ParseLawFocus(s string) (LawFocus, bool) {
	switch norm(s) {
	case norm(string(LawIHL)), "ihl", "international humanitarian law":
		return LawIHL, true
	case norm(string(LawIHR)), "ihr", "ihrl", "international human rights law":
		return LawIHR, true
	case norm(string(LawICL)), "icl", "international criminal law":
		return LawICL, true
	}
	return "", false
}

// Region is a node of the UN-style geographic taxonomy.
type Region string

// RegionNode is one entry of the region tree.
type RegionNode struct {
	Name     Region
	Children []RegionNode
}

// RegionTree is the closed taxonomy accepted by the by-region tool. Caribbean
// and Central America appear under both Americas and Latin America.
var RegionTree = []RegionNode{
	{Name: "Africa", Children: []RegionNode{
		{Name: "Northern Africa"},
		{Name: "Sub-Saharan Africa", Children: []RegionNode{
			{Name: "Eastern Africa"}, {Name: "Middle Africa"}, {Name: "Southern Africa"}, {Name: "Western Africa"},
		}},
	}},
	{Name: "Americas", Children: []RegionNode{
		{Name: "Northern America"}, {Name: "Caribbean"}, {Name: "Central America"},
		{Name: "Latin America and the Caribbean", Children: []RegionNode{
			{Name: "Caribbean"}, {Name: "Central America"}, {Name: "South America"},
		}},
	}},
	{Name: "Antarctica"},
	{Name: "Asia", Children: []RegionNode{
		{Name: "Central Asia"}, {Name: "Eastern Asia"}, {Name: "South-Eastern Asia"}, {Name: "Southern Asia"}, {Name: "Western Asia"},
	}},
	{Name: "Europe", Children: []RegionNode{
		{Name: "Eastern Europe"}, {Name: "Northern Europe"}, {Name: "Southern Europe"}, {Name: "Western Europe"},
	}},
	{Name: "Oceania"},
}

// Regions lists every distinct region in tree order.
func Regions() []Region {
	seen := make(map[Region]bool)
	var out []Region
	var walk func([]RegionNode)
	walk = func(nodes []RegionNode) {
		for _, n := range nodes {
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
			walk(n.Children)
		}
	}
	walk(RegionTree)
	return out
}

// ParseRegion matches a region name case-insensitively.
func ParseRegion(s string) (Region, bool) {
	want := norm(s)
	for _, r := range Regions() {
		if norm(string(r)) == want {
			return r, true
		}
	}
	return "", false
}

// RenderRegionTree draws the taxonomy as an indented tree for prompts.
func RenderRegionTree() string {
	var b strings.Builder
	b.WriteString("Regions\n")
	var walk func(nodes []RegionNode, prefix string)
	walk = func(nodes []RegionNode, prefix string) {
		for i, n := range nodes {
			branch, next := "├── ", "│   "
			if i == len(nodes)-1 {
				branch, next = "└── ", "    "
			}
			b.WriteString(prefix + branch + string(n.Name) + "\n")
			walk(n.Children, prefix+next)
		}
	}
	walk(RegionTree, "  ")
	return b.String()
}

// Organizations the conflict graph records membership for.
var Organizations = []string{"European Union", "African Union", "G7", "BRICS", "NATO", "ASEAN"}

func norm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
