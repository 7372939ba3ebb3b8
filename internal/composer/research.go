package composer

import (
	"strings"

	"github.com/argos-research/argos/internal/dispatch"
	"github.com/argos-research/argos/models"
)

const (
	rulacIntro = "The Rule of Law in Armed Conflict (RULAC) portal provides the the most authoritative classifications of armed conflicts based on the parties involved and the nature of the hostilities."
	hrwIntro   = "Human Rights Watch (HRW) is a non-governmental organization that monitors human rights violations and abuses around the world."
)

func contents(rs []models.ToolResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Content
	}
	return out
}

// Research renders the evidence bundle as tagged sections. Empty buckets
// are left out.
func Research(b dispatch.Bundle) string {
	var s strings.Builder
	if len(b.Graph) > 0 {
		s.WriteString("<RULAC_research>\n## Rule of Law in Armed Conflict (RULAC) research\n\n")
		s.WriteString(rulacIntro)
		s.WriteString("\n\n" + strings.Join(contents(b.Graph), "\n\n- - -\n\n"))
		s.WriteString("\n\n</RULAC_research>")
	}
	if len(b.HumanRights) > 0 {
		s.WriteString("\n\n<HRW_research>\n## Human Rights Watch (HRW) research\n\n")
		s.WriteString(hrwIntro)
		s.WriteString("\n\n" + strings.Join(contents(b.HumanRights), "\n\n"))
		s.WriteString("\n\n</HRW_research>")
	}
	if len(b.Web) > 0 {
		s.WriteString("\n\n<web_research>\n## web research\n\n")
		s.WriteString(strings.Join(contents(b.Web), "\n\n"))
		s.WriteString("\n\n</web_research>")
	}
	if len(b.SelfInfo) > 0 {
		s.WriteString("\n\n<Argos_information>\n## argos information\n\n")
		s.WriteString(strings.Join(contents(b.SelfInfo), "\n\n"))
		s.WriteString("\n\n</Argos_information>")
	}
	if len(b.News) > 0 {
		s.WriteString("\n\n<latest_news_and_developments>\n## latest news and developments\n\n")
		s.WriteString(strings.Join(contents(b.News), ""))
		s.WriteString("\n\n</latest_news_and_developments>")
	}
	return s.String()
}
