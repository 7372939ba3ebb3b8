package graph

import (
	"context"
	"embed"

	"github.com/argos-research/argos/internal/capability"
	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/models"
)

//go:embed content/*.md
var contentFS embed.FS

func mustContent(name string) string {
	b, err := contentFS.ReadFile("content/" + name + ".md")
	if err != nil {
		panic(err)
	}
	return string(b)
}

type reference struct {
	task  string
	body  string
	title string
	url   string
}

func (r reference) result(name models.ToolName) models.ToolResult {
	res := models.ToolResult{
		ToolName: name,
		Content:  "### " + r.task + "\n\n" + r.body,
	}
	if r.url != "" {
		res.Citations = []models.Citation{{Title: r.title, URL: r.url, FormattedContent: r.body}}
	}
	return res
}

var lawReferences = map[capability.LawFocus]reference{
	capability.LawIHL: {
		body:  mustContent("law_ihl"),
		title: "RULAC - International Humanitarian Law Framework",
		url:   "https://www.rulac.org/legal-framework/international-humanitarian-law",
	},
	capability.LawIHR: {
		body:  mustContent("law_ihr"),
		title: "RULAC - International Human Rights Law Framework",
		url:   "https://www.rulac.org/legal-framework/international-human-rights-law",
	},
	capability.LawICL: {
		body:  mustContent("law_icl"),
		title: "RULAC - International Criminal Law Framework",
		url:   "https://www.rulac.org/legal-framework/international-criminal-law",
	},
}

// StaticTools returns the reference tools that need no database.
func StaticTools() []tools.Tool {
	fixed := func(name models.ToolName, ref reference) tools.Tool {
		return tools.Func{ToolName: name, Fn: func(ctx context.Context, _ map[string]interface{}) (models.ToolResult, error) {
			if err := ctx.Err(); err != nil {
				return models.ToolResult{}, err
			}
			return ref.result(name), nil
		}}
	}
	return []tools.Tool{
		fixed(models.ToolRULACInfo, reference{
			task:  "RULAC baseline information",
			body:  mustContent("rulac_about"),
			title: "RULAC - About Rule of Law in Armed Conflicts Project",
			url:   "https://www.rulac.org/about",
		}),
		fixed(models.ToolMethodology, reference{
			task:  "RULAC conflict classification methodology",
			body:  mustContent("rulac_methodology"),
			title: "RULAC - Classification Methodology",
			url:   "https://www.rulac.org/classification",
		}),
		fixed(models.ToolArgosInfo, reference{
			task: "Baseline information about Argos",
			body: mustContent("argos"),
		}),
		tools.Func{ToolName: models.ToolLawFramework, Fn: lawFramework},
	}
}

func lawFramework(ctx context.Context, args map[string]interface{}) (models.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ToolResult{}, err
	}
	focus, ok := capability.ParseLawFocus(tools.String(args, "law_focus"))
	if !ok {
		focus = capability.DefaultLawFocus
	}
	ref := lawReferences[focus]
	ref.task = "RULAC " + string(focus) + " legal framework"
	return ref.result(models.ToolLawFramework), nil
}
