// Package htmltext turns article containers into lightweight markdown.
package htmltext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/argos-research/argos/internal/helpers"
)

// Headings and paragraphs, in document order.
const (
	Paragraphs         = "p, h1, h2, h3, h4, h5, h6"
	BodyParagraphs     = "p, h2, h3, h4, h5, h6"
	ParagraphsAndItems = "p, h2, h3, h4, h5, h6, li"
)

var shareText = regexp.MustCompile(`Share this via \w+\s*|More sharing options\s*`)

// First returns the first non-empty match among selectors, tried in order.
func First(doc *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// Remove deletes every node matching any selector under root.
func Remove(root *goquery.Selection, selectors ...string) {
	for _, sel := range selectors {
		root.Find(sel).Remove()
	}
}

// Blocks collects the text of the elements matched by selector. Headings are
// normalised to "####" and list items become "- " bullets.
func Blocks(root *goquery.Selection, selector string) []string {
	var out []string
	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		switch name := goquery.NodeName(s); {
		case len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6':
			text = "#### " + text
		case name == "li":
			text = "- " + text
		}
		out = append(out, text)
	})
	return out
}

// Markdown joins blocks with blank lines, strips share-widget text and keeps
// at most wordLimit words.
func Markdown(blocks []string, wordLimit int) string {
	text := strings.Join(blocks, "\n\n")
	text = helpers.CollapseSpaces(text)
	text = strings.TrimSpace(shareText.ReplaceAllString(text, ""))
	return helpers.TruncateWords(text, wordLimit)
}
