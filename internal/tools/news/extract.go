package news

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/argos-research/argos/internal/fetch"
	"github.com/argos-research/argos/internal/tools/htmltext"
)

// Extractor pulls the article body out of a vendor page.
type Extractor func(doc *goquery.Document) string

func extractBBC(doc *goquery.Document) string {
	root := htmltext.First(doc.Selection,
		"article", "div.story-body", ".story-body__inner", "[data-component=text-block]",
		".body-content", "main", "[role=main]")
	if root == nil {
		return ""
	}
	htmltext.Remove(root, "script", "style", "nav", "button", "ul",
		"[data-component=topic-list]", "[data-component=tag-list]", "[data-component=share-tools]",
		"[data-component=recommendations]", "[data-component=related-content]", "[data-component=links-block]",
		".topic-list", ".article__topics", ".article-share", ".article-footer")
	return htmltext.Markdown(htmltext.Blocks(root, htmltext.BodyParagraphs), 0)
}

func extractAlJazeera(doc *goquery.Document) string {
	root := htmltext.First(doc.Selection, "div.wysiwyg.wysiwyg--all-content")
	if root == nil {
		return ""
	}
	htmltext.Remove(root, "script", "style", ".more-on", ".container--ads", ".article-newsletter-slot", ".screen-reader-text")
	return htmltext.Markdown(htmltext.Blocks(root, htmltext.ParagraphsAndItems), 0)
}

func extractAP(doc *goquery.Document) string {
	root := htmltext.First(doc.Selection, "div.RichTextStoryBody.RichTextBody", "div.Article", "main", "article")
	if root == nil {
		return ""
	}
	htmltext.Remove(root, "script", "style",
		".ad-placeholder", ".SovrnAd", ".Advertisement", ".Related", ".PageListEnhancementGeneric",
		".HTMLModuleEnhancement", ".social-share", ".newsletter-subscribe", ".Media-caption")
	return htmltext.Markdown(htmltext.Blocks(root, htmltext.BodyParagraphs), 0)
}

// ExtractPage runs the vendor extractor and falls back to readability when
// the vendor layout did not match.
func ExtractPage(page fetch.Page, extract Extractor, wordLimit int) string {
	var text string
	if extract != nil {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML)); err == nil {
			text = extract(doc)
		}
	}
	if strings.TrimSpace(text) == "" {
		if _, readable, err := fetch.Readable(page); err == nil {
			text = readable
		}
	}
	return htmltext.Markdown([]string{text}, wordLimit)
}
