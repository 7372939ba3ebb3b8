package news

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/argos-research/argos/internal/fetch"
)

func TestCleanReutersSnippet(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"KYIV, Feb 3 (Reuters) - Drones struck the city.", "Drones struck the city."},
		{"GENEVA, MARCH 1 (Reuters) – Aid arrived.", "Aid arrived."},
		{"Fighting continued overnight (Reuters)", "Fighting continued overnight"},
		{"Officials said (Reuters) talks would resume.", "Officials said talks would resume."},
		{"No marker here.", "No marker here."},
	}
	for _, tc := range cases {
		if got := CleanReutersSnippet(tc.in); got != tc.want {
			t.Errorf("CleanReutersSnippet(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	t.Parallel()
	if got := CleanTitle("Talks resume | BBC News"); got != "Talks resume" {
		t.Fatalf("CleanTitle = %q", got)
	}
	if got := CleanTitle("  Plain  "); got != "Plain" {
		t.Fatalf("CleanTitle = %q", got)
	}
}

func TestDefaultVendors(t *testing.T) {
	t.Parallel()
	vs := DefaultVendors()
	if len(vs) != 4 {
		t.Fatalf("vendors = %d", len(vs))
	}
	for _, v := range vs {
		if v.SnippetOnly != (v.Extract == nil) {
			t.Errorf("%s: snippet-only vendors carry no extractor", v.Name)
		}
	}
}

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestExtractBBC(t *testing.T) {
	t.Parallel()
	got := extractBBC(doc(t, `<html><body><article>
<h1>Headline</h1>
<p>First paragraph .</p>
<div data-component="tag-list"><p>Tags</p></div>
<p>Second paragraph.</p>
</article></body></html>`))
	if got != "First paragraph.\n\nSecond paragraph." {
		t.Fatalf("extractBBC = %q", got)
	}
}

func TestExtractAlJazeeraKeepsListItems(t *testing.T) {
	t.Parallel()
	got := extractAlJazeera(doc(t, `<html><body><div class="wysiwyg wysiwyg--all-content">
<p>Intro.</p><ul><li>Point one</li></ul><div class="more-on"><p>More</p></div>
</div></body></html>`))
	if got != "Intro.\n\n- Point one" {
		t.Fatalf("extractAlJazeera = %q", got)
	}
}

func TestExtractAPMissingLayout(t *testing.T) {
	t.Parallel()
	if got := extractAP(doc(t, `<html><body><div>nothing</div></body></html>`)); got != "" {
		t.Fatalf("extractAP = %q", got)
	}
}

func TestExtractPageTruncates(t *testing.T) {
	t.Parallel()
	page := fetch.Page{URL: "https://apnews.com/article/x", HTML: `<html><body><div class="RichTextStoryBody RichTextBody"><p>one two three four five</p></div></body></html>`}
	if got := ExtractPage(page, extractAP, 3); got != "one two three" {
		t.Fatalf("ExtractPage = %q", got)
	}
}
