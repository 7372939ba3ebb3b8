// Package hrw retrieves the latest Human Rights Watch world report chapter
// for a country.
package hrw

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/argos-research/argos/internal/fetch"
	"github.com/argos-research/argos/internal/helpers"
	"github.com/argos-research/argos/internal/tools"
	"github.com/argos-research/argos/internal/tools/htmltext"
	"github.com/argos-research/argos/internal/tools/websearch"
	"github.com/argos-research/argos/models"
)

const (
	Site       = "https://www.hrw.org/world-report"
	SourceName = "Human Rights Watch"
	noReports  = "No relevant reports found"
)

var ErrNoSearch = errors.New("hrw: brave_search_api_key not configured")

// Searcher is the subset of the Brave client used to locate a report.
type Searcher interface {
	WebResults(ctx context.Context, params url.Values) ([]websearch.Result, error)
}

type Reports struct {
	Search    Searcher
	Fetcher   fetch.Fetcher
	Denylist  []string
	WordLimit int
	Now       func() time.Time
	Logger    *log.Logger
}

func (r *Reports) Name() models.ToolName { return models.ToolHumanRights }

var defaultLogger = log.New(os.Stderr, "[HRW] ", log.LstdFlags)

func (r *Reports) logger() *log.Logger {
	if r.Logger == nil {
		return defaultLogger
	}
	return r.Logger
}

func (r *Reports) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Freshness is the rolling 24 month window passed to the search API.
func Freshness(now time.Time) string {
	return now.AddDate(0, -24, 0).Format("2006-01-02") + "to" + now.Format("2006-01-02")
}

func (r *Reports) Call(ctx context.Context, args map[string]interface{}) (models.ToolResult, error) {
	if r.Search == nil {
		return models.ToolResult{}, ErrNoSearch
	}
	country := tools.String(args, "country")
	now := r.now()
	res := models.ToolResult{ToolName: models.ToolHumanRights}

	query := fmt.Sprintf("site:%s %s World Report %d", Site, country, now.Year())
	hits, err := r.Search.WebResults(ctx, url.Values{
		"q":           {query},
		"count":       {"1"},
		"search_lang": {"en"},
		"ui_lang":     {"en-US"},
		"safesearch":  {"off"},
		"freshness":   {Freshness(now)},
	})
	if err != nil {
		return res, err
	}
	var hit *websearch.Result
	for i := range hits {
		if hits[i].URL != "" && !helpers.Denied(hits[i].URL, r.Denylist) {
			hit = &hits[i]
			break
		}
	}
	if hit == nil {
		res.Content = noReports
		return res, nil
	}

	page, err := r.Fetcher.Fetch(ctx, hit.URL)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		r.logger().Printf("fetch %s: %v", hit.URL, err)
		return res, nil
	}
	body, modified, err := Extract(page.HTML, r.WordLimit)
	if err != nil || body == "" {
		r.logger().Printf("extract %s: no report body (%v)", hit.URL, err)
		return res, nil
	}

	title := "Human Rights Watch (HRW) country report for " + country
	heading := title
	date := modified
	if t, err := time.Parse(time.RFC3339, modified); err == nil {
		date = t.Format(time.RFC3339)
		heading += " (Publication date: " + t.Format("Jan 02, 2006") + ")"
	} else if modified != "" {
		heading += " (Publication date: " + modified + ")"
	}

	res.Content = "### Latest Human Rights Watch (HRW) Country Report for " + country + "\n\n" + heading + "\n\n" + body
	res.Articles = []models.Article{{
		Title:           title,
		Date:            date,
		SummaryContent:  body,
		OriginalContent: body,
		URL:             hit.URL,
		Source:          SourceName,
	}}
	res.Citations = []models.Citation{{
		Title:            title,
		URL:              hit.URL,
		FormattedContent: body,
		AccessedAt:       now,
	}}
	return res, nil
}

// Extract returns the report body as markdown and the article:modified_time
// meta value.
func Extract(html string, wordLimit int) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}
	modified, _ := doc.Find(`meta[property="article:modified_time"]`).First().Attr("content")

	var main *goquery.Selection
	if article := doc.Find("article").First(); article.Length() > 0 {
		htmltext.Remove(article,
			"div.share-buttons", "aside.share-buttons",
			"div.social-sharing", "aside.social-sharing",
			"div.sidebar", "aside.sidebar",
			"nav", "div.chapter-header", "div.article__info")
		main = article
		if body := article.Find("div.article-body").First(); body.Length() > 0 {
			main = body
		}
	}
	if main == nil {
		main = htmltext.First(doc.Selection, "div[role=main]", "main", "div.content", "div.article-content", "div.main-content")
	}
	if main == nil {
		return "", strings.TrimSpace(modified), nil
	}
	htmltext.Remove(main, "script", "style", "nav", "header", "footer", "button")
	return htmltext.Markdown(htmltext.Blocks(main, htmltext.Paragraphs), wordLimit), strings.TrimSpace(modified), nil
}
