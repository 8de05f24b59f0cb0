// Package summary turns a candidate page into a short text summary
// suitable for relevance scoring.
package summary

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSummaryRunes bounds the summary text, favoring leading content.
const maxSummaryRunes = 500

// PageFetcher fetches a single page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedPage, error)
}

// FetchedPage is the raw material for a summary.
type FetchedPage struct {
	Body []byte
}

// Summary is the condensed form of a page.
type Summary struct {
	Title string
	Text  string
}

// Summarizer fetches and condenses candidate pages.
type Summarizer struct {
	fetcher PageFetcher
}

// New creates a summarizer over the given fetcher.
func New(fetcher PageFetcher) *Summarizer {
	return &Summarizer{fetcher: fetcher}
}

// Summarize fetches the page and reduces it to a title plus a bounded
// leading-content snippet. A failure here is per-link: callers skip the
// link and continue the crawl.
func (s *Summarizer) Summarize(ctx context.Context, url string) (*Summary, error) {
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	return FromHTML(page.Body)
}

// FromHTML condenses already-fetched HTML.
func FromHTML(html []byte) (*Summary, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, nav, header, footer").Remove()

	return &Summary{
		Title: extractTitle(doc),
		Text:  truncate(extractText(doc), maxSummaryRunes),
	}, nil
}

// extractTitle prefers visible headings over metadata: h1-h4 first, then
// role=heading elements, then og:title / twitter:title, then <title>.
func extractTitle(doc *goquery.Document) string {
	for _, level := range []string{"h1", "h2", "h3", "h4"} {
		if title := firstText(doc, level); title != "" {
			return title
		}
	}

	if title := firstText(doc, "[role='heading']"); title != "" {
		return title
	}

	for _, meta := range []string{
		"meta[property='og:title']",
		"meta[name='og:title']",
		"meta[property='twitter:title']",
		"meta[name='twitter:title']",
	} {
		if content, ok := doc.Find(meta).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}

	return collapseWhitespace(doc.Find("title").First().Text())
}

func firstText(doc *goquery.Document, selector string) string {
	var found string
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := collapseWhitespace(sel.Text()); text != "" {
			found = text
			return false
		}
		return true
	})
	return found
}

// extractText joins the paragraphs of the main content container, falling
// back to the container's full text when it has no paragraphs.
func extractText(doc *goquery.Document) string {
	container := doc.Selection
	if main := doc.Find("main").First(); main.Length() > 0 {
		container = main
	} else if article := doc.Find("article").First(); article.Length() > 0 {
		container = article
	}

	var paragraphs []string
	container.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := collapseWhitespace(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return collapseWhitespace(container.Text())
	}
	return strings.Join(paragraphs, " ")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
