// Package scraper turns HTML into plain text: feed descriptions and, when
// enabled, the full body of a linked article.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/ainews/internal/logger"
)

// UserAgent is sent with page and feed requests; some publishers reject the Go default.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	maxArticleChars  = 1800
	keptArticleChars = 1600
	minParagraphLen  = 20
)

// ErrNoContent is returned when a page has no recognisable article text.
var ErrNoContent = errors.New("no article content found")

type Article struct {
	Title   string
	Content string
	URL     string
}

// HTMLToText flattens an HTML fragment to whitespace-normalised text with
// entities decoded.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style, noscript").Remove()
	// keep words in adjacent block elements apart
	doc.Find("p, br, div, li, h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Extractor downloads article pages and pulls out their text.
type Extractor struct {
	client *http.Client
	log    logger.Logger
}

func NewExtractor(client *http.Client, log logger.Logger) *Extractor {
	return &Extractor{client: client, log: log.With(logger.Component("scraper"))}
}

// Extract gets the full text of the article at url.
func (e *Extractor) Extract(ctx context.Context, url string) (*Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	content := cleanContent(extractContent(doc))
	if content == "" {
		return nil, ErrNoContent
	}

	e.log.Debug("Article extracted", logger.String("url", url), logger.Int("chars", len(content)))
	return &Article{Title: extractTitle(doc), Content: content, URL: url}, nil
}

// extractContent tries the usual article containers from most to least specific.
func extractContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, aside, form").Remove()

	selectors := []string{
		"article p",
		".article p",
		".content p",
		".post-content p",
		".entry-content p",
		"main p",
		"#content p",
		"p",
	}

	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if len(text) > minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 || (selector == "p" && len(paragraphs) > 0) {
			return strings.Join(paragraphs, "\n\n")
		}
	}
	return ""
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1", "title", ".article-title", ".headline", ".entry-title"} {
		if title := strings.TrimSpace(doc.Find(selector).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

var junkIndicators = []string{
	"cookie", "subscribe", "newsletter", "sign up", "sign in", "advertisement",
	"all rights reserved", "share this", "follow us", "read more",
}

// cleanContent drops boilerplate paragraphs and keeps whole paragraphs up to
// the length cap.
func cleanContent(content string) string {
	var kept []string
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" || isJunk(p) {
			continue
		}
		kept = append(kept, p)
	}

	text := strings.Join(kept, "\n\n")
	if len(text) <= maxArticleChars {
		return text
	}

	var selected []string
	total := 0
	for _, p := range kept {
		if total+len(p) >= keptArticleChars {
			break
		}
		selected = append(selected, p)
		total += len(p) + 2
	}
	if len(selected) == 0 {
		cut := text[:keptArticleChars]
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		return strings.ToValidUTF8(cut, "")
	}
	return strings.Join(selected, "\n\n")
}

func isJunk(paragraph string) bool {
	if len(paragraph) > 200 {
		return false
	}
	lower := strings.ToLower(paragraph)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
