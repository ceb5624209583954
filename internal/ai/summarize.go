package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

const (
	summarySystemPrompt = "You are a helpful AI news assistant. Respond with valid JSON only."
	summaryInputChars   = 4000
	DefaultLanguage     = "Chinese"
	dateLayout          = "2006-01-02"
)

// Summarizer produces a structured digest entry for a cluster with a model.
type Summarizer struct {
	model    Completer
	language string
	log      logger.Logger
}

// NewSummarizer creates a summarizer writing digests in language
// (DefaultLanguage when empty).
func NewSummarizer(model Completer, language string, log logger.Logger) *Summarizer {
	if language == "" {
		language = DefaultLanguage
	}
	return &Summarizer{
		model:    model,
		language: language,
		log:      log.With(logger.Component("ai_summarizer")),
	}
}

func (s *Summarizer) Summarize(ctx context.Context, sc news.ScoredCluster) (news.Digest, error) {
	reply, err := s.model.Complete(ctx, Prompt{
		System:      summarySystemPrompt,
		User:        s.prompt(sc),
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		return news.Digest{}, fmt.Errorf("summarize %q: %w", sc.Title, err)
	}

	d, err := parseDigest(reply)
	if err != nil {
		s.log.Debug("Unparsable summary reply", logger.String("reply", reply))
		return news.Digest{}, fmt.Errorf("summarize %q: %w", sc.Title, err)
	}
	return complete(d, sc.Cluster), nil
}

func (s *Summarizer) prompt(sc news.ScoredCluster) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Analyze the following AI news and generate a structured summary JSON.

Input News:
Title: %s
Sources: %s
Content Summaries: %s
`, sc.Title, strings.Join(sc.Sources, ", "), limitText(strings.Join(sc.Summaries, "\n"), summaryInputChars))

	if text := sc.ArticleText(); text != "" {
		fmt.Fprintf(&b, "Article Text: %s\n", limitText(text, summaryInputChars))
	}

	fmt.Fprintf(&b, `
Requirements:
1. title: <= 30 words, translated to %[1]s if needed.
2. summary: 40-60 words, describing company, product, update content. In %[1]s.
3. key_points: 2-3 bullet points, list of capabilities or features. In %[1]s.
4. impact: 30-50 words, describing industry significance. In %[1]s.
5. publish_date: YYYY-MM-DD format.

Output JSON format:
{
  "title": "...",
  "summary": "...",
  "key_points": ["...", "..."],
  "impact": "...",
  "publish_date": "YYYY-MM-DD"
}`, s.language)
	return b.String()
}

// parseDigest decodes a model reply, tolerating markdown code fences and text
// around the JSON object.
func parseDigest(reply string) (news.Digest, error) {
	body := strings.TrimSpace(reply)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var d news.Digest
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return news.Digest{}, fmt.Errorf("decode summary: %w", err)
	}
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Summary) == "" {
		return news.Digest{}, errors.New("summary reply misses title or summary")
	}
	return d, nil
}

// complete fills the delivery fields the model does not produce from the
// cluster's representative item.
func complete(d news.Digest, c *news.Cluster) news.Digest {
	rep := c.Representative()
	d.OriginalTitle = rep.Title
	d.Links = c.Links
	d.Sources = c.Sources
	if d.SourceName == "" {
		d.SourceName = rep.Source
	}
	if d.URL == "" {
		d.URL = rep.Link
	}
	if d.PublishDate == "" && !c.PublishTime.IsZero() {
		d.PublishDate = c.PublishTime.Format(dateLayout)
	}
	return d
}

// FallbackSummarizer builds an extractive digest without a model. It is used
// when no API key is configured.
type FallbackSummarizer struct{}

func (FallbackSummarizer) Summarize(_ context.Context, sc news.ScoredCluster) (news.Digest, error) {
	var text string
	for _, s := range append(append([]string{}, sc.Summaries...), sc.ArticleText()) {
		if strings.TrimSpace(s) != "" {
			text = s
			break
		}
	}
	return complete(news.Digest{
		Title:   sc.Title,
		Summary: extractSummary(text),
	}, sc.Cluster), nil
}

// extractSummary keeps the first two sentences of reasonable length.
func extractSummary(content string) string {
	c := strings.Join(strings.Fields(content), " ")
	if c == "" {
		return "(no content)"
	}

	var picked []string
	for _, s := range strings.Split(c, ".") {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) < 25 {
			continue
		}
		picked = append(picked, s)
		if len(picked) >= 2 {
			break
		}
	}
	if len(picked) == 0 {
		if utf8.RuneCountInString(c) > 160 {
			return string([]rune(c)[:160]) + "..."
		}
		return c
	}
	return strings.Join(picked, ". ") + "."
}
