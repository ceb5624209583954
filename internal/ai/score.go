package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

const (
	scoreSystemPrompt = "You are an AI news analyst. Output only a number between 0 and 100."
	scoreSummaryChars = 1000
)

var firstInt = regexp.MustCompile(`\d+`)

// Scorer asks a model for a 0-100 importance judgement of a cluster.
type Scorer struct {
	model Completer
	log   logger.Logger
}

func NewScorer(model Completer, log logger.Logger) *Scorer {
	return &Scorer{model: model, log: log.With(logger.Component("ai_scorer"))}
}

// ModelScore returns the model's score clamped to [0, 100]. On any failure it
// returns news.DefaultModelScore together with the error.
func (s *Scorer) ModelScore(ctx context.Context, c *news.Cluster) (int, error) {
	reply, err := s.model.Complete(ctx, Prompt{
		System:      scoreSystemPrompt,
		User:        scorePrompt(c),
		Temperature: 0.1,
		MaxTokens:   10,
	})
	if err != nil {
		return news.DefaultModelScore, fmt.Errorf("score %q: %w", c.Title, err)
	}

	score, err := parseScore(reply)
	if err != nil {
		s.log.Warn("Unusable score reply", logger.String("title", c.Title), logger.String("reply", reply))
		return news.DefaultModelScore, err
	}
	return score, nil
}

func scorePrompt(c *news.Cluster) string {
	summary := limitText(strings.Join(c.Summaries, " "), scoreSummaryChars)
	return fmt.Sprintf(`Give this AI news item an importance score (0-100).
Consider: Industry Impact, Technical Breakthrough, Company Influence.
Return ONLY the number.

Title: %s
Summary: %s`, c.Title, summary)
}

// parseScore takes the first integer in reply.
func parseScore(reply string) (int, error) {
	m := firstInt.FindString(reply)
	if m == "" {
		return 0, ErrNoScore
	}
	n, err := strconv.Atoi(m)
	if err != nil || n > 100 {
		// digits too long for an int are still "more than 100"
		return 100, nil
	}
	return n, nil
}
