// Package ai turns a chat-completion model into the two judgements the digest
// needs: an importance score and a structured summary.
package ai

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/retry"
)

// ErrNoScore is returned when a model reply carries no integer.
var ErrNoScore = errors.New("no score in model reply")

type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSON        bool // ask the provider for a JSON object reply
}

// Completer sends one prompt to a model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Acquirer hands out permission for one model request.
type Acquirer interface {
	Acquire(ctx context.Context) error
}

type budgeted struct {
	next   Completer
	budget Acquirer
}

// WithBudget makes every completion acquire from budget first.
func WithBudget(next Completer, budget Acquirer) Completer {
	return &budgeted{next: next, budget: budget}
}

func (b *budgeted) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := b.budget.Acquire(ctx); err != nil {
		return "", err
	}
	return b.next.Complete(ctx, p)
}

type retrying struct {
	next Completer
	cfg  retry.Config
	log  logger.Logger
}

// WithRetry retries failed completions according to cfg.
func WithRetry(next Completer, cfg retry.Config, log logger.Logger) Completer {
	return &retrying{next: next, cfg: cfg, log: log}
}

func (r *retrying) Complete(ctx context.Context, p Prompt) (string, error) {
	var out string
	err := retry.Do(ctx, r.cfg, func(ctx context.Context) error {
		var err error
		out, err = r.next.Complete(ctx, p)
		return err
	}, func(attempt int, err error) {
		r.log.Warn("Model request failed, retrying", logger.Int("attempt", attempt), logger.Error(err))
	})
	return out, err
}

// limitText collapses whitespace and cuts s to max runes, preferring to end on a
// sentence boundary.
func limitText(s string, max int) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "\r", "")), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	trimmed := string([]rune(s)[:max])
	if idx := strings.LastIndex(trimmed, ". "); idx > max/5 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed + " [TRUNCATED]"
}
