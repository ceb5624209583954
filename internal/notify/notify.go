// Package notify delivers the finished digest to its readers.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

// ErrWebhook is returned when a webhook accepts the request but reports a
// non-zero result code.
var ErrWebhook = errors.New("webhook rejected message")

// Notifier sends a ranked list of digests somewhere.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, digests []news.Digest) error
}

// Multi sends to every notifier. One failing channel does not stop the others.
type Multi struct {
	notifiers []Notifier
	log       logger.Logger

	// OnSent, if set, is called after each successful delivery.
	OnSent func(name string, count int)
}

func NewMulti(log logger.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, log: log.With(logger.Component("notify"))}
}

func (m *Multi) Name() string { return "multi" }

// Len is the number of configured channels.
func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Notify(ctx context.Context, digests []news.Digest) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, digests); err != nil {
			m.log.Error("Notification failed", logger.String("channel", n.Name()), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		m.log.Info("Notification sent", logger.String("channel", n.Name()), logger.Int("items", len(digests)))
		if m.OnSent != nil {
			m.OnSent(n.Name(), len(digests))
		}
	}
	return errors.Join(errs...)
}

var numberEmoji = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣"}

// itemNumber renders the 1-based position i+1, as an emoji for the first five.
func itemNumber(i int) string {
	if i < len(numberEmoji) {
		return numberEmoji[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

func sourceName(d news.Digest) string {
	if d.SourceName != "" {
		return d.SourceName
	}
	return "Unknown Source"
}

func link(d news.Digest) string {
	if u := d.PrimaryURL(); u != "" {
		return u
	}
	return "#"
}
