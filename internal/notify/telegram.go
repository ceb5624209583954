package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/ainews/internal/news"
)

// telegramLimit is the Bot API cap on message length.
const telegramLimit = 4096

// MessageSender posts one HTML message.
type MessageSender interface {
	SendMessage(ctx context.Context, text string) error
}

// Telegram posts the digest to a chat, as one message when it fits and one
// message per item otherwise.
type Telegram struct {
	sender MessageSender
	now    func() time.Time
}

func NewTelegram(sender MessageSender) *Telegram {
	return &Telegram{sender: sender, now: time.Now}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, digests []news.Digest) error {
	header := fmt.Sprintf("🤖 <b>AI News Digest</b> | %s\n━━━━━━━━━━━━━━━━━━━━\n\n", t.now().Format("2006-01-02"))

	items := make([]string, len(digests))
	for i, d := range digests {
		items[i] = formatTelegramItem(d, i)
	}

	whole := header + strings.Join(items, "➖➖➖➖➖➖➖➖➖➖\n\n")
	if utf8.RuneCountInString(whole) <= telegramLimit {
		return t.sender.SendMessage(ctx, whole)
	}

	for i, item := range items {
		msg := item
		if i == 0 {
			msg = header + item
		}
		if err := t.sender.SendMessage(ctx, truncateRunes(msg, telegramLimit)); err != nil {
			return fmt.Errorf("send item %d: %w", i+1, err)
		}
	}
	return nil
}

func formatTelegramItem(d news.Digest, i int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <a href=\"%s\"><b>%s</b></a>\n\n", itemNumber(i), html.EscapeString(link(d)), html.EscapeString(d.Title))
	b.WriteString(html.EscapeString(d.Summary))
	b.WriteString("\n\n")

	for _, p := range d.KeyPoints {
		fmt.Fprintf(&b, "• %s\n", html.EscapeString(p))
	}
	if len(d.KeyPoints) > 0 {
		b.WriteString("\n")
	}
	if d.Impact != "" {
		fmt.Fprintf(&b, "💡 <i>%s</i>\n\n", html.EscapeString(d.Impact))
	}
	fmt.Fprintf(&b, "📰 %s\n\n", html.EscapeString(sourceName(d)))
	return b.String()
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}
