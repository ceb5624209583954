package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/retry"
)

const feishuTitle = "🤖 AI行业快讯"

// Feishu posts the digest as an interactive card to a custom-bot webhook.
type Feishu struct {
	webhook string
	client  *http.Client
	retry   retry.Config
	log     logger.Logger
	now     func() time.Time
}

func NewFeishu(webhook string, client *http.Client, retryCfg retry.Config, log logger.Logger) *Feishu {
	return &Feishu{
		webhook: webhook,
		client:  client,
		retry:   retryCfg,
		log:     log.With(logger.Component("feishu")),
		now:     time.Now,
	}
}

func (f *Feishu) Name() string { return "feishu" }

type card struct {
	MsgType string   `json:"msg_type"`
	Card    cardBody `json:"card"`
}

type cardBody struct {
	Header   cardHeader    `json:"header"`
	Elements []cardElement `json:"elements"`
}

type cardHeader struct {
	Title    cardText `json:"title"`
	Template string   `json:"template"`
}

type cardElement struct {
	Tag  string    `json:"tag"`
	Text *cardText `json:"text,omitempty"`
}

type cardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type feishuReply struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (f *Feishu) Notify(ctx context.Context, digests []news.Digest) error {
	body, err := json.Marshal(f.buildCard(digests))
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}

	return retry.Do(ctx, f.retry, func(ctx context.Context) error {
		return f.post(ctx, body)
	}, func(attempt int, err error) {
		f.log.Warn("Feishu post failed, retrying", logger.Int("attempt", attempt), logger.Error(err))
	})
}

func (f *Feishu) buildCard(digests []news.Digest) card {
	elements := make([]cardElement, 0, 2*len(digests))
	for i, d := range digests {
		if i > 0 {
			elements = append(elements, cardElement{Tag: "hr"})
		}
		content := fmt.Sprintf("**%s %s**\n\n%s\n\n来源：[%s](%s)",
			itemNumber(i), d.Title, d.Summary, sourceName(d), link(d))
		elements = append(elements, cardElement{
			Tag:  "div",
			Text: &cardText{Tag: "lark_md", Content: content},
		})
	}

	return card{
		MsgType: "interactive",
		Card: cardBody{
			Header: cardHeader{
				Title:    cardText{Tag: "plain_text", Content: feishuTitle + " | " + f.now().Format("2006-01-02")},
				Template: "blue",
			},
			Elements: elements,
		},
	}
}

func (f *Feishu) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhook, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("webhook HTTP status %d: %s", resp.StatusCode, raw)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}

	var reply feishuReply
	if len(raw) > 0 && json.Unmarshal(raw, &reply) == nil && reply.Code != 0 {
		f.log.Error("Feishu API error", logger.Int("code", reply.Code), logger.String("msg", reply.Msg))
		return retry.Permanent(fmt.Errorf("%w: code %d: %s", ErrWebhook, reply.Code, reply.Msg))
	}
	return nil
}
