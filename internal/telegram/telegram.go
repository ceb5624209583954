// Package telegram is a minimal Bot API client for posting HTML messages.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/retry"
)

const DefaultBaseURL = "https://api.telegram.org"

type Client struct {
	// BaseURL of the Bot API, DefaultBaseURL unless overridden.
	BaseURL string

	http   *http.Client
	token  string
	chatID string
	retry  retry.Config
	log    logger.Logger
}

func NewClient(httpClient *http.Client, token, chatID string, retryCfg retry.Config, log logger.Logger) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		http:    httpClient,
		token:   token,
		chatID:  chatID,
		retry:   retryCfg,
		log:     log.With(logger.Component("telegram")),
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts text (HTML parse mode, no link previews) with retries.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	err = retry.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.sendOnce(ctx, body)
	}, func(attempt int, err error) {
		c.log.Warn("Telegram send failed, retrying", logger.Int("attempt", attempt), logger.Error(err))
	})
	if err != nil {
		return err
	}
	c.log.Debug("Message sent to Telegram", logger.Int("chars", len(text)))
	return nil
}

func (c *Client) sendOnce(ctx context.Context, body []byte) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK || !out.OK {
		err := fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, out.Description)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}
	return nil
}
