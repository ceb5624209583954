// Package openai implements ai.Completer for OpenAI-compatible chat APIs
// (OpenAI itself and DeepSeek).
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	gpt "github.com/sashabaranov/go-openai"

	"github.com/deusflow/ainews/internal/ai"
	"github.com/deusflow/ainews/internal/retry"
)

// DeepSeekBaseURL is used for the deepseek provider when no base URL is given.
const DeepSeekBaseURL = "https://api.deepseek.com"

type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Timeout  time.Duration
}

type Client struct {
	api   *gpt.Client
	model string
}

func NewClient(cfg Config) *Client {
	conf := gpt.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.Provider == "deepseek":
		conf.BaseURL = DeepSeekBaseURL
	}
	if cfg.Timeout > 0 {
		conf.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = gpt.GPT4o
	}
	return &Client{api: gpt.NewClientWithConfig(conf), model: model}
}

func (c *Client) Complete(ctx context.Context, p ai.Prompt) (string, error) {
	var messages []gpt.ChatCompletionMessage
	if p.System != "" {
		messages = append(messages, gpt.ChatCompletionMessage{Role: gpt.ChatMessageRoleSystem, Content: p.System})
	}
	messages = append(messages, gpt.ChatCompletionMessage{Role: gpt.ChatMessageRoleUser, Content: p.User})

	req := gpt.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
	if p.JSON {
		req.ResponseFormat = &gpt.ChatCompletionResponseFormat{Type: gpt.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *gpt.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != http.StatusTooManyRequests {
			return "", retry.Permanent(err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from model")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
