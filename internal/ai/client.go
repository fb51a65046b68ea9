// Package ai wraps the OpenAI chat completions endpoint.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nurpe/rentals/internal/config"
)

const (
	maxTokens   = 500
	temperature = 0.3
)

var ErrNotConfigured = errors.New("openai api key not configured")

type Client struct {
	api   *openai.Client
	model string
}

// NewClient returns a client whose Complete fails with ErrNotConfigured
// when no API key is set.
func NewClient(cfg config.AIConfig) *Client {
	if cfg.APIKey == "" {
		return &Client{model: cfg.Model}
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{api: openai.NewClientWithConfig(oc), model: cfg.Model}
}

// Complete sends one system and one user message and returns the trimmed
// reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil || c.api == nil {
		return "", ErrNotConfigured
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai returned empty content")
	}
	return content, nil
}
