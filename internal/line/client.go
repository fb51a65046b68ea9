// Package line talks to the LINE Messaging API.
package line

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

const maxTextLength = 5000

var errNotConfigured = errors.New("line client: access token not configured")

// APIError is a non-2xx answer from the platform.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line api: status %d: %s", e.Status, e.Message)
}

// Client sends text messages through the SDK's messaging client. The SDK
// keeps the request context on the client, so calls are serialized.
type Client struct {
	mu  sync.Mutex
	api *messaging_api.MessagingApiAPI
}

// NewClient returns a disabled client when accessToken is empty.
func NewClient(baseURL, accessToken string, timeout time.Duration) (*Client, error) {
	if accessToken == "" {
		return &Client{}, nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	api, err := messaging_api.NewMessagingApiAPI(
		accessToken,
		messaging_api.WithEndpoint(strings.TrimRight(baseURL, "/")),
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("line client: %w", err)
	}
	return &Client{api: api}, nil
}

// Enabled reports whether an access token is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	if !c.Enabled() {
		return errNotConfigured
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, _, err := c.api.WithContext(ctx).ReplyMessageWithHttpInfo(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   []messaging_api.MessageInterface{NewText(text)},
	})
	return apiError(resp, err)
}

func (c *Client) PushText(ctx context.Context, to, text string) error {
	if !c.Enabled() {
		return errNotConfigured
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, _, err := c.api.WithContext(ctx).PushMessageWithHttpInfo(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: []messaging_api.MessageInterface{NewText(text)},
	}, "")
	return apiError(resp, err)
}

// NewText builds a text message cut to the platform's length limit.
func NewText(text string) messaging_api.TextMessage {
	if r := []rune(text); len(r) > maxTextLength {
		text = string(r[:maxTextLength])
	}
	return messaging_api.TextMessage{Text: text}
}

func apiError(resp *http.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.StatusCode/100 != 2 {
		return &APIError{Status: resp.StatusCode, Message: err.Error()}
	}
	return err
}
