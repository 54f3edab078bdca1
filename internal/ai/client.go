package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Client is the interface for OpenAI-compatible chat-completions providers.
type Client interface {
	// Complete sends the conversation and returns the assistant's text,
	// aggregating a streamed response when req.Stream is set.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Ping sends a minimal non-streaming request to verify the endpoint, key
	// and model name.
	Ping(ctx context.Context) error
}

// Message is one chat-completions message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   int
	Stream      bool
	// Options are merged into the request body as-is (keys are sjson paths).
	Options map[string]any
}

// Temperature is a small helper for CompletionRequest.Temperature.
func Temperature(v float64) *float64 {
	return &v
}

var (
	// ErrIncompleteSettings means api base, key or model is missing; no
	// request was sent.
	ErrIncompleteSettings = errors.New("model settings incomplete: api base, api key and model are required")
	// ErrEmptyContent means the call succeeded but produced no text.
	ErrEmptyContent = errors.New("model returned no content")
	// ErrNoChoices is returned by Ping when the endpoint answers without choices.
	ErrNoChoices = errors.New("model returned no valid response")
)

// HTTPError is a non-2xx answer from the endpoint.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d %s\n%s", e.StatusCode, e.URL, e.Body)
}

// APIMessage returns the provider's error message from the body, if any.
func (e *HTTPError) APIMessage() string {
	return apiMessage(e.Body)
}

func apiMessage(body string) string {
	if !gjson.Valid(body) {
		return ""
	}
	if msg := gjson.Get(body, "error.message"); msg.Exists() {
		return msg.String()
	}
	return gjson.Get(body, "message").String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
