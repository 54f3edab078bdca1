package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go-boss-assistant/internal/models"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const chatCompletionsPath = "/chat/completions"

// ChatCompletionsURL derives the endpoint from an API base. Trailing slashes
// are stripped; a base already ending in /chat/completions is kept as is.
func ChatCompletionsURL(apiBase string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if base == "" {
		return "", fmt.Errorf("api base is empty")
	}
	if strings.HasSuffix(base, chatCompletionsPath) {
		return base, nil
	}
	return base + chatCompletionsPath, nil
}

type openAIClient struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for any OpenAI-compatible endpoint. A nil
// httpClient gets a default with a generous timeout for streamed answers.
func NewOpenAIClient(settings models.ModelSettings, httpClient *http.Client) (Client, error) {
	if !settings.Complete() {
		return nil, ErrIncompleteSettings
	}
	url, err := ChatCompletionsURL(settings.APIBase)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &openAIClient{
		apiKey:     strings.TrimSpace(settings.APIKey),
		model:      strings.TrimSpace(settings.Model),
		url:        url,
		httpClient: httpClient,
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *openAIClient) buildBody(req CompletionRequest) ([]byte, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	keys := make([]string, 0, len(req.Options))
	for k := range req.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		body, err = sjson.SetBytes(body, k, req.Options[k])
		if err != nil {
			return nil, fmt.Errorf("failed to set option %q: %w", k, err)
		}
	}
	return body, nil
}

func (c *openAIClient) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	return resp, nil
}

// Complete sends the request and returns the raw, untrimmed content.
func (c *openAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body, err := c.buildBody(req)
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: c.url, Body: string(raw)}
	}

	var content string
	if req.Stream {
		content, err = ReadStream(resp.Body)
	} else {
		content, err = readCompletion(resp.Body)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

func readCompletion(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

// Ping checks the connection with a five-token "hi".
func (c *openAIClient) Ping(ctx context.Context) error {
	body, err := c.buildBody(CompletionRequest{
		Messages:  []Message{{Role: "user", Content: "hi"}},
		MaxTokens: 5,
	})
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := apiMessage(string(raw))
		if detail == "" {
			detail = truncate(string(raw), 100)
		}
		return &HTTPError{StatusCode: resp.StatusCode, Body: detail}
	}

	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("response is not JSON: %s", truncate(string(raw), 100))
	}
	if gjson.GetBytes(raw, "choices.#").Int() == 0 {
		return ErrNoChoices
	}
	return nil
}
