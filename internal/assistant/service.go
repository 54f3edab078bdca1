// Package assistant is the worker side of the model gateway. Callers hand it a
// dialogue or a job record; it loads the current settings and profile, builds
// the prompt, calls the model and interprets the answer.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go-boss-assistant/internal/ai"
	"go-boss-assistant/internal/models"
	"go-boss-assistant/internal/store"
)

const (
	replyTemperature    = 0.1
	greetingTemperature = 0.7
)

var (
	ErrEmptyDialogue    = errors.New("dialogue is empty")
	ErrMissingJobIDs    = errors.New("encryptJobId and securityId are required")
	ErrFetchUnavailable = errors.New("job detail fetch is not available")
)

// ClientFactory builds a model client for the given settings.
type ClientFactory func(models.ModelSettings) (ai.Client, error)

// DetailFetcher loads the full job description from the detail page.
type DetailFetcher interface {
	FetchJobDetail(ctx context.Context, encryptJobID, securityID string) (string, error)
}

type Options struct {
	// Streaming requests SSE answers for chat replies and greetings.
	Streaming bool
	// MessagesVariant sends the dialogue as role-tagged messages instead of
	// one transcript string.
	MessagesVariant bool
}

type Service struct {
	records   *store.Records
	newClient ClientFactory
	fetcher   DetailFetcher
	opts      Options
}

func NewService(records *store.Records, fetcher DetailFetcher, opts Options) *Service {
	return &Service{
		records: records,
		newClient: func(s models.ModelSettings) (ai.Client, error) {
			return ai.NewOpenAIClient(s, nil)
		},
		fetcher: fetcher,
		opts:    opts,
	}
}

// WithClientFactory replaces how model clients are built.
func (s *Service) WithClientFactory(f ClientFactory) *Service {
	s.newClient = f
	return s
}

// client reads the settings fresh on every call.
func (s *Service) client(ctx context.Context) (ai.Client, error) {
	settings, err := s.records.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.Complete() {
		return nil, ai.ErrIncompleteSettings
	}
	return s.newClient(settings)
}

// SettingsComplete reports whether a model call could be attempted now.
func (s *Service) SettingsComplete(ctx context.Context) bool {
	settings, err := s.records.Settings(ctx)
	return err == nil && settings.Complete()
}

type ChatReplyRequest struct {
	// Dialogue is the bracketed transcript.
	Dialogue string `json:"dialogue"`
	// Messages is the structured form, used when the messages variant is on.
	Messages []ai.Message `json:"messages,omitempty"`
}

// ChatReply asks the model whether it can answer the recruiter's open
// questions from the profile. Unparseable output is a "cannot answer".
func (s *Service) ChatReply(ctx context.Context, req ChatReplyRequest) (models.Decision, error) {
	if strings.TrimSpace(req.Dialogue) == "" && len(req.Messages) == 0 {
		return models.Decision{}, ErrEmptyDialogue
	}

	client, err := s.client(ctx)
	if err != nil {
		return models.Decision{}, err
	}
	profile, err := s.records.Profile(ctx)
	if err != nil {
		return models.Decision{}, fmt.Errorf("failed to load profile: %w", err)
	}

	messages := []ai.Message{{Role: "system", Content: ai.BuildReplySystemPrompt(profile)}}
	if s.opts.MessagesVariant && len(req.Messages) > 0 {
		messages = append(messages, req.Messages...)
	} else {
		if strings.TrimSpace(req.Dialogue) == "" {
			return models.Decision{}, ErrEmptyDialogue
		}
		messages = append(messages, ai.Message{Role: "user", Content: ai.BuildReplyUserPrompt(req.Dialogue)})
	}

	content, err := client.Complete(ctx, ai.CompletionRequest{
		Messages:    messages,
		Temperature: ai.Temperature(replyTemperature),
		Stream:      s.opts.Streaming,
	})
	if err != nil {
		return models.Decision{}, err
	}

	decision, ok := ai.ParseDecision(content)
	if !ok {
		log.Printf("⚠️ [assistant] Model output is not JSON, treating as cannot answer: %.200s", content)
	}
	return decision, nil
}

// Greeting writes the two-line opening message for a job.
func (s *Service) Greeting(ctx context.Context, job models.JobInfo) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}
	profile, err := s.records.Profile(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}

	content, err := client.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: ai.BuildGreetingSystemPrompt(profile)},
			{Role: "user", Content: ai.BuildGreetingUserPrompt(job)},
		},
		Temperature: ai.Temperature(greetingTemperature),
		Stream:      s.opts.Streaming,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// TestConnection pings the endpoint with settings that may not be saved yet.
func (s *Service) TestConnection(ctx context.Context, settings models.ModelSettings) error {
	client, err := s.newClient(settings)
	if err != nil {
		return err
	}
	return client.Ping(ctx)
}

func (s *Service) FetchJobDetail(ctx context.Context, encryptJobID, securityID string) (string, error) {
	if encryptJobID == "" || securityID == "" {
		return "", ErrMissingJobIDs
	}
	if s.fetcher == nil {
		return "", ErrFetchUnavailable
	}
	return s.fetcher.FetchJobDetail(ctx, encryptJobID, securityID)
}
