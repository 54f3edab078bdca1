package greeting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"go-boss-assistant/internal/ai"
	"go-boss-assistant/internal/models"
)

var (
	// ErrInProgress means a greeting is already being generated.
	ErrInProgress = errors.New("greeting generation already in progress")
	// ErrNoConversation means no job data has been seen; the user has to
	// select a conversation first.
	ErrNoConversation = errors.New("no conversation selected")
)

// Gateway is the part of the model gateway the generator needs.
type Gateway interface {
	SettingsComplete(ctx context.Context) bool
	Greeting(ctx context.Context, job models.JobInfo) (string, error)
	FetchJobDetail(ctx context.Context, encryptJobID, securityID string) (string, error)
}

// Filler writes into the chat input unconditionally.
type Filler interface {
	Fill(ctx context.Context, text string) error
}

type Generator struct {
	tracker *Tracker
	gateway Gateway
	filler  Filler

	inFlight atomic.Bool
}

func NewGenerator(tracker *Tracker, gateway Gateway, filler Filler) *Generator {
	return &Generator{tracker: tracker, gateway: gateway, filler: filler}
}

// Generate composes a greeting for the current conversation and writes it into
// the chat input. Only one generation runs at a time.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	if !g.inFlight.CompareAndSwap(false, true) {
		return "", ErrInProgress
	}
	defer g.inFlight.Store(false)

	data, _, desc := g.tracker.Current()
	if data.EncryptJobID == "" {
		return "", ErrNoConversation
	}
	if !g.gateway.SettingsComplete(ctx) {
		return "", ai.ErrIncompleteSettings
	}

	if desc == "" && data.Fetchable() {
		full, err := g.gateway.FetchJobDetail(ctx, data.EncryptJobID, data.SecurityID)
		if err != nil {
			log.Printf("⚠️ [greeting] Failed to fetch full job description, using partial data: %v", err)
		} else {
			g.tracker.SetDescription(data.EncryptJobID, full)
			log.Printf("📄 [greeting] Full job description fetched (%d chars)", len([]rune(full)))
		}
	}

	data, snap, desc := g.tracker.Current()
	job := Merge(data, snap, desc)

	text, err := g.gateway.Greeting(ctx, job)
	if err != nil {
		return "", fmt.Errorf("failed to generate greeting: %w", err)
	}
	if text == "" {
		return "", ai.ErrEmptyContent
	}

	if g.filler != nil {
		if err := g.filler.Fill(ctx, text); err != nil {
			return text, err
		}
	}
	log.Printf("✅ [greeting] Greeting written for %s", job.JobName)
	return text, nil
}
