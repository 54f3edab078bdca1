package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go-boss-assistant/internal/models"
)

// Keys shared with anything else that reads the store.
const (
	KeySettings         = "settings"
	KeyProfile          = "profile_static"
	KeyAutoReplyEnabled = "auto_reply_enabled"
	KeyScrollToSection  = "_scroll_to_section"
)

// Records gives typed access to the well-known keys. Nothing is cached: every
// call goes to the backend so edits made elsewhere apply to the next call.
type Records struct {
	kv KV
}

func NewRecords(kv KV) *Records {
	return &Records{kv: kv}
}

func (r *Records) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Records) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return r.kv.Set(ctx, key, raw)
}

// Settings returns the stored model settings, zero when never saved.
func (r *Records) Settings(ctx context.Context) (models.ModelSettings, error) {
	var s models.ModelSettings
	_, err := r.getJSON(ctx, KeySettings, &s)
	return s, err
}

func (r *Records) SaveSettings(ctx context.Context, s models.ModelSettings) error {
	return r.setJSON(ctx, KeySettings, s)
}

// Profile returns the stored candidate profile, zero when never saved.
func (r *Records) Profile(ctx context.Context) (models.CandidateProfile, error) {
	var p models.CandidateProfile
	_, err := r.getJSON(ctx, KeyProfile, &p)
	return p, err
}

// SaveProfile stamps the current schema version before writing.
func (r *Records) SaveProfile(ctx context.Context, p models.CandidateProfile) error {
	p.SchemaVersion = models.ProfileSchemaVersion
	return r.setJSON(ctx, KeyProfile, p)
}

// AutoReplyEnabled defaults to true when the toggle was never written.
func (r *Records) AutoReplyEnabled(ctx context.Context) (bool, error) {
	enabled := true
	if _, err := r.getJSON(ctx, KeyAutoReplyEnabled, &enabled); err != nil {
		return true, err
	}
	return enabled, nil
}

func (r *Records) SetAutoReplyEnabled(ctx context.Context, enabled bool) error {
	return r.setJSON(ctx, KeyAutoReplyEnabled, enabled)
}

// SetScrollHint leaves a section name for the options surface to jump to.
func (r *Records) SetScrollHint(ctx context.Context, section string) error {
	return r.setJSON(ctx, KeyScrollToSection, section)
}

// TakeScrollHint returns the pending section and clears it, so a hint is
// consumed once.
func (r *Records) TakeScrollHint(ctx context.Context) (string, error) {
	var section string
	ok, err := r.getJSON(ctx, KeyScrollToSection, &section)
	if err != nil || !ok {
		return "", err
	}
	if err := r.kv.Delete(ctx, KeyScrollToSection); err != nil {
		return section, err
	}
	return section, nil
}
